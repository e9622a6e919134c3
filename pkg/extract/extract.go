package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strings"
	"time"
	"unicode/utf8"

	"github.com/ledongthuc/pdf"

	"hireflow/pkg/storage"
)

// maxResumeBytes caps how much of an uploaded resume is read.
const maxResumeBytes = 10 << 20

// Extractor turns a stored resume into plain text for scoring.
type Extractor interface {
	ExtractText(ctx context.Context, resumeURL string) (string, error)
}

// Service extracts resume text. With a remote extraction endpoint
// configured, the storage key is posted to it and any failure surfaces
// to the caller unretried. Without an endpoint the resume is fetched
// from object storage and parsed locally. Local parsing handles PDF and
// plain text, which covers the formats the upload gateway presigns.
type Service struct {
	endpoint   string
	httpClient *http.Client
	store      storage.ObjectStore
	logger     *slog.Logger
}

// NewService builds an extraction service. endpoint may be empty to
// run local-only.
func NewService(endpoint string, store storage.ObjectStore, logger *slog.Logger) *Service {
	if logger == nil {
		logger = slog.Default()
	}
	return &Service{
		endpoint:   strings.TrimRight(strings.TrimSpace(endpoint), "/"),
		httpClient: &http.Client{Timeout: 30 * time.Second},
		store:      store,
		logger:     logger,
	}
}

// ExtractText returns the plain text content of the resume at resumeURL.
func (s *Service) ExtractText(ctx context.Context, resumeURL string) (string, error) {
	if strings.TrimSpace(resumeURL) == "" {
		return "", fmt.Errorf("resume url required")
	}
	key, err := storage.KeyFromURL(resumeURL)
	if err != nil {
		return "", fmt.Errorf("resolve resume key: %w", err)
	}
	if s.endpoint != "" {
		text, err := s.extractRemote(ctx, key)
		if err != nil {
			s.logger.Warn("remote extraction failed", "key", key, "error", err)
			return "", err
		}
		return text, nil
	}
	return s.extractLocal(ctx, key)
}

type extractRequest struct {
	Key string `json:"key"`
}

type extractResponse struct {
	Text  string `json:"text"`
	Error string `json:"error"`
}

func (s *Service) extractRemote(ctx context.Context, key string) (string, error) {
	body, err := json.Marshal(extractRequest{Key: key})
	if err != nil {
		return "", err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, s.endpoint+"/extract", bytes.NewReader(body))
	if err != nil {
		return "", err
	}
	req.Header.Set("Content-Type", "application/json")
	resp, err := s.httpClient.Do(req)
	if err != nil {
		return "", fmt.Errorf("extraction request: %w", err)
	}
	defer resp.Body.Close()
	var out extractResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return "", fmt.Errorf("extraction decode: %w", err)
	}
	if resp.StatusCode >= 400 {
		if out.Error != "" {
			return "", fmt.Errorf("extraction service: %s", out.Error)
		}
		return "", fmt.Errorf("extraction service: %s", resp.Status)
	}
	if strings.TrimSpace(out.Text) == "" {
		return "", fmt.Errorf("extraction service returned no text")
	}
	return out.Text, nil
}

func (s *Service) extractLocal(ctx context.Context, key string) (string, error) {
	if s.store == nil {
		return "", fmt.Errorf("no object store configured for local extraction")
	}
	rc, err := s.store.Get(ctx, key)
	if err != nil {
		return "", fmt.Errorf("fetch resume %s: %w", key, err)
	}
	defer rc.Close()
	data, err := io.ReadAll(io.LimitReader(rc, maxResumeBytes))
	if err != nil {
		return "", fmt.Errorf("read resume %s: %w", key, err)
	}
	if isPDF(data) {
		return pdfToText(data)
	}
	if !utf8.Valid(data) {
		return "", fmt.Errorf("resume %s is not pdf or utf-8 text", key)
	}
	return string(data), nil
}

func isPDF(data []byte) bool {
	return bytes.HasPrefix(data, []byte("%PDF-"))
}

func pdfToText(data []byte) (string, error) {
	reader, err := pdf.NewReader(bytes.NewReader(data), int64(len(data)))
	if err != nil {
		return "", fmt.Errorf("parse pdf: %w", err)
	}
	var sb strings.Builder
	for pageNum := 1; pageNum <= reader.NumPage(); pageNum++ {
		page := reader.Page(pageNum)
		if page.V.IsNull() {
			continue
		}
		text, err := page.GetPlainText(nil)
		if err != nil {
			continue
		}
		sb.WriteString(text)
		sb.WriteString("\n")
	}
	text := strings.TrimSpace(sb.String())
	if text == "" {
		return "", fmt.Errorf("pdf contains no extractable text")
	}
	return text, nil
}
