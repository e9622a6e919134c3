package extract

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"
)

type fakeObjectStore struct {
	objects map[string][]byte
}

func newFakeObjectStore() *fakeObjectStore {
	return &fakeObjectStore{objects: map[string][]byte{}}
}

func (f *fakeObjectStore) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	data, err := io.ReadAll(r)
	if err != nil {
		return err
	}
	f.objects[key] = data
	return nil
}

func (f *fakeObjectStore) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	data, ok := f.objects[key]
	if !ok {
		return nil, fmt.Errorf("object %s not found", key)
	}
	return io.NopCloser(bytes.NewReader(data)), nil
}

func (f *fakeObjectStore) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "http://fake/upload/" + key, nil
}

func (f *fakeObjectStore) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "http://fake/get/" + key, nil
}

func (f *fakeObjectStore) PublicURL(key string) string {
	return "http://fake/resumes-bucket/" + key
}

func (f *fakeObjectStore) Delete(ctx context.Context, key string) error {
	delete(f.objects, key)
	return nil
}

func TestExtractTextRemote(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/extract" {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		var req extractRequest
		if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
			t.Fatalf("decode: %v", err)
		}
		if req.Key != "resumes/a.pdf" {
			t.Errorf("key = %q, want resumes/a.pdf", req.Key)
		}
		_ = json.NewEncoder(w).Encode(extractResponse{Text: "ten years of Go"})
	}))
	defer srv.Close()

	s := NewService(srv.URL, nil, nil)
	text, err := s.ExtractText(context.Background(), "http://fake/resumes-bucket/resumes/a.pdf")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "ten years of Go" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractTextRemoteFailureSurfaces(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		_ = json.NewEncoder(w).Encode(extractResponse{Error: "parser crashed"})
	}))
	defer srv.Close()

	// The object exists locally, but a configured endpoint's failure
	// must surface to the caller, not retry with a local parse.
	store := newFakeObjectStore()
	store.objects["resumes/a.txt"] = []byte("plain text resume")

	s := NewService(srv.URL, store, nil)
	_, err := s.ExtractText(context.Background(), "http://fake/resumes-bucket/resumes/a.txt")
	if err == nil {
		t.Fatal("expected remote failure to surface")
	}
	if !strings.Contains(err.Error(), "parser crashed") {
		t.Errorf("err = %v, want remote error detail", err)
	}
}

func TestExtractTextLocalPlainText(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["resumes/b.txt"] = []byte("worked at three startups")

	s := NewService("", store, nil)
	text, err := s.ExtractText(context.Background(), "http://fake/resumes-bucket/resumes/b.txt")
	if err != nil {
		t.Fatalf("ExtractText: %v", err)
	}
	if text != "worked at three startups" {
		t.Errorf("text = %q", text)
	}
}

func TestExtractTextMissingObject(t *testing.T) {
	s := NewService("", newFakeObjectStore(), nil)
	if _, err := s.ExtractText(context.Background(), "http://fake/resumes-bucket/resumes/gone.pdf"); err == nil {
		t.Fatal("expected error for missing object")
	}
}

func TestExtractTextEmptyURL(t *testing.T) {
	s := NewService("", newFakeObjectStore(), nil)
	if _, err := s.ExtractText(context.Background(), "  "); err == nil {
		t.Fatal("expected error for empty url")
	}
}

func TestExtractTextBinaryGarbage(t *testing.T) {
	store := newFakeObjectStore()
	store.objects["resumes/c.bin"] = []byte{0xff, 0xfe, 0x00, 0x01}

	s := NewService("", store, nil)
	if _, err := s.ExtractText(context.Background(), "http://fake/resumes-bucket/resumes/c.bin"); err == nil {
		t.Fatal("expected error for non-text non-pdf data")
	}
}
