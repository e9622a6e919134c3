package server

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

	"github.com/alicebob/miniredis/v2"

	"hireflow/internal/app"
	"hireflow/pkg/domain"
	"hireflow/pkg/queue"
	"hireflow/pkg/store"
)

type fakeObjects struct{}

func (fakeObjects) Put(ctx context.Context, key string, r io.Reader, size int64, contentType string) error {
	return nil
}

func (fakeObjects) Get(ctx context.Context, key string) (io.ReadCloser, error) {
	return io.NopCloser(strings.NewReader("resume text")), nil
}

func (fakeObjects) PresignPut(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "http://objects.local/upload/" + key, nil
}

func (fakeObjects) PresignGet(ctx context.Context, key string, expiry time.Duration) (string, error) {
	return "http://objects.local/get/" + key, nil
}

func (fakeObjects) PublicURL(key string) string {
	return "http://objects.local/resumes-bucket/" + key
}

func (fakeObjects) Delete(ctx context.Context, key string) error { return nil }

type fakeExtractor struct{}

func (fakeExtractor) ExtractText(ctx context.Context, resumeURL string) (string, error) {
	return "ten years of Go", nil
}

type fakeGenerator struct{ text string }

func (f fakeGenerator) GenerateText(ctx context.Context, systemPrompt, userPrompt string) (string, error) {
	return f.text, nil
}

type fakeNotifier struct{ last queue.Notification }

func (f *fakeNotifier) Enqueue(ctx context.Context, n queue.Notification) (queue.JobStatus, error) {
	f.last = n
	return queue.JobStatus{ID: "job-1", Notification: n, Status: queue.StatusQueued}, nil
}

type testEnv struct {
	srv      *httptest.Server
	notifier *fakeNotifier
}

func newTestServer(t *testing.T) *testEnv {
	t.Helper()
	redisSrv := miniredis.RunT(t)
	notifier := &fakeNotifier{}
	application, err := app.New(app.Config{
		Store:         store.NewMemoryStore(),
		SessionSecret: "test-secret",
		Objects:       fakeObjects{},
		Extractor:     fakeExtractor{},
		Notifier:      notifier,
		Generator: fakeGenerator{
			text: `{"match_score":77,"strengths":["Go"],"weaknesses":[],"reasoning":"Good fit."}`,
		},
	})
	if err != nil {
		t.Fatalf("new app: %v", err)
	}
	s, err := New(Config{
		App:       application,
		RedisAddr: redisSrv.Addr(),
	})
	if err != nil {
		t.Fatalf("new server: %v", err)
	}
	srv := httptest.NewServer(s.Router())
	t.Cleanup(srv.Close)
	return &testEnv{srv: srv, notifier: notifier}
}

func (e *testEnv) do(t *testing.T, method, path, token string, body any) (*http.Response, []byte) {
	t.Helper()
	var reader io.Reader
	if body != nil {
		data, err := json.Marshal(body)
		if err != nil {
			t.Fatalf("marshal body: %v", err)
		}
		reader = bytes.NewReader(data)
	}
	req, err := http.NewRequest(method, e.srv.URL+path, reader)
	if err != nil {
		t.Fatalf("new request: %v", err)
	}
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("%s %s: %v", method, path, err)
	}
	data, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatalf("read body: %v", err)
	}
	return resp, data
}

func (e *testEnv) signup(t *testing.T, email string) string {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
		"email":    email,
		"password": "swordfish1",
		"company":  "Acme",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("signup status = %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Token string `json:"token"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode signup: %v", err)
	}
	return out.Token
}

func (e *testEnv) createForm(t *testing.T, token string) domain.Form {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/forms", token, map[string]any{
		"title":          "Backend Engineer",
		"jobDescription": "We write Go services.",
		"fields": []map[string]any{
			{"type": "long_text", "label": "Why this role?", "required": true},
		},
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("create form status = %d: %s", resp.StatusCode, body)
	}
	var form domain.Form
	if err := json.Unmarshal(body, &form); err != nil {
		t.Fatalf("decode form: %v", err)
	}
	return form
}

func (e *testEnv) submitApplication(t *testing.T, form domain.Form) domain.Application {
	t.Helper()
	resp, body := e.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"formId": form.ID,
		"responses": map[string]string{
			"name":            "Ada Lovelace",
			"email":           "ada@example.com",
			form.Fields[0].ID: "I like Go.",
		},
		"resumeUrl": "http://objects.local/resumes-bucket/resumes/ada.pdf",
	})
	if resp.StatusCode != http.StatusCreated {
		t.Fatalf("submit status = %d: %s", resp.StatusCode, body)
	}
	var application domain.Application
	if err := json.Unmarshal(body, &application); err != nil {
		t.Fatalf("decode application: %v", err)
	}
	return application
}

func TestHealthz(t *testing.T) {
	e := newTestServer(t)
	resp, body := e.do(t, http.MethodGet, "/healthz", "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
}

func TestSignupLoginAndMe(t *testing.T) {
	e := newTestServer(t)
	token := e.signup(t, "owner@example.com")

	resp, body := e.do(t, http.MethodGet, "/api/users/me", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("me status = %d: %s", resp.StatusCode, body)
	}
	var me domain.Account
	if err := json.Unmarshal(body, &me); err != nil {
		t.Fatalf("decode me: %v", err)
	}
	if me.Email != "owner@example.com" {
		t.Errorf("me email = %q", me.Email)
	}

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "swordfish1",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("login status = %d", resp.StatusCode)
	}
	found := false
	for _, c := range resp.Cookies() {
		if c.Name == SessionCookie && c.Value != "" {
			found = true
			if !c.HttpOnly {
				t.Error("session cookie must be HttpOnly")
			}
		}
	}
	if !found {
		t.Error("login did not set session cookie")
	}

	resp, _ = e.do(t, http.MethodPost, "/api/auth/login", "", map[string]string{
		"email": "owner@example.com", "password": "wrong-password",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad login status = %d, want 401", resp.StatusCode)
	}
}

func TestMeRequiresAuth(t *testing.T) {
	e := newTestServer(t)
	resp, _ := e.do(t, http.MethodGet, "/api/users/me", "", nil)
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestFormLifecycle(t *testing.T) {
	e := newTestServer(t)
	token := e.signup(t, "owner@example.com")
	form := e.createForm(t, token)

	// Candidate read is public.
	resp, _ := e.do(t, http.MethodGet, "/api/forms/"+form.ID, "", nil)
	if resp.StatusCode != http.StatusOK {
		t.Errorf("public get status = %d", resp.StatusCode)
	}

	resp, body := e.do(t, http.MethodGet, "/api/forms/active", "", nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), form.ID) {
		t.Errorf("active list status = %d body = %s", resp.StatusCode, body)
	}

	resp, _ = e.do(t, http.MethodPut, "/api/forms/"+form.ID+"/active", token, map[string]any{"active": false})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("deactivate status = %d", resp.StatusCode)
	}
	resp, body = e.do(t, http.MethodGet, "/api/forms/active", "", nil)
	if strings.Contains(string(body), form.ID) {
		t.Errorf("deactivated form still listed: %s", body)
	}

	resp, _ = e.do(t, http.MethodPut, "/api/forms/"+form.ID+"/job-description", token, map[string]string{
		"jobDescription": "Updated JD",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("set jd status = %d", resp.StatusCode)
	}

	// Foreign accounts cannot mutate.
	otherToken := e.signup(t, "other@example.com")
	resp, _ = e.do(t, http.MethodPut, "/api/forms/"+form.ID+"/active", otherToken, map[string]any{"active": true})
	if resp.StatusCode != http.StatusForbidden {
		t.Errorf("foreign toggle status = %d, want 403", resp.StatusCode)
	}
}

func TestApplicationLifecycle(t *testing.T) {
	e := newTestServer(t)
	token := e.signup(t, "owner@example.com")
	form := e.createForm(t, token)
	application := e.submitApplication(t, form)

	if application.Status != domain.StatusPending {
		t.Errorf("initial status = %q", application.Status)
	}
	if application.MatchScore != nil {
		t.Error("fresh application has a match score")
	}

	resp, body := e.do(t, http.MethodGet, "/api/applications?formId="+form.ID, token, nil)
	if resp.StatusCode != http.StatusOK || !strings.Contains(string(body), application.ID) {
		t.Errorf("list status = %d body = %s", resp.StatusCode, body)
	}

	resp, body = e.do(t, http.MethodPut, "/api/applications/"+application.ID+"/status", token, map[string]string{
		"status": "shortlisted",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status update = %d: %s", resp.StatusCode, body)
	}

	// Backwards transition is allowed.
	resp, _ = e.do(t, http.MethodPut, "/api/applications/"+application.ID+"/status", token, map[string]string{
		"status": "pending",
	})
	if resp.StatusCode != http.StatusOK {
		t.Errorf("backwards transition = %d, want 200", resp.StatusCode)
	}

	resp, _ = e.do(t, http.MethodPut, "/api/applications/"+application.ID+"/status", token, map[string]string{
		"status": "archived",
	})
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid status = %d, want 400", resp.StatusCode)
	}

	resp, body = e.do(t, http.MethodPost, "/api/applications/"+application.ID+"/score", token, nil)
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("score status = %d: %s", resp.StatusCode, body)
	}
	var scored domain.Application
	if err := json.Unmarshal(body, &scored); err != nil {
		t.Fatalf("decode scored: %v", err)
	}
	if scored.MatchScore == nil || *scored.MatchScore != 77 {
		t.Errorf("match score = %v, want 77", scored.MatchScore)
	}

	resp, body = e.do(t, http.MethodPost, "/api/applications/"+application.ID+"/notify", token, nil)
	if resp.StatusCode != http.StatusAccepted {
		t.Fatalf("notify status = %d: %s", resp.StatusCode, body)
	}
	if e.notifier.last.Email != "ada@example.com" {
		t.Errorf("notification = %+v", e.notifier.last)
	}
}

func TestSubmitApplicationToInactiveForm(t *testing.T) {
	e := newTestServer(t)
	token := e.signup(t, "owner@example.com")
	form := e.createForm(t, token)

	if resp, _ := e.do(t, http.MethodPut, "/api/forms/"+form.ID+"/active", token, map[string]any{"active": false}); resp.StatusCode != http.StatusOK {
		t.Fatalf("deactivate failed")
	}

	resp, _ := e.do(t, http.MethodPost, "/api/applications", "", map[string]any{
		"formId":    form.ID,
		"responses": map[string]string{"name": "Ada", "email": "ada@example.com", form.Fields[0].ID: "x"},
		"resumeUrl": "http://objects.local/resumes-bucket/resumes/a.pdf",
	})
	if resp.StatusCode != http.StatusConflict {
		t.Errorf("status = %d, want 409", resp.StatusCode)
	}
}

func TestUploadURL(t *testing.T) {
	e := newTestServer(t)
	resp, body := e.do(t, http.MethodPost, "/api/uploads/url", "", map[string]string{
		"filename":    "",
		"contentType": "image/png",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var slot domain.UploadSlot
	if err := json.Unmarshal(body, &slot); err != nil {
		t.Fatalf("decode slot: %v", err)
	}
	if !strings.HasPrefix(slot.Key, "resumes/") || !strings.HasSuffix(slot.Key, ".png") {
		t.Errorf("key = %q", slot.Key)
	}
}

func TestGenerateFieldsRequiresAuth(t *testing.T) {
	e := newTestServer(t)
	resp, _ := e.do(t, http.MethodPost, "/api/ai/generate-fields", "", map[string]string{
		"jobDescription": "Go services",
	})
	if resp.StatusCode != http.StatusUnauthorized {
		t.Fatalf("status = %d, want 401", resp.StatusCode)
	}
}

func TestGenerateFieldsFallsBack(t *testing.T) {
	e := newTestServer(t)
	token := e.signup(t, "owner@example.com")

	// The shared fake generator emits match JSON, which is not a field
	// array, so the suggester falls back to the static set.
	resp, body := e.do(t, http.MethodPost, "/api/ai/generate-fields", token, map[string]string{
		"jobDescription": "Go services",
		"domainHint":     "marketing",
	})
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d: %s", resp.StatusCode, body)
	}
	var out struct {
		Fields []domain.FieldDefinition `json:"fields"`
	}
	if err := json.Unmarshal(body, &out); err != nil {
		t.Fatalf("decode fields: %v", err)
	}
	if len(out.Fields) != 2 {
		t.Errorf("fields = %d, want generic fallback of 2", len(out.Fields))
	}
}

func TestSignupRateLimit(t *testing.T) {
	e := newTestServer(t)
	var last int
	for i := 0; i < 6; i++ {
		resp, _ := e.do(t, http.MethodPost, "/api/auth/signup", "", map[string]string{
			"email":    fmt.Sprintf("u%d@example.com", i),
			"password": "swordfish1",
		})
		last = resp.StatusCode
	}
	if last != http.StatusTooManyRequests {
		t.Fatalf("sixth signup = %d, want 429", last)
	}
}

func TestInvalidJSONBody(t *testing.T) {
	e := newTestServer(t)
	req, _ := http.NewRequest(http.MethodPost, e.srv.URL+"/api/auth/signup", strings.NewReader("{not json"))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Fatalf("status = %d, want 400", resp.StatusCode)
	}
}
