package gemini

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

func newTestClient(t *testing.T, baseURL string) *Client {
	t.Helper()
	c, err := NewClient("test-key")
	if err != nil {
		t.Fatalf("NewClient() error = %v", err)
	}
	c.baseURL = baseURL
	c.pollInterval = time.Millisecond
	c.settleDelay = time.Millisecond
	c.processingDeadline = time.Second
	return c
}

func validDocumentSet() domain.DocumentSet {
	return domain.DocumentSet{
		TestPlan:           "# Test Plan",
		QADocument:         "# QA Document",
		FeatureManual:      "# Feature Manual",
		SmokeTestSuite:     "# Smoke Test Suite",
		RegressionTestPlan: "# Regression Test Plan",
		TestCases: []domain.TestCase{{
			ID:             "TC-FUNC-001",
			Priority:       domain.PriorityHigh,
			PreConditions:  []string{"User is logged in"},
			Description:    "Submit the login form",
			Steps:          []string{"Open the form", "Submit"},
			ExpectedResult: "User lands on the dashboard",
		}},
		UserStories: []domain.UserStory{{
			Story:              "As a tester, I want generated docs so that I can review them.",
			Priority:           domain.PriorityMedium,
			AcceptanceCriteria: []string{"Given input, when generated, then docs exist"},
			EstimationPoints:   3,
		}},
		AccessibilityChecklist: []domain.AccessibilityCheck{{
			WCAGGuideline:  "1.4.3 Contrast (Minimum)",
			Description:    "Text contrast meets AA",
			TestSuggestion: "Check with a contrast analyzer",
		}},
	}
}

func candidateBody(t *testing.T, text string) string {
	t.Helper()
	resp := map[string]any{
		"candidates": []map[string]any{
			{"content": map[string]any{"parts": []map[string]string{{"text": text}}}},
		},
	}
	data, err := json.Marshal(resp)
	if err != nil {
		t.Fatalf("marshaling candidate body: %v", err)
	}
	return string(data)
}

func TestGenerateTextOnly(t *testing.T) {
	docs := validDocumentSet()
	docsJSON, _ := json.Marshal(docs)

	var gotReq generateContentRequest
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !strings.Contains(r.URL.Path, ":generateContent") {
			t.Errorf("unexpected path %s", r.URL.Path)
		}
		if err := json.NewDecoder(r.Body).Decode(&gotReq); err != nil {
			t.Errorf("decoding request: %v", err)
		}
		fmt.Fprint(w, candidateBody(t, string(docsJSON)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	parts := []domain.ContentPart{domain.TextPart("login feature")}

	got, err := c.Generate(context.Background(), parts, nil, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.TestPlan != docs.TestPlan || len(got.TestCases) != 1 {
		t.Errorf("Generate() = %#v, expected parsed document set", got)
	}

	if len(gotReq.Contents) != 1 || len(gotReq.Contents[0].Parts) != 1 {
		t.Fatalf("request parts = %#v, expected a single prompt part", gotReq.Contents)
	}
	prompt := gotReq.Contents[0].Parts[0].Text
	if !strings.Contains(prompt, "login feature") {
		t.Errorf("prompt %q does not carry the text description", prompt)
	}
	if strings.Contains(prompt, "PREVIOUS DOCUMENTS") {
		t.Errorf("fresh prompt must not reference previous documents")
	}
	if gotReq.GenerationConfig.ResponseMimeType != "application/json" {
		t.Errorf("responseMimeType = %q", gotReq.GenerationConfig.ResponseMimeType)
	}
}

func TestGenerateIncrementalPromptCarriesPrevious(t *testing.T) {
	docs := validDocumentSet()
	docsJSON, _ := json.Marshal(docs)

	var prompt string
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var req generateContentRequest
		_ = json.NewDecoder(r.Body).Decode(&req)
		prompt = req.Contents[0].Parts[0].Text
		fmt.Fprint(w, candidateBody(t, string(docsJSON)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	previous := validDocumentSet()
	previous.TestPlan = "# Prior Plan"

	if _, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, nil, &previous); err != nil {
		t.Fatalf("Generate() error = %v", err)
	}

	if !strings.Contains(prompt, "--- PREVIOUS DOCUMENTS (JSON) ---") {
		t.Errorf("incremental prompt missing previous-documents block: %q", prompt)
	}
	if !strings.Contains(prompt, "# Prior Plan") {
		t.Errorf("incremental prompt does not embed the previous set")
	}
	if !strings.Contains(prompt, "DO NOT DUPLICATE") {
		t.Errorf("incremental prompt missing the no-duplication rule")
	}
}

func TestGenerateUnwrapsFencedJSON(t *testing.T) {
	docsJSON, _ := json.Marshal(validDocumentSet())
	fenced := "```json\n" + string(docsJSON) + "\n```"

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(t, fenced))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, nil, nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got.TestPlan == "" {
		t.Error("fenced response was not unwrapped")
	}
}

func TestGenerateMissingFieldIsMalformed(t *testing.T) {
	docs := validDocumentSet()
	docs.TestCases = nil
	docsJSON, _ := json.Marshal(docs)

	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, candidateBody(t, string(docsJSON)))
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, nil, nil)

	var malformed *domain.MalformedResponseError
	if !errors.As(err, &malformed) {
		t.Fatalf("error = %v, expected MalformedResponseError", err)
	}
	if !strings.Contains(malformed.Reason, "testCases") {
		t.Errorf("reason %q does not name the missing field", malformed.Reason)
	}
}

func TestGenerateServerFaultIsTransient(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusInternalServerError)
		fmt.Fprint(w, `{"error":{"code":500,"message":"internal","status":"INTERNAL"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, nil, nil)

	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, expected ServiceError", err)
	}
	if !svcErr.Transient {
		t.Error("5xx fault should be marked transient")
	}
	if !strings.Contains(svcErr.Error(), "try again later") {
		t.Errorf("transient message %q should suggest retrying later", svcErr.Error())
	}
}

func TestGenerateClientFaultKeepsServiceMessage(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadRequest)
		fmt.Fprint(w, `{"error":{"code":400,"message":"Unsupported file uri","status":"INVALID_ARGUMENT"}}`)
	}))
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, nil, nil)

	var svcErr *domain.ServiceError
	if !errors.As(err, &svcErr) {
		t.Fatalf("error = %v, expected ServiceError", err)
	}
	if svcErr.Transient {
		t.Error("4xx fault should not be marked transient")
	}
	if svcErr.Error() != "Unsupported file uri" {
		t.Errorf("message = %q, expected the service's own message", svcErr.Error())
	}
}

func TestGenerateNoInput(t *testing.T) {
	c := newTestClient(t, "http://unused")
	if _, err := c.Generate(context.Background(), nil, nil, nil); !errors.Is(err, domain.ErrNoInput) {
		t.Errorf("error = %v, expected ErrNoInput", err)
	}
}

func tempVideo(t *testing.T) *domain.MediaFile {
	t.Helper()
	path := filepath.Join(t.TempDir(), "demo.mp4")
	if err := os.WriteFile(path, []byte("fake video bytes"), 0o600); err != nil {
		t.Fatalf("writing temp video: %v", err)
	}
	return &domain.MediaFile{Name: "demo.mp4", Size: 16, MimeType: "video/mp4", Path: path}
}

// uploadServer fakes the file API handshake: resumable start, finalize, and
// status polls walking through the given states before generateContent.
func uploadServer(t *testing.T, states []string, failureMessage string) (*httptest.Server, *int) {
	t.Helper()
	var mu sync.Mutex
	polls := 0

	var srv *httptest.Server
	srv = httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		switch {
		case r.URL.Path == "/upload/v1beta/files":
			if got := r.Header.Get("X-Goog-Upload-Protocol"); got != "resumable" {
				t.Errorf("upload protocol = %q", got)
			}
			w.Header().Set("X-Goog-Upload-URL", srv.URL+"/upload-session")
			fmt.Fprint(w, `{}`)
		case r.URL.Path == "/upload-session":
			fmt.Fprint(w, `{"file":{"name":"files/demo","uri":"https://files.example/demo","mimeType":"video/mp4","state":"PROCESSING"}}`)
		case r.URL.Path == "/v1beta/files/demo":
			mu.Lock()
			state := states[len(states)-1]
			if polls < len(states) {
				state = states[polls]
			}
			polls++
			mu.Unlock()
			if state == "FAILED" {
				fmt.Fprintf(w, `{"name":"files/demo","state":"FAILED","error":{"message":%q}}`, failureMessage)
				return
			}
			fmt.Fprintf(w, `{"name":"files/demo","uri":"https://files.example/demo","mimeType":"video/mp4","state":%q}`, state)
		case strings.Contains(r.URL.Path, ":generateContent"):
			docsJSON, _ := json.Marshal(validDocumentSet())
			fmt.Fprint(w, candidateBody(t, string(docsJSON)))
		default:
			t.Errorf("unexpected request to %s", r.URL.Path)
			w.WriteHeader(http.StatusNotFound)
		}
	}))
	return srv, &polls
}

func TestGenerateWithVideoHandshake(t *testing.T) {
	srv, polls := uploadServer(t, []string{"PROCESSING", "ACTIVE"}, "")
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	got, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, tempVideo(t), nil)
	if err != nil {
		t.Fatalf("Generate() error = %v", err)
	}
	if got == nil || got.TestPlan == "" {
		t.Fatalf("Generate() = %#v, expected a document set", got)
	}
	if *polls != 2 {
		t.Errorf("polls = %d, expected 2 (processing then active)", *polls)
	}
}

func TestGenerateWithFailedProcessing(t *testing.T) {
	srv, _ := uploadServer(t, []string{"FAILED"}, "codec not supported")
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	_, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, tempVideo(t), nil)

	var upErr *domain.UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, expected UploadError", err)
	}
	if !strings.Contains(upErr.Reason, "codec not supported") {
		t.Errorf("reason = %q, expected the service's stated reason", upErr.Reason)
	}
}

func TestGenerateProcessingDeadline(t *testing.T) {
	srv, _ := uploadServer(t, []string{"PROCESSING"}, "")
	defer srv.Close()

	c := newTestClient(t, srv.URL)
	c.processingDeadline = 10 * time.Millisecond

	_, err := c.Generate(context.Background(), []domain.ContentPart{domain.TextPart("x")}, tempVideo(t), nil)

	var upErr *domain.UploadError
	if !errors.As(err, &upErr) {
		t.Fatalf("error = %v, expected UploadError", err)
	}
	if !upErr.Timeout {
		t.Errorf("expected a timeout upload error, got %v", upErr)
	}
}

func TestUnwrapFence(t *testing.T) {
	tests := []struct {
		raw      string
		expected string
	}{
		{`{"a":1}`, `{"a":1}`},
		{"```json\n{\"a\":1}\n```", `{"a":1}`},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
		{"  {\"a\":1}  ", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := unwrapFence(tt.raw); got != tt.expected {
			t.Errorf("unwrapFence(%q) = %q, expected %q", tt.raw, got, tt.expected)
		}
	}
}
