package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"mime/multipart"
	"net/http"
	"net/http/httptest"
	"net/textproto"
	"os"
	"strings"
	"testing"

	"github.com/akovalev/qa-docgen/pkg/domain"
)

type fakeStarter struct {
	startErr error
	runID    string

	gotParts []domain.ContentPart
	gotFiles []domain.MediaFile
	canceled []string
}

func (f *fakeStarter) Start(parts []domain.ContentPart, files []domain.MediaFile) (string, error) {
	f.gotParts = parts
	f.gotFiles = files
	if f.startErr != nil {
		return "", f.startErr
	}
	return f.runID, nil
}

func (f *fakeStarter) Cancel(runID string) bool {
	f.canceled = append(f.canceled, runID)
	return runID == f.runID
}

type fakeRuns map[string]domain.Run

func (f fakeRuns) Get(runID string) (domain.Run, bool) {
	run, ok := f[runID]
	return run, ok
}

type fakeHistory struct {
	items    []domain.HistoryItem
	clearErr error
	cleared  bool
}

func (f *fakeHistory) Load(context.Context) []domain.HistoryItem { return f.items }

func (f *fakeHistory) GetByID(_ context.Context, id string) (domain.HistoryItem, bool) {
	for _, item := range f.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HistoryItem{}, false
}

func (f *fakeHistory) Clear(context.Context) error {
	if f.clearErr != nil {
		return f.clearErr
	}
	f.cleared = true
	return nil
}

type formFile struct {
	name        string
	contentType string
	content     string
}

func multipartBody(t *testing.T, description string, files ...formFile) (*bytes.Buffer, string) {
	t.Helper()

	var buf bytes.Buffer
	w := multipart.NewWriter(&buf)

	if description != "" {
		if err := w.WriteField("description", description); err != nil {
			t.Fatalf("writing description field: %v", err)
		}
	}
	for _, f := range files {
		header := make(textproto.MIMEHeader)
		header.Set("Content-Disposition", fmt.Sprintf(`form-data; name="videos"; filename=%q`, f.name))
		header.Set("Content-Type", f.contentType)
		part, err := w.CreatePart(header)
		if err != nil {
			t.Fatalf("creating file part: %v", err)
		}
		if _, err := part.Write([]byte(f.content)); err != nil {
			t.Fatalf("writing file part: %v", err)
		}
	}
	if err := w.Close(); err != nil {
		t.Fatalf("closing multipart writer: %v", err)
	}

	return &buf, w.FormDataContentType()
}

func TestCreateStartsRun(t *testing.T) {
	starter := &fakeStarter{runID: "run-1"}
	h := NewGenerations(starter, fakeRuns{})

	body, contentType := multipartBody(t, "<p>Login form</p>", formFile{"clip.mp4", "video/mp4", "fake video bytes"})
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}

	var resp startGenerationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if resp.ID != "run-1" {
		t.Errorf("response id = %q", resp.ID)
	}
	if len(resp.Accepted) != 1 || resp.Accepted[0] != "clip.mp4" {
		t.Errorf("accepted = %v", resp.Accepted)
	}

	if len(starter.gotParts) != 1 || !strings.Contains(starter.gotParts[0].Text, "Login form") {
		t.Errorf("normalized parts = %#v", starter.gotParts)
	}
	if len(starter.gotFiles) != 1 {
		t.Fatalf("started with %d files, expected 1", len(starter.gotFiles))
	}

	spooled := starter.gotFiles[0]
	if spooled.Path == "" {
		t.Fatal("accepted file was not spooled to disk")
	}
	defer os.Remove(spooled.Path)
	data, err := os.ReadFile(spooled.Path)
	if err != nil || string(data) != "fake video bytes" {
		t.Errorf("spooled content = %q, %v", data, err)
	}
}

func TestCreateFiltersNonVideoUploads(t *testing.T) {
	starter := &fakeStarter{runID: "run-1"}
	h := NewGenerations(starter, fakeRuns{})

	body, contentType := multipartBody(t, "<p>notes</p>",
		formFile{"clip.mp4", "video/mp4", "a"},
		formFile{"notes.pdf", "application/pdf", "b"},
	)
	req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", body)
	req.Header.Set("Content-Type", contentType)
	rec := httptest.NewRecorder()

	h.Create(rec, req)

	if rec.Code != http.StatusAccepted {
		t.Fatalf("status = %d, body = %s", rec.Code, rec.Body)
	}
	for _, f := range starter.gotFiles {
		defer os.Remove(f.Path)
	}

	var resp startGenerationResponse
	if err := json.NewDecoder(rec.Body).Decode(&resp); err != nil {
		t.Fatalf("decoding response: %v", err)
	}
	if len(resp.Accepted) != 1 || resp.Accepted[0] != "clip.mp4" {
		t.Errorf("accepted = %v", resp.Accepted)
	}
	if len(resp.Messages) != 1 || !strings.Contains(resp.Messages[0], "notes.pdf") {
		t.Errorf("messages = %v, expected a non-video rejection naming notes.pdf", resp.Messages)
	}
}

func TestCreateErrorMapping(t *testing.T) {
	tests := []struct {
		name           string
		startErr       error
		expectedStatus int
	}{
		{"no input", domain.ErrNoInput, http.StatusBadRequest},
		{"run in flight", domain.ErrRunInFlight, http.StatusConflict},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			h := NewGenerations(&fakeStarter{startErr: tt.startErr}, fakeRuns{})

			body, contentType := multipartBody(t, "<p>x</p>")
			req := httptest.NewRequest(http.MethodPost, "/api/v1/generations", body)
			req.Header.Set("Content-Type", contentType)
			rec := httptest.NewRecorder()

			h.Create(rec, req)

			if rec.Code != tt.expectedStatus {
				t.Errorf("status = %d, expected %d", rec.Code, tt.expectedStatus)
			}
		})
	}
}

func TestResourceGetAndCancel(t *testing.T) {
	starter := &fakeStarter{runID: "run-1"}
	runs := fakeRuns{"run-1": {ID: "run-1", Status: domain.RunStatusRunning, Progress: 33.3}}
	h := NewGenerations(starter, runs)

	rec := httptest.NewRecorder()
	h.Resource(rec, httptest.NewRequest(http.MethodGet, "/api/v1/generations/run-1", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "33.3") {
		t.Errorf("GET run = %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.Resource(rec, httptest.NewRequest(http.MethodGet, "/api/v1/generations/missing", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("GET missing run = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Resource(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/generations/run-1", nil))
	if rec.Code != http.StatusOK {
		t.Errorf("DELETE run = %d %s", rec.Code, rec.Body)
	}
	if len(starter.canceled) != 1 || starter.canceled[0] != "run-1" {
		t.Errorf("canceled = %v", starter.canceled)
	}
}

func TestHistoryCollection(t *testing.T) {
	repo := &fakeHistory{items: []domain.HistoryItem{{ID: "session-1", Title: "2 Video Session"}}}
	h := NewHistory(repo)

	rec := httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	if rec.Code != http.StatusOK || !strings.Contains(rec.Body.String(), "2 Video Session") {
		t.Errorf("GET history = %d %s", rec.Code, rec.Body)
	}

	rec = httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodDelete, "/api/v1/history", nil))
	if rec.Code != http.StatusOK || !repo.cleared {
		t.Errorf("DELETE history = %d, cleared = %v", rec.Code, repo.cleared)
	}
}

func TestHistoryCollectionEmptyListIsNotNull(t *testing.T) {
	h := NewHistory(&fakeHistory{})

	rec := httptest.NewRecorder()
	h.Collection(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history", nil))
	if got := strings.TrimSpace(rec.Body.String()); got != "[]" {
		t.Errorf("empty history rendered as %q, expected []", got)
	}
}

func TestExportDownload(t *testing.T) {
	repo := &fakeHistory{items: []domain.HistoryItem{{
		ID:        "session-1",
		Title:     "Login",
		Documents: domain.DocumentSet{TestPlan: "# Plan"},
	}}}
	h := NewExports(repo)

	rec := httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/session-1/export?view=testPlan&format=markdown", nil))
	if rec.Code != http.StatusOK {
		t.Fatalf("markdown export = %d %s", rec.Code, rec.Body)
	}
	if got := rec.Header().Get("Content-Disposition"); !strings.Contains(got, "testPlan.md") {
		t.Errorf("Content-Disposition = %q", got)
	}
	if rec.Body.String() != "# Plan" {
		t.Errorf("markdown body = %q", rec.Body)
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/session-1/export?format=archive", nil))
	if rec.Code != http.StatusOK || rec.Header().Get("Content-Type") != "application/zip" {
		t.Errorf("archive export = %d, type = %q", rec.Code, rec.Header().Get("Content-Type"))
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/session-1/export?view=nope", nil))
	if rec.Code != http.StatusBadRequest {
		t.Errorf("unknown view = %d", rec.Code)
	}

	rec = httptest.NewRecorder()
	h.Download(rec, httptest.NewRequest(http.MethodGet, "/api/v1/history/missing/export?view=testPlan", nil))
	if rec.Code != http.StatusNotFound {
		t.Errorf("missing session = %d", rec.Code)
	}
}
