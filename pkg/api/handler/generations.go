package handler

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"mime"
	"mime/multipart"
	"net/http"
	"os"
	"path/filepath"
	"strings"

	"github.com/akovalev/qa-docgen/pkg/api/response"
	"github.com/akovalev/qa-docgen/pkg/domain"
	"github.com/akovalev/qa-docgen/pkg/logger"
	"github.com/akovalev/qa-docgen/pkg/mediagate"
	"github.com/akovalev/qa-docgen/pkg/normalizer"
)

// Uploaded form bodies are buffered in memory up to this size; anything
// larger spills to disk before being re-spooled for the pipeline.
const multipartMemoryLimit = 32 << 20

type GenerationStarter interface {
	Start(parts []domain.ContentPart, files []domain.MediaFile) (string, error)
	Cancel(runID string) bool
}

type RunReader interface {
	Get(runID string) (domain.Run, bool)
}

type generations struct {
	starter GenerationStarter
	runs    RunReader
	writer  response.JSONResponseWriter
}

func NewGenerations(starter GenerationStarter, runs RunReader) *generations {
	return &generations{
		starter: starter,
		runs:    runs,
	}
}

type startGenerationResponse struct {
	ID       string   `json:"id"`
	Accepted []string `json:"accepted"`
	Messages []string `json:"messages,omitempty"`
}

// Create accepts a multipart form with an optional rich-text "description"
// field and any number of "videos" files, validates the batch, and launches
// a generation run.
func (g *generations) Create(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodPost {
		g.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	if err := r.ParseMultipartForm(multipartMemoryLimit); err != nil {
		g.writer.WriteErrorResponse(w, http.StatusBadRequest, "Request body must be a multipart form.")
		return
	}
	defer r.MultipartForm.RemoveAll()

	parts, err := normalizer.Parse(r.FormValue("description"))
	if err != nil {
		g.writer.WriteErrorResponse(w, http.StatusBadRequest, "The description could not be parsed.")
		return
	}

	headers := r.MultipartForm.File["videos"]
	candidates := make([]domain.MediaFile, 0, len(headers))
	for _, fh := range headers {
		candidates = append(candidates, domain.MediaFile{
			Name:     fh.Filename,
			Size:     fh.Size,
			MimeType: mediaType(fh),
		})
	}

	report := mediagate.Classify(candidates)
	if report.Err != nil {
		slog.Warn("Rejected uploads", "messages", report.Messages, logger.Err(report.Err))
	}

	accepted, err := spoolAccepted(report.Accepted, headers)
	if err != nil {
		slog.Error("Spooling uploads", logger.Err(err))
		g.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Could not store the uploaded videos.")
		return
	}

	runID, err := g.starter.Start(parts, accepted)
	if err != nil {
		cleanup(accepted)
		switch {
		case errors.Is(err, domain.ErrNoInput):
			g.writer.WriteErrorResponse(w, http.StatusBadRequest, "Please provide a description or at least one video.")
		case errors.Is(err, domain.ErrRunInFlight):
			g.writer.WriteErrorResponse(w, http.StatusConflict, "A generation is already in progress. Please wait for it to finish.")
		default:
			g.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
		}
		return
	}

	resp := startGenerationResponse{ID: runID, Messages: report.Messages}
	for _, file := range accepted {
		resp.Accepted = append(resp.Accepted, file.Name)
	}
	g.writer.WriteJSONResponse(w, http.StatusAccepted, resp)
}

// Resource serves a single run: GET reports its state, DELETE cancels it.
func (g *generations) Resource(w http.ResponseWriter, r *http.Request) {
	runID := strings.TrimPrefix(r.URL.Path, "/api/v1/generations/")
	if runID == "" || strings.Contains(runID, "/") {
		g.writer.WriteErrorResponse(w, http.StatusNotFound, "Run not found.")
		return
	}

	switch r.Method {
	case http.MethodGet:
		run, ok := g.runs.Get(runID)
		if !ok {
			g.writer.WriteErrorResponse(w, http.StatusNotFound, "Run not found.")
			return
		}
		g.writer.WriteSuccessResponse(w, run)
	case http.MethodDelete:
		if !g.starter.Cancel(runID) {
			g.writer.WriteErrorResponse(w, http.StatusNotFound, "No run with that id is in progress.")
			return
		}
		g.writer.WriteSuccessResponse(w, map[string]bool{"canceled": true})
	default:
		g.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}

func mediaType(fh *multipart.FileHeader) string {
	if ct := fh.Header.Get("Content-Type"); ct != "" && ct != "application/octet-stream" {
		return ct
	}
	if byExt := mime.TypeByExtension(filepath.Ext(fh.Filename)); byExt != "" {
		return byExt
	}
	return "application/octet-stream"
}

// spoolAccepted copies the accepted uploads into standalone temp files that
// outlive the request. The pipeline removes them when the run finishes.
func spoolAccepted(accepted []domain.MediaFile, headers []*multipart.FileHeader) ([]domain.MediaFile, error) {
	byName := make(map[string][]*multipart.FileHeader, len(headers))
	for _, fh := range headers {
		byName[fh.Filename] = append(byName[fh.Filename], fh)
	}

	spooled := make([]domain.MediaFile, 0, len(accepted))
	for _, file := range accepted {
		queue := byName[file.Name]
		if len(queue) == 0 {
			cleanup(spooled)
			return nil, fmt.Errorf("no upload body for %s", file.Name)
		}
		fh := queue[0]
		byName[file.Name] = queue[1:]

		path, err := spool(fh)
		if err != nil {
			cleanup(spooled)
			return nil, err
		}

		file.Path = path
		spooled = append(spooled, file)
	}
	return spooled, nil
}

func spool(fh *multipart.FileHeader) (string, error) {
	src, err := fh.Open()
	if err != nil {
		return "", fmt.Errorf("opening upload %s: %w", fh.Filename, err)
	}
	defer src.Close()

	dst, err := os.CreateTemp("", "qa-docgen-video-*")
	if err != nil {
		return "", fmt.Errorf("creating spool file: %w", err)
	}

	if _, err := io.Copy(dst, src); err != nil {
		dst.Close()
		os.Remove(dst.Name())
		return "", fmt.Errorf("spooling upload %s: %w", fh.Filename, err)
	}
	if err := dst.Close(); err != nil {
		os.Remove(dst.Name())
		return "", fmt.Errorf("closing spool file: %w", err)
	}

	return dst.Name(), nil
}

func cleanup(files []domain.MediaFile) {
	for _, f := range files {
		if f.Path == "" {
			continue
		}
		if err := os.Remove(f.Path); err != nil {
			slog.Warn("Removing spooled video", "path", f.Path, logger.Err(err))
		}
	}
}
