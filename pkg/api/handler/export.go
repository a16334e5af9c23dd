package handler

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/akovalev/qa-docgen/pkg/api/response"
	"github.com/akovalev/qa-docgen/pkg/export"
)

type exports struct {
	repo   HistoryProvider
	writer response.JSONResponseWriter
}

func NewExports(repo HistoryProvider) *exports {
	return &exports{repo: repo}
}

// Download serves /api/v1/history/{id}/export. The format parameter selects
// the rendering (markdown by default); all formats except archive also need
// a view parameter naming the document to export.
func (e *exports) Download(w http.ResponseWriter, r *http.Request) {
	if r.Method != http.MethodGet {
		e.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed.")
		return
	}

	id, ok := exportItemID(r.URL.Path)
	if !ok {
		e.writer.WriteErrorResponse(w, http.StatusNotFound, "Session not found.")
		return
	}
	item, ok := e.repo.GetByID(r.Context(), id)
	if !ok {
		e.writer.WriteErrorResponse(w, http.StatusNotFound, "Session not found.")
		return
	}

	format := r.URL.Query().Get("format")
	if format == "" {
		format = "markdown"
	}

	if format == "archive" {
		data, err := export.Archive(item.Documents)
		if err != nil {
			e.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Could not build the archive.")
			return
		}
		serveDownload(w, "qa-documents.zip", "application/zip", data)
		return
	}

	view := export.View(r.URL.Query().Get("view"))
	if !view.Valid() {
		e.writer.WriteErrorResponse(w, http.StatusBadRequest, "Unknown or missing view parameter.")
		return
	}

	switch format {
	case "markdown":
		md, err := export.Markdown(item.Documents, view)
		if err != nil {
			e.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		serveDownload(w, string(view)+".md", "text/markdown; charset=utf-8", []byte(md))
	case "csv":
		if !view.Tabular() {
			e.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("View %q has no CSV form.", view))
			return
		}
		table, err := export.CSV(item.Documents, view)
		if err != nil {
			e.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		serveDownload(w, string(view)+".csv", "text/csv; charset=utf-8", table)
	case "html":
		page, err := export.HTML(item.Documents, view)
		if err != nil {
			e.writer.WriteErrorResponse(w, http.StatusInternalServerError, err.Error())
			return
		}
		serveDownload(w, string(view)+".html", "text/html; charset=utf-8", page)
	default:
		e.writer.WriteErrorResponse(w, http.StatusBadRequest, fmt.Sprintf("Unknown format %q.", format))
	}
}

func exportItemID(path string) (string, bool) {
	rest := strings.TrimPrefix(path, "/api/v1/history/")
	id, tail, found := strings.Cut(rest, "/")
	if !found || id == "" || tail != "export" {
		return "", false
	}
	return id, true
}

func serveDownload(w http.ResponseWriter, filename, contentType string, data []byte) {
	w.Header().Set("Content-Type", contentType)
	w.Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	w.Write(data)
}
