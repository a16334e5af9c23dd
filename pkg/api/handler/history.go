package handler

import (
	"context"
	"net/http"

	"github.com/akovalev/qa-docgen/pkg/api/response"
	"github.com/akovalev/qa-docgen/pkg/domain"
)

type HistoryProvider interface {
	Load(ctx context.Context) []domain.HistoryItem
	GetByID(ctx context.Context, id string) (domain.HistoryItem, bool)
	Clear(ctx context.Context) error
}

type history struct {
	repo   HistoryProvider
	writer response.JSONResponseWriter
}

func NewHistory(repo HistoryProvider) *history {
	return &history{repo: repo}
}

// Collection serves the saved sessions: GET lists them most recent first,
// DELETE wipes them all.
func (h *history) Collection(w http.ResponseWriter, r *http.Request) {
	switch r.Method {
	case http.MethodGet:
		items := h.repo.Load(r.Context())
		if items == nil {
			items = []domain.HistoryItem{}
		}
		h.writer.WriteSuccessResponse(w, items)
	case http.MethodDelete:
		if err := h.repo.Clear(r.Context()); err != nil {
			h.writer.WriteErrorResponse(w, http.StatusInternalServerError, "Could not clear the history.")
			return
		}
		h.writer.WriteSuccessResponse(w, map[string]bool{"cleared": true})
	default:
		h.writer.WriteErrorResponse(w, http.StatusMethodNotAllowed, "Method not allowed.")
	}
}
