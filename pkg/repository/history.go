package repository

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"sync"

	"github.com/akovalev/qa-docgen/pkg/domain"

	"github.com/akovalev/qa-docgen/pkg/logger"
)

const historyKey = "qa-doc-history"

// historyRepository keeps the session history as one JSON array in a single
// key-value slot, most recent first. The stored copy is loaded lazily on
// first access; a corrupt or unreadable slot is logged and treated as empty
// so history problems never block the user.
type historyRepository struct {
	kv KeyValueStore

	mu     sync.Mutex
	loaded bool
	items  []domain.HistoryItem
}

func NewHistoryRepository(kv KeyValueStore) *historyRepository {
	return &historyRepository{kv: kv}
}

// Load returns all history items, most recent first.
func (h *historyRepository) Load(ctx context.Context) []domain.HistoryItem {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ensureLoaded(ctx)

	items := make([]domain.HistoryItem, len(h.items))
	copy(items, h.items)
	return items
}

func (h *historyRepository) GetByID(ctx context.Context, id string) (domain.HistoryItem, bool) {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ensureLoaded(ctx)

	for _, item := range h.items {
		if item.ID == id {
			return item, true
		}
	}
	return domain.HistoryItem{}, false
}

// Append prepends the item and persists the whole array.
func (h *historyRepository) Append(ctx context.Context, item domain.HistoryItem) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.ensureLoaded(ctx)

	h.items = append([]domain.HistoryItem{item}, h.items...)
	return h.persist(ctx)
}

func (h *historyRepository) Clear(ctx context.Context) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	h.loaded = true
	h.items = nil
	return h.kv.Delete(ctx, historyKey)
}

func (h *historyRepository) ensureLoaded(ctx context.Context) {
	if h.loaded {
		return
	}
	h.loaded = true

	raw, err := h.kv.Get(ctx, historyKey)
	if err != nil {
		if !errors.Is(err, domain.ErrNotFound) {
			slog.Error("Reading history", logger.Err(err))
		}
		return
	}

	if err := json.Unmarshal(raw, &h.items); err != nil {
		slog.Error("Decoding stored history", logger.Err(err))
		h.items = nil
	}
}

func (h *historyRepository) persist(ctx context.Context) error {
	raw, err := json.Marshal(h.items)
	if err != nil {
		return fmt.Errorf("encoding history: %w", err)
	}
	if err := h.kv.Set(ctx, historyKey, raw); err != nil {
		return fmt.Errorf("persisting history: %w", err)
	}
	return nil
}
