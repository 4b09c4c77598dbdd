package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"locker-tab-backend/internal/model"
)

// HistoryKey is the fixed storage key of the history blob.
const HistoryKey = "history"

// HistoryStore reads and writes a user's borrow history as one JSON blob.
type HistoryStore struct {
	kv     KVStore
	logger *zap.Logger
}

// NewHistoryStore wraps kv. A nil logger disables logging.
func NewHistoryStore(kv KVStore, logger *zap.Logger) *HistoryStore {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &HistoryStore{kv: kv, logger: logger}
}

// keyFor scopes the fixed key to one user, the way browser storage is scoped
// to one signed-in profile.
func keyFor(user string) string {
	if user == "" {
		return HistoryKey
	}
	return HistoryKey + ":" + user
}

// Load returns the stored history. A missing or unparsable blob yields an
// empty history; only backend failures are returned as errors.
func (h *HistoryStore) Load(ctx context.Context, user string) ([]model.HistoryRecord, error) {
	raw, err := h.kv.Get(ctx, keyFor(user))
	if errors.Is(err, ErrNotFound) {
		return []model.HistoryRecord{}, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to load history: %w", err)
	}

	var records []model.HistoryRecord
	if err := json.Unmarshal([]byte(raw), &records); err != nil {
		h.logger.Warn("discarding unparsable history blob", zap.String("user", user), zap.Error(err))
		return []model.HistoryRecord{}, nil
	}
	if records == nil {
		records = []model.HistoryRecord{}
	}
	return records, nil
}

// Save overwrites the whole blob.
func (h *HistoryStore) Save(ctx context.Context, user string, records []model.HistoryRecord) error {
	if records == nil {
		records = []model.HistoryRecord{}
	}
	data, err := json.Marshal(records)
	if err != nil {
		return fmt.Errorf("failed to marshal history: %w", err)
	}
	if err := h.kv.Set(ctx, keyFor(user), string(data)); err != nil {
		return fmt.Errorf("failed to save history: %w", err)
	}
	return nil
}

// Clear removes the blob.
func (h *HistoryStore) Clear(ctx context.Context, user string) error {
	if err := h.kv.Delete(ctx, keyFor(user)); err != nil {
		return fmt.Errorf("failed to clear history: %w", err)
	}
	return nil
}
