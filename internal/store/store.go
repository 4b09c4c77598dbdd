package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"gorm.io/gorm"
	"gorm.io/gorm/clause"

	"locker-tab-backend/internal/model"
)

// ErrNotFound is returned by a KVStore when the key holds no value.
var ErrNotFound = errors.New("key not found")

// KVStore is the storage abstraction behind the history blob. It plays the
// role browser-local storage plays for the tab: whole values under fixed keys.
type KVStore interface {
	Get(ctx context.Context, key string) (string, error)
	Set(ctx context.Context, key string, value string) error
	Delete(ctx context.Context, key string) error
}

// gormStore implements KVStore on the history_blobs table.
type gormStore struct {
	db *gorm.DB
}

// NewGormStore creates a new GORM-backed store.
func NewGormStore(db *gorm.DB) KVStore {
	return &gormStore{db: db}
}

func (s *gormStore) Get(ctx context.Context, key string) (string, error) {
	var blob model.HistoryBlob
	err := s.db.WithContext(ctx).Where("blob_key = ?", key).First(&blob).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return "", ErrNotFound
	}
	if err != nil {
		return "", fmt.Errorf("failed to read blob %q: %w", key, err)
	}
	return blob.Data, nil
}

func (s *gormStore) Set(ctx context.Context, key string, value string) error {
	blob := model.HistoryBlob{
		Key:       key,
		Data:      value,
		UpdatedAt: time.Now().UTC(),
	}
	err := s.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns:   []clause.Column{{Name: "blob_key"}},
		DoUpdates: clause.AssignmentColumns([]string{"data", "updated_at"}),
	}).Create(&blob).Error
	if err != nil {
		return fmt.Errorf("failed to write blob %q: %w", key, err)
	}
	return nil
}

func (s *gormStore) Delete(ctx context.Context, key string) error {
	if err := s.db.WithContext(ctx).Delete(&model.HistoryBlob{Key: key}).Error; err != nil {
		return fmt.Errorf("failed to delete blob %q: %w", key, err)
	}
	return nil
}
