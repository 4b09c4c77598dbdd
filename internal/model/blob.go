package model

import "time"

// HistoryBlob stores one serialized value under a fixed key.
type HistoryBlob struct {
	Key       string    `gorm:"column:blob_key;primaryKey;size:255"`
	Data      string    `gorm:"type:text;not null"`
	UpdatedAt time.Time `gorm:"not null"`
}
