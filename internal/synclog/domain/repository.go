package domain

import (
	"context"

	"gorm.io/gorm"
)

// Position is a keyset cursor over (timestamp, id).
type Position struct {
	Timestamp int64
	ID        int64
}

// SinceQuery selects entries of one table at or after Watermark.
type SinceQuery struct {
	Table     string
	Watermark int64
	After     *Position
	// Owner, when set, keeps only rows owned by that user.
	Owner *int64
	Limit int
}

type Repository interface {
	Insert(ctx context.Context, db *gorm.DB, entry *Entry) error
	LastTimestamp(ctx context.Context, db *gorm.DB, table string) (int64, error)
	ListSince(ctx context.Context, db *gorm.DB, q SinceQuery) ([]Entry, error)
}
