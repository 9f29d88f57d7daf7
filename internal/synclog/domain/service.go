package domain

import (
	"context"
	"errors"
	"iter"

	"gorm.io/gorm"
)

// Recorder appends entries inside the caller's transaction.
type Recorder interface {
	// Record logs a change to a shared table. Private tables need RecordOwned.
	Record(ctx context.Context, tx *gorm.DB, table string, recordID int64, action Action) (*Entry, error)
	// RecordOwned logs a change to a row that belongs to ownerID; only that
	// user is served the entry.
	RecordOwned(ctx context.Context, tx *gorm.DB, table string, recordID, ownerID int64, action Action) (*Entry, error)
	// Notify fans committed entries out to live subscribers. Call only after commit.
	Notify(entries ...Entry)
}

type Service interface {
	Recorder
	// EntriesSince reads every entry of table, private rows included.
	EntriesSince(ctx context.Context, table string, watermark int64) iter.Seq2[Entry, error]
	// VisibleSince is EntriesSince restricted to what userID may read.
	VisibleSince(ctx context.Context, table string, watermark, userID int64) iter.Seq2[Entry, error]
	Changes(ctx context.Context, req ChangesRequest) (*ChangesResponse, error)
	Pull(ctx context.Context, since int64) (*PullResponse, error)
}

// Publisher receives committed entries, e.g. the websocket hub.
type Publisher interface {
	Publish(entries ...Entry)
}

type ChangesRequest struct {
	Table string `form:"table"`
	Since int64  `form:"since"`
	Limit int    `form:"limit"`
}

type EntryResponse struct {
	ID        string `json:"id"`
	TableName string `json:"table_name"`
	RecordID  string `json:"record_id"`
	Action    Action `json:"action"`
	Timestamp int64  `json:"timestamp"`
	UserID    string `json:"user_id,omitempty"`
}

type ChangesResponse struct {
	Table     string          `json:"table"`
	Changes   []EntryResponse `json:"changes"`
	Timestamp int64           `json:"timestamp"`
	HasMore   bool            `json:"has_more"`
}

type TableChanges struct {
	Created []string `json:"created"`
	Updated []string `json:"updated"`
	Deleted []string `json:"deleted"`
}

type PullResponse struct {
	Changes   map[string]TableChanges `json:"changes"`
	Timestamp int64                   `json:"timestamp"`
}

var (
	ErrInvalidTable     = errors.New("invalid_table")
	ErrInvalidAction    = errors.New("invalid_action")
	ErrInvalidRecord    = errors.New("invalid_record_id")
	ErrInvalidWatermark = errors.New("invalid_watermark")
	ErrMissingOwner     = errors.New("missing_owner")
)
