package pagination

import (
	"encoding/base64"
	"encoding/json"
)

const (
	DefaultPageSize = 20
	MaxPageSize     = 100
)

type Pagination struct {
	Cursor   string `form:"cursor"`
	PageSize int    `form:"limit"`
}

// Normalize clamps the page size into [1, MaxPageSize].
func (p Pagination) Normalize() Pagination {
	if p.PageSize <= 0 {
		p.PageSize = DefaultPageSize
	}
	if p.PageSize > MaxPageSize {
		p.PageSize = MaxPageSize
	}
	return p
}

type Cursor struct {
	ID        string `json:"id,omitempty"`
	CreatedAt string `json:"created_at,omitempty"`
}

type PageInfo struct {
	NextCursor *string `json:"next_cursor"`
	PrevCursor *string `json:"prev_cursor"`
	HasMore    bool    `json:"has_more"`
	PageSize   int     `json:"page_size"`
}

func EncodeCursor(data Cursor) (string, error) {
	b, err := json.Marshal(data)
	if err != nil {
		return "", err
	}

	return base64.URLEncoding.EncodeToString(b), nil
}

func DecodeCursor(data string) (*Cursor, error) {
	b, err := base64.URLEncoding.DecodeString(data)
	if err != nil {
		return nil, err
	}

	var cursor Cursor
	if err := json.Unmarshal(b, &cursor); err != nil {
		return nil, err
	}

	return &cursor, nil
}

// BuildCursorPageInfo expects data fetched with limit+1 rows and returns the trimmed page.
func BuildCursorPageInfo[T any](data []T, limit int, prevCursor string, extractCursor func(T) string) ([]T, PageInfo) {
	info := PageInfo{PageSize: limit}
	if prevCursor != "" {
		info.PrevCursor = &prevCursor
	}
	if len(data) == 0 {
		return data, info
	}

	if len(data) > limit {
		info.HasMore = true
		data = data[:limit]
		next := extractCursor(data[len(data)-1])
		info.NextCursor = &next
	}

	return data, info
}
