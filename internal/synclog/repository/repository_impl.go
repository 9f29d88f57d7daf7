package repository

import (
	"context"

	"github.com/smallbiznis/autoparts/internal/synclog/domain"
	"gorm.io/gorm"
)

type repo struct{}

func Provide() domain.Repository {
	return &repo{}
}

func (r *repo) Insert(ctx context.Context, db *gorm.DB, entry *domain.Entry) error {
	if entry == nil {
		return nil
	}
	return db.WithContext(ctx).Exec(
		`INSERT INTO sync_logs (id, table_name, record_id, action, timestamp, user_id, owner_user_id)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		entry.ID,
		entry.Table,
		entry.RecordID,
		entry.Action,
		entry.Timestamp,
		entry.UserID,
		entry.OwnerUserID,
	).Error
}

func (r *repo) LastTimestamp(ctx context.Context, db *gorm.DB, table string) (int64, error) {
	var last int64
	err := db.WithContext(ctx).Raw(
		`SELECT COALESCE(MAX(timestamp), 0) FROM sync_logs WHERE table_name = ?`,
		table,
	).Scan(&last).Error
	return last, err
}

func (r *repo) ListSince(ctx context.Context, db *gorm.DB, q domain.SinceQuery) ([]domain.Entry, error) {
	stmt := db.WithContext(ctx).
		Model(&domain.Entry{}).
		Where("table_name = ? AND timestamp >= ?", q.Table, q.Watermark)
	if q.Owner != nil {
		stmt = stmt.Where("owner_user_id = ?", *q.Owner)
	}
	if q.After != nil {
		stmt = stmt.Where("((timestamp > ?) OR (timestamp = ? AND id > ?))", q.After.Timestamp, q.After.Timestamp, q.After.ID)
	}
	if q.Limit > 0 {
		stmt = stmt.Limit(q.Limit)
	}

	var items []domain.Entry
	if err := stmt.Order("timestamp ASC, id ASC").Find(&items).Error; err != nil {
		return nil, err
	}
	return items, nil
}
