// Package domain contains core types for the auth service.
package domain

import "time"

// User is a shopper or back-office account.
type User struct {
	ID           int64     `gorm:"primaryKey"`
	Email        string    `gorm:"type:varchar(255);not null;uniqueIndex"`
	Name         string    `gorm:"type:varchar(255);not null"`
	Picture      *string   `gorm:"type:text"`
	IsAdmin      bool      `gorm:"not null"`
	PasswordHash *string   `gorm:"type:text"`
	CreatedAt    time.Time `gorm:"not null"`
	UpdatedAt    time.Time `gorm:"not null"`
}

func (User) TableName() string { return "users" }

// Session is a persisted login. Only the token hash is stored.
type Session struct {
	ID               int64     `gorm:"primaryKey"`
	UserID           int64     `gorm:"not null;index"`
	SessionTokenHash string    `gorm:"type:varchar(64);not null;uniqueIndex"`
	UserAgent        string    `gorm:"type:text"`
	IPAddress        string    `gorm:"type:varchar(64)"`
	ExpiresAt        time.Time `gorm:"not null;index"`
	RevokedAt        *time.Time
	CreatedAt        time.Time `gorm:"not null"`
	LastSeenAt       time.Time `gorm:"not null"`
}

func (Session) TableName() string { return "user_sessions" }
