package domain

import (
	"context"
	"time"
)

type Service interface {
	CreateUser(ctx context.Context, req CreateUserRequest) (*User, error)
	// EnsureUser creates the account when no user has the email, and promotes it when admin is set.
	EnsureUser(ctx context.Context, req CreateUserRequest) (*User, error)
	Login(ctx context.Context, req LoginRequest) (*LoginResult, error)
	Logout(ctx context.Context, rawToken string) error
	// Authenticate resolves a raw session token to its live session and user.
	Authenticate(ctx context.Context, rawToken string) (*Session, *User, error)
	CurrentUser(ctx context.Context) (*UserResponse, error)
	FindUsers(ctx context.Context, ids []int64) (map[int64]User, error)
}

type CreateUserRequest struct {
	Email    string
	Name     string
	Password string
	IsAdmin  bool
}

type LoginRequest struct {
	Email     string `json:"email"`
	Password  string `json:"password"`
	UserAgent string `json:"-"`
	IPAddress string `json:"-"`
}

type LoginResult struct {
	User      UserResponse
	RawToken  string
	ExpiresAt time.Time
}

type UserResponse struct {
	ID      string  `json:"id"`
	Email   string  `json:"email"`
	Name    string  `json:"name"`
	Picture *string `json:"picture,omitempty"`
	IsAdmin bool    `json:"is_admin"`
}
