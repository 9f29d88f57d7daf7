package domain

import (
	"context"
	"errors"
	"time"

	authdomain "github.com/smallbiznis/autoparts/internal/auth/domain"
)

const (
	MinRating = 1
	MaxRating = 5
)

var (
	ErrInvalidID       = errors.New("invalid_id")
	ErrInvalidText     = errors.New("invalid_text")
	ErrInvalidRating   = errors.New("invalid_rating")
	ErrProductNotFound = errors.New("product_not_found")
	ErrNotFound        = errors.New("not_found")
	ErrForbidden       = errors.New("forbidden")
)

type Service interface {
	Create(ctx context.Context, req CreateRequest) (*Response, error)
	ListByProduct(ctx context.Context, productID string) ([]Response, error)
	// Delete soft-deletes a comment owned by the caller. Admins may delete any comment.
	Delete(ctx context.Context, id string) error
}

// UserDirectory resolves comment authors.
type UserDirectory interface {
	FindUsers(ctx context.Context, ids []int64) (map[int64]authdomain.User, error)
}

type CreateRequest struct {
	ProductID string `json:"-"`
	Text      string `json:"text"`
	Rating    *int   `json:"rating"`
}

type Response struct {
	ID          string    `json:"id"`
	ProductID   string    `json:"product_id"`
	UserID      string    `json:"user_id"`
	UserName    string    `json:"user_name"`
	UserPicture *string   `json:"user_picture,omitempty"`
	Text        string    `json:"text"`
	Rating      *int      `json:"rating,omitempty"`
	CreatedAt   time.Time `json:"created_at"`
}
