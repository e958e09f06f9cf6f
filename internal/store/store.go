// Package store persists accounts and single-use email tokens.
package store

import (
	"context"
	"errors"
	"time"

	"taskboard/backend/internal/models"

	"github.com/google/uuid"
)

var (
	ErrNotFound       = errors.New("record not found")
	ErrDuplicateEmail = errors.New("email already registered")
	// ErrTokenExpired is returned by Consume together with the expired row,
	// which stays in the table.
	ErrTokenExpired = errors.New("token expired")
)

// PasswordHasher turns a plaintext password into the stored digest.
type PasswordHasher interface {
	Hash(plaintext string) (string, error)
}

// AccountStore is the credential store. Every write that carries a password
// hashes it before it reaches the database; writes without one never touch
// the stored digest.
type AccountStore interface {
	Create(ctx context.Context, account *models.Account, password string) error
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
	FindByEmail(ctx context.Context, email string) (*models.Account, error)
	List(ctx context.Context, page, pageSize int) ([]models.Account, error)
	Update(ctx context.Context, id uuid.UUID, changes models.AccountChanges) (*models.Account, error)
	UpdateByEmail(ctx context.Context, email string, changes models.AccountChanges) (*models.Account, error)
}

// TokenStore holds single-use email tokens.
type TokenStore interface {
	Create(ctx context.Context, token *models.Token) error
	// Consume deletes and returns the token matching hash and purpose if it
	// has not expired at now. It returns ErrNotFound when no such token
	// exists and ErrTokenExpired when it exists but expired; in that case
	// the row is left in place.
	Consume(ctx context.Context, hash string, purpose models.TokenPurpose, now time.Time) (*models.Token, error)
	DeleteByEmail(ctx context.Context, email string, purpose models.TokenPurpose) (int64, error)
	DeleteExpired(ctx context.Context, now time.Time) (int64, error)
}

// Store groups the stores and runs units of work atomically.
type Store interface {
	Accounts() AccountStore
	Tokens() TokenStore
	// Transaction runs fn against a Store bound to a single transaction.
	// Returning an error from fn rolls every write back.
	Transaction(ctx context.Context, fn func(tx Store) error) error
}

// NormalizePage clamps pagination parameters.
func NormalizePage(page, pageSize int) (int, int) {
	if page < 1 {
		page = 1
	}
	if pageSize < 1 {
		pageSize = DefaultPageSize
	}
	if pageSize > MaxPageSize {
		pageSize = MaxPageSize
	}
	return page, pageSize
}

const (
	DefaultPageSize = 10
	MaxPageSize     = 100
)
