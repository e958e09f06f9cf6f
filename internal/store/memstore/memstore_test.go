package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type plainHasher struct{}

func (plainHasher) Hash(p string) (string, error) { return "h:" + p, nil }

func TestAccounts_CreateRejectsDuplicateEmail(t *testing.T) {
	s := New(plainHasher{})
	ctx := context.Background()

	require.NoError(t, s.Accounts().Create(ctx, &models.Account{Email: "ann@x.com"}, "longenough"))
	err := s.Accounts().Create(ctx, &models.Account{Email: "ann@x.com"}, "longenough")
	assert.ErrorIs(t, err, store.ErrDuplicateEmail)
}

func TestTokens_ConsumeIsSingleUse(t *testing.T) {
	s := New(plainHasher{})
	ctx := context.Background()
	now := time.Now()

	require.NoError(t, s.Tokens().Create(ctx, &models.Token{
		Hash: "abc", Email: "ann@x.com", Purpose: models.PurposeVerifyEmail, ExpiresAt: now.Add(time.Hour),
	}))

	_, err := s.Tokens().Consume(ctx, "abc", models.PurposeResetPassword, now)
	assert.ErrorIs(t, err, store.ErrNotFound, "purpose must match")

	tok, err := s.Tokens().Consume(ctx, "abc", models.PurposeVerifyEmail, now)
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", tok.Email)

	_, err = s.Tokens().Consume(ctx, "abc", models.PurposeVerifyEmail, now)
	assert.ErrorIs(t, err, store.ErrNotFound)
}

func TestTokens_ExpiredStaysInPlace(t *testing.T) {
	s := New(plainHasher{})
	ctx := context.Background()
	now := time.Now()
	s.PutToken(models.Token{Hash: "old", Email: "ann@x.com", Purpose: models.PurposeVerifyEmail, ExpiresAt: now.Add(-time.Second)})

	_, err := s.Tokens().Consume(ctx, "old", models.PurposeVerifyEmail, now)
	assert.ErrorIs(t, err, store.ErrTokenExpired)
	assert.Len(t, s.AllTokens(), 1)

	n, err := s.Tokens().DeleteExpired(ctx, now)
	require.NoError(t, err)
	assert.Equal(t, int64(1), n)
	assert.Empty(t, s.AllTokens())
}

func TestTransaction_RollsBack(t *testing.T) {
	s := New(plainHasher{})
	ctx := context.Background()
	now := time.Now()
	s.PutToken(models.Token{Hash: "abc", Email: "ann@x.com", Purpose: models.PurposeVerifyEmail, ExpiresAt: now.Add(time.Hour)})

	boom := errors.New("boom")
	err := s.Transaction(ctx, func(tx store.Store) error {
		if _, err := tx.Tokens().Consume(ctx, "abc", models.PurposeVerifyEmail, now); err != nil {
			return err
		}
		return boom
	})
	assert.ErrorIs(t, err, boom)
	assert.Len(t, s.AllTokens(), 1, "consumed token restored on rollback")
}
