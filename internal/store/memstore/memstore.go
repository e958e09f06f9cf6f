// Package memstore is an in-memory store.Store used by tests.
package memstore

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/google/uuid"
)

type Store struct {
	mu       sync.Mutex
	txMu     sync.Mutex
	hasher   store.PasswordHasher
	accounts map[uuid.UUID]models.Account
	tokens   map[string]models.Token
	nextID   uint
	now      func() time.Time
}

func New(hasher store.PasswordHasher) *Store {
	return &Store{
		hasher:   hasher,
		accounts: map[uuid.UUID]models.Account{},
		tokens:   map[string]models.Token{},
		now:      time.Now,
	}
}

func (s *Store) Accounts() store.AccountStore { return accounts{s} }

func (s *Store) Tokens() store.TokenStore { return tokens{s} }

// Transaction snapshots both tables and restores them if fn fails.
// Transactions are serialized.
func (s *Store) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()

	s.mu.Lock()
	accountsSnap := make(map[uuid.UUID]models.Account, len(s.accounts))
	for k, v := range s.accounts {
		accountsSnap[k] = v
	}
	tokensSnap := make(map[string]models.Token, len(s.tokens))
	for k, v := range s.tokens {
		tokensSnap[k] = v
	}
	s.mu.Unlock()

	if err := fn(s); err != nil {
		s.mu.Lock()
		s.accounts = accountsSnap
		s.tokens = tokensSnap
		s.mu.Unlock()
		return err
	}
	return nil
}

// AllTokens returns a copy of every stored token.
func (s *Store) AllTokens() []models.Token {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]models.Token, 0, len(s.tokens))
	for _, t := range s.tokens {
		out = append(out, t)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}

// PutToken stores a token as is, bypassing issuance.
func (s *Store) PutToken(token models.Token) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.nextID++
	token.ID = s.nextID
	s.tokens[token.Hash] = token
}

type accounts struct{ s *Store }

func (r accounts) Create(ctx context.Context, account *models.Account, password string) error {
	digest, err := r.s.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	for _, a := range r.s.accounts {
		if a.Email == account.Email {
			return store.ErrDuplicateEmail
		}
	}
	if account.ID == uuid.Nil {
		account.ID = uuid.New()
	}
	now := r.s.now()
	account.PasswordHash = digest
	account.CreatedAt = now
	account.UpdatedAt = now
	r.s.accounts[account.ID] = *account
	return nil
}

func (r accounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := r.s.accounts[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &a, nil
}

func (r accounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if a, ok := r.byEmail(email); ok {
		return &a, nil
	}
	return nil, store.ErrNotFound
}

func (r accounts) byEmail(email string) (models.Account, bool) {
	for _, a := range r.s.accounts {
		if a.Email == email {
			return a, true
		}
	}
	return models.Account{}, false
}

func (r accounts) List(ctx context.Context, page, pageSize int) ([]models.Account, error) {
	page, pageSize = store.NormalizePage(page, pageSize)
	r.s.mu.Lock()
	all := make([]models.Account, 0, len(r.s.accounts))
	for _, a := range r.s.accounts {
		all = append(all, a)
	}
	r.s.mu.Unlock()

	sort.Slice(all, func(i, j int) bool { return all[i].CreatedAt.After(all[j].CreatedAt) })
	start := (page - 1) * pageSize
	if start >= len(all) {
		return []models.Account{}, nil
	}
	end := start + pageSize
	if end > len(all) {
		end = len(all)
	}
	return all[start:end], nil
}

func (r accounts) Update(ctx context.Context, id uuid.UUID, changes models.AccountChanges) (*models.Account, error) {
	return r.update(changes, func() (models.Account, bool) {
		a, ok := r.s.accounts[id]
		return a, ok
	})
}

func (r accounts) UpdateByEmail(ctx context.Context, email string, changes models.AccountChanges) (*models.Account, error) {
	return r.update(changes, func() (models.Account, bool) { return r.byEmail(email) })
}

func (r accounts) update(changes models.AccountChanges, find func() (models.Account, bool)) (*models.Account, error) {
	var digest string
	if changes.Password != nil {
		var err error
		if digest, err = r.s.hasher.Hash(*changes.Password); err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
	}

	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	a, ok := find()
	if !ok {
		return nil, store.ErrNotFound
	}
	if changes.Email != nil && *changes.Email != a.Email {
		if _, taken := r.byEmail(*changes.Email); taken {
			return nil, store.ErrDuplicateEmail
		}
		a.Email = *changes.Email
	}
	if changes.FirstName != nil {
		a.FirstName = *changes.FirstName
	}
	if changes.LastName != nil {
		a.LastName = *changes.LastName
	}
	if changes.EmailVerified != nil {
		a.EmailVerified = *changes.EmailVerified
	}
	if changes.Password != nil {
		a.PasswordHash = digest
	}
	a.UpdatedAt = r.s.now()
	r.s.accounts[a.ID] = a
	return &a, nil
}

type tokens struct{ s *Store }

func (r tokens) Create(ctx context.Context, token *models.Token) error {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	if _, exists := r.s.tokens[token.Hash]; exists {
		return fmt.Errorf("create token: duplicate hash")
	}
	r.s.nextID++
	token.ID = r.s.nextID
	token.CreatedAt = r.s.now()
	r.s.tokens[token.Hash] = *token
	return nil
}

func (r tokens) Consume(ctx context.Context, hash string, purpose models.TokenPurpose, now time.Time) (*models.Token, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	t, ok := r.s.tokens[hash]
	if !ok || t.Purpose != purpose {
		return nil, store.ErrNotFound
	}
	if t.Expired(now) {
		return &t, store.ErrTokenExpired
	}
	delete(r.s.tokens, hash)
	return &t, nil
}

func (r tokens) DeleteByEmail(ctx context.Context, email string, purpose models.TokenPurpose) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.tokens {
		if t.Email == email && t.Purpose == purpose {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}

func (r tokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	r.s.mu.Lock()
	defer r.s.mu.Unlock()
	var n int64
	for k, t := range r.s.tokens {
		if t.Expired(now) {
			delete(r.s.tokens, k)
			n++
		}
	}
	return n, nil
}
