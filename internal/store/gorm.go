package store

import (
	"context"
	"errors"
	"fmt"
	"time"

	"taskboard/backend/internal/models"

	"github.com/google/uuid"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// GormStore implements Store on top of gorm.
type GormStore struct {
	db     *gorm.DB
	hasher PasswordHasher
}

// NewGormStore builds a Store. The *gorm.DB should be opened with
// TranslateError so unique violations surface as gorm.ErrDuplicatedKey.
func NewGormStore(db *gorm.DB, hasher PasswordHasher) *GormStore {
	return &GormStore{db: db, hasher: hasher}
}

func (s *GormStore) Accounts() AccountStore { return &gormAccounts{db: s.db, hasher: s.hasher} }

func (s *GormStore) Tokens() TokenStore { return &gormTokens{db: s.db} }

func (s *GormStore) Transaction(ctx context.Context, fn func(tx Store) error) error {
	return s.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		return fn(&GormStore{db: tx, hasher: s.hasher})
	})
}

type gormAccounts struct {
	db     *gorm.DB
	hasher PasswordHasher
}

func (r *gormAccounts) Create(ctx context.Context, account *models.Account, password string) error {
	digest, err := r.hasher.Hash(password)
	if err != nil {
		return fmt.Errorf("hash password: %w", err)
	}
	account.PasswordHash = digest

	if err := r.db.WithContext(ctx).Create(account).Error; err != nil {
		if errors.Is(err, gorm.ErrDuplicatedKey) {
			return ErrDuplicateEmail
		}
		return fmt.Errorf("create account: %w", err)
	}
	return nil
}

func (r *gormAccounts) FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error) {
	return r.first(ctx, "id = ?", id)
}

func (r *gormAccounts) FindByEmail(ctx context.Context, email string) (*models.Account, error) {
	return r.first(ctx, "email = ?", email)
}

func (r *gormAccounts) first(ctx context.Context, query string, arg interface{}) (*models.Account, error) {
	var account models.Account
	if err := r.db.WithContext(ctx).Where(query, arg).First(&account).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("find account: %w", err)
	}
	return &account, nil
}

func (r *gormAccounts) List(ctx context.Context, page, pageSize int) ([]models.Account, error) {
	page, pageSize = NormalizePage(page, pageSize)
	var accounts []models.Account
	err := r.db.WithContext(ctx).
		Order("created_at DESC").
		Offset((page - 1) * pageSize).
		Limit(pageSize).
		Find(&accounts).Error
	if err != nil {
		return nil, fmt.Errorf("list accounts: %w", err)
	}
	return accounts, nil
}

func (r *gormAccounts) Update(ctx context.Context, id uuid.UUID, changes models.AccountChanges) (*models.Account, error) {
	return r.update(ctx, "id = ?", id, changes)
}

func (r *gormAccounts) UpdateByEmail(ctx context.Context, email string, changes models.AccountChanges) (*models.Account, error) {
	return r.update(ctx, "email = ?", email, changes)
}

func (r *gormAccounts) update(ctx context.Context, query string, arg interface{}, changes models.AccountChanges) (*models.Account, error) {
	columns, err := accountColumns(changes, r.hasher)
	if err != nil {
		return nil, err
	}
	if len(columns) == 0 {
		return r.first(ctx, query, arg)
	}

	var account models.Account
	res := r.db.WithContext(ctx).
		Model(&account).
		Clauses(clause.Returning{}).
		Where(query, arg).
		Updates(columns)
	if res.Error != nil {
		if errors.Is(res.Error, gorm.ErrDuplicatedKey) {
			return nil, ErrDuplicateEmail
		}
		return nil, fmt.Errorf("update account: %w", res.Error)
	}
	if res.RowsAffected == 0 {
		return nil, ErrNotFound
	}
	return &account, nil
}

// accountColumns maps the set fields to column updates. The password is only
// hashed when it is part of the change.
func accountColumns(changes models.AccountChanges, hasher PasswordHasher) (map[string]interface{}, error) {
	columns := map[string]interface{}{}
	if changes.FirstName != nil {
		columns["first_name"] = *changes.FirstName
	}
	if changes.LastName != nil {
		columns["last_name"] = *changes.LastName
	}
	if changes.Email != nil {
		columns["email"] = *changes.Email
	}
	if changes.EmailVerified != nil {
		columns["email_verified"] = *changes.EmailVerified
	}
	if changes.Password != nil {
		digest, err := hasher.Hash(*changes.Password)
		if err != nil {
			return nil, fmt.Errorf("hash password: %w", err)
		}
		columns["password_hash"] = digest
	}
	return columns, nil
}

type gormTokens struct {
	db *gorm.DB
}

func (r *gormTokens) Create(ctx context.Context, token *models.Token) error {
	if err := r.db.WithContext(ctx).Create(token).Error; err != nil {
		return fmt.Errorf("create token: %w", err)
	}
	return nil
}

func (r *gormTokens) Consume(ctx context.Context, hash string, purpose models.TokenPurpose, now time.Time) (*models.Token, error) {
	var token models.Token
	res := r.db.WithContext(ctx).
		Clauses(clause.Returning{}).
		Where("hash = ? AND purpose = ? AND expires_at >= ?", hash, purpose, now).
		Delete(&token)
	if res.Error != nil {
		return nil, fmt.Errorf("consume token: %w", res.Error)
	}
	if res.RowsAffected > 0 {
		return &token, nil
	}

	// Nothing deleted: either the secret is unknown or it has expired.
	var existing models.Token
	err := r.db.WithContext(ctx).
		Where("hash = ? AND purpose = ?", hash, purpose).
		First(&existing).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find token: %w", err)
	}
	return &existing, ErrTokenExpired
}

func (r *gormTokens) DeleteByEmail(ctx context.Context, email string, purpose models.TokenPurpose) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("email = ? AND purpose = ?", email, purpose).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete tokens for email: %w", res.Error)
	}
	return res.RowsAffected, nil
}

func (r *gormTokens) DeleteExpired(ctx context.Context, now time.Time) (int64, error) {
	res := r.db.WithContext(ctx).
		Where("expires_at < ?", now).
		Delete(&models.Token{})
	if res.Error != nil {
		return 0, fmt.Errorf("delete expired tokens: %w", res.Error)
	}
	return res.RowsAffected, nil
}
