package auth

import (
	"context"
	"errors"
	"fmt"
	"net/url"
	"strings"
	"time"

	"taskboard/backend/internal/mailer"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"
	"taskboard/backend/pkg/metrics"

	"go.uber.org/zap"
)

// Notifier hands a rendered message off for delivery. It must not block on
// the delivery itself.
type Notifier interface {
	Send(msg mailer.Message)
}

type ServiceConfig struct {
	FrontendHost        string
	TokenTTL            time.Duration
	InvalidateOnReissue bool
}

// Service runs the account verification, password reset and login flows.
type Service struct {
	store  store.Store
	hasher *Hasher
	issuer *Issuer
	mail   Notifier
	cfg    ServiceConfig
	log    *zap.Logger

	now       func() time.Time
	newSecret func() (string, error)

	// verified against when the email is unknown so both login failures
	// cost the same
	dummyDigest string
}

func NewService(s store.Store, hasher *Hasher, issuer *Issuer, mail Notifier, cfg ServiceConfig, log *zap.Logger) (*Service, error) {
	if cfg.TokenTTL <= 0 {
		cfg.TokenTTL = time.Hour
	}
	dummy, err := hasher.Hash("not-a-real-password")
	if err != nil {
		return nil, fmt.Errorf("prepare login digest: %w", err)
	}
	return &Service{
		store:       s,
		hasher:      hasher,
		issuer:      issuer,
		mail:        mail,
		cfg:         cfg,
		log:         log.Named("auth"),
		now:         time.Now,
		newSecret:   NewSecret,
		dummyDigest: dummy,
	}, nil
}

type RegisterInput struct {
	FirstName string
	LastName  string
	Email     string
	Password  string
}

// Register creates an unverified account and starts email verification.
func (s *Service) Register(ctx context.Context, in RegisterInput) (*models.Account, error) {
	account := &models.Account{
		FirstName: in.FirstName,
		LastName:  in.LastName,
		Email:     normalizeEmail(in.Email),
	}

	var secret string
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		if err := tx.Accounts().Create(ctx, account, in.Password); err != nil {
			if errors.Is(err, store.ErrDuplicateEmail) {
				return ErrConflict
			}
			return fmt.Errorf("create account: %w", err)
		}
		var err error
		secret, err = s.issueToken(ctx, tx, account.Email, models.PurposeVerifyEmail)
		return err
	})
	if err != nil {
		return nil, err
	}

	s.sendTokenMail(mailer.TemplateConfirmEmail, account, s.confirmURL(secret))
	return account, nil
}

// ResendVerification issues a fresh verification token for an unverified account.
func (s *Service) ResendVerification(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingInput
	}
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}
	if account.EmailVerified {
		return ErrAlreadyVerified
	}

	var secret string
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		secret, err = s.issueToken(ctx, tx, account.Email, models.PurposeVerifyEmail)
		return err
	})
	if err != nil {
		return err
	}

	s.sendTokenMail(mailer.TemplateConfirmEmail, account, s.confirmURL(secret))
	return nil
}

// ConfirmEmail redeems a verification secret and marks the account verified.
func (s *Service) ConfirmEmail(ctx context.Context, secret string) (*models.Account, error) {
	if secret == "" {
		return nil, ErrMissingInput
	}
	verified := true
	return s.redeem(ctx, secret, models.PurposeVerifyEmail, models.AccountChanges{EmailVerified: &verified})
}

// ForgotPassword issues a reset token for a known account.
func (s *Service) ForgotPassword(ctx context.Context, email string) error {
	email = normalizeEmail(email)
	if email == "" {
		return ErrMissingInput
	}
	account, err := s.findByEmail(ctx, email)
	if err != nil {
		return err
	}

	var secret string
	err = s.store.Transaction(ctx, func(tx store.Store) error {
		var err error
		secret, err = s.issueToken(ctx, tx, account.Email, models.PurposeResetPassword)
		return err
	})
	if err != nil {
		return err
	}

	s.sendTokenMail(mailer.TemplateResetPassword, account, s.resetURL(secret))
	return nil
}

// ResetPassword redeems a reset secret and stores the new password.
// Hashing happens in the credential store.
func (s *Service) ResetPassword(ctx context.Context, secret, password string) (*models.Account, error) {
	if secret == "" || password == "" {
		return nil, ErrMissingInput
	}
	return s.redeem(ctx, secret, models.PurposeResetPassword, models.AccountChanges{Password: &password})
}

// Session is a successful login.
type Session struct {
	Account *models.Account
	Token   string
}

// Authenticate checks email and password and issues a session credential.
// Unknown email and wrong password both return ErrInvalidCredentials.
func (s *Service) Authenticate(ctx context.Context, email, password string, remember bool) (*Session, error) {
	account, err := s.store.Accounts().FindByEmail(ctx, normalizeEmail(email))
	if err != nil && !errors.Is(err, store.ErrNotFound) {
		return nil, fmt.Errorf("find account: %w", err)
	}

	if account == nil {
		s.hasher.Verify(s.dummyDigest, password)
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}
	if !s.hasher.Verify(account.PasswordHash, password) {
		metrics.Logins.WithLabelValues("failure").Inc()
		return nil, ErrInvalidCredentials
	}

	token, err := s.issuer.Issue(account.ID, remember)
	if err != nil {
		return nil, err
	}
	metrics.Logins.WithLabelValues("success").Inc()
	return &Session{Account: account, Token: token}, nil
}

func (s *Service) redeem(ctx context.Context, secret string, purpose models.TokenPurpose, changes models.AccountChanges) (*models.Account, error) {
	var account *models.Account
	err := s.store.Transaction(ctx, func(tx store.Store) error {
		token, err := tx.Tokens().Consume(ctx, secret, purpose, s.now())
		switch {
		case errors.Is(err, store.ErrTokenExpired):
			return ErrExpired
		case errors.Is(err, store.ErrNotFound):
			return ErrNotFound
		case err != nil:
			return fmt.Errorf("consume token: %w", err)
		}

		account, err = tx.Accounts().UpdateByEmail(ctx, token.Email, changes)
		if errors.Is(err, store.ErrNotFound) {
			return ErrNotFound
		}
		if err != nil {
			return fmt.Errorf("update account: %w", err)
		}
		return nil
	})

	metrics.TokensConsumed.WithLabelValues(string(purpose), consumeOutcome(err)).Inc()
	if err != nil {
		return nil, err
	}
	return account, nil
}

func consumeOutcome(err error) string {
	switch {
	case err == nil:
		return "consumed"
	case errors.Is(err, ErrExpired):
		return "expired"
	case errors.Is(err, ErrNotFound):
		return "not_found"
	default:
		return "error"
	}
}

func (s *Service) issueToken(ctx context.Context, tx store.Store, email string, purpose models.TokenPurpose) (string, error) {
	secret, err := s.newSecret()
	if err != nil {
		return "", err
	}

	if s.cfg.InvalidateOnReissue {
		if _, err := tx.Tokens().DeleteByEmail(ctx, email, purpose); err != nil {
			return "", fmt.Errorf("invalidate outstanding tokens: %w", err)
		}
	}

	token := &models.Token{
		Hash:      secret,
		Email:     email,
		Purpose:   purpose,
		ExpiresAt: s.now().Add(s.cfg.TokenTTL),
	}
	if err := tx.Tokens().Create(ctx, token); err != nil {
		return "", fmt.Errorf("create token: %w", err)
	}
	metrics.TokensIssued.WithLabelValues(string(purpose)).Inc()
	return secret, nil
}

func (s *Service) sendTokenMail(tmpl mailer.Template, account *models.Account, link string) {
	msg, err := mailer.Render(tmpl, account.Email, mailer.TemplateData{
		FirstName: account.FirstName,
		URL:       link,
		ExpiresIn: humanDuration(s.cfg.TokenTTL),
	})
	if err != nil {
		s.log.Error("Failed to render email", zap.String("template", string(tmpl)), zap.Error(err))
		return
	}
	s.mail.Send(msg)
}

func (s *Service) findByEmail(ctx context.Context, email string) (*models.Account, error) {
	account, err := s.store.Accounts().FindByEmail(ctx, email)
	if errors.Is(err, store.ErrNotFound) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("find account: %w", err)
	}
	return account, nil
}

func (s *Service) confirmURL(secret string) string {
	return strings.TrimSuffix(s.cfg.FrontendHost, "/") + "/confirm-email?hash=" + url.QueryEscape(secret)
}

func (s *Service) resetURL(secret string) string {
	return strings.TrimSuffix(s.cfg.FrontendHost, "/") + "/reset-password/edit/" + url.PathEscape(secret)
}

func humanDuration(d time.Duration) string {
	unit, n := "minute", int(d/time.Minute)
	if d >= time.Hour && d%time.Hour == 0 {
		unit, n = "hour", int(d/time.Hour)
	}
	if n == 1 {
		return "1 " + unit
	}
	return fmt.Sprintf("%d %ss", n, unit)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
