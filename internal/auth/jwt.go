package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
)

// Claims is the payload of a session credential.
type Claims struct {
	AccountID uuid.UUID `json:"accountId"`
	jwt.RegisteredClaims
}

// IssuerConfig configures an Issuer.
type IssuerConfig struct {
	Secret        string
	Issuer        string
	TTL           time.Duration // default lifetime
	RememberMeTTL time.Duration // lifetime when the user asked to be remembered
}

// Issuer mints and verifies HS256 session credentials. Issuer and verifier
// share only the secret; nothing is stored.
type Issuer struct {
	secret        []byte
	issuer        string
	ttl           time.Duration
	rememberMeTTL time.Duration
	now           func() time.Time
}

func NewIssuer(cfg IssuerConfig) (*Issuer, error) {
	if cfg.Secret == "" {
		return nil, errors.New("session signing secret is empty")
	}
	if cfg.TTL <= 0 || cfg.RememberMeTTL <= 0 {
		return nil, errors.New("session lifetimes must be positive")
	}
	return &Issuer{
		secret:        []byte(cfg.Secret),
		issuer:        cfg.Issuer,
		ttl:           cfg.TTL,
		rememberMeTTL: cfg.RememberMeTTL,
		now:           time.Now,
	}, nil
}

// Issue signs a credential for accountID.
func (i *Issuer) Issue(accountID uuid.UUID, remember bool) (string, error) {
	ttl := i.ttl
	if remember {
		ttl = i.rememberMeTTL
	}
	now := i.now()

	claims := &Claims{
		AccountID: accountID,
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   accountID.String(),
			Issuer:    i.issuer,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(ttl)),
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString(i.secret)
	if err != nil {
		return "", fmt.Errorf("error signing token: %w", err)
	}
	return signed, nil
}

// Verify checks signature and expiry and returns the account id.
// Failures wrap ErrSessionExpired or ErrInvalidSignature.
func (i *Issuer) Verify(tokenString string) (uuid.UUID, error) {
	claims := &Claims{}
	parser := jwt.NewParser(
		jwt.WithValidMethods([]string{jwt.SigningMethodHS256.Alg()}),
		jwt.WithExpirationRequired(),
		jwt.WithTimeFunc(i.now),
	)

	_, err := parser.ParseWithClaims(tokenString, claims, func(token *jwt.Token) (interface{}, error) {
		return i.secret, nil
	})
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return uuid.Nil, fmt.Errorf("%w: %v", ErrSessionExpired, err)
		}
		return uuid.Nil, fmt.Errorf("%w: %v", ErrInvalidSignature, err)
	}
	if claims.AccountID == uuid.Nil {
		return uuid.Nil, fmt.Errorf("%w: missing account id", ErrInvalidSignature)
	}
	return claims.AccountID, nil
}
