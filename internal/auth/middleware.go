package auth

import (
	"context"
	"net/http"
	"strings"

	"taskboard/backend/internal/models"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

const accountContextKey = "account"

var notAuthenticated = gin.H{"message": "Authentication credentials were not provided"}

type ctxKey struct{}

// AccountFinder resolves the account a session credential refers to.
type AccountFinder interface {
	FindByID(ctx context.Context, id uuid.UUID) (*models.Account, error)
}

// Gate is the gin middleware protecting authenticated routes. It expects
// "Authorization: Bearer <token>", resolves the account and stores it in
// both the gin context and the request context.
func Gate(issuer *Issuer, accounts AccountFinder) gin.HandlerFunc {
	return func(c *gin.Context) {
		authHeader := c.GetHeader("Authorization")
		if authHeader == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, notAuthenticated)
			return
		}

		parts := strings.SplitN(authHeader, " ", 2)
		if len(parts) != 2 || !strings.EqualFold(parts[0], "bearer") || strings.TrimSpace(parts[1]) == "" {
			c.AbortWithStatusJSON(http.StatusUnauthorized, notAuthenticated)
			return
		}

		accountID, err := issuer.Verify(strings.TrimSpace(parts[1]))
		if err != nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, notAuthenticated)
			return
		}

		account, err := accounts.FindByID(c.Request.Context(), accountID)
		if err != nil || account == nil {
			c.AbortWithStatusJSON(http.StatusUnauthorized, notAuthenticated)
			return
		}

		SetCurrentAccount(c, account)
		c.Next()
	}
}

// RequireAdmin must run after Gate.
func RequireAdmin() gin.HandlerFunc {
	return func(c *gin.Context) {
		account, ok := CurrentAccount(c)
		if !ok {
			c.AbortWithStatusJSON(http.StatusUnauthorized, notAuthenticated)
			return
		}
		if !account.IsAdmin {
			c.AbortWithStatusJSON(http.StatusForbidden, gin.H{"message": "Not authorized as an admin"})
			return
		}
		c.Next()
	}
}

// SetCurrentAccount attaches account to the gin and request contexts.
func SetCurrentAccount(c *gin.Context, account *models.Account) {
	c.Set(accountContextKey, account)
	c.Request = c.Request.WithContext(WithAccount(c.Request.Context(), account))
}

// CurrentAccount returns the account attached by Gate.
func CurrentAccount(c *gin.Context) (*models.Account, bool) {
	v, ok := c.Get(accountContextKey)
	if !ok {
		return nil, false
	}
	account, ok := v.(*models.Account)
	return account, ok && account != nil
}

func WithAccount(ctx context.Context, account *models.Account) context.Context {
	return context.WithValue(ctx, ctxKey{}, account)
}

// AccountFromContext returns the account attached to a request context by Gate.
func AccountFromContext(ctx context.Context) (*models.Account, bool) {
	account, ok := ctx.Value(ctxKey{}).(*models.Account)
	return account, ok && account != nil
}
