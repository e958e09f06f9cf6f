package handlers

import (
	"errors"
	"net/http"
	"strings"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
)

// AccountHandler serves /api/accounts.
type AccountHandler struct {
	auth     *auth.Service
	accounts store.AccountStore
	log      *zap.Logger
}

func NewAccountHandler(svc *auth.Service, accounts store.AccountStore, log *zap.Logger) *AccountHandler {
	return &AccountHandler{auth: svc, accounts: accounts, log: log.Named("accounts")}
}

type createAccountPayload struct {
	FirstName string `json:"firstName" binding:"required,min=3,max=30"`
	LastName  string `json:"lastName" binding:"required"`
	Email     string `json:"email" binding:"required,email"`
	Password  string `json:"password" binding:"required,min=8"`
}

// patchAccountPayload is the partial schema for PATCH. PUT binds
// createAccountPayload.
type patchAccountPayload struct {
	FirstName *string `json:"firstName" binding:"omitempty,min=3,max=30"`
	LastName  *string `json:"lastName"`
	Email     *string `json:"email" binding:"omitempty,email"`
	Password  *string `json:"password" binding:"omitempty,min=8"`
}

type signInPayload struct {
	Email      string `json:"email" binding:"required,email"`
	Password   string `json:"password" binding:"required,min=8"`
	RememberMe bool   `json:"rememberMe"`
}

type signInResponse struct {
	ID            uuid.UUID `json:"id"`
	FirstName     string    `json:"firstName"`
	LastName      string    `json:"lastName"`
	Email         string    `json:"email"`
	IsAdmin       bool      `json:"isAdmin"`
	EmailVerified bool      `json:"emailVerified"`
	Token         string    `json:"token"`
}

type emailPayload struct {
	Email string `json:"email" binding:"required,email"`
}

type confirmEmailPayload struct {
	Hash string `json:"hash"`
}

type resetPasswordPayload struct {
	Hash     string `json:"hash"`
	Password string `json:"password" binding:"required,min=8"`
}

// Create handles POST /api/accounts.
func (h *AccountHandler) Create(c *gin.Context) {
	var payload createAccountPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	account, err := h.auth.Register(c.Request.Context(), auth.RegisterInput{
		FirstName: payload.FirstName,
		LastName:  payload.LastName,
		Email:     payload.Email,
		Password:  payload.Password,
	})
	if err != nil {
		respondAuthError(c, h.log, err)
		return
	}
	c.JSON(http.StatusCreated, account)
}

// SignIn handles POST /api/accounts/signin.
func (h *AccountHandler) SignIn(c *gin.Context) {
	var payload signInPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	session, err := h.auth.Authenticate(c.Request.Context(), payload.Email, payload.Password, payload.RememberMe)
	if err != nil {
		respondAuthError(c, h.log, err)
		return
	}

	a := session.Account
	c.JSON(http.StatusOK, signInResponse{
		ID:            a.ID,
		FirstName:     a.FirstName,
		LastName:      a.LastName,
		Email:         a.Email,
		IsAdmin:       a.IsAdmin,
		EmailVerified: a.EmailVerified,
		Token:         session.Token,
	})
}

// List handles GET /api/accounts.
func (h *AccountHandler) List(c *gin.Context) {
	page, pageSize := GetPaginationParams(c)
	accounts, err := h.accounts.List(c.Request.Context(), page, pageSize)
	if err != nil {
		respondInternal(c, h.log, err, "Failed to list accounts")
		return
	}
	c.JSON(http.StatusOK, accounts)
}

// Get handles GET /api/accounts/:id.
func (h *AccountHandler) Get(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	account, err := h.accounts.FindByID(c.Request.Context(), id)
	if errors.Is(err, store.ErrNotFound) {
		c.JSON(http.StatusNotFound, gin.H{"message": "Account not found"})
		return
	}
	if err != nil {
		respondInternal(c, h.log, err, "Failed to fetch account")
		return
	}
	c.JSON(http.StatusOK, account)
}

// Update handles PUT (full schema) and PATCH (partial schema) on
// /api/accounts/:id. Only the account itself or an admin may update it.
func (h *AccountHandler) Update(c *gin.Context) {
	id, ok := parseID(c)
	if !ok {
		return
	}

	current, ok := auth.CurrentAccount(c)
	if !ok {
		c.JSON(http.StatusUnauthorized, gin.H{"message": "Authentication credentials were not provided"})
		return
	}
	if current.ID != id && !current.IsAdmin {
		c.JSON(http.StatusForbidden, gin.H{"message": "You can only update your own account"})
		return
	}

	var changes models.AccountChanges
	if c.Request.Method == http.MethodPut {
		var payload createAccountPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBindingError(c, err)
			return
		}
		changes = models.AccountChanges{
			FirstName: &payload.FirstName,
			LastName:  &payload.LastName,
			Email:     &payload.Email,
			Password:  &payload.Password,
		}
	} else {
		var payload patchAccountPayload
		if err := c.ShouldBindJSON(&payload); err != nil {
			respondBindingError(c, err)
			return
		}
		changes = models.AccountChanges{
			FirstName: payload.FirstName,
			LastName:  payload.LastName,
			Email:     payload.Email,
			Password:  payload.Password,
		}
	}
	if changes.Email != nil {
		email := strings.ToLower(strings.TrimSpace(*changes.Email))
		changes.Email = &email
	}

	account, err := h.accounts.Update(c.Request.Context(), id, changes)
	switch {
	case errors.Is(err, store.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Account not found"})
	case errors.Is(err, store.ErrDuplicateEmail):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgEmailTaken})
	case err != nil:
		respondInternal(c, h.log, err, "Failed to update account")
	default:
		c.JSON(http.StatusOK, account)
	}
}

// ConfirmEmail handles POST /api/accounts/confirm-email.
func (h *AccountHandler) ConfirmEmail(c *gin.Context) {
	var payload confirmEmailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	account, err := h.auth.ConfirmEmail(c.Request.Context(), payload.Hash)
	if err != nil {
		respondTokenError(c, h.log, err, confirmEmailMessages)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ForgotPassword handles POST /api/accounts/forgot-password.
func (h *AccountHandler) ForgotPassword(c *gin.Context) {
	var payload emailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.auth.ForgotPassword(c.Request.Context(), payload.Email); err != nil {
		respondAuthError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emailSent": true})
}

// ResetPassword handles POST /api/accounts/reset-password.
func (h *AccountHandler) ResetPassword(c *gin.Context) {
	var payload resetPasswordPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	account, err := h.auth.ResetPassword(c.Request.Context(), payload.Hash, payload.Password)
	if err != nil {
		respondTokenError(c, h.log, err, resetPasswordMessages)
		return
	}
	c.JSON(http.StatusOK, account)
}

// ResendVerification handles POST /api/accounts/resend-verify-account-email.
func (h *AccountHandler) ResendVerification(c *gin.Context) {
	var payload emailPayload
	if err := c.ShouldBindJSON(&payload); err != nil {
		respondBindingError(c, err)
		return
	}

	if err := h.auth.ResendVerification(c.Request.Context(), payload.Email); err != nil {
		respondAuthError(c, h.log, err)
		return
	}
	c.JSON(http.StatusOK, gin.H{"emailSent": true})
}
