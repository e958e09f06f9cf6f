package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"taskboard/backend/internal/auth"

	"github.com/gin-gonic/gin"
	"github.com/go-playground/validator/v10"
	"go.uber.org/zap"
)

const msgInternal = "Something went wrong, please retry later"

// respondBindingError answers a request whose body failed to bind. Schema
// violations get 422, anything else (malformed JSON) 400.
func respondBindingError(c *gin.Context, err error) {
	var verrs validator.ValidationErrors
	if errors.As(err, &verrs) {
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": validationMessage(verrs)})
		return
	}
	var syntaxErr *json.SyntaxError
	var typeErr *json.UnmarshalTypeError
	switch {
	case errors.As(err, &typeErr):
		c.JSON(http.StatusUnprocessableEntity, gin.H{"message": fmt.Sprintf("%q must be a %s", typeErr.Field, typeErr.Type.String())})
	case errors.As(err, &syntaxErr):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid JSON body"})
	default:
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid request payload"})
	}
}

func validationMessage(verrs validator.ValidationErrors) string {
	msgs := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		field := jsonFieldName(fe.Field())
		switch fe.Tag() {
		case "required":
			msgs = append(msgs, fmt.Sprintf("%q is required", field))
		case "email":
			msgs = append(msgs, fmt.Sprintf("%q must be a valid email", field))
		case "uuid":
			msgs = append(msgs, fmt.Sprintf("%q: Invalid id format", field))
		case "min":
			msgs = append(msgs, fmt.Sprintf("%q length must be at least %s characters long", field, fe.Param()))
		case "max":
			msgs = append(msgs, fmt.Sprintf("%q length must be less than or equal to %s characters long", field, fe.Param()))
		default:
			msgs = append(msgs, fmt.Sprintf("%q failed on the %q rule", field, fe.Tag()))
		}
	}
	return strings.Join(msgs, ". ")
}

// jsonFieldName lower-cases the first rune of a Go field name, matching the
// camelCase JSON tags used by every payload.
func jsonFieldName(field string) string {
	if field == "" {
		return field
	}
	if strings.HasSuffix(field, "ID") {
		field = strings.TrimSuffix(field, "ID") + "Id"
	}
	return strings.ToLower(field[:1]) + field[1:]
}

func respondInternal(c *gin.Context, log *zap.Logger, err error, what string) {
	log.Error(what, zap.Error(err), zap.String("path", c.Request.URL.Path))
	c.JSON(http.StatusInternalServerError, gin.H{"message": msgInternal})
}

// tokenFlowMessages are the user facing messages of one email token flow.
type tokenFlowMessages struct {
	failed  string
	expired string
}

var (
	confirmEmailMessages = tokenFlowMessages{
		failed:  "We were unable to verify your email.",
		expired: "Link expired, please click resend email to get a new link.",
	}
	resetPasswordMessages = tokenFlowMessages{
		failed:  "We were unable to reset your password.",
		expired: "Link expired, please request a new password reset email.",
	}
)

// respondTokenError maps failures of the token redemption endpoints. A
// missing or unknown secret is a bad request there, not a 404.
func respondTokenError(c *gin.Context, log *zap.Logger, err error, msgs tokenFlowMessages) {
	switch {
	case errors.Is(err, auth.ErrExpired):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgs.expired})
	case errors.Is(err, auth.ErrMissingInput), errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgs.failed})
	default:
		respondInternal(c, log, err, "Token redemption failed")
	}
}

// respondAuthError maps Service errors for the remaining account endpoints.
func respondAuthError(c *gin.Context, log *zap.Logger, err error) {
	switch {
	case errors.Is(err, auth.ErrMissingInput):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Missing required input"})
	case errors.Is(err, auth.ErrNotFound):
		c.JSON(http.StatusNotFound, gin.H{"message": "Account not found"})
	case errors.Is(err, auth.ErrInvalidCredentials):
		c.JSON(http.StatusBadRequest, gin.H{"message": "Invalid email or password"})
	case errors.Is(err, auth.ErrConflict):
		c.JSON(http.StatusBadRequest, gin.H{"message": msgEmailTaken})
	case errors.Is(err, auth.ErrAlreadyVerified):
		c.JSON(http.StatusBadRequest, gin.H{"message": "This email is already verified"})
	default:
		respondInternal(c, log, err, "Account request failed")
	}
}

const msgEmailTaken = "Sorry, this email can't be registered. Let's try another one."
