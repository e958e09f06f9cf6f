package models

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAccountJSON_OmitsPasswordHash(t *testing.T) {
	account := Account{
		ID:           uuid.New(),
		FirstName:    "Ann",
		LastName:     "Lee",
		Email:        "ann@x.com",
		PasswordHash: "$argon2id$v=19$m=65536,t=1,p=4$c2FsdA$aGFzaA",
	}

	raw, err := json.Marshal(account)
	require.NoError(t, err)

	var fields map[string]interface{}
	require.NoError(t, json.Unmarshal(raw, &fields))
	assert.NotContains(t, fields, "password")
	assert.NotContains(t, fields, "passwordHash")
	assert.NotContains(t, fields, "PasswordHash")
	assert.Equal(t, false, fields["emailVerified"])
	assert.Equal(t, false, fields["isAdmin"])
	assert.NotContains(t, string(raw), account.PasswordHash)
}

func TestWorkspaceJSON_OmitsOwner(t *testing.T) {
	ws := Workspace{ID: uuid.New(), Name: "Home", UserID: uuid.New()}
	raw, err := json.Marshal(ws)
	require.NoError(t, err)
	assert.NotContains(t, string(raw), ws.UserID.String())
}

func TestTokenExpired(t *testing.T) {
	now := time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC)
	tok := Token{ExpiresAt: now}

	assert.False(t, tok.Expired(now), "expiry equal to now is still valid")
	assert.True(t, tok.Expired(now.Add(time.Nanosecond)))
	assert.False(t, tok.Expired(now.Add(-time.Minute)))
}
