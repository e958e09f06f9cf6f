package mailer

import (
	"context"
	"errors"
	"net/smtp"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestSMTPTransport_Send(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Username: "user", Password: "pass", From: "no-reply@x.com"})
	require.NoError(t, err)

	var gotAddr, gotFrom string
	var gotTo []string
	var gotBody []byte
	var gotAuth smtp.Auth
	tr.send = func(addr string, a smtp.Auth, from string, to []string, msg []byte) error {
		gotAddr, gotAuth, gotFrom, gotTo, gotBody = addr, a, from, to, msg
		return nil
	}

	err = tr.Send(context.Background(), Message{To: "ann@x.com", Subject: "Reset your password", HTML: "<p>hi</p>", Text: "hi"})
	require.NoError(t, err)

	assert.Equal(t, "smtp.example.com:587", gotAddr)
	assert.NotNil(t, gotAuth)
	assert.Equal(t, "no-reply@x.com", gotFrom)
	assert.Equal(t, []string{"ann@x.com"}, gotTo)

	body := string(gotBody)
	assert.True(t, strings.HasPrefix(body, "From: no-reply@x.com\r\n"))
	assert.Contains(t, body, "Subject: Reset your password\r\n")
	assert.Contains(t, body, "multipart/alternative")
	assert.Contains(t, body, "text/plain; charset=UTF-8")
	assert.Contains(t, body, "<p>hi</p>")
}

func TestSMTPTransport_SendError(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", Port: 25, From: "no-reply@x.com"})
	require.NoError(t, err)
	tr.send = func(string, smtp.Auth, string, []string, []byte) error { return errors.New("connection refused") }

	err = tr.Send(context.Background(), Message{To: "ann@x.com"})
	assert.ErrorContains(t, err, "smtp.example.com:25")
}

func TestSMTPTransport_CancelledContext(t *testing.T) {
	tr, err := NewSMTPTransport(SMTPConfig{Host: "smtp.example.com", From: "no-reply@x.com"})
	require.NoError(t, err)
	called := false
	tr.send = func(string, smtp.Auth, string, []string, []byte) error { called = true; return nil }

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	assert.ErrorIs(t, tr.Send(ctx, Message{To: "ann@x.com"}), context.Canceled)
	assert.False(t, called)
}
