package auth

import (
	"context"
	"encoding/json"
	"errors"
	"regexp"
	"testing"
	"time"

	"taskboard/backend/internal/mailer"
	"taskboard/backend/internal/mailer/mailertest"
	"taskboard/backend/internal/models"
	"taskboard/backend/internal/store"
	"taskboard/backend/internal/store/memstore"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type serviceFixture struct {
	svc    *Service
	store  *memstore.Store
	outbox *mailertest.Recorder
	mail   *mailer.Dispatcher
	now    time.Time
}

func newServiceFixture(t *testing.T, invalidateOnReissue bool) *serviceFixture {
	t.Helper()
	f := &serviceFixture{
		store:  memstore.New(testHasher()),
		outbox: &mailertest.Recorder{},
		now:    time.Date(2024, 5, 1, 12, 0, 0, 0, time.UTC),
	}
	f.mail = mailer.NewDispatcher(f.outbox, zap.NewNop())

	issuer := newTestIssuer(t, &f.now)
	svc, err := NewService(f.store, testHasher(), issuer, f.mail, ServiceConfig{
		FrontendHost:        "http://localhost:3000/",
		TokenTTL:            time.Hour,
		InvalidateOnReissue: invalidateOnReissue,
	}, zap.NewNop())
	require.NoError(t, err)
	svc.now = func() time.Time { return f.now }
	f.svc = svc
	return f
}

var (
	confirmLink = regexp.MustCompile(`/confirm-email\?hash=([0-9a-f]+)`)
	resetLink   = regexp.MustCompile(`/reset-password/edit/([0-9a-f]+)`)
)

// lastSecret waits for pending mail and extracts the secret from the newest message.
func (f *serviceFixture) lastSecret(t *testing.T, link *regexp.Regexp) string {
	t.Helper()
	require.NoError(t, f.mail.Wait(context.Background()))
	msg, ok := f.outbox.Last()
	require.True(t, ok, "no mail dispatched")
	m := link.FindStringSubmatch(msg.Text)
	require.Len(t, m, 2, "link not found in %q", msg.Text)
	assert.Contains(t, msg.HTML, m[1])
	return m[1]
}

func (f *serviceFixture) register(t *testing.T) *models.Account {
	t.Helper()
	account, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Password: "longenough",
	})
	require.NoError(t, err)
	return account
}

func TestService_SignupAndConfirmEmail(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	account := f.register(t)
	assert.False(t, account.EmailVerified)

	secret := f.lastSecret(t, confirmLink)
	assert.Len(t, secret, SecretBytes*2)

	msg, _ := f.outbox.Last()
	assert.Equal(t, "ann@x.com", msg.To)
	assert.Contains(t, msg.Text, "Hi Ann,")
	assert.Contains(t, msg.Text, "http://localhost:3000/confirm-email?hash=")
	assert.Contains(t, msg.Text, "1 hour")

	confirmed, err := f.svc.ConfirmEmail(ctx, secret)
	require.NoError(t, err)
	assert.True(t, confirmed.EmailVerified)
	assert.Empty(t, f.store.AllTokens())

	_, err = f.svc.ConfirmEmail(ctx, secret)
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_RegisterDuplicateEmail(t *testing.T) {
	f := newServiceFixture(t, true)
	f.register(t)

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Other", Email: "ANN@x.com", Password: "longenough",
	})
	assert.ErrorIs(t, err, ErrConflict)
	assert.Len(t, f.store.AllTokens(), 1, "failed signup leaves no token")
}

func TestService_RegisterSurvivesMailOutage(t *testing.T) {
	f := newServiceFixture(t, true)
	f.outbox.Err = errors.New("smtp down")

	account := f.register(t)
	require.NoError(t, f.mail.Wait(context.Background()))
	assert.NotNil(t, account)
	assert.Len(t, f.outbox.Messages(), 1)
}

func TestService_ConfirmEmailExpiredTokenStays(t *testing.T) {
	f := newServiceFixture(t, true)
	f.register(t)
	secret := f.lastSecret(t, confirmLink)

	f.now = f.now.Add(time.Hour + time.Second)
	_, err := f.svc.ConfirmEmail(context.Background(), secret)
	assert.ErrorIs(t, err, ErrExpired)
	require.Len(t, f.store.AllTokens(), 1)
	assert.Equal(t, secret, f.store.AllTokens()[0].Hash)

	account, err := f.store.Accounts().FindByEmail(context.Background(), "ann@x.com")
	require.NoError(t, err)
	assert.False(t, account.EmailVerified)
}

func TestService_ConfirmEmailInputErrors(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()

	_, err := f.svc.ConfirmEmail(ctx, "")
	assert.ErrorIs(t, err, ErrMissingInput)

	_, err = f.svc.ConfirmEmail(ctx, "deadbeef")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ConfirmEmailMissingAccountKeepsToken(t *testing.T) {
	f := newServiceFixture(t, true)
	f.store.PutToken(models.Token{
		Hash: "orphan", Email: "gone@x.com", Purpose: models.PurposeVerifyEmail, ExpiresAt: f.now.Add(time.Hour),
	})

	_, err := f.svc.ConfirmEmail(context.Background(), "orphan")
	assert.ErrorIs(t, err, ErrNotFound)
	assert.Len(t, f.store.AllTokens(), 1)
}

func TestService_TokensAreBoundToTheirFlow(t *testing.T) {
	f := newServiceFixture(t, true)
	f.register(t)
	secret := f.lastSecret(t, confirmLink)

	_, err := f.svc.ResetPassword(context.Background(), secret, "hijacked1")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_ResendVerification(t *testing.T) {
	ctx := context.Background()

	t.Run("invalidates the previous token", func(t *testing.T) {
		f := newServiceFixture(t, true)
		f.register(t)
		first := f.lastSecret(t, confirmLink)

		require.NoError(t, f.svc.ResendVerification(ctx, "ann@x.com"))
		second := f.lastSecret(t, confirmLink)
		assert.NotEqual(t, first, second)
		assert.Len(t, f.store.AllTokens(), 1)

		_, err := f.svc.ConfirmEmail(ctx, first)
		assert.ErrorIs(t, err, ErrNotFound)
		_, err = f.svc.ConfirmEmail(ctx, second)
		assert.NoError(t, err)
	})

	t.Run("keeps outstanding tokens when reissue invalidation is off", func(t *testing.T) {
		f := newServiceFixture(t, false)
		f.register(t)
		require.NoError(t, f.svc.ResendVerification(ctx, "ann@x.com"))
		assert.Len(t, f.store.AllTokens(), 2)
	})

	t.Run("unknown email", func(t *testing.T) {
		f := newServiceFixture(t, true)
		assert.ErrorIs(t, f.svc.ResendVerification(ctx, "nobody@x.com"), ErrNotFound)
		assert.ErrorIs(t, f.svc.ResendVerification(ctx, " "), ErrMissingInput)
	})

	t.Run("already verified", func(t *testing.T) {
		f := newServiceFixture(t, true)
		f.register(t)
		_, err := f.svc.ConfirmEmail(ctx, f.lastSecret(t, confirmLink))
		require.NoError(t, err)

		assert.ErrorIs(t, f.svc.ResendVerification(ctx, "ann@x.com"), ErrAlreadyVerified)
	})
}

func TestService_ForgotPassword(t *testing.T) {
	ctx := context.Background()

	t.Run("unknown email", func(t *testing.T) {
		f := newServiceFixture(t, true)
		assert.ErrorIs(t, f.svc.ForgotPassword(ctx, "nobody@x.com"), ErrNotFound)
		assert.Empty(t, f.store.AllTokens())
	})

	t.Run("known email creates exactly one token", func(t *testing.T) {
		f := newServiceFixture(t, true)
		f.register(t)
		before := len(f.store.AllTokens())

		require.NoError(t, f.svc.ForgotPassword(ctx, "ann@x.com"))
		tokens := f.store.AllTokens()
		assert.Len(t, tokens, before+1)

		var reset []models.Token
		for _, tok := range tokens {
			if tok.Purpose == models.PurposeResetPassword {
				reset = append(reset, tok)
			}
		}
		require.Len(t, reset, 1)
		assert.Equal(t, "ann@x.com", reset[0].Email)
		assert.Equal(t, f.now.Add(time.Hour), reset[0].ExpiresAt)

		require.NoError(t, f.mail.Wait(ctx))
		msg, ok := f.outbox.Last()
		require.True(t, ok)
		assert.Equal(t, "Reset your password", msg.Subject)
	})
}

func TestService_ResetPassword(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	f.register(t)

	require.NoError(t, f.svc.ForgotPassword(ctx, "ann@x.com"))
	secret := f.lastSecret(t, resetLink)

	_, err := f.svc.ResetPassword(ctx, secret, "")
	assert.ErrorIs(t, err, ErrMissingInput)

	account, err := f.svc.ResetPassword(ctx, secret, "brandnewpass")
	require.NoError(t, err)
	assert.Equal(t, "ann@x.com", account.Email)

	_, err = f.svc.Authenticate(ctx, "ann@x.com", "longenough", false)
	assert.ErrorIs(t, err, ErrInvalidCredentials)
	session, err := f.svc.Authenticate(ctx, "ann@x.com", "brandnewpass", false)
	require.NoError(t, err)
	assert.NotEmpty(t, session.Token)

	_, err = f.svc.ResetPassword(ctx, secret, "again12345")
	assert.ErrorIs(t, err, ErrNotFound)
}

func TestService_Authenticate(t *testing.T) {
	f := newServiceFixture(t, true)
	ctx := context.Background()
	account := f.register(t)

	session, err := f.svc.Authenticate(ctx, "Ann@X.com ", "longenough", true)
	require.NoError(t, err)
	assert.Equal(t, account.ID, session.Account.ID)

	id, err := f.svc.issuer.Verify(session.Token)
	require.NoError(t, err)
	assert.Equal(t, account.ID, id)

	_, wrongPassword := f.svc.Authenticate(ctx, "ann@x.com", "wrong", false)
	_, unknownEmail := f.svc.Authenticate(ctx, "nobody@x.com", "anything", false)
	assert.ErrorIs(t, wrongPassword, ErrInvalidCredentials)
	assert.ErrorIs(t, unknownEmail, ErrInvalidCredentials)
	assert.Equal(t, wrongPassword.Error(), unknownEmail.Error())
}

func TestService_AccountJSONHasNoPassword(t *testing.T) {
	f := newServiceFixture(t, true)
	account := f.register(t)
	require.NotEmpty(t, account.PasswordHash)

	body, err := json.Marshal(account)
	require.NoError(t, err)
	assert.NotContains(t, string(body), "password")
	assert.NotContains(t, string(body), account.PasswordHash)
}

type failingTokens struct {
	store.TokenStore
}

func (failingTokens) Create(context.Context, *models.Token) error { return errors.New("disk full") }

type failingTokenStore struct {
	*memstore.Store
}

func (s failingTokenStore) Tokens() store.TokenStore { return failingTokens{s.Store.Tokens()} }

func (s failingTokenStore) Transaction(ctx context.Context, fn func(tx store.Store) error) error {
	return s.Store.Transaction(ctx, func(store.Store) error { return fn(s) })
}

func TestService_RegisterRollsBackWhenTokenFails(t *testing.T) {
	f := newServiceFixture(t, true)
	f.svc.store = failingTokenStore{f.store}

	_, err := f.svc.Register(context.Background(), RegisterInput{
		FirstName: "Ann", LastName: "Lee", Email: "ann@x.com", Password: "longenough",
	})
	require.Error(t, err)
	assert.NotErrorIs(t, err, ErrConflict)

	_, err = f.store.Accounts().FindByEmail(context.Background(), "ann@x.com")
	assert.ErrorIs(t, err, store.ErrNotFound)
	require.NoError(t, f.mail.Wait(context.Background()))
	assert.Empty(t, f.outbox.Messages())
}

func TestHumanDuration(t *testing.T) {
	assert.Equal(t, "1 hour", humanDuration(time.Hour))
	assert.Equal(t, "2 hours", humanDuration(2*time.Hour))
	assert.Equal(t, "90 minutes", humanDuration(90*time.Minute))
	assert.Equal(t, "1 minute", humanDuration(time.Minute))
}
