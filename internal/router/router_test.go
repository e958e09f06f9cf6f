package router

import (
	"bytes"
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"regexp"
	"testing"
	"time"

	"taskboard/backend/internal/auth"
	"taskboard/backend/internal/mailer"
	"taskboard/backend/internal/mailer/mailertest"
	"taskboard/backend/internal/store/memstore"
	"taskboard/backend/pkg/config"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/gin-gonic/gin"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"gorm.io/driver/postgres"
	"gorm.io/gorm"
	"gorm.io/gorm/logger"
)

func TestMain(m *testing.M) {
	gin.SetMode(gin.TestMode)
	os.Exit(m.Run())
}

var confirmLink = regexp.MustCompile(`confirm-email\?hash=([0-9a-f]{120})`)

type testServer struct {
	router *gin.Engine
	mock   sqlmock.Sqlmock
	outbox *mailertest.Recorder
	mail   *mailer.Dispatcher
}

func newTestServer(t *testing.T, rateLimit int) *testServer {
	t.Helper()

	sqlDB, mock, err := sqlmock.New(sqlmock.MonitorPingsOption(true))
	require.NoError(t, err)
	t.Cleanup(func() { sqlDB.Close() })
	db, err := gorm.Open(postgres.New(postgres.Config{Conn: sqlDB}), &gorm.Config{
		Logger:               logger.Default.LogMode(logger.Silent),
		DisableAutomaticPing: true,
	})
	require.NoError(t, err)

	cfg := &config.Config{
		Environment:  "development",
		FrontendHost: "http://localhost:3000",
		CORSOrigin:   "*",
		RateLimit:    config.RateLimitConfig{Max: rateLimit, Window: time.Hour},
	}

	hasher := &auth.Hasher{Time: 1, Memory: 64, Threads: 1, KeyLen: 32, SaltLen: 16}
	st := memstore.New(hasher)
	issuer, err := auth.NewIssuer(auth.IssuerConfig{
		Secret: "router_test_secret", TTL: time.Hour, RememberMeTTL: 30 * 24 * time.Hour,
	})
	require.NoError(t, err)

	ts := &testServer{mock: mock, outbox: &mailertest.Recorder{}}
	ts.mail = mailer.NewDispatcher(ts.outbox, zap.NewNop())
	svc, err := auth.NewService(st, hasher, issuer, ts.mail, auth.ServiceConfig{
		FrontendHost: cfg.FrontendHost, TokenTTL: time.Hour, InvalidateOnReissue: true,
	}, zap.NewNop())
	require.NoError(t, err)

	ts.router = SetupRouter(Deps{Config: cfg, DB: db, Store: st, Auth: svc, Issuer: issuer, Log: zap.NewNop()})
	return ts
}

func (ts *testServer) do(t *testing.T, method, path string, body interface{}, token string) *httptest.ResponseRecorder {
	t.Helper()
	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	w := httptest.NewRecorder()
	ts.router.ServeHTTP(w, req)
	return w
}

func decode(t *testing.T, w *httptest.ResponseRecorder) map[string]interface{} {
	t.Helper()
	var out map[string]interface{}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &out), w.Body.String())
	return out
}

func TestHealthCheck(t *testing.T) {
	ts := newTestServer(t, 100)

	ts.mock.ExpectPing()
	w := ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Equal(t, "connected", decode(t, w)["database"])

	ts.mock.ExpectPing().WillReturnError(assert.AnError)
	w = ts.do(t, http.MethodGet, "/health", nil, "")
	assert.Equal(t, http.StatusServiceUnavailable, w.Code)

	assert.NoError(t, ts.mock.ExpectationsWereMet())
}

func TestIndexAndNoRoute(t *testing.T) {
	ts := newTestServer(t, 100)

	w := ts.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "Hi there!")
	assert.Equal(t, "nosniff", w.Header().Get("X-Content-Type-Options"))

	w = ts.do(t, http.MethodGet, "/api/nope?x=1", nil, "")
	assert.Equal(t, http.StatusNotFound, w.Code)
	assert.Equal(t, "Not Found - /api/nope?x=1", decode(t, w)["message"])
}

func TestResourceRoutesRequireSession(t *testing.T) {
	ts := newTestServer(t, 100)

	for _, path := range []string{"/api/workspaces", "/api/boards", "/api/todos", "/api/accounts"} {
		w := ts.do(t, http.MethodGet, path, nil, "")
		assert.Equal(t, http.StatusUnauthorized, w.Code, path)
		assert.Equal(t, "Authentication credentials were not provided", decode(t, w)["message"], path)
	}
}

func TestRateLimitAppliesGlobally(t *testing.T) {
	ts := newTestServer(t, 2)

	assert.Equal(t, http.StatusOK, ts.do(t, http.MethodGet, "/", nil, "").Code)
	assert.Equal(t, http.StatusNotFound, ts.do(t, http.MethodGet, "/missing", nil, "").Code)

	w := ts.do(t, http.MethodGet, "/", nil, "")
	assert.Equal(t, http.StatusTooManyRequests, w.Code)
	assert.NotEmpty(t, w.Header().Get("Retry-After"))
}

func TestSignupConfirmSignInFlow(t *testing.T) {
	ts := newTestServer(t, 100)

	w := ts.do(t, http.MethodPost, "/api/accounts", map[string]string{
		"firstName": "Ann", "lastName": "Lee", "email": "Ann@Example.com", "password": "hunter2hunter2",
	}, "")
	require.Equal(t, http.StatusCreated, w.Code, w.Body.String())
	created := decode(t, w)
	assert.Equal(t, "ann@example.com", created["email"])
	assert.Equal(t, false, created["emailVerified"])
	assert.NotContains(t, created, "password")

	ctx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	require.NoError(t, ts.mail.Wait(ctx))

	msg, ok := ts.outbox.Last()
	require.True(t, ok)
	assert.Equal(t, "ann@example.com", msg.To)
	m := confirmLink.FindStringSubmatch(msg.Text)
	require.Len(t, m, 2, msg.Text)

	w = ts.do(t, http.MethodPost, "/api/accounts/confirm-email", map[string]string{"hash": m[1]}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, true, decode(t, w)["emailVerified"])

	// a redeemed link cannot be used twice
	w = ts.do(t, http.MethodPost, "/api/accounts/confirm-email", map[string]string{"hash": m[1]}, "")
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = ts.do(t, http.MethodPost, "/api/accounts/signin", map[string]interface{}{
		"email": "ann@example.com", "password": "hunter2hunter2", "rememberMe": true,
	}, "")
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	session := decode(t, w)
	token, _ := session["token"].(string)
	require.NotEmpty(t, token)

	w = ts.do(t, http.MethodGet, "/api/accounts/"+created["id"].(string), nil, token)
	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	assert.Equal(t, "Ann", decode(t, w)["firstName"])

	w = ts.do(t, http.MethodGet, "/api/accounts", nil, token)
	assert.Equal(t, http.StatusForbidden, w.Code)
}
