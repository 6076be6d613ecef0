package http

import (
	"context"
	"encoding/base64"
	"encoding/json"
	stdhttp "net/http"
	"net/http/httptest"
	"path/filepath"
	"strings"
	"testing"
	"time"
	"user-service/internal/access"
	"user-service/internal/app"
	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/config"
	"user-service/internal/domain/user"
	"user-service/internal/repository/sqlite"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

const (
	testSecret = "k8Zq2LmP9xRt4VwY7nBc3HsJ6dFg1QaE"
	testRealm  = "user-service"
)

func newTestServer(t *testing.T) *Server {
	t.Helper()

	cfg := &config.Config{
		Server:    config.ServerConfig{ReadTimeout: time.Second, WriteTimeout: time.Second},
		RateLimit: config.RateLimitConfig{RequestsPerSecond: 1000, Burst: 1000, StrictRPS: 1000, StrictBurst: 1000},
	}
	logger := zap.NewNop()

	store, err := sqlite.Open(filepath.Join(t.TempDir(), "users.db"))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	hasher, err := auth.NewBcryptHasher(4)
	require.NoError(t, err)
	tokens := auth.NewTokenService(testSecret, time.Hour)
	users := app.NewUserService(store, hasher, logger)

	_, _, err = users.BootstrapAdmin(context.Background(), user.AdminSeed{Username: "admin", Password: "adminpass1"})
	require.NoError(t, err)

	return NewServer(&ServerDependencies{
		Config:         cfg,
		Logger:         logger,
		Store:          store,
		Users:          users,
		Tokens:         tokens,
		AuditLogger:    audit.NewLogger(logger),
		AuthMiddleware: auth.NewMiddleware(store, hasher, tokens, access.Default(), testRealm, logger),
	})
}

func basic(username, password string) string {
	return "Basic " + base64.StdEncoding.EncodeToString([]byte(username+":"+password))
}

func do(t *testing.T, s *Server, method, path, authz, body string) *httptest.ResponseRecorder {
	t.Helper()

	var req *stdhttp.Request
	if body == "" {
		req = httptest.NewRequest(method, path, nil)
	} else {
		req = httptest.NewRequest(method, path, strings.NewReader(body))
		req.Header.Set("Content-Type", "application/json")
	}
	if authz != "" {
		req.Header.Set("Authorization", authz)
	}

	rec := httptest.NewRecorder()
	s.ServeHTTP(rec, req)
	return rec
}

func decodeError(t *testing.T, rec *httptest.ResponseRecorder) ErrorResponse {
	t.Helper()

	var body ErrorResponse
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &body))
	return body
}

func register(t *testing.T, s *Server, username, password string) {
	t.Helper()

	rec := do(t, s, stdhttp.MethodPost, "/api/users/register", "",
		`{"username":"`+username+`","email":"`+username+`@example.com","password":"`+password+`"}`)
	require.Equal(t, stdhttp.StatusCreated, rec.Code, rec.Body.String())
}

func TestServer_RegisterAndMe(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "alice", "alicepass1")

	rec := do(t, s, stdhttp.MethodGet, "/api/users/me", basic("alice", "alicepass1"), "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "alice", me["username"])
	assert.Equal(t, "USER", me["role"])
	assert.NotContains(t, me, "password_hash")
	assert.NotEmpty(t, rec.Header().Get("X-Request-Id"))
}

func TestServer_RegisterDuplicate(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "bob", "bobpass12")

	rec := do(t, s, stdhttp.MethodPost, "/api/users/register", "",
		`{"username":"bob","email":"bob2@example.com","password":"bobpass12"}`)
	require.Equal(t, stdhttp.StatusConflict, rec.Code)

	body := decodeError(t, rec)
	assert.Equal(t, stdhttp.StatusConflict, body.StatusCode)
	assert.NotEmpty(t, body.RequestID)
	assert.False(t, body.Timestamp.IsZero())
}

func TestServer_RegisterValidationDetails(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, stdhttp.MethodPost, "/api/users/register", "",
		`{"username":"carol","email":"carol@example.com","password":"nodigits"}`)
	require.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	body := decodeError(t, rec)
	require.Len(t, body.Details, 1)
	assert.Equal(t, "password", body.Details[0].Field)
}

func TestServer_AnonymousChallenged(t *testing.T) {
	s := newTestServer(t)

	for _, path := range []string{"/api/users/me", "/api/users", "/nonexistent"} {
		rec := do(t, s, stdhttp.MethodGet, path, "", "")
		assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code, path)
		assert.Equal(t, `Basic realm="user-service"`, rec.Header().Get("WWW-Authenticate"), path)
		assert.Equal(t, stdhttp.StatusUnauthorized, decodeError(t, rec).StatusCode)
	}
}

func TestServer_AuthenticatedUnknownPathIsNotFound(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "dave", "davepass1")

	rec := do(t, s, stdhttp.MethodGet, "/nonexistent", basic("dave", "davepass1"), "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)
}

func TestServer_Healthz(t *testing.T) {
	s := newTestServer(t)

	rec := do(t, s, stdhttp.MethodGet, "/healthz", "", "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"ok"}`, rec.Body.String())
}

func TestServer_AdminOnlyRoutes(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "erin", "erinpass1")

	rec := do(t, s, stdhttp.MethodGet, "/api/users", basic("erin", "erinpass1"), "")
	assert.Equal(t, stdhttp.StatusForbidden, rec.Code)
	assert.Empty(t, rec.Header().Get("WWW-Authenticate"))

	rec = do(t, s, stdhttp.MethodGet, "/api/users", basic("admin", "adminpass1"), "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var users []map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &users))
	assert.Len(t, users, 2)
}

func TestServer_EscapedAdminPathsStayAdminOnly(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "ivan", "ivanpass1")

	tests := []struct {
		method string
		path   string
		body   string
	}{
		{stdhttp.MethodDelete, "/api/users/2%2F", ""},
		{stdhttp.MethodDelete, "/api/users/2%2Fx", ""},
		{stdhttp.MethodPut, "/api/users/updateUser/2%2F",
			`{"username":"ivan","email":"ivan@example.com","password":"ivanpass2","role":"ADMIN"}`},
	}

	for _, tt := range tests {
		t.Run(tt.method+" "+tt.path, func(t *testing.T) {
			rec := do(t, s, tt.method, tt.path, basic("ivan", "ivanpass1"), tt.body)
			assert.Equal(t, stdhttp.StatusForbidden, rec.Code, rec.Body.String())
		})
	}

	rec := do(t, s, stdhttp.MethodGet, "/api/users/me", basic("ivan", "ivanpass1"), "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)
	var me map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &me))
	assert.Equal(t, "USER", me["role"])
}

func TestServer_AdminUpdateAndDelete(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "frank", "frankpass1")

	rec := do(t, s, stdhttp.MethodPut, "/api/users/updateUser/2", basic("admin", "adminpass1"),
		`{"username":"frank","email":"frank@new.example.com","password":"frankpass2","role":"ROLE_ADMIN"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code, rec.Body.String())

	// Promotion takes effect on the next request.
	rec = do(t, s, stdhttp.MethodGet, "/api/users", basic("frank", "frankpass2"), "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = do(t, s, stdhttp.MethodPut, "/api/users/updateUser/abc", basic("admin", "adminpass1"),
		`{"username":"x","email":"x@example.com","password":"password1","role":"USER"}`)
	assert.Equal(t, stdhttp.StatusBadRequest, rec.Code)

	rec = do(t, s, stdhttp.MethodDelete, "/api/users/2", basic("admin", "adminpass1"), "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = do(t, s, stdhttp.MethodDelete, "/api/users/2", basic("admin", "adminpass1"), "")
	assert.Equal(t, stdhttp.StatusNotFound, rec.Code)

	// The deleted account can no longer authenticate.
	rec = do(t, s, stdhttp.MethodGet, "/api/users/me", basic("frank", "frankpass2"), "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}

func TestServer_UpdateMe(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "gina", "ginapass1")

	rec := do(t, s, stdhttp.MethodPut, "/api/users/me", basic("gina", "ginapass1"),
		`{"email":"gina@new.example.com","password":"ginapass2"}`)
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = do(t, s, stdhttp.MethodGet, "/api/users/me", basic("gina", "ginapass1"), "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec = do(t, s, stdhttp.MethodGet, "/api/users/me", basic("gina", "ginapass2"), "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)
}

func TestServer_TokenFlow(t *testing.T) {
	s := newTestServer(t)
	register(t, s, "hank", "hankpass1")

	rec := do(t, s, stdhttp.MethodPost, "/api/users/token", "", "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)

	rec = do(t, s, stdhttp.MethodPost, "/api/users/token", basic("hank", "hankpass1"), "")
	require.Equal(t, stdhttp.StatusOK, rec.Code)

	var token struct {
		Token string `json:"token"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &token))
	require.NotEmpty(t, token.Token)

	rec = do(t, s, stdhttp.MethodGet, "/api/users/me", "Bearer "+token.Token, "")
	assert.Equal(t, stdhttp.StatusOK, rec.Code)

	rec = do(t, s, stdhttp.MethodGet, "/api/users/me", "Bearer "+token.Token+"x", "")
	assert.Equal(t, stdhttp.StatusUnauthorized, rec.Code)
}
