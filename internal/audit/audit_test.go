package audit

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"user-service/internal/access"
	"user-service/internal/auth"
	"user-service/internal/domain/user"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

func newObserved() (*Logger, *observer.ObservedLogs) {
	core, logs := observer.New(zapcore.InfoLevel)
	return NewLogger(zap.New(core)), logs
}

func TestLogger_LogFillsDefaults(t *testing.T) {
	l, logs := newObserved()

	l.Log(context.Background(), &Event{
		ActorType:    ActorTypeSystem,
		ResourceType: ResourceTypeUser,
		ResourceID:   4,
		Action:       ActionBootstrap,
		Status:       StatusSuccess,
	})

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, "audit", entry.LoggerName)
	assert.Equal(t, zapcore.InfoLevel, entry.Level)

	fields := entry.ContextMap()
	assert.Equal(t, "bootstrap_user", fields["event_type"])
	assert.Equal(t, int64(4), fields["resource_id"])
	assert.NotEmpty(t, fields["event_id"])
	assert.NotContains(t, fields, "actor")
}

func TestLogger_LogFromContextTakesActor(t *testing.T) {
	l, logs := newObserved()

	e := echo.New()
	req := httptest.NewRequest(http.MethodDelete, "/api/users/9", nil)
	rec := httptest.NewRecorder()
	rec.Header().Set(echo.HeaderXRequestID, "req-1")
	c := e.NewContext(req, rec)
	c.Set(auth.ContextKeyIdentity, &access.Identity{Username: "admin", Role: user.RoleAdmin})

	l.LogFromContext(c, ResourceTypeUser, 9, ActionDelete, StatusSuccess, map[string]any{"username": "victim"})

	require.Equal(t, 1, logs.Len())
	fields := logs.All()[0].ContextMap()
	assert.Equal(t, "admin", fields["actor"])
	assert.Equal(t, "ADMIN", fields["actor_role"])
	assert.Equal(t, "user", fields["actor_type"])
	assert.Equal(t, "req-1", fields["request_id"])
	assert.Equal(t, "delete_user", fields["event_type"])
}

func TestLogger_LogErrorIsWarning(t *testing.T) {
	l, logs := newObserved()

	e := echo.New()
	c := e.NewContext(httptest.NewRequest(http.MethodPost, "/api/users/register", nil), httptest.NewRecorder())

	l.LogError(c, ResourceTypeUser, 0, ActionCreate, errors.New("username taken"))

	require.Equal(t, 1, logs.Len())
	entry := logs.All()[0]
	assert.Equal(t, zapcore.WarnLevel, entry.Level)
	fields := entry.ContextMap()
	assert.Equal(t, "anonymous", fields["actor_type"])
	assert.Equal(t, "username taken", fields["error_message"])
}

func TestLogger_LogRedactsSensitiveMetadata(t *testing.T) {
	l, logs := newObserved()

	l.Log(context.Background(), &Event{
		ResourceType: ResourceTypeUser,
		ResourceID:   2,
		Action:       ActionUpdate,
		Status:       StatusSuccess,
		Metadata:     map[string]any{"username": "frank", "password": "frankpass2"},
	})

	require.Equal(t, 1, logs.Len())
	metadata, ok := logs.All()[0].ContextMap()["metadata"].(map[string]any)
	require.True(t, ok)
	assert.Equal(t, "frank", metadata["username"])
	assert.Equal(t, "[REDACTED]", metadata["password"])
}
