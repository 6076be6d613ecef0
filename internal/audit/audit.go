package audit

import (
	"context"
	"time"
	"user-service/internal/auth"
	"user-service/pkg/sanitize"

	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// ActorType represents the type of entity performing an action
type ActorType string

const (
	ActorTypeUser      ActorType = "user"
	ActorTypeAnonymous ActorType = "anonymous"
	ActorTypeSystem    ActorType = "system"
)

// ResourceType represents the type of resource being acted upon
type ResourceType string

const (
	ResourceTypeUser  ResourceType = "user"
	ResourceTypeToken ResourceType = "token"
)

// Action represents the action being performed
type Action string

const (
	ActionCreate    Action = "create"
	ActionUpdate    Action = "update"
	ActionDelete    Action = "delete"
	ActionIssue     Action = "issue"
	ActionBootstrap Action = "bootstrap"
)

// Status represents the outcome of an action
type Status string

const (
	StatusSuccess Status = "success"
	StatusFailure Status = "failure"
)

const auditMessage = "audit"

// Event represents an audit event
type Event struct {
	ID           uuid.UUID
	EventType    string
	ActorType    ActorType
	Actor        string
	ActorRole    string
	ResourceType ResourceType
	ResourceID   int64
	Action       Action
	Status       Status
	IPAddress    string
	UserAgent    string
	RequestID    string
	Metadata     map[string]any
	ErrorMessage string
	CreatedAt    time.Time
}

// Logger writes audit events as structured log entries on a dedicated
// "audit" logger.
type Logger struct {
	logger *zap.Logger
}

func NewLogger(logger *zap.Logger) *Logger {
	return &Logger{logger: logger.Named("audit")}
}

// Log records an audit event
func (l *Logger) Log(_ context.Context, event *Event) {
	if event.ID == uuid.Nil {
		event.ID = uuid.New()
	}
	if event.CreatedAt.IsZero() {
		event.CreatedAt = time.Now().UTC()
	}
	if event.EventType == "" {
		event.EventType = string(event.Action) + "_" + string(event.ResourceType)
	}

	fields := []zap.Field{
		zap.String("event_id", event.ID.String()),
		zap.String("event_type", event.EventType),
		zap.String("actor_type", string(event.ActorType)),
		zap.String("resource_type", string(event.ResourceType)),
		zap.String("action", string(event.Action)),
		zap.String("status", string(event.Status)),
		zap.Time("created_at", event.CreatedAt),
	}
	if event.Actor != "" {
		fields = append(fields, zap.String("actor", event.Actor), zap.String("actor_role", event.ActorRole))
	}
	if event.ResourceID != 0 {
		fields = append(fields, zap.Int64("resource_id", event.ResourceID))
	}
	if event.IPAddress != "" {
		fields = append(fields, zap.String("ip_address", event.IPAddress))
	}
	if event.UserAgent != "" {
		fields = append(fields, zap.String("user_agent", event.UserAgent))
	}
	if event.RequestID != "" {
		fields = append(fields, zap.String("request_id", event.RequestID))
	}
	if len(event.Metadata) > 0 {
		fields = append(fields, zap.Any("metadata", sanitize.Map(event.Metadata)))
	}

	if event.Status == StatusFailure {
		fields = append(fields, zap.String("error_message", sanitize.Message(event.ErrorMessage)))
		l.logger.Warn(auditMessage, fields...)
		return
	}
	l.logger.Info(auditMessage, fields...)
}

// LogFromContext records an event for the current request, taking the actor
// from the authenticated identity.
func (l *Logger) LogFromContext(c echo.Context, resourceType ResourceType, resourceID int64, action Action, status Status, metadata map[string]any) {
	event := eventFromContext(c, resourceType, resourceID, action, status)
	event.Metadata = metadata
	l.Log(c.Request().Context(), event)
}

// LogError records a failed action with error details
func (l *Logger) LogError(c echo.Context, resourceType ResourceType, resourceID int64, action Action, err error) {
	event := eventFromContext(c, resourceType, resourceID, action, StatusFailure)
	event.ErrorMessage = err.Error()
	l.Log(c.Request().Context(), event)
}

func eventFromContext(c echo.Context, resourceType ResourceType, resourceID int64, action Action, status Status) *Event {
	event := &Event{
		ResourceType: resourceType,
		ResourceID:   resourceID,
		Action:       action,
		Status:       status,
		IPAddress:    c.RealIP(),
		UserAgent:    c.Request().UserAgent(),
		RequestID:    c.Response().Header().Get(echo.HeaderXRequestID),
	}

	if id := auth.GetIdentity(c); id != nil {
		event.ActorType = ActorTypeUser
		event.Actor = id.Username
		event.ActorRole = id.Role.String()
	} else {
		event.ActorType = ActorTypeAnonymous
	}

	return event
}
