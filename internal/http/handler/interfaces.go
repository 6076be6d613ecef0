package handler

import (
	"context"
	"time"
	"user-service/internal/audit"
	"user-service/internal/domain/user"

	"github.com/labstack/echo/v4"
)

// Consumer-side interfaces defined by handlers

type UserService interface {
	Register(ctx context.Context, in user.RegisterInput) (*user.User, error)
	Get(ctx context.Context, id int64) (*user.User, error)
	List(ctx context.Context) ([]*user.User, error)
	UpdateSelf(ctx context.Context, id int64, in user.UpdateSelfInput) (*user.User, error)
	UpdateByAdmin(ctx context.Context, id int64, in user.UpdateByAdminInput) (*user.User, error)
	Delete(ctx context.Context, id int64) (*user.User, error)
}

type TokenIssuer interface {
	Generate(u *user.User) (string, time.Time, error)
}

type AuditLogger interface {
	LogFromContext(c echo.Context, resourceType audit.ResourceType, resourceID int64, action audit.Action, status audit.Status, metadata map[string]any)
	LogError(c echo.Context, resourceType audit.ResourceType, resourceID int64, action audit.Action, err error)
}
