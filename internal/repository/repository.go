package repository

import (
	"context"
	"user-service/internal/domain/user"
)

// IdentityStore is the persistence collaborator for users. Missing rows are
// reported with an error wrapping apperrors.ErrNotFound and uniqueness
// violations with one wrapping apperrors.ErrConflict.
type IdentityStore interface {
	FindByUsername(ctx context.Context, username string) (*user.User, error)
	FindByID(ctx context.Context, id int64) (*user.User, error)
	FindAll(ctx context.Context) ([]*user.User, error)
	// Save inserts when u.ID is zero and updates otherwise. On insert the
	// assigned ID and timestamps are written back into u.
	Save(ctx context.Context, u *user.User) error
	DeleteByID(ctx context.Context, id int64) error
}
