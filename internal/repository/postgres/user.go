package postgres

import (
	"context"
	"errors"
	"fmt"
	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"

	"github.com/jackc/pgx/v5"
)

const userColumns = "id, username, email, password_hash, role, created_at, updated_at"

type UserRepository struct {
	db *DB
}

func NewUserRepository(db *DB) *UserRepository {
	return &UserRepository{db: db}
}

func scanUser(row pgx.Row, u *user.User) error {
	return row.Scan(
		&u.ID,
		&u.Username,
		&u.Email,
		&u.PasswordHash,
		&u.Role,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
}

func (r *UserRepository) FindByID(ctx context.Context, id int64) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE id = $1`

	u := &user.User{}
	if err := scanUser(r.db.Pool.QueryRow(ctx, query, id), u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}

	return u, nil
}

func (r *UserRepository) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users WHERE username = $1`

	u := &user.User{}
	if err := scanUser(r.db.Pool.QueryRow(ctx, query, username), u); err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, errFailedGetUser(err)
	}

	return u, nil
}

func (r *UserRepository) FindAll(ctx context.Context) ([]*user.User, error) {
	query := `SELECT ` + userColumns + ` FROM users ORDER BY id`

	rows, err := r.db.Pool.Query(ctx, query)
	if err != nil {
		return nil, errFailedListUsers(err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u := &user.User{}
		if err := scanUser(rows, u); err != nil {
			return nil, errFailedScanUser(err)
		}
		users = append(users, u)
	}

	if err := rows.Err(); err != nil {
		return nil, errIterateUsers(err)
	}

	return users, nil
}

func (r *UserRepository) Save(ctx context.Context, u *user.User) error {
	if u == nil {
		return apperrors.BadRequest(errUserNil)
	}
	if !u.Role.Valid() {
		return apperrors.BadRequest(fmt.Sprintf(errUserRoleInvalidFmt, u.Role))
	}

	if u.ID == 0 {
		return r.insert(ctx, u)
	}
	return r.update(ctx, u)
}

func (r *UserRepository) insert(ctx context.Context, u *user.User) error {
	query := `
		INSERT INTO users (username, email, password_hash, role)
		VALUES ($1, $2, $3, $4)
		RETURNING ` + userColumns

	err := scanUser(r.db.Pool.QueryRow(ctx, query, u.Username, u.Email, u.PasswordHash, u.Role), u)
	if err != nil {
		if isUniqueViolation(err) {
			return apperrors.Conflict(errUsernameTaken)
		}
		return errFailedCreateUser(err)
	}

	return nil
}

func (r *UserRepository) update(ctx context.Context, u *user.User) error {
	query := `
		UPDATE users
		SET username = $2, email = $3, password_hash = $4, role = $5, updated_at = NOW()
		WHERE id = $1
		RETURNING ` + userColumns

	err := scanUser(r.db.Pool.QueryRow(ctx, query, u.ID, u.Username, u.Email, u.PasswordHash, u.Role), u)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return apperrors.NotFound(errUserNotFound)
		}
		if isUniqueViolation(err) {
			return apperrors.Conflict(errUsernameTaken)
		}
		return errFailedUpdateUser(err)
	}

	return nil
}

func (r *UserRepository) DeleteByID(ctx context.Context, id int64) error {
	query := "DELETE FROM users WHERE id = $1"

	result, err := r.db.Pool.Exec(ctx, query, id)
	if err != nil {
		return errFailedDeleteUser(err)
	}

	if result.RowsAffected() == 0 {
		return apperrors.NotFound(errUserNotFound)
	}

	return nil
}
