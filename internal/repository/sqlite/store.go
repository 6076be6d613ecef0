package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"path/filepath"
	"strings"
	"time"
	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"

	msqlite "modernc.org/sqlite"
	sqlite3lib "modernc.org/sqlite/lib"
)

const (
	driverName = "sqlite"
	dsnPragmas = "?_pragma=foreign_keys(1)&_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)&_pragma=synchronous(NORMAL)"

	userColumns = "id, username, email, password_hash, role, created_at, updated_at"

	schema = `
CREATE TABLE IF NOT EXISTS users (
	id            INTEGER PRIMARY KEY AUTOINCREMENT,
	username      TEXT    NOT NULL UNIQUE,
	email         TEXT    NOT NULL,
	password_hash TEXT    NOT NULL,
	role          TEXT    NOT NULL CHECK (role IN ('ADMIN', 'USER')),
	created_at    INTEGER NOT NULL,
	updated_at    INTEGER NOT NULL
);`

	errPathRequired       = "storage path is required"
	errUserNotFound       = "user not found"
	errUsernameTaken      = "user with this username already exists"
	errUserNil            = "cannot save nil user"
	errUserRoleInvalidFmt = "cannot save user with invalid role %q"

	errOpenFmt       = "open sqlite db: %w"
	errPingFmt       = "ping sqlite db: %w"
	errMigrateFmt    = "apply sqlite schema: %w"
	errCreateUserFmt = "failed to create user: %w"
	errGetUserFmt    = "failed to get user: %w"
	errListUsersFmt  = "failed to list users: %w"
	errUpdateUserFmt = "failed to update user: %w"
	errDeleteUserFmt = "failed to delete user: %w"
)

// toMillis normalizes timestamps into millisecond precision for storage.
func toMillis(value time.Time) int64 {
	return value.UTC().UnixMilli()
}

func fromMillis(value int64) time.Time {
	return time.UnixMilli(value).UTC()
}

// Store implements repository.IdentityStore over a single SQLite file.
type Store struct {
	sqlDB *sql.DB
	now   func() time.Time
}

// Open opens the database at path and applies the schema.
func Open(path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf(errPathRequired)
	}

	dsn := filepath.Clean(path) + dsnPragmas
	sqlDB, err := sql.Open(driverName, dsn)
	if err != nil {
		return nil, fmt.Errorf(errOpenFmt, err)
	}
	// Serialize writers; SQLite allows a single writer at a time anyway.
	sqlDB.SetMaxOpenConns(1)

	if err := sqlDB.Ping(); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf(errPingFmt, err)
	}

	if _, err := sqlDB.Exec(schema); err != nil {
		_ = sqlDB.Close()
		return nil, fmt.Errorf(errMigrateFmt, err)
	}

	return &Store{sqlDB: sqlDB, now: time.Now}, nil
}

func (s *Store) Close() error {
	if s == nil || s.sqlDB == nil {
		return nil
	}
	return s.sqlDB.Close()
}

// Ping reports whether the database file is reachable.
func (s *Store) Ping(ctx context.Context) error {
	return s.sqlDB.PingContext(ctx)
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanUser(row rowScanner) (*user.User, error) {
	var (
		u         user.User
		role      string
		createdAt int64
		updatedAt int64
	)
	if err := row.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &role, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	u.Role = user.Role(role)
	u.CreatedAt = fromMillis(createdAt)
	u.UpdatedAt = fromMillis(updatedAt)
	return &u, nil
}

func (s *Store) FindByID(ctx context.Context, id int64) (*user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE id = ?`, id)
	return s.findOne(row)
}

func (s *Store) FindByUsername(ctx context.Context, username string) (*user.User, error) {
	row := s.sqlDB.QueryRowContext(ctx, `SELECT `+userColumns+` FROM users WHERE username = ?`, username)
	return s.findOne(row)
}

func (s *Store) findOne(row *sql.Row) (*user.User, error) {
	u, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, apperrors.NotFound(errUserNotFound)
		}
		return nil, fmt.Errorf(errGetUserFmt, err)
	}
	return u, nil
}

func (s *Store) FindAll(ctx context.Context) ([]*user.User, error) {
	rows, err := s.sqlDB.QueryContext(ctx, `SELECT `+userColumns+` FROM users ORDER BY id`)
	if err != nil {
		return nil, fmt.Errorf(errListUsersFmt, err)
	}
	defer rows.Close()

	users := make([]*user.User, 0)
	for rows.Next() {
		u, err := scanUser(rows)
		if err != nil {
			return nil, fmt.Errorf(errListUsersFmt, err)
		}
		users = append(users, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf(errListUsersFmt, err)
	}

	return users, nil
}

func (s *Store) Save(ctx context.Context, u *user.User) error {
	if u == nil {
		return apperrors.BadRequest(errUserNil)
	}
	if !u.Role.Valid() {
		return apperrors.BadRequest(fmt.Sprintf(errUserRoleInvalidFmt, u.Role))
	}

	if u.ID == 0 {
		return s.insert(ctx, u)
	}
	return s.update(ctx, u)
}

func (s *Store) insert(ctx context.Context, u *user.User) error {
	now := toMillis(s.now())
	row := s.sqlDB.QueryRowContext(ctx, `
		INSERT INTO users (username, email, password_hash, role, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?)
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, string(u.Role), now, now,
	)

	saved, err := scanUser(row)
	if err != nil {
		if isConstraintError(err) {
			return apperrors.Conflict(errUsernameTaken)
		}
		return fmt.Errorf(errCreateUserFmt, err)
	}

	*u = *saved
	return nil
}

func (s *Store) update(ctx context.Context, u *user.User) error {
	row := s.sqlDB.QueryRowContext(ctx, `
		UPDATE users
		SET username = ?, email = ?, password_hash = ?, role = ?, updated_at = ?
		WHERE id = ?
		RETURNING `+userColumns,
		u.Username, u.Email, u.PasswordHash, string(u.Role), toMillis(s.now()), u.ID,
	)

	saved, err := scanUser(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return apperrors.NotFound(errUserNotFound)
		}
		if isConstraintError(err) {
			return apperrors.Conflict(errUsernameTaken)
		}
		return fmt.Errorf(errUpdateUserFmt, err)
	}

	*u = *saved
	return nil
}

func (s *Store) DeleteByID(ctx context.Context, id int64) error {
	result, err := s.sqlDB.ExecContext(ctx, `DELETE FROM users WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf(errDeleteUserFmt, err)
	}

	affected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf(errDeleteUserFmt, err)
	}
	if affected == 0 {
		return apperrors.NotFound(errUserNotFound)
	}

	return nil
}

func isConstraintError(err error) bool {
	var sqliteErr *msqlite.Error
	if !errors.As(err, &sqliteErr) {
		return false
	}
	code := sqliteErr.Code()
	return code == sqlite3lib.SQLITE_CONSTRAINT || code == sqlite3lib.SQLITE_CONSTRAINT_UNIQUE
}
