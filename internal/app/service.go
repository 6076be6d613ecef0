package app

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"user-service/internal/auth"
	"user-service/internal/domain/user"
	"user-service/internal/repository"
	apperrors "user-service/pkg/errors"
	"user-service/pkg/validator"

	"go.uber.org/zap"
)

const (
	msgUserNotFound   = "user not found"
	msgPasswordFailed = "failed to process password"
	msgInvalidUserID  = "user id must be a positive integer"

	defaultAdminEmailDomain = "@localhost.localdomain"

	errBootstrapAdminFmt = "failed to bootstrap admin %q: %w"
)

// UserService owns account lifecycle rules on top of an IdentityStore.
type UserService struct {
	store  repository.IdentityStore
	hasher auth.CredentialHasher
	logger *zap.Logger
}

func NewUserService(store repository.IdentityStore, hasher auth.CredentialHasher, logger *zap.Logger) *UserService {
	return &UserService{
		store:  store,
		hasher: hasher,
		logger: logger,
	}
}

// Register creates a USER account. Callers can never choose the role.
func (s *UserService) Register(ctx context.Context, in user.RegisterInput) (*user.User, error) {
	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	var v validator.Collector
	v.Check(validator.FieldUsername, validator.Username(in.Username))
	v.Check(validator.FieldEmail, validator.Email(in.Email))
	v.Check(validator.FieldPassword, validator.Password(in.Password))
	if err := v.Err(); err != nil {
		return nil, err
	}

	s.logger.Info("registering user", zap.String("username", in.Username))

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.InternalServer(msgPasswordFailed, err)
	}

	u := &user.User{
		Username:     in.Username,
		Email:        in.Email,
		PasswordHash: digest,
		Role:         user.RoleUser,
	}
	if err := s.store.Save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

func (s *UserService) Get(ctx context.Context, id int64) (*user.User, error) {
	if id <= 0 {
		return nil, apperrors.BadRequest(msgInvalidUserID)
	}
	return s.store.FindByID(ctx, id)
}

func (s *UserService) List(ctx context.Context) ([]*user.User, error) {
	return s.store.FindAll(ctx)
}

// UpdateSelf replaces the caller's email and password.
func (s *UserService) UpdateSelf(ctx context.Context, id int64, in user.UpdateSelfInput) (*user.User, error) {
	in.Email = normalizeEmail(in.Email)

	var v validator.Collector
	v.Check(validator.FieldEmail, validator.Email(in.Email))
	v.Check(validator.FieldPassword, validator.Password(in.Password))
	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.InternalServer(msgPasswordFailed, err)
	}

	u.Email = in.Email
	u.PasswordHash = digest
	if err := s.store.Save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// UpdateByAdmin rewrites every mutable field of the target account,
// including its role.
func (s *UserService) UpdateByAdmin(ctx context.Context, id int64, in user.UpdateByAdminInput) (*user.User, error) {
	if id <= 0 {
		return nil, apperrors.BadRequest(msgInvalidUserID)
	}

	in.Username = strings.TrimSpace(in.Username)
	in.Email = normalizeEmail(in.Email)

	var v validator.Collector
	v.Check(validator.FieldUsername, validator.Username(in.Username))
	v.Check(validator.FieldEmail, validator.Email(in.Email))
	v.Check(validator.FieldPassword, validator.Password(in.Password))
	role, err := validator.Role(in.Role)
	v.Check(validator.FieldRole, err)
	if err := v.Err(); err != nil {
		return nil, err
	}

	u, err := s.store.FindByID(ctx, id)
	if err != nil {
		return nil, err
	}

	digest, err := s.hasher.Hash(in.Password)
	if err != nil {
		return nil, apperrors.InternalServer(msgPasswordFailed, err)
	}

	u.Username = in.Username
	u.Email = in.Email
	u.PasswordHash = digest
	u.Role = role
	if err := s.store.Save(ctx, u); err != nil {
		return nil, err
	}

	return u, nil
}

// Delete removes the account and returns what was removed.
func (s *UserService) Delete(ctx context.Context, id int64) (*user.User, error) {
	u, err := s.Get(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.store.DeleteByID(ctx, id); err != nil {
		return nil, err
	}

	return u, nil
}

// BootstrapAdmin creates the seed administrator unless the username is
// already taken. An existing account is left untouched.
func (s *UserService) BootstrapAdmin(ctx context.Context, seed user.AdminSeed) (*user.User, bool, error) {
	seed.Username = strings.TrimSpace(seed.Username)
	if seed.Email == "" {
		seed.Email = seed.Username + defaultAdminEmailDomain
	}
	seed.Email = normalizeEmail(seed.Email)

	existing, err := s.store.FindByUsername(ctx, seed.Username)
	switch {
	case err == nil:
		if existing.Role != user.RoleAdmin {
			s.logger.Warn("bootstrap admin username belongs to a non-admin account",
				zap.String("username", existing.Username),
				zap.String("role", existing.Role.String()))
		}
		return existing, false, nil
	case !errors.Is(err, apperrors.ErrNotFound):
		return nil, false, fmt.Errorf(errBootstrapAdminFmt, seed.Username, err)
	}

	var v validator.Collector
	v.Check(validator.FieldUsername, validator.Username(seed.Username))
	v.Check(validator.FieldEmail, validator.Email(seed.Email))
	v.Check(validator.FieldPassword, validator.Password(seed.Password))
	if err := v.Err(); err != nil {
		return nil, false, fmt.Errorf(errBootstrapAdminFmt, seed.Username, describeValidation(err))
	}

	digest, err := s.hasher.Hash(seed.Password)
	if err != nil {
		return nil, false, fmt.Errorf(errBootstrapAdminFmt, seed.Username, err)
	}

	u := &user.User{
		Username:     seed.Username,
		Email:        seed.Email,
		PasswordHash: digest,
		Role:         user.RoleAdmin,
	}
	if err := s.store.Save(ctx, u); err != nil {
		return nil, false, fmt.Errorf(errBootstrapAdminFmt, seed.Username, err)
	}

	s.logger.Info("bootstrapped admin account", zap.String("username", u.Username), zap.Int64("id", u.ID))
	return u, true, nil
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

// describeValidation folds field details into the error text for startup
// failures, where there is no response body to carry them.
func describeValidation(err error) error {
	var appErr *apperrors.AppError
	if !errors.As(err, &appErr) || len(appErr.Details) == 0 {
		return err
	}

	parts := make([]string, 0, len(appErr.Details))
	for _, d := range appErr.Details {
		parts = append(parts, d.Field+": "+d.Message)
	}
	return fmt.Errorf("%w: %s", err, strings.Join(parts, "; "))
}
