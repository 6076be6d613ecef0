package auth

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"user-service/internal/access"
	"user-service/internal/domain/user"
	"user-service/internal/repository"
	apperrors "user-service/pkg/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

// Middleware resolves callers from the Authorization header and enforces the
// access policy on every request.
type Middleware struct {
	store  repository.IdentityStore
	hasher CredentialHasher
	tokens *TokenService
	policy *access.Policy
	realm  string
	logger *zap.Logger
}

func NewMiddleware(
	store repository.IdentityStore,
	hasher CredentialHasher,
	tokens *TokenService,
	policy *access.Policy,
	realm string,
	logger *zap.Logger,
) *Middleware {
	return &Middleware{
		store:  store,
		hasher: hasher,
		tokens: tokens,
		policy: policy,
		realm:  realm,
		logger: logger,
	}
}

// Authenticate attaches the caller's identity when credentials are present.
// Missing credentials leave the request anonymous. Bad credentials are
// rejected unless the route is public.
func (m *Middleware) Authenticate() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			header := c.Request().Header.Get(echo.HeaderAuthorization)
			if header == "" {
				return next(c)
			}

			u, authType, err := m.resolve(c.Request().Context(), header)
			if err != nil {
				if !isCredentialError(err) {
					return err
				}

				req := c.Request()
				path := echo.GetPath(req)
				if rule, _ := m.policy.Match(req.Method, path); rule.Requirement.Kind == access.KindPublic {
					return next(c)
				}

				m.logger.Warn("authentication failed",
					zap.String("method", req.Method),
					zap.String("path", path),
					zap.String("request_id", requestID(c)),
					zap.Error(err))
				return m.challenge(c, msgInvalidCredentials)
			}

			c.Set(ContextKeyIdentity, &access.Identity{Username: u.Username, Role: u.Role})
			c.Set(ContextKeyUser, u)
			c.Set(ContextKeyAuthType, authType)

			return next(c)
		}
	}
}

// Authorize evaluates the policy against the identity set by Authenticate.
func (m *Middleware) Authorize() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			req := c.Request()
			id := GetIdentity(c)
			// Same path the router matches on, so escaped separators cannot
			// shift a request onto a weaker rule.
			path := echo.GetPath(req)

			verdict := m.policy.Evaluate(req.Method, path, id)
			if verdict == access.Allow {
				return next(c)
			}

			rule, _ := m.policy.Match(req.Method, path)
			fields := []zap.Field{
				zap.String("verdict", verdict.String()),
				zap.String("method", req.Method),
				zap.String("path", path),
				zap.String("rule", rule.Pattern),
				zap.String("requirement", rule.Requirement.String()),
				zap.String("request_id", requestID(c)),
			}
			if id != nil {
				fields = append(fields, zap.String("username", id.Username), zap.String("role", id.Role.String()))
			}
			m.logger.Warn("access denied", fields...)

			if verdict == access.DenyUnauthenticated {
				return m.challenge(c, msgAuthenticationRequired)
			}
			return apperrors.Forbidden(msgAccessDenied)
		}
	}
}

func (m *Middleware) resolve(ctx context.Context, header string) (*user.User, AuthType, error) {
	parts := strings.Fields(header)
	if len(parts) != authHeaderParts {
		return nil, "", apperrors.Unauthorized(msgUnsupportedScheme)
	}

	switch strings.ToLower(parts[0]) {
	case basicScheme:
		u, err := m.resolveBasic(ctx, parts[1])
		return u, AuthTypeBasic, err
	case bearerScheme:
		u, err := m.resolveBearer(ctx, parts[1])
		return u, AuthTypeBearer, err
	default:
		return nil, "", apperrors.Unauthorized(msgUnsupportedScheme)
	}
}

func (m *Middleware) resolveBasic(ctx context.Context, encoded string) (*user.User, error) {
	username, password, ok := decodeBasic(encoded)
	if !ok {
		return nil, apperrors.InvalidCredentials()
	}

	u, err := m.store.FindByUsername(ctx, username)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			m.hasher.Verify(password, "")
			return nil, apperrors.InvalidCredentials()
		}
		return nil, err
	}

	if !m.hasher.Verify(password, u.PasswordHash) {
		return nil, apperrors.InvalidCredentials()
	}

	return u, nil
}

func (m *Middleware) resolveBearer(ctx context.Context, token string) (*user.User, error) {
	claims, err := m.tokens.Verify(token)
	if err != nil {
		return nil, apperrors.Unauthorized(msgInvalidOrExpiredToken)
	}

	u, err := m.store.FindByUsername(ctx, claims.Subject)
	if err != nil {
		if errors.Is(err, apperrors.ErrNotFound) {
			return nil, apperrors.Unauthorized(msgInvalidOrExpiredToken)
		}
		return nil, err
	}

	// A recreated account with the same username must not inherit old tokens.
	if u.ID != claims.UserID {
		return nil, apperrors.Unauthorized(msgInvalidOrExpiredToken)
	}

	return u, nil
}

func (m *Middleware) challenge(c echo.Context, msg string) error {
	c.Response().Header().Set(headerWWWAuthenticate, fmt.Sprintf(challengeFmt, m.realm))
	return apperrors.Unauthorized(msg)
}

func isCredentialError(err error) bool {
	return errors.Is(err, apperrors.ErrUnauthorized) || errors.Is(err, apperrors.ErrInvalidCredentials)
}

func requestID(c echo.Context) string {
	return c.Response().Header().Get(echo.HeaderXRequestID)
}

// GetIdentity returns the authenticated identity, or nil for anonymous callers.
func GetIdentity(c echo.Context) *access.Identity {
	id, ok := c.Get(ContextKeyIdentity).(*access.Identity)
	if !ok {
		return nil
	}
	return id
}

func GetUser(c echo.Context) (*user.User, error) {
	raw := c.Get(ContextKeyUser)
	if raw == nil {
		return nil, apperrors.Unauthorized(msgUserNotAuthenticated)
	}

	u, ok := raw.(*user.User)
	if !ok || u == nil {
		return nil, apperrors.InternalServer(msgInvalidUserCtx, nil)
	}

	return u, nil
}

func GetAuthType(c echo.Context) AuthType {
	t, ok := c.Get(ContextKeyAuthType).(AuthType)
	if !ok {
		return ""
	}
	return t
}
