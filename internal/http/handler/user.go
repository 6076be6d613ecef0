package handler

import (
	"errors"
	"net/http"
	"user-service/internal/audit"
	"user-service/internal/auth"
	"user-service/internal/domain/user"
	apperrors "user-service/pkg/errors"

	"github.com/labstack/echo/v4"
	"go.uber.org/zap"
)

const tokenTypeBearer = "Bearer"

type UserHandler struct {
	users  UserService
	tokens TokenIssuer
	audit  AuditLogger
	logger *zap.Logger
}

func NewUserHandler(users UserService, tokens TokenIssuer, auditLogger AuditLogger, logger *zap.Logger) *UserHandler {
	return &UserHandler{
		users:  users,
		tokens: tokens,
		audit:  auditLogger,
		logger: logger,
	}
}

func (h *UserHandler) Register(c echo.Context) error {
	var req RegisterRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	u, err := h.users.Register(c.Request().Context(), user.RegisterInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			h.audit.LogError(c, audit.ResourceTypeUser, 0, audit.ActionCreate, err)
		}
		return err
	}

	h.audit.LogFromContext(c, audit.ResourceTypeUser, u.ID, audit.ActionCreate, audit.StatusSuccess, map[string]any{
		"username": u.Username,
		"role":     u.Role.String(),
	})

	return respondMessage(c, http.StatusCreated, msgUserRegistered)
}

func (h *UserHandler) Me(c echo.Context) error {
	caller, err := auth.GetUser(c)
	if err != nil {
		return err
	}

	u, err := h.users.Get(c.Request().Context(), caller.ID)
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, u)
}

func (h *UserHandler) UpdateMe(c echo.Context) error {
	caller, err := auth.GetUser(c)
	if err != nil {
		return err
	}

	var req UpdateSelfRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	u, err := h.users.UpdateSelf(c.Request().Context(), caller.ID, user.UpdateSelfInput{
		Email:    req.Email,
		Password: req.Password,
	})
	if err != nil {
		return err
	}

	h.audit.LogFromContext(c, audit.ResourceTypeUser, u.ID, audit.ActionUpdate, audit.StatusSuccess, map[string]any{
		"fields": []string{"email", "password"},
	})

	return respondMessage(c, http.StatusOK, msgUserSelfUpdated)
}

func (h *UserHandler) List(c echo.Context) error {
	users, err := h.users.List(c.Request().Context())
	if err != nil {
		return err
	}

	return c.JSON(http.StatusOK, users)
}

func (h *UserHandler) UpdateByAdmin(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	var req UpdateByAdminRequest
	if err := bindStrictJSON(c, &req); err != nil {
		return err
	}

	u, err := h.users.UpdateByAdmin(c.Request().Context(), id, user.UpdateByAdminInput{
		Username: req.Username,
		Email:    req.Email,
		Password: req.Password,
		Role:     req.Role,
	})
	if err != nil {
		if !errors.Is(err, apperrors.ErrValidation) {
			h.audit.LogError(c, audit.ResourceTypeUser, id, audit.ActionUpdate, err)
		}
		return err
	}

	h.audit.LogFromContext(c, audit.ResourceTypeUser, u.ID, audit.ActionUpdate, audit.StatusSuccess, map[string]any{
		"username": u.Username,
		"role":     u.Role.String(),
	})

	return respondMessage(c, http.StatusOK, msgUserAdminUpdated)
}

func (h *UserHandler) Delete(c echo.Context) error {
	id, err := parseID(c)
	if err != nil {
		return err
	}

	u, err := h.users.Delete(c.Request().Context(), id)
	if err != nil {
		h.audit.LogError(c, audit.ResourceTypeUser, id, audit.ActionDelete, err)
		return err
	}

	h.audit.LogFromContext(c, audit.ResourceTypeUser, id, audit.ActionDelete, audit.StatusSuccess, map[string]any{
		"username": u.Username,
	})

	return respondMessage(c, http.StatusOK, msgUserDeleted)
}

// IssueToken exchanges the credentials that authenticated this request for a
// bearer token.
func (h *UserHandler) IssueToken(c echo.Context) error {
	caller, err := auth.GetUser(c)
	if err != nil {
		return err
	}

	token, expiresAt, err := h.tokens.Generate(caller)
	if err != nil {
		h.logger.Error("token generation failed", zap.String("username", caller.Username), zap.Error(err))
		return apperrors.InternalServer(msgGenerateTokenFail, err)
	}

	h.audit.LogFromContext(c, audit.ResourceTypeToken, caller.ID, audit.ActionIssue, audit.StatusSuccess, map[string]any{
		"auth_type": string(auth.GetAuthType(c)),
	})

	return c.JSON(http.StatusOK, TokenResponse{
		Token:     token,
		TokenType: tokenTypeBearer,
		ExpiresAt: expiresAt,
	})
}
