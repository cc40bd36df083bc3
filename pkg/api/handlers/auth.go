package handlers

import (
	"net/http"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/auth"
	"github.com/lumeo-studio/workspace-api/pkg/metrics"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// AuthHandler handles login, logout and the identity endpoint.
type AuthHandler struct {
	mutator   *store.Mutator
	secret    string
	tokenTTL  time.Duration
	blacklist *auth.TokenBlacklist
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewAuthHandler creates a new auth handler.
func NewAuthHandler(mutator *store.Mutator, secret string, tokenTTL time.Duration, blacklist *auth.TokenBlacklist, m *metrics.Metrics) *AuthHandler {
	return &AuthHandler{
		mutator:   mutator,
		secret:    secret,
		tokenTTL:  tokenTTL,
		blacklist: blacklist,
		metrics:   m,
		validator: validator.New(),
	}
}

// LoginRequest is the login payload.
type LoginRequest struct {
	Username string `json:"username" validate:"required"`
	Password string `json:"password" validate:"required"`
}

// LoginResponse carries the signed token plus the identity projection the
// admin front end boots from.
type LoginResponse struct {
	Token       string             `json:"token"`
	User        SafeUser           `json:"user"`
	Permissions access.Permissions `json:"permissions"`
}

// Login verifies credentials against the live document and issues a token.
func (h *AuthHandler) Login(c echo.Context) error {
	var req LoginRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if err := h.validator.Struct(req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody, "username and password are required")
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	user := findUserByUsername(doc.Users, strings.ToLower(strings.TrimSpace(req.Username)))
	if user == nil || !auth.VerifyPassword(user.Password, req.Password) {
		if h.metrics != nil {
			h.metrics.LoginAttempts.WithLabelValues("failure").Inc()
		}
		return c.JSON(http.StatusUnauthorized, echo.Map{"error": apierrors.CodeInvalidCredentials})
	}

	token, err := auth.GenerateToken(*user, h.secret, h.tokenTTL)
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeInternal, err)
	}
	if h.metrics != nil {
		h.metrics.LoginAttempts.WithLabelValues("success").Inc()
	}

	return c.JSON(http.StatusOK, LoginResponse{
		Token:       token,
		User:        toSafeUser(*user),
		Permissions: access.PermissionsFor(*user, doc.Data),
	})
}

// Me returns the authenticated actor and their recomputed capability set.
func (h *AuthHandler) Me(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	return c.JSON(http.StatusOK, echo.Map{
		"user":        toSafeUser(actor),
		"permissions": access.PermissionsFor(actor, doc.Data),
	})
}

// Logout revokes the presented token for the remainder of its lifetime.
func (h *AuthHandler) Logout(c echo.Context) error {
	token := apimiddleware.Token(c)
	if token != "" && h.blacklist != nil {
		if err := h.blacklist.Add(c.Request().Context(), token, h.tokenTTL); err != nil {
			return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
		}
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}
