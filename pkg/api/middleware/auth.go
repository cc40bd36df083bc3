package middleware

import (
	"context"
	"strings"
	"time"

	"github.com/labstack/echo/v4"

	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	"github.com/lumeo-studio/workspace-api/pkg/auth"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

const actorContextKey = "actor"

// AuthConfig wires the bearer-token middleware.
type AuthConfig struct {
	Secret    string
	Mutator   *store.Mutator
	Blacklist *auth.TokenBlacklist
	// AuthDisabled synthesizes a fixed owner-role actor for every request.
	// A deployment-time trust decision; see config.WorkspaceAuthDisabled.
	AuthDisabled bool
}

// BearerAuth authenticates the request and resolves the actor against the
// live document. The token only identifies the user: role and department
// are always re-read from current state, never trusted from the payload.
func BearerAuth(cfg AuthConfig) echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			if cfg.AuthDisabled {
				c.Set(actorContextKey, syntheticOwner())
				return next(c)
			}

			authHeader := c.Request().Header.Get("Authorization")
			if authHeader == "" {
				return apierrors.Unauthorized(c)
			}
			parts := strings.Split(authHeader, " ")
			if len(parts) != 2 || parts[0] != "Bearer" {
				return apierrors.Unauthorized(c)
			}
			token := parts[1]

			ctx, cancel := context.WithTimeout(c.Request().Context(), 5*time.Second)
			defer cancel()

			claims, err := auth.ParseToken(token, cfg.Secret)
			if err != nil {
				return apierrors.Unauthorized(c)
			}
			if cfg.Blacklist != nil {
				revoked, err := cfg.Blacklist.IsBlacklisted(ctx, token)
				if err != nil {
					return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
				}
				if revoked {
					return apierrors.Unauthorized(c)
				}
			}

			doc, err := cfg.Mutator.Snapshot(ctx)
			if err != nil {
				return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
			}
			var actor *models.User
			for i := range doc.Users {
				if doc.Users[i].ID == claims.UserID {
					actor = &doc.Users[i]
					break
				}
			}
			if actor == nil {
				return apierrors.Unauthorized(c)
			}

			c.Set("token", token)
			c.Set(actorContextKey, *actor)
			return next(c)
		}
	}
}

// Actor returns the authenticated actor placed by BearerAuth.
func Actor(c echo.Context) (models.User, bool) {
	actor, ok := c.Get(actorContextKey).(models.User)
	return actor, ok
}

// Token returns the raw bearer token, when present.
func Token(c echo.Context) string {
	token, _ := c.Get("token").(string)
	return token
}

func syntheticOwner() models.User {
	return models.User{
		ID:         "usr_workspace",
		Username:   "workspace",
		Name:       "Workspace",
		Role:       models.RoleOwner,
		Department: "general",
	}
}

// NoStore stamps Cache-Control: no-store on every API response so admin
// data never lands in shared caches.
func NoStore() echo.MiddlewareFunc {
	return func(next echo.HandlerFunc) echo.HandlerFunc {
		return func(c echo.Context) error {
			c.Response().Header().Set("Cache-Control", "no-store")
			return next(c)
		}
	}
}
