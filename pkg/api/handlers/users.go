package handlers

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/auth"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// UserHandler handles the owner-only account management endpoints.
type UserHandler struct {
	mutator *store.Mutator
}

// NewUserHandler creates a new user handler.
func NewUserHandler(mutator *store.Mutator) *UserHandler {
	return &UserHandler{mutator: mutator}
}

// validRole accepts the live roles plus the two legacy aliases that
// normalization collapses to manager.
func validRole(role string) bool {
	switch strings.ToLower(strings.TrimSpace(role)) {
	case models.RoleOwner, models.RoleProduct, models.RoleManager, "help", "worker":
		return true
	default:
		return false
	}
}

// userResult carries the NoWrite outcomes for user mutations.
type userResult struct {
	user      SafeUser
	errStatus int
	errCode   string
}

// List returns every account without password material.
func (h *UserHandler) List(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanManageUsers(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenUsers)
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, echo.Map{"users": toSafeUsers(doc.Users)})
}

// CreateUserRequest is the account creation payload.
type CreateUserRequest struct {
	Username   string `json:"username"`
	Password   string `json:"password"`
	Name       string `json:"name"`
	Role       string `json:"role"`
	Department string `json:"department"`
}

// Create adds a new account. New passwords are always stored hashed.
func (h *UserHandler) Create(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanManageUsers(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenUsers)
	}

	var req CreateUserRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	username := strings.ToLower(strings.TrimSpace(req.Username))
	if username == "" {
		return apierrors.BadRequest(c, apierrors.CodeUsernameRequired)
	}
	if strings.TrimSpace(req.Password) == "" {
		return apierrors.BadRequest(c, apierrors.CodePasswordRequired)
	}
	if req.Role != "" && !validRole(req.Role) {
		return apierrors.BadRequest(c, apierrors.CodeInvalidRole)
	}

	hashed, err := auth.HashPassword(req.Password)
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeInternal, err)
	}

	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[userResult], error) {
		if findUserByUsername(doc.Users, username) != nil {
			return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeUsernameTaken})
		}
		user := models.NormalizeUser(models.User{
			Username:   username,
			Password:   hashed,
			Name:       req.Name,
			Role:       req.Role,
			Department: req.Department,
		})
		if user == nil {
			return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeInvalidBody})
		}
		doc.Users = append(doc.Users, *user)
		return store.Write(userResult{user: toSafeUser(*user)})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusCreated, result.user)
}

// UpdateUserRequest carries the recognized user patch fields.
type UpdateUserRequest struct {
	Username   *string `json:"username"`
	Password   *string `json:"password"`
	Name       *string `json:"name"`
	Role       *string `json:"role"`
	Department *string `json:"department"`
}

func (r UpdateUserRequest) empty() bool {
	return r.Username == nil && r.Password == nil && r.Name == nil &&
		r.Role == nil && r.Department == nil
}

// Update patches one account. Demoting the last owner is rejected.
func (h *UserHandler) Update(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanManageUsers(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenUsers)
	}

	var req UpdateUserRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.empty() {
		return apierrors.BadRequest(c, apierrors.CodeNoUpdatableFields)
	}
	if req.Role != nil && !validRole(*req.Role) {
		return apierrors.BadRequest(c, apierrors.CodeInvalidRole)
	}

	var hashed string
	if req.Password != nil {
		if strings.TrimSpace(*req.Password) == "" {
			return apierrors.BadRequest(c, apierrors.CodePasswordRequired)
		}
		var err error
		hashed, err = auth.HashPassword(*req.Password)
		if err != nil {
			return apierrors.Internal(c, apierrors.CodeInternal, err)
		}
	}

	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[userResult], error) {
		user := findUser(doc.Users, c.Param("id"))
		if user == nil {
			return store.ReadOnly(userResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
		}

		if req.Role != nil && user.Role == models.RoleOwner &&
			models.NormalizeRole(*req.Role) != models.RoleOwner && countOwners(doc.Users) == 1 {
			return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeLastOwner})
		}

		if req.Username != nil {
			username := strings.ToLower(strings.TrimSpace(*req.Username))
			if username == "" {
				return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeUsernameRequired})
			}
			if other := findUserByUsername(doc.Users, username); other != nil && other.ID != user.ID {
				return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeUsernameTaken})
			}
			user.Username = username
		}
		if req.Name != nil {
			user.Name = strings.TrimSpace(*req.Name)
		}
		if req.Role != nil {
			user.Role = models.NormalizeRole(*req.Role)
		}
		if req.Department != nil {
			user.Department = strings.ToLower(strings.TrimSpace(*req.Department))
		}
		if req.Password != nil {
			user.Password = hashed
		}

		return store.Write(userResult{user: toSafeUser(*user)})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, result.user)
}

// Delete removes one account. The last owner cannot be removed.
func (h *UserHandler) Delete(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanManageUsers(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenUsers)
	}

	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[userResult], error) {
		idx := -1
		for i := range doc.Users {
			if doc.Users[i].ID == c.Param("id") {
				idx = i
				break
			}
		}
		if idx < 0 {
			return store.ReadOnly(userResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
		}
		if doc.Users[idx].Role == models.RoleOwner && countOwners(doc.Users) == 1 {
			return store.ReadOnly(userResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeLastOwner})
		}

		doc.Users = append(doc.Users[:idx], doc.Users[idx+1:]...)
		return store.Write(userResult{})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

func countOwners(users []models.User) int {
	n := 0
	for _, u := range users {
		if u.Role == models.RoleOwner {
			n++
		}
	}
	return n
}

func (h *UserHandler) mutationError(c echo.Context, err error) error {
	if err == store.ErrStateConflict {
		return apierrors.Internal(c, apierrors.CodeStateConflict, err)
	}
	return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
}
