// Package errors centralizes the API error taxonomy. Every failure returns
// `{error: CODE}` with a stable machine-readable code (optionally a hint),
// so the front end can render precise messages per predicate.
package errors

import (
	"log"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Error codes.
const (
	CodeUnauthorized       = "UNAUTHORIZED"
	CodeInvalidCredentials = "INVALID_CREDENTIALS"

	// One FORBIDDEN_* code per capability predicate.
	CodeForbidden                   = "FORBIDDEN"
	CodeForbiddenDepartment         = "FORBIDDEN_DEPARTMENT"
	CodeForbiddenAssign             = "FORBIDDEN_ASSIGN"
	CodeForbiddenStatus             = "FORBIDDEN_STATUS"
	CodeForbiddenDeleteStatus       = "FORBIDDEN_DELETE_STATUS"
	CodeForbiddenTraining           = "FORBIDDEN_TRAINING"
	CodeForbiddenTrainingAssignment = "FORBIDDEN_TRAINING_ASSIGNMENT"
	CodeForbiddenPlans              = "FORBIDDEN_PLANS"
	CodeForbiddenUsers              = "FORBIDDEN_USERS"
	CodeForbiddenExport             = "FORBIDDEN_EXPORT"

	CodeLeadNotFound    = "LEAD_NOT_FOUND"
	CodeUserNotFound    = "USER_NOT_FOUND"
	CodeProfileNotFound = "PROFILE_NOT_FOUND"

	CodeInvalidBody       = "INVALID_BODY"
	CodeInvalidRole       = "INVALID_ROLE"
	CodeNameRequired      = "NAME_REQUIRED"
	CodeContactRequired   = "CONTACT_REQUIRED"
	CodeTextRequired      = "TEXT_REQUIRED"
	CodeUsernameRequired  = "USERNAME_REQUIRED"
	CodePasswordRequired  = "PASSWORD_REQUIRED"
	CodeUsernameTaken     = "USERNAME_TAKEN"
	CodeLastOwner         = "LAST_OWNER"
	CodeNoUpdatableFields = "NO_UPDATABLE_FIELDS"

	CodeStateConflict    = "STATE_UPDATE_CONFLICT"
	CodeStoreUnavailable = "STORE_UNAVAILABLE"
	CodeInternal         = "INTERNAL_ERROR"
)

// Unauthorized returns 401 with the UNAUTHORIZED code.
func Unauthorized(c echo.Context) error {
	return c.JSON(http.StatusUnauthorized, models.ErrorResponse{Error: CodeUnauthorized})
}

// Forbidden returns 403 with the given predicate code.
func Forbidden(c echo.Context, code string) error {
	return c.JSON(http.StatusForbidden, models.ErrorResponse{Error: code})
}

// NotFound returns 404 with the given code.
func NotFound(c echo.Context, code string) error {
	return c.JSON(http.StatusNotFound, models.ErrorResponse{Error: code})
}

// BadRequest returns 400 with the given code and optional hint.
func BadRequest(c echo.Context, code string, hint ...string) error {
	body := models.ErrorResponse{Error: code}
	if len(hint) > 0 {
		body.Hint = hint[0]
	}
	return c.JSON(http.StatusBadRequest, body)
}

// DebugErrors opts into echoing error detail in 500 responses. Deployment
// trusts diagnosability over information hiding when this is set.
var DebugErrors bool

// Internal returns 500, logging the real error and hiding it from the
// client unless DebugErrors is set.
func Internal(c echo.Context, code string, err error) error {
	log.Printf("[INTERNAL ERROR] Path: %s, Error: %v", c.Request().URL.Path, err)
	body := models.ErrorResponse{Error: code}
	if DebugErrors && err != nil {
		hint := err.Error()
		if len(hint) > 300 {
			hint = hint[:300]
		}
		body.Hint = hint
	}
	return c.JSON(http.StatusInternalServerError, body)
}
