package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// PlanHandler handles the owner-set sales targets.
type PlanHandler struct {
	mutator *store.Mutator
}

// NewPlanHandler creates a new plan handler.
func NewPlanHandler(mutator *store.Mutator) *PlanHandler {
	return &PlanHandler{mutator: mutator}
}

// Get returns the current plan targets.
func (h *PlanHandler) Get(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanViewStats(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbidden)
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, doc.Data.Performance.Plans)
}

// PlanPatchRequest carries the target updates; each window is optional.
type PlanPatchRequest struct {
	Day   *int `json:"day"`
	Week  *int `json:"week"`
	Month *int `json:"month"`
}

// Patch updates the plan targets. Owner only.
func (h *PlanHandler) Patch(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanManagePlans(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenPlans)
	}

	var req PlanPatchRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.Day == nil && req.Week == nil && req.Month == nil {
		return apierrors.BadRequest(c, apierrors.CodeNoUpdatableFields)
	}

	now := models.FormatTimestamp(models.Now())
	plans, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[models.Plans], error) {
		apply := func(target *models.PlanTarget, value *int) {
			if value == nil {
				return
			}
			target.Target = *value
			target.UpdatedAt = now
			target.UpdatedByID = actor.ID
			target.UpdatedByName = actor.Name
		}
		apply(&doc.Data.Performance.Plans.Day, req.Day)
		apply(&doc.Data.Performance.Plans.Week, req.Week)
		apply(&doc.Data.Performance.Plans.Month, req.Month)
		return store.Write(doc.Data.Performance.Plans)
	})
	if err != nil {
		if err == store.ErrStateConflict {
			return apierrors.Internal(c, apierrors.CodeStateConflict, err)
		}
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}
	return c.JSON(http.StatusOK, plans)
}
