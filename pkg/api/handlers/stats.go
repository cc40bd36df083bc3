package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/performance"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// StatsHandler serves the performance dashboard.
type StatsHandler struct {
	mutator *store.Mutator
}

// NewStatsHandler creates a new stats handler.
func NewStatsHandler(mutator *store.Mutator) *StatsHandler {
	return &StatsHandler{mutator: mutator}
}

// StatsResponse is the dashboard payload. Managers is already projected to
// the caller's visibility scope; ranks keep their global values.
type StatsResponse struct {
	Totals   map[string]performance.WindowStats `json:"totals"`
	Plans    map[string]performance.PlanRow     `json:"plans"`
	Managers []performance.ManagerRow           `json:"managers"`
}

// Get recomputes the rolling-window stats from the live document.
func (h *StatsHandler) Get(c echo.Context) error {
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

	summary := performance.Compute(doc.Data.Leads, doc.Users, doc.Data.Performance.Plans, models.Now())

	return c.JSON(http.StatusOK, StatsResponse{
		Totals:   summary.Totals,
		Plans:    summary.Plans,
		Managers: performance.Leaderboard(summary.Managers, actor),
	})
}
