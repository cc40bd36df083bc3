package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/events"
	"github.com/lumeo-studio/workspace-api/pkg/metrics"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// EventHandler serves the important-events timeline.
type EventHandler struct {
	mutator *store.Mutator
	metrics *metrics.Metrics
}

// NewEventHandler creates a new event handler.
func NewEventHandler(mutator *store.Mutator, m *metrics.Metrics) *EventHandler {
	return &EventHandler{mutator: mutator, metrics: m}
}

// EventRow is an event plus its presentation bucket.
type EventRow struct {
	models.ImportantEvent
	Bucket string `json:"bucket"`
}

// EventsResponse is the timeline payload.
type EventsResponse struct {
	Events []EventRow `json:"events"`
	Total  int        `json:"total"`
}

// List recomputes the mined event set in memory and returns it filtered by
// scope. The persisted set is only rewritten by lead mutations; reads never
// race the CAS loop.
func (h *EventHandler) List(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanViewStats(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbidden)
	}

	scope := c.QueryParam("scope")
	limit := queryInt(c, "limit", 100, 1, 1000)

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	now := models.Now()
	events.Sync(&doc.Data, now)
	if h.metrics != nil {
		h.metrics.EventsMined.Set(float64(len(doc.Data.ImportantEvents)))
	}

	rows := make([]EventRow, 0, len(doc.Data.ImportantEvents))
	for _, e := range doc.Data.ImportantEvents {
		bucket := events.Bucket(e.NextOccurrence, now)
		if scope != "" && scope != "all" && scope != bucket {
			continue
		}
		rows = append(rows, EventRow{ImportantEvent: e, Bucket: bucket})
	}

	total := len(rows)
	if len(rows) > limit {
		rows = rows[:limit]
	}

	return c.JSON(http.StatusOK, EventsResponse{Events: rows, Total: total})
}
