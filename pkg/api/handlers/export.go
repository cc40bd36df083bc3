package handlers

import (
	"fmt"
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/export"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// ExportHandler streams lead exports.
type ExportHandler struct {
	mutator *store.Mutator
}

// NewExportHandler creates a new export handler.
func NewExportHandler(mutator *store.Mutator) *ExportHandler {
	return &ExportHandler{mutator: mutator}
}

// Leads renders the full lead list as a downloadable workbook or CSV.
func (h *ExportHandler) Leads(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanAssignLeads(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenExport)
	}

	format := c.QueryParam("format")
	if format == "" {
		format = "xlsx"
	}
	if format != "xlsx" && format != "csv" {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody, "format must be xlsx or csv")
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	var body []byte
	var contentType string
	switch format {
	case "csv":
		body, err = export.LeadsCSV(doc.Data.Leads)
		contentType = "text/csv"
	default:
		body, err = export.LeadsExcel(doc.Data.Leads)
		contentType = "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeInternal, err)
	}

	filename := export.Filename(format, models.Now().Format("20060102-150405"), len(doc.Data.Leads))
	c.Response().Header().Set("Content-Disposition", fmt.Sprintf("attachment; filename=%q", filename))
	return c.Blob(http.StatusOK, contentType, body)
}
