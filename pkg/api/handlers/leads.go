package handlers

import (
	"context"
	"log"
	"net/http"
	"sort"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/email"
	"github.com/lumeo-studio/workspace-api/pkg/events"
	"github.com/lumeo-studio/workspace-api/pkg/metrics"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/slack"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// LeadHandler handles public intake and the admin lead endpoints.
type LeadHandler struct {
	mutator   *store.Mutator
	email     *email.Service
	slack     *slack.Service
	metrics   *metrics.Metrics
	validator *validator.Validate
}

// NewLeadHandler creates a new lead handler.
func NewLeadHandler(mutator *store.Mutator, emailSvc *email.Service, slackSvc *slack.Service, m *metrics.Metrics) *LeadHandler {
	return &LeadHandler{
		mutator:   mutator,
		email:     emailSvc,
		slack:     slackSvc,
		metrics:   m,
		validator: validator.New(),
	}
}

// IntakeRequest is the public site form payload.
type IntakeRequest struct {
	Name       string `json:"name" validate:"required"`
	Contact    string `json:"contact" validate:"required"`
	Type       string `json:"type"`
	Message    string `json:"message"`
	SourcePage string `json:"sourcePage"`
}

// Submit accepts a public lead submission. No auth; defaults are forced so
// the client cannot place a lead anywhere but the intake queue.
func (h *LeadHandler) Submit(c echo.Context) error {
	var req IntakeRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if err := h.validator.Struct(req); err != nil {
		for _, fe := range err.(validator.ValidationErrors) {
			switch fe.Field() {
			case "Name":
				return apierrors.BadRequest(c, apierrors.CodeNameRequired)
			case "Contact":
				return apierrors.BadRequest(c, apierrors.CodeContactRequired)
			}
		}
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}

	now := models.Now()
	raw := models.Lead{
		Name:       req.Name,
		Contact:    req.Contact,
		Type:       req.Type,
		Message:    req.Message,
		SourcePage: req.SourcePage,
		Status:     models.LeadStatusNew,
		Department: models.DepartmentUnassigned,
		Priority:   models.PriorityNormal,
		Outcome:    models.OutcomePending,
		CreatedAt:  models.FormatTimestamp(now),
		UpdatedAt:  models.FormatTimestamp(now),
	}
	lead := models.NormalizeLead(raw)
	if lead == nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}

	created, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[models.Lead], error) {
		doc.Data.Leads = append(doc.Data.Leads, *lead)
		events.Sync(&doc.Data, now)
		return store.Write(*lead)
	})
	if err != nil {
		return h.mutationError(c, err)
	}

	if h.metrics != nil {
		h.metrics.LeadsCreated.Inc()
	}
	h.notifyNewLead(created)

	return c.JSON(http.StatusCreated, created)
}

// notifyNewLead fires the email and Slack alerts off the request path.
func (h *LeadHandler) notifyNewLead(lead models.Lead) {
	go func() {
		ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
		defer cancel()

		if h.email != nil {
			if err := h.email.NotifyNewLead(&lead); err != nil {
				log.Printf("⚠️  Lead email notification failed: %v", err)
			}
		}
		if h.slack != nil {
			if err := h.slack.NotifyNewLead(ctx, &lead); err != nil {
				log.Printf("⚠️  Lead Slack notification failed: %v", err)
			}
		}
	}()
}

// ListResponse is the paginated lead listing.
type ListResponse struct {
	Leads  []models.Lead `json:"leads"`
	Total  int           `json:"total"`
	Limit  int           `json:"limit"`
	Offset int           `json:"offset"`
}

// List returns leads newest-first with limit/offset pagination.
func (h *LeadHandler) List(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanViewAllLeads(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbidden)
	}

	limit := queryInt(c, "limit", 50, 1, 500)
	offset := queryInt(c, "offset", 0, 0, 1<<30)

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	leads := make([]models.Lead, len(doc.Data.Leads))
	copy(leads, doc.Data.Leads)
	sort.SliceStable(leads, func(i, j int) bool {
		return leads[i].CreatedAt > leads[j].CreatedAt
	})

	total := len(leads)
	if offset > total {
		offset = total
	}
	end := offset + limit
	if end > total {
		end = total
	}

	return c.JSON(http.StatusOK, ListResponse{
		Leads:  leads[offset:end],
		Total:  total,
		Limit:  limit,
		Offset: offset,
	})
}

// Get returns one lead by id.
func (h *LeadHandler) Get(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	lead := findLead(doc, c.Param("id"))
	if lead == nil {
		return apierrors.NotFound(c, apierrors.CodeLeadNotFound)
	}
	if !access.CanReadLead(actor, *lead) {
		return apierrors.Forbidden(c, apierrors.CodeForbidden)
	}
	return c.JSON(http.StatusOK, lead)
}

// PatchRequest carries the recognized lead patch fields. Pointers
// distinguish "absent" from "set to zero value".
type PatchRequest struct {
	Status       *string `json:"status"`
	Outcome      *string `json:"outcome"`
	Department   *string `json:"department"`
	AssigneeID   *string `json:"assigneeId"`
	Priority     *string `json:"priority"`
	InternalNote *string `json:"internalNote"`
}

func (r PatchRequest) empty() bool {
	return r.Status == nil && r.Outcome == nil && r.Department == nil &&
		r.AssigneeID == nil && r.Priority == nil && r.InternalNote == nil
}

// patchDenied is a sentinel result for the NoWrite permission outcomes.
type patchResult struct {
	lead      models.Lead
	errStatus int
	errCode   string
	completed bool
}

// Patch applies a capability-gated multi-field update to one lead.
func (h *LeadHandler) Patch(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	var req PatchRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.empty() {
		return apierrors.BadRequest(c, apierrors.CodeNoUpdatableFields)
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[patchResult], error) {
		lead := findLead(doc, c.Param("id"))
		if lead == nil {
			return store.ReadOnly(patchResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeLeadNotFound})
		}

		if req.Department != nil && !access.CanManageTargetDept(actor, strings.ToLower(strings.TrimSpace(*req.Department))) {
			return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenDepartment})
		}

		if req.AssigneeID != nil {
			newAssignee := *req.AssigneeID
			var target *models.User
			if newAssignee != "" {
				target = findUser(doc.Users, newAssignee)
				if target == nil {
					return store.ReadOnly(patchResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
				}
			}
			allowed := false
			if access.CanAssignLeads(actor) {
				allowed = target == nil || access.CanAssignTargetUser(actor, *target)
			}
			if !allowed {
				allowed = access.CanSelfAssign(actor, *lead, newAssignee)
			}
			if !allowed {
				return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenAssign})
			}
		}

		if req.Status != nil || req.Outcome != nil || req.Priority != nil || req.InternalNote != nil {
			if !access.CanUpdateStatus(actor, *lead) {
				return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenStatus})
			}
		}
		if req.Status != nil && actor.Role == models.RoleManager &&
			*req.Status == models.LeadStatusNew && lead.Status == models.LeadStatusInProgress {
			// Managers cannot push their own lead back into the intake queue.
			return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenStatus})
		}

		completed := false
		if req.Department != nil {
			lead.Department = *req.Department
		}
		if req.AssigneeID != nil {
			lead.AssigneeID = *req.AssigneeID
			lead.AssigneeName = ""
			if u := findUser(doc.Users, lead.AssigneeID); u != nil {
				lead.AssigneeName = u.Name
			}
		}
		if req.Priority != nil {
			lead.Priority = *req.Priority
		}
		if req.InternalNote != nil {
			lead.InternalNote = *req.InternalNote
		}
		if req.Status != nil {
			if *req.Status == models.LeadStatusDone && lead.Status != models.LeadStatusDone {
				completed = true
				lead.CompletedAt = models.FormatTimestamp(now)
				lead.CompletedByID = actor.ID
				lead.CompletedBy = actor.Name
			}
			if *req.Status != models.LeadStatusDone {
				lead.CompletedAt = ""
				lead.CompletedByID = ""
				lead.CompletedBy = ""
				lead.Outcome = models.OutcomePending
			}
			lead.Status = *req.Status
		}
		if req.Outcome != nil {
			lead.Outcome = *req.Outcome
		}

		lead.UpdatedAt = models.FormatTimestamp(now)
		lead.UpdatedByID = actor.ID
		lead.UpdatedByName = actor.Name

		normalized := models.NormalizeLead(*lead)
		if normalized == nil {
			return store.ReadOnly(patchResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeInvalidBody})
		}
		*lead = *normalized

		events.Sync(&doc.Data, now)
		return store.Write(patchResult{lead: *lead, completed: completed})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}

	if result.completed {
		if h.metrics != nil {
			h.metrics.LeadsCompleted.WithLabelValues(result.lead.Outcome).Inc()
		}
		if h.slack != nil {
			lead := result.lead
			go func() {
				ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
				defer cancel()
				if err := h.slack.NotifyLeadCompleted(ctx, &lead); err != nil {
					log.Printf("⚠️  Lead Slack notification failed: %v", err)
				}
			}()
		}
	}

	return c.JSON(http.StatusOK, result.lead)
}

// Delete removes a lead that has not been closed yet. Done leads are
// immutable for deletion.
func (h *LeadHandler) Delete(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanAssignLeads(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbidden)
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[patchResult], error) {
		idx := -1
		for i := range doc.Data.Leads {
			if doc.Data.Leads[i].ID == c.Param("id") {
				idx = i
				break
			}
		}
		if idx < 0 {
			return store.ReadOnly(patchResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeLeadNotFound})
		}
		if doc.Data.Leads[idx].Status == models.LeadStatusDone {
			return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenDeleteStatus})
		}

		doc.Data.Leads = append(doc.Data.Leads[:idx], doc.Data.Leads[idx+1:]...)
		events.Sync(&doc.Data, now)
		return store.Write(patchResult{})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, echo.Map{"success": true})
}

// CommentRequest is the comment payload.
type CommentRequest struct {
	Text string `json:"text"`
}

// AddComment appends an immutable comment to one lead.
func (h *LeadHandler) AddComment(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	var req CommentRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}

	now := models.Now()
	comment := models.NormalizeComment(models.Comment{
		Text:           req.Text,
		AuthorID:       actor.ID,
		AuthorUsername: actor.Username,
		AuthorName:     actor.Name,
		AuthorRole:     actor.Role,
		CreatedAt:      models.FormatTimestamp(now),
	})
	if comment == nil {
		return apierrors.BadRequest(c, apierrors.CodeTextRequired)
	}

	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[patchResult], error) {
		lead := findLead(doc, c.Param("id"))
		if lead == nil {
			return store.ReadOnly(patchResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeLeadNotFound})
		}
		if !access.CanReadLead(actor, *lead) {
			return store.ReadOnly(patchResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbidden})
		}

		lead.Comments = append(lead.Comments, *comment)
		if len(lead.Comments) > models.MaxCommentsPerLead {
			lead.Comments = lead.Comments[len(lead.Comments)-models.MaxCommentsPerLead:]
		}
		lead.UpdatedAt = models.FormatTimestamp(now)

		events.Sync(&doc.Data, now)
		return store.Write(patchResult{lead: *lead})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusCreated, result.lead)
}

// mutationError maps mutator failures onto the error taxonomy.
func (h *LeadHandler) mutationError(c echo.Context, err error) error {
	if err == store.ErrStateConflict {
		return apierrors.Internal(c, apierrors.CodeStateConflict, err)
	}
	return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
}
