package handlers

import (
	"net/http"

	"github.com/labstack/echo/v4"

	"github.com/lumeo-studio/workspace-api/pkg/access"
	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	apimiddleware "github.com/lumeo-studio/workspace-api/pkg/api/middleware"
	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
	"github.com/lumeo-studio/workspace-api/pkg/training"
)

// TrainingHandler handles the 30-day plan endpoints.
type TrainingHandler struct {
	mutator *store.Mutator
}

// NewTrainingHandler creates a new training handler.
func NewTrainingHandler(mutator *store.Mutator) *TrainingHandler {
	return &TrainingHandler{mutator: mutator}
}

// trainingResult carries NoWrite outcomes for training mutations.
type trainingResult struct {
	payload   interface{}
	errStatus int
	errCode   string
}

// Overview returns the profiles visible to the actor, with read-time
// summaries, plus the assignment gates. Profiles are created lazily, so a
// first visit writes the document.
func (h *TrainingHandler) Overview(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[trainingResult], error) {
		if !access.CanAccessTraining(actor, doc.Data) {
			return store.ReadOnly(trainingResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenTraining})
		}

		before := len(doc.Data.Training.Profiles)
		var views []training.ProfileView
		for _, u := range doc.Users {
			if u.Role != models.RoleManager || !access.CanReadTrainingProfile(actor, u) {
				continue
			}
			profile := training.EnsureProfile(&doc.Data, u.ID, now)
			views = append(views, training.BuildView(*profile, u, training.ReviewsFor(doc.Data, u.ID)))
		}

		payload := echo.Map{
			"profiles":    views,
			"assignments": doc.Data.Performance.TrainingAssignments,
		}
		if len(doc.Data.Training.Profiles) == before {
			return store.ReadOnly(trainingResult{payload: payload})
		}
		return store.Write(trainingResult{payload: payload})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, result.payload)
}

// ProfilePatchRequest carries the recognized profile patch fields.
type ProfilePatchRequest struct {
	CurrentDay    *int    `json:"currentDay"`
	Stage         *string `json:"stage"`
	Status        *string `json:"status"`
	Notes         *string `json:"notes"`
	PlanStartDate *string `json:"planStartDate"`
}

func (r ProfilePatchRequest) empty() bool {
	return r.CurrentDay == nil && r.Stage == nil && r.Status == nil &&
		r.Notes == nil && r.PlanStartDate == nil
}

// PatchProfile updates one manager's plan state. Setting the stage by hand
// pins it against the day-based recompute.
func (h *TrainingHandler) PatchProfile(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	var req ProfilePatchRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.empty() {
		return apierrors.BadRequest(c, apierrors.CodeNoUpdatableFields)
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[trainingResult], error) {
		target := findUser(doc.Users, c.Param("userId"))
		if target == nil {
			return store.ReadOnly(trainingResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
		}
		if !access.CanManageTrainingProfile(actor, *target) {
			return store.ReadOnly(trainingResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenTraining})
		}

		profile := training.EnsureProfile(&doc.Data, target.ID, now)
		if req.CurrentDay != nil {
			profile.CurrentDay = *req.CurrentDay
			if !profile.StageOverridden {
				profile.Stage = models.StageForDay(profile.CurrentDay)
			}
		}
		if req.Stage != nil {
			profile.Stage = *req.Stage
			profile.StageOverridden = true
		}
		if req.Status != nil {
			profile.Status = *req.Status
		}
		if req.Notes != nil {
			profile.Notes = *req.Notes
		}
		if req.PlanStartDate != nil {
			profile.PlanStartDate = *req.PlanStartDate
		}
		profile.UpdatedAt = models.FormatTimestamp(now)
		profile.UpdatedByID = actor.ID
		profile.UpdatedByName = actor.Name

		normalized := models.NormalizeTrainingProfile(*profile)
		if normalized == nil {
			return store.ReadOnly(trainingResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeInvalidBody})
		}
		*profile = *normalized

		view := training.BuildView(*profile, *target, training.ReviewsFor(doc.Data, target.ID))
		return store.Write(trainingResult{payload: view})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, result.payload)
}

// ReviewRequest is the call review payload.
type ReviewRequest struct {
	UserID       string   `json:"userId"`
	Channel      string   `json:"channel"`
	Start        int      `json:"start"`
	Diagnostics  int      `json:"diagnostics"`
	Presentation int      `json:"presentation"`
	Objections   int      `json:"objections"`
	Closing      int      `json:"closing"`
	CRM          int      `json:"crm"`
	RedFlags     []string `json:"redFlags"`
	Confidence   int      `json:"confidence"`
	Energy       int      `json:"energy"`
	Control      int      `json:"control"`
	Comment      string   `json:"comment"`
}

// SubmitReview scores one call. Review submission is the sole driver of
// plan-day advancement and status promotion.
func (h *TrainingHandler) SubmitReview(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}
	if !access.CanReviewCalls(actor) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenTraining)
	}

	var req ReviewRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.UserID == "" {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody, "userId is required")
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[trainingResult], error) {
		target := findUser(doc.Users, req.UserID)
		if target == nil {
			return store.ReadOnly(trainingResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
		}
		if !access.CanManageTrainingProfile(actor, *target) {
			return store.ReadOnly(trainingResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenTraining})
		}

		review, profile := training.SubmitReview(&doc.Data, models.TrainingCallReview{
			UserID:       req.UserID,
			ReviewerID:   actor.ID,
			ReviewerName: actor.Name,
			Channel:      req.Channel,
			Start:        req.Start,
			Diagnostics:  req.Diagnostics,
			Presentation: req.Presentation,
			Objections:   req.Objections,
			Closing:      req.Closing,
			CRM:          req.CRM,
			RedFlags:     req.RedFlags,
			Confidence:   req.Confidence,
			Energy:       req.Energy,
			Control:      req.Control,
			Comment:      req.Comment,
			CreatedAt:    models.FormatTimestamp(now),
		}, now)
		if review == nil {
			return store.ReadOnly(trainingResult{errStatus: http.StatusBadRequest, errCode: apierrors.CodeInvalidBody})
		}

		return store.Write(trainingResult{payload: echo.Map{
			"review":  review,
			"profile": profile,
		}})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusCreated, result.payload)
}

// ListReviews returns the review history for one manager, oldest first.
// Managers read their own history; owner and product follow the profile
// visibility rules.
func (h *TrainingHandler) ListReviews(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	userID := c.QueryParam("userId")
	if userID == "" {
		userID = actor.ID
	}

	doc, err := h.mutator.Snapshot(c.Request().Context())
	if err != nil {
		return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
	}

	target := findUser(doc.Users, userID)
	if target == nil {
		return apierrors.NotFound(c, apierrors.CodeUserNotFound)
	}
	if !access.CanReadTrainingProfile(actor, *target) {
		return apierrors.Forbidden(c, apierrors.CodeForbiddenTraining)
	}

	reviews := training.ReviewsFor(doc.Data, userID)
	if reviews == nil {
		reviews = []models.TrainingCallReview{}
	}
	return c.JSON(http.StatusOK, echo.Map{"reviews": reviews})
}

// AssignmentRequest is the training-gate payload.
type AssignmentRequest struct {
	Assigned *bool  `json:"assigned"`
	Note     string `json:"note"`
}

// PatchAssignment flips the training gate for one manager.
func (h *TrainingHandler) PatchAssignment(c echo.Context) error {
	actor, ok := apimiddleware.Actor(c)
	if !ok {
		return apierrors.Unauthorized(c)
	}

	var req AssignmentRequest
	if err := c.Bind(&req); err != nil {
		return apierrors.BadRequest(c, apierrors.CodeInvalidBody)
	}
	if req.Assigned == nil {
		return apierrors.BadRequest(c, apierrors.CodeNoUpdatableFields)
	}

	now := models.Now()
	result, err := store.Mutate(c.Request().Context(), h.mutator, func(doc *store.Document) (store.Outcome[trainingResult], error) {
		target := findUser(doc.Users, c.Param("userId"))
		if target == nil {
			return store.ReadOnly(trainingResult{errStatus: http.StatusNotFound, errCode: apierrors.CodeUserNotFound})
		}
		if !access.CanManageTrainingAssignmentTarget(actor, *target) {
			return store.ReadOnly(trainingResult{errStatus: http.StatusForbidden, errCode: apierrors.CodeForbiddenTrainingAssignment})
		}

		nowStr := models.FormatTimestamp(now)
		assignment := models.TrainingAssignment{
			UserID:        target.ID,
			Assigned:      *req.Assigned,
			Note:          req.Note,
			AssignedAt:    nowStr,
			AssignedByID:  actor.ID,
			UpdatedAt:     nowStr,
			UpdatedByID:   actor.ID,
			UpdatedByName: actor.Name,
		}

		replaced := false
		for i := range doc.Data.Performance.TrainingAssignments {
			if doc.Data.Performance.TrainingAssignments[i].UserID == target.ID {
				assignment.AssignedAt = doc.Data.Performance.TrainingAssignments[i].AssignedAt
				assignment.AssignedByID = doc.Data.Performance.TrainingAssignments[i].AssignedByID
				doc.Data.Performance.TrainingAssignments[i] = assignment
				replaced = true
				break
			}
		}
		if !replaced {
			doc.Data.Performance.TrainingAssignments = append(doc.Data.Performance.TrainingAssignments, assignment)
		}

		return store.Write(trainingResult{payload: assignment})
	})
	if err != nil {
		return h.mutationError(c, err)
	}
	if result.errCode != "" {
		return c.JSON(result.errStatus, models.ErrorResponse{Error: result.errCode})
	}
	return c.JSON(http.StatusOK, result.payload)
}

func (h *TrainingHandler) mutationError(c echo.Context, err error) error {
	if err == store.ErrStateConflict {
		return apierrors.Internal(c, apierrors.CodeStateConflict, err)
	}
	return apierrors.Internal(c, apierrors.CodeStoreUnavailable, err)
}
