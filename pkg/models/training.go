package models

import "fmt"

// Training plan stages, in order. Stage is a pure function of CurrentDay
// unless a reviewer pinned it explicitly.
const (
	StageFoundation    = "foundation"
	StageDiagnostics   = "diagnostics"
	StageDialogControl = "dialog_control"
	StageClosing       = "closing"
)

// Training statuses.
const (
	TrainingOnboarding = "onboarding"
	TrainingActive     = "active"
	TrainingCertified  = "certified"
	TrainingPaused     = "paused"
)

// TrainingPlanDays is the length of the onboarding plan.
const TrainingPlanDays = 30

// MaxReviews caps the stored call-review history; oldest entries drop first.
const MaxReviews = 6000

// CertificationMinScore is the review score floor for certification.
const CertificationMinScore = 75

// Review channels.
var reviewChannels = []string{"call", "zoom", "chat", "email"}

// Red flags a reviewer can raise on a call.
var ReviewRedFlags = []string{
	"no_greeting",
	"talked_over_client",
	"ignored_needs",
	"no_next_step",
	"pressured_client",
	"wrong_info",
}

// TrainingProfile tracks one manager through the 30-day plan. Created lazily
// the first time the manager shows up in the training module.
type TrainingProfile struct {
	UserID          string `json:"userId"`
	PlanStartDate   string `json:"planStartDate"`
	CurrentDay      int    `json:"currentDay"`
	Stage           string `json:"stage"`
	StageOverridden bool   `json:"stageOverridden"`
	Status          string `json:"status"`
	Confidence      int    `json:"confidence"`
	Energy          int    `json:"energy"`
	Control         int    `json:"control"`
	Notes           string `json:"notes"`
	CreatedAt       string `json:"createdAt"`
	UpdatedAt       string `json:"updatedAt"`
	UpdatedByID     string `json:"updatedById"`
	UpdatedByName   string `json:"updatedByName"`
}

// TrainingCallReview is one scored call. Append-only.
type TrainingCallReview struct {
	ID           string   `json:"id"`
	UserID       string   `json:"userId"`
	ReviewerID   string   `json:"reviewerId"`
	ReviewerName string   `json:"reviewerName"`
	Channel      string   `json:"channel"`
	Start        int      `json:"start"`
	Diagnostics  int      `json:"diagnostics"`
	Presentation int      `json:"presentation"`
	Objections   int      `json:"objections"`
	Closing      int      `json:"closing"`
	CRM          int      `json:"crm"`
	TotalScore   int      `json:"totalScore"`
	RedFlags     []string `json:"redFlags"`
	Confidence   int      `json:"confidence"`
	Energy       int      `json:"energy"`
	Control      int      `json:"control"`
	Comment      string   `json:"comment"`
	CreatedAt    string   `json:"createdAt"`
}

// TrainingAssignment gates a manager's access to the training module.
type TrainingAssignment struct {
	UserID        string `json:"userId"`
	Assigned      bool   `json:"assigned"`
	Note          string `json:"note"`
	AssignedAt    string `json:"assignedAt"`
	AssignedByID  string `json:"assignedById"`
	UpdatedAt     string `json:"updatedAt"`
	UpdatedByID   string `json:"updatedById"`
	UpdatedByName string `json:"updatedByName"`
}

// StageForDay maps a plan day onto its stage.
func StageForDay(day int) string {
	switch {
	case day <= 7:
		return StageFoundation
	case day <= 15:
		return StageDiagnostics
	case day <= 23:
		return StageDialogControl
	default:
		return StageClosing
	}
}

// NormalizeTrainingProfile coerces a raw profile. Returns nil without a user id.
func NormalizeTrainingProfile(raw TrainingProfile) *TrainingProfile {
	p := TrainingProfile{
		UserID:          trimMax(raw.UserID, 80),
		PlanStartDate:   normalizeTimestamp(raw.PlanStartDate),
		CurrentDay:      clampInt(raw.CurrentDay, 1, TrainingPlanDays),
		Stage:           pickEnum(raw.Stage, "", StageFoundation, StageDiagnostics, StageDialogControl, StageClosing),
		StageOverridden: raw.StageOverridden,
		Status:          pickEnum(raw.Status, TrainingOnboarding, TrainingOnboarding, TrainingActive, TrainingCertified, TrainingPaused),
		Confidence:      clampInt(raw.Confidence, 1, 5),
		Energy:          clampInt(raw.Energy, 1, 5),
		Control:         clampInt(raw.Control, 1, 5),
		Notes:           trimMax(raw.Notes, 2000),
		CreatedAt:       normalizeTimestamp(raw.CreatedAt),
		UpdatedAt:       normalizeTimestamp(raw.UpdatedAt),
		UpdatedByID:     trimMax(raw.UpdatedByID, 80),
		UpdatedByName:   trimMax(raw.UpdatedByName, maxNameLen),
	}
	if p.UserID == "" {
		return nil
	}
	if p.Stage == "" || !p.StageOverridden {
		p.Stage = StageForDay(p.CurrentDay)
	}
	return &p
}

// NormalizeTrainingCallReview coerces a raw review. Returns nil without a
// user id. TotalScore is always recomputed from the channel scores.
func NormalizeTrainingCallReview(raw TrainingCallReview) *TrainingCallReview {
	r := TrainingCallReview{
		ID:           trimMax(raw.ID, 80),
		UserID:       trimMax(raw.UserID, 80),
		ReviewerID:   trimMax(raw.ReviewerID, 80),
		ReviewerName: trimMax(raw.ReviewerName, maxNameLen),
		Channel:      pickEnum(raw.Channel, "call", reviewChannels...),
		Start:        clampInt(raw.Start, 0, 15),
		Diagnostics:  clampInt(raw.Diagnostics, 0, 25),
		Presentation: clampInt(raw.Presentation, 0, 20),
		Objections:   clampInt(raw.Objections, 0, 15),
		Closing:      clampInt(raw.Closing, 0, 15),
		CRM:          clampInt(raw.CRM, 0, 10),
		Confidence:   clampInt(raw.Confidence, 1, 5),
		Energy:       clampInt(raw.Energy, 1, 5),
		Control:      clampInt(raw.Control, 1, 5),
		Comment:      trimMax(raw.Comment, maxCommentLen),
		CreatedAt:    normalizeTimestamp(raw.CreatedAt),
	}
	if r.UserID == "" {
		return nil
	}
	sum := r.Start + r.Diagnostics + r.Presentation + r.Objections + r.Closing + r.CRM
	r.TotalScore = clampInt(sum, 0, 100)
	flags := make([]string, 0, len(raw.RedFlags))
	seen := map[string]bool{}
	for _, f := range raw.RedFlags {
		f = pickEnum(f, "", ReviewRedFlags...)
		if f != "" && !seen[f] {
			seen[f] = true
			flags = append(flags, f)
		}
	}
	r.RedFlags = flags
	if r.ID == "" {
		r.ID = HashID("rev", fmt.Sprintf("%s|%s|%s|%d", r.UserID, r.ReviewerID, r.CreatedAt, r.TotalScore))
	}
	return &r
}

// NormalizeTrainingAssignment coerces a raw assignment. Returns nil without
// a user id.
func NormalizeTrainingAssignment(raw TrainingAssignment) *TrainingAssignment {
	a := TrainingAssignment{
		UserID:        trimMax(raw.UserID, 80),
		Assigned:      raw.Assigned,
		Note:          trimMax(raw.Note, 500),
		AssignedAt:    normalizeTimestamp(raw.AssignedAt),
		AssignedByID:  trimMax(raw.AssignedByID, 80),
		UpdatedAt:     normalizeTimestamp(raw.UpdatedAt),
		UpdatedByID:   trimMax(raw.UpdatedByID, 80),
		UpdatedByName: trimMax(raw.UpdatedByName, maxNameLen),
	}
	if a.UserID == "" {
		return nil
	}
	return &a
}
