// Package training drives the 30-day manager onboarding plan: lazily
// created profiles, append-only call reviews, and the promotion rules tied
// to review submission.
package training

import (
	"math"
	"time"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Motivation levels derived from the confidence/energy/control trio.
const (
	MotivationHigh   = "high"
	MotivationSteady = "steady"
	MotivationLow    = "low"
)

// ProfileView is a profile plus its read-time summary. Summary fields are
// recomputed from the review history on every read, never persisted.
type ProfileView struct {
	models.TrainingProfile
	UserName        string  `json:"userName"`
	Department      string  `json:"department"`
	ReviewCount     int     `json:"reviewCount"`
	AvgScore        float64 `json:"avgScore"`
	LastScore       int     `json:"lastScore"`
	RedFlagsCount   int     `json:"redFlagsCount"`
	ProgressPercent int     `json:"progressPercent"`
	MotivationLevel string  `json:"motivationLevel"`
}

// EnsureProfile returns the profile for userID, creating it on first
// visibility.
func EnsureProfile(data *models.AppData, userID string, now time.Time) *models.TrainingProfile {
	for i := range data.Training.Profiles {
		if data.Training.Profiles[i].UserID == userID {
			return &data.Training.Profiles[i]
		}
	}
	nowStr := models.FormatTimestamp(now)
	profile := models.TrainingProfile{
		UserID:        userID,
		PlanStartDate: nowStr,
		CurrentDay:    1,
		Stage:         models.StageForDay(1),
		Status:        models.TrainingOnboarding,
		Confidence:    3,
		Energy:        3,
		Control:       3,
		CreatedAt:     nowStr,
		UpdatedAt:     nowStr,
	}
	data.Training.Profiles = append(data.Training.Profiles, profile)
	return &data.Training.Profiles[len(data.Training.Profiles)-1]
}

// ReviewsFor returns the stored reviews for one manager, oldest first.
func ReviewsFor(data models.AppData, userID string) []models.TrainingCallReview {
	var out []models.TrainingCallReview
	for _, r := range data.Training.Reviews {
		if r.UserID == userID {
			out = append(out, r)
		}
	}
	return out
}

// BuildView assembles the read-time summary for one profile.
func BuildView(profile models.TrainingProfile, user models.User, reviews []models.TrainingCallReview) ProfileView {
	view := ProfileView{
		TrainingProfile: profile,
		UserName:        user.Name,
		Department:      user.Department,
		ProgressPercent: int(math.Round(float64(profile.CurrentDay) / models.TrainingPlanDays * 100)),
		MotivationLevel: motivationLevel(profile),
	}
	if len(reviews) == 0 {
		return view
	}
	total := 0
	for _, r := range reviews {
		total += r.TotalScore
		view.RedFlagsCount += len(r.RedFlags)
	}
	view.ReviewCount = len(reviews)
	view.AvgScore = math.Round(float64(total)/float64(len(reviews))*10) / 10
	view.LastScore = reviews[len(reviews)-1].TotalScore
	return view
}

func motivationLevel(profile models.TrainingProfile) string {
	mean := float64(profile.Confidence+profile.Energy+profile.Control) / 3
	switch {
	case mean >= 4:
		return MotivationHigh
	case mean >= 2.5:
		return MotivationSteady
	default:
		return MotivationLow
	}
}

// SubmitReview appends a review and applies the promotion rules: the plan
// day advances by one (capped at 30), the stage recomputes unless pinned,
// onboarding becomes active on the first review, and active becomes
// certified once the manager reaches day 30 with a score of 75 or better.
func SubmitReview(data *models.AppData, review models.TrainingCallReview, now time.Time) (*models.TrainingCallReview, *models.TrainingProfile) {
	normalized := models.NormalizeTrainingCallReview(review)
	if normalized == nil {
		return nil, nil
	}
	data.Training.Reviews = append(data.Training.Reviews, *normalized)
	if len(data.Training.Reviews) > models.MaxReviews {
		data.Training.Reviews = data.Training.Reviews[len(data.Training.Reviews)-models.MaxReviews:]
	}

	profile := EnsureProfile(data, normalized.UserID, now)
	if profile.CurrentDay < models.TrainingPlanDays {
		profile.CurrentDay++
	}
	if !profile.StageOverridden {
		profile.Stage = models.StageForDay(profile.CurrentDay)
	}
	if profile.Status == models.TrainingOnboarding {
		profile.Status = models.TrainingActive
	} else if profile.Status == models.TrainingActive &&
		profile.CurrentDay >= models.TrainingPlanDays &&
		normalized.TotalScore >= models.CertificationMinScore {
		profile.Status = models.TrainingCertified
	}
	profile.Confidence = normalized.Confidence
	profile.Energy = normalized.Energy
	profile.Control = normalized.Control
	profile.UpdatedAt = models.FormatTimestamp(now)
	return normalized, profile
}
