// Package performance computes rolling-window sales stats, points, plan
// completion and the manager leaderboard. Everything here is derived on
// demand from the state document; nothing is persisted.
package performance

import (
	"math"
	"sort"
	"time"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Sliding window sizes. Simple windows anchored at now, not calendar-aligned.
const (
	WindowDay   = 24 * time.Hour
	WindowWeek  = 7 * 24 * time.Hour
	WindowMonth = 30 * 24 * time.Hour
)

// Points per completed lead.
const (
	PointsSuccess = 6
	PointsFailure = 2
)

// WindowStats are the counters for one rolling window.
type WindowStats struct {
	Created   int `json:"created"`
	Processed int `json:"processed"`
	Succeeded int `json:"succeeded"`
	Failed    int `json:"failed"`
	Points    int `json:"points"`
}

// ManagerRow is one manager's aggregated performance.
type ManagerRow struct {
	UserID     string      `json:"userId"`
	Name       string      `json:"name"`
	Department string      `json:"department"`
	Day        WindowStats `json:"day"`
	Week       WindowStats `json:"week"`
	Month      WindowStats `json:"month"`
	Rank       int         `json:"rank"`
}

// PlanRow reports completion against one owner-set target.
type PlanRow struct {
	Target            int     `json:"target"`
	Succeeded         int     `json:"succeeded"`
	CompletionPercent float64 `json:"completionPercent"`
}

// Summary is the aggregate performance report.
type Summary struct {
	Totals   map[string]WindowStats `json:"totals"`
	Plans    map[string]PlanRow     `json:"plans"`
	Managers []ManagerRow           `json:"managers"`
}

var nameCollator = collate.New(language.Russian, collate.IgnoreCase)

// completionTime picks the timestamp a lead counts under: completedAt,
// falling back to updatedAt, falling back to createdAt.
func completionTime(lead models.Lead) time.Time {
	for _, s := range []string{lead.CompletedAt, lead.UpdatedAt, lead.CreatedAt} {
		if t := models.ParseTimestamp(s); !t.IsZero() {
			return t
		}
	}
	return time.Time{}
}

// Points scores one lead: 6 for a successful close, 2 for a failed one,
// 0 while the lead is still open.
func Points(lead models.Lead) int {
	if lead.Status != models.LeadStatusDone {
		return 0
	}
	switch lead.Outcome {
	case models.OutcomeSuccess:
		return PointsSuccess
	case models.OutcomeFailure:
		return PointsFailure
	default:
		return 0
	}
}

func inWindow(t, now time.Time, window time.Duration) bool {
	if t.IsZero() {
		return false
	}
	return !t.Before(now.Add(-window)) && !t.After(now)
}

func windowStats(leads []models.Lead, now time.Time, window time.Duration) WindowStats {
	var s WindowStats
	for _, l := range leads {
		if created := models.ParseTimestamp(l.CreatedAt); inWindow(created, now, window) {
			s.Created++
		}
		if l.Status != models.LeadStatusDone {
			continue
		}
		if !inWindow(completionTime(l), now, window) {
			continue
		}
		s.Processed++
		switch l.Outcome {
		case models.OutcomeSuccess:
			s.Succeeded++
		case models.OutcomeFailure:
			s.Failed++
		}
		s.Points += Points(l)
	}
	return s
}

// PlanCompletionPercent computes success against target, rounded to one
// decimal place. A zero target reports zero.
func PlanCompletionPercent(succeeded, target int) float64 {
	if target <= 0 {
		return 0
	}
	return math.Round(float64(succeeded)/float64(target)*1000) / 10
}

// Compute aggregates the full performance summary for the given leads,
// users and plan targets.
func Compute(leads []models.Lead, users []models.User, plans models.Plans, now time.Time) Summary {
	now = now.UTC()
	totals := map[string]WindowStats{
		"day":   windowStats(leads, now, WindowDay),
		"week":  windowStats(leads, now, WindowWeek),
		"month": windowStats(leads, now, WindowMonth),
	}

	planRows := map[string]PlanRow{
		"day":   {Target: plans.Day.Target, Succeeded: totals["day"].Succeeded},
		"week":  {Target: plans.Week.Target, Succeeded: totals["week"].Succeeded},
		"month": {Target: plans.Month.Target, Succeeded: totals["month"].Succeeded},
	}
	for k, row := range planRows {
		row.CompletionPercent = PlanCompletionPercent(row.Succeeded, row.Target)
		planRows[k] = row
	}

	var managers []ManagerRow
	for _, u := range users {
		if u.Role != models.RoleManager {
			continue
		}
		var own []models.Lead
		for _, l := range leads {
			if l.AssigneeID == u.ID {
				own = append(own, l)
			}
		}
		managers = append(managers, ManagerRow{
			UserID:     u.ID,
			Name:       u.Name,
			Department: u.Department,
			Day:        windowStats(own, now, WindowDay),
			Week:       windowStats(own, now, WindowWeek),
			Month:      windowStats(own, now, WindowMonth),
		})
	}
	RankManagers(managers)

	return Summary{Totals: totals, Plans: planRows, Managers: managers}
}

// RankManagers orders rows by month points desc, month successes desc, then
// locale-aware name collation, and stamps 1-based ranks.
func RankManagers(rows []ManagerRow) {
	sort.SliceStable(rows, func(i, j int) bool {
		a, b := rows[i], rows[j]
		if a.Month.Points != b.Month.Points {
			return a.Month.Points > b.Month.Points
		}
		if a.Month.Succeeded != b.Month.Succeeded {
			return a.Month.Succeeded > b.Month.Succeeded
		}
		return nameCollator.CompareString(a.Name, b.Name) < 0
	})
	for i := range rows {
		rows[i].Rank = i + 1
	}
}

// Leaderboard projects the ranked rows for the caller's visibility scope:
// owner sees everything, product its own department, a manager only their
// own row. Ranks keep their global values.
func Leaderboard(rows []ManagerRow, actor models.User) []ManagerRow {
	switch actor.Role {
	case models.RoleOwner:
		return rows
	case models.RoleProduct:
		var out []ManagerRow
		for _, r := range rows {
			if r.Department == actor.Department {
				out = append(out, r)
			}
		}
		return out
	default:
		for _, r := range rows {
			if r.UserID == actor.ID {
				return []ManagerRow{r}
			}
		}
		return nil
	}
}
