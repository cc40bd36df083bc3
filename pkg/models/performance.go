package models

// PlanTarget is an owner-set numeric goal for one rolling window.
type PlanTarget struct {
	Target        int    `json:"target"`
	UpdatedAt     string `json:"updatedAt"`
	UpdatedByID   string `json:"updatedById"`
	UpdatedByName string `json:"updatedByName"`
}

// Plans holds the success targets for the three rolling windows.
type Plans struct {
	Day   PlanTarget `json:"day"`
	Week  PlanTarget `json:"week"`
	Month PlanTarget `json:"month"`
}

// PerformanceData groups plan targets with training gating.
type PerformanceData struct {
	Plans               Plans                `json:"plans"`
	TrainingAssignments []TrainingAssignment `json:"trainingAssignments"`
}

func normalizePlanTarget(raw PlanTarget) PlanTarget {
	return PlanTarget{
		Target:        clampInt(raw.Target, 0, 1000000),
		UpdatedAt:     normalizeTimestamp(raw.UpdatedAt),
		UpdatedByID:   trimMax(raw.UpdatedByID, 80),
		UpdatedByName: trimMax(raw.UpdatedByName, maxNameLen),
	}
}

// NormalizePerformanceData coerces the performance block, deduplicating
// training assignments by user id (last one wins).
func NormalizePerformanceData(raw PerformanceData) PerformanceData {
	out := PerformanceData{
		Plans: Plans{
			Day:   normalizePlanTarget(raw.Plans.Day),
			Week:  normalizePlanTarget(raw.Plans.Week),
			Month: normalizePlanTarget(raw.Plans.Month),
		},
	}
	byUser := map[string]int{}
	assignments := make([]TrainingAssignment, 0, len(raw.TrainingAssignments))
	for _, ra := range raw.TrainingAssignments {
		a := NormalizeTrainingAssignment(ra)
		if a == nil {
			continue
		}
		if idx, ok := byUser[a.UserID]; ok {
			assignments[idx] = *a
			continue
		}
		byUser[a.UserID] = len(assignments)
		assignments = append(assignments, *a)
	}
	out.TrainingAssignments = assignments
	return out
}
