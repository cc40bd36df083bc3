package models

import "time"

// AppData is everything in the state document besides the user list.
type AppData struct {
	Leads           []Lead           `json:"leads"`
	ImportantEvents []ImportantEvent `json:"importantEvents"`
	Training        TrainingData     `json:"training"`
	Performance     PerformanceData  `json:"performance"`
}

// TrainingData holds the training module state.
type TrainingData struct {
	Profiles []TrainingProfile    `json:"profiles"`
	Reviews  []TrainingCallReview `json:"reviews"`
}

// DefaultOwner is the account repaired into documents that lost their owner.
// The password is a legacy plaintext value by design; deployments replace it
// through the users API, which stores a bcrypt hash.
func DefaultOwner() User {
	return User{
		ID:         "usr_owner",
		Username:   "owner",
		Password:   "owner",
		Name:       "Owner",
		Role:       RoleOwner,
		Department: "general",
	}
}

// NormalizeUsers repairs the user list: every record normalized, ids and
// usernames unique, and exactly one owner present. When several owners
// exist, the first keeps the role; when none exist, the first user is
// promoted, or a default owner is seeded into an empty list.
func NormalizeUsers(raw []User) []User {
	users := make([]User, 0, len(raw))
	seenID := map[string]bool{}
	seenUsername := map[string]bool{}
	for _, ru := range raw {
		u := NormalizeUser(ru)
		if u == nil || seenID[u.ID] || seenUsername[u.Username] {
			continue
		}
		seenID[u.ID] = true
		seenUsername[u.Username] = true
		users = append(users, *u)
	}
	ownerIdx := -1
	for i := range users {
		if users[i].Role != RoleOwner {
			continue
		}
		if ownerIdx == -1 {
			ownerIdx = i
			continue
		}
		users[i].Role = RoleProduct
	}
	if ownerIdx == -1 {
		if len(users) == 0 {
			users = append(users, DefaultOwner())
		} else {
			users[0].Role = RoleOwner
		}
	}
	return users
}

// NormalizeAppData repairs the data block: every entity list normalized and
// deduplicated by id, review history capped at MaxReviews (oldest dropped),
// one training profile per user.
func NormalizeAppData(raw AppData) AppData {
	out := AppData{}

	seenLead := map[string]bool{}
	out.Leads = make([]Lead, 0, len(raw.Leads))
	for _, rl := range raw.Leads {
		l := NormalizeLead(rl)
		if l == nil || seenLead[l.ID] {
			continue
		}
		seenLead[l.ID] = true
		out.Leads = append(out.Leads, *l)
	}

	seenEvent := map[string]bool{}
	out.ImportantEvents = make([]ImportantEvent, 0, len(raw.ImportantEvents))
	for _, re := range raw.ImportantEvents {
		e := NormalizeImportantEvent(re)
		if e == nil || seenEvent[e.ID] {
			continue
		}
		seenEvent[e.ID] = true
		out.ImportantEvents = append(out.ImportantEvents, *e)
	}

	seenProfile := map[string]bool{}
	out.Training.Profiles = make([]TrainingProfile, 0, len(raw.Training.Profiles))
	for _, rp := range raw.Training.Profiles {
		p := NormalizeTrainingProfile(rp)
		if p == nil || seenProfile[p.UserID] {
			continue
		}
		seenProfile[p.UserID] = true
		out.Training.Profiles = append(out.Training.Profiles, *p)
	}

	reviews := make([]TrainingCallReview, 0, len(raw.Training.Reviews))
	seenReview := map[string]bool{}
	for _, rr := range raw.Training.Reviews {
		r := NormalizeTrainingCallReview(rr)
		if r == nil || seenReview[r.ID] {
			continue
		}
		seenReview[r.ID] = true
		reviews = append(reviews, *r)
	}
	if len(reviews) > MaxReviews {
		reviews = reviews[len(reviews)-MaxReviews:]
	}
	out.Training.Reviews = reviews

	out.Performance = NormalizePerformanceData(raw.Performance)
	return out
}

// Now returns the current UTC time; split out so tests can pin it.
var Now = func() time.Time { return time.Now().UTC() }
