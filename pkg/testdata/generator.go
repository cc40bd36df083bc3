package testdata

import (
	"fmt"
	"math/rand"
	"time"

	"github.com/brianvoe/gofakeit/v6"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// GeneratorConfig configures workspace seed generation
type GeneratorConfig struct {
	Managers      int
	Leads         int
	Seed          int64
	BirthdayNotes float64 // 0.0-1.0 probability of a birthday mention in comments
}

// DefaultGeneratorConfig returns a config suitable for local development.
func DefaultGeneratorConfig() GeneratorConfig {
	return GeneratorConfig{
		Managers:      4,
		Leads:         40,
		Seed:          1,
		BirthdayNotes: 0.25,
	}
}

var departments = []string{
	models.DepartmentUnassigned,
	"design",
	"web",
	"branding",
}

var statuses = []string{
	models.LeadStatusNew,
	models.LeadStatusInProgress,
	models.LeadStatusInProgress,
	models.LeadStatusDone,
}

var priorities = []string{
	models.PriorityLow,
	models.PriorityNormal,
	models.PriorityNormal,
	models.PriorityHigh,
}

// Sample birthday mentions in the shape sales reps actually leave them.
var birthdayNotes = []string{
	"др жены 14.05, напомнить про скидку",
	"день рождения 3 июня не пропустить: 03.06",
	"у клиента д.р. 1990-11-23",
	"birthday of daughter 07.03.2015",
	"мама клиента, др 9.1",
}

// Generator produces fake workspace documents for seeding and demos.
type Generator struct {
	cfg  GeneratorConfig
	rand *rand.Rand
	fake *gofakeit.Faker
}

// NewGenerator creates a deterministic generator for the given config.
func NewGenerator(cfg GeneratorConfig) *Generator {
	return &Generator{
		cfg:  cfg,
		rand: rand.New(rand.NewSource(cfg.Seed)),
		fake: gofakeit.New(cfg.Seed),
	}
}

// Users generates the owner plus the configured number of managers.
func (g *Generator) Users() []models.User {
	users := []models.User{
		{
			ID:       "usr_owner",
			Username: "owner",
			Password: "owner",
			Name:     "Studio Owner",
			Role:     models.RoleOwner,
		},
		{
			ID:       "usr_product",
			Username: "producer",
			Password: "producer",
			Name:     g.fake.Name(),
			Role:     models.RoleProduct,
		},
	}

	for i := 0; i < g.cfg.Managers; i++ {
		username := fmt.Sprintf("manager%d", i+1)
		users = append(users, models.User{
			ID:         models.HashID("usr", username),
			Username:   username,
			Password:   username,
			Name:       g.fake.Name(),
			Role:       models.RoleManager,
			Department: departments[g.rand.Intn(len(departments))],
		})
	}

	return users
}

// Leads generates leads spread over the past 45 days, assigned to the
// given users, with occasional birthday mentions in comments.
func (g *Generator) Leads(users []models.User, now time.Time) []models.Lead {
	managers := make([]models.User, 0, len(users))
	for _, u := range users {
		if u.Role == models.RoleManager {
			managers = append(managers, u)
		}
	}

	leads := make([]models.Lead, 0, g.cfg.Leads)
	for i := 0; i < g.cfg.Leads; i++ {
		createdAt := now.Add(-time.Duration(g.rand.Intn(45*24)) * time.Hour)
		status := statuses[g.rand.Intn(len(statuses))]

		lead := models.Lead{
			ID:         fmt.Sprintf("lead_seed_%03d", i+1),
			Name:       g.fake.Name(),
			Contact:    g.fake.Phone(),
			Message:    g.fake.Sentence(8),
			Department: departments[g.rand.Intn(len(departments))],
			Status:     status,
			Priority:   priorities[g.rand.Intn(len(priorities))],
			CreatedAt:  models.FormatTimestamp(createdAt),
			UpdatedAt:  models.FormatTimestamp(createdAt),
		}

		if len(managers) > 0 && status != models.LeadStatusNew {
			m := managers[g.rand.Intn(len(managers))]
			lead.AssigneeID = m.ID
			lead.AssigneeName = m.Name
		}

		if status == models.LeadStatusDone {
			completedAt := createdAt.Add(time.Duration(1+g.rand.Intn(72)) * time.Hour)
			lead.CompletedAt = models.FormatTimestamp(completedAt)
			lead.UpdatedAt = lead.CompletedAt
			if g.rand.Float64() < 0.6 {
				lead.Outcome = models.OutcomeSuccess
			} else {
				lead.Outcome = models.OutcomeFailure
			}
			if lead.AssigneeID != "" {
				lead.CompletedByID = lead.AssigneeID
				lead.CompletedBy = lead.AssigneeName
			}
		}

		if lead.AssigneeID != "" && g.rand.Float64() < g.cfg.BirthdayNotes {
			lead.Comments = append(lead.Comments, models.Comment{
				AuthorID:   lead.AssigneeID,
				AuthorName: lead.AssigneeName,
				Text:       birthdayNotes[g.rand.Intn(len(birthdayNotes))],
				CreatedAt:  models.FormatTimestamp(createdAt.Add(time.Hour)),
			})
		}

		leads = append(leads, lead)
	}

	return leads
}

// Document generates a complete normalized workspace document.
func (g *Generator) Document(now time.Time) (users []models.User, data models.AppData) {
	users = g.Users()
	data.Leads = g.Leads(users, now)
	data.Performance.Plans = models.Plans{
		Day:   models.PlanTarget{Target: 2},
		Week:  models.PlanTarget{Target: 10},
		Month: models.PlanTarget{Target: 35},
	}

	users = models.NormalizeUsers(users)
	data = models.NormalizeAppData(data)
	return users, data
}
