package testdata

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func TestGenerator(t *testing.T) {
	now := time.Date(2026, 8, 30, 12, 0, 0, 0, time.UTC)
	cfg := GeneratorConfig{Managers: 3, Leads: 25, Seed: 7, BirthdayNotes: 0.5}

	t.Run("Deterministic for the same seed", func(t *testing.T) {
		usersA, dataA := NewGenerator(cfg).Document(now)
		usersB, dataB := NewGenerator(cfg).Document(now)
		assert.Equal(t, usersA, usersB)
		assert.Equal(t, dataA.Leads, dataB.Leads)
	})

	t.Run("Document shape", func(t *testing.T) {
		users, data := NewGenerator(cfg).Document(now)

		require.Len(t, users, 5) // owner + producer + 3 managers
		assert.Equal(t, models.RoleOwner, users[0].Role)
		assert.Equal(t, models.RoleProduct, users[1].Role)

		assert.Len(t, data.Leads, 25)
		for _, lead := range data.Leads {
			assert.NotEmpty(t, lead.ID)
			assert.NotEmpty(t, lead.CreatedAt)
			if lead.Status == models.LeadStatusDone {
				assert.NotEqual(t, models.OutcomePending, lead.Outcome)
				assert.NotEmpty(t, lead.CompletedAt)
			} else {
				assert.Equal(t, models.OutcomePending, lead.Outcome)
			}
			if lead.Status == models.LeadStatusNew {
				assert.Empty(t, lead.AssigneeID)
			}
		}

		assert.Equal(t, 35, data.Performance.Plans.Month.Target)
	})

	t.Run("Birthday notes feed the miner", func(t *testing.T) {
		_, data := NewGenerator(cfg).Document(now)

		withNotes := 0
		for _, lead := range data.Leads {
			if len(lead.Comments) > 0 {
				withNotes++
			}
		}
		assert.Greater(t, withNotes, 0, "half of assigned leads should carry a birthday comment")
	})
}
