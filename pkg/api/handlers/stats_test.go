package handlers

import (
	"net/http"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/performance"
)

func TestStatsGet(t *testing.T) {
	ts := models.FormatTimestamp(models.Now().Add(-time.Hour))
	done := models.Lead{
		ID: "ld_closed", Name: "Клиент", Contact: "c@x.com",
		Status: models.LeadStatusDone, Outcome: models.OutcomeSuccess,
		AssigneeID: managerUser.ID, Department: "web",
		CreatedAt: ts, UpdatedAt: ts, CompletedAt: ts,
	}
	env := newEnv(t, done)
	h := NewStatsHandler(env.mutator)

	t.Run("Totals and leaderboard for the owner", func(t *testing.T) {
		rec := call(t, h.Get, &ownerUser, http.MethodGet, "/api/admin/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp StatsResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 1, resp.Totals["day"].Succeeded)
		assert.Equal(t, performance.PointsSuccess, resp.Totals["month"].Points)
		require.Len(t, resp.Managers, 2)
	})

	t.Run("Manager sees only their own row", func(t *testing.T) {
		rec := call(t, h.Get, &managerUser, http.MethodGet, "/api/admin/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp StatsResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Managers, 1)
		assert.Equal(t, managerUser.ID, resp.Managers[0].UserID)
		assert.Equal(t, performance.PointsSuccess, resp.Managers[0].Month.Points)
	})

	t.Run("Product scoped to its department", func(t *testing.T) {
		rec := call(t, h.Get, &productUser, http.MethodGet, "/api/admin/stats", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp StatsResponse
		decodeBody(t, rec, &resp)
		require.Len(t, resp.Managers, 1)
		assert.Equal(t, "web", resp.Managers[0].Department)
	})
}
