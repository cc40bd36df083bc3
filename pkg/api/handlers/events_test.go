package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/events"
	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func TestEventList(t *testing.T) {
	withNote := models.Lead{
		ID: "ld_bday", Name: "Иван", Contact: "ivan@x.com",
		Status: models.LeadStatusNew, InternalNote: "др дочери 14.05",
		CreatedAt: "2026-08-01T10:00:00Z",
	}
	env := newEnv(t, withNote)
	h := NewEventHandler(env.mutator, nil)

	t.Run("Mined events come back bucketed", func(t *testing.T) {
		rec := call(t, h.List, &ownerUser, http.MethodGet, "/api/admin/events", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp EventsResponse
		decodeBody(t, rec, &resp)
		require.Equal(t, 1, resp.Total)
		assert.Equal(t, "daughter", resp.Events[0].Relation)
		assert.Equal(t, "05-14", resp.Events[0].MonthDay)
		assert.NotEqual(t, events.BucketNoDate, resp.Events[0].Bucket)
		assert.NotEmpty(t, resp.Events[0].NextOccurrence)
	})

	t.Run("Reads never persist the recompute", func(t *testing.T) {
		call(t, h.List, &ownerUser, http.MethodGet, "/api/admin/events", "")
		assert.Equal(t, 1, env.version(t))
	})

	t.Run("Scope filters by bucket", func(t *testing.T) {
		rec := call(t, h.List, &ownerUser, http.MethodGet, "/api/admin/events?scope=no_date", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp EventsResponse
		decodeBody(t, rec, &resp)
		assert.Zero(t, resp.Total)
	})
}
