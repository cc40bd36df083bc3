package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func TestPlanPatch(t *testing.T) {
	t.Run("Owner sets targets", func(t *testing.T) {
		env := newEnv(t)
		h := NewPlanHandler(env.mutator)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/api/admin/plans", `{"day":2,"month":35}`)
		require.Equal(t, http.StatusOK, rec.Code)

		var plans models.Plans
		decodeBody(t, rec, &plans)
		assert.Equal(t, 2, plans.Day.Target)
		assert.Equal(t, 0, plans.Week.Target, "untouched windows keep their value")
		assert.Equal(t, 35, plans.Month.Target)
		assert.Equal(t, ownerUser.ID, plans.Day.UpdatedByID)
		assert.Empty(t, plans.Week.UpdatedByID)
	})

	t.Run("Only the owner", func(t *testing.T) {
		env := newEnv(t)
		h := NewPlanHandler(env.mutator)

		for _, actor := range []models.User{productUser, managerUser} {
			rec := call(t, h.Patch, &actor, http.MethodPatch, "/api/admin/plans", `{"day":2}`)
			assert.Equal(t, http.StatusForbidden, rec.Code)
			assert.Equal(t, apierrors.CodeForbiddenPlans, errorCode(t, rec))
		}
		assert.Equal(t, 1, env.version(t))
	})

	t.Run("Empty patch", func(t *testing.T) {
		env := newEnv(t)
		h := NewPlanHandler(env.mutator)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/api/admin/plans", `{}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.CodeNoUpdatableFields, errorCode(t, rec))
	})
}

func TestPlanGet(t *testing.T) {
	env := newEnv(t)
	h := NewPlanHandler(env.mutator)

	call(t, h.Patch, &ownerUser, http.MethodPatch, "/api/admin/plans", `{"week":10}`)

	rec := call(t, h.Get, &managerUser, http.MethodGet, "/api/admin/plans", "")
	require.Equal(t, http.StatusOK, rec.Code)

	var plans models.Plans
	decodeBody(t, rec, &plans)
	assert.Equal(t, 10, plans.Week.Target)
}
