package handlers

import (
	"net/http"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apierrors "github.com/lumeo-studio/workspace-api/pkg/api/errors"
	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func newLeadHandler(env *testEnv) *LeadHandler {
	return NewLeadHandler(env.mutator, nil, nil, nil)
}

func TestLeadSubmit(t *testing.T) {
	t.Run("Valid submission lands in the intake queue", func(t *testing.T) {
		env := newEnv(t)
		h := newLeadHandler(env)

		rec := call(t, h.Submit, nil, http.MethodPost, "/api/leads",
			`{"name":"Аня","contact":"8 (912) 345-67-89","type":"landing","message":"нужен сайт, др жены 14.05"}`)
		require.Equal(t, http.StatusCreated, rec.Code)

		var lead models.Lead
		decodeBody(t, rec, &lead)
		assert.Equal(t, models.LeadStatusNew, lead.Status)
		assert.Equal(t, models.DepartmentUnassigned, lead.Department)
		assert.Equal(t, models.PriorityNormal, lead.Priority)
		assert.Equal(t, models.OutcomePending, lead.Outcome)
		assert.Equal(t, "+79123456789", lead.Contact)
		assert.NotEmpty(t, lead.ID)

		doc := env.snapshot(t)
		require.Len(t, doc.Data.Leads, 1)
		// The birthday note in the message was mined on the same commit.
		require.Len(t, doc.Data.ImportantEvents, 1)
		assert.Equal(t, "wife", doc.Data.ImportantEvents[0].Relation)
	})

	t.Run("Missing fields map to precise codes", func(t *testing.T) {
		env := newEnv(t)
		h := newLeadHandler(env)

		rec := call(t, h.Submit, nil, http.MethodPost, "/api/leads", `{"contact":"a@b.com"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.CodeNameRequired, errorCode(t, rec))

		rec = call(t, h.Submit, nil, http.MethodPost, "/api/leads", `{"name":"Аня"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.CodeContactRequired, errorCode(t, rec))

		assert.Equal(t, 1, env.version(t), "rejected submissions must not write")
	})
}

func TestLeadList(t *testing.T) {
	env := newEnv(t, seedLeads()...)
	h := newLeadHandler(env)

	t.Run("Newest first with pagination", func(t *testing.T) {
		rec := call(t, h.List, &managerUser, http.MethodGet, "/api/admin/leads?limit=2", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListResponse
		decodeBody(t, rec, &resp)
		assert.Equal(t, 3, resp.Total)
		require.Len(t, resp.Leads, 2)
		assert.Equal(t, "ld_done", resp.Leads[0].ID)
		assert.Equal(t, "ld_mine", resp.Leads[1].ID)
	})

	t.Run("Offset past the end returns empty", func(t *testing.T) {
		rec := call(t, h.List, &managerUser, http.MethodGet, "/api/admin/leads?offset=10", "")
		require.Equal(t, http.StatusOK, rec.Code)

		var resp ListResponse
		decodeBody(t, rec, &resp)
		assert.Empty(t, resp.Leads)
		assert.Equal(t, 3, resp.Total)
	})
}

func TestLeadGet(t *testing.T) {
	env := newEnv(t, seedLeads()...)
	h := newLeadHandler(env)

	rec := call(t, h.Get, &managerUser, http.MethodGet, "/", "", "id", "ld_mine")
	require.Equal(t, http.StatusOK, rec.Code)

	var lead models.Lead
	decodeBody(t, rec, &lead)
	assert.Equal(t, "Мой клиент", lead.Name)

	rec = call(t, h.Get, &managerUser, http.MethodGet, "/", "", "id", "ld_missing")
	assert.Equal(t, http.StatusNotFound, rec.Code)
	assert.Equal(t, apierrors.CodeLeadNotFound, errorCode(t, rec))
}

func TestLeadPatch(t *testing.T) {
	t.Run("Empty patch is rejected", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/", `{}`, "id", "ld_new")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.CodeNoUpdatableFields, errorCode(t, rec))
	})

	t.Run("Manager cannot touch departments", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &managerUser, http.MethodPatch, "/", `{"department":"web"}`, "id", "ld_new")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenDepartment, errorCode(t, rec))
		assert.Equal(t, 1, env.version(t), "denied patches must not write")
	})

	t.Run("Manager takes an unassigned lead", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &managerUser, http.MethodPatch, "/", `{"assigneeId":"usr_masha"}`, "id", "ld_new")
		require.Equal(t, http.StatusOK, rec.Code)

		var lead models.Lead
		decodeBody(t, rec, &lead)
		assert.Equal(t, managerUser.ID, lead.AssigneeID)
		assert.Equal(t, managerUser.Name, lead.AssigneeName)
		assert.Equal(t, 2, env.version(t))
	})

	t.Run("Manager cannot claim someone else's lead", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &managerOther, http.MethodPatch, "/", `{"assigneeId":"usr_kirill"}`, "id", "ld_mine")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenAssign, errorCode(t, rec))
	})

	t.Run("Product assigns only inside its department", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &productUser, http.MethodPatch, "/", `{"assigneeId":"usr_masha"}`, "id", "ld_new")
		assert.Equal(t, http.StatusOK, rec.Code)

		rec = call(t, h.Patch, &productUser, http.MethodPatch, "/", `{"assigneeId":"usr_kirill"}`, "id", "ld_new")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenAssign, errorCode(t, rec))
	})

	t.Run("Unknown assignee is a 404", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/", `{"assigneeId":"usr_ghost"}`, "id", "ld_new")
		assert.Equal(t, http.StatusNotFound, rec.Code)
		assert.Equal(t, apierrors.CodeUserNotFound, errorCode(t, rec))
	})

	t.Run("Closing a lead stamps the completion audit", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/", `{"status":"done","outcome":"success"}`, "id", "ld_mine")
		require.Equal(t, http.StatusOK, rec.Code)

		var lead models.Lead
		decodeBody(t, rec, &lead)
		assert.Equal(t, models.LeadStatusDone, lead.Status)
		assert.Equal(t, models.OutcomeSuccess, lead.Outcome)
		assert.Equal(t, ownerUser.ID, lead.CompletedByID)
		assert.Equal(t, ownerUser.Name, lead.CompletedBy)
		assert.NotEmpty(t, lead.CompletedAt)
	})

	t.Run("Reopening clears completion and outcome", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &ownerUser, http.MethodPatch, "/", `{"status":"in_progress"}`, "id", "ld_done")
		require.Equal(t, http.StatusOK, rec.Code)

		var lead models.Lead
		decodeBody(t, rec, &lead)
		assert.Equal(t, models.LeadStatusInProgress, lead.Status)
		assert.Equal(t, models.OutcomePending, lead.Outcome)
		assert.Empty(t, lead.CompletedAt)
		assert.Empty(t, lead.CompletedByID)
	})

	t.Run("Manager cannot push their lead back to the queue", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &managerUser, http.MethodPatch, "/", `{"status":"new"}`, "id", "ld_mine")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenStatus, errorCode(t, rec))
	})

	t.Run("Manager cannot update someone else's status", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Patch, &managerOther, http.MethodPatch, "/", `{"status":"in_progress"}`, "id", "ld_mine")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenStatus, errorCode(t, rec))
	})
}

func TestLeadDelete(t *testing.T) {
	t.Run("Managers cannot delete", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Delete, &managerUser, http.MethodDelete, "/", "", "id", "ld_new")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbidden, errorCode(t, rec))
	})

	t.Run("Done leads are immutable for deletion", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Delete, &ownerUser, http.MethodDelete, "/", "", "id", "ld_done")
		assert.Equal(t, http.StatusForbidden, rec.Code)
		assert.Equal(t, apierrors.CodeForbiddenDeleteStatus, errorCode(t, rec))
		assert.Equal(t, 1, env.version(t))
	})

	t.Run("Owner removes an open lead", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.Delete, &ownerUser, http.MethodDelete, "/", "", "id", "ld_new")
		require.Equal(t, http.StatusOK, rec.Code)

		doc := env.snapshot(t)
		assert.Len(t, doc.Data.Leads, 2)
		assert.Nil(t, findLead(doc, "ld_new"))
	})
}

func TestLeadAddComment(t *testing.T) {
	t.Run("Empty text is rejected", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.AddComment, &managerUser, http.MethodPost, "/", `{"text":"   "}`, "id", "ld_mine")
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, apierrors.CodeTextRequired, errorCode(t, rec))
	})

	t.Run("Comment carries the author audit", func(t *testing.T) {
		env := newEnv(t, seedLeads()...)
		h := newLeadHandler(env)

		rec := call(t, h.AddComment, &managerUser, http.MethodPost, "/", `{"text":"перезвонить завтра"}`, "id", "ld_mine")
		require.Equal(t, http.StatusCreated, rec.Code)

		var lead models.Lead
		decodeBody(t, rec, &lead)
		require.Len(t, lead.Comments, 1)
		assert.Equal(t, "перезвонить завтра", lead.Comments[0].Text)
		assert.Equal(t, managerUser.ID, lead.Comments[0].AuthorID)
		assert.Equal(t, managerUser.Role, lead.Comments[0].AuthorRole)
		assert.NotEmpty(t, lead.Comments[0].ID)
	})
}
