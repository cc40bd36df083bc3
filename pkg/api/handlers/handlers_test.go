package handlers

import (
	"context"
	"encoding/json"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/labstack/echo/v4"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
	"github.com/lumeo-studio/workspace-api/pkg/store"
)

// Fixture accounts covering every role/department combination the
// capability predicates branch on.
var (
	ownerUser    = models.User{ID: "usr_owner", Username: "olga", Password: "owner-pass", Name: "Ольга", Role: models.RoleOwner, Department: "general"}
	productUser  = models.User{ID: "usr_product", Username: "pavel", Password: "pw", Name: "Павел", Role: models.RoleProduct, Department: "web"}
	managerUser  = models.User{ID: "usr_masha", Username: "masha", Password: "pw", Name: "Маша", Role: models.RoleManager, Department: "web"}
	managerOther = models.User{ID: "usr_kirill", Username: "kirill", Password: "pw", Name: "Кирилл", Role: models.RoleManager, Department: "smm"}
)

type testEnv struct {
	adapter *store.MemoryAdapter
	mutator *store.Mutator
}

func newEnv(t *testing.T, leads ...models.Lead) *testEnv {
	t.Helper()
	adapter := store.NewMemoryAdapter()
	users := []models.User{ownerUser, productUser, managerUser, managerOther}
	committed, err := adapter.TrySave(context.Background(), 0, users, models.AppData{Leads: leads})
	require.NoError(t, err)
	require.True(t, committed)
	return &testEnv{adapter: adapter, mutator: store.NewMutator(adapter)}
}

func (env *testEnv) version(t *testing.T) int {
	t.Helper()
	doc, err := env.adapter.Load(context.Background())
	require.NoError(t, err)
	return doc.Version
}

func (env *testEnv) snapshot(t *testing.T) *store.Document {
	t.Helper()
	doc, err := env.mutator.Snapshot(context.Background())
	require.NoError(t, err)
	return doc
}

// call runs one handler against a synthetic request. The actor lands in the
// context the same way the bearer middleware would place it.
func call(t *testing.T, h echo.HandlerFunc, actor *models.User, method, target, body string, params ...string) *httptest.ResponseRecorder {
	t.Helper()
	e := echo.New()
	req := httptest.NewRequest(method, target, strings.NewReader(body))
	if body != "" {
		req.Header.Set(echo.HeaderContentType, echo.MIMEApplicationJSON)
	}
	rec := httptest.NewRecorder()
	c := e.NewContext(req, rec)
	if actor != nil {
		c.Set("actor", *actor)
	}
	var names, values []string
	for i := 0; i+1 < len(params); i += 2 {
		names = append(names, params[i])
		values = append(values, params[i+1])
	}
	if len(names) > 0 {
		c.SetParamNames(names...)
		c.SetParamValues(values...)
	}
	require.NoError(t, h(c))
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder, v interface{}) {
	t.Helper()
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), v))
}

func errorCode(t *testing.T, rec *httptest.ResponseRecorder) string {
	t.Helper()
	var body models.ErrorResponse
	decodeBody(t, rec, &body)
	return body.Error
}

// Seed leads used across the lead endpoint tests.
func seedLeads() []models.Lead {
	return []models.Lead{
		{
			ID: "ld_new", Name: "Новый клиент", Contact: "new@client.com",
			Status: models.LeadStatusNew, Department: models.DepartmentUnassigned,
			Priority: models.PriorityNormal, Outcome: models.OutcomePending,
			CreatedAt: "2026-08-01T10:00:00Z", UpdatedAt: "2026-08-01T10:00:00Z",
		},
		{
			ID: "ld_mine", Name: "Мой клиент", Contact: "mine@client.com",
			Status: models.LeadStatusInProgress, Department: "web",
			AssigneeID: managerUser.ID, AssigneeName: managerUser.Name,
			Priority: models.PriorityNormal, Outcome: models.OutcomePending,
			CreatedAt: "2026-08-02T10:00:00Z", UpdatedAt: "2026-08-02T10:00:00Z",
		},
		{
			ID: "ld_done", Name: "Закрытый клиент", Contact: "done@client.com",
			Status: models.LeadStatusDone, Department: "smm",
			AssigneeID: managerOther.ID, AssigneeName: managerOther.Name,
			Priority: models.PriorityNormal, Outcome: models.OutcomeSuccess,
			CreatedAt: "2026-08-03T10:00:00Z", UpdatedAt: "2026-08-03T10:00:00Z",
			CompletedAt: "2026-08-04T10:00:00Z", CompletedByID: managerOther.ID, CompletedBy: managerOther.Name,
		},
	}
}
