package export

import (
	"bytes"
	"encoding/csv"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func sampleLeads() []models.Lead {
	return []models.Lead{
		{
			ID: "ld_1", Name: "Аня", Contact: "+79123456789",
			Department: "web", Status: models.LeadStatusDone,
			Priority: models.PriorityHigh, Outcome: models.OutcomeSuccess,
			AssigneeName: "Маша", CompletedBy: "Маша",
			CreatedAt: "2026-08-01T10:00:00Z", CompletedAt: "2026-08-05T10:00:00Z",
		},
		{
			ID: "ld_2", Name: "Борис", Contact: "boris@x.com",
			Department: "unassigned", Status: models.LeadStatusNew,
			Priority: models.PriorityNormal, Outcome: models.OutcomePending,
		},
	}
}

func TestLeadsCSV(t *testing.T) {
	out, err := LeadsCSV(sampleLeads())
	require.NoError(t, err)

	records, err := csv.NewReader(bytes.NewReader(out)).ReadAll()
	require.NoError(t, err)
	require.Len(t, records, 3)
	assert.Equal(t, leadHeaders, records[0])
	assert.Equal(t, "Аня", records[1][1])
	assert.Equal(t, "Маша", records[1][7])
	assert.Equal(t, "pending", records[2][6])
}

func TestLeadsExcel(t *testing.T) {
	out, err := LeadsExcel(sampleLeads())
	require.NoError(t, err)

	f, err := excelize.OpenReader(bytes.NewReader(out))
	require.NoError(t, err)
	defer f.Close()

	rows, err := f.GetRows("Leads")
	require.NoError(t, err)
	require.Len(t, rows, 3)
	assert.Equal(t, "ID", rows[0][0])
	assert.Equal(t, "Аня", rows[1][1])
	assert.Equal(t, "Борис", rows[2][1])
}

func TestFilename(t *testing.T) {
	assert.Equal(t, "leads-20260830-120000-2.csv", Filename("csv", "20260830-120000", 2))
	assert.Equal(t, "leads-x-0.xlsx", Filename("xlsx", "x", 0))
}
