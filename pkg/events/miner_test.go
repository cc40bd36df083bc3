package events

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

func TestMineLead(t *testing.T) {
	t.Run("Russian note with relation and classic date", func(t *testing.T) {
		lead := models.Lead{ID: "ld_1", Name: "Иван", Contact: "+79001234567", InternalNote: "ДР жены 14.05, напомнить"}
		mined := MineLead(lead)
		require.Len(t, mined, 1)
		assert.Equal(t, "wife", mined[0].Relation)
		assert.Equal(t, "05-14", mined[0].MonthDay)
		assert.Empty(t, mined[0].EventDate)
		assert.Equal(t, models.EventSourceAuto, mined[0].Source)
		assert.Equal(t, "ld_1", mined[0].LeadID)
		assert.Equal(t, "Иван", mined[0].ClientName)
	})

	t.Run("ISO date keeps the year", func(t *testing.T) {
		lead := models.Lead{ID: "ld_2", Name: "A", Contact: "c", Message: "у клиента д.р. 1990-11-23"}
		mined := MineLead(lead)
		require.Len(t, mined, 1)
		assert.Equal(t, "client", mined[0].Relation)
		assert.Equal(t, "1990-11-23", mined[0].EventDate)
		assert.Equal(t, "11-23", mined[0].MonthDay)
	})

	t.Run("Deterministic ids across rescans", func(t *testing.T) {
		lead := models.Lead{ID: "ld_3", Name: "A", Contact: "c", Message: "birthday мамы 05.03.85"}
		first := MineLead(lead)
		second := MineLead(lead)
		require.Len(t, first, 1)
		require.Equal(t, len(first), len(second))
		assert.Equal(t, first[0].ID, second[0].ID)
		assert.Equal(t, "mother", first[0].Relation)
		assert.Equal(t, "1985-03-05", first[0].EventDate)
	})

	t.Run("Bare др does not fire inside words", func(t *testing.T) {
		lead := models.Lead{ID: "ld_4", Name: "A", Contact: "c", Message: "другой адрес 12.06, уточнить"}
		assert.Empty(t, MineLead(lead))
	})

	t.Run("Mention without a date is dropped", func(t *testing.T) {
		lead := models.Lead{ID: "ld_5", Name: "A", Contact: "c", Message: "спросить про день рождения"}
		assert.Empty(t, MineLead(lead))
	})

	t.Run("Comments are scanned too", func(t *testing.T) {
		lead := models.Lead{
			ID: "ld_6", Name: "A", Contact: "c",
			Comments: []models.Comment{{Text: "др дочери 01.09"}},
		}
		mined := MineLead(lead)
		require.Len(t, mined, 1)
		assert.Equal(t, "daughter", mined[0].Relation)
		assert.Equal(t, "09-01", mined[0].MonthDay)
	})
}

func TestFindDateToken(t *testing.T) {
	t.Run("Two-digit years split around 40", func(t *testing.T) {
		d := findDateToken("14.05.85")
		require.NotNil(t, d)
		assert.Equal(t, 1985, d.Year)

		d = findDateToken("14.05.05")
		require.NotNil(t, d)
		assert.Equal(t, 2005, d.Year)
	})

	t.Run("Glued digits rejected", func(t *testing.T) {
		assert.Nil(t, findDateToken("10.0.0.1"))
		assert.Nil(t, findDateToken("v2.14.05"))
	})

	t.Run("Impossible dates rejected", func(t *testing.T) {
		assert.Nil(t, findDateToken("32.01"))
		assert.Nil(t, findDateToken("30.02.1990"))
	})

	t.Run("Feb 29 without a year survives", func(t *testing.T) {
		d := findDateToken("29.02")
		require.NotNil(t, d)
		assert.Equal(t, 2, d.Month)
		assert.Equal(t, 29, d.Day)
	})
}

func TestNextOccurrence(t *testing.T) {
	today := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)

	t.Run("Same year when still ahead", func(t *testing.T) {
		got := NextOccurrence(5, 14, today)
		assert.Equal(t, "2026-05-14", got.Format("2006-01-02"))
	})

	t.Run("Today counts as the next occurrence", func(t *testing.T) {
		got := NextOccurrence(3, 1, today)
		assert.Equal(t, "2026-03-01", got.Format("2006-01-02"))
	})

	t.Run("Past dates roll to next year", func(t *testing.T) {
		got := NextOccurrence(1, 10, today)
		assert.Equal(t, "2027-01-10", got.Format("2006-01-02"))
	})

	t.Run("Feb 29 folds to Feb 28 on non-leap years", func(t *testing.T) {
		got := NextOccurrence(2, 29, today)
		assert.Equal(t, "2027-02-28", got.Format("2006-01-02"))

		leap := NextOccurrence(2, 29, time.Date(2028, 1, 1, 0, 0, 0, 0, time.UTC))
		assert.Equal(t, "2028-02-29", leap.Format("2006-01-02"))
	})
}

func TestBucket(t *testing.T) {
	today := time.Date(2026, 8, 30, 9, 30, 0, 0, time.UTC)

	assert.Equal(t, BucketOverdue, Bucket("2026-08-29", today))
	assert.Equal(t, BucketSoon, Bucket("2026-08-30", today))
	assert.Equal(t, BucketSoon, Bucket("2026-09-06", today))
	assert.Equal(t, BucketUpcoming, Bucket("2026-09-07", today))
	assert.Equal(t, BucketNoDate, Bucket("", today))
	assert.Equal(t, BucketNoDate, Bucket("not-a-date", today))
}

func TestSync(t *testing.T) {
	t1 := time.Date(2026, 4, 1, 10, 0, 0, 0, time.UTC)
	t2 := time.Date(2026, 4, 2, 10, 0, 0, 0, time.UTC)

	t.Run("Auto set replaced, createdAt survives", func(t *testing.T) {
		data := models.AppData{
			Leads: []models.Lead{{ID: "ld_1", Name: "A", Contact: "c", InternalNote: "др жены 14.05"}},
		}
		Sync(&data, t1)
		require.Len(t, data.ImportantEvents, 1)
		created := data.ImportantEvents[0].CreatedAt
		assert.Equal(t, "2026-05-14", data.ImportantEvents[0].NextOccurrence)

		Sync(&data, t2)
		require.Len(t, data.ImportantEvents, 1)
		assert.Equal(t, created, data.ImportantEvents[0].CreatedAt)
		assert.Equal(t, models.FormatTimestamp(t2), data.ImportantEvents[0].UpdatedAt)
	})

	t.Run("Stale auto events disappear with their text", func(t *testing.T) {
		data := models.AppData{
			Leads: []models.Lead{{ID: "ld_1", Name: "A", Contact: "c", InternalNote: "др жены 14.05"}},
		}
		Sync(&data, t1)
		require.Len(t, data.ImportantEvents, 1)

		data.Leads[0].InternalNote = ""
		Sync(&data, t1)
		assert.Empty(t, data.ImportantEvents)
	})

	t.Run("Manual events untouched except the occurrence", func(t *testing.T) {
		data := models.AppData{
			ImportantEvents: []models.ImportantEvent{{
				ID:        "evt_manual",
				Title:     "Контракт год",
				MonthDay:  "04-10",
				Source:    models.EventSourceManual,
				CreatedAt: models.FormatTimestamp(t1),
			}},
		}
		Sync(&data, t1)
		require.Len(t, data.ImportantEvents, 1)
		assert.Equal(t, "evt_manual", data.ImportantEvents[0].ID)
		assert.Equal(t, "Контракт год", data.ImportantEvents[0].Title)
		assert.Equal(t, "2026-04-10", data.ImportantEvents[0].NextOccurrence)
	})

	t.Run("Events sorted by next occurrence", func(t *testing.T) {
		data := models.AppData{
			Leads: []models.Lead{
				{ID: "ld_a", Name: "A", Contact: "c", InternalNote: "др мужа 20.12"},
				{ID: "ld_b", Name: "B", Contact: "c", InternalNote: "др сына 05.04"},
			},
		}
		Sync(&data, t1)
		require.Len(t, data.ImportantEvents, 2)
		assert.Equal(t, "son", data.ImportantEvents[0].Relation)
		assert.Equal(t, "husband", data.ImportantEvents[1].Relation)
	})
}
