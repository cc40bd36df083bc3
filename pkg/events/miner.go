// Package events mines important client dates out of lead free text and
// keeps the derived ("auto") event set in sync with the manually entered
// one. The miner is deterministic: re-scanning unchanged text reproduces
// the exact same event ids.
package events

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
	"time"
	"unicode"

	"github.com/lumeo-studio/workspace-api/pkg/models"
)

// Context window around a keyword hit, in runes.
const (
	contextBefore = 32
	contextAfter  = 96
)

// birthdayKeyword matches the folded (lowercase, ё→е) text. The bare "др"
// alternative additionally requires letter boundaries, checked in scan.
var birthdayKeyword = regexp.MustCompile(`день рождени[а-я]*|д\.\s?р\.?|birthday|b-day|bday|др`)

// relationTable is ordered: the first entry with a keyword present in the
// context wins. Keywords are matched against folded text.
var relationTable = []struct {
	relation string
	keywords []string
}{
	{"wife", []string{"жена", "жены", "жене", "жену", "супруга", "супруги", "wife"}},
	{"husband", []string{"муж", "мужа", "мужу", "супруг", "husband"}},
	{"daughter", []string{"дочь", "дочери", "дочк", "daughter"}},
	{"son", []string{"сын", "сына", "сыну", "son"}},
	{"mother", []string{"мама", "мамы", "маме", "мать", "матери", "mother", "mom"}},
	{"father", []string{"папа", "папы", "папе", "отец", "отца", "father", "dad"}},
	{"sister", []string{"сестра", "сестры", "сестре", "sister"}},
	{"brother", []string{"брат", "брата", "брату", "brother"}},
	{"grandmother", []string{"бабушка", "бабушки", "бабушке", "grandmother"}},
	{"grandfather", []string{"дедушка", "дедушки", "дедушке", "grandfather"}},
	{"friend", []string{"друг", "друга", "подруга", "подруги", "friend"}},
	{"colleague", []string{"коллега", "коллеги", "colleague"}},
	{"partner", []string{"партнер", "partner"}},
}

// DefaultRelation is used when no familial keyword matches.
const DefaultRelation = "client"

// fold lowercases and collapses ё→е so keyword matching ignores both case
// and the ё/е spelling split.
func fold(s string) string {
	s = strings.ToLower(s)
	return strings.ReplaceAll(s, "ё", "е")
}

// leadText concatenates every free-text surface of a lead the miner scans.
func leadText(lead models.Lead) string {
	parts := []string{lead.Message, lead.InternalNote, lead.Contact, lead.Name}
	for _, c := range lead.Comments {
		parts = append(parts, c.Text)
	}
	return strings.Join(parts, " \n ")
}

// MineLead extracts birthday events from one lead's text. Fields that
// depend on the clock (nextOccurrence, createdAt, updatedAt) are filled by
// Sync; this function only derives the stable content.
func MineLead(lead models.Lead) []models.ImportantEvent {
	text := fold(leadText(lead))
	runes := []rune(text)
	var out []models.ImportantEvent

	occurrence := 0
	for _, m := range birthdayKeyword.FindAllStringIndex(text, -1) {
		if !keywordBoundariesOK(text, m[0], m[1]) {
			continue
		}
		start := runeIndex(text, m[0])
		end := runeIndex(text, m[1])
		ctxStart := start - contextBefore
		if ctxStart < 0 {
			ctxStart = 0
		}
		ctxEnd := end + contextAfter
		if ctxEnd > len(runes) {
			ctxEnd = len(runes)
		}
		context := string(runes[ctxStart:ctxEnd])

		date := findDateToken(context)
		if date == nil {
			date = findDateToken(text)
		}
		if date == nil {
			// A birthday mention with no parseable date is dropped.
			occurrence++
			continue
		}

		relation := DefaultRelation
		for _, entry := range relationTable {
			found := false
			for _, kw := range entry.keywords {
				if strings.Contains(context, kw) {
					found = true
					break
				}
			}
			if found {
				relation = entry.relation
				break
			}
		}

		md := monthDay(date.Month, date.Day)
		eventDate := ""
		if date.Year > 0 {
			eventDate = fmt.Sprintf("%04d-%02d-%02d", date.Year, date.Month, date.Day)
		}
		seed := fmt.Sprintf("%s|%s|%s|%s|%s|%d",
			lead.ID, models.EventTypeBirthday, relation, md, context, occurrence)
		out = append(out, models.ImportantEvent{
			ID:            models.HashID("evt", seed),
			LeadID:        lead.ID,
			Type:          models.EventTypeBirthday,
			Relation:      relation,
			Title:         fmt.Sprintf("Birthday: %s", relation),
			EventDate:     eventDate,
			MonthDay:      md,
			SourceText:    strings.TrimSpace(context),
			Source:        models.EventSourceAuto,
			ClientName:    lead.Name,
			ClientContact: lead.Contact,
		})
		occurrence++
	}
	return out
}

// keywordBoundariesOK guards the bare "др" match against firing inside
// words like "другой" or "адрес".
func keywordBoundariesOK(text string, start, end int) bool {
	if text[start:end] != "др" {
		return true
	}
	if start > 0 {
		prev, _ := lastRune(text[:start])
		if unicode.IsLetter(prev) {
			return false
		}
	}
	if end < len(text) {
		next := firstRune(text[end:])
		if unicode.IsLetter(next) {
			return false
		}
	}
	return true
}

func firstRune(s string) rune {
	for _, r := range s {
		return r
	}
	return 0
}

func lastRune(s string) (rune, bool) {
	var r rune
	found := false
	for _, c := range s {
		r = c
		found = true
	}
	return r, found
}

// runeIndex converts a byte offset into a rune offset.
func runeIndex(s string, byteOffset int) int {
	return len([]rune(s[:byteOffset]))
}

// Sync recomputes the auto event set for every lead and merges it into the
// document: manual events stay untouched, the previous auto set is replaced
// wholesale, and createdAt survives for auto events whose id reappears.
func Sync(data *models.AppData, now time.Time) {
	nowStr := models.FormatTimestamp(now)

	prevAuto := map[string]models.ImportantEvent{}
	merged := make([]models.ImportantEvent, 0, len(data.ImportantEvents))
	for _, e := range data.ImportantEvents {
		if e.Source == models.EventSourceAuto {
			prevAuto[e.ID] = e
			continue
		}
		// Manual events are authoritative; only the computed occurrence
		// refreshes.
		if e.MonthDay != "" {
			if d := parseMonthDay(e.MonthDay); d != nil {
				e.NextOccurrence = NextOccurrence(d.Month, d.Day, now).Format("2006-01-02")
			}
		}
		merged = append(merged, e)
	}

	seen := map[string]bool{}
	for _, e := range merged {
		seen[e.ID] = true
	}
	for _, lead := range data.Leads {
		for _, e := range MineLead(lead) {
			if seen[e.ID] {
				continue
			}
			seen[e.ID] = true
			if d := parseMonthDay(e.MonthDay); d != nil {
				e.NextOccurrence = NextOccurrence(d.Month, d.Day, now).Format("2006-01-02")
			}
			if prev, ok := prevAuto[e.ID]; ok && prev.CreatedAt != "" {
				e.CreatedAt = prev.CreatedAt
			} else {
				e.CreatedAt = nowStr
			}
			e.UpdatedAt = nowStr
			merged = append(merged, e)
		}
	}

	SortEvents(merged)
	data.ImportantEvents = merged
}

func parseMonthDay(md string) *parsedDate {
	var month, day int
	if _, err := fmt.Sscanf(md, "%d-%d", &month, &day); err != nil {
		return nil
	}
	return validDate(0, month, day)
}

// SortEvents orders events for presentation: nextOccurrence ascending with
// unknown dates last, ties broken by createdAt.
func SortEvents(events []models.ImportantEvent) {
	sort.SliceStable(events, func(i, j int) bool {
		a, b := events[i], events[j]
		switch {
		case a.NextOccurrence == "" && b.NextOccurrence == "":
			return a.CreatedAt < b.CreatedAt
		case a.NextOccurrence == "":
			return false
		case b.NextOccurrence == "":
			return true
		case a.NextOccurrence != b.NextOccurrence:
			return a.NextOccurrence < b.NextOccurrence
		default:
			return a.CreatedAt < b.CreatedAt
		}
	})
}
