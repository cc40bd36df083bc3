package models

import (
	"fmt"
	"regexp"
)

// Event sources. Auto events are derived from lead text on every sync pass;
// manual events are authoritative and never rewritten by the miner.
const (
	EventSourceAuto   = "auto"
	EventSourceManual = "manual"
)

// EventTypeBirthday is the only event type the miner produces.
const EventTypeBirthday = "birthday"

const (
	maxTitleLen      = 300
	maxSourceTextLen = 400
)

var monthDayRe = regexp.MustCompile(`^(0[1-9]|1[0-2])-(0[1-9]|[12]\d|3[01])$`)
var isoDateRe = regexp.MustCompile(`^\d{4}-\d{2}-\d{2}$`)

// ImportantEvent is a dated client milestone, either mined from lead text or
// entered by hand. EventDate stays empty when the year is unknown.
type ImportantEvent struct {
	ID             string `json:"id"`
	LeadID         string `json:"leadId"`
	Type           string `json:"type"`
	Relation       string `json:"relation"`
	Title          string `json:"title"`
	EventDate      string `json:"eventDate"`
	MonthDay       string `json:"monthDay"`
	NextOccurrence string `json:"nextOccurrence"`
	SourceText     string `json:"sourceText"`
	Source         string `json:"source"`
	ClientName     string `json:"clientName"`
	ClientContact  string `json:"clientContact"`
	CreatedAt      string `json:"createdAt"`
	UpdatedAt      string `json:"updatedAt"`
}

// NormalizeImportantEvent coerces a raw event. Returns nil when the record
// has no usable month/day anchor and no title.
func NormalizeImportantEvent(raw ImportantEvent) *ImportantEvent {
	e := ImportantEvent{
		ID:             trimMax(raw.ID, 80),
		LeadID:         trimMax(raw.LeadID, 80),
		Type:           pickEnum(raw.Type, EventTypeBirthday, EventTypeBirthday, "anniversary", "other"),
		Relation:       trimMax(raw.Relation, 60),
		Title:          trimMax(raw.Title, maxTitleLen),
		EventDate:      trimMax(raw.EventDate, 10),
		MonthDay:       trimMax(raw.MonthDay, 5),
		NextOccurrence: trimMax(raw.NextOccurrence, 10),
		SourceText:     trimMax(raw.SourceText, maxSourceTextLen),
		Source:         pickEnum(raw.Source, EventSourceManual, EventSourceAuto, EventSourceManual),
		ClientName:     trimMax(raw.ClientName, maxNameLen),
		ClientContact:  trimMax(raw.ClientContact, maxContactLen),
		CreatedAt:      normalizeTimestamp(raw.CreatedAt),
		UpdatedAt:      normalizeTimestamp(raw.UpdatedAt),
	}
	if !monthDayRe.MatchString(e.MonthDay) {
		e.MonthDay = ""
	}
	if !isoDateRe.MatchString(e.EventDate) {
		e.EventDate = ""
	}
	if !isoDateRe.MatchString(e.NextOccurrence) {
		e.NextOccurrence = ""
	}
	if e.Relation == "" {
		e.Relation = "client"
	}
	if e.MonthDay == "" && e.Title == "" {
		return nil
	}
	if e.ID == "" {
		e.ID = HashID("evt", fmt.Sprintf("%s|%s|%s|%s", e.LeadID, e.Type, e.MonthDay, e.Title))
	}
	return &e
}
