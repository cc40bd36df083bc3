package models

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/nyaruka/phonenumbers"
)

// Lead statuses.
const (
	LeadStatusNew        = "new"
	LeadStatusInProgress = "in_progress"
	LeadStatusDone       = "done"
)

// Lead priorities.
const (
	PriorityLow    = "low"
	PriorityNormal = "normal"
	PriorityHigh   = "high"
)

// Lead outcomes. Outcome stays pending until a lead is closed.
const (
	OutcomePending = "pending"
	OutcomeSuccess = "success"
	OutcomeFailure = "failure"
)

const (
	maxContactLen    = 200
	maxTypeLen       = 100
	maxMessageLen    = 4000
	maxSourcePageLen = 200
	maxNoteLen       = 4000
	maxCommentLen    = 2000

	// MaxCommentsPerLead caps the append-only comment sequence.
	MaxCommentsPerLead = 300
)

// Lead is a public submission tracked through the workspace pipeline.
type Lead struct {
	ID            string    `json:"id"`
	Name          string    `json:"name"`
	Contact       string    `json:"contact"`
	Type          string    `json:"type"`
	Message       string    `json:"message"`
	SourcePage    string    `json:"sourcePage"`
	Status        string    `json:"status"`
	Department    string    `json:"department"`
	AssigneeID    string    `json:"assigneeId"`
	AssigneeName  string    `json:"assigneeName"`
	Priority      string    `json:"priority"`
	Outcome       string    `json:"outcome"`
	InternalNote  string    `json:"internalNote"`
	Comments      []Comment `json:"comments"`
	CreatedAt     string    `json:"createdAt"`
	UpdatedAt     string    `json:"updatedAt"`
	UpdatedByID   string    `json:"updatedById"`
	UpdatedByName string    `json:"updatedByName"`
	CompletedAt   string    `json:"completedAt"`
	CompletedByID string    `json:"completedById"`
	CompletedBy   string    `json:"completedByName"`
}

// Comment is immutable once created. The id is content-derived when the
// input lacks one so replayed submissions collapse onto the same record.
type Comment struct {
	ID             string `json:"id"`
	Text           string `json:"text"`
	AuthorID       string `json:"authorId"`
	AuthorUsername string `json:"authorUsername"`
	AuthorName     string `json:"authorName"`
	AuthorRole     string `json:"authorRole"`
	CreatedAt      string `json:"createdAt"`
}

var phoneLike = regexp.MustCompile(`^[+\d][\d\s().-]{6,}$`)

// NormalizeContact canonicalizes phone-looking contacts to E.164 and leaves
// everything else (emails, handles) trimmed as-is.
func NormalizeContact(contact string) string {
	contact = trimMax(contact, maxContactLen)
	if !phoneLike.MatchString(contact) {
		return contact
	}
	num, err := phonenumbers.Parse(contact, "RU")
	if err != nil || !phonenumbers.IsValidNumber(num) {
		return contact
	}
	return phonenumbers.Format(num, phonenumbers.E164)
}

// NormalizeComment coerces a raw comment. Returns nil for empty text.
func NormalizeComment(raw Comment) *Comment {
	c := Comment{
		ID:             trimMax(raw.ID, 80),
		Text:           trimMax(raw.Text, maxCommentLen),
		AuthorID:       trimMax(raw.AuthorID, 80),
		AuthorUsername: strings.ToLower(trimMax(raw.AuthorUsername, maxUsernameLen)),
		AuthorName:     trimMax(raw.AuthorName, maxNameLen),
		AuthorRole:     NormalizeRole(raw.AuthorRole),
		CreatedAt:      normalizeTimestamp(raw.CreatedAt),
	}
	if c.Text == "" {
		return nil
	}
	if c.ID == "" {
		prefix := c.Text
		if len(prefix) > 32 {
			prefix = prefix[:32]
		}
		c.ID = HashID("cmt", fmt.Sprintf("%s|%s|%s", c.AuthorID, c.CreatedAt, prefix))
	}
	return &c
}

// NormalizeLead coerces a raw lead record into canonical shape. Returns nil
// when the record carries neither a name nor a contact.
func NormalizeLead(raw Lead) *Lead {
	l := Lead{
		ID:            trimMax(raw.ID, 80),
		Name:          trimMax(raw.Name, maxNameLen),
		Contact:       NormalizeContact(raw.Contact),
		Type:          trimMax(raw.Type, maxTypeLen),
		Message:       trimMax(raw.Message, maxMessageLen),
		SourcePage:    trimMax(raw.SourcePage, maxSourcePageLen),
		Status:        pickEnum(raw.Status, LeadStatusNew, LeadStatusNew, LeadStatusInProgress, LeadStatusDone),
		Department:    strings.ToLower(trimMax(raw.Department, maxDepartmentLen)),
		AssigneeID:    trimMax(raw.AssigneeID, 80),
		AssigneeName:  trimMax(raw.AssigneeName, maxNameLen),
		Priority:      pickEnum(raw.Priority, PriorityNormal, PriorityLow, PriorityNormal, PriorityHigh),
		Outcome:       pickEnum(raw.Outcome, OutcomePending, OutcomePending, OutcomeSuccess, OutcomeFailure),
		InternalNote:  trimMax(raw.InternalNote, maxNoteLen),
		CreatedAt:     normalizeTimestamp(raw.CreatedAt),
		UpdatedAt:     normalizeTimestamp(raw.UpdatedAt),
		UpdatedByID:   trimMax(raw.UpdatedByID, 80),
		UpdatedByName: trimMax(raw.UpdatedByName, maxNameLen),
		CompletedAt:   normalizeTimestamp(raw.CompletedAt),
		CompletedByID: trimMax(raw.CompletedByID, 80),
		CompletedBy:   trimMax(raw.CompletedBy, maxNameLen),
	}
	if l.Name == "" && l.Contact == "" {
		return nil
	}
	if l.Department == "" {
		l.Department = DepartmentUnassigned
	}
	if l.ID == "" {
		l.ID = HashID("ld", fmt.Sprintf("%s|%s|%s", l.Name, l.Contact, l.CreatedAt))
	}
	// An unfinished lead cannot carry a terminal outcome.
	if l.Status != LeadStatusDone && l.Outcome != OutcomePending {
		l.Outcome = OutcomePending
	}
	comments := make([]Comment, 0, len(raw.Comments))
	for _, rc := range raw.Comments {
		if c := NormalizeComment(rc); c != nil {
			comments = append(comments, *c)
		}
	}
	if len(comments) > MaxCommentsPerLead {
		comments = comments[len(comments)-MaxCommentsPerLead:]
	}
	l.Comments = comments
	return &l
}
