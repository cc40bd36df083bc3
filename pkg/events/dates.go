package events

import (
	"fmt"
	"regexp"
	"strconv"
	"time"
)

// parsedDate is a date token pulled out of free text. Year is 0 when the
// token carried no year part.
type parsedDate struct {
	Year  int
	Month int
	Day   int
}

var (
	isoDateToken     = regexp.MustCompile(`(\d{4})-(\d{1,2})-(\d{1,2})`)
	classicDateToken = regexp.MustCompile(`(\d{1,2})\.(\d{1,2})(?:\.(\d{4}|\d{2}))?`)
)

// findDateToken returns the first valid date token in text: ISO form first,
// then the classic D.M[.YY[YY]] form. Nil when nothing parses.
func findDateToken(text string) *parsedDate {
	for _, m := range isoDateToken.FindAllStringSubmatchIndex(text, -1) {
		if !cleanTokenBoundaries(text, m[0], m[1]) {
			continue
		}
		year, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		day, _ := strconv.Atoi(text[m[6]:m[7]])
		if d := validDate(year, month, day); d != nil {
			return d
		}
	}
	for _, m := range classicDateToken.FindAllStringSubmatchIndex(text, -1) {
		if !cleanTokenBoundaries(text, m[0], m[1]) {
			continue
		}
		day, _ := strconv.Atoi(text[m[2]:m[3]])
		month, _ := strconv.Atoi(text[m[4]:m[5]])
		year := 0
		if m[6] >= 0 {
			year, _ = strconv.Atoi(text[m[6]:m[7]])
			year = inferCentury(year)
		}
		if d := validDate(year, month, day); d != nil {
			return d
		}
	}
	return nil
}

// cleanTokenBoundaries rejects tokens glued to surrounding digits or dots,
// e.g. the middle of an IP address or a version string.
func cleanTokenBoundaries(text string, start, end int) bool {
	if start > 0 {
		prev := text[start-1]
		if prev >= '0' && prev <= '9' || prev == '.' {
			return false
		}
	}
	if end < len(text) {
		next := text[end]
		if next >= '0' && next <= '9' {
			return false
		}
	}
	return true
}

// inferCentury expands a two-digit year: 00–40 land in 20xx, the rest in
// 19xx. Four-digit years pass through.
func inferCentury(year int) int {
	if year >= 100 {
		return year
	}
	if year <= 40 {
		return 2000 + year
	}
	return 1900 + year
}

// validDate checks month range and the real day count of the month. A zero
// year validates against a leap year so Feb 29 without a year survives.
func validDate(year, month, day int) *parsedDate {
	if month < 1 || month > 12 || day < 1 {
		return nil
	}
	checkYear := year
	if checkYear == 0 {
		checkYear = 2000 // leap year, so 29.02 stays valid
	}
	if day > daysInMonth(checkYear, month) {
		return nil
	}
	return &parsedDate{Year: year, Month: month, Day: day}
}

func daysInMonth(year, month int) int {
	return time.Date(year, time.Month(month)+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// NextOccurrence computes the next calendar date on or after today (UTC)
// with the given month/day. The day folds down to the target month's real
// length, so Feb 29 becomes Feb 28 on non-leap years.
func NextOccurrence(month, day int, today time.Time) time.Time {
	today = today.UTC().Truncate(24 * time.Hour)
	candidate := occurrenceIn(today.Year(), month, day)
	if candidate.Before(today) {
		candidate = occurrenceIn(today.Year()+1, month, day)
	}
	return candidate
}

func occurrenceIn(year, month, day int) time.Time {
	if max := daysInMonth(year, month); day > max {
		day = max
	}
	return time.Date(year, time.Month(month), day, 0, 0, 0, 0, time.UTC)
}

// Timeline buckets for event presentation.
const (
	BucketNoDate   = "no_date"
	BucketOverdue  = "overdue"
	BucketSoon     = "soon"
	BucketUpcoming = "upcoming"
)

// Bucket classifies a nextOccurrence date string against today.
func Bucket(nextOccurrence string, today time.Time) string {
	t, err := time.Parse("2006-01-02", nextOccurrence)
	if err != nil {
		return BucketNoDate
	}
	today = today.UTC().Truncate(24 * time.Hour)
	daysUntil := int(t.Sub(today).Hours() / 24)
	switch {
	case daysUntil < 0:
		return BucketOverdue
	case daysUntil <= 7:
		return BucketSoon
	default:
		return BucketUpcoming
	}
}

// monthDay renders the canonical MM-DD form.
func monthDay(month, day int) string {
	return fmt.Sprintf("%02d-%02d", month, day)
}
