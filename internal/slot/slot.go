// Package slot parses the free-form slot descriptors doctors enter into
// their availability template ("09:00-10:00", "9:00 AM - 10:00 AM",
// "9:00 to 10:00", "09:00:00") and normalizes them to a canonical
// minute-resolution start time.
package slot

import (
	"fmt"
	"regexp"
	"strings"
	"time"
)

// Time is a time of day with minute resolution.
type Time struct {
	Hour   int
	Minute int
}

// String returns the canonical zero-padded 24-hour form, HH:mm.
func (t Time) String() string {
	return fmt.Sprintf("%02d:%02d", t.Hour, t.Minute)
}

// Minutes returns the number of minutes since midnight.
func (t Time) Minutes() int {
	return t.Hour*60 + t.Minute
}

// Before reports whether t is earlier in the day than u.
func (t Time) Before(u Time) bool {
	return t.Minutes() < u.Minutes()
}

// On places t on the calendar day of date, in date's location.
func (t Time) On(date time.Time) time.Time {
	y, m, d := date.Date()
	return time.Date(y, m, d, t.Hour, t.Minute, 0, 0, date.Location())
}

// FromTime truncates a wall-clock time to a slot time in its own location.
func FromTime(t time.Time) Time {
	return Time{Hour: t.Hour(), Minute: t.Minute()}
}

// Noon separates the AM and PM periods.
var Noon = Time{Hour: 12}

// Layouts are tried in order; the first one that parses wins. Go's hour
// fields accept one or two digits, so "15:04" covers both HH:mm and H:mm
// and "3:04 PM" covers both hh:mm a and h:mm a.
var layouts = []string{
	"15:04",
	"3:04 PM",
}

// isoLayouts are the fallback for anything the primary layouts reject.
var isoLayouts = []string{
	"15:04:05",
	"15:04:05.999999999",
}

var (
	toSeparator  = regexp.MustCompile(`(?i)\s+to\s+`)
	withSeconds  = regexp.MustCompile(`^\d{2}:\d{2}:\d{2}`)
	meridiemWord = regexp.MustCompile(`(?i)^(am|pm)$`)
)

// ParseStart extracts the start of a slot descriptor. It never fails
// loudly: an unparsable descriptor yields ok == false and callers are
// expected to ignore that slot.
func ParseStart(descriptor string) (Time, bool) {
	s := startOperand(descriptor)
	if s == "" {
		return Time{}, false
	}

	for _, layout := range layouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), true
		}
	}
	for _, layout := range isoLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return FromTime(t), true
		}
	}
	return Time{}, false
}

// Canonical returns the HH:mm start of descriptor.
func Canonical(descriptor string) (string, bool) {
	t, ok := ParseStart(descriptor)
	if !ok {
		return "", false
	}
	return t.String(), true
}

// startOperand reduces a descriptor to the text of its start time.
func startOperand(descriptor string) string {
	s := strings.TrimSpace(descriptor)

	if i := strings.IndexAny(s, "-–"); i >= 0 {
		s = strings.TrimSpace(s[:i])
	}
	if loc := toSeparator.FindStringIndex(s); loc != nil {
		s = strings.TrimSpace(s[:loc[0]])
	}

	if tokens := strings.Fields(s); len(tokens) > 1 {
		if meridiemWord.MatchString(tokens[1]) {
			s = tokens[0] + " " + tokens[1]
		} else {
			s = tokens[0]
		}
	}

	if withSeconds.MatchString(s) {
		s = s[:5]
	}

	// time.Parse only understands upper-case meridiem markers.
	return strings.ToUpper(s)
}
