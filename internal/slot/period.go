package slot

import "strings"

// Period partitions the day at noon.
type Period string

const (
	AM Period = "AM"
	PM Period = "PM"
)

// ParsePeriod accepts "am" or "pm" in any case.
func ParsePeriod(s string) (Period, bool) {
	switch Period(strings.ToUpper(strings.TrimSpace(s))) {
	case AM:
		return AM, true
	case PM:
		return PM, true
	}
	return "", false
}

// Contains reports whether t falls in the period: AM is before 12:00,
// PM is 12:00 onwards.
func (p Period) Contains(t Time) bool {
	switch p {
	case AM:
		return t.Before(Noon)
	case PM:
		return !t.Before(Noon)
	}
	return false
}

// MatchesPeriod reports whether the descriptor's start lies in p. An
// unparsable descriptor matches neither period.
func MatchesPeriod(descriptor string, p Period) bool {
	t, ok := ParseStart(descriptor)
	if !ok {
		return false
	}
	return p.Contains(t)
}
