package filter

import (
	"regexp"
	"strconv"
	"strings"
	"time"
)

var ageRegex = regexp.MustCompile(`(?i)^(\d+)\s*(m|min|mins|minutes?|h|hr|hrs|hours?|d|days?)\+?$`)

// ParseAge converts listing recency text ("Just now", "3h", "1d", "30d+")
// into an approximate age. ok is false for text it does not recognise.
func ParseAge(posted string) (age time.Duration, ok bool) {
	s := strings.ToLower(strings.TrimSpace(posted))
	s = strings.TrimSuffix(s, " ago")
	switch s {
	case "":
		return 0, false
	case "just now", "just posted", "today", "new":
		return 0, true
	case "yesterday":
		return 24 * time.Hour, true
	}

	m := ageRegex.FindStringSubmatch(s)
	if m == nil {
		return 0, false
	}
	n, err := strconv.Atoi(m[1])
	if err != nil {
		return 0, false
	}
	switch m[2][0] {
	case 'm':
		return time.Duration(n) * time.Minute, true
	case 'h':
		return time.Duration(n) * time.Hour, true
	default:
		return time.Duration(n) * 24 * time.Hour, true
	}
}

// IsSameDay reports whether recency text marks a listing posted within the last day.
func IsSameDay(posted string) bool {
	age, ok := ParseAge(posted)
	return ok && age < 24*time.Hour
}
