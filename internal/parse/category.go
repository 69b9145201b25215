package parse

import (
	"regexp"
	"strings"
)

// Category is the coarse facility grouping used for calendar-dot
// aggregation. Classification is pure string matching on the facility's
// display name; nothing is persisted.
type Category string

const (
	CategoryCourt Category = "court"
	CategoryHall  Category = "hall"
	CategoryOther Category = "other"
)

var (
	courtRe = regexp.MustCompile(`(?i)\b(court|tennis|badminton|basketball|squash|pickleball)\b`)
	hallRe  = regexp.MustCompile(`(?i)\b(hall|room|lounge|studio|clubhouse)\b`)
)

// FacilityCategory classifies a facility display name into the fixed
// category set. Court-like names win over hall-like names when both match
// (e.g. "Court Hall B" is a court).
func FacilityCategory(name string) Category {
	s := strings.TrimSpace(name)
	if s == "" {
		return CategoryOther
	}
	if courtRe.MatchString(s) {
		return CategoryCourt
	}
	if hallRe.MatchString(s) {
		return CategoryHall
	}
	return CategoryOther
}
