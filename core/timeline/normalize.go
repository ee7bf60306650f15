package timeline

import (
	"strings"
	"time"
)

var typeTable = map[string]ItemType{
	"DEADLINE/TEST":     TypeTest,
	"TEST":              TypeTest,
	"QUIZ":              TypeTest,
	"EXAM":              TypeTest,
	"URGENT_UPDATE":     TypeUrgent,
	"URGENT":            TypeUrgent,
	"GENERAL_INFO":      TypeInfo,
	"INFO":              TypeInfo,
	"SUBMISSION_WINDOW": TypeSubmissionWindow,
	"SUBMISSION":        TypeAssignment,
	"ASSIGNMENT":        TypeAssignment,
	"DEADLINE":          TypeAssignment,
	"EVENT":             TypeEvent,
}

var confidenceTiers = map[string]float64{
	"HIGH":   0.9,
	"MEDIUM": 0.6,
	"LOW":    0.3,
}

// DefaultConfidence applies to unknown tiers and missing values.
const DefaultConfidence = 0.5

// CanonicalType maps a model type tag to the timeline type; unknown tags are EVENT.
func CanonicalType(tag string) ItemType {
	if t, ok := typeTable[strings.ToUpper(strings.TrimSpace(tag))]; ok {
		return t
	}
	return TypeEvent
}

// Value maps a confidence to the 0-1 range.
func (c Confidence) Value() float64 {
	if c.Numeric {
		return c.Score
	}
	if v, ok := confidenceTiers[strings.ToUpper(strings.TrimSpace(c.Tier))]; ok {
		return v
	}
	return DefaultConfidence
}

func canonicalStatus(s string) Status {
	switch strings.ToUpper(strings.TrimSpace(s)) {
	case "POSTPONED":
		return StatusPostponed
	case "CANCELLED", "CANCELED":
		return StatusCancelled
	default:
		return StatusConfirmed
	}
}

// Normalizer resolves candidate events into timeline items.
// Zone-less timestamps are read in Location.
type Normalizer struct {
	Location *time.Location
}

func NewNormalizer(loc *time.Location) Normalizer {
	if loc == nil {
		loc = time.UTC
	}
	return Normalizer{Location: loc}
}

// Normalize maps one candidate to zero or one item. It has no side effects.
// Candidates without a title, or with nothing actionable (no date, no elevated status,
// not URGENT or a submission window), are dropped.
func (n Normalizer) Normalize(c CandidateEvent) (CombinedItem, bool) {
	title := strings.TrimSpace(c.Title)
	if title == "" {
		title = strings.TrimSpace(c.TestType)
	}
	if title == "" {
		return CombinedItem{}, false
	}

	item := CombinedItem{
		Title:       title,
		Summary:     strings.TrimSpace(c.Summary),
		Description: strings.TrimSpace(c.Notes),
		CourseName:  strings.TrimSpace(c.Subject),
		Type:        CanonicalType(c.Type),
		Status:      canonicalStatus(c.Status),
		Confidence:  c.Confidence.Value(),
		TestType:    strings.TrimSpace(c.TestType),
	}

	due := n.parse(c.Due, true)
	item.StartDate = n.parse(c.Start, false)
	item.EndDate = n.parse(c.End, true)
	item.Date = due
	if item.Date == nil {
		item.Date = item.EndDate
	}

	if !item.HasDate() && !item.Status.Elevated() && item.Type != TypeUrgent && item.Type != TypeSubmissionWindow {
		return CombinedItem{}, false
	}
	return item, true
}

var (
	zonedLayouts = []string{
		time.RFC3339Nano,
		"2006-01-02T15:04Z07:00",
	}
	localLayouts = []string{
		"2006-01-02T15:04:05.999999999",
		"2006-01-02T15:04:05",
		"2006-01-02T15:04",
		"2006-01-02 15:04:05",
		"2006-01-02 15:04",
	}
	dateOnlyLayout = "2006-01-02"
)

// parse reads an ISO-8601 timestamp or date. Date-only values land on 23:59:59
// when endOfDay is set (due/end dates) and on midnight otherwise.
func (n Normalizer) parse(s string, endOfDay bool) *time.Time {
	loc := n.Location
	if loc == nil {
		loc = time.UTC
	}
	s = strings.TrimSpace(s)
	switch strings.ToLower(s) {
	case "", "null", "none", "n/a", "tbd":
		return nil
	}

	for _, layout := range zonedLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			t = t.In(loc)
			return &t
		}
	}
	for _, layout := range localLayouts {
		if t, err := time.ParseInLocation(layout, s, loc); err == nil {
			return &t
		}
	}
	if d, err := time.ParseInLocation(dateOnlyLayout, s, loc); err == nil {
		if endOfDay {
			d = time.Date(d.Year(), d.Month(), d.Day(), 23, 59, 59, 0, loc)
		}
		return &d
	}
	return nil
}
