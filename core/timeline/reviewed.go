package timeline

import (
	"strings"
	"time"
)

// DefaultEventLength is used when a detected event has no end time.
const DefaultEventLength = 2 * time.Hour

// ReviewedEvent is a detected event as shown to, and confirmed by, the user
// before it is written to their calendar.
type ReviewedEvent struct {
	Title      string  `json:"event_title" validate:"required"`
	Date       string  `json:"date" validate:"required,isodate"`
	StartTime  string  `json:"start_time" validate:"required,hhmm"`
	EndTime    string  `json:"end_time" validate:"required,hhmm"`
	Type       string  `json:"event_type"`
	Confidence float64 `json:"confidence_score" validate:"min=0,max=1"`
	Subject    string  `json:"subject,omitempty"`
	Notes      string  `json:"additional_notes,omitempty"`
}

// Review renders a dated item in the reviewed-event shape, in loc.
// Items without a date are not reviewable.
func Review(it CombinedItem, loc *time.Location) (ReviewedEvent, bool) {
	start := it.Date
	if it.StartDate != nil {
		start = it.StartDate
	}
	if start == nil {
		return ReviewedEvent{}, false
	}
	if loc == nil {
		loc = time.UTC
	}

	s := start.In(loc)
	e := s.Add(DefaultEventLength)
	if it.EndDate != nil && it.EndDate.After(*start) {
		e = it.EndDate.In(loc)
	}

	typ := strings.ToLower(it.TestType)
	if typ == "" {
		typ = strings.ToLower(string(it.Type))
	}
	return ReviewedEvent{
		Title:      it.Title,
		Date:       s.Format("2006-01-02"),
		StartTime:  s.Format("15:04"),
		EndTime:    e.Format("15:04"),
		Type:       typ,
		Confidence: it.Confidence,
		Subject:    it.CourseName,
		Notes:      it.Description,
	}, true
}
