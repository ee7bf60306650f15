// Package timeline turns classroom records and AI-detected events into one prioritized, ordered list.
package timeline

import (
	"encoding/json"
	"time"
)

type ItemType string

const (
	TypeAssignment       ItemType = "ASSIGNMENT"
	TypeAnnouncement     ItemType = "ANNOUNCEMENT"
	TypeEvent            ItemType = "EVENT"
	TypeMaterial         ItemType = "MATERIAL"
	TypeTest             ItemType = "TEST"
	TypeUrgent           ItemType = "URGENT"
	TypeInfo             ItemType = "INFO"
	TypeSubmissionWindow ItemType = "SUBMISSION_WINDOW"
)

type Status string

const (
	StatusConfirmed Status = "CONFIRMED"
	StatusPostponed Status = "POSTPONED"
	StatusCancelled Status = "CANCELLED"
)

// Elevated reports whether the status alone makes an item worth showing.
func (s Status) Elevated() bool {
	return s == StatusPostponed || s == StatusCancelled
}

type Priority string

const (
	PriorityHigh   Priority = "HIGH"
	PriorityMedium Priority = "MEDIUM"
	PriorityLow    Priority = "LOW"
)

type MaterialKind string

const (
	MaterialDriveFile    MaterialKind = "DRIVE_FILE"
	MaterialYouTubeVideo MaterialKind = "YOUTUBE_VIDEO"
	MaterialLink         MaterialKind = "LINK"
	MaterialForm         MaterialKind = "FORM"
)

// Material is an attachment, decoded once at the classroom boundary.
type Material struct {
	Kind         MaterialKind `json:"kind"`
	ID           string       `json:"id,omitempty"`
	Title        string       `json:"title"`
	URL          string       `json:"url"`
	ThumbnailURL string       `json:"thumbnailUrl,omitempty"`
}

// CombinedItem is the unified timeline record.
// Its priority is derived by Rank and cannot be set directly.
type CombinedItem struct {
	ID          string     `json:"id"`
	Title       string     `json:"title"`
	Summary     string     `json:"aiSummary,omitempty"`
	Description string     `json:"description,omitempty"`
	Materials   []Material `json:"materials,omitempty"`
	Date        *time.Time `json:"date"`
	StartDate   *time.Time `json:"startDate,omitempty"`
	EndDate     *time.Time `json:"endDate,omitempty"`
	Type        ItemType   `json:"type"`
	CourseID    string     `json:"courseId,omitempty"`
	CourseName  string     `json:"courseName,omitempty"`
	Link        string     `json:"link,omitempty"`
	Status      Status     `json:"status,omitempty"`
	Confidence  float64    `json:"confidence,omitempty"`
	TestType    string     `json:"testType,omitempty"`

	priority Priority
}

func (it CombinedItem) Priority() Priority { return it.priority }

// HasDate reports whether any of the item's dates resolved.
func (it CombinedItem) HasDate() bool {
	return it.Date != nil || it.StartDate != nil || it.EndDate != nil
}

type itemFields CombinedItem

func (it CombinedItem) MarshalJSON() ([]byte, error) {
	return json.Marshal(struct {
		itemFields
		Priority Priority `json:"priority,omitempty"`
	}{itemFields(it), it.priority})
}

// Course is a classroom course the user is enrolled in.
type Course struct {
	ID      string
	Name    string
	Section string
	Link    string
}

// Date is a calendar date with a 1-based month, as the classroom API sends it.
type Date struct {
	Year, Month, Day int
}

type TimeOfDay struct {
	Hours, Minutes int
}

// RawAssignment is a coursework record as fetched.
type RawAssignment struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	DueDate     *Date
	DueTime     *TimeOfDay
	State       string
	WorkType    string
	Link        string
	Materials   []Material
	CreatedAt   time.Time
}

// RawAnnouncement is an announcement as fetched.
type RawAnnouncement struct {
	ID        string
	CourseID  string
	Text      string
	Link      string
	Materials []Material
	CreatedAt time.Time
}

// RawMaterial is a coursework material post as fetched.
type RawMaterial struct {
	ID          string
	CourseID    string
	Title       string
	Description string
	Link        string
	Materials   []Material
	CreatedAt   time.Time
}
