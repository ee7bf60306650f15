package timeline

import (
	"reflect"
	"testing"
	"time"
	_ "time/tzdata"
)

func TestNormalizer_Normalize(t *testing.T) {
	loc, err := time.LoadLocation("Asia/Kolkata")
	if err != nil {
		t.Fatalf("LoadLocation() error = %v", err)
	}
	n := NewNormalizer(loc)

	tests := []struct {
		name   string
		in     CandidateEvent
		want   CombinedItem
		wantOK bool
	}{
		{
			name: "unit test with explicit date and time",
			in: CandidateEvent{
				Title: "Unit Test 4", Type: "DEADLINE/TEST", Due: "2025-12-08T20:00:00",
				Confidence: Confidence{Tier: "HIGH"}, TestType: "Unit Test 4",
			},
			want: CombinedItem{
				Title: "Unit Test 4", Type: TypeTest, Status: StatusConfirmed, Confidence: 0.9, TestType: "Unit Test 4",
				Date: tp(time.Date(2025, 12, 8, 20, 0, 0, 0, loc)),
			},
			wantOK: true,
		},
		{
			name: "submission window",
			in: CandidateEvent{
				Title: "Lab record submission", Type: "SUBMISSION_WINDOW", Start: "2024-12-15", End: "2024-12-19",
				Confidence: Confidence{Tier: "MEDIUM"},
			},
			want: CombinedItem{
				Title: "Lab record submission", Type: TypeSubmissionWindow, Status: StatusConfirmed, Confidence: 0.6,
				StartDate: tp(time.Date(2024, 12, 15, 0, 0, 0, 0, loc)),
				EndDate:   tp(time.Date(2024, 12, 19, 23, 59, 59, 0, loc)),
				Date:      tp(time.Date(2024, 12, 19, 23, 59, 59, 0, loc)),
			},
			wantOK: true,
		},
		{
			name: "postponed without new date",
			in:   CandidateEvent{Title: "Test postponed", Type: "DEADLINE/TEST", Status: "POSTPONED", Confidence: Confidence{Tier: "LOW"}},
			want: CombinedItem{
				Title: "Test postponed", Type: TypeTest, Status: StatusPostponed, Confidence: 0.3,
			},
			wantOK: true,
		},
		{
			name: "zoned timestamp is moved to the configured zone",
			in:   CandidateEvent{Title: "Quiz", Type: "QUIZ", Due: "2025-01-10T04:30:00Z", Confidence: Confidence{Score: 0.82, Numeric: true}},
			want: CombinedItem{
				Title: "Quiz", Type: TypeTest, Status: StatusConfirmed, Confidence: 0.82,
				Date: tp(time.Date(2025, 1, 10, 10, 0, 0, 0, loc)),
			},
			wantOK: true,
		},
		{
			name:   "undated info is dropped",
			in:     CandidateEvent{Title: "Bring your calculators", Type: "GENERAL_INFO", Confidence: Confidence{Tier: "HIGH"}},
			wantOK: false,
		},
		{
			name:   "unparseable date counts as none",
			in:     CandidateEvent{Title: "Project", Type: "SUBMISSION", Due: "next friday-ish"},
			wantOK: false,
		},
		{
			name: "undated urgent update is kept",
			in:   CandidateEvent{Title: "Class moved to Lab 2", Type: "URGENT_UPDATE", Due: "null", Confidence: Confidence{Tier: "weird"}},
			want: CombinedItem{
				Title: "Class moved to Lab 2", Type: TypeUrgent, Status: StatusConfirmed, Confidence: DefaultConfidence,
			},
			wantOK: true,
		},
		{
			name: "cancelled with unknown type",
			in:   CandidateEvent{Title: "Field trip", Type: "OUTING", Status: "canceled"},
			want: CombinedItem{
				Title: "Field trip", Type: TypeEvent, Status: StatusCancelled, Confidence: DefaultConfidence,
			},
			wantOK: true,
		},
		{
			name: "v3 exam uses subject and notes",
			in: CandidateEvent{
				Title: "Physics Mid-term", Type: "exam", TestType: "exam", Due: "2025-03-10T09:00", End: "2025-03-10T11:00",
				Confidence: Confidence{Score: 0.95, Numeric: true}, Subject: "Physics", Notes: "Chapters 1-4",
			},
			want: CombinedItem{
				Title: "Physics Mid-term", Type: TypeTest, Status: StatusConfirmed, Confidence: 0.95, TestType: "exam",
				CourseName: "Physics", Description: "Chapters 1-4",
				Date:    tp(time.Date(2025, 3, 10, 9, 0, 0, 0, loc)),
				EndDate: tp(time.Date(2025, 3, 10, 11, 0, 0, 0, loc)),
			},
			wantOK: true,
		},
		{
			name:   "no title",
			in:     CandidateEvent{Type: "TEST", Due: "2025-01-01"},
			wantOK: false,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := n.Normalize(tt.in)
			if ok != tt.wantOK {
				t.Fatalf("Normalize() ok = %v, want %v", ok, tt.wantOK)
			}
			if !ok {
				return
			}
			if !sameItem(got, tt.want) {
				t.Errorf("Normalize() = %+v, want %+v", got, tt.want)
			}

			// pure: same input, same output
			again, _ := n.Normalize(tt.in)
			if !reflect.DeepEqual(got, again) {
				t.Errorf("Normalize() not idempotent: %+v != %+v", got, again)
			}
		})
	}
}

func TestConfidence_Value(t *testing.T) {
	tests := []struct {
		in   Confidence
		want float64
	}{
		{Confidence{Tier: "HIGH"}, 0.9},
		{Confidence{Tier: "medium"}, 0.6},
		{Confidence{Tier: "LOW"}, 0.3},
		{Confidence{Tier: "VERY HIGH"}, 0.5},
		{Confidence{}, 0.5},
		{Confidence{Score: 0.42, Numeric: true}, 0.42},
	}
	for _, tt := range tests {
		if got := tt.in.Value(); got != tt.want {
			t.Errorf("Confidence(%+v).Value() = %v, want %v", tt.in, got, tt.want)
		}
	}
}

func TestCanonicalType(t *testing.T) {
	tests := map[string]ItemType{
		"DEADLINE/TEST":     TypeTest,
		"quiz":              TypeTest,
		"exam":              TypeTest,
		"URGENT_UPDATE":     TypeUrgent,
		"GENERAL_INFO":      TypeInfo,
		"SUBMISSION_WINDOW": TypeSubmissionWindow,
		"SUBMISSION":        TypeAssignment,
		"assignment":        TypeAssignment,
		"unknown":           TypeEvent,
		"":                  TypeEvent,
	}
	for tag, want := range tests {
		if got := CanonicalType(tag); got != want {
			t.Errorf("CanonicalType(%q) = %v, want %v", tag, got, want)
		}
	}
}

func sameTime(a, b *time.Time) bool {
	if a == nil || b == nil {
		return a == b
	}
	return a.Equal(*b)
}

func sameItem(a, b CombinedItem) bool {
	if !sameTime(a.Date, b.Date) || !sameTime(a.StartDate, b.StartDate) || !sameTime(a.EndDate, b.EndDate) {
		return false
	}
	a.Date, a.StartDate, a.EndDate = nil, nil, nil
	b.Date, b.StartDate, b.EndDate = nil, nil, nil
	return reflect.DeepEqual(a, b)
}
