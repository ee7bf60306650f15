package timeline

import (
	"testing"

	"github.com/pkg/errors"
	"github.com/stretchr/testify/assert"
)

func TestDecodeCandidates(t *testing.T) {
	tests := []struct {
		name    string
		version string
		raw     string
		want    []CandidateEvent
		wantErr bool
	}{
		{
			name:    "v1 array",
			version: SchemaV1,
			raw:     `[{"event_title":"Physics Test","event_type":"TEST","due_date_iso":"2025-12-08T20:00:00","confidence_score":"HIGH","status":"CONFIRMED"}]`,
			want: []CandidateEvent{
				{Title: "Physics Test", Type: "TEST", Due: "2025-12-08T20:00:00", Confidence: Confidence{Tier: "HIGH"}, Status: "CONFIRMED"},
			},
		},
		{
			name:    "v2 submission window",
			version: SchemaV2,
			raw: `{"events":[{"event_title":"Lab record submission","summary_headline":"Submit lab records","event_type":"SUBMISSION_WINDOW",
				"start_date_iso":"2024-12-15","due_date_iso":"2024-12-19","confidence_score":"MEDIUM","test_type":null}]}`,
			want: []CandidateEvent{
				{
					Title: "Lab record submission", Summary: "Submit lab records", Type: "SUBMISSION_WINDOW",
					Start: "2024-12-15", End: "2024-12-19", Confidence: Confidence{Tier: "MEDIUM"},
				},
			},
		},
		{
			name:    "v2 single object with null date",
			version: SchemaV2,
			raw:     `{"event_title":"Test postponed","event_type":"DEADLINE/TEST","due_date_iso":null,"status":"POSTPONED","confidence_score":"LOW"}`,
			want: []CandidateEvent{
				{Title: "Test postponed", Type: "DEADLINE/TEST", Status: "POSTPONED", Confidence: Confidence{Tier: "LOW"}},
			},
		},
		{
			name:    "v2 test with a start date keeps its due date",
			version: SchemaV2,
			raw:     `[{"event_title":"Unit test 3","event_type":"DEADLINE/TEST","start_date_iso":"2025-01-06","due_date_iso":"2025-01-08T09:00:00","confidence_score":"HIGH"}]`,
			want: []CandidateEvent{
				{Title: "Unit test 3", Type: "DEADLINE/TEST", Start: "2025-01-06", Due: "2025-01-08T09:00:00", Confidence: Confidence{Tier: "HIGH"}},
			},
		},
		{
			name:    "v3 success wrapper",
			version: SchemaV3,
			raw: `{"success":true,"event":{"event_title":"Maths Mid-term","date":"2025-03-10","start_time":"09:00","end_time":"11:00",
				"event_type":"exam","confidence_score":0.95,"subject":"Mathematics"}}`,
			want: []CandidateEvent{
				{
					Title: "Maths Mid-term", Type: "exam", TestType: "exam", Due: "2025-03-10T09:00", End: "2025-03-10T11:00",
					Confidence: Confidence{Score: 0.95, Numeric: true}, Subject: "Mathematics",
				},
			},
		},
		{
			name:    "v3 no event",
			version: SchemaV3,
			raw:     `{"success":false,"reason":"NO_EVENT_DETECTED"}`,
			want:    []CandidateEvent{},
		},
		{
			name:    "malformed element is skipped",
			version: SchemaV1,
			raw:     `["oops", {"event_title": 42}, {"event_title":"Quiz 2","event_type":"QUIZ","due_date_iso":"2025-01-02"}]`,
			want:    []CandidateEvent{{Title: "Quiz 2", Type: "QUIZ", Due: "2025-01-02"}},
		},
		{
			name:    "markdown fences",
			version: SchemaV1,
			raw:     "```json\n[{\"event_title\":\"Quiz\",\"event_type\":\"QUIZ\",\"due_date_iso\":\"2025-01-02\"}]\n```",
			want:    []CandidateEvent{{Title: "Quiz", Type: "QUIZ", Due: "2025-01-02"}},
		},
		{name: "empty", version: SchemaV2, raw: "  ", want: nil},
		{name: "not json", version: SchemaV2, raw: "sorry, I cannot help", wantErr: true},
		{name: "unknown schema", version: "v9", raw: "[]", wantErr: true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := DecodeCandidates(tt.version, []byte(tt.raw))
			if (err != nil) != tt.wantErr {
				t.Fatalf("DecodeCandidates() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(tt.want) == 0 {
				assert.Empty(t, got)
				return
			}
			assert.Equal(t, tt.want, got)
		})
	}

	t.Run("unknown schema is ErrUnknownSchema", func(t *testing.T) {
		_, err := DecodeCandidates("v0", []byte("[]"))
		if errors.Cause(err) != ErrUnknownSchema {
			t.Errorf("DecodeCandidates() error = %v, want %v", err, ErrUnknownSchema)
		}
	})
}

func TestConfidence_UnmarshalJSON(t *testing.T) {
	tests := []struct {
		raw  string
		want Confidence
	}{
		{raw: `"HIGH"`, want: Confidence{Tier: "HIGH"}},
		{raw: `0.75`, want: Confidence{Score: 0.75, Numeric: true}},
		{raw: `"0.4"`, want: Confidence{Score: 0.4, Numeric: true}},
		{raw: `null`, want: Confidence{}},
	}
	for _, tt := range tests {
		t.Run(tt.raw, func(t *testing.T) {
			var got Confidence
			if err := got.UnmarshalJSON([]byte(tt.raw)); err != nil {
				t.Fatalf("UnmarshalJSON() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("UnmarshalJSON() = %+v, want %+v", got, tt.want)
			}
		})
	}
}
