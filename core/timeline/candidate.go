package timeline

import (
	"bytes"
	"encoding/json"
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// Schema versions of the extraction prompt output.
const (
	SchemaV1 = "v1" // TEST|QUIZ|SUBMISSION|EVENT, due_date_iso, tier confidence
	SchemaV2 = "v2" // DEADLINE/TEST|URGENT_UPDATE|GENERAL_INFO|SUBMISSION_WINDOW, start/due dates
	SchemaV3 = "v3" // exam detection: date + start_time/end_time, float confidence
)

var ErrUnknownSchema = errors.New("unknown schema version")

// Confidence is either a tier string (HIGH/MEDIUM/LOW) or a 0-1 score.
type Confidence struct {
	Tier    string
	Score   float64
	Numeric bool
}

func (c *Confidence) UnmarshalJSON(b []byte) error {
	b = bytes.TrimSpace(b)
	if len(b) == 0 || bytes.Equal(b, []byte("null")) {
		*c = Confidence{}
		return nil
	}
	if b[0] == '"' {
		var s string
		if err := json.Unmarshal(b, &s); err != nil {
			return err
		}
		// some models quote their numbers
		if f, err := strconv.ParseFloat(strings.TrimSpace(s), 64); err == nil {
			*c = Confidence{Score: f, Numeric: true}
			return nil
		}
		*c = Confidence{Tier: s}
		return nil
	}
	var f float64
	if err := json.Unmarshal(b, &f); err != nil {
		return err
	}
	*c = Confidence{Score: f, Numeric: true}
	return nil
}

// CandidateEvent is the one canonical shape every schema version decodes into.
// Dates are kept as the raw strings the model produced; Normalize resolves them.
type CandidateEvent struct {
	Title      string
	Summary    string
	Type       string
	Due        string
	Start      string
	End        string
	Confidence Confidence
	Status     string
	TestType   string
	Subject    string
	Notes      string
}

type (
	candidateV1 struct {
		Title      string     `json:"event_title"`
		Type       string     `json:"event_type"`
		Due        *string    `json:"due_date_iso"`
		Confidence Confidence `json:"confidence_score"`
		Status     string     `json:"status"`
	}

	candidateV2 struct {
		Title      string     `json:"event_title"`
		Summary    string     `json:"summary_headline"`
		Type       string     `json:"event_type"`
		Start      *string    `json:"start_date_iso"`
		Due        *string    `json:"due_date_iso"`
		Confidence Confidence `json:"confidence_score"`
		Status     string     `json:"status"`
		TestType   *string    `json:"test_type"`
	}

	candidateV3 struct {
		Title      string     `json:"event_title"`
		Date       string     `json:"date"`
		StartTime  string     `json:"start_time"`
		EndTime    string     `json:"end_time"`
		Type       string     `json:"event_type"`
		Confidence Confidence `json:"confidence_score"`
		Subject    string     `json:"subject"`
		Notes      string     `json:"additional_notes"`
	}
)

func str(p *string) string {
	if p == nil {
		return ""
	}
	return *p
}

func (c candidateV1) candidate() CandidateEvent {
	return CandidateEvent{
		Title:      c.Title,
		Type:       c.Type,
		Due:        str(c.Due),
		Confidence: c.Confidence,
		Status:     c.Status,
	}
}

func (c candidateV2) candidate() CandidateEvent {
	ev := CandidateEvent{
		Title:      c.Title,
		Summary:    c.Summary,
		Type:       c.Type,
		Due:        str(c.Due),
		Confidence: c.Confidence,
		Status:     c.Status,
		TestType:   str(c.TestType),
	}
	ev.Start = str(c.Start)
	// only a submission window turns the due date into the end of a range
	if strings.EqualFold(c.Type, "SUBMISSION_WINDOW") {
		ev.End = ev.Due
		ev.Due = ""
	}
	return ev
}

func (c candidateV3) candidate() CandidateEvent {
	ev := CandidateEvent{
		Title:      c.Title,
		Type:       c.Type,
		Confidence: c.Confidence,
		Subject:    c.Subject,
		Notes:      c.Notes,
		TestType:   c.Type,
	}
	if c.Date != "" {
		ev.Due = c.Date
		if c.StartTime != "" {
			ev.Due = c.Date + "T" + c.StartTime
		}
		if c.EndTime != "" {
			ev.End = c.Date + "T" + c.EndTime
		}
	}
	return ev
}

// wrapperKeys are the object fields models wrap their event arrays in.
var wrapperKeys = []string{"events", "event", "data", "results", "items"}

// DecodeCandidates decodes a model response of the given schema version.
// It accepts an array, an object wrapping an array (or a single event), or a bare event object.
// Elements that fail to decode are skipped; only an unusable payload is an error.
func DecodeCandidates(version string, raw []byte) ([]CandidateEvent, error) {
	decode, ok := decoders[version]
	if !ok {
		return nil, errors.Wrap(ErrUnknownSchema, version)
	}

	elems, err := candidateElements(StripFences(raw))
	if err != nil {
		return nil, err
	}

	events := make([]CandidateEvent, 0, len(elems))
	for _, elem := range elems {
		ev, err := decode(elem)
		if err != nil {
			continue
		}
		events = append(events, ev)
	}
	return events, nil
}

var decoders = map[string]func(json.RawMessage) (CandidateEvent, error){
	SchemaV1: func(b json.RawMessage) (CandidateEvent, error) {
		var c candidateV1
		err := json.Unmarshal(b, &c)
		return c.candidate(), err
	},
	SchemaV2: func(b json.RawMessage) (CandidateEvent, error) {
		var c candidateV2
		err := json.Unmarshal(b, &c)
		return c.candidate(), err
	},
	SchemaV3: func(b json.RawMessage) (CandidateEvent, error) {
		var c candidateV3
		err := json.Unmarshal(b, &c)
		return c.candidate(), err
	},
}

func candidateElements(raw []byte) ([]json.RawMessage, error) {
	raw = bytes.TrimSpace(raw)
	if len(raw) == 0 {
		return nil, nil
	}

	switch raw[0] {
	case '[':
		var elems []json.RawMessage
		if err := json.Unmarshal(raw, &elems); err != nil {
			return nil, errors.Wrap(err, "decoding candidate array")
		}
		return elems, nil
	case '{':
		var obj map[string]json.RawMessage
		if err := json.Unmarshal(raw, &obj); err != nil {
			return nil, errors.Wrap(err, "decoding candidate object")
		}
		if s, ok := obj["success"]; ok && bytes.Equal(bytes.TrimSpace(s), []byte("false")) {
			return nil, nil
		}
		for _, key := range wrapperKeys {
			if inner, ok := obj[key]; ok {
				return candidateElements(inner)
			}
		}
		return []json.RawMessage{raw}, nil
	case 'n':
		return nil, nil // null
	default:
		return nil, errors.Errorf("unexpected candidate payload starting with %q", raw[0])
	}
}

// StripFences removes markdown code fences some models add around JSON.
func StripFences(raw []byte) []byte {
	s := strings.TrimSpace(string(raw))
	if !strings.HasPrefix(s, "```") {
		return []byte(s)
	}
	s = strings.TrimPrefix(s, "```json")
	s = strings.TrimPrefix(s, "```")
	s = strings.TrimSuffix(s, "```")
	return []byte(strings.TrimSpace(s))
}
