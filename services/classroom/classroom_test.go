package classroom

import (
	"context"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

func newTestSource(t *testing.T, handler http.HandlerFunc) timeline.Source {
	t.Helper()
	srv := httptest.NewServer(handler)
	t.Cleanup(srv.Close)

	conf := core.NewTestConfig()
	conf.Classroom.Endpoint = srv.URL + "/"
	src, err := NewConnector(conf).WithHTTPClient(srv.Client()).Connect(context.Background(), "token")
	if err != nil {
		t.Fatalf("Connect() error = %v", err)
	}
	return src
}

func writeJSON(w http.ResponseWriter, body string) {
	w.Header().Set("Content-Type", "application/json")
	_, _ = w.Write([]byte(body))
}

func TestConnector_Connect(t *testing.T) {
	_, err := NewConnector(core.NewTestConfig()).Connect(context.Background(), "")
	if err != core.ErrUnauthenticated {
		t.Errorf("Connect() error = %v, wantErr %v", err, core.ErrUnauthenticated)
	}
}

func TestSource_Courses(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/v1/courses" {
			http.NotFound(w, r)
			return
		}
		assert.Equal(t, "ACTIVE", r.URL.Query().Get("courseStates"))
		if r.URL.Query().Get("pageToken") == "" {
			writeJSON(w, `{"courses": [{"id": "c1", "name": "Physics", "section": "A", "alternateLink": "https://c/1"}], "nextPageToken": "p2"}`)
			return
		}
		writeJSON(w, `{"courses": [{"id": "c2", "name": "Maths"}]}`)
	})

	got, err := src.Courses(context.Background())
	if err != nil {
		t.Fatalf("Courses() error = %v", err)
	}
	assert.Equal(t, []timeline.Course{
		{ID: "c1", Name: "Physics", Section: "A", Link: "https://c/1"},
		{ID: "c2", Name: "Maths"},
	}, got)
}

func TestSource_CourseWork(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/c1/courseWork", r.URL.Path)
		assert.Equal(t, "dueDate asc", r.URL.Query().Get("orderBy"))
		writeJSON(w, `{"courseWork": [{
			"id": "w1", "courseId": "c1", "title": "Lab report", "description": "Write it up",
			"dueDate": {"year": 2025, "month": 12, "day": 8}, "dueTime": {"hours": 18, "minutes": 30},
			"state": "PUBLISHED", "workType": "ASSIGNMENT", "alternateLink": "https://c/w1",
			"creationTime": "2025-11-01T10:00:00.000Z",
			"materials": [
				{"driveFile": {"driveFile": {"id": "f1", "title": "notes.pdf", "alternateLink": "https://d/f1"}, "shareMode": "VIEW"}},
				{"youtubeVideo": {"id": "y1", "title": "Lecture", "alternateLink": "https://yt/y1"}},
				{"link": {"url": "https://example.com", "title": "Example"}},
				{"form": {"formUrl": "https://forms/1", "title": "Quiz form"}}
			]
		}, {"id": "w2", "courseId": "c1", "title": "Reading"}]}`)
	})

	got, err := src.CourseWork(context.Background(), "c1")
	if err != nil {
		t.Fatalf("CourseWork() error = %v", err)
	}
	if !assert.Len(t, got, 2) {
		return
	}
	w1 := got[0]
	assert.Equal(t, &timeline.Date{Year: 2025, Month: 12, Day: 8}, w1.DueDate)
	assert.Equal(t, &timeline.TimeOfDay{Hours: 18, Minutes: 30}, w1.DueTime)
	assert.Equal(t, time.Date(2025, 11, 1, 10, 0, 0, 0, time.UTC), w1.CreatedAt)
	assert.Equal(t, []timeline.Material{
		{Kind: timeline.MaterialDriveFile, ID: "f1", Title: "notes.pdf", URL: "https://d/f1"},
		{Kind: timeline.MaterialYouTubeVideo, ID: "y1", Title: "Lecture", URL: "https://yt/y1"},
		{Kind: timeline.MaterialLink, Title: "Example", URL: "https://example.com"},
		{Kind: timeline.MaterialForm, Title: "Quiz form", URL: "https://forms/1"},
	}, w1.Materials)
	assert.Nil(t, got[1].DueDate)
	assert.Nil(t, got[1].DueTime)
}

func TestSource_Announcements(t *testing.T) {
	var pages int
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/c1/announcements", r.URL.Path)
		assert.Equal(t, "100", r.URL.Query().Get("pageSize"))
		pages++
		switch r.URL.Query().Get("pageToken") {
		case "":
			writeJSON(w, `{"announcements": [{"id": "a1", "courseId": "c1", "text": "Quiz Friday"}], "nextPageToken": "n1"}`)
		case "n1":
			writeJSON(w, `{"announcements": [{"id": "a2", "courseId": "c1", "text": "Room change"}]}`)
		default:
			t.Errorf("unexpected page token %q", r.URL.Query().Get("pageToken"))
		}
	})

	got, err := src.Announcements(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Announcements() error = %v", err)
	}
	assert.Equal(t, 2, pages)
	if assert.Len(t, got, 2) {
		assert.Equal(t, "a1", got[0].ID)
		assert.Equal(t, "Room change", got[1].Text)
	}
}

func TestSource_Materials(t *testing.T) {
	src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/v1/courses/c1/courseWorkMaterials", r.URL.Path)
		writeJSON(w, `{"courseWorkMaterial": [{"id": "m1", "courseId": "c1", "title": "Unit 3 slides",
			"materials": [{"driveFile": {"driveFile": {"id": "f9", "title": "unit3.pptx"}}}]}]}`)
	})

	got, err := src.Materials(context.Background(), "c1")
	if err != nil {
		t.Fatalf("Materials() error = %v", err)
	}
	if assert.Len(t, got, 1) {
		assert.True(t, got[0].Materials[0].Is(timeline.FormatPPT))
	}
}

func TestSource_Errors(t *testing.T) {
	tests := []struct {
		name      string
		status    int
		wantUnath bool
	}{
		{name: "unauthorized", status: http.StatusUnauthorized, wantUnath: true},
		{name: "forbidden", status: http.StatusForbidden, wantUnath: true},
		{name: "server error", status: http.StatusInternalServerError},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			src := newTestSource(t, func(w http.ResponseWriter, r *http.Request) {
				w.Header().Set("Content-Type", "application/json")
				w.WriteHeader(tt.status)
				_, _ = w.Write([]byte(`{"error": {"code": 0, "message": "nope"}}`))
			})
			_, err := src.Courses(context.Background())
			if err == nil {
				t.Fatalf("Courses() error = %v, wantErr %v", err, true)
			}
			if got := core.IsUnauthenticated(err); got != tt.wantUnath {
				t.Errorf("IsUnauthenticated(%v) = %v, want %v", err, got, tt.wantUnath)
			}
		})
	}
}
