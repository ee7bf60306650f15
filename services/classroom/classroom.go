// Package classroom reads courses, coursework, announcements and materials
// from the Google Classroom API on behalf of a signed-in user.
package classroom

import (
	"context"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	classroom "google.golang.org/api/classroom/v1"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

const announcementsPageSize = 100

// Connector opens Classroom sources with a user's OAuth access token.
type Connector struct {
	endpoint   string
	httpClient *http.Client
}

var _ timeline.Connector = (*Connector)(nil)

func NewConnector(conf *core.Config) *Connector {
	return &Connector{endpoint: conf.Classroom.Endpoint}
}

// WithHTTPClient replaces the OAuth transport. Used in tests.
func (c *Connector) WithHTTPClient(client *http.Client) *Connector {
	c.httpClient = client
	return c
}

func (c *Connector) Connect(ctx context.Context, accessToken string) (timeline.Source, error) {
	if accessToken == "" {
		return nil, core.ErrUnauthenticated
	}

	var opts []option.ClientOption
	if c.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(c.httpClient))
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	}
	if c.endpoint != "" {
		opts = append(opts, option.WithEndpoint(c.endpoint))
	}

	svc, err := classroom.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating classroom client")
	}
	return &Source{svc: svc}, nil
}

// Source is one user's view of Classroom.
type Source struct {
	svc *classroom.Service
}

var _ timeline.Source = (*Source)(nil)

// Courses lists the user's ACTIVE courses.
func (s *Source) Courses(ctx context.Context) ([]timeline.Course, error) {
	var courses []timeline.Course
	call := s.svc.Courses.List().CourseStates("ACTIVE").Context(ctx)
	err := call.Pages(ctx, func(resp *classroom.ListCoursesResponse) error {
		for _, c := range resp.Courses {
			courses = append(courses, timeline.Course{
				ID:      c.Id,
				Name:    c.Name,
				Section: c.Section,
				Link:    c.AlternateLink,
			})
		}
		return nil
	})
	if err != nil {
		return nil, wrap(err, "listing courses")
	}
	return courses, nil
}

// CourseWork lists a course's assignments by ascending due date.
func (s *Source) CourseWork(ctx context.Context, courseID string) ([]timeline.RawAssignment, error) {
	resp, err := s.svc.Courses.CourseWork.List(courseID).OrderBy("dueDate asc").Context(ctx).Do()
	if err != nil {
		return nil, wrap(err, "listing coursework")
	}

	work := make([]timeline.RawAssignment, 0, len(resp.CourseWork))
	for _, w := range resp.CourseWork {
		a := timeline.RawAssignment{
			ID:          w.Id,
			CourseID:    w.CourseId,
			Title:       w.Title,
			Description: w.Description,
			State:       w.State,
			WorkType:    w.WorkType,
			Link:        w.AlternateLink,
			Materials:   decodeMaterials(w.Materials),
			CreatedAt:   parseTimestamp(w.CreationTime),
		}
		if d := w.DueDate; d != nil {
			a.DueDate = &timeline.Date{Year: int(d.Year), Month: int(d.Month), Day: int(d.Day)}
		}
		if t := w.DueTime; t != nil {
			a.DueTime = &timeline.TimeOfDay{Hours: int(t.Hours), Minutes: int(t.Minutes)}
		}
		work = append(work, a)
	}
	return work, nil
}

// Announcements pages through all of a course's announcements.
func (s *Source) Announcements(ctx context.Context, courseID string) ([]timeline.RawAnnouncement, error) {
	var anns []timeline.RawAnnouncement
	pageToken := ""
	for {
		call := s.svc.Courses.Announcements.List(courseID).PageSize(announcementsPageSize).Context(ctx)
		if pageToken != "" {
			call = call.PageToken(pageToken)
		}
		resp, err := call.Do()
		if err != nil {
			return nil, wrap(err, "listing announcements")
		}
		for _, a := range resp.Announcements {
			anns = append(anns, timeline.RawAnnouncement{
				ID:        a.Id,
				CourseID:  a.CourseId,
				Text:      a.Text,
				Link:      a.AlternateLink,
				Materials: decodeMaterials(a.Materials),
				CreatedAt: parseTimestamp(a.CreationTime),
			})
		}
		if resp.NextPageToken == "" {
			return anns, nil
		}
		pageToken = resp.NextPageToken
	}
}

// Materials lists a course's material posts.
func (s *Source) Materials(ctx context.Context, courseID string) ([]timeline.RawMaterial, error) {
	resp, err := s.svc.Courses.CourseWorkMaterials.List(courseID).Context(ctx).Do()
	if err != nil {
		return nil, wrap(err, "listing course materials")
	}

	mats := make([]timeline.RawMaterial, 0, len(resp.CourseWorkMaterial))
	for _, m := range resp.CourseWorkMaterial {
		mats = append(mats, timeline.RawMaterial{
			ID:          m.Id,
			CourseID:    m.CourseId,
			Title:       m.Title,
			Description: m.Description,
			Link:        m.AlternateLink,
			Materials:   decodeMaterials(m.Materials),
			CreatedAt:   parseTimestamp(m.CreationTime),
		})
	}
	return mats, nil
}

// decodeMaterials turns the API's one-of attachment shape into tagged materials.
// Attachments of unknown shape are skipped.
func decodeMaterials(in []*classroom.Material) []timeline.Material {
	if len(in) == 0 {
		return nil
	}
	out := make([]timeline.Material, 0, len(in))
	for _, m := range in {
		switch {
		case m.DriveFile != nil && m.DriveFile.DriveFile != nil:
			f := m.DriveFile.DriveFile
			out = append(out, timeline.Material{
				Kind:         timeline.MaterialDriveFile,
				ID:           f.Id,
				Title:        f.Title,
				URL:          f.AlternateLink,
				ThumbnailURL: f.ThumbnailUrl,
			})
		case m.YoutubeVideo != nil:
			v := m.YoutubeVideo
			out = append(out, timeline.Material{
				Kind:         timeline.MaterialYouTubeVideo,
				ID:           v.Id,
				Title:        v.Title,
				URL:          v.AlternateLink,
				ThumbnailURL: v.ThumbnailUrl,
			})
		case m.Link != nil:
			out = append(out, timeline.Material{
				Kind:         timeline.MaterialLink,
				Title:        m.Link.Title,
				URL:          m.Link.Url,
				ThumbnailURL: m.Link.ThumbnailUrl,
			})
		case m.Form != nil:
			out = append(out, timeline.Material{
				Kind:         timeline.MaterialForm,
				Title:        m.Form.Title,
				URL:          m.Form.FormUrl,
				ThumbnailURL: m.Form.ThumbnailUrl,
			})
		}
	}
	return out
}

func parseTimestamp(s string) time.Time {
	t, err := time.Parse(time.RFC3339Nano, s)
	if err != nil {
		return time.Time{}
	}
	return t
}

// wrap maps a rejected credential to core.ErrUnauthenticated.
func wrap(err error, msg string) error {
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusUnauthorized, http.StatusForbidden:
			return errors.Wrap(core.ErrUnauthenticated, msg)
		}
	}
	return errors.Wrap(err, msg)
}
