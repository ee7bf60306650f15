package timeline

import (
	"context"
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/sync/errgroup"

	"github.com/trezcool/studentsync/core"
)

const announcementTitleLen = 100

type (
	// Source reads one user's classroom data.
	Source interface {
		Courses(ctx context.Context) ([]Course, error)
		CourseWork(ctx context.Context, courseID string) ([]RawAssignment, error)
		Announcements(ctx context.Context, courseID string) ([]RawAnnouncement, error)
		Materials(ctx context.Context, courseID string) ([]RawMaterial, error)
	}

	// Connector opens a Source for the holder of accessToken.
	Connector interface {
		Connect(ctx context.Context, accessToken string) (Source, error)
	}

	// AggregateMetrics receives aggregation timings. Optional.
	AggregateMetrics interface {
		ObserveAggregation(d time.Duration, items int)
	}

	// Aggregator builds the timeline of the signed-in user.
	Aggregator interface {
		Aggregate(ctx context.Context, accessToken string) ([]CombinedItem, error)
	}
)

type Service struct {
	connector   Connector
	detector    *Detector
	loc         *time.Location
	concurrency int
	logger      core.Logger
	metrics     AggregateMetrics
	now         func() time.Time
}

var _ Aggregator = (*Service)(nil)

func NewService(conf *core.Config, connector Connector, detector *Detector, logger core.Logger) *Service {
	concurrency := conf.Classroom.CourseConcurrency
	if concurrency < 1 {
		concurrency = 1
	}
	return &Service{
		connector:   connector,
		detector:    detector,
		loc:         conf.Location(),
		concurrency: concurrency,
		logger:      logger,
		now:         time.Now,
	}
}

func (s *Service) WithMetrics(m AggregateMetrics) *Service {
	s.metrics = m
	return s
}

// WithClock overrides the time source. Used in tests.
func (s *Service) WithClock(now func() time.Time) *Service {
	s.now = now
	return s
}

// Aggregate fetches every active course and merges its records into one ordered list.
// Only a failure to authenticate with the platform is returned; everything else degrades.
func (s *Service) Aggregate(ctx context.Context, accessToken string) ([]CombinedItem, error) {
	start := s.now()

	src, err := s.connector.Connect(ctx, accessToken)
	if err != nil {
		return nil, errors.Wrap(err, "connecting to classroom")
	}

	courses, err := src.Courses(ctx)
	if err != nil {
		if core.IsUnauthenticated(err) {
			return nil, errors.Wrap(err, "fetching courses")
		}
		s.logger.Error(fmt.Sprintf("fetching courses: %v", err), err)
		return []CombinedItem{}, nil
	}

	perCourse := make([][]CombinedItem, len(courses))
	var g errgroup.Group
	g.SetLimit(s.concurrency)
	for i, course := range courses {
		i, course := i, course
		g.Go(func() error {
			perCourse[i] = s.courseItems(ctx, src, course)
			return nil
		})
	}
	_ = g.Wait()

	var all []CombinedItem
	for _, items := range perCourse {
		all = append(all, items...)
	}
	now := s.now()
	all = Finalize(all, now)

	if s.metrics != nil {
		s.metrics.ObserveAggregation(now.Sub(start), len(all))
	}
	return all, nil
}

// courseItems processes assignments fully before announcements, then materials.
func (s *Service) courseItems(ctx context.Context, src Source, course Course) []CombinedItem {
	var (
		work          []RawAssignment
		announcements []RawAnnouncement
		materials     []RawMaterial
	)

	var fetch errgroup.Group
	fetch.Go(func() error {
		var err error
		if work, err = src.CourseWork(ctx, course.ID); err != nil {
			s.logger.Warn(fmt.Sprintf("fetching coursework for %s: %v", course.Name, err), err)
			work = nil
		}
		return nil
	})
	fetch.Go(func() error {
		var err error
		if announcements, err = src.Announcements(ctx, course.ID); err != nil {
			s.logger.Warn(fmt.Sprintf("fetching announcements for %s: %v", course.Name, err), err)
			announcements = nil
		}
		return nil
	})
	fetch.Go(func() error {
		var err error
		if materials, err = src.Materials(ctx, course.ID); err != nil {
			s.logger.Warn(fmt.Sprintf("fetching materials for %s: %v", course.Name, err), err)
			materials = nil
		}
		return nil
	})
	_ = fetch.Wait()

	items := make([]CombinedItem, 0, len(work)+len(announcements)+len(materials))

	workItems := make([]CombinedItem, len(work))
	var wg errgroup.Group
	for i, w := range work {
		i, w := i, w
		wg.Go(func() error {
			workItems[i] = s.assignmentItem(ctx, course, w)
			return nil
		})
	}
	_ = wg.Wait()
	items = append(items, workItems...)

	annItems := make([][]CombinedItem, len(announcements))
	var ag errgroup.Group
	for i, a := range announcements {
		i, a := i, a
		ag.Go(func() error {
			annItems[i] = s.announcementItems(ctx, course, a)
			return nil
		})
	}
	_ = ag.Wait()
	for _, ai := range annItems {
		items = append(items, ai...)
	}

	for _, m := range materials {
		items = append(items, CombinedItem{
			ID:          m.ID,
			Title:       m.Title,
			Description: m.Description,
			Materials:   m.Materials,
			Type:        TypeMaterial,
			CourseID:    course.ID,
			CourseName:  course.Name,
			Link:        m.Link,
		})
	}
	return items
}

// dueDate converts the platform's UTC due date/time into the configured zone.
// Without a due time the date is taken at local midnight.
func (s *Service) dueDate(w RawAssignment) *time.Time {
	if w.DueDate == nil || w.DueDate.Year == 0 || w.DueDate.Month == 0 || w.DueDate.Day == 0 {
		return nil
	}
	dd := w.DueDate
	if w.DueTime == nil {
		d := time.Date(dd.Year, time.Month(dd.Month), dd.Day, 0, 0, 0, 0, s.loc)
		return &d
	}
	d := time.Date(dd.Year, time.Month(dd.Month), dd.Day, w.DueTime.Hours, w.DueTime.Minutes, 0, 0, time.UTC).In(s.loc)
	return &d
}

func (s *Service) assignmentItem(ctx context.Context, course Course, w RawAssignment) CombinedItem {
	item := CombinedItem{
		ID:          w.ID,
		Title:       w.Title,
		Description: w.Description,
		Materials:   w.Materials,
		Date:        s.dueDate(w),
		Type:        TypeAssignment,
		CourseID:    course.ID,
		CourseName:  course.Name,
		Link:        w.Link,
	}
	if strings.TrimSpace(w.Description) == "" {
		return item
	}

	for _, ev := range s.detector.Detect(ctx, w.Description, s.ref(w.CreatedAt)) {
		if ev.Type != TypeTest && ev.Type != TypeUrgent {
			continue
		}
		item.Type = ev.Type
		item.Summary = ev.Summary
		item.TestType = ev.TestType
		item.Confidence = ev.Confidence
		if item.Date == nil {
			item.Date = ev.Date
			item.StartDate = ev.StartDate
			item.EndDate = ev.EndDate
			item.Status = ev.Status
		}
		break
	}
	return item
}

func (s *Service) announcementItems(ctx context.Context, course Course, a RawAnnouncement) []CombinedItem {
	detected := s.detector.Detect(ctx, a.Text, s.ref(a.CreatedAt))
	if len(detected) == 0 {
		return []CombinedItem{{
			ID:          a.ID,
			Title:       core.Truncate(strings.TrimSpace(a.Text), announcementTitleLen, "..."),
			Description: a.Text,
			Materials:   a.Materials,
			Type:        TypeAnnouncement,
			CourseID:    course.ID,
			CourseName:  course.Name,
			Link:        a.Link,
		}}
	}

	items := make([]CombinedItem, 0, len(detected))
	for n, ev := range detected {
		ev.ID = detectedPrefix + a.ID + "-" + strconv.Itoa(n)
		ev.Description = a.Text
		ev.Materials = a.Materials
		ev.CourseID = course.ID
		ev.CourseName = course.Name
		ev.Link = a.Link
		items = append(items, ev)
	}
	return items
}

// ref is the reference date relative phrases are resolved against: the post's creation time.
func (s *Service) ref(created time.Time) time.Time {
	if created.IsZero() {
		return s.now().In(s.loc)
	}
	return created.In(s.loc)
}
