// Package calendar writes confirmed events to the user's Google Calendar.
package calendar

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/pkg/errors"
	"golang.org/x/oauth2"
	gcal "google.golang.org/api/calendar/v3"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/option"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

// reminder offsets, in minutes before the event
var reminderMinutes = []int64{1440, 60}

// CreatedEvent identifies an event written to the calendar.
type CreatedEvent struct {
	ID   string
	Link string
}

// Writer creates calendar events.
type Writer interface {
	CreateEvent(ctx context.Context, accessToken string, ev timeline.ReviewedEvent, timezone string) (CreatedEvent, error)
}

// Observer is told the outcome of each write. Optional.
type Observer interface {
	ObserveCalendarWrite(success bool)
}

type Service struct {
	endpoint   string
	calendarID string
	timezone   string
	httpClient *http.Client
	obs        Observer
}

var _ Writer = (*Service)(nil)

func NewService(conf *core.Config) *Service {
	calendarID := conf.Calendar.CalendarID
	if calendarID == "" {
		calendarID = "primary"
	}
	return &Service{
		endpoint:   conf.Calendar.Endpoint,
		calendarID: calendarID,
		timezone:   conf.Calendar.Timezone,
	}
}

// WithHTTPClient replaces the OAuth transport. Used in tests.
func (s *Service) WithHTTPClient(client *http.Client) *Service {
	s.httpClient = client
	return s
}

func (s *Service) WithObserver(obs Observer) *Service {
	s.obs = obs
	return s
}

// CreateEvent inserts ev with popup reminders one day and one hour before.
// An empty timezone falls back to the configured one.
func (s *Service) CreateEvent(ctx context.Context, accessToken string, ev timeline.ReviewedEvent, timezone string) (CreatedEvent, error) {
	created, err := s.createEvent(ctx, accessToken, ev, timezone)
	if s.obs != nil {
		s.obs.ObserveCalendarWrite(err == nil)
	}
	return created, err
}

func (s *Service) createEvent(ctx context.Context, accessToken string, ev timeline.ReviewedEvent, timezone string) (CreatedEvent, error) {
	if accessToken == "" {
		return CreatedEvent{}, core.ErrUnauthenticated
	}
	if timezone == "" {
		timezone = s.timezone
	}
	start, err := dateTime(ev.Date, ev.StartTime)
	if err != nil {
		return CreatedEvent{}, err
	}
	end, err := dateTime(ev.Date, ev.EndTime)
	if err != nil {
		return CreatedEvent{}, err
	}

	svc, err := s.client(ctx, accessToken)
	if err != nil {
		return CreatedEvent{}, err
	}

	event := &gcal.Event{
		Summary:     ev.Title,
		Description: description(ev),
		Start:       &gcal.EventDateTime{DateTime: start, TimeZone: timezone},
		End:         &gcal.EventDateTime{DateTime: end, TimeZone: timezone},
		Reminders: &gcal.EventReminders{
			UseDefault:      false,
			ForceSendFields: []string{"UseDefault"},
		},
	}
	for _, m := range reminderMinutes {
		event.Reminders.Overrides = append(event.Reminders.Overrides, &gcal.EventReminder{Method: "popup", Minutes: m})
	}

	created, err := svc.Events.Insert(s.calendarID, event).Context(ctx).Do()
	if err != nil {
		var gerr *googleapi.Error
		if errors.As(err, &gerr) && gerr.Code == http.StatusUnauthorized {
			return CreatedEvent{}, errors.Wrap(core.ErrUnauthenticated, "inserting calendar event")
		}
		return CreatedEvent{}, errors.Wrap(err, "inserting calendar event")
	}
	return CreatedEvent{ID: created.Id, Link: created.HtmlLink}, nil
}

func (s *Service) client(ctx context.Context, accessToken string) (*gcal.Service, error) {
	var opts []option.ClientOption
	if s.httpClient != nil {
		opts = append(opts, option.WithHTTPClient(s.httpClient))
	} else {
		ts := oauth2.StaticTokenSource(&oauth2.Token{AccessToken: accessToken, TokenType: "Bearer"})
		opts = append(opts, option.WithTokenSource(ts))
	}
	if s.endpoint != "" {
		opts = append(opts, option.WithEndpoint(s.endpoint))
	}
	svc, err := gcal.NewService(ctx, opts...)
	if err != nil {
		return nil, errors.Wrap(err, "creating calendar client")
	}
	return svc, nil
}

// dateTime joins a YYYY-MM-DD date and an HH:MM time into a zone-less RFC 3339 value.
func dateTime(date, clock string) (string, error) {
	if _, err := time.Parse("2006-01-02", date); err != nil {
		return "", errors.Errorf("invalid date format: %s", date)
	}
	if _, err := time.Parse("15:04", clock); err != nil {
		return "", errors.Errorf("invalid time format: %s", clock)
	}
	return date + "T" + clock + ":00", nil
}

func description(ev timeline.ReviewedEvent) string {
	d := fmt.Sprintf("Auto-detected %s using AI\n", ev.Type)
	if ev.Notes != "" {
		d += "Additional notes: " + ev.Notes
	}
	return d
}
