package echoapi

import (
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

const (
	reasonInvalidInput    = "INVALID_INPUT"
	reasonNoEventDetected = "NO_EVENT_DETECTED"
)

var (
	errEventRequired      = errors.New("Event data is required")
	errMissingEventFields = errors.New("Missing required event fields")
)

type (
	ParseRequest struct {
		Input         string `json:"input"`
		UserTimezone  string `json:"userTimezone" validate:"omitempty,tz"`
		ReferenceDate string `json:"referenceDate" validate:"omitempty,isodate"`
	}

	ParseResponse struct {
		Success      bool                     `json:"success"`
		Event        *timeline.ReviewedEvent  `json:"event,omitempty"`
		Events       []timeline.ReviewedEvent `json:"events,omitempty"`
		UserTimezone string                   `json:"userTimezone,omitempty"`
		Reason       string                   `json:"reason,omitempty"`
		Message      string                   `json:"message,omitempty"`
	}

	ConfirmRequest struct {
		Event        *timeline.ReviewedEvent `json:"event"`
		UserTimezone string                  `json:"userTimezone" validate:"omitempty,tz"`
	}

	ConfirmResponse struct {
		Success      bool   `json:"success"`
		Message      string `json:"message"`
		EventID      string `json:"eventId"`
		CalendarLink string `json:"calendarLink"`
	}

	AnnouncementRequest struct {
		Text string `json:"text"`
	}

	AnnouncementResponse struct {
		Success bool                    `json:"success"`
		Events  []timeline.CombinedItem `json:"events"`
	}
)

type eventsApi struct {
	*Server
}

func registerEventsAPI(g *echo.Group, s *Server) {
	api := eventsApi{s}

	g.POST("/events/parse", api.parse)
	g.POST("/events/confirm", api.confirm)
	g.POST("/announcements/parse", api.parseAnnouncement)
}

// Handlers

func (api eventsApi) parse(ctx echo.Context) error {
	var data ParseRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ParseRequest")
	}
	data.Input = strings.TrimSpace(data.Input)
	if data.Input == "" {
		return newFailure(http.StatusBadRequest, reasonInvalidInput, "Input must be a non-empty string")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	if data.UserTimezone == "" {
		data.UserTimezone = api.conf.Calendar.Timezone
	}

	loc := api.conf.Location()
	ref := time.Now().In(loc)
	if data.ReferenceDate != "" {
		d, _ := time.ParseInLocation("2006-01-02", data.ReferenceDate, loc)
		ref = time.Date(d.Year(), d.Month(), d.Day(), ref.Hour(), ref.Minute(), 0, 0, loc)
	}

	var events []timeline.ReviewedEvent
	for _, it := range api.deps.ExamDetector.Detect(ctx.Request().Context(), data.Input, ref) {
		if ev, ok := timeline.Review(it, loc); ok {
			events = append(events, ev)
		}
	}
	if len(events) == 0 {
		return ctx.JSON(http.StatusOK, ParseResponse{
			Reason:  reasonNoEventDetected,
			Message: "Could not detect an exam/test event in the provided input",
		})
	}

	return ctx.JSON(http.StatusOK, ParseResponse{
		Success:      true,
		Event:        &events[0],
		Events:       events,
		UserTimezone: data.UserTimezone,
	})
}

func (api eventsApi) confirm(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data ConfirmRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to ConfirmRequest")
	}
	if data.Event == nil {
		return core.NewValidationError(errEventRequired)
	}
	if err := api.validate.Struct(data.Event); err != nil {
		return core.NewValidationError(errMissingEventFields, core.ValidationFields(err, api.translator)...)
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}
	tz := data.UserTimezone
	if tz == "" {
		tz = api.conf.Calendar.Timezone
	}

	created, err := api.deps.Calendar.CreateEvent(ctx.Request().Context(), claims.AccessToken, *data.Event, tz)
	if err != nil {
		if core.IsUnauthenticated(err) {
			return err
		}
		api.logger.Error(fmt.Sprintf("echoapi.confirm: %v", err), err, claims.Person())
		herr := echo.NewHTTPError(http.StatusInternalServerError, failure{
			Message: "Failed to create calendar event",
			Error:   errors.Cause(err).Error(),
		})
		herr.Internal = err
		return herr
	}

	return ctx.JSON(http.StatusCreated, ConfirmResponse{
		Success:      true,
		Message:      "Event created successfully",
		EventID:      created.ID,
		CalendarLink: created.Link,
	})
}

func (api eventsApi) parseAnnouncement(ctx echo.Context) error {
	var data AnnouncementRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to AnnouncementRequest")
	}
	if strings.TrimSpace(data.Text) == "" {
		return newFailure(http.StatusBadRequest, reasonInvalidInput, "Text is required")
	}

	items := api.deps.AnnouncementDetector.Detect(ctx.Request().Context(), data.Text, time.Now().In(api.conf.Location()))
	if items == nil {
		items = []timeline.CombinedItem{}
	}
	return ctx.JSON(http.StatusOK, AnnouncementResponse{Success: true, Events: items})
}
