package echoapi

import (
	"net/http"
	"net/mail"
	"time"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/session"
	"github.com/trezcool/studentsync/core/timeline"
)

const digestTemplate = "digest"

type (
	TimelineResponse struct {
		Success bool                    `json:"success"`
		Items   []timeline.CombinedItem `json:"items"`
	}

	SummaryRequest struct {
		Week string `query:"week" json:"week" validate:"omitempty,isodate"`
	}

	SummaryResponse struct {
		Success bool                 `json:"success"`
		Summary timeline.WeekSummary `json:"summary"`
	}

	DigestResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Count   int    `json:"count"`
	}
)

type timelineApi struct {
	*Server
}

func registerTimelineAPI(g *echo.Group, s *Server) {
	api := timelineApi{s}

	g.GET("/timeline", api.list)
	g.GET("/timeline/summary", api.summary)
	g.POST("/notifications/digest", api.digest)
}

func (api timelineApi) items(ctx echo.Context) ([]timeline.CombinedItem, *session.Claims, error) {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return nil, nil, err
	}
	items, err := api.deps.Timeline.Aggregate(ctx.Request().Context(), claims.AccessToken)
	if err != nil {
		return nil, claims, errors.Wrap(err, "aggregating timeline")
	}
	if items == nil {
		items = []timeline.CombinedItem{}
	}
	return items, claims, nil
}

func (api timelineApi) list(ctx echo.Context) error {
	items, _, err := api.items(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, TimelineResponse{Success: true, Items: items})
}

func (api timelineApi) summary(ctx echo.Context) error {
	var data SummaryRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SummaryRequest")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	loc := api.conf.Location()
	now := time.Now().In(loc)
	week := now
	if data.Week != "" {
		week, _ = time.ParseInLocation("2006-01-02", data.Week, loc)
	}

	items, _, err := api.items(ctx)
	if err != nil {
		return err
	}
	return ctx.JSON(http.StatusOK, SummaryResponse{
		Success: true,
		Summary: timeline.Summarize(items, week, now),
	})
}

func (api timelineApi) digest(ctx echo.Context) error {
	items, claims, err := api.items(ctx)
	if err != nil {
		return err
	}
	if claims.Email == "" {
		return core.NewValidationError(errors.New("session has no email address"))
	}

	urgent := timeline.Urgent(items)
	if len(urgent) == 0 {
		return ctx.JSON(http.StatusOK, DigestResponse{Success: true, Message: "Nothing urgent", Count: 0})
	}

	loc := api.conf.Location()
	data := core.DigestData{Name: claims.Name, Items: make([]core.DigestItem, 0, len(urgent))}
	for _, it := range urgent {
		di := core.DigestItem{
			Type:       string(it.Type),
			Title:      it.Title,
			CourseName: it.CourseName,
			Summary:    it.Summary,
			Link:       it.Link,
		}
		if it.Date != nil {
			di.When = it.Date.In(loc).Format("Mon 2 Jan 15:04")
		}
		data.Items = append(data.Items, di)
	}

	api.deps.Mail.SendMessages(&core.EmailMessage{
		To:           []mail.Address{{Name: claims.Name, Address: claims.Email}},
		Subject:      "Your high priority items",
		TemplateName: digestTemplate,
		TemplateData: data,
	})

	return ctx.JSON(http.StatusAccepted, DigestResponse{Success: true, Message: "Digest queued", Count: len(urgent)})
}
