package echoapi

import (
	"fmt"
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
	"github.com/trezcool/studentsync/services/ai"
)

type (
	IntentRequest struct {
		Message string `json:"message"`
	}

	IntentResponse struct {
		Success  bool                    `json:"success"`
		Intent   string                  `json:"intent"`
		Reply    string                  `json:"reply,omitempty"`
		Criteria timeline.SearchCriteria `json:"criteria"`
		Results  []timeline.CombinedItem `json:"results"`
	}
)

type chatApi struct {
	*Server
}

func registerChatAPI(g *echo.Group, s *Server) {
	api := chatApi{s}

	g.POST("/chat/intent", api.intent)
}

func (api chatApi) intent(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data IntentRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to IntentRequest")
	}
	if strings.TrimSpace(data.Message) == "" {
		return newFailure(http.StatusBadRequest, reasonInvalidInput, "Message is required")
	}

	intent, err := api.deps.Intent.Classify(ctx.Request().Context(), data.Message)
	if err != nil {
		api.logger.Error(fmt.Sprintf("echoapi.intent: %v", err), err, claims.Person())
		herr := newFailure(http.StatusInternalServerError, "", "Failed to parse query")
		herr.Internal = err
		return herr
	}

	resp := IntentResponse{
		Success:  true,
		Intent:   intent.Intent,
		Reply:    intent.Reply,
		Criteria: intent.Criteria,
		Results:  []timeline.CombinedItem{},
	}
	if intent.Intent == ai.IntentSearch {
		items, err := api.deps.Timeline.Aggregate(ctx.Request().Context(), claims.AccessToken)
		if err != nil {
			if core.IsUnauthenticated(err) {
				return err
			}
			return errors.Wrap(err, "aggregating timeline")
		}
		resp.Results = timeline.Search(items, intent.Criteria)
	}

	return ctx.JSON(http.StatusOK, resp)
}
