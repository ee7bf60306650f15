package echoapi

import (
	"net/http"
	"strings"

	"github.com/labstack/echo/v4"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
)

type (
	SubscribeResponse struct {
		Success      bool              `json:"success"`
		Message      string            `json:"message"`
		Subscription push.Subscription `json:"subscription"`
	}

	SendRequest struct {
		Message      string             `json:"message"`
		Subscription *push.Subscription `json:"subscription"`
	}

	SendResponse struct {
		Success bool   `json:"success"`
		Message string `json:"message"`
		Sent    int    `json:"sent"`
	}
)

type pushApi struct {
	*Server
}

func registerPushAPI(g *echo.Group, s *Server) {
	api := pushApi{s}

	pg := g.Group("/push")
	pg.POST("/subscribe", api.subscribe)
	pg.POST("/send", api.send)
}

func (api pushApi) subscribe(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data push.Subscription
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to Subscription")
	}
	if err := api.validate.Struct(data); err != nil {
		return err
	}

	sub, err := api.deps.Push.Subscribe(ctx.Request().Context(), claims.Subject, data)
	if err != nil {
		return errors.Wrap(err, "subscribing")
	}

	return ctx.JSON(http.StatusCreated, SubscribeResponse{
		Success:      true,
		Message:      "Subscription saved successfully",
		Subscription: sub,
	})
}

func (api pushApi) send(ctx echo.Context) error {
	claims, err := getContextClaims(ctx)
	if err != nil {
		return err
	}

	var data SendRequest
	if err := ctx.Bind(&data); err != nil {
		return errors.Wrap(err, "binding to SendRequest")
	}
	if strings.TrimSpace(data.Message) == "" {
		return core.NewValidationError(nil, core.FieldError{Field: "message", Error: "this field is required"})
	}
	if data.Subscription != nil {
		if err := api.validate.Struct(data.Subscription); err != nil {
			return err
		}
	}

	sent, err := api.deps.Push.Send(ctx.Request().Context(), claims.Subject, data.Message, data.Subscription)
	if err != nil {
		if errors.Cause(err) == push.ErrNoSubscriptions {
			return core.NewValidationError(err)
		}
		herr := newFailure(http.StatusInternalServerError, "", "Failed to send notification")
		herr.Internal = err
		api.logger.Error("echoapi.send: "+err.Error(), err, claims.Person())
		return herr
	}

	return ctx.JSON(http.StatusOK, SendResponse{
		Success: true,
		Message: "Notification sent successfully",
		Sent:    sent,
	})
}
