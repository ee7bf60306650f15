package echoapi

import (
	"net/http"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
)

// failure is the body of every unsuccessful response.
type failure struct {
	Success bool              `json:"success"`
	Reason  string            `json:"reason,omitempty"`
	Message string            `json:"message"`
	Error   string            `json:"error,omitempty"`
	Errors  map[string]string `json:"errors,omitempty"`
}

func newFailure(code int, reason, message string) *echo.HTTPError {
	return echo.NewHTTPError(code, failure{Reason: reason, Message: message})
}

var errUnauthorized = newFailure(http.StatusUnauthorized, "UNAUTHORIZED", "user not authenticated")

// newAppHTTPErrorHandler returns a custom echo.HTTPErrorHandler that knows how to handle our errors.
// signalShutdown is called in order to gracefully shutdown the Server whenever a core.shutdown error is caught.
func newAppHTTPErrorHandler(logger core.Logger, translator ut.Translator, signalShutdown func()) echo.HTTPErrorHandler {
	return func(err error, ctx echo.Context) {
		var (
			code int
			body failure
		)

		switch origErr := errors.Cause(err).(type) {
		case *echo.HTTPError:
			if origErr == middleware.ErrJWTMissing {
				origErr = errUnauthorized
			}
			if origErr.Internal != nil {
				if herr, ok := origErr.Internal.(*echo.HTTPError); ok {
					origErr = herr
				}
			}
			code = origErr.Code
			switch m := origErr.Message.(type) {
			case failure:
				body = m
			case string:
				body.Message = m
			default:
				body.Message = http.StatusText(code)
			}
		case validator.ValidationErrors:
			code = http.StatusBadRequest
			body.Message = "invalid data"
			body.Errors = fieldMap(core.ValidationFields(origErr, translator))
		case *core.ValidationError:
			code = http.StatusBadRequest
			body.Message = origErr.Error()
			if body.Message == "" {
				body.Message = "invalid data"
			}
			body.Errors = fieldMap(origErr.Fields)
		default:
			if core.IsUnauthenticated(err) {
				code = http.StatusUnauthorized
				body = errUnauthorized.Message.(failure)
				break
			}

			// any other error is a server error
			code = http.StatusInternalServerError
			msg := http.StatusText(http.StatusInternalServerError)
			body.Message = msg

			if claims, cErr := getContextClaims(ctx); cErr == nil {
				logger.Error(msg, errors.Wrap(err, msg), claims.Person())
			} else {
				logger.Error(msg, errors.Wrap(err, msg))
			}

			// shutting down...
			if core.IsShutdown(err) {
				signalShutdown()
			}
		}

		body.Success = false
		if ctx.Echo().Debug {
			body.Error = err.Error()
		}

		// Send response
		if !ctx.Response().Committed {
			if ctx.Request().Method == http.MethodHead { // Issue #608
				err = ctx.NoContent(code)
			} else {
				err = ctx.JSON(code, body)
			}
			if err != nil {
				ctx.Echo().Logger.Error(err)
			}
		}
	}
}

func fieldMap(flds []core.FieldError) map[string]string {
	if len(flds) == 0 {
		return nil
	}
	m := make(map[string]string, len(flds))
	for _, f := range flds {
		m[f.Field] = f.Error
	}
	return m
}
