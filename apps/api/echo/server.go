package echoapi

import (
	"context"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/labstack/echo/v4"
	"github.com/labstack/echo/v4/middleware"
	"github.com/labstack/gommon/log"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
	"github.com/trezcool/studentsync/core/timeline"
	"github.com/trezcool/studentsync/services/ai"
	"github.com/trezcool/studentsync/services/calendar"
)

type (
	// EventDetector finds events in free text.
	EventDetector interface {
		Detect(ctx context.Context, text string, ref time.Time) []timeline.CombinedItem
	}

	IntentClassifier interface {
		Classify(ctx context.Context, message string) (ai.Intent, error)
	}

	// Deps are the services the API is built on.
	Deps struct {
		Timeline             timeline.Aggregator
		ExamDetector         EventDetector
		AnnouncementDetector EventDetector
		Intent               IntentClassifier
		Calendar             calendar.Writer
		Push                 *push.Service
		Mail                 core.EmailService
		Metrics              http.Handler
	}

	Server struct {
		conf       *core.Config
		logger     core.Logger
		app        *echo.Echo
		deps       *Deps
		validate   *validator.Validate
		translator ut.Translator
		errors     chan error
		shutdown   chan os.Signal
	}
)

func NewServer(
	conf *core.Config,
	logger core.Logger,
	validate *validator.Validate,
	translator ut.Translator,
	deps *Deps,
) *Server {
	s := &Server{
		conf:       conf,
		logger:     logger,
		app:        echo.New(),
		deps:       deps,
		validate:   validate,
		translator: translator,
		errors:     make(chan error, 1),
		shutdown:   make(chan os.Signal, 1),
	}
	signal.Notify(s.shutdown, os.Interrupt, syscall.SIGTERM)
	s.setup()
	return s
}

func (s *Server) setup() {
	debug := s.conf.Debug

	s.app.HideBanner = s.conf.TestMode
	s.app.Pre(middleware.RemoveTrailingSlash())
	s.app.Use(middleware.RequestIDWithConfig(middleware.RequestIDConfig{Generator: uuid.NewString}))
	if !s.conf.Server.DisableReqLogs {
		s.app.Use(middleware.Logger())
	}
	// do not recover in DEV|TEST mode
	if !(debug || s.conf.TestMode) {
		s.app.Use(middleware.RecoverWithConfig(middleware.RecoverConfig{LogLevel: log.ERROR}))
	}
	s.app.Use(timeoutMiddleware(s.conf.Server.RequestTimeout))

	s.app.HTTPErrorHandler = newAppHTTPErrorHandler(s.logger, s.translator, s.signalShutdown)
	s.app.Debug = debug

	s.app.GET("/", s.home)
	if s.deps.Metrics != nil {
		s.app.GET("/metrics", echo.WrapHandler(s.deps.Metrics))
	}

	v1 := s.app.Group("/v1", middleware.JWTWithConfig(newJWTConfig(s.conf)))

	registerEventsAPI(v1, s)
	registerChatAPI(v1, s)
	registerPushAPI(v1, s)
	registerTimelineAPI(v1, s)
}

// Start blocks until the server stops. Errors are reported on Errors().
func (s *Server) Start() {
	if err := s.app.Start(s.conf.Server.Address); err != nil && err != http.ErrServerClosed {
		s.errors <- err
	}
}

func (s *Server) Errors() <-chan error {
	return s.errors
}

func (s *Server) ShutdownSignal() <-chan os.Signal {
	return s.shutdown
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.app.Shutdown(ctx)
}

func (s *Server) Close() error {
	return s.app.Close()
}

func (s *Server) ServeHTTP(w http.ResponseWriter, r *http.Request) { // for tests
	s.app.ServeHTTP(w, r)
}

func (s *Server) signalShutdown() {
	select {
	case s.shutdown <- syscall.SIGTERM:
	default:
	}
}

func (s *Server) home(ctx echo.Context) error {
	return ctx.String(http.StatusOK, "Welcome to "+s.conf.AppName+" API!")
}
