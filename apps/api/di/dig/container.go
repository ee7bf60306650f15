package dig_container

import (
	"context"
	"fmt"
	"log"
	"os"

	ut "github.com/go-playground/universal-translator"
	"github.com/go-playground/validator/v10"
	"github.com/jmoiron/sqlx"
	"github.com/pkg/errors"
	"go.uber.org/dig"

	echoapi "github.com/trezcool/studentsync/apps/api/echo"
	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/push"
	"github.com/trezcool/studentsync/core/timeline"
	"github.com/trezcool/studentsync/services/ai"
	"github.com/trezcool/studentsync/services/calendar"
	"github.com/trezcool/studentsync/services/classroom"
	emailsvc "github.com/trezcool/studentsync/services/email"
	logsvc "github.com/trezcool/studentsync/services/logger"
	"github.com/trezcool/studentsync/services/metrics"
	pushsvc "github.com/trezcool/studentsync/services/push"
	"github.com/trezcool/studentsync/storage/cache"
	"github.com/trezcool/studentsync/storage/database"
	inmemdb "github.com/trezcool/studentsync/storage/database/inmem"
	"github.com/trezcool/studentsync/storage/database/pgrepos"
)

// detection schemas: the confirmation flow reviews one exam at a time,
// the timeline uses the configured schema.
const examSchema = "v3"

type (
	DBLoggerParam struct {
		dig.In
		Logger core.Logger `name:"dbLogger"`
	}

	// DBParam is nil unless a component is configured to use postgres.
	DBParam struct {
		dig.In
		DB *sqlx.DB `optional:"true"`
	}

	detectorsResult struct {
		dig.Out
		Exams         *timeline.Detector `name:"examDetector"`
		Announcements *timeline.Detector `name:"announcementDetector"`
	}

	detectorsParam struct {
		dig.In
		Exams         *timeline.Detector `name:"examDetector"`
		Announcements *timeline.Detector `name:"announcementDetector"`
	}

	serverParam struct {
		dig.In
		Conf       *core.Config
		Logger     core.Logger
		Validate   *validator.Validate
		Translator ut.Translator
		Aggregator timeline.Aggregator
		Detectors  detectorsParam
		Intent     *ai.IntentClassifier
		Calendar   calendar.Writer
		Push       *push.Service
		Mail       core.EmailService
		Metrics    *metrics.Metrics
	}
)

func newLogger(conf *core.Config) (core.Logger, *logsvc.RollbarLogger) {
	stdLogger := log.New(os.Stdout, "API : ", log.LstdFlags)
	logger := logsvc.NewRollbarLogger(stdLogger, conf)
	return logger, logger
}

func newDBLogger(conf *core.Config) core.Logger {
	stdLogger := log.New(os.Stdout, "DB : ", log.LstdFlags|log.Lmicroseconds|log.Lshortfile)
	return logsvc.NewRollbarLogger(stdLogger, conf)
}

func usesPostgres(conf *core.Config) bool {
	return conf.Cache.Driver == cache.DriverPostgres || conf.Push.Driver == pushDriverPostgres
}

func newDB(conf *core.Config, loggerParam DBLoggerParam) *sqlx.DB {
	if !usesPostgres(conf) {
		return nil
	}

	setUp := func(ctx context.Context) (*sqlx.DB, error) {
		if err := database.CreateIfNotExist(ctx, conf); err != nil {
			return nil, err
		}

		db, err := database.Open(ctx, conf)
		if err != nil {
			return nil, err
		}

		if err = database.Migrate(ctx, db.DB); err != nil {
			return nil, err
		}
		return db, nil
	}

	db, err := setUp(context.Background())
	if err != nil {
		loggerParam.Logger.Fatal(fmt.Sprintf("setting up database: %v", err), err)
	}
	return db
}

func newValidator(translator ut.Translator) *validator.Validate {
	validate := validator.New()
	core.InitValidators(validate, translator)
	return validate
}

func newCache(conf *core.Config, dbParam DBParam) (timeline.Cache, error) {
	if conf.Cache.Driver == cache.DriverPostgres {
		if dbParam.DB == nil {
			return nil, errors.New("postgres cache needs a database")
		}
		return pgrepos.NewCache(dbParam.DB, conf.Cache.TTL), nil
	}
	return cache.New(conf)
}

// newModel tolerates a missing API key: detection then yields nothing and the API keeps serving.
func newModel(conf *core.Config, logger core.Logger) (ai.JSONModel, error) {
	model, err := ai.NewModel(context.Background(), conf)
	if err != nil {
		if errors.Cause(err) == ai.ErrNotConfigured {
			logger.Warn(fmt.Sprintf("text model %q not configured: AI detection disabled", conf.AI.Provider))
			return nil, nil
		}
		return nil, err
	}
	return model, nil
}

func newDetectors(
	conf *core.Config,
	model ai.JSONModel,
	limiter *ai.Limiter,
	prompts *ai.Prompts,
	detectionCache timeline.Cache,
	logger core.Logger,
	m *metrics.Metrics,
) (detectorsResult, error) {
	normalizer := timeline.NewNormalizer(conf.Location())
	build := func(version string) (*timeline.Detector, error) {
		extractor, err := ai.NewExtractor(conf, model, limiter, prompts, version)
		if err != nil {
			return nil, err
		}
		return timeline.NewDetector(extractor.WithObserver(m), detectionCache, normalizer, logger, m), nil
	}

	exams, err := build(examSchema)
	if err != nil {
		return detectorsResult{}, err
	}
	announcements, err := build(conf.AI.SchemaVersion)
	if err != nil {
		return detectorsResult{}, err
	}
	return detectorsResult{Exams: exams, Announcements: announcements}, nil
}

func newAggregator(conf *core.Config, detectors detectorsParam, logger core.Logger, m *metrics.Metrics) timeline.Aggregator {
	return timeline.NewService(conf, classroom.NewConnector(conf), detectors.Announcements, logger).WithMetrics(m)
}

func newCalendar(conf *core.Config, m *metrics.Metrics) calendar.Writer {
	return calendar.NewService(conf).WithObserver(m)
}

const pushDriverPostgres = "postgres"

func newPushRepository(conf *core.Config, dbParam DBParam) (push.Repository, error) {
	if conf.Push.Driver == pushDriverPostgres {
		if dbParam.DB == nil {
			return nil, errors.New("postgres push storage needs a database")
		}
		return pgrepos.NewSubscriptionRepository(dbParam.DB), nil
	}
	return inmemdb.NewSubscriptionRepository(inmemdb.Open()), nil
}

func newPushService(conf *core.Config, repo push.Repository, logger core.Logger, m *metrics.Metrics) *push.Service {
	return push.NewService(repo, pushsvc.NewSender(conf), logger).WithObserver(m)
}

func newServer(p serverParam) *echoapi.Server {
	return echoapi.NewServer(p.Conf, p.Logger, p.Validate, p.Translator, &echoapi.Deps{
		Timeline:             p.Aggregator,
		ExamDetector:         p.Detectors.Exams,
		AnnouncementDetector: p.Detectors.Announcements,
		Intent:               p.Intent,
		Calendar:             p.Calendar,
		Push:                 p.Push,
		Mail:                 p.Mail,
		Metrics:              p.Metrics.Handler(),
	})
}

// New returns a new dependency injection dig.Container
func New() *dig.Container {
	c := dig.New()

	must(c.Provide(core.NewConfig))
	must(c.Provide(newLogger))
	must(c.Provide(newDBLogger, dig.Name("dbLogger")))
	must(c.Provide(newDB))
	must(c.Provide(core.NewTranslator))
	must(c.Provide(newValidator))
	must(c.Provide(metrics.New))
	must(c.Provide(newCache))
	must(c.Provide(newModel))
	must(c.Provide(ai.NewLimiterFromConfig))
	must(c.Provide(ai.LoadPrompts))
	must(c.Provide(newDetectors))
	must(c.Provide(ai.NewIntentClassifier))
	must(c.Provide(newAggregator))
	must(c.Provide(newCalendar))
	must(c.Provide(emailsvc.NewService))
	must(c.Provide(newPushRepository))
	must(c.Provide(newPushService))
	must(c.Provide(newServer))

	return c
}

// must exits program if err happened
func must(err error) {
	if err != nil {
		log.Fatal(errors.Wrap(err, "failed to provide dependency").Error())
	}
}
