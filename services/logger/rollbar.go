// Package logsvc prints log entries and reports them to Rollbar.
package logsvc

import (
	"log"
	"time"

	pkgerrors "github.com/pkg/errors"
	"github.com/rollbar/rollbar-go"
	"github.com/rollbar/rollbar-go/errors"

	"github.com/trezcool/studentsync/core"
)

type level int

const (
	levelDebug level = iota
	levelInfo
	levelWarn
	levelError
	levelCritical
)

type RollbarLogger struct {
	std      *log.Logger
	minLevel level
}

var _ core.Logger = (*RollbarLogger)(nil)

// NewRollbarLogger reports to Rollbar only outside debug and test modes, and only with a token.
// Debug entries are printed in debug mode only.
func NewRollbarLogger(std *log.Logger, conf *core.Config) *RollbarLogger {
	rollbar.SetToken(conf.RollbarToken)
	rollbar.SetEnvironment(conf.Env)
	rollbar.SetServerHost(conf.Server.Host)
	rollbar.SetCodeVersion(conf.Build)
	rollbar.SetStackTracer(errors.StackTracer)
	rollbar.SetEnabled(conf.RollbarToken != "" && !conf.Debug && !conf.TestMode)

	l := &RollbarLogger{std: std, minLevel: levelInfo}
	if conf.Debug {
		l.minLevel = levelDebug
	}
	return l
}

func (l RollbarLogger) Enable(enabled bool) {
	rollbar.SetEnabled(enabled)
}

// Close waits for queued reports to be sent.
func (l RollbarLogger) Close(timeout time.Duration) error {
	return closeRollbar(timeout)
}

var (
	errCloseTimeout = pkgerrors.New("rollbar: timed out waiting for queued reports")

	// mockable; closing the default client is final for the process
	rollbarClose = rollbar.Close
)

// closeRollbar runs rollbar.Close, which blocks until the queue drains, bounded by timeout.
func closeRollbar(timeout time.Duration) error {
	done, closeFn := make(chan struct{}), rollbarClose
	go func() {
		closeFn()
		close(done)
	}()

	select {
	case <-done:
		return nil
	case <-time.After(timeout):
		return errCloseTimeout
	}
}

// prepare extracts the first core.Person from args and sets it as the Rollbar person.
// expected fmt: msg | error, map[string]interface{}, core.Person
func prepare(msg string, args []interface{}) (report []interface{}, rest []interface{}) {
	var person *core.Person
	report = make([]interface{}, 0, len(args)+1)
	report = append(report, msg)
	for _, arg := range args {
		if p, ok := arg.(core.Person); ok {
			if person == nil {
				person = &p
			}
			continue
		}
		report = append(report, arg)
		rest = append(rest, arg)
	}
	if person != nil {
		rollbar.SetPerson(person.ID, person.Username, person.Email)
	} else {
		rollbar.ClearPerson()
	}
	return report, rest
}

func (l RollbarLogger) log(lvl level, msg string, args []interface{}) {
	if lvl < l.minLevel {
		return
	}
	report, rest := prepare(msg, args)
	switch lvl {
	case levelDebug:
		rollbar.Debug(report...)
	case levelInfo:
		rollbar.Info(report...)
	case levelWarn:
		rollbar.Warning(report...)
	case levelError:
		rollbar.Error(report...)
	default:
		rollbar.Critical(report...)
	}

	l.std.Println(msg)
	for _, arg := range rest {
		l.std.Printf("%+v\n", arg)
	}
}

func (l RollbarLogger) Debug(msg string, args ...interface{}) { l.log(levelDebug, msg, args) }
func (l RollbarLogger) Info(msg string, args ...interface{})  { l.log(levelInfo, msg, args) }
func (l RollbarLogger) Warn(msg string, args ...interface{})  { l.log(levelWarn, msg, args) }
func (l RollbarLogger) Error(msg string, args ...interface{}) { l.log(levelError, msg, args) }

func (l RollbarLogger) Fatal(msg string, args ...interface{}) {
	l.log(levelCritical, msg, args)
	_ = closeRollbar(2 * time.Second)
	l.std.Fatal(msg)
}
