package ai

import (
	"context"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

// Outcomes reported to an Observer.
const (
	OutcomeOK          = "ok"
	OutcomeError       = "error"
	OutcomeRateLimited = "rate_limited"
	OutcomeMalformed   = "malformed"
	OutcomeUnavailable = "not_configured"
)

// Observer is told how each model call went. Optional.
type Observer interface {
	ObserveExtraction(provider, outcome string, d time.Duration)
}

// Extractor asks the model for candidate events in one schema version.
type Extractor struct {
	model   JSONModel
	limiter *Limiter
	prompt  Prompt
	version string
	timeout time.Duration
	loc     *time.Location
	obs     Observer
}

var _ timeline.Extractor = (*Extractor)(nil)

// NewExtractor accepts a nil model: every call then fails with ErrNotConfigured.
func NewExtractor(conf *core.Config, model JSONModel, limiter *Limiter, prompts *Prompts, version string) (*Extractor, error) {
	prompt, ok := prompts.Extract(version)
	if !ok {
		return nil, errors.Wrap(timeline.ErrUnknownSchema, version)
	}
	return &Extractor{
		model:   model,
		limiter: limiter,
		prompt:  prompt,
		version: version,
		timeout: conf.AI.Timeout,
		loc:     conf.Location(),
	}, nil
}

func (e *Extractor) WithObserver(obs Observer) *Extractor {
	e.obs = obs
	return e
}

func (e *Extractor) SchemaVersion() string { return e.version }

// Extract makes one bounded model call and decodes its answer.
func (e *Extractor) Extract(ctx context.Context, text string, ref time.Time) ([]timeline.CandidateEvent, error) {
	if e.model == nil {
		e.observe("", OutcomeUnavailable, 0)
		return nil, ErrNotConfigured
	}
	if ref.IsZero() {
		ref = time.Now()
	}

	data := newPromptData(ref.In(e.loc))
	data.Text = text
	system, user, err := e.prompt.Render(data)
	if err != nil {
		return nil, err
	}

	start := time.Now()
	raw, err := call(ctx, e.model, e.limiter, e.timeout, system, user)
	if err != nil {
		e.observe(e.model.Provider(), outcomeOf(err), time.Since(start))
		return nil, err
	}

	events, err := timeline.DecodeCandidates(e.version, raw)
	if err != nil {
		e.observe(e.model.Provider(), OutcomeMalformed, time.Since(start))
		return nil, errors.Wrap(err, "decoding model answer")
	}
	e.observe(e.model.Provider(), OutcomeOK, time.Since(start))
	return events, nil
}

func (e *Extractor) observe(provider, outcome string, d time.Duration) {
	if e.obs != nil {
		e.obs.ObserveExtraction(provider, outcome, d)
	}
}

func outcomeOf(err error) string {
	if IsRateLimited(err) {
		return OutcomeRateLimited
	}
	return OutcomeError
}

func call(ctx context.Context, model JSONModel, limiter *Limiter, timeout time.Duration, system, user string) ([]byte, error) {
	var raw []byte
	err := limiter.Do(ctx, func(ctx context.Context) error {
		if timeout > 0 {
			var cancel context.CancelFunc
			ctx, cancel = context.WithTimeout(ctx, timeout)
			defer cancel()
		}
		var err error
		raw, err = model.GenerateJSON(ctx, system, user)
		return err
	})
	return raw, err
}
