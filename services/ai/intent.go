package ai

import (
	"context"
	"encoding/json"
	"strings"
	"time"

	"github.com/pkg/errors"

	"github.com/trezcool/studentsync/core"
	"github.com/trezcool/studentsync/core/timeline"
)

const (
	IntentSearch   = "search"
	IntentGreeting = "greeting"
	IntentUnknown  = "unknown"
)

// Intent is the structured reading of a chat message.
type Intent struct {
	Intent   string                  `json:"intent"`
	Reply    string                  `json:"reply,omitempty"`
	Criteria timeline.SearchCriteria `json:"criteria"`
}

// IntentClassifier turns a free-form chat message into search criteria.
type IntentClassifier struct {
	model   JSONModel
	limiter *Limiter
	prompt  Prompt
	timeout time.Duration
	loc     *time.Location
}

func NewIntentClassifier(conf *core.Config, model JSONModel, limiter *Limiter, prompts *Prompts) *IntentClassifier {
	return &IntentClassifier{
		model:   model,
		limiter: limiter,
		prompt:  prompts.Intent(),
		timeout: conf.AI.Timeout,
		loc:     conf.Location(),
	}
}

// Classify never fails on a malformed answer: it reports IntentUnknown instead.
func (c *IntentClassifier) Classify(ctx context.Context, message string) (Intent, error) {
	if c.model == nil {
		return Intent{}, ErrNotConfigured
	}

	data := newPromptData(time.Now().In(c.loc))
	data.Message = message
	system, user, err := c.prompt.Render(data)
	if err != nil {
		return Intent{}, err
	}

	raw, err := call(ctx, c.model, c.limiter, c.timeout, system, user)
	if err != nil {
		return Intent{}, errors.Wrap(err, "classifying chat message")
	}

	var intent Intent
	if err := json.Unmarshal(timeline.StripFences(raw), &intent); err != nil {
		return Intent{Intent: IntentUnknown}, nil
	}
	switch intent.Intent {
	case IntentSearch, IntentGreeting:
	default:
		intent.Intent = IntentUnknown
	}
	intent.Criteria.Type = strings.ToUpper(intent.Criteria.Type)
	intent.Criteria.FileFormat = timeline.FileFormat(strings.ToUpper(string(intent.Criteria.FileFormat)))
	return intent, nil
}
