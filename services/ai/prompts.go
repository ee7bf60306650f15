package ai

import (
	"bytes"
	_ "embed"
	"text/template"
	"time"

	"github.com/pkg/errors"
	"gopkg.in/yaml.v3"
)

//go:embed prompts.yaml
var defaultPrompts []byte

type (
	promptSpec struct {
		System string `yaml:"system"`
		User   string `yaml:"user"`
	}

	promptFile struct {
		Extract map[string]promptSpec `yaml:"extract"`
		Intent  promptSpec            `yaml:"intent"`
	}

	// Prompt is a parsed system+user template pair.
	Prompt struct {
		system *template.Template
		user   *template.Template
	}

	// Prompts holds one extraction prompt per schema version plus the chat intent prompt.
	Prompts struct {
		extract map[string]Prompt
		intent  Prompt
	}

	PromptData struct {
		Text          string
		Message       string
		ReferenceDate string
		ReferenceDay  string
		Year          int
		Timezone      string
	}
)

// LoadPrompts parses the embedded prompts file.
func LoadPrompts() (*Prompts, error) {
	return ParsePrompts(defaultPrompts)
}

func ParsePrompts(raw []byte) (*Prompts, error) {
	var f promptFile
	if err := yaml.Unmarshal(raw, &f); err != nil {
		return nil, errors.Wrap(err, "decoding prompts")
	}

	p := &Prompts{extract: make(map[string]Prompt, len(f.Extract))}
	for version, spec := range f.Extract {
		prompt, err := spec.parse("extract." + version)
		if err != nil {
			return nil, err
		}
		p.extract[version] = prompt
	}
	intent, err := f.Intent.parse("intent")
	if err != nil {
		return nil, err
	}
	p.intent = intent
	return p, nil
}

func (s promptSpec) parse(name string) (Prompt, error) {
	if s.System == "" || s.User == "" {
		return Prompt{}, errors.Errorf("prompt %s: system and user are required", name)
	}
	sys, err := template.New(name + ".system").Option("missingkey=error").Parse(s.System)
	if err != nil {
		return Prompt{}, errors.Wrapf(err, "parsing prompt %s", name)
	}
	usr, err := template.New(name + ".user").Option("missingkey=error").Parse(s.User)
	if err != nil {
		return Prompt{}, errors.Wrapf(err, "parsing prompt %s", name)
	}
	return Prompt{system: sys, user: usr}, nil
}

// Render executes both templates.
func (p Prompt) Render(data PromptData) (system, user string, err error) {
	var b bytes.Buffer
	if err = p.system.Execute(&b, data); err != nil {
		return "", "", errors.Wrap(err, "rendering system prompt")
	}
	system = b.String()
	b.Reset()
	if err = p.user.Execute(&b, data); err != nil {
		return "", "", errors.Wrap(err, "rendering user prompt")
	}
	return system, b.String(), nil
}

// Extract returns the extraction prompt of a schema version.
func (p *Prompts) Extract(version string) (Prompt, bool) {
	prompt, ok := p.extract[version]
	return prompt, ok
}

func (p *Prompts) Intent() Prompt { return p.intent }

func newPromptData(ref time.Time) PromptData {
	return PromptData{
		ReferenceDate: ref.Format("2006-01-02"),
		ReferenceDay:  ref.Weekday().String(),
		Year:          ref.Year(),
		Timezone:      ref.Location().String(),
	}
}
