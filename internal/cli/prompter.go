package cli

import (
	"context"
	"errors"
	"fmt"

	"github.com/AlecAivazis/survey/v2"
	"github.com/AlecAivazis/survey/v2/terminal"
)

// ErrAborted is returned when the user interrupts an interactive prompt.
var ErrAborted = errors.New("aborted by user")

// InputPrompt configures a free text question.
type InputPrompt struct {
	Message  string
	Default  string
	Help     string
	Validate func(string) error
}

// SelectPrompt configures a single choice question.
type SelectPrompt struct {
	Message string
	Options []string
	Default string
	Help    string
}

// ConfirmPrompt configures a yes/no question.
type ConfirmPrompt struct {
	Message string
	Default bool
}

// Prompter asks interactive questions. The survey implementation drives a
// real terminal; tests substitute a scripted one.
type Prompter interface {
	Input(ctx context.Context, p InputPrompt) (string, error)
	Select(ctx context.Context, p SelectPrompt) (string, error)
	Confirm(ctx context.Context, p ConfirmPrompt) (bool, error)
}

type surveyPrompter struct{}

// NewSurveyPrompter returns a Prompter backed by the terminal.
func NewSurveyPrompter() Prompter {
	return surveyPrompter{}
}

func (surveyPrompter) Input(ctx context.Context, p InputPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Input{
		Message: p.Message,
		Default: p.Default,
		Help:    p.Help,
	}
	var opts []survey.AskOpt
	if p.Validate != nil {
		validate := p.Validate
		opts = append(opts, survey.WithValidator(func(ans interface{}) error {
			s, ok := ans.(string)
			if !ok {
				return fmt.Errorf("unexpected answer type %T", ans)
			}
			return validate(s)
		}))
	}
	if err := survey.AskOne(prompt, &out, opts...); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Select(ctx context.Context, p SelectPrompt) (string, error) {
	if err := ctx.Err(); err != nil {
		return "", err
	}
	var out string
	prompt := &survey.Select{
		Message: p.Message,
		Options: p.Options,
		Help:    p.Help,
	}
	if p.Default != "" {
		prompt.Default = p.Default
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return "", translateSurveyErr(err)
	}
	return out, nil
}

func (surveyPrompter) Confirm(ctx context.Context, p ConfirmPrompt) (bool, error) {
	if err := ctx.Err(); err != nil {
		return false, err
	}
	var out bool
	prompt := &survey.Confirm{
		Message: p.Message,
		Default: p.Default,
	}
	if err := survey.AskOne(prompt, &out); err != nil {
		return false, translateSurveyErr(err)
	}
	return out, nil
}

func translateSurveyErr(err error) error {
	if errors.Is(err, terminal.InterruptErr) {
		return ErrAborted
	}
	return err
}
