package cli

import (
	"context"
	"fmt"
	"strings"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/inputmodel"
	"github.com/genome360-risk-client/internal/profile"
)

// runWizard walks through every field domain by domain, then optionally
// predicts and saves the answers as a profile.
func (c *CLI) runWizard(ctx context.Context, args []string) error {
	fs := c.newFlagSet("wizard")
	profilePath := fs.String("profile", "", "YAML profile used as starting values")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := c.boot(ctx, fs, true)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := loadInputs(rt.model, *profilePath, nil); err != nil {
		return err
	}

	fmt.Fprintln(c.stdout, "Genome360 risk inputs")
	fmt.Fprintln(c.stdout, "Press enter to keep the value shown in brackets.")
	if err := c.askFields(ctx, rt.model); err != nil {
		return err
	}

	run, err := c.prompter.Confirm(ctx, ConfirmPrompt{Message: "Run the prediction now?", Default: true})
	if err != nil {
		return err
	}
	if run {
		fmt.Fprintln(c.stdout, "Running...")
		summary, err := submitAndWait(ctx, rt.orch)
		if err != nil {
			return err
		}
		if err := c.printSummary(summary, false); err != nil {
			return err
		}
	}

	path, err := c.prompter.Input(ctx, InputPrompt{
		Message: "Save answers to profile file",
		Default: *profilePath,
		Help:    "Leave empty to skip saving",
	})
	if err != nil {
		return err
	}
	if path = strings.TrimSpace(path); path == "" {
		return nil
	}
	if err := profile.Export(rt.model, "").Save(path); err != nil {
		return err
	}
	fmt.Fprintf(c.stdout, "Saved %s\n", path)
	return nil
}

func (c *CLI) askFields(ctx context.Context, m *inputmodel.Model) error {
	for _, d := range domain.Domains {
		fmt.Fprintf(c.stdout, "\n== %s ==\n", d.Title())
		for _, spec := range domain.FieldsIn(d) {
			current, err := m.Text(spec.Name)
			if err != nil {
				return err
			}

			var answer string
			if spec.Kind == domain.KindEnum {
				answer, err = c.prompter.Select(ctx, SelectPrompt{
					Message: spec.Label,
					Options: spec.Options,
					Default: current,
				})
			} else {
				answer, err = c.prompter.Input(ctx, InputPrompt{
					Message:  spec.Label,
					Default:  current,
					Help:     fieldHelp(spec),
					Validate: fieldValidator(spec),
				})
			}
			if err != nil {
				return err
			}
			if err := m.Set(spec.Name, clearAnswer(spec, answer)); err != nil {
				return err
			}
		}
	}
	return nil
}

// clearToken empties an optional or list field; an empty answer keeps the
// value shown in brackets.
const clearToken = "-"

func clearAnswer(spec domain.FieldSpec, answer string) string {
	if (spec.Kind == domain.KindOptional || spec.Kind == domain.KindList) && strings.TrimSpace(answer) == clearToken {
		return ""
	}
	return answer
}

// fieldValidator checks an answer against a scratch model so the live one
// only ever sees accepted values.
func fieldValidator(spec domain.FieldSpec) func(string) error {
	return func(s string) error {
		return inputmodel.New().Set(spec.Name, clearAnswer(spec, s))
	}
}

func fieldHelp(spec domain.FieldSpec) string {
	var parts []string
	if r := spec.RangeLabel(); r != "" {
		parts = append(parts, "range "+r)
	}
	if spec.Unit != "" {
		parts = append(parts, spec.Unit)
	}
	switch spec.Kind {
	case domain.KindOptional:
		parts = append(parts, "enter "+clearToken+" if not measured")
	case domain.KindList:
		parts = append(parts, "comma separated, "+clearToken+" for none")
	}
	if spec.Hint != "" {
		parts = append(parts, spec.Hint)
	}
	return strings.Join(parts, "; ")
}
