package cli

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
	"gopkg.in/yaml.v3"

	"github.com/genome360-risk-client/internal/api"
	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/health"
	"github.com/genome360-risk-client/internal/inputmodel"
	"github.com/genome360-risk-client/internal/profile"
	"github.com/genome360-risk-client/internal/tui"
	"github.com/genome360-risk-client/pkg/predictor"
)

const (
	drainTimeout     = 10 * time.Second
	readinessTimeout = 5 * time.Second
)

func (c *CLI) serve(ctx context.Context, args []string) error {
	fs := c.newFlagSet("serve")
	fs.String("host", "", "listen address")
	fs.Int("port", 0, "listen port")
	origins := fs.StringSlice("allow-origin", nil, "allowed CORS origin (repeatable)")
	profilePath := fs.String("profile", "", "YAML profile to preload")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := c.boot(ctx, fs, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := loadInputs(rt.model, *profilePath, nil); err != nil {
		return err
	}

	checker := health.NewChecker(rt.logger, readinessTimeout,
		health.NewPredictorCheck(rt.config.GetPredictorConfig().BaseURL, rt.client),
		health.NewOrchestratorCheck(rt.orch),
	)
	server := api.NewServer(rt.config, rt.model, rt.orch,
		api.WithLogger(rt.logger),
		api.WithMetrics(rt.metrics),
		api.WithHealthChecker(checker),
		api.WithAllowedOrigins(*origins...),
	)
	if err := server.Start(ctx); err != nil {
		return err
	}

	drainCtx, cancel := context.WithTimeout(context.Background(), drainTimeout)
	defer cancel()
	if err := rt.orch.Wait(drainCtx); err != nil {
		rt.logger.WithError(err).Warn("Predictions still in flight at shutdown")
	}
	rt.logger.Info("Server stopped")
	return nil
}

func (c *CLI) runTUI(ctx context.Context, args []string) error {
	fs := c.newFlagSet("tui")
	profilePath := fs.String("profile", "", "YAML profile to preload")
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

	app := tui.NewApp(rt.model, rt.orch)
	defer app.Close()

	program := tea.NewProgram(app, tea.WithAltScreen(), tea.WithContext(ctx), tea.WithOutput(c.stdout))
	if _, err := program.Run(); err != nil {
		if errors.Is(err, tea.ErrProgramKilled) && ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("terminal UI failed: %w", err)
	}
	return nil
}

var tableHeader = lipgloss.NewStyle().Bold(true).Padding(0, 1)
var tableCell = lipgloss.NewStyle().Padding(0, 1)

func (c *CLI) fields(args []string) error {
	fs := c.newFlagSet("fields")
	domainName := fs.String("domain", "", "only list one domain (genomic, biomarker, lifestyle, pharmacogenomic)")
	profilePath := fs.String("profile", "", "show values from a YAML profile")
	if err := fs.Parse(args); err != nil {
		return err
	}

	specs := domain.Fields()
	if *domainName != "" {
		d := domain.Domain(strings.ToLower(*domainName))
		specs = domain.FieldsIn(d)
		if len(specs) == 0 {
			return fmt.Errorf("unknown domain: %s", *domainName)
		}
	}

	model := inputmodel.New()
	if err := loadInputs(model, *profilePath, nil); err != nil {
		return err
	}

	rows := make([][]string, 0, len(specs))
	for _, spec := range specs {
		value, _ := model.Text(spec.Name)
		allowed := spec.RangeLabel()
		if len(spec.Options) > 0 {
			allowed = strings.Join(spec.Options, "|")
		}
		rows = append(rows, []string{
			string(spec.Name), spec.Label, string(spec.Domain), string(spec.Kind), allowed, spec.Unit, value,
		})
	}

	t := table.New().
		Border(lipgloss.NormalBorder()).
		Headers("FIELD", "LABEL", "DOMAIN", "KIND", "RANGE", "UNIT", "VALUE").
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			if row == table.HeaderRow {
				return tableHeader
			}
			return tableCell
		})
	_, err := fmt.Fprintln(c.stdout, t.String())
	return err
}

func (c *CLI) configCommand(args []string) error {
	action := "show"
	if len(args) > 0 && !strings.HasPrefix(args[0], "-") {
		action, args = args[0], args[1:]
	}

	fs := c.newFlagSet("config")
	fs.String("host", "", "listen address")
	fs.Int("port", 0, "listen port")
	if err := fs.Parse(args); err != nil {
		return err
	}

	cm, err := loadConfig(fs)
	if err != nil {
		return err
	}

	switch action {
	case "show":
		out, err := yaml.Marshal(cm.AllSettings())
		if err != nil {
			return fmt.Errorf("failed to encode configuration: %w", err)
		}
		_, err = c.stdout.Write(out)
		return err
	case "validate":
		source := cm.ConfigFileUsed()
		if source == "" {
			source = "defaults and environment"
		}
		fmt.Fprintf(c.stdout, "Configuration is valid (%s)\n", source)
		fmt.Fprintf(c.stdout, "Prediction endpoint: %s\n", predictor.NewClient(*cm.GetPredictorConfig()).Endpoint())
		return nil
	default:
		return fmt.Errorf("%w: config %s", ErrUnknownCommand, action)
	}
}

func (c *CLI) profileCommand(args []string) error {
	if len(args) == 0 {
		return fmt.Errorf("usage: genome360 profile <init|show> FILE")
	}
	action, args := args[0], args[1:]

	fs := c.newFlagSet("profile")
	name := fs.String("name", "", "profile name")
	sets := fs.StringArray("set", nil, "field override as name=value (repeatable)")
	if err := fs.Parse(args); err != nil {
		return err
	}
	if fs.NArg() != 1 {
		return fmt.Errorf("usage: genome360 profile %s FILE", action)
	}
	path := fs.Arg(0)

	switch action {
	case "init":
		model := inputmodel.New()
		if err := loadInputs(model, "", *sets); err != nil {
			return err
		}
		if err := profile.Export(model, *name).Save(path); err != nil {
			return err
		}
		fmt.Fprintf(c.stdout, "Wrote %s\n", path)
		return nil
	case "show":
		model := inputmodel.New()
		if err := loadInputs(model, path, *sets); err != nil {
			return err
		}
		p, err := profile.Load(path)
		if err != nil {
			return err
		}
		out, err := profile.Export(model, p.Name).Marshal()
		if err != nil {
			return err
		}
		_, err = c.stdout.Write(out)
		return err
	default:
		return fmt.Errorf("%w: profile %s", ErrUnknownCommand, action)
	}
}
