// Package cli implements the genome360 command line: the HTTP front end, the
// terminal form, the guided wizard and one-shot predictions.
package cli

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"github.com/sirupsen/logrus"
	"github.com/spf13/pflag"

	"github.com/genome360-risk-client/internal/config"
	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/inputmodel"
	"github.com/genome360-risk-client/internal/logging"
	"github.com/genome360-risk-client/internal/metrics"
	"github.com/genome360-risk-client/internal/orchestrator"
	"github.com/genome360-risk-client/internal/profile"
	"github.com/genome360-risk-client/internal/render"
	"github.com/genome360-risk-client/pkg/predictor"
)

var (
	// ErrUnknownCommand is returned for an unrecognised subcommand.
	ErrUnknownCommand = errors.New("unknown command")
	// ErrPredictionFailed is returned when a one-shot prediction resolves
	// as failed.
	ErrPredictionFailed = errors.New("prediction failed")
)

// CLI dispatches subcommands.
type CLI struct {
	stdout   io.Writer
	stderr   io.Writer
	prompter Prompter
}

// Option customises a CLI.
type Option func(*CLI)

// WithOutput redirects command output.
func WithOutput(stdout, stderr io.Writer) Option {
	return func(c *CLI) {
		c.stdout = stdout
		c.stderr = stderr
	}
}

// WithPrompter replaces the terminal prompter used by the wizard.
func WithPrompter(p Prompter) Option {
	return func(c *CLI) {
		c.prompter = p
	}
}

// New creates a CLI writing to the process streams.
func New(opts ...Option) *CLI {
	c := &CLI{
		stdout:   os.Stdout,
		stderr:   os.Stderr,
		prompter: NewSurveyPrompter(),
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Run executes the subcommand named by args[0].
func (c *CLI) Run(ctx context.Context, args []string) error {
	if len(args) == 0 {
		return c.showHelp()
	}

	var err error
	switch args[0] {
	case "serve":
		err = c.serve(ctx, args[1:])
	case "tui":
		err = c.runTUI(ctx, args[1:])
	case "wizard":
		err = c.runWizard(ctx, args[1:])
	case "predict":
		err = c.predict(ctx, args[1:])
	case "fields":
		err = c.fields(args[1:])
	case "config":
		err = c.configCommand(args[1:])
	case "profile":
		err = c.profileCommand(args[1:])
	case "help", "--help", "-h":
		return c.showHelp()
	default:
		fmt.Fprintf(c.stderr, "Unknown command: %s\n\n", args[0])
		_ = c.showHelp()
		return fmt.Errorf("%w: %s", ErrUnknownCommand, args[0])
	}
	if errors.Is(err, pflag.ErrHelp) {
		return nil
	}
	return err
}

func (c *CLI) showHelp() error {
	help := `genome360 - health risk prediction client

Usage:
  genome360 <command> [options]

Commands:
  serve      Run the HTTP front end
  tui        Edit inputs and run predictions in the terminal
  wizard     Answer each field in turn, then predict
  predict    Run one prediction and print the result
  fields     List every input field with its range and default
  config     Show or validate the effective configuration
  profile    Create or inspect YAML input profiles

Common options:
  --config FILE          Configuration file (default: ./config.yaml)
  --base-url URL         Prediction service address
  --timeout DURATION     Prediction request timeout
  --strict-ordering      Keep only the latest submission's result
  --log-level LEVEL      debug, info, warn or error
  --log-format FORMAT    json or text

Examples:
  # Serve the API on all interfaces
  genome360 serve --host 0.0.0.0 --port 8080

  # Predict from a saved profile, overriding one value
  genome360 predict --profile patient.yaml --set ldl=160

  # Write a profile populated with defaults
  genome360 profile init patient.yaml

Environment variables use the GENOME360_ prefix, e.g.
GENOME360_PREDICTOR_BASE_URL=http://predictor:8000
`
	fmt.Fprint(c.stdout, help)
	return nil
}

func (c *CLI) newFlagSet(name string) *pflag.FlagSet {
	fs := pflag.NewFlagSet(name, pflag.ContinueOnError)
	fs.SetOutput(c.stderr)
	fs.String("config", "", "configuration file")
	fs.String("base-url", "", "prediction service address")
	fs.Duration("timeout", 0, "prediction request timeout")
	fs.Bool("strict-ordering", false, "keep only the latest submission's result")
	fs.String("log-level", "", "log level")
	fs.String("log-format", "", "log format")
	return fs
}

// runtime is the wired object graph shared by every command that predicts.
type runtime struct {
	config  *config.Manager
	logger  *logrus.Logger
	closer  io.Closer
	model   *inputmodel.Model
	client  *predictor.Client
	metrics *metrics.Collector
	orch    *orchestrator.Orchestrator
}

// boot loads configuration and wires the model, client and orchestrator.
// Interactive commands keep log lines off the terminal unless a log file is
// configured.
func (c *CLI) boot(ctx context.Context, fs *pflag.FlagSet, interactive bool) (*runtime, error) {
	cm, err := loadConfig(fs)
	if err != nil {
		return nil, err
	}
	cfg := cm.GetConfig()

	logger, closer, err := logging.NewLogger(cfg.Logging)
	if err != nil {
		return nil, fmt.Errorf("failed to initialise logging: %w", err)
	}
	if interactive && !strings.EqualFold(cfg.Logging.Output, "file") {
		logger.SetOutput(io.Discard)
	}

	history, err := orchestrator.NewHistory(cfg.History.Size)
	if err != nil {
		closer.Close()
		return nil, fmt.Errorf("failed to create history: %w", err)
	}

	collector := metrics.NewCollector()
	client := predictor.NewClient(cfg.Predictor, predictor.WithLogger(logger))
	model := inputmodel.New()

	orchOpts := []orchestrator.Option{
		orchestrator.WithLogger(logger),
		orchestrator.WithRecorder(collector),
		orchestrator.WithHistory(history),
		orchestrator.WithBaseContext(ctx),
	}
	if cfg.Predictor.StrictOrdering {
		orchOpts = append(orchOpts, orchestrator.WithStrictOrdering())
	}

	logger.WithFields(logrus.Fields{
		"endpoint":        client.Endpoint(),
		"config_file":     cm.ConfigFileUsed(),
		"strict_ordering": cfg.Predictor.StrictOrdering,
		"circuit_breaker": client.BreakerState(),
	}).Info("Prediction client configured")

	return &runtime{
		config:  cm,
		logger:  logger,
		closer:  closer,
		model:   model,
		client:  client,
		metrics: collector,
		orch:    orchestrator.New(model, client, orchOpts...),
	}, nil
}

func (r *runtime) Close() error {
	return r.closer.Close()
}

func loadConfig(fs *pflag.FlagSet) (*config.Manager, error) {
	opts := []config.ManagerOption{config.WithFlags(fs)}
	if file, _ := fs.GetString("config"); file != "" {
		opts = append(opts, config.WithConfigFile(file))
	}
	cm, err := config.NewManager(opts...)
	if err != nil {
		return nil, err
	}
	if err := cm.Validate(); err != nil {
		return nil, fmt.Errorf("configuration validation failed: %w", err)
	}
	return cm, nil
}

// loadInputs applies an optional profile and then name=value overrides.
func loadInputs(m *inputmodel.Model, profilePath string, sets []string) error {
	if profilePath != "" {
		p, err := profile.Load(profilePath)
		if err != nil {
			return err
		}
		if err := p.Apply(m); err != nil {
			return fmt.Errorf("profile %s: %w", profilePath, err)
		}
	}
	if len(sets) == 0 {
		return nil
	}
	values := make(map[domain.FieldName]string, len(sets))
	for _, s := range sets {
		name, value, ok := strings.Cut(s, "=")
		if !ok {
			return fmt.Errorf("invalid --set %q: expected name=value", s)
		}
		values[domain.FieldName(strings.TrimSpace(name))] = value
	}
	return m.Apply(values)
}

// submitAndWait runs one prediction and returns its summary.
func submitAndWait(ctx context.Context, orch *orchestrator.Orchestrator) (render.Summary, error) {
	sub := orch.Submit()
	select {
	case <-sub.Done():
	case <-ctx.Done():
		return render.Summary{}, ctx.Err()
	}
	if h := orch.History(); h != nil {
		if entry, ok := h.Get(sub.ID); ok {
			return render.Summarize(entry.Result), nil
		}
	}
	return render.Summarize(orch.Result()), nil
}

func (c *CLI) printSummary(s render.Summary, asJSON bool) error {
	if asJSON {
		enc := json.NewEncoder(c.stdout)
		enc.SetIndent("", "  ")
		return enc.Encode(s)
	}
	_, err := fmt.Fprint(c.stdout, s.Text())
	return err
}

func (c *CLI) predict(ctx context.Context, args []string) error {
	fs := c.newFlagSet("predict")
	profilePath := fs.String("profile", "", "YAML profile to load")
	sets := fs.StringArray("set", nil, "field override as name=value (repeatable)")
	asJSON := fs.Bool("json", false, "print the result as JSON")
	if err := fs.Parse(args); err != nil {
		return err
	}

	rt, err := c.boot(ctx, fs, false)
	if err != nil {
		return err
	}
	defer rt.Close()

	if err := loadInputs(rt.model, *profilePath, *sets); err != nil {
		return err
	}

	waitCtx, cancel := context.WithTimeout(ctx, rt.config.GetPredictorConfig().Timeout+5*time.Second)
	defer cancel()
	summary, err := submitAndWait(waitCtx, rt.orch)
	if err != nil {
		return err
	}
	if err := c.printSummary(summary, *asJSON); err != nil {
		return err
	}
	if summary.Status == domain.ResultFailed {
		return fmt.Errorf("%w: %s", ErrPredictionFailed, summary.Error)
	}
	return nil
}
