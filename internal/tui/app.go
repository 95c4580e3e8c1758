// Package tui is the terminal form for editing inputs and running
// predictions. It follows the bubbletea model: state lives in App, Update
// turns messages into new state, View renders it.
package tui

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/inputmodel"
	"github.com/genome360-risk-client/internal/orchestrator"
)

// eventMsg carries an orchestrator transition into the update loop.
type eventMsg orchestrator.Event

type eventsClosedMsg struct{}

// App is the root bubbletea model.
type App struct {
	model        *inputmodel.Model
	orchestrator *orchestrator.Orchestrator
	specs        []domain.FieldSpec

	events      <-chan orchestrator.Event
	unsubscribe func()

	cursor  int
	editing bool
	input   textinput.Model
	spinner spinner.Model

	status    orchestrator.Status
	statusMsg string
	errMsg    string

	width  int
	height int
}

// NewApp builds the form over model and subscribes to orch.
func NewApp(model *inputmodel.Model, orch *orchestrator.Orchestrator) *App {
	input := textinput.New()
	input.Prompt = "> "
	input.CharLimit = 256

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = runningStyle

	events, unsubscribe := orch.Subscribe(32)
	return &App{
		model:        model,
		orchestrator: orch,
		specs:        domain.Fields(),
		events:       events,
		unsubscribe:  unsubscribe,
		input:        input,
		spinner:      sp,
		status:       orch.Status(),
	}
}

// Close releases the orchestrator subscription.
func (a *App) Close() {
	if a.unsubscribe != nil {
		a.unsubscribe()
	}
}

// Init implements tea.Model.
func (a *App) Init() tea.Cmd {
	return tea.Batch(a.waitForEvent(), a.spinner.Tick)
}

func (a *App) waitForEvent() tea.Cmd {
	ch := a.events
	return func() tea.Msg {
		ev, ok := <-ch
		if !ok {
			return eventsClosedMsg{}
		}
		return eventMsg(ev)
	}
}

// Update implements tea.Model.
func (a *App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.input.Width = max(10, msg.Width/3)
		return a, nil

	case eventMsg:
		a.status = msg.Status
		return a, a.waitForEvent()

	case eventsClosedMsg:
		return a, nil

	case spinner.TickMsg:
		var cmd tea.Cmd
		a.spinner, cmd = a.spinner.Update(msg)
		return a, cmd

	case tea.KeyMsg:
		if a.editing {
			return a.updateEditing(msg)
		}
		return a.updateBrowsing(msg)
	}
	return a, nil
}

func (a *App) updateBrowsing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c", "q":
		return a, tea.Quit
	case "up", "k":
		if a.cursor > 0 {
			a.cursor--
		}
	case "down", "j":
		if a.cursor < len(a.specs)-1 {
			a.cursor++
		}
	case "home", "g":
		a.cursor = 0
	case "end", "G":
		a.cursor = len(a.specs) - 1
	case "enter", "e":
		spec := a.current()
		if spec.Kind == domain.KindEnum {
			a.cycleOption(1)
			return a, nil
		}
		return a.beginEdit()
	case "right", "l", "+":
		a.nudge(1)
	case "left", "h", "-":
		a.nudge(-1)
	case "p":
		sub := a.orchestrator.Submit()
		a.status = a.orchestrator.Status()
		a.errMsg = ""
		a.statusMsg = fmt.Sprintf("Submitted #%d", sub.Seq)
	case "r":
		a.model.Reset()
		a.errMsg = ""
		a.statusMsg = "Inputs reset to defaults"
	}
	return a, nil
}

func (a *App) updateEditing(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "ctrl+c":
		return a, tea.Quit
	case "esc":
		a.editing = false
		a.input.Blur()
		a.statusMsg = "Edit cancelled"
		return a, nil
	case "enter":
		spec := a.current()
		if err := a.model.Set(spec.Name, a.input.Value()); err != nil {
			a.errMsg = err.Error()
			return a, nil
		}
		a.editing = false
		a.input.Blur()
		a.errMsg = ""
		a.statusMsg = spec.Label + " updated"
		return a, nil
	}

	var cmd tea.Cmd
	a.input, cmd = a.input.Update(msg)
	return a, cmd
}

func (a *App) current() domain.FieldSpec {
	return a.specs[a.cursor]
}

func (a *App) beginEdit() (tea.Model, tea.Cmd) {
	spec := a.current()
	text, _ := a.model.Text(spec.Name)
	a.input.SetValue(text)
	a.input.CursorEnd()
	a.input.Placeholder = spec.Hint
	a.editing = true
	a.errMsg = ""
	a.statusMsg = "Editing " + spec.Label + " (enter to save, esc to cancel)"
	return a, a.input.Focus()
}

// cycleOption moves an enum field to the next or previous option.
func (a *App) cycleOption(dir int) {
	spec := a.current()
	if len(spec.Options) == 0 {
		return
	}
	text, _ := a.model.Text(spec.Name)
	idx := 0
	for i, opt := range spec.Options {
		if opt == text {
			idx = i
			break
		}
	}
	next := (idx + dir + len(spec.Options)) % len(spec.Options)
	if err := a.model.Set(spec.Name, spec.Options[next]); err != nil {
		a.errMsg = err.Error()
	}
}

// nudge steps a bounded numeric field and keeps the result inside its
// presentation range, like a stepper control. Typed values are not clamped.
func (a *App) nudge(dir int) {
	spec := a.current()
	switch spec.Kind {
	case domain.KindEnum:
		a.cycleOption(dir)
		return
	case domain.KindInt, domain.KindFloat:
	default:
		return
	}
	if spec.Step == 0 {
		return
	}

	text, _ := a.model.Text(spec.Name)
	cur, err := strconv.ParseFloat(text, 64)
	if err != nil {
		return
	}
	next := cur + float64(dir)*spec.Step
	if spec.Bounded() {
		next = math.Min(math.Max(next, spec.Min), spec.Max)
	}
	// Round off accumulated float step error.
	next = math.Round(next*1e6) / 1e6

	if err := a.model.Set(spec.Name, strconv.FormatFloat(next, 'f', -1, 64)); err != nil {
		a.errMsg = err.Error()
	}
}

// View implements tea.Model.
func (a *App) View() string {
	var b strings.Builder
	b.WriteString(titleStyle.Render("genome360 · health risk"))
	b.WriteString("\n\n")
	b.WriteString(a.renderFields())
	b.WriteString("\n")
	b.WriteString(a.renderResult())
	b.WriteString("\n")
	if a.errMsg != "" {
		b.WriteString(errorStyle.Render(a.errMsg))
		b.WriteString("\n")
	} else if a.statusMsg != "" {
		b.WriteString(hintStyle.Render(a.statusMsg))
		b.WriteString("\n")
	}
	b.WriteString(helpStyle.Render("↑/↓ move · enter edit · ←/→ step or cycle · p predict · r reset · q quit"))
	return b.String()
}
