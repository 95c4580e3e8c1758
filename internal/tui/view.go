package tui

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/genome360-risk-client/internal/domain"
	"github.com/genome360-risk-client/internal/render"
)

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#5B8DEF"))
	domainStyle  = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#E0E0E0")).MarginTop(1)
	cursorStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166")).Bold(true)
	labelStyle   = lipgloss.NewStyle().Width(24)
	valueStyle   = lipgloss.NewStyle().Width(14).Foreground(lipgloss.Color("#FFFFFF"))
	hintStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#888888"))
	helpStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#666666")).MarginTop(1)
	errorStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#FF6B6B"))
	runningStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("#FFD166"))

	badgeBase = lipgloss.NewStyle().Bold(true).Padding(0, 1)
	highBadge = badgeBase.Background(lipgloss.Color("#C0392B")).Foreground(lipgloss.Color("#FFFFFF"))
	lowBadge  = badgeBase.Background(lipgloss.Color("#27AE60")).Foreground(lipgloss.Color("#FFFFFF"))
	probChip  = lipgloss.NewStyle().Padding(0, 1).Background(lipgloss.Color("#34495E")).Foreground(lipgloss.Color("#FFFFFF"))

	resultBox = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			BorderForeground(lipgloss.Color("#444444")).
			Padding(0, 1)
)

func (a *App) renderFields() string {
	var b strings.Builder
	var lastDomain domain.Domain
	for i, spec := range a.specs {
		if spec.Domain != lastDomain {
			b.WriteString(domainStyle.Render(spec.Domain.Title()))
			b.WriteString("\n")
			lastDomain = spec.Domain
		}

		pointer := "  "
		if i == a.cursor {
			pointer = cursorStyle.Render("▸ ")
		}

		value, _ := a.model.Text(spec.Name)
		if i == a.cursor && a.editing {
			value = a.input.View()
		} else if value == "" {
			value = "-"
		}

		b.WriteString(pointer)
		b.WriteString(labelStyle.Render(spec.Label))
		b.WriteString(valueStyle.Render(value))
		b.WriteString(hintStyle.Render(fieldHint(spec)))
		b.WriteString("\n")
	}
	return b.String()
}

func fieldHint(spec domain.FieldSpec) string {
	var parts []string
	if spec.Bounded() {
		parts = append(parts, spec.RangeLabel())
	}
	if spec.Unit != "" {
		parts = append(parts, spec.Unit)
	}
	if spec.Kind == domain.KindEnum {
		parts = append(parts, strings.Join(spec.Options, "/"))
	}
	if spec.Hint != "" {
		parts = append(parts, spec.Hint)
	}
	return strings.Join(parts, " · ")
}

// renderResult shows the running indicator while any call is outstanding and
// the current result below it.
func (a *App) renderResult() string {
	var lines []string
	if a.status.InFlight > 0 {
		lines = append(lines, a.spinner.View()+runningStyle.Render(render.LabelRunning))
	}

	summary := render.Summarize(a.status.Result)
	switch summary.Status {
	case domain.ResultFulfilled:
		badge := lowBadge
		if summary.HighRisk {
			badge = highBadge
		}
		lines = append(lines, badge.Render(summary.Label)+" "+probChip.Render(summary.ProbText))
		lines = append(lines, summary.Raw)
	case domain.ResultFailed:
		lines = append(lines, errorStyle.Render(fmt.Sprintf("Error: %s", summary.Error)))
		lines = append(lines, summary.Raw)
	default:
		if a.status.InFlight == 0 {
			lines = append(lines, hintStyle.Render("Press p to run a prediction"))
		}
	}
	return resultBox.Render(strings.Join(lines, "\n"))
}
