// Package styles provides shared lipgloss styles for CLI output.
package styles

import (
	"github.com/charmbracelet/lipgloss"

	"github.com/colonyops/tick/internal/core/checklist"
	"github.com/colonyops/tick/internal/core/run"
)

var (
	ColorGreen  = lipgloss.Color("#9ece6a")
	ColorYellow = lipgloss.Color("#e0af68")
	ColorOrange = lipgloss.Color("#ff9e64")
	ColorRed    = lipgloss.Color("#f7768e")
	ColorBlue   = lipgloss.Color("#7aa2f7")
	ColorGray   = lipgloss.Color("#565f89")
)

var (
	TitleStyle   = lipgloss.NewStyle().Bold(true).Foreground(ColorBlue)
	MutedStyle   = lipgloss.NewStyle().Foreground(ColorGray)
	SuccessStyle = lipgloss.NewStyle().Foreground(ColorGreen)
	WarningStyle = lipgloss.NewStyle().Foreground(ColorYellow)
	ErrorStyle   = lipgloss.NewStyle().Foreground(ColorRed)

	severityStyles = map[checklist.Severity]lipgloss.Style{
		checklist.SeverityLow:      lipgloss.NewStyle().Foreground(ColorGray),
		checklist.SeverityMedium:   lipgloss.NewStyle().Foreground(ColorYellow),
		checklist.SeverityHigh:     lipgloss.NewStyle().Foreground(ColorOrange),
		checklist.SeverityCritical: lipgloss.NewStyle().Foreground(ColorRed).Bold(true),
	}

	resultIcons = map[run.Result]string{
		run.ResultPass: "✓",
		run.ResultFail: "✗",
		run.ResultSkip: "→",
		run.ResultNA:   "–",
	}

	resultStyles = map[run.Result]lipgloss.Style{
		run.ResultPass: SuccessStyle,
		run.ResultFail: ErrorStyle,
		run.ResultSkip: MutedStyle,
		run.ResultNA:   MutedStyle,
	}
)

// Severity renders a severity label in its color.
func Severity(sev checklist.Severity) string {
	style, ok := severityStyles[sev]
	if !ok {
		return string(sev)
	}
	return style.Render(string(sev))
}

// ResultIcon renders a colored one-character icon for a result.
func ResultIcon(res run.Result) string {
	icon, ok := resultIcons[res]
	if !ok {
		return "?"
	}
	return resultStyles[res].Render(icon)
}

// Result renders a result label in its color.
func Result(res run.Result) string {
	style, ok := resultStyles[res]
	if !ok {
		return string(res)
	}
	return style.Render(string(res))
}

// Status renders a session status in its color.
func Status(st run.Status) string {
	switch st {
	case run.StatusCompleted:
		return SuccessStyle.Render(string(st))
	case run.StatusAborted:
		return ErrorStyle.Render(string(st))
	default:
		return WarningStyle.Render(string(st))
	}
}
