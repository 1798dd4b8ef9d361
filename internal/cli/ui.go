package cli

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"crowdfund-advisor/internal/domain"
	"crowdfund-advisor/internal/service"
)

var (
	titleStyle = lipgloss.NewStyle().
		Bold(true).
		Foreground(lipgloss.Color("#7C3AED")).
		Padding(0, 1)

	boxStyle = lipgloss.NewStyle().
		BorderStyle(lipgloss.RoundedBorder()).
		BorderForeground(lipgloss.Color("#3B82F6")).
		Padding(0, 1)

	labelStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#6B7280"))

	upStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#10B981")).
		Bold(true)

	downStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#EF4444")).
		Bold(true)

	neutralStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#F59E0B"))

	assistantStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("#3B82F6"))
)

func directionLabel(direction string) string {
	switch direction {
	case domain.DirectionUp:
		return upStyle.Render("UP")
	case domain.DirectionDown:
		return downStyle.Render("DOWN")
	default:
		return neutralStyle.Render("NEUTRAL")
	}
}

func row(label, value string) string {
	return labelStyle.Render(fmt.Sprintf("%-12s", label)) + " " + value
}

// RenderSummary formatea el resultado de una corrida de verificacion.
func RenderSummary(s service.VerificationSummary) string {
	symbols := "-"
	if len(s.Symbols) > 0 {
		symbols = strings.Join(s.Symbols, ", ")
	}
	lines := []string{
		titleStyle.Render("Verification run"),
		row("pending", fmt.Sprintf("%d", s.Pending)),
		row("verified", upStyle.Render(fmt.Sprintf("%d", s.Verified))),
		row("skipped", fmt.Sprintf("%d", s.Skipped)),
		row("failed", downStyle.Render(fmt.Sprintf("%d", s.Failed))),
		row("symbols", symbols),
		row("duration", s.FinishedAt.Sub(s.StartedAt).String()),
	}
	return boxStyle.Render(strings.Join(lines, "\n"))
}

// RenderPrediction es la linea de listado de una prediccion.
func RenderPrediction(p domain.StockPrediction) string {
	line := fmt.Sprintf("%s  %-6s %s  %.2f -> %.2f  conf %.0f%%",
		p.CreatedAt.Format("2006-01-02 15:04"),
		p.Symbol,
		directionLabel(p.PredictedDirection),
		p.InitialPrice,
		p.PredictedPrice,
		p.Confidence*100,
	)
	if p.Outcome != nil {
		line += fmt.Sprintf("  | actual %.2f %s  acc %.2f",
			p.Outcome.ActualPrice,
			directionLabel(p.Outcome.ActualDirection),
			p.Outcome.Accuracy,
		)
	} else {
		line += "  | " + labelStyle.Render("pending")
	}
	return line
}

// RenderReply muestra la respuesta del asesor y, si la hubo, la prediccion guardada.
func RenderReply(r service.ChatReply) string {
	var b strings.Builder
	b.WriteString(assistantStyle.Render(r.Reply))
	if r.Prediction != nil {
		b.WriteString("\n\n")
		b.WriteString(boxStyle.Render(strings.Join([]string{
			titleStyle.Render("Prediction stored for " + r.Symbol),
			row("direction", directionLabel(r.Prediction.PredictedDirection)),
			row("price", fmt.Sprintf("%.2f -> %.2f", r.Prediction.InitialPrice, r.Prediction.PredictedPrice)),
			row("confidence", fmt.Sprintf("%.0f%%", r.Prediction.Confidence*100)),
		}, "\n")))
	}
	return b.String()
}
