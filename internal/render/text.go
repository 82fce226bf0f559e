// Package render formats reconstructed tasks and statistics for the terminal
// and for JSON consumers.
package render

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/crimson-sun/pipelens/internal/model"
)

var (
	colorDim    = lipgloss.AdaptiveColor{Light: "242", Dark: "240"}
	colorGreen  = lipgloss.AdaptiveColor{Light: "28", Dark: "40"}
	colorRed    = lipgloss.AdaptiveColor{Light: "160", Dark: "196"}
	colorYellow = lipgloss.AdaptiveColor{Light: "136", Dark: "220"}

	titleStyle   = lipgloss.NewStyle().Bold(true)
	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorDim)
	successStyle = lipgloss.NewStyle().Foreground(colorGreen)
	failStyle    = lipgloss.NewStyle().Foreground(colorRed)
	warnStyle    = lipgloss.NewStyle().Foreground(colorYellow)
)

// NodeStatsTable renders per-node timing rows as an aligned table.
func NodeStatsTable(title string, rows []*model.NodeStat) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%-32s %6s %9s %9s %9s %9s %8s", "NAME", "COUNT", "AVG(ms)", "MIN(ms)", "MAX(ms)", "TOTAL(ms)", "OK%")))
	b.WriteString("\n")
	for _, s := range rows {
		rate := fmt.Sprintf("%7.1f%%", s.SuccessRate)
		if s.FailCount > 0 {
			rate = warnStyle.Render(rate)
		}
		b.WriteString(fmt.Sprintf("%-32s %6d %9.1f %9d %9d %9d %s\n",
			truncate(s.Name, 32), s.Count, s.AvgMS, s.MinMS, s.MaxMS, s.TotalMS, rate))
	}
	return b.String()
}

// PhaseStatsTable renders recognition/action phase rows.
func PhaseStatsTable(title string, rows []*model.PhaseStat) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title))
	b.WriteString("\n")
	b.WriteString(headerStyle.Render(fmt.Sprintf(
		"%-32s %6s %12s %12s %9s %8s", "NAME", "COUNT", "RECO AVG(ms)", "ACT AVG(ms)", "ATTEMPTS", "OK%")))
	b.WriteString("\n")
	for _, s := range rows {
		b.WriteString(fmt.Sprintf("%-32s %6d %12.1f %12.1f %9.1f %7.1f%%\n",
			truncate(s.Name, 32), s.Count, s.RecoAvgMS, s.ActionAvgMS, s.AvgAttempts, s.SuccessRate))
	}
	return b.String()
}

// TaskSummary renders a one-line-per-task overview of the forest.
func TaskSummary(tasks []*model.Task) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("Tasks (%d)", len(tasks))))
	b.WriteString("\n")
	for _, t := range tasks {
		// Pad before styling so ANSI codes don't skew column widths.
		status := fmt.Sprintf("%-9s", t.Status)
		switch t.Status {
		case model.TaskSucceeded:
			status = successStyle.Render(status)
		case model.TaskFailed:
			status = failStyle.Render(status)
		}
		b.WriteString(fmt.Sprintf("  #%-5d %-28s %s %5d nodes  %8dms\n",
			t.TaskID, truncate(t.Entry, 28), status, len(t.Nodes), t.DurationMS))
	}
	return b.String()
}

// truncate shortens s to at most n runes. Node names and entries are often
// CJK, so slicing must happen on rune boundaries to keep the output valid
// UTF-8.
func truncate(s string, n int) string {
	runes := []rune(s)
	if len(runes) <= n {
		return s
	}
	if n <= 1 {
		return string(runes[:n])
	}
	return string(runes[:n-1]) + "…"
}
