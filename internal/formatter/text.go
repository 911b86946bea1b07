package formatter

import (
	"bytes"
	"fmt"
	"strings"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/dustin/go-humanize"

	"github.com/desertthunder/repertoire/internal/models"
	"github.com/desertthunder/repertoire/internal/stats"
)

const barWidth = 20

var (
	titleStyle   = lipgloss.NewStyle().Bold(true).Foreground(lipgloss.Color("#7D56F4"))
	headingStyle = lipgloss.NewStyle().Bold(true).Underline(true)
	mutedStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("#737373"))
	warnStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("#F25D94"))
	barStyle     = lipgloss.NewStyle().Foreground(lipgloss.Color("#04B575"))
)

// ReportToText renders a report for the terminal, with relative times measured from now.
func ReportToText(report *stats.Report, now time.Time) ([]byte, error) {
	var buf bytes.Buffer
	s := report.Summary

	buf.WriteString(titleStyle.Render("Practice statistics") + "\n\n")
	if report.Degraded {
		buf.WriteString(warnStyle.Render("Statistics are unavailable right now.") + "\n\n")
	}

	buf.WriteString(fmt.Sprintf("Songs:        %s\n", humanize.Comma(int64(s.Songs))))
	buf.WriteString(fmt.Sprintf("Instruments:  %s\n", humanize.Comma(int64(s.Instruments))))
	buf.WriteString(fmt.Sprintf("Evaluations:  %s %s\n", humanize.Comma(int64(s.Evaluations)),
		mutedStyle.Render(fmt.Sprintf("(%d unique combinations)", s.Combinations))))
	buf.WriteString(fmt.Sprintf("Average:      %s / %d\n", Decimal(s.AverageLevel), models.MaxLevel))
	buf.WriteString(fmt.Sprintf("Mastered:     %s%%\n", Whole(s.MasteryPercentage)))

	if s.Combinations > 0 {
		buf.WriteString("\n" + headingStyle.Render("Levels") + "\n")
		for _, b := range report.Histogram {
			buf.WriteString(fmt.Sprintf("%d %-12s %s %d (%s%%)\n",
				b.Level, b.Label, bar(b.Percentage/100), b.Count, Whole(b.Percentage)))
		}
	}

	if len(report.Songs) > 0 {
		buf.WriteString("\n" + headingStyle.Render("Songs") + "\n")
		for _, song := range report.Songs {
			buf.WriteString(fmt.Sprintf("%-30s %s %5s %s\n",
				truncate(song.Title, 30), levelBar(song.Average), Average(song.Average, song.Count),
				mutedStyle.Render(countLabel(song.Count))))
		}
	}

	if len(report.Instruments) > 0 {
		buf.WriteString("\n" + headingStyle.Render("Instruments") + "\n")
		for _, instrument := range report.Instruments {
			buf.WriteString(fmt.Sprintf("%-30s %s %5s %s\n",
				truncate(instrument.Name, 30), levelBar(instrument.Average), Average(instrument.Average, instrument.Count),
				mutedStyle.Render(countLabel(instrument.Count))))
		}
	}

	if len(report.Recent) > 0 {
		buf.WriteString("\n" + headingStyle.Render("Recent activity") + "\n")
		for _, entry := range report.Recent {
			buf.WriteString(fmt.Sprintf("%s - %s on %s: %s %s\n",
				entry.Song, entry.Element, entry.Instrument, entry.Label,
				mutedStyle.Render(humanize.RelTime(entry.EvaluatedAt, now, "ago", "from now"))))
		}
	}

	return buf.Bytes(), nil
}

// HistoryToText renders one subject's history, newest first.
func HistoryToText(history []stats.Activity, now time.Time) []byte {
	var buf bytes.Buffer
	if len(history) == 0 {
		buf.WriteString(mutedStyle.Render("No evaluations yet.") + "\n")
		return buf.Bytes()
	}
	for _, entry := range history {
		line := fmt.Sprintf("%d %-12s %s", entry.Level, entry.Label, humanize.RelTime(entry.EvaluatedAt, now, "ago", "from now"))
		if entry.Notes != "" {
			line += " " + mutedStyle.Render(entry.Notes)
		}
		buf.WriteString(line + "\n")
	}
	return buf.Bytes()
}

func levelBar(avg float64) string {
	return bar(avg / float64(models.MaxLevel))
}

// bar draws a fixed-width progress bar for a ratio in [0, 1].
func bar(ratio float64) string {
	filled := int(ratio*barWidth + 0.5)
	filled = max(0, min(barWidth, filled))
	return barStyle.Render(strings.Repeat("█", filled)) + mutedStyle.Render(strings.Repeat("░", barWidth-filled))
}

func countLabel(n int) string {
	if n == 1 {
		return "1 evaluation"
	}
	return fmt.Sprintf("%d evaluations", n)
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n-1]) + "…"
}
