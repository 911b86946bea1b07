// package formatter renders practice statistics and evaluation history as CSV, Markdown, plain text and XLSX
package formatter

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/desertthunder/repertoire/internal/shared"
	"github.com/desertthunder/repertoire/internal/stats"
)

// Format names an export format.
type Format string

const (
	FormatCSV      Format = "csv"
	FormatMarkdown Format = "md"
	FormatText     Format = "txt"
	FormatXLSX     Format = "xlsx"
)

// Formats lists every supported export format.
func Formats() []Format {
	return []Format{FormatCSV, FormatMarkdown, FormatText, FormatXLSX}
}

// ParseFormat accepts a format name or common alias such as "markdown" or "text".
func ParseFormat(s string) (Format, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "csv":
		return FormatCSV, nil
	case "md", "markdown":
		return FormatMarkdown, nil
	case "txt", "text":
		return FormatText, nil
	case "xlsx", "excel":
		return FormatXLSX, nil
	}
	return "", fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, s)
}

func (f Format) Extension() string { return "." + string(f) }

// ContentType is the MIME type served for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatCSV:
		return "text/csv; charset=utf-8"
	case FormatMarkdown:
		return "text/markdown; charset=utf-8"
	case FormatXLSX:
		return "application/vnd.openxmlformats-officedocument.spreadsheetml.sheet"
	}
	return "text/plain; charset=utf-8"
}

// DefaultFilename is used when no output path is given. CSV exports hold the history, the rest hold
// the report.
func (f Format) DefaultFilename() string {
	if f == FormatCSV {
		return "repertoire_history.csv"
	}
	return "repertoire_stats" + f.Extension()
}

// Render produces the export for a report and its history.
func Render(format Format, report *stats.Report, history []stats.Activity, now time.Time) ([]byte, error) {
	switch format {
	case FormatCSV:
		return HistoryToCSV(history)
	case FormatMarkdown:
		return ReportToMarkdown(report)
	case FormatText:
		return ReportToText(report, now)
	case FormatXLSX:
		return ReportToXLSX(report, history)
	}
	return nil, fmt.Errorf("%w: unknown export format %q", shared.ErrInvalidArgument, format)
}

// Write renders an export into w.
func Write(w io.Writer, format Format, report *stats.Report, history []stats.Activity, now time.Time) error {
	data, err := Render(format, report, history, now)
	if err != nil {
		return err
	}
	if _, err := w.Write(data); err != nil {
		return fmt.Errorf("failed to write %s export: %w", format, err)
	}
	return nil
}

// WriteExport renders an export to a file and returns its path.
//
// Defaults to [Format.DefaultFilename] in the working directory.
func WriteExport(format Format, report *stats.Report, history []stats.Activity, path string) (string, error) {
	if path == "" {
		path = format.DefaultFilename()
	}

	data, err := Render(format, report, history, time.Now())
	if err != nil {
		return "", fmt.Errorf("failed to generate %s: %w", format, err)
	}

	if err := os.WriteFile(path, data, 0644); err != nil {
		return "", fmt.Errorf("failed to write %s file: %w", format, err)
	}
	return path, nil
}

// HistoryToCSV converts evaluation history to CSV with columns: EvaluatedAt, Song, Element, Instrument, Level, Notes
func HistoryToCSV(history []stats.Activity) ([]byte, error) {
	var buf bytes.Buffer
	writer := csv.NewWriter(&buf)

	headers := []string{"EvaluatedAt", "Song", "Element", "Instrument", "Level", "Notes"}
	if err := writer.Write(headers); err != nil {
		return nil, fmt.Errorf("failed to write CSV headers: %w", err)
	}

	for _, entry := range history {
		record := []string{
			entry.EvaluatedAt.UTC().Format(time.RFC3339),
			entry.Song,
			entry.Element,
			entry.Instrument,
			strconv.Itoa(int(entry.Level)),
			entry.Notes,
		}
		if err := writer.Write(record); err != nil {
			return nil, fmt.Errorf("failed to write CSV record: %w", err)
		}
	}

	writer.Flush()
	if err := writer.Error(); err != nil {
		return nil, fmt.Errorf("CSV writer error: %w", err)
	}

	return buf.Bytes(), nil
}

// ReportToMarkdown converts a report to Markdown tables
func ReportToMarkdown(report *stats.Report) ([]byte, error) {
	var buf bytes.Buffer
	s := report.Summary

	buf.WriteString("# Practice statistics\n\n")
	if report.Degraded {
		buf.WriteString("> Statistics are unavailable right now.\n\n")
	}

	buf.WriteString(fmt.Sprintf("**Songs**: %d\n", s.Songs))
	buf.WriteString(fmt.Sprintf("**Instruments**: %d\n", s.Instruments))
	buf.WriteString(fmt.Sprintf("**Evaluations**: %d (%d unique combinations)\n", s.Evaluations, s.Combinations))
	buf.WriteString(fmt.Sprintf("**Average level**: %s\n", Decimal(s.AverageLevel)))
	buf.WriteString(fmt.Sprintf("**Mastered**: %s%%\n\n", Whole(s.MasteryPercentage)))

	if s.Combinations > 0 {
		buf.WriteString("## Levels\n\n")
		buf.WriteString("| Level | Label | Count | Share |\n|---|---|---|---|\n")
		for _, b := range report.Histogram {
			buf.WriteString(fmt.Sprintf("| %d | %s | %d | %s%% |\n", b.Level, b.Label, b.Count, Whole(b.Percentage)))
		}
		buf.WriteString("\n")
	}

	if len(report.Songs) > 0 {
		buf.WriteString("## Songs\n\n")
		buf.WriteString("| Song | Artist | Average | Evaluations | Mandatory |\n|---|---|---|---|---|\n")
		for _, song := range report.Songs {
			buf.WriteString(fmt.Sprintf("| %s | %s | %s | %d | %s |\n",
				escapeCell(song.Title), escapeCell(song.Artist), Average(song.Average, song.Count), song.Count, mandatory(song)))
		}
		buf.WriteString("\n")
	}

	if len(report.Instruments) > 0 {
		buf.WriteString("## Instruments\n\n")
		buf.WriteString("| Instrument | Average | Evaluations |\n|---|---|---|\n")
		for _, instrument := range report.Instruments {
			buf.WriteString(fmt.Sprintf("| %s | %s | %d |\n",
				escapeCell(instrument.Name), Average(instrument.Average, instrument.Count), instrument.Count))
		}
		buf.WriteString("\n")
	}

	if len(report.Recent) > 0 {
		buf.WriteString("## Recent activity\n\n")
		for i, entry := range report.Recent {
			buf.WriteString(fmt.Sprintf("%d. %s - %s on %s: %s (%d) [%s]\n",
				i+1, entry.Song, entry.Element, entry.Instrument, entry.Label, entry.Level, entry.EvaluatedAt.UTC().Format("2006-01-02 15:04")))
		}
	}

	return buf.Bytes(), nil
}

// Decimal rounds to one decimal place.
func Decimal(v float64) string {
	return strconv.FormatFloat(v, 'f', 1, 64)
}

// Whole rounds to the nearest integer.
func Whole(v float64) string {
	return strconv.FormatFloat(math.Round(v), 'f', 0, 64)
}

// Average renders "N/A" when nothing contributed to avg.
func Average(avg float64, count int) string {
	if count == 0 {
		return "N/A"
	}
	return Decimal(avg)
}

func mandatory(song stats.SongStat) string {
	if song.MandatoryTotal == 0 {
		return "-"
	}
	return fmt.Sprintf("%d/%d", song.MandatoryEvaluated, song.MandatoryTotal)
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
