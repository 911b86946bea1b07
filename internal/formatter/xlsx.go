package formatter

import (
	"fmt"

	"github.com/xuri/excelize/v2"

	"github.com/desertthunder/repertoire/internal/stats"
)

const (
	SheetSummary     = "Summary"
	SheetSongs       = "Songs"
	SheetInstruments = "Instruments"
	SheetHistory     = "History"
)

// ReportToXLSX builds a workbook with Summary, Songs, Instruments and History sheets.
//
// Averages are written unrounded so spreadsheet users can format them as they like.
func ReportToXLSX(report *stats.Report, history []stats.Activity) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), SheetSummary); err != nil {
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	for _, name := range []string{SheetSongs, SheetInstruments, SheetHistory} {
		if _, err := f.NewSheet(name); err != nil {
			return nil, fmt.Errorf("failed to create sheet %s: %w", name, err)
		}
	}

	s := report.Summary
	summary := [][]any{
		{"Metric", "Value"},
		{"Songs", s.Songs},
		{"Instruments", s.Instruments},
		{"Evaluations", s.Evaluations},
		{"Unique combinations", s.Combinations},
		{"Average level", s.AverageLevel},
		{"Mastery %", s.MasteryPercentage},
		{},
		{"Level", "Label", "Count", "Share %"},
	}
	for _, b := range report.Histogram {
		summary = append(summary, []any{int(b.Level), b.Label, b.Count, b.Percentage})
	}

	songs := [][]any{{"Song", "Artist", "Average", "Evaluations", "Mandatory evaluated", "Mandatory total", "Complete"}}
	for _, song := range report.Songs {
		songs = append(songs, []any{song.Title, song.Artist, cellAverage(song.Average, song.Count), song.Count,
			song.MandatoryEvaluated, song.MandatoryTotal, song.Complete})
	}

	instruments := [][]any{{"Instrument", "Shared", "Average", "Evaluations"}}
	for _, instrument := range report.Instruments {
		instruments = append(instruments, []any{instrument.Name, instrument.Shared,
			cellAverage(instrument.Average, instrument.Count), instrument.Count})
	}

	rows := [][]any{{"Evaluated at", "Song", "Element", "Instrument", "Level", "Label", "Notes"}}
	for _, entry := range history {
		rows = append(rows, []any{entry.EvaluatedAt.UTC(), entry.Song, entry.Element, entry.Instrument,
			int(entry.Level), entry.Label, entry.Notes})
	}

	for sheet, data := range map[string][][]any{
		SheetSummary:     summary,
		SheetSongs:       songs,
		SheetInstruments: instruments,
		SheetHistory:     rows,
	} {
		if err := writeRows(f, sheet, data); err != nil {
			return nil, err
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeRows(f *excelize.File, sheet string, rows [][]any) error {
	for i, row := range rows {
		if len(row) == 0 {
			continue
		}
		cell, err := excelize.CoordinatesToCellName(1, i+1)
		if err != nil {
			return fmt.Errorf("invalid cell for row %d: %w", i+1, err)
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return fmt.Errorf("failed to write %s row %d: %w", sheet, i+1, err)
		}
	}
	return nil
}

// cellAverage leaves the cell empty when there is no data.
func cellAverage(avg float64, count int) any {
	if count == 0 {
		return ""
	}
	return avg
}
