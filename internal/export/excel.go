// Package export writes a job's ranking results to spreadsheet files.
package export

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/jonathan/resumexpert/internal/types"
)

// Sheet names in the generated workbook.
const (
	SummarySheet  = "Summary"
	RankingsSheet = "Rankings"
)

// bandColors fills ranking rows by score band.
var bandColors = map[string]string{
	"excellent": "C6EFCE",
	"strong":    "E2EFDA",
	"fair":      "FFEB9C",
	"weak":      "FFC7CE",
}

var thinBorder = []excelize.Border{
	{Type: "left", Color: "000000", Style: 1},
	{Type: "right", Color: "000000", Style: 1},
	{Type: "top", Color: "000000", Style: 1},
	{Type: "bottom", Color: "000000", Style: 1},
}

// WriteFile writes the workbook to path, adding an .xlsx extension when missing.
// It returns the path actually written.
func WriteFile(job types.Job, rankings []types.RankingResult, path string, now time.Time) (string, error) {
	if !strings.HasSuffix(strings.ToLower(path), ".xlsx") {
		path += ".xlsx"
	}
	path = filepath.Clean(path)

	f, err := build(job, rankings, now)
	if err != nil {
		return "", err
	}
	defer f.Close()

	if err := f.SaveAs(path); err != nil {
		return "", fmt.Errorf("failed to save workbook: %w", err)
	}
	return path, nil
}

// Write streams the workbook to w.
func Write(w io.Writer, job types.Job, rankings []types.RankingResult, now time.Time) error {
	f, err := build(job, rankings, now)
	if err != nil {
		return err
	}
	defer f.Close()

	if _, err := f.WriteTo(w); err != nil {
		return fmt.Errorf("failed to write workbook: %w", err)
	}
	return nil
}

func build(job types.Job, rankings []types.RankingResult, now time.Time) (*excelize.File, error) {
	f := excelize.NewFile()

	if err := f.SetSheetName("Sheet1", SummarySheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to rename sheet: %w", err)
	}
	if _, err := f.NewSheet(RankingsSheet); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create rankings sheet: %w", err)
	}

	if err := summarySheet(f, job, rankings, now); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create summary sheet: %w", err)
	}
	if err := rankingsSheet(f, rankings); err != nil {
		f.Close()
		return nil, fmt.Errorf("failed to create rankings sheet: %w", err)
	}
	return f, nil
}

func summarySheet(f *excelize.File, job types.Job, rankings []types.RankingResult, now time.Time) error {
	const sheet = SummarySheet

	labelStyle, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return err
	}
	_ = f.SetColWidth(sheet, "A", "A", 22)
	_ = f.SetColWidth(sheet, "B", "B", 60)

	rows := [][2]any{
		{"Job", job.Title},
		{"Job ID", job.ID},
		{"Generated", now.Format("2006-01-02 15:04:05")},
		{"Candidates", len(rankings)},
	}
	if len(rankings) > 0 {
		hi, lo, sum := rankings[0].Score, rankings[0].Score, 0
		for _, r := range rankings {
			hi = max(hi, r.Score)
			lo = min(lo, r.Score)
			sum += r.Score
		}
		rows = append(rows,
			[2]any{"Highest score", hi},
			[2]any{"Lowest score", lo},
			[2]any{"Average score", fmt.Sprintf("%.1f", float64(sum)/float64(len(rankings)))},
		)
	}

	for i, row := range rows {
		a := fmt.Sprintf("A%d", i+1)
		if err := f.SetCellValue(sheet, a, row[0]); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, a, a, labelStyle); err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, fmt.Sprintf("B%d", i+1), row[1]); err != nil {
			return err
		}
	}
	return nil
}

func rankingsSheet(f *excelize.File, rankings []types.RankingResult) error {
	const sheet = RankingsSheet

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font:      &excelize.Font{Bold: true, Color: "FFFFFF"},
		Fill:      excelize.Fill{Type: "pattern", Color: []string{"4472C4"}, Pattern: 1},
		Alignment: &excelize.Alignment{Horizontal: "center", Vertical: "center"},
		Border:    thinBorder,
	})
	if err != nil {
		return err
	}

	bandStyles := make(map[string]int, len(bandColors))
	for band, color := range bandColors {
		id, err := f.NewStyle(&excelize.Style{
			Fill:      excelize.Fill{Type: "pattern", Color: []string{color}, Pattern: 1},
			Alignment: &excelize.Alignment{WrapText: true, Vertical: "top"},
			Border:    thinBorder,
		})
		if err != nil {
			return err
		}
		bandStyles[band] = id
	}

	widths := []float64{8, 28, 10, 12, 28, 70}
	headers := []string{"Rank", "Candidate", "Score", "Band", "File", "Summary"}
	for col, header := range headers {
		name, _ := excelize.ColumnNumberToName(col + 1)
		_ = f.SetColWidth(sheet, name, name, widths[col])
		cell := name + "1"
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, cell, cell, headerStyle); err != nil {
			return err
		}
	}

	for i, r := range rankings {
		row := i + 2
		band := types.ScoreBand(r.Score)
		values := []any{i + 1, r.CandidateName, r.Score, band, r.Filename, r.Summary}
		if err := f.SetSheetRow(sheet, fmt.Sprintf("A%d", row), &values); err != nil {
			return err
		}
		if err := f.SetCellStyle(sheet, fmt.Sprintf("A%d", row), fmt.Sprintf("F%d", row), bandStyles[band]); err != nil {
			return err
		}
	}

	if len(rankings) > 0 {
		if err := f.AutoFilter(sheet, fmt.Sprintf("A1:F%d", len(rankings)+1), []excelize.AutoFilterOptions{}); err != nil {
			return err
		}
	}

	// Freeze top row
	return f.SetPanes(sheet, &excelize.Panes{
		Freeze:      true,
		YSplit:      1,
		TopLeftCell: "A2",
		ActivePane:  "bottomLeft",
	})
}
