package services

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/xuri/excelize/v2"

	"github.com/SAP-F-2025/exam-prep-service/internal/models"
)

const (
	resultsSheet = "Results"
	itemsSheet   = "Answers"
	timeLayout   = "2006-01-02 15:04:05"
)

type exportService struct {
	logger *slog.Logger
}

func NewExportService(logger *slog.Logger) ExportService {
	return &exportService{logger: logger}
}

// ExportResults writes one row per exercise plus a totals row to the Results
// sheet, and every answer slot to the Answers sheet.
func (s *exportService) ExportResults(ctx context.Context, results *TestResults) ([]byte, error) {
	if results == nil {
		return nil, ErrTestNotCompleted
	}

	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName("Sheet1", resultsSheet); err != nil {
		return nil, fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []interface{}{
		"Section", "Part", "Exercise ID", "Title", "Kind", "Correct", "Total",
		"Percentage", "Auto Scored", "Timed Out", "Submitted At", "Notes",
	}
	if err := writeRow(f, resultsSheet, 1, headers); err != nil {
		return nil, err
	}

	row := 2
	for _, ex := range results.Exercises {
		values := []interface{}{string(ex.Section), ex.PartTitle, ex.ExerciseID, ex.Title}
		switch {
		case ex.Unavailable:
			values = append(values, "unavailable")
		case !ex.Result.AutoScored:
			values = append(values, string(ex.Result.Kind), "", "", "", "No", yesNo(ex.TimedOut), ex.SubmittedAt.Format(timeLayout))
			if ex.Result.Writing != nil {
				values = append(values, fmt.Sprintf("%d words", ex.Result.Writing.WordCount))
			}
		default:
			values = append(values,
				string(ex.Result.Kind),
				ex.Result.Correct,
				ex.Result.Total,
				ex.Result.Percentage,
				"Yes",
				yesNo(ex.TimedOut),
				ex.SubmittedAt.Format(timeLayout))
		}
		if err := writeRow(f, resultsSheet, row, values); err != nil {
			return nil, err
		}
		row++
	}

	totals := []interface{}{"Total", "", "", "", "", results.Correct, results.Total, results.Percentage}
	if err := writeRow(f, resultsSheet, row+1, totals); err != nil {
		return nil, err
	}

	if err := s.writeItems(f, results); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write Excel file: %w", err)
	}

	s.logger.Info("Exported test results",
		"session_id", results.SessionID,
		"exercises", len(results.Exercises),
		"bytes", buf.Len())
	return buf.Bytes(), nil
}

func (s *exportService) writeItems(f *excelize.File, results *TestResults) error {
	if _, err := f.NewSheet(itemsSheet); err != nil {
		return fmt.Errorf("failed to create Excel sheet: %w", err)
	}

	headers := []interface{}{"Exercise ID", "Slot", "Given", "Expected", "Correct"}
	if err := writeRow(f, itemsSheet, 1, headers); err != nil {
		return err
	}

	row := 2
	for _, ex := range results.Exercises {
		for _, item := range ex.Result.Items {
			values := []interface{}{
				ex.ExerciseID,
				item.SlotID,
				formatAnswer(item.Given),
				formatAnswer(item.Expected),
				yesNo(item.Correct),
			}
			if err := writeRow(f, itemsSheet, row, values); err != nil {
				return err
			}
			row++
		}
	}
	return nil
}

func writeRow(f *excelize.File, sheet string, row int, values []interface{}) error {
	cell, err := excelize.CoordinatesToCellName(1, row)
	if err != nil {
		return fmt.Errorf("failed to resolve cell: %w", err)
	}
	if err := f.SetSheetRow(sheet, cell, &values); err != nil {
		return fmt.Errorf("failed to write row %d: %w", row, err)
	}
	return nil
}

func formatAnswer(a models.Answer) string {
	switch {
	case a.Option != nil:
		return fmt.Sprintf("option %d", *a.Option+1)
	case a.Text != nil:
		return *a.Text
	default:
		return ""
	}
}

func yesNo(b bool) string {
	if b {
		return "Yes"
	}
	return "No"
}
