package export

import (
	"fmt"
	"time"

	"github.com/tealeg/xlsx"

	"voicescribe/internal/app/model"
)

var header = []string{
	"ID", "File", "Display Name", "Status", "Provider", "Language",
	"Size (bytes)", "Duration (s)", "Words", "Created", "Completed", "Transcript", "Error",
}

// ToExcel writes one row per job to a single-sheet workbook at outputFilePath
func ToExcel(jobs []*model.Job, outputFilePath string) error {
	file := xlsx.NewFile()
	sheet, err := file.AddSheet("Transcriptions")
	if err != nil {
		return err
	}

	headerRow := sheet.AddRow()
	for _, h := range header {
		headerRow.AddCell().Value = h
	}

	for _, j := range jobs {
		row := sheet.AddRow()
		row.AddCell().SetInt64(j.ID)
		row.AddCell().Value = j.OriginalName
		row.AddCell().Value = deref(j.DisplayName)
		row.AddCell().Value = string(j.Status)
		row.AddCell().Value = j.Provider
		row.AddCell().Value = j.Language
		row.AddCell().SetInt64(j.FileSize)
		if j.DurationSeconds != nil {
			row.AddCell().SetFloat(*j.DurationSeconds)
		} else {
			row.AddCell()
		}
		if j.WordCount != nil {
			row.AddCell().SetInt(*j.WordCount)
		} else {
			row.AddCell()
		}
		row.AddCell().Value = j.CreatedAt.UTC().Format(time.RFC3339)
		if j.CompletedAt != nil {
			row.AddCell().Value = j.CompletedAt.UTC().Format(time.RFC3339)
		} else {
			row.AddCell()
		}
		row.AddCell().Value = deref(j.TranscriptText)
		row.AddCell().Value = deref(j.ErrorMessage)
	}

	if err := file.Save(outputFilePath); err != nil {
		return fmt.Errorf("failed to save %s: %w", outputFilePath, err)
	}
	return nil
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
