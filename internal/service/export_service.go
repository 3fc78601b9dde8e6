package service

import (
	"bytes"
	"fmt"
	"sort"

	"tusai/internal/domain"

	"github.com/go-pdf/fpdf"
)

// ExportService renders a finished attempt as a PDF. Rendering uses
// multi-cell flow throughout so long prompts and explanations wrap and
// paginate instead of being truncated.
type ExportService interface {
	ExportResult(record *domain.HistoryRecord, includeExplanations bool) ([]byte, error)
}

type exportServiceImpl struct{}

func NewExportService() ExportService {
	return &exportServiceImpl{}
}

func (s *exportServiceImpl) ExportResult(record *domain.HistoryRecord, includeExplanations bool) ([]byte, error) {
	if record == nil {
		return nil, domain.NewInvalidInputError("record is required")
	}

	pdf := fpdf.New("P", "mm", "A4", "")
	pdf.SetAutoPageBreak(true, 15)
	pdf.AddPage()

	pdf.SetFont("Helvetica", "B", 16)
	pdf.MultiCell(0, 8, "Quiz Result", "", "L", false)
	pdf.Ln(2)

	pdf.SetFont("Helvetica", "", 11)
	pdf.MultiCell(0, 6, fmt.Sprintf("Mode: %s", record.Mode), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("Subjects: %s", joinSubjects(record.Subjects)), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("Score: %d (%d/%d correct)", record.Score, record.CorrectCount, record.TotalCount), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("Elapsed: %ds", record.ElapsedSeconds), "", "L", false)
	pdf.MultiCell(0, 6, fmt.Sprintf("Finished: %s", record.CreatedAt.Format("2006-01-02 15:04")), "", "L", false)
	pdf.Ln(4)

	if len(record.SubjectStats) > 0 {
		pdf.SetFont("Helvetica", "B", 12)
		pdf.MultiCell(0, 7, "By Subject", "", "L", false)
		pdf.SetFont("Helvetica", "", 11)
		// Iterate the record's own keys so stats tagged outside the
		// canonical catalog still render.
		subjects := make([]string, 0, len(record.SubjectStats))
		for subject := range record.SubjectStats {
			subjects = append(subjects, subject)
		}
		sort.Strings(subjects)
		for _, subject := range subjects {
			stat := record.SubjectStats[subject]
			pdf.MultiCell(0, 6, fmt.Sprintf("  %s: %d/%d", subject, stat.Correct, stat.Total), "", "L", false)
		}
		pdf.Ln(4)
	}

	pdf.SetFont("Helvetica", "B", 12)
	pdf.MultiCell(0, 7, "Questions", "", "L", false)

	for i, detail := range record.Details {
		pdf.SetFont("Helvetica", "B", 11)
		pdf.MultiCell(0, 6, fmt.Sprintf("%d. %s", i+1, detail.Prompt), "", "L", false)

		pdf.SetFont("Helvetica", "", 10)
		for j, option := range detail.Options {
			marker := "  "
			if j == detail.CorrectIndex {
				marker = "* " // correct option
			}
			if detail.ChosenIndex != nil && *detail.ChosenIndex == j {
				marker = "> " // chosen option
			}
			pdf.MultiCell(0, 5, fmt.Sprintf("   %s%s", marker, option), "", "L", false)
		}

		status := "Wrong"
		if detail.Correct {
			status = "Correct"
		} else if detail.ChosenIndex == nil {
			status = "Unanswered"
		}
		pdf.MultiCell(0, 5, fmt.Sprintf("   Result: %s", status), "", "L", false)

		if includeExplanations && detail.Explanation != "" {
			pdf.SetFont("Helvetica", "I", 10)
			pdf.MultiCell(0, 5, fmt.Sprintf("   Explanation: %s", detail.Explanation), "", "L", false)
		}
		pdf.Ln(2)
	}

	var buf bytes.Buffer
	if err := pdf.Output(&buf); err != nil {
		return nil, fmt.Errorf("failed to render result pdf: %w", err)
	}
	return buf.Bytes(), nil
}

func joinSubjects(subjects []string) string {
	if len(subjects) == 0 {
		return "-"
	}
	out := subjects[0]
	for _, s := range subjects[1:] {
		out += ", " + s
	}
	return out
}
