package services

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/xuri/excelize/v2"

	"github.com/lumina-edu/exam-service/internal/models"
	"github.com/lumina-edu/exam-service/internal/repositories"
)

type exportService struct {
	repo   repositories.TransactionRepository
	logger *slog.Logger
}

func NewExportService(repo repositories.TransactionRepository, logger *slog.Logger) ExportService {
	return &exportService{repo: repo, logger: logger}
}

var exportHeaders = []string{
	"Attempt ID", "Student ID", "Attempt #", "Status",
	"Started At", "Submitted At", "Time Spent (s)", "Submission Method",
	"Score", "Percentage", "Passed", "Grading Status",
	"Final Score", "Final Percentage", "Final Passed", "Published",
	"Violations", "Terminated",
}

// ExportResults renders all attempts of an exam into an xlsx workbook.
// Only the exam author and admins may export.
func (s *exportService) ExportResults(ctx context.Context, examID uint, userID string, role models.UserRole) ([]byte, string, error) {
	exam, err := s.repo.Exam().GetByID(ctx, examID)
	if err != nil {
		if repositories.IsNotFoundError(err) {
			return nil, "", ErrExamNotFound
		}
		return nil, "", fmt.Errorf("failed to get exam: %w", err)
	}
	if role != models.RoleAdmin && exam.CreatedBy != userID {
		return nil, "", NewPermissionError(userID, examID, "exam", "export_results", "not the exam author")
	}

	attempts, _, err := s.repo.Attempt().List(ctx, repositories.AttemptFilters{
		ExamID:    &examID,
		SortBy:    "started_at",
		SortOrder: "asc",
	})
	if err != nil {
		return nil, "", fmt.Errorf("failed to list attempts: %w", err)
	}

	f := excelize.NewFile()
	defer f.Close()

	sheet := "Results"
	f.SetSheetName("Sheet1", sheet)

	for col, header := range exportHeaders {
		cell, _ := excelize.CoordinatesToCellName(col+1, 1)
		if err := f.SetCellValue(sheet, cell, header); err != nil {
			return nil, "", fmt.Errorf("failed to write header: %w", err)
		}
	}

	headerStyle, err := f.NewStyle(&excelize.Style{
		Font: &excelize.Font{Bold: true},
		Fill: excelize.Fill{Type: "pattern", Color: []string{"DDEBF7"}, Pattern: 1},
	})
	if err == nil {
		endCell, _ := excelize.CoordinatesToCellName(len(exportHeaders), 1)
		f.SetCellStyle(sheet, "A1", endCell, headerStyle)
	}

	for i, attempt := range attempts {
		row := i + 2
		values := []interface{}{
			attempt.ID,
			attempt.StudentID,
			attempt.AttemptNumber,
			string(attempt.Status),
			attempt.StartedAt.Format(time.RFC3339),
			formatTimePtr(attempt.SubmittedAt),
			attempt.TimeSpent,
			string(attempt.SubmissionMethod),
			attempt.TotalScore,
			attempt.Percentage,
			attempt.Passed,
			string(attempt.GradingStatus),
			derefFloat(attempt.FinalScore),
			derefInt(attempt.FinalPercentage),
			derefBool(attempt.FinalPassed),
			attempt.ScorePublished,
			attempt.ViolationCount,
			attempt.TerminatedDueToViolation,
		}
		for col, value := range values {
			cell, _ := excelize.CoordinatesToCellName(col+1, row)
			if err := f.SetCellValue(sheet, cell, value); err != nil {
				return nil, "", fmt.Errorf("failed to write row %d: %w", row, err)
			}
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, "", fmt.Errorf("failed to render workbook: %w", err)
	}

	filename := fmt.Sprintf("exam_%d_results_%s.xlsx", examID, time.Now().Format("20060102"))

	s.logger.Info("Exam results exported",
		"exam_id", examID,
		"exam_title", exam.Title,
		"attempt_count", len(attempts),
		"user_id", userID)

	return buf.Bytes(), filename, nil
}

func formatTimePtr(t *time.Time) string {
	if t == nil {
		return ""
	}
	return t.Format(time.RFC3339)
}
