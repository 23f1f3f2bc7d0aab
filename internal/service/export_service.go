package service

import (
	"bytes"
	"context"
	"fmt"
	"time"

	"github.com/rs/zerolog"
	"github.com/rs/zerolog/log"
	"github.com/xuri/excelize/v2"

	"github.com/dsarena/exam-backend/internal/model"
	"github.com/dsarena/exam-backend/internal/repository"
)

// ExportService produces XLSX result sheets for the admin console.
type ExportService struct {
	sessions repository.SessionStore
	logger   zerolog.Logger
}

// NewExportService creates a new ExportService.
func NewExportService(sessions repository.SessionStore) *ExportService {
	return &ExportService{
		sessions: sessions,
		logger:   log.With().Str("component", "export_service").Logger(),
	}
}

// exportPageSize bounds one repository page during a full export sweep.
const exportPageSize = 500

// ResultsXLSX renders all sessions matching the filter into a spreadsheet,
// one row per session, and returns the file bytes.
func (s *ExportService) ResultsXLSX(ctx context.Context, filter repository.SessionFilter) (*bytes.Buffer, error) {
	f := excelize.NewFile()
	defer f.Close()

	const sheet = "Results"
	f.SetSheetName("Sheet1", sheet)

	headers := []string{
		"Session ID", "User ID", "Language", "Outcome", "Score", "Passed",
		"Hearts Remaining", "Violations", "Started At", "Completed At",
		"Time Spent (s)", "Auto Submitted",
	}
	for col, h := range headers {
		cell, err := excelize.CoordinatesToCellName(col+1, 1)
		if err != nil {
			return nil, err
		}
		if err := f.SetCellValue(sheet, cell, h); err != nil {
			return nil, err
		}
	}

	filter.Limit = exportPageSize
	filter.Offset = 0
	row := 2
	for {
		sessions, total, err := s.sessions.List(ctx, filter)
		if err != nil {
			return nil, fmt.Errorf("list sessions: %w", err)
		}
		for i := range sessions {
			if err := s.writeRow(f, sheet, row, &sessions[i]); err != nil {
				return nil, err
			}
			row++
		}
		filter.Offset += len(sessions)
		if len(sessions) == 0 || filter.Offset >= total {
			break
		}
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("render spreadsheet: %w", err)
	}
	s.logger.Info().Int("rows", row-2).Msg("Results exported")
	return buf, nil
}

func (s *ExportService) writeRow(f *excelize.File, sheet string, row int, session *model.ExamSession) error {
	score := ""
	if session.Score != nil {
		score = fmt.Sprintf("%.2f", *session.Score)
	}
	passed := ""
	if session.Passed != nil {
		passed = fmt.Sprintf("%t", *session.Passed)
	}
	completedAt := ""
	if session.CompletedAt != nil {
		completedAt = session.CompletedAt.UTC().Format(time.RFC3339)
	}

	values := []interface{}{
		session.ID.String(),
		session.UserID.String(),
		string(session.Language),
		string(model.ClassifyOutcome(session)),
		score,
		passed,
		session.HeartsRemaining,
		session.TotalViolations,
		session.StartedAt.UTC().Format(time.RFC3339),
		completedAt,
		session.TimeSpentSeconds,
		session.AutoSubmitted,
	}
	for col, v := range values {
		cell, err := excelize.CoordinatesToCellName(col+1, row)
		if err != nil {
			return err
		}
		if err := f.SetCellValue(sheet, cell, v); err != nil {
			return err
		}
	}
	return nil
}
