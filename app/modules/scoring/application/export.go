package scoringservice

import (
	"context"
	"fmt"

	"github.com/google/uuid"
	"github.com/xuri/excelize/v2"

	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
)

const (
	scoresSheet    = "Scores"
	standingsSheet = "Standings"
)

var (
	scoresHeader = []any{
		"competitor_id", "status", "placement_points", "time_gap_points", "performance_points",
		"confirmed_record_points", "provisional_record_points", "total_points", "ratified_points",
	}
	standingsHeader = []any{"rank", "owner_id", "roster_id", "total_points", "ratified_points", "provisional"}
)

// ExportXLSX renders breakdowns and standings as a two-sheet workbook.
// Provisional record points are kept in their own column.
func (s *ScoringService) ExportXLSX(ctx context.Context, competitionID uuid.UUID) ([]byte, error) {
	breakdowns, err := s.ListBreakdowns(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load breakdowns: %w", err)
	}
	standings, err := s.Standings(ctx, competitionID)
	if err != nil {
		return nil, err
	}
	return BuildWorkbook(breakdowns, standings)
}

// BuildWorkbook writes breakdowns and standings to XLSX bytes.
func BuildWorkbook(breakdowns []scoringdomain.PointsBreakdown, standings []Standing) ([]byte, error) {
	f := excelize.NewFile()
	defer f.Close()

	if err := f.SetSheetName(f.GetSheetName(0), scoresSheet); err != nil {
		return nil, err
	}
	if _, err := f.NewSheet(standingsSheet); err != nil {
		return nil, err
	}

	bold, err := f.NewStyle(&excelize.Style{Font: &excelize.Font{Bold: true}})
	if err != nil {
		return nil, err
	}

	scores := make([][]any, 0, len(breakdowns))
	for _, b := range breakdowns {
		var performance, confirmed, provisional int
		for _, bonus := range b.PerformanceBonuses {
			performance += bonus.Points
		}
		for _, rec := range b.RecordBonuses {
			if rec.Status == scoringdomain.RecordConfirmed {
				confirmed += rec.Points
			} else {
				provisional += rec.Points
			}
		}
		scores = append(scores, []any{
			b.CompetitorID, string(b.Status), b.PlacementPoints, b.TimeGapPoints, performance,
			confirmed, provisional, b.TotalPoints, scoringdomain.RatifiedTotal(b),
		})
	}
	if err := writeSheet(f, scoresSheet, scoresHeader, scores, bold); err != nil {
		return nil, err
	}

	ranks := make([][]any, 0, len(standings))
	for _, st := range standings {
		ranks = append(ranks, []any{st.Rank, st.OwnerID, st.RosterID.String(), st.TotalPoints, st.RatifiedPoints, st.Provisional})
	}
	if err := writeSheet(f, standingsSheet, standingsHeader, ranks, bold); err != nil {
		return nil, err
	}

	buf, err := f.WriteToBuffer()
	if err != nil {
		return nil, fmt.Errorf("failed to write workbook: %w", err)
	}
	return buf.Bytes(), nil
}

func writeSheet(f *excelize.File, sheet string, header []any, rows [][]any, headerStyle int) error {
	if err := f.SetSheetRow(sheet, "A1", &header); err != nil {
		return err
	}
	last, err := excelize.CoordinatesToCellName(len(header), 1)
	if err != nil {
		return err
	}
	if err := f.SetCellStyle(sheet, "A1", last, headerStyle); err != nil {
		return err
	}
	for i, row := range rows {
		cell, err := excelize.CoordinatesToCellName(1, i+2)
		if err != nil {
			return err
		}
		if err := f.SetSheetRow(sheet, cell, &row); err != nil {
			return err
		}
	}
	return nil
}
