package scoringhandlers

import (
	"context"

	"github.com/google/uuid"

	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// FakeService lets each test script the service. Unset funcs return zero
// values.
type FakeService struct {
	ScoreRaceFunc      func(ctx context.Context, id uuid.UUID, batch []scoringdomain.RaceResult) (results.OperationResult[scoringservice.ScoreSummary, error], error)
	ConfirmRecordFunc  func(ctx context.Context, id uuid.UUID, competitorID, recordType string) (results.OperationResult[scoringdomain.PointsBreakdown, error], error)
	StandingsFunc      func(ctx context.Context, id uuid.UUID) ([]scoringservice.Standing, error)
	ExportXLSXFunc     func(ctx context.Context, id uuid.UUID) ([]byte, error)
	StandingsChartFunc func(ctx context.Context, id uuid.UUID) ([]byte, error)
	Breakdowns         []scoringdomain.PointsBreakdown
}

var _ scoringservice.Service = (*FakeService)(nil)

func (f *FakeService) ScoreRace(ctx context.Context, id uuid.UUID, batch []scoringdomain.RaceResult) (results.OperationResult[scoringservice.ScoreSummary, error], error) {
	if f.ScoreRaceFunc != nil {
		return f.ScoreRaceFunc(ctx, id, batch)
	}
	return results.SuccessResult[scoringservice.ScoreSummary, error](scoringservice.ScoreSummary{CompetitionID: id}), nil
}

func (f *FakeService) ConfirmRecord(ctx context.Context, id uuid.UUID, competitorID, recordType string) (results.OperationResult[scoringdomain.PointsBreakdown, error], error) {
	if f.ConfirmRecordFunc != nil {
		return f.ConfirmRecordFunc(ctx, id, competitorID, recordType)
	}
	return results.SuccessResult[scoringdomain.PointsBreakdown, error](scoringdomain.PointsBreakdown{CompetitorID: competitorID}), nil
}

func (f *FakeService) ListBreakdowns(context.Context, uuid.UUID) ([]scoringdomain.PointsBreakdown, error) {
	return f.Breakdowns, nil
}

func (f *FakeService) Standings(ctx context.Context, id uuid.UUID) ([]scoringservice.Standing, error) {
	if f.StandingsFunc != nil {
		return f.StandingsFunc(ctx, id)
	}
	return []scoringservice.Standing{}, nil
}

func (f *FakeService) ExportXLSX(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if f.ExportXLSXFunc != nil {
		return f.ExportXLSXFunc(ctx, id)
	}
	return []byte("PK"), nil
}

func (f *FakeService) StandingsChart(ctx context.Context, id uuid.UUID) ([]byte, error) {
	if f.StandingsChartFunc != nil {
		return f.StandingsChartFunc(ctx, id)
	}
	return []byte("\x89PNG"), nil
}
