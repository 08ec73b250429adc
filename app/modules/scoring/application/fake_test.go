package scoringservice

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	scoringdb "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/repositories"
)

type breakdownKey struct {
	competition uuid.UUID
	competitor  string
}

// FakeScoringRepository keeps rows in memory. Set a func field to override a
// method.
type FakeScoringRepository struct {
	mu    sync.Mutex
	trace []string

	results       map[breakdownKey]scoringdb.RaceResult
	breakdowns    map[breakdownKey]scoringdb.PointsBreakdown
	confirmations []scoringdb.RecordConfirmation

	ListResultsFunc       func(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]scoringdb.RaceResult, error)
	ReplaceBreakdownsFunc func(ctx context.Context, db bun.IDB, breakdowns []scoringdb.PointsBreakdown) error
}

func NewFakeScoringRepository() *FakeScoringRepository {
	return &FakeScoringRepository{
		trace:      []string{},
		results:    map[breakdownKey]scoringdb.RaceResult{},
		breakdowns: map[breakdownKey]scoringdb.PointsBreakdown{},
	}
}

func (f *FakeScoringRepository) Trace() []string {
	f.mu.Lock()
	defer f.mu.Unlock()
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeScoringRepository) record(step string) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.trace = append(f.trace, step)
}

func (f *FakeScoringRepository) UpsertResults(_ context.Context, _ bun.IDB, rows []scoringdb.RaceResult) error {
	f.record("UpsertResults")
	for _, r := range rows {
		f.results[breakdownKey{r.CompetitionID, r.CompetitorID}] = r
	}
	return nil
}

func (f *FakeScoringRepository) ListResults(ctx context.Context, db bun.IDB, competitionID uuid.UUID) ([]scoringdb.RaceResult, error) {
	f.record("ListResults")
	if f.ListResultsFunc != nil {
		return f.ListResultsFunc(ctx, db, competitionID)
	}
	var out []scoringdb.RaceResult
	for k, r := range f.results {
		if k.competition == competitionID {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompetitorID < out[j].CompetitorID })
	return out, nil
}

func (f *FakeScoringRepository) ReplaceBreakdowns(ctx context.Context, db bun.IDB, rows []scoringdb.PointsBreakdown) error {
	f.record("ReplaceBreakdowns")
	if f.ReplaceBreakdownsFunc != nil {
		return f.ReplaceBreakdownsFunc(ctx, db, rows)
	}
	for _, b := range rows {
		f.breakdowns[breakdownKey{b.CompetitionID, b.CompetitorID}] = b
	}
	return nil
}

func (f *FakeScoringRepository) GetBreakdown(_ context.Context, _ bun.IDB, competitionID uuid.UUID, competitorID string) (*scoringdb.PointsBreakdown, error) {
	f.record("GetBreakdown")
	b, ok := f.breakdowns[breakdownKey{competitionID, competitorID}]
	if !ok {
		return nil, scoringdb.ErrNotFound
	}
	return &b, nil
}

func (f *FakeScoringRepository) ListBreakdowns(_ context.Context, _ bun.IDB, competitionID uuid.UUID) ([]scoringdb.PointsBreakdown, error) {
	f.record("ListBreakdowns")
	var out []scoringdb.PointsBreakdown
	for k, b := range f.breakdowns {
		if k.competition == competitionID {
			out = append(out, b)
		}
	}
	return out, nil
}

func (f *FakeScoringRepository) AddRecordConfirmation(_ context.Context, _ bun.IDB, c *scoringdb.RecordConfirmation) error {
	f.record("AddRecordConfirmation")
	f.confirmations = append(f.confirmations, *c)
	return nil
}

func (f *FakeScoringRepository) ListRecordConfirmations(_ context.Context, _ bun.IDB, competitionID uuid.UUID) ([]scoringdb.RecordConfirmation, error) {
	f.record("ListRecordConfirmations")
	var out []scoringdb.RecordConfirmation
	for _, c := range f.confirmations {
		if c.CompetitionID == competitionID {
			out = append(out, c)
		}
	}
	return out, nil
}

// FakeRosterSource returns a fixed roster list.
type FakeRosterSource struct {
	Rosters []rosterservice.ScorableRoster
	Err     error
}

func (f *FakeRosterSource) ListScorableRosters(context.Context, uuid.UUID) ([]rosterservice.ScorableRoster, error) {
	return f.Rosters, f.Err
}
