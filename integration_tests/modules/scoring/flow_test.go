//go:build integration

package scoringintegrationtests

import (
	"bytes"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/xuri/excelize/v2"

	lockservice "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/application"
	lockdb "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/modules/lock/locktime"
	rosterservice "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/application"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	scoringservice "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/application"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	scoringdb "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability"
	"github.com/Black-And-White-Club/marathon-draft/integration_tests/testutils"
)

func flowPolicy() scoringdomain.ScoringPolicy {
	return scoringdomain.ScoringPolicy{
		PlacementTable: map[int]int{1: 100, 2: 80, 3: 65},
		MaxGapSeconds:  300,
		GapCurve:       scoringdomain.LinearCurve{MaxPoints: 50},
		RecordThresholds: []scoringdomain.RecordThreshold{
			{Type: scoringdomain.RecordWorld, Points: 100, ThresholdSeconds: 7235},
		},
	}
}

type flowDeps struct {
	rosters *rosterservice.RosterService
	scoring *scoringservice.ScoringService
}

func newFlowDeps(t *testing.T) flowDeps {
	t.Helper()
	obs := observability.NewNoop()

	locks := lockservice.NewLockService(
		lockdb.NewRepository(testEnv.DB),
		testEnv.EventBus,
		locktime.NewParser("UTC"),
		locktime.RealClock{},
		obs.Logger,
		obs.Registry.Lock,
		obs.Tracer,
		testEnv.DB,
	)
	rosters := rosterservice.NewRosterService(
		rosterdb.NewRepository(testEnv.DB),
		locks,
		testEnv.EventBus,
		obs.Logger,
		obs.Registry.Roster,
		obs.Tracer,
		testEnv.DB,
		60000,
	)
	policy := flowPolicy()
	require.NoError(t, scoringdomain.ValidatePolicy(policy))
	scoring := scoringservice.NewScoringService(
		scoringdb.NewRepository(testEnv.DB),
		rosters,
		policy,
		testEnv.EventBus,
		obs.Logger,
		obs.Registry.Scoring,
		obs.Tracer,
		testEnv.DB,
		locktime.RealClock{},
	)
	return flowDeps{rosters: rosters, scoring: scoring}
}

// seedDraft creates a competition with a priced field, one submitted roster
// holding M01-M03 and W01-W03, and one roster left in draft.
func seedDraft(t *testing.T, deps flowDeps) (uuid.UUID, uuid.UUID) {
	t.Helper()
	ctx := testEnv.Ctx

	competition, err := deps.rosters.CreateCompetition(ctx, "Integration Marathon", 60000)
	require.NoError(t, err)
	require.True(t, competition.IsSuccess())
	competitionID := competition.Success.ID

	upserted, err := deps.rosters.UpsertCompetitors(ctx, competitionID, testutils.GenerateField(3, 4))
	require.NoError(t, err)
	require.True(t, upserted.IsSuccess(), "upsert failed: %v", upserted.Failure)

	submitted, err := deps.rosters.CreateRoster(ctx, competitionID, "alice")
	require.NoError(t, err)
	require.True(t, submitted.IsSuccess())
	picks := []rosterservice.SlotPick{
		{SlotID: rosterdomain.SlotM1, CompetitorID: "M01"},
		{SlotID: rosterdomain.SlotM2, CompetitorID: "M02"},
		{SlotID: rosterdomain.SlotM3, CompetitorID: "M03"},
		{SlotID: rosterdomain.SlotW1, CompetitorID: "W01"},
		{SlotID: rosterdomain.SlotW2, CompetitorID: "W02"},
		{SlotID: rosterdomain.SlotW3, CompetitorID: "W03"},
	}
	result, err := deps.rosters.Submit(ctx, submitted.Success.ID, picks)
	require.NoError(t, err)
	require.True(t, result.IsSuccess(), "submit failed: %v", result.Failure)

	draft, err := deps.rosters.CreateRoster(ctx, competitionID, "bob")
	require.NoError(t, err)
	require.True(t, draft.IsSuccess())

	return competitionID, submitted.Success.ID
}

func TestScoringFlow(t *testing.T) {
	testEnv.ResetDB(t)
	deps := newFlowDeps(t)
	ctx := testEnv.Ctx
	competitionID, rosterID := seedDraft(t, deps)

	batch := []scoringdomain.RaceResult{
		{CompetitorID: "M01", Placement: ptr(1), FinishTimeSeconds: ptr(7200.0)},
		{CompetitorID: "M02", Placement: ptr(2), FinishTimeSeconds: ptr(7260.0)},
		{CompetitorID: "W01", Placement: ptr(3), FinishTimeSeconds: ptr(7290.0)},
		{CompetitorID: "W02"},
	}
	scored, err := deps.scoring.ScoreRace(ctx, competitionID, batch)
	require.NoError(t, err)
	require.True(t, scored.IsSuccess(), "score failed: %v", scored.Failure)
	assert.Equal(t, 4, scored.Success.ScoredCount)
	assert.Equal(t, 1, scored.Success.ProvisionalRecords)

	breakdowns, err := deps.scoring.ListBreakdowns(ctx, competitionID)
	require.NoError(t, err)
	totals := map[string]int{}
	for _, b := range breakdowns {
		totals[b.CompetitorID] = b.TotalPoints
	}
	assert.Equal(t, map[string]int{"M01": 250, "M02": 120, "W01": 100, "W02": 0}, totals)

	standings, err := deps.scoring.Standings(ctx, competitionID)
	require.NoError(t, err)
	require.Len(t, standings, 1, "draft rosters do not count")
	assert.Equal(t, rosterID, standings[0].RosterID)
	assert.Equal(t, 1, standings[0].Rank)
	assert.Equal(t, 470, standings[0].TotalPoints)
	assert.Equal(t, 370, standings[0].RatifiedPoints)
	assert.True(t, standings[0].Provisional)

	confirmed, err := deps.scoring.ConfirmRecord(ctx, competitionID, "M01", scoringdomain.RecordWorld)
	require.NoError(t, err)
	require.True(t, confirmed.IsSuccess())
	assert.Equal(t, 250, scoringdomain.RatifiedTotal(*confirmed.Success))

	notClaimed, err := deps.scoring.ConfirmRecord(ctx, competitionID, "M02", scoringdomain.RecordWorld)
	require.NoError(t, err)
	assert.ErrorIs(t, notClaimed.Failure, scoringservice.ErrRecordNotClaimed)

	// a later batch rescores the field and keeps the ratification
	late, err := deps.scoring.ScoreRace(ctx, competitionID, []scoringdomain.RaceResult{
		{CompetitorID: "W03", Placement: ptr(4), FinishTimeSeconds: ptr(7400.0)},
	})
	require.NoError(t, err)
	require.True(t, late.IsSuccess(), "rescore failed: %v", late.Failure)
	assert.Equal(t, 5, late.Success.ScoredCount)
	assert.Zero(t, late.Success.ProvisionalRecords)

	standings, err = deps.scoring.Standings(ctx, competitionID)
	require.NoError(t, err)
	require.Len(t, standings, 1)
	assert.Equal(t, 487, standings[0].TotalPoints)
	assert.Equal(t, 487, standings[0].RatifiedPoints)
	assert.False(t, standings[0].Provisional)

	workbook, err := deps.scoring.ExportXLSX(ctx, competitionID)
	require.NoError(t, err)
	f, err := excelize.OpenReader(bytes.NewReader(workbook))
	require.NoError(t, err)
	defer f.Close()
	rows, err := f.GetRows("Scores")
	require.NoError(t, err)
	assert.Len(t, rows, 6, "header plus five competitors")

	chart, err := deps.scoring.StandingsChart(ctx, competitionID)
	require.NoError(t, err)
	assert.True(t, bytes.HasPrefix(chart, []byte("\x89PNG")))
}

func TestScoringRejectsBatchAtomically(t *testing.T) {
	testEnv.ResetDB(t)
	deps := newFlowDeps(t)
	ctx := testEnv.Ctx
	competitionID, _ := seedDraft(t, deps)

	result, err := deps.scoring.ScoreRace(ctx, competitionID, []scoringdomain.RaceResult{
		{CompetitorID: "M01", Placement: ptr(1), FinishTimeSeconds: ptr(7200.0)},
		{CompetitorID: "M02", Placement: ptr(2)},
	})
	require.NoError(t, err)
	require.True(t, result.IsFailure())
	assert.ErrorIs(t, result.Failure, scoringservice.ErrRejectedResults)

	stored, err := scoringdb.NewRepository(testEnv.DB).ListResults(ctx, nil, competitionID)
	require.NoError(t, err)
	assert.Empty(t, stored)

	breakdowns, err := deps.scoring.ListBreakdowns(ctx, competitionID)
	require.NoError(t, err)
	assert.Empty(t, breakdowns)
}
