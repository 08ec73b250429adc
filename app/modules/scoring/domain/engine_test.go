package scoringdomain

import (
	"math"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

func ptr[T any](v T) *T { return &v }

func testPolicy() ScoringPolicy {
	return ScoringPolicy{
		PlacementTable: map[int]int{1: 100, 2: 80, 3: 65, 4: 55, 5: 50},
		MaxGapSeconds:  300,
		GapCurve:       LinearCurve{MaxPoints: 50},
		PerformanceBonuses: []BonusDefinition{
			{Type: BonusNegativeSplit, Points: 10, Predicate: NegativeSplit("half")},
		},
		RecordThresholds: []RecordThreshold{
			{Type: RecordWorld, Points: 100, ThresholdSeconds: 7235},
			{Type: RecordCourse, Points: 25, ThresholdSeconds: 7300},
		},
		WinnerTimeSeconds: ptr(7200.0),
	}
}

func finished(id string, place int, secs float64) RaceResult {
	return RaceResult{CompetitorID: id, Placement: ptr(place), FinishTimeSeconds: ptr(secs)}
}

func TestScore(t *testing.T) {
	tests := []struct {
		name   string
		result RaceResult
		policy ScoringPolicy
		want   PointsBreakdown
	}{
		{
			name:   "DNS scores zero",
			result: RaceResult{CompetitorID: "a"},
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "a", Status: StatusDNS,
				PerformanceBonuses: []BonusAward{}, RecordBonuses: []RecordAward{},
			},
		},
		{
			name:   "DNF with splits scores zero",
			result: RaceResult{CompetitorID: "b", SplitTimes: map[string]float64{"half": 3500}},
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "b", Status: StatusDNF,
				PerformanceBonuses: []BonusAward{}, RecordBonuses: []RecordAward{},
			},
		},
		{
			name:   "winner takes placement, max gap and provisional records",
			result: finished("c", 1, 7200),
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "c", Status: StatusFinished,
				PlacementPoints:    100,
				TimeGapPoints:      50,
				PerformanceBonuses: []BonusAward{},
				RecordBonuses: []RecordAward{
					{Type: RecordWorld, Points: 100, Status: RecordProvisional},
					{Type: RecordCourse, Points: 25, Status: RecordProvisional},
				},
				TotalPoints: 275,
			},
		},
		{
			name:   "sixty seconds back earns curve points inside the window",
			result: finished("d", 2, 7260),
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "d", Status: StatusFinished,
				PlacementPoints:    80,
				TimeGapPoints:      40,
				PerformanceBonuses: []BonusAward{},
				RecordBonuses:      []RecordAward{{Type: RecordCourse, Points: 25, Status: RecordProvisional}},
				TotalPoints:        145,
			},
		},
		{
			name:   "outside gap window and beyond table",
			result: finished("e", 40, 7600),
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "e", Status: StatusFinished,
				PerformanceBonuses: []BonusAward{}, RecordBonuses: []RecordAward{},
			},
		},
		{
			name:   "finish without placement earns gap points only",
			result: RaceResult{CompetitorID: "f", FinishTimeSeconds: ptr(7500.0)},
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "f", Status: StatusFinished,
				TimeGapPoints:      0,
				PerformanceBonuses: []BonusAward{}, RecordBonuses: []RecordAward{},
			},
		},
		{
			name: "negative split bonus",
			result: RaceResult{
				CompetitorID: "g", Placement: ptr(3), FinishTimeSeconds: ptr(7350.0),
				SplitTimes: map[string]float64{"half": 3700},
			},
			policy: testPolicy(),
			want: PointsBreakdown{
				CompetitorID: "g", Status: StatusFinished,
				PlacementPoints:    65,
				TimeGapPoints:      25,
				PerformanceBonuses: []BonusAward{{Type: BonusNegativeSplit, Points: 10}},
				RecordBonuses:      []RecordAward{},
				TotalPoints:        100,
			},
		},
		{
			name:   "confirmed record",
			result: finished("c", 1, 7200),
			policy: testPolicy().WithConfirmedRecords([]RecordClaim{{CompetitorID: "c", Type: RecordWorld}}),
			want: PointsBreakdown{
				CompetitorID: "c", Status: StatusFinished,
				PlacementPoints:    100,
				TimeGapPoints:      50,
				PerformanceBonuses: []BonusAward{},
				RecordBonuses: []RecordAward{
					{Type: RecordWorld, Points: 100, Status: RecordConfirmed},
					{Type: RecordCourse, Points: 25, Status: RecordProvisional},
				},
				TotalPoints: 275,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.result, tt.policy)
			require.NoError(t, err)
			if diff := cmp.Diff(tt.want, got); diff != "" {
				t.Errorf("Score() mismatch (-want +got):\n%s", diff)
			}
		})
	}
}

func TestScoreRejectsMalformed(t *testing.T) {
	tests := []struct {
		name    string
		result  RaceResult
		wantErr error
	}{
		{"placement without finish time", RaceResult{CompetitorID: "a", Placement: ptr(1)}, ErrPlacementWithoutFinishTime},
		{"zero placement", finished("a", 0, 7300), ErrInvalidPlacement},
		{"negative finish", RaceResult{CompetitorID: "a", FinishTimeSeconds: ptr(-1.0)}, ErrNegativeTime},
		{"negative split", RaceResult{CompetitorID: "a", SplitTimes: map[string]float64{"10k": -3}}, ErrNegativeTime},
		{"NaN finish", RaceResult{CompetitorID: "a", Placement: ptr(1), FinishTimeSeconds: ptr(math.NaN())}, ErrNonFiniteTime},
		{"infinite finish", RaceResult{CompetitorID: "a", FinishTimeSeconds: ptr(math.Inf(1))}, ErrNonFiniteTime},
		{"NaN split", RaceResult{CompetitorID: "a", SplitTimes: map[string]float64{"half": math.NaN()}}, ErrNonFiniteTime},
		{"negative infinite split", RaceResult{CompetitorID: "a", SplitTimes: map[string]float64{"half": math.Inf(-1)}}, ErrNonFiniteTime},
		{"missing competitor", RaceResult{}, ErrMissingCompetitorID},
		{"faster than winner", finished("a", 2, 7100), ErrFasterThanWinner},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Score(tt.result, testPolicy())
			assert.ErrorIs(t, err, tt.wantErr)
			assert.Equal(t, PointsBreakdown{}, got)
		})
	}
}

func TestScoreProperties(t *testing.T) {
	faker := gofakeit.New(11)
	policy := testPolicy()

	for i := 0; i < 300; i++ {
		var r RaceResult
		r.CompetitorID = faker.UUID()
		switch faker.IntRange(0, 2) {
		case 0:
		case 1:
			r.SplitTimes = map[string]float64{"half": float64(faker.IntRange(3400, 4000))}
		default:
			r.Placement = ptr(faker.IntRange(1, 30))
			r.FinishTimeSeconds = ptr(7200 + float64(faker.IntRange(0, 900)))
			r.SplitTimes = map[string]float64{"half": float64(faker.IntRange(3400, 4000))}
		}

		first, err := Score(r, policy)
		require.NoError(t, err)
		second, err := Score(r, policy)
		require.NoError(t, err)

		assert.True(t, cmp.Equal(first, second), "score is not idempotent")
		assert.Equal(t, first.sum(), first.TotalPoints)
		if first.Status == StatusDNS {
			assert.Zero(t, first.TotalPoints)
		}
		if first.Status != StatusFinished {
			assert.Empty(t, first.RecordBonuses)
		}
	}
}

func TestSteppedCurve(t *testing.T) {
	policy := testPolicy()
	policy.GapCurve = SteppedCurve{Steps: []GapStep{
		{UpToSeconds: 30, Points: 30},
		{UpToSeconds: 120, Points: 20},
		{UpToSeconds: 300, Points: 5},
	}}
	require.NoError(t, ValidatePolicy(policy))

	for gap, want := range map[float64]int{0: 30, 30: 30, 31: 20, 120: 20, 299: 5, 300: 5, 301: 0} {
		got, err := Score(RaceResult{CompetitorID: "x", FinishTimeSeconds: ptr(7200 + gap)}, policy)
		require.NoError(t, err)
		assert.Equal(t, want, got.TimeGapPoints, "gap %v", gap)
	}
}

func TestScoreWithoutWinnerTimeSkipsGap(t *testing.T) {
	policy := testPolicy()
	policy.WinnerTimeSeconds = nil

	got, err := Score(finished("x", 1, 7000), policy)
	require.NoError(t, err)
	assert.Zero(t, got.TimeGapPoints)
	assert.Equal(t, 100, got.PlacementPoints)
}

func TestRatifiedTotalAndConfirmRecord(t *testing.T) {
	b, err := Score(finished("c", 1, 7200), testPolicy())
	require.NoError(t, err)

	assert.Equal(t, 275, b.TotalPoints)
	assert.Equal(t, 150, RatifiedTotal(b))
	assert.True(t, HasProvisional(b))

	confirmed, ok := ConfirmRecord(b, RecordWorld)
	require.True(t, ok)
	assert.Equal(t, 275, confirmed.TotalPoints)
	assert.Equal(t, 250, RatifiedTotal(confirmed))
	assert.Equal(t, RecordProvisional, b.RecordBonuses[0].Status, "input must not be mutated")

	_, ok = ConfirmRecord(b, RecordOlympic)
	assert.False(t, ok)
}

func TestAggregate(t *testing.T) {
	roster, err := rosterdomain.NewRoster([]rosterdomain.RosterSlot{
		{SlotID: rosterdomain.SlotM1, CompetitorID: ptr("c"), PriceAtSelection: ptr(rosterdomain.Money(9000))},
		{SlotID: rosterdomain.SlotM2, CompetitorID: ptr("d"), PriceAtSelection: ptr(rosterdomain.Money(6000))},
		{SlotID: rosterdomain.SlotW1, CompetitorID: ptr("running"), PriceAtSelection: ptr(rosterdomain.Money(4000))},
	})
	require.NoError(t, err)

	c, err := Score(finished("c", 1, 7200), testPolicy())
	require.NoError(t, err)
	d, err := Score(finished("d", 2, 7260), testPolicy())
	require.NoError(t, err)
	outsider, err := Score(finished("z", 3, 7270), testPolicy())
	require.NoError(t, err)

	team := Aggregate(map[string]PointsBreakdown{"c": c, "d": d, "z": outsider}, roster)

	assert.Equal(t, 275+145, team.TotalPoints)
	assert.Equal(t, 150+120, team.RatifiedPoints)
	require.Len(t, team.Slots, rosterdomain.SlotCount)
	assert.True(t, team.Slots[0].Scored)
	assert.False(t, team.Slots[3].Scored, "seated but unscored")
	assert.Equal(t, "running", team.Slots[3].CompetitorID)
	assert.Zero(t, team.Slots[3].Points)
	assert.Empty(t, team.Slots[2].CompetitorID)
}

func TestWinnerTime(t *testing.T) {
	got, ok := WinnerTime([]RaceResult{finished("b", 2, 7300), finished("a", 1, 7210)})
	require.True(t, ok)
	assert.Equal(t, 7210.0, got)

	_, ok = WinnerTime([]RaceResult{{CompetitorID: "x"}})
	assert.False(t, ok)
}

func TestWinnerTimeDeadHeatIgnoresOrder(t *testing.T) {
	slow := finished("a", 1, 7200)
	fast := finished("b", 1, 7100)

	forward, ok := WinnerTime([]RaceResult{slow, fast})
	require.True(t, ok)
	backward, ok := WinnerTime([]RaceResult{fast, slow})
	require.True(t, ok)

	assert.Equal(t, 7100.0, forward)
	assert.Equal(t, forward, backward)
}
