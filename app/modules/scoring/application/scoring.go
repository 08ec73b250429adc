package scoringservice

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"sort"

	"github.com/google/uuid"
	"github.com/uptrace/bun"
	"golang.org/x/sync/errgroup"

	"github.com/Black-And-White-Club/marathon-draft/app/eventbus"
	scoringdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/domain"
	scoringdb "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/events"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// ScoreRace validates the batch, merges it with stored results and rescores
// every competitor of the competition. Nothing is written unless the whole
// merged field scores cleanly.
func (s *ScoringService) ScoreRace(ctx context.Context, competitionID uuid.UUID, batch []scoringdomain.RaceResult) (results.OperationResult[ScoreSummary, error], error) {
	result, err := withTelemetry(s, ctx, "ScoreRace", attr.CompetitionID(competitionID), func(ctx context.Context) (results.OperationResult[ScoreSummary, error], error) {
		if len(batch) == 0 {
			return results.FailureResult[ScoreSummary, error](ErrEmptyBatch), nil
		}
		if rejected := checkBatch(batch); rejected != nil {
			s.metrics.RecordRejectedResults(ctx, len(rejected.Rejections))
			return results.FailureResult[ScoreSummary, error](rejected), nil
		}

		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[ScoreSummary, error], error) {
			stored, err := s.repo.ListResults(ctx, db, competitionID)
			if err != nil {
				return results.OperationResult[ScoreSummary, error]{}, fmt.Errorf("failed to load results: %w", err)
			}
			confirmations, err := s.repo.ListRecordConfirmations(ctx, db, competitionID)
			if err != nil {
				return results.OperationResult[ScoreSummary, error]{}, fmt.Errorf("failed to load record confirmations: %w", err)
			}

			field := mergeResults(stored, batch)
			breakdowns, err := scoreField(ctx, field, s.policyFor(field, confirmations), s.workers)
			if err != nil {
				if isScoringFailure(err) {
					return results.FailureResult[ScoreSummary, error](err), nil
				}
				return results.OperationResult[ScoreSummary, error]{}, err
			}

			now := s.clock.Now()
			rows := make([]scoringdb.RaceResult, 0, len(batch))
			for _, r := range batch {
				rows = append(rows, scoringdb.RaceResultFromDomain(competitionID, r, now))
			}
			if err := s.repo.UpsertResults(ctx, db, rows); err != nil {
				return results.OperationResult[ScoreSummary, error]{}, fmt.Errorf("failed to store results: %w", err)
			}

			scored := make([]scoringdb.PointsBreakdown, 0, len(breakdowns))
			for _, b := range breakdowns {
				scored = append(scored, scoringdb.BreakdownFromDomain(competitionID, b, now))
			}
			if err := s.repo.ReplaceBreakdowns(ctx, db, scored); err != nil {
				return results.OperationResult[ScoreSummary, error]{}, fmt.Errorf("failed to store breakdowns: %w", err)
			}

			summary := ScoreSummary{
				CompetitionID: competitionID,
				Accepted:      len(batch),
				ScoredCount:   len(breakdowns),
				Breakdowns:    breakdowns,
				ScoredAt:      now,
			}
			for _, b := range breakdowns {
				for _, rec := range b.RecordBonuses {
					if rec.Status == scoringdomain.RecordProvisional {
						summary.ProvisionalRecords++
					}
				}
			}
			return results.SuccessResult[ScoreSummary, error](summary), nil
		})
	})
	if err != nil || !result.IsSuccess() {
		return result, err
	}

	summary := *result.Success
	s.recordAwards(ctx, summary.Breakdowns)
	s.publishScored(ctx, summary)
	return result, nil
}

// checkBatch returns nil when every result is well formed and appears once.
func checkBatch(batch []scoringdomain.RaceResult) *RejectedResultsError {
	var rejected []Rejection
	seen := make(map[string]bool, len(batch))
	for _, r := range batch {
		if err := scoringdomain.ValidateResult(r); err != nil {
			rejected = append(rejected, Rejection{CompetitorID: r.CompetitorID, Reason: err.Error()})
			continue
		}
		if seen[r.CompetitorID] {
			rejected = append(rejected, Rejection{CompetitorID: r.CompetitorID, Reason: "duplicate result in batch"})
			continue
		}
		seen[r.CompetitorID] = true
	}
	if len(rejected) == 0 {
		return nil
	}
	return &RejectedResultsError{Rejections: rejected}
}

// mergeResults overlays the batch onto stored results, keyed by competitor,
// and returns them in competitor order.
func mergeResults(stored []scoringdb.RaceResult, batch []scoringdomain.RaceResult) []scoringdomain.RaceResult {
	byID := make(map[string]scoringdomain.RaceResult, len(stored)+len(batch))
	for _, row := range stored {
		byID[row.CompetitorID] = row.Domain()
	}
	for _, r := range batch {
		byID[r.CompetitorID] = r
	}

	out := make([]scoringdomain.RaceResult, 0, len(byID))
	for _, r := range byID {
		out = append(out, r)
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompetitorID < out[j].CompetitorID })
	return out
}

func (s *ScoringService) policyFor(field []scoringdomain.RaceResult, confirmations []scoringdb.RecordConfirmation) scoringdomain.ScoringPolicy {
	policy := s.policy
	if winner, ok := scoringdomain.WinnerTime(field); ok {
		policy = policy.WithWinnerTime(winner)
	}
	claims := make([]scoringdomain.RecordClaim, 0, len(confirmations))
	for _, c := range confirmations {
		claims = append(claims, scoringdomain.RecordClaim{CompetitorID: c.CompetitorID, Type: c.RecordType})
	}
	return policy.WithConfirmedRecords(claims)
}

// scoreField scores every result concurrently. Scoring is pure, so the order
// of completion does not matter; output keeps the input order.
func scoreField(ctx context.Context, field []scoringdomain.RaceResult, policy scoringdomain.ScoringPolicy, workers int) ([]scoringdomain.PointsBreakdown, error) {
	out := make([]scoringdomain.PointsBreakdown, len(field))
	g, ctx := errgroup.WithContext(ctx)
	g.SetLimit(max(workers, 1))
	for i, r := range field {
		g.Go(func() error {
			if err := ctx.Err(); err != nil {
				return err
			}
			b, err := scoringdomain.Score(r, policy)
			if err != nil {
				return err
			}
			out[i] = b
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}
	return out, nil
}

// ScoreOffline validates and scores a complete field without touching
// storage. Results are returned in competitor order.
func ScoreOffline(ctx context.Context, policy scoringdomain.ScoringPolicy, field []scoringdomain.RaceResult) ([]scoringdomain.PointsBreakdown, error) {
	if len(field) == 0 {
		return nil, ErrEmptyBatch
	}
	if rejected := checkBatch(field); rejected != nil {
		return nil, rejected
	}
	sorted := mergeResults(nil, field)
	if winner, ok := scoringdomain.WinnerTime(sorted); ok {
		policy = policy.WithWinnerTime(winner)
	}
	return scoreField(ctx, sorted, policy, runtime.GOMAXPROCS(0))
}

func isScoringFailure(err error) bool {
	for _, target := range []error{
		scoringdomain.ErrFasterThanWinner,
		scoringdomain.ErrMissingCompetitorID,
		scoringdomain.ErrPlacementWithoutFinishTime,
		scoringdomain.ErrInvalidPlacement,
		scoringdomain.ErrNegativeTime,
		scoringdomain.ErrNonFiniteTime,
	} {
		if errors.Is(err, target) {
			return true
		}
	}
	return false
}

func (s *ScoringService) recordAwards(ctx context.Context, breakdowns []scoringdomain.PointsBreakdown) {
	for _, b := range breakdowns {
		s.metrics.RecordPointsAwarded(ctx, "placement", b.PlacementPoints)
		s.metrics.RecordPointsAwarded(ctx, "time_gap", b.TimeGapPoints)
		for _, bonus := range b.PerformanceBonuses {
			s.metrics.RecordPointsAwarded(ctx, "performance", bonus.Points)
		}
		for _, rec := range b.RecordBonuses {
			s.metrics.RecordPointsAwarded(ctx, "record", rec.Points)
			s.metrics.RecordRecordBonus(ctx, rec.Type, string(rec.Status))
		}
	}
}

// publishScored is best effort: the scores are already committed.
func (s *ScoringService) publishScored(ctx context.Context, summary ScoreSummary) {
	if s.publisher == nil {
		return
	}
	payload := events.ScoringUpdatedPayloadV1{
		CompetitionID:      summary.CompetitionID,
		ScoredCount:        summary.ScoredCount,
		ProvisionalRecords: summary.ProvisionalRecords,
		ScoredAt:           summary.ScoredAt,
	}
	if err := eventbus.Publish(ctx, s.publisher, eventbus.ScoringUpdatedV1, payload); err != nil {
		s.logger.ErrorContext(ctx, "Failed to publish scoring update",
			attr.CompetitionID(summary.CompetitionID),
			attr.ExtractCorrelationID(ctx),
			attr.Error(err),
		)
	}
}

// ConfirmRecord marks a claimed record as ratified and rewrites the
// competitor's breakdown. Later rescoring keeps the confirmation.
func (s *ScoringService) ConfirmRecord(ctx context.Context, competitionID uuid.UUID, competitorID, recordType string) (results.OperationResult[scoringdomain.PointsBreakdown, error], error) {
	return withTelemetry(s, ctx, "ConfirmRecord", attr.CompetitionID(competitionID), func(ctx context.Context) (results.OperationResult[scoringdomain.PointsBreakdown, error], error) {
		return runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[scoringdomain.PointsBreakdown, error], error) {
			row, err := s.repo.GetBreakdown(ctx, db, competitionID, competitorID)
			if errors.Is(err, scoringdb.ErrNotFound) {
				return results.FailureResult[scoringdomain.PointsBreakdown, error](fmt.Errorf("%w: %s", ErrNotScored, competitorID)), nil
			}
			if err != nil {
				return results.OperationResult[scoringdomain.PointsBreakdown, error]{}, fmt.Errorf("failed to load breakdown: %w", err)
			}

			confirmed, ok := scoringdomain.ConfirmRecord(row.Domain(), recordType)
			if !ok {
				return results.FailureResult[scoringdomain.PointsBreakdown, error](fmt.Errorf("%w: %s %s", ErrRecordNotClaimed, competitorID, recordType)), nil
			}

			now := s.clock.Now()
			if err := s.repo.AddRecordConfirmation(ctx, db, &scoringdb.RecordConfirmation{
				CompetitionID: competitionID,
				CompetitorID:  competitorID,
				RecordType:    recordType,
				ConfirmedAt:   now,
			}); err != nil {
				return results.OperationResult[scoringdomain.PointsBreakdown, error]{}, fmt.Errorf("failed to store confirmation: %w", err)
			}
			if err := s.repo.ReplaceBreakdowns(ctx, db, []scoringdb.PointsBreakdown{
				scoringdb.BreakdownFromDomain(competitionID, confirmed, now),
			}); err != nil {
				return results.OperationResult[scoringdomain.PointsBreakdown, error]{}, fmt.Errorf("failed to store breakdown: %w", err)
			}

			s.logger.InfoContext(ctx, "Record confirmed",
				attr.CompetitionID(competitionID),
				attr.String("competitor_id", competitorID),
				attr.String("record_type", recordType),
			)
			s.metrics.RecordRecordBonus(ctx, recordType, string(scoringdomain.RecordConfirmed))
			return results.SuccessResult[scoringdomain.PointsBreakdown, error](confirmed), nil
		})
	})
}

// ListBreakdowns returns the stored breakdowns ordered by competitor.
func (s *ScoringService) ListBreakdowns(ctx context.Context, competitionID uuid.UUID) ([]scoringdomain.PointsBreakdown, error) {
	rows, err := s.repo.ListBreakdowns(ctx, nil, competitionID)
	if err != nil {
		return nil, err
	}
	out := make([]scoringdomain.PointsBreakdown, 0, len(rows))
	for _, row := range rows {
		out = append(out, row.Domain())
	}
	sort.Slice(out, func(i, j int) bool { return out[i].CompetitorID < out[j].CompetitorID })
	return out, nil
}

// Standings ranks every scorable roster by total points, then by ratified
// points. Rosters level on both share a rank.
func (s *ScoringService) Standings(ctx context.Context, competitionID uuid.UUID) ([]Standing, error) {
	ctx, span := s.tracer.Start(ctx, "Standings")
	defer span.End()

	breakdowns, err := s.ListBreakdowns(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load breakdowns: %w", err)
	}
	rosters, err := s.rosters.ListScorableRosters(ctx, competitionID)
	if err != nil {
		return nil, fmt.Errorf("failed to load rosters: %w", err)
	}

	byCompetitor := make(map[string]scoringdomain.PointsBreakdown, len(breakdowns))
	for _, b := range breakdowns {
		byCompetitor[b.CompetitorID] = b
	}

	standings := make([]Standing, 0, len(rosters))
	for _, r := range rosters {
		team := scoringdomain.Aggregate(byCompetitor, r.Roster)
		standings = append(standings, Standing{
			RosterID:       r.ID,
			OwnerID:        r.OwnerID,
			TotalPoints:    team.TotalPoints,
			RatifiedPoints: team.RatifiedPoints,
			Provisional:    team.TotalPoints != team.RatifiedPoints,
			Slots:          team.Slots,
		})
	}
	rankStandings(standings)

	s.logger.DebugContext(ctx, "Standings computed",
		attr.CompetitionID(competitionID),
		attr.Int("rosters", len(standings)),
	)
	return standings, nil
}

func rankStandings(standings []Standing) {
	sort.SliceStable(standings, func(i, j int) bool {
		a, b := standings[i], standings[j]
		if a.TotalPoints != b.TotalPoints {
			return a.TotalPoints > b.TotalPoints
		}
		if a.RatifiedPoints != b.RatifiedPoints {
			return a.RatifiedPoints > b.RatifiedPoints
		}
		if a.OwnerID != b.OwnerID {
			return a.OwnerID < b.OwnerID
		}
		return a.RosterID.String() < b.RosterID.String()
	})
	for i := range standings {
		if i > 0 &&
			standings[i].TotalPoints == standings[i-1].TotalPoints &&
			standings[i].RatifiedPoints == standings[i-1].RatifiedPoints {
			standings[i].Rank = standings[i-1].Rank
			continue
		}
		standings[i].Rank = i + 1
	}
}
