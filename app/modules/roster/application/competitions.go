package rosterservice

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/app/observability/attr"
	"github.com/Black-And-White-Club/marathon-draft/app/shared/results"
)

// CreateCompetition registers a competition. A zero salary cap takes the
// configured default.
func (s *RosterService) CreateCompetition(ctx context.Context, name string, salaryCap int64) (CompetitionResult, error) {
	id := uuid.New()
	return withTelemetry(s, ctx, "CreateCompetition", attr.CompetitionID(id), func(ctx context.Context) (CompetitionResult, error) {
		name = strings.TrimSpace(name)
		if name == "" {
			return results.FailureResult[CompetitionView, error](fmt.Errorf("%w: name is required", ErrInvalidCompetition)), nil
		}
		if salaryCap == 0 {
			salaryCap = s.defaultSalaryCap
		}
		if salaryCap < 0 {
			return results.FailureResult[CompetitionView, error](fmt.Errorf("%w: salary cap must be positive", ErrInvalidCompetition)), nil
		}

		c := &rosterdb.Competition{ID: id, Name: name, SalaryCap: salaryCap}
		if err := s.repo.CreateCompetition(ctx, nil, c); err != nil {
			return CompetitionResult{}, err
		}

		s.logger.InfoContext(ctx, "Competition created",
			attr.CompetitionID(id),
			attr.Int64("salary_cap", salaryCap),
		)
		return results.SuccessResult[CompetitionView, error](competitionView(c)), nil
	})
}

func competitionView(c *rosterdb.Competition) CompetitionView {
	return CompetitionView{
		ID:        c.ID,
		Name:      c.Name,
		SalaryCap: rosterdomain.Money(c.SalaryCap),
		CreatedAt: c.CreatedAt,
	}
}

// UpsertCompetitors replaces price list rows by competitor ID. Rosters keep
// the price captured when each pick was made.
func (s *RosterService) UpsertCompetitors(ctx context.Context, competitionID uuid.UUID, competitors []rosterdomain.Competitor) (results.OperationResult[int, error], error) {
	return withTelemetry(s, ctx, "UpsertCompetitors", attr.CompetitionID(competitionID), func(ctx context.Context) (results.OperationResult[int, error], error) {
		return s.upsertCompetitors(ctx, competitionID, competitors)
	})
}

// ImportPriceList parses an XLSX price list and upserts it.
func (s *RosterService) ImportPriceList(ctx context.Context, competitionID uuid.UUID, xlsx []byte) (results.OperationResult[int, error], error) {
	return withTelemetry(s, ctx, "ImportPriceList", attr.CompetitionID(competitionID), func(ctx context.Context) (results.OperationResult[int, error], error) {
		competitors, err := ParsePriceListXLSX(xlsx)
		if err != nil {
			return results.FailureResult[int, error](err), nil
		}
		return s.upsertCompetitors(ctx, competitionID, competitors)
	})
}

func (s *RosterService) upsertCompetitors(ctx context.Context, competitionID uuid.UUID, competitors []rosterdomain.Competitor) (results.OperationResult[int, error], error) {
	if len(competitors) == 0 {
		return results.FailureResult[int, error](fmt.Errorf("%w: no competitors", ErrInvalidPriceList)), nil
	}

	rows := make([]rosterdb.Competitor, 0, len(competitors))
	seen := make(map[string]bool, len(competitors))
	for _, c := range competitors {
		if err := checkCompetitor(c); err != nil {
			return results.FailureResult[int, error](err), nil
		}
		if seen[c.ID] {
			return results.FailureResult[int, error](fmt.Errorf("%w: competitor %s listed twice", ErrInvalidPriceList, c.ID)), nil
		}
		seen[c.ID] = true
		rows = append(rows, rosterdb.CompetitorFromDomain(competitionID, c))
	}

	result, err := runInTx(s, ctx, func(ctx context.Context, db bun.IDB) (results.OperationResult[int, error], error) {
		if _, err := s.repo.GetCompetition(ctx, db, competitionID); err != nil {
			if errors.Is(err, rosterdb.ErrCompetitionNotFound) {
				return results.FailureResult[int, error](err), nil
			}
			return results.OperationResult[int, error]{}, err
		}
		if err := s.repo.UpsertCompetitors(ctx, db, rows); err != nil {
			return results.OperationResult[int, error]{}, err
		}
		return results.SuccessResult[int, error](len(rows)), nil
	})
	if err == nil && result.IsSuccess() {
		s.logger.InfoContext(ctx, "Price list updated",
			attr.CompetitionID(competitionID),
			attr.Int("competitors", len(rows)),
		)
	}
	return result, err
}

func checkCompetitor(c rosterdomain.Competitor) error {
	switch {
	case strings.TrimSpace(c.ID) == "":
		return fmt.Errorf("%w: competitor id is empty", ErrInvalidPriceList)
	case !c.Gender.Valid():
		return fmt.Errorf("%w: competitor %s has unknown gender %q", ErrInvalidPriceList, c.ID, c.Gender)
	case c.Price < 0:
		return fmt.Errorf("%w: competitor %s has a negative price", ErrInvalidPriceList, c.ID)
	}
	return nil
}

// ListCompetitors returns the competition's price list.
func (s *RosterService) ListCompetitors(ctx context.Context, competitionID uuid.UUID) (results.OperationResult[[]rosterdomain.Competitor, error], error) {
	return withTelemetry(s, ctx, "ListCompetitors", attr.CompetitionID(competitionID), func(ctx context.Context) (results.OperationResult[[]rosterdomain.Competitor, error], error) {
		if _, err := s.repo.GetCompetition(ctx, nil, competitionID); err != nil {
			if errors.Is(err, rosterdb.ErrCompetitionNotFound) {
				return results.FailureResult[[]rosterdomain.Competitor, error](err), nil
			}
			return results.OperationResult[[]rosterdomain.Competitor, error]{}, err
		}
		rows, err := s.repo.ListCompetitors(ctx, nil, competitionID)
		if err != nil {
			return results.OperationResult[[]rosterdomain.Competitor, error]{}, err
		}
		out := make([]rosterdomain.Competitor, len(rows))
		for i, r := range rows {
			out[i] = r.ToDomain()
		}
		return results.SuccessResult[[]rosterdomain.Competitor, error](out), nil
	})
}
