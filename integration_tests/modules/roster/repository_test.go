//go:build integration

package rosterintegrationtests

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
	"github.com/Black-And-White-Club/marathon-draft/integration_tests/testutils"
)

func ptr[T any](v T) *T { return &v }

func TestCompetitionRoundTrip(t *testing.T) {
	testEnv.ResetDB(t)
	repo := rosterdb.NewRepository(testEnv.DB)
	ctx := testEnv.Ctx

	competition := &rosterdb.Competition{Name: "Berlin 2026", SalaryCap: 30000}
	require.NoError(t, repo.CreateCompetition(ctx, nil, competition))
	require.NotEqual(t, uuid.Nil, competition.ID)

	got, err := repo.GetCompetition(ctx, nil, competition.ID)
	require.NoError(t, err)
	assert.Equal(t, "Berlin 2026", got.Name)
	assert.Equal(t, int64(30000), got.SalaryCap)

	_, err = repo.GetCompetition(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, rosterdb.ErrCompetitionNotFound)
}

func TestUpsertCompetitorsReprices(t *testing.T) {
	testEnv.ResetDB(t)
	repo := rosterdb.NewRepository(testEnv.DB)
	ctx := testEnv.Ctx
	competitionID := testEnv.SeedCompetition(t, 30000)

	field := testutils.GenerateField(7, 4)
	rows := make([]rosterdb.Competitor, 0, len(field))
	for _, c := range field {
		rows = append(rows, rosterdb.CompetitorFromDomain(competitionID, c))
	}
	require.NoError(t, repo.UpsertCompetitors(ctx, nil, rows))

	rows[0].Price = 12345
	require.NoError(t, repo.UpsertCompetitors(ctx, nil, rows[:1]))

	stored, err := repo.ListCompetitors(ctx, nil, competitionID)
	require.NoError(t, err)
	require.Len(t, stored, len(field))

	prices := rosterdb.PriceList(stored)
	assert.Equal(t, rosterdomain.Money(12345), prices[rows[0].ID].Price)
	assert.Equal(t, field[1].Price, prices[field[1].ID].Price)
	assert.Equal(t, field[1].Gender, prices[field[1].ID].Gender)
}

func TestRosterLifecycle(t *testing.T) {
	testEnv.ResetDB(t)
	repo := rosterdb.NewRepository(testEnv.DB)
	ctx := testEnv.Ctx
	competitionID := testEnv.SeedCompetition(t, 30000)

	empty := rosterdomain.EmptyRoster()
	roster := &rosterdb.Roster{
		CompetitionID: competitionID,
		OwnerID:       "alice",
		Status:        "draft",
		Slots:         empty.Slots(),
	}
	require.NoError(t, repo.CreateRoster(ctx, nil, roster))

	dup := &rosterdb.Roster{CompetitionID: competitionID, OwnerID: "alice", Status: "draft", Slots: empty.Slots()}
	assert.ErrorIs(t, repo.CreateRoster(ctx, nil, dup), rosterdb.ErrRosterExists)

	roster.Slots[0].CompetitorID = ptr("M01")
	roster.Slots[0].PriceAtSelection = ptr(rosterdomain.Money(5000))
	roster.Status = "submitted"
	submittedAt := time.Now().UTC().Truncate(time.Microsecond)
	roster.SubmittedAt = &submittedAt
	require.NoError(t, repo.UpdateRoster(ctx, nil, roster))

	got, err := repo.GetRoster(ctx, nil, roster.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", got.Status)
	require.NotNil(t, got.SubmittedAt)
	assert.True(t, submittedAt.Equal(*got.SubmittedAt))

	domainRoster, err := got.Domain()
	require.NoError(t, err)
	slot := domainRoster.Slots()[0]
	require.NotNil(t, slot.CompetitorID)
	assert.Equal(t, "M01", *slot.CompetitorID)
	assert.Equal(t, rosterdomain.Money(5000), *slot.PriceAtSelection)

	scorable, err := repo.ListRostersByStatus(ctx, nil, competitionID, []string{"submitted", "editing"})
	require.NoError(t, err)
	require.Len(t, scorable, 1)
	assert.Equal(t, roster.ID, scorable[0].ID)

	drafts, err := repo.ListRostersByStatus(ctx, nil, competitionID, []string{"draft"})
	require.NoError(t, err)
	assert.Empty(t, drafts)

	_, err = repo.GetRoster(ctx, nil, uuid.New())
	assert.ErrorIs(t, err, rosterdb.ErrRosterNotFound)
	assert.ErrorIs(t, repo.UpdateRoster(ctx, nil, &rosterdb.Roster{ID: uuid.New(), Slots: empty.Slots()}), rosterdb.ErrRosterNotFound)
}

func TestGetRosterForUpdateInsideTransaction(t *testing.T) {
	testEnv.ResetDB(t)
	repo := rosterdb.NewRepository(testEnv.DB)
	ctx := testEnv.Ctx
	competitionID := testEnv.SeedCompetition(t, 30000)

	empty := rosterdomain.EmptyRoster()
	roster := &rosterdb.Roster{CompetitionID: competitionID, OwnerID: "bob", Status: "draft", Slots: empty.Slots()}
	require.NoError(t, repo.CreateRoster(ctx, nil, roster))

	tx, err := testEnv.DB.BeginTx(ctx, nil)
	require.NoError(t, err)
	defer func() { _ = tx.Rollback() }()

	locked, err := repo.GetRosterForUpdate(ctx, tx, roster.ID)
	require.NoError(t, err)
	locked.Status = "submitted"
	require.NoError(t, repo.UpdateRoster(ctx, tx, locked))
	require.NoError(t, tx.Commit())

	got, err := repo.GetRoster(ctx, nil, roster.ID)
	require.NoError(t, err)
	assert.Equal(t, "submitted", got.Status)
}
