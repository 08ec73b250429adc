package rosterservice

import (
	"context"
	"sort"
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	lockdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/domain"
	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
)

// FakeRosterRepository keeps rows in memory. Set a func field to override a
// method.
type FakeRosterRepository struct {
	trace []string

	competitions map[uuid.UUID]rosterdb.Competition
	competitors  map[uuid.UUID][]rosterdb.Competitor
	rosters      map[uuid.UUID]rosterdb.Roster

	UpsertCompetitorsFunc func(ctx context.Context, db bun.IDB, competitors []rosterdb.Competitor) error
	UpdateRosterFunc      func(ctx context.Context, db bun.IDB, roster *rosterdb.Roster) error
	GetCompetitionFunc    func(ctx context.Context, db bun.IDB, id uuid.UUID) (*rosterdb.Competition, error)
}

func NewFakeRosterRepository() *FakeRosterRepository {
	return &FakeRosterRepository{
		trace:        []string{},
		competitions: map[uuid.UUID]rosterdb.Competition{},
		competitors:  map[uuid.UUID][]rosterdb.Competitor{},
		rosters:      map[uuid.UUID]rosterdb.Roster{},
	}
}

func (f *FakeRosterRepository) Trace() []string {
	out := make([]string, len(f.trace))
	copy(out, f.trace)
	return out
}

func (f *FakeRosterRepository) record(step string) {
	f.trace = append(f.trace, step)
}

func (f *FakeRosterRepository) CreateCompetition(_ context.Context, _ bun.IDB, c *rosterdb.Competition) error {
	f.record("CreateCompetition")
	c.CreatedAt = time.Date(2027, 1, 1, 0, 0, 0, 0, time.UTC)
	f.competitions[c.ID] = *c
	return nil
}

func (f *FakeRosterRepository) GetCompetition(ctx context.Context, db bun.IDB, id uuid.UUID) (*rosterdb.Competition, error) {
	f.record("GetCompetition")
	if f.GetCompetitionFunc != nil {
		return f.GetCompetitionFunc(ctx, db, id)
	}
	c, ok := f.competitions[id]
	if !ok {
		return nil, rosterdb.ErrCompetitionNotFound
	}
	return &c, nil
}

func (f *FakeRosterRepository) UpsertCompetitors(ctx context.Context, db bun.IDB, competitors []rosterdb.Competitor) error {
	f.record("UpsertCompetitors")
	if f.UpsertCompetitorsFunc != nil {
		return f.UpsertCompetitorsFunc(ctx, db, competitors)
	}
	for _, c := range competitors {
		list := f.competitors[c.CompetitionID]
		replaced := false
		for i := range list {
			if list[i].ID == c.ID {
				list[i] = c
				replaced = true
			}
		}
		if !replaced {
			list = append(list, c)
		}
		f.competitors[c.CompetitionID] = list
	}
	return nil
}

func (f *FakeRosterRepository) ListCompetitors(_ context.Context, _ bun.IDB, competitionID uuid.UUID) ([]rosterdb.Competitor, error) {
	f.record("ListCompetitors")
	out := append([]rosterdb.Competitor{}, f.competitors[competitionID]...)
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (f *FakeRosterRepository) CreateRoster(_ context.Context, _ bun.IDB, r *rosterdb.Roster) error {
	f.record("CreateRoster")
	for _, existing := range f.rosters {
		if existing.CompetitionID == r.CompetitionID && existing.OwnerID == r.OwnerID {
			return rosterdb.ErrRosterExists
		}
	}
	f.rosters[r.ID] = *r
	return nil
}

func (f *FakeRosterRepository) GetRoster(_ context.Context, _ bun.IDB, id uuid.UUID) (*rosterdb.Roster, error) {
	f.record("GetRoster")
	r, ok := f.rosters[id]
	if !ok {
		return nil, rosterdb.ErrRosterNotFound
	}
	return &r, nil
}

func (f *FakeRosterRepository) GetRosterForUpdate(_ context.Context, _ bun.IDB, id uuid.UUID) (*rosterdb.Roster, error) {
	f.record("GetRosterForUpdate")
	r, ok := f.rosters[id]
	if !ok {
		return nil, rosterdb.ErrRosterNotFound
	}
	return &r, nil
}

func (f *FakeRosterRepository) UpdateRoster(ctx context.Context, db bun.IDB, r *rosterdb.Roster) error {
	f.record("UpdateRoster")
	if f.UpdateRosterFunc != nil {
		return f.UpdateRosterFunc(ctx, db, r)
	}
	if _, ok := f.rosters[r.ID]; !ok {
		return rosterdb.ErrRosterNotFound
	}
	f.rosters[r.ID] = *r
	return nil
}

func (f *FakeRosterRepository) ListRostersByStatus(_ context.Context, _ bun.IDB, competitionID uuid.UUID, statuses []string) ([]rosterdb.Roster, error) {
	f.record("ListRostersByStatus")
	want := map[string]bool{}
	for _, s := range statuses {
		want[s] = true
	}
	var out []rosterdb.Roster
	for _, r := range f.rosters {
		if r.CompetitionID == competitionID && want[r.Status] {
			out = append(out, r)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}

var _ rosterdb.Repository = (*FakeRosterRepository)(nil)

// seed stores a competition with a price list.
func (f *FakeRosterRepository) seed(id uuid.UUID, salaryCap int64, competitors ...rosterdomain.Competitor) {
	f.competitions[id] = rosterdb.Competition{ID: id, Name: "Boston", SalaryCap: salaryCap}
	for _, c := range competitors {
		f.competitors[id] = append(f.competitors[id], rosterdb.CompetitorFromDomain(id, c))
	}
}

// FakeLockReader serves a fixed lock config.
type FakeLockReader struct {
	Config    lockdomain.LockConfig
	ConfigErr error
	NowTime   time.Time
}

func (f *FakeLockReader) LockConfig(context.Context, uuid.UUID) (lockdomain.LockConfig, error) {
	return f.Config, f.ConfigErr
}

func (f *FakeLockReader) Now() time.Time { return f.NowTime }

var _ LockReader = (*FakeLockReader)(nil)
