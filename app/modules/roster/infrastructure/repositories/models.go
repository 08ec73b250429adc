package rosterdb

import (
	"time"

	"github.com/google/uuid"
	"github.com/uptrace/bun"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
)

// Competition is one fantasy contest around a single race.
type Competition struct {
	bun.BaseModel `bun:"table:competitions,alias:c"`

	ID        uuid.UUID `bun:"id,pk,type:uuid"`
	Name      string    `bun:"name,notnull"`
	SalaryCap int64     `bun:"salary_cap,notnull"`
	CreatedAt time.Time `bun:"created_at,nullzero,notnull,default:current_timestamp"`
}

// Competitor is one row of a competition's price list.
type Competitor struct {
	bun.BaseModel `bun:"table:competitors,alias:cp"`

	CompetitionID       uuid.UUID `bun:"competition_id,pk,type:uuid"`
	ID                  string    `bun:"id,pk"`
	DisplayName         string    `bun:"display_name,notnull"`
	CountryCode         string    `bun:"country_code"`
	Gender              string    `bun:"gender,notnull"`
	PersonalBestSeconds float64   `bun:"personal_best_seconds"`
	MarathonRank        *int      `bun:"marathon_rank"`
	Price               int64     `bun:"price,notnull"`
	UpdatedAt           time.Time `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// Roster is the stored form of a manager's six-slot roster.
type Roster struct {
	bun.BaseModel `bun:"table:rosters,alias:r"`

	ID            uuid.UUID                 `bun:"id,pk,type:uuid"`
	CompetitionID uuid.UUID                 `bun:"competition_id,type:uuid,notnull"`
	OwnerID       string                    `bun:"owner_id,notnull"`
	Status        string                    `bun:"status,notnull"`
	Slots         []rosterdomain.RosterSlot `bun:"slots,type:jsonb,notnull"`
	SubmittedAt   *time.Time                `bun:"submitted_at"`
	CreatedAt     time.Time                 `bun:"created_at,nullzero,notnull,default:current_timestamp"`
	UpdatedAt     time.Time                 `bun:"updated_at,nullzero,notnull,default:current_timestamp"`
}

// ToDomain converts the stored competitor to the engine's reference record.
func (c Competitor) ToDomain() rosterdomain.Competitor {
	return rosterdomain.Competitor{
		ID:                  c.ID,
		DisplayName:         c.DisplayName,
		CountryCode:         c.CountryCode,
		Gender:              rosterdomain.Gender(c.Gender),
		PersonalBestSeconds: c.PersonalBestSeconds,
		MarathonRank:        c.MarathonRank,
		Price:               rosterdomain.Money(c.Price),
	}
}

// CompetitorFromDomain builds a storable price-list row.
func CompetitorFromDomain(competitionID uuid.UUID, c rosterdomain.Competitor) Competitor {
	return Competitor{
		CompetitionID:       competitionID,
		ID:                  c.ID,
		DisplayName:         c.DisplayName,
		CountryCode:         c.CountryCode,
		Gender:              string(c.Gender),
		PersonalBestSeconds: c.PersonalBestSeconds,
		MarathonRank:        c.MarathonRank,
		Price:               int64(c.Price),
	}
}

// PriceList indexes competitors by ID.
func PriceList(competitors []Competitor) rosterdomain.PriceList {
	out := make(rosterdomain.PriceList, len(competitors))
	for _, c := range competitors {
		out[c.ID] = c.ToDomain()
	}
	return out
}

// Domain rebuilds the six-slot roster from the stored slot list.
func (r Roster) Domain() (rosterdomain.Roster, error) {
	return rosterdomain.NewRoster(r.Slots)
}
