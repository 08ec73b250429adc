//go:build integration

package testutils

import (
	"fmt"
	"testing"

	"github.com/brianvoe/gofakeit/v7"
	"github.com/google/uuid"

	rosterdomain "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/domain"
	rosterdb "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories"
)

// SeedCompetition inserts a competition row so lock and scoring rows have
// something to reference.
func (env *TestEnvironment) SeedCompetition(t *testing.T, salaryCap int64) uuid.UUID {
	t.Helper()
	competition := &rosterdb.Competition{Name: "Integration Marathon", SalaryCap: salaryCap}
	if err := rosterdb.NewRepository(env.DB).CreateCompetition(env.Ctx, nil, competition); err != nil {
		t.Fatalf("failed to seed competition: %v", err)
	}
	return competition.ID
}

// GenerateField builds perGender competitors of each gender with
// deterministic names and prices between 2000 and 9000.
func GenerateField(seed uint64, perGender int) []rosterdomain.Competitor {
	faker := gofakeit.New(seed)
	field := make([]rosterdomain.Competitor, 0, perGender*2)
	for _, g := range []rosterdomain.Gender{rosterdomain.GenderMale, rosterdomain.GenderFemale} {
		for i := 1; i <= perGender; i++ {
			rank := i
			field = append(field, rosterdomain.Competitor{
				ID:                  fmt.Sprintf("%s%02d", g, i),
				DisplayName:         faker.Name(),
				CountryCode:         faker.CountryAbr(),
				Gender:              g,
				PersonalBestSeconds: float64(7200 + faker.IntRange(0, 900)),
				MarathonRank:        &rank,
				Price:               rosterdomain.Money(faker.IntRange(20, 90) * 100),
			})
		}
	}
	return field
}
