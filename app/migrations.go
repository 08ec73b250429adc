package app

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"

	lockmigrations "github.com/Black-And-White-Club/marathon-draft/app/modules/lock/infrastructure/repositories/migrations"
	rostermigrations "github.com/Black-And-White-Club/marathon-draft/app/modules/roster/infrastructure/repositories/migrations"
	scoringmigrations "github.com/Black-And-White-Club/marathon-draft/app/modules/scoring/infrastructure/repositories/migrations"
)

// ModuleMigrator pairs a module with its migrator. Each module keeps its own
// bookkeeping tables so module migrations version independently.
type ModuleMigrator struct {
	Name     string
	Migrator *migrate.Migrator
}

// Migrators returns every module's migrator in dependency order: later
// modules reference earlier tables.
func Migrators(db *bun.DB) []ModuleMigrator {
	newMigrator := func(name string, m *migrate.Migrations) ModuleMigrator {
		return ModuleMigrator{
			Name: name,
			Migrator: migrate.NewMigrator(db, m,
				migrate.WithTableName(name+"_migrations"),
				migrate.WithLocksTableName(name+"_migration_locks"),
			),
		}
	}
	return []ModuleMigrator{
		newMigrator("roster", rostermigrations.Migrations),
		newMigrator("lock", lockmigrations.Migrations),
		newMigrator("scoring", scoringmigrations.Migrations),
	}
}

// MigrateAll initializes and applies every module's migrations.
func MigrateAll(ctx context.Context, db *bun.DB) error {
	for _, m := range Migrators(db) {
		if err := m.Migrator.Init(ctx); err != nil {
			return fmt.Errorf("init %s migrations: %w", m.Name, err)
		}
		if err := m.Migrator.Lock(ctx); err != nil {
			return fmt.Errorf("lock %s migrations: %w", m.Name, err)
		}
		_, err := m.Migrator.Migrate(ctx)
		_ = m.Migrator.Unlock(ctx)
		if err != nil {
			return fmt.Errorf("migrate %s: %w", m.Name, err)
		}
	}
	return nil
}
