package rostermigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating competitions, competitors and rosters tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competitions (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					name VARCHAR(200) NOT NULL,
					salary_cap BIGINT NOT NULL CHECK (salary_cap >= 0),
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create competitions table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competitors (
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					id VARCHAR(64) NOT NULL,
					display_name VARCHAR(200) NOT NULL,
					country_code VARCHAR(3),
					gender CHAR(1) NOT NULL CHECK (gender IN ('M', 'W')),
					personal_best_seconds DOUBLE PRECISION,
					marathon_rank INTEGER,
					price BIGINT NOT NULL CHECK (price >= 0),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create competitors table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS rosters (
					id UUID PRIMARY KEY DEFAULT gen_random_uuid(),
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					owner_id VARCHAR(128) NOT NULL,
					status VARCHAR(16) NOT NULL CHECK (status IN ('draft', 'submitted', 'editing')),
					slots JSONB NOT NULL,
					submitted_at TIMESTAMPTZ,
					created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					UNIQUE (competition_id, owner_id)
				);
				CREATE INDEX IF NOT EXISTS idx_rosters_competition_status ON rosters(competition_id, status);
			`); err != nil {
				return fmt.Errorf("failed to create rosters table: %w", err)
			}

			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping rosters, competitors and competitions tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS rosters;
				DROP TABLE IF EXISTS competitors;
				DROP TABLE IF EXISTS competitions;
			`); err != nil {
				return fmt.Errorf("failed to drop roster tables: %w", err)
			}
			return nil
		})
	})
}
