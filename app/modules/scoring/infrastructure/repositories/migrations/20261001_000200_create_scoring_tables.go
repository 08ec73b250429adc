package scoringmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating race_results, points_breakdowns and record_confirmations tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS race_results (
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					competitor_id VARCHAR(64) NOT NULL,
					placement INTEGER CHECK (placement >= 1),
					finish_time_seconds DOUBLE PRECISION CHECK (finish_time_seconds >= 0),
					split_times JSONB,
					reported_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, competitor_id)
				);
			`); err != nil {
				return fmt.Errorf("failed to create race_results table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS points_breakdowns (
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					competitor_id VARCHAR(64) NOT NULL,
					status VARCHAR(16) NOT NULL,
					placement_points INTEGER NOT NULL DEFAULT 0,
					time_gap_points INTEGER NOT NULL DEFAULT 0,
					performance_bonuses JSONB NOT NULL DEFAULT '[]',
					record_bonuses JSONB NOT NULL DEFAULT '[]',
					total_points INTEGER NOT NULL DEFAULT 0,
					scored_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, competitor_id)
				);
				CREATE INDEX IF NOT EXISTS idx_points_breakdowns_total ON points_breakdowns(competition_id, total_points DESC);
			`); err != nil {
				return fmt.Errorf("failed to create points_breakdowns table: %w", err)
			}

			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS record_confirmations (
					competition_id UUID NOT NULL REFERENCES competitions(id) ON DELETE CASCADE,
					competitor_id VARCHAR(64) NOT NULL,
					record_type VARCHAR(32) NOT NULL,
					confirmed_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
					PRIMARY KEY (competition_id, competitor_id, record_type)
				);
			`); err != nil {
				return fmt.Errorf("failed to create record_confirmations table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping scoring tables...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				DROP TABLE IF EXISTS record_confirmations;
				DROP TABLE IF EXISTS points_breakdowns;
				DROP TABLE IF EXISTS race_results;
			`); err != nil {
				return fmt.Errorf("failed to drop scoring tables: %w", err)
			}
			return nil
		})
	})
}
