package lockmigrations

import (
	"context"
	"fmt"

	"github.com/uptrace/bun"
)

func init() {
	Migrations.MustRegister(func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Creating competition_locks table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `
				CREATE TABLE IF NOT EXISTS competition_locks (
					competition_id UUID PRIMARY KEY REFERENCES competitions(id) ON DELETE CASCADE,
					lock_timestamp TIMESTAMPTZ,
					results_finalized BOOLEAN NOT NULL DEFAULT FALSE,
					finalized_at TIMESTAMPTZ,
					lock_job_id BIGINT,
					updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
				);
			`); err != nil {
				return fmt.Errorf("failed to create competition_locks table: %w", err)
			}
			return nil
		})
	}, func(ctx context.Context, db *bun.DB) error {
		fmt.Println("Dropping competition_locks table...")

		return db.RunInTx(ctx, nil, func(ctx context.Context, tx bun.Tx) error {
			if _, err := tx.ExecContext(ctx, `DROP TABLE IF EXISTS competition_locks;`); err != nil {
				return fmt.Errorf("failed to drop competition_locks table: %w", err)
			}
			return nil
		})
	})
}
