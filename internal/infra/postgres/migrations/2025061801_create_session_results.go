package migrations

import (
	"context"

	"github.com/uptrace/bun"
	"github.com/uptrace/bun/migrate"
)

const createSessionResultsSQL = `
CREATE TABLE IF NOT EXISTS session_results (
    session_id      text PRIMARY KEY,
    quiz_id         text NOT NULL,
    points          integer NOT NULL DEFAULT 0,
    correct         integer NOT NULL DEFAULT 0,
    wrong           integer NOT NULL DEFAULT 0,
    elapsed_seconds integer NOT NULL DEFAULT 0,
    confirmed       boolean NOT NULL DEFAULT false,
    finished_at     timestamptz NOT NULL DEFAULT now()
);
CREATE INDEX IF NOT EXISTS session_results_finished_at_idx ON session_results (finished_at DESC);
`

var Migrations = migrate.NewMigrations()

func init() {
	Migrations.MustRegister(
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(createSessionResultsSQL)
			return err
		},
		func(ctx context.Context, db *bun.DB) error {
			_, err := db.Exec(`DROP TABLE IF EXISTS session_results`)
			return err
		},
	)
}
