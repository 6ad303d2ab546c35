package cli

import (
	"context"
	"fmt"
	"time"

	"quiz-player/internal/config"
	"quiz-player/internal/infra/postgres"
	"github.com/jackc/pgx/v4/pgxpool"
	"github.com/spf13/cobra"
)

// NewHistoryCmd lists archived session results.
func NewHistoryCmd(configPath *string) *cobra.Command {
	var limit int
	cmd := &cobra.Command{
		Use:   "history",
		Short: "List archived session results",
		RunE: func(cmd *cobra.Command, args []string) error {
			return runHistory(cmd.Context(), *configPath, limit, cmd)
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 10, "maximum results to list")
	return cmd
}

func runHistory(ctx context.Context, configPath string, limit int, cmd *cobra.Command) error {
	cfg, err := config.Load(configPath)
	if err != nil {
		return err
	}
	if cfg.Postgres.URL == "" {
		return fmt.Errorf("postgres url not configured")
	}

	pool, err := pgxpool.Connect(ctx, cfg.Postgres.URL)
	if err != nil {
		return err
	}
	defer pool.Close()

	results, err := postgres.NewResultArchive(pool).Recent(ctx, limit)
	if err != nil {
		return err
	}

	out := cmd.OutOrStdout()
	if len(results) == 0 {
		fmt.Fprintln(out, "No archived results.")
		return nil
	}
	for _, r := range results {
		confirmed := ""
		if !r.Confirmed {
			confirmed = " (unconfirmed)"
		}
		fmt.Fprintf(out, "%s  quiz=%s  %d pts  %d/%d correct  %ds%s\n",
			r.FinishedAt.Format(time.RFC3339), r.QuizID, r.Points,
			r.Correct, r.Correct+r.Wrong, r.ElapsedSeconds, confirmed)
	}
	return nil
}
