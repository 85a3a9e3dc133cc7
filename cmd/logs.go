package cmd

import (
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/jmehdipour/contact-site/internal/config"
	"github.com/jmehdipour/contact-site/internal/repository"
	"github.com/spf13/cobra"
	"go.uber.org/zap"
)

var (
	logsDate  string
	logsLimit int
)

var logsCmd = &cobra.Command{
	Use:   "logs",
	Short: "Print recent contact submissions for a day (UTC)",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load(cfgPath, envPath)
		if err != nil {
			return fmt.Errorf("load config: %w", err)
		}

		day := time.Now().UTC()
		if logsDate != "" {
			day, err = time.Parse(time.DateOnly, logsDate)
			if err != nil {
				return fmt.Errorf("parse --date: %w", err)
			}
		}

		limit := logsLimit
		if limit <= 0 {
			limit = cfg.Submissions.RecentLimit
		}

		repo, err := repository.NewFileSubmissionLog(cfg.Submissions.Dir, zap.NewNop())
		if err != nil {
			return err
		}

		entries, err := repo.Recent(cmd.Context(), day, limit)
		if errors.Is(err, repository.ErrNoLogs) {
			fmt.Fprintf(cmd.OutOrStdout(), "no logs found for %s\n", day.Format(time.DateOnly))
			return nil
		}
		if err != nil {
			return fmt.Errorf("read logs: %w", err)
		}

		enc := json.NewEncoder(cmd.OutOrStdout())
		for _, e := range entries {
			if err := enc.Encode(e); err != nil {
				return err
			}
		}
		return nil
	},
}

func init() {
	logsCmd.Flags().StringVar(&logsDate, "date", "", "day to read as YYYY-MM-DD (default: today, UTC)")
	logsCmd.Flags().IntVar(&logsLimit, "limit", 0, "max entries (default: submissions.recent_limit)")
}
