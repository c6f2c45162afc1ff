package usage

import (
	"fmt"
	"io"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicescribe/internal/app"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/quota"
	"voicescribe/internal/app/repository"
	"voicescribe/internal/config"
)

var (
	userID int64
	reset  string
)

func init() {
	Cmd.Flags().Int64VarP(&userID, "user", "u", 0, "user to report on")
	Cmd.Flags().StringVar(&reset, "reset", "", "zero the open bucket of this period (daily, weekly, monthly)")

	Cmd.MarkFlagRequired("user")
}

// Cmd represents the usage command
var Cmd = &cobra.Command{
	Use:   "usage",
	Short: "Show a user's consumption against their limits",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		db, closeDB, err := app.OpenDatabase(cmd.Context(), cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer closeDB()

		common := repository.NewCommonDB(db, cfg.Database.Driver)
		base, err := app.LoadBaseLimits(cfg)
		if err != nil {
			return err
		}
		limits := quota.NewLimitsStore(repository.NewSettingsStore(common), base, cfg.LimitsCacheTTL, zap.NewNop())
		ledger := quota.NewLedger(repository.NewQuotaStore(common), repository.NewJobStore(common), limits, zap.NewNop())

		if reset != "" {
			period := model.PeriodType(reset)
			if !period.Valid() {
				return fmt.Errorf("unknown period %q, want daily, weekly or monthly", reset)
			}
			if err := ledger.ResetUsage(cmd.Context(), userID, period); err != nil {
				return err
			}
		}

		snapshot, err := ledger.UsageSnapshot(cmd.Context(), userID)
		if err != nil {
			return err
		}
		printSnapshot(cmd.OutOrStdout(), snapshot)
		return nil
	},
}

func printSnapshot(w io.Writer, s *quota.Snapshot) {
	fmt.Fprintf(w, "user %d\n", s.UserID)
	row := func(label string, u quota.Usage) {
		limit := "unlimited"
		if u.Limit != nil {
			limit = fmt.Sprint(*u.Limit)
		}
		fmt.Fprintf(w, "  %-26s %8d / %-10s %5.1f%%\n", label, u.Used, limit, u.Percent)
	}
	row("daily transcriptions", s.Daily.Transcriptions)
	row("weekly transcriptions", s.Weekly.Transcriptions)
	row("weekly audio minutes", s.Weekly.AudioMinutes)
	row("monthly audio minutes", s.Monthly.AudioMinutes)
	row("storage bytes", s.Storage)
}
