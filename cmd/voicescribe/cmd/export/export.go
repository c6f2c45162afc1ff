package export

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicescribe/internal/app"
	"voicescribe/internal/app/export"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/repository"
	"voicescribe/internal/config"
)

var userID int64
var outputFilePath string

func init() {
	Cmd.Flags().Int64VarP(&userID, "user", "u", 0, "owner whose jobs are exported")
	Cmd.Flags().StringVarP(&outputFilePath, "outputFilePath", "o", "", "set outputFilePath")

	Cmd.MarkFlagRequired("user")
	Cmd.MarkFlagRequired("outputFilePath")
}

// Cmd represents the export command
var Cmd = &cobra.Command{
	Use:   "export",
	Short: "Export a user's transcriptions to excel",
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

		jobs := repository.NewJobStore(repository.NewCommonDB(db, cfg.Database.Driver))

		var all []*model.Job
		for page := 1; ; page++ {
			batch, total, err := jobs.ListByOwner(cmd.Context(), userID, model.JobFilter{Page: page, Limit: 100})
			if err != nil {
				return err
			}
			all = append(all, batch...)
			if len(batch) == 0 || len(all) >= total {
				break
			}
		}

		if err := export.ToExcel(all, outputFilePath); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "exported %d transcription(s) to %v\n", len(all), outputFilePath)
		return nil
	},
}
