package migrate

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicescribe/internal/app"
	"voicescribe/internal/app/repository/migrate"
	"voicescribe/internal/config"
)

var down int

func init() {
	Cmd.Flags().IntVar(&down, "down", 0, "roll back this many migrations instead of applying")
}

// Cmd represents the migrate command
var Cmd = &cobra.Command{
	Use:   "migrate",
	Short: "Apply database migrations",
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}

		// opening the database applies pending migrations
		db, closeDB, err := app.OpenDatabase(cmd.Context(), cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer closeDB()

		if down > 0 {
			res, err := migrate.Down(db, cfg.Database.Driver, down)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "rolled back %d migration(s), schema version %d\n", down, res.Version)
			return nil
		}

		res, err := migrate.Up(db, cfg.Database.Driver)
		if err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "schema version %d (dirty=%t)\n", res.Version, res.Dirty)
		return nil
	},
}
