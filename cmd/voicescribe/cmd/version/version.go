package version

import (
	"fmt"

	"github.com/spf13/cobra"

	"voicescribe/internal/app"
)

// Cmd represents the version command
var Cmd = &cobra.Command{
	Use:   "version",
	Short: "Print the version number of voicescribe",
	RunE: func(cmd *cobra.Command, args []string) error {
		fmt.Fprintln(cmd.OutOrStdout(), app.Version)
		return nil
	},
}
