package cmd

import (
	"os"

	"github.com/spf13/cobra"

	"voicescribe/cmd/voicescribe/cmd/export"
	"voicescribe/cmd/voicescribe/cmd/migrate"
	"voicescribe/cmd/voicescribe/cmd/serve"
	"voicescribe/cmd/voicescribe/cmd/usage"
	"voicescribe/cmd/voicescribe/cmd/user"
	"voicescribe/cmd/voicescribe/cmd/version"
	"voicescribe/cmd/voicescribe/cmd/watch"
)

var Verbose bool

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "voicescribe",
	Short: "Transcription job service with per-user quotas",
	Long: `voicescribe accepts audio uploads, submits them to a speech-to-text provider
and tracks each job until it completes, fails or is cancelled.

- serve runs the HTTP API with the provider reconciler
- migrate, user and usage manage the database directly
- watch follows a job through the API`,
	SilenceUsage: true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		os.Exit(1)
	}
}

func init() {
	rootCmd.AddCommand(serve.Cmd)
	rootCmd.AddCommand(migrate.Cmd)
	rootCmd.AddCommand(export.Cmd)
	rootCmd.AddCommand(watch.Cmd)
	rootCmd.AddCommand(usage.Cmd)
	rootCmd.AddCommand(user.Cmd)
	rootCmd.AddCommand(version.Cmd)

	rootCmd.PersistentFlags().BoolVarP(&Verbose, "verbose", "V", false, "verbose output")
}
