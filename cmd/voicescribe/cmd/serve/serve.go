package serve

import (
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"voicescribe/internal/app"
	"voicescribe/internal/config"
)

// Cmd represents the serve command
var Cmd = &cobra.Command{
	Use:   "serve",
	Short: "Run the HTTP API and background reconciliation",
	Long: `Run the HTTP API and background reconciliation.

Configuration comes from the environment (and .env). The selected provider
keys must be present: ASSEMBLYAI_API_KEY or OPENAI_API_KEY for transcription,
GEMINI_API_KEY or OPENAI_API_KEY for analysis.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if err := cfg.Validate(); err != nil {
			return err
		}
		if err := cfg.RequireProviderKeys(); err != nil {
			return err
		}

		ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
		defer stop()

		application, cleanup, err := app.InitializeApp(ctx, cfg)
		if err != nil {
			return err
		}
		defer cleanup()

		return application.Run(ctx)
	},
}
