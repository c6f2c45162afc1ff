package user

import (
	"fmt"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"voicescribe/internal/api/middleware"
	"voicescribe/internal/app"
	"voicescribe/internal/app/logging"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/repository"
	"voicescribe/internal/config"
)

var (
	role     string
	tokenTTL = config.DefaultTokenTTL
)

// Cmd groups the user management commands
var Cmd = &cobra.Command{
	Use:   "user",
	Short: "Manage users",
}

var addCmd = &cobra.Command{
	Use:   "add <username>",
	Short: "Create a user and print an access token",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if role != "user" && role != model.RoleAdmin {
			return fmt.Errorf("unknown role %q", role)
		}
		cfg, err := config.Load()
		if err != nil {
			return err
		}
		if cfg.JWTSecret == "" {
			return fmt.Errorf("JWT_SECRET must be set to issue tokens")
		}

		db, closeDB, err := app.OpenDatabase(cmd.Context(), cfg, zap.NewNop())
		if err != nil {
			return err
		}
		defer closeDB()

		settings := repository.NewSettingsStore(repository.NewCommonDB(db, cfg.Database.Driver))
		u, err := settings.CreateUser(cmd.Context(), args[0], role)
		if err != nil {
			return err
		}

		auth := middleware.NewAuthenticator(cfg.JWTSecret, logging.NewHTTPLogger(false))
		token, err := auth.GenerateToken(u.ID, u.Role, tokenTTL)
		if err != nil {
			return err
		}

		out := cmd.OutOrStdout()
		fmt.Fprintf(out, "created user %d (%s, role %s)\n", u.ID, u.Username, u.Role)
		fmt.Fprintf(out, "token (valid %s):\n%s\n", tokenTTL, token)
		return nil
	},
}

func init() {
	addCmd.Flags().StringVar(&role, "role", "user", "user or admin")
	addCmd.Flags().DurationVar(&tokenTTL, "ttl", config.DefaultTokenTTL, "token lifetime")
	Cmd.AddCommand(addCmd)
}
