package main

import (
	"fmt"
	"os"

	"voicescribe/cmd/voicescribe/cmd"
	"voicescribe/internal/config"
)

// @title voicescribe API
// @version 1.0
// @description Audio transcription jobs with per-user quotas.
// @BasePath /api/v1
// @securityDefinitions.apikey BearerAuth
// @in header
// @name Authorization
// @description Type "Bearer" followed by a space and the JWT.
func main() {
	// a missing .env is fine; the environment may already be set
	if _, err := config.LoadEnv(); err != nil {
		fmt.Fprintf(os.Stderr, "Configuration warning: %v\n", err)
	}

	cmd.Execute()
}
