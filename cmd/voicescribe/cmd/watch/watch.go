package watch

import (
	"fmt"
	"os"
	"strconv"

	"github.com/spf13/cobra"

	"voicescribe/internal/api/v1/dto"
	"voicescribe/internal/app/model"
	"voicescribe/internal/app/progress"
	"voicescribe/internal/client"
)

var (
	serverURL string
	token     string
	upload    string
	noBar     bool
)

func init() {
	Cmd.Flags().StringVar(&serverURL, "server", "http://localhost:8081", "API base URL")
	Cmd.Flags().StringVar(&token, "token", os.Getenv("VOICESCRIBE_TOKEN"), "access token (default $VOICESCRIBE_TOKEN)")
	Cmd.Flags().StringVar(&upload, "upload", "", "upload this audio file, start it and watch the new job")
	Cmd.Flags().BoolVar(&noBar, "no-progress", false, "print status lines instead of a progress bar")
}

// Cmd represents the watch command
var Cmd = &cobra.Command{
	Use:   "watch [transcription-id]",
	Short: "Follow a transcription until it finishes",
	Args:  cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		api := client.New(serverURL, token)
		ctx := cmd.Context()

		var id int64
		name := ""
		switch {
		case upload != "":
			resp, err := api.Upload(ctx, upload, true)
			if err != nil {
				return err
			}
			id, name = resp.ID, resp.OriginalName
			if !resp.Started {
				return fmt.Errorf("transcription %d was created but could not be started yet", id)
			}
		case len(args) == 1:
			parsed, err := strconv.ParseInt(args[0], 10, 64)
			if err != nil {
				return fmt.Errorf("invalid transcription id %q", args[0])
			}
			id, name = parsed, "#"+args[0]
		default:
			return fmt.Errorf("pass a transcription id or --upload")
		}

		bars := progress.NewManager(progress.Config{
			Enabled: !noBar && progress.ShouldShowProgress(false),
			Writer:  cmd.ErrOrStderr(),
		})
		bar := bars.JobBar(name)

		final, err := client.NewPoller(api).Wait(ctx, id, func(j *dto.TranscriptionResponse) {
			bar.Update(string(j.Status), j.Progress)
			if noBar {
				fmt.Fprintf(cmd.OutOrStdout(), "%s %d%%\n", j.Status, j.Progress)
			}
		})
		if err != nil {
			bar.Finish("failed", false)
			bars.Wait()
			return err
		}
		bar.Finish(string(final.Status), final.Status == model.StatusCompleted)
		bars.Wait()

		switch final.Status {
		case model.StatusCompleted:
			if final.TranscriptText != nil {
				fmt.Fprintln(cmd.OutOrStdout(), *final.TranscriptText)
			}
			return nil
		case model.StatusError:
			msg := "unknown error"
			if final.ErrorMessage != nil {
				msg = *final.ErrorMessage
			}
			return fmt.Errorf("transcription %d failed: %s", id, msg)
		default:
			return fmt.Errorf("transcription %d was %s", id, final.Status)
		}
	},
}
