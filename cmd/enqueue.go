package cmd

import (
	"fmt"
	"os"

	"github.com/schollz/progressbar/v3"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/queue"
	"github.com/kozaktomas/face-reindex/internal/validation"
)

var enqueueCmd = &cobra.Command{
	Use:   "enqueue [file]",
	Short: "Send the items of a manifest to a queue",
	Long: `Reads a JSON manifest, either {"Items": [...]} or a single item, and sends
every item as its own message with a one second delay.

By default items go to the validation queue; --target reindex skips validation.`,
	Args: cobra.ExactArgs(1),
	RunE: runEnqueue,
}

func init() {
	rootCmd.AddCommand(enqueueCmd)

	enqueueCmd.Flags().String("target", "validation", "Destination queue: validation or reindex")
	enqueueCmd.Flags().Bool("json", false, "Output a JSON summary instead of a progress bar")
}

func runEnqueue(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	var queueURL string
	switch target := mustGetString(cmd, "target"); target {
	case "validation":
		queueURL = a.cfg.Queues.ValidationURL
	case "reindex":
		queueURL = a.cfg.Queues.ReindexURL
	default:
		return fmt.Errorf("unknown --target %q (want validation or reindex)", target)
	}
	if queueURL == "" {
		return fmt.Errorf("queue URL for --target %s is not configured", mustGetString(cmd, "target"))
	}

	data, err := os.ReadFile(args[0])
	if err != nil {
		return fmt.Errorf("reading manifest: %w", err)
	}
	items, err := validation.ParseItems(data)
	if err != nil {
		return err
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	client := queue.NewFromSession(sess)

	jsonOutput := mustGetBool(cmd, "json")
	var bar *progressbar.ProgressBar
	if !jsonOutput {
		bar = progressbar.NewOptions(len(items),
			progressbar.OptionSetDescription("Enqueueing"),
			progressbar.OptionShowCount(),
			progressbar.OptionShowIts(),
			progressbar.OptionSetItsString("items"),
			progressbar.OptionShowElapsedTimeOnFinish(),
			progressbar.OptionFullWidth(),
		)
	}

	ctx, cancel := signalContext()
	defer cancel()

	sent := 0
	for _, item := range items {
		if err := client.Send(ctx, queueURL, item, a.cfg.Queues.ReindexDelaySeconds); err != nil {
			return fmt.Errorf("after %d of %d items: %w", sent, len(items), err)
		}
		sent++
		if bar != nil {
			_ = bar.Add(1)
		}
	}

	if jsonOutput {
		return outputJSON(map[string]any{"queue": queueURL, "sent": sent})
	}
	fmt.Printf("\nSent %d items to %s\n", sent, queueURL)
	return nil
}
