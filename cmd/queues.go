package cmd

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/queue"
)

var queuesCmd = &cobra.Command{
	Use:   "queues",
	Short: "Show the depth of the pipeline queues",
	Long: `Prints visible plus in-flight messages for the reindex and results queues
and whether both are drained. With --wait the command blocks until they are.`,
	RunE: runQueues,
}

func init() {
	rootCmd.AddCommand(queuesCmd)

	queuesCmd.Flags().Bool("json", false, "Output as JSON")
	queuesCmd.Flags().Bool("wait", false, "Block until every queue is empty")
	queuesCmd.Flags().Int("interval", 30, "Seconds between checks with --wait")
}

// QueueStatus is the output of the queues command.
type QueueStatus struct {
	Depths         map[string]int `json:"depths"`
	QueuesAreEmpty bool           `json:"queuesAreEmpty"`
}

func runQueues(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}

	urls := map[string]string{}
	if a.cfg.Queues.ReindexURL != "" {
		urls["reindex"] = a.cfg.Queues.ReindexURL
	}
	if a.cfg.Queues.ResultsURL != "" {
		urls["results"] = a.cfg.Queues.ResultsURL
	}
	if len(urls) == 0 {
		return fmt.Errorf("REINDEX_QUEUE_URL or RESULTS_QUEUE_URL environment variable is required")
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	client := queue.NewFromSession(sess)

	ctx, cancel := signalContext()
	defer cancel()

	interval := time.Duration(mustGetInt(cmd, "interval")) * time.Second
	for {
		status := QueueStatus{Depths: map[string]int{}, QueuesAreEmpty: true}
		for name, url := range urls {
			depth, err := client.Depth(ctx, url)
			if err != nil {
				return err
			}
			status.Depths[name] = depth
			if depth > 0 {
				status.QueuesAreEmpty = false
			}
		}

		if !mustGetBool(cmd, "wait") || status.QueuesAreEmpty {
			if mustGetBool(cmd, "json") {
				return outputJSON(status)
			}
			for name, depth := range status.Depths {
				fmt.Printf("%-8s %d\n", name, depth)
			}
			fmt.Printf("Empty:   %v\n", status.QueuesAreEmpty)
			return nil
		}

		a.log.WithField("depths", status.Depths).Info("Waiting for queues to drain")
		select {
		case <-ctx.Done():
			return ctx.Err()
		case <-time.After(interval):
		}
	}
}
