package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/queue"
	"github.com/kozaktomas/face-reindex/internal/reindex"
)

var persistCmd = &cobra.Command{
	Use:   "persist",
	Short: "Run the result persistence worker",
	Long: `Polls the results queue and writes one row per reconciled face to the
result store selected by RESULT_STORE (dynamo or postgres).`,
	RunE: runPersist,
}

func init() {
	rootCmd.AddCommand(persistCmd)

	persistCmd.Flags().Int("workers", 4, "Messages processed concurrently (overrides REINDEX_WORKERS)")
}

func runPersist(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := config.Require("RESULTS_QUEUE_URL", a.cfg.Queues.ResultsURL); err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	ctx, cancel := signalContext()
	defer cancel()

	writer, err := a.resultWriter(ctx, sess)
	if err != nil {
		return err
	}

	poller := queue.NewPoller(queue.NewFromSession(sess), a.cfg.Queues.ResultsURL, queue.PollerOptions{
		MaxMessages: a.cfg.Queues.MaxMessages,
		WaitSeconds: a.cfg.Queues.WaitTimeSeconds,
		Workers:     intFlagOr(cmd, "workers", a.cfg.Queues.Workers),
	}, a.log)
	return poller.Run(ctx, reindex.PersistHandler(writer, a.log))
}
