package cmd

import (
	"errors"
	"net/http"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/metrics"
	"github.com/kozaktomas/face-reindex/internal/queue"
	"github.com/kozaktomas/face-reindex/internal/reindex"
	"github.com/kozaktomas/face-reindex/internal/rekognition"
)

var reindexCmd = &cobra.Command{
	Use:   "reindex",
	Short: "Run the reindex worker",
	Long: `Polls the reindex queue, indexes every submitted image with Rekognition and
reconciles the detected faces with the claimed identities.

Results are sent to the results queue, or written straight to the result store
with --direct.`,
	RunE: runReindex,
}

func init() {
	rootCmd.AddCommand(reindexCmd)

	reindexCmd.Flags().Int("workers", 4, "Messages processed concurrently (overrides REINDEX_WORKERS)")
	reindexCmd.Flags().Bool("direct", false, "Write results to RESULT_STORE instead of the results queue")
	reindexCmd.Flags().String("metrics-addr", "", "Serve Prometheus metrics on this address, e.g. :9100")
}

// buildSink returns the result sink for the reindex stage.
func (a *app) buildSink(cmd *cobra.Command, sess *session.Session, client *queue.Client, direct bool) (facematch.ResultSink, error) {
	if direct {
		w, err := a.resultWriter(cmd.Context(), sess)
		if err != nil {
			return nil, err
		}
		return database.Sink{Writer: w}, nil
	}
	if err := config.Require("RESULTS_QUEUE_URL", a.cfg.Queues.ResultsURL); err != nil {
		return nil, err
	}
	return &reindex.QueueSink{
		Client:       client,
		QueueURL:     a.cfg.Queues.ResultsURL,
		DelaySeconds: a.cfg.Queues.ResultsDelaySeconds,
	}, nil
}

func (a *app) buildProcessor(sess *session.Session, sink facematch.ResultSink, m *metrics.Metrics) *reindex.Processor {
	provider := rekognition.NewFromSession(sess, a.cfg.Matching.QualityFilter, a.log)
	return reindex.NewProcessor(facematch.NewEngine(a.cfg.Matching.IoUThreshold), provider, sink, m, a.log)
}

func serveMetrics(a *app, addr string, m *metrics.Metrics) {
	if addr == "" {
		return
	}
	go func() {
		a.log.WithField("addr", addr).Info("Serving metrics")
		if err := http.ListenAndServe(addr, m.Handler()); err != nil && !errors.Is(err, http.ErrServerClosed) {
			a.log.WithError(err).Error("Metrics server stopped")
		}
	}()
}

func runReindex(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if err := config.Require("REINDEX_QUEUE_URL", a.cfg.Queues.ReindexURL); err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	client := queue.NewFromSession(sess)
	sink, err := a.buildSink(cmd, sess, client, mustGetBool(cmd, "direct"))
	if err != nil {
		return err
	}

	m := metrics.New()
	serveMetrics(a, mustGetString(cmd, "metrics-addr"), m)

	poller := queue.NewPoller(client, a.cfg.Queues.ReindexURL, queue.PollerOptions{
		MaxMessages: a.cfg.Queues.MaxMessages,
		WaitSeconds: a.cfg.Queues.WaitTimeSeconds,
		Workers:     intFlagOr(cmd, "workers", a.cfg.Queues.Workers),
	}, a.log)

	ctx, cancel := signalContext()
	defer cancel()
	return reindex.NewWorker(poller, a.buildProcessor(sess, sink, m)).Run(ctx)
}
