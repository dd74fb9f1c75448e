package cmd

import (
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/metrics"
	"github.com/kozaktomas/face-reindex/internal/web"
)

var serveCmd = &cobra.Command{
	Use:   "serve",
	Short: "Start the HTTP API",
	Long: `Start the Face Reindex HTTP API.

POST /api/v1/reconcile always works offline. POST /api/v1/reindex needs AWS
credentials and a region. GET /api/v1/results/{externalImageId} needs
RESULT_STORE=postgres.`,
	RunE: runServe,
}

func init() {
	rootCmd.AddCommand(serveCmd)

	serveCmd.Flags().Int("port", 8080, "Port to listen on (overrides WEB_PORT)")
	serveCmd.Flags().String("host", "0.0.0.0", "Host to bind to (overrides WEB_HOST)")
}

func runServe(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	defer a.Close()
	if cmd.Flags().Changed("port") {
		a.cfg.Web.Port = mustGetInt(cmd, "port")
	}
	if cmd.Flags().Changed("host") {
		a.cfg.Web.Host = mustGetString(cmd, "host")
	}

	m := metrics.New()
	deps := web.Dependencies{Metrics: m}

	if a.cfg.AWS.Region == "" {
		a.log.Warn("AWS_REGION not set, reindex endpoint disabled")
	} else {
		sess, err := a.session()
		if err != nil {
			return err
		}
		if err := a.initResultStore(cmd.Context(), sess); err != nil {
			a.log.WithError(err).Warn("Result store unavailable, reindexed rows are not persisted")
		} else {
			if w, err := database.GetResultWriter(cmd.Context()); err == nil {
				deps.Processor = a.buildProcessor(sess, database.Sink{Writer: w}, m)
			}
			if r, err := database.GetResultReader(cmd.Context()); err == nil {
				deps.Results = r
			}
		}
		if deps.Processor == nil {
			deps.Processor = a.buildProcessor(sess, nil, m)
		}
	}

	server := web.NewServer(a.cfg, deps, a.log)

	ctx, cancel := signalContext()
	defer cancel()

	return server.Run(ctx)
}
