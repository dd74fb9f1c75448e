package cmd

import (
	"context"
	"fmt"
	"io"
	"os"
	"os/signal"
	"syscall"

	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/joho/godotenv"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/awssession"
	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/database/dynamo"
	"github.com/kozaktomas/face-reindex/internal/database/postgres"
	"github.com/kozaktomas/face-reindex/internal/logging"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

var logLevel string

var rootCmd = &cobra.Command{
	Use:   "face-reindex",
	Short: "Re-index previously tagged faces into a face collection",
	Long: `Face Reindex takes images whose faces were already tagged with identities,
indexes them again with Amazon Rekognition and maps every newly detected face
back onto the identity that was claimed for it by bounding box overlap.

It runs the validation, reindex and persistence stages as queue workers and
ships the operational helpers used to drive a batch run.`,
	SilenceUsage: true,
}

func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}

func init() {
	cobra.OnInitialize(initConfig)
	rootCmd.PersistentFlags().StringVar(&logLevel, "log-level", "", "Log level (overrides LOG_LEVEL)")
}

func initConfig() {
	// .env file is optional, don't fail if not found
	_ = godotenv.Load()
}

// app carries the configuration and logger shared by the commands.
type app struct {
	cfg     *config.Config
	log     *logrus.Logger
	closers []io.Closer
}

func newApp() (*app, error) {
	cfg := config.Load()
	if logLevel != "" {
		cfg.Log.Level = logLevel
	}
	log, err := logging.New(cfg.Log)
	if err != nil {
		return nil, err
	}
	return &app{cfg: cfg, log: log}, nil
}

// Close releases resources opened by the command, such as the PostgreSQL pool.
func (a *app) Close() {
	for _, c := range a.closers {
		if err := c.Close(); err != nil {
			a.log.WithError(err).Warn("Failed to close resource")
		}
	}
	a.closers = nil
}

func (a *app) session() (*session.Session, error) {
	return awssession.New(a.cfg.AWS)
}

// signalContext is cancelled on SIGINT or SIGTERM.
func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
}

// initResultStore registers the backend named by RESULT_STORE.
func (a *app) initResultStore(ctx context.Context, sess *session.Session) error {
	switch a.cfg.Results.Store {
	case "dynamo":
		if err := config.Require("DYNAMO_TABLE", a.cfg.Results.DynamoTable); err != nil {
			return err
		}
		return dynamo.Initialize(sess, a.cfg.Results.DynamoTable, a.log)
	case "postgres":
		if err := config.Require("DATABASE_URL", a.cfg.Database.URL); err != nil {
			return err
		}
		a.log.Info("Connecting to PostgreSQL database")
		pool, err := postgres.Initialize(ctx, &a.cfg.Database, a.log)
		if err != nil {
			return err
		}
		a.closers = append(a.closers, pool)
		return nil
	default:
		return fmt.Errorf("unknown RESULT_STORE %q (want dynamo or postgres)", a.cfg.Results.Store)
	}
}

func (a *app) resultWriter(ctx context.Context, sess *session.Session) (database.ResultWriter, error) {
	if err := a.initResultStore(ctx, sess); err != nil {
		return nil, fmt.Errorf("initializing result store: %w", err)
	}
	return database.GetResultWriter(ctx)
}

func outputJSON(data any) error {
	encoder := json.NewEncoder(os.Stdout)
	encoder.SetIndent("", "  ")
	if err := encoder.Encode(data); err != nil {
		return fmt.Errorf("encoding JSON output: %w", err)
	}
	return nil
}
