package cmd

import (
	"os"

	"github.com/aws/aws-sdk-go/service/firehose"
	"github.com/aws/aws-sdk-go/service/s3"
	"github.com/sirupsen/logrus"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/queue"
	"github.com/kozaktomas/face-reindex/internal/validation"
)

var validateCmd = &cobra.Command{
	Use:   "validate",
	Short: "Run the validation worker",
	Long: `Polls the validation queue, checks every item's schema and that its image
exists in S3, forwards valid items to the reindex queue and writes invalid ones
with a reason to the Firehose delivery stream.

With --file the items of a local manifest are validated once instead.`,
	RunE: runValidate,
}

func init() {
	rootCmd.AddCommand(validateCmd)

	validateCmd.Flags().String("file", "", "Validate the items of this JSON file once and exit")
	validateCmd.Flags().Int("workers", 4, "Messages processed concurrently (overrides REINDEX_WORKERS)")
}

func runValidate(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := config.Require(
		"REINDEX_QUEUE_URL", a.cfg.Queues.ReindexURL,
		"FIREHOSE_STREAM", a.cfg.Validation.FirehoseStream,
	); err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	client := queue.NewFromSession(sess)
	stage := validation.NewStage(validation.StageOptions{
		Objects:      validation.NewObjectChecker(s3.New(sess)),
		Reporter:     validation.NewFailureReporter(firehose.New(sess), a.cfg.Validation.FirehoseStream),
		Queue:        client,
		ReindexURL:   a.cfg.Queues.ReindexURL,
		DelaySeconds: a.cfg.Queues.ReindexDelaySeconds,
	}, a.log)

	ctx, cancel := signalContext()
	defer cancel()

	if path := mustGetString(cmd, "file"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return err
		}
		items, err := validation.ParseItems(data)
		if err != nil {
			return err
		}
		report, err := stage.ProcessItems(ctx, items)
		if err != nil {
			return err
		}
		a.log.WithFields(logrus.Fields{"passed": len(report.Passed), "failed": len(report.Failed)}).Info("Validation finished")
		return nil
	}

	if err := config.Require("VALIDATION_QUEUE_URL", a.cfg.Queues.ValidationURL); err != nil {
		return err
	}
	poller := queue.NewPoller(client, a.cfg.Queues.ValidationURL, queue.PollerOptions{
		MaxMessages: a.cfg.Queues.MaxMessages,
		WaitSeconds: a.cfg.Queues.WaitTimeSeconds,
		Workers:     intFlagOr(cmd, "workers", a.cfg.Queues.Workers),
	}, a.log)
	return poller.Run(ctx, stage.Handler())
}
