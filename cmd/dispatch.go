package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/dispatch"
)

var dispatchCmd = &cobra.Command{
	Use:   "dispatch",
	Short: "Start a batch run for a manifest stored in S3",
	Long: `Starts an execution of STATE_MACHINE_ARN for a manifest object. The object is
given either with --bucket and --key or as an S3 event notification (--event).`,
	RunE: runDispatch,
}

func init() {
	rootCmd.AddCommand(dispatchCmd)

	dispatchCmd.Flags().String("bucket", "", "Manifest bucket")
	dispatchCmd.Flags().String("key", "", "Manifest key")
	dispatchCmd.Flags().String("event", "", "S3 event notification JSON file")
}

func runDispatch(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := config.Require("STATE_MACHINE_ARN", a.cfg.Dispatch.StateMachineARN); err != nil {
		return err
	}

	obj := dispatch.Object{Bucket: mustGetString(cmd, "bucket"), Key: mustGetString(cmd, "key")}
	if path := mustGetString(cmd, "event"); path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return fmt.Errorf("reading event: %w", err)
		}
		if obj, err = dispatch.FromS3Event(data); err != nil {
			return err
		}
	}
	if obj.Bucket == "" || obj.Key == "" {
		return errors.New("either --event or both --bucket and --key are required")
	}

	sess, err := a.session()
	if err != nil {
		return err
	}
	starter, err := dispatch.NewStarter(sfn.New(sess), a.cfg.Dispatch.StateMachineARN, a.cfg.Dispatch.ResultPrefix, a.log)
	if err != nil {
		return err
	}

	arn, err := starter.Start(cmd.Context(), obj.Bucket, obj.Key)
	if err != nil {
		return err
	}
	fmt.Println(arn)
	return nil
}
