package cmd

import (
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/config"
	"github.com/kozaktomas/face-reindex/internal/scaling"
)

var concurrencyCmd = &cobra.Command{
	Use:   "concurrency",
	Short: "Raise the maximum concurrency of the reindex function's queue triggers",
	Long: `Raises ScalingConfig.MaximumConcurrency of every event source mapping of
FUNCTION_NAME by one step, capped at MAX_CONCURRENCY_LIMIT, and prints which
mappings were updated or skipped.`,
	RunE: runConcurrency,
}

func init() {
	rootCmd.AddCommand(concurrencyCmd)

	concurrencyCmd.Flags().Int("step", 50, "Increase per run (overrides CONCURRENCY_STEP)")
	concurrencyCmd.Flags().Int("limit", 1000, "Upper bound (overrides MAX_CONCURRENCY_LIMIT)")
}

func runConcurrency(cmd *cobra.Command, args []string) error {
	a, err := newApp()
	if err != nil {
		return err
	}
	if err := config.Require("FUNCTION_NAME", a.cfg.Scaling.FunctionName); err != nil {
		return err
	}
	sess, err := a.session()
	if err != nil {
		return err
	}

	updater, err := scaling.NewUpdater(lambda.New(sess), a.cfg.Scaling.FunctionName,
		intFlagOr(cmd, "limit", a.cfg.Scaling.MaxConcurrencyLimit),
		intFlagOr(cmd, "step", a.cfg.Scaling.ConcurrencyStep),
		a.log)
	if err != nil {
		return err
	}

	report, err := updater.Update(cmd.Context())
	if err != nil {
		return err
	}
	return outputJSON(report)
}
