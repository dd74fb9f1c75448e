package cmd

import (
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

var reconcileCmd = &cobra.Command{
	Use:   "reconcile",
	Short: "Match claimed faces against detected faces offline",
	Long: `Reads a submission (claimed faces) and a list of detected faces from files
and prints the reconciled rows. No AWS service is called.

The submission file uses the queue message format:
  {"Bucket": "...", "Key": "...", "ExternalImageId": "...", "CollectionId": "...",
   "Faces": [{"UserId": "...", "FaceId": "...", "ImageId": "...",
              "BoundingBoxes": {"Left": 0.1, "Top": 0.1, "Width": 0.2, "Height": 0.2}}]}

The detections file is a JSON array:
  [{"FaceId": "...", "ImageId": "...",
    "BoundingBox": {"Left": 0.1, "Top": 0.1, "Width": 0.2, "Height": 0.2}}]`,
	RunE: runReconcile,
}

func init() {
	rootCmd.AddCommand(reconcileCmd)

	reconcileCmd.Flags().String("claims", "", "Submission JSON file (required)")
	reconcileCmd.Flags().String("detections", "", "Detected faces JSON file (required)")
	reconcileCmd.Flags().Float64("threshold", facematch.DefaultIoUThreshold, "IoU threshold for a match, in [0, 1)")
	_ = reconcileCmd.MarkFlagRequired("claims")
	_ = reconcileCmd.MarkFlagRequired("detections")
}

func readJSONFile(path string, v any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("reading %s: %w", path, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("parsing %s: %w", path, err)
	}
	return nil
}

func runReconcile(cmd *cobra.Command, args []string) error {
	threshold := mustGetFloat64(cmd, "threshold")
	if threshold < 0 || threshold >= 1 {
		return fmt.Errorf("--threshold must be in [0, 1), got %v", threshold)
	}

	var sub facematch.Submission
	if err := readJSONFile(mustGetString(cmd, "claims"), &sub); err != nil {
		return err
	}
	var detections []facematch.DetectedFace
	if err := readJSONFile(mustGetString(cmd, "detections"), &detections); err != nil {
		return err
	}

	results, err := facematch.NewEngine(threshold).Reconcile(sub.Faces, detections)
	if err != nil {
		var rej *facematch.RejectionError
		if errors.As(err, &rej) {
			return fmt.Errorf("submission rejected (%s): %w", rej.Kind, err)
		}
		return err
	}

	return outputJSON(facematch.NewResultBatch(sub.RequestContext, results))
}
