package validation

import (
	"context"
	"errors"
	"fmt"

	"github.com/go-playground/validator/v10"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-reindex/internal/logging"
	"github.com/kozaktomas/face-reindex/internal/queue"
)

// Report summarizes one batch of validated items.
type Report struct {
	Passed []Item
	Failed []Failure
}

// Stage validates items, forwards the valid ones to the reindex queue and reports
// the rest to Firehose.
type Stage struct {
	validate     *validator.Validate
	objects      *ObjectChecker
	reporter     *FailureReporter
	queue        *queue.Client
	reindexURL   string
	delaySeconds int
	log          logrus.FieldLogger
}

// StageOptions wires the collaborators of a Stage.
type StageOptions struct {
	Objects      *ObjectChecker
	Reporter     *FailureReporter
	Queue        *queue.Client
	ReindexURL   string
	DelaySeconds int
}

// NewStage creates a validation stage.
func NewStage(opts StageOptions, log logrus.FieldLogger) *Stage {
	return &Stage{
		validate:     NewValidator(),
		objects:      opts.Objects,
		reporter:     opts.Reporter,
		queue:        opts.Queue,
		reindexURL:   opts.ReindexURL,
		delaySeconds: opts.DelaySeconds,
		log:          log,
	}
}

// Check returns the rejection reason for an item, or "" if it is valid.
// The S3 check only runs once the schema check passed.
func (s *Stage) Check(ctx context.Context, item Item) string {
	if reason := CheckSchema(s.validate, item); reason != "" {
		return reason
	}
	if s.objects == nil {
		return ""
	}
	return s.objects.Check(ctx, item["Bucket"].(string), item["Key"].(string))
}

// ProcessItems validates every item, sends passes to the reindex queue and failures
// to the failure stream.
func (s *Stage) ProcessItems(ctx context.Context, items []Item) (Report, error) {
	var report Report
	for _, item := range items {
		if reason := s.Check(ctx, item); reason != "" {
			report.Failed = append(report.Failed, Failure{Record: item, Reason: reason})
			continue
		}
		report.Passed = append(report.Passed, item)
	}

	for _, item := range report.Passed {
		if err := s.queue.Send(ctx, s.reindexURL, item, s.delaySeconds); err != nil {
			return report, err
		}
		s.log.WithField("external_image_id", item["ExternalImageId"]).Info("Sent valid record to reindex queue")
	}

	if len(report.Failed) > 0 {
		for _, f := range report.Failed {
			s.log.WithField("reason", f.Reason).Warn("Record failed validation")
		}
		if s.reporter == nil {
			return report, errors.New("failure stream is not configured")
		}
		if err := s.reporter.Report(ctx, report.Failed...); err != nil {
			return report, err
		}
	}
	return report, nil
}

// Handler returns a queue handler that validates the items in each message.
func (s *Stage) Handler() queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		log := logging.WithCorrelation(s.log, msg.ID)

		items, err := ParseItems([]byte(msg.Body))
		if err != nil {
			log.WithError(err).Error("Dropping malformed validation message")
			return nil
		}
		report, err := s.ProcessItems(ctx, items)
		if err != nil {
			return err
		}
		log.WithFields(logrus.Fields{
			"passed": len(report.Passed),
			"failed": len(report.Failed),
		}).Info("Validated items")
		return nil
	}
}

// ParseItems accepts either {"Items": [...]} or a single item.
func ParseItems(data []byte) ([]Item, error) {
	var raw Item
	if err := json.Unmarshal(data, &raw); err != nil {
		return nil, fmt.Errorf("decoding items: %w", err)
	}
	list, ok := raw["Items"]
	if !ok {
		return []Item{raw}, nil
	}
	arr, ok := list.([]any)
	if !ok {
		return nil, fmt.Errorf("items must be a list, got %s", typeName(list))
	}
	items := make([]Item, 0, len(arr))
	for i, el := range arr {
		item, ok := el.(map[string]any)
		if !ok {
			return nil, fmt.Errorf("item %d must be an object, got %s", i, typeName(el))
		}
		items = append(items, item)
	}
	return items, nil
}
