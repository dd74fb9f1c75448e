// Package reindex runs submissions through detection, reconciliation and delivery.
package reindex

import (
	"context"
	"fmt"
	"time"

	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/metrics"
	"github.com/sirupsen/logrus"
)

// Processor handles one submission end to end.
type Processor struct {
	engine   *facematch.Engine
	provider facematch.DetectionProvider
	sink     facematch.ResultSink
	metrics  *metrics.Metrics
	log      logrus.FieldLogger
}

// NewProcessor creates a processor. sink and m may be nil.
func NewProcessor(engine *facematch.Engine, provider facematch.DetectionProvider, sink facematch.ResultSink, m *metrics.Metrics, log logrus.FieldLogger) *Processor {
	if engine == nil {
		engine = facematch.DefaultEngine()
	}
	return &Processor{engine: engine, provider: provider, sink: sink, metrics: m, log: log}
}

// Process validates the claims, detects faces, reconciles and delivers the rows.
//
// Rejections are reported in the Outcome with a nil error. The error is non-nil only
// when the provider or the sink failed, in which case the submission should be retried.
func (p *Processor) Process(ctx context.Context, sub facematch.Submission) (facematch.Outcome, error) {
	return p.process(ctx, sub, p.log)
}

func (p *Processor) process(ctx context.Context, sub facematch.Submission, log logrus.FieldLogger) (facematch.Outcome, error) {
	log = log.WithFields(logrus.Fields{
		"bucket":            sub.Bucket,
		"key":               sub.Key,
		"external_image_id": sub.ExternalImageID,
		"claims":            len(sub.Faces),
	})

	// Reject before paying for a detection call.
	if err := facematch.ValidateClaims(sub.Faces); err != nil {
		return p.finish(log, facematch.Rejected(err)), nil
	}

	start := time.Now()
	detections, err := p.provider.Detect(ctx, sub.RequestContext)
	p.metrics.ObserveDetect(time.Since(start))
	if err != nil {
		rej := &facematch.RejectionError{Kind: facematch.ProviderFailure, ClaimIndex: -1, Err: err}
		return p.finish(log, facematch.Rejected(rej)), rej
	}
	log = log.WithField("detections", len(detections))

	results, err := p.engine.Reconcile(sub.Faces, detections)
	if err != nil {
		return p.finish(log, facematch.Rejected(err)), nil
	}

	if p.sink != nil {
		if err := p.sink.Deliver(ctx, sub.RequestContext, results); err != nil {
			o := p.finish(log, facematch.Undelivered(results, fmt.Errorf("delivering results: %w", err)))
			return o, o.Err
		}
	}
	return p.finish(log, facematch.Matched(results)), nil
}

func (p *Processor) finish(log logrus.FieldLogger, o facematch.Outcome) facematch.Outcome {
	p.metrics.ObserveOutcome(o)
	switch o.Status {
	case facematch.StatusMatched:
		log.WithField("rows", len(o.Results)).Info("Reconciled faces")
	case facematch.StatusUndelivered:
		log.WithField("rows", len(o.Results)).WithError(o.Err).Error("Failed to deliver results")
	default:
		log.WithField("kind", o.Kind).WithError(o.Err).Warn("Submission rejected")
	}
	return o
}
