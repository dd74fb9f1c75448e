package reindex

import (
	"context"

	"github.com/kozaktomas/face-reindex/internal/database"
	"github.com/kozaktomas/face-reindex/internal/facematch"
	"github.com/kozaktomas/face-reindex/internal/logging"
	"github.com/kozaktomas/face-reindex/internal/queue"
	"github.com/sirupsen/logrus"
)

// Worker consumes submissions from the reindex queue.
type Worker struct {
	poller    *queue.Poller
	processor *Processor
}

// NewWorker creates a worker reading from poller.
func NewWorker(poller *queue.Poller, processor *Processor) *Worker {
	return &Worker{poller: poller, processor: processor}
}

// Run polls until ctx is cancelled.
func (w *Worker) Run(ctx context.Context) error {
	return w.poller.Run(ctx, w.processor.Handler())
}

// QueueSink forwards result batches to the results queue.
type QueueSink struct {
	Client       *queue.Client
	QueueURL     string
	DelaySeconds int
}

// Deliver sends the batch as one message.
func (s *QueueSink) Deliver(ctx context.Context, rc facematch.RequestContext, results []facematch.MatchResult) error {
	return s.Client.Send(ctx, s.QueueURL, facematch.NewResultBatch(rc, results), s.DelaySeconds)
}

// Handler returns a queue handler that decodes submissions and processes them.
// Malformed bodies and rejected submissions are dropped; provider and sink
// failures keep the message for redelivery.
func (p *Processor) Handler() queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		log := logging.WithCorrelation(p.log, msg.ID)

		var sub facematch.Submission
		if err := msg.Decode(&sub); err != nil {
			log.WithError(err).Error("Dropping malformed submission")
			return nil
		}

		_, err := p.process(ctx, sub, log)
		return err
	}
}

// PersistHandler returns a queue handler that writes result batches.
func PersistHandler(w database.ResultWriter, log logrus.FieldLogger) queue.Handler {
	return func(ctx context.Context, msg queue.Message) error {
		log := logging.WithCorrelation(log, msg.ID)

		var batch facematch.ResultBatch
		if err := msg.Decode(&batch); err != nil {
			log.WithError(err).Error("Dropping malformed result batch")
			return nil
		}
		if err := w.SaveResults(ctx, batch); err != nil {
			log.WithError(err).Error("Failed to persist results")
			return err
		}
		log.WithFields(logrus.Fields{
			"external_image_id": batch.ExternalImageID,
			"rows":              len(batch.Faces),
		}).Info("Persisted results")
		return nil
	}
}
