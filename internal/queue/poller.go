package queue

import (
	"context"
	"errors"
	"time"

	"github.com/sirupsen/logrus"
	"golang.org/x/sync/errgroup"
)

// Handler processes one message. A nil error deletes the message; any other error
// leaves it on the queue for redelivery.
type Handler func(ctx context.Context, msg Message) error

// Poller long-polls one queue and hands messages to a Handler with bounded concurrency.
type Poller struct {
	client      *Client
	queueURL    string
	maxMessages int
	waitSeconds int
	workers     int
	errBackoff  time.Duration
	log         logrus.FieldLogger
}

// PollerOptions configures a Poller.
type PollerOptions struct {
	MaxMessages int
	WaitSeconds int
	Workers     int
}

// NewPoller creates a poller for queueURL.
func NewPoller(client *Client, queueURL string, opts PollerOptions, log logrus.FieldLogger) *Poller {
	if opts.MaxMessages <= 0 || opts.MaxMessages > 10 {
		opts.MaxMessages = 10
	}
	if opts.WaitSeconds < 0 || opts.WaitSeconds > 20 {
		opts.WaitSeconds = 20
	}
	if opts.Workers <= 0 {
		opts.Workers = 1
	}
	return &Poller{
		client:      client,
		queueURL:    queueURL,
		maxMessages: opts.MaxMessages,
		waitSeconds: opts.WaitSeconds,
		workers:     opts.Workers,
		errBackoff:  5 * time.Second,
		log:         log.WithField("queue", queueURL),
	}
}

// Run polls until ctx is cancelled.
func (p *Poller) Run(ctx context.Context, handle Handler) error {
	p.log.WithField("workers", p.workers).Info("Polling queue")
	for {
		if ctx.Err() != nil {
			return nil
		}
		if _, err := p.PollOnce(ctx, handle); err != nil {
			if errors.Is(err, context.Canceled) {
				return nil
			}
			p.log.WithError(err).Warn("Receive failed, backing off")
			select {
			case <-ctx.Done():
				return nil
			case <-time.After(p.errBackoff):
			}
		}
	}
}

// PollOnce receives one batch and processes it. It returns the number of messages
// that were handled and deleted.
func (p *Poller) PollOnce(ctx context.Context, handle Handler) (int, error) {
	msgs, err := p.client.Receive(ctx, p.queueURL, p.maxMessages, p.waitSeconds)
	if err != nil {
		return 0, err
	}

	done := make([]bool, len(msgs))
	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(p.workers)
	for i, msg := range msgs {
		i, msg := i, msg
		g.Go(func() error {
			log := p.log.WithField("message_id", msg.ID)
			if err := handle(gctx, msg); err != nil {
				log.WithError(err).Warn("Message left for redelivery")
				return nil
			}
			if err := p.client.Delete(gctx, p.queueURL, msg.ReceiptHandle); err != nil {
				log.WithError(err).Error("Failed to delete processed message")
				return nil
			}
			done[i] = true
			return nil
		})
	}
	_ = g.Wait()

	n := 0
	for _, ok := range done {
		if ok {
			n++
		}
	}
	return n, nil
}
