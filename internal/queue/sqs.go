// Package queue wraps the SQS operations the pipeline stages share: sending JSON
// messages, long-polling, deleting and measuring queue depth.
package queue

import (
	"context"
	"fmt"
	"strconv"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/session"
	"github.com/aws/aws-sdk-go/service/sqs"
	"github.com/aws/aws-sdk-go/service/sqs/sqsiface"
	jsoniter "github.com/json-iterator/go"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Message is a received SQS message.
type Message struct {
	ID            string
	ReceiptHandle string
	Body          string
}

// Decode unmarshals the message body into v.
func (m Message) Decode(v any) error {
	if err := json.UnmarshalFromString(m.Body, v); err != nil {
		return fmt.Errorf("decoding message %s: %w", m.ID, err)
	}
	return nil
}

// Client is a thin SQS client.
type Client struct {
	api sqsiface.SQSAPI
}

// New wraps an existing SQS API.
func New(api sqsiface.SQSAPI) *Client {
	return &Client{api: api}
}

// NewFromSession creates an SQS client from sess.
func NewFromSession(sess *session.Session) *Client {
	return New(sqs.New(sess))
}

// Send marshals body to JSON and sends it with the given delay.
func (c *Client) Send(ctx context.Context, queueURL string, body any, delaySeconds int) error {
	data, err := json.MarshalToString(body)
	if err != nil {
		return fmt.Errorf("encoding message: %w", err)
	}
	_, err = c.api.SendMessageWithContext(ctx, &sqs.SendMessageInput{
		QueueUrl:     aws.String(queueURL),
		MessageBody:  aws.String(data),
		DelaySeconds: aws.Int64(int64(delaySeconds)),
	})
	if err != nil {
		return fmt.Errorf("sending message to %s: %w", queueURL, err)
	}
	return nil
}

// Receive long-polls for up to maxMessages messages.
func (c *Client) Receive(ctx context.Context, queueURL string, maxMessages, waitSeconds int) ([]Message, error) {
	out, err := c.api.ReceiveMessageWithContext(ctx, &sqs.ReceiveMessageInput{
		QueueUrl:            aws.String(queueURL),
		MaxNumberOfMessages: aws.Int64(int64(maxMessages)),
		WaitTimeSeconds:     aws.Int64(int64(waitSeconds)),
	})
	if err != nil {
		return nil, fmt.Errorf("receiving from %s: %w", queueURL, err)
	}

	msgs := make([]Message, 0, len(out.Messages))
	for _, m := range out.Messages {
		msgs = append(msgs, Message{
			ID:            aws.StringValue(m.MessageId),
			ReceiptHandle: aws.StringValue(m.ReceiptHandle),
			Body:          aws.StringValue(m.Body),
		})
	}
	return msgs, nil
}

// Delete removes a processed message.
func (c *Client) Delete(ctx context.Context, queueURL, receiptHandle string) error {
	_, err := c.api.DeleteMessageWithContext(ctx, &sqs.DeleteMessageInput{
		QueueUrl:      aws.String(queueURL),
		ReceiptHandle: aws.String(receiptHandle),
	})
	if err != nil {
		return fmt.Errorf("deleting message from %s: %w", queueURL, err)
	}
	return nil
}

// Depth returns visible plus in-flight messages.
func (c *Client) Depth(ctx context.Context, queueURL string) (int, error) {
	out, err := c.api.GetQueueAttributesWithContext(ctx, &sqs.GetQueueAttributesInput{
		QueueUrl: aws.String(queueURL),
		AttributeNames: aws.StringSlice([]string{
			sqs.QueueAttributeNameApproximateNumberOfMessages,
			sqs.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
		}),
	})
	if err != nil {
		return 0, fmt.Errorf("reading attributes of %s: %w", queueURL, err)
	}

	total := 0
	for _, name := range []string{
		sqs.QueueAttributeNameApproximateNumberOfMessages,
		sqs.QueueAttributeNameApproximateNumberOfMessagesNotVisible,
	} {
		v, ok := out.Attributes[name]
		if !ok {
			continue
		}
		n, err := strconv.Atoi(aws.StringValue(v))
		if err != nil {
			return 0, fmt.Errorf("parsing %s of %s: %w", name, queueURL, err)
		}
		total += n
	}
	return total, nil
}

// AllEmpty reports whether every queue has no visible and no in-flight messages.
func (c *Client) AllEmpty(ctx context.Context, queueURLs ...string) (bool, error) {
	total := 0
	for _, u := range queueURLs {
		n, err := c.Depth(ctx, u)
		if err != nil {
			return false, err
		}
		total += n
	}
	return total == 0, nil
}
