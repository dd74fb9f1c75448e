package validation

import (
	"context"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/firehose"
	"github.com/aws/aws-sdk-go/service/firehose/firehoseiface"
)

// Failure is an item that did not pass validation.
type Failure struct {
	Record Item   `json:"record"`
	Reason string `json:"reason"`
}

// FailureReporter writes failures to a Firehose delivery stream as
// newline-delimited JSON.
type FailureReporter struct {
	api    firehoseiface.FirehoseAPI
	stream string
}

// NewFailureReporter creates a reporter for stream.
func NewFailureReporter(api firehoseiface.FirehoseAPI, stream string) *FailureReporter {
	return &FailureReporter{api: api, stream: stream}
}

// Report puts one record per failure.
func (r *FailureReporter) Report(ctx context.Context, failures ...Failure) error {
	for _, f := range failures {
		data, err := json.Marshal(f)
		if err != nil {
			return fmt.Errorf("encoding failure record: %w", err)
		}
		_, err = r.api.PutRecordWithContext(ctx, &firehose.PutRecordInput{
			DeliveryStreamName: aws.String(r.stream),
			Record:             &firehose.Record{Data: append(data, '\n')},
		})
		if err != nil {
			return fmt.Errorf("putting failure record to %s: %w", r.stream, err)
		}
	}
	return nil
}
