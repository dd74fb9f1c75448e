// Package dispatch starts a batch validation run when a manifest lands in S3.
package dispatch

import (
	"context"
	"errors"
	"fmt"
	"net/url"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/sfn"
	"github.com/aws/aws-sdk-go/service/sfn/sfniface"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"
)

var json = jsoniter.ConfigCompatibleWithStandardLibrary

// Input is the state machine execution input.
type Input struct {
	Bucket    string `json:"bucket"`
	Key       string `json:"key"`
	ResPrefix string `json:"res_prefix"`
}

// Starter starts executions of one state machine.
type Starter struct {
	api          sfniface.SFNAPI
	arn          string
	resultPrefix string
	log          logrus.FieldLogger
}

// NewStarter creates a starter for the state machine arn.
func NewStarter(api sfniface.SFNAPI, arn, resultPrefix string, log logrus.FieldLogger) (*Starter, error) {
	if arn == "" {
		return nil, errors.New("state machine ARN is required")
	}
	return &Starter{api: api, arn: arn, resultPrefix: resultPrefix, log: log}, nil
}

// Start begins an execution for the object and returns its ARN.
func (s *Starter) Start(ctx context.Context, bucket, key string) (string, error) {
	input, err := json.MarshalToString(Input{Bucket: bucket, Key: key, ResPrefix: s.resultPrefix})
	if err != nil {
		return "", fmt.Errorf("encoding execution input: %w", err)
	}
	out, err := s.api.StartExecutionWithContext(ctx, &sfn.StartExecutionInput{
		StateMachineArn: aws.String(s.arn),
		Input:           aws.String(input),
	})
	if err != nil {
		return "", fmt.Errorf("starting execution for s3://%s/%s: %w", bucket, key, err)
	}
	executionARN := aws.StringValue(out.ExecutionArn)
	s.log.WithFields(logrus.Fields{
		"bucket":    bucket,
		"key":       key,
		"execution": executionARN,
	}).Info("Execution started")
	return executionARN, nil
}

// Object identifies an S3 object named by an event record.
type Object struct {
	Bucket string
	Key    string
}

type s3Event struct {
	Records []struct {
		S3 struct {
			Bucket struct {
				Name string `json:"name"`
			} `json:"bucket"`
			Object struct {
				Key string `json:"key"`
			} `json:"object"`
		} `json:"s3"`
	} `json:"Records"`
}

// FromS3Event returns the object of the first record of an S3 notification.
// Keys arrive form-encoded and are decoded.
func FromS3Event(data []byte) (Object, error) {
	var ev s3Event
	if err := json.Unmarshal(data, &ev); err != nil {
		return Object{}, fmt.Errorf("decoding S3 event: %w", err)
	}
	if len(ev.Records) == 0 {
		return Object{}, errors.New("S3 event has no records")
	}
	rec := ev.Records[0].S3
	key, err := url.QueryUnescape(rec.Object.Key)
	if err != nil {
		return Object{}, fmt.Errorf("decoding object key %q: %w", rec.Object.Key, err)
	}
	if rec.Bucket.Name == "" || key == "" {
		return Object{}, errors.New("S3 event record is missing bucket or key")
	}
	return Object{Bucket: rec.Bucket.Name, Key: key}, nil
}
