// Package awssession builds the shared AWS SDK session for every service client.
package awssession

import (
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/credentials"
	"github.com/aws/aws-sdk-go/aws/session"

	"github.com/kozaktomas/face-reindex/internal/config"
)

// New creates a session. Static credentials are used when both keys are set,
// otherwise the SDK default chain applies (env, shared config, instance role).
func New(cfg config.AWSConfig) (*session.Session, error) {
	if cfg.Region == "" {
		return nil, errors.New("AWS_REGION environment variable is required")
	}

	awsCfg := &aws.Config{
		Region: aws.String(cfg.Region),
	}
	if cfg.AccessKeyID != "" && cfg.SecretAccessKey != "" {
		awsCfg.Credentials = credentials.NewStaticCredentials(cfg.AccessKeyID, cfg.SecretAccessKey, "")
	}
	if cfg.Endpoint != "" {
		awsCfg.Endpoint = aws.String(cfg.Endpoint)
		awsCfg.S3ForcePathStyle = aws.Bool(true)
	}

	sess, err := session.NewSession(awsCfg)
	if err != nil {
		return nil, fmt.Errorf("creating AWS session: %w", err)
	}
	return sess, nil
}
