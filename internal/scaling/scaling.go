// Package scaling raises the maximum concurrency of a function's queue triggers.
package scaling

import (
	"context"
	"errors"
	"fmt"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"
	"github.com/sirupsen/logrus"
)

// UpdatedMapping is a mapping whose concurrency was raised.
type UpdatedMapping struct {
	UUID              string `json:"UUID"`
	NewMaxConcurrency int64  `json:"new_max_concurrency"`
}

// SkippedMapping is a mapping already at or above the limit.
type SkippedMapping struct {
	UUID                  string `json:"UUID"`
	CurrentMaxConcurrency int64  `json:"current_max_concurrency"`
}

// Report lists what one Update call changed.
type Report struct {
	Updated []UpdatedMapping `json:"updated_mappings"`
	Skipped []SkippedMapping `json:"skipped_mappings"`
}

// Updater steps up MaximumConcurrency on every event source mapping of a function.
type Updater struct {
	api      lambdaiface.LambdaAPI
	function string
	limit    int64
	step     int64
	log      logrus.FieldLogger
}

// NewUpdater creates an updater. step and limit must be positive.
func NewUpdater(api lambdaiface.LambdaAPI, function string, limit, step int, log logrus.FieldLogger) (*Updater, error) {
	if function == "" {
		return nil, errors.New("function name is required")
	}
	if limit <= 0 || step <= 0 {
		return nil, fmt.Errorf("invalid scaling parameters: limit=%d step=%d", limit, step)
	}
	return &Updater{api: api, function: function, limit: int64(limit), step: int64(step), log: log}, nil
}

// Next returns the concurrency after one step, capped at limit. A mapping without a
// configured maximum counts as zero.
func Next(current *int64, step, limit int64) int64 {
	return min(limit, aws.Int64Value(current)+step)
}

// Update raises every mapping that is below the limit.
func (u *Updater) Update(ctx context.Context) (Report, error) {
	var mappings []*lambda.EventSourceMappingConfiguration
	err := u.api.ListEventSourceMappingsPagesWithContext(ctx,
		&lambda.ListEventSourceMappingsInput{FunctionName: aws.String(u.function)},
		func(page *lambda.ListEventSourceMappingsOutput, lastPage bool) bool {
			mappings = append(mappings, page.EventSourceMappings...)
			return true
		})
	if err != nil {
		return Report{}, fmt.Errorf("listing event source mappings of %s: %w", u.function, err)
	}

	report := Report{Updated: []UpdatedMapping{}, Skipped: []SkippedMapping{}}
	for _, m := range mappings {
		id := aws.StringValue(m.UUID)
		var current *int64
		if m.ScalingConfig != nil {
			current = m.ScalingConfig.MaximumConcurrency
		}

		if current != nil && *current >= u.limit {
			report.Skipped = append(report.Skipped, SkippedMapping{UUID: id, CurrentMaxConcurrency: *current})
			continue
		}

		next := Next(current, u.step, u.limit)
		_, err := u.api.UpdateEventSourceMappingWithContext(ctx, &lambda.UpdateEventSourceMappingInput{
			UUID:          m.UUID,
			FunctionName:  aws.String(u.function),
			ScalingConfig: &lambda.ScalingConfig{MaximumConcurrency: aws.Int64(next)},
		})
		if err != nil {
			return report, fmt.Errorf("updating event source mapping %s: %w", id, err)
		}
		u.log.WithFields(logrus.Fields{"uuid": id, "max_concurrency": next}).Info("Raised maximum concurrency")
		report.Updated = append(report.Updated, UpdatedMapping{UUID: id, NewMaxConcurrency: next})
	}
	return report, nil
}
