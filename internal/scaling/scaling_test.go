package scaling

import (
	"context"
	"errors"
	"testing"

	"github.com/aws/aws-sdk-go/aws"
	"github.com/aws/aws-sdk-go/aws/request"
	"github.com/aws/aws-sdk-go/service/lambda"
	"github.com/aws/aws-sdk-go/service/lambda/lambdaiface"

	"github.com/kozaktomas/face-reindex/internal/logging"
)

type fakeLambda struct {
	lambdaiface.LambdaAPI
	pages     [][]*lambda.EventSourceMappingConfiguration
	updates   []*lambda.UpdateEventSourceMappingInput
	listErr   error
	updateErr error
}

func (f *fakeLambda) ListEventSourceMappingsPagesWithContext(ctx aws.Context, in *lambda.ListEventSourceMappingsInput, fn func(*lambda.ListEventSourceMappingsOutput, bool) bool, opts ...request.Option) error {
	if f.listErr != nil {
		return f.listErr
	}
	for i, p := range f.pages {
		if !fn(&lambda.ListEventSourceMappingsOutput{EventSourceMappings: p}, i == len(f.pages)-1) {
			break
		}
	}
	return nil
}

func (f *fakeLambda) UpdateEventSourceMappingWithContext(ctx aws.Context, in *lambda.UpdateEventSourceMappingInput, opts ...request.Option) (*lambda.EventSourceMappingConfiguration, error) {
	if f.updateErr != nil {
		return nil, f.updateErr
	}
	f.updates = append(f.updates, in)
	return &lambda.EventSourceMappingConfiguration{UUID: in.UUID, ScalingConfig: in.ScalingConfig}, nil
}

func mapping(id string, max *int64) *lambda.EventSourceMappingConfiguration {
	m := &lambda.EventSourceMappingConfiguration{UUID: aws.String(id)}
	if max != nil {
		m.ScalingConfig = &lambda.ScalingConfig{MaximumConcurrency: max}
	}
	return m
}

func TestNext(t *testing.T) {
	tests := []struct {
		name     string
		current  *int64
		expected int64
	}{
		{name: "unset counts as zero", current: nil, expected: 50},
		{name: "one step", current: aws.Int64(100), expected: 150},
		{name: "capped at limit", current: aws.Int64(980), expected: 1000},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := Next(tt.current, 50, 1000); got != tt.expected {
				t.Errorf("Next() = %d, want %d", got, tt.expected)
			}
		})
	}
}

func TestNewUpdater_Invalid(t *testing.T) {
	if _, err := NewUpdater(&fakeLambda{}, "", 1000, 50, logging.Discard()); err == nil {
		t.Error("expected error for empty function name")
	}
	if _, err := NewUpdater(&fakeLambda{}, "fn", 0, 50, logging.Discard()); err == nil {
		t.Error("expected error for zero limit")
	}
}

func TestUpdate(t *testing.T) {
	fake := &fakeLambda{pages: [][]*lambda.EventSourceMappingConfiguration{
		{mapping("a", nil), mapping("b", aws.Int64(100))},
		{mapping("c", aws.Int64(1000)), mapping("d", aws.Int64(990))},
	}}
	u, err := NewUpdater(fake, "reindex-fn", 1000, 50, logging.Discard())
	if err != nil {
		t.Fatalf("NewUpdater: %v", err)
	}

	report, err := u.Update(context.Background())
	if err != nil {
		t.Fatalf("Update: %v", err)
	}

	want := []UpdatedMapping{{"a", 50}, {"b", 150}, {"d", 1000}}
	if len(report.Updated) != len(want) {
		t.Fatalf("updated %d mappings, want %d", len(report.Updated), len(want))
	}
	for i, w := range want {
		if report.Updated[i] != w {
			t.Errorf("updated[%d] = %+v, want %+v", i, report.Updated[i], w)
		}
	}
	if len(report.Skipped) != 1 || report.Skipped[0].UUID != "c" || report.Skipped[0].CurrentMaxConcurrency != 1000 {
		t.Errorf("unexpected skipped mappings: %+v", report.Skipped)
	}
	for _, in := range fake.updates {
		if aws.StringValue(in.FunctionName) != "reindex-fn" {
			t.Errorf("unexpected function name %q", aws.StringValue(in.FunctionName))
		}
	}
}

func TestUpdate_Errors(t *testing.T) {
	fake := &fakeLambda{listErr: errors.New("denied")}
	u, _ := NewUpdater(fake, "fn", 1000, 50, logging.Discard())
	if _, err := u.Update(context.Background()); !errors.Is(err, fake.listErr) {
		t.Errorf("expected list error, got %v", err)
	}

	fake = &fakeLambda{
		pages:     [][]*lambda.EventSourceMappingConfiguration{{mapping("a", nil)}},
		updateErr: errors.New("conflict"),
	}
	u, _ = NewUpdater(fake, "fn", 1000, 50, logging.Discard())
	if _, err := u.Update(context.Background()); !errors.Is(err, fake.updateErr) {
		t.Errorf("expected update error, got %v", err)
	}
}
