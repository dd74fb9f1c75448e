package facematch

import "context"

// DetectionProvider indexes the faces of an image and returns what it found.
// Implementations must return provider errors as errors, never as an empty slice.
type DetectionProvider interface {
	Detect(ctx context.Context, rc RequestContext) ([]DetectedFace, error)
}

// ResultSink receives reconciled rows for persistence.
type ResultSink interface {
	Deliver(ctx context.Context, rc RequestContext, results []MatchResult) error
}

// DetectionProviderFunc adapts a function to DetectionProvider.
type DetectionProviderFunc func(ctx context.Context, rc RequestContext) ([]DetectedFace, error)

// Detect calls f.
func (f DetectionProviderFunc) Detect(ctx context.Context, rc RequestContext) ([]DetectedFace, error) {
	return f(ctx, rc)
}

// StaticProvider returns a fixed set of detections. Used for offline reconciliation.
type StaticProvider []DetectedFace

// Detect returns the stored detections.
func (p StaticProvider) Detect(ctx context.Context, rc RequestContext) ([]DetectedFace, error) {
	return p, nil
}
