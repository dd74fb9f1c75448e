package metrics

import (
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

func TestObserveOutcome(t *testing.T) {
	m := New()
	yes, no := true, false
	box := facematch.BoundingBox{Left: 0.1, Top: 0.1, Width: 0.1, Height: 0.1}

	m.ObserveOutcome(facematch.Matched([]facematch.MatchResult{
		{BoundingBox: &box, IsNewFace: &no},
		{BoundingBox: &box, IsNewFace: &yes},
		{FaceID: facematch.NotReindexed},
	}))
	m.ObserveOutcome(facematch.Outcome{Status: facematch.StatusRejected, Kind: facematch.NoDetectionsReturned})
	// Redelivery of an undelivered batch must not count its rows twice.
	m.ObserveOutcome(facematch.Undelivered([]facematch.MatchResult{{BoundingBox: &box, IsNewFace: &no}}, nil))

	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("matched", "")); got != 1 {
		t.Errorf("matched outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("rejected", "no_detections_returned")); got != 1 {
		t.Errorf("rejected outcomes = %v, want 1", got)
	}
	if got := testutil.ToFloat64(m.outcomes.WithLabelValues("undelivered", "")); got != 1 {
		t.Errorf("undelivered outcomes = %v, want 1", got)
	}
	for _, typ := range []string{"matched", "new_face", "not_reindexed"} {
		if got := testutil.ToFloat64(m.rows.WithLabelValues(typ)); got != 1 {
			t.Errorf("%s rows = %v, want 1", typ, got)
		}
	}
}

func TestNilMetrics(t *testing.T) {
	var m *Metrics
	m.ObserveOutcome(facematch.Matched(nil))
	m.ObserveDetect(time.Second)
}

func TestHandler(t *testing.T) {
	m := New()
	m.ObserveDetect(150 * time.Millisecond)

	rec := httptest.NewRecorder()
	m.Handler().ServeHTTP(rec, httptest.NewRequest(http.MethodGet, "/metrics", nil))

	if rec.Code != http.StatusOK {
		t.Fatalf("expected 200, got %d", rec.Code)
	}
	if !strings.Contains(rec.Body.String(), "face_reindex_detect_seconds") {
		t.Error("expected histogram in output")
	}
}
