package handlers

import (
	"context"
	"errors"
	"net/http"

	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// Processor runs a submission through detection and reconciliation.
type Processor interface {
	Process(ctx context.Context, sub facematch.Submission) (facematch.Outcome, error)
}

// OutcomeResponse is the JSON view of a facematch.Outcome.
type OutcomeResponse struct {
	Status  facematch.Status        `json:"status"`
	Kind    facematch.RejectionKind `json:"kind,omitempty"`
	Error   string                  `json:"error,omitempty"`
	Results []facematch.MatchResult `json:"results"`
}

func newOutcomeResponse(o facematch.Outcome) OutcomeResponse {
	resp := OutcomeResponse{Status: o.Status, Kind: o.Kind, Results: o.Results}
	if o.Err != nil {
		resp.Error = o.Err.Error()
	}
	if resp.Results == nil {
		resp.Results = []facematch.MatchResult{}
	}
	return resp
}

// ReconcileRequest carries claims and detections for an offline reconciliation.
type ReconcileRequest struct {
	Faces        []facematch.ClaimedFace  `json:"Faces"`
	Detections   []facematch.DetectedFace `json:"Detections"`
	IoUThreshold *float64                 `json:"IouThreshold,omitempty"`
}

// MatchHandler exposes the reconciliation engine and the full processor over HTTP
type MatchHandler struct {
	engine    *facematch.Engine
	processor Processor
	log       logrus.FieldLogger
}

// NewMatchHandler creates a match handler. processor may be nil when no detection
// provider is configured.
func NewMatchHandler(engine *facematch.Engine, processor Processor, log logrus.FieldLogger) *MatchHandler {
	return &MatchHandler{engine: engine, processor: processor, log: log}
}

// Reconcile matches the given claims against the given detections without calling
// any external service.
func (h *MatchHandler) Reconcile(w http.ResponseWriter, r *http.Request) {
	var req ReconcileRequest
	if err := decodeBody(w, r, &req); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	engine := h.engine
	if req.IoUThreshold != nil {
		t := *req.IoUThreshold
		if t < 0 || t >= 1 {
			respondError(w, http.StatusBadRequest, "IouThreshold must be in [0, 1)")
			return
		}
		engine = facematch.NewEngine(t)
	}

	results, err := engine.Reconcile(req.Faces, req.Detections)
	if err != nil {
		respondJSON(w, http.StatusUnprocessableEntity, newOutcomeResponse(facematch.Rejected(err)))
		return
	}
	respondJSON(w, http.StatusOK, newOutcomeResponse(facematch.Matched(results)))
}

// Reindex processes a submission synchronously: detection, reconciliation and
// delivery to the configured sink.
func (h *MatchHandler) Reindex(w http.ResponseWriter, r *http.Request) {
	if h.processor == nil {
		respondError(w, http.StatusNotImplemented, "reindexing is not configured")
		return
	}

	var sub facematch.Submission
	if err := decodeBody(w, r, &sub); err != nil {
		respondError(w, http.StatusBadRequest, errInvalidRequestBody)
		return
	}

	outcome, err := h.processor.Process(r.Context(), sub)
	switch {
	case err != nil:
		h.log.WithError(err).WithField("external_image_id", sanitizeForLog(sub.ExternalImageID)).Error("Reindex failed")
		if outcome.Status == "" {
			outcome = facematch.Rejected(err)
		}
		status := http.StatusBadGateway
		if errors.Is(err, context.DeadlineExceeded) {
			status = http.StatusGatewayTimeout
		}
		respondJSON(w, status, newOutcomeResponse(outcome))
	case !outcome.IsMatched():
		respondJSON(w, http.StatusUnprocessableEntity, newOutcomeResponse(outcome))
	default:
		respondJSON(w, http.StatusOK, newOutcomeResponse(outcome))
	}
}
