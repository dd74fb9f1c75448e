package handlers

import (
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	jsoniter "github.com/json-iterator/go"
	"github.com/sirupsen/logrus"

	"github.com/kozaktomas/face-reindex/internal/database"
)

// ResultsHandler serves persisted reconciliation rows
type ResultsHandler struct {
	reader database.ResultReader
	log    logrus.FieldLogger
}

// NewResultsHandler creates a results handler. reader may be nil.
func NewResultsHandler(reader database.ResultReader, log logrus.FieldLogger) *ResultsHandler {
	return &ResultsHandler{reader: reader, log: log}
}

// ResultRow is one stored row in the response
type ResultRow struct {
	Bucket          string              `json:"Bucket"`
	Key             string              `json:"Key"`
	ExternalImageID string              `json:"ExternalImageId"`
	UserID          string              `json:"UserID"`
	FaceID          string              `json:"FaceId"`
	OldFaceID       string              `json:"OldFaceId"`
	OldImageID      string              `json:"OldImageId"`
	ImageID         string              `json:"ImageId"`
	BoundingBoxes   jsoniter.RawMessage `json:"BoundingBoxes"`
	IsNewFace       *bool               `json:"IsNewFace,omitempty"`
	CreatedAt       time.Time           `json:"CreatedAt"`
}

// List returns the rows stored for an external image id
func (h *ResultsHandler) List(w http.ResponseWriter, r *http.Request) {
	if h.reader == nil {
		respondError(w, http.StatusNotImplemented, "result store does not support reads")
		return
	}

	id := chi.URLParam(r, "externalImageId")
	if id == "" {
		respondError(w, http.StatusBadRequest, "externalImageId is required")
		return
	}

	rows, err := h.reader.ListResults(r.Context(), id)
	if err != nil {
		h.log.WithError(err).WithField("external_image_id", sanitizeForLog(id)).Error("Failed to list results")
		respondError(w, http.StatusInternalServerError, "failed to list results")
		return
	}
	if len(rows) == 0 {
		respondError(w, http.StatusNotFound, "no results for image")
		return
	}

	out := make([]ResultRow, 0, len(rows))
	for _, s := range rows {
		out = append(out, ResultRow{
			Bucket:          s.Bucket,
			Key:             s.Key,
			ExternalImageID: s.ExternalImageID,
			UserID:          s.UserID,
			FaceID:          s.FaceID,
			OldFaceID:       s.OldFaceID,
			OldImageID:      s.OldImageID,
			ImageID:         s.ImageID,
			BoundingBoxes:   jsoniter.RawMessage(s.BoundingBoxes),
			IsNewFace:       s.IsNewFace,
			CreatedAt:       s.CreatedAt,
		})
	}
	respondJSON(w, http.StatusOK, out)
}
