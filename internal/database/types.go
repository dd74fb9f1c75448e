package database

import (
	"encoding/json"
	"fmt"
	"time"

	"github.com/kozaktomas/face-reindex/internal/facematch"
)

// StoredResult is one persisted reconciliation row. It keeps the flat shape of the
// results table: every field is a string except the optional new-face flag.
type StoredResult struct {
	Bucket          string
	Key             string
	ExternalImageID string
	UserID          string
	FaceID          string
	OldFaceID       string
	OldImageID      string
	ImageID         string
	BoundingBoxes   string // JSON: a bounding box object or the "Not reindexed" marker
	IsNewFace       *bool  // nil for rows that were not reindexed
	CreatedAt       time.Time
}

// RowsFromBatch flattens a result batch into one row per face.
func RowsFromBatch(batch facematch.ResultBatch) ([]StoredResult, error) {
	rows := make([]StoredResult, 0, len(batch.Faces))
	for _, f := range batch.Faces {
		var box any = facematch.NotReindexed
		if f.BoundingBox != nil {
			box = f.BoundingBox
		}
		encoded, err := json.Marshal(box)
		if err != nil {
			return nil, fmt.Errorf("encoding bounding box of face %s: %w", f.FaceID, err)
		}
		rows = append(rows, StoredResult{
			Bucket:          batch.Bucket,
			Key:             batch.Key,
			ExternalImageID: batch.ExternalImageID,
			UserID:          f.UserID,
			FaceID:          f.FaceID,
			OldFaceID:       f.OldFaceID,
			OldImageID:      f.OldImageID,
			ImageID:         f.ImageID,
			BoundingBoxes:   string(encoded),
			IsNewFace:       f.IsNewFace,
		})
	}
	return rows, nil
}
