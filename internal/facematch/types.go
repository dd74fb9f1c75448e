// Package facematch reconciles the faces Rekognition indexed for an image with the
// identities a caller already claimed for the same image.
package facematch

import (
	"encoding/json"
	"fmt"
)

const (
	// DefaultIoUThreshold is the minimum overlap (exclusive) for a claim to match a detection.
	DefaultIoUThreshold = 0.5

	// NewFacePrefix prefixes the synthetic identity given to unmatched detections.
	NewFacePrefix = "NewFace-"

	// NotReindexed marks claims that no detection could be mapped to.
	NotReindexed = "Not reindexed"
)

// Bounding box keys a claim must carry.
const (
	KeyLeft   = "Left"
	KeyTop    = "Top"
	KeyWidth  = "Width"
	KeyHeight = "Height"
)

// RequestContext identifies the image a submission is about. It is copied onto
// every result batch unchanged.
type RequestContext struct {
	Bucket          string `json:"Bucket"`
	Key             string `json:"Key"`
	ExternalImageID string `json:"ExternalImageId"`
	CollectionID    string `json:"CollectionId"`
}

// BoxFields is the wire form of a claimed bounding box. It is kept as a map so the
// completeness check can see missing and extra keys.
type BoxFields map[string]any

// NewBoxFields returns the wire form of b.
func NewBoxFields(b BoundingBox) BoxFields {
	return BoxFields{
		KeyLeft:   b.Left,
		KeyTop:    b.Top,
		KeyWidth:  b.Width,
		KeyHeight: b.Height,
	}
}

// ClaimedFace is a caller's assertion that a known identity appears at a region of the image.
type ClaimedFace struct {
	UserID        string    `json:"UserId"`
	FaceID        string    `json:"FaceId"`
	ImageID       string    `json:"ImageId"`
	BoundingBoxes BoxFields `json:"BoundingBoxes"`
}

// NewClaimedFace builds a claim with a complete bounding box.
func NewClaimedFace(userID, faceID, imageID string, box BoundingBox) ClaimedFace {
	return ClaimedFace{
		UserID:        userID,
		FaceID:        faceID,
		ImageID:       imageID,
		BoundingBoxes: NewBoxFields(box),
	}
}

// Box returns the typed bounding box. It fails if any of the four values is
// missing or not numeric.
func (c ClaimedFace) Box() (BoundingBox, error) {
	var b BoundingBox
	for key, dst := range map[string]*float64{
		KeyLeft:   &b.Left,
		KeyTop:    &b.Top,
		KeyWidth:  &b.Width,
		KeyHeight: &b.Height,
	} {
		v, ok := c.BoundingBoxes[key]
		if !ok {
			return BoundingBox{}, fmt.Errorf("bounding box key %s missing", key)
		}
		f, ok := toFloat(v)
		if !ok {
			return BoundingBox{}, fmt.Errorf("bounding box key %s is not a number: %v", key, v)
		}
		*dst = f
	}
	return b, nil
}

// DetectedFace is a face the recognition engine indexed for the current image.
type DetectedFace struct {
	FaceID      string      `json:"FaceId"`
	ImageID     string      `json:"ImageId"`
	BoundingBox BoundingBox `json:"BoundingBox"`
}

// MatchResult is one reconciled row.
//
// BoundingBox is nil for claims that were not reindexed; it is serialized as the
// NotReindexed marker in that case. IsNewFace is omitted for those rows too.
type MatchResult struct {
	UserID      string
	OldFaceID   string
	OldImageID  string
	FaceID      string
	ImageID     string
	BoundingBox *BoundingBox
	IsNewFace   *bool
}

// Reindexed reports whether the row is bound to a detected face.
func (r MatchResult) Reindexed() bool {
	return r.BoundingBox != nil
}

type matchResultJSON struct {
	UserID      string          `json:"UserID"`
	OldFaceID   string          `json:"OldFaceId"`
	OldImageID  string          `json:"OldImageId"`
	FaceID      string          `json:"FaceId"`
	ImageID     string          `json:"ImageId"`
	BoundingBox json.RawMessage `json:"BoundingBoxes"`
	IsNewFace   *bool           `json:"IsNewFace,omitempty"`
}

// MarshalJSON writes the row in the results-queue format.
func (r MatchResult) MarshalJSON() ([]byte, error) {
	var box []byte
	var err error
	if r.BoundingBox != nil {
		box, err = json.Marshal(r.BoundingBox)
	} else {
		box, err = json.Marshal(NotReindexed)
	}
	if err != nil {
		return nil, err
	}
	return json.Marshal(matchResultJSON{
		UserID:      r.UserID,
		OldFaceID:   r.OldFaceID,
		OldImageID:  r.OldImageID,
		FaceID:      r.FaceID,
		ImageID:     r.ImageID,
		BoundingBox: box,
		IsNewFace:   r.IsNewFace,
	})
}

// UnmarshalJSON accepts either a bounding box object or the NotReindexed marker.
func (r *MatchResult) UnmarshalJSON(data []byte) error {
	var raw matchResultJSON
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*r = MatchResult{
		UserID:     raw.UserID,
		OldFaceID:  raw.OldFaceID,
		OldImageID: raw.OldImageID,
		FaceID:     raw.FaceID,
		ImageID:    raw.ImageID,
		IsNewFace:  raw.IsNewFace,
	}
	if len(raw.BoundingBox) == 0 || string(raw.BoundingBox) == "null" {
		return nil
	}
	var marker string
	if err := json.Unmarshal(raw.BoundingBox, &marker); err == nil {
		if marker != NotReindexed {
			return fmt.Errorf("unexpected bounding box marker %q", marker)
		}
		return nil
	}
	var box BoundingBox
	if err := json.Unmarshal(raw.BoundingBox, &box); err != nil {
		return fmt.Errorf("decoding bounding box: %w", err)
	}
	r.BoundingBox = &box
	return nil
}

// Submission is one reindex request: the image plus the faces the caller claims are in it.
type Submission struct {
	RequestContext
	Faces []ClaimedFace `json:"Faces"`
}

// ResultBatch is what the reindex stage hands to the result sink.
type ResultBatch struct {
	Bucket          string        `json:"Bucket"`
	Key             string        `json:"Key"`
	ExternalImageID string        `json:"ExternalImageId"`
	Faces           []MatchResult `json:"Faces"`
}

// NewResultBatch attaches the request context to a result list.
func NewResultBatch(rc RequestContext, results []MatchResult) ResultBatch {
	return ResultBatch{
		Bucket:          rc.Bucket,
		Key:             rc.Key,
		ExternalImageID: rc.ExternalImageID,
		Faces:           results,
	}
}

func toFloat(v any) (float64, bool) {
	switch n := v.(type) {
	case float64:
		return n, true
	case float32:
		return float64(n), true
	case int:
		return float64(n), true
	case int64:
		return float64(n), true
	case json.Number:
		f, err := n.Float64()
		return f, err == nil
	default:
		return 0, false
	}
}

func boolPtr(b bool) *bool {
	return &b
}
