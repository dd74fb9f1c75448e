package facematch

// Engine maps detected faces onto claimed identities by bounding box overlap.
//
// Matching is greedy: each detection (or claim, when only one face was detected) is
// decided independently and a claim is never removed from the candidate pool, so one
// claim can be attributed to several detections.
type Engine struct {
	// Threshold is the exclusive IoU lower bound for a match.
	Threshold float64
}

// NewEngine returns an engine using the given IoU threshold.
func NewEngine(threshold float64) *Engine {
	return &Engine{Threshold: threshold}
}

// DefaultEngine returns an engine using DefaultIoUThreshold.
func DefaultEngine() *Engine {
	return NewEngine(DefaultIoUThreshold)
}

// Matches reports whether a claimed box and a detected box overlap enough.
func (e *Engine) Matches(claimed, detected BoundingBox) bool {
	return IoU(claimed, detected) > e.Threshold
}

// Reconcile produces the result rows for one image. It is a pure function of its
// inputs. The returned error is a *RejectionError when claims are empty or
// incomplete, or when nothing was detected.
func (e *Engine) Reconcile(claims []ClaimedFace, detections []DetectedFace) ([]MatchResult, error) {
	if err := ValidateClaims(claims); err != nil {
		return nil, err
	}
	if len(detections) == 0 {
		return nil, reject(NoDetectionsReturned)
	}

	boxes := make([]BoundingBox, len(claims))
	for i, c := range claims {
		b, err := c.Box()
		if err != nil {
			return nil, &RejectionError{Kind: IncompleteBoundingBox, ClaimIndex: i, Err: err}
		}
		boxes[i] = b
	}

	if len(claims) > 1 && len(detections) == 1 {
		return e.reconcileClaims(claims, boxes, detections[0]), nil
	}
	return e.reconcileDetections(claims, boxes, detections), nil
}

// reconcileDetections emits one row per detection, bound to the first claim that
// overlaps it or to a synthetic new identity. With a single claim this is the
// per-detection threshold rule.
func (e *Engine) reconcileDetections(claims []ClaimedFace, boxes []BoundingBox, detections []DetectedFace) []MatchResult {
	results := make([]MatchResult, 0, len(detections))
	for _, det := range detections {
		if i := e.firstMatch(boxes, det.BoundingBox); i >= 0 {
			results = append(results, matchedRow(claims[i], det))
		} else {
			results = append(results, newFaceRow(det))
		}
	}
	return results
}

// reconcileClaims emits one row per claim against the single detection. Claims that
// do not overlap it are marked NotReindexed.
func (e *Engine) reconcileClaims(claims []ClaimedFace, boxes []BoundingBox, det DetectedFace) []MatchResult {
	results := make([]MatchResult, 0, len(claims))
	for i, claim := range claims {
		if e.Matches(boxes[i], det.BoundingBox) {
			results = append(results, matchedRow(claim, det))
		} else {
			results = append(results, notReindexedRow(claim))
		}
	}
	return results
}

func (e *Engine) firstMatch(boxes []BoundingBox, detected BoundingBox) int {
	for i, b := range boxes {
		if e.Matches(b, detected) {
			return i
		}
	}
	return -1
}

func matchedRow(claim ClaimedFace, det DetectedFace) MatchResult {
	box := det.BoundingBox
	return MatchResult{
		UserID:      claim.UserID,
		OldFaceID:   claim.FaceID,
		OldImageID:  claim.ImageID,
		FaceID:      det.FaceID,
		ImageID:     det.ImageID,
		BoundingBox: &box,
		IsNewFace:   boolPtr(false),
	}
}

// NewFaceID returns the synthetic identity for an unmatched detection.
func NewFaceID(detectedFaceID string) string {
	return NewFacePrefix + detectedFaceID
}

func newFaceRow(det DetectedFace) MatchResult {
	id := NewFaceID(det.FaceID)
	box := det.BoundingBox
	return MatchResult{
		UserID:      id,
		OldFaceID:   id,
		OldImageID:  id,
		FaceID:      det.FaceID,
		ImageID:     det.ImageID,
		BoundingBox: &box,
		IsNewFace:   boolPtr(true),
	}
}

func notReindexedRow(claim ClaimedFace) MatchResult {
	return MatchResult{
		UserID:     claim.UserID,
		OldFaceID:  claim.FaceID,
		OldImageID: claim.ImageID,
		FaceID:     NotReindexed,
		ImageID:    NotReindexed,
	}
}
