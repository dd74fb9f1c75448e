package facematch

import "math"

var boxKeys = [...]string{KeyLeft, KeyTop, KeyWidth, KeyHeight}

// IsComplete reports whether a claim can take part in matching: its bounding box
// must have exactly the keys Left, Top, Width and Height, each holding a non-zero
// finite number.
func IsComplete(face ClaimedFace) bool {
	if len(face.BoundingBoxes) != len(boxKeys) {
		return false
	}
	for _, key := range boxKeys {
		v, ok := face.BoundingBoxes[key]
		if !ok || !truthy(v) {
			return false
		}
		f, ok := toFloat(v)
		if !ok || math.IsNaN(f) || math.IsInf(f, 0) {
			return false
		}
	}
	return true
}

// ValidateClaims rejects an empty claim list or any claim with an incomplete box.
func ValidateClaims(claims []ClaimedFace) error {
	if len(claims) == 0 {
		return reject(NoClaimsProvided)
	}
	for i, c := range claims {
		if !IsComplete(c) {
			return &RejectionError{Kind: IncompleteBoundingBox, ClaimIndex: i}
		}
	}
	return nil
}

func truthy(v any) bool {
	switch t := v.(type) {
	case nil:
		return false
	case bool:
		return t
	case string:
		return t != ""
	default:
		f, ok := toFloat(v)
		return !ok || f != 0
	}
}
