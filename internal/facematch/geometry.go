package facematch

// BoundingBox is a face region in relative (0-1) image coordinates, as reported by
// Rekognition and as claimed by callers.
type BoundingBox struct {
	Left   float64 `json:"Left"`
	Top    float64 `json:"Top"`
	Width  float64 `json:"Width"`
	Height float64 `json:"Height"`
}

// Corners returns the box in [x1, y1, x2, y2] corner format.
func (b BoundingBox) Corners() []float64 {
	return CornerBBox(b.Left, b.Top, b.Width, b.Height)
}

// Area returns width * height.
func (b BoundingBox) Area() float64 {
	return b.Width * b.Height
}

// IoU returns the Intersection over Union of two boxes.
func IoU(a, b BoundingBox) float64 {
	return ComputeIoU(a.Corners(), b.Corners())
}

// ComputeIoU calculates Intersection over Union between two bounding boxes.
// bbox1 and bbox2 are [x1, y1, x2, y2] in the same coordinate system.
func ComputeIoU(bbox1, bbox2 []float64) float64 {
	if len(bbox1) != 4 || len(bbox2) != 4 {
		return 0
	}

	// Calculate intersection.
	xLeft := max(bbox1[0], bbox2[0])
	yTop := max(bbox1[1], bbox2[1])
	xRight := min(bbox1[2], bbox2[2])
	yBottom := min(bbox1[3], bbox2[3])

	if xRight < xLeft || yBottom < yTop {
		return 0 // No intersection
	}

	intersection := (xRight - xLeft) * (yBottom - yTop)

	// Calculate union.
	area1 := (bbox1[2] - bbox1[0]) * (bbox1[3] - bbox1[1])
	area2 := (bbox2[2] - bbox2[0]) * (bbox2[3] - bbox2[1])
	union := area1 + area2 - intersection

	// Two zero-area boxes at the same point.
	if union <= 0 {
		return 0
	}

	return intersection / union
}

// CornerBBox converts a (left, top, width, height) box to [x1, y1, x2, y2] corner format.
func CornerBBox(left, top, width, height float64) []float64 {
	return []float64{
		left,
		top,
		left + width,
		top + height,
	}
}
