package facematch

import (
	"math"
	"testing"
)

func TestComputeIoU(t *testing.T) {
	tests := []struct {
		name     string
		bbox1    []float64
		bbox2    []float64
		expected float64
	}{
		{
			name:     "identical boxes",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 1.0,
		},
		{
			name:     "no overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{20, 20, 30, 30},
			expected: 0.0,
		},
		{
			name:     "partial overlap",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 25.0 / 175.0, // intersection=25, union=100+100-25=175
		},
		{
			name:     "one inside other",
			bbox1:    []float64{0, 0, 20, 20},
			bbox2:    []float64{5, 5, 15, 15},
			expected: 100.0 / 400.0, // intersection=100, union=400 (larger box)
		},
		{
			name:     "touching edges",
			bbox1:    []float64{0, 0, 10, 10},
			bbox2:    []float64{10, 0, 20, 10},
			expected: 0.0,
		},
		{
			name:     "zero-area boxes at the same point",
			bbox1:    []float64{0.5, 0.5, 0.5, 0.5},
			bbox2:    []float64{0.5, 0.5, 0.5, 0.5},
			expected: 0.0,
		},
		{
			name:     "invalid bbox1",
			bbox1:    []float64{0, 0, 10},
			bbox2:    []float64{0, 0, 10, 10},
			expected: 0.0,
		},
		{
			name:     "empty bboxes",
			bbox1:    []float64{},
			bbox2:    []float64{},
			expected: 0.0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ComputeIoU(tt.bbox1, tt.bbox2)
			if math.Abs(result-tt.expected) > 0.0001 {
				t.Errorf("ComputeIoU(%v, %v) = %v, want %v", tt.bbox1, tt.bbox2, result, tt.expected)
			}
		})
	}
}

func TestIoU_SelfIsOne(t *testing.T) {
	boxes := []BoundingBox{
		{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4},
		{Left: 0, Top: 0, Width: 1, Height: 1},
		{Left: 0.9, Top: 0.9, Width: 0.01, Height: 0.02},
	}
	for _, b := range boxes {
		if got := IoU(b, b); math.Abs(got-1) > 1e-9 {
			t.Errorf("IoU(%v, %v) = %v, want 1", b, b, got)
		}
	}
}

func TestIoU_Symmetric(t *testing.T) {
	pairs := [][2]BoundingBox{
		{{Left: 0.1, Top: 0.1, Width: 0.4, Height: 0.4}, {Left: 0.3, Top: 0.2, Width: 0.4, Height: 0.5}},
		{{Left: 0, Top: 0, Width: 0.2, Height: 0.2}, {Left: 0.5, Top: 0.5, Width: 0.2, Height: 0.2}},
		{{Left: 0, Top: 0, Width: 1, Height: 1}, {Left: 0.25, Top: 0.25, Width: 0.5, Height: 0.5}},
		{{Left: 0.2, Top: 0.2, Width: 0, Height: 0.3}, {Left: 0.1, Top: 0.1, Width: 0.4, Height: 0.4}},
	}
	for _, p := range pairs {
		ab := IoU(p[0], p[1])
		ba := IoU(p[1], p[0])
		if ab != ba {
			t.Errorf("IoU not symmetric: IoU(a,b)=%v IoU(b,a)=%v", ab, ba)
		}
	}
}

func TestIoU_Disjoint(t *testing.T) {
	a := BoundingBox{Left: 0.0, Top: 0.0, Width: 0.2, Height: 0.2}
	b := BoundingBox{Left: 0.6, Top: 0.0, Width: 0.2, Height: 0.2}
	c := BoundingBox{Left: 0.0, Top: 0.7, Width: 0.2, Height: 0.2}

	if got := IoU(a, b); got != 0 {
		t.Errorf("IoU(a, b) = %v, want 0", got)
	}
	if got := IoU(a, c); got != 0 {
		t.Errorf("IoU(a, c) = %v, want 0", got)
	}
}

func TestIoU_ZeroAreaBox(t *testing.T) {
	point := BoundingBox{Left: 0.3, Top: 0.3}
	box := BoundingBox{Left: 0.2, Top: 0.2, Width: 0.4, Height: 0.4}

	if got := IoU(point, box); got != 0 {
		t.Errorf("IoU(point, box) = %v, want 0", got)
	}
	if got := IoU(point, point); got != 0 {
		t.Errorf("IoU(point, point) = %v, want 0", got)
	}
}

func TestBoundingBox_Corners(t *testing.T) {
	result := BoundingBox{Left: 0.1, Top: 0.2, Width: 0.3, Height: 0.4}.Corners()
	expected := []float64{0.1, 0.2, 0.4, 0.6}
	for i := range result {
		if math.Abs(result[i]-expected[i]) > 0.0001 {
			t.Errorf("Corners() = %v, want %v", result, expected)
			break
		}
	}
}

func TestBoundingBox_Area(t *testing.T) {
	b := BoundingBox{Left: 0.5, Top: 0.5, Width: 0.2, Height: 0.5}
	if math.Abs(b.Area()-0.1) > 1e-9 {
		t.Errorf("Area() = %v, want 0.1", b.Area())
	}
}
