// Package boxes computes overlap ratios between axis-aligned bounding
// boxes. A box is a coordinate vector holding the min corner followed by
// the max corner, e.g. [y0, x0, y1, x1] in 2D. Extents are counted in
// voxels, so a degenerate box still covers one voxel per axis.
package boxes

import (
	"fmt"
	"math"
)

// split separates a box vector into its min and max corners.
func split(box []float64) (lo, hi []float64) {
	n := len(box) / 2
	return box[:n], box[n:]
}

// Intersection returns the voxel count of the overlap between two boxes,
// zero when they are disjoint.
func Intersection(box1, box2 []float64) (float64, error) {
	if len(box1) != len(box2) || len(box1) == 0 || len(box1)%2 != 0 {
		return 0, fmt.Errorf("boxes must share an even, non-zero length: %d vs %d", len(box1), len(box2))
	}
	lo1, hi1 := split(box1)
	lo2, hi2 := split(box2)

	// Overlap corners: the larger of the min corners, the smaller of the
	// max corners.
	area := 1.0
	for axis := range lo1 {
		lo := math.Max(lo1[axis], lo2[axis])
		hi := math.Min(hi1[axis], hi2[axis])
		extent := hi + 1 - lo
		if extent <= 0 {
			return 0, nil
		}
		area *= extent
	}
	return area, nil
}

// Area returns the voxel count covered by a box.
func Area(box []float64) (float64, error) {
	if len(box) == 0 || len(box)%2 != 0 {
		return 0, fmt.Errorf("box must have an even, non-zero length: %d", len(box))
	}
	lo, hi := split(box)
	area := 1.0
	for axis := range lo {
		area *= hi[axis] + 1 - lo[axis]
	}
	return area, nil
}

// Union returns the voxel count covered by either box.
func Union(box1, box2 []float64) (float64, error) {
	a1, err := Area(box1)
	if err != nil {
		return 0, err
	}
	a2, err := Area(box2)
	if err != nil {
		return 0, err
	}
	inter, err := Intersection(box1, box2)
	if err != nil {
		return 0, err
	}
	return a1 + a2 - inter, nil
}

// IoU returns the intersection-over-union ratio between two boxes.
func IoU(box1, box2 []float64) (float64, error) {
	inter, err := Intersection(box1, box2)
	if err != nil {
		return 0, err
	}
	union, err := Union(box1, box2)
	if err != nil {
		return 0, err
	}
	return inter / union, nil
}

// IoR returns the intersection-over-reference ratio, where box2 is the
// reference box.
func IoR(box1, box2 []float64) (float64, error) {
	inter, err := Intersection(box1, box2)
	if err != nil {
		return 0, err
	}
	area, err := Area(box2)
	if err != nil {
		return 0, err
	}
	return inter / area, nil
}
