// Package grid provides the n-dimensional grid type shared by every
// measure engine. A grid stores voxel values as a flat row-major array
// together with its shape, so 2D masks and 3D volumes are handled by the
// same code paths.
package grid

import (
	"fmt"
)

// Grid is an n-dimensional array of voxel values stored in row-major order.
// Hard masks use the values 0 and 1; probability masks use values in [0,1].
type Grid struct {
	// Data is the flat voxel buffer, row-major, len == product(Shape)
	Data []float64

	// Shape holds the extent of each axis, e.g. [rows, cols] in 2D
	Shape []int
}

// New creates a zero-filled grid with the given shape.
func New(shape ...int) *Grid {
	size := 1
	for _, s := range shape {
		size *= s
	}
	return &Grid{
		Data:  make([]float64, size),
		Shape: append([]int(nil), shape...),
	}
}

// FromValues wraps an existing flat buffer into a grid. It returns an error
// when the buffer length does not match the shape.
func FromValues(data []float64, shape ...int) (*Grid, error) {
	size := 1
	for _, s := range shape {
		size *= s
	}
	if len(data) != size {
		return nil, fmt.Errorf("grid data length %d does not match shape %v (need %d)", len(data), shape, size)
	}
	return &Grid{Data: data, Shape: append([]int(nil), shape...)}, nil
}

// Rank returns the number of axes.
func (g *Grid) Rank() int {
	return len(g.Shape)
}

// Size returns the total voxel count.
func (g *Grid) Size() int {
	return len(g.Data)
}

// Index converts multi-axis coordinates into a flat offset.
func (g *Grid) Index(coords ...int) int {
	idx := 0
	for axis, c := range coords {
		idx = idx*g.Shape[axis] + c
	}
	return idx
}

// Coords converts a flat offset back into per-axis coordinates.
func (g *Grid) Coords(idx int) []int {
	coords := make([]int, len(g.Shape))
	for axis := len(g.Shape) - 1; axis >= 0; axis-- {
		coords[axis] = idx % g.Shape[axis]
		idx /= g.Shape[axis]
	}
	return coords
}

// At returns the value at the given coordinates.
func (g *Grid) At(coords ...int) float64 {
	return g.Data[g.Index(coords...)]
}

// Set assigns the value at the given coordinates.
func (g *Grid) Set(v float64, coords ...int) {
	g.Data[g.Index(coords...)] = v
}

// Clone returns a deep copy of the grid.
func (g *Grid) Clone() *Grid {
	data := make([]float64, len(g.Data))
	copy(data, g.Data)
	return &Grid{Data: data, Shape: append([]int(nil), g.Shape...)}
}

// SameShape reports whether two grids have identical shapes.
func (g *Grid) SameShape(other *Grid) bool {
	if len(g.Shape) != len(other.Shape) {
		return false
	}
	for i, s := range g.Shape {
		if other.Shape[i] != s {
			return false
		}
	}
	return true
}

// TrailingAxis returns the extent of the last axis. Probabilistic measures
// treat the trailing axis as the image/case index when no explicit case
// identifiers are supplied.
func (g *Grid) TrailingAxis() int {
	return g.Shape[len(g.Shape)-1]
}

// Sum returns the sum of all voxel values.
func (g *Grid) Sum() float64 {
	total := 0.0
	for _, v := range g.Data {
		total += v
	}
	return total
}

// CheckPair validates that a prediction and reference grid can be compared.
// A shape mismatch is fatal and must be rejected before any metric runs.
func CheckPair(pred, ref *Grid) error {
	if pred == nil || ref == nil {
		return fmt.Errorf("both prediction and reference grids are required")
	}
	if !pred.SameShape(ref) {
		return fmt.Errorf("shape mismatch: prediction %v vs reference %v", pred.Shape, ref.Shape)
	}
	return nil
}

// CheckSpacing validates a physical spacing vector against a grid rank.
func CheckSpacing(pixdim []float64, rank int) error {
	if len(pixdim) != rank {
		return fmt.Errorf("spacing vector length %d does not match grid rank %d", len(pixdim), rank)
	}
	for axis, s := range pixdim {
		if s <= 0 {
			return fmt.Errorf("spacing along axis %d must be positive, got %f", axis, s)
		}
	}
	return nil
}
