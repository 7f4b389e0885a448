package distance

import (
	"math"
	"testing"

	"segmeasures/pkg/grid"
)

// TestTransformUnitSpacing verifies exact Euclidean distances from a single
// seed voxel
func TestTransformUnitSpacing(t *testing.T) {
	border := grid.New(5, 5)
	border.Set(1, 0, 0)

	field, err := Transform(border, []float64{1, 1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	cases := []struct {
		i, j int
		want float64
	}{
		{0, 0, 0},
		{0, 4, 4},
		{4, 0, 4},
		{3, 4, 5},
		{1, 1, math.Sqrt2},
	}
	for _, c := range cases {
		got := field.At(c.i, c.j)
		if math.Abs(got-c.want) > 1e-9 {
			t.Errorf("Distance at (%d,%d): expected %f, got %f", c.i, c.j, c.want, got)
		}
	}
}

// TestTransformAnisotropic verifies the per-axis spacing weighting
func TestTransformAnisotropic(t *testing.T) {
	border := grid.New(1, 5)
	border.Set(1, 0, 0)

	field, err := Transform(border, []float64{1, 2})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := []float64{0, 2, 4, 6, 8}
	for j, w := range want {
		got := field.At(0, j)
		if math.Abs(got-w) > 1e-9 {
			t.Errorf("Distance at column %d: expected %f, got %f", j, w, got)
		}
	}
}

// TestTransformNearestSeed verifies each voxel maps to its closest seed
func TestTransformNearestSeed(t *testing.T) {
	border := grid.New(1, 7)
	border.Set(1, 0, 0)
	border.Set(1, 0, 6)

	field, err := Transform(border, []float64{1, 1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	want := []float64{0, 1, 2, 3, 2, 1, 0}
	for j, w := range want {
		got := field.At(0, j)
		if math.Abs(got-w) > 1e-9 {
			t.Errorf("Distance at column %d: expected %f, got %f", j, w, got)
		}
	}
}

// TestTransformEmptyBorder verifies an empty mask yields +Inf everywhere
func TestTransformEmptyBorder(t *testing.T) {
	border := grid.New(3, 3)

	field, err := Transform(border, []float64{1, 1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}
	for idx, v := range field.Data {
		if !math.IsInf(v, 1) {
			t.Fatalf("Expected +Inf at %d for an empty border, got %f", idx, v)
		}
	}
}

// TestTransform3D verifies the transform generalizes to rank 3
func TestTransform3D(t *testing.T) {
	border := grid.New(3, 3, 3)
	border.Set(1, 0, 0, 0)

	field, err := Transform(border, []float64{1, 1, 1})
	if err != nil {
		t.Fatalf("Transform failed: %v", err)
	}

	got := field.At(2, 2, 2)
	want := math.Sqrt(12)
	if math.Abs(got-want) > 1e-9 {
		t.Errorf("Corner distance: expected %f, got %f", want, got)
	}
}

// TestTransformInvalidSpacing verifies spacing validation
func TestTransformInvalidSpacing(t *testing.T) {
	border := grid.New(3, 3)
	if _, err := Transform(border, []float64{1}); err == nil {
		t.Error("Expected spacing length mismatch to be rejected")
	}
	if _, err := Transform(border, []float64{1, -1}); err == nil {
		t.Error("Expected negative spacing to be rejected")
	}
}
