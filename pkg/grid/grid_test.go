package grid

import (
	"testing"
)

// TestNewGrid verifies shape bookkeeping and zero initialization
func TestNewGrid(t *testing.T) {
	g := New(2, 3, 4)

	if g.Size() != 24 {
		t.Errorf("Expected size 24, got %d", g.Size())
	}
	if g.Rank() != 3 {
		t.Errorf("Expected rank 3, got %d", g.Rank())
	}
	for i, v := range g.Data {
		if v != 0 {
			t.Fatalf("Expected zero-initialized grid, got %f at %d", v, i)
		}
	}
}

// TestFromValues verifies buffer wrapping and length validation
func TestFromValues(t *testing.T) {
	data := []float64{1, 0, 0, 1, 1, 0}
	g, err := FromValues(data, 2, 3)
	if err != nil {
		t.Fatalf("Failed to wrap valid buffer: %v", err)
	}
	if g.At(1, 0) != 1 {
		t.Errorf("Expected value 1 at (1,0), got %f", g.At(1, 0))
	}

	if _, err := FromValues(data, 2, 2); err == nil {
		t.Error("Expected error for mismatched buffer length, got nil")
	}
}

// TestIndexCoordsRoundTrip verifies flat offset conversion in both directions
func TestIndexCoordsRoundTrip(t *testing.T) {
	g := New(3, 4, 5)
	for idx := 0; idx < g.Size(); idx++ {
		coords := g.Coords(idx)
		back := g.Index(coords...)
		if back != idx {
			t.Fatalf("Round trip failed: %d -> %v -> %d", idx, coords, back)
		}
	}
}

// TestSetAt verifies coordinate access
func TestSetAt(t *testing.T) {
	g := New(2, 3)
	g.Set(0.7, 1, 2)
	if g.At(1, 2) != 0.7 {
		t.Errorf("Expected 0.7 at (1,2), got %f", g.At(1, 2))
	}
	if g.Data[5] != 0.7 {
		t.Errorf("Expected row-major offset 5 to hold 0.7, got %f", g.Data[5])
	}
}

// TestCheckPair verifies the fatal shape-mismatch rejection
func TestCheckPair(t *testing.T) {
	a := New(2, 3)
	b := New(2, 3)
	if err := CheckPair(a, b); err != nil {
		t.Errorf("Expected matching shapes to pass, got %v", err)
	}

	c := New(3, 2)
	if err := CheckPair(a, c); err == nil {
		t.Error("Expected shape mismatch to be rejected, got nil")
	}

	d := New(2, 3, 1)
	if err := CheckPair(a, d); err == nil {
		t.Error("Expected rank mismatch to be rejected, got nil")
	}
}

// TestCheckSpacing verifies spacing vector validation
func TestCheckSpacing(t *testing.T) {
	if err := CheckSpacing([]float64{1, 1.5}, 2); err != nil {
		t.Errorf("Expected valid spacing to pass, got %v", err)
	}
	if err := CheckSpacing([]float64{1}, 2); err == nil {
		t.Error("Expected spacing length mismatch to be rejected")
	}
	if err := CheckSpacing([]float64{1, 0}, 2); err == nil {
		t.Error("Expected non-positive spacing to be rejected")
	}
}

// TestClone verifies deep copy semantics
func TestClone(t *testing.T) {
	g := New(2, 2)
	g.Set(1, 0, 0)
	c := g.Clone()
	c.Set(0, 0, 0)
	if g.At(0, 0) != 1 {
		t.Error("Clone mutation leaked into the source grid")
	}
}

// TestSum verifies voxel summation
func TestSum(t *testing.T) {
	g, _ := FromValues([]float64{1, 0, 1, 1}, 2, 2)
	if g.Sum() != 3 {
		t.Errorf("Expected sum 3, got %f", g.Sum())
	}
}
