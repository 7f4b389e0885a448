// Package morphology derives boundary shells and connected-component
// labelings from binary grids. These are the building blocks for the
// distance-based and component-based agreement measures.
package morphology

import (
	"fmt"

	"segmeasures/pkg/grid"
)

// Labeling is the result of connected-component analysis: a grid whose
// voxels hold component ids (1..Count, 0 for background) and the number of
// components found.
type Labeling struct {
	Labels *grid.Grid
	Count  int
}

// BorderMap extracts the one-voxel-wide boundary shell of a binary grid.
// It performs a single face-connectivity binary erosion and subtracts the
// eroded mask from the input: a foreground voxel is border when at least
// one face neighbor (voxels outside the grid count as background) is
// background.
func BorderMap(g *grid.Grid) *grid.Grid {
	border := grid.New(g.Shape...)
	for idx, v := range g.Data {
		if v <= 0 {
			continue
		}
		if onBorder(g, idx) {
			border.Data[idx] = 1
		}
	}
	return border
}

// onBorder reports whether a foreground voxel has a background face
// neighbor under the erosion convention (out-of-bounds is background).
func onBorder(g *grid.Grid, idx int) bool {
	coords := g.Coords(idx)
	for axis := range coords {
		for _, step := range [2]int{-1, 1} {
			c := coords[axis] + step
			if c < 0 || c >= g.Shape[axis] {
				return true
			}
			coords[axis] = c
			if g.Data[g.Index(coords...)] <= 0 {
				coords[axis] = c - step
				return true
			}
			coords[axis] = c - step
		}
	}
	return false
}

// BorderMap3D extracts the boundary shell of a 3D grid by comparing each
// voxel against its six axis neighbors: a foreground voxel is border when
// fewer than all six neighbors are foreground. Out-of-bounds neighbors
// count as background, so the outer faces of a filled volume are border.
func BorderMap3D(g *grid.Grid) (*grid.Grid, error) {
	if g.Rank() != 3 {
		return nil, fmt.Errorf("BorderMap3D requires a rank-3 grid, got rank %d", g.Rank())
	}
	d0, d1, d2 := g.Shape[0], g.Shape[1], g.Shape[2]
	border := grid.New(g.Shape...)
	for i := 0; i < d0; i++ {
		for j := 0; j < d1; j++ {
			for k := 0; k < d2; k++ {
				if g.At(i, j, k) <= 0 {
					continue
				}
				neighbors := 0
				if i > 0 && g.At(i-1, j, k) > 0 {
					neighbors++
				}
				if i < d0-1 && g.At(i+1, j, k) > 0 {
					neighbors++
				}
				if j > 0 && g.At(i, j-1, k) > 0 {
					neighbors++
				}
				if j < d1-1 && g.At(i, j+1, k) > 0 {
					neighbors++
				}
				if k > 0 && g.At(i, j, k-1) > 0 {
					neighbors++
				}
				if k < d2-1 && g.At(i, j, k+1) > 0 {
					neighbors++
				}
				if neighbors < 6 {
					border.Set(1, i, j, k)
				}
			}
		}
	}
	return border, nil
}

// Components labels the connected foreground components of a binary grid.
// numNeighbors selects the connectivity: 4 or 8 in 2D, 6 or 26 in 3D. Any
// other value falls back to face connectivity for the grid's rank.
func Components(g *grid.Grid, numNeighbors int) *Labeling {
	offsets := neighborOffsets(g.Rank(), numNeighbors)
	labels := grid.New(g.Shape...)
	count := 0
	queue := make([]int, 0, 64)

	for start, v := range g.Data {
		if v <= 0 || labels.Data[start] != 0 {
			continue
		}
		count++
		labels.Data[start] = float64(count)
		queue = append(queue[:0], start)

		// Flood fill from the seed voxel.
		for len(queue) > 0 {
			idx := queue[len(queue)-1]
			queue = queue[:len(queue)-1]
			coords := g.Coords(idx)
			for _, off := range offsets {
				inside := true
				for axis, step := range off {
					c := coords[axis] + step
					if c < 0 || c >= g.Shape[axis] {
						inside = false
						break
					}
				}
				if !inside {
					continue
				}
				ncoords := make([]int, len(coords))
				for axis := range coords {
					ncoords[axis] = coords[axis] + off[axis]
				}
				nidx := g.Index(ncoords...)
				if g.Data[nidx] > 0 && labels.Data[nidx] == 0 {
					labels.Data[nidx] = float64(count)
					queue = append(queue, nidx)
				}
			}
		}
	}

	return &Labeling{Labels: labels, Count: count}
}

// neighborOffsets enumerates the coordinate offsets for a connectivity
// choice. Full connectivity includes all non-zero offsets in {-1,0,1}^rank;
// face connectivity only the axis-aligned unit steps.
func neighborOffsets(rank, numNeighbors int) [][]int {
	full := false
	switch rank {
	case 2:
		full = numNeighbors == 8
	case 3:
		full = numNeighbors == 26
	}

	if !full {
		offsets := make([][]int, 0, 2*rank)
		for axis := 0; axis < rank; axis++ {
			for _, step := range [2]int{-1, 1} {
				off := make([]int, rank)
				off[axis] = step
				offsets = append(offsets, off)
			}
		}
		return offsets
	}

	var offsets [][]int
	total := 1
	for i := 0; i < rank; i++ {
		total *= 3
	}
	for code := 0; code < total; code++ {
		off := make([]int, rank)
		c := code
		zero := true
		for axis := 0; axis < rank; axis++ {
			off[axis] = c%3 - 1
			if off[axis] != 0 {
				zero = false
			}
			c /= 3
		}
		if !zero {
			offsets = append(offsets, off)
		}
	}
	return offsets
}
