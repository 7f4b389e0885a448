// Package skeleton reduces binary masks to one-voxel-wide centrelines
// using Zhang-Suen thinning. The centreline preserves the topology of the
// mask and feeds the centreline precision/sensitivity/Dice measures.
package skeleton

import (
	"fmt"

	"segmeasures/pkg/grid"
)

// Skeletonize thins a binary mask to its centreline. 2D grids are thinned
// directly; 3D grids are thinned one trailing-axis slice at a time.
func Skeletonize(g *grid.Grid) (*grid.Grid, error) {
	switch g.Rank() {
	case 2:
		return thin2D(g.Data, g.Shape[0], g.Shape[1], g.Shape...), nil
	case 3:
		d0, d1, d2 := g.Shape[0], g.Shape[1], g.Shape[2]
		out := grid.New(g.Shape...)
		plane := make([]float64, d0*d1)
		for k := 0; k < d2; k++ {
			for i := 0; i < d0; i++ {
				for j := 0; j < d1; j++ {
					plane[i*d1+j] = g.At(i, j, k)
				}
			}
			thin := thin2D(plane, d0, d1, d0, d1)
			for i := 0; i < d0; i++ {
				for j := 0; j < d1; j++ {
					out.Set(thin.At(i, j), i, j, k)
				}
			}
		}
		return out, nil
	default:
		return nil, fmt.Errorf("skeletonize supports rank 2 or 3 grids, got rank %d", g.Rank())
	}
}

// thin2D runs Zhang-Suen thinning over a rows x cols plane and returns the
// skeleton as a grid with the given output shape.
func thin2D(data []float64, rows, cols int, outShape ...int) *grid.Grid {
	cur := make([]bool, rows*cols)
	for i, v := range data {
		cur[i] = v > 0
	}

	at := func(m []bool, y, x int) bool {
		if y < 0 || y >= rows || x < 0 || x >= cols {
			return false
		}
		return m[y*cols+x]
	}

	changed := true
	marks := make([]int, 0, 64)
	for changed {
		changed = false
		// Two sub-iterations with mirrored directional conditions; a pixel
		// is removed when it has 2..6 foreground neighbors and exactly one
		// background-to-foreground transition around it.
		for sub := 0; sub < 2; sub++ {
			marks = marks[:0]
			for y := 0; y < rows; y++ {
				for x := 0; x < cols; x++ {
					if !cur[y*cols+x] {
						continue
					}
					p := [9]bool{
						true, // placeholder for P1 (the pixel itself)
						at(cur, y-1, x),   // P2
						at(cur, y-1, x+1), // P3
						at(cur, y, x+1),   // P4
						at(cur, y+1, x+1), // P5
						at(cur, y+1, x),   // P6
						at(cur, y+1, x-1), // P7
						at(cur, y, x-1),   // P8
						at(cur, y-1, x-1), // P9
					}
					neighbors := 0
					for i := 1; i <= 8; i++ {
						if p[i] {
							neighbors++
						}
					}
					if neighbors < 2 || neighbors > 6 {
						continue
					}
					transitions := 0
					for i := 1; i <= 8; i++ {
						next := i%8 + 1
						if !p[i] && p[next] {
							transitions++
						}
					}
					if transitions != 1 {
						continue
					}
					if sub == 0 {
						if (p[1] && p[3] && p[5]) || (p[3] && p[5] && p[7]) {
							continue
						}
					} else {
						if (p[1] && p[3] && p[7]) || (p[1] && p[5] && p[7]) {
							continue
						}
					}
					marks = append(marks, y*cols+x)
				}
			}
			if len(marks) > 0 {
				changed = true
				for _, idx := range marks {
					cur[idx] = false
				}
			}
		}
	}

	out := grid.New(outShape...)
	for i, v := range cur {
		if v {
			out.Data[i] = 1
		}
	}
	return out
}
