// Package distance computes anisotropic Euclidean distance transforms.
// Given a border mask and a per-axis physical spacing vector it produces a
// field holding, for every voxel, the physical distance to the nearest
// border voxel. The transform is exact: the squared-distance lower-envelope
// algorithm is applied separately along each axis, weighting each axis by
// its spacing.
package distance

import (
	"math"

	"segmeasures/pkg/grid"
)

// Transform returns the distance-to-border field for a border mask.
// Voxels on the border map to zero. When the border mask is entirely empty
// every voxel maps to +Inf; callers are expected to short-circuit that case.
func Transform(border *grid.Grid, pixdim []float64) (*grid.Grid, error) {
	if err := grid.CheckSpacing(pixdim, border.Rank()); err != nil {
		return nil, err
	}

	// Squared distances, seeded with 0 on the border and +Inf elsewhere.
	field := grid.New(border.Shape...)
	for idx, v := range border.Data {
		if v > 0 {
			field.Data[idx] = 0
		} else {
			field.Data[idx] = math.Inf(1)
		}
	}

	for axis := 0; axis < border.Rank(); axis++ {
		sweepAxis(field, axis, pixdim[axis])
	}

	for idx, v := range field.Data {
		field.Data[idx] = math.Sqrt(v)
	}
	return field, nil
}

// sweepAxis runs the 1D squared-distance transform along every line of the
// field parallel to the given axis.
func sweepAxis(field *grid.Grid, axis int, spacing float64) {
	n := field.Shape[axis]
	if n == 1 {
		return
	}

	// Stride between consecutive voxels along the axis.
	stride := 1
	for a := axis + 1; a < field.Rank(); a++ {
		stride *= field.Shape[a]
	}

	line := make([]float64, n)
	out := make([]float64, n)
	v := make([]int, n)
	z := make([]float64, n+1)

	// Enumerate the start offset of every line along the axis: all voxels
	// whose coordinate on the axis is zero.
	total := field.Size()
	span := stride * n
	for base := 0; base < total; base += span {
		for off := 0; off < stride; off++ {
			start := base + off
			for i := 0; i < n; i++ {
				line[i] = field.Data[start+i*stride]
			}
			envelope(line, out, v, z, spacing)
			for i := 0; i < n; i++ {
				field.Data[start+i*stride] = out[i]
			}
		}
	}
}

// envelope computes out[q] = min_p (line[p] + (spacing*(q-p))^2) using the
// Felzenszwalb-Huttenlocher lower envelope of parabolas. Sites with an
// infinite value contribute no parabola.
func envelope(line, out []float64, v []int, z []float64, spacing float64) {
	w2 := spacing * spacing
	k := -1
	for q := 0; q < len(line); q++ {
		if math.IsInf(line[q], 1) {
			continue
		}
		fq := line[q] + w2*float64(q)*float64(q)
		for k >= 0 {
			p := v[k]
			fp := line[p] + w2*float64(p)*float64(p)
			s := (fq - fp) / (2 * w2 * float64(q-p))
			if s > z[k] {
				break
			}
			k--
		}
		k++
		v[k] = q
		if k == 0 {
			z[k] = math.Inf(-1)
		} else {
			p := v[k-1]
			fp := line[p] + w2*float64(p)*float64(p)
			z[k] = (fq - fp) / (2 * w2 * float64(q-p))
		}
		z[k+1] = math.Inf(1)
	}

	if k < 0 {
		// No finite site on this line.
		for q := range out {
			out[q] = math.Inf(1)
		}
		return
	}

	j := 0
	for q := 0; q < len(line); q++ {
		for z[j+1] < float64(q) {
			j++
		}
		d := float64(q - v[j])
		out[q] = line[v[j]] + w2*d*d
	}
}
