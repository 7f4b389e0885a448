// Package measures implements the pairwise agreement measures between a
// predicted mask (or probability map) and a reference mask. It exposes two
// facades: BinaryComparison for hard masks and ProbabilityComparison for
// probability-valued masks. Every expensive intermediate (confusion counts,
// border maps, distance fields, component labelings, skeletons, threshold
// sweeps) is memoized per comparison instance, so requesting many measures
// costs each intermediate only once.
package measures

import (
	"fmt"
	"strings"
)

// Result is the tagged value a measure produces: a single scalar or a
// small tuple. Normalizing both shapes into one type gives the response
// formatting a single contract.
type Result struct {
	values []float64
}

// Scalar wraps a single measure value.
func Scalar(v float64) Result {
	return Result{values: []float64{v}}
}

// Tuple wraps a multi-valued measure, e.g. component counts.
func Tuple(vs ...float64) Result {
	return Result{values: append([]float64(nil), vs...)}
}

// Scalar returns the first (or only) value.
func (r Result) Scalar() float64 {
	return r.values[0]
}

// Values returns all values of the result.
func (r Result) Values() []float64 {
	return append([]float64(nil), r.values...)
}

// IsTuple reports whether the result carries more than one value.
func (r Result) IsTuple() bool {
	return len(r.values) > 1
}

// Format renders the result as fixed-precision text; tuple values are
// joined with commas, matching the CSV-oriented reporting of the callers.
func (r Result) Format() string {
	parts := make([]string, len(r.values))
	for i, v := range r.values {
		parts[i] = fmt.Sprintf("%.4f", v)
	}
	return strings.Join(parts, ",")
}
