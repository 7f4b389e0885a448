package measures

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/integrate"
	"gonum.org/v1/gonum/stat"

	"segmeasures/pkg/config"
	"segmeasures/pkg/grid"
)

// OperatingPoint is one row of the threshold-sweep table: the decision
// threshold together with the classification quantities it induces.
type OperatingPoint struct {
	Threshold   float64
	Sensitivity float64
	Specificity float64
	Precision   float64
	FPPI        float64
}

// ProbabilityComparison compares a probability-valued prediction grid
// against a binary reference grid. The threshold-sweep table is built once
// and cached; every curve integral and operating-point query reads from it.
type ProbabilityComparison struct {
	pred    *grid.Grid
	ref     *grid.Grid
	caseIDs []int
	cfg     *config.Config
	cache   *memoCache
}

// NewProbabilityComparison validates the grid pair and wraps it for
// probabilistic measure requests. caseIDs optionally assigns each voxel
// (flattened order) to a case for FPPI; when nil the trailing axis is
// treated as the image index.
func NewProbabilityComparison(pred, ref *grid.Grid, caseIDs []int, cfg *config.Config) (*ProbabilityComparison, error) {
	if err := grid.CheckPair(pred, ref); err != nil {
		return nil, err
	}
	if caseIDs != nil && len(caseIDs) != pred.Size() {
		return nil, fmt.Errorf("case identifiers length %d does not match voxel count %d", len(caseIDs), pred.Size())
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &ProbabilityComparison{
		pred:    pred,
		ref:     ref,
		caseIDs: caseIDs,
		cfg:     cfg,
		cache:   newMemoCache(),
	}, nil
}

// --- thresholded confusion layer --------------------------------------

// thresholdCounts are the confusion counts after binarizing the prediction
// at one threshold (pred >= t).
type thresholdCounts struct {
	tp, fp, tn, fn float64
}

func (p *ProbabilityComparison) countsAt(thresh float64) thresholdCounts {
	return p.cache.getArg("confusion_thr", thresh, func() interface{} {
		var c thresholdCounts
		for i, v := range p.pred.Data {
			pos := v >= thresh
			refPos := p.ref.Data[i] > 0
			switch {
			case pos && refPos:
				c.tp++
			case pos && !refPos:
				c.fp++
			case !pos && refPos:
				c.fn++
			default:
				c.tn++
			}
		}
		return c
	}).(thresholdCounts)
}

func (p *ProbabilityComparison) nPosRef() float64 {
	return p.cache.get("n_pos_ref", func() interface{} { return p.ref.Sum() }).(float64)
}

func (p *ProbabilityComparison) nNegRef() float64 {
	return float64(p.ref.Size()) - p.nPosRef()
}

// SensitivityAt is the true positive rate after binarizing at thresh.
func (p *ProbabilityComparison) SensitivityAt(thresh float64) float64 {
	return ratio(p.countsAt(thresh).tp, p.nPosRef())
}

// SpecificityAt is the true negative rate after binarizing at thresh.
func (p *ProbabilityComparison) SpecificityAt(thresh float64) float64 {
	return ratio(p.countsAt(thresh).tn, p.nNegRef())
}

// PrecisionAt is the positive predictive value after binarizing at thresh,
// or the -1 sentinel under the empty-reference flag.
func (p *ProbabilityComparison) PrecisionAt(thresh float64) float64 {
	if p.cfg.Comparison.Empty {
		return -1
	}
	c := p.countsAt(thresh)
	return ratio(c.tp, c.tp+c.fp)
}

// FPPIAt is the mean false positive count per case (or per trailing-axis
// image when no case identifiers were supplied) after binarizing at thresh.
func (p *ProbabilityComparison) FPPIAt(thresh float64) float64 {
	if p.caseIDs != nil {
		sums := make(map[int]float64)
		for i, v := range p.pred.Data {
			id := p.caseIDs[i]
			if _, ok := sums[id]; !ok {
				sums[id] = 0
			}
			if v >= thresh && p.ref.Data[i] <= 0 {
				sums[id]++
			}
		}
		total, cases := 0.0, 0.0
		for _, s := range sums {
			total += s
			cases++
		}
		return ratio(total, cases)
	}

	images := p.ref.TrailingAxis()
	sums := make([]float64, images)
	for i, v := range p.pred.Data {
		if v >= thresh && p.ref.Data[i] <= 0 {
			sums[i%images]++
		}
	}
	return stat.Mean(sums, nil)
}

// --- threshold sweep ---------------------------------------------------

// Curve returns the cached operating-point table, ordered by strictly
// decreasing threshold. Building it twice from the same inputs yields
// identical tables.
func (p *ProbabilityComparison) Curve() []OperatingPoint {
	return p.cache.get("sweep", func() interface{} {
		thresholds := p.sweepThresholds()
		curve := make([]OperatingPoint, len(thresholds))
		for i, t := range thresholds {
			curve[i] = OperatingPoint{
				Threshold:   t,
				Sensitivity: p.SensitivityAt(t),
				Specificity: p.SpecificityAt(t),
				Precision:   p.PrecisionAt(t),
				FPPI:        p.FPPIAt(t),
			}
		}
		return curve
	}).([]OperatingPoint)
}

// sweepThresholds builds the descending threshold sequence from the
// distinct prediction values. When the distinct count exceeds the
// configured cap and the reference is large enough to matter, value/count
// pairs are coalesced so each retained threshold covers roughly
// size(ref)/maxSamples voxels.
func (p *ProbabilityComparison) sweepThresholds() []float64 {
	values, counts := distinctValues(p.pred.Data)

	var thresholds []float64
	if len(values) <= p.cfg.Sweep.MaxThresholds || p.ref.Size() < p.cfg.Sweep.MaxSamples {
		thresholds = values
	} else {
		binSize := float64(p.ref.Size()) / float64(p.cfg.Sweep.MaxSamples)
		thresholds = append(thresholds, 0)
		acc := 0.0
		for i, v := range values {
			acc += float64(counts[i])
			if acc >= binSize {
				thresholds = append(thresholds, v)
				acc = 0
			}
		}
	}

	sort.Sort(sort.Reverse(sort.Float64Slice(thresholds)))
	return thresholds
}

// distinctValues returns the sorted distinct values of data together with
// their occurrence counts.
func distinctValues(data []float64) ([]float64, []int) {
	sorted := append([]float64(nil), data...)
	sort.Float64s(sorted)
	var values []float64
	var counts []int
	for _, v := range sorted {
		if len(values) == 0 || values[len(values)-1] != v {
			values = append(values, v)
			counts = append(counts, 1)
		} else {
			counts[len(counts)-1]++
		}
	}
	return values, counts
}

// --- curve integrals ---------------------------------------------------

// AUROC integrates sensitivity against the false positive rate over the
// cached curve.
func (p *ProbabilityComparison) AUROC() float64 {
	curve := p.Curve()
	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, pt := range curve {
		xs[i] = 1 - pt.Specificity
		ys[i] = pt.Sensitivity
	}
	return trapezoid(xs, ys)
}

// AveragePrecision integrates precision against sensitivity over the
// cached curve.
func (p *ProbabilityComparison) AveragePrecision() float64 {
	curve := p.Curve()
	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, pt := range curve {
		xs[i] = pt.Sensitivity
		ys[i] = pt.Precision
	}
	return trapezoid(xs, ys)
}

// FROC integrates sensitivity against false positives per case over the
// cached curve.
func (p *ProbabilityComparison) FROC() float64 {
	curve := p.Curve()
	xs := make([]float64, len(curve))
	ys := make([]float64, len(curve))
	for i, pt := range curve {
		xs[i] = pt.FPPI
		ys[i] = pt.Sensitivity
	}
	return trapezoid(xs, ys)
}

// trapezoid wraps gonum's trapezoidal rule; a degenerate curve (fewer than
// two points) has no integral.
func trapezoid(xs, ys []float64) float64 {
	if len(xs) < 2 {
		return math.NaN()
	}
	return integrate.Trapezoidal(xs, ys)
}

// --- operating-point queries --------------------------------------------

// maxWhere returns the maximum target value over the curve rows whose
// constraint satisfies keep, or NaN when no row qualifies.
func maxWhere(curve []OperatingPoint, target, constraint func(OperatingPoint) float64, keep func(float64) bool) float64 {
	best := math.NaN()
	for _, pt := range curve {
		if !keep(constraint(pt)) {
			continue
		}
		v := target(pt)
		if math.IsNaN(best) || v > best {
			best = v
		}
	}
	return best
}

// SensitivityAtSpecificity is the best sensitivity among operating points
// with at least the configured specificity.
func (p *ProbabilityComparison) SensitivityAtSpecificity() float64 {
	v := p.cfg.Params.ValueSpecificity
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(pt OperatingPoint) float64 { return pt.Specificity },
		func(c float64) bool { return c >= v })
}

// SpecificityAtSensitivity is the best specificity among operating points
// with at least the configured sensitivity.
func (p *ProbabilityComparison) SpecificityAtSensitivity() float64 {
	v := p.cfg.Params.ValueSensitivity
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.Specificity },
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(c float64) bool { return c >= v })
}

// PrecisionAtSensitivity is the best precision among operating points with
// at least the configured sensitivity.
func (p *ProbabilityComparison) PrecisionAtSensitivity() float64 {
	v := p.cfg.Params.ValueSensitivity
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.Precision },
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(c float64) bool { return c >= v })
}

// FPPIAtSensitivity is the largest false-positive burden among operating
// points with at least the configured sensitivity.
func (p *ProbabilityComparison) FPPIAtSensitivity() float64 {
	v := p.cfg.Params.ValueSensitivity
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.FPPI },
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(c float64) bool { return c >= v })
}

// SensitivityAtFPPI is the best sensitivity among operating points with at
// most the configured false positives per case.
func (p *ProbabilityComparison) SensitivityAtFPPI() float64 {
	v := p.cfg.Params.ValueFPPI
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(pt OperatingPoint) float64 { return pt.FPPI },
		func(c float64) bool { return c <= v })
}

// SensitivityAtPrecision is the best sensitivity among operating points
// with at least the configured precision.
func (p *ProbabilityComparison) SensitivityAtPrecision() float64 {
	v := p.cfg.Params.ValuePPV
	return maxWhere(p.Curve(),
		func(pt OperatingPoint) float64 { return pt.Sensitivity },
		func(pt OperatingPoint) float64 { return pt.Precision },
		func(c float64) bool { return c >= v })
}

// --- calibration and utility measures ------------------------------------

// CalibrationError bins predictions into equal-width probability bins and
// accumulates the count-weighted absolute gap between the empirical
// positive rate and the mean predicted probability of each bin.
func (p *ProbabilityComparison) CalibrationError() float64 {
	nbins := p.cfg.Params.BinsECE
	step := 1.0 / float64(nbins)
	weighted := 0.0
	total := 0.0
	for bin := 0; bin < nbins; bin++ {
		lo := float64(bin) * step
		hi := float64(bin+1) * step
		count, posSum, predSum := 0.0, 0.0, 0.0
		for i, v := range p.pred.Data {
			if v > lo && v <= hi {
				count++
				posSum += p.ref.Data[i]
				predSum += v
			}
		}
		if count == 0 {
			continue
		}
		weighted += count * math.Abs(posSum/count-predSum/count)
		total += count
	}
	return ratio(weighted, total)
}

// NetBenefit is the treated net benefit at the configured decision
// threshold: the true positive rate discounted by the odds-weighted false
// positive rate.
func (p *ProbabilityComparison) NetBenefit() float64 {
	thresh := p.cfg.Params.BenefitProba
	c := p.countsAt(thresh)
	n := float64(p.pred.Size())
	return c.tp/n - c.fp/n*(thresh/(1-thresh))
}

// --- registry --------------------------------------------------------

// probabilityRegistry is the closed set of probability-mask metric keys.
var probabilityRegistry = map[string]func(*ProbabilityComparison) Result{
	"auroc":       func(p *ProbabilityComparison) Result { return Scalar(p.AUROC()) },
	"ap":          func(p *ProbabilityComparison) Result { return Scalar(p.AveragePrecision()) },
	"froc":        func(p *ProbabilityComparison) Result { return Scalar(p.FROC()) },
	"sens@spec":   func(p *ProbabilityComparison) Result { return Scalar(p.SensitivityAtSpecificity()) },
	"spec@sens":   func(p *ProbabilityComparison) Result { return Scalar(p.SpecificityAtSensitivity()) },
	"ppv@sens":    func(p *ProbabilityComparison) Result { return Scalar(p.PrecisionAtSensitivity()) },
	"sens@ppv":    func(p *ProbabilityComparison) Result { return Scalar(p.SensitivityAtPrecision()) },
	"fppi@sens":   func(p *ProbabilityComparison) Result { return Scalar(p.FPPIAtSensitivity()) },
	"sens@fppi":   func(p *ProbabilityComparison) Result { return Scalar(p.SensitivityAtFPPI()) },
	"ece":         func(p *ProbabilityComparison) Result { return Scalar(p.CalibrationError()) },
	"net_benefit": func(p *ProbabilityComparison) Result { return Scalar(p.NetBenefit()) },
}

// ProbabilityMetricKeys lists every supported probability-mask metric key
// in sorted order.
func ProbabilityMetricKeys() []string {
	keys := make([]string, 0, len(probabilityRegistry))
	for k := range probabilityRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compute evaluates the requested metric keys and returns structured
// results. An unknown key fails the whole request.
func (p *ProbabilityComparison) Compute(keys []string) (map[string]Result, error) {
	out := make(map[string]Result, len(keys))
	for _, key := range keys {
		fn, ok := probabilityRegistry[key]
		if !ok {
			return nil, fmt.Errorf("unknown probability metric key %q", key)
		}
		out[key] = fn(p)
	}
	return out, nil
}

// ToDict evaluates the requested metric keys and formats every result as a
// fixed-precision string.
func (p *ProbabilityComparison) ToDict(keys []string) (map[string]string, error) {
	results, err := p.Compute(keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(results))
	for k, r := range results {
		out[k] = r.Format()
	}
	return out, nil
}
