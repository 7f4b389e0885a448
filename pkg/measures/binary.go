package measures

import (
	"fmt"
	"math"
	"sort"

	"gonum.org/v1/gonum/stat"

	"segmeasures/pkg/config"
	"segmeasures/pkg/distance"
	"segmeasures/pkg/grid"
	"segmeasures/pkg/morphology"
	"segmeasures/pkg/skeleton"
)

// BinaryComparison compares one predicted hard mask against one reference
// hard mask. It owns a private memoization cache, so every derived
// artifact (confusion counts, border maps, distance fields, component
// labelings, skeletons) is computed at most once regardless of how many
// measures are requested. Inputs are never mutated.
type BinaryComparison struct {
	pred  *grid.Grid
	ref   *grid.Grid
	cfg   *config.Config
	cache *memoCache
}

// NewBinaryComparison validates the grid pair and wraps it for measure
// requests. A shape mismatch or invalid configuration is rejected here,
// before any metric computation.
func NewBinaryComparison(pred, ref *grid.Grid, cfg *config.Config) (*BinaryComparison, error) {
	if err := grid.CheckPair(pred, ref); err != nil {
		return nil, err
	}
	if cfg == nil {
		cfg = config.DefaultConfig()
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	if err := grid.CheckSpacing(cfg.SpacingFor(pred.Rank()), pred.Rank()); err != nil {
		return nil, err
	}
	return &BinaryComparison{
		pred:  pred,
		ref:   ref,
		cfg:   cfg,
		cache: newMemoCache(),
	}, nil
}

// --- confusion layer -------------------------------------------------

// fpMap marks voxels predicted positive but negative in the reference.
func (b *BinaryComparison) fpMap() []float64 {
	m := make([]float64, b.pred.Size())
	for i := range m {
		if b.pred.Data[i]-b.ref.Data[i] > 0 {
			m[i] = 1
		}
	}
	return m
}

func (b *BinaryComparison) counts() confusionCounts {
	return b.cache.get("confusion", func() interface{} {
		var c confusionCounts
		for i := range b.pred.Data {
			sum := b.ref.Data[i] + b.pred.Data[i]
			switch {
			case sum > 1:
				c.tp++
			case sum < 0.5:
				c.tn++
			case b.pred.Data[i] > b.ref.Data[i]:
				c.fp++
			default:
				c.fn++
			}
		}
		return c
	}).(confusionCounts)
}

// confusionCounts are the four voxel counts every ratio derives from.
// tp+fp+tn+fn always equals the total voxel count.
type confusionCounts struct {
	tp, fp, tn, fn float64
}

// TP returns the true positive voxel count.
func (b *BinaryComparison) TP() float64 { return b.counts().tp }

// FP returns the false positive voxel count.
func (b *BinaryComparison) FP() float64 { return b.counts().fp }

// TN returns the true negative voxel count.
func (b *BinaryComparison) TN() float64 { return b.counts().tn }

// FN returns the false negative voxel count.
func (b *BinaryComparison) FN() float64 { return b.counts().fn }

func (b *BinaryComparison) nPosRef() float64 {
	return b.cache.get("n_pos_ref", func() interface{} { return b.ref.Sum() }).(float64)
}

func (b *BinaryComparison) nNegRef() float64 {
	return float64(b.ref.Size()) - b.nPosRef()
}

func (b *BinaryComparison) nPosPred() float64 {
	return b.cache.get("n_pos_pred", func() interface{} { return b.pred.Sum() }).(float64)
}

func (b *BinaryComparison) nIntersection() float64 {
	return b.cache.get("n_intersection", func() interface{} {
		total := 0.0
		for i := range b.ref.Data {
			total += b.ref.Data[i] * b.pred.Data[i]
		}
		return total
	}).(float64)
}

func (b *BinaryComparison) nUnion() float64 {
	return b.cache.get("n_union", func() interface{} {
		total := 0.0
		for i := range b.ref.Data {
			if b.ref.Data[i]+b.pred.Data[i] > 0.5 {
				total++
			}
		}
		return total
	}).(float64)
}

// Sensitivity is the true positive rate against the reference.
func (b *BinaryComparison) Sensitivity() float64 {
	return ratio(b.TP(), b.nPosRef())
}

// Specificity is the true negative rate against the reference.
func (b *BinaryComparison) Specificity() float64 {
	return ratio(b.TN(), b.nNegRef())
}

// Recall is the true positive rate over tp+fn.
func (b *BinaryComparison) Recall() float64 {
	return ratio(b.TP(), b.TP()+b.FN())
}

// Precision is the positive predictive value. Under the empty-reference
// flag it returns the -1 sentinel instead of a NaN ratio.
func (b *BinaryComparison) Precision() float64 {
	if b.cfg.Comparison.Empty {
		return -1
	}
	return ratio(b.TP(), b.TP()+b.FP())
}

// NegativePredictiveValue is tn over tn+fn.
func (b *BinaryComparison) NegativePredictiveValue() float64 {
	return ratio(b.TN(), b.TN()+b.FN())
}

// Accuracy is the proportion of voxels classified correctly.
func (b *BinaryComparison) Accuracy() float64 {
	c := b.counts()
	return ratio(c.tp+c.tn, c.tp+c.tn+c.fp+c.fn)
}

// BalancedAccuracy averages sensitivity and specificity.
func (b *BinaryComparison) BalancedAccuracy() float64 {
	return 0.5*b.Sensitivity() + 0.5*b.Specificity()
}

// YoudenIndex is sensitivity - specificity + 1.
func (b *BinaryComparison) YoudenIndex() float64 {
	return 1 - b.Specificity() + b.Sensitivity()
}

// Informedness is sensitivity + specificity - 1.
func (b *BinaryComparison) Informedness() float64 {
	return b.Sensitivity() + b.Specificity() - 1
}

// Markedness is precision + NPV - 1.
func (b *BinaryComparison) Markedness() float64 {
	return b.Precision() + b.NegativePredictiveValue() - 1
}

// PositiveLikelihoodRatio is sensitivity over the false positive rate.
func (b *BinaryComparison) PositiveLikelihoodRatio() float64 {
	return ratio(b.Sensitivity(), 1-b.Specificity())
}

// FBeta computes the F-beta score with the configured beta weight. A zero
// denominator yields NaN.
func (b *BinaryComparison) FBeta() float64 {
	beta := b.cfg.Params.Beta
	ppv := b.Precision()
	recall := b.Recall()
	num := (1 + beta*beta) * ppv * recall
	den := beta*beta*ppv + recall
	if den == 0 {
		return math.NaN()
	}
	return num / den
}

// MatthewsCorrelation computes the Matthews correlation coefficient from
// the confusion counts.
func (b *BinaryComparison) MatthewsCorrelation() float64 {
	c := b.counts()
	den := math.Sqrt((c.tp + c.fp) * (c.tp + c.fn) * (c.tn + c.fp) * (c.tn + c.fn))
	return ratio(c.tp*c.tn-c.fp*c.fn, den)
}

// chanceAgreement is the expected matching probability from the class
// marginals of both grids over the values {0, 1}.
func (b *BinaryComparison) chanceAgreement() float64 {
	total := float64(b.ref.Size())
	pPosRef := b.nPosRef() / total
	pPosPred := b.nPosPred() / total
	return pPosRef*pPosPred + (1-pPosRef)*(1-pPosPred)
}

// CohensKappa is the chance-corrected agreement between the two masks.
func (b *BinaryComparison) CohensKappa() float64 {
	pe := b.chanceAgreement()
	po := b.Accuracy()
	return ratio(po-pe, 1-pe)
}

// Dice is the Dice similarity coefficient.
func (b *BinaryComparison) Dice() float64 {
	return ratio(2*b.TP(), b.nPosRef()+b.nPosPred())
}

// IoU is the intersection-over-union (Jaccard) coefficient.
func (b *BinaryComparison) IoU() float64 {
	return ratio(b.nIntersection(), b.nUnion())
}

// IoR is the intersection-over-reference ratio.
func (b *BinaryComparison) IoR() float64 {
	return ratio(b.nIntersection(), b.nPosRef())
}

// VolumeDifference is the absolute positive-volume difference relative to
// the reference volume.
func (b *BinaryComparison) VolumeDifference() float64 {
	return ratio(math.Abs(b.nPosRef()-b.nPosPred()), b.nPosRef())
}

// PredInRef reports (as 0/1) whether the prediction intersects the
// reference at all.
func (b *BinaryComparison) PredInRef() float64 {
	if b.nIntersection() > 0 {
		return 1
	}
	return 0
}

// FPPI is the mean false positive count per image, treating the trailing
// axis as the image index.
func (b *BinaryComparison) FPPI() float64 {
	images := b.ref.TrailingAxis()
	sums := make([]float64, images)
	for i, v := range b.fpMap() {
		sums[i%images] += v
	}
	return stat.Mean(sums, nil)
}

// CentreOfMassDistance is the physical distance between the centres of
// mass of reference and prediction, or -1 under the empty flag.
func (b *BinaryComparison) CentreOfMassDistance() float64 {
	if b.cfg.Comparison.Empty {
		return -1
	}
	comRef := centreOfMass(b.ref)
	comPred := centreOfMass(b.pred)
	pixdim := b.cfg.SpacingFor(b.ref.Rank())
	sum := 0.0
	for axis := range comRef {
		d := comRef[axis] - comPred[axis]
		sum += d * d * pixdim[axis] * pixdim[axis]
	}
	return math.Sqrt(sum)
}

// centreOfMass returns the value-weighted mean coordinate per axis.
func centreOfMass(g *grid.Grid) []float64 {
	com := make([]float64, g.Rank())
	total := 0.0
	for idx, v := range g.Data {
		if v == 0 {
			continue
		}
		coords := g.Coords(idx)
		for axis, c := range coords {
			com[axis] += v * float64(c)
		}
		total += v
	}
	for axis := range com {
		com[axis] = ratio(com[axis], total)
	}
	return com
}

// --- distance layer --------------------------------------------------

// borderData bundles the cached boundary shells and the two directional
// surface-distance maps. The distance maps cover the whole grid and hold
// zero off the respective border.
type borderData struct {
	borderRef     *grid.Grid
	borderPred    *grid.Grid
	refToPred     []float64 // distance to pred border, sampled on ref border
	predToRef     []float64 // distance to ref border, sampled on pred border
	sumBorderRef  float64
	sumBorderPred float64
}

func (b *BinaryComparison) borderDistance() (*borderData, error) {
	v := b.cache.get("border_distance", func() interface{} {
		borderRef := morphology.BorderMap(b.ref)
		borderPred := morphology.BorderMap(b.pred)
		pixdim := b.cfg.SpacingFor(b.ref.Rank())

		fieldRef, err := distance.Transform(borderRef, pixdim)
		if err != nil {
			return err
		}
		fieldPred, err := distance.Transform(borderPred, pixdim)
		if err != nil {
			return err
		}

		d := &borderData{
			borderRef:  borderRef,
			borderPred: borderPred,
			refToPred:  make([]float64, b.ref.Size()),
			predToRef:  make([]float64, b.ref.Size()),
		}
		for i := range borderRef.Data {
			if borderRef.Data[i] > 0 {
				d.refToPred[i] = fieldPred.Data[i]
				d.sumBorderRef++
			}
			if borderPred.Data[i] > 0 {
				d.predToRef[i] = fieldRef.Data[i]
				d.sumBorderPred++
			}
		}
		return d
	})
	if err, ok := v.(error); ok {
		return nil, err
	}
	return v.(*borderData), nil
}

// distanceStats carries the four values shared by the distance measures,
// derived from one cached computation.
type distanceStats struct {
	hausdorff float64
	assd      float64
	hdPerc    float64
	masd      float64
}

// measuredDistance derives all surface-distance statistics at the given
// percentile. When both masks are entirely empty every statistic
// short-circuits to zero.
func (b *BinaryComparison) measuredDistance(perc float64) (distanceStats, error) {
	v := b.cache.getArg("measured_distance", perc, func() interface{} {
		if b.nPosRef()+b.nPosPred() == 0 {
			return distanceStats{}
		}
		d, err := b.borderDistance()
		if err != nil {
			return err
		}

		var s distanceStats
		sumRefToPred, sumPredToRef := 0.0, 0.0
		var refSamples, predSamples []float64
		for i := range d.refToPred {
			if d.borderRef.Data[i] > 0 {
				sumRefToPred += d.refToPred[i]
				refSamples = append(refSamples, d.refToPred[i])
				if d.refToPred[i] > s.hausdorff {
					s.hausdorff = d.refToPred[i]
				}
			}
			if d.borderPred.Data[i] > 0 {
				sumPredToRef += d.predToRef[i]
				predSamples = append(predSamples, d.predToRef[i])
				if d.predToRef[i] > s.hausdorff {
					s.hausdorff = d.predToRef[i]
				}
			}
		}
		s.assd = ratio(sumRefToPred+sumPredToRef, d.sumBorderRef+d.sumBorderPred)
		s.masd = ratio(sumRefToPred, d.sumBorderRef) + ratio(sumPredToRef, d.sumBorderPred)

		// The percentile is taken over the union support of the masks, so
		// interior voxels (distance zero) damp it the way the full-map
		// formulation does.
		var unionRefToPred, unionPredToRef []float64
		for i := range d.refToPred {
			if b.ref.Data[i]+b.pred.Data[i] > 0 {
				unionRefToPred = append(unionRefToPred, d.refToPred[i])
				unionPredToRef = append(unionPredToRef, d.predToRef[i])
			}
		}
		s.hdPerc = math.Max(percentile(unionRefToPred, perc), percentile(unionPredToRef, perc))
		return s
	})
	if err, ok := v.(error); ok {
		return distanceStats{}, err
	}
	return v.(distanceStats), nil
}

// percentile computes the p-th percentile (0..100) with linear
// interpolation over the sorted samples.
func percentile(samples []float64, p float64) float64 {
	if len(samples) == 0 {
		return math.NaN()
	}
	sorted := append([]float64(nil), samples...)
	sort.Float64s(sorted)
	return stat.Quantile(p/100, stat.LinInterp, sorted, nil)
}

// ASSD is the average symmetric surface distance.
func (b *BinaryComparison) ASSD() (float64, error) {
	s, err := b.measuredDistance(b.cfg.Params.HDPercentile)
	return s.assd, err
}

// MASD is the mean average surface distance: the mean of each directional
// sample set, summed.
func (b *BinaryComparison) MASD() (float64, error) {
	s, err := b.measuredDistance(b.cfg.Params.HDPercentile)
	return s.masd, err
}

// Hausdorff is the maximum directional surface distance.
func (b *BinaryComparison) Hausdorff() (float64, error) {
	s, err := b.measuredDistance(b.cfg.Params.HDPercentile)
	return s.hausdorff, err
}

// HausdorffPercentile is the percentile Hausdorff distance at the
// configured percentile.
func (b *BinaryComparison) HausdorffPercentile() (float64, error) {
	s, err := b.measuredDistance(b.cfg.Params.HDPercentile)
	return s.hdPerc, err
}

// NormalisedSurfaceDistance is the fraction of border voxels whose
// directional distance stays below the configured tolerance tau.
func (b *BinaryComparison) NormalisedSurfaceDistance() (float64, error) {
	if b.nPosRef()+b.nPosPred() == 0 {
		return 0, nil
	}
	d, err := b.borderDistance()
	if err != nil {
		return 0, err
	}
	tau := b.cfg.Params.Tau
	within := 0.0
	for i := range d.refToPred {
		if d.borderRef.Data[i] > 0 && d.refToPred[i] < tau {
			within++
		}
		if d.borderPred.Data[i] > 0 && d.predToRef[i] < tau {
			within++
		}
	}
	return ratio(within, d.sumBorderRef+d.sumBorderPred), nil
}

// BoundaryIoU is the Jaccard coefficient restricted to the two boundary
// shells.
func (b *BinaryComparison) BoundaryIoU() (float64, error) {
	d, err := b.borderDistance()
	if err != nil {
		return 0, err
	}
	inter := 0.0
	for i := range d.borderRef.Data {
		if d.borderRef.Data[i] > 0 && d.borderPred.Data[i] > 0 {
			inter++
		}
	}
	return ratio(inter, d.sumBorderRef+d.sumBorderPred-inter), nil
}

// --- component layer -------------------------------------------------

// componentData bundles the independent labelings and the set of
// component ids touching the voxel-wise intersection.
type componentData struct {
	ref         *morphology.Labeling
	pred        *morphology.Labeling
	matchedRef  map[int]bool
	matchedPred map[int]bool
}

func (b *BinaryComparison) components() *componentData {
	return b.cache.get("connected_components", func() interface{} {
		neigh := b.cfg.Comparison.NumNeighbors
		d := &componentData{
			ref:         morphology.Components(b.ref, neigh),
			pred:        morphology.Components(b.pred, neigh),
			matchedRef:  make(map[int]bool),
			matchedPred: make(map[int]bool),
		}
		for i := range b.ref.Data {
			if b.ref.Data[i]*b.pred.Data[i] > 0 {
				if l := int(d.ref.Labels.Data[i]); l > 0 {
					d.matchedRef[l] = true
				}
				if l := int(d.pred.Labels.Data[i]); l > 0 {
					d.matchedPred[l] = true
				}
			}
		}
		return d
	}).(*componentData)
}

// ConnectedElements counts matched reference components, unmatched
// prediction components (over-segmentation) and unmatched reference
// components (under-segmentation).
func (b *BinaryComparison) ConnectedElements() (tp, fp, fn int) {
	d := b.components()
	return len(d.matchedRef), d.pred.Count - len(d.matchedPred), d.ref.Count - len(d.matchedRef)
}

// errorMaps partitions voxels into matched-component (tpc), unmatched
// reference (fnc) and unmatched prediction (fpc) masks.
type errorMaps struct {
	tpc, fnc, fpc []float64
}

func (b *BinaryComparison) connectedErrorMaps() *errorMaps {
	return b.cache.get("connected_errormaps", func() interface{} {
		d := b.components()
		m := &errorMaps{
			tpc: make([]float64, b.ref.Size()),
			fnc: make([]float64, b.ref.Size()),
			fpc: make([]float64, b.ref.Size()),
		}
		for i := range b.ref.Data {
			if l := int(d.ref.Labels.Data[i]); l > 0 {
				if d.matchedRef[l] {
					m.tpc[i] = 1
				} else {
					m.fnc[i] = 1
				}
			}
			if l := int(d.pred.Labels.Data[i]); l > 0 {
				if d.matchedPred[l] {
					m.tpc[i] = 1
				} else {
					m.fpc[i] = 1
				}
			}
		}
		return m
	}).(*errorMaps)
}

// OutlineError measures voxel-level disagreement strictly inside matched
// components, normalized by the total positive volume of both masks.
// It returns (ratio, false-positive voxels, false-negative voxels).
func (b *BinaryComparison) OutlineError() (oer float64, oefp, oefn float64) {
	m := b.connectedErrorMaps()
	for i := range m.tpc {
		if m.tpc[i] == 0 {
			continue
		}
		switch b.ref.Data[i] - b.pred.Data[i] {
		case 1:
			oefn++
		case -1:
			oefp++
		}
	}
	oer = ratio(2*(oefn+oefp), b.nPosRef()+b.nPosPred())
	return oer, oefp, oefn
}

// DetectionError sums the voxels of entirely unmatched components.
// It returns (total, false-positive voxels, false-negative voxels).
func (b *BinaryComparison) DetectionError() (de, defp, defn float64) {
	m := b.connectedErrorMaps()
	for i := range m.fnc {
		defn += m.fnc[i]
		defp += m.fpc[i]
	}
	return defn + defp, defp, defn
}

// --- topology layer --------------------------------------------------

type skeletonPair struct {
	ref  *grid.Grid
	pred *grid.Grid
}

func (b *BinaryComparison) skeletons() (*skeletonPair, error) {
	v := b.cache.get("skeletons", func() interface{} {
		skRef, err := skeleton.Skeletonize(b.ref)
		if err != nil {
			return err
		}
		skPred, err := skeleton.Skeletonize(b.pred)
		if err != nil {
			return err
		}
		return &skeletonPair{ref: skRef, pred: skPred}
	})
	if err, ok := v.(error); ok {
		return nil, err
	}
	return v.(*skeletonPair), nil
}

// TopologyPrecision is the fraction of the predicted centreline covered by
// the reference mask.
func (b *BinaryComparison) TopologyPrecision() (float64, error) {
	sk, err := b.skeletons()
	if err != nil {
		return 0, err
	}
	num, den := 0.0, 0.0
	for i := range sk.pred.Data {
		num += sk.pred.Data[i] * b.ref.Data[i]
		den += sk.pred.Data[i]
	}
	return ratio(num, den), nil
}

// TopologySensitivity is the fraction of the reference centreline covered
// by the predicted mask.
func (b *BinaryComparison) TopologySensitivity() (float64, error) {
	sk, err := b.skeletons()
	if err != nil {
		return 0, err
	}
	num, den := 0.0, 0.0
	for i := range sk.ref.Data {
		num += sk.ref.Data[i] * b.pred.Data[i]
		den += sk.ref.Data[i]
	}
	return ratio(num, den), nil
}

// CentrelineDice is the harmonic mean of topology precision and
// sensitivity.
func (b *BinaryComparison) CentrelineDice() (float64, error) {
	prec, err := b.TopologyPrecision()
	if err != nil {
		return 0, err
	}
	sens, err := b.TopologySensitivity()
	if err != nil {
		return 0, err
	}
	return ratio(2*prec*sens, prec+sens), nil
}

// --- registry --------------------------------------------------------

// binaryRegistry is the closed set of hard-mask metric keys. Requesting a
// key outside the registry is a fatal lookup failure.
var binaryRegistry = map[string]func(*BinaryComparison) (Result, error){
	"accuracy":          noErr(func(b *BinaryComparison) Result { return Scalar(b.Accuracy()) }),
	"balanced_accuracy": noErr(func(b *BinaryComparison) Result { return Scalar(b.BalancedAccuracy()) }),
	"cohens_kappa":      noErr(func(b *BinaryComparison) Result { return Scalar(b.CohensKappa()) }),
	"lr+":               noErr(func(b *BinaryComparison) Result { return Scalar(b.PositiveLikelihoodRatio()) }),
	"iou":               noErr(func(b *BinaryComparison) Result { return Scalar(b.IoU()) }),
	"ior":               noErr(func(b *BinaryComparison) Result { return Scalar(b.IoR()) }),
	"dice":              noErr(func(b *BinaryComparison) Result { return Scalar(b.Dice()) }),
	"fbeta":             noErr(func(b *BinaryComparison) Result { return Scalar(b.FBeta()) }),
	"youden_ind":        noErr(func(b *BinaryComparison) Result { return Scalar(b.YoudenIndex()) }),
	"mcc":               noErr(func(b *BinaryComparison) Result { return Scalar(b.MatthewsCorrelation()) }),
	"sens":              noErr(func(b *BinaryComparison) Result { return Scalar(b.Sensitivity()) }),
	"spec":              noErr(func(b *BinaryComparison) Result { return Scalar(b.Specificity()) }),
	"ppv":               noErr(func(b *BinaryComparison) Result { return Scalar(b.Precision()) }),
	"npv":               noErr(func(b *BinaryComparison) Result { return Scalar(b.NegativePredictiveValue()) }),
	"informedness":      noErr(func(b *BinaryComparison) Result { return Scalar(b.Informedness()) }),
	"markedness":        noErr(func(b *BinaryComparison) Result { return Scalar(b.Markedness()) }),
	"vol_diff":          noErr(func(b *BinaryComparison) Result { return Scalar(b.VolumeDifference()) }),
	"fppi":              noErr(func(b *BinaryComparison) Result { return Scalar(b.FPPI()) }),
	"com_dist":          noErr(func(b *BinaryComparison) Result { return Scalar(b.CentreOfMassDistance()) }),
	"pred_in_ref":       noErr(func(b *BinaryComparison) Result { return Scalar(b.PredInRef()) }),

	"assd":         scalarErr((*BinaryComparison).ASSD),
	"masd":         scalarErr((*BinaryComparison).MASD),
	"hd":           scalarErr((*BinaryComparison).Hausdorff),
	"hd_perc":      scalarErr((*BinaryComparison).HausdorffPercentile),
	"nsd":          scalarErr((*BinaryComparison).NormalisedSurfaceDistance),
	"boundary_iou": scalarErr((*BinaryComparison).BoundaryIoU),

	"centreline_dsc": scalarErr((*BinaryComparison).CentrelineDice),
	"topology_prec":  scalarErr((*BinaryComparison).TopologyPrecision),
	"topology_sens":  scalarErr((*BinaryComparison).TopologySensitivity),

	"connected_elements": noErr(func(b *BinaryComparison) Result {
		tp, fp, fn := b.ConnectedElements()
		return Tuple(float64(tp), float64(fp), float64(fn))
	}),
	"outline_error": noErr(func(b *BinaryComparison) Result {
		oer, oefp, oefn := b.OutlineError()
		return Tuple(oer, oefp, oefn)
	}),
	"detection_error": noErr(func(b *BinaryComparison) Result {
		de, defp, defn := b.DetectionError()
		return Tuple(de, defp, defn)
	}),
}

func noErr(f func(*BinaryComparison) Result) func(*BinaryComparison) (Result, error) {
	return func(b *BinaryComparison) (Result, error) { return f(b), nil }
}

func scalarErr(f func(*BinaryComparison) (float64, error)) func(*BinaryComparison) (Result, error) {
	return func(b *BinaryComparison) (Result, error) {
		v, err := f(b)
		if err != nil {
			return Result{}, err
		}
		return Scalar(v), nil
	}
}

// BinaryMetricKeys lists every supported hard-mask metric key in sorted
// order.
func BinaryMetricKeys() []string {
	keys := make([]string, 0, len(binaryRegistry))
	for k := range binaryRegistry {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// Compute evaluates the requested metric keys and returns structured
// results. An unknown key fails the whole request.
func (b *BinaryComparison) Compute(keys []string) (map[string]Result, error) {
	out := make(map[string]Result, len(keys))
	for _, key := range keys {
		fn, ok := binaryRegistry[key]
		if !ok {
			return nil, fmt.Errorf("unknown binary metric key %q", key)
		}
		res, err := fn(b)
		if err != nil {
			return nil, fmt.Errorf("metric %q: %w", key, err)
		}
		out[key] = res
	}
	return out, nil
}

// ToDict evaluates the requested metric keys and formats every result as a
// fixed-precision string, mirroring the tabular reporting of callers.
func (b *BinaryComparison) ToDict(keys []string) (map[string]string, error) {
	results, err := b.Compute(keys)
	if err != nil {
		return nil, err
	}
	out := make(map[string]string, len(results))
	for k, r := range results {
		out[k] = r.Format()
	}
	return out, nil
}
