// Package roc builds receiver operating characteristic curves from labels
// that the caller has already sorted ascending by a focus metric.
//
// Point t of the curve treats the first t frames (the least sharp) as
// predicted positives, so TPR and FPR grow from (0,0) toward (1,1). Ties in
// the metric are not resolved here; their order is whatever the caller's
// stable sort produced.
package roc

import (
	"math"

	apperrors "go-focus-evaluator/internal/errors"
	"go-focus-evaluator/pkg/models"
)

// Point is one (FPR, TPR) pair.
type Point struct {
	FPR float64
	TPR float64
}

// Curve is a sequence of points starting at (0,0) and ending at (1,1).
type Curve []Point

// CalcROC returns len(labels)+1 points: one per prefix length 0..n-1 and a
// final (1,1). Both classes must be present.
func CalcROC(sortedLabels []bool) (Curve, error) {
	var positives, negatives int
	for _, l := range sortedLabels {
		if l {
			positives++
		} else {
			negatives++
		}
	}
	if positives == 0 || negatives == 0 {
		return nil, apperrors.NewEmptyClassError(positives, negatives)
	}

	p, n := float64(positives), float64(negatives)
	curve := make(Curve, 0, len(sortedLabels)+1)
	var tp, fp int
	for _, l := range sortedLabels {
		curve = append(curve, Point{FPR: float64(fp) / n, TPR: float64(tp) / p})
		if l {
			tp++
		} else {
			fp++
		}
	}
	curve = append(curve, Point{FPR: 1, TPR: 1})
	return curve, nil
}

// Squared distances closer than this count as a tie.
const tieTolerance = 1e-12

// NearestFPR returns the index and point whose FPR is closest to threshold
// by squared distance. The first index wins ties. An empty curve yields -1.
func (c Curve) NearestFPR(threshold float64) (int, Point) {
	if len(c) == 0 {
		return -1, Point{}
	}
	best := 0
	bestDist := math.Inf(1)
	for i, pt := range c {
		d := (pt.FPR - threshold) * (pt.FPR - threshold)
		if d < bestDist-tieTolerance {
			best, bestDist = i, d
		}
	}
	return best, c[best]
}

// AUC integrates TPR over FPR with the trapezoid rule.
func (c Curve) AUC() float64 {
	var area float64
	for i := 1; i < len(c); i++ {
		area += (c[i].FPR - c[i-1].FPR) * (c[i].TPR + c[i-1].TPR) / 2
	}
	return area
}

// FPRs returns the FPR column.
func (c Curve) FPRs() []float64 {
	out := make([]float64, len(c))
	for i, pt := range c {
		out[i] = pt.FPR
	}
	return out
}

// TPRs returns the TPR column.
func (c Curve) TPRs() []float64 {
	out := make([]float64, len(c))
	for i, pt := range c {
		out[i] = pt.TPR
	}
	return out
}

// Models converts the curve for JSON responses.
func (c Curve) Models() []models.ROCPoint {
	out := make([]models.ROCPoint, len(c))
	for i, pt := range c {
		out[i] = models.ROCPoint{FPR: pt.FPR, TPR: pt.TPR}
	}
	return out
}
