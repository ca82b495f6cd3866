package roc

import (
	"math/rand"
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/google/go-cmp/cmp/cmpopts"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	apperrors "go-focus-evaluator/internal/errors"
)

// quadraticROC recomputes every prefix from scratch.
func quadraticROC(labels []bool) Curve {
	var p, n float64
	for _, l := range labels {
		if l {
			p++
		} else {
			n++
		}
	}
	var c Curve
	for t := 0; t < len(labels); t++ {
		var tp, fp float64
		for _, l := range labels[:t] {
			if l {
				tp++
			} else {
				fp++
			}
		}
		c = append(c, Point{FPR: fp / n, TPR: tp / p})
	}
	return append(c, Point{FPR: 1, TPR: 1})
}

func TestCalcROC_PerfectClassifier(t *testing.T) {
	curve, err := CalcROC([]bool{true, true, true, false, false, false})
	require.NoError(t, err)

	want := Curve{{0, 0}, {0, 1.0 / 3}, {0, 2.0 / 3}, {0, 1}, {1.0 / 3, 1}, {2.0 / 3, 1}, {1, 1}}
	if diff := cmp.Diff(want, curve, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("curve mismatch (-want +got):\n%s", diff)
	}
	assert.InDelta(t, 1.0, curve.AUC(), 1e-12)
}

func TestCalcROC_OutOfFocusFirst(t *testing.T) {
	// Labels false first: FPR saturates before TPR moves.
	curve, err := CalcROC([]bool{false, false, false, true, true, true})
	require.NoError(t, err)

	want := Curve{{0, 0}, {1.0 / 3, 0}, {2.0 / 3, 0}, {1, 0}, {1, 1.0 / 3}, {1, 2.0 / 3}, {1, 1}}
	if diff := cmp.Diff(want, curve, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
		t.Errorf("curve mismatch (-want +got):\n%s", diff)
	}
}

func TestCalcROC_AntiOrdered(t *testing.T) {
	curve, err := CalcROC([]bool{false, false, true, true})
	require.NoError(t, err)
	assert.Equal(t, 0.0, curve.AUC())
}

func TestCalcROC_EmptyClass(t *testing.T) {
	for _, labels := range [][]bool{nil, {true, true}, {false}} {
		_, err := CalcROC(labels)
		assert.True(t, apperrors.IsType(err, apperrors.ErrorTypeEmptyClass), "labels %v", labels)
	}
}

func TestCalcROC_Properties(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for trial := 0; trial < 50; trial++ {
		n := 2 + rng.Intn(60)
		labels := make([]bool, n)
		for i := range labels {
			labels[i] = rng.Intn(2) == 1
		}
		labels[0], labels[n-1] = true, false

		curve, err := CalcROC(labels)
		require.NoError(t, err)

		require.Len(t, curve, n+1)
		assert.Equal(t, Point{0, 0}, curve[0])
		assert.Equal(t, Point{1, 1}, curve[n])
		for i := 1; i < len(curve); i++ {
			assert.GreaterOrEqual(t, curve[i].FPR, curve[i-1].FPR)
			assert.GreaterOrEqual(t, curve[i].TPR, curve[i-1].TPR)
		}
		for _, pt := range curve {
			assert.True(t, pt.FPR >= 0 && pt.FPR <= 1)
			assert.True(t, pt.TPR >= 0 && pt.TPR <= 1)
		}

		if diff := cmp.Diff(quadraticROC(labels), curve, cmpopts.EquateApprox(0, 1e-12)); diff != "" {
			t.Fatalf("trial %d: linear pass differs from prefix recount (-want +got):\n%s", trial, diff)
		}
	}
}

func TestCalcROC_RandomOrderNearDiagonal(t *testing.T) {
	rng := rand.New(rand.NewSource(42))
	labels := make([]bool, 20000)
	for i := range labels {
		labels[i] = rng.Intn(2) == 1
	}
	curve, err := CalcROC(labels)
	require.NoError(t, err)
	assert.InDelta(t, 0.5, curve.AUC(), 0.02)
}

func TestNearestFPR(t *testing.T) {
	curve := Curve{{0, 0}, {0.1, 0.6}, {0.3, 0.8}, {0.5, 0.9}, {1, 1}}
	idx, pt := curve.NearestFPR(0.2)
	assert.Equal(t, 1, idx)
	assert.Equal(t, Point{0.1, 0.6}, pt)

	idx, pt = curve.NearestFPR(0.45)
	assert.Equal(t, 3, idx)
	assert.Equal(t, 0.9, pt.TPR)

	// Equal FPR values: the first one wins.
	flat := Curve{{0, 0}, {0, 0.5}, {0, 1}, {1, 1}}
	idx, _ = flat.NearestFPR(0.05)
	assert.Equal(t, 0, idx)

	idx, _ = Curve(nil).NearestFPR(0.05)
	assert.Equal(t, -1, idx)
}

func TestColumns(t *testing.T) {
	curve := Curve{{0, 0}, {0.5, 1}, {1, 1}}
	assert.Equal(t, []float64{0, 0.5, 1}, curve.FPRs())
	assert.Equal(t, []float64{0, 1, 1}, curve.TPRs())
	assert.Len(t, curve.Models(), 3)
}
