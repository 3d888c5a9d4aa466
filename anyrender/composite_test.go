package anyrender

import (
	"math"
	"math/rand"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestWeightsBounded(t *testing.T) {
	const numRays = 5
	const numSamples = 16
	depths := packDepths(LinearDepths(0, 1, numSamples), numRays)
	densities := make([]float64, len(depths))
	for i := range densities {
		densities[i] = rand.ExpFloat64() * float64(i%numRays)
	}
	weights := Weights(densities, depths, numRays)
	for r := 0; r < numRays; r++ {
		var sum float64
		for s := 0; s < numSamples; s++ {
			w := weights[s*numRays+r]
			if w < 0 {
				t.Errorf("ray %d sample %d: negative weight %f", r, s, w)
			}
			sum += w
		}
		if sum > 1+1e-8 {
			t.Errorf("ray %d: weights sum to %f", r, sum)
		}
		if r == 0 && sum != 0 {
			t.Errorf("empty ray should have zero weight but has %f", sum)
		}
	}
}

func TestCompositeOpaqueFirstSample(t *testing.T) {
	depths := []float64{0.1, 0.4, 0.7}
	densities := anydiff.NewConst(anyvec64.MakeVectorData([]float64{1e6, 3, 5}))
	colors := anydiff.NewConst(anyvec64.MakeVectorData([]float64{
		0.2, 0.4, 0.6,
		1, 1, 1,
		0.5, 0, 0.5,
	}))
	out := Composite(colors, densities, depths, 1).Output().Data().([]float64)
	expected := []float64{0.2, 0.4, 0.6, 0.1}
	for i, x := range expected {
		if math.Abs(out[i]-x) > 1e-6 {
			t.Errorf("output %d: expected %f but got %f", i, x, out[i])
		}
	}
}

func TestCompositeKnown(t *testing.T) {
	depths := []float64{0, 0.5}
	densities := anydiff.NewConst(anyvec64.MakeVectorData([]float64{2, 1}))
	colors := anydiff.NewConst(anyvec64.MakeVectorData([]float64{
		1, 0, 0,
		0, 1, 0,
	}))
	out := Composite(colors, densities, depths, 1).Output().Data().([]float64)

	alpha0 := 1 - math.Exp(-1)
	w1 := (math.Exp(-1) + 1e-10) * 1
	expected := []float64{alpha0, w1, 0, w1 * 0.5}
	for i, x := range expected {
		if math.Abs(out[i]-x) > 1e-8 {
			t.Errorf("output %d: expected %f but got %f", i, x, out[i])
		}
	}
}

func TestCompositeProp(t *testing.T) {
	const numRays = 3
	const numSamples = 4
	depths := packDepths(LinearDepths(0.1, 0.9, numSamples), numRays)
	colors := anydiff.NewVar(anyvec64.MakeVector(3 * numRays * numSamples))
	densities := anydiff.NewVar(anyvec64.MakeVector(numRays * numSamples))
	anyvec.Rand(colors.Vector, anyvec.Uniform, nil)
	anyvec.Rand(densities.Vector, anyvec.Uniform, nil)
	densities.Vector.Scale(densities.Vector.Creator().MakeNumeric(3))
	densities.Vector.AddScalar(densities.Vector.Creator().MakeNumeric(0.5))

	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return Composite(colors, densities, depths, numRays)
		},
		V: []*anydiff.Var{colors, densities},
	}
	checker.FullCheck(t)
}

func TestCompositeBadSizes(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Error("expected panic")
		}
	}()
	colors := anydiff.NewConst(anyvec64.MakeVector(3 * 4))
	densities := anydiff.NewConst(anyvec64.MakeVector(3))
	Composite(colors, densities, []float64{0, 0.5, 0.7, 1}, 2)
}

func packDepths(base []float64, numRays int) []float64 {
	var res []float64
	for _, t := range base {
		for i := 0; i < numRays; i++ {
			res = append(res, t)
		}
	}
	return res
}
