package anynerf

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestMSE(t *testing.T) {
	testCost(t, MSE{}, []float64{
		1, 0.5, 2,
		3, -1, 2,
	}, []float64{
		-1, -2, -3,
		-2, -3, -1,
	}, []float64{11 + 3.0/4, 12 + 2.0/3}, 2)
}

func TestMeanCost(t *testing.T) {
	desired := anydiff.NewConst(anyvec64.MakeVectorData([]float64{
		1, 0.5, 2,
		3, -1, 2,
	}))
	actual := anydiff.NewVar(anyvec64.MakeVectorData([]float64{
		-1, -2, -3,
		-2, -3, -1,
	}))
	res := MeanCost(MSE{}, desired, actual, 2).Output().Data().([]float64)
	expected := (11 + 3.0/4 + 12 + 2.0/3) / 2
	if len(res) != 1 || math.Abs(res[0]-expected) > 1e-8 {
		t.Errorf("expected %f but got %v", expected, res)
	}

	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return MeanCost(MSE{}, desired, actual, 2)
		},
		V: []*anydiff.Var{actual},
	}
	checker.FullCheck(t)
}

func TestPSNR(t *testing.T) {
	if actual := PSNR(0.01); math.Abs(actual-20) > 1e-8 {
		t.Errorf("expected 20 but got %f", actual)
	}
	if actual := PSNR(1); math.Abs(actual) > 1e-8 {
		t.Errorf("expected 0 but got %f", actual)
	}
}

func testCost(t *testing.T, c Cost, desired, output, expected []float64, n int) {
	desiredRes := anydiff.NewConst(anyvec64.MakeVectorData(desired))
	outputRes := anydiff.NewConst(anyvec64.MakeVectorData(output))

	actual := c.Cost(desiredRes, outputRes, n).Output().Data().([]float64)

	for i, x := range expected {
		a := actual[i]
		if math.IsNaN(a) || math.Abs(x-a) > 1e-3 {
			t.Errorf("component %d: expected %f but got %f", i, x, a)
		}
	}
}
