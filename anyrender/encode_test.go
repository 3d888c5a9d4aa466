package anyrender

import (
	"math"
	"testing"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
)

func TestEncodeValues(t *testing.T) {
	in := anydiff.NewConst(anyvec64.MakeVectorData([]float64{0.25, -0.5}))
	actual := Encode(in, 2, 2, true).Output().Data().([]float64)
	expected := []float64{
		0.25, -0.5,
		math.Sin(math.Pi / 4), math.Sin(-math.Pi / 2),
		math.Cos(math.Pi / 4), math.Cos(-math.Pi / 2),
		math.Sin(math.Pi / 2), math.Sin(-math.Pi),
		math.Cos(math.Pi / 2), math.Cos(-math.Pi),
	}
	if len(actual) != len(expected) {
		t.Fatalf("expected %d features but got %d", len(expected), len(actual))
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-12 {
			t.Errorf("feature %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func TestEncodeSize(t *testing.T) {
	if n := EncodedSize(3, 10, true); n != 63 {
		t.Errorf("position encoding should have 63 features but has %d", n)
	}
	if n := EncodedSize(3, 4, true); n != 27 {
		t.Errorf("direction encoding should have 27 features but has %d", n)
	}
	in := anydiff.NewConst(anyvec64.MakeVector(3 * 7))
	for _, include := range []bool{false, true} {
		out := Encode(in, 3, 5, include)
		if out.Output().Len() != 7*EncodedSize(3, 5, include) {
			t.Errorf("include=%v: bad output length %d", include, out.Output().Len())
		}
	}
}

func TestEncodePure(t *testing.T) {
	in := anydiff.NewConst(anyvec64.MakeVector(3 * 4))
	anyvec.Rand(in.Output(), anyvec.Normal, nil)
	out1 := Encode(in, 3, 4, true).Output().Data().([]float64)
	out2 := Encode(in, 3, 4, true).Output().Data().([]float64)
	for i, x := range out1 {
		if x != out2[i] {
			t.Fatalf("feature %d differs: %f and %f", i, x, out2[i])
		}
	}
}

func TestEncodePlanes(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	rowMajor := c.MakeVector(3 * 5)
	anyvec.Rand(rowMajor, anyvec.Normal, nil)
	data := rowMajor.Data().([]float64)
	var planes []anydiff.Res
	for ch := 0; ch < 3; ch++ {
		plane := make([]float64, 5)
		for i := range plane {
			plane[i] = data[i*3+ch]
		}
		planes = append(planes, anydiff.NewConst(anyvec64.MakeVectorData(plane)))
	}
	expected := Encode(anydiff.NewConst(rowMajor), 3, 3, true).Output().Data().([]float64)
	actual := EncodePlanes(planes, 3, true).Output().Data().([]float64)
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-12 {
			t.Errorf("feature %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func TestEncodeProp(t *testing.T) {
	in := anydiff.NewVar(anyvec64.MakeVector(3 * 2))
	anyvec.Rand(in.Vector, anyvec.Normal, nil)
	planes := []*anydiff.Var{
		anydiff.NewVar(anyvec64.MakeVector(4)),
		anydiff.NewVar(anyvec64.MakeVector(4)),
	}
	for _, p := range planes {
		anyvec.Rand(p.Vector, anyvec.Normal, nil)
	}
	t.Run("RowMajor", func(t *testing.T) {
		checker := &anydifftest.ResChecker{
			F: func() anydiff.Res {
				return Encode(in, 3, 3, true)
			},
			V: []*anydiff.Var{in},
		}
		checker.FullCheck(t)
	})
	t.Run("Planes", func(t *testing.T) {
		checker := &anydifftest.ResChecker{
			F: func() anydiff.Res {
				return EncodePlanes([]anydiff.Res{planes[0], planes[1]}, 2, false)
			},
			V: planes,
		}
		checker.FullCheck(t)
	})
}
