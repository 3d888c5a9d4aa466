package anycam

import (
	"math"
	"reflect"
	"testing"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anydiff/anydifftest"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvec64"
	"github.com/unixpickle/serializer"
	"gonum.org/v1/gonum/mat"
)

func TestExpMapZero(t *testing.T) {
	r := anydiff.NewConst(anyvec64.MakeVectorData([]float64{0, 0, 0}))
	actual := ExpMap(r).Output().Data().([]float64)
	expected := []float64{1, 0, 0, 0, 1, 0, 0, 0, 1}
	for i, x := range expected {
		if math.IsNaN(actual[i]) || math.Abs(actual[i]-x) > 1e-12 {
			t.Errorf("entry %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func TestExpMapSmall(t *testing.T) {
	r := anydiff.NewConst(anyvec64.MakeVectorData([]float64{1e-7, -2e-7, 3e-7}))
	actual := ExpMap(r).Output().Data().([]float64)
	expected := []float64{
		1, -3e-7, -2e-7,
		3e-7, 1, -1e-7,
		2e-7, 1e-7, 1,
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-12 {
			t.Errorf("entry %d: expected %e but got %e", i, x, actual[i])
		}
	}
}

func TestExpMapQuarterTurn(t *testing.T) {
	r := anydiff.NewConst(anyvec64.MakeVectorData([]float64{0, 0, math.Pi / 2}))
	actual := ExpMap(r).Output().Data().([]float64)
	expected := []float64{
		0, -1, 0,
		1, 0, 0,
		0, 0, 1,
	}
	for i, x := range expected {
		if math.Abs(actual[i]-x) > 1e-8 {
			t.Errorf("entry %d: expected %f but got %f", i, x, actual[i])
		}
	}
}

func TestExpMapOrthonormal(t *testing.T) {
	for i := 0; i < 10; i++ {
		r := anydiff.NewConst(anyvec64.MakeVector(3))
		anyvec.Rand(r.Output(), anyvec.Normal, nil)
		r.Output().Scale(r.Output().Creator().MakeNumeric(float64(i)))

		rot := mat.NewDense(3, 3, ExpMap(r).Output().Data().([]float64))
		if det := mat.Det(rot); math.Abs(det-1) > 1e-8 {
			t.Errorf("trial %d: determinant should be 1 but got %f", i, det)
		}
		var prod mat.Dense
		prod.Mul(rot, rot.T())
		if !mat.EqualApprox(&prod, eye3(), 1e-8) {
			t.Errorf("trial %d: R*R^T should be identity but got %v", i,
				mat.Formatted(&prod))
		}
	}
}

func TestExpMapProp(t *testing.T) {
	r := anydiff.NewVar(anyvec64.MakeVectorData([]float64{0.3, -0.7, 0.2}))
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return ExpMap(r)
		},
		V: []*anydiff.Var{r},
	}
	checker.FullCheck(t)
}

func TestSkew(t *testing.T) {
	v := anydiff.NewConst(anyvec64.MakeVectorData([]float64{1, 2, 3}))
	actual := Skew(v).Output().Data().([]float64)
	expected := []float64{
		0, -3, 2,
		3, 0, -1,
		-2, 1, 0,
	}
	if !reflect.DeepEqual(actual, expected) {
		t.Errorf("expected %v but got %v", expected, actual)
	}
}

func TestPosesForward(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	poses := NewPoses(c, 3, 0)
	poses.Trans.Vector.Set(anyvec64.MakeVectorData([]float64{
		1, 2, 3,
		4, 5, 6,
		7, 8, 9,
	}))
	poses.Rot.Vector.Set(anyvec64.MakeVectorData([]float64{
		0, 0, 0,
		0, 0, math.Pi / 2,
		0.1, 0.2, 0.3,
	}))

	if actual := poses.Matrix(0); actual != (Pose{
		1, 0, 0, 1,
		0, 1, 0, 2,
		0, 0, 1, 3,
		0, 0, 0, 1,
	}) {
		t.Errorf("unexpected identity pose: %v", actual)
	}

	m := poses.Matrix(1)
	expected := Pose{
		0, -1, 0, 4,
		1, 0, 0, 5,
		0, 0, 1, 6,
		0, 0, 0, 1,
	}
	for i, x := range expected {
		if math.Abs(m[i]-x) > 1e-8 {
			t.Errorf("entry %d: expected %f but got %f", i, x, m[i])
		}
	}

	trans := poses.Translations()
	if len(trans) != 3 || trans[2].X != 7 || trans[2].Y != 8 || trans[2].Z != 9 {
		t.Errorf("unexpected translations: %v", trans)
	}
	if tr := poses.Matrix(2).Translation(); tr != trans[2] {
		t.Errorf("expected translation %v but got %v", trans[2], tr)
	}
}

func TestPosesProp(t *testing.T) {
	c := anyvec64.DefaultCreator{}
	poses := NewPoses(c, 2, 0)
	anyvec.Rand(poses.Rot.Vector, anyvec.Normal, nil)
	anyvec.Rand(poses.Trans.Vector, anyvec.Normal, nil)
	checker := &anydifftest.ResChecker{
		F: func() anydiff.Res {
			return poses.Forward(1)
		},
		V: poses.Parameters(),
	}
	checker.FullCheck(t)
}

func TestPosesOutOfRange(t *testing.T) {
	poses := NewPoses(anyvec64.DefaultCreator{}, 2, 0)
	for _, id := range []int{-1, 2} {
		func() {
			defer func() {
				if recover() == nil {
					t.Errorf("camera %d: expected panic", id)
				}
			}()
			poses.Forward(id)
		}()
	}
}

func TestPosesSerialize(t *testing.T) {
	poses := NewPoses(anyvec64.DefaultCreator{}, 4, 0)
	anyvec.Rand(poses.Rot.Vector, anyvec.Normal, nil)
	anyvec.Rand(poses.Trans.Vector, anyvec.Normal, nil)
	data, err := serializer.SerializeAny(poses)
	if err != nil {
		t.Fatal(err)
	}
	var poses1 *Poses
	if err := serializer.DeserializeAny(data, &poses1); err != nil {
		t.Fatal(err)
	}
	if poses1.Count != 4 {
		t.Fatalf("expected 4 cameras but got %d", poses1.Count)
	}
	for i := 0; i < 4; i++ {
		if poses.Matrix(i) != poses1.Matrix(i) {
			t.Errorf("camera %d: transforms differ", i)
		}
	}
}

func TestPoseApply(t *testing.T) {
	p := IdentityPose()
	p[3], p[7], p[11] = 1, 2, 3
	if v := p.Apply(r3.Vector{X: 1, Y: 1, Z: 1}); v != (r3.Vector{X: 2, Y: 3, Z: 4}) {
		t.Errorf("unexpected point: %v", v)
	}
}

func eye3() *mat.Dense {
	return mat.NewDense(3, 3, []float64{1, 0, 0, 0, 1, 0, 0, 0, 1})
}
