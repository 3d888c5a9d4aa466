package anycam

import (
	"fmt"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var p Poses
	serializer.RegisterTypedDeserializer(p.SerializerType(), DeserializePoses)
}

// expMapEpsilon keeps the rotation angle away from zero so
// that the exponential map stays finite at r = 0.
const expMapEpsilon = 1e-30

// Poses stores one learnable camera-to-world transform per
// image.
//
// Camera i has an axis-angle rotation Rot[3i:3i+3] and a
// translation Trans[3i:3i+3].
type Poses struct {
	Count int
	Rot   *anydiff.Var
	Trans *anydiff.Var
}

// NewPoses creates count poses whose rotation and
// translation components all equal init.
// An init of 0 yields identity transforms.
func NewPoses(c anyvec.Creator, count int, init float64) *Poses {
	if count <= 0 {
		panic(fmt.Sprintf("invalid camera count: %d", count))
	}
	rot := c.MakeVector(3 * count)
	trans := c.MakeVector(3 * count)
	rot.AddScalar(c.MakeNumeric(init))
	trans.AddScalar(c.MakeNumeric(init))
	return &Poses{
		Count: count,
		Rot:   anydiff.NewVar(rot),
		Trans: anydiff.NewVar(trans),
	}
}

// DeserializePoses deserializes Poses.
func DeserializePoses(d []byte) (*Poses, error) {
	var rot, trans *anyvecsave.S
	if err := serializer.DeserializeAny(d, &rot, &trans); err != nil {
		return nil, essentials.AddCtx("deserialize Poses", err)
	}
	if rot.Vector.Len() != trans.Vector.Len() || rot.Vector.Len()%3 != 0 ||
		rot.Vector.Len() == 0 {
		return nil, fmt.Errorf("deserialize Poses: bad vector sizes %d, %d",
			rot.Vector.Len(), trans.Vector.Len())
	}
	return &Poses{
		Count: rot.Vector.Len() / 3,
		Rot:   anydiff.NewVar(rot.Vector),
		Trans: anydiff.NewVar(trans.Vector),
	}, nil
}

// Forward computes the camera-to-world transform of the
// given camera as a row-major 4x4 matrix.
//
// It panics if id is out of range.
func (p *Poses) Forward(id int) anydiff.Res {
	if id < 0 || id >= p.Count {
		panic(fmt.Sprintf("camera index %d out of range [0, %d)", id, p.Count))
	}
	r := anydiff.Slice(p.Rot, 3*id, 3*(id+1))
	t := anydiff.Slice(p.Trans, 3*id, 3*(id+1))
	return MakeC2W(ExpMap(r), t)
}

// Matrix computes the numerical transform of a camera.
func (p *Poses) Matrix(id int) Pose {
	var res Pose
	copy(res[:], p.Forward(id).Output().Data().([]float64))
	return res
}

// Translations returns the position of every camera.
func (p *Poses) Translations() []r3.Vector {
	data := p.Trans.Vector.Data().([]float64)
	res := make([]r3.Vector, p.Count)
	for i := range res {
		res[i] = r3.Vector{X: data[3*i], Y: data[3*i+1], Z: data[3*i+2]}
	}
	return res
}

// Parameters returns the rotations followed by the
// translations.
func (p *Poses) Parameters() []*anydiff.Var {
	return []*anydiff.Var{p.Rot, p.Trans}
}

// SerializerType returns the unique ID used to serialize
// Poses with the serializer package.
func (p *Poses) SerializerType() string {
	return "github.com/unixpickle/anynerf/anycam.Poses"
}

// Serialize serializes the poses.
func (p *Poses) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		&anyvecsave.S{Vector: p.Rot.Vector},
		&anyvecsave.S{Vector: p.Trans.Vector},
	)
}

// MakeC2W combines a row-major 3x3 rotation and a
// translation 3-vector into a row-major 4x4 transform with
// a bottom row of (0, 0, 0, 1).
func MakeC2W(rot, trans anydiff.Res) anydiff.Res {
	if rot.Output().Len() != 9 || trans.Output().Len() != 3 {
		panic(fmt.Sprintf("bad rotation/translation sizes: %d, %d",
			rot.Output().Len(), trans.Output().Len()))
	}
	return anydiff.Pool(rot, func(rot anydiff.Res) anydiff.Res {
		return anydiff.Pool(trans, func(trans anydiff.Res) anydiff.Res {
			return anydiff.Concat(
				anydiff.Slice(rot, 0, 3), anydiff.Slice(trans, 0, 1),
				anydiff.Slice(rot, 3, 6), anydiff.Slice(trans, 1, 2),
				anydiff.Slice(rot, 6, 9), anydiff.Slice(trans, 2, 3),
				scalarConst(rot.Output().Creator(), 0, 0, 0, 1),
			)
		})
	})
}

// Skew computes the row-major skew-symmetric matrix K of a
// 3-vector v, so that K*x is the cross product of v and x.
func Skew(v anydiff.Res) anydiff.Res {
	if v.Output().Len() != 3 {
		panic(fmt.Sprintf("expected 3-vector but got %d components", v.Output().Len()))
	}
	return anydiff.Pool(v, func(v anydiff.Res) anydiff.Res {
		c := v.Output().Creator()
		neg := anydiff.Scale(v, c.MakeNumeric(-1))
		zero := scalarConst(c, 0)
		return anydiff.Concat(
			zero, anydiff.Slice(neg, 2, 3), anydiff.Slice(v, 1, 2),
			anydiff.Slice(v, 2, 3), zero, anydiff.Slice(neg, 0, 1),
			anydiff.Slice(neg, 1, 2), anydiff.Slice(v, 0, 1), zero,
		)
	})
}

// ExpMap maps an axis-angle 3-vector r to a row-major 3x3
// rotation matrix using Rodrigues' formula:
//
//     R = I + sin(θ)/θ*K + (1-cos(θ))/θ^2*K^2
//
// where θ = |r| and K = Skew(r).
// The result is differentiable with respect to r, and is
// finite even when r = 0.
func ExpMap(r anydiff.Res) anydiff.Res {
	return anydiff.Pool(r, func(r anydiff.Res) anydiff.Res {
		c := r.Output().Creator()
		sqNorm := anydiff.AddScalar(anydiff.Sum(anydiff.Square(r)), c.MakeNumeric(expMapEpsilon))
		return anydiff.Pool(sqNorm, func(sqNorm anydiff.Res) anydiff.Res {
			theta := anydiff.Pow(sqNorm, c.MakeNumeric(0.5))
			return anydiff.Pool(theta, func(theta anydiff.Res) anydiff.Res {
				sinCoeff := anydiff.Mul(anydiff.Sin(theta), anydiff.Pow(sqNorm, c.MakeNumeric(-0.5)))

				// 1-cos(θ) = 2*sin^2(θ/2)
				halfSin := anydiff.Sin(anydiff.Scale(theta, c.MakeNumeric(0.5)))
				cosCoeff := anydiff.Mul(
					anydiff.Scale(anydiff.Square(halfSin), c.MakeNumeric(2)),
					anydiff.Pow(sqNorm, c.MakeNumeric(-1)),
				)

				return anydiff.Pool(Skew(r), func(k anydiff.Res) anydiff.Res {
					kMat := &anydiff.Matrix{Data: k, Rows: 3, Cols: 3}
					kSq := anydiff.MatMul(false, false, kMat, kMat).Data
					identity := scalarConst(c, 1, 0, 0, 0, 1, 0, 0, 0, 1)
					return anydiff.Add(
						anydiff.Add(identity, scaleBy(k, sinCoeff)),
						scaleBy(kSq, cosCoeff),
					)
				})
			})
		})
	})
}
