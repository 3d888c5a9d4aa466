package anycam

import (
	"github.com/golang/geo/r3"
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// A Pose is a numerical, row-major 4x4 camera-to-world
// transform.
type Pose [16]float64

// IdentityPose returns the transform of a camera at the
// origin looking down the negative z axis.
func IdentityPose() Pose {
	return Pose{
		1, 0, 0, 0,
		0, 1, 0, 0,
		0, 0, 1, 0,
		0, 0, 0, 1,
	}
}

// NewPose creates a pose from the camera's axes (expressed
// in world coordinates) and its position.
func NewPose(x, y, z, center r3.Vector) Pose {
	return Pose{
		x.X, y.X, z.X, center.X,
		x.Y, y.Y, z.Y, center.Y,
		x.Z, y.Z, z.Z, center.Z,
		0, 0, 0, 1,
	}
}

// Translation returns the camera's position.
func (p Pose) Translation() r3.Vector {
	return r3.Vector{X: p[3], Y: p[7], Z: p[11]}
}

// Apply transforms a camera-space point to world space.
func (p Pose) Apply(v r3.Vector) r3.Vector {
	return r3.Vector{
		X: p[0]*v.X + p[1]*v.Y + p[2]*v.Z + p[3],
		Y: p[4]*v.X + p[5]*v.Y + p[6]*v.Z + p[7],
		Z: p[8]*v.X + p[9]*v.Y + p[10]*v.Z + p[11],
	}
}

// Res converts the pose into a constant for use in a
// rendering graph.
func (p Pose) Res(c anyvec.Creator) anydiff.Res {
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(p[:])))
}
