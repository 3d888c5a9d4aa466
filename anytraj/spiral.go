// Package anytraj generates and plots camera trajectories.
package anytraj

import (
	"math"
	"sort"

	"github.com/golang/geo/r3"
	"github.com/unixpickle/anynerf/anycam"
	"gonum.org/v1/gonum/stat"
)

// SpiralRadiusQuantile is the quantile of the absolute
// camera offsets used as the spiral's radius on each axis.
const SpiralRadiusQuantile = 0.75

// SpiralRadii computes the radius of a spiral on each axis
// from the positions of a set of cameras.
func SpiralRadii(positions []r3.Vector) r3.Vector {
	if len(positions) == 0 {
		return r3.Vector{}
	}
	axis := func(f func(v r3.Vector) float64) float64 {
		vals := make([]float64, len(positions))
		for i, p := range positions {
			vals[i] = math.Abs(f(p))
		}
		sort.Float64s(vals)
		return stat.Quantile(SpiralRadiusQuantile, stat.Empirical, vals, nil)
	}
	return r3.Vector{
		X: axis(func(v r3.Vector) float64 { return v.X }),
		Y: axis(func(v r3.Vector) float64 { return v.Y }),
		Z: axis(func(v r3.Vector) float64 { return v.Z }),
	}
}

// Spiral creates frames camera-to-world poses on a spiral
// around the origin.
//
// The spiral makes the given number of circles with the
// given radii, and every camera looks at the point focus
// units in front of the origin (i.e. at z=-focus).
func Spiral(radii r3.Vector, focus float64, frames, circles int) []anycam.Pose {
	up := r3.Vector{Y: 1}
	target := r3.Vector{Z: -focus}
	res := make([]anycam.Pose, frames)
	for i := range res {
		t := 2 * math.Pi * float64(circles) * float64(i) / float64(frames)
		center := r3.Vector{
			X: math.Cos(t) * radii.X,
			Y: -math.Sin(t) * radii.Y,
			Z: -math.Sin(0.5*t) * radii.Z,
		}
		z := center.Sub(target).Normalize()
		x := up.Cross(z).Normalize()
		y := z.Cross(x)
		res[i] = anycam.NewPose(x, y, z, center)
	}
	return res
}
