// Package anyrender renders radiance fields.
//
// Rays are warped into normalized device coordinates,
// sampled, positionally encoded, evaluated by an
// anynerf.Field, and finally composited into colors and
// depths.
package anyrender

import (
	"fmt"
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anynerf/anycam"
)

// ndcNear is the camera-space near plane used for the NDC
// warp.
const ndcNear = 1.0

// LinearDepths returns n depths evenly spaced from near to
// far, inclusive.
func LinearDepths(near, far float64, n int) []float64 {
	if n == 1 {
		return []float64{near}
	}
	res := make([]float64, n)
	for i := range res {
		res[i] = near + (far-near)*float64(i)/float64(n-1)
	}
	return res
}

// A Sampler places samples along camera rays in normalized
// device coordinates.
type Sampler struct {
	Near       float64
	Far        float64
	NumSamples int

	// Perturb, if set, jitters every depth within its
	// stratum independently for each ray.
	Perturb bool

	// Rand is used for jittering.
	// If nil, the global generator is used.
	Rand *rand.Rand
}

// Samples stores the samples of a batch of rays.
type Samples struct {
	NumRays    int
	NumSamples int

	// Positions stores NDC sample positions as three planes
	// packed sample-major: entry s*NumRays+r is sample s of
	// ray r.
	Positions [3]anydiff.Res

	// Origins stores the world-space camera position,
	// repeated for every ray, as three planes.
	Origins [3]anydiff.Res

	// Directions stores the unit world-space direction of
	// each ray as three planes.
	Directions [3]anydiff.Res

	// Depths stores the NDC depth of every sample, packed
	// like Positions.
	Depths []float64
}

// Sample transforms camera-space rays into world space
// with a row-major 4x4 camera-to-world transform, warps them
// into NDC, and places samples along them.
//
// The focal lengths are packed like the output of
// anycam.Intrinsics.Forward.
func (s *Sampler) Sample(c2w anydiff.Res, rays *anycam.Rays, width, height int,
	fxfy anydiff.Res) *Samples {
	if c2w.Output().Len() != 16 {
		panic(fmt.Sprintf("expected 4x4 transform but got %d components", c2w.Output().Len()))
	}
	if s.NumSamples <= 0 {
		panic(fmt.Sprintf("invalid sample count: %d", s.NumSamples))
	}
	numRays := rays.Len()

	var dirs, origin [3]anydiff.Res
	camDirs := [3]anydiff.Res{rays.X, rays.Y, rays.Z}
	for k := 0; k < 3; k++ {
		for j := 0; j < 3; j++ {
			term := scaleBy(camDirs[j], anydiff.Slice(c2w, 4*k+j, 4*k+j+1))
			if dirs[k] == nil {
				dirs[k] = term
			} else {
				dirs[k] = anydiff.Add(dirs[k], term)
			}
		}
		origin[k] = anydiff.Slice(c2w, 4*k+3, 4*k+4)
	}

	ndcOrigins, ndcDirs := NDCRays(origin, dirs, width, height, fxfy)

	depths := s.depths(numRays)
	c := c2w.Output().Creator()
	depthConst := anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(depths)))
	zeros := anydiff.NewConst(c.MakeVector(numRays))
	var positions, origins [3]anydiff.Res
	for k := 0; k < 3; k++ {
		positions[k] = anydiff.ScaleAddRepeated(depthConst, ndcDirs[k], ndcOrigins[k])
		origins[k] = anydiff.AddRepeated(zeros, origin[k])
	}

	return &Samples{
		NumRays:    numRays,
		NumSamples: s.NumSamples,
		Positions:  positions,
		Origins:    origins,
		Directions: normalizePlanes(dirs),
		Depths:     depths,
	}
}

func (s *Sampler) depths(numRays int) []float64 {
	base := LinearDepths(s.Near, s.Far, s.NumSamples)
	res := make([]float64, 0, numRays*s.NumSamples)
	for _, t := range base {
		for r := 0; r < numRays; r++ {
			res = append(res, t)
		}
	}
	if !s.Perturb {
		return res
	}
	uniform := rand.Float64
	if s.Rand != nil {
		uniform = s.Rand.Float64
	}
	stratum := (s.Far - s.Near) / float64(s.NumSamples)
	for i, t := range res {
		t += (uniform() - 0.5) * stratum
		res[i] = math.Max(s.Near, math.Min(s.Far, t))
	}
	return res
}

// NDCRays warps rays with a shared world-space origin into
// normalized device coordinates.
//
// The origin is given as three single-component values,
// and the directions as three planes with one entry per
// ray.
// The resulting origins and directions are both planes.
// Origins are first moved onto the near plane, so the NDC
// depth of the origin is -1 and rays reach infinity at an
// NDC depth of 1.
func NDCRays(origin, dirs [3]anydiff.Res, width, height int,
	fxfy anydiff.Res) (ndcOrigins, ndcDirs [3]anydiff.Res) {
	c := fxfy.Output().Creator()

	invDirZ := anydiff.Pow(dirs[2], c.MakeNumeric(-1))
	nearOffset := anydiff.AddScalar(anydiff.Scale(origin[2], c.MakeNumeric(-1)),
		c.MakeNumeric(-ndcNear))
	nearT := scaleBy(invDirZ, nearOffset)

	var shifted [3]anydiff.Res
	for k := 0; k < 3; k++ {
		shifted[k] = anydiff.AddRepeated(anydiff.Mul(nearT, dirs[k]), origin[k])
	}
	invZ := anydiff.Pow(shifted[2], c.MakeNumeric(-1))

	xFactor := anydiff.Scale(anydiff.Slice(fxfy, 0, 1), c.MakeNumeric(-2/float64(width)))
	yFactor := anydiff.Scale(anydiff.Slice(fxfy, 1, 2), c.MakeNumeric(-2/float64(height)))
	factors := [2]anydiff.Res{xFactor, yFactor}

	for k := 0; k < 2; k++ {
		ratio := anydiff.Mul(shifted[k], invZ)
		ndcOrigins[k] = scaleBy(ratio, factors[k])
		ndcDirs[k] = scaleBy(anydiff.Sub(anydiff.Mul(dirs[k], invDirZ), ratio), factors[k])
	}
	ndcOrigins[2] = anydiff.AddScalar(anydiff.Scale(invZ, c.MakeNumeric(2*ndcNear)),
		c.MakeNumeric(1))
	ndcDirs[2] = anydiff.Scale(invZ, c.MakeNumeric(-2*ndcNear))
	return
}

func normalizePlanes(planes [3]anydiff.Res) [3]anydiff.Res {
	sqNorm := anydiff.Add(anydiff.Add(anydiff.Square(planes[0]), anydiff.Square(planes[1])),
		anydiff.Square(planes[2]))
	c := sqNorm.Output().Creator()
	invNorm := anydiff.Pow(sqNorm, c.MakeNumeric(-0.5))
	var res [3]anydiff.Res
	for i, p := range planes {
		res[i] = anydiff.Mul(p, invNorm)
	}
	return res
}

// scaleBy multiplies every component of v by the single
// component of s.
func scaleBy(v, s anydiff.Res) anydiff.Res {
	c := v.Output().Creator()
	zero := anydiff.NewConst(c.MakeVector(1))
	return anydiff.ScaleAddRepeated(v, s, zero)
}
