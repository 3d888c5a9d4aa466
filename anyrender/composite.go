package anyrender

import (
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

const (
	// lastInterval is the distance assigned to the final
	// sample on each ray, which has no successor.
	lastInterval = 1e10

	// transmittanceEpsilon keeps the transmittance product
	// from collapsing to exactly zero.
	transmittanceEpsilon = 1e-10
)

// Weights computes the compositing weight of every sample.
//
// Densities and depths are packed sample-major, so that
// index s*numRays+r is sample s of ray r.
// Depths must be ascending along each ray.
func Weights(densities, depths []float64, numRays int) []float64 {
	return newCompositeState(densities, depths, numRays).Weights
}

// Composite integrates colors and densities along rays
// with the standard volume rendering quadrature.
//
// The colors are packed as one RGB triple per sample, and
// the densities as one value per sample, both sample-major.
// Densities must be non-negative.
// The depths are the (constant) depths of the samples.
//
// The result packs all numRays RGB triples followed by
// numRays expected depths.
//
// This only works for creators that use []float64 numeric
// list types.
func Composite(colors, densities anydiff.Res, depths []float64, numRays int) anydiff.Res {
	n := len(depths)
	if numRays <= 0 || n%numRays != 0 {
		panic(fmt.Sprintf("ray count %d does not divide sample count %d", numRays, n))
	}
	if densities.Output().Len() != n {
		panic(fmt.Sprintf("expected %d densities but got %d", n, densities.Output().Len()))
	}
	if colors.Output().Len() != 3*n {
		panic(fmt.Sprintf("expected %d color components but got %d", 3*n,
			colors.Output().Len()))
	}

	state := newCompositeState(densities.Output().Data().([]float64), depths, numRays)
	rgb := colors.Output().Data().([]float64)
	out := make([]float64, 4*numRays)
	for i, w := range state.Weights {
		r := i % numRays
		for ch := 0; ch < 3; ch++ {
			out[3*r+ch] += w * rgb[3*i+ch]
		}
		out[3*numRays+r] += w * depths[i]
	}

	c := colors.Output().Creator()
	return &compositeRes{
		Colors:    colors,
		Densities: densities,
		Depths:    append([]float64{}, depths...),
		NumRays:   numRays,
		State:     state,
		OutVec:    c.MakeVectorData(c.MakeNumericList(out)),
		V:         anydiff.MergeVarSets(colors.Vars(), densities.Vars()),
	}
}

type compositeState struct {
	Intervals      []float64
	Decays         []float64
	Transmittances []float64
	Weights        []float64
}

func newCompositeState(densities, depths []float64, numRays int) *compositeState {
	n := len(depths)
	numSamples := n / numRays
	res := &compositeState{
		Intervals:      make([]float64, n),
		Decays:         make([]float64, n),
		Transmittances: make([]float64, n),
		Weights:        make([]float64, n),
	}
	for r := 0; r < numRays; r++ {
		trans := 1.0
		for s := 0; s < numSamples; s++ {
			i := s*numRays + r
			if s+1 < numSamples {
				res.Intervals[i] = depths[i+numRays] - depths[i]
			} else {
				res.Intervals[i] = lastInterval
			}
			decay := math.Exp(-densities[i] * res.Intervals[i])
			res.Decays[i] = decay
			res.Transmittances[i] = trans
			res.Weights[i] = trans * (1 - decay)
			trans *= decay + transmittanceEpsilon
		}
	}
	return res
}

type compositeRes struct {
	Colors    anydiff.Res
	Densities anydiff.Res
	Depths    []float64
	NumRays   int
	State     *compositeState

	OutVec anyvec.Vector
	V      anydiff.VarSet
}

func (c *compositeRes) Output() anyvec.Vector {
	return c.OutVec
}

func (c *compositeRes) Vars() anydiff.VarSet {
	return c.V
}

func (c *compositeRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	upstream := u.Data().([]float64)
	rgb := c.Colors.Output().Data().([]float64)
	n := len(c.Depths)
	numSamples := n / c.NumRays

	colorGrad := make([]float64, 3*n)
	densityGrad := make([]float64, n)
	for r := 0; r < c.NumRays; r++ {
		colorUp := upstream[3*r : 3*(r+1)]
		depthUp := upstream[3*c.NumRays+r]

		// Sum of w_i*dL/dw_i over the samples behind the
		// current one.
		var behind float64
		for s := numSamples - 1; s >= 0; s-- {
			i := s*c.NumRays + r
			w := c.State.Weights[i]
			weightGrad := depthUp * c.Depths[i]
			for ch := 0; ch < 3; ch++ {
				colorGrad[3*i+ch] = colorUp[ch] * w
				weightGrad += colorUp[ch] * rgb[3*i+ch]
			}
			decay := c.State.Decays[i]
			densityGrad[i] = c.State.Intervals[i] * decay *
				(weightGrad*c.State.Transmittances[i] - behind/(decay+transmittanceEpsilon))
			behind += w * weightGrad
		}
	}

	cr := c.OutVec.Creator()
	if g.Intersects(c.Colors.Vars()) {
		c.Colors.Propagate(cr.MakeVectorData(cr.MakeNumericList(colorGrad)), g)
	}
	if g.Intersects(c.Densities.Vars()) {
		c.Densities.Propagate(cr.MakeVectorData(cr.MakeNumericList(densityGrad)), g)
	}
}
