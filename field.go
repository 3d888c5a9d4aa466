package anynerf

import (
	"fmt"
	"math/rand"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var t TinyNeRF
	serializer.RegisterTypedDeserializer(t.SerializerType(), DeserializeTinyNeRF)
}

// A Field is a differentiable implicit radiance field.
//
// Evaluate maps encoded sample positions and encoded ray
// directions to raw colors and densities.
// The pos argument packs numSamples*numRays encodings,
// sample-major, so that encoding s*numRays+r is sample s
// of ray r.
// The dir argument packs one encoding per ray.
//
// The result is packed as all 3*n raw colors (one RGB
// triple per sample) followed by all n raw densities,
// where n is the number of samples.
// Raw colors and densities are unbounded; renderers apply
// their own activations.
type Field interface {
	Parameterizer
	Evaluate(pos, dir anydiff.Res, numRays int) anydiff.Res
}

// TinyNeRF is a small multi-layer perceptron field.
//
// A trunk processes the position encoding; its features
// produce the density directly, and produce the color
// after being mixed with the direction encoding.
type TinyNeRF struct {
	PosDims int
	DirDims int

	Trunk    Net
	Density  *FC
	Feature  *FC
	Color    *AddMixer
	ColorOut *FC
}

// NewTinyNeRF creates a randomly initialized TinyNeRF with
// the given encoding sizes and hidden width.
// If gen is nil, the global generator is used.
func NewTinyNeRF(c anyvec.Creator, gen *rand.Rand, posDims, dirDims, hidden int) *TinyNeRF {
	if hidden < 2 {
		panic("hidden width must be at least 2")
	}
	half := hidden / 2
	return &TinyNeRF{
		PosDims: posDims,
		DirDims: dirDims,
		Trunk: Net{
			NewFC(c, gen, posDims, hidden), ReLU,
			NewFC(c, gen, hidden, hidden), ReLU,
			NewFC(c, gen, hidden, hidden), ReLU,
			NewFC(c, gen, hidden, hidden), ReLU,
		},
		Density: NewFC(c, gen, hidden, 1).SetBias(0.1),
		Feature: NewFC(c, gen, hidden, hidden),
		Color: &AddMixer{
			In1: NewFC(c, gen, hidden, half),
			In2: NewFC(c, gen, dirDims, half).SetBias(0),
			Out: ReLU,
		},
		ColorOut: NewFC(c, gen, half, 3).SetBias(0.02),
	}
}

// DeserializeTinyNeRF deserializes a TinyNeRF.
func DeserializeTinyNeRF(d []byte) (*TinyNeRF, error) {
	var posDims, dirDims serializer.Int
	var res TinyNeRF
	err := serializer.DeserializeAny(d, &posDims, &dirDims, &res.Trunk, &res.Density,
		&res.Feature, &res.Color, &res.ColorOut)
	if err != nil {
		return nil, essentials.AddCtx("deserialize TinyNeRF", err)
	}
	res.PosDims = int(posDims)
	res.DirDims = int(dirDims)
	return &res, nil
}

// Evaluate evaluates the field.
// See Field for details on the packing of inputs and
// outputs.
func (t *TinyNeRF) Evaluate(pos, dir anydiff.Res, numRays int) anydiff.Res {
	if pos.Output().Len()%t.PosDims != 0 {
		panic(fmt.Sprintf("position encoding length %d not divisible by %d",
			pos.Output().Len(), t.PosDims))
	}
	if dir.Output().Len() != numRays*t.DirDims {
		panic(fmt.Sprintf("direction encoding length should be %d, but got %d",
			numRays*t.DirDims, dir.Output().Len()))
	}
	n := pos.Output().Len() / t.PosDims
	return anydiff.Pool(t.Trunk.Apply(pos, n), func(x anydiff.Res) anydiff.Res {
		density := t.Density.Apply(x, n)
		mixed := t.Color.Mix(t.Feature.Apply(x, n), dir, n, numRays)
		return anydiff.Concat(t.ColorOut.Apply(mixed, n), density)
	})
}

// Parameters returns the parameters of every layer.
func (t *TinyNeRF) Parameters() []*anydiff.Var {
	return AllParameters(t.Trunk, t.Density, t.Feature, t.Color, t.ColorOut)
}

// SerializerType returns the unique ID used to serialize
// a TinyNeRF with the serializer package.
func (t *TinyNeRF) SerializerType() string {
	return "github.com/unixpickle/anynerf.TinyNeRF"
}

// Serialize serializes the field.
func (t *TinyNeRF) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(t.PosDims),
		serializer.Int(t.DirDims),
		t.Trunk,
		t.Density,
		t.Feature,
		t.Color,
		t.ColorOut,
	)
}
