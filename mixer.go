package anynerf

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var a AddMixer
	serializer.RegisterTypedDeserializer(a.SerializerType(), DeserializeAddMixer)
}

// A Mixer combines a batch of per-sample vectors with a
// batch of per-ray vectors.
//
// The per-sample batch is packed sample-major: vector
// s*numRays+r belongs to ray r.
// Thus, the per-ray batch size must divide the per-sample
// batch size.
type Mixer interface {
	Mix(samples, rays anydiff.Res, numSamples, numRays int) anydiff.Res
}

// An AddMixer combines two inputs by applying layers to
// each of them, adding the results together, and then
// applying an output layer to the sum.
//
// The per-ray result of In2 is repeated for every sample
// on the ray, so In2 runs once per ray instead of once per
// sample.
type AddMixer struct {
	In1 Layer
	In2 Layer
	Out Layer
}

// DeserializeAddMixer deserializes an AddMixer.
func DeserializeAddMixer(d []byte) (*AddMixer, error) {
	var res AddMixer
	if err := serializer.DeserializeAny(d, &res.In1, &res.In2, &res.Out); err != nil {
		return nil, essentials.AddCtx("deserialize AddMixer", err)
	}
	return &res, nil
}

// Mix applies a.In1 to the samples and a.In2 to the rays,
// broadcasts and adds the results, then applies a.Out.
func (a *AddMixer) Mix(samples, rays anydiff.Res, numSamples, numRays int) anydiff.Res {
	if numRays == 0 || numSamples%numRays != 0 {
		panic(fmt.Sprintf("ray count %d does not divide sample count %d",
			numRays, numSamples))
	}
	perSample := a.In1.Apply(samples, numSamples)
	perRay := a.In2.Apply(rays, numRays)
	if perSample.Output().Len()/numSamples != perRay.Output().Len()/numRays {
		panic(fmt.Sprintf("mixed widths differ: %d and %d",
			perSample.Output().Len()/numSamples, perRay.Output().Len()/numRays))
	}
	return a.Out.Apply(anydiff.AddRepeated(perSample, perRay), numSamples)
}

// Parameters gets the parameters of all the layers that
// implement Parameterizer.
func (a *AddMixer) Parameters() []*anydiff.Var {
	return AllParameters(a.In1, a.In2, a.Out)
}

// SerializerType returns the unique ID used to serialize
// an AddMixer with the serializer package.
func (a *AddMixer) SerializerType() string {
	return "github.com/unixpickle/anynerf.AddMixer"
}

// Serialize attempts to serialize the AddMixer.
func (a *AddMixer) Serialize() ([]byte, error) {
	return serializer.SerializeAny(a.In1, a.In2, a.Out)
}
