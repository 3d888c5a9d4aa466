package anycam

import (
	"fmt"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/anyvec/anyvecsave"
	"github.com/unixpickle/essentials"
	"github.com/unixpickle/serializer"
)

func init() {
	var i Intrinsics
	serializer.RegisterTypedDeserializer(i.SerializerType(), DeserializeIntrinsics)
}

// Intrinsics is a learnable focal length shared by every
// camera in a scene.
//
// The raw parameters are squared and multiplied by the
// image dimensions, so that fx = FX^2 * Width and
// fy = FY^2 * Height are always non-negative and the raw
// values stay near 1 for typical fields of view.
type Intrinsics struct {
	Width  int
	Height int

	FX *anydiff.Var
	FY *anydiff.Var
}

// NewIntrinsics creates intrinsics with both raw values
// set to 1, i.e. fx = width and fy = height.
func NewIntrinsics(c anyvec.Creator, width, height int) *Intrinsics {
	if width <= 0 || height <= 0 {
		panic(fmt.Sprintf("invalid image size %dx%d", width, height))
	}
	return &Intrinsics{
		Width:  width,
		Height: height,
		FX:     anydiff.NewVar(c.MakeVectorData(c.MakeNumericList([]float64{1}))),
		FY:     anydiff.NewVar(c.MakeVectorData(c.MakeNumericList([]float64{1}))),
	}
}

// DeserializeIntrinsics deserializes Intrinsics.
func DeserializeIntrinsics(d []byte) (*Intrinsics, error) {
	var w, h serializer.Int
	var fx, fy *anyvecsave.S
	if err := serializer.DeserializeAny(d, &w, &h, &fx, &fy); err != nil {
		return nil, essentials.AddCtx("deserialize Intrinsics", err)
	}
	if fx.Vector.Len() != 1 || fy.Vector.Len() != 1 {
		return nil, fmt.Errorf("deserialize Intrinsics: bad focal lengths %d, %d",
			fx.Vector.Len(), fy.Vector.Len())
	}
	return &Intrinsics{
		Width:  int(w),
		Height: int(h),
		FX:     anydiff.NewVar(fx.Vector),
		FY:     anydiff.NewVar(fy.Vector),
	}, nil
}

// Forward computes the focal lengths in pixels.
// The result has two components: fx followed by fy.
func (i *Intrinsics) Forward() anydiff.Res {
	c := i.FX.Vector.Creator()
	return anydiff.Concat(
		anydiff.Scale(anydiff.Square(i.FX), c.MakeNumeric(float64(i.Width))),
		anydiff.Scale(anydiff.Square(i.FY), c.MakeNumeric(float64(i.Height))),
	)
}

// Focal computes the current focal lengths numerically.
func (i *Intrinsics) Focal() (fx, fy float64) {
	data := i.Forward().Output().Data().([]float64)
	return data[0], data[1]
}

// Parameters returns the raw fx and fy variables.
func (i *Intrinsics) Parameters() []*anydiff.Var {
	return []*anydiff.Var{i.FX, i.FY}
}

// SerializerType returns the unique ID used to serialize
// Intrinsics with the serializer package.
func (i *Intrinsics) SerializerType() string {
	return "github.com/unixpickle/anynerf/anycam.Intrinsics"
}

// Serialize serializes the intrinsics.
func (i *Intrinsics) Serialize() ([]byte, error) {
	return serializer.SerializeAny(
		serializer.Int(i.Width),
		serializer.Int(i.Height),
		&anyvecsave.S{Vector: i.FX.Vector},
		&anyvecsave.S{Vector: i.FY.Vector},
	)
}
