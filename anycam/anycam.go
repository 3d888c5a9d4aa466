// Package anycam implements learnable pinhole cameras.
//
// Both the intrinsics (a shared focal length) and the
// extrinsics (one pose per training image) are anydiff
// variables, so gradients of a rendering loss flow into
// the camera model just like into the radiance field.
package anycam

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

func scalarConst(c anyvec.Creator, vals ...float64) anydiff.Res {
	return anydiff.NewConst(c.MakeVectorData(c.MakeNumericList(vals)))
}

// scaleBy multiplies every component of v by the single
// component of s.
func scaleBy(v, s anydiff.Res) anydiff.Res {
	zero := scalarConst(v.Output().Creator(), 0)
	return anydiff.ScaleAddRepeated(v, s, zero)
}
