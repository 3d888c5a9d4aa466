package anysgd

import (
	"github.com/unixpickle/anydiff"
)

// A Group is a set of parameters which are updated
// together with a shared transformer and learning rate.
type Group struct {
	Name   string
	Params []*anydiff.Var

	// Transformer, if non-nil, is used to transform the
	// group's gradient before the step.
	Transformer Transformer

	// Rater determines the learning rate for each step.
	Rater Rater
}

// Rate returns the group's learning rate at an epoch.
func (g *Group) Rate(epoch float64) float64 {
	return g.Rater.Rate(epoch)
}

// Step performs a gradient descent step on the group's
// parameters.
//
// Entries of grad for other parameters are ignored.
// Parameters of the group which are missing from grad are
// not updated.
func (g *Group) Step(grad anydiff.Grad, epoch float64) {
	sub := anydiff.Grad{}
	for _, p := range g.Params {
		if vec, ok := grad[p]; ok {
			sub[p] = vec
		}
	}
	if len(sub) == 0 {
		return
	}
	if g.Transformer != nil {
		sub = g.Transformer.Transform(sub)
	}
	scaleGrad(sub, -g.Rate(epoch))
	sub.AddToVars()
}
