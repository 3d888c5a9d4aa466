package anysgd

import (
	"encoding"

	"github.com/unixpickle/anydiff"
)

// A Transformer transforms gradients.
// For example, pre-conditioning could be implemented as a
// transformer.
//
// After its first call, a Transformer expects to see
// gradients of the same form (i.e. containing the same
// variables).
//
// A Transformer may modify its own input and return the
// same gradient as an output.
// However, a Transformer should not modify its input
// after Transform returns.
// In other words, the input still belongs to the caller,
// and the transformer should not retain a reference to
// the input.
// If a Transformer needs to cache things relating to its
// inputs, it must allocate a separate gradient.
//
// A Transformer's output is only guaranteed to be valid
// until the next time Transform is called.
type Transformer interface {
	Transform(g anydiff.Grad) anydiff.Grad
}

// TransformMarshaler is a Transformer with support for
// binary marshalling and unmarshalling.
type TransformMarshaler interface {
	Transformer
	encoding.BinaryMarshaler
	encoding.BinaryUnmarshaler
}

// A Gradienter computes a gradient for a mini-batch.
//
// Every call should return a freshly allocated gradient,
// since the caller modifies it in place.
// A Gradienter should return an error rather than a
// gradient if the cost is not usable, e.g. if it
// diverged.
type Gradienter interface {
	Gradient(batch SampleList) (anydiff.Grad, error)
}

// A Rater determines the learning rate given the epoch
// number.
// An "epoch" is a full pass over the training set.
type Rater interface {
	Rate(epoch float64) float64
}

// A SampleList represents a list of training samples.
type SampleList interface {
	// Len returns the number of samples.
	Len() int

	// Swap swaps two samples.
	Swap(i, j int)

	// Slice generates a shallow copy of a subset of the
	// list.
	Slice(i, j int) SampleList
}

// PostShuffler is used to notify a SampleList that it has
// been shuffled, allowing it to perform any sample
// re-ordering it likes.
type PostShuffler interface {
	PostShuffle()
}
