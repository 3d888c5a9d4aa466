// Package anysgd provides tools for Stochastic Gradient
// Descent.
//
// Parameters are split into named groups, each of which
// has its own gradient transformer and learning rate
// schedule, so that different parts of a model (e.g. a
// radiance field and its cameras) can be optimized at
// different speeds.
package anysgd

import (
	"context"
	"math/rand"
)

// SGD performs stochastic gradient descent, one epoch at a
// time.
type SGD struct {
	// Gradienter is used to compute initial, untransformed
	// gradients for each mini-batch.
	Gradienter Gradienter

	// Groups are the parameter groups to update.
	// A parameter should appear in at most one group.
	Groups []*Group

	// Samples is the list of training samples to use for
	// training.
	// It is shuffled at the start of every epoch.
	//
	// The list may not be empty.
	Samples SampleList

	// StatusFunc, if non-nil, is called before every
	// iteration with the next mini-batch.
	StatusFunc func(batch SampleList)

	// BatchSize is the mini-batch size.
	// If it is 0, then the entire sample list is used at
	// every iteration.
	BatchSize int

	// Epoch is the number of completed epochs.
	// It is passed to each group's Rater.
	Epoch int

	// NumProcessed keeps track of the number of samples that
	// have been passed to Gradienter so far.
	NumProcessed int

	// Rand is used for shuffling.
	// If nil, the global generator is used.
	Rand *rand.Rand
}

// RunEpoch shuffles the samples and performs one pass over
// them.
//
// The context is checked before every step.
// If the context is done or the Gradienter fails, the
// epoch is abandoned and the error is returned.
func (s *SGD) RunEpoch(ctx context.Context) error {
	if s.Samples.Len() == 0 {
		panic("cannot run SGD with empty sample list")
	}
	Shuffle(s.Rand, s.Samples)
	for idx := 0; idx < s.Samples.Len(); {
		if err := ctx.Err(); err != nil {
			return err
		}
		batchSize := s.batchSize(s.Samples.Len() - idx)
		batch := s.Samples.Slice(idx, idx+batchSize)
		idx += batchSize

		if s.StatusFunc != nil {
			s.StatusFunc(batch)
		}

		grad, err := s.Gradienter.Gradient(batch)
		if err != nil {
			return err
		}
		for _, g := range s.Groups {
			g.Step(grad, float64(s.Epoch))
		}

		s.NumProcessed += batchSize
	}
	s.Epoch++
	return nil
}

func (s *SGD) batchSize(remaining int) int {
	if s.BatchSize == 0 || s.BatchSize > remaining {
		return remaining
	} else {
		return s.BatchSize
	}
}
