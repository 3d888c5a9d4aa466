package anysgd

import (
	"math"
	"math/rand"

	"github.com/unixpickle/anydiff"
)

// Shuffle shuffles a list of samples.
// If gen is nil, the global generator is used.
//
// If the list implements PostShuffler, then PostShuffle
// is called after the shuffle completes.
func Shuffle(gen *rand.Rand, s SampleList) {
	intn := rand.Intn
	if gen != nil {
		intn = gen.Intn
	}
	for i := 0; i < s.Len(); i++ {
		j := i + intn(s.Len()-i)
		s.Swap(i, j)
	}
	if p, ok := s.(PostShuffler); ok {
		p.PostShuffle()
	}
}

// IndexList is a SampleList of sample indices, useful when
// samples are stored elsewhere (e.g. the images of a
// scene).
type IndexList []int

// NewIndexList creates the list 0, 1, ..., n-1.
func NewIndexList(n int) IndexList {
	res := make(IndexList, n)
	for i := range res {
		res[i] = i
	}
	return res
}

// Len returns the number of indices.
func (i IndexList) Len() int {
	return len(i)
}

// Swap swaps two indices.
func (i IndexList) Swap(j, k int) {
	i[j], i[k] = i[k], i[j]
}

// Slice copies a sub-slice of the list.
func (i IndexList) Slice(j, k int) SampleList {
	return append(IndexList{}, i[j:k]...)
}

// A ConstRater is a Rater which always returns the same
// constant learning rate.
type ConstRater float64

// Rate returns float64(c).
func (c ConstRater) Rate(epoch float64) float64 {
	return float64(c)
}

// A StepRater decays a base learning rate by a constant
// factor once every Interval epochs, until Until epochs
// have passed:
//
//     Base * Gamma^min(floor(epoch/Interval), Until/Interval)
//
// If Until is 0, the decay never stops.
type StepRater struct {
	Base     float64
	Gamma    float64
	Interval int
	Until    int
}

// Rate computes the learning rate for the epoch.
func (s *StepRater) Rate(epoch float64) float64 {
	if s.Interval <= 0 {
		return s.Base
	}
	steps := math.Floor(epoch / float64(s.Interval))
	if s.Until > 0 {
		steps = math.Min(steps, float64(s.Until/s.Interval))
	}
	return s.Base * math.Pow(s.Gamma, steps)
}

func copyGrad(g anydiff.Grad) anydiff.Grad {
	res := anydiff.Grad{}
	for v, vec := range g {
		res[v] = vec.Copy()
	}
	return res
}

func scaleGrad(g anydiff.Grad, s float64) {
	for _, vec := range g {
		vec.Scale(vec.Creator().MakeNumeric(s))
	}
}

func valueOrDefault(value, def float64) float64 {
	if value == 0 {
		return def
	}
	return value
}
