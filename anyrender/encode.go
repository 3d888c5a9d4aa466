package anyrender

import (
	"fmt"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
)

// EncodedSize returns the number of features produced by
// Encode for each row of a given number of channels.
func EncodedSize(channels, levels int, includeInput bool) int {
	res := 2 * levels * channels
	if includeInput {
		res += channels
	}
	return res
}

// Encode computes a positional encoding of a row-major
// matrix with the given number of channels per row.
//
// Each output row contains, in order, the input row (if
// includeInput is set), and then for each k in [0, levels)
// the values sin(2^k*π*x) followed by cos(2^k*π*x) for all
// channels x.
//
// This only works for creators that use []float64 numeric
// list types.
func Encode(in anydiff.Res, channels, levels int, includeInput bool) anydiff.Res {
	if channels <= 0 || in.Output().Len()%channels != 0 {
		panic(fmt.Sprintf("input length %d not divisible by channel count %d",
			in.Output().Len(), channels))
	}
	return newEncodeRes([]anydiff.Res{in}, true, channels, levels, includeInput)
}

// EncodePlanes is like Encode, except that the input is
// given as one vector per channel.
//
// The output is row-major, with one row per plane entry.
func EncodePlanes(planes []anydiff.Res, levels int, includeInput bool) anydiff.Res {
	if len(planes) == 0 {
		panic("no planes to encode")
	}
	for _, p := range planes[1:] {
		if p.Output().Len() != planes[0].Output().Len() {
			panic(fmt.Sprintf("plane lengths differ: %d and %d",
				planes[0].Output().Len(), p.Output().Len()))
		}
	}
	return newEncodeRes(planes, false, len(planes), levels, includeInput)
}

type encodeRes struct {
	Inputs       []anydiff.Res
	RowMajor     bool
	Channels     int
	Levels       int
	IncludeInput bool

	// Row-major copy of the input data.
	InData []float64

	OutVec anyvec.Vector
	V      anydiff.VarSet
}

func newEncodeRes(inputs []anydiff.Res, rowMajor bool, channels, levels int,
	includeInput bool) *encodeRes {
	var inData []float64
	if rowMajor {
		inData = inputs[0].Output().Data().([]float64)
	} else {
		numRows := inputs[0].Output().Len()
		inData = make([]float64, numRows*channels)
		for c, plane := range inputs {
			for i, x := range plane.Output().Data().([]float64) {
				inData[i*channels+c] = x
			}
		}
	}

	rowSize := EncodedSize(channels, levels, includeInput)
	numRows := len(inData) / channels
	out := make([]float64, 0, rowSize*numRows)
	for i := 0; i < numRows; i++ {
		row := inData[i*channels : (i+1)*channels]
		if includeInput {
			out = append(out, row...)
		}
		freq := math.Pi
		for k := 0; k < levels; k++ {
			for _, x := range row {
				out = append(out, math.Sin(freq*x))
			}
			for _, x := range row {
				out = append(out, math.Cos(freq*x))
			}
			freq *= 2
		}
	}

	var vars []anydiff.VarSet
	for _, in := range inputs {
		vars = append(vars, in.Vars())
	}
	c := inputs[0].Output().Creator()
	return &encodeRes{
		Inputs:       inputs,
		RowMajor:     rowMajor,
		Channels:     channels,
		Levels:       levels,
		IncludeInput: includeInput,
		InData:       inData,
		OutVec:       c.MakeVectorData(c.MakeNumericList(out)),
		V:            anydiff.MergeVarSets(vars...),
	}
}

func (e *encodeRes) Output() anyvec.Vector {
	return e.OutVec
}

func (e *encodeRes) Vars() anydiff.VarSet {
	return e.V
}

func (e *encodeRes) Propagate(u anyvec.Vector, g anydiff.Grad) {
	upstream := u.Data().([]float64)
	rowSize := EncodedSize(e.Channels, e.Levels, e.IncludeInput)
	numRows := len(e.InData) / e.Channels
	inGrad := make([]float64, len(e.InData))
	for i := 0; i < numRows; i++ {
		row := e.InData[i*e.Channels : (i+1)*e.Channels]
		rowGrad := inGrad[i*e.Channels : (i+1)*e.Channels]
		up := upstream[i*rowSize : (i+1)*rowSize]
		if e.IncludeInput {
			copy(rowGrad, up[:e.Channels])
			up = up[e.Channels:]
		}
		freq := math.Pi
		for k := 0; k < e.Levels; k++ {
			sinUp := up[2*k*e.Channels : (2*k+1)*e.Channels]
			cosUp := up[(2*k+1)*e.Channels : (2*k+2)*e.Channels]
			for j, x := range row {
				rowGrad[j] += freq * (sinUp[j]*math.Cos(freq*x) - cosUp[j]*math.Sin(freq*x))
			}
			freq *= 2
		}
	}

	c := e.OutVec.Creator()
	if e.RowMajor {
		if g.Intersects(e.Inputs[0].Vars()) {
			e.Inputs[0].Propagate(c.MakeVectorData(c.MakeNumericList(inGrad)), g)
		}
		return
	}
	for ch, plane := range e.Inputs {
		if !g.Intersects(plane.Vars()) {
			continue
		}
		planeGrad := make([]float64, numRows)
		for i := range planeGrad {
			planeGrad[i] = inGrad[i*e.Channels+ch]
		}
		plane.Propagate(c.MakeVectorData(c.MakeNumericList(planeGrad)), g)
	}
}
