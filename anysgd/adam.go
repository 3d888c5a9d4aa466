package anysgd

import (
	"bytes"
	"encoding/binary"
	"errors"
	"math"

	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/anyvec"
	"github.com/unixpickle/essentials"
)

const (
	adamDefaultDecayRate1 = 0.9
	adamDefaultDecayRate2 = 0.999
	adamDefaultDamping    = 1e-8
)

// Adam implements the adaptive moments SGD technique
// described in https://arxiv.org/pdf/1412.6980.pdf.
//
// Most of this code is taken from
// https://github.com/unixpickle/sgd/blob/0e3d4c9d317b1095d02febdaedf802f6d1dbd5b1/adam.go.
type Adam struct {
	// These are decay rates for the first and second
	// moments of the gradient.
	// If these are 0, defaults as suggested in the
	// original Adam paper are used.
	DecayRate1, DecayRate2 float64

	// Damping is used to prevent divisions by zero.
	// This should be very small.
	// If it is 0, a default is used.
	Damping float64

	// Params lists the variables in the order their
	// moments are marshalled.
	// It is only needed for MarshalBinary and
	// UnmarshalBinary.
	Params []*anydiff.Var

	firstMoment  anydiff.Grad
	secondMoment anydiff.Grad
	iteration    float64
}

// Transform transforms the gradient using Adam.
//
// This is not thread-safe.
func (a *Adam) Transform(realGrad anydiff.Grad) anydiff.Grad {
	a.updateMoments(realGrad)

	a.iteration++
	scalingFactor := math.Sqrt(1-math.Pow(a.decayRate(2), a.iteration)) /
		(1 - math.Pow(a.decayRate(1), a.iteration))
	damping := a.damping()
	for variable, vec := range realGrad {
		firstVec := a.firstMoment[variable]
		secondVec := a.secondMoment[variable]

		vec.Set(firstVec)
		vec.Scale(vec.Creator().MakeNumeric(scalingFactor))

		divisor := secondVec.Copy()
		divisor.AddScalar(divisor.Creator().MakeNumeric(damping))
		anyvec.Pow(divisor, divisor.Creator().MakeNumeric(0.5))
		vec.Div(divisor)
	}

	return realGrad
}

func (a *Adam) updateMoments(grad anydiff.Grad) {
	if a.firstMoment == nil {
		a.firstMoment = copyGrad(grad)
		scaleGrad(a.firstMoment, 1-a.decayRate(1))
	} else {
		decayRate := a.decayRate(1)
		scaleGrad(a.firstMoment, decayRate)

		keepRate := 1 - decayRate
		for variable, vec := range grad {
			momentVec := a.firstMoment[variable]
			v := vec.Copy()
			v.Scale(vec.Creator().MakeNumeric(keepRate))
			momentVec.Add(v)
		}
	}

	if a.secondMoment == nil {
		a.secondMoment = copyGrad(grad)
		for _, v := range a.secondMoment {
			anyvec.Pow(v, v.Creator().MakeNumeric(2))
		}
		scaleGrad(a.secondMoment, 1-a.decayRate(2))
	} else {
		decayRate := a.decayRate(2)
		scaleGrad(a.secondMoment, decayRate)
		keepRate := 1 - decayRate
		for variable, vec := range grad {
			momentVec := a.secondMoment[variable]
			v := vec.Copy()
			anyvec.Pow(v, v.Creator().MakeNumeric(2))
			v.Scale(v.Creator().MakeNumeric(keepRate))
			momentVec.Add(v)
		}
	}
}

func (a *Adam) decayRate(moment int) float64 {
	if moment == 1 {
		return valueOrDefault(a.DecayRate1, adamDefaultDecayRate1)
	} else if moment == 2 {
		return valueOrDefault(a.DecayRate2, adamDefaultDecayRate2)
	} else {
		panic("invalid moment.")
	}
}

func (a *Adam) damping() float64 {
	return valueOrDefault(a.Damping, adamDefaultDamping)
}

// MarshalBinary saves the moments and the iteration count.
func (a *Adam) MarshalBinary() ([]byte, error) {
	first, err := marshalGradient(a.Params, a.firstMoment)
	if err != nil {
		return nil, essentials.AddCtx("marshal Adam", err)
	}
	second, err := marshalGradient(a.Params, a.secondMoment)
	if err != nil {
		return nil, essentials.AddCtx("marshal Adam", err)
	}
	var buf bytes.Buffer
	temp := make([]byte, 8)
	writeFloatBits(&buf, temp, a.iteration)
	binary.BigEndian.PutUint64(temp, uint64(len(first)))
	buf.Write(temp)
	buf.Write(first)
	buf.Write(second)
	return buf.Bytes(), nil
}

// UnmarshalBinary restores the state saved by
// MarshalBinary.
// The Params field must match the one used for
// marshalling.
func (a *Adam) UnmarshalBinary(data []byte) error {
	if len(data) < 16 {
		return errors.New("unmarshal Adam: data too short")
	}
	iteration := math.Float64frombits(binary.BigEndian.Uint64(data))
	firstLen := binary.BigEndian.Uint64(data[8:])
	data = data[16:]
	if firstLen > uint64(len(data)) {
		return errors.New("unmarshal Adam: data too short")
	}
	first, err := unmarshalGradient(a.Params, data[:firstLen])
	if err != nil {
		return essentials.AddCtx("unmarshal Adam", err)
	}
	second, err := unmarshalGradient(a.Params, data[firstLen:])
	if err != nil {
		return essentials.AddCtx("unmarshal Adam", err)
	}
	a.iteration = iteration
	a.firstMoment = first
	a.secondMoment = second
	return nil
}
