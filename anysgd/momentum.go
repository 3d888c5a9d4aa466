package anysgd

import (
	"github.com/unixpickle/anydiff"
	"github.com/unixpickle/essentials"
)

// Momentum implements SGD with momentum.
//
// The transformed gradient v is computed as
//
//     v := momentum * v + grad
type Momentum struct {
	Momentum float64

	// Params lists the variables in the order their
	// velocities are marshalled.
	// It is only needed for MarshalBinary and
	// UnmarshalBinary.
	Params []*anydiff.Var

	rolling anydiff.Grad
}

// Transform transforms the gradient using momentum.
//
// This is not thread-safe.
func (m *Momentum) Transform(g anydiff.Grad) anydiff.Grad {
	if m.rolling == nil {
		m.rolling = copyGrad(g)
		return g
	}
	for v, x := range m.rolling {
		x.Scale(x.Creator().MakeNumeric(m.Momentum))
		x.Add(g[v])
		g[v].Set(x)
	}
	return g
}

// MarshalBinary saves the rolling velocity.
func (m *Momentum) MarshalBinary() ([]byte, error) {
	data, err := marshalGradient(m.Params, m.rolling)
	if err != nil {
		return nil, essentials.AddCtx("marshal Momentum", err)
	}
	return data, nil
}

// UnmarshalBinary restores the state saved by
// MarshalBinary.
// The Params field must match the one used for
// marshalling.
func (m *Momentum) UnmarshalBinary(data []byte) error {
	rolling, err := unmarshalGradient(m.Params, data)
	if err != nil {
		return essentials.AddCtx("unmarshal Momentum", err)
	}
	m.rolling = rolling
	return nil
}
