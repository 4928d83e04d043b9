package pattern

import "math/big"

// Rational is an exact rational number used throughout pattern expansion so
// that cycle and event timing never accumulates floating-point drift.
// Conversion to float64/float32 happens only at the audio-callback and
// MIDI-scheduling last mile (see internal/dsp and internal/dispatcher).
type Rational struct {
	r *big.Rat
}

// NewRational builds an exact num/den rational. den must be non-zero.
func NewRational(num, den int64) Rational {
	return Rational{r: big.NewRat(num, den)}
}

// RationalFromInt builds an integer-valued rational.
func RationalFromInt(n int64) Rational {
	return Rational{r: big.NewRat(n, 1)}
}

// Zero is the rational value 0.
var Zero = RationalFromInt(0)

func (r Rational) ensure() *big.Rat {
	if r.r == nil {
		return big.NewRat(0, 1)
	}
	return r.r
}

func (r Rational) Add(o Rational) Rational {
	return Rational{r: new(big.Rat).Add(r.ensure(), o.ensure())}
}

func (r Rational) Sub(o Rational) Rational {
	return Rational{r: new(big.Rat).Sub(r.ensure(), o.ensure())}
}

func (r Rational) Mul(o Rational) Rational {
	return Rational{r: new(big.Rat).Mul(r.ensure(), o.ensure())}
}

// Div divides r by o. Panics if o is zero — callers must check IsZero first
// when o comes from user-controlled weights.
func (r Rational) Div(o Rational) Rational {
	if o.ensure().Sign() == 0 {
		panic("pattern: division by zero rational")
	}
	return Rational{r: new(big.Rat).Quo(r.ensure(), o.ensure())}
}

func (r Rational) IsZero() bool {
	return r.ensure().Sign() == 0
}

func (r Rational) Cmp(o Rational) int {
	return r.ensure().Cmp(o.ensure())
}

func (r Rational) LessEqual(o Rational) bool {
	return r.Cmp(o) <= 0
}

func (r Rational) Equal(o Rational) bool {
	return r.Cmp(o) == 0
}

// Float64 converts to a float64. Only ever used at the audio/MIDI last mile.
func (r Rational) Float64() float64 {
	f, _ := r.ensure().Float64()
	return f
}

func (r Rational) String() string {
	return r.ensure().RatString()
}
