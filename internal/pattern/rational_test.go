package pattern

import "testing"

func TestRationalAddSubMul(t *testing.T) {
	a := NewRational(1, 2)
	b := NewRational(1, 3)
	if sum := a.Add(b); !sum.Equal(NewRational(5, 6)) {
		t.Fatalf("expected 5/6, got %s", sum)
	}
	if diff := a.Sub(b); !diff.Equal(NewRational(1, 6)) {
		t.Fatalf("expected 1/6, got %s", diff)
	}
	if prod := a.Mul(b); !prod.Equal(NewRational(1, 6)) {
		t.Fatalf("expected 1/6, got %s", prod)
	}
}

func TestRationalDivPanicsOnZero(t *testing.T) {
	defer func() {
		if recover() == nil {
			t.Fatalf("expected panic dividing by zero")
		}
	}()
	NewRational(1, 2).Div(Zero)
}

func TestRationalCmpAndLessEqual(t *testing.T) {
	a := NewRational(1, 2)
	b := NewRational(2, 3)
	if a.Cmp(b) >= 0 {
		t.Fatalf("expected 1/2 < 2/3")
	}
	if !a.LessEqual(b) {
		t.Fatalf("expected LessEqual true")
	}
	if !a.LessEqual(a) {
		t.Fatalf("expected LessEqual true for equal values")
	}
}

func TestRationalIsZero(t *testing.T) {
	if !Zero.IsZero() {
		t.Fatalf("expected Zero.IsZero()")
	}
	if RationalFromInt(1).IsZero() {
		t.Fatalf("expected 1 to not be zero")
	}
}

func TestRationalFloat64(t *testing.T) {
	r := NewRational(1, 4)
	if got := r.Float64(); got != 0.25 {
		t.Fatalf("expected 0.25, got %v", got)
	}
}

func TestRationalZeroValueBehavesAsZero(t *testing.T) {
	var r Rational
	if !r.IsZero() {
		t.Fatalf("expected zero-value Rational to behave as zero")
	}
	if !r.Add(RationalFromInt(1)).Equal(RationalFromInt(1)) {
		t.Fatalf("expected zero-value Rational to add like 0")
	}
}
