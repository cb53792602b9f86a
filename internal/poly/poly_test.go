package poly

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNew_TrimsTrailingZeros(t *testing.T) {
	tests := []struct {
		name   string
		coeffs []int64
		degree int
	}{
		{"empty", nil, -1},
		{"all zero", []int64{0, 0, 0}, -1},
		{"constant", []int64{5, 0}, 0},
		{"linear", []int64{0, 1, 0, 0}, 1},
		{"inner zero kept", []int64{1, 0, 3}, 2},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := FromInt64(tt.coeffs...)
			assert.Equal(t, tt.degree, p.Degree())
			assert.Equal(t, tt.degree == -1, p.IsZero())
		})
	}
}

func TestNew_CopiesInput(t *testing.T) {
	c := big.NewInt(7)
	p := New(c)
	c.SetInt64(100)

	assert.Equal(t, "[7]", p.String(), "mutating the argument must not leak into the polynomial")

	got := p.Coeff(0)
	got.SetInt64(-1)
	assert.Equal(t, "[7]", p.String(), "mutating Coeff result must not leak either")
}

func TestAddSub(t *testing.T) {
	p := FromInt64(1, 2, 3)
	q := FromInt64(-1, 0, -3)

	assert.True(t, Add(p, q).Equal(FromInt64(0, 2)), "top coefficient cancels and is trimmed")
	assert.True(t, Sub(p, p).IsZero())
	assert.True(t, Sub(Zero(), p).Equal(Neg(p)))
	assert.True(t, Add(p, Zero()).Equal(p))
}

func TestMul_Convolution(t *testing.T) {
	// (x+10)^2 = 100 + 20x + x^2
	xp10 := FromInt64(10, 1)
	assert.Equal(t, "[100 20 1]", Mul(xp10, xp10).String())

	assert.True(t, Mul(xp10, Zero()).IsZero())
	assert.True(t, Mul(xp10, FromInt64(1)).Equal(xp10))
}

func TestMul_SevenFactors(t *testing.T) {
	// (x+10)^4 * (x-10)^3
	p := FromInt64(1)
	for range 4 {
		p = Mul(p, FromInt64(10, 1))
	}
	for range 3 {
		p = Mul(p, FromInt64(-10, 1))
	}

	assert.Equal(t, "[-10000000 -1000000 300000 30000 -3000 -300 10 1]", p.String())
	assert.Equal(t, 7, p.Degree())
}

func TestMul_BigCoefficients(t *testing.T) {
	huge, ok := new(big.Int).SetString("123456789012345678901234567890", 10)
	require.True(t, ok)

	p := Mul(Constant(huge), Constant(huge))
	want := new(big.Int).Mul(huge, huge)
	assert.Equal(t, 0, p.Coeff(0).Cmp(want))
}

func TestEqual_NegEqual(t *testing.T) {
	tests := []struct {
		name     string
		p, q     Polynomial
		equal    bool
		negEqual bool
	}{
		{"identical", FromInt64(1, 2), FromInt64(1, 2), true, false},
		{"negated", FromInt64(1, 2), FromInt64(-1, -2), false, true},
		{"different degree", FromInt64(1, 2), FromInt64(1, 2, 3), false, false},
		{"both zero", Zero(), Zero(), true, true},
		{"partially negated", FromInt64(1, 2), FromInt64(-1, 2), false, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.equal, tt.p.Equal(tt.q))
			assert.Equal(t, tt.negEqual, tt.p.NegEqual(tt.q))
		})
	}
}

func TestEval_Horner(t *testing.T) {
	p := FromInt64(100, 20, 1)
	for x := int64(-20); x <= 20; x++ {
		want := (x + 10) * (x + 10)
		assert.Equal(t, big.NewInt(want).String(), p.Eval(big.NewInt(x)).String(), "x=%d", x)
	}
	assert.Equal(t, "0", Zero().Eval(big.NewInt(42)).String())
}

func TestVariable(t *testing.T) {
	assert.Equal(t, "[0 1]", Variable().String())
	assert.Equal(t, 1, Variable().Degree())
}
