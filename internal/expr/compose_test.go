package expr

import (
	"math/big"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/callchain/internal/poly"
)

func TestCompose(t *testing.T) {
	el := Element{}
	tests := []struct {
		name string
		e    Expr
		with Arith
		want string
	}{
		{"element", el, plus(el, Int(10)), "(element+10)"},
		{"constant unchanged", Int(5), plus(el, Int(10)), "5"},
		{"map fusion", mult(el, el), plus(el, Int(10)), "((element+10)*(element+10))"},
		{"pushdown", Gt{L: el, R: Int(10)}, plus(el, Int(10)), "((element+10)>10)"},
		{"boolean tree", And{L: Gt{L: el, R: Int(0)}, R: Lt{L: el, R: Int(9)}}, mult(el, Int(2)),
			"(((element*2)>0)&((element*2)<9))"},
		{"normalized atom", GtZero{P: poly.FromInt64(-10, 1)}, plus(el, Int(1)), "((-10+(element+1))>0)"},
		{"identity", plus(el, Int(1)), el, "(element+1)"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := Compose(tt.e, tt.with)
			require.NoError(t, err)
			assert.Equal(t, tt.want, got.String())
		})
	}
}

func TestCompose_PreservesCapability(t *testing.T) {
	b, err := ComposeBool(Eq{L: Element{}, R: Int(3)}, mult(Element{}, Element{}))
	require.NoError(t, err)
	assert.Equal(t, "((element*element)=3)", b.String())

	a, err := ComposeArith(minus(Element{}, Int(1)), Int(4))
	require.NoError(t, err)
	v, err := EvalArith(a, big.NewInt(0))
	require.NoError(t, err)
	assert.Equal(t, "3", v.String())
}

func TestCompose_Errors(t *testing.T) {
	_, err := Compose(Element{}, nil)
	require.Error(t, err)
	assert.True(t, IsInvariantError(err))

	_, err = Compose(And{L: True}, Element{})
	require.Error(t, err)
	assert.True(t, IsInvariantError(err), "missing operand is reported, not patched")
}

func TestCompose_Semantics(t *testing.T) {
	// f(g(x)) must equal evaluating f at g(x).
	el := Element{}
	f := minus(mult(el, el), Int(3))
	g := plus(mult(Int(2), el), Int(1))

	fg, err := ComposeArith(f, g)
	require.NoError(t, err)

	for x := int64(-10); x <= 10; x++ {
		bx := big.NewInt(x)
		gx, err := EvalArith(g, bx)
		require.NoError(t, err)
		want, err := EvalArith(f, gx)
		require.NoError(t, err)
		got, err := EvalArith(fg, bx)
		require.NoError(t, err)
		assert.Equal(t, 0, want.Cmp(got), "x=%d", x)
	}
}

func TestEvalBool(t *testing.T) {
	el := Element{}
	cond := Or{L: And{L: Gt{L: el, R: Int(0)}, R: Lt{L: el, R: Int(5)}}, R: EqZero{P: poly.FromInt64(-9, 1)}}

	accepted := map[int64]bool{1: true, 2: true, 3: true, 4: true, 9: true}
	for x := int64(-3); x <= 12; x++ {
		got, err := EvalBool(cond, big.NewInt(x))
		require.NoError(t, err)
		assert.Equal(t, accepted[x], got, "x=%d", x)
	}

	ok, err := EvalBool(True, big.NewInt(0))
	require.NoError(t, err)
	assert.True(t, ok)
	ok, err = EvalBool(False, big.NewInt(0))
	require.NoError(t, err)
	assert.False(t, ok)
}
