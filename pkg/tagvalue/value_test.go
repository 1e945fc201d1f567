package tagvalue

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestInternDedupesBySymbolText(t *testing.T) {
	a := Intern("burst")
	b := Intern("burst")
	c := Intern("gap")

	require.Equal(t, a, b)
	require.NotEqual(t, a, c)
	require.Equal(t, "burst", a.String())
}

func TestValueEqual(t *testing.T) {
	sym := Intern("freq")

	cases := []struct {
		name  string
		a, b  Value
		equal bool
	}{
		{"int equal", FromInt(7), FromInt(7), true},
		{"int differ", FromInt(7), FromInt(8), false},
		{"symbol equal", FromSymbol(sym), FromSymbol(sym), true},
		{"different kinds", FromInt(1), FromReal(1), false},
		{"pair equal", FromPair(FromInt(1), FromInt(2)), FromPair(FromInt(1), FromInt(2)), true},
		{"pair differ", FromPair(FromInt(1), FromInt(2)), FromPair(FromInt(1), FromInt(3)), false},
		{"sequence equal", FromSequence(FromInt(1), FromBool(true)), FromSequence(FromInt(1), FromBool(true)), true},
		{"sequence length differs", FromSequence(FromInt(1)), FromSequence(FromInt(1), FromInt(2)), false},
		{"null equal", Null, Null, true},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			require.Equal(t, tc.equal, tc.a.Equal(tc.b))
		})
	}
}

func TestValueAccessorsRejectWrongKind(t *testing.T) {
	v := FromString("hello")

	_, ok := v.Int()
	require.False(t, ok)

	_, ok = v.Bool()
	require.False(t, ok)

	require.Equal(t, "hello", v.String())
}
