package tagvalue

import "fmt"

// Kind discriminates the variant held by a Value.
type Kind uint8

const (
	KindNull Kind = iota
	KindSymbol
	KindInt
	KindReal
	KindBool
	KindString
	KindPair
	KindSequence
)

// Value is a closed sum type over the tag payload variants required by the
// block contract: symbol, integer, real, boolean, string, pair, sequence,
// null. Equality is always structural.
type Value struct {
	kind Kind
	sym  Symbol
	i    int64
	f    float64
	b    bool
	str  string
	pair *[2]Value
	seq  []Value
}

// Null is the zero Value.
var Null = Value{kind: KindNull}

func FromSymbol(s Symbol) Value  { return Value{kind: KindSymbol, sym: s} }
func FromInt(i int64) Value      { return Value{kind: KindInt, i: i} }
func FromReal(f float64) Value   { return Value{kind: KindReal, f: f} }
func FromBool(b bool) Value      { return Value{kind: KindBool, b: b} }
func FromString(s string) Value  { return Value{kind: KindString, str: s} }
func FromSequence(v ...Value) Value {
	return Value{kind: KindSequence, seq: append([]Value(nil), v...)}
}
func FromPair(car, cdr Value) Value {
	return Value{kind: KindPair, pair: &[2]Value{car, cdr}}
}

func (v Value) Kind() Kind { return v.kind }

func (v Value) Symbol() (Symbol, bool) {
	if v.kind != KindSymbol {
		return Symbol{}, false
	}
	return v.sym, true
}

func (v Value) Int() (int64, bool) {
	if v.kind != KindInt {
		return 0, false
	}
	return v.i, true
}

func (v Value) Real() (float64, bool) {
	if v.kind != KindReal {
		return 0, false
	}
	return v.f, true
}

func (v Value) Bool() (bool, bool) {
	if v.kind != KindBool {
		return false, false
	}
	return v.b, true
}

func (v Value) String() string {
	switch v.kind {
	case KindNull:
		return "null"
	case KindSymbol:
		return v.sym.String()
	case KindInt:
		return fmt.Sprintf("%d", v.i)
	case KindReal:
		return fmt.Sprintf("%g", v.f)
	case KindBool:
		return fmt.Sprintf("%t", v.b)
	case KindString:
		return v.str
	case KindPair:
		return fmt.Sprintf("(%s . %s)", v.pair[0], v.pair[1])
	case KindSequence:
		return fmt.Sprintf("%v", v.seq)
	default:
		return "<invalid tag value>"
	}
}

// Equal reports whether v and other hold the same variant and the same
// structural content.
func (v Value) Equal(other Value) bool {
	if v.kind != other.kind {
		return false
	}
	switch v.kind {
	case KindNull:
		return true
	case KindSymbol:
		return v.sym == other.sym
	case KindInt:
		return v.i == other.i
	case KindReal:
		return v.f == other.f
	case KindBool:
		return v.b == other.b
	case KindString:
		return v.str == other.str
	case KindPair:
		return v.pair[0].Equal(other.pair[0]) && v.pair[1].Equal(other.pair[1])
	case KindSequence:
		if len(v.seq) != len(other.seq) {
			return false
		}
		for i := range v.seq {
			if !v.seq[i].Equal(other.seq[i]) {
				return false
			}
		}
		return true
	default:
		return false
	}
}
