package models

import (
	"errors"
	"fmt"
	"math"
	"math/big"
	"strconv"
	"strings"
)

// Kind is the tag of a Value.
type Kind int

const (
	NullKind Kind = iota
	BoolKind
	NumberKind
	StringKind
	ArrayKind
	ObjectKind
)

func (k Kind) String() string {
	switch k {
	case NullKind:
		return "null"
	case BoolKind:
		return "boolean"
	case NumberKind:
		return "number"
	case StringKind:
		return "string"
	case ArrayKind:
		return "array"
	case ObjectKind:
		return "object"
	default:
		return fmt.Sprintf("kind(%d)", int(k))
	}
}

// IsContainer reports whether values of this kind hold children.
func (k Kind) IsContainer() bool {
	return k == ArrayKind || k == ObjectKind
}

// NumberType distinguishes how a number literal should be read back.
type NumberType int

const (
	// IntNumber fits in an int64.
	IntNumber NumberType = iota
	// BigIntNumber is an integer outside the int64 range.
	BigIntNumber
	// FloatNumber has a fraction, an exponent or is non-finite.
	FloatNumber
)

// Literals used for non-finite floats.
const (
	PosInf = "+Inf"
	NegInf = "-Inf"
	NaN    = "NaN"
)

// Number keeps the decimal literal of a number so that no precision is lost
// between parse and serialize.
type Number struct {
	Literal string
	Type    NumberType
}

// IsFinite reports whether the number has a JSON representation.
func (n Number) IsFinite() bool {
	switch n.Literal {
	case PosInf, NegInf, NaN:
		return false
	}
	return true
}

// IsInteger reports whether the number is an integer subtype.
func (n Number) IsInteger() bool {
	return n.Type == IntNumber || n.Type == BigIntNumber
}

// Int64 returns the number as an int64 when it is an IntNumber.
func (n Number) Int64() (int64, bool) {
	if n.Type != IntNumber {
		return 0, false
	}
	i, err := strconv.ParseInt(n.Literal, 10, 64)
	return i, err == nil
}

// Float64 returns the nearest float64 value.
func (n Number) Float64() float64 {
	switch n.Literal {
	case PosInf:
		return math.Inf(1)
	case NegInf:
		return math.Inf(-1)
	case NaN:
		return math.NaN()
	}
	f, _ := strconv.ParseFloat(n.Literal, 64)
	return f
}

// BigInt returns the integer value, or nil for floats.
func (n Number) BigInt() *big.Int {
	if !n.IsInteger() {
		return nil
	}
	i, ok := new(big.Int).SetString(n.Literal, 10)
	if !ok {
		return nil
	}
	return i
}

// Member is one key/value pair of an object.
type Member struct {
	Key   string
	Value *Value
}

// Value is the canonical, format-independent document tree.
// Only the fields matching Kind are meaningful.
type Value struct {
	Kind    Kind
	Bool    bool
	Num     Number
	Str     string
	Items   []*Value
	Members []Member
}

func Null() *Value { return &Value{Kind: NullKind} }

func Bool(b bool) *Value { return &Value{Kind: BoolKind, Bool: b} }

func String(s string) *Value { return &Value{Kind: StringKind, Str: s} }

func Int(i int64) *Value {
	return &Value{Kind: NumberKind, Num: Number{Literal: strconv.FormatInt(i, 10), Type: IntNumber}}
}

func Float(f float64) *Value {
	return &Value{Kind: NumberKind, Num: FloatToNumber(f)}
}

// FloatToNumber renders f the way JSON encoders do, keeping a fraction or
// exponent so the literal reads back as a float.
func FloatToNumber(f float64) Number {
	switch {
	case math.IsNaN(f):
		return Number{Literal: NaN, Type: FloatNumber}
	case math.IsInf(f, 1):
		return Number{Literal: PosInf, Type: FloatNumber}
	case math.IsInf(f, -1):
		return Number{Literal: NegInf, Type: FloatNumber}
	}
	s := strconv.FormatFloat(f, 'g', -1, 64)
	if !strings.ContainsAny(s, ".eE") {
		s += ".0"
	}
	return Number{Literal: s, Type: FloatNumber}
}

// NumberFromLiteral classifies a decimal literal. The literal is kept as is.
func NumberFromLiteral(lit string) (Number, error) {
	if lit == PosInf || lit == NegInf || lit == NaN {
		return Number{Literal: lit, Type: FloatNumber}, nil
	}
	if strings.ContainsAny(lit, ".eE") {
		if _, err := strconv.ParseFloat(lit, 64); err != nil && !errors.Is(err, strconv.ErrRange) {
			return Number{}, fmt.Errorf("invalid number literal %q", lit)
		}
		return Number{Literal: lit, Type: FloatNumber}, nil
	}
	if _, err := strconv.ParseInt(lit, 10, 64); err == nil {
		return Number{Literal: lit, Type: IntNumber}, nil
	}
	if _, ok := new(big.Int).SetString(lit, 10); ok {
		return Number{Literal: lit, Type: BigIntNumber}, nil
	}
	return Number{}, fmt.Errorf("invalid number literal %q", lit)
}

// NumberValue wraps a Number.
func NumberValue(n Number) *Value { return &Value{Kind: NumberKind, Num: n} }

// Array builds an array value.
func Array(items ...*Value) *Value {
	if items == nil {
		items = []*Value{}
	}
	return &Value{Kind: ArrayKind, Items: items}
}

// Object builds an object value. Later duplicates of a key replace earlier ones.
func Object(members ...Member) *Value {
	obj := &Value{Kind: ObjectKind, Members: make([]Member, 0, len(members))}
	for _, m := range members {
		obj.Set(m.Key, m.Value)
	}
	return obj
}

// IsLeaf reports whether v holds no children.
func (v *Value) IsLeaf() bool { return !v.Kind.IsContainer() }

// Len is the number of children of a container.
func (v *Value) Len() int {
	switch v.Kind {
	case ArrayKind:
		return len(v.Items)
	case ObjectKind:
		return len(v.Members)
	}
	return 0
}

// Index returns the position of key in an object, or -1.
func (v *Value) Index(key string) int {
	for i, m := range v.Members {
		if m.Key == key {
			return i
		}
	}
	return -1
}

// Get returns the member value for key.
func (v *Value) Get(key string) (*Value, bool) {
	if v.Kind != ObjectKind {
		return nil, false
	}
	if i := v.Index(key); i >= 0 {
		return v.Members[i].Value, true
	}
	return nil, false
}

// Set replaces the value of an existing key in place or appends a new member.
func (v *Value) Set(key string, val *Value) {
	if i := v.Index(key); i >= 0 {
		v.Members[i].Value = val
		return
	}
	v.Members = append(v.Members, Member{Key: key, Value: val})
}

// Delete removes key and reports whether it was present.
func (v *Value) Delete(key string) bool {
	i := v.Index(key)
	if i < 0 {
		return false
	}
	v.Members = append(v.Members[:i], v.Members[i+1:]...)
	return true
}

// Keys lists object keys in order.
func (v *Value) Keys() []string {
	keys := make([]string, len(v.Members))
	for i, m := range v.Members {
		keys[i] = m.Key
	}
	return keys
}

// Clone returns a deep copy.
func (v *Value) Clone() *Value {
	if v == nil {
		return nil
	}
	c := *v
	switch v.Kind {
	case ArrayKind:
		c.Items = make([]*Value, len(v.Items))
		for i, item := range v.Items {
			c.Items[i] = item.Clone()
		}
	case ObjectKind:
		c.Members = make([]Member, len(v.Members))
		for i, m := range v.Members {
			c.Members[i] = Member{Key: m.Key, Value: m.Value.Clone()}
		}
	}
	return &c
}

// Equal compares two trees. Object members must appear in the same order;
// numbers compare by value.
func Equal(a, b *Value) bool {
	if a == nil || b == nil {
		return a == b
	}
	if a.Kind != b.Kind {
		return false
	}
	switch a.Kind {
	case NullKind:
		return true
	case BoolKind:
		return a.Bool == b.Bool
	case StringKind:
		return a.Str == b.Str
	case NumberKind:
		return NumbersEqual(a.Num, b.Num)
	case ArrayKind:
		if len(a.Items) != len(b.Items) {
			return false
		}
		for i := range a.Items {
			if !Equal(a.Items[i], b.Items[i]) {
				return false
			}
		}
		return true
	case ObjectKind:
		if len(a.Members) != len(b.Members) {
			return false
		}
		for i := range a.Members {
			if a.Members[i].Key != b.Members[i].Key || !Equal(a.Members[i].Value, b.Members[i].Value) {
				return false
			}
		}
		return true
	}
	return false
}

// NumbersEqual compares numbers by numeric value, exactly for integers.
func NumbersEqual(a, b Number) bool {
	if a.Literal == b.Literal {
		return true
	}
	if a.IsInteger() && b.IsInteger() {
		ai, bi := a.BigInt(), b.BigInt()
		return ai != nil && bi != nil && ai.Cmp(bi) == 0
	}
	if !a.IsFinite() || !b.IsFinite() {
		return false
	}
	af, aok := new(big.Float).SetPrec(256).SetString(a.Literal)
	bf, bok := new(big.Float).SetPrec(256).SetString(b.Literal)
	if aok && bok {
		return af.Cmp(bf) == 0
	}
	return a.Float64() == b.Float64()
}
