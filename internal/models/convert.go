package models

import (
	"fmt"
	"math/big"
	"sort"
)

// Interface converts v to plain Go values: nil, bool, int64, *big.Int,
// float64, string, []any and map[string]any. Object order is lost.
func (v *Value) Interface() any {
	switch v.Kind {
	case BoolKind:
		return v.Bool
	case StringKind:
		return v.Str
	case NumberKind:
		switch v.Num.Type {
		case IntNumber:
			i, _ := v.Num.Int64()
			return i
		case BigIntNumber:
			return v.Num.BigInt()
		default:
			return v.Num.Float64()
		}
	case ArrayKind:
		out := make([]any, len(v.Items))
		for i, item := range v.Items {
			out[i] = item.Interface()
		}
		return out
	case ObjectKind:
		out := make(map[string]any, len(v.Members))
		for _, m := range v.Members {
			out[m.Key] = m.Value.Interface()
		}
		return out
	}
	return nil
}

// FromInterface converts plain Go values back into a tree. Map keys are
// sorted since Go maps carry no order.
func FromInterface(x any) (*Value, error) {
	switch t := x.(type) {
	case nil:
		return Null(), nil
	case bool:
		return Bool(t), nil
	case string:
		return String(t), nil
	case int:
		return Int(int64(t)), nil
	case int32:
		return Int(int64(t)), nil
	case int64:
		return Int(t), nil
	case uint64:
		return NumberValue(mustNumber(new(big.Int).SetUint64(t).String())), nil
	case float32:
		return Float(float64(t)), nil
	case float64:
		return Float(t), nil
	case *big.Int:
		return NumberValue(mustNumber(t.String())), nil
	case fmt.Stringer:
		// json.Number and similar literal carriers
		num, err := NumberFromLiteral(t.String())
		if err != nil {
			return nil, fmt.Errorf("unsupported value of type %T", x)
		}
		return NumberValue(num), nil
	case []any:
		items := make([]*Value, len(t))
		for i, e := range t {
			item, err := FromInterface(e)
			if err != nil {
				return nil, err
			}
			items[i] = item
		}
		return Array(items...), nil
	case map[string]any:
		keys := make([]string, 0, len(t))
		for k := range t {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		obj := Object()
		for _, k := range keys {
			val, err := FromInterface(t[k])
			if err != nil {
				return nil, err
			}
			obj.Members = append(obj.Members, Member{Key: k, Value: val})
		}
		return obj, nil
	}
	return nil, fmt.Errorf("unsupported value of type %T", x)
}

func mustNumber(lit string) Number {
	n, err := NumberFromLiteral(lit)
	if err != nil {
		panic(err)
	}
	return n
}
