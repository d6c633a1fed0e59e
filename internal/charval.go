package internal

import (
	"encoding/json"
	"fmt"

	"github.com/spf13/cast"
)

// CharKind discriminates the value variants a characteristic can hold.
type CharKind int

const (
	CharString CharKind = iota
	CharNumber
	CharBool
	CharMap
	CharList
)

// CharValue is one value in a product's open characteristics bag. Consumers
// switch on Kind instead of probing dynamic types.
type CharValue struct {
	Kind CharKind
	Str  string
	Num  float64
	Bool bool
	Map  map[string]CharValue
	List []string
}

type Characteristics map[string]CharValue

func StringChar(v string) CharValue  { return CharValue{Kind: CharString, Str: v} }
func NumberChar(v float64) CharValue { return CharValue{Kind: CharNumber, Num: v} }
func BoolChar(v bool) CharValue      { return CharValue{Kind: CharBool, Bool: v} }

func MapChar(v map[string]CharValue) CharValue { return CharValue{Kind: CharMap, Map: v} }
func ListChar(v []string) CharValue            { return CharValue{Kind: CharList, List: v} }

// CharFromAny coerces an arbitrary decoded value into a CharValue, falling
// back to a stringified form for anything without a dedicated variant.
func CharFromAny(v any) CharValue {
	switch t := v.(type) {
	case nil:
		return StringChar("")
	case string:
		return StringChar(t)
	case bool:
		return BoolChar(t)
	case float64:
		return NumberChar(t)
	case int:
		return NumberChar(float64(t))
	case map[string]any:
		m := make(map[string]CharValue, len(t))
		for k, inner := range t {
			m[k] = CharFromAny(inner)
		}
		return MapChar(m)
	case []any:
		list := make([]string, 0, len(t))
		for _, inner := range t {
			list = append(list, cast.ToString(inner))
		}
		return ListChar(list)
	default:
		return StringChar(cast.ToString(t))
	}
}

// AsString returns the string payload, stringifying scalar variants.
func (v CharValue) AsString() string {
	switch v.Kind {
	case CharString:
		return v.Str
	case CharNumber:
		return cast.ToString(v.Num)
	case CharBool:
		return cast.ToString(v.Bool)
	default:
		return ""
	}
}

// AsNumber reports the numeric payload; ok is false when the variant does not
// carry a usable number.
func (v CharValue) AsNumber() (float64, bool) {
	switch v.Kind {
	case CharNumber:
		return v.Num, true
	case CharString:
		n, err := cast.ToFloat64E(v.Str)
		if err != nil {
			return 0, false
		}
		return n, true
	default:
		return 0, false
	}
}

func (v CharValue) IsEmpty() bool {
	switch v.Kind {
	case CharString:
		return v.Str == ""
	case CharMap:
		return len(v.Map) == 0
	case CharList:
		return len(v.List) == 0
	default:
		return false
	}
}

func (v CharValue) MarshalJSON() ([]byte, error) {
	switch v.Kind {
	case CharString:
		return json.Marshal(v.Str)
	case CharNumber:
		return json.Marshal(v.Num)
	case CharBool:
		return json.Marshal(v.Bool)
	case CharMap:
		return json.Marshal(v.Map)
	case CharList:
		return json.Marshal(v.List)
	default:
		return nil, fmt.Errorf("unknown characteristic kind %d", v.Kind)
	}
}

func (v *CharValue) UnmarshalJSON(data []byte) error {
	var raw any
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}
	*v = CharFromAny(raw)
	return nil
}
