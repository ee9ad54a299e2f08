package wirevalue

import (
	"encoding/json"
	"fmt"
	"math"
	"time"
)

// maxEncodeDepth bounds recursion so that cyclic native structures fail
// with ErrUnsupportedValueKind instead of exhausting the stack.
const maxEncodeDepth = 512

// Encode converts a native value into its wire envelope.
//
// Numeric policy: integer-typed natives encode as integer; float32 and
// float64 always encode as double so that a decoded double re-encodes
// as a double. Generic JSON numbers should be passed as json.Number
// (decode request bodies with UseNumber): an integral json.Number
// within int64 range encodes as integer, anything else as double.
func Encode(native any) (Value, error) {
	return encode(native, 0)
}

func encode(native any, depth int) (Value, error) {
	if depth > maxEncodeDepth {
		return Value{}, fmt.Errorf("%w: value nested deeper than %d levels", ErrUnsupportedValueKind, maxEncodeDepth)
	}

	switch t := native.(type) {
	case nil:
		return Null(), nil
	case Value:
		if t.IsZero() {
			return Value{}, fmt.Errorf("%w: no variant set", ErrMalformedValue)
		}
		return t.Clone(), nil
	case bool:
		return Boolean(t), nil
	case string:
		return String(t), nil
	case int:
		return Integer(int64(t)), nil
	case int8:
		return Integer(int64(t)), nil
	case int16:
		return Integer(int64(t)), nil
	case int32:
		return Integer(int64(t)), nil
	case int64:
		return Integer(t), nil
	case uint:
		return encodeUint(uint64(t))
	case uint8:
		return Integer(int64(t)), nil
	case uint16:
		return Integer(int64(t)), nil
	case uint32:
		return Integer(int64(t)), nil
	case uint64:
		return encodeUint(t)
	case float32:
		return Double(float64(t)), nil
	case float64:
		return Double(t), nil
	case json.Number:
		return encodeNumber(t)
	case []byte:
		return Bytes(t), nil
	case time.Time:
		return Timestamp(t), nil
	case Reference:
		return Ref(t), nil
	case GeoPoint:
		return Geo(t), nil
	case []any:
		vals := make([]Value, len(t))
		for i, e := range t {
			ev, err := encode(e, depth+1)
			if err != nil {
				return Value{}, fmt.Errorf("array element %d: %w", i, err)
			}
			vals[i] = ev
		}
		return Value{kind: KindArray, arrVal: vals}, nil
	case []Value:
		return Array(t), nil
	case map[string]any:
		fields := make(map[string]Value, len(t))
		for k, e := range t {
			ev, err := encode(e, depth+1)
			if err != nil {
				return Value{}, fmt.Errorf("field %q: %w", k, err)
			}
			fields[k] = ev
		}
		return Value{kind: KindMap, mapVal: fields}, nil
	case map[string]Value:
		return Map(t), nil
	default:
		return Value{}, fmt.Errorf("%w: %T", ErrUnsupportedValueKind, native)
	}
}

func encodeUint(u uint64) (Value, error) {
	if u > math.MaxInt64 {
		// Out of signed range: the wire integer cannot hold it.
		return Double(float64(u)), nil
	}
	return Integer(int64(u)), nil
}

func encodeNumber(n json.Number) (Value, error) {
	if i, err := n.Int64(); err == nil {
		return Integer(i), nil
	}
	f, err := n.Float64()
	if err != nil {
		return Value{}, fmt.Errorf("%w: number %q", ErrUnsupportedValueKind, n.String())
	}
	return Double(f), nil
}

// Decode converts a wire envelope back into a native value.
//
// The native kinds produced are: nil, bool, int64, float64, time.Time,
// string, []byte, Reference, GeoPoint, []any and map[string]any.
// Decode(Encode(v)) == v for every representable v, and the reverse
// holds tag-exactly for every well-formed envelope.
func Decode(v Value) (any, error) {
	switch v.kind {
	case KindNull:
		return nil, nil
	case KindBoolean:
		return v.boolVal, nil
	case KindInteger:
		return v.intVal, nil
	case KindDouble:
		return v.dblVal, nil
	case KindTimestamp:
		return v.timeVal, nil
	case KindString:
		return v.strVal, nil
	case KindBytes:
		cp := make([]byte, len(v.bytesVal))
		copy(cp, v.bytesVal)
		return cp, nil
	case KindReference:
		return Reference(v.strVal), nil
	case KindGeoPoint:
		return v.geoVal, nil
	case KindArray:
		out := make([]any, len(v.arrVal))
		for i, e := range v.arrVal {
			dv, err := Decode(e)
			if err != nil {
				return nil, fmt.Errorf("array element %d: %w", i, err)
			}
			out[i] = dv
		}
		return out, nil
	case KindMap:
		out := make(map[string]any, len(v.mapVal))
		for k, e := range v.mapVal {
			dv, err := Decode(e)
			if err != nil {
				return nil, fmt.Errorf("field %q: %w", k, err)
			}
			out[k] = dv
		}
		return out, nil
	default:
		return nil, fmt.Errorf("%w: no variant set", ErrMalformedValue)
	}
}

// EncodeFields encodes a whole document body. Absent fields are simply
// not present in the result; null is produced only for an explicit nil.
func EncodeFields(fields map[string]any) (map[string]Value, error) {
	out := make(map[string]Value, len(fields))
	for k, v := range fields {
		ev, err := Encode(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = ev
	}
	return out, nil
}

// DecodeFields decodes a whole stored field map back to native values.
func DecodeFields(fields map[string]Value) (map[string]any, error) {
	out := make(map[string]any, len(fields))
	for k, v := range fields {
		dv, err := Decode(v)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", k, err)
		}
		out[k] = dv
	}
	return out, nil
}
