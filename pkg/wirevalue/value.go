package wirevalue

import (
	"encoding/base64"
	"encoding/json"
	"errors"
	"fmt"
	"time"
)

var (
	// ErrUnsupportedValueKind reports a native value with no wire mapping
	// (e.g. a channel, a function, or a structure nested beyond reason).
	ErrUnsupportedValueKind = errors.New("unsupported value kind")

	// ErrMalformedValue reports a wire value with zero or more than one
	// variant populated, or a malformed child inside a map or array.
	ErrMalformedValue = errors.New("malformed wire value")
)

// Kind identifies which variant of a Value is populated.
type Kind int

const (
	KindInvalid Kind = iota
	KindNull
	KindBoolean
	KindInteger
	KindDouble
	KindTimestamp
	KindString
	KindBytes
	KindReference
	KindGeoPoint
	KindArray
	KindMap
)

// String returns the wire field name for the kind.
func (k Kind) String() string {
	switch k {
	case KindNull:
		return "nullValue"
	case KindBoolean:
		return "booleanValue"
	case KindInteger:
		return "integerValue"
	case KindDouble:
		return "doubleValue"
	case KindTimestamp:
		return "timestampValue"
	case KindString:
		return "stringValue"
	case KindBytes:
		return "bytesValue"
	case KindReference:
		return "referenceValue"
	case KindGeoPoint:
		return "geoPointValue"
	case KindArray:
		return "arrayValue"
	case KindMap:
		return "mapValue"
	default:
		return "invalid"
	}
}

// Reference is a document resource name used as a field value.
type Reference string

// GeoPoint is a latitude/longitude pair in degrees.
type GeoPoint struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

// Value is the tagged value envelope. Exactly one variant is populated;
// the zero Value is invalid and fails to marshal.
type Value struct {
	kind Kind

	boolVal  bool
	intVal   int64
	dblVal   float64
	timeVal  time.Time
	strVal   string // string, reference
	bytesVal []byte
	geoVal   GeoPoint
	arrVal   []Value
	mapVal   map[string]Value
}

// Null returns the explicit null value.
func Null() Value { return Value{kind: KindNull} }

// Boolean returns a boolean value.
func Boolean(b bool) Value { return Value{kind: KindBoolean, boolVal: b} }

// Integer returns a 64-bit signed integer value.
func Integer(i int64) Value { return Value{kind: KindInteger, intVal: i} }

// Double returns an IEEE-754 double value.
func Double(f float64) Value { return Value{kind: KindDouble, dblVal: f} }

// Timestamp returns a timestamp value, normalized to UTC.
func Timestamp(t time.Time) Value { return Value{kind: KindTimestamp, timeVal: t.UTC()} }

// String returns a UTF-8 string value.
func String(s string) Value { return Value{kind: KindString, strVal: s} }

// Bytes returns a raw byte sequence value. The slice is copied.
func Bytes(b []byte) Value {
	cp := make([]byte, len(b))
	copy(cp, b)
	return Value{kind: KindBytes, bytesVal: cp}
}

// Ref returns a document reference value.
func Ref(name Reference) Value { return Value{kind: KindReference, strVal: string(name)} }

// Geo returns a geographical point value.
func Geo(p GeoPoint) Value { return Value{kind: KindGeoPoint, geoVal: p} }

// Array returns an ordered array value. The slice is copied.
func Array(vals []Value) Value {
	cp := make([]Value, len(vals))
	copy(cp, vals)
	return Value{kind: KindArray, arrVal: cp}
}

// Map returns a string-keyed map value. The map is copied.
func Map(fields map[string]Value) Value {
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v
	}
	return Value{kind: KindMap, mapVal: cp}
}

// Kind reports which variant is populated.
func (v Value) Kind() Kind { return v.kind }

// IsZero reports whether the value has no variant populated.
func (v Value) IsZero() bool { return v.kind == KindInvalid }

// Bool returns the boolean payload (valid for KindBoolean).
func (v Value) Bool() bool { return v.boolVal }

// Int returns the integer payload (valid for KindInteger).
func (v Value) Int() int64 { return v.intVal }

// Float returns the double payload (valid for KindDouble).
func (v Value) Float() float64 { return v.dblVal }

// Time returns the timestamp payload (valid for KindTimestamp).
func (v Value) Time() time.Time { return v.timeVal }

// Str returns the string payload (valid for KindString and KindReference).
func (v Value) Str() string { return v.strVal }

// Clone returns a deep copy of the value.
func (v Value) Clone() Value {
	switch v.kind {
	case KindBytes:
		return Bytes(v.bytesVal)
	case KindArray:
		cp := make([]Value, len(v.arrVal))
		for i, e := range v.arrVal {
			cp[i] = e.Clone()
		}
		return Value{kind: KindArray, arrVal: cp}
	case KindMap:
		cp := make(map[string]Value, len(v.mapVal))
		for k, e := range v.mapVal {
			cp[k] = e.Clone()
		}
		return Value{kind: KindMap, mapVal: cp}
	default:
		return v
	}
}

// CloneFields deep-copies a field map.
func CloneFields(fields map[string]Value) map[string]Value {
	if fields == nil {
		return nil
	}
	cp := make(map[string]Value, len(fields))
	for k, v := range fields {
		cp[k] = v.Clone()
	}
	return cp
}

type geoPayload struct {
	Latitude  float64 `json:"latitude"`
	Longitude float64 `json:"longitude"`
}

type arrayPayload struct {
	Values []Value `json:"values,omitempty"`
}

type mapPayload struct {
	Fields map[string]Value `json:"fields,omitempty"`
}

// MarshalJSON renders the single-variant wire envelope.
func (v Value) MarshalJSON() ([]byte, error) {
	var payload any
	switch v.kind {
	case KindNull:
		payload = nil
	case KindBoolean:
		payload = v.boolVal
	case KindInteger:
		payload = fmt.Sprintf("%d", v.intVal)
	case KindDouble:
		payload = v.dblVal
	case KindTimestamp:
		payload = v.timeVal.UTC().Format(time.RFC3339Nano)
	case KindString, KindReference:
		payload = v.strVal
	case KindBytes:
		payload = base64.StdEncoding.EncodeToString(v.bytesVal)
	case KindGeoPoint:
		payload = geoPayload{Latitude: v.geoVal.Latitude, Longitude: v.geoVal.Longitude}
	case KindArray:
		payload = arrayPayload{Values: v.arrVal}
	case KindMap:
		payload = mapPayload{Fields: v.mapVal}
	default:
		return nil, fmt.Errorf("%w: no variant set", ErrMalformedValue)
	}
	return json.Marshal(map[string]any{v.kind.String(): payload})
}

// UnmarshalJSON parses the wire envelope, enforcing the one-variant
// invariant and validating every nested child.
func (v *Value) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return fmt.Errorf("%w: %v", ErrMalformedValue, err)
	}
	if len(raw) != 1 {
		return fmt.Errorf("%w: expected exactly one variant, got %d", ErrMalformedValue, len(raw))
	}
	var tag string
	var payload json.RawMessage
	for k, p := range raw {
		tag, payload = k, p
	}

	switch tag {
	case "nullValue":
		*v = Null()
	case "booleanValue":
		var b bool
		if err := json.Unmarshal(payload, &b); err != nil {
			return fmt.Errorf("%w: booleanValue: %v", ErrMalformedValue, err)
		}
		*v = Boolean(b)
	case "integerValue":
		i, err := parseWireInteger(payload)
		if err != nil {
			return err
		}
		*v = Integer(i)
	case "doubleValue":
		var f float64
		if err := json.Unmarshal(payload, &f); err != nil {
			return fmt.Errorf("%w: doubleValue: %v", ErrMalformedValue, err)
		}
		*v = Double(f)
	case "timestampValue":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("%w: timestampValue: %v", ErrMalformedValue, err)
		}
		t, err := time.Parse(time.RFC3339Nano, s)
		if err != nil {
			return fmt.Errorf("%w: timestampValue %q: %v", ErrMalformedValue, s, err)
		}
		*v = Timestamp(t)
	case "stringValue":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("%w: stringValue: %v", ErrMalformedValue, err)
		}
		*v = String(s)
	case "bytesValue":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("%w: bytesValue: %v", ErrMalformedValue, err)
		}
		b, err := base64.StdEncoding.DecodeString(s)
		if err != nil {
			return fmt.Errorf("%w: bytesValue: %v", ErrMalformedValue, err)
		}
		*v = Value{kind: KindBytes, bytesVal: b}
	case "referenceValue":
		var s string
		if err := json.Unmarshal(payload, &s); err != nil {
			return fmt.Errorf("%w: referenceValue: %v", ErrMalformedValue, err)
		}
		*v = Ref(Reference(s))
	case "geoPointValue":
		var p geoPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: geoPointValue: %v", ErrMalformedValue, err)
		}
		*v = Geo(GeoPoint(p))
	case "arrayValue":
		var p arrayPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: arrayValue: %v", ErrMalformedValue, err)
		}
		*v = Value{kind: KindArray, arrVal: p.Values}
	case "mapValue":
		var p mapPayload
		if err := json.Unmarshal(payload, &p); err != nil {
			return fmt.Errorf("%w: mapValue: %v", ErrMalformedValue, err)
		}
		if p.Fields == nil {
			p.Fields = map[string]Value{}
		}
		*v = Value{kind: KindMap, mapVal: p.Fields}
	default:
		return fmt.Errorf("%w: unknown variant %q", ErrMalformedValue, tag)
	}
	return nil
}

// parseWireInteger accepts the canonical string encoding and, for
// leniency with hand-written clients, a bare JSON number.
func parseWireInteger(payload json.RawMessage) (int64, error) {
	var s string
	if err := json.Unmarshal(payload, &s); err == nil {
		var i int64
		if _, err := fmt.Sscanf(s, "%d", &i); err != nil || fmt.Sprintf("%d", i) != s {
			return 0, fmt.Errorf("%w: integerValue %q is not a 64-bit integer", ErrMalformedValue, s)
		}
		return i, nil
	}
	var n json.Number
	if err := json.Unmarshal(payload, &n); err != nil {
		return 0, fmt.Errorf("%w: integerValue: %v", ErrMalformedValue, err)
	}
	i, err := n.Int64()
	if err != nil {
		return 0, fmt.Errorf("%w: integerValue %s is not a 64-bit integer", ErrMalformedValue, n)
	}
	return i, nil
}
