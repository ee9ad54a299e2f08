package wirevalue

import (
	"encoding/json"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestEncodeDecodeRoundTrip(t *testing.T) {
	ts := time.Date(2026, 1, 2, 15, 4, 5, 999999999, time.UTC)

	tests := []struct {
		name   string
		native any
		kind   Kind
	}{
		{name: "nil", native: nil, kind: KindNull},
		{name: "bool", native: true, kind: KindBoolean},
		{name: "int64", native: int64(30), kind: KindInteger},
		{name: "float64", native: 10.99, kind: KindDouble},
		{name: "integral float64 stays double", native: float64(1), kind: KindDouble},
		{name: "string", native: "John Doe", kind: KindString},
		{name: "bytes", native: []byte{0x01, 0x02, 0xff}, kind: KindBytes},
		{name: "timestamp", native: ts, kind: KindTimestamp},
		{name: "reference", native: Reference("projects/p/databases/d/documents/users/alice"), kind: KindReference},
		{name: "geopoint", native: GeoPoint{Latitude: 51.5, Longitude: -0.1}, kind: KindGeoPoint},
		{
			name:   "nested array",
			native: []any{int64(1), "two", []any{false, nil}},
			kind:   KindArray,
		},
		{
			name: "nested map",
			native: map[string]any{
				"name": "John Doe",
				"tags": []any{"a", "b"},
				"address": map[string]any{
					"city": "Springfield",
					"zip":  int64(12345),
				},
			},
			kind: KindMap,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := Encode(tt.native)
			require.NoError(t, err)
			assert.Equal(t, tt.kind, encoded.Kind())

			decoded, err := Decode(encoded)
			require.NoError(t, err)
			assert.Equal(t, tt.native, decoded)

			// Re-encoding the decoded value preserves the tag.
			reencoded, err := Encode(decoded)
			require.NoError(t, err)
			assert.Equal(t, encoded, reencoded)
		})
	}
}

func TestEncodeNumericPolicy(t *testing.T) {
	t.Run("integer types encode as integer", func(t *testing.T) {
		for _, v := range []any{int(7), int8(7), int16(7), int32(7), int64(7), uint(7), uint16(7), uint32(7)} {
			encoded, err := Encode(v)
			require.NoError(t, err)
			assert.Equal(t, KindInteger, encoded.Kind(), "%T", v)
			assert.Equal(t, int64(7), encoded.Int())
		}
	})

	t.Run("integral json.Number encodes as integer", func(t *testing.T) {
		encoded, err := Encode(json.Number("30"))
		require.NoError(t, err)
		assert.Equal(t, KindInteger, encoded.Kind())
		assert.Equal(t, int64(30), encoded.Int())
	})

	t.Run("fractional json.Number encodes as double", func(t *testing.T) {
		encoded, err := Encode(json.Number("10.99"))
		require.NoError(t, err)
		assert.Equal(t, KindDouble, encoded.Kind())
		assert.Equal(t, 10.99, encoded.Float())
	})

	t.Run("json.Number beyond int64 encodes as double", func(t *testing.T) {
		encoded, err := Encode(json.Number("92233720368547758080"))
		require.NoError(t, err)
		assert.Equal(t, KindDouble, encoded.Kind())
	})

	t.Run("double 1.0 never collapses into integer 1", func(t *testing.T) {
		encoded, err := Encode(1.0)
		require.NoError(t, err)
		require.Equal(t, KindDouble, encoded.Kind())

		decoded, err := Decode(encoded)
		require.NoError(t, err)
		_, isFloat := decoded.(float64)
		assert.True(t, isFloat, "decoded double must stay a float")

		reencoded, err := Encode(decoded)
		require.NoError(t, err)
		assert.Equal(t, KindDouble, reencoded.Kind())
	})
}

func TestEncodeUnsupported(t *testing.T) {
	tests := []struct {
		name   string
		native any
	}{
		{name: "function", native: func() {}},
		{name: "channel", native: make(chan int)},
		{name: "struct", native: struct{ X int }{1}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Encode(tt.native)
			assert.ErrorIs(t, err, ErrUnsupportedValueKind)
		})
	}

	t.Run("cyclic structure", func(t *testing.T) {
		m := map[string]any{}
		m["self"] = m
		_, err := Encode(m)
		assert.ErrorIs(t, err, ErrUnsupportedValueKind)
	})

	t.Run("error names the offending field", func(t *testing.T) {
		_, err := EncodeFields(map[string]any{"payload": make(chan int)})
		require.Error(t, err)
		assert.Contains(t, err.Error(), `"payload"`)
	})
}

func TestDecodeMalformed(t *testing.T) {
	t.Run("zero value", func(t *testing.T) {
		_, err := Decode(Value{})
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("malformed child in map", func(t *testing.T) {
		_, err := Decode(Map(map[string]Value{"bad": {}}))
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("malformed child in array", func(t *testing.T) {
		_, err := Decode(Array([]Value{{}}))
		assert.ErrorIs(t, err, ErrMalformedValue)
	})
}

func TestValueJSON(t *testing.T) {
	t.Run("wire shapes", func(t *testing.T) {
		tests := []struct {
			value Value
			want  string
		}{
			{Null(), `{"nullValue":null}`},
			{Boolean(true), `{"booleanValue":true}`},
			{Integer(30), `{"integerValue":"30"}`},
			{Double(10.99), `{"doubleValue":10.99}`},
			{String("x"), `{"stringValue":"x"}`},
			{Bytes([]byte("hello")), `{"bytesValue":"aGVsbG8="}`},
			{Ref("projects/p/databases/d/documents/users/alice"), `{"referenceValue":"projects/p/databases/d/documents/users/alice"}`},
			{Geo(GeoPoint{Latitude: 51.5, Longitude: -0.1}), `{"geoPointValue":{"latitude":51.5,"longitude":-0.1}}`},
			{Timestamp(time.Date(2026, 1, 2, 15, 4, 5, 0, time.UTC)), `{"timestampValue":"2026-01-02T15:04:05Z"}`},
			{Array([]Value{Integer(1)}), `{"arrayValue":{"values":[{"integerValue":"1"}]}}`},
			{Map(map[string]Value{"a": String("b")}), `{"mapValue":{"fields":{"a":{"stringValue":"b"}}}}`},
		}
		for _, tt := range tests {
			data, err := json.Marshal(tt.value)
			require.NoError(t, err)
			assert.JSONEq(t, tt.want, string(data))

			var back Value
			require.NoError(t, json.Unmarshal(data, &back))
			assert.Equal(t, tt.value, back)
		}
	})

	t.Run("integerValue accepts bare numbers", func(t *testing.T) {
		var v Value
		require.NoError(t, json.Unmarshal([]byte(`{"integerValue":30}`), &v))
		assert.Equal(t, Integer(30), v)
	})

	t.Run("empty envelope is malformed", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{}`), &v)
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("two variants are malformed", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"stringValue":"x","integerValue":"1"}`), &v)
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("unknown variant is malformed", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"complexValue":"x"}`), &v)
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("bad timestamp is malformed", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"timestampValue":"yesterday"}`), &v)
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("non-integral integerValue is malformed", func(t *testing.T) {
		var v Value
		err := json.Unmarshal([]byte(`{"integerValue":"1.5"}`), &v)
		assert.ErrorIs(t, err, ErrMalformedValue)
	})

	t.Run("zero value does not marshal", func(t *testing.T) {
		_, err := json.Marshal(Value{})
		assert.Error(t, err)
	})
}

func TestFieldsRoundTrip(t *testing.T) {
	native := map[string]any{
		"name":  "John Doe",
		"email": "john@example.com",
		"age":   int64(30),
		"note":  nil,
	}

	encoded, err := EncodeFields(native)
	require.NoError(t, err)
	require.Len(t, encoded, 4)
	assert.Equal(t, KindNull, encoded["note"].Kind())

	decoded, err := DecodeFields(encoded)
	require.NoError(t, err)
	assert.Equal(t, native, decoded)
}

func TestClone(t *testing.T) {
	original := Map(map[string]Value{
		"list": Array([]Value{Integer(1), String("x")}),
		"raw":  Bytes([]byte{1, 2, 3}),
	})

	clone := original.Clone()
	assert.Equal(t, original, clone)

	// Mutating the clone's nested payloads must not touch the original.
	clone.mapVal["list"].arrVal[0] = Integer(99)
	clone.mapVal["raw"].bytesVal[0] = 0xff
	assert.Equal(t, Integer(1), original.mapVal["list"].arrVal[0])
	assert.Equal(t, byte(1), original.mapVal["raw"].bytesVal[0])
}
