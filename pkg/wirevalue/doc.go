// Package wirevalue implements the typed value envelope used on the
// document database wire: a tagged union that names a value's type
// alongside its payload, so client-side type information (integer vs.
// double, null vs. absent, timestamp vs. string) survives storage and
// retrieval exactly.
//
// A Value holds exactly one variant. The JSON form matches the REST
// surface of the emulated service:
//
//	{"nullValue": null}
//	{"booleanValue": true}
//	{"integerValue": "30"}
//	{"doubleValue": 10.99}
//	{"timestampValue": "2026-01-02T15:04:05.999999999Z"}
//	{"stringValue": "hello"}
//	{"bytesValue": "aGVsbG8="}
//	{"referenceValue": "projects/p/databases/d/documents/users/alice"}
//	{"geoPointValue": {"latitude": 51.5, "longitude": -0.1}}
//	{"arrayValue": {"values": [...]}}
//	{"mapValue": {"fields": {...}}}
//
// Note that integers are string-encoded on the wire, as in the real
// service, to avoid 64-bit precision loss in JSON consumers.
//
// Encode converts native Go values to Values; Decode is the exact
// inverse. Both directions are tag-preserving: a double 1.0 never
// collapses into an integer 1 and vice versa.
package wirevalue
