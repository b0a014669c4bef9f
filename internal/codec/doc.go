// Package codec provides the CBOR encoding used for values kept in external
// stores. Encoding is deterministic (RFC 8949 core deterministic), types that
// implement encoding.TextMarshaler are written as text strings, and times keep
// nanosecond precision.
package codec
