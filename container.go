package zippyjson

import (
	"net/url"
	"time"

	"github.com/shopspring/decimal"
)

// Unmarshaler is the interface implemented by types that decode
// themselves through the container protocol. The decoder is positioned
// at the value being decoded; the implementation requests a keyed,
// sequential or single-value view as appropriate.
//
// Types implementing json.Unmarshaler or encoding.TextUnmarshaler are
// also honored, in that order of preference after this interface.
type Unmarshaler interface {
	UnmarshalZippyJSON(ValueDecoder) error
}

// ValueDecoder is a decoder positioned at one value of the document.
// Both the fast engine and the reference engine implement it, so custom
// decoding logic behaves identically regardless of which engine served
// the call.
type ValueDecoder interface {
	// CodingPath locates the current value within the document root.
	CodingPath() Path
	// Decode decodes the current value into the pointed-to Go value.
	Decode(v any) error
	// Keyed presents the current value as a named-field accessor.
	// Fails with TypeMismatch when the value is not an object.
	Keyed() (KeyedContainer, error)
	// Sequential presents the current value as a position-ordered
	// accessor. Fails with TypeMismatch when the value is not an array.
	Sequential() (SequentialContainer, error)
	// SingleValue presents the current value as a single scalar.
	SingleValue() SingleValueContainer
}

// KeyedContainer is a named-field view of an object value.
type KeyedContainer interface {
	CodingPath() Path
	// Contains reports whether key is present.
	Contains(key string) bool
	// AllKeys returns the distinct keys actually present, post
	// key-conversion. The fast engine reports document order; the
	// reference engine, which decodes through a generic parse that
	// loses document order, reports them sorted.
	AllKeys() []string
	// DecodeNil reports whether the value for key is JSON null. Fails
	// with KeyMissing when the key is absent.
	DecodeNil(key string) (bool, error)
	// Decode decodes the value for key into the pointed-to Go value.
	// Fails with KeyMissing when the key is absent.
	Decode(key string, v any) error
	// NestedKeyed returns a keyed view of the object stored under key.
	NestedKeyed(key string) (KeyedContainer, error)
	// NestedSequential returns a sequential view of the array stored
	// under key.
	NestedSequential(key string) (SequentialContainer, error)
	// SuperDecoderForKey returns a decoder positioned at the value for
	// key.
	SuperDecoderForKey(key string) (ValueDecoder, error)
	// SuperDecoder returns a decoder positioned at the container's own
	// object node.
	SuperDecoder() (ValueDecoder, error)
}

// SequentialContainer is a position-ordered view of an array value.
// The cursor is monotonic; there is no rewind.
type SequentialContainer interface {
	CodingPath() Path
	// Count returns the number of elements.
	Count() int
	// IsAtEnd reports whether the cursor is past the last element.
	IsAtEnd() bool
	// CurrentIndex returns the index the next decode will consume.
	CurrentIndex() int
	// DecodeNil reports whether the current element is JSON null,
	// consuming it only when it is.
	DecodeNil() (bool, error)
	// Decode decodes the current element into the pointed-to Go value
	// and advances the cursor. Fails with SequenceExhausted past the
	// end.
	Decode(v any) error
	// NestedKeyed returns a keyed view of the current element and
	// advances the cursor.
	NestedKeyed() (KeyedContainer, error)
	// NestedSequential returns a sequential view of the current
	// element and advances the cursor.
	NestedSequential() (SequentialContainer, error)
	// SuperDecoder returns a decoder positioned at the current element
	// and advances the cursor.
	SuperDecoder() (ValueDecoder, error)
}

// SingleValueContainer is a scalar view of one value.
type SingleValueContainer interface {
	CodingPath() Path
	// DecodeNil reports whether the value is JSON null.
	DecodeNil() bool
	Bool() (bool, error)
	Int64() (int64, error)
	Uint64() (uint64, error)
	Float64() (float64, error)
	String() (string, error)
	// Time decodes the value per the configured date strategy.
	Time() (time.Time, error)
	// Bytes decodes the value per the configured data strategy.
	Bytes() ([]byte, error)
	// Decimal decodes a numeric value at arbitrary precision.
	Decimal() (decimal.Decimal, error)
	// URL decodes a string value and validates it parses as a URL.
	URL() (*url.URL, error)
	// Decode decodes the value into the pointed-to Go value.
	Decode(v any) error
}
