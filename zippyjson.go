package zippyjson

import (
	"errors"
	"fmt"
	"io"
	"reflect"

	"github.com/zenangst/zippyjson/internal/tree"
)

// Unmarshal parses the JSON-encoded data and stores the result in the
// value pointed to by v. If v is nil or not a pointer, Unmarshal
// returns an error.
//
// Functional options configure the decoding policies: key case
// conversion, date and byte-blob strategies, non-finite float
// handling, float precision and the maximum nesting depth.
func Unmarshal(data []byte, v any, opts ...Option) error {
	o, err := newOptions(opts)
	if err != nil {
		return err
	}
	return decode(data, v, o, nil)
}

// Decoder reads and decodes JSON values from an input stream.
//
// A Decoder owns a container reuse cache that persists across its
// Decode calls, so repeated decodes of homogeneous data avoid
// reallocation. The cache is not synchronized: a Decoder must not be
// used from multiple goroutines concurrently. Independent decode
// calls on separate Decoders (or through Unmarshal) are safe to run
// concurrently.
type Decoder struct {
	r          io.Reader
	opts       []Option
	containers *containerCache
	arrayKinds map[reflect.Type]elemClass
}

// NewDecoder returns a new decoder that reads from r.
//
// The decoder may buffer data from r as necessary. It is the caller's
// responsibility to call Close on r if required.
func NewDecoder(r io.Reader, opts ...Option) *Decoder {
	return &Decoder{
		r:          r,
		opts:       opts,
		containers: newContainerCache(),
		arrayKinds: make(map[reflect.Type]elemClass),
	}
}

// Decode reads the next JSON-encoded value from its input and stores
// it in the value pointed to by v.
//
// See the documentation for Unmarshal for details about the conversion
// of JSON into a Go value.
//
// Note: this is a non-streaming implementation. It reads the entire
// reader into memory first before parsing.
func (d *Decoder) Decode(v any) error {
	if d.r == nil {
		return fmt.Errorf("zippyjson: Decode(nil reader)")
	}
	data, err := io.ReadAll(d.r)
	if err != nil {
		return err
	}
	o, err := newOptions(d.opts)
	if err != nil {
		return err
	}
	return decode(data, v, o, d)
}

// decode runs the fallback gate, parses the document, and drives the
// selected engine. Once a call is routed to the reference engine it
// finishes there entirely; the engines are never mixed within one
// call.
func decode(data []byte, v any, o *options, d *Decoder) error {
	if reason, fallback := needsReference(o); fallback {
		fallbackAdvisory.fire(reason)
		return decodeReference(data, v, o)
	}

	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Unmarshal(non-pointer %T or nil)", v)
	}

	root, err := tree.Parse(data)
	if errors.Is(err, tree.ErrRetryReference) {
		fallbackAdvisory.fire("document declined by fast parser")
		return decodeReference(data, v, o)
	}
	if err != nil {
		return translateTreeError(err)
	}

	ds := newDecodeState(o, d)
	return ds.mapValue(root, rv.Elem())
}
