package zippyjson

import (
	"fmt"
	"net/url"
	"reflect"
	"sort"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"
)

// refValueDecoder is the reference engine's ValueDecoder. It presents
// the same container protocol as the fast engine over the generic
// parsed values.
type refValueDecoder struct {
	rs   *refState
	val  any
	path Path
}

func (d *refValueDecoder) CodingPath() Path { return d.path }

func (d *refValueDecoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return d.rs.mapValue(d.val, rv.Elem(), d.path)
}

func (d *refValueDecoder) Keyed() (KeyedContainer, error) {
	return newRefKeyed(d.rs, d.val, d.path)
}

func (d *refValueDecoder) Sequential() (SequentialContainer, error) {
	return newRefSequential(d.rs, d.val, d.path)
}

func (d *refValueDecoder) SingleValue() SingleValueContainer {
	return &refSingle{rs: d.rs, val: d.val, path: d.path}
}

// refKeyed is the reference engine's keyed container. Keys are
// converted per policy at construction; because the generic parse
// loses document order, AllKeys reports the distinct converted keys
// sorted.
type refKeyed struct {
	rs   *refState
	path Path
	src  map[string]any    // the container's own object value
	vals map[string]any    // by converted key
	orig map[string]string // converted key -> document key
	keys []string          // converted, distinct, sorted
}

func newRefKeyed(rs *refState, val any, path Path) (*refKeyed, error) {
	m, ok := val.(map[string]any)
	if !ok {
		return nil, errorf(TypeMismatch, path, "expected object, found %s", refKindName(val))
	}
	k := &refKeyed{
		rs:   rs,
		path: path,
		src:  m,
		vals: make(map[string]any, len(m)),
		orig: make(map[string]string, len(m)),
	}
	for _, key := range sortedKeys(m) {
		name := rs.convertKey(key, path)
		if _, seen := k.vals[name]; !seen {
			k.keys = append(k.keys, name)
		}
		k.vals[name] = m[key]
		k.orig[name] = key
	}
	sort.Strings(k.keys)
	return k, nil
}

func (k *refKeyed) CodingPath() Path { return k.path }

func (k *refKeyed) Contains(key string) bool {
	_, ok := k.vals[key]
	return ok
}

func (k *refKeyed) AllKeys() []string {
	keys := make([]string, len(k.keys))
	copy(keys, k.keys)
	return keys
}

func (k *refKeyed) child(key string) (any, Path, error) {
	v, ok := k.vals[key]
	if !ok {
		return nil, nil, errorf(KeyMissing, k.path, "key %q not found", key)
	}
	return v, k.path.child(keySegment(k.orig[key])), nil
}

func (k *refKeyed) DecodeNil(key string) (bool, error) {
	v, _, err := k.child(key)
	if err != nil {
		return false, err
	}
	return v == nil, nil
}

func (k *refKeyed) Decode(key string, v any) error {
	cv, cp, err := k.child(key)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return k.rs.mapValue(cv, rv.Elem(), cp)
}

func (k *refKeyed) NestedKeyed(key string) (KeyedContainer, error) {
	cv, cp, err := k.child(key)
	if err != nil {
		return nil, err
	}
	return newRefKeyed(k.rs, cv, cp)
}

func (k *refKeyed) NestedSequential(key string) (SequentialContainer, error) {
	cv, cp, err := k.child(key)
	if err != nil {
		return nil, err
	}
	return newRefSequential(k.rs, cv, cp)
}

func (k *refKeyed) SuperDecoderForKey(key string) (ValueDecoder, error) {
	cv, cp, err := k.child(key)
	if err != nil {
		return nil, err
	}
	return &refValueDecoder{rs: k.rs, val: cv, path: cp}, nil
}

// SuperDecoder returns a decoder re-positioned at the container's own
// object value.
func (k *refKeyed) SuperDecoder() (ValueDecoder, error) {
	return &refValueDecoder{rs: k.rs, val: k.src, path: k.path}, nil
}

// refSequential is the reference engine's sequential container.
type refSequential struct {
	rs    *refState
	path  Path
	elems []any
	cur   int
}

func newRefSequential(rs *refState, val any, path Path) (*refSequential, error) {
	arr, ok := val.([]any)
	if !ok {
		return nil, errorf(TypeMismatch, path, "expected array, found %s", refKindName(val))
	}
	return &refSequential{rs: rs, path: path, elems: arr}, nil
}

func (s *refSequential) CodingPath() Path { return s.path }

func (s *refSequential) Count() int { return len(s.elems) }

func (s *refSequential) IsAtEnd() bool { return s.cur >= len(s.elems) }

func (s *refSequential) CurrentIndex() int { return s.cur }

func (s *refSequential) exhausted() *DecodeError {
	return errorf(SequenceExhausted, s.path.child(indexSegment(s.cur)),
		"no value at index %d: array has %d elements", s.cur, len(s.elems))
}

func (s *refSequential) DecodeNil() (bool, error) {
	if s.IsAtEnd() {
		return false, s.exhausted()
	}
	if s.elems[s.cur] == nil {
		s.cur++
		return true, nil
	}
	return false, nil
}

func (s *refSequential) Decode(v any) error {
	if s.IsAtEnd() {
		return s.exhausted()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	if err := s.rs.mapValue(s.elems[s.cur], rv.Elem(), s.path.child(indexSegment(s.cur))); err != nil {
		return err
	}
	s.cur++
	return nil
}

func (s *refSequential) NestedKeyed() (KeyedContainer, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	nested, err := newRefKeyed(s.rs, s.elems[s.cur], s.path.child(indexSegment(s.cur)))
	if err != nil {
		return nil, err
	}
	s.cur++
	return nested, nil
}

func (s *refSequential) NestedSequential() (SequentialContainer, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	nested, err := newRefSequential(s.rs, s.elems[s.cur], s.path.child(indexSegment(s.cur)))
	if err != nil {
		return nil, err
	}
	s.cur++
	return nested, nil
}

func (s *refSequential) SuperDecoder() (ValueDecoder, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	d := &refValueDecoder{rs: s.rs, val: s.elems[s.cur], path: s.path.child(indexSegment(s.cur))}
	s.cur++
	return d, nil
}

// refSingle is the reference engine's single-value container.
type refSingle struct {
	rs   *refState
	val  any
	path Path
}

func (s *refSingle) CodingPath() Path { return s.path }

func (s *refSingle) DecodeNil() bool { return s.val == nil }

func (s *refSingle) Bool() (bool, error) {
	b, ok := s.val.(bool)
	if !ok {
		return false, errorf(TypeMismatch, s.path, "expected boolean, found %s", refKindName(s.val))
	}
	return b, nil
}

func (s *refSingle) Int64() (int64, error) {
	num, ok := s.val.(gojson.Number)
	if !ok {
		return 0, errorf(TypeMismatch, s.path, "expected number, found %s", refKindName(s.val))
	}
	return refParseInt(num, s.path)
}

func (s *refSingle) Uint64() (uint64, error) {
	num, ok := s.val.(gojson.Number)
	if !ok {
		return 0, errorf(TypeMismatch, s.path, "expected number, found %s", refKindName(s.val))
	}
	return refParseUint(num, s.path)
}

func (s *refSingle) Float64() (float64, error) {
	if str, ok := s.val.(string); ok && s.rs.opts.nonFinite != nil {
		if f, match := s.rs.opts.nonFinite.match(str); match {
			return f, nil
		}
	}
	num, ok := s.val.(gojson.Number)
	if !ok {
		return 0, errorf(TypeMismatch, s.path, "expected number, found %s", refKindName(s.val))
	}
	return refParseFloat(num, s.path)
}

// String decodes the value as a string; null decodes to the empty
// string, the same leniency the fast engine preserves.
func (s *refSingle) String() (string, error) {
	if s.val == nil {
		return "", nil
	}
	str, ok := s.val.(string)
	if !ok {
		return "", errorf(TypeMismatch, s.path, "expected string, found %s", refKindName(s.val))
	}
	return str, nil
}

func (s *refSingle) Time() (time.Time, error) {
	return s.rs.decodeTime(s.val, s.path)
}

func (s *refSingle) Bytes() ([]byte, error) {
	if s.rs.opts.data.kind == dataDeferred {
		var b []byte
		if err := s.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return s.rs.decodeData(s.val, s.path)
}

func (s *refSingle) Decimal() (decimal.Decimal, error) {
	return s.rs.decodeDecimal(s.val, s.path)
}

func (s *refSingle) URL() (*url.URL, error) {
	return s.rs.decodeURL(s.val, s.path)
}

func (s *refSingle) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return s.rs.mapValue(s.val, rv.Elem(), s.path)
}
