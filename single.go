package zippyjson

import (
	"encoding/base64"
	"fmt"
	"math"
	"net/url"
	"reflect"
	"time"

	"github.com/shopspring/decimal"

	"github.com/zenangst/zippyjson/internal/tree"
)

func (s *nonFiniteSentinels) match(v string) (float64, bool) {
	switch v {
	case s.posInf:
		return math.Inf(1), true
	case s.negInf:
		return math.Inf(-1), true
	case s.nan:
		return math.NaN(), true
	}
	return 0, false
}

func (ds *decodeState) decodeBool(n *tree.Node, rv reflect.Value) error {
	if rv.Kind() != reflect.Bool {
		return errorf(TypeMismatch, pathOf(n), "cannot decode boolean into Go value of type %s", rv.Type())
	}
	b, err := n.BoolValue()
	if err != nil {
		return translateTreeError(err)
	}
	rv.SetBool(b)
	return nil
}

// decodeNumber decodes a number node into any numeric target, with
// per-width overflow detection citing the literal and the target type.
func (ds *decodeState) decodeNumber(n *tree.Node, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := n.IntValue()
		if err != nil {
			return translateTreeError(err)
		}
		if rv.OverflowInt(v) {
			return errorf(NumberOutOfRange, pathOf(n), "integer value %s overflows Go value of type %s", n.Literal(), rv.Type())
		}
		rv.SetInt(v)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := n.UintValue()
		if err != nil {
			return translateTreeError(err)
		}
		if rv.OverflowUint(v) {
			return errorf(NumberOutOfRange, pathOf(n), "integer value %s overflows Go value of type %s", n.Literal(), rv.Type())
		}
		rv.SetUint(v)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := n.FloatValue(ds.opts.fullPrecision)
		if err != nil {
			return translateTreeError(err)
		}
		if rv.OverflowFloat(f) {
			return errorf(NumberOutOfRange, pathOf(n), "float value %s overflows Go value of type %s", n.Literal(), rv.Type())
		}
		rv.SetFloat(f)
		return nil
	default:
		return errorf(TypeMismatch, pathOf(n), "cannot decode number into Go value of type %s", rv.Type())
	}
}

func (ds *decodeState) decodeString(n *tree.Node, rv reflect.Value) error {
	switch rv.Kind() {
	case reflect.String:
		s, err := n.StringValue()
		if err != nil {
			return translateTreeError(err)
		}
		rv.SetString(s)
		return nil
	case reflect.Float32, reflect.Float64:
		// Non-finite floats travel as configured string sentinels.
		if ds.opts.nonFinite != nil {
			s, err := n.StringValue()
			if err != nil {
				return translateTreeError(err)
			}
			if f, ok := ds.opts.nonFinite.match(s); ok {
				rv.SetFloat(f)
				return nil
			}
		}
		return errorf(TypeMismatch, pathOf(n), "cannot decode string into Go value of type %s", rv.Type())
	default:
		return errorf(TypeMismatch, pathOf(n), "cannot decode string into Go value of type %s", rv.Type())
	}
}

// timeFromEpochSeconds splits a fractional epoch timestamp into whole
// seconds and nanoseconds. Shared by both engines so their results
// agree exactly.
func timeFromEpochSeconds(f float64) time.Time {
	sec := math.Floor(f)
	return time.Unix(int64(sec), int64((f-sec)*1e9)).UTC()
}

// decodeTime dispatches a date node per the configured strategy.
func (ds *decodeState) decodeTime(n *tree.Node) (time.Time, error) {
	switch ds.opts.date.kind {
	case dateSeconds:
		f, err := n.FloatValue(true)
		if err != nil {
			return time.Time{}, translateTreeError(err)
		}
		return timeFromEpochSeconds(f), nil
	case dateMillis:
		f, err := n.FloatValue(true)
		if err != nil {
			return time.Time{}, translateTreeError(err)
		}
		return timeFromEpochSeconds(f / 1000), nil
	case dateISO8601:
		s, err := n.StringValue()
		if err != nil {
			return time.Time{}, translateTreeError(err)
		}
		t, perr := time.Parse(time.RFC3339, s)
		if perr != nil {
			return time.Time{}, errorf(MalformedInput, pathOf(n), "date string not ISO-8601")
		}
		return t, nil
	case dateFormatted:
		s, err := n.StringValue()
		if err != nil {
			return time.Time{}, translateTreeError(err)
		}
		t, perr := time.Parse(ds.opts.date.layout, s)
		if perr != nil {
			return time.Time{}, errorf(MalformedInput, pathOf(n), "date string does not match layout %q", ds.opts.date.layout)
		}
		return t, nil
	case dateCustom:
		return ds.opts.date.fn(&fastValueDecoder{ds: ds, node: n})
	default: // deferred: the date type's own decoding routine
		var t time.Time
		if err := t.UnmarshalJSON(n.RawJSON()); err != nil {
			return time.Time{}, errorf(MalformedInput, pathOf(n), "%s", err)
		}
		return t, nil
	}
}

// decodeData dispatches a byte-blob node per the configured strategy.
// The deferred strategy never reaches here; the dispatcher routes it
// through the ordinary array path.
func (ds *decodeState) decodeData(n *tree.Node) ([]byte, error) {
	if ds.opts.data.kind == dataCustom {
		return ds.opts.data.fn(&fastValueDecoder{ds: ds, node: n})
	}
	s, err := n.StringValue()
	if err != nil {
		return nil, translateTreeError(err)
	}
	b, derr := base64.StdEncoding.DecodeString(s)
	if derr != nil {
		return nil, errorf(MalformedInput, pathOf(n), "invalid base64")
	}
	return b, nil
}

// decodeDecimal requires a numeric node and parses its exact literal.
func (ds *decodeState) decodeDecimal(n *tree.Node) (decimal.Decimal, error) {
	if !n.IsNumber() {
		return decimal.Decimal{}, errorf(TypeMismatch, pathOf(n), "expected number for decimal, found %s", n.Kind())
	}
	d, err := decimal.NewFromString(n.Literal())
	if err != nil {
		return decimal.Decimal{}, errorf(MalformedInput, pathOf(n), "invalid decimal")
	}
	return d, nil
}

func (ds *decodeState) decodeURL(n *tree.Node) (*url.URL, error) {
	s, err := n.StringValue()
	if err != nil {
		return nil, translateTreeError(err)
	}
	u, perr := url.Parse(s)
	if perr != nil {
		return nil, errorf(MalformedInput, pathOf(n), "invalid URL string")
	}
	return u, nil
}

// fastSingleValue is the fast engine's single-value container.
type fastSingleValue struct {
	ds   *decodeState
	node *tree.Node
}

func (s *fastSingleValue) CodingPath() Path { return pathOf(s.node) }

func (s *fastSingleValue) DecodeNil() bool { return s.node.IsNull() }

func (s *fastSingleValue) Bool() (bool, error) {
	b, err := s.node.BoolValue()
	if err != nil {
		return false, translateTreeError(err)
	}
	return b, nil
}

func (s *fastSingleValue) Int64() (int64, error) {
	v, err := s.node.IntValue()
	if err != nil {
		return 0, translateTreeError(err)
	}
	return v, nil
}

func (s *fastSingleValue) Uint64() (uint64, error) {
	v, err := s.node.UintValue()
	if err != nil {
		return 0, translateTreeError(err)
	}
	return v, nil
}

func (s *fastSingleValue) Float64() (float64, error) {
	if s.node.IsString() && s.ds.opts.nonFinite != nil {
		str, err := s.node.StringValue()
		if err != nil {
			return 0, translateTreeError(err)
		}
		if f, ok := s.ds.opts.nonFinite.match(str); ok {
			return f, nil
		}
	}
	f, err := s.node.FloatValue(s.ds.opts.fullPrecision)
	if err != nil {
		return 0, translateTreeError(err)
	}
	return f, nil
}

// String decodes the node as a string. An unset (null) value decodes
// to the empty string rather than failing, matching the reference
// decoder's leniency.
func (s *fastSingleValue) String() (string, error) {
	if s.node.IsNull() {
		return "", nil
	}
	str, err := s.node.StringValue()
	if err != nil {
		return "", translateTreeError(err)
	}
	return str, nil
}

func (s *fastSingleValue) Time() (time.Time, error) {
	return s.ds.decodeTime(s.node)
}

func (s *fastSingleValue) Bytes() ([]byte, error) {
	if s.ds.opts.data.kind == dataDeferred {
		var b []byte
		if err := s.Decode(&b); err != nil {
			return nil, err
		}
		return b, nil
	}
	return s.ds.decodeData(s.node)
}

func (s *fastSingleValue) Decimal() (decimal.Decimal, error) {
	return s.ds.decodeDecimal(s.node)
}

func (s *fastSingleValue) URL() (*url.URL, error) {
	return s.ds.decodeURL(s.node)
}

func (s *fastSingleValue) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return s.ds.mapValue(s.node, rv.Elem())
}
