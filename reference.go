package zippyjson

import (
	"bytes"
	"encoding"
	"encoding/base64"
	"errors"
	"fmt"
	"io"
	"net/url"
	"reflect"
	"sort"
	"strconv"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/zenangst/zippyjson/internal/tree"
)

// decodeReference is the reference engine: a fully general, slower
// decoder guaranteed correct for every configuration. It parses the
// whole document into generic Go values and maps them with the same
// policies, error taxonomy and coding paths as the fast engine, which
// lets the two run differentially.
func decodeReference(data []byte, v any, o *options) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Unmarshal(non-pointer %T or nil)", v)
	}

	dec := gojson.NewDecoder(bytes.NewReader(data))
	dec.UseNumber()
	var raw any
	if err := dec.Decode(&raw); err != nil {
		return &DecodeError{Kind: MalformedInput, Path: Path{}, Description: err.Error()}
	}
	// A document is a single value; anything after it is malformed.
	var trailing any
	if err := dec.Decode(&trailing); !errors.Is(err, io.EOF) {
		return &DecodeError{Kind: MalformedInput, Path: Path{}, Description: "unexpected trailing data"}
	}

	rs := &refState{opts: o, depth: o.maxDepth}
	return rs.mapValue(raw, rv.Elem(), Path{})
}

type refState struct {
	opts  *options
	depth int
}

// refKindName names a generic value the way the tree layer names node
// kinds, so both engines describe mismatches identically.
func refKindName(val any) string {
	switch val.(type) {
	case nil:
		return "null"
	case bool:
		return "boolean"
	case gojson.Number:
		return "number"
	case string:
		return "string"
	case []any:
		return "array"
	case map[string]any:
		return "object"
	}
	return "invalid"
}

func isFractionalLiteral(lit string) bool {
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

func refParseInt(num gojson.Number, path Path) (int64, error) {
	lit := string(num)
	if isFractionalLiteral(lit) {
		return 0, errorf(TypeMismatch, path, "cannot decode fractional number %s as integer", lit)
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errorf(NumberOutOfRange, path, "number %s does not fit in int64", lit)
		}
		return 0, errorf(MalformedInput, path, "invalid number literal %s", lit)
	}
	return v, nil
}

func refParseUint(num gojson.Number, path Path) (uint64, error) {
	lit := string(num)
	if isFractionalLiteral(lit) {
		return 0, errorf(TypeMismatch, path, "cannot decode fractional number %s as integer", lit)
	}
	if len(lit) > 0 && lit[0] == '-' {
		return 0, errorf(NumberOutOfRange, path, "number %s does not fit in an unsigned integer", lit)
	}
	v, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errorf(NumberOutOfRange, path, "number %s does not fit in uint64", lit)
		}
		return 0, errorf(MalformedInput, path, "invalid number literal %s", lit)
	}
	return v, nil
}

func refParseFloat(num gojson.Number, path Path) (float64, error) {
	lit := string(num)
	v, err := strconv.ParseFloat(lit, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, errorf(NumberOutOfRange, path, "number %s does not fit in float64", lit)
		}
		return 0, errorf(MalformedInput, path, "invalid number literal %s", lit)
	}
	return v, nil
}

// convertKey applies the configured key policy to one object key. The
// custom callback receives the coding path ending at the key.
func (rs *refState) convertKey(key string, path Path) string {
	switch {
	case rs.opts.customKeys != nil:
		return rs.opts.customKeys(path.child(keySegment(key)))
	case rs.opts.snakeCase:
		return tree.CamelCase(key)
	}
	return key
}

func (rs *refState) mapValue(val any, rv reflect.Value, path Path) error { //nolint:gocyclo
	rs.depth--
	if rs.depth <= 0 {
		rs.depth++
		return errorf(NestingTooDeep, path, "exceeded maximum nesting depth of %d", rs.opts.maxDepth)
	}
	defer func() { rs.depth++ }()

	if val == nil {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	if done, err := rs.decodeBuiltin(val, rv, path); done {
		return err
	}
	if handled, err := rs.tryCustomUnmarshal(val, rv, path); handled || err != nil {
		return err
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
		if done, err := rs.decodeBuiltin(val, rv, path); done {
			return err
		}
		if handled, err := rs.tryCustomUnmarshal(val, rv, path); handled || err != nil {
			return err
		}
	}

	if rv.Kind() == reflect.Interface {
		return rs.mapInterface(val, rv, path)
	}
	if !rv.CanSet() {
		return fmt.Errorf("zippyjson: cannot set value of type %s", rv.Type())
	}

	switch v := val.(type) {
	case nil:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case bool:
		if rv.Kind() != reflect.Bool {
			return errorf(TypeMismatch, path, "cannot decode boolean into Go value of type %s", rv.Type())
		}
		rv.SetBool(v)
		return nil
	case gojson.Number:
		return rs.decodeNumber(v, rv, path)
	case string:
		return rs.decodeString(v, rv, path)
	case []any:
		switch rv.Kind() {
		case reflect.Slice:
			return rs.mapSlice(v, rv, path)
		case reflect.Array:
			return rs.mapArray(v, rv, path)
		default:
			return errorf(TypeMismatch, path, "cannot decode array into Go value of type %s", rv.Type())
		}
	case map[string]any:
		switch rv.Kind() {
		case reflect.Struct:
			return rs.mapStruct(v, rv, path)
		case reflect.Map:
			return rs.mapMap(v, rv, path)
		default:
			return errorf(TypeMismatch, path, "cannot decode object into Go value of type %s", rv.Type())
		}
	default:
		return errorf(MalformedInput, path, "unsupported document node")
	}
}

func (rs *refState) decodeBuiltin(val any, rv reflect.Value, path Path) (bool, error) {
	switch rv.Type() {
	case timeType:
		if val == nil {
			rv.Set(reflect.Zero(timeType))
			return true, nil
		}
		t, err := rs.decodeTime(val, path)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(t))
		return true, nil
	case decimalType:
		if val == nil {
			rv.Set(reflect.Zero(decimalType))
			return true, nil
		}
		d, err := rs.decodeDecimal(val, path)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(d))
		return true, nil
	case urlType:
		if val == nil {
			rv.Set(reflect.Zero(urlType))
			return true, nil
		}
		u, err := rs.decodeURL(val, path)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(*u))
		return true, nil
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		if rs.opts.data.kind == dataDeferred {
			return false, nil
		}
		b, err := rs.decodeData(val, path)
		if err != nil {
			return true, err
		}
		rv.SetBytes(b)
		return true, nil
	}
	return false, nil
}

func (rs *refState) tryCustomUnmarshal(val any, rv reflect.Value, path Path) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalZippyJSON(&refValueDecoder{rs: rs, val: val, path: path}); err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return true, de
			}
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(gojson.Unmarshaler); ok {
		raw, merr := gojson.Marshal(val)
		if merr != nil {
			return true, errorf(MalformedInput, path, "cannot re-encode value for custom unmarshaler: %s", merr)
		}
		if err := u.UnmarshalJSON(raw); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		s, isString := val.(string)
		if !isString {
			return false, nil
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func (rs *refState) mapInterface(val any, rv reflect.Value, path Path) error {
	if rv.NumMethod() != 0 {
		return errorf(TypeMismatch, path, "cannot decode into non-empty interface %s", rv.Type())
	}
	var concrete reflect.Value
	switch val.(type) {
	case nil:
		return nil
	case bool:
		var b bool
		concrete = reflect.ValueOf(&b).Elem()
	case gojson.Number:
		var f float64
		concrete = reflect.ValueOf(&f).Elem()
	case string:
		var s string
		concrete = reflect.ValueOf(&s).Elem()
	case []any:
		var a []any
		concrete = reflect.ValueOf(&a).Elem()
	case map[string]any:
		var m map[string]any
		concrete = reflect.ValueOf(&m).Elem()
	default:
		return errorf(MalformedInput, path, "unsupported document node")
	}
	if err := rs.mapValue(val, concrete, path); err != nil {
		return err
	}
	rv.Set(concrete)
	return nil
}

func (rs *refState) decodeNumber(num gojson.Number, rv reflect.Value, path Path) error {
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		v, err := refParseInt(num, path)
		if err != nil {
			return err
		}
		if rv.OverflowInt(v) {
			return errorf(NumberOutOfRange, path, "integer value %s overflows Go value of type %s", num, rv.Type())
		}
		rv.SetInt(v)
		return nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		v, err := refParseUint(num, path)
		if err != nil {
			return err
		}
		if rv.OverflowUint(v) {
			return errorf(NumberOutOfRange, path, "integer value %s overflows Go value of type %s", num, rv.Type())
		}
		rv.SetUint(v)
		return nil
	case reflect.Float32, reflect.Float64:
		f, err := refParseFloat(num, path)
		if err != nil {
			return err
		}
		if rv.OverflowFloat(f) {
			return errorf(NumberOutOfRange, path, "float value %s overflows Go value of type %s", num, rv.Type())
		}
		rv.SetFloat(f)
		return nil
	default:
		return errorf(TypeMismatch, path, "cannot decode number into Go value of type %s", rv.Type())
	}
}

func (rs *refState) decodeString(s string, rv reflect.Value, path Path) error {
	switch rv.Kind() {
	case reflect.String:
		rv.SetString(s)
		return nil
	case reflect.Float32, reflect.Float64:
		if rs.opts.nonFinite != nil {
			if f, ok := rs.opts.nonFinite.match(s); ok {
				rv.SetFloat(f)
				return nil
			}
		}
		return errorf(TypeMismatch, path, "cannot decode string into Go value of type %s", rv.Type())
	default:
		return errorf(TypeMismatch, path, "cannot decode string into Go value of type %s", rv.Type())
	}
}

func (rs *refState) mapSlice(arr []any, rv reflect.Value, path Path) error {
	t := rv.Type()
	out := reflect.MakeSlice(t, len(arr), len(arr))
	for i, ev := range arr {
		if err := rs.mapValue(ev, out.Index(i), path.child(indexSegment(i))); err != nil {
			return err
		}
	}
	rv.Set(out)
	return nil
}

func (rs *refState) mapArray(arr []any, rv reflect.Value, path Path) error {
	if len(arr) > rv.Len() {
		return errorf(TypeMismatch, path,
			"cannot decode array of length %d into Go array of length %d", len(arr), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if i >= len(arr) {
			return errorf(SequenceExhausted, path.child(indexSegment(i)),
				"no value at index %d: array has %d elements", i, len(arr))
		}
		if err := rs.mapValue(arr[i], rv.Index(i), path.child(indexSegment(i))); err != nil {
			return err
		}
	}
	return nil
}

// sortedKeys gives the reference engine a deterministic visit order;
// the generic parse loses document order.
func sortedKeys(m map[string]any) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

func (rs *refState) mapStruct(m map[string]any, rv reflect.Value, path Path) error {
	fields := cachedFields(rv.Type())
	for _, key := range sortedKeys(m) {
		name := rs.convertKey(key, path)
		f := fields.match(name)
		if f == nil {
			continue
		}
		fv := fieldByIndex(rv, f.idx)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}
		if err := rs.mapValue(m[key], fv, path.child(keySegment(key))); err != nil {
			return err
		}
	}
	return nil
}

func (rs *refState) mapMap(m map[string]any, rv reflect.Value, path Path) error {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return errorf(TypeMismatch, path, "cannot decode object into map with non-string key type %s", t.Key())
	}
	if rv.IsNil() {
		rv.Set(reflect.MakeMap(t))
	} else {
		for _, key := range rv.MapKeys() {
			rv.SetMapIndex(key, reflect.Value{})
		}
	}
	elemType := t.Elem()
	for _, key := range sortedKeys(m) {
		name := rs.convertKey(key, path)
		newVal := reflect.New(elemType).Elem()
		if err := rs.mapValue(m[key], newVal, path.child(keySegment(key))); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(name).Convert(t.Key()), newVal)
	}
	return nil
}

func (rs *refState) decodeTime(val any, path Path) (time.Time, error) {
	switch rs.opts.date.kind {
	case dateSeconds, dateMillis:
		num, ok := val.(gojson.Number)
		if !ok {
			return time.Time{}, errorf(TypeMismatch, path, "expected number, found %s", refKindName(val))
		}
		f, err := refParseFloat(num, path)
		if err != nil {
			return time.Time{}, err
		}
		if rs.opts.date.kind == dateMillis {
			f /= 1000
		}
		return timeFromEpochSeconds(f), nil
	case dateISO8601:
		s, ok := val.(string)
		if !ok {
			return time.Time{}, errorf(TypeMismatch, path, "expected string, found %s", refKindName(val))
		}
		t, err := time.Parse(time.RFC3339, s)
		if err != nil {
			return time.Time{}, errorf(MalformedInput, path, "date string not ISO-8601")
		}
		return t, nil
	case dateFormatted:
		s, ok := val.(string)
		if !ok {
			return time.Time{}, errorf(TypeMismatch, path, "expected string, found %s", refKindName(val))
		}
		t, err := time.Parse(rs.opts.date.layout, s)
		if err != nil {
			return time.Time{}, errorf(MalformedInput, path, "date string does not match layout %q", rs.opts.date.layout)
		}
		return t, nil
	case dateCustom:
		return rs.opts.date.fn(&refValueDecoder{rs: rs, val: val, path: path})
	default: // deferred
		raw, merr := gojson.Marshal(val)
		if merr != nil {
			return time.Time{}, errorf(MalformedInput, path, "cannot re-encode date value: %s", merr)
		}
		var t time.Time
		if err := t.UnmarshalJSON(raw); err != nil {
			return time.Time{}, errorf(MalformedInput, path, "%s", err)
		}
		return t, nil
	}
}

func (rs *refState) decodeData(val any, path Path) ([]byte, error) {
	if rs.opts.data.kind == dataCustom {
		return rs.opts.data.fn(&refValueDecoder{rs: rs, val: val, path: path})
	}
	s, ok := val.(string)
	if !ok {
		return nil, errorf(TypeMismatch, path, "expected string, found %s", refKindName(val))
	}
	b, err := base64.StdEncoding.DecodeString(s)
	if err != nil {
		return nil, errorf(MalformedInput, path, "invalid base64")
	}
	return b, nil
}

func (rs *refState) decodeDecimal(val any, path Path) (decimal.Decimal, error) {
	num, ok := val.(gojson.Number)
	if !ok {
		return decimal.Decimal{}, errorf(TypeMismatch, path, "expected number for decimal, found %s", refKindName(val))
	}
	d, err := decimal.NewFromString(string(num))
	if err != nil {
		return decimal.Decimal{}, errorf(MalformedInput, path, "invalid decimal")
	}
	return d, nil
}

func (rs *refState) decodeURL(val any, path Path) (*url.URL, error) {
	s, ok := val.(string)
	if !ok {
		return nil, errorf(TypeMismatch, path, "expected string, found %s", refKindName(val))
	}
	u, err := url.Parse(s)
	if err != nil {
		return nil, errorf(MalformedInput, path, "invalid URL string")
	}
	return u, nil
}
