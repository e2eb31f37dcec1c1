package zippyjson

import (
	"encoding"
	"errors"
	"fmt"
	"net/url"
	"reflect"
	"time"

	gojson "github.com/goccy/go-json"
	"github.com/shopspring/decimal"

	"github.com/zenangst/zippyjson/internal/tree"
)

var (
	timeType    = reflect.TypeOf(time.Time{})
	decimalType = reflect.TypeOf(decimal.Decimal{})
	urlType     = reflect.TypeOf(url.URL{})

	unmarshalerType     = reflect.TypeOf((*Unmarshaler)(nil)).Elem()
	jsonUnmarshalerType = reflect.TypeOf((*gojson.Unmarshaler)(nil)).Elem()
	textUnmarshalerType = reflect.TypeOf((*encoding.TextUnmarshaler)(nil)).Elem()
)

// decodeState is the fast engine's per-call mutable state: the
// recursion budget and the per-decoder caches. The root-to-current
// position is carried by the node handles themselves (parent links),
// so no separate stack of node references needs maintaining.
type decodeState struct {
	opts       *options
	depth      int
	containers *containerCache
	arrayKinds map[reflect.Type]elemClass
}

func newDecodeState(o *options, d *Decoder) *decodeState {
	ds := &decodeState{opts: o, depth: o.maxDepth}
	if d != nil {
		ds.containers = d.containers
		ds.arrayKinds = d.arrayKinds
	} else {
		ds.containers = newContainerCache()
		ds.arrayKinds = make(map[reflect.Type]elemClass)
	}
	return ds
}

// mapValue is the recursive dispatcher: it classifies the target type,
// decodes built-in leaves directly, and recurses through containers
// for composites. The depth budget is restored symmetrically on every
// exit path.
func (ds *decodeState) mapValue(n *tree.Node, rv reflect.Value) error { //nolint:gocyclo
	ds.depth--
	if ds.depth <= 0 {
		ds.depth++
		return errorf(NestingTooDeep, pathOf(n), "exceeded maximum nesting depth of %d", ds.opts.maxDepth)
	}
	defer func() { ds.depth++ }()

	if n.IsNull() {
		switch rv.Kind() {
		case reflect.Interface, reflect.Pointer, reflect.Map, reflect.Slice:
			rv.Set(reflect.Zero(rv.Type()))
			return nil
		}
	}

	if done, err := ds.decodeBuiltin(n, rv); done {
		return err
	}
	if handled, err := ds.tryCustomUnmarshal(n, rv); handled || err != nil {
		return err
	}

	for rv.Kind() == reflect.Pointer {
		if rv.IsNil() {
			rv.Set(reflect.New(rv.Type().Elem()))
		}
		rv = rv.Elem()
		if done, err := ds.decodeBuiltin(n, rv); done {
			return err
		}
		if handled, err := ds.tryCustomUnmarshal(n, rv); handled || err != nil {
			return err
		}
	}

	if rv.Kind() == reflect.Interface {
		return ds.mapInterface(n, rv)
	}
	if !rv.CanSet() {
		return fmt.Errorf("zippyjson: cannot set value of type %s", rv.Type())
	}

	switch n.Kind() {
	case tree.Null:
		rv.Set(reflect.Zero(rv.Type()))
		return nil
	case tree.Bool:
		return ds.decodeBool(n, rv)
	case tree.Number:
		return ds.decodeNumber(n, rv)
	case tree.String:
		return ds.decodeString(n, rv)
	case tree.Array:
		switch rv.Kind() {
		case reflect.Slice:
			return ds.mapSlice(n, rv)
		case reflect.Array:
			return ds.mapArray(n, rv)
		default:
			return errorf(TypeMismatch, pathOf(n), "cannot decode array into Go value of type %s", rv.Type())
		}
	case tree.Object:
		switch rv.Kind() {
		case reflect.Struct:
			return ds.mapStruct(n, rv)
		case reflect.Map:
			return ds.mapMap(n, rv)
		default:
			return errorf(TypeMismatch, pathOf(n), "cannot decode object into Go value of type %s", rv.Type())
		}
	default:
		return errorf(MalformedInput, pathOf(n), "unsupported document node")
	}
}

// decodeBuiltin handles the leaf types the dispatcher special-cases
// ahead of generic kind dispatch: dates, byte blobs, arbitrary
// precision decimals and URLs, recognized by type identity.
func (ds *decodeState) decodeBuiltin(n *tree.Node, rv reflect.Value) (bool, error) {
	switch rv.Type() {
	case timeType:
		if n.IsNull() {
			rv.Set(reflect.Zero(timeType))
			return true, nil
		}
		t, err := ds.decodeTime(n)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(t))
		return true, nil
	case decimalType:
		if n.IsNull() {
			rv.Set(reflect.Zero(decimalType))
			return true, nil
		}
		d, err := ds.decodeDecimal(n)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(d))
		return true, nil
	case urlType:
		if n.IsNull() {
			rv.Set(reflect.Zero(urlType))
			return true, nil
		}
		u, err := ds.decodeURL(n)
		if err != nil {
			return true, err
		}
		rv.Set(reflect.ValueOf(*u))
		return true, nil
	}
	if rv.Kind() == reflect.Slice && rv.Type().Elem().Kind() == reflect.Uint8 {
		// Deferred blobs decode through the ordinary array path.
		if ds.opts.data.kind == dataDeferred {
			return false, nil
		}
		b, err := ds.decodeData(n)
		if err != nil {
			return true, err
		}
		rv.SetBytes(b)
		return true, nil
	}
	return false, nil
}

// tryCustomUnmarshal probes rv for a custom unmarshaler, preferring
// the container protocol, then json.Unmarshaler (which receives the
// node re-assembled as standalone JSON), then encoding.TextUnmarshaler
// for string nodes. Reports whether the value was handled.
func (ds *decodeState) tryCustomUnmarshal(n *tree.Node, rv reflect.Value) (bool, error) {
	if !rv.CanAddr() {
		return false, nil
	}
	pv := rv.Addr()
	if !pv.CanInterface() {
		return false, nil
	}

	if u, ok := pv.Interface().(Unmarshaler); ok {
		if err := u.UnmarshalZippyJSON(&fastValueDecoder{ds: ds, node: n}); err != nil {
			var de *DecodeError
			if errors.As(err, &de) {
				return true, de
			}
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(gojson.Unmarshaler); ok {
		if err := u.UnmarshalJSON(n.RawJSON()); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	if u, ok := pv.Interface().(encoding.TextUnmarshaler); ok {
		if !n.IsString() {
			// TextUnmarshaler only applies to string values.
			return false, nil
		}
		s, err := n.StringValue()
		if err != nil {
			return true, translateTreeError(err)
		}
		if err := u.UnmarshalText([]byte(s)); err != nil {
			return true, &UnmarshalerError{Type: pv.Type(), Err: err}
		}
		return true, nil
	}

	return false, nil
}

func (ds *decodeState) mapInterface(n *tree.Node, rv reflect.Value) error {
	if rv.NumMethod() != 0 {
		return errorf(TypeMismatch, pathOf(n), "cannot decode into non-empty interface %s", rv.Type())
	}
	var concrete reflect.Value
	switch n.Kind() {
	case tree.Null:
		return nil
	case tree.Bool:
		var b bool
		concrete = reflect.ValueOf(&b).Elem()
	case tree.Number:
		var f float64
		concrete = reflect.ValueOf(&f).Elem()
	case tree.String:
		var s string
		concrete = reflect.ValueOf(&s).Elem()
	case tree.Array:
		var a []any
		concrete = reflect.ValueOf(&a).Elem()
	case tree.Object:
		var m map[string]any
		concrete = reflect.ValueOf(&m).Elem()
	default:
		return errorf(MalformedInput, pathOf(n), "unsupported document node")
	}
	if err := ds.mapValue(n, concrete); err != nil {
		return err
	}
	rv.Set(concrete)
	return nil
}

// fastValueDecoder is the fast engine's ValueDecoder: a decoder
// re-entered at one node, handed to custom unmarshalers and strategy
// callbacks.
type fastValueDecoder struct {
	ds   *decodeState
	node *tree.Node
}

func (d *fastValueDecoder) CodingPath() Path { return pathOf(d.node) }

func (d *fastValueDecoder) Decode(v any) error {
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return d.ds.mapValue(d.node, rv.Elem())
}

func (d *fastValueDecoder) Keyed() (KeyedContainer, error) {
	kc, err := newFastKeyed(d.ds, d.node)
	if err != nil {
		return nil, err
	}
	return kc, nil
}

func (d *fastValueDecoder) Sequential() (SequentialContainer, error) {
	sc, err := newFastSequential(d.ds, d.node)
	if err != nil {
		return nil, err
	}
	return sc, nil
}

func (d *fastValueDecoder) SingleValue() SingleValueContainer {
	return &fastSingleValue{ds: d.ds, node: d.node}
}
