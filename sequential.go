package zippyjson

import (
	"fmt"
	"reflect"

	"github.com/zenangst/zippyjson/internal/tree"
)

// fastSequential is the fast engine's sequential container: a
// position-ordered view of an array node with a monotonic cursor.
type fastSequential struct {
	ds    *decodeState
	node  *tree.Node
	elems []tree.Node
	cur   int
}

func newFastSequential(ds *decodeState, n *tree.Node) (*fastSequential, error) {
	elems, err := n.ArrayElements()
	if err != nil {
		return nil, translateTreeError(err)
	}
	return &fastSequential{ds: ds, node: n, elems: elems}, nil
}

func (s *fastSequential) CodingPath() Path { return pathOf(s.node) }

func (s *fastSequential) Count() int { return len(s.elems) }

func (s *fastSequential) IsAtEnd() bool { return s.cur >= len(s.elems) }

func (s *fastSequential) CurrentIndex() int { return s.cur }

// exhausted builds the past-the-end error; its path points at the
// first index beyond the array's length.
func (s *fastSequential) exhausted() *DecodeError {
	return errorf(SequenceExhausted, s.CodingPath().child(indexSegment(s.cur)),
		"no value at index %d: array has %d elements", s.cur, len(s.elems))
}

func (s *fastSequential) DecodeNil() (bool, error) {
	if s.IsAtEnd() {
		return false, s.exhausted()
	}
	if s.elems[s.cur].IsNull() {
		s.cur++
		return true, nil
	}
	return false, nil
}

func (s *fastSequential) Decode(v any) error {
	if s.IsAtEnd() {
		return s.exhausted()
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	if err := s.ds.mapValue(&s.elems[s.cur], rv.Elem()); err != nil {
		return err
	}
	s.cur++
	return nil
}

func (s *fastSequential) NestedKeyed() (KeyedContainer, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	nested, err := newFastKeyed(s.ds, &s.elems[s.cur])
	if err != nil {
		return nil, err
	}
	s.cur++
	return nested, nil
}

func (s *fastSequential) NestedSequential() (SequentialContainer, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	nested, err := newFastSequential(s.ds, &s.elems[s.cur])
	if err != nil {
		return nil, err
	}
	s.cur++
	return nested, nil
}

func (s *fastSequential) SuperDecoder() (ValueDecoder, error) {
	if s.IsAtEnd() {
		return nil, s.exhausted()
	}
	d := &fastValueDecoder{ds: s.ds, node: &s.elems[s.cur]}
	s.cur++
	return d, nil
}

// decodeBulk materializes a homogeneous scalar array in one pass,
// skipping the per-element dispatch and custom-unmarshaler probing.
// dst must be pre-sized to Count(). Any element failure aborts the
// whole pass with that element's index on the path.
func (s *fastSequential) decodeBulk(dst reflect.Value) error {
	ds := s.ds
	for i := range s.elems {
		n := &s.elems[i]
		ev := dst.Index(i)
		var err error
		switch n.Kind() {
		case tree.Null:
			// leave the zero value
		case tree.Bool:
			err = ds.decodeBool(n, ev)
		case tree.Number:
			err = ds.decodeNumber(n, ev)
		case tree.String:
			err = ds.decodeString(n, ev)
		default:
			err = errorf(TypeMismatch, pathOf(n), "cannot decode %s into Go value of type %s", n.Kind(), ev.Type())
		}
		if err != nil {
			return err
		}
	}
	s.cur = len(s.elems)
	return nil
}

func (ds *decodeState) mapSlice(n *tree.Node, rv reflect.Value) error {
	sc, err := newFastSequential(ds, n)
	if err != nil {
		return err
	}
	t := rv.Type()
	out := reflect.MakeSlice(t, sc.Count(), sc.Count())
	if ds.classifyElem(t.Elem()) == classBulk {
		if err := sc.decodeBulk(out); err != nil {
			return err
		}
		rv.Set(out)
		return nil
	}
	for i := 0; !sc.IsAtEnd(); i++ {
		if err := ds.mapValue(&sc.elems[sc.cur], out.Index(i)); err != nil {
			return err
		}
		sc.cur++
	}
	rv.Set(out)
	return nil
}

func (ds *decodeState) mapArray(n *tree.Node, rv reflect.Value) error {
	sc, err := newFastSequential(ds, n)
	if err != nil {
		return err
	}
	if sc.Count() > rv.Len() {
		return errorf(TypeMismatch, pathOf(n),
			"cannot decode array of length %d into Go array of length %d", sc.Count(), rv.Len())
	}
	for i := 0; i < rv.Len(); i++ {
		if sc.IsAtEnd() {
			return sc.exhausted()
		}
		if err := ds.mapValue(&sc.elems[sc.cur], rv.Index(i)); err != nil {
			return err
		}
		sc.cur++
	}
	return nil
}
