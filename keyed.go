package zippyjson

import (
	"fmt"
	"reflect"

	"github.com/zenangst/zippyjson/internal/tree"
)

// emptyEntries is the canonical zero-entry table shared by every empty
// object, so `{}` always behaves as an empty dictionary without
// revalidation.
var emptyEntries = make([]tree.Entry, 0)

// fastKeyed is the fast engine's keyed container: a named-field view
// of an object node. Construction snapshots the entries once, in
// document order, applying key-case conversion at that moment.
type fastKeyed struct {
	ds      *decodeState
	node    *tree.Node
	entries []tree.Entry
	index   map[string]int
	leased  bool
}

func newFastKeyed(ds *decodeState, n *tree.Node) (*fastKeyed, error) {
	k := &fastKeyed{ds: ds, index: make(map[string]int)}
	if err := k.refurbish(n); err != nil {
		return nil, err
	}
	return k, nil
}

// refurbish points the container at a new object node, reusing the
// entry table and key index storage from its previous life. Fails with
// TypeMismatch when the node is not an object.
func (k *fastKeyed) refurbish(n *tree.Node) error {
	entries, err := n.AppendObjectEntries(k.entries[:0])
	if err != nil {
		return translateTreeError(err)
	}
	if entries == nil {
		entries = emptyEntries
	}
	if k.ds.opts.snakeCase {
		for i := range entries {
			entries[i].Key = tree.CamelCase(entries[i].Key)
		}
	}
	k.node = n
	k.entries = entries
	for key := range k.index {
		delete(k.index, key)
	}
	for i := range entries {
		k.index[entries[i].Key] = i
	}
	return nil
}

// reset drops every node reference, and the decode state that produced
// them, so nothing borrowed from the parsed tree survives the decode
// call.
func (k *fastKeyed) reset() {
	k.ds = nil
	k.node = nil
	for i := range k.entries {
		k.entries[i] = tree.Entry{}
	}
	k.entries = k.entries[:0]
	for key := range k.index {
		delete(k.index, key)
	}
}

func (k *fastKeyed) CodingPath() Path { return pathOf(k.node) }

func (k *fastKeyed) Contains(key string) bool {
	_, ok := k.index[key]
	return ok
}

// AllKeys reports the distinct keys present, in document order of
// first occurrence. Duplicates (from the document, or from a key
// conversion collision) appear once.
func (k *fastKeyed) AllKeys() []string {
	keys := make([]string, 0, len(k.entries))
	seen := make(map[string]struct{}, len(k.entries))
	for i := range k.entries {
		key := k.entries[i].Key
		if _, ok := seen[key]; ok {
			continue
		}
		seen[key] = struct{}{}
		keys = append(keys, key)
	}
	return keys
}

// child fetches the sub-node for key by exact match, post conversion.
func (k *fastKeyed) child(key string) (*tree.Node, error) {
	i, ok := k.index[key]
	if !ok {
		return nil, errorf(KeyMissing, k.CodingPath(), "key %q not found", key)
	}
	return &k.entries[i].Node, nil
}

func (k *fastKeyed) DecodeNil(key string) (bool, error) {
	n, err := k.child(key)
	if err != nil {
		return false, err
	}
	return n.IsNull(), nil
}

func (k *fastKeyed) Decode(key string, v any) error {
	n, err := k.child(key)
	if err != nil {
		return err
	}
	rv := reflect.ValueOf(v)
	if rv.Kind() != reflect.Pointer || rv.IsNil() {
		return fmt.Errorf("zippyjson: Decode(non-pointer %T or nil)", v)
	}
	return k.ds.mapValue(n, rv.Elem())
}

func (k *fastKeyed) NestedKeyed(key string) (KeyedContainer, error) {
	n, err := k.child(key)
	if err != nil {
		return nil, err
	}
	nested, err := newFastKeyed(k.ds, n)
	if err != nil {
		return nil, err
	}
	return nested, nil
}

func (k *fastKeyed) NestedSequential(key string) (SequentialContainer, error) {
	n, err := k.child(key)
	if err != nil {
		return nil, err
	}
	nested, err := newFastSequential(k.ds, n)
	if err != nil {
		return nil, err
	}
	return nested, nil
}

func (k *fastKeyed) SuperDecoderForKey(key string) (ValueDecoder, error) {
	n, err := k.child(key)
	if err != nil {
		return nil, err
	}
	return &fastValueDecoder{ds: k.ds, node: n}, nil
}

// SuperDecoder returns a decoder re-positioned at the container's own
// object node.
func (k *fastKeyed) SuperDecoder() (ValueDecoder, error) {
	return &fastValueDecoder{ds: k.ds, node: k.node}, nil
}

// acquireKeyed leases a pooled container for t when one is free,
// refurbishing it in place; otherwise it constructs a fresh one and
// offers it to the pool.
func (ds *decodeState) acquireKeyed(n *tree.Node, t reflect.Type) (*fastKeyed, error) {
	if kc := ds.containers.acquire(t); kc != nil {
		kc.ds = ds
		if err := kc.refurbish(n); err != nil {
			ds.containers.release(kc)
			return nil, err
		}
		return kc, nil
	}
	kc, err := newFastKeyed(ds, n)
	if err != nil {
		return nil, err
	}
	kc.leased = true
	ds.containers.offer(t, kc)
	return kc, nil
}

func (ds *decodeState) mapStruct(n *tree.Node, rv reflect.Value) error {
	kc, err := ds.acquireKeyed(n, rv.Type())
	if err != nil {
		return err
	}
	defer ds.containers.release(kc)

	fields := cachedFields(rv.Type())
	for i := range kc.entries {
		e := &kc.entries[i]
		f := fields.match(e.Key)
		if f == nil {
			continue
		}
		fv := fieldByIndex(rv, f.idx)
		if !fv.IsValid() || !fv.CanSet() {
			continue
		}
		if err := ds.mapValue(&e.Node, fv); err != nil {
			return err
		}
	}
	return nil
}

func (ds *decodeState) mapMap(n *tree.Node, rv reflect.Value) error {
	t := rv.Type()
	if t.Key().Kind() != reflect.String {
		return errorf(TypeMismatch, pathOf(n), "cannot decode object into map with non-string key type %s", t.Key())
	}
	kc, err := ds.acquireKeyed(n, t)
	if err != nil {
		return err
	}
	defer ds.containers.release(kc)

	if rv.IsNil() {
		rv.Set(reflect.MakeMap(t))
	} else {
		for _, key := range rv.MapKeys() {
			rv.SetMapIndex(key, reflect.Value{}) // the zero Value deletes the key
		}
	}
	elemType := t.Elem()
	for i := range kc.entries {
		e := &kc.entries[i]
		newVal := reflect.New(elemType).Elem()
		if err := ds.mapValue(&e.Node, newVal); err != nil {
			return err
		}
		rv.SetMapIndex(reflect.ValueOf(e.Key).Convert(t.Key()), newVal)
	}
	return nil
}
