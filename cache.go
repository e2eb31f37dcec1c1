package zippyjson

import "reflect"

// containerCache pools keyed containers per target type so repeated
// decodes of homogeneous data refurbish a container in place instead
// of reallocating its entry table and key index. Owned by a single
// decoder; never shared across concurrent decode calls.
type containerCache struct {
	keyed map[reflect.Type]*fastKeyed
}

func newContainerCache() *containerCache {
	return &containerCache{keyed: make(map[reflect.Type]*fastKeyed)}
}

// acquire returns the pooled container for t when one exists and is
// uniquely owned. A leased entry means another decode scope still
// observes it, in which case the caller must allocate fresh; that
// conservative path is what keeps re-entrant decodes correct.
func (c *containerCache) acquire(t reflect.Type) *fastKeyed {
	k := c.keyed[t]
	if k == nil || k.leased {
		return nil
	}
	k.leased = true
	return k
}

// offer stores a container for future reuse unless the slot is taken.
func (c *containerCache) offer(t reflect.Type, k *fastKeyed) {
	if _, ok := c.keyed[t]; !ok {
		c.keyed[t] = k
	}
}

// release drops the container's node references and returns it to the
// pool. Clearing the references keeps parsed-tree handles from
// outliving the decode call that produced them.
func (c *containerCache) release(k *fastKeyed) {
	k.reset()
	k.leased = false
}

// elemClass is the monotonic bulk-path classification of a slice
// element type: once a type is classified for a decoder instance, the
// classification is never revisited.
type elemClass uint8

const (
	classBulk elemClass = iota + 1
	classGeneric
)

// classifyElem reports whether slices of elem may take the bulk decode
// path. Scalar kinds qualify unless the type carries a custom
// unmarshaler and therefore needs full dispatch.
func (ds *decodeState) classifyElem(elem reflect.Type) elemClass {
	if c, ok := ds.arrayKinds[elem]; ok {
		return c
	}
	c := classGeneric
	switch elem.Kind() {
	case reflect.Bool,
		reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64,
		reflect.String:
		if !hasCustomUnmarshaler(elem) {
			c = classBulk
		}
	}
	ds.arrayKinds[elem] = c
	return c
}

func hasCustomUnmarshaler(t reflect.Type) bool {
	pt := reflect.PointerTo(t)
	return pt.Implements(unmarshalerType) ||
		pt.Implements(jsonUnmarshalerType) ||
		pt.Implements(textUnmarshalerType)
}
