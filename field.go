package zippyjson

import (
	"reflect"
	"strings"
	"sync"
)

// field represents one decodable struct field.
type field struct {
	name   string
	idx    []int
	tagged bool
}

// structFields indexes a struct's fields by the names they decode
// from. Matching is exact first, then case-insensitive.
type structFields struct {
	exact map[string]*field
	lower map[string]*field
}

func (sf *structFields) match(key string) *field {
	if f, ok := sf.exact[key]; ok {
		return f
	}
	if f, ok := sf.lower[strings.ToLower(key)]; ok {
		return f
	}
	return nil
}

// fieldCache caches struct field indexes per type.
var fieldCache sync.Map // map[reflect.Type]*structFields

// cachedFields parses a struct's json tags and builds an index of its
// fields. The result is cached to avoid repeated reflection work.
// Unexported fields and fields tagged "json:-" are skipped; untagged
// embedded structs are flattened.
func cachedFields(t reflect.Type) *structFields {
	if f, ok := fieldCache.Load(t); ok {
		return f.(*structFields)
	}

	sf := &structFields{
		exact: make(map[string]*field),
		lower: make(map[string]*field),
	}
	var walk func(t reflect.Type, idx []int)
	walk = func(t reflect.Type, idx []int) {
		for i := 0; i < t.NumField(); i++ {
			f := t.Field(i)
			tag := f.Tag.Get("json")
			if tag == "-" {
				continue
			}
			tagName, _, _ := strings.Cut(tag, ",")

			if f.Anonymous && tagName == "" {
				ft := f.Type
				if ft.Kind() == reflect.Pointer {
					ft = ft.Elem()
				}
				if ft.Kind() == reflect.Struct {
					walk(ft, append(append([]int{}, idx...), i))
					continue
				}
			}
			if !f.IsExported() {
				continue
			}

			entry := &field{
				name: f.Name,
				idx:  append(append([]int{}, idx...), i),
			}
			if tagName != "" {
				entry.name = tagName
				entry.tagged = true
			}

			// Shallower fields win; an entry set by an outer struct is
			// never overwritten by an embedded one.
			if _, ok := sf.exact[entry.name]; !ok {
				sf.exact[entry.name] = entry
			}
			if !entry.tagged {
				if _, ok := sf.exact[f.Name]; !ok {
					sf.exact[f.Name] = entry
				}
			}
			lowerName := strings.ToLower(entry.name)
			if _, ok := sf.lower[lowerName]; !ok {
				sf.lower[lowerName] = entry
			}
		}
	}
	walk(t, nil)

	fieldCache.Store(t, sf)
	return sf
}

// fieldByIndex walks an index path into v, allocating nil embedded
// pointers along the way. Returns the zero Value when an intermediate
// pointer cannot be allocated.
func fieldByIndex(v reflect.Value, idx []int) reflect.Value {
	for _, x := range idx {
		if v.Kind() == reflect.Pointer {
			if v.IsNil() {
				if !v.CanSet() {
					return reflect.Value{}
				}
				v.Set(reflect.New(v.Type().Elem()))
			}
			v = v.Elem()
		}
		v = v.Field(x)
	}
	return v
}
