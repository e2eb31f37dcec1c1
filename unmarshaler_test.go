package zippyjson_test

import (
	"fmt"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/require"

	"github.com/zenangst/zippyjson"
)

// point decodes itself through the keyed container protocol.
type point struct {
	X, Y int
}

func (p *point) UnmarshalZippyJSON(d zippyjson.ValueDecoder) error {
	kc, err := d.Keyed()
	if err != nil {
		return err
	}
	if err := kc.Decode("x", &p.X); err != nil {
		return err
	}
	return kc.Decode("y", &p.Y)
}

// span decodes itself from a two-element array through the sequential
// container protocol.
type span struct {
	Start, End int
}

func (s *span) UnmarshalZippyJSON(d zippyjson.ValueDecoder) error {
	sc, err := d.Sequential()
	if err != nil {
		return err
	}
	if err := sc.Decode(&s.Start); err != nil {
		return err
	}
	return sc.Decode(&s.End)
}

// price decodes itself through the single-value container.
type price struct {
	Amount decimal.Decimal
}

func (p *price) UnmarshalZippyJSON(d zippyjson.ValueDecoder) error {
	var err error
	p.Amount, err = d.SingleValue().Decimal()
	return err
}

// loud implements json-style unmarshaling.
type loud string

func (l *loud) UnmarshalJSON(data []byte) error {
	s := strings.Trim(string(data), `"`)
	*l = loud(strings.ToUpper(s))
	return nil
}

// color implements text unmarshaling.
type color struct {
	name string
}

func (c *color) UnmarshalText(text []byte) error {
	if len(text) == 0 {
		return fmt.Errorf("empty color")
	}
	c.name = string(text)
	return nil
}

func TestUnmarshaler(t *testing.T) {
	t.Run("Keyed Container", func(t *testing.T) {
		var p point
		err := zippyjson.Unmarshal([]byte(`{"x": 3, "y": 4}`), &p)
		require.NoError(t, err)
		require.Equal(t, point{X: 3, Y: 4}, p)
	})

	t.Run("Keyed Container Missing Key", func(t *testing.T) {
		var p point
		err := zippyjson.Unmarshal([]byte(`{"x": 3}`), &p)
		require.Error(t, err)
		var de *zippyjson.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, zippyjson.KeyMissing, de.Kind)
		require.Equal(t, "/", de.Path.String())
		require.Contains(t, de.Description, `key "y" not found`)
	})

	t.Run("Keyed Container Missing Key In Wrapper", func(t *testing.T) {
		type wrapper struct {
			Value point `json:"value"`
		}
		var w wrapper
		err := zippyjson.Unmarshal([]byte(`{"value": {}}`), &w)
		require.Error(t, err)
		var de *zippyjson.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, zippyjson.KeyMissing, de.Kind)
		require.Equal(t, "/value", de.Path.String())
	})

	t.Run("Keyed Container Introspection", func(t *testing.T) {
		type probe struct {
			keys     []string
			hasA     bool
			nilUnder bool
		}
		var got probe
		inspect := func(d zippyjson.ValueDecoder) error {
			kc, err := d.Keyed()
			if err != nil {
				return err
			}
			got.keys = kc.AllKeys()
			got.hasA = kc.Contains("a")
			got.nilUnder, err = kc.DecodeNil("b")
			return err
		}
		err := zippyjson.Unmarshal([]byte(`{"a": 1, "b": null}`), &inspector{fn: inspect})
		require.NoError(t, err)
		require.Equal(t, []string{"a", "b"}, got.keys)
		require.True(t, got.hasA)
		require.True(t, got.nilUnder)
	})

	t.Run("Keyed Container SuperDecoder", func(t *testing.T) {
		var whole map[string]any
		var nested point
		inspect := func(d zippyjson.ValueDecoder) error {
			kc, err := d.Keyed()
			if err != nil {
				return err
			}
			// The no-argument form re-enters the container's own node.
			sup, err := kc.SuperDecoder()
			if err != nil {
				return err
			}
			if err := sup.Decode(&whole); err != nil {
				return err
			}
			// The keyed form positions at the value for one key.
			kd, err := kc.SuperDecoderForKey("origin")
			if err != nil {
				return err
			}
			if kd.CodingPath().String() != "/origin" {
				return fmt.Errorf("unexpected coding path %s", kd.CodingPath())
			}
			var o struct {
				X int `json:"x"`
				Y int `json:"y"`
			}
			if err := kd.Decode(&o); err != nil {
				return err
			}
			nested = point{X: o.X, Y: o.Y}
			return nil
		}
		input := []byte(`{"origin": {"x": 1, "y": 2}}`)
		err := zippyjson.Unmarshal(input, &inspector{fn: inspect})
		require.NoError(t, err)
		require.Equal(t, point{1, 2}, nested)
		require.Len(t, whole, 1)
	})

	t.Run("AllKeys Deduplicates Converted Keys", func(t *testing.T) {
		var keys []string
		collect := func(d zippyjson.ValueDecoder) error {
			kc, err := d.Keyed()
			if err != nil {
				return err
			}
			keys = kc.AllKeys()
			return nil
		}

		// Snake-case conversion collides "user_name" with "userName";
		// the key is reported once, in document order.
		input := []byte(`{"user_name": 1, "userName": 2, "id": 3}`)
		err := zippyjson.Unmarshal(input, &inspector{fn: collect},
			zippyjson.ConvertSnakeCaseKeys())
		require.NoError(t, err)
		require.Equal(t, []string{"userName", "id"}, keys)

		// The reference engine reports distinct keys too, sorted.
		collapse := zippyjson.CustomKeys(func(zippyjson.Path) string { return "k" })
		err = zippyjson.Unmarshal([]byte(`{"a": 1, "b": 2}`), &inspector{fn: collect}, collapse)
		require.NoError(t, err)
		require.Equal(t, []string{"k"}, keys)
	})

	t.Run("Sequential Container", func(t *testing.T) {
		var s span
		err := zippyjson.Unmarshal([]byte(`[10, 20]`), &s)
		require.NoError(t, err)
		require.Equal(t, span{Start: 10, End: 20}, s)
	})

	t.Run("Sequential Container Exhausted", func(t *testing.T) {
		var s span
		err := zippyjson.Unmarshal([]byte(`[10]`), &s)
		require.Error(t, err)
		var de *zippyjson.DecodeError
		require.ErrorAs(t, err, &de)
		require.Equal(t, zippyjson.SequenceExhausted, de.Kind)
		require.Equal(t, "/1", de.Path.String())
	})

	t.Run("Sequential Container Cursor", func(t *testing.T) {
		inspect := func(d zippyjson.ValueDecoder) error {
			sc, err := d.Sequential()
			if err != nil {
				return err
			}
			if sc.Count() != 2 || sc.CurrentIndex() != 0 || sc.IsAtEnd() {
				return fmt.Errorf("unexpected initial cursor state")
			}
			var v int
			if err := sc.Decode(&v); err != nil {
				return err
			}
			if sc.CurrentIndex() != 1 {
				return fmt.Errorf("cursor did not advance")
			}
			if isNull, err := sc.DecodeNil(); err != nil || !isNull {
				return fmt.Errorf("expected null at index 1")
			}
			if !sc.IsAtEnd() {
				return fmt.Errorf("expected end of sequence")
			}
			return nil
		}
		err := zippyjson.Unmarshal([]byte(`[1, null]`), &inspector{fn: inspect})
		require.NoError(t, err)
	})

	t.Run("Single Value Container", func(t *testing.T) {
		var p price
		err := zippyjson.Unmarshal([]byte(`19.99`), &p)
		require.NoError(t, err)
		require.True(t, p.Amount.Equal(decimal.RequireFromString("19.99")))

		err = zippyjson.Unmarshal([]byte(`"19.99"`), &p)
		require.Error(t, err)
		require.Contains(t, err.Error(), "expected number for decimal")
	})

	t.Run("Nested Containers", func(t *testing.T) {
		type shape struct {
			origin point
			points []span
		}
		var got shape
		decode := func(d zippyjson.ValueDecoder) error {
			kc, err := d.Keyed()
			if err != nil {
				return err
			}
			if err := kc.Decode("origin", &got.origin); err != nil {
				return err
			}
			sc, err := kc.NestedSequential("spans")
			if err != nil {
				return err
			}
			for !sc.IsAtEnd() {
				var s span
				if err := sc.Decode(&s); err != nil {
					return err
				}
				got.points = append(got.points, s)
			}
			return nil
		}
		input := []byte(`{"origin": {"x": 0, "y": 0}, "spans": [[1, 2], [3, 4]]}`)
		err := zippyjson.Unmarshal(input, &inspector{fn: decode})
		require.NoError(t, err)
		require.Equal(t, point{0, 0}, got.origin)
		require.Equal(t, []span{{1, 2}, {3, 4}}, got.points)
	})

	t.Run("JSON Unmarshaler", func(t *testing.T) {
		var l loud
		err := zippyjson.Unmarshal([]byte(`"quiet"`), &l)
		require.NoError(t, err)
		require.Equal(t, loud("QUIET"), l)
	})

	t.Run("Text Unmarshaler", func(t *testing.T) {
		var c color
		err := zippyjson.Unmarshal([]byte(`"teal"`), &c)
		require.NoError(t, err)
		require.Equal(t, "teal", c.name)

		err = zippyjson.Unmarshal([]byte(`""`), &c)
		require.Error(t, err)
		var ue *zippyjson.UnmarshalerError
		require.ErrorAs(t, err, &ue)
		require.Contains(t, err.Error(), "empty color")
	})

	t.Run("Unmarshaler Error Wrapping", func(t *testing.T) {
		fail := func(zippyjson.ValueDecoder) error { return fmt.Errorf("boom") }
		err := zippyjson.Unmarshal([]byte(`1`), &inspector{fn: fail})
		require.Error(t, err)
		var ue *zippyjson.UnmarshalerError
		require.ErrorAs(t, err, &ue)
		require.Contains(t, err.Error(), "boom")
	})

	t.Run("Unmarshaler In Struct Field", func(t *testing.T) {
		type canvas struct {
			Center point `json:"center"`
		}
		var c canvas
		err := zippyjson.Unmarshal([]byte(`{"center": {"x": 5, "y": 6}}`), &c)
		require.NoError(t, err)
		require.Equal(t, point{5, 6}, c.Center)
	})
}

// inspector adapts a closure to the Unmarshaler interface for tests
// that drive the container protocol directly.
type inspector struct {
	fn func(zippyjson.ValueDecoder) error
}

func (i *inspector) UnmarshalZippyJSON(d zippyjson.ValueDecoder) error {
	return i.fn(d)
}
