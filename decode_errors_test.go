package zippyjson_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenangst/zippyjson"
)

// decodeErr unwraps err into a *DecodeError, failing the test when it
// is any other kind of error.
func decodeErr(t *testing.T, err error) *zippyjson.DecodeError {
	t.Helper()
	require.Error(t, err)
	var de *zippyjson.DecodeError
	require.ErrorAs(t, err, &de)
	return de
}

func TestUnmarshal_Errors(t *testing.T) {
	t.Run("Malformed Input", func(t *testing.T) {
		var v any
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`{"a": `), &v))
		require.Equal(t, zippyjson.MalformedInput, de.Kind)
		require.Equal(t, "/", de.Path.String())
	})

	t.Run("Empty Input", func(t *testing.T) {
		var v any
		de := decodeErr(t, zippyjson.Unmarshal(nil, &v))
		require.Equal(t, zippyjson.MalformedInput, de.Kind)
		require.Equal(t, "/", de.Path.String())
		require.Contains(t, de.Description, "unexpected end of JSON input")
	})

	t.Run("Trailing Data", func(t *testing.T) {
		var v any
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`{"a": 1} extra`), &v))
		require.Equal(t, zippyjson.MalformedInput, de.Kind)
	})

	t.Run("Type Mismatch", func(t *testing.T) {
		var i int
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`"not a number"`), &i))
		require.Equal(t, zippyjson.TypeMismatch, de.Kind)
		require.Contains(t, de.Description, "cannot decode string into Go value of type int")

		var s []int
		de = decodeErr(t, zippyjson.Unmarshal([]byte(`{"a": 1}`), &s))
		require.Equal(t, zippyjson.TypeMismatch, de.Kind)
		require.Equal(t, "/", de.Path.String())
		require.Contains(t, de.Description, "cannot decode object into Go value of type []int")
	})

	t.Run("Fractional Number Into Integer", func(t *testing.T) {
		var i int
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`1.5`), &i))
		require.Equal(t, zippyjson.TypeMismatch, de.Kind)
		require.Contains(t, de.Description, "cannot decode fractional number 1.5 as integer")
	})

	t.Run("Number Out Of Range", func(t *testing.T) {
		var u8 uint8
		require.NoError(t, zippyjson.Unmarshal([]byte(`255`), &u8))
		require.Equal(t, uint8(255), u8)

		de := decodeErr(t, zippyjson.Unmarshal([]byte(`256`), &u8))
		require.Equal(t, zippyjson.NumberOutOfRange, de.Kind)
		require.Contains(t, de.Description, "integer value 256 overflows Go value of type uint8")

		de = decodeErr(t, zippyjson.Unmarshal([]byte(`-1`), &u8))
		require.Equal(t, zippyjson.NumberOutOfRange, de.Kind)
		require.Contains(t, de.Description, "does not fit in an unsigned integer")

		var i64 int64
		de = decodeErr(t, zippyjson.Unmarshal([]byte(`9223372036854775808`), &i64))
		require.Equal(t, zippyjson.NumberOutOfRange, de.Kind)
		require.Contains(t, de.Description, "does not fit in int64")

		var f float64
		de = decodeErr(t, zippyjson.Unmarshal([]byte(`1e999`), &f))
		require.Equal(t, zippyjson.NumberOutOfRange, de.Kind)
	})

	t.Run("Sequence Exhausted Path", func(t *testing.T) {
		var arr [3]int
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`[1, 2]`), &arr))
		require.Equal(t, zippyjson.SequenceExhausted, de.Kind)
		require.Equal(t, "/2", de.Path.String())
	})

	t.Run("Nested Error Path", func(t *testing.T) {
		type Item struct {
			Count int `json:"count"`
		}
		type Doc struct {
			Items []Item `json:"items"`
		}
		var d Doc
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`{"items": [{"count": 1}, {"count": "x"}]}`), &d))
		require.Equal(t, zippyjson.TypeMismatch, de.Kind)
		require.Equal(t, "/items/1/count", de.Path.String())
	})

	t.Run("Nesting Too Deep", func(t *testing.T) {
		var v any
		de := decodeErr(t, zippyjson.Unmarshal([]byte(`{"a": {"b": {"c": 1}}}`), &v, zippyjson.MaxDepth(3)))
		require.Equal(t, zippyjson.NestingTooDeep, de.Kind)
		require.Contains(t, de.Description, "exceeded maximum nesting depth of 3")
	})

	t.Run("No Partial Result On Failure", func(t *testing.T) {
		// A failing decode must not leave a half-written target visible
		// as success; the error is the only signal.
		type Doc struct {
			A int `json:"a"`
			B int `json:"b"`
		}
		var d Doc
		err := zippyjson.Unmarshal([]byte(`{"a": 1, "b": "oops"}`), &d)
		require.Error(t, err)
	})

	t.Run("Error Message Format", func(t *testing.T) {
		var m map[string]map[string]int
		err := zippyjson.Unmarshal([]byte(`{"a": {"b": "x"}}`), &m)
		require.Error(t, err)
		var de *zippyjson.DecodeError
		require.True(t, errors.As(err, &de))
		require.Equal(t, "/a/b", de.Path.String())
		require.Contains(t, err.Error(), "zippyjson: type mismatch at /a/b:")
	})
}
