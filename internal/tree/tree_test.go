package tree_test

import (
	"errors"
	"strings"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/zenangst/zippyjson/internal/tree"
)

func TestParse(t *testing.T) {
	t.Run("Root Kinds", func(t *testing.T) {
		cases := []struct {
			input string
			kind  tree.Kind
		}{
			{`{}`, tree.Object},
			{`[]`, tree.Array},
			{`"s"`, tree.String},
			{`true`, tree.Bool},
			{`false`, tree.Bool},
			{`null`, tree.Null},
			{`42`, tree.Number},
			{`-1.5e3`, tree.Number},
		}
		for _, c := range cases {
			n, err := tree.Parse([]byte(c.input))
			require.NoError(t, err, c.input)
			require.Equal(t, c.kind, n.Kind(), c.input)
		}
	})

	t.Run("Leading And Trailing Whitespace", func(t *testing.T) {
		n, err := tree.Parse([]byte("  \n\t{\"a\": 1}  "))
		require.NoError(t, err)
		require.True(t, n.IsObject())
	})

	t.Run("Empty Input", func(t *testing.T) {
		_, err := tree.Parse(nil)
		var te *tree.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrParseFailed, te.Kind)
		require.Contains(t, te.Reason, "unexpected end of JSON input")

		_, err = tree.Parse([]byte("   "))
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrParseFailed, te.Kind)
	})

	t.Run("Malformed Input", func(t *testing.T) {
		for _, input := range []string{`{`, `{"a"}`, `[1,]`, `"unterminated`, `{"a": 1} trailing`} {
			_, err := tree.Parse([]byte(input))
			var te *tree.Error
			require.ErrorAs(t, err, &te, input)
			require.Equal(t, tree.ErrParseFailed, te.Kind, input)
			require.NotEmpty(t, te.Reason, input)
		}
	})

	t.Run("Deep Nesting Declined", func(t *testing.T) {
		doc := strings.Repeat("[", 513) + "1" + strings.Repeat("]", 513)
		_, err := tree.Parse([]byte(doc))
		require.ErrorIs(t, err, tree.ErrRetryReference)

		// Brackets inside string literals do not count as nesting.
		flat := `{"a": "` + strings.Repeat("[", 600) + `"}`
		n, err := tree.Parse([]byte(flat))
		require.NoError(t, err)
		require.True(t, n.IsObject())
	})
}

func TestNode_Enumeration(t *testing.T) {
	t.Run("Object Entries In Document Order", func(t *testing.T) {
		n, err := tree.Parse([]byte(`{"z": 1, "a": 2, "m": 3}`))
		require.NoError(t, err)
		entries, err := n.ObjectEntries()
		require.NoError(t, err)
		require.Len(t, entries, 3)
		require.Equal(t, "z", entries[0].Key)
		require.Equal(t, "a", entries[1].Key)
		require.Equal(t, "m", entries[2].Key)
	})

	t.Run("Entries Of Non-Object", func(t *testing.T) {
		n, err := tree.Parse([]byte(`[1]`))
		require.NoError(t, err)
		_, err = n.ObjectEntries()
		var te *tree.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrWrongType, te.Kind)
		require.Contains(t, te.Reason, "expected object, found array")
	})

	t.Run("Array Elements In Index Order", func(t *testing.T) {
		n, err := tree.Parse([]byte(`[true, "two", 3]`))
		require.NoError(t, err)
		elems, err := n.ArrayElements()
		require.NoError(t, err)
		require.Len(t, elems, 3)
		require.Equal(t, tree.Bool, elems[0].Kind())
		require.Equal(t, tree.String, elems[1].Kind())
		require.Equal(t, tree.Number, elems[2].Kind())
	})

	t.Run("Append Reuses Backing Storage", func(t *testing.T) {
		n, err := tree.Parse([]byte(`{"a": 1, "b": 2}`))
		require.NoError(t, err)
		buf := make([]tree.Entry, 0, 8)
		entries, err := n.AppendObjectEntries(buf)
		require.NoError(t, err)
		require.Len(t, entries, 2)
		require.Equal(t, 8, cap(entries))
	})
}

func TestNode_Path(t *testing.T) {
	n, err := tree.Parse([]byte(`{"items": [{"price": "x"}]}`))
	require.NoError(t, err)

	entries, err := n.ObjectEntries()
	require.NoError(t, err)
	elems, err := entries[0].Node.ArrayElements()
	require.NoError(t, err)
	inner, err := elems[0].ObjectEntries()
	require.NoError(t, err)

	segs := inner[0].Node.Path()
	require.Equal(t, []tree.Segment{
		{Key: "items", Index: -1},
		{Index: 0},
		{Key: "price", Index: -1},
	}, segs)

	require.Empty(t, n.Path(), "root has an empty path")
}

func TestNode_ScalarExtraction(t *testing.T) {
	parse := func(t *testing.T, s string) *tree.Node {
		t.Helper()
		n, err := tree.Parse([]byte(s))
		require.NoError(t, err)
		return n
	}

	t.Run("Bool", func(t *testing.T) {
		b, err := parse(t, `true`).BoolValue()
		require.NoError(t, err)
		require.True(t, b)

		_, err = parse(t, `1`).BoolValue()
		var te *tree.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrWrongType, te.Kind)
	})

	t.Run("String", func(t *testing.T) {
		s, err := parse(t, `"a\nbé"`).StringValue()
		require.NoError(t, err)
		require.Equal(t, "a\nbé", s)
	})

	t.Run("Int", func(t *testing.T) {
		v, err := parse(t, `-42`).IntValue()
		require.NoError(t, err)
		require.Equal(t, int64(-42), v)

		_, err = parse(t, `1.5`).IntValue()
		var te *tree.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrWrongType, te.Kind)
		require.Contains(t, te.Reason, "fractional")

		_, err = parse(t, `9223372036854775808`).IntValue()
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrNumberOutOfRange, te.Kind)
	})

	t.Run("Uint", func(t *testing.T) {
		v, err := parse(t, `18446744073709551615`).UintValue()
		require.NoError(t, err)
		require.Equal(t, uint64(18446744073709551615), v)

		_, err = parse(t, `-1`).UintValue()
		var te *tree.Error
		require.ErrorAs(t, err, &te)
		require.Equal(t, tree.ErrNumberOutOfRange, te.Kind)
		require.Contains(t, te.Reason, "unsigned")
	})

	t.Run("Float", func(t *testing.T) {
		for _, exact := range []bool{true, false} {
			v, err := parse(t, `2.5`).FloatValue(exact)
			require.NoError(t, err)
			require.Equal(t, 2.5, v)

			_, err = parse(t, `1e999`).FloatValue(exact)
			var te *tree.Error
			require.ErrorAs(t, err, &te)
			require.Equal(t, tree.ErrNumberOutOfRange, te.Kind)
		}
	})

	t.Run("Wrong Kind", func(t *testing.T) {
		_, err := parse(t, `"nope"`).IntValue()
		var te *tree.Error
		require.True(t, errors.As(err, &te))
		require.Equal(t, tree.ErrWrongType, te.Kind)
		require.Contains(t, te.Reason, "expected number, found string")
	})
}

func TestNode_RawJSON(t *testing.T) {
	n, err := tree.Parse([]byte(`{"s": "val", "n": 1.5, "o": {"k": [1]}}`))
	require.NoError(t, err)
	entries, err := n.ObjectEntries()
	require.NoError(t, err)

	require.Equal(t, `"val"`, string(entries[0].Node.RawJSON()), "strings are re-quoted")
	require.Equal(t, `1.5`, string(entries[1].Node.RawJSON()))
	require.Equal(t, `{"k": [1]}`, string(entries[2].Node.RawJSON()))
}

func TestNode_Literal(t *testing.T) {
	n, err := tree.Parse([]byte(`0.30000000000000004`))
	require.NoError(t, err)
	require.Equal(t, "0.30000000000000004", n.Literal(), "the exact document literal is preserved")
}
