// Package tree exposes a parsed JSON document as an immutable tree of
// nodes. It is the engine's view of the external parser: structural
// queries, ordered child enumeration, overflow-aware scalar extraction
// and coding-path reconstruction, with value bytes borrowed from the
// input rather than copied.
package tree

import (
	"bytes"
	"errors"
	"math"
	"strconv"

	"github.com/buger/jsonparser"
	gojson "github.com/goccy/go-json"
)

// Kind classifies the JSON value a Node refers to.
type Kind uint8

const (
	Invalid Kind = iota
	Null
	Bool
	Number
	String
	Object
	Array
)

// maxFastDepth is the nesting budget of the fast cursor. Documents
// nested deeper are declined with ErrRetryReference rather than risking
// the recursion limit of the engine above.
const maxFastDepth = 512

// ErrRetryReference signals that the document is well-formed but the
// fast parser declines to handle it; the caller should retry through
// the reference decoder.
var ErrRetryReference = errors.New("tree: document declined by fast parser")

// Node is an opaque handle into the parsed document. Nodes are only
// valid for the duration of the decode call that produced them; the
// engine must not retain them.
type Node struct {
	raw    []byte // objects/arrays: full JSON; strings: escaped contents sans quotes; others: the literal
	kind   Kind
	parent *Node
	key    string // segment under an object parent
	idx    int    // segment under an array parent, -1 otherwise
}

// Segment is one step of a coding path: a key into an object or an
// index into an array. Index is -1 for key segments.
type Segment struct {
	Key   string
	Index int
}

// Parse validates data and returns a handle to its root value. A
// malformed document yields an *Error of kind ErrParseFailed carrying a
// human-readable reason. Documents nested beyond the fast cursor's
// budget yield ErrRetryReference.
func Parse(data []byte) (*Node, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 {
		return nil, &Error{Kind: ErrParseFailed, Reason: "unexpected end of JSON input"}
	}
	if !gojson.Valid(trimmed) {
		return nil, &Error{Kind: ErrParseFailed, Reason: validationReason(trimmed)}
	}
	if bracketDepth(trimmed) > maxFastDepth {
		return nil, ErrRetryReference
	}

	root := &Node{kind: kindOfByte(trimmed[0]), idx: -1}
	if root.kind == String {
		root.raw = trimmed[1 : len(trimmed)-1]
	} else {
		root.raw = trimmed
	}
	return root, nil
}

// validationReason reruns the failed document through the reference
// parser to harvest its error message. Only reached on invalid input.
func validationReason(data []byte) string {
	var v any
	if err := gojson.Unmarshal(data, &v); err != nil {
		return err.Error()
	}
	return "invalid JSON"
}

// bracketDepth reports the maximum bracket nesting of data, ignoring
// brackets inside string literals. Assumes data already validated.
func bracketDepth(data []byte) int {
	depth, maxDepth := 0, 0
	inString, escaped := false, false
	for _, c := range data {
		if inString {
			switch {
			case escaped:
				escaped = false
			case c == '\\':
				escaped = true
			case c == '"':
				inString = false
			}
			continue
		}
		switch c {
		case '"':
			inString = true
		case '{', '[':
			depth++
			if depth > maxDepth {
				maxDepth = depth
			}
		case '}', ']':
			depth--
		}
	}
	return maxDepth
}

func kindOfByte(c byte) Kind {
	switch c {
	case '{':
		return Object
	case '[':
		return Array
	case '"':
		return String
	case 't', 'f':
		return Bool
	case 'n':
		return Null
	default:
		return Number
	}
}

func kindOfValueType(vt jsonparser.ValueType) Kind {
	switch vt {
	case jsonparser.Object:
		return Object
	case jsonparser.Array:
		return Array
	case jsonparser.String:
		return String
	case jsonparser.Number:
		return Number
	case jsonparser.Boolean:
		return Bool
	case jsonparser.Null:
		return Null
	default:
		return Invalid
	}
}

// Kind returns the node's value classification.
func (n *Node) Kind() Kind { return n.kind }

// IsObject reports whether the node is a JSON object.
func (n *Node) IsObject() bool { return n.kind == Object }

// IsArray reports whether the node is a JSON array.
func (n *Node) IsArray() bool { return n.kind == Array }

// IsNumber reports whether the node is a JSON number.
func (n *Node) IsNumber() bool { return n.kind == Number }

// IsNull reports whether the node is the JSON null literal.
func (n *Node) IsNull() bool { return n.kind == Null }

// IsString reports whether the node is a JSON string.
func (n *Node) IsString() bool { return n.kind == String }

// Path reconstructs the coding path from the document root to n.
func (n *Node) Path() []Segment {
	var segs []Segment
	for cur := n; cur != nil && cur.parent != nil; cur = cur.parent {
		if cur.idx >= 0 {
			segs = append(segs, Segment{Index: cur.idx})
		} else {
			segs = append(segs, Segment{Key: cur.key, Index: -1})
		}
	}
	for i, j := 0, len(segs)-1; i < j; i, j = i+1, j-1 {
		segs[i], segs[j] = segs[j], segs[i]
	}
	return segs
}

// Entry is one key/value pair of an object node, in document order.
type Entry struct {
	Key  string
	Node Node
}

// ObjectEntries enumerates the node's key/value pairs in document
// order. Fails with a wrong-type error when the node is not an object.
func (n *Node) ObjectEntries() ([]Entry, error) {
	return n.AppendObjectEntries(nil)
}

// AppendObjectEntries appends the node's entries to dst, reusing its
// backing storage. Used by the container reuse cache to refurbish a
// keyed container without reallocating.
func (n *Node) AppendObjectEntries(dst []Entry) ([]Entry, error) {
	if n.kind != Object {
		return nil, &Error{Kind: ErrWrongType, Reason: "expected object, found " + n.kind.String(), Node: n}
	}
	err := jsonparser.ObjectEach(n.raw, func(key, value []byte, vt jsonparser.ValueType, _ int) error {
		k, kerr := jsonparser.ParseString(key)
		if kerr != nil {
			return &Error{Kind: ErrParseFailed, Reason: "invalid object key", Node: n}
		}
		dst = append(dst, Entry{
			Key:  k,
			Node: Node{raw: value, kind: kindOfValueType(vt), parent: n, key: k, idx: -1},
		})
		return nil
	})
	if err != nil {
		var te *Error
		if errors.As(err, &te) {
			return nil, te
		}
		return nil, &Error{Kind: ErrParseFailed, Reason: err.Error(), Node: n}
	}
	return dst, nil
}

// ArrayElements enumerates the node's elements in index order. Fails
// with a wrong-type error when the node is not an array.
func (n *Node) ArrayElements() ([]Node, error) {
	if n.kind != Array {
		return nil, &Error{Kind: ErrWrongType, Reason: "expected array, found " + n.kind.String(), Node: n}
	}
	var elems []Node
	_, err := jsonparser.ArrayEach(n.raw, func(value []byte, vt jsonparser.ValueType, _ int, _ error) {
		elems = append(elems, Node{raw: value, kind: kindOfValueType(vt), parent: n, idx: len(elems)})
	})
	if err != nil {
		return nil, &Error{Kind: ErrParseFailed, Reason: err.Error(), Node: n}
	}
	return elems, nil
}

// Literal returns the node's raw literal text. Meaningful for numbers,
// where it is the exact decimal representation from the document.
func (n *Node) Literal() string { return string(n.raw) }

// RawJSON returns the node's value re-assembled as standalone JSON,
// suitable for handing to a json.Unmarshaler.
func (n *Node) RawJSON() []byte {
	if n.kind != String {
		return n.raw
	}
	out := make([]byte, 0, len(n.raw)+2)
	out = append(out, '"')
	out = append(out, n.raw...)
	out = append(out, '"')
	return out
}

// BoolValue extracts the node as a boolean.
func (n *Node) BoolValue() (bool, error) {
	if n.kind != Bool {
		return false, &Error{Kind: ErrWrongType, Reason: "expected boolean, found " + n.kind.String(), Node: n}
	}
	return n.raw[0] == 't', nil
}

// StringValue extracts the node as an unescaped string.
func (n *Node) StringValue() (string, error) {
	if n.kind != String {
		return "", &Error{Kind: ErrWrongType, Reason: "expected string, found " + n.kind.String(), Node: n}
	}
	s, err := jsonparser.ParseString(n.raw)
	if err != nil {
		return "", &Error{Kind: ErrParseFailed, Reason: "invalid string escape sequence", Node: n}
	}
	return s, nil
}

// IntValue extracts the node as a signed 64-bit integer. Fractional
// literals are a wrong-type condition; literals outside the int64 range
// do not fit.
func (n *Node) IntValue() (int64, error) {
	if n.kind != Number {
		return 0, &Error{Kind: ErrWrongType, Reason: "expected number, found " + n.kind.String(), Node: n}
	}
	lit := n.Literal()
	if isFractional(lit) {
		return 0, &Error{Kind: ErrWrongType, Reason: "cannot decode fractional number " + lit + " as integer", Node: n}
	}
	v, err := strconv.ParseInt(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Error{Kind: ErrNumberOutOfRange, Reason: "number " + lit + " does not fit in int64", Node: n}
		}
		return 0, &Error{Kind: ErrParseFailed, Reason: "invalid number literal " + lit, Node: n}
	}
	return v, nil
}

// UintValue extracts the node as an unsigned 64-bit integer. Negative
// literals do not fit.
func (n *Node) UintValue() (uint64, error) {
	if n.kind != Number {
		return 0, &Error{Kind: ErrWrongType, Reason: "expected number, found " + n.kind.String(), Node: n}
	}
	lit := n.Literal()
	if isFractional(lit) {
		return 0, &Error{Kind: ErrWrongType, Reason: "cannot decode fractional number " + lit + " as integer", Node: n}
	}
	if len(lit) > 0 && lit[0] == '-' {
		return 0, &Error{Kind: ErrNumberOutOfRange, Reason: "number " + lit + " does not fit in an unsigned integer", Node: n}
	}
	v, err := strconv.ParseUint(lit, 10, 64)
	if err != nil {
		if errors.Is(err, strconv.ErrRange) {
			return 0, &Error{Kind: ErrNumberOutOfRange, Reason: "number " + lit + " does not fit in uint64", Node: n}
		}
		return 0, &Error{Kind: ErrParseFailed, Reason: "invalid number literal " + lit, Node: n}
	}
	return v, nil
}

// FloatValue extracts the node as a 64-bit float. When exact is set the
// literal is parsed with full round-trip precision; otherwise the fast
// approximate parse is used.
func (n *Node) FloatValue(exact bool) (float64, error) {
	if n.kind != Number {
		return 0, &Error{Kind: ErrWrongType, Reason: "expected number, found " + n.kind.String(), Node: n}
	}
	if exact {
		v, err := strconv.ParseFloat(n.Literal(), 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, &Error{Kind: ErrNumberOutOfRange, Reason: "number " + n.Literal() + " does not fit in float64", Node: n}
			}
			return 0, &Error{Kind: ErrParseFailed, Reason: "invalid number literal " + n.Literal(), Node: n}
		}
		return v, nil
	}
	v, err := jsonparser.ParseFloat(n.raw)
	if err != nil || math.IsInf(v, 0) {
		// The fast parse saturates or rejects extreme literals; reparse
		// to classify out-of-range separately from malformed.
		v, err = strconv.ParseFloat(n.Literal(), 64)
		if err != nil {
			if errors.Is(err, strconv.ErrRange) {
				return 0, &Error{Kind: ErrNumberOutOfRange, Reason: "number " + n.Literal() + " does not fit in float64", Node: n}
			}
			return 0, &Error{Kind: ErrParseFailed, Reason: "invalid number literal " + n.Literal(), Node: n}
		}
	}
	return v, nil
}

func isFractional(lit string) bool {
	for i := 0; i < len(lit); i++ {
		switch lit[i] {
		case '.', 'e', 'E':
			return true
		}
	}
	return false
}

func (k Kind) String() string {
	switch k {
	case Null:
		return "null"
	case Bool:
		return "boolean"
	case Number:
		return "number"
	case String:
		return "string"
	case Object:
		return "object"
	case Array:
		return "array"
	default:
		return "invalid"
	}
}
