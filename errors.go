package zippyjson

import (
	"errors"
	"fmt"
	"reflect"
	"strconv"
	"strings"

	"github.com/zenangst/zippyjson/internal/tree"
)

// ErrKind classifies a DecodeError.
type ErrKind uint8

const (
	// TypeMismatch: the document value's shape does not match the
	// requested Go type.
	TypeMismatch ErrKind = iota
	// NumberOutOfRange: a numeric literal does not fit the requested
	// numeric type.
	NumberOutOfRange
	// KeyMissing: a required key is absent from an object.
	KeyMissing
	// ValueMissing: a value expected at a path is absent.
	ValueMissing
	// SequenceExhausted: a read past the end of an array.
	SequenceExhausted
	// MalformedInput: the input is not valid JSON, or a leaf value's
	// contents cannot be interpreted as requested.
	MalformedInput
	// NestingTooDeep: the document nests beyond the configured
	// recursion budget.
	NestingTooDeep
)

func (k ErrKind) String() string {
	switch k {
	case TypeMismatch:
		return "type mismatch"
	case NumberOutOfRange:
		return "number out of range"
	case KeyMissing:
		return "key missing"
	case ValueMissing:
		return "value missing"
	case SequenceExhausted:
		return "sequence exhausted"
	case MalformedInput:
		return "malformed input"
	case NestingTooDeep:
		return "nesting too deep"
	default:
		return "unknown"
	}
}

// PathSegment is one step of a coding path: a key into an object or an
// index into an array. Index is -1 for key segments.
type PathSegment struct {
	Key   string
	Index int
}

// IsKey reports whether the segment is an object key.
func (s PathSegment) IsKey() bool { return s.Index < 0 }

func (s PathSegment) String() string {
	if s.IsKey() {
		return s.Key
	}
	return strconv.Itoa(s.Index)
}

func keySegment(k string) PathSegment { return PathSegment{Key: k, Index: -1} }

func indexSegment(i int) PathSegment { return PathSegment{Index: i} }

// Path locates a value within the document root. An empty path means
// the document root itself.
type Path []PathSegment

// String renders the path in JSON-Pointer style, e.g. "/items/2/price".
// The root path renders as "/".
func (p Path) String() string {
	if len(p) == 0 {
		return "/"
	}
	var b strings.Builder
	for _, s := range p {
		b.WriteByte('/')
		b.WriteString(s.String())
	}
	return b.String()
}

func (p Path) child(seg PathSegment) Path {
	out := make(Path, len(p)+1)
	copy(out, p)
	out[len(p)] = seg
	return out
}

// DecodeError describes a decoding failure: what went wrong, where in
// the document, and a human-readable description. No partial value is
// ever returned alongside one.
type DecodeError struct {
	Kind        ErrKind
	Path        Path
	Description string
}

func (e *DecodeError) Error() string {
	return fmt.Sprintf("zippyjson: %s at %s: %s", e.Kind, e.Path, e.Description)
}

func errorf(kind ErrKind, path Path, format string, args ...any) *DecodeError {
	return &DecodeError{Kind: kind, Path: path, Description: fmt.Sprintf(format, args...)}
}

// An UnmarshalerError wraps an error returned by a custom unmarshaler.
type UnmarshalerError struct {
	Type reflect.Type
	Err  error
}

func (e *UnmarshalerError) Error() string {
	return "zippyjson: error calling custom unmarshaler for type " + e.Type.String() + ": " + e.Err.Error()
}

func (e *UnmarshalerError) Unwrap() error { return e.Err }

// pathOf resolves a tree node to its coding path.
func pathOf(n *tree.Node) Path {
	segs := n.Path()
	if len(segs) == 0 {
		return Path{}
	}
	p := make(Path, len(segs))
	for i, s := range segs {
		p[i] = PathSegment(s)
	}
	return p
}

// translateTreeError converts the tree layer's structured failure
// signal into a DecodeError. Parse failures carry an empty path: they
// occur before any structural descent. When the signal names both a
// node and a key, the node path's last segment is dropped before the
// key is appended, since the node path already encodes it.
func translateTreeError(err error) error {
	var te *tree.Error
	if !errors.As(err, &te) {
		return err
	}
	if te.Kind == tree.ErrParseFailed && te.Node == nil {
		return &DecodeError{Kind: MalformedInput, Path: Path{}, Description: te.Reason}
	}
	var path Path
	if te.Node != nil {
		path = pathOf(te.Node)
	}
	if te.Key != "" {
		if len(path) > 0 {
			path = path[:len(path)-1]
		}
		path = append(path, keySegment(te.Key))
	}
	var kind ErrKind
	switch te.Kind {
	case tree.ErrWrongType:
		kind = TypeMismatch
	case tree.ErrNumberOutOfRange:
		kind = NumberOutOfRange
	case tree.ErrKeyMissing:
		kind = KeyMissing
	case tree.ErrValueMissing:
		kind = ValueMissing
	default:
		kind = MalformedInput
	}
	return &DecodeError{Kind: kind, Path: path, Description: te.Reason}
}
