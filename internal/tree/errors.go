package tree

// ErrKind classifies a structural failure reported by the tree layer.
type ErrKind uint8

const (
	ErrWrongType ErrKind = iota
	ErrNumberOutOfRange
	ErrKeyMissing
	ErrValueMissing
	ErrParseFailed
)

// Error is the structured failure signal consumed by the engine's error
// translator: a kind, a human-readable reason, the offending node (or
// nil when the failure precedes any structural descent) and, when the
// failure concerns a specific key, that key.
type Error struct {
	Kind   ErrKind
	Reason string
	Node   *Node
	Key    string
}

func (e *Error) Error() string { return "tree: " + e.Reason }
