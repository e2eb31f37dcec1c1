package zippyjson

import (
	"fmt"
	"time"
)

const defaultMaxDepth = 1000

// options is the immutable per-decode policy set.
type options struct {
	maxDepth      int
	snakeCase     bool
	customKeys    func(Path) string
	date          DateStrategy
	data          DataStrategy
	nonFinite     *nonFiniteSentinels
	fullPrecision bool
}

type nonFiniteSentinels struct {
	posInf string
	negInf string
	nan    string
}

// Option configures a decode call.
type Option func(*options) error

func newOptions(opts []Option) (*options, error) {
	o := &options{maxDepth: defaultMaxDepth}
	for _, opt := range opts {
		if err := opt(o); err != nil {
			return nil, err
		}
	}
	return o, nil
}

// MaxDepth returns an Option that sets the maximum recursion depth for
// the decoder. This helps prevent stack overflows when decoding highly
// nested documents.
//
// The depth n must be a positive integer.
func MaxDepth(n int) Option {
	return func(o *options) error {
		if n <= 0 {
			return fmt.Errorf("zippyjson: max depth must be a positive integer")
		}
		o.maxDepth = n
		return nil
	}
}

// ConvertSnakeCaseKeys returns an Option that rewrites snake_case
// object keys to camelCase before field matching. The rewrite happens
// once per object, when its keyed container is constructed, and is
// idempotent.
func ConvertSnakeCaseKeys() Option {
	return func(o *options) error {
		o.snakeCase = true
		return nil
	}
}

// CustomKeys returns an Option that rewrites every object key through
// fn before field matching. fn receives the coding path ending at the
// key under consideration and returns the replacement key.
//
// Arbitrary key rewriting defeats the fast engine's key matching, so
// this option routes the whole decode through the reference decoder.
func CustomKeys(fn func(Path) string) Option {
	return func(o *options) error {
		if fn == nil {
			return fmt.Errorf("zippyjson: CustomKeys requires a non-nil function")
		}
		o.customKeys = fn
		return nil
	}
}

// DateDecoding returns an Option that selects how time.Time values are
// decoded. The default is DateDeferred.
func DateDecoding(s DateStrategy) Option {
	return func(o *options) error {
		o.date = s
		return nil
	}
}

// DataDecoding returns an Option that selects how []byte values are
// decoded. The default is DataBase64.
func DataDecoding(s DataStrategy) Option {
	return func(o *options) error {
		o.data = s
		return nil
	}
}

// NonFiniteFloats returns an Option that accepts the given string
// sentinels as positive infinity, negative infinity and NaN when
// decoding floating-point targets. Without it, non-finite encodings are
// rejected.
func NonFiniteFloats(posInf, negInf, nan string) Option {
	return func(o *options) error {
		o.nonFinite = &nonFiniteSentinels{posInf: posInf, negInf: negInf, nan: nan}
		return nil
	}
}

// FullPrecisionFloats returns an Option that parses floating-point
// literals with exact round-trip precision instead of the fast
// approximate parse.
func FullPrecisionFloats() Option {
	return func(o *options) error {
		o.fullPrecision = true
		return nil
	}
}

type dateKind uint8

const (
	dateDeferred dateKind = iota
	dateSeconds
	dateMillis
	dateISO8601
	dateFormatted
	dateCustom
)

// DateStrategy selects how time.Time values are decoded.
type DateStrategy struct {
	kind   dateKind
	layout string
	fn     func(ValueDecoder) (time.Time, error)
}

// Date strategies. DateDeferred hands the raw value to time.Time's own
// unmarshaling; the epoch strategies read a numeric value; DateISO8601
// parses an ISO-8601 / RFC 3339 string.
var (
	DateDeferred              = DateStrategy{kind: dateDeferred}
	DateSecondsSince1970      = DateStrategy{kind: dateSeconds}
	DateMillisecondsSince1970 = DateStrategy{kind: dateMillis}
	DateISO8601               = DateStrategy{kind: dateISO8601}
)

// DateFormatted returns a DateStrategy that parses date strings with
// the given time.Parse layout.
func DateFormatted(layout string) DateStrategy {
	return DateStrategy{kind: dateFormatted, layout: layout}
}

// DateCustom returns a DateStrategy that invokes fn with a decoder
// re-entered at the date's node.
func DateCustom(fn func(ValueDecoder) (time.Time, error)) DateStrategy {
	return DateStrategy{kind: dateCustom, fn: fn}
}

type dataKind uint8

const (
	dataBase64 dataKind = iota
	dataDeferred
	dataCustom
)

// DataStrategy selects how []byte values are decoded.
type DataStrategy struct {
	kind dataKind
	fn   func(ValueDecoder) ([]byte, error)
}

// Data strategies. DataBase64 decodes a base64 string; DataDeferred
// decodes an ordinary JSON array of numbers.
var (
	DataBase64   = DataStrategy{kind: dataBase64}
	DataDeferred = DataStrategy{kind: dataDeferred}
)

// DataCustom returns a DataStrategy that invokes fn with a decoder
// re-entered at the blob's node.
func DataCustom(fn func(ValueDecoder) ([]byte, error)) DataStrategy {
	return DataStrategy{kind: dataCustom, fn: fn}
}
