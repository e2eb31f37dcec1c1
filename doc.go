/*
Package zippyjson decodes JSON into Go values through a fast tree-walking
engine, with an API modeled on the standard `encoding/json` package.

A decode call parses the document into an immutable value tree and maps it
onto the target type directly, without the intermediate allocations of a
token stream. When the requested configuration (or the document itself)
cannot be served by the fast path, the call is transparently rerouted to a
fully general reference decoder; both engines produce identical values,
errors and coding paths.

Example of unmarshaling into a struct:

	var data = []byte(`{"name": "zippyjson", "version": 1.0}`)

	type Config struct {
		Name    string  `json:"name"`
		Version float64 `json:"version"`
	}

	var cfg Config
	if err := zippyjson.Unmarshal(data, &cfg); err != nil {
		// handle error
	}
	// cfg is now populated with {Name: "zippyjson", Version: 1.0}

Decoding policies are configured with functional options:

	var e Event
	err := zippyjson.Unmarshal(data, &e,
		zippyjson.ConvertSnakeCaseKeys(),
		zippyjson.DateDecoding(zippyjson.DateISO8601),
		zippyjson.NonFiniteFloats("+inf", "-inf", "nan"),
	)

Failures are reported as *DecodeError values carrying a kind, a coding
path locating the offending value within the document, and a description:

	var de *zippyjson.DecodeError
	if errors.As(err, &de) {
		fmt.Println(de.Kind, de.Path) // e.g. "number out of range /items/2/count"
	}

Types may customize their decoding by implementing Unmarshaler, which
receives a ValueDecoder positioned at the value and requests keyed,
sequential or single-value container views. Types implementing
json.Unmarshaler or encoding.TextUnmarshaler are honored as well.

For repeated decodes of homogeneous data, a Decoder created with
NewDecoder reuses its container state across Decode calls. A Decoder must
not be shared between goroutines; independent calls through Unmarshal are
safe to run concurrently.
*/
package zippyjson
