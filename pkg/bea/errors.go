package bea

import (
	"errors"
	"fmt"
	"strings"

	"github.com/rotisserie/eris"
)

// Kind classifies a failure.
type Kind int

const (
	KindUnknown Kind = iota

	// Transport.
	KindTransport
	KindHTTPStatus
	KindRateLimit

	// Local files.
	KindIO

	// JSON shape.
	KindInvalidJSON
	KindKeyMissing
	KindNotObject
	KindNotArray
	KindNotString
	KindNotInteger
	// KindNotFloat is reserved for float-typed fields. The current models
	// have none: DataValue stays a string and an unparsable number leaves
	// Datum.Value nil rather than failing.
	KindNotFloat
	KindNotBool

	// Domain.
	KindNoVariant
	KindAPI
	KindDatasetMissing

	KindSerialization
	KindEnv
)

var kindNames = map[Kind]string{
	KindUnknown:        "unknown",
	KindTransport:      "transport",
	KindHTTPStatus:     "http status",
	KindRateLimit:      "rate limited",
	KindIO:             "io",
	KindInvalidJSON:    "invalid json",
	KindKeyMissing:     "key missing",
	KindNotObject:      "not an object",
	KindNotArray:       "not an array",
	KindNotString:      "not a string",
	KindNotInteger:     "not an integer",
	KindNotFloat:       "not a float",
	KindNotBool:        "not a bool",
	KindNoVariant:      "no matching variant",
	KindAPI:            "api error",
	KindDatasetMissing: "dataset missing",
	KindSerialization:  "serialization",
	KindEnv:            "environment",
}

func (k Kind) String() string {
	if s, ok := kindNames[k]; ok {
		return s
	}
	return fmt.Sprintf("kind(%d)", int(k))
}

// Error is the structured failure returned by every fallible operation in
// this package. It is always wrapped by eris, so eris.ToString(err, true)
// shows the stack of the failure site.
type Error struct {
	Kind Kind
	// Key is the JSON key, environment variable, file path or request URL
	// the failure is about.
	Key string
	// Path is the JSON path of the node being converted.
	Path string
	// Code is the HTTP status or BEA APIErrorCode, when there is one.
	Code string
	Msg  string
	Err  error
}

func (e *Error) Error() string {
	var b strings.Builder
	b.WriteString(e.Kind.String())
	if e.Key != "" {
		fmt.Fprintf(&b, " %q", e.Key)
	}
	if e.Path != "" {
		fmt.Fprintf(&b, " at %s", e.Path)
	}
	if e.Code != "" {
		fmt.Fprintf(&b, " (code %s)", e.Code)
	}
	if e.Msg != "" {
		b.WriteString(": ")
		b.WriteString(e.Msg)
	}
	if e.Err != nil {
		b.WriteString(": ")
		b.WriteString(e.Err.Error())
	}
	return b.String()
}

func (e *Error) Unwrap() error {
	return e.Err
}

// IsKind reports whether any *Error in err's chain has kind k, including
// an *Error nested inside another one's Err.
func IsKind(err error, k Kind) bool {
	for err != nil {
		var e *Error
		if !errors.As(err, &e) {
			return false
		}
		if e.Kind == k {
			return true
		}
		err = e.Err
	}
	return false
}

// KindOf returns the kind of the outermost *Error in err's chain.
func KindOf(err error) Kind {
	var e *Error
	if errors.As(err, &e) {
		return e.Kind
	}
	return KindUnknown
}

func newError(op string, e *Error) error {
	return eris.Wrap(e, op)
}

func keyMissing(op, path, key string) error {
	return newError(op, &Error{Kind: KindKeyMissing, Key: key, Path: path})
}

func wrongKind(op string, k Kind, path, key string) error {
	return newError(op, &Error{Kind: k, Key: key, Path: path})
}

// IOError tags a local file failure with its path.
func IOError(op, path string, err error) error {
	return newError(op, &Error{Kind: KindIO, Key: path, Err: err})
}

// SerializationError wraps an encode or decode failure.
func SerializationError(op string, err error) error {
	return newError(op, &Error{Kind: KindSerialization, Err: err})
}

// EnvError reports a required environment variable that is unset.
func EnvError(name string) error {
	return newError("bea: environment", &Error{Kind: KindEnv, Key: name, Msg: "not set"})
}

// DatasetMissingError reports a dataset absent from a dataset list.
func DatasetMissingError(op, dataset string) error {
	return newError(op, &Error{Kind: KindDatasetMissing, Key: dataset})
}
