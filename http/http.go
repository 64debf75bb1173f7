package http

import (
	"bytes"

	"github.com/pkg/errors"
)

const (
	cr byte = '\r'
	lf byte = '\n'
	sp byte = ' '
)

// CRLF terminates every line of the header section.
var CRLF = []byte{cr, lf}

var ows = "\t "

// Field is one header line, split at the first colon.
type Field struct{ Name, Value []byte }

// NewField builds a field from strings. Values are stored as given; the
// encoder writes them verbatim.
func NewField(name, value string) Field {
	return Field{Name: []byte(name), Value: []byte(value)}
}

// ParseField splits a raw field line into name and value, trimming optional
// whitespace around the value.
func ParseField(fieldLine []byte) (Field, error) {
	name, value, found := bytes.Cut(fieldLine, []byte{':'})
	if !found {
		return Field{}, errors.Errorf("colon separator not found on header: %q", string(fieldLine))
	}

	return Field{Name: name, Value: bytes.Trim(value, ows)}, nil
}

// Is reports whether the field name matches, ignoring case.
func (f *Field) Is(name string) bool {
	return bytes.EqualFold(f.Name, []byte(name))
}

func (f *Field) Text() []byte {
	buf := bytes.NewBuffer(nil)
	buf.Write(f.Name)
	buf.Write([]byte(": "))
	buf.Write(f.Value)
	return buf.Bytes()
}

// Request is the wire-level form of one request attempt. Headers keep the
// caller's insertion order so the serialized output is deterministic.
type Request struct {
	Method string
	Path   string
	Host   string

	Headers []Field

	// Body is sent only when the method allows one.
	Body []byte

	// JSONBody marks Body as a JSON document so the serialized request
	// carries a Content-Type for it.
	JSONBody bool

	// Encoding optionally names the charset appended to the JSON
	// Content-Type.
	Encoding string
}

// StatusLine is a parsed response status line. The protocol version is
// discarded; this engine only speaks HTTP/1.1.
type StatusLine struct {
	StatusCode   uint
	ReasonPhrase string
}
