package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"github.com/pkg/errors"
)

// RequestEncoder serializes one request onto an output stream. The field
// order is fixed: request line, a synthesized Host unless the caller
// supplied one, the caller's headers, framing headers for the body, an
// unconditional Connection: close, the blank line, then the body.
type RequestEncoder struct {
	bw *bufio.Writer
}

func NewRequestEncoder(w io.Writer) *RequestEncoder {
	return &RequestEncoder{bw: bufio.NewWriter(w)}
}

func (re *RequestEncoder) Encode(request *Request) error {
	if err := re.encodeRequestLine(request.Method, request.Path); err != nil {
		return errors.Wrap(err, "encoding request line")
	}

	if err := re.encodeHeaders(request); err != nil {
		return errors.Wrap(err, "encoding headers")
	}

	// Flush before the caller starts waiting on the response.
	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request line & headers")
	}

	if !request.sendsBody() {
		return nil
	}

	if _, err := re.bw.Write(request.Body); err != nil {
		return errors.Wrap(err, "writing request body")
	}

	if err := re.bw.Flush(); err != nil {
		return errors.Wrap(err, "flushing request body")
	}

	return nil
}

// sendsBody reports whether the body bytes go on the wire. GET and HEAD
// never carry one, no matter what the caller supplied.
func (r *Request) sendsBody() bool {
	return len(r.Body) > 0 && r.Method != "GET" && r.Method != "HEAD"
}

func (re *RequestEncoder) encodeRequestLine(method, path string) error {
	buf := bytes.NewBuffer(nil)
	buf.WriteString(method)
	buf.WriteByte(sp)
	buf.WriteString(path)
	buf.WriteByte(sp)
	buf.WriteString("HTTP/1.1")

	if err := re.writeLine(buf.Bytes()); err != nil {
		return errors.Wrap(err, "writing line")
	}

	return nil
}

func (re *RequestEncoder) encodeHeaders(request *Request) error {
	if !hasField(request.Headers, "Host") {
		host := NewField("Host", request.Host)
		if err := re.writeLine(host.Text()); err != nil {
			return errors.Wrap(err, "writing host field")
		}
	}

	for _, field := range request.Headers {
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing field")
		}
	}

	if request.sendsBody() {
		if request.JSONBody {
			contentType := "application/json"
			if request.Encoding != "" {
				contentType += "; charset=" + request.Encoding
			}

			field := NewField("Content-Type", contentType)
			if err := re.writeLine(field.Text()); err != nil {
				return errors.Wrap(err, "writing content type")
			}
		}

		field := NewField("Content-Length", strconv.Itoa(len(request.Body)))
		if err := re.writeLine(field.Text()); err != nil {
			return errors.Wrap(err, "writing content length")
		}
	}

	connection := NewField("Connection", "close")
	if err := re.writeLine(connection.Text()); err != nil {
		return errors.Wrap(err, "writing connection field")
	}

	// An empty line terminates the header section.
	if err := re.writeLine(nil); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func (re *RequestEncoder) writeLine(line []byte) error {
	if _, err := re.bw.Write(line); err != nil {
		return errors.Wrap(err, "writing line")
	}

	if _, err := re.bw.Write(CRLF); err != nil {
		return errors.Wrap(err, "writing line terminator")
	}

	return nil
}

func hasField(fields []Field, name string) bool {
	for idx := range fields {
		if fields[idx].Is(name) {
			return true
		}
	}
	return false
}
