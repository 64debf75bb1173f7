package http

import (
	"bufio"
	"bytes"
	"io"
	"strconv"
	"strings"

	bytesutil "microhttp/util/bytes"

	"github.com/pkg/errors"
)

// MaxStatusLineLength bounds the status line read so a malformed or
// hostile peer cannot grow the line buffer without bound.
const MaxStatusLineLength = 4096

var (
	ErrStatusLineTooLong   = errors.New("status line length exceeds limit")
	ErrMalformedStatusLine = errors.New("status line is malformed")
	ErrMalformedFieldLine  = errors.New("field line is malformed")
)

// ResponseDecoder incrementally parses a status line and header lines off
// a byte stream. The buffered reader keeps serving the body after the
// header section, so the decoder must stay the sole reader of the stream
// until DecodeHeaders returns.
type ResponseDecoder struct {
	br *bufio.Reader
}

func NewResponseDecoder(r io.Reader) *ResponseDecoder {
	return &ResponseDecoder{br: bufio.NewReader(r)}
}

// Body returns the reader positioned at the first body byte. Valid only
// after DecodeHeaders.
func (rd *ResponseDecoder) Body() *bufio.Reader { return rd.br }

func (rd *ResponseDecoder) readLine(limit uint) ([]byte, error) {
	b, err := bytesutil.ReadUntilLimit(rd.br, CRLF, limit)
	if err != nil {
		return nil, err
	}

	return b[:len(b)-2], nil
}

func (rd *ResponseDecoder) DecodeStatusLine() (StatusLine, error) {
	line, err := rd.readLine(MaxStatusLineLength)
	if err != nil {
		if errors.Is(err, bytesutil.ErrLimitExceeded) {
			return StatusLine{}, ErrStatusLineTooLong
		}
		return StatusLine{}, errors.Wrap(err, "reading line")
	}

	parsed, err := parseStatusLine(line)
	if err != nil {
		return StatusLine{}, ErrMalformedStatusLine
	}

	return parsed, nil
}

func parseStatusLine(line []byte) (StatusLine, error) {
	parts := bytes.SplitN(line, []byte{sp}, 3)
	if len(parts) < 2 {
		return StatusLine{}, errors.New("status line is malformed")
	}

	statusCodeStr := string(parts[1])
	statusCode, err := strconv.ParseUint(statusCodeStr, 10, 64)
	if err != nil {
		return StatusLine{}, errors.Errorf("status code is malformed: %q", statusCodeStr)
	}

	// reason-phrase is optional.
	var reason string
	if len(parts) > 2 {
		reason = strings.TrimRight(string(parts[2]), ows)
	}

	return StatusLine{StatusCode: uint(statusCode), ReasonPhrase: reason}, nil
}

// DecodeHeaders reads header lines until the empty line that ends the
// section, or until the stream ends, calling visit with each parsed field.
func (rd *ResponseDecoder) DecodeHeaders(visit func(f Field) error) error {
	for {
		fieldLine, err := rd.readLine(0)
		if err != nil {
			if errors.Is(err, io.ErrUnexpectedEOF) {
				// The peer closed after the header section.
				return nil
			}
			return errors.Wrap(err, "reading line")
		}

		if len(fieldLine) == 0 {
			// An empty line. There are no more headers.
			return nil
		}

		field, err := ParseField(fieldLine)
		if err != nil {
			return ErrMalformedFieldLine
		}

		if err := visit(field); err != nil {
			return err
		}
	}
}
