package client

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	"microhttp/http"
	"microhttp/http/transfer"

	"github.com/pkg/errors"
)

// ErrBodyReleased reports access to a body whose stream was already
// released without buffering it.
var ErrBodyReleased = errors.New("response body was already released")

// DefaultSaveChunkSize is the read granularity of [Response.Save] when the
// caller passes zero.
const DefaultSaveChunkSize = 1024

// Response is the outcome of one request. It owns the underlying
// connection from construction until the body is fully buffered, saved, or
// closed; whichever happens first releases the stream, exactly once.
type Response struct {
	Status uint
	Reason string

	// Headers carries the raw response header fields in wire order. It
	// stays nil unless header retention was requested.
	Headers []http.Field

	Chunked       bool
	ContentLength uint

	// Encoding names the charset assumed by Text.
	Encoding string

	conn    io.Closer
	br      *bufio.Reader
	chunked *transfer.ChunkedReader

	remain uint // body bytes left when not chunked

	released bool
	cached   []byte

	retain bool
	codec  Codec
}

var _ io.ReadCloser = (*Response)(nil)

// addHeader ingests one header line: transfer framing headers adjust the
// body mode, everything else is kept only when retention was requested.
func (r *Response) addHeader(field http.Field) error {
	switch {
	case field.Is("Transfer-Encoding"):
		if bytes.Contains(bytes.ToLower(field.Value), []byte("chunked")) {
			r.Chunked = true
		}
	case field.Is("Content-Length"):
		size, err := strconv.ParseUint(string(field.Value), 10, 64)
		if err != nil {
			return errors.Wrap(err, "parsing Content-Length")
		}
		r.ContentLength = uint(size)
	}

	if r.retain {
		r.Headers = append(r.Headers, field)
	}

	return nil
}

// attach hands the response its stream once the header section has been
// consumed. br must be positioned at the first body byte.
func (r *Response) attach(conn io.Closer, br *bufio.Reader) {
	r.conn = conn
	r.br = br

	if r.Chunked {
		r.chunked = transfer.NewChunkedReader(br)
	} else {
		r.remain = r.ContentLength
	}

	if r.Encoding == "" {
		r.Encoding = "utf-8"
	}
	if r.codec == nil {
		r.codec = jsonCodec{}
	}
}

// Read streams body bytes. Non-chunked bodies are bounded by the declared
// content length; bytes past it are never consumed from the stream.
func (r *Response) Read(p []byte) (int, error) {
	if r.released {
		return 0, ErrBodyReleased
	}

	if r.chunked != nil {
		return r.chunked.Read(p)
	}

	if r.remain == 0 {
		return 0, io.EOF
	}

	if uint(len(p)) > r.remain {
		p = p[:r.remain]
	}

	n, err := r.br.Read(p)
	r.remain -= uint(n)

	return n, err
}

// Content materializes the whole body. The first call drains the stream
// and releases it, success or not; later calls serve the buffered bytes.
func (r *Response) Content() ([]byte, error) {
	if r.released {
		if r.cached != nil {
			return r.cached, nil
		}
		return nil, ErrBodyReleased
	}

	buf := bytes.NewBuffer(nil)
	_, err := io.Copy(buf, r)

	r.release()

	if err != nil {
		return nil, errors.Wrap(err, "reading body")
	}

	r.cached = buf.Bytes()
	return r.cached, nil
}

// Text returns the body decoded as text.
func (r *Response) Text() (string, error) {
	content, err := r.Content()
	if err != nil {
		return "", err
	}
	return string(content), nil
}

// JSON decodes the body into v using the configured codec.
func (r *Response) JSON(v any) error {
	content, err := r.Content()
	if err != nil {
		return err
	}

	if err := r.codec.Decode(content, v); err != nil {
		return errors.Wrap(err, "decoding json body")
	}
	return nil
}

// Save streams the body to sink in chunkSize pieces until the declared
// content length is exhausted, then releases the response regardless of
// the transfer outcome.
func (r *Response) Save(sink io.Writer, chunkSize int) error {
	defer r.Close()

	if chunkSize <= 0 {
		chunkSize = DefaultSaveChunkSize
	}

	buf := make([]byte, chunkSize)
	read := uint(0)

	for read < r.ContentLength {
		chunk := buf
		if remain := r.ContentLength - read; uint(len(chunk)) > remain {
			chunk = chunk[:remain]
		}

		n, err := r.Read(chunk)
		read += uint(n)

		if n > 0 {
			if _, werr := sink.Write(chunk[:n]); werr != nil {
				return errors.Wrap(werr, "writing to sink")
			}
		}

		if err != nil {
			if errors.Is(err, io.EOF) {
				break
			}
			return errors.Wrap(err, "reading body")
		}

		if n == 0 {
			break
		}
	}

	return nil
}

// Close invalidates the response: the stream handle is released and the
// cached body is dropped. Safe to call more than once.
func (r *Response) Close() error {
	r.cached = nil
	return r.release()
}

// release closes the underlying stream exactly once.
func (r *Response) release() error {
	if r.released {
		return nil
	}
	r.released = true

	if r.conn == nil {
		return nil
	}
	return r.conn.Close()
}
