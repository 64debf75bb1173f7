// Package transfer implements HTTP transfer codings on byte streams.
package transfer

import (
	"bufio"
	"bytes"
	"io"
	"strconv"

	bytesutil "microhttp/util/bytes"

	"github.com/pkg/errors"
)

var crlf = []byte("\r\n")

// ErrMalformedChunk reports a chunk framing violation: a size line that is
// not valid hex, or a missing CRLF separator.
var ErrMalformedChunk = errors.New("chunk is malformed")

// ChunkedReader converts a chunked message body into a plain byte stream.
// Extensions after ';' on the size line are discarded. The terminating
// zero-size chunk must be followed by a bare CRLF; trailer fields are not
// accepted by this engine.
type ChunkedReader struct {
	br *bufio.Reader

	remain uint // bytes left in the current chunk
	done   bool

	crlfDump [2]byte
}

var _ io.Reader = (*ChunkedReader)(nil)

func NewChunkedReader(br *bufio.Reader) *ChunkedReader {
	return &ChunkedReader{br: br}
}

func (cr *ChunkedReader) Read(b []byte) (int, error) {
	if cr.done {
		return 0, io.EOF
	}

	if cr.remain == 0 {
		size, err := cr.decodeChunkSize()
		if err != nil {
			return 0, errors.Wrap(err, "decoding chunk size")
		}

		if size == 0 {
			// End of message.
			if err := cr.expectCRLF("final chunk separator"); err != nil {
				return 0, err
			}
			cr.done = true
			return 0, io.EOF
		}

		cr.remain = size
	}

	if uint(len(b)) > cr.remain {
		b = b[:cr.remain]
	}

	n, err := cr.br.Read(b)
	cr.remain -= uint(n)
	if err != nil {
		return n, errors.Wrap(err, "reading chunk data")
	}

	if cr.remain == 0 {
		if err := cr.expectCRLF("chunk separator"); err != nil {
			return n, err
		}
	}

	return n, nil
}

func (cr *ChunkedReader) decodeChunkSize() (uint, error) {
	line, err := bytesutil.ReadUntil(cr.br, crlf)
	if err != nil {
		return 0, err
	}
	line = line[:len(line)-2]

	// Extension data after ';' is discarded.
	sizeRaw, _, _ := bytes.Cut(line, []byte{';'})
	sizeRaw = bytes.TrimSpace(sizeRaw)

	size, err := strconv.ParseUint(string(sizeRaw), 16, 64)
	if err != nil {
		return 0, errors.Wrapf(ErrMalformedChunk, "size is not hex: %q", string(sizeRaw))
	}

	return uint(size), nil
}

func (cr *ChunkedReader) expectCRLF(what string) error {
	if _, err := io.ReadFull(cr.br, cr.crlfDump[:]); err != nil {
		return errors.Wrapf(err, "reading %s", what)
	}

	if !bytes.Equal(cr.crlfDump[:], crlf) {
		return errors.Wrapf(ErrMalformedChunk, "expected %s, read %q instead", what, cr.crlfDump)
	}

	return nil
}
