package bytesutil

import (
	"bufio"
	"bytes"
	"io"

	"github.com/pkg/errors"
)

// ErrLimitExceeded reports that delim was not found within the byte limit.
var ErrLimitExceeded = errors.New("delimiter not found within limit")

// ReadUntil reads from r until delim. The output will include delim.
func ReadUntil(r *bufio.Reader, delim []byte) ([]byte, error) {
	return ReadUntilLimit(r, delim, 0)
}

// ReadUntilLimit reads from r until delim, failing with [ErrLimitExceeded]
// once more than limit bytes were consumed without completing delim.
// A limit of zero disables the cap. The output will include delim.
func ReadUntilLimit(r *bufio.Reader, delim []byte, limit uint) ([]byte, error) {
	buf := bytes.NewBuffer(nil)
	for {
		b, err := r.ReadBytes(delim[len(delim)-1])
		if err != nil {
			if err == io.EOF {
				return nil, io.ErrUnexpectedEOF
			}
			return nil, err
		}

		buf.Write(b)

		if limit > 0 && uint(buf.Len()) > limit {
			return nil, ErrLimitExceeded
		}

		if bytes.HasSuffix(b, delim) {
			return buf.Bytes(), nil
		}
	}
}
