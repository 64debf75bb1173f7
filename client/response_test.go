package client

import (
	"bufio"
	"bytes"
	"io"
	"strings"
	"testing"

	"microhttp/http"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/stretchr/testify/suite"
)

// closeCounter stands in for the connection; it counts releases.
type closeCounter struct {
	closed int
}

func (c *closeCounter) Close() error {
	c.closed++
	return nil
}

type ResponseTestSuite struct {
	suite.Suite
}

func TestResponseTestSuite(t *testing.T) {
	suite.Run(t, new(ResponseTestSuite))
}

func (s *ResponseTestSuite) newResponse(body string, contentLength uint, chunked bool) (*Response, *closeCounter) {
	conn := &closeCounter{}

	res := &Response{
		Status:        200,
		Chunked:       chunked,
		ContentLength: contentLength,
	}
	res.attach(conn, bufio.NewReader(strings.NewReader(body)))

	return res, conn
}

func (s *ResponseTestSuite) TestAddHeader() {
	res := &Response{}

	s.Require().NoError(res.addHeader(http.NewField("transfer-encoding", "chunked")))
	s.Require().NoError(res.addHeader(http.NewField("content-length", "42")))

	s.True(res.Chunked)
	s.Equal(uint(42), res.ContentLength)

	// Retention off: nothing kept.
	s.Nil(res.Headers)
}

func (s *ResponseTestSuite) TestAddHeaderRetained() {
	res := &Response{retain: true}

	field := http.NewField("X-Custom", "1")
	s.Require().NoError(res.addHeader(field))

	s.Equal([]http.Field{field}, res.Headers)
}

func (s *ResponseTestSuite) TestAddHeaderBadContentLength() {
	res := &Response{}
	s.Error(res.addHeader(http.NewField("Content-Length", "many")))
}

func (s *ResponseTestSuite) TestContentBoundedByContentLength() {
	// Extra bytes sit behind the declared length; they must not be
	// consumed.
	res, conn := s.newResponse("HelloEXTRA", 5, false)

	content, err := res.Content()
	s.Require().NoError(err)
	s.Equal([]byte("Hello"), content)
	s.Equal(1, conn.closed)
}

func (s *ResponseTestSuite) TestContentCachesAndReleasesOnce() {
	res, conn := s.newResponse("Hello", 5, false)

	first, err := res.Content()
	s.Require().NoError(err)

	second, err := res.Content()
	s.Require().NoError(err)

	s.Equal(first, second)
	s.Equal(1, conn.closed)
}

func (s *ResponseTestSuite) TestContentChunked() {
	res, conn := s.newResponse("4\r\nWiki\r\n5\r\npedia\r\n0\r\n\r\n", 0, true)

	content, err := res.Content()
	s.Require().NoError(err)
	s.Equal([]byte("Wikipedia"), content)
	s.Equal(1, conn.closed)
}

func (s *ResponseTestSuite) TestContentChunkedMalformed() {
	res, conn := s.newResponse("4\r\nWikiXX", 0, true)

	_, err := res.Content()
	s.Error(err)
	// Failure still released the stream, exactly once.
	s.Equal(1, conn.closed)

	_, err = res.Content()
	s.ErrorIs(err, ErrBodyReleased)
}

func (s *ResponseTestSuite) TestReadExplicitSize() {
	res, _ := s.newResponse("Hello", 5, false)

	buf := make([]byte, 2)
	n, err := res.Read(buf)
	s.Require().NoError(err)
	s.Equal(2, n)
	s.Equal([]byte("He"), buf)

	rest, err := io.ReadAll(res)
	s.Require().NoError(err)
	s.Equal([]byte("llo"), rest)
}

func (s *ResponseTestSuite) TestReadAfterClose() {
	res, _ := s.newResponse("Hello", 5, false)
	s.Require().NoError(res.Close())

	_, err := res.Read(make([]byte, 1))
	s.ErrorIs(err, ErrBodyReleased)
}

func (s *ResponseTestSuite) TestText() {
	res, _ := s.newResponse("Hello", 5, false)

	text, err := res.Text()
	s.Require().NoError(err)
	s.Equal("Hello", text)
	s.Equal("utf-8", res.Encoding)
}

func (s *ResponseTestSuite) TestJSON() {
	res, _ := s.newResponse(`{"name":"wiki"}`, 15, false)

	var decoded struct {
		Name string `json:"name"`
	}
	s.Require().NoError(res.JSON(&decoded))
	s.Equal("wiki", decoded.Name)
}

func (s *ResponseTestSuite) TestSave() {
	res, conn := s.newResponse("HelloEXTRA", 5, false)

	sink := bytes.NewBuffer(nil)
	s.Require().NoError(res.Save(sink, 2))

	s.Equal([]byte("Hello"), sink.Bytes())
	s.Equal(1, conn.closed)

	// The response is invalid afterwards.
	_, err := res.Content()
	s.ErrorIs(err, ErrBodyReleased)
}

func (s *ResponseTestSuite) TestSaveDefaultChunkSize() {
	body := strings.Repeat("x", DefaultSaveChunkSize*2+10)
	res, _ := s.newResponse(body, uint(len(body)), false)

	sink := bytes.NewBuffer(nil)
	s.Require().NoError(res.Save(sink, 0))
	s.Equal([]byte(body), sink.Bytes())
}

func (s *ResponseTestSuite) TestCloseIdempotent() {
	res, conn := s.newResponse("Hello", 5, false)

	s.Require().NoError(res.Close())
	s.Require().NoError(res.Close())
	s.Equal(1, conn.closed)
}

func (s *ResponseTestSuite) TestCloseDropsCache() {
	res, _ := s.newResponse("Hello", 5, false)

	_, err := res.Content()
	s.Require().NoError(err)

	s.Require().NoError(res.Close())

	_, err = res.Content()
	s.ErrorIs(err, ErrBodyReleased)
}

func TestResponseReadEmptyBody(t *testing.T) {
	res := &Response{}
	res.attach(&closeCounter{}, bufio.NewReader(strings.NewReader("leftover")))

	n, err := res.Read(make([]byte, 4))
	assert.ErrorIs(t, err, io.EOF)
	assert.Zero(t, n)

	content, err := res.Content()
	require.NoError(t, err)
	assert.Empty(t, content)
}
