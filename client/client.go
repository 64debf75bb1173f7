// Package client implements a minimal synchronous HTTP/1.1 client engine:
// one connection per logical call, Connection: close, incremental response
// parsing, lazily-read bodies, and a bounded redirect state machine.
package client

import (
	"context"
	"io"
	"log/slog"
	"net/netip"

	"microhttp/http"
	"microhttp/transport"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

var (
	ErrUnsupportedScheme = errors.New("protocol scheme not supported")
	ErrTooManyRedirects  = errors.New("maximum redirection count exceeded")
)

// DefaultMaxRedirects bounds redirect following unless the request or the
// client options say otherwise.
const DefaultMaxRedirects = 1

// Client drives request/response round trips over the transport
// capabilities. It holds no per-call state; each call builds its own
// target and response, so a Client is safe for reuse across calls.
type Client struct {
	dialer   transport.Dialer
	lookuper transport.Lookuper
	tls      transport.TLSWrapper

	codec Codec

	opts Options

	logger *slog.Logger
	clock  clock.Clock
}

func New(
	d transport.Dialer,
	lookuper transport.Lookuper,
	tlsWrapper transport.TLSWrapper,
	logger *slog.Logger,
	clock clock.Clock,
	opts Options,
) *Client {
	if logger == nil {
		logger = slog.New(slog.NewTextHandler(io.Discard, nil))
	}

	client := &Client{
		dialer:   d,
		lookuper: lookuper,
		tls:      tlsWrapper,
		logger:   logger,
		clock:    clock,
		opts:     opts,
	}

	client.codec = opts.Codec
	if client.codec == nil {
		client.codec = jsonCodec{}
	}

	return client
}

// Request describes one logical call. Headers must be a freshly
// constructed slice per call; the engine never falls back to shared
// mutable defaults.
type Request struct {
	Method string
	URL    string

	// Body and JSON are mutually exclusive. JSON is encoded with the
	// client's codec and marks the request body as a JSON document.
	Body []byte
	JSON any

	Headers []http.Field

	Auth Authorizer

	// Encoding optionally names the charset for the JSON Content-Type.
	Encoding string

	// RetainHeaders keeps the raw response header lines on the Response.
	RetainHeaders bool

	// MaxRedirects overrides the client's redirect bound when non-nil.
	MaxRedirects *int
}

// Do runs the request, following redirects up to the configured bound, and
// returns the final response. The response owns its connection; the caller
// must drain or close it.
func (c *Client) Do(ctx context.Context, request *Request) (*Response, error) {
	body := request.Body
	isJSON := false
	if request.JSON != nil {
		if body != nil {
			return nil, errors.New("body and json are mutually exclusive")
		}

		encoded, err := c.codec.Encode(request.JSON)
		if err != nil {
			return nil, errors.Wrap(err, "encoding json body")
		}
		body, isJSON = encoded, true
	}

	headers := make([]http.Field, 0, len(request.Headers)+1)
	headers = append(headers, request.Headers...)

	if request.Auth != nil {
		// Resolved once, before the redirect loop.
		authFields, err := request.Auth.AuthHeaders()
		if err != nil {
			return nil, errors.Wrap(err, "resolving auth headers")
		}
		headers = append(headers, authFields...)
	}

	target, err := NewTarget(request.URL, request.Method)
	if err != nil {
		return nil, err
	}

	redirectsLeft := c.redirectBound(request)

	for {
		res, next, err := c.attempt(ctx, target, headers, body, isJSON, request)
		if err != nil {
			return nil, err
		}

		if !next.redirectPending {
			return res, nil
		}

		redirectsLeft--
		if redirectsLeft < 0 {
			return nil, ErrTooManyRedirects
		}

		c.logger.Debug("following redirect",
			slog.Uint64("status", uint64(res.Status)),
			slog.String("url", next.URL()),
		)

		next.redirectPending = false
		target = next
	}
}

func (c *Client) redirectBound(request *Request) int {
	if request.MaxRedirects != nil {
		return *request.MaxRedirects
	}
	if c.opts.MaxRedirects != nil {
		return *c.opts.MaxRedirects
	}
	return DefaultMaxRedirects
}

// attempt runs one round trip against target. When the response asks for a
// redirect the connection is closed and the mutated target comes back with
// redirectPending set; otherwise the returned response owns the live
// stream.
func (c *Client) attempt(
	ctx context.Context,
	target Target,
	headers []http.Field,
	body []byte,
	isJSON bool,
	request *Request,
) (*Response, Target, error) {
	if target.Scheme != "http" && target.Scheme != "https" {
		return nil, Target{}, errors.Wrapf(ErrUnsupportedScheme, "scheme %q", target.Scheme)
	}

	started := c.clock.Now()

	conn, err := c.connect(ctx, target)
	if err != nil {
		return nil, Target{}, err
	}

	encoding := request.Encoding
	if encoding == "" {
		encoding = c.opts.TextEncoding
	}

	wireRequest := &http.Request{
		Method:   target.Method,
		Path:     target.Path,
		Host:     target.Host,
		Headers:  headers,
		Body:     body,
		JSONBody: isJSON,
		Encoding: encoding,
	}

	if err := http.NewRequestEncoder(conn).Encode(wireRequest); err != nil {
		conn.Close()
		return nil, Target{}, errors.Wrap(err, "writing request")
	}

	decoder := http.NewResponseDecoder(conn)

	statusLine, err := decoder.DecodeStatusLine()
	if err != nil {
		conn.Close()
		return nil, Target{}, errors.Wrap(err, "reading status line")
	}

	res := &Response{
		Status:   statusLine.StatusCode,
		Reason:   statusLine.ReasonPhrase,
		Encoding: encoding,
		retain:   request.RetainHeaders,
		codec:    c.codec,
	}

	var location string
	err = decoder.DecodeHeaders(func(f http.Field) error {
		if f.Is("Location") {
			location = string(f.Value)
		}
		return res.addHeader(f)
	})
	if err != nil {
		conn.Close()
		return nil, Target{}, errors.Wrap(err, "reading headers")
	}

	next := target
	if location != "" {
		next, err = target.redirect(statusLine.StatusCode, location)
		if err != nil {
			conn.Close()
			return nil, Target{}, errors.Wrap(err, "applying redirect")
		}
	}

	c.logger.Debug("response received",
		slog.String("url", target.URL()),
		slog.Uint64("status", uint64(statusLine.StatusCode)),
		slog.Duration("elapsed", c.clock.Since(started)),
	)

	if next.redirectPending {
		conn.Close()
		return res, next, nil
	}

	res.attach(conn, decoder.Body())

	return res, next, nil
}

func (c *Client) connect(ctx context.Context, target Target) (transport.Conn, error) {
	addr, err := c.resolve(ctx, target)
	if err != nil {
		return nil, err
	}

	conn, err := c.dialer.Dial(ctx, addr)
	if err != nil {
		return nil, errors.Wrap(err, "opening connection")
	}

	if target.Scheme == "https" {
		tlsConn, err := c.tls.Wrap(conn, target.Host)
		if err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "wrapping connection with tls")
		}
		conn = tlsConn
	}

	return conn, nil
}

func (c *Client) resolve(ctx context.Context, target Target) (netip.AddrPort, error) {
	if addr, err := netip.ParseAddr(target.Host); err == nil {
		// Host is already an IP literal.
		return netip.AddrPortFrom(addr, target.EffectivePort()), nil
	}

	addrs, err := c.lookuper.LookupIP(ctx, target.Host)
	if err != nil {
		return netip.AddrPort{}, errors.Wrapf(err, "lookup for host(%s) failed", target.Host)
	}
	if len(addrs) == 0 {
		return netip.AddrPort{}, errors.Errorf("no addresses for host(%s)", target.Host)
	}

	// Use the first address.
	return netip.AddrPortFrom(addrs[0], target.EffectivePort()), nil
}

// Get issues a GET request.
func (c *Client) Get(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: "GET", URL: url})
}

// Head issues a HEAD request.
func (c *Client) Head(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: "HEAD", URL: url})
}

// Post issues a POST request with a raw body.
func (c *Client) Post(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: "POST", URL: url, Body: body})
}

// Put issues a PUT request with a raw body.
func (c *Client) Put(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: "PUT", URL: url, Body: body})
}

// Patch issues a PATCH request with a raw body.
func (c *Client) Patch(ctx context.Context, url string, body []byte) (*Response, error) {
	return c.Do(ctx, &Request{Method: "PATCH", URL: url, Body: body})
}

// Delete issues a DELETE request.
func (c *Client) Delete(ctx context.Context, url string) (*Response, error) {
	return c.Do(ctx, &Request{Method: "DELETE", URL: url})
}
