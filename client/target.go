package client

import (
	"strings"

	"microhttp/uri"

	"github.com/pkg/errors"
)

// ErrInvalidURL reports that the initial URL lacks a scheme or host.
var ErrInvalidURL = errors.New("an absolute URL is required")

// Target is the state of one logical request: where the next attempt goes
// and with which method. It is passed by value through the orchestrator
// loop; each redirect produces a replacement value instead of mutating
// state shared across iterations.
type Target struct {
	Scheme string
	Host   string
	Port   *uint16
	Path   string
	Method string

	redirectPending bool
}

// NewTarget builds the target for the initial call. The URL must be
// absolute: a missing scheme or host fails with [ErrInvalidURL].
func NewTarget(rawURL, method string) (Target, error) {
	if method == "" {
		method = "GET"
	}

	u, err := uri.Parse(rawURL)
	if err != nil {
		return Target{}, errors.Wrap(err, "parsing url")
	}

	if u.Scheme == "" || u.Host == "" {
		return Target{}, ErrInvalidURL
	}

	return Target{
		Scheme: u.Scheme,
		Host:   u.Host,
		Port:   u.Port,
		Path:   u.Path,
		Method: method,
	}, nil
}

// EffectivePort resolves the port, defaulting to 443 for https and 80
// otherwise.
func (t Target) EffectivePort() uint16 {
	if t.Port != nil {
		return *t.Port
	}

	if t.Scheme == "https" {
		return 443
	}
	return 80
}

// URL reconstructs the target's current URL.
func (t Target) URL() string {
	u := uri.URL{Scheme: t.Scheme, Host: t.Host, Port: t.Port, Path: t.Path}
	return u.String()
}

// redirect applies the redirect transition for status and the Location
// header value, returning the next target. redirectPending is set on the
// result when the redirect should be followed.
//
// 301, 302, 307 and 308 always redirect; 303 only when the method is not
// GET. A target that would move an https call to another scheme cancels
// the redirect instead of silently downgrading. All statuses except 307
// and 308 rewrite the method to GET, unless it is HEAD.
func (t Target) redirect(status uint, location string) (Target, error) {
	t.redirectPending = false

	switch status {
	case 301, 302, 307, 308:
		t.redirectPending = true
	case 303:
		t.redirectPending = t.Method != "GET"
	}

	if !t.redirectPending {
		return t, nil
	}

	u, err := uri.Parse(location)
	if err != nil {
		return Target{}, errors.Wrap(err, "parsing location")
	}

	if u.Scheme != "" && t.Scheme == "https" && u.Scheme != "https" {
		t.redirectPending = false
		return t, nil
	}

	if status != 307 && status != 308 && t.Method != "HEAD" {
		// The body is not replayed, so the next hop becomes a GET.
		t.Method = "GET"
	}

	// Partial locations keep the prior scheme, host and port.
	if u.Scheme != "" {
		t.Scheme = u.Scheme
	}
	if u.Host != "" {
		t.Host = u.Host
	}
	if u.Port != nil {
		t.Port = u.Port
	}

	if strings.HasPrefix(u.Path, "/") {
		t.Path = u.Path
	} else {
		// Resolve relative to the current path's directory.
		dir := t.Path
		if idx := strings.LastIndexByte(dir, '/'); idx >= 0 {
			dir = dir[:idx]
		}
		t.Path = dir + "/" + u.Path
	}

	return t, nil
}
