package uri

import (
	"strconv"
	"strings"

	"github.com/pkg/errors"
)

// URL holds the components the engine cares about.
// A relative reference has an empty Scheme; a bare path has no Host either.
type URL struct {
	Scheme string
	Host   string
	Port   *uint16
	Path   string
}

// Parse decomposes rawURL into scheme, host, port and path.
//
// Everything before the first "//" (minus a trailing colon) is the scheme,
// everything after it is the location. Without "//" the whole input is a
// schemeless location: with no leading slash it becomes a bare path with no
// host, which is how relative redirect targets arrive. Absence of scheme or
// host is not an error here; the caller decides whether an absolute URL is
// required.
func Parse(rawURL string) (URL, error) {
	var u URL

	loc := rawURL
	if idx := strings.Index(rawURL, "//"); idx >= 0 {
		u.Scheme = strings.TrimSuffix(rawURL[:idx], ":")
		loc = rawURL[idx+2:]
	}

	switch idx := strings.IndexByte(loc, '/'); {
	case idx < 0:
		if u.Scheme != "" {
			u.Host = loc
			u.Path = "/"
		} else {
			u.Path = loc
		}
	case idx == 0:
		u.Path = loc
	default:
		u.Host = loc[:idx]
		u.Path = loc[idx:]
	}

	if u.Host != "" {
		// The last colon splits host and port. A colon at position zero
		// belongs to the host (degenerate, but not a port).
		if idx := strings.LastIndexByte(u.Host, ':'); idx > 0 {
			port, err := parsePort(u.Host[idx+1:])
			if err != nil {
				return URL{}, errors.Wrap(err, "parsing port")
			}
			u.Port = &port
			u.Host = u.Host[:idx]
		}
	}

	return u, nil
}

func parsePort(s string) (uint16, error) {
	n, err := strconv.ParseUint(s, 10, 16)
	if err != nil {
		return 0, errors.Wrap(err, "failed to parse uint")
	}

	return uint16(n), nil
}

// String reconstructs the URL from its components.
func (u *URL) String() string {
	b := new(strings.Builder)
	if u.Scheme != "" {
		b.WriteString(u.Scheme)
		b.WriteString("://")
	}

	b.WriteString(u.Host)
	if u.Port != nil {
		b.WriteByte(':')
		b.WriteString(strconv.FormatUint(uint64(*u.Port), 10))
	}

	b.WriteString(u.Path)

	return b.String()
}
