package client

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func portOf(n uint16) *uint16 { return &n }

func TestNewTarget(t *testing.T) {
	testcases := []struct {
		desc     string
		url      string
		method   string
		expected Target
		wantErr  error
	}{
		{
			desc:     "absolute url",
			url:      "http://example.com/a",
			method:   "POST",
			expected: Target{Scheme: "http", Host: "example.com", Path: "/a", Method: "POST"},
		},
		{
			desc:     "method defaults to GET",
			url:      "http://example.com",
			expected: Target{Scheme: "http", Host: "example.com", Path: "/", Method: "GET"},
		},
		{
			desc:     "explicit port",
			url:      "https://example.com:8443/",
			method:   "GET",
			expected: Target{Scheme: "https", Host: "example.com", Port: portOf(8443), Path: "/", Method: "GET"},
		},
		{
			desc:    "missing scheme",
			url:     "example.com/a",
			wantErr: ErrInvalidURL,
		},
		{
			desc:    "bare path",
			url:     "/a",
			wantErr: ErrInvalidURL,
		},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			target, err := NewTarget(tc.url, tc.method)
			if tc.wantErr != nil {
				assert.ErrorIs(t, err, tc.wantErr)
				return
			}

			require.NoError(t, err)
			assert.Equal(t, tc.expected, target)
		})
	}
}

func TestEffectivePort(t *testing.T) {
	httpTarget := Target{Scheme: "http"}
	assert.Equal(t, uint16(80), httpTarget.EffectivePort())

	httpsTarget := Target{Scheme: "https"}
	assert.Equal(t, uint16(443), httpsTarget.EffectivePort())

	explicit := Target{Scheme: "https", Port: portOf(8080)}
	assert.Equal(t, uint16(8080), explicit.EffectivePort())
}

func TestRedirectEligibility(t *testing.T) {
	testcases := []struct {
		desc    string
		status  uint
		method  string
		follows bool
	}{
		{desc: "301 GET", status: 301, method: "GET", follows: true},
		{desc: "302 GET", status: 302, method: "GET", follows: true},
		{desc: "307 POST", status: 307, method: "POST", follows: true},
		{desc: "308 POST", status: 308, method: "POST", follows: true},
		{desc: "303 POST", status: 303, method: "POST", follows: true},
		{desc: "303 GET", status: 303, method: "GET", follows: false},
		{desc: "200 GET", status: 200, method: "GET", follows: false},
		{desc: "404 GET", status: 404, method: "GET", follows: false},
	}

	for _, tc := range testcases {
		t.Run(tc.desc, func(t *testing.T) {
			target := Target{Scheme: "http", Host: "example.com", Path: "/", Method: tc.method}

			next, err := target.redirect(tc.status, "/elsewhere")
			require.NoError(t, err)
			assert.Equal(t, tc.follows, next.redirectPending)
		})
	}
}

func TestRedirectMethodNormalization(t *testing.T) {
	target := Target{Scheme: "http", Host: "example.com", Path: "/", Method: "POST"}

	// 303 rewrites POST to GET.
	next, err := target.redirect(303, "/see-other")
	require.NoError(t, err)
	assert.Equal(t, "GET", next.Method)

	// 307 and 308 preserve the method.
	next, err = target.redirect(307, "/temporary")
	require.NoError(t, err)
	assert.Equal(t, "POST", next.Method)

	next, err = target.redirect(308, "/permanent")
	require.NoError(t, err)
	assert.Equal(t, "POST", next.Method)
}

func TestRedirectPreservesHead(t *testing.T) {
	for _, status := range []uint{301, 302, 303, 307, 308} {
		target := Target{Scheme: "http", Host: "example.com", Path: "/", Method: "HEAD"}

		next, err := target.redirect(status, "/elsewhere")
		require.NoError(t, err)
		assert.Equal(t, "HEAD", next.Method)
	}
}

func TestRedirectDowngradeProtection(t *testing.T) {
	target := Target{Scheme: "https", Host: "secure.example", Path: "/a", Method: "GET"}

	next, err := target.redirect(302, "http://insecure.example/b")
	require.NoError(t, err)

	assert.False(t, next.redirectPending)
	// Nothing else moved either.
	assert.Equal(t, target, next)
}

func TestRedirectUpgradeAllowed(t *testing.T) {
	target := Target{Scheme: "http", Host: "example.com", Path: "/", Method: "GET"}

	next, err := target.redirect(301, "https://secure.example/")
	require.NoError(t, err)

	assert.True(t, next.redirectPending)
	assert.Equal(t, "https", next.Scheme)
	assert.Equal(t, "secure.example", next.Host)
}

func TestRedirectPartialLocationKeepsFields(t *testing.T) {
	target := Target{
		Scheme: "https",
		Host:   "example.com",
		Port:   portOf(8443),
		Path:   "/a",
		Method: "GET",
	}

	next, err := target.redirect(302, "/b")
	require.NoError(t, err)

	assert.True(t, next.redirectPending)
	assert.Equal(t, "https", next.Scheme)
	assert.Equal(t, "example.com", next.Host)
	assert.Equal(t, portOf(8443), next.Port)
	assert.Equal(t, "/b", next.Path)
}

func TestRedirectRelativePath(t *testing.T) {
	target := Target{Scheme: "http", Host: "example.com", Path: "/a/b/c", Method: "GET"}

	next, err := target.redirect(302, "d")
	require.NoError(t, err)

	assert.Equal(t, "/a/b/d", next.Path)
}

func TestRedirectNewHostAndPort(t *testing.T) {
	target := Target{Scheme: "http", Host: "example.com", Path: "/x", Method: "GET"}

	next, err := target.redirect(301, "http://other.example:8080/y")
	require.NoError(t, err)

	assert.Equal(t, "other.example", next.Host)
	assert.Equal(t, portOf(8080), next.Port)
	assert.Equal(t, "/y", next.Path)
}

func TestTargetURL(t *testing.T) {
	target := Target{Scheme: "http", Host: "example.com", Port: portOf(8080), Path: "/a"}
	assert.Equal(t, "http://example.com:8080/a", target.URL())
}
