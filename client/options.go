package client

// Options configures a Client. The zero value is usable.
type Options struct {
	// MaxRedirects is the default redirect bound for requests that don't
	// carry their own. Nil falls back to [DefaultMaxRedirects].
	MaxRedirects *int

	// TextEncoding names the charset reported on JSON request bodies when
	// a request doesn't set one. Empty leaves the Content-Type bare.
	TextEncoding string

	// Codec encodes JSON request bodies and decodes JSON response bodies.
	// Nil selects the standard library codec.
	Codec Codec
}
