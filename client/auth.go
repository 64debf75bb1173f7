package client

import (
	"encoding/base64"

	"microhttp/http"
)

// Authorizer produces the header fields that authenticate a request. It is
// resolved once per logical call, before the redirect loop starts.
type Authorizer interface {
	AuthHeaders() ([]http.Field, error)
}

// Credentials is a basic-auth user/password pair.
type Credentials struct {
	User     string
	Password string
}

var _ Authorizer = Credentials{}

func (c Credentials) AuthHeaders() ([]http.Field, error) {
	encoded := base64.StdEncoding.EncodeToString([]byte(c.User + ":" + c.Password))

	return []http.Field{http.NewField("Authorization", "Basic "+encoded)}, nil
}

// HeaderProviderFunc adapts a callable producing ready-made header fields
// (e.g. bearer tokens) into an [Authorizer].
type HeaderProviderFunc func() ([]http.Field, error)

var _ Authorizer = (HeaderProviderFunc)(nil)

func (f HeaderProviderFunc) AuthHeaders() ([]http.Field, error) { return f() }
