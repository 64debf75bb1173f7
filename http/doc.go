// Package http implements the HTTP/1.1 wire layer of the client engine:
// request serialization and incremental status-line/header parsing.
//
// Reference:
//
// - https://datatracker.ietf.org/doc/html/rfc9110
//
// - https://datatracker.ietf.org/doc/html/rfc9112
package http
