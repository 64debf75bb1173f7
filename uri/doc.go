// Package uri implements minimal URL decomposition for the client engine.
//
// Parsing is deliberately looser than RFC 3986: the engine only needs
// scheme, host, port and path, and relative Location targets must survive
// as bare paths with no host.
package uri
