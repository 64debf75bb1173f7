// Package transport defines the external capabilities the client engine
// consumes: address resolution, stream connections, and TLS wrapping. The
// engine never opens a socket on its own; constrained runtimes plug their
// own stack in through these interfaces.
package transport

import (
	"context"
	"io"
	"net/netip"
)

// Conn is a duplex byte stream. It is owned by exactly one logical request
// at a time, from connect until close.
type Conn interface {
	io.ReadWriteCloser
}

// Lookuper resolves a host name into network addresses.
type Lookuper interface {
	LookupIP(ctx context.Context, host string) ([]netip.Addr, error)
}

// Dialer opens a stream connection to addr.
type Dialer interface {
	Dial(ctx context.Context, addr netip.AddrPort) (Conn, error)
}

// TLSWrapper upgrades an established connection to TLS, verifying the peer
// against serverName.
type TLSWrapper interface {
	Wrap(conn Conn, serverName string) (Conn, error)
}
