package transport

import (
	"context"
	"crypto/tls"
	"net"
	"net/netip"
	"time"

	"github.com/benbjohnson/clock"
	"github.com/pkg/errors"
)

// NetLookuper resolves through the platform resolver.
type NetLookuper struct {
	resolver *net.Resolver
}

var _ Lookuper = (*NetLookuper)(nil)

func NewNetLookuper() *NetLookuper {
	return &NetLookuper{resolver: net.DefaultResolver}
}

func (l *NetLookuper) LookupIP(ctx context.Context, host string) ([]netip.Addr, error) {
	addrs, err := l.resolver.LookupNetIP(ctx, "ip", host)
	if err != nil {
		return nil, errors.Wrapf(err, "lookup for host(%s) failed", host)
	}

	return addrs, nil
}

// NetDialer dials TCP through the platform stack. A non-zero timeout arms
// an absolute I/O deadline on every opened connection; the engine itself
// never times anything out.
type NetDialer struct {
	timeout time.Duration
	clock   clock.Clock

	dialer net.Dialer
}

var _ Dialer = (*NetDialer)(nil)

func NewNetDialer(timeout time.Duration, clock clock.Clock) *NetDialer {
	return &NetDialer{timeout: timeout, clock: clock}
}

func (d *NetDialer) Dial(ctx context.Context, addr netip.AddrPort) (Conn, error) {
	conn, err := d.dialer.DialContext(ctx, "tcp", addr.String())
	if err != nil {
		return nil, errors.Wrap(err, "dialing tcp")
	}

	if d.timeout > 0 {
		if err := conn.SetDeadline(d.clock.Now().Add(d.timeout)); err != nil {
			conn.Close()
			return nil, errors.Wrap(err, "arming deadline")
		}
	}

	return conn, nil
}

// TLSConfigWrapper wraps connections with crypto/tls. The config is cloned
// per connection so the server name can be set without racing.
type TLSConfigWrapper struct {
	config *tls.Config
}

var _ TLSWrapper = (*TLSConfigWrapper)(nil)

// NewTLSConfigWrapper builds a wrapper around config. A nil config selects
// platform defaults.
func NewTLSConfigWrapper(config *tls.Config) *TLSConfigWrapper {
	if config == nil {
		config = &tls.Config{}
	}
	return &TLSConfigWrapper{config: config}
}

func (w *TLSConfigWrapper) Wrap(conn Conn, serverName string) (Conn, error) {
	netConn, ok := conn.(net.Conn)
	if !ok {
		return nil, errors.New("underlying connection is not a net.Conn")
	}

	config := w.config.Clone()
	config.ServerName = serverName

	tlsConn := tls.Client(netConn, config)
	if err := tlsConn.Handshake(); err != nil {
		return nil, errors.Wrap(err, "tls handshake")
	}

	return tlsConn, nil
}
