package transport

import (
	"context"
	"maps"
	"net/netip"

	"github.com/pkg/errors"
)

var ErrHostNotFound = errors.New("host not found")

// MapLookuper serves lookups from a fixed table. Intended for tests and
// targets with no resolver.
type MapLookuper struct {
	set map[string][]netip.Addr
}

var _ Lookuper = (*MapLookuper)(nil)

func NewMapLookuper(set map[string][]netip.Addr) *MapLookuper {
	if set == nil {
		set = make(map[string][]netip.Addr)
	}
	return &MapLookuper{set: maps.Clone(set)}
}

func (m *MapLookuper) LookupIP(ctx context.Context, host string) ([]netip.Addr, error) {
	addrs, ok := m.set[host]
	if !ok {
		return nil, ErrHostNotFound
	}
	return addrs, nil
}

func (m *MapLookuper) Set(host string, addrs []netip.Addr) {
	if len(addrs) == 0 {
		return
	}
	m.set[host] = addrs
}

func (m *MapLookuper) Del(host string) { delete(m.set, host) }
