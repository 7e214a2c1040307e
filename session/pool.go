package session

import (
	"errors"
	"fmt"
	"io"

	"github.com/MrEthical07/goSession/shard"
)

// WeightedServer pairs a Server with its share of the key space.
type WeightedServer struct {
	Weight int
	Server Server
}

// Pool spreads session keys over several servers in proportion to their weights.
// A key is always routed to the same server while the pool definition is unchanged.
type Pool struct {
	selector *shard.Selector[Server]
}

// NewPool builds a pool. The shard selection cache holds cacheSize key prefixes;
// a non-positive size disables it.
func NewPool(cacheSize int, servers ...WeightedServer) (*Pool, error) {
	entries := make([]shard.Entry[Server], 0, len(servers))
	for i, ws := range servers {
		if ws.Server == nil {
			return nil, fmt.Errorf("%w: pool entry %d has no server", ErrInvalidServer, i)
		}
		entries = append(entries, shard.Entry[Server]{Weight: ws.Weight, Backend: ws.Server})
	}
	sel, err := shard.New(entries, shard.WithCacheSize(cacheSize))
	if err != nil {
		return nil, err
	}
	return &Pool{selector: sel}, nil
}

// Connect selects the shard owning sessionKey and connects to it.
func (p *Pool) Connect(sessionKey string) (Transport, error) {
	srv, err := p.selector.Select(sessionKey)
	if err != nil {
		return nil, err
	}
	return srv.Connect(sessionKey)
}

// Stats reports shard selection cache hits and misses.
func (p *Pool) Stats() (hits, misses uint64) {
	return p.selector.Stats()
}

// Close closes every member server that can be closed.
func (p *Pool) Close() error {
	var errs []error
	for _, e := range p.selector.Entries() {
		if c, ok := e.Backend.(io.Closer); ok {
			if err := c.Close(); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
