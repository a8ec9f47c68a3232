package resolver

import (
	"context"
	"errors"
	"fmt"
	"net"
	"time"

	"github.com/hashicorp/golang-lru/v2/expirable"

	"github.com/oshokin/nitai/internal/logger"
)

const (
	// DefaultCacheSize is the number of host names kept in the cache.
	DefaultCacheSize = 1024
	// DefaultCacheTTL is how long a resolved host stays in the cache.
	DefaultCacheTTL = 5 * time.Minute
)

// Static error definitions for better error handling.
var (
	// ErrNoAddresses indicates that a host name resolved to nothing.
	ErrNoAddresses = errors.New("host resolved to no addresses")
)

// LookupFunc resolves a host name to its addresses.
type LookupFunc func(ctx context.Context, host string) ([]net.IPAddr, error)

// Resolver caches host lookups for a limited time.
type Resolver struct {
	// lookup performs the actual resolution.
	lookup LookupFunc
	// cache maps host names to their resolved addresses.
	cache *expirable.LRU[string, []net.IPAddr]
}

// Option customizes a Resolver.
type Option func(*Resolver)

// WithLookup replaces the system resolver.
func WithLookup(lookup LookupFunc) Option {
	return func(r *Resolver) {
		r.lookup = lookup
	}
}

// New creates a resolver caching up to size hosts for ttl each.
// Non-positive values fall back to the defaults.
func New(size int, ttl time.Duration, options ...Option) *Resolver {
	if size <= 0 {
		size = DefaultCacheSize
	}

	if ttl <= 0 {
		ttl = DefaultCacheTTL
	}

	r := &Resolver{
		lookup: net.DefaultResolver.LookupIPAddr,
		cache:  expirable.NewLRU[string, []net.IPAddr](size, nil, ttl),
	}

	for _, option := range options {
		option(r)
	}

	return r
}

// LookupIPAddr returns the addresses of host, from the cache when possible.
func (r *Resolver) LookupIPAddr(ctx context.Context, host string) ([]net.IPAddr, error) {
	if addrs, ok := r.cache.Get(host); ok {
		return addrs, nil
	}

	addrs, err := r.lookup(ctx, host)
	if err != nil {
		return nil, err
	}

	if len(addrs) == 0 {
		return nil, fmt.Errorf("%w: %s", ErrNoAddresses, host)
	}

	r.cache.Add(host, addrs)
	logger.DebugKV(ctx, "Host resolved", "host", host, "addresses", len(addrs))

	return addrs, nil
}

// Len returns the number of cached hosts.
func (r *Resolver) Len() int {
	return r.cache.Len()
}

// DialContext returns a dial function that resolves host names through r
// and tries each address in turn.
func (r *Resolver) DialContext(dialer *net.Dialer) func(ctx context.Context, network, address string) (net.Conn, error) {
	return func(ctx context.Context, network, address string) (net.Conn, error) {
		host, port, err := net.SplitHostPort(address)
		if err != nil {
			return nil, err
		}

		if net.ParseIP(host) != nil {
			return dialer.DialContext(ctx, network, address)
		}

		addrs, err := r.LookupIPAddr(ctx, host)
		if err != nil {
			return nil, err
		}

		var dialErrs []error

		for _, addr := range addrs {
			conn, dialErr := dialer.DialContext(ctx, network, net.JoinHostPort(addr.String(), port))
			if dialErr == nil {
				return conn, nil
			}

			dialErrs = append(dialErrs, dialErr)

			if ctx.Err() != nil {
				break
			}
		}

		return nil, errors.Join(dialErrs...)
	}
}
