package session

import (
	"time"

	"github.com/patrickmn/go-cache"
	"github.com/rs/xid"

	"github.com/sakif/car-listing/internal/service"
)

// Factory builds the client for a new session.
type Factory func() *service.Client

// Store keeps one service.Client per session id. Entries expire after ttl
// without use; every Get pushes the expiry out again.
type Store struct {
	items   *cache.Cache
	ttl     time.Duration
	factory Factory
}

// NewStore returns an empty store. Expired sessions are swept every ttl/2 and
// their clients closed.
func NewStore(ttl time.Duration, factory Factory) *Store {
	s := &Store{
		items:   cache.New(ttl, ttl/2),
		ttl:     ttl,
		factory: factory,
	}
	s.items.OnEvicted(func(_ string, v any) {
		if c, ok := v.(*service.Client); ok {
			c.Close()
		}
	})
	return s
}

// TTL is the idle lifetime of a session.
func (s *Store) TTL() time.Duration { return s.ttl }

// Create starts a new session and returns its id and client.
func (s *Store) Create() (string, *service.Client) {
	id := xid.New().String()
	c := s.factory()
	s.items.Set(id, c, cache.DefaultExpiration)
	return id, c
}

// Get returns the client for id and refreshes its expiry.
func (s *Store) Get(id string) (*service.Client, bool) {
	v, ok := s.items.Get(id)
	if !ok {
		return nil, false
	}
	c := v.(*service.Client)
	s.items.Set(id, c, cache.DefaultExpiration)
	return c, true
}

// Delete ends a session.
func (s *Store) Delete(id string) {
	s.items.Delete(id)
}

// Len reports how many sessions are live.
func (s *Store) Len() int {
	return s.items.ItemCount()
}
