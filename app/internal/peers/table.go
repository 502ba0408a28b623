package peers

import (
	"time"

	lru "github.com/hashicorp/golang-lru/v2"

	"github.com/apernet/udpsock/core/udpsock"
)

type Stats struct {
	FirstSeen time.Time
	LastSeen  time.Time
	Datagrams uint64
	Bytes     uint64
}

// Table keeps statistics for the most recently seen senders.
// When full, the least recently seen sender is dropped.
type Table struct {
	cache *lru.Cache[udpsock.Address, *Stats]
}

// EvictFunc is called with a sender dropped from a full table.
type EvictFunc func(addr udpsock.Address, stats Stats)

func NewTable(size int, onEvict EvictFunc) (*Table, error) {
	var cb func(udpsock.Address, *Stats)
	if onEvict != nil {
		cb = func(addr udpsock.Address, s *Stats) {
			onEvict(addr, *s)
		}
	}
	cache, err := lru.NewWithEvict[udpsock.Address, *Stats](size, cb)
	if err != nil {
		return nil, err
	}
	return &Table{cache: cache}, nil
}

// Observe records a datagram of n bytes from addr and returns the updated
// statistics, and whether addr was not in the table before.
func (t *Table) Observe(addr udpsock.Address, n int, now time.Time) (Stats, bool) {
	s, ok := t.cache.Get(addr)
	if !ok {
		s = &Stats{FirstSeen: now}
		t.cache.Add(addr, s)
	}
	s.LastSeen = now
	s.Datagrams++
	s.Bytes += uint64(n)
	return *s, !ok
}

func (t *Table) Get(addr udpsock.Address) (Stats, bool) {
	s, ok := t.cache.Peek(addr)
	if !ok {
		return Stats{}, false
	}
	return *s, true
}

func (t *Table) Len() int {
	return t.cache.Len()
}
