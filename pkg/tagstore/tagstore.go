// Package tagstore implements the ordered, indexable collection of
// out-of-band annotations ("tags") attached to a single output stream and
// keyed by absolute item offset.
package tagstore

import (
	"sort"
	"sync"

	"github.com/gobwas/glob"

	"github.com/flowradio/blockrt/pkg/tagvalue"
)

// Tag is one out-of-band annotation anchored to an absolute item offset on
// a specific output stream.
type Tag struct {
	Offset   uint64
	Key      tagvalue.Symbol
	Value    tagvalue.Value
	SourceID string // block name that attached the tag; "" if anonymous

	seq uint64 // insertion order, for stable secondary ordering
}

// Store holds every tag attached to one output buffer, ordered by offset
// with ties broken by insertion order.
type Store struct {
	mu      sync.Mutex
	tags    []Tag
	nextSeq uint64
}

// New constructs an empty tag store.
func New() *Store {
	return &Store{}
}

// Append records a tag at the given offset. Callers (detail.Detail) are
// responsible for enforcing that offset is not behind the producer's
// current nitems_written — the store itself only maintains ordering.
func (s *Store) Append(offset uint64, key tagvalue.Symbol, value tagvalue.Value, sourceID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := Tag{Offset: offset, Key: key, Value: value, SourceID: sourceID, seq: s.nextSeq}
	s.nextSeq++

	// Insertion-sorted by offset; tags usually arrive in roughly
	// increasing offset order so this is normally an append.
	idx := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset > offset })
	s.tags = append(s.tags, Tag{})
	copy(s.tags[idx+1:], s.tags[idx:])
	s.tags[idx] = t
}

// InRange returns every tag with start <= offset < end, in offset order
// (ties broken by insertion order). If keyPattern is non-empty, it is
// compiled as a glob (github.com/gobwas/glob) and only tags whose key
// matches are returned.
func (s *Store) InRange(start, end uint64, keyPattern string) []Tag {
	var matcher glob.Glob
	if keyPattern != "" {
		// A pattern that fails to compile matches nothing, rather than
		// panicking callers that pass a non-glob exact key by mistake.
		if g, err := glob.Compile(keyPattern); err == nil {
			matcher = g
		}
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	lo := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset >= start })
	out := make([]Tag, 0, 4)
	for i := lo; i < len(s.tags) && s.tags[i].Offset < end; i++ {
		t := s.tags[i]
		if keyPattern != "" {
			if matcher == nil || !matcher.Match(t.Key.String()) {
				continue
			}
		}
		out = append(out, t)
	}
	return out
}

// GC drops every tag whose offset is behind minCursor — the slowest
// consumer's read position — since no future query can ever reach it.
func (s *Store) GC(minCursor uint64) {
	s.mu.Lock()
	defer s.mu.Unlock()

	idx := sort.Search(len(s.tags), func(i int) bool { return s.tags[i].Offset >= minCursor })
	if idx == 0 {
		return
	}
	s.tags = append(s.tags[:0:0], s.tags[idx:]...)
}

// Len reports how many tags are currently retained.
func (s *Store) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.tags)
}
