// Package stream defines the stream signature: the immutable descriptor of
// how many streams a block port family accepts and how large each item is.
package stream

import "fmt"

// Unbounded marks a signature's max_streams as having no upper limit.
const Unbounded = -1

// Signature describes the acceptable stream count range and the fixed item
// size, in bytes, for one side (input or output) of a block. It is
// immutable once constructed.
type Signature struct {
	minStreams    int
	maxStreams    int
	itemSizeBytes int
}

// New constructs a Signature, validating min <= max (unless max is
// Unbounded), min >= 0, and item size > 0.
func New(minStreams, maxStreams, itemSizeBytes int) (Signature, error) {
	if minStreams < 0 {
		return Signature{}, fmt.Errorf("stream signature: min_streams %d must be >= 0", minStreams)
	}
	if maxStreams != Unbounded && maxStreams < minStreams {
		return Signature{}, fmt.Errorf("stream signature: max_streams %d must be >= min_streams %d", maxStreams, minStreams)
	}
	if itemSizeBytes <= 0 {
		return Signature{}, fmt.Errorf("stream signature: item_size_bytes %d must be > 0", itemSizeBytes)
	}
	return Signature{minStreams: minStreams, maxStreams: maxStreams, itemSizeBytes: itemSizeBytes}, nil
}

// MustNew is New but panics on error; intended for package-level built-in
// block signatures that are known correct at compile time.
func MustNew(minStreams, maxStreams, itemSizeBytes int) Signature {
	sig, err := New(minStreams, maxStreams, itemSizeBytes)
	if err != nil {
		panic(err)
	}
	return sig
}

func (s Signature) MinStreams() int    { return s.minStreams }
func (s Signature) MaxStreams() int    { return s.maxStreams }
func (s Signature) ItemSizeBytes() int { return s.itemSizeBytes }

// Accepts reports whether actual is within [min_streams, max_streams].
func (s Signature) Accepts(actual int) bool {
	if actual < s.minStreams {
		return false
	}
	if s.maxStreams == Unbounded {
		return true
	}
	return actual <= s.maxStreams
}
