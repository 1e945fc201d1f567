//go:build linux

package ringbuf

import (
	"encoding/binary"
	"testing"
)

func TestMmapRingBufferWrapsWithoutCopy(t *testing.T) {
	rb, err := NewMmap(8, 4)
	if err != nil {
		t.Fatalf("NewMmap: %v", err)
	}
	defer rb.Close()

	cur := rb.AddConsumer()

	write := func(values ...uint64) {
		wp := rb.WritePointer()
		for i, v := range values {
			binary.LittleEndian.PutUint64(wp[i*8:], v)
		}
		rb.Produce(len(values))
	}
	read := func(n int) []uint64 {
		rp := cur.ReadPointer()
		out := make([]uint64, n)
		for i := range out {
			out[i] = binary.LittleEndian.Uint64(rp[i*8:])
		}
		cur.Consume(n)
		return out
	}

	write(1, 2, 3)
	if got := read(2); got[0] != 1 || got[1] != 2 {
		t.Fatalf("unexpected read: %v", got)
	}
	// Producer wraps past the end of the 4-slot ring; the double mapping
	// must make the pre-wrap and post-wrap items look contiguous.
	write(4, 5)
	got := read(3)
	want := []uint64{3, 4, 5}
	for i := range want {
		if got[i] != want[i] {
			t.Fatalf("wraparound read mismatch: got %v want %v", got, want)
		}
	}
}
