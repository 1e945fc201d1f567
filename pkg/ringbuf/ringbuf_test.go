package ringbuf

import (
	"encoding/binary"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

func writeItems(rb *RingBuffer, values ...uint32) {
	wp := rb.WritePointer()
	for i, v := range values {
		binary.LittleEndian.PutUint32(wp[i*4:], v)
	}
	rb.Produce(len(values))
}

func readItems(c *Cursor, n int) []uint32 {
	rp := c.ReadPointer()
	out := make([]uint32, n)
	for i := range out {
		out[i] = binary.LittleEndian.Uint32(rp[i*4:])
	}
	c.Consume(n)
	return out
}

func TestProduceConsumeContiguousAcrossWraparound(t *testing.T) {
	rb, err := New(4, 4)
	require.NoError(t, err)

	cur := rb.AddConsumer()

	writeItems(rb, 1, 2, 3)
	require.Equal(t, []uint32{1, 2}, readItems(cur, 2))

	// Wraps past the end of the 4-slot buffer.
	writeItems(rb, 4, 5)
	require.Equal(t, []uint32{3, 4, 5}, readItems(cur, 3))
}

func TestSpaceAvailableBoundedBySlowestConsumer(t *testing.T) {
	rb, err := New(4, 4)
	require.NoError(t, err)

	fast := rb.AddConsumer()
	slow := rb.AddConsumer()

	require.Equal(t, 4, rb.SpaceAvailable())

	writeItems(rb, 1, 2, 3)
	require.Equal(t, 1, rb.SpaceAvailable())

	readItems(fast, 3)
	require.Equal(t, 1, rb.SpaceAvailable(), "still bounded by the slow consumer")

	readItems(slow, 3)
	require.Equal(t, 4, rb.SpaceAvailable())
}

func TestSlowestConsumerPosition(t *testing.T) {
	rb, err := New(4, 8)
	require.NoError(t, err)

	a := rb.AddConsumer()
	b := rb.AddConsumer()

	writeItems(rb, 1, 2, 3, 4)
	readItems(a, 4)
	readItems(b, 1)

	require.Equal(t, uint64(1), rb.SlowestConsumerPosition())
}

func TestWaitWakesOnProduce(t *testing.T) {
	rb, err := New(4, 4)
	require.NoError(t, err)
	rb.AddConsumer()

	var wg sync.WaitGroup
	wg.Add(1)
	woke := make(chan struct{})
	go func() {
		defer wg.Done()
		rb.Wait()
		close(woke)
	}()

	// Give the waiter goroutine a chance to actually block before waking it.
	time.Sleep(10 * time.Millisecond)
	writeItems(rb, 42)

	select {
	case <-woke:
	case <-time.After(time.Second):
		t.Fatal("Wait did not return after Produce")
	}
	wg.Wait()
}

func TestNewRejectsInvalidDimensions(t *testing.T) {
	_, err := New(0, 4)
	require.Error(t, err)

	_, err = New(4, 0)
	require.Error(t, err)
}
