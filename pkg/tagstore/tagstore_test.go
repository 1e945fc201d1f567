package tagstore

import (
	"testing"

	"github.com/google/go-cmp/cmp"
	"github.com/stretchr/testify/require"

	"github.com/flowradio/blockrt/pkg/tagvalue"
)

// projectedTag flattens a Tag into exported, directly comparable fields so
// cmp.Diff doesn't have to reach into tagvalue's interned-symbol internals.
type projectedTag struct {
	Offset uint64
	Key    string
	Value  int64
}

func project(tags []Tag) []projectedTag {
	out := make([]projectedTag, len(tags))
	for i, t := range tags {
		v, _ := t.Value.Int()
		out[i] = projectedTag{Offset: t.Offset, Key: t.Key.String(), Value: v}
	}
	return out
}

func TestInRangeOrdersByOffsetThenInsertion(t *testing.T) {
	s := New()
	burst := tagvalue.Intern("burst")
	gap := tagvalue.Intern("gap")

	s.Append(10, burst, tagvalue.FromInt(1), "src")
	s.Append(5, gap, tagvalue.FromInt(2), "src")
	s.Append(10, gap, tagvalue.FromInt(3), "src") // same offset as first, later insertion

	got := s.InRange(0, 100, "")
	require.Len(t, got, 3)
	require.Equal(t, uint64(5), got[0].Offset)
	require.Equal(t, uint64(10), got[1].Offset)
	require.Equal(t, uint64(10), got[2].Offset)
	require.Equal(t, "burst", got[1].Key.String())
	require.Equal(t, "gap", got[2].Key.String())
}

func TestInRangeBounds(t *testing.T) {
	s := New()
	k := tagvalue.Intern("k")
	for _, off := range []uint64{0, 5, 10, 15} {
		s.Append(off, k, tagvalue.FromInt(int64(off)), "")
	}

	got := s.InRange(5, 15, "")
	require.Len(t, got, 2)
	require.Equal(t, uint64(5), got[0].Offset)
	require.Equal(t, uint64(10), got[1].Offset)
}

func TestInRangeKeyGlobFilter(t *testing.T) {
	s := New()
	s.Append(1, tagvalue.Intern("burst.start"), tagvalue.Null, "")
	s.Append(2, tagvalue.Intern("burst.end"), tagvalue.Null, "")
	s.Append(3, tagvalue.Intern("gap"), tagvalue.Null, "")

	got := s.InRange(0, 10, "burst.*")
	require.Len(t, got, 2)
	require.Equal(t, "burst.start", got[0].Key.String())
	require.Equal(t, "burst.end", got[1].Key.String())
}

func TestInRangeMatchesExpectedSetExactly(t *testing.T) {
	s := New()
	burst := tagvalue.Intern("burst")
	s.Append(0, burst, tagvalue.FromInt(1), "src")
	s.Append(4, burst, tagvalue.FromInt(2), "src")
	s.Append(8, burst, tagvalue.FromInt(3), "src")

	want := []projectedTag{
		{Offset: 0, Key: "burst", Value: 1},
		{Offset: 4, Key: "burst", Value: 2},
	}

	got := project(s.InRange(0, 8, ""))
	if diff := cmp.Diff(want, got); diff != "" {
		t.Fatalf("InRange result mismatch (-want +got):\n%s", diff)
	}
}

func TestGCDropsTagsBehindCursor(t *testing.T) {
	s := New()
	k := tagvalue.Intern("k")
	for _, off := range []uint64{0, 5, 10} {
		s.Append(off, k, tagvalue.Null, "")
	}

	s.GC(6)
	require.Equal(t, 1, s.Len())

	got := s.InRange(0, 100, "")
	require.Len(t, got, 1)
	require.Equal(t, uint64(10), got[0].Offset)
}
