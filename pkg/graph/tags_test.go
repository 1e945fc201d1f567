package graph_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowradio/blockrt/pkg/blocks"
	"github.com/flowradio/blockrt/pkg/graph"
	"github.com/flowradio/blockrt/pkg/tagvalue"
)

func TestTagTraversalThroughIdentity(t *testing.T) {
	g := graph.New(graph.WithRingCapacity(256))

	src := blocks.NewTaggingSource("src", 20, 10, "burst", tagvalue.FromInt(1))
	id := blocks.NewIdentity("id")
	sink := blocks.NewTaggingSink("sink")

	require.NoError(t, g.Add(src, 1))
	require.NoError(t, g.Add(id, 1))
	require.NoError(t, g.Add(sink, 0))
	require.NoError(t, g.Connect("src", 0, "id", 0, 1))
	require.NoError(t, g.Connect("id", 0, "sink", 0, 1))
	require.NoError(t, g.Build())

	runGraph(t, g)

	require.Len(t, sink.Items(), 20)

	tags := sink.Tags()
	require.Len(t, tags, 1)
	require.Equal(t, uint64(10), tags[0].Offset)
	require.Equal(t, "burst", tags[0].Key.String())
	v, ok := tags[0].Value.Int()
	require.True(t, ok)
	require.Equal(t, int64(1), v)
}
