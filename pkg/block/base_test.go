package block_test

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowradio/blockrt/pkg/block"
	"github.com/flowradio/blockrt/pkg/stream"
)

func TestBaseForecastDefault(t *testing.T) {
	b := block.NewBase("b", stream.MustNew(1, 1, 4), stream.MustNew(1, 1, 4))
	b.SetHistory(3)

	required := b.Forecast(10)
	require.Equal(t, []int{12}, required) // noutput_items + history - 1
}

func TestBaseDefaults(t *testing.T) {
	b := block.NewBase("b", stream.MustNew(1, 1, 4), stream.MustNew(1, 1, 4))

	require.Equal(t, 1, b.History())
	require.Equal(t, 1, b.OutputMultiple())
	require.Equal(t, 1.0, b.RelativeRate())
}

func TestSettersClampToValidMinimums(t *testing.T) {
	b := block.NewBase("b", stream.MustNew(1, 1, 4), stream.MustNew(1, 1, 4))

	b.SetHistory(0)
	require.Equal(t, 1, b.History())

	b.SetOutputMultiple(-5)
	require.Equal(t, 1, b.OutputMultiple())

	b.SetRelativeRate(0)
	require.Equal(t, 1.0, b.RelativeRate())
}
