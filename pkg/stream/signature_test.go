package stream

import (
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/flowradio/blockrt/common/go/xerror"
)

func TestNewValidatesBounds(t *testing.T) {
	_, err := New(-1, 1, 4)
	require.Error(t, err)

	_, err = New(2, 1, 4)
	require.Error(t, err)

	_, err = New(1, 1, 0)
	require.Error(t, err)

	sig := xerror.Unwrap(New(1, Unbounded, 4))
	require.Equal(t, 1, sig.MinStreams())
	require.Equal(t, Unbounded, sig.MaxStreams())
}

func TestAccepts(t *testing.T) {
	sig := MustNew(1, 4, 4)

	require.False(t, sig.Accepts(0))
	require.True(t, sig.Accepts(1))
	require.True(t, sig.Accepts(4))
	require.False(t, sig.Accepts(5))

	unbounded := MustNew(0, Unbounded, 4)
	require.True(t, unbounded.Accepts(0))
	require.True(t, unbounded.Accepts(1000))
}

func TestMustNewPanicsOnInvalidSignature(t *testing.T) {
	require.Panics(t, func() { MustNew(1, 0, 4) })
}
