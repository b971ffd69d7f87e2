package device

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestDecodeEvent(t *testing.T) {
	axis, err := DecodeEvent([]byte{1, 0, 0, 0, 0x01, 0x80, 0x02, 0x01})
	require.NoError(t, err)
	require.Implements(t, (*AxisEvent)(nil), axis)
	require.Equal(t, 1, axis.Index())
	require.Equal(t, -32767, axis.(AxisEvent).Value())
	require.False(t, axis.IsInit())

	btn, err := DecodeEvent([]byte{0, 0, 0, 0, 0x01, 0x00, 0x81, 0x03})
	require.NoError(t, err)
	require.Implements(t, (*ButtonEvent)(nil), btn)
	require.True(t, btn.IsInit())
	require.True(t, btn.(ButtonEvent).Pressed())
	require.Equal(t, 3, btn.Index())

	_, err = DecodeEvent([]byte{0, 0})
	require.ErrorIs(t, err, ErrShortEvent)
}
