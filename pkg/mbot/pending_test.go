package mbot

import (
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/robotalks/mbot.go/pkg/mbot/protocol"
)

func TestPendingRegisterResolve(t *testing.T) {
	var p Pending
	var got []protocol.Value
	cb := func(v protocol.Value) { got = append(got, v) }

	require.True(t, p.Register(20, cb))
	require.False(t, p.Register(20, cb), "duplicate id must be rejected")
	require.True(t, p.Register(30, cb))
	require.Equal(t, 2, p.Len())

	require.True(t, p.Resolve(20, protocol.FloatValue(12)))
	require.False(t, p.Resolve(20, protocol.FloatValue(13)), "resolved only once")
	require.Equal(t, []protocol.Value{protocol.FloatValue(12)}, got)
	require.Equal(t, 1, p.Len())

	require.True(t, p.Register(20, cb), "registrable again after resolve")
}

func TestPendingCancelAndReset(t *testing.T) {
	var p Pending
	require.True(t, p.Register(1, nil))
	require.True(t, p.Cancel(1))
	require.False(t, p.Cancel(1))
	require.True(t, p.Register(1, nil))
	require.True(t, p.Register(2, nil))
	p.Reset()
	require.Zero(t, p.Len())
	require.False(t, p.Resolve(1, protocol.ByteValue(0)))
}

func TestPendingExpire(t *testing.T) {
	var p Pending
	require.True(t, p.Register(1, nil))
	require.Zero(t, p.Expire(time.Now().Add(-time.Minute)))
	require.Equal(t, 1, p.Expire(time.Now().Add(time.Minute)))
	require.Zero(t, p.Len())
	require.True(t, p.Register(1, nil))
}
