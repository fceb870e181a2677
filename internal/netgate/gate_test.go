package netgate

import (
	"context"
	"errors"
	"testing"
	"time"

	"github.com/stretchr/testify/require"

	"github.com/kilnworks/syncengine/internal/engineerrors"
)

func TestIsOnlineFalseWhenSessionDead(t *testing.T) {
	g := New("")
	g.SetSessionAlive(false)
	require.False(t, g.IsOnline(context.Background()))
}

func TestIsOnlineTrueWithNoProbeAddr(t *testing.T) {
	g := New("")
	require.True(t, g.IsOnline(context.Background()))
}

func TestIsOnlineFalseWhenUnreachable(t *testing.T) {
	g := New("127.0.0.1:1")
	require.False(t, g.IsOnline(context.Background()))
}

func TestWithTimeoutSurfacesNetworkTimeoutError(t *testing.T) {
	err := WithTimeout(context.Background(), 5*time.Millisecond, "probe", func(ctx context.Context) error {
		<-ctx.Done()
		return ctx.Err()
	})
	var nte *engineerrors.NetworkTimeoutError
	require.ErrorAs(t, err, &nte)
	require.Equal(t, "probe", nte.Op)
}

func TestWithTimeoutPassesThroughOtherErrors(t *testing.T) {
	sentinel := errors.New("boom")
	err := WithTimeout(context.Background(), time.Second, "probe", func(ctx context.Context) error {
		return sentinel
	})
	require.ErrorIs(t, err, sentinel)
}
