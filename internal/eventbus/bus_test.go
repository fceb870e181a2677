package eventbus

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/require"
)

type recordingHandler struct {
	id       string
	priority int
	calls    *[]string
}

func (h *recordingHandler) ID() string             { return h.id }
func (h *recordingHandler) Handles() []EventType   { return []EventType{ContextChanged} }
func (h *recordingHandler) Priority() int          { return h.priority }
func (h *recordingHandler) Handle(_ context.Context, _ *Event, _ *Result) error {
	*h.calls = append(*h.calls, h.id)
	return nil
}

func TestDispatchOrdersByPriority(t *testing.T) {
	var calls []string
	bus := New()
	bus.Register(&recordingHandler{id: "second", priority: 10, calls: &calls})
	bus.Register(&recordingHandler{id: "first", priority: 1, calls: &calls})

	_, err := bus.Dispatch(context.Background(), &Event{Type: ContextChanged, OccurredAt: time.Now()})
	require.NoError(t, err)
	require.Equal(t, []string{"first", "second"}, calls)
}

func TestUnregisterRemovesHandler(t *testing.T) {
	var calls []string
	bus := New()
	bus.Register(&recordingHandler{id: "only", priority: 1, calls: &calls})
	require.True(t, bus.Unregister("only"))
	require.False(t, bus.Unregister("only"))

	_, err := bus.Dispatch(context.Background(), &Event{Type: ContextChanged, OccurredAt: time.Now()})
	require.NoError(t, err)
	require.Empty(t, calls)
}

func TestDispatchNilEventErrors(t *testing.T) {
	bus := New()
	_, err := bus.Dispatch(context.Background(), nil)
	require.Error(t, err)
}
