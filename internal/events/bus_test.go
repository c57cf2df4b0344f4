package events

import (
	"context"
	"encoding/json"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"
)

type appended struct {
	passID, eventType string
	payload           []byte
}

type fakeStore struct {
	events []appended
	err    error
}

func (f *fakeStore) Append(_ context.Context, passID, eventType string, payload []byte, _ map[string]string) error {
	if f.err != nil {
		return f.err
	}
	f.events = append(f.events, appended{passID, eventType, payload})
	return nil
}

func TestBusDeliversByName(t *testing.T) {
	bus := NewBus()
	var gaps, all []Event
	bus.Subscribe(NameResolutionGap, func(e Event) error { gaps = append(gaps, e); return nil })
	bus.SubscribeAll(func(e Event) error { all = append(all, e); return nil })
	bus.Subscribe(NamePassStarted, nil)

	ctx := context.Background()
	require.NoError(t, bus.Publish(ctx, PassStarted{Pass: Pass{ID: "p1"}}))
	require.NoError(t, bus.Publish(ctx, ResolutionGap{Pass: Pass{ID: "p1"}, Document: "a.md", Target: "x"}))

	require.Len(t, gaps, 1)
	require.Len(t, all, 2)
	require.Equal(t, "x", gaps[0].(ResolutionGap).Target)
}

func TestBusPersistsPayload(t *testing.T) {
	store := &fakeStore{}
	bus := NewBusWithStore(store)

	ev := DocumentRendered{Pass: Pass{ID: "p1"}, Document: "a.md", Destination: "/out/a.html", Bytes: 10}
	require.NoError(t, bus.Publish(context.Background(), ev))

	require.Len(t, store.events, 1)
	require.Equal(t, "p1", store.events[0].passID)
	require.Equal(t, NameDocumentRendered, store.events[0].eventType)

	var decoded DocumentRendered
	require.NoError(t, json.Unmarshal(store.events[0].payload, &decoded))
	require.Equal(t, ev, decoded)
}

func TestBusStoreFailureDoesNotFailPublish(t *testing.T) {
	bus := NewBusWithStore(&fakeStore{err: errors.New("disk full")})
	delivered := false
	bus.SubscribeAll(func(Event) error { delivered = true; return nil })

	require.NoError(t, bus.Publish(context.Background(), PassCompleted{Pass: Pass{ID: "p1"}}))
	require.True(t, delivered)
}

func TestBusReturnsHandlerError(t *testing.T) {
	bus := NewBus()
	boom := errors.New("boom")
	bus.Subscribe(NamePassFailed, func(Event) error { return boom })

	require.ErrorIs(t, bus.Publish(context.Background(), PassFailed{Pass: Pass{ID: "p"}}), boom)
}

func TestNilBusDiscards(t *testing.T) {
	var bus *Bus
	require.NoError(t, bus.Publish(context.Background(), PassStarted{}))
}
