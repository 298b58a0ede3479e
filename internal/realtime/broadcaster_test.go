package realtime

import (
	"sync"
	"testing"

	prom "github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/goleak"

	"assembly-service/internal/event"
	"assembly-service/prometheus"
)

var testRoom = Room{TenantID: 1, AssemblyID: 7}

func quorumEvent(r Room, n int) event.Event {
	return event.New(event.QuorumUpdate, r.TenantID, r.AssemblyID, 1, n)
}

func drain(t *testing.T, sub *Subscription) []event.Event {
	t.Helper()
	var out []event.Event
	for {
		select {
		case evt, ok := <-sub.Events():
			if !ok {
				return out
			}
			out = append(out, evt)
		default:
			return out
		}
	}
}

func TestPublish_OrderedPerSubscriber(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroadcaster(100, nil)
	first := b.Subscribe(testRoom)
	second := b.Subscribe(testRoom)
	defer first.Close()
	defer second.Close()

	for i := 0; i < 50; i++ {
		b.Publish(quorumEvent(testRoom, i))
	}

	for _, sub := range []*Subscription{first, second} {
		events := drain(t, sub)
		require.Len(t, events, 50)
		for i, evt := range events {
			assert.Equal(t, i, evt.Data)
			assert.Equal(t, uint64(i+1), evt.Sequence)
		}
	}
}

func TestPublish_RoomsAreIsolated(t *testing.T) {
	b := NewBroadcaster(10, nil)
	other := Room{TenantID: 2, AssemblyID: 7}
	sub := b.Subscribe(testRoom)
	defer sub.Close()
	otherSub := b.Subscribe(other)
	defer otherSub.Close()

	b.Publish(quorumEvent(other, 1))

	assert.Empty(t, drain(t, sub))
	assert.Len(t, drain(t, otherSub), 1)
}

func TestPublish_SkipsAuditOnlyEvents(t *testing.T) {
	b := NewBroadcaster(10, nil)
	sub := b.Subscribe(testRoom)
	defer sub.Close()

	b.Publish(event.New(event.VoteCast, testRoom.TenantID, testRoom.AssemblyID, 3, "YES"))
	b.Publish(event.New(event.AttendanceRegistered, testRoom.TenantID, testRoom.AssemblyID, 3, true))

	assert.Empty(t, drain(t, sub))
}

func TestSubscribe_SnapshotComesFirst(t *testing.T) {
	b := NewBroadcaster(10, nil)
	b.Subscribe(testRoom)
	b.Publish(quorumEvent(testRoom, 0))

	snapshot := []event.Event{
		quorumEvent(testRoom, 100),
		event.New(event.AgendaItemOpened, testRoom.TenantID, testRoom.AssemblyID, 1, "item"),
	}
	late := b.Subscribe(testRoom, snapshot...)
	defer late.Close()
	b.Publish(quorumEvent(testRoom, 1))

	events := drain(t, late)
	require.Len(t, events, 3)
	assert.Equal(t, 100, events[0].Data)
	assert.Equal(t, event.AgendaItemOpened, events[1].Type)
	assert.Equal(t, uint64(1), events[0].Sequence)
	assert.Equal(t, 1, events[2].Data)
	assert.Equal(t, uint64(2), events[2].Sequence)
}

func TestPublish_SequenceSurvivesEmptyRoom(t *testing.T) {
	b := NewBroadcaster(10, nil)
	first := b.Subscribe(testRoom)
	b.Publish(quorumEvent(testRoom, 1))
	b.Publish(quorumEvent(testRoom, 2))
	require.Len(t, drain(t, first), 2)
	first.Close()
	require.Equal(t, 0, b.SubscriberCount(testRoom))

	b.Publish(quorumEvent(testRoom, 3))
	assert.Equal(t, uint64(3), b.Sequence(testRoom))

	second := b.Subscribe(testRoom, quorumEvent(testRoom, 100))
	defer second.Close()
	b.Publish(quorumEvent(testRoom, 4))

	events := drain(t, second)
	require.Len(t, events, 2)
	assert.Equal(t, uint64(3), events[0].Sequence)
	assert.Equal(t, uint64(4), events[1].Sequence)
	assert.Equal(t, uint64(0), b.Sequence(Room{TenantID: 9, AssemblyID: 9}))
}

func TestPublish_SlowSubscriberIsDisconnected(t *testing.T) {
	defer goleak.VerifyNone(t)

	reg := prom.NewRegistry()
	metrics := prometheus.InitMetrics("test", reg)
	b := NewBroadcaster(2, metrics)
	slow := b.Subscribe(testRoom)
	fast := b.Subscribe(testRoom)

	var received []event.Event
	for i := 0; i < 5; i++ {
		b.Publish(quorumEvent(testRoom, i))
		received = append(received, drain(t, fast)...)
	}
	fast.Close()

	assert.True(t, slow.Overflowed())
	events := drain(t, slow)
	assert.Len(t, events, 2)
	_, open := <-slow.Events()
	assert.False(t, open)
	assert.Len(t, received, 5)

	assert.Equal(t, float64(1), testutil.ToFloat64(metrics.RealtimeDisconnects.WithLabelValues(reasonOverflow)))
	assert.Equal(t, float64(0), testutil.ToFloat64(metrics.RealtimeSubscribers))
}

func TestSubscription_CloseIsIdempotent(t *testing.T) {
	b := NewBroadcaster(1, nil)
	sub := b.Subscribe(testRoom)
	sub.Close()
	sub.Close()

	_, open := <-sub.Events()
	assert.False(t, open)
	assert.Equal(t, 0, b.SubscriberCount(testRoom))

	// publishing into an empty room is a no-op
	b.Publish(quorumEvent(testRoom, 1))
}

func TestStop_ClosesAllStreams(t *testing.T) {
	defer goleak.VerifyNone(t)

	b := NewBroadcaster(4, nil)
	subs := []*Subscription{
		b.Subscribe(testRoom),
		b.Subscribe(Room{TenantID: 1, AssemblyID: 8}),
	}

	var wg sync.WaitGroup
	for _, sub := range subs {
		wg.Add(1)
		go func(s *Subscription) {
			defer wg.Done()
			for range s.Events() {
			}
		}(sub)
	}

	b.Stop()
	wg.Wait()
	assert.Equal(t, 0, b.SubscriberCount(testRoom))
}

func TestPublish_ConcurrentSubscribeAndPublish(t *testing.T) {
	b := NewBroadcaster(1000, nil)
	keeper := b.Subscribe(testRoom)
	defer keeper.Close()

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(2)
		go func() {
			defer wg.Done()
			sub := b.Subscribe(testRoom)
			sub.Close()
		}()
		go func(n int) {
			defer wg.Done()
			b.Publish(quorumEvent(testRoom, n))
		}(i)
	}
	wg.Wait()

	events := drain(t, keeper)
	require.Len(t, events, 8)
	for i, evt := range events {
		assert.Equal(t, uint64(i+1), evt.Sequence)
	}
}
