// Package realtime fans governance events out to the clients watching an
// assembly. Each assembly is one room; every subscriber of a room sees the
// room's events in publish order.
package realtime

import (
	"errors"
	"fmt"
	"sync"
	"sync/atomic"

	"go.uber.org/zap"

	"assembly-service/internal/event"
	"assembly-service/pkg/logger"
	"assembly-service/prometheus"
)

// DefaultBuffer is the per-subscriber queue length used when none is configured
const DefaultBuffer = 64

// ErrOverflow is returned by a subscriber whose queue is full
var ErrOverflow = errors.New("subscriber queue full")

// Disconnect reasons reported to metrics
const (
	reasonOverflow    = "overflow"
	reasonPanic       = "panic"
	reasonUnsubscribe = "unsubscribe"
	reasonShutdown    = "shutdown"
)

// Room identifies the audience of one assembly
type Room struct {
	TenantID   uint
	AssemblyID uint
}

// RoomOf returns the room an event belongs to
func RoomOf(evt event.Event) Room {
	return Room{TenantID: evt.TenantID, AssemblyID: evt.AssemblyID}
}

func (r Room) String() string {
	return fmt.Sprintf("assembly-%d-tenant-%d", r.AssemblyID, r.TenantID)
}

type SubscriberID uint64

// channelSubscriber is a buffered queue that never blocks the publisher.
// When the buffer is full it refuses the event and the broadcaster drops
// the subscriber, so a client never silently misses a delta.
type channelSubscriber struct {
	ch         chan event.Event
	mu         sync.RWMutex
	closed     bool
	overflowed atomic.Bool
}

func newChannelSubscriber(buffer int) *channelSubscriber {
	return &channelSubscriber{ch: make(chan event.Event, buffer)}
}

func (c *channelSubscriber) Deliver(evt event.Event) error {
	c.mu.RLock()
	defer c.mu.RUnlock()
	if c.closed {
		return nil
	}
	select {
	case c.ch <- evt:
		return nil
	default:
		c.overflowed.Store(true)
		return ErrOverflow
	}
}

func (c *channelSubscriber) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.closed {
		return
	}
	c.closed = true
	close(c.ch)
}

type room struct {
	subs map[SubscriberID]*channelSubscriber
}

// Broadcaster routes events to room subscribers. Publish never blocks on a
// subscriber; a slow one is disconnected instead.
type Broadcaster struct {
	mu        sync.Mutex
	rooms     map[Room]*room
	seqs      map[Room]uint64
	lastSubID SubscriberID
	buffer    int
	metrics   *prometheus.Metrics
}

func NewBroadcaster(buffer int, metrics *prometheus.Metrics) *Broadcaster {
	if buffer <= 0 {
		buffer = DefaultBuffer
	}
	return &Broadcaster{
		rooms:   make(map[Room]*room),
		seqs:    make(map[Room]uint64),
		buffer:  buffer,
		metrics: metrics,
	}
}

// Subscription is one client's view of a room
type Subscription struct {
	ID   SubscriberID
	Room Room
	sub  *channelSubscriber
	b    *Broadcaster
}

// Events returns the event stream. It is closed on Close, on shutdown, or
// when the subscriber falls behind.
func (s *Subscription) Events() <-chan event.Event {
	return s.sub.ch
}

// Overflowed reports whether the stream was closed because the client was too slow
func (s *Subscription) Overflowed() bool {
	return s.sub.overflowed.Load()
}

// Close leaves the room. It only releases the stream.
func (s *Subscription) Close() {
	s.b.unsubscribe(s.Room, s.ID, reasonUnsubscribe)
}

// Subscribe joins room. The snapshot events are queued ahead of any event
// published after this call returns.
func (b *Broadcaster) Subscribe(r Room, snapshot ...event.Event) *Subscription {
	b.mu.Lock()
	defer b.mu.Unlock()

	rm, ok := b.rooms[r]
	if !ok {
		rm = &room{subs: make(map[SubscriberID]*channelSubscriber)}
		b.rooms[r] = rm
	}

	sub := newChannelSubscriber(b.buffer + len(snapshot))
	for _, evt := range snapshot {
		evt.Sequence = b.seqs[r]
		sub.ch <- evt
	}

	b.lastSubID++
	id := b.lastSubID
	rm.subs[id] = sub
	b.metrics.SubscriberAdded()

	logger.GetLogger().Debug("realtime subscriber joined",
		zap.String("room", r.String()),
		zap.Uint64("subscriber_id", uint64(id)),
		zap.Int("snapshot_events", len(snapshot)),
	)
	return &Subscription{ID: id, Room: r, sub: sub, b: b}
}

// Publish delivers evt to every subscriber of its room. Events that are not
// meant for broadcast are ignored.
func (b *Broadcaster) Publish(evt event.Event) {
	if !evt.Type.Broadcast() {
		return
	}
	r := RoomOf(evt)

	type dropped struct {
		id     SubscriberID
		sub    *channelSubscriber
		reason string
		err    error
	}
	var drops []dropped

	b.mu.Lock()
	// Sequences outlive the subscriber set so ids never repeat within a room.
	b.seqs[r]++
	evt.Sequence = b.seqs[r]
	rm, ok := b.rooms[r]
	if ok {
		for id, sub := range rm.subs {
			var deliverErr error
			func() {
				defer func() {
					if rec := recover(); rec != nil {
						deliverErr = fmt.Errorf("subscriber deliver panic: %v", rec)
					}
				}()
				deliverErr = sub.Deliver(evt)
			}()
			if deliverErr == nil {
				continue
			}
			reason := reasonPanic
			if errors.Is(deliverErr, ErrOverflow) {
				reason = reasonOverflow
			}
			delete(rm.subs, id)
			drops = append(drops, dropped{id: id, sub: sub, reason: reason, err: deliverErr})
		}
		if len(rm.subs) == 0 {
			delete(b.rooms, r)
		}
	}
	b.mu.Unlock()

	b.metrics.RecordRealtimeEvent(string(evt.Type))
	for _, d := range drops {
		d.sub.Close()
		b.metrics.SubscriberRemoved(d.reason)
		logger.GetLogger().Warn("realtime subscriber disconnected",
			zap.String("room", r.String()),
			zap.Uint64("subscriber_id", uint64(d.id)),
			zap.String("event_type", string(evt.Type)),
			zap.String("reason", d.reason),
			zap.Error(d.err),
		)
	}
}

func (b *Broadcaster) unsubscribe(r Room, id SubscriberID, reason string) {
	b.mu.Lock()
	var sub *channelSubscriber
	if rm, ok := b.rooms[r]; ok {
		if s, ok := rm.subs[id]; ok {
			sub = s
			delete(rm.subs, id)
			if len(rm.subs) == 0 {
				delete(b.rooms, r)
			}
		}
	}
	b.mu.Unlock()

	if sub != nil {
		sub.Close()
		b.metrics.SubscriberRemoved(reason)
	}
}

// Sequence returns the sequence of the last event published to room
func (b *Broadcaster) Sequence(r Room) uint64 {
	b.mu.Lock()
	defer b.mu.Unlock()
	return b.seqs[r]
}

// SubscriberCount returns the number of subscribers in room
func (b *Broadcaster) SubscriberCount(r Room) int {
	b.mu.Lock()
	defer b.mu.Unlock()
	if rm, ok := b.rooms[r]; ok {
		return len(rm.subs)
	}
	return 0
}

// Stop closes every subscription. The broadcaster stays usable afterwards.
func (b *Broadcaster) Stop() {
	b.mu.Lock()
	rooms := b.rooms
	b.rooms = make(map[Room]*room)
	b.mu.Unlock()

	for _, rm := range rooms {
		for _, sub := range rm.subs {
			sub.Close()
			b.metrics.SubscriberRemoved(reasonShutdown)
		}
	}
}
