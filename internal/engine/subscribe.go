package engine

import (
	"context"
	"log"
	"time"
)

// Handle identifies one subscription.
type Handle uint64

// ChannelState is the lifecycle of an underlying event channel.
type ChannelState int

const (
	StateDisconnected ChannelState = iota
	StateConnecting
	StateSubscribed
	// StateDegraded means reconnect attempts are exhausted; the engine
	// serves fetched data only and the UI should show staleness.
	StateDegraded
)

func (s ChannelState) String() string {
	switch s {
	case StateConnecting:
		return "connecting"
	case StateSubscribed:
		return "subscribed"
	case StateDegraded:
		return "degraded"
	default:
		return "disconnected"
	}
}

// OnChange is invoked after the engine's view of a key changed. view is
// nil when nothing is known locally yet (e.g. right after invalidation).
type OnChange func(key Key, view *Availability)

type subscriber struct {
	facilityID string // "" matches every facility
	date       string
	scope      string
	fn         OnChange
}

// channel is one shared event feed per scope (facility id, or "" for
// all). Subscribers sharing a scope share the feed; it opens on the first
// subscriber and closes when the last leaves.
type channel struct {
	refs   int
	cancel context.CancelFunc
	state  ChannelState
}

// Subscribe registers onChange for a facility (empty string = all
// facilities) and date. The underlying event channel for the scope is
// opened on first use and reference-counted: re-subscribing to an already
// active scope reuses it.
func (e *Engine) Subscribe(facilityID, date string, onChange OnChange) Handle {
	scope := facilityID

	e.mu.Lock()
	e.nextHandle++
	h := e.nextHandle
	e.subs[h] = &subscriber{facilityID: facilityID, date: date, scope: scope, fn: onChange}

	if facilityID != "" {
		key := Key{FacilityID: facilityID, Date: date}
		st, ok := e.observed[key]
		if !ok {
			st = &keyState{}
			e.observed[key] = st
		}
		st.observers++
	}

	ch, ok := e.channels[scope]
	if !ok {
		ch = &channel{state: StateDisconnected}
		e.channels[scope] = ch
		if e.opener != nil {
			ctx, cancel := context.WithCancel(context.Background())
			ch.cancel = cancel
			ch.state = StateConnecting
			go e.runChannel(ctx, scope, ch)
		} else {
			ch.state = StateDegraded
		}
	}
	ch.refs++
	e.mu.Unlock()

	// Prime the key through the debounced path so the subscriber gets an
	// initial view without an extra immediate round trip per subscriber.
	if facilityID != "" {
		e.sched.Trigger(Key{FacilityID: facilityID, Date: date})
	}
	return h
}

// Unsubscribe removes one subscription. The scope's event channel closes
// only when its last subscriber leaves; unsubscribing twice with the same
// handle is an error.
func (e *Engine) Unsubscribe(h Handle) error {
	e.mu.Lock()
	sub, ok := e.subs[h]
	if !ok {
		e.mu.Unlock()
		return ErrUnknownSubscription
	}
	delete(e.subs, h)

	if sub.facilityID != "" {
		key := Key{FacilityID: sub.facilityID, Date: sub.date}
		if st, ok := e.observed[key]; ok {
			st.observers--
			if st.observers <= 0 {
				delete(e.observed, key)
			}
		}
	}

	var cancel context.CancelFunc
	if ch, ok := e.channels[sub.scope]; ok {
		ch.refs--
		if ch.refs <= 0 {
			cancel = ch.cancel
			delete(e.channels, sub.scope)
		}
	}
	e.mu.Unlock()

	if cancel != nil {
		cancel()
	}
	return nil
}

// ChannelState reports the live-update state for a facility scope.
func (e *Engine) ChannelState(facilityID string) ChannelState {
	e.mu.Lock()
	defer e.mu.Unlock()
	if ch, ok := e.channels[facilityID]; ok {
		return ch.state
	}
	return StateDisconnected
}

func (e *Engine) setChannelState(ch *channel, s ChannelState) {
	e.mu.Lock()
	ch.state = s
	e.mu.Unlock()
}

// runChannel drives one scope's feed through its connection state
// machine: Connecting -> Subscribed -> Disconnected, with bounded linear
// backoff on reconnect. After the attempt budget is spent the channel
// degrades instead of retrying forever.
func (e *Engine) runChannel(ctx context.Context, scope string, ch *channel) {
	attempts := 0
	for {
		e.setChannelState(ch, StateConnecting)
		stream, err := e.opener.Open(ctx, scope)
		if err != nil {
			attempts++
			if attempts >= e.cfg.ReconnectMaxAttempts {
				log.Printf("Event channel %q: %v (%s)", scope, ErrLiveUpdatesUnavailable, err)
				e.setChannelState(ch, StateDegraded)
				return
			}
			// Linear backoff between attempts.
			select {
			case <-ctx.Done():
				e.setChannelState(ch, StateDisconnected)
				return
			case <-time.After(time.Duration(attempts) * e.cfg.ReconnectBackoff):
			}
			continue
		}

		e.setChannelState(ch, StateSubscribed)
		attempts = 0

		for {
			ev, err := stream.Next(ctx)
			if err != nil {
				stream.Close()
				if ctx.Err() != nil {
					e.setChannelState(ch, StateDisconnected)
					return
				}
				log.Printf("Event channel %q dropped: %v", scope, err)
				e.setChannelState(ch, StateDisconnected)
				attempts++
				break
			}
			e.applyEvent(ev)
		}

		if attempts >= e.cfg.ReconnectMaxAttempts {
			e.setChannelState(ch, StateDegraded)
			return
		}
		select {
		case <-ctx.Done():
			e.setChannelState(ch, StateDisconnected)
			return
		case <-time.After(time.Duration(attempts) * e.cfg.ReconnectBackoff):
		}
	}
}

// notify invokes the callbacks of every subscriber whose scope covers the
// key. Callbacks run synchronously in event order; heavy consumers should
// hand off to their own goroutine.
func (e *Engine) notify(key Key) {
	e.mu.Lock()
	var fns []OnChange
	for _, sub := range e.subs {
		if sub.date != key.Date {
			continue
		}
		if sub.facilityID != "" && sub.facilityID != key.FacilityID {
			continue
		}
		fns = append(fns, sub.fn)
	}
	e.mu.Unlock()

	if len(fns) == 0 {
		return
	}
	view := e.availabilityFor(key)
	for _, fn := range fns {
		fn(key, view)
	}
}
