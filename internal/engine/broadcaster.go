// Package engine drives runs through the pipeline: the executor owns one
// execution loop per run, and the broadcaster fans progress events out to
// live subscribers.
package engine

import (
	"sync"

	"github.com/pellera/prospect-engine/internal/types"
)

// subscriberBuffer bounds each subscriber channel. A subscriber that falls
// this far behind starts dropping events; the run record remains the source
// of truth for catch-up.
const subscriberBuffer = 32

// Broadcaster fans a run's progress events out to its subscribers. Events
// are delivered in emission order; late subscribers see only events from
// subscription onward. Once a run finishes, its streams are closed and new
// subscriptions return an already-closed channel.
type Broadcaster struct {
	mu       sync.Mutex
	subs     map[string]map[chan types.NodeProgress]struct{}
	finished map[string]bool
}

// NewBroadcaster creates an empty broadcaster.
func NewBroadcaster() *Broadcaster {
	return &Broadcaster{
		subs:     make(map[string]map[chan types.NodeProgress]struct{}),
		finished: make(map[string]bool),
	}
}

// Register opens the event stream for a run. The executor calls this before
// the run id is handed to any caller.
func (b *Broadcaster) Register(runID string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.finished[runID] {
		return
	}
	if _, ok := b.subs[runID]; !ok {
		b.subs[runID] = make(map[chan types.NodeProgress]struct{})
	}
}

// Subscribe returns a channel of the run's future events plus an unsubscribe
// function. For a finished (or unknown) run the channel is already closed.
// Unsubscribing twice is harmless.
func (b *Broadcaster) Subscribe(runID string) (<-chan types.NodeProgress, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	subs, ok := b.subs[runID]
	if !ok {
		ch := make(chan types.NodeProgress)
		close(ch)
		return ch, func() {}
	}

	ch := make(chan types.NodeProgress, subscriberBuffer)
	subs[ch] = struct{}{}

	var once sync.Once
	unsubscribe := func() {
		once.Do(func() {
			b.mu.Lock()
			defer b.mu.Unlock()
			if subs, ok := b.subs[runID]; ok {
				if _, live := subs[ch]; live {
					delete(subs, ch)
					close(ch)
				}
			}
		})
	}
	return ch, unsubscribe
}

// Publish delivers an event to all current subscribers of the run. Sends
// never block: a full subscriber channel drops the event.
func (b *Broadcaster) Publish(event types.NodeProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	for ch := range b.subs[event.RunID] {
		select {
		case ch <- event:
		default:
		}
	}
}

// Finish delivers the terminal done event, closes every subscriber channel
// and marks the run finished. No further events are possible for the run.
func (b *Broadcaster) Finish(event types.NodeProgress) {
	b.mu.Lock()
	defer b.mu.Unlock()

	runID := event.RunID
	for ch := range b.subs[runID] {
		select {
		case ch <- event:
		default:
		}
		close(ch)
	}
	delete(b.subs, runID)
	b.finished[runID] = true
}
