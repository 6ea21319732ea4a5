// invalidation.go: the invalidation bus (§4.10) — cross-instance
// key-expiry notifications. This module supplies the in-process
// pub/sub implementation of the InvalidationBus interface; a
// network-backed implementation (carried over the shared tier's own
// transport) satisfies the same interface but is out of scope here,
// per §1.
package stratacache

import (
	"sync"
)

// invalidationMsg is either a single-key invalidation or, when Key is
// the wildcard "*", a clear notification.
type invalidationMsg struct {
	originID string
	key      string
}

const invalidationWildcard = "*"

// InvalidationBus is the publish/subscribe contract for cross-instance
// key-expiry notifications described in §4.10.
type InvalidationBus interface {
	// Publish broadcasts a key invalidation (or "*" for a clear) tagged
	// with originID.
	Publish(originID string, key string)
	// Subscribe returns a channel of published messages plus an
	// unsubscribe function. The in-process bus delivers every message,
	// including those tagged with originID; the subscriber skips its own.
	Subscribe(originID string) (ch <-chan invalidationMsg, unsubscribe func())
	// Close shuts down the bus and releases every subscriber channel.
	Close()
}

// localInvalidationBus is an in-process pub/sub implementation, suitable
// for multiple engines in the same process sharing a persistent file
// (see the namespace-isolation scenarios). It delivers best-effort: a
// slow subscriber drops messages rather than blocking publishers.
type localInvalidationBus struct {
	mu          sync.Mutex
	subscribers map[int]chan invalidationMsg
	nextID      int
	closed      bool
}

func newLocalInvalidationBus() *localInvalidationBus {
	return &localInvalidationBus{subscribers: make(map[int]chan invalidationMsg)}
}

func (b *localInvalidationBus) Publish(originID string, key string) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	msg := invalidationMsg{originID: originID, key: key}
	for _, ch := range b.subscribers {
		select {
		case ch <- msg:
		default:
			// Best-effort delivery: a full channel means a slow
			// subscriber; dropping here is preferable to blocking
			// every publisher on one straggler.
		}
	}
}

func (b *localInvalidationBus) Subscribe(originID string) (<-chan invalidationMsg, func()) {
	b.mu.Lock()
	defer b.mu.Unlock()

	id := b.nextID
	b.nextID++
	ch := make(chan invalidationMsg, 64)
	b.subscribers[id] = ch

	unsubscribe := func() {
		b.mu.Lock()
		defer b.mu.Unlock()
		if sub, ok := b.subscribers[id]; ok {
			delete(b.subscribers, id)
			close(sub)
		}
	}
	return ch, unsubscribe
}

func (b *localInvalidationBus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if b.closed {
		return
	}
	b.closed = true
	for id, ch := range b.subscribers {
		delete(b.subscribers, id)
		close(ch)
	}
}

// busRegistry hands out one localInvalidationBus per distinct persistent
// cache location, refcounted, so that multiple Engine instances pointed
// at the same CacheDir/CacheFile actually observe each other's
// invalidations instead of each talking to its own private bus (§4.10:
// "multiple engines in the same process sharing a persistent cache
// file"). An engine that never shares its cache location with another
// still gets a working, if solitary, bus.
var busRegistry = struct {
	mu    sync.Mutex
	buses map[string]*busRefCount
}{buses: make(map[string]*busRefCount)}

type busRefCount struct {
	bus      *localInvalidationBus
	refCount int
}

// invalidationBusKey identifies the persistent location multiple engine
// instances must agree on to share a bus. The key is never empty: with
// no CacheDir it is just "|" plus CacheFile, so every memory-only engine
// with EnableInvalidation and the same CacheFile shares one process-wide
// bus, which is the best that can be done without a persistent anchor.
func invalidationBusKey(cfg Config) string {
	return cfg.CacheDir + "|" + cfg.CacheFile
}

func acquireInvalidationBus(key string) *localInvalidationBus {
	busRegistry.mu.Lock()
	defer busRegistry.mu.Unlock()

	ref, ok := busRegistry.buses[key]
	if !ok {
		ref = &busRefCount{bus: newLocalInvalidationBus()}
		busRegistry.buses[key] = ref
	}
	ref.refCount++
	return ref.bus
}

// releaseInvalidationBus drops this engine's reference to the shared bus
// at key, closing and evicting it once the last engine using it releases.
func releaseInvalidationBus(key string) {
	busRegistry.mu.Lock()
	defer busRegistry.mu.Unlock()

	ref, ok := busRegistry.buses[key]
	if !ok {
		return
	}
	ref.refCount--
	if ref.refCount <= 0 {
		delete(busRegistry.buses, key)
		ref.bus.Close()
	}
}

// invalidationSubscription is the engine's child task consuming its own
// bus subscription, applying "delete against the local (faster) tiers"
// per §5's ownership rule.
type invalidationSubscription struct {
	engine *Engine
	ch     <-chan invalidationMsg
	stop   func()
	done   chan struct{}
}

func startInvalidationSubscription(e *Engine) *invalidationSubscription {
	ch, unsubscribe := e.invalidationBus.Subscribe(e.instanceID)
	sub := &invalidationSubscription{
		engine: e,
		ch:     ch,
		stop:   unsubscribe,
		done:   make(chan struct{}),
	}
	go sub.run()
	return sub
}

func (s *invalidationSubscription) run() {
	defer close(s.done)
	for msg := range s.ch {
		if msg.originID == s.engine.instanceID {
			continue
		}
		if msg.key == invalidationWildcard {
			s.engine.localClearFasterTiers()
			continue
		}
		s.engine.localDeleteFasterTiers(msg.key)
	}
}

func (s *invalidationSubscription) Stop() {
	s.stop()
	<-s.done
}
