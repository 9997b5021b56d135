// Package memorybus diffuse les événements de l'application aux abonnés du process
// (flux SSE, Watch de la watchlist).
package memorybus

import (
	"strings"
	"sync"

	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const subscriberBuffer = 64

type subscriber struct {
	ch     chan ports.Event
	prefix string
}

type Bus struct {
	mu    sync.Mutex
	subs  map[*subscriber]struct{}
	alive bool
}

func New() *Bus {
	return &Bus{subs: make(map[*subscriber]struct{}), alive: true}
}

func (b *Bus) Publish(topic string, payload []byte) {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	evt := ports.Event{Topic: topic, Payload: payload}
	for s := range b.subs {
		if s.prefix != "" && !strings.HasPrefix(topic, s.prefix) {
			continue
		}
		select {
		case s.ch <- evt:
		default:
			// drop si le client est trop lent
		}
	}
}

// Subscribe reçoit tous les topics.
func (b *Bus) Subscribe() (<-chan ports.Event, func()) {
	return b.SubscribePrefix("")
}

// SubscribePrefix ne reçoit que les topics commençant par prefix.
func (b *Bus) SubscribePrefix(prefix string) (<-chan ports.Event, func()) {
	s := &subscriber{ch: make(chan ports.Event, subscriberBuffer), prefix: prefix}
	b.mu.Lock()
	if !b.alive {
		close(s.ch)
		b.mu.Unlock()
		return s.ch, func() {}
	}
	b.subs[s] = struct{}{}
	b.mu.Unlock()

	cancel := func() {
		b.mu.Lock()
		if _, ok := b.subs[s]; ok {
			delete(b.subs, s)
			close(s.ch)
		}
		b.mu.Unlock()
	}

	return s.ch, cancel
}

// Close ferme tous les abonnements; les Publish suivants sont ignorés.
func (b *Bus) Close() {
	b.mu.Lock()
	defer b.mu.Unlock()
	if !b.alive {
		return
	}
	b.alive = false
	for s := range b.subs {
		delete(b.subs, s)
		close(s.ch)
	}
}
