package app

import "sync"

// Phase est l'étiquette commune des états d'écran.
type Phase string

const (
	PhaseIdle    Phase = "idle"
	PhaseLoading Phase = "loading"
	PhaseSuccess Phase = "success"
	PhaseError   Phase = "error"
)

// StateHolder est un conteneur d'état observable. Update est la seule
// primitive lecture-modification-écriture; les abonnés ne reçoivent que
// la dernière valeur (les intermédiaires peuvent être sautées).
type StateHolder[T any] struct {
	mu    sync.Mutex
	value T
	subs  map[chan T]struct{}
}

func NewStateHolder[T any](initial T) *StateHolder[T] {
	return &StateHolder[T]{value: initial, subs: make(map[chan T]struct{})}
}

func (h *StateHolder[T]) Get() T {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.value
}

func (h *StateHolder[T]) Set(v T) {
	h.Update(func(T) T { return v })
}

// Update applique fn sous le verrou et renvoie la nouvelle valeur.
func (h *StateHolder[T]) Update(fn func(T) T) T {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.value = fn(h.value)
	for ch := range h.subs {
		offerLatest(ch, h.value)
	}
	return h.value
}

// Subscribe reçoit immédiatement la valeur courante puis chaque changement.
func (h *StateHolder[T]) Subscribe() (<-chan T, func()) {
	ch := make(chan T, 1)
	h.mu.Lock()
	ch <- h.value
	h.subs[ch] = struct{}{}
	h.mu.Unlock()

	cancel := func() {
		h.mu.Lock()
		if _, ok := h.subs[ch]; ok {
			delete(h.subs, ch)
			close(ch)
		}
		h.mu.Unlock()
	}
	return ch, cancel
}

func offerLatest[T any](ch chan T, v T) {
	select {
	case ch <- v:
		return
	default:
	}
	// Buffer plein: on remplace la valeur en attente.
	select {
	case <-ch:
	default:
	}
	select {
	case ch <- v:
	default:
	}
}
