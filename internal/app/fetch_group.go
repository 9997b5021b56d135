package app

import (
	"context"
	"sync"

	"github.com/rs/xid"
	"github.com/rs/zerolog"
)

// fetchGroup porte les requêtes d'un écran: une seule est "courante",
// en démarrer une autre annule la précédente, et seul le résultat de la
// génération courante peut être appliqué. Close annule tout le groupe.
type fetchGroup struct {
	logger zerolog.Logger

	mu     sync.Mutex
	root   context.Context
	stop   context.CancelFunc
	closed bool
	gen    uint64
	cancel context.CancelFunc
	wg     sync.WaitGroup
}

func newFetchGroup(logger zerolog.Logger) *fetchGroup {
	root, stop := context.WithCancel(context.Background())
	return &fetchGroup{logger: logger, root: root, stop: stop}
}

// Start appelle prepare sous le verrou du groupe; s'il renvoie false rien
// ne change. Sinon la génération est incrémentée, la requête courante
// annulée, et run (s'il est non nil) démarre dans sa propre goroutine.
func (g *fetchGroup) Start(prepare func() bool, run func(ctx context.Context, gen uint64, log zerolog.Logger)) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed {
		return false
	}
	if prepare != nil && !prepare() {
		return false
	}
	g.gen++
	gen := g.gen
	if g.cancel != nil {
		g.cancel()
		g.cancel = nil
	}
	if run == nil {
		return true
	}

	ctx, cancel := context.WithCancel(g.root)
	g.cancel = cancel
	log := g.logger.With().Str("fetch", xid.New().String()).Logger()
	g.wg.Add(1)
	go func() {
		defer g.wg.Done()
		log.Debug().Uint64("gen", gen).Msg("fetch started")
		run(ctx, gen, log)
	}()
	return true
}

// Commit applique apply seulement si gen est toujours la génération courante.
func (g *fetchGroup) Commit(gen uint64, apply func()) bool {
	g.mu.Lock()
	defer g.mu.Unlock()
	if g.closed || gen != g.gen {
		return false
	}
	apply()
	return true
}

// Locked exécute fn sous le verrou du groupe, sans changer de génération.
func (g *fetchGroup) Locked(fn func()) {
	g.mu.Lock()
	defer g.mu.Unlock()
	fn()
}

// Wait attend la fin de toutes les requêtes lancées.
func (g *fetchGroup) Wait() {
	g.wg.Wait()
}

func (g *fetchGroup) Close() {
	g.mu.Lock()
	if g.closed {
		g.mu.Unlock()
		return
	}
	g.closed = true
	g.stop()
	g.mu.Unlock()
	g.wg.Wait()
}
