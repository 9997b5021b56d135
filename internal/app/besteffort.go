package app

import (
	"context"

	"github.com/rs/zerolog"
)

// BestEffortResult décrit l'issue d'une tâche secondaire.
type BestEffortResult struct {
	Task string
	Err  error
}

func (r BestEffortResult) OK() bool { return r.Err == nil }

// RunBestEffort exécute une tâche non critique: l'échec est journalisé
// en warn et n'est jamais propagé.
func RunBestEffort(ctx context.Context, logger zerolog.Logger, task string, fn func(ctx context.Context) error) BestEffortResult {
	err := fn(ctx)
	res := BestEffortResult{Task: task, Err: err}
	if err != nil {
		if ctx.Err() != nil {
			logger.Debug().Str("task", task).Err(err).Msg("best-effort task canceled")
		} else {
			logger.Warn().Str("task", task).Err(err).Msg("best-effort task failed")
		}
	}
	return res
}
