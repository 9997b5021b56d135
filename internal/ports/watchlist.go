package ports

import (
	"context"
	"time"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

// WatchlistRepository est le store local de la watchlist (une seule table).
// Toutes les mutations sont last-writer-wins.
type WatchlistRepository interface {
	// Upsert crée ou remplace l'entrée portant le même AnimeID.
	Upsert(ctx context.Context, entry domain.WatchlistEntry) (domain.WatchlistEntry, error)
	UpdateProgress(ctx context.Context, animeID string, episode int, at time.Time) error
	UpdateStatus(ctx context.Context, animeID string, status domain.WatchStatus, at time.Time) error
	Delete(ctx context.Context, animeID string) error
	Get(ctx context.Context, animeID string) (domain.WatchlistEntry, error)
	// List et ListByStatus renvoient les entrées de la plus récente à la plus ancienne.
	List(ctx context.Context) ([]domain.WatchlistEntry, error)
	ListByStatus(ctx context.Context, status domain.WatchStatus) ([]domain.WatchlistEntry, error)
	Count(ctx context.Context) (int, error)
	CountByStatus(ctx context.Context, status domain.WatchStatus) (int, error)
	RecentTitles(ctx context.Context, statuses []domain.WatchStatus, limit int) ([]string, error)
}
