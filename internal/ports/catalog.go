package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

// Catalog is the remote anime catalog. A non-nil error means the request
// never produced a decodable envelope (network or decoding failure).
type Catalog interface {
	Home(ctx context.Context) (domain.Envelope[domain.HomeData], error)
	Search(ctx context.Context, query string, page int, filters map[string]string) (domain.Envelope[domain.PagedAnimes], error)
	Suggestions(ctx context.Context, query string) (domain.Envelope[domain.SuggestionResponse], error)
	Details(ctx context.Context, animeID string) (domain.Envelope[domain.AnimeDetailsDTO], error)
	Episodes(ctx context.Context, animeID string) (domain.Envelope[[]domain.Episode], error)
	Servers(ctx context.Context, episodeID string) (domain.Envelope[domain.EpisodeServers], error)
	StreamingSources(ctx context.Context, episodeID, server, category string) (domain.Envelope[domain.StreamingResponse], error)
	Genre(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error)
	Category(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error)
	AZList(ctx context.Context, sortOption string, page int) (domain.Envelope[domain.PagedAnimes], error)
	EstimatedSchedule(ctx context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error)
	Characters(ctx context.Context, animeID string) (domain.Envelope[domain.CharacterPage], error)
	NextEpisodeSchedule(ctx context.Context, animeID string) (domain.Envelope[domain.NextEpisode], error)
}
