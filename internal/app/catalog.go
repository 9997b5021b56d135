package app

import (
	"context"
	"errors"
	"strings"

	"github.com/rs/zerolog"
	"github.com/samber/lo"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const unknownValue = "Unknown"

type CardKind string

const (
	CardCommon    CardKind = "common"
	CardSpotlight CardKind = "spotlight"
	CardTrending  CardKind = "trending"
	CardTop10     CardKind = "top10"
)

// AnimeCard est la vue unique de toutes les formes d'anime du catalogue.
// Les champs optionnels dépendent de Kind.
type AnimeCard struct {
	Kind        CardKind         `json:"kind"`
	ID          string           `json:"id"`
	Name        string           `json:"name"`
	Poster      string           `json:"poster"`
	JName       string           `json:"jname,omitempty"`
	Type        string           `json:"type,omitempty"`
	Duration    string           `json:"duration,omitempty"`
	Rating      string           `json:"rating,omitempty"`
	Rank        int              `json:"rank,omitempty"`
	Description string           `json:"description,omitempty"`
	OtherInfo   []string         `json:"otherInfo,omitempty"`
	Episodes    *domain.Episodes `json:"episodes,omitempty"`
}

func CardFromSummary(a domain.AnimeSummary) AnimeCard {
	return AnimeCard{
		Kind:     CardCommon,
		ID:       a.ID,
		Name:     a.Name,
		Poster:   a.Poster,
		JName:    a.JName,
		Type:     a.Type,
		Duration: a.Duration,
		Rating:   a.Rating,
		Episodes: a.Episodes,
	}
}

func CardFromSpotlight(a domain.SpotlightAnime) AnimeCard {
	return AnimeCard{
		Kind:        CardSpotlight,
		ID:          a.ID,
		Name:        a.Name,
		Poster:      a.Poster,
		JName:       a.JName,
		Rank:        a.Rank,
		Description: a.Description,
		OtherInfo:   a.OtherInfo,
		Episodes:    a.Episodes,
	}
}

func CardFromTrending(a domain.TrendingAnime) AnimeCard {
	return AnimeCard{Kind: CardTrending, ID: a.ID, Name: a.Name, Poster: a.Poster, Rank: a.Rank}
}

func CardFromTop10(a domain.Top10Anime) AnimeCard {
	return AnimeCard{Kind: CardTop10, ID: a.ID, Name: a.Name, Poster: a.Poster, Rank: a.Rank, Episodes: a.Episodes}
}

func cards[T any](items []T, conv func(T) AnimeCard) []AnimeCard {
	return lo.Map(items, func(it T, _ int) AnimeCard { return conv(it) })
}

type HomeFeed struct {
	Genres          []string    `json:"genres"`
	Spotlight       []AnimeCard `json:"spotlight"`
	Trending        []AnimeCard `json:"trending"`
	Top10Today      []AnimeCard `json:"top10Today"`
	Top10Week       []AnimeCard `json:"top10Week"`
	Top10Month      []AnimeCard `json:"top10Month"`
	LatestEpisodes  []AnimeCard `json:"latestEpisodes"`
	TopAiring       []AnimeCard `json:"topAiring"`
	TopUpcoming     []AnimeCard `json:"topUpcoming"`
	MostPopular     []AnimeCard `json:"mostPopular"`
	MostFavorite    []AnimeCard `json:"mostFavorite"`
	LatestCompleted []AnimeCard `json:"latestCompleted"`
}

func NewHomeFeed(d domain.HomeData) HomeFeed {
	feed := HomeFeed{
		Genres:          lo.Ternary(d.Genres == nil, []string{}, d.Genres),
		Spotlight:       cards(d.Spotlight, CardFromSpotlight),
		Trending:        cards(d.Trending, CardFromTrending),
		LatestEpisodes:  cards(d.LatestEpisode, CardFromSummary),
		TopAiring:       cards(d.TopAiring, CardFromSummary),
		TopUpcoming:     cards(d.TopUpcoming, CardFromSummary),
		MostPopular:     cards(d.MostPopular, CardFromSummary),
		MostFavorite:    cards(d.MostFavorite, CardFromSummary),
		LatestCompleted: cards(d.LatestCompleted, CardFromSummary),
		Top10Today:      []AnimeCard{},
		Top10Week:       []AnimeCard{},
		Top10Month:      []AnimeCard{},
	}
	if d.Top10 != nil {
		feed.Top10Today = cards(d.Top10.Today, CardFromTop10)
		feed.Top10Week = cards(d.Top10.Week, CardFromTop10)
		feed.Top10Month = cards(d.Top10.Month, CardFromTop10)
	}
	return feed
}

type AnimeStats struct {
	Rating   string          `json:"rating"`
	Episodes domain.Episodes `json:"episodes"`
	Type     string          `json:"type"`
	Duration string          `json:"duration"`
}

type AnimeInfo struct {
	ID          string     `json:"id"`
	Name        string     `json:"name"`
	Poster      string     `json:"poster"`
	Description string     `json:"description"`
	Stats       AnimeStats `json:"stats"`
}

type AnimeMoreInfo struct {
	Genres    []string `json:"genres"`
	Status    string   `json:"status,omitempty"`
	Studios   []string `json:"studios"`
	Producers []string `json:"producers"`
	Duration  string   `json:"duration,omitempty"`
	Japanese  string   `json:"japanese,omitempty"`
	MalScore  string   `json:"malScore,omitempty"`
}

// AnimeDetails est la vue imbriquée des détails d'un anime.
type AnimeDetails struct {
	Info        AnimeInfo       `json:"info"`
	MoreInfo    AnimeMoreInfo   `json:"moreInfo"`
	MostPopular []AnimeCard     `json:"mostPopular"`
	Recommended []AnimeCard     `json:"recommended"`
	Related     []AnimeCard     `json:"related"`
	Seasons     []domain.Season `json:"seasons"`
}

func NewAnimeDetails(dto domain.AnimeDetailsDTO) AnimeDetails {
	return AnimeDetails{
		Info: AnimeInfo{
			ID:          dto.ID,
			Name:        dto.Name,
			Poster:      dto.Poster,
			Description: lo.FromPtr(dto.Description),
			Stats: AnimeStats{
				Rating:   dto.Rating,
				Episodes: lo.FromPtr(dto.Episodes),
				Type:     lo.FromPtrOr(dto.Type, unknownValue),
				Duration: lo.FromPtrOr(dto.Duration, unknownValue),
			},
		},
		MoreInfo: AnimeMoreInfo{
			Genres:    orEmpty(dto.Genres),
			Status:    dto.Status,
			Studios:   orEmpty(dto.Studios),
			Producers: orEmpty(dto.Producers),
			Duration:  lo.FromPtr(dto.Duration),
			Japanese:  dto.Japanese,
			MalScore:  dto.MalScore,
		},
		MostPopular: cards(dto.MostPopular, CardFromSummary),
		Recommended: cards(dto.Recommended, CardFromSummary),
		Related:     cards(dto.Related, CardFromSummary),
		Seasons:     orEmpty(dto.MoreSeasons),
	}
}

type EpisodeList struct {
	TotalEpisodes int              `json:"totalEpisodes"`
	Episodes      []domain.Episode `json:"episodes"`
}

func orEmpty[T any](s []T) []T {
	if s == nil {
		return []T{}
	}
	return s
}

// CatalogService est la couche repository devant le catalogue distant.
// Les échecs de transport sont repliés dans une enveloppe success=false;
// l'erreur d'origine est renvoyée à côté pour le diagnostic.
type CatalogService struct {
	catalog ports.Catalog
	logger  zerolog.Logger
}

func NewCatalogService(catalog ports.Catalog, logger zerolog.Logger) *CatalogService {
	return &CatalogService{catalog: catalog, logger: logger.With().Str("component", "catalog").Logger()}
}

func fold[T any](s *CatalogService, op string, env domain.Envelope[T], err error) (domain.Envelope[T], error) {
	if err != nil {
		if errors.Is(err, context.Canceled) {
			s.logger.Debug().Str("op", op).Msg("catalog request canceled")
		} else {
			s.logger.Warn().Err(err).Str("op", op).Msg("catalog request failed")
		}
		return domain.Failed[T](env.Status), err
	}
	return env, nil
}

// reshape convertit la donnée d'une enveloppe réussie; un échec est propagé tel quel.
func reshape[T, U any](env domain.Envelope[T], conv func(T) U) domain.Envelope[U] {
	if !env.OK() {
		return domain.Envelope[U]{Success: env.Success, Status: env.Status}
	}
	out := domain.Succeeded(conv(*env.Data))
	out.Status = env.Status
	return out
}

func (s *CatalogService) Home(ctx context.Context) (domain.Envelope[HomeFeed], error) {
	raw, err := s.catalog.Home(ctx)
	env, err := fold(s, "home", raw, err)
	return reshape(env, NewHomeFeed), err
}

func (s *CatalogService) Search(ctx context.Context, query string, page int, filters map[string]string) (domain.Envelope[domain.PagedAnimes], error) {
	env, err := s.catalog.Search(ctx, query, page, filters)
	return fold(s, "search", env, err)
}

func (s *CatalogService) Suggestions(ctx context.Context, query string) (domain.Envelope[domain.SuggestionResponse], error) {
	env, err := s.catalog.Suggestions(ctx, query)
	return fold(s, "suggestion", env, err)
}

func (s *CatalogService) Details(ctx context.Context, animeID string) (domain.Envelope[AnimeDetails], error) {
	raw, err := s.catalog.Details(ctx, animeID)
	env, err := fold(s, "details", raw, err)
	return reshape(env, NewAnimeDetails), err
}

func (s *CatalogService) Episodes(ctx context.Context, animeID string) (domain.Envelope[EpisodeList], error) {
	raw, err := s.catalog.Episodes(ctx, animeID)
	env, err := fold(s, "episodes", raw, err)
	return reshape(env, func(eps []domain.Episode) EpisodeList {
		return EpisodeList{TotalEpisodes: len(eps), Episodes: orEmpty(eps)}
	}), err
}

func (s *CatalogService) Servers(ctx context.Context, episodeID string) (domain.Envelope[domain.EpisodeServers], error) {
	env, err := s.catalog.Servers(ctx, episodeID)
	return fold(s, "servers", env, err)
}

func (s *CatalogService) StreamingSources(ctx context.Context, episodeID, server, category string) (domain.Envelope[domain.StreamingResponse], error) {
	env, err := s.catalog.StreamingSources(ctx, episodeID, server, category)
	return fold(s, "stream", env, err)
}

func (s *CatalogService) Genre(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	env, err := s.catalog.Genre(ctx, name, page)
	return fold(s, "genre", env, err)
}

func (s *CatalogService) Category(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	env, err := s.catalog.Category(ctx, name, page)
	return fold(s, "category", env, err)
}

func (s *CatalogService) AZList(ctx context.Context, sortOption string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	env, err := s.catalog.AZList(ctx, sortOption, page)
	return fold(s, "az-list", env, err)
}

func (s *CatalogService) Schedule(ctx context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error) {
	env, err := s.catalog.EstimatedSchedule(ctx, date)
	return fold(s, "schedule", env, err)
}

func (s *CatalogService) Characters(ctx context.Context, animeID string) (domain.Envelope[domain.CharacterPage], error) {
	env, err := s.catalog.Characters(ctx, animeID)
	return fold(s, "characters", env, err)
}

func (s *CatalogService) NextEpisode(ctx context.Context, animeID string) (domain.Envelope[domain.NextEpisode], error) {
	env, err := s.catalog.NextEpisodeSchedule(ctx, animeID)
	return fold(s, "next-episode", env, err)
}

// Listing résout une clé de navigation vers l'endpoint correspondant.
func (s *CatalogService) Listing(ctx context.Context, key BrowseKey, page int) (domain.Envelope[domain.PagedAnimes], error) {
	switch key.Kind {
	case BrowseGenre:
		return s.Genre(ctx, key.Query, page)
	case BrowseCategory:
		return s.Category(ctx, key.Query, page)
	case BrowseAZ:
		return s.AZList(ctx, key.Query, page)
	default:
		return domain.Failed[domain.PagedAnimes](0), invalidParams("unknown browse kind "+strings.TrimSpace(string(key.Kind)), nil)
	}
}

// FallbackServers est la table de repli explicite des serveurs de stream (un seul niveau).
var FallbackServers = map[string]string{"hd-1": "hd-2"}

func fallbackFor(server string) (string, bool) {
	fb, ok := FallbackServers[strings.ToLower(strings.TrimSpace(server))]
	return fb, ok
}

func hasLink(env domain.Envelope[domain.StreamingResponse]) bool {
	return env.OK() && env.Data.Link != nil
}

// StreamWithFallback interroge server puis, s'il échoue ou ne renvoie aucun lien,
// son serveur de repli une seule fois. Le serveur renvoyé est celui à retenir:
// le repli s'il a répondu success, sinon server.
func (s *CatalogService) StreamWithFallback(ctx context.Context, episodeID, server, category string) (domain.Envelope[domain.StreamingResponse], string, error) {
	env, err := s.StreamingSources(ctx, episodeID, server, category)
	if hasLink(env) {
		return env, server, nil
	}
	fb, ok := fallbackFor(server)
	if !ok || ctx.Err() != nil {
		return env, server, err
	}
	s.logger.Warn().
		Str("episode", episodeID).
		Str("server", server).
		Str("fallback", fb).
		Bool("success", env.Success).
		Msg("stream server failed, trying fallback")

	env, err = s.StreamingSources(ctx, episodeID, fb, category)
	if env.Success {
		return env, fb, err
	}
	return env, server, err
}
