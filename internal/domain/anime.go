package domain

// Episodes holds subbed/dubbed episode counts; either may be unknown.
type Episodes struct {
	Sub *int `json:"sub,omitempty"`
	Dub *int `json:"dub,omitempty"`
}

// AnimeSummary is the common anime shape returned by listings, search and rails.
type AnimeSummary struct {
	ID       string    `json:"id"`
	Name     string    `json:"title,omitempty"`
	Poster   string    `json:"poster"`
	JName    string    `json:"jname,omitempty"`
	Type     string    `json:"type,omitempty"`
	Duration string    `json:"duration,omitempty"`
	Rating   string    `json:"rating,omitempty"`
	Episodes *Episodes `json:"episodes,omitempty"`
}

type SpotlightAnime struct {
	ID          string    `json:"id"`
	Name        string    `json:"title,omitempty"`
	JName       string    `json:"jname,omitempty"`
	Poster      string    `json:"poster"`
	Description string    `json:"description,omitempty"`
	Rank        int       `json:"rank"`
	OtherInfo   []string  `json:"otherInfo,omitempty"`
	Episodes    *Episodes `json:"episodes,omitempty"`
}

type TrendingAnime struct {
	ID     string `json:"id"`
	Name   string `json:"title,omitempty"`
	Poster string `json:"poster"`
	Rank   int    `json:"rank"`
}

type Top10Anime struct {
	ID       string    `json:"id"`
	Name     string    `json:"title,omitempty"`
	Poster   string    `json:"poster"`
	Rank     int       `json:"rank"`
	Episodes *Episodes `json:"episodes,omitempty"`
}

type Top10Data struct {
	Today []Top10Anime `json:"today"`
	Week  []Top10Anime `json:"week"`
	Month []Top10Anime `json:"month"`
}

// HomeData is the home feed payload.
type HomeData struct {
	Genres          []string         `json:"genres"`
	LatestEpisode   []AnimeSummary   `json:"latestEpisode"`
	Spotlight       []SpotlightAnime `json:"spotlight"`
	Top10           *Top10Data       `json:"top10,omitempty"`
	TopAiring       []AnimeSummary   `json:"topAiring"`
	TopUpcoming     []AnimeSummary   `json:"topUpcoming"`
	Trending        []TrendingAnime  `json:"trending"`
	MostPopular     []AnimeSummary   `json:"mostPopular"`
	MostFavorite    []AnimeSummary   `json:"mostFavorite"`
	LatestCompleted []AnimeSummary   `json:"latestCompleted"`
}

type Season struct {
	ID       string `json:"id"`
	Name     string `json:"title,omitempty"`
	AltTitle string `json:"alternativeTitle,omitempty"`
	Poster   string `json:"poster,omitempty"`
	IsActive bool   `json:"isActive"`
}

// AnimeDetailsDTO is the flat details payload as served by the API.
// The app layer reshapes it into a nested view model.
type AnimeDetailsDTO struct {
	ID          string    `json:"id"`
	Name        string    `json:"title"`
	Poster      string    `json:"poster"`
	Description *string   `json:"synopsis,omitempty"`
	JName       string    `json:"alternativeTitle,omitempty"`
	Japanese    string    `json:"japanese,omitempty"`
	Rating      string    `json:"rating,omitempty"`
	Type        *string   `json:"type,omitempty"`
	Duration    *string   `json:"duration,omitempty"`
	Episodes    *Episodes `json:"episodes,omitempty"`
	Genres      []string  `json:"genres"`
	Studios     []string  `json:"studios"`
	Producers   []string  `json:"producers"`
	Status      string    `json:"status,omitempty"`
	MalScore    string    `json:"MAL_score,omitempty"`

	MostPopular []AnimeSummary `json:"mostPopular"`
	Recommended []AnimeSummary `json:"recommended"`
	Related     []AnimeSummary `json:"related"`
	MoreSeasons []Season       `json:"moreSeasons"`
}

type Episode struct {
	Number   int    `json:"episodeNumber"`
	Title    string `json:"title,omitempty"`
	ID       string `json:"id"`
	IsFiller bool   `json:"isFiller"`
}

type Server struct {
	ServerID   int    `json:"serverId"`
	ServerName string `json:"serverName"`
}

type EpisodeServers struct {
	EpisodeID string   `json:"episodeId"`
	EpisodeNo int      `json:"episodeNo"`
	Sub       []Server `json:"sub"`
	Dub       []Server `json:"dub"`
	Raw       []Server `json:"raw"`
}

type StreamLink struct {
	File string `json:"file"`
	Type string `json:"type,omitempty"`
}

// Track is a subtitle/thumbnail track descriptor attached to a stream.
type Track struct {
	File    string `json:"file"`
	Kind    string `json:"kind"`
	Label   string `json:"label,omitempty"`
	Default bool   `json:"default"`
}

type StreamingResponse struct {
	Headers   map[string]string `json:"headers,omitempty"`
	Link      *StreamLink       `json:"link,omitempty"`
	Tracks    []Track           `json:"tracks"`
	AniListID *int              `json:"anilistID,omitempty"`
	MalID     *int              `json:"malID,omitempty"`
}

type PageInfo struct {
	TotalPages  int  `json:"totalPages"`
	CurrentPage int  `json:"currentPage"`
	HasNextPage bool `json:"hasNextPage"`
}

// PagedAnimes is shared by search, genre, category and A-Z responses.
type PagedAnimes struct {
	PageInfo *PageInfo      `json:"pageInfo,omitempty"`
	Animes   []AnimeSummary `json:"response"`
}

// HasNext is false when page info is missing.
func (p PagedAnimes) HasNext() bool {
	return p.PageInfo != nil && p.PageInfo.HasNextPage
}

type SearchSuggestion struct {
	ID       string   `json:"id"`
	Name     string   `json:"title,omitempty"`
	Poster   string   `json:"poster"`
	JName    string   `json:"jname,omitempty"`
	MoreInfo []string `json:"moreInfo,omitempty"`
}

type SuggestionResponse struct {
	Suggestions []SearchSuggestion `json:"data"`
}

type ScheduledAnime struct {
	ID                 string `json:"id"`
	Time               string `json:"time"`
	Name               string `json:"title"`
	JName              string `json:"jname,omitempty"`
	AiringTimestamp    int64  `json:"airingTimestamp"`
	SecondsUntilAiring int64  `json:"secondsUntilAiring"`
}

type ScheduleResponse struct {
	Date            string           `json:"date,omitempty"`
	TimeZoneOffset  *int             `json:"timeZoneOffset,omitempty"`
	ScheduledAnimes []ScheduledAnime `json:"scheduledAnimes"`
}

type VoiceActorItem struct {
	ID       string `json:"id,omitempty"`
	Name     string `json:"name,omitempty"`
	ImageURL string `json:"imageUrl,omitempty"`
	Cast     string `json:"cast,omitempty"`
}

type CharacterItem struct {
	ID          string           `json:"id,omitempty"`
	Name        string           `json:"name,omitempty"`
	ImageURL    string           `json:"imageUrl,omitempty"`
	Role        string           `json:"role,omitempty"`
	VoiceActors []VoiceActorItem `json:"voiceActors"`
}

type CharacterPage struct {
	PageInfo *PageInfo       `json:"pageInfo,omitempty"`
	Response []CharacterItem `json:"response"`
}

type NextEpisode struct {
	Time string `json:"time,omitempty"`
}
