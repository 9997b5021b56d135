package hianime

import (
	"context"
	"encoding/json"
	"io"
	"net"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"github.com/rs/zerolog"
	"golang.org/x/time/rate"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

const (
	DefaultServer   = "hd-1"
	DefaultCategory = "sub"
	DefaultAZSort   = "all"

	defaultTimeout = 60 * time.Second
	maxBodyBytes   = 8 << 20
)

type Options struct {
	BaseURL   string
	Timeout   time.Duration
	RateLimit float64
	RateBurst int
	UserAgent string
	Logger    zerolog.Logger
	// HTTPClient remplace le client construit à partir de Timeout (tests).
	HTTPClient *http.Client
}

// Client implémente ports.Catalog au-dessus de l'API REST hianime.
type Client struct {
	base      string
	client    *http.Client
	limiter   *rate.Limiter
	userAgent string
	logger    zerolog.Logger
}

func New(opts Options) *Client {
	timeout := opts.Timeout
	if timeout <= 0 {
		timeout = defaultTimeout
	}
	client := opts.HTTPClient
	if client == nil {
		client = &http.Client{Transport: newTransport(timeout)}
	}
	limit := rate.Inf
	if opts.RateLimit > 0 {
		limit = rate.Limit(opts.RateLimit)
	}
	burst := opts.RateBurst
	if burst <= 0 {
		burst = 1
	}
	ua := strings.TrimSpace(opts.UserAgent)
	if ua == "" {
		ua = "kitsu"
	}
	return &Client{
		base:      strings.TrimRight(strings.TrimSpace(opts.BaseURL), "/") + "/",
		client:    client,
		limiter:   rate.NewLimiter(limit, burst),
		userAgent: ua,
		logger:    opts.Logger,
	}
}

// Pas de timeout global: chaque phase (dial, TLS, en-têtes, lecture et
// écriture sur la connexion) a le sien.
func newTransport(timeout time.Duration) *http.Transport {
	t := http.DefaultTransport.(*http.Transport).Clone()
	dialer := &net.Dialer{Timeout: timeout, KeepAlive: 30 * time.Second}
	t.DialContext = func(ctx context.Context, network, addr string) (net.Conn, error) {
		conn, err := dialer.DialContext(ctx, network, addr)
		if err != nil {
			return nil, err
		}
		return &deadlineConn{Conn: conn, timeout: timeout}, nil
	}
	t.TLSHandshakeTimeout = timeout
	t.ResponseHeaderTimeout = timeout
	t.IdleConnTimeout = timeout
	t.MaxIdleConnsPerHost = 10
	return t
}

// deadlineConn réarme une échéance à chaque Read/Write: un serveur qui
// s'arrête au milieu d'un corps fait échouer la lecture après timeout.
type deadlineConn struct {
	net.Conn
	timeout time.Duration
}

func (c *deadlineConn) Read(p []byte) (int, error) {
	if err := c.Conn.SetReadDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Read(p)
}

// Write repousse aussi l'échéance de lecture: une connexion réutilisée
// depuis le pool a un Read en attente armé au début de son inactivité.
func (c *deadlineConn) Write(p []byte) (int, error) {
	if err := c.Conn.SetDeadline(time.Now().Add(c.timeout)); err != nil {
		return 0, err
	}
	return c.Conn.Write(p)
}

func (c *Client) Home(ctx context.Context) (domain.Envelope[domain.HomeData], error) {
	return get[domain.HomeData](ctx, c, "home", "api/v1/home", nil)
}

func (c *Client) Search(ctx context.Context, query string, page int, filters map[string]string) (domain.Envelope[domain.PagedAnimes], error) {
	q := url.Values{}
	for k, v := range filters {
		q.Set(k, v)
	}
	q.Set("keyword", query)
	q.Set("page", strconv.Itoa(normPage(page)))
	return get[domain.PagedAnimes](ctx, c, "search", "api/v1/search", q)
}

func (c *Client) Suggestions(ctx context.Context, query string) (domain.Envelope[domain.SuggestionResponse], error) {
	return get[domain.SuggestionResponse](ctx, c, "suggestion", "api/v1/suggestion", url.Values{"keyword": {query}})
}

func (c *Client) Details(ctx context.Context, animeID string) (domain.Envelope[domain.AnimeDetailsDTO], error) {
	return get[domain.AnimeDetailsDTO](ctx, c, "details", "api/v1/anime/"+url.PathEscape(animeID), nil)
}

func (c *Client) Episodes(ctx context.Context, animeID string) (domain.Envelope[[]domain.Episode], error) {
	return get[[]domain.Episode](ctx, c, "episodes", "api/v1/episodes/"+url.PathEscape(animeID), nil)
}

func (c *Client) Servers(ctx context.Context, episodeID string) (domain.Envelope[domain.EpisodeServers], error) {
	return get[domain.EpisodeServers](ctx, c, "servers", "api/v1/servers", url.Values{"id": {episodeID}})
}

func (c *Client) StreamingSources(ctx context.Context, episodeID, server, category string) (domain.Envelope[domain.StreamingResponse], error) {
	if strings.TrimSpace(server) == "" {
		server = DefaultServer
	}
	if strings.TrimSpace(category) == "" {
		category = DefaultCategory
	}
	q := url.Values{"id": {episodeID}, "server": {server}, "type": {category}}
	return get[domain.StreamingResponse](ctx, c, "stream", "api/v1/stream", q)
}

func (c *Client) Genre(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	return get[domain.PagedAnimes](ctx, c, "genre", "api/v1/animes/genre/"+url.PathEscape(name), pageQuery(page))
}

func (c *Client) Category(ctx context.Context, name string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	return get[domain.PagedAnimes](ctx, c, "category", "api/v1/animes/"+url.PathEscape(name), pageQuery(page))
}

func (c *Client) AZList(ctx context.Context, sortOption string, page int) (domain.Envelope[domain.PagedAnimes], error) {
	if strings.TrimSpace(sortOption) == "" {
		sortOption = DefaultAZSort
	}
	return get[domain.PagedAnimes](ctx, c, "az-list", "api/v1/animes/az-list/"+url.PathEscape(sortOption), pageQuery(page))
}

// EstimatedSchedule attend une date YYYY-MM-DD. Le chemin "schadule" est celui de l'API.
func (c *Client) EstimatedSchedule(ctx context.Context, date string) (domain.Envelope[domain.ScheduleResponse], error) {
	return get[domain.ScheduleResponse](ctx, c, "schedule", "api/v1/schadule", url.Values{"date": {date}})
}

func (c *Client) Characters(ctx context.Context, animeID string) (domain.Envelope[domain.CharacterPage], error) {
	return get[domain.CharacterPage](ctx, c, "characters", "api/v1/characters/"+url.PathEscape(animeID), nil)
}

func (c *Client) NextEpisodeSchedule(ctx context.Context, animeID string) (domain.Envelope[domain.NextEpisode], error) {
	return get[domain.NextEpisode](ctx, c, "next-episode", "api/v1/schadule/next/"+url.PathEscape(animeID), nil)
}

func get[T any](ctx context.Context, c *Client, op, path string, q url.Values) (domain.Envelope[T], error) {
	if err := c.limiter.Wait(ctx); err != nil {
		return domain.Failed[T](0), &Error{Op: op, Code: CodeNetwork, Err: err}
	}

	target := c.base + path
	if len(q) > 0 {
		target += "?" + q.Encode()
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, target, nil)
	if err != nil {
		return domain.Failed[T](0), &Error{Op: op, Code: CodeNetwork, Err: err}
	}
	req.Header.Set("Accept", "application/json")
	req.Header.Set("User-Agent", c.userAgent)

	started := time.Now()
	resp, err := c.client.Do(req)
	if err != nil {
		c.logger.Debug().Err(err).Str("op", op).Dur("duration", time.Since(started)).Msg("catalog request failed")
		return domain.Failed[T](0), &Error{Op: op, Code: CodeNetwork, Err: err}
	}
	defer resp.Body.Close()

	c.logger.Debug().
		Str("op", op).
		Int("status", resp.StatusCode).
		Dur("duration", time.Since(started)).
		Msg("catalog request")

	body, err := io.ReadAll(io.LimitReader(resp.Body, maxBodyBytes))
	if err != nil {
		return domain.Failed[T](resp.StatusCode), &Error{Op: op, Code: CodeNetwork, Status: resp.StatusCode, Err: err}
	}

	var env domain.Envelope[T]
	decodeErr := json.Unmarshal(body, &env)

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		if decodeErr != nil {
			return domain.Failed[T](resp.StatusCode), &Error{Op: op, Code: CodeHTTPStatus, Status: resp.StatusCode}
		}
		// L'API renvoie souvent {success:false,...} avec un code d'erreur: c'est une enveloppe valide.
		env.Success = false
		if env.Status == 0 {
			env.Status = resp.StatusCode
		}
		return env, nil
	}
	if decodeErr != nil {
		return domain.Failed[T](resp.StatusCode), &Error{Op: op, Code: CodeDecode, Status: resp.StatusCode, Err: decodeErr}
	}
	if env.Status == 0 {
		env.Status = resp.StatusCode
	}
	return env, nil
}

func normPage(page int) int {
	if page < 1 {
		return 1
	}
	return page
}

func pageQuery(page int) url.Values {
	return url.Values{"page": {strconv.Itoa(normPage(page))}}
}
