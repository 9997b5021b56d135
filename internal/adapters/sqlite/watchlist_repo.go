package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"strings"
	"time"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const watchlistColumns = `anime_id, title, poster_url, current_episode, total_episodes, status, added_at, last_updated, media_type`

type WatchlistRepository struct {
	db *sql.DB
}

func NewWatchlistRepository(db *sql.DB) *WatchlistRepository {
	return &WatchlistRepository{db: db}
}

func (r *WatchlistRepository) Upsert(ctx context.Context, e domain.WatchlistEntry) (domain.WatchlistEntry, error) {
	_, err := r.db.ExecContext(ctx, `
		INSERT INTO watchlist(`+watchlistColumns+`)
		VALUES(?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(anime_id) DO UPDATE SET
			title = excluded.title,
			poster_url = excluded.poster_url,
			current_episode = excluded.current_episode,
			total_episodes = excluded.total_episodes,
			status = excluded.status,
			added_at = excluded.added_at,
			last_updated = excluded.last_updated,
			media_type = excluded.media_type
	`,
		e.AnimeID, e.Title, e.PosterURL, e.CurrentEpisode, nullInt(e.TotalEpisodes), string(e.Status),
		toMillis(e.AddedAt), toMillis(e.LastUpdated), nullString(e.Type),
	)
	if err != nil {
		return domain.WatchlistEntry{}, err
	}
	return r.Get(ctx, e.AnimeID)
}

func (r *WatchlistRepository) UpdateProgress(ctx context.Context, animeID string, episode int, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE watchlist SET current_episode = ?, last_updated = ? WHERE anime_id = ?
	`, episode, toMillis(at), animeID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *WatchlistRepository) UpdateStatus(ctx context.Context, animeID string, status domain.WatchStatus, at time.Time) error {
	res, err := r.db.ExecContext(ctx, `
		UPDATE watchlist SET status = ?, last_updated = ? WHERE anime_id = ?
	`, string(status), toMillis(at), animeID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *WatchlistRepository) Delete(ctx context.Context, animeID string) error {
	res, err := r.db.ExecContext(ctx, `DELETE FROM watchlist WHERE anime_id = ?`, animeID)
	if err != nil {
		return err
	}
	return expectOneRow(res)
}

func (r *WatchlistRepository) Get(ctx context.Context, animeID string) (domain.WatchlistEntry, error) {
	row := r.db.QueryRowContext(ctx, `SELECT `+watchlistColumns+` FROM watchlist WHERE anime_id = ?`, animeID)
	e, err := scanEntry(row)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return domain.WatchlistEntry{}, ports.ErrNotFound
		}
		return domain.WatchlistEntry{}, err
	}
	return e, nil
}

func (r *WatchlistRepository) List(ctx context.Context) ([]domain.WatchlistEntry, error) {
	return r.query(ctx, `SELECT `+watchlistColumns+` FROM watchlist ORDER BY last_updated DESC, anime_id ASC`)
}

func (r *WatchlistRepository) ListByStatus(ctx context.Context, status domain.WatchStatus) ([]domain.WatchlistEntry, error) {
	return r.query(ctx, `
		SELECT `+watchlistColumns+` FROM watchlist
		WHERE status = ?
		ORDER BY last_updated DESC, anime_id ASC
	`, string(status))
}

func (r *WatchlistRepository) Count(ctx context.Context) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchlist`).Scan(&n)
	return n, err
}

func (r *WatchlistRepository) CountByStatus(ctx context.Context, status domain.WatchStatus) (int, error) {
	var n int
	err := r.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM watchlist WHERE status = ?`, string(status)).Scan(&n)
	return n, err
}

func (r *WatchlistRepository) RecentTitles(ctx context.Context, statuses []domain.WatchStatus, limit int) ([]string, error) {
	if len(statuses) == 0 {
		return []string{}, nil
	}
	if limit <= 0 {
		limit = 20
	}
	placeholders := strings.TrimSuffix(strings.Repeat("?,", len(statuses)), ",")
	args := make([]any, 0, len(statuses)+1)
	for _, s := range statuses {
		args = append(args, string(s))
	}
	args = append(args, limit)

	rows, err := r.db.QueryContext(ctx, `
		SELECT title FROM watchlist
		WHERE status IN (`+placeholders+`)
		ORDER BY last_updated DESC
		LIMIT ?
	`, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []string{}
	for rows.Next() {
		var title string
		if err := rows.Scan(&title); err != nil {
			return nil, err
		}
		out = append(out, title)
	}
	return out, rows.Err()
}

func (r *WatchlistRepository) query(ctx context.Context, q string, args ...any) ([]domain.WatchlistEntry, error) {
	rows, err := r.db.QueryContext(ctx, q, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := make([]domain.WatchlistEntry, 0)
	for rows.Next() {
		e, err := scanEntry(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, e)
	}
	return out, rows.Err()
}

type scanner interface {
	Scan(dest ...any) error
}

func scanEntry(s scanner) (domain.WatchlistEntry, error) {
	var (
		e          domain.WatchlistEntry
		total      sql.NullInt64
		status     string
		added, upd int64
		mediaType  sql.NullString
	)
	if err := s.Scan(&e.AnimeID, &e.Title, &e.PosterURL, &e.CurrentEpisode, &total, &status, &added, &upd, &mediaType); err != nil {
		return domain.WatchlistEntry{}, err
	}
	if total.Valid {
		n := int(total.Int64)
		e.TotalEpisodes = &n
	}
	e.Status = domain.WatchStatus(status)
	e.AddedAt = time.UnixMilli(added).UTC()
	e.LastUpdated = time.UnixMilli(upd).UTC()
	e.Type = mediaType.String
	return e, nil
}

func expectOneRow(res sql.Result) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return ports.ErrNotFound
	}
	return nil
}

func toMillis(t time.Time) int64 {
	if t.IsZero() {
		return time.Now().UTC().UnixMilli()
	}
	return t.UTC().UnixMilli()
}

func nullInt(p *int) sql.NullInt64 {
	if p == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*p), Valid: true}
}

func nullString(s string) sql.NullString {
	if strings.TrimSpace(s) == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}
