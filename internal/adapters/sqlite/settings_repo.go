package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"time"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

// Une ligne par préférence: une clé absente, vide ou illisible retombe
// sur sa valeur par défaut sans toucher aux autres.
const (
	keyTheme    = "theme"
	keyServer   = "preferred_server"
	keyCategory = "preferred_category"
)

type SettingsRepository struct {
	db *sql.DB
}

func NewSettingsRepository(db *sql.DB) *SettingsRepository {
	return &SettingsRepository{db: db}
}

func (r *SettingsRepository) Get(ctx context.Context) (domain.Preferences, error) {
	rows, err := r.db.QueryContext(ctx, `SELECT key, value_json FROM settings WHERE key IN (?, ?, ?)`, keyTheme, keyServer, keyCategory)
	if err != nil {
		return domain.Preferences{}, err
	}
	defer rows.Close()

	var p domain.Preferences
	for rows.Next() {
		var (
			key string
			raw []byte
			val string
		)
		if err := rows.Scan(&key, &raw); err != nil {
			return domain.Preferences{}, err
		}
		if json.Unmarshal(raw, &val) != nil {
			continue
		}
		switch key {
		case keyTheme:
			p.Theme = domain.Theme(val)
		case keyServer:
			p.PreferredServer = val
		case keyCategory:
			p.PreferredCategory = val
		}
	}
	if err := rows.Err(); err != nil {
		return domain.Preferences{}, err
	}
	return p.WithDefaults(), nil
}

func (r *SettingsRepository) Put(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	values := map[string]string{
		keyTheme:    string(prefs.Theme),
		keyServer:   prefs.PreferredServer,
		keyCategory: prefs.PreferredCategory,
	}
	now := time.Now().UTC().Format(time.RFC3339)

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return domain.Preferences{}, err
	}
	for key, v := range values {
		b, err := json.Marshal(v)
		if err != nil {
			_ = tx.Rollback()
			return domain.Preferences{}, err
		}
		if _, err := tx.ExecContext(ctx, `
			INSERT INTO settings(key, value_json, updated_at)
			VALUES(?, ?, ?)
			ON CONFLICT(key) DO UPDATE SET value_json = excluded.value_json, updated_at = excluded.updated_at
		`, key, b, now); err != nil {
			_ = tx.Rollback()
			return domain.Preferences{}, err
		}
	}
	if err := tx.Commit(); err != nil {
		return domain.Preferences{}, err
	}
	return r.Get(ctx)
}
