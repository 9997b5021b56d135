package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

type SettingsRepository interface {
	Get(ctx context.Context) (domain.Preferences, error)
	Put(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error)
}
