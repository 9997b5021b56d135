package app

import (
	"context"
	"strings"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

type SettingsService struct {
	repo ports.SettingsRepository
}

func NewSettingsService(repo ports.SettingsRepository) *SettingsService {
	return &SettingsService{repo: repo}
}

func (s *SettingsService) Get(ctx context.Context) (domain.Preferences, error) {
	return s.repo.Get(ctx)
}

func (s *SettingsService) Put(ctx context.Context, prefs domain.Preferences) (domain.Preferences, error) {
	def := domain.DefaultPreferences()
	// Champs vides → valeurs par défaut.
	prefs.Theme = domain.Theme(strings.ToLower(strings.TrimSpace(string(prefs.Theme))))
	if prefs.Theme == "" {
		prefs.Theme = def.Theme
	}
	if !prefs.Theme.Valid() {
		return domain.Preferences{}, invalidParams("invalid theme", domain.ErrInvalidTheme)
	}
	prefs.PreferredServer = strings.TrimSpace(prefs.PreferredServer)
	if prefs.PreferredServer == "" {
		prefs.PreferredServer = def.PreferredServer
	}
	prefs.PreferredCategory = strings.TrimSpace(prefs.PreferredCategory)
	if prefs.PreferredCategory == "" {
		prefs.PreferredCategory = def.PreferredCategory
	}
	return s.repo.Put(ctx, prefs)
}

// Set modifie une seule préférence: theme, server ou category.
func (s *SettingsService) Set(ctx context.Context, key, value string) (domain.Preferences, error) {
	prefs, err := s.repo.Get(ctx)
	if err != nil {
		return domain.Preferences{}, err
	}
	switch strings.ToLower(strings.TrimSpace(key)) {
	case "theme":
		prefs.Theme = domain.Theme(value)
	case "server", "preferredserver":
		prefs.PreferredServer = value
	case "category", "preferredcategory":
		prefs.PreferredCategory = value
	default:
		return domain.Preferences{}, invalidParams("unknown setting "+key, nil)
	}
	return s.Put(ctx, prefs)
}
