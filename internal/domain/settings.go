package domain

import (
	"errors"
	"strings"
)

type Theme string

const (
	ThemeSystem Theme = "system"
	ThemeDark   Theme = "dark"
	ThemeLight  Theme = "light"
)

var ErrInvalidTheme = errors.New("invalid theme")

func (t Theme) Valid() bool {
	return t == ThemeSystem || t == ThemeDark || t == ThemeLight
}

// Preferences regroupe l'état "global" de l'app (thème, serveur de stream par défaut).
type Preferences struct {
	Theme Theme `json:"theme"`

	// Serveur et catégorie utilisés par défaut par le player.
	PreferredServer   string `json:"preferredServer"`
	PreferredCategory string `json:"preferredCategory"`
}

func DefaultPreferences() Preferences {
	return Preferences{
		Theme:             ThemeSystem,
		PreferredServer:   "hd-1",
		PreferredCategory: "sub",
	}
}

// WithDefaults complète les champs vides (ou un thème inconnu) avec les
// valeurs par défaut.
func (p Preferences) WithDefaults() Preferences {
	def := DefaultPreferences()
	if !p.Theme.Valid() {
		p.Theme = def.Theme
	}
	if strings.TrimSpace(p.PreferredServer) == "" {
		p.PreferredServer = def.PreferredServer
	}
	if strings.TrimSpace(p.PreferredCategory) == "" {
		p.PreferredCategory = def.PreferredCategory
	}
	return p
}

// User is the opaque identity exposed by the external sign-in provider.
type User struct {
	DisplayName string `json:"displayName"`
	Email       string `json:"email"`
}
