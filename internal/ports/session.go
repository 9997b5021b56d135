package ports

import (
	"context"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
)

// SessionStore persiste l'identité renvoyée par le fournisseur d'auth externe.
// Load renvoie ErrNotFound quand personne n'est connecté.
type SessionStore interface {
	Load(ctx context.Context) (domain.User, error)
	Save(ctx context.Context, user domain.User) error
	Clear(ctx context.Context) error
}
