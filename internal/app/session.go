package app

import (
	"context"
	"errors"
	"strings"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

// SessionService expose l'identité renvoyée par le fournisseur d'auth externe.
// Il est passé explicitement aux constructeurs qui en ont besoin.
type SessionService struct {
	store ports.SessionStore
}

func NewSessionService(store ports.SessionStore) *SessionService {
	return &SessionService{store: store}
}

// Current renvoie l'utilisateur connecté; ok=false si personne ne l'est.
func (s *SessionService) Current(ctx context.Context) (user domain.User, ok bool, err error) {
	u, err := s.store.Load(ctx)
	if err != nil {
		if errors.Is(err, ports.ErrNotFound) {
			return domain.User{}, false, nil
		}
		return domain.User{}, false, err
	}
	return u, true, nil
}

func (s *SessionService) SignIn(ctx context.Context, user domain.User) (domain.User, error) {
	user.DisplayName = strings.TrimSpace(user.DisplayName)
	user.Email = strings.TrimSpace(user.Email)
	if user.DisplayName == "" && user.Email == "" {
		return domain.User{}, invalidParams("displayName or email required", nil)
	}
	if user.DisplayName == "" {
		user.DisplayName, _, _ = strings.Cut(user.Email, "@")
	}
	if err := s.store.Save(ctx, user); err != nil {
		return domain.User{}, err
	}
	return user, nil
}

func (s *SessionService) SignOut(ctx context.Context) error {
	return s.store.Clear(ctx)
}
