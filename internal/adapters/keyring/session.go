// Package keyring persiste la session utilisateur dans le trousseau système.
package keyring

import (
	"context"
	"encoding/json"
	"errors"
	"strings"

	gokeyring "github.com/zalando/go-keyring"

	"github.com/Guilhem-Bonnet/kitsu/internal/domain"
	"github.com/Guilhem-Bonnet/kitsu/internal/ports"
)

const sessionUser = "session"

type SessionStore struct {
	service string
}

func NewSessionStore(service string) *SessionStore {
	service = strings.TrimSpace(service)
	if service == "" {
		service = "kitsu"
	}
	return &SessionStore{service: service}
}

func (s *SessionStore) Load(ctx context.Context) (domain.User, error) {
	raw, err := gokeyring.Get(s.service, sessionUser)
	if err != nil {
		if errors.Is(err, gokeyring.ErrNotFound) {
			return domain.User{}, ports.ErrNotFound
		}
		return domain.User{}, err
	}
	var u domain.User
	if err := json.Unmarshal([]byte(raw), &u); err != nil {
		// Entrée illisible: on la traite comme une déconnexion.
		return domain.User{}, ports.ErrNotFound
	}
	return u, nil
}

func (s *SessionStore) Save(ctx context.Context, user domain.User) error {
	b, err := json.Marshal(user)
	if err != nil {
		return err
	}
	return gokeyring.Set(s.service, sessionUser, string(b))
}

func (s *SessionStore) Clear(ctx context.Context) error {
	err := gokeyring.Delete(s.service, sessionUser)
	if errors.Is(err, gokeyring.ErrNotFound) {
		return nil
	}
	return err
}
