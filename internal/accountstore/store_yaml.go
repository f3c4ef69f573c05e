// Package accountstore keeps the identity to account mapping in a users.yml file.
package accountstore

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strings"
	"sync"

	"github.com/google/uuid"
	"gopkg.in/yaml.v3"

	"github.com/go-petr/coincard/internal/domain"
)

var rawAccountPattern = regexp.MustCompile(`^\d{6,}$`)

type user struct {
	Nick string `yaml:"nick,omitempty"`
	ID   string `yaml:"id,omitempty"`
	Card string `yaml:"card,omitempty"`
}

func (u user) identity(id uuid.UUID) domain.Identity {
	return domain.Identity{ID: id, Nick: u.Nick, Account: u.ID, Card: u.Card}
}

type document struct {
	Users map[string]user `yaml:"users"`
}

// StoreYAML is a file backed identity store. Every mutation is written through to disk.
type StoreYAML struct {
	path string

	mu    sync.RWMutex
	users map[uuid.UUID]user
}

// Open loads the store from path. A missing file yields an empty store that is created
// on the first write.
func Open(path string) (*StoreYAML, error) {
	s := &StoreYAML{
		path:  path,
		users: make(map[uuid.UUID]user),
	}

	b, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}

	if err != nil {
		return nil, err
	}

	var doc document
	if err := yaml.Unmarshal(b, &doc); err != nil {
		return nil, fmt.Errorf("%s: %w", filepath.Base(path), err)
	}

	for key, u := range doc.Users {
		id, err := uuid.Parse(key)
		if err != nil {
			return nil, fmt.Errorf("%s: invalid identity %q: %w", filepath.Base(path), key, err)
		}

		s.users[id] = u
	}

	return s, nil
}

// save writes the store atomically. Callers hold mu.
func (s *StoreYAML) save() error {
	doc := document{Users: make(map[string]user, len(s.users))}
	for id, u := range s.users {
		doc.Users[id.String()] = u
	}

	b, err := yaml.Marshal(doc)
	if err != nil {
		return err
	}

	if err := os.MkdirAll(filepath.Dir(s.path), 0o755); err != nil {
		return err
	}

	tmp, err := os.CreateTemp(filepath.Dir(s.path), ".users-*.yml")
	if err != nil {
		return err
	}

	if _, err := tmp.Write(b); err != nil {
		tmp.Close()
		os.Remove(tmp.Name())

		return err
	}

	if err := tmp.Close(); err != nil {
		os.Remove(tmp.Name())
		return err
	}

	return os.Rename(tmp.Name(), s.path)
}

// Get returns the stored identity.
func (s *StoreYAML) Get(_ context.Context, id uuid.UUID) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[id]
	if !ok {
		return domain.Identity{}, domain.ErrIdentityNotFound
	}

	return u.identity(id), nil
}

// Lookup returns the public account id of the identity.
func (s *StoreYAML) Lookup(ctx context.Context, id uuid.UUID) (string, error) {
	ident, err := s.Get(ctx, id)
	if err != nil {
		return "", err
	}

	if ident.Account == "" {
		return "", domain.ErrAccountNotSet
	}

	return ident.Account, nil
}

// Resolve maps a display name (case-insensitive) or a raw account id to an account id.
// Cards never resolve.
func (s *StoreYAML) Resolve(_ context.Context, nameOrAccount string) (string, error) {
	arg := strings.TrimSpace(nameOrAccount)
	if arg == "" {
		return "", domain.ErrUnknownRecipient
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, u := range s.users {
		if u.ID == arg {
			return arg, nil
		}
	}

	if rawAccountPattern.MatchString(arg) {
		return arg, nil
	}

	for _, u := range s.users {
		if strings.EqualFold(u.Nick, arg) && u.ID != "" {
			return u.ID, nil
		}
	}

	return "", domain.ErrUnknownRecipient
}

// IdentityByNick returns the identity registered under nick (case-insensitive).
func (s *StoreYAML) IdentityByNick(_ context.Context, nick string) (domain.Identity, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for id, u := range s.users {
		if strings.EqualFold(u.Nick, nick) {
			return u.identity(id), nil
		}
	}

	return domain.Identity{}, domain.ErrIdentityNotFound
}

// AllKnownAccounts enumerates every identity with an account id, ordered by identity.
func (s *StoreYAML) AllKnownAccounts(_ context.Context) ([]domain.KnownAccount, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]domain.KnownAccount, 0, len(s.users))
	for id, u := range s.users {
		if u.ID == "" {
			continue
		}

		name := u.Nick
		if name == "" {
			name = id.String()
		}

		out = append(out, domain.KnownAccount{Identity: id, DisplayName: name, Account: u.ID})
	}

	sort.Slice(out, func(i, j int) bool {
		return out[i].Identity.String() < out[j].Identity.String()
	})

	return out, nil
}

// SetNick records the display name of the identity.
func (s *StoreYAML) SetNick(_ context.Context, id uuid.UUID, nick string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	u.Nick = nick
	s.users[id] = u

	return s.save()
}

// SetID records the public account id of the identity.
func (s *StoreYAML) SetID(_ context.Context, id uuid.UUID, account string) error {
	if account == "" {
		return domain.ErrInvalidAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	u.ID = account
	s.users[id] = u

	return s.save()
}

// SetCard records the spend card of the identity.
func (s *StoreYAML) SetCard(_ context.Context, id uuid.UUID, card string) error {
	if card == "" {
		return domain.ErrInvalidAccount
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	u := s.users[id]
	u.Card = card
	s.users[id] = u

	return s.save()
}
