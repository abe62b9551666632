package banks

import (
	"context"
	"sync"

	"github.com/pkg/errors"
	"go.uber.org/zap"

	"github.com/vadiminshakov/aurum/internal/domain"
)

// ErrUnknownBank is returned when selecting an id that is not in the list.
var ErrUnknownBank = errors.New("unknown bank account")

type lister interface {
	ListBanks(ctx context.Context, uniqueID string) ([]domain.BankAccount, error)
}

type identity interface {
	UniqueID() (string, error)
}

// Selector holds the user's bank accounts and the one chosen for the current order.
type Selector struct {
	mu       sync.RWMutex
	banks    []domain.BankAccount
	selected *domain.BankAccount
	source   lister
	user     identity
	l        *zap.Logger
}

// NewSelector creates a selector fed by source for the session user.
func NewSelector(source lister, user identity, l *zap.Logger) *Selector {
	if l == nil {
		l = zap.NewNop()
	}
	return &Selector{source: source, user: user, l: l}
}

// Load refreshes the account list. The previous selection is kept when it
// still exists, otherwise the first account is selected.
func (s *Selector) Load(ctx context.Context) ([]domain.BankAccount, error) {
	uniqueID, err := s.user.UniqueID()
	if err != nil {
		return nil, err
	}

	banks, err := s.source.ListBanks(ctx, uniqueID)
	if err != nil {
		return nil, errors.Wrap(err, "load bank accounts")
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	prev := ""
	if s.selected != nil {
		prev = s.selected.ID
	}
	s.banks = banks
	s.selected = nil
	for i := range banks {
		if banks[i].ID == prev {
			s.selected = &s.banks[i]
			break
		}
	}
	if s.selected == nil && len(s.banks) > 0 {
		s.selected = &s.banks[0]
	}

	s.l.Debug("bank accounts loaded", zap.Int("count", len(banks)))
	return append([]domain.BankAccount(nil), banks...), nil
}

// Banks returns the loaded accounts.
func (s *Selector) Banks() []domain.BankAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]domain.BankAccount(nil), s.banks...)
}

// Select picks the account with id.
func (s *Selector) Select(id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for i := range s.banks {
		if s.banks[i].ID == id {
			s.selected = &s.banks[i]
			return nil
		}
	}
	return errors.Wrapf(ErrUnknownBank, "id %s", id)
}

// Selected returns a copy of the chosen account or nil.
func (s *Selector) Selected() *domain.BankAccount {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.selected == nil {
		return nil
	}
	b := *s.selected
	return &b
}
