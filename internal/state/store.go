// Package state holds the dashboard's cross-panel UI state: which modal is
// open, the fetched coin list and the selected coin.
package state

import (
	"sync"

	"github.com/atharvakonge/quantumpool-web/internal/models"
)

// Store is created with New and passed to whoever needs it; the zero value
// is also ready to use.
type Store struct {
	mu           sync.RWMutex
	depositOpen  bool
	withdrawOpen bool
	coins        []models.Coin
	selected     *models.Coin
}

// Snapshot is a point-in-time copy of a Store
type Snapshot struct {
	DepositOpen  bool          `json:"deposit_open"`
	WithdrawOpen bool          `json:"withdraw_open"`
	Coins        []models.Coin `json:"coins"`
	Selected     *models.Coin  `json:"selected"`
}

func New() *Store {
	return &Store{coins: []models.Coin{}}
}

func (s *Store) SetDepositOpen(open bool) {
	s.mu.Lock()
	s.depositOpen = open
	s.mu.Unlock()
}

func (s *Store) DepositOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.depositOpen
}

func (s *Store) SetWithdrawOpen(open bool) {
	s.mu.Lock()
	s.withdrawOpen = open
	s.mu.Unlock()
}

func (s *Store) WithdrawOpen() bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.withdrawOpen
}

// SetCoins replaces the coin list wholesale
func (s *Store) SetCoins(coins []models.Coin) {
	s.mu.Lock()
	s.coins = coins
	s.mu.Unlock()
}

// Coins returns the current list. Callers must not modify it.
func (s *Store) Coins() []models.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.coins
}

// Find returns the list entry with slug, or nil
func (s *Store) Find(slug string) *models.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for i := range s.coins {
		if s.coins[i].Slug == slug {
			return &s.coins[i]
		}
	}
	return nil
}

// SetSelected does not check that coin belongs to the current list.
func (s *Store) SetSelected(coin *models.Coin) {
	s.mu.Lock()
	s.selected = coin
	s.mu.Unlock()
}

func (s *Store) Selected() *models.Coin {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.selected
}

func (s *Store) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()

	snap := Snapshot{
		DepositOpen:  s.depositOpen,
		WithdrawOpen: s.withdrawOpen,
		Coins:        make([]models.Coin, len(s.coins)),
	}
	copy(snap.Coins, s.coins)
	if s.selected != nil {
		sel := *s.selected
		snap.Selected = &sel
	}
	return snap
}
