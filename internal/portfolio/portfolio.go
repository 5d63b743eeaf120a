// Package portfolio persists user positions in a JSON file and exposes
// thread-safe CRUD operations over them.
package portfolio

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/seenimoa/stockpulse/pkg/models"
	"github.com/seenimoa/stockpulse/pkg/utils"
)

// Store is a file-backed position store. Every mutation is written through
// to disk before returning.
type Store struct {
	mu        sync.RWMutex
	path      string
	positions map[string]models.Position // key: normalized ticker
}

// NewStore loads the store at path, creating parent directories as needed.
// A missing file yields an empty store.
func NewStore(path string) (*Store, error) {
	s := &Store{
		path:      path,
		positions: make(map[string]models.Position),
	}

	data, err := os.ReadFile(path)
	if os.IsNotExist(err) {
		return s, nil
	}
	if err != nil {
		return nil, fmt.Errorf("read portfolio: %w", err)
	}

	var positions []models.Position
	if err := json.Unmarshal(data, &positions); err != nil {
		return nil, fmt.Errorf("parse portfolio %s: %w", path, err)
	}
	for _, p := range positions {
		s.positions[utils.NormalizeTicker(p.Ticker)] = p
	}
	return s, nil
}

// Add records a new lot. Buying into an existing position averages the
// entry price by quantity.
func (s *Store) Add(ticker string, price, quantity float64, notes string) (models.Position, error) {
	if price <= 0 {
		return models.Position{}, fmt.Errorf("entry price must be positive, got %.2f", price)
	}
	if quantity <= 0 {
		return models.Position{}, fmt.Errorf("quantity must be positive, got %.2f", quantity)
	}

	key := utils.NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	pos, ok := s.positions[key]
	if !ok {
		pos = models.Position{
			Ticker:        key,
			AvgEntryPrice: price,
			Quantity:      quantity,
			EntryDate:     time.Now(),
			Notes:         notes,
		}
	} else {
		total := pos.Quantity + quantity
		pos.AvgEntryPrice = (pos.AvgEntryPrice*pos.Quantity + price*quantity) / total
		pos.Quantity = total
		if notes != "" {
			pos.Notes = strings.TrimSpace(pos.Notes + "\n" + notes)
		}
	}
	s.positions[key] = pos

	if err := s.save(); err != nil {
		return models.Position{}, err
	}
	return pos, nil
}

// Remove deletes the position for ticker. Returns false when no position
// exists.
func (s *Store) Remove(ticker string) (bool, error) {
	key := utils.NormalizeTicker(ticker)

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.positions[key]; !ok {
		return false, nil
	}
	delete(s.positions, key)
	return true, s.save()
}

// Get returns the position for ticker.
func (s *Store) Get(ticker string) (models.Position, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	pos, ok := s.positions[utils.NormalizeTicker(ticker)]
	return pos, ok
}

// List returns all positions sorted by ticker.
func (s *Store) List() []models.Position {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		out = append(out, p)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// save writes the full position list atomically. Must be called with mu
// held.
func (s *Store) save() error {
	positions := make([]models.Position, 0, len(s.positions))
	for _, p := range s.positions {
		positions = append(positions, p)
	}
	sort.Slice(positions, func(i, j int) bool {
		return positions[i].Ticker < positions[j].Ticker
	})

	data, err := json.MarshalIndent(positions, "", "  ")
	if err != nil {
		return fmt.Errorf("encode portfolio: %w", err)
	}

	if dir := filepath.Dir(s.path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create portfolio dir: %w", err)
		}
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, data, 0o644); err != nil {
		return fmt.Errorf("write portfolio: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("replace portfolio: %w", err)
	}
	return nil
}
