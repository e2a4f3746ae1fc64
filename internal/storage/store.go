// Package storage provides a flat-file JSON document store for odds
// snapshots, built accumulators, and historical team stats. Writes are
// best-effort whole-document replacements; the engine treats the file as a
// cache of the latest snapshot, not a durable system of record.
package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"github.com/yourusername/acca-engine/internal/metrics"
	"github.com/yourusername/acca-engine/internal/models"
)

// document is the on-disk shape of the store
type document struct {
	Selections   []models.Selection    `json:"selections"`
	Accumulators []*models.Accumulator `json:"accumulators"`
	TeamStats    []*models.TeamStats   `json:"team_stats"`
}

// Store is a mutex-guarded flat-file document store
type Store struct {
	path   string
	logger *logrus.Logger

	mu   sync.RWMutex
	data document
}

// NewStore opens or creates the document store at path
func NewStore(path string, logger *logrus.Logger) (*Store, error) {
	s := &Store{
		path:   path,
		logger: logger,
	}

	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("failed to create storage directory: %w", err)
	}

	raw, err := os.ReadFile(path)
	if err != nil {
		if !os.IsNotExist(err) {
			return nil, fmt.Errorf("failed to read storage file: %w", err)
		}
		// Fresh store; persist the empty document so later reads succeed
		if err := s.flush(); err != nil {
			return nil, err
		}
		return s, nil
	}

	if err := json.Unmarshal(raw, &s.data); err != nil {
		return nil, fmt.Errorf("failed to parse storage file %s: %w", path, err)
	}

	logger.WithFields(logrus.Fields{
		"path":         path,
		"selections":   len(s.data.Selections),
		"accumulators": len(s.data.Accumulators),
		"team_stats":   len(s.data.TeamStats),
	}).Info("Storage loaded")

	return s, nil
}

// flush writes the current document to disk. Callers hold the write lock.
// The document is written to a temp file and renamed over the target so a
// crash mid-write never leaves a truncated file behind.
func (s *Store) flush() error {
	raw, err := json.MarshalIndent(s.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal storage document: %w", err)
	}

	tmp := s.path + ".tmp"
	if err := os.WriteFile(tmp, raw, 0o644); err != nil {
		return fmt.Errorf("failed to write storage file: %w", err)
	}
	if err := os.Rename(tmp, s.path); err != nil {
		return fmt.Errorf("failed to replace storage file: %w", err)
	}
	return nil
}

// SaveSelections replaces the stored odds snapshot
func (s *Store) SaveSelections(selections []models.Selection) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Selections = selections
	metrics.StoredSelections.Set(float64(len(selections)))
	return s.flush()
}

// GetSelections returns the stored odds snapshot
func (s *Store) GetSelections() []models.Selection {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]models.Selection, len(s.data.Selections))
	copy(out, s.data.Selections)
	return out
}

// GetSelectionByID looks up one stored selection
func (s *Store) GetSelectionByID(id uuid.UUID) (models.Selection, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	for _, sel := range s.data.Selections {
		if sel.ID == id {
			return sel, nil
		}
	}
	return models.Selection{}, models.ErrNotFound
}

// SaveAccumulators replaces the stored accumulator result set
func (s *Store) SaveAccumulators(accumulators []*models.Accumulator) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.Accumulators = accumulators
	return s.flush()
}

// GetAccumulators returns the stored accumulator result set
func (s *Store) GetAccumulators() []*models.Accumulator {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.Accumulator, len(s.data.Accumulators))
	copy(out, s.data.Accumulators)
	return out
}

// SaveTeamStats replaces the stored historical stats
func (s *Store) SaveTeamStats(stats []*models.TeamStats) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data.TeamStats = stats
	return s.flush()
}

// GetTeamStats returns the stored historical stats
func (s *Store) GetTeamStats() []*models.TeamStats {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]*models.TeamStats, len(s.data.TeamStats))
	copy(out, s.data.TeamStats)
	return out
}

// UpsertTeamStat inserts or replaces the record for one team and returns the
// full stats list after the change.
func (s *Store) UpsertTeamStat(stat *models.TeamStats) ([]*models.TeamStats, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	replaced := false
	for i, existing := range s.data.TeamStats {
		if existing.Team == stat.Team {
			s.data.TeamStats[i] = stat
			replaced = true
			break
		}
	}
	if !replaced {
		s.data.TeamStats = append(s.data.TeamStats, stat)
	}

	if err := s.flush(); err != nil {
		return nil, err
	}

	out := make([]*models.TeamStats, len(s.data.TeamStats))
	copy(out, s.data.TeamStats)
	return out, nil
}

// Clear empties the store. Intended for tests and operational resets.
func (s *Store) Clear() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.data = document{}
	return s.flush()
}
