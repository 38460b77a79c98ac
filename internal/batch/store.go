// SPDX-License-Identifier: Apache-2.0

package batch

import (
	"context"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

// Lane is one imported route row.
type Lane struct {
	ID           uuid.UUID           `json:"id"`
	Row          int                 `json:"row"`
	LaneCode     string              `json:"laneCode,omitempty"`
	LaneName     string              `json:"laneName,omitempty"`
	Origin       string              `json:"origin,omitempty"`
	Destination  string              `json:"destination"`
	TruckSize    string              `json:"truckSize"`
	DistanceKm   decimal.NullDecimal `json:"distanceKm"`
	TransitHours decimal.NullDecimal `json:"transitHours"`
	Rate         decimal.NullDecimal `json:"rate"`
	Notes        string              `json:"notes,omitempty"`
}

// Store persists lanes for a client.
type Store interface {
	SaveLane(ctx context.Context, clientID string, lane Lane) error
}

// MemoryStore keeps lanes in memory, keyed by client.
type MemoryStore struct {
	mu    sync.RWMutex
	lanes map[string][]Lane
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{lanes: make(map[string][]Lane)}
}

func (s *MemoryStore) SaveLane(ctx context.Context, clientID string, lane Lane) error {
	if err := ctx.Err(); err != nil {
		return err
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lanes[clientID] = append(s.lanes[clientID], lane)
	return nil
}

// Lanes returns a copy of the lanes saved for clientID.
func (s *MemoryStore) Lanes(clientID string) []Lane {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return append([]Lane(nil), s.lanes[clientID]...)
}
