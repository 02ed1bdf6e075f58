package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
	"github.com/segyhp/league-ledger/pkg/utils"
)

type InMemoryLockerStore struct {
	mu      sync.RWMutex
	lockers map[uuid.UUID]domain.Locker
	rentals map[uuid.UUID]domain.LockerRental
}

func NewLockerStore() *InMemoryLockerStore {
	return &InMemoryLockerStore{
		lockers: make(map[uuid.UUID]domain.Locker),
		rentals: make(map[uuid.UUID]domain.LockerRental),
	}
}

var _ repository.LockerRepository = (*InMemoryLockerStore)(nil)

func (s *InMemoryLockerStore) CreateLocker(_ context.Context, locker *domain.Locker) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.lockers {
		if existing.ID == locker.ID || existing.Number == locker.Number {
			return repository.ErrConflict
		}
	}
	s.lockers[locker.ID] = *locker
	return nil
}

func (s *InMemoryLockerStore) GetLocker(_ context.Context, id uuid.UUID) (*domain.Locker, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	locker, exists := s.lockers[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &locker, nil
}

func (s *InMemoryLockerStore) CreateRental(_ context.Context, rental *domain.LockerRental) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if !rental.EndDate.After(rental.StartDate) {
		return fmt.Errorf("%w: end_date must be after start_date", repository.ErrInvalid)
	}
	if _, exists := s.rentals[rental.ID]; exists {
		return repository.ErrConflict
	}
	if rental.IsActive {
		for _, existing := range s.rentals {
			if existing.IsActive && existing.LockerID == rental.LockerID {
				return repository.ErrConflict
			}
		}
	}
	s.rentals[rental.ID] = *rental
	return nil
}

func (s *InMemoryLockerStore) ListActiveRentalsEndingOn(_ context.Context, date time.Time) ([]*domain.LockerRental, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	day := utils.DateOnly(date)
	var rentals []*domain.LockerRental
	for _, rental := range s.rentals {
		if rental.IsActive && utils.DateOnly(rental.EndDate).Equal(day) {
			r := rental
			rentals = append(rentals, &r)
		}
	}
	sort.Slice(rentals, func(i, j int) bool { return rentals[i].CreatedAt.Before(rentals[j].CreatedAt) })
	return rentals, nil
}
