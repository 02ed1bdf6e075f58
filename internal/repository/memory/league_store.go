// Package memory holds map-backed repositories for tests and single-process
// deployments without a database.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
)

type InMemoryLeagueStore struct {
	mu      sync.RWMutex
	leagues map[uuid.UUID]domain.League
	teams   map[uuid.UUID]domain.Team
}

func NewLeagueStore() *InMemoryLeagueStore {
	return &InMemoryLeagueStore{
		leagues: make(map[uuid.UUID]domain.League),
		teams:   make(map[uuid.UUID]domain.Team),
	}
}

var _ repository.LeagueRepository = (*InMemoryLeagueStore)(nil)

func (s *InMemoryLeagueStore) Create(_ context.Context, league *domain.League) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leagues[league.ID]; exists {
		return repository.ErrConflict
	}
	s.leagues[league.ID] = *league
	return nil
}

func (s *InMemoryLeagueStore) GetByID(_ context.Context, id uuid.UUID) (*domain.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	league, exists := s.leagues[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &league, nil
}

func (s *InMemoryLeagueStore) ListActive(_ context.Context) ([]*domain.League, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var leagues []*domain.League
	for _, league := range s.leagues {
		if league.IsActive {
			l := league
			leagues = append(leagues, &l)
		}
	}
	sort.Slice(leagues, func(i, j int) bool {
		if !leagues[i].StartDate.Equal(leagues[j].StartDate) {
			return leagues[i].StartDate.Before(leagues[j].StartDate)
		}
		return leagues[i].Name < leagues[j].Name
	})
	return leagues, nil
}

func (s *InMemoryLeagueStore) CreateTeam(_ context.Context, team *domain.Team) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.leagues[team.LeagueID]; !exists {
		return repository.ErrNotFound
	}
	s.teams[team.ID] = *team
	return nil
}

func (s *InMemoryLeagueStore) ListTeams(_ context.Context, leagueID uuid.UUID) ([]*domain.Team, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var teams []*domain.Team
	for _, team := range s.teams {
		if team.LeagueID == leagueID {
			t := team
			teams = append(teams, &t)
		}
	}
	sort.Slice(teams, func(i, j int) bool { return teams[i].Name < teams[j].Name })
	return teams, nil
}
