package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
)

type InMemoryMemberStore struct {
	mu      sync.RWMutex
	members map[uuid.UUID]domain.Member
}

func NewMemberStore() *InMemoryMemberStore {
	return &InMemoryMemberStore{members: make(map[uuid.UUID]domain.Member)}
}

var _ repository.MemberRepository = (*InMemoryMemberStore)(nil)

func (s *InMemoryMemberStore) Create(_ context.Context, member *domain.Member) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.members[member.ID]; exists {
		return repository.ErrConflict
	}
	if member.RegistrationNumber != nil {
		for _, existing := range s.members {
			if existing.RegistrationNumber != nil && *existing.RegistrationNumber == *member.RegistrationNumber {
				return repository.ErrConflict
			}
		}
	}
	s.members[member.ID] = *member
	return nil
}

func (s *InMemoryMemberStore) GetByID(_ context.Context, id uuid.UUID) (*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	member, exists := s.members[id]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &member, nil
}

func (s *InMemoryMemberStore) ListByRegistrationStatus(_ context.Context, status string) ([]*domain.Member, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var members []*domain.Member
	for _, member := range s.members {
		if member.RegistrationStatus == status {
			m := member
			members = append(members, &m)
		}
	}
	sort.Slice(members, func(i, j int) bool {
		if members[i].Surname != members[j].Surname {
			return members[i].Surname < members[j].Surname
		}
		return members[i].FirstName < members[j].FirstName
	})
	return members, nil
}

type membershipKey struct {
	memberID uuid.UUID
	leagueID uuid.UUID
}

type InMemoryMembershipStore struct {
	mu          sync.RWMutex
	memberships map[membershipKey]domain.Membership
}

func NewMembershipStore() *InMemoryMembershipStore {
	return &InMemoryMembershipStore{memberships: make(map[membershipKey]domain.Membership)}
}

var _ repository.MembershipRepository = (*InMemoryMembershipStore)(nil)

func (s *InMemoryMembershipStore) Create(_ context.Context, membership *domain.Membership) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := membershipKey{membership.MemberID, membership.LeagueID}
	if _, exists := s.memberships[key]; exists {
		return repository.ErrConflict
	}
	s.memberships[key] = *membership
	return nil
}

func (s *InMemoryMembershipStore) Get(_ context.Context, memberID, leagueID uuid.UUID) (*domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	membership, exists := s.memberships[membershipKey{memberID, leagueID}]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &membership, nil
}

func (s *InMemoryMembershipStore) ListByLeague(_ context.Context, leagueID uuid.UUID) ([]*domain.Membership, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var memberships []*domain.Membership
	for key, membership := range s.memberships {
		if key.leagueID == leagueID {
			m := membership
			memberships = append(memberships, &m)
		}
	}
	sort.Slice(memberships, func(i, j int) bool {
		return memberships[i].JoinedAt.Before(memberships[j].JoinedAt)
	})
	return memberships, nil
}

func (s *InMemoryMembershipStore) UpdateBalance(_ context.Context, membershipID uuid.UUID, balance decimal.Decimal) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	for key, membership := range s.memberships {
		if membership.ID == membershipID {
			membership.BalanceOwing = balance
			s.memberships[key] = membership
			return nil
		}
	}
	return repository.ErrNotFound
}
