package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/internal/repository"
)

type cellKey struct {
	memberID uuid.UUID
	leagueID uuid.UUID
	week     int
}

type InMemoryAttendanceStore struct {
	mu      sync.RWMutex
	records map[cellKey]domain.AttendanceRecord
}

func NewAttendanceStore() *InMemoryAttendanceStore {
	return &InMemoryAttendanceStore{records: make(map[cellKey]domain.AttendanceRecord)}
}

var _ repository.AttendanceRepository = (*InMemoryAttendanceStore)(nil)

func (s *InMemoryAttendanceStore) GetRecord(_ context.Context, memberID, leagueID uuid.UUID, week int) (*domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	record, exists := s.records[cellKey{memberID, leagueID, week}]
	if !exists {
		return nil, repository.ErrNotFound
	}
	return &record, nil
}

func (s *InMemoryAttendanceStore) Save(_ context.Context, record *domain.AttendanceRecord) ([]*domain.AttendanceRecord, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	key := cellKey{record.MemberID, record.LeagueID, record.WeekNumber}
	next := *record
	if existing, exists := s.records[key]; exists {
		next.ID = existing.ID
		next.CreatedAt = existing.CreatedAt
	}
	s.records[key] = next

	return s.listLocked(record.MemberID, record.LeagueID), nil
}

func (s *InMemoryAttendanceStore) ListByMembership(_ context.Context, memberID, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	return s.listLocked(memberID, leagueID), nil
}

func (s *InMemoryAttendanceStore) ListByLeague(_ context.Context, leagueID uuid.UUID) ([]*domain.AttendanceRecord, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var records []*domain.AttendanceRecord
	for key, record := range s.records {
		if key.leagueID == leagueID {
			r := record
			records = append(records, &r)
		}
	}
	sort.Slice(records, func(i, j int) bool {
		if records[i].MemberID != records[j].MemberID {
			return records[i].MemberID.String() < records[j].MemberID.String()
		}
		return records[i].WeekNumber < records[j].WeekNumber
	})
	return records, nil
}

func (s *InMemoryAttendanceStore) listLocked(memberID, leagueID uuid.UUID) []*domain.AttendanceRecord {
	var records []*domain.AttendanceRecord
	for key, record := range s.records {
		if key.memberID == memberID && key.leagueID == leagueID {
			r := record
			records = append(records, &r)
		}
	}
	sort.Slice(records, func(i, j int) bool { return records[i].WeekNumber < records[j].WeekNumber })
	return records
}
