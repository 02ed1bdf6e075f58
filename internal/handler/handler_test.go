package handler

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	"github.com/segyhp/league-ledger/internal/calendar"
	"github.com/segyhp/league-ledger/internal/domain"
	customError "github.com/segyhp/league-ledger/pkg/errors"
)

type mockLedgerService struct {
	mock.Mock
}

func (m *mockLedgerService) SetStatus(ctx context.Context, request *domain.SetStatusRequest) (*domain.SetStatusResponse, error) {
	args := m.Called(ctx, request)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.SetStatusResponse), args.Error(1)
}

func (m *mockLedgerService) GetBalance(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, error) {
	args := m.Called(ctx, memberID, leagueID)
	return args.Get(0).(decimal.Decimal), args.Error(1)
}

func (m *mockLedgerService) GetWeeks(ctx context.Context, leagueID uuid.UUID) ([]calendar.Week, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]calendar.Week), args.Error(1)
}

func (m *mockLedgerService) GetGrid(ctx context.Context, leagueID uuid.UUID) (*domain.Grid, error) {
	args := m.Called(ctx, leagueID)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.Grid), args.Error(1)
}

type mockNotificationService struct {
	mock.Mock
}

func (m *mockNotificationService) RunNow(ctx context.Context) (*domain.RunReport, error) {
	args := m.Called(ctx)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *mockNotificationService) RunForDate(ctx context.Context, date time.Time) (*domain.RunReport, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.RunReport), args.Error(1)
}

func (m *mockNotificationService) Firings(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error) {
	args := m.Called(ctx, date)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).([]*domain.NotificationFiring), args.Error(1)
}

func (m *mockNotificationService) SendTest(ctx context.Context, recipient string) error {
	return m.Called(ctx, recipient).Error(0)
}

func (m *mockNotificationService) Broadcast(ctx context.Context, leagueID uuid.UUID, req *domain.BroadcastRequest) (*domain.BroadcastReport, error) {
	args := m.Called(ctx, leagueID, req)
	if args.Get(0) == nil {
		return nil, args.Error(1)
	}
	return args.Get(0).(*domain.BroadcastReport), args.Error(1)
}

func (m *mockNotificationService) Today() time.Time {
	return m.Called().Get(0).(time.Time)
}

type testServer struct {
	ledger        *mockLedgerService
	notifications *mockNotificationService
	router        http.Handler
}

func newTestServer(checks ...Check) *testServer {
	s := &testServer{
		ledger:        &mockLedgerService{},
		notifications: &mockNotificationService{},
	}
	s.router = NewRouter(
		NewHealthHandler(time.Second, checks...),
		NewLedgerHandler(s.ledger),
		NewNotificationHandler(s.notifications),
	)
	return s
}

func (s *testServer) do(method, path string, body interface{}) *httptest.ResponseRecorder {
	var buf bytes.Buffer
	if body != nil {
		switch b := body.(type) {
		case string:
			buf.WriteString(b)
		default:
			_ = json.NewEncoder(&buf).Encode(b)
		}
	}

	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	w := httptest.NewRecorder()
	s.router.ServeHTTP(w, req)
	return w
}

type envelope struct {
	Success bool            `json:"success"`
	Message string          `json:"message"`
	Data    json.RawMessage `json:"data"`
}

func decodeEnvelope(t *testing.T, w *httptest.ResponseRecorder) envelope {
	t.Helper()
	var env envelope
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &env))
	return env
}

func TestLedgerHandler_SetStatus(t *testing.T) {
	memberID := uuid.New()
	leagueID := uuid.New()

	validBody := map[string]interface{}{
		"member_id":   memberID,
		"league_id":   leagueID,
		"week_number": 3,
		"status":      "fixed",
		"amount_paid": 0,
		"actor_id":    "staff-1",
	}

	tests := []struct {
		name           string
		body           interface{}
		setupMock      func(*mockLedgerService)
		expectedStatus int
	}{
		{
			name: "records status and returns balance",
			body: validBody,
			setupMock: func(m *mockLedgerService) {
				m.On("SetStatus", mock.Anything, mock.MatchedBy(func(req *domain.SetStatusRequest) bool {
					return req.MemberID == memberID && req.WeekNumber == 3 && req.Status == "fixed"
				})).Return(&domain.SetStatusResponse{
					Record:  &domain.AttendanceRecord{WeekNumber: 3, Status: domain.StatusFixed, FinePaid: true},
					Balance: decimal.NewFromInt(15),
				}, nil).Once()
			},
			expectedStatus: http.StatusOK,
		},
		{
			name:           "malformed json",
			body:           "{not json",
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "unknown status rejected before the service",
			body: map[string]interface{}{
				"member_id": memberID, "league_id": leagueID, "week_number": 1,
				"status": "late", "amount_paid": 0, "actor_id": "staff-1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "negative amount rejected",
			body: map[string]interface{}{
				"member_id": memberID, "league_id": leagueID, "week_number": 1,
				"status": "paid", "amount_paid": -5, "actor_id": "staff-1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "week zero rejected",
			body: map[string]interface{}{
				"member_id": memberID, "league_id": leagueID, "week_number": 0,
				"status": "paid", "amount_paid": 10, "actor_id": "staff-1",
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "membership not found",
			body: validBody,
			setupMock: func(m *mockLedgerService) {
				m.On("SetStatus", mock.Anything, mock.Anything).
					Return(nil, customError.WrapMembershipNotFound(memberID.String(), leagueID.String())).Once()
			},
			expectedStatus: http.StatusNotFound,
		},
		{
			name: "service validation error",
			body: validBody,
			setupMock: func(m *mockLedgerService) {
				m.On("SetStatus", mock.Anything, mock.Anything).
					Return(nil, customError.WrapValidation("week %d is outside the league", 3)).Once()
			},
			expectedStatus: http.StatusBadRequest,
		},
		{
			name: "storage failure",
			body: validBody,
			setupMock: func(m *mockLedgerService) {
				m.On("SetStatus", mock.Anything, mock.Anything).
					Return(nil, customError.WrapDatabaseError(errors.New("connection reset"))).Once()
			},
			expectedStatus: http.StatusInternalServerError,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newTestServer()
			if tt.setupMock != nil {
				tt.setupMock(s.ledger)
			}

			w := s.do(http.MethodPost, "/api/v1/attendance", tt.body)

			assert.Equal(t, tt.expectedStatus, w.Code)
			s.ledger.AssertExpectations(t)
			if tt.setupMock == nil {
				s.ledger.AssertNotCalled(t, "SetStatus", mock.Anything, mock.Anything)
			}
		})
	}
}

func TestLedgerHandler_GetBalance(t *testing.T) {
	s := newTestServer()
	memberID := uuid.New()
	leagueID := uuid.New()

	s.ledger.On("GetBalance", mock.Anything, memberID, leagueID).Return(decimal.RequireFromString("15.00"), nil).Once()

	w := s.do(http.MethodGet, "/api/v1/leagues/"+leagueID.String()+"/members/"+memberID.String()+"/balance", nil)
	require.Equal(t, http.StatusOK, w.Code)

	var body domain.BalanceResponse
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &body))
	assert.True(t, body.Balance.Equal(decimal.NewFromInt(15)))
	assert.Equal(t, memberID, body.MemberID)

	w = s.do(http.MethodGet, "/api/v1/leagues/not-a-uuid/members/"+memberID.String()+"/balance", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestLedgerHandler_GetWeeksAndGrid(t *testing.T) {
	s := newTestServer()
	leagueID := uuid.New()
	missing := uuid.New()

	weeks := []calendar.Week{{Number: 1, Date: time.Date(2025, 2, 3, 0, 0, 0, 0, time.UTC)}}
	s.ledger.On("GetWeeks", mock.Anything, leagueID).Return(weeks, nil).Once()
	s.ledger.On("GetGrid", mock.Anything, leagueID).Return(&domain.Grid{LeagueID: leagueID, Weeks: weeks}, nil).Once()
	s.ledger.On("GetGrid", mock.Anything, missing).Return(nil, customError.WrapLeagueNotFound(missing.String())).Once()

	w := s.do(http.MethodGet, "/api/v1/leagues/"+leagueID.String()+"/weeks", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var gotWeeks []calendar.Week
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &gotWeeks))
	assert.Len(t, gotWeeks, 1)

	w = s.do(http.MethodGet, "/api/v1/leagues/"+leagueID.String()+"/grid", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/leagues/"+missing.String()+"/grid", nil)
	assert.Equal(t, http.StatusNotFound, w.Code)

	s.ledger.AssertExpectations(t)
}

func TestNotificationHandler_Run(t *testing.T) {
	t.Run("empty body runs today", func(t *testing.T) {
		s := newTestServer()
		s.notifications.On("RunNow", mock.Anything).Return(&domain.RunReport{Manual: true, Fired: 2}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/notifications/run", nil)

		require.Equal(t, http.StatusOK, w.Code)
		var report domain.RunReport
		require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
		assert.Equal(t, 2, report.Fired)
		s.notifications.AssertExpectations(t)
	})

	t.Run("explicit date", func(t *testing.T) {
		s := newTestServer()
		date := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
		s.notifications.On("RunForDate", mock.Anything, date).Return(&domain.RunReport{Date: date}, nil).Once()

		w := s.do(http.MethodPost, "/api/v1/notifications/run", map[string]string{"date": "2025-03-04"})

		assert.Equal(t, http.StatusOK, w.Code)
		s.notifications.AssertExpectations(t)
	})

	t.Run("bad date", func(t *testing.T) {
		s := newTestServer()
		w := s.do(http.MethodPost, "/api/v1/notifications/run", map[string]string{"date": "04/03/2025"})
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("overlapping run", func(t *testing.T) {
		s := newTestServer()
		s.notifications.On("RunNow", mock.Anything).Return(nil, customError.WrapRunInProgress()).Once()

		w := s.do(http.MethodPost, "/api/v1/notifications/run", nil)
		assert.Equal(t, http.StatusConflict, w.Code)
	})
}

func TestNotificationHandler_Firings(t *testing.T) {
	s := newTestServer()
	today := time.Date(2025, 3, 4, 0, 0, 0, 0, time.UTC)
	earlier := time.Date(2025, 3, 1, 0, 0, 0, 0, time.UTC)

	s.notifications.On("Today").Return(today)
	s.notifications.On("Firings", mock.Anything, today).Return([]*domain.NotificationFiring{}, nil).Once()
	s.notifications.On("Firings", mock.Anything, earlier).Return([]*domain.NotificationFiring{
		{FiringKey: domain.FiringKey{RuleID: domain.RuleOutstandingBalance, EntityID: "m1", TriggerDate: earlier}, Status: domain.FiringStatusSent},
	}, nil).Once()

	w := s.do(http.MethodGet, "/api/v1/notifications/firings", nil)
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodGet, "/api/v1/notifications/firings?date=2025-03-01", nil)
	require.Equal(t, http.StatusOK, w.Code)
	var firings []domain.NotificationFiring
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &firings))
	require.Len(t, firings, 1)
	assert.Equal(t, "m1", firings[0].EntityID)

	w = s.do(http.MethodGet, "/api/v1/notifications/firings?date=yesterday", nil)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.notifications.AssertExpectations(t)
}

func TestNotificationHandler_SendTest(t *testing.T) {
	s := newTestServer()
	s.notifications.On("SendTest", mock.Anything, "ops@example.com").Return(nil).Once()
	s.notifications.On("SendTest", mock.Anything, "bounce@example.com").
		Return(customError.WrapDispatchError("bounce@example.com", errors.New("rejected"))).Once()

	w := s.do(http.MethodPost, "/api/v1/notifications/test", map[string]string{"recipient": "ops@example.com"})
	assert.Equal(t, http.StatusOK, w.Code)

	w = s.do(http.MethodPost, "/api/v1/notifications/test", map[string]string{"recipient": "bounce@example.com"})
	assert.Equal(t, http.StatusBadGateway, w.Code)

	w = s.do(http.MethodPost, "/api/v1/notifications/test", map[string]string{})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.notifications.AssertExpectations(t)
}

func TestNotificationHandler_Broadcast(t *testing.T) {
	s := newTestServer()
	leagueID := uuid.New()
	missing := uuid.New()
	request := &domain.BroadcastRequest{Subject: "Lanes closed", Message: "No bowling next Monday."}

	s.notifications.On("Broadcast", mock.Anything, leagueID, request).
		Return(&domain.BroadcastReport{LeagueID: leagueID.String(), Sent: 3, Failed: 1}, nil).Once()
	s.notifications.On("Broadcast", mock.Anything, missing, request).
		Return(nil, customError.WrapLeagueNotFound(missing.String())).Once()

	w := s.do(http.MethodPost, "/api/v1/leagues/"+leagueID.String()+"/notifications", request)
	require.Equal(t, http.StatusOK, w.Code)
	var report domain.BroadcastReport
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &report))
	assert.Equal(t, 3, report.Sent)
	assert.Equal(t, 1, report.Failed)

	w = s.do(http.MethodPost, "/api/v1/leagues/"+missing.String()+"/notifications", request)
	assert.Equal(t, http.StatusNotFound, w.Code)

	w = s.do(http.MethodPost, "/api/v1/leagues/"+leagueID.String()+"/notifications", map[string]string{"subject": "No body"})
	assert.Equal(t, http.StatusBadRequest, w.Code)

	w = s.do(http.MethodPost, "/api/v1/leagues/not-a-uuid/notifications", request)
	assert.Equal(t, http.StatusBadRequest, w.Code)

	s.notifications.AssertExpectations(t)
}

func TestHealthHandler(t *testing.T) {
	healthy := Check{Name: "database", Ping: func(context.Context) error { return nil }}
	broken := Check{Name: "redis", Ping: func(context.Context) error { return errors.New("connection refused") }}

	s := newTestServer(healthy)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health", nil).Code)
	assert.Equal(t, http.StatusOK, s.do(http.MethodGet, "/health/ready", nil).Code)

	s = newTestServer(healthy, broken)
	w := s.do(http.MethodGet, "/health/ready", nil)
	require.Equal(t, http.StatusServiceUnavailable, w.Code)

	var status HealthStatus
	require.NoError(t, json.Unmarshal(decodeEnvelope(t, w).Data, &status))
	assert.Equal(t, "ok", status.Checks["database"])
	assert.Contains(t, status.Checks["redis"], "connection refused")
}
