package handler

import (
	"context"
	"net/http"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"
	"github.com/shopspring/decimal"

	"github.com/segyhp/league-ledger/internal/calendar"
	"github.com/segyhp/league-ledger/internal/domain"
	"github.com/segyhp/league-ledger/pkg/response"
)

// LedgerService is the part of the ledger the HTTP layer drives.
type LedgerService interface {
	SetStatus(ctx context.Context, request *domain.SetStatusRequest) (*domain.SetStatusResponse, error)
	GetBalance(ctx context.Context, memberID, leagueID uuid.UUID) (decimal.Decimal, error)
	GetWeeks(ctx context.Context, leagueID uuid.UUID) ([]calendar.Week, error)
	GetGrid(ctx context.Context, leagueID uuid.UUID) (*domain.Grid, error)
}

type LedgerHandler struct {
	service   LedgerService
	validator *validator.Validate
}

func NewLedgerHandler(service LedgerService) *LedgerHandler {
	return &LedgerHandler{
		service:   service,
		validator: newValidator(),
	}
}

// SetStatus handles POST /api/v1/attendance
func (h *LedgerHandler) SetStatus(w http.ResponseWriter, r *http.Request) {
	var request domain.SetStatusRequest
	if err := decodeAndValidate(r, h.validator, &request); err != nil {
		writeError(w, err)
		return
	}

	result, err := h.service.SetStatus(r.Context(), &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, result)
}

// GetBalance handles GET /api/v1/leagues/{leagueId}/members/{memberId}/balance
func (h *LedgerHandler) GetBalance(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueId")
	if err != nil {
		writeError(w, err)
		return
	}
	memberID, err := pathUUID(r, "memberId")
	if err != nil {
		writeError(w, err)
		return
	}

	balance, err := h.service.GetBalance(r.Context(), memberID, leagueID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, domain.BalanceResponse{
		MemberID: memberID,
		LeagueID: leagueID,
		Balance:  balance,
	})
}

// GetWeeks handles GET /api/v1/leagues/{leagueId}/weeks
func (h *LedgerHandler) GetWeeks(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueId")
	if err != nil {
		writeError(w, err)
		return
	}

	weeks, err := h.service.GetWeeks(r.Context(), leagueID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, weeks)
}

// GetGrid handles GET /api/v1/leagues/{leagueId}/grid
func (h *LedgerHandler) GetGrid(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueId")
	if err != nil {
		writeError(w, err)
		return
	}

	grid, err := h.service.GetGrid(r.Context(), leagueID)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, grid)
}
