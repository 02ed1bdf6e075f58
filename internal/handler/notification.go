package handler

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/google/uuid"

	"github.com/segyhp/league-ledger/internal/domain"
	customError "github.com/segyhp/league-ledger/pkg/errors"
	"github.com/segyhp/league-ledger/pkg/response"
	"github.com/segyhp/league-ledger/pkg/utils"
)

// NotificationService is the operator surface of the scheduler.
type NotificationService interface {
	RunNow(ctx context.Context) (*domain.RunReport, error)
	RunForDate(ctx context.Context, date time.Time) (*domain.RunReport, error)
	Firings(ctx context.Context, date time.Time) ([]*domain.NotificationFiring, error)
	SendTest(ctx context.Context, recipient string) error
	Broadcast(ctx context.Context, leagueID uuid.UUID, req *domain.BroadcastRequest) (*domain.BroadcastReport, error)
	Today() time.Time
}

type NotificationHandler struct {
	service   NotificationService
	validator *validator.Validate
}

func NewNotificationHandler(service NotificationService) *NotificationHandler {
	return &NotificationHandler{
		service:   service,
		validator: newValidator(),
	}
}

// Run handles POST /api/v1/notifications/run. The body is optional; a date
// replays the rules for that day.
func (h *NotificationHandler) Run(w http.ResponseWriter, r *http.Request) {
	var request domain.RunRequest
	if err := json.NewDecoder(r.Body).Decode(&request); err != nil && !errors.Is(err, io.EOF) {
		writeError(w, customError.WrapValidation("invalid request body: %v", err))
		return
	}
	if err := h.validator.Struct(&request); err != nil {
		writeError(w, customError.WrapValidation("%v", err))
		return
	}

	var (
		report *domain.RunReport
		err    error
	)
	if request.Date == "" {
		report, err = h.service.RunNow(r.Context())
	} else {
		date, parseErr := utils.ParseDate(request.Date)
		if parseErr != nil {
			writeError(w, customError.WrapValidation("invalid date %q", request.Date))
			return
		}
		report, err = h.service.RunForDate(r.Context(), date)
	}
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, report)
}

// Firings handles GET /api/v1/notifications/firings?date=YYYY-MM-DD
func (h *NotificationHandler) Firings(w http.ResponseWriter, r *http.Request) {
	date := h.service.Today()
	if raw := r.URL.Query().Get("date"); raw != "" {
		parsed, err := utils.ParseDate(raw)
		if err != nil {
			writeError(w, customError.WrapValidation("invalid date %q", raw))
			return
		}
		date = parsed
	}

	firings, err := h.service.Firings(r.Context(), date)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, firings)
}

// SendTest handles POST /api/v1/notifications/test
func (h *NotificationHandler) SendTest(w http.ResponseWriter, r *http.Request) {
	var request domain.TestNotificationRequest
	if err := decodeAndValidate(r, h.validator, &request); err != nil {
		writeError(w, err)
		return
	}

	if err := h.service.SendTest(r.Context(), request.Recipient); err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, map[string]string{"recipient": request.Recipient, "status": "sent"})
}

// Broadcast handles POST /api/v1/leagues/{leagueId}/notifications
func (h *NotificationHandler) Broadcast(w http.ResponseWriter, r *http.Request) {
	leagueID, err := pathUUID(r, "leagueId")
	if err != nil {
		writeError(w, err)
		return
	}

	var request domain.BroadcastRequest
	if err := decodeAndValidate(r, h.validator, &request); err != nil {
		writeError(w, err)
		return
	}

	report, err := h.service.Broadcast(r.Context(), leagueID, &request)
	if err != nil {
		writeError(w, err)
		return
	}

	response.Success(w, report)
}
