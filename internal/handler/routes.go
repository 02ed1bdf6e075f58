package handler

import (
	"net/http"

	"github.com/gorilla/mux"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/segyhp/league-ledger/pkg/response"
)

// NewRouter wires every HTTP route. notifications may be nil when the
// process does not own a scheduler.
func NewRouter(health *HealthHandler, ledger *LedgerHandler, notifications *NotificationHandler) *mux.Router {
	router := mux.NewRouter()

	router.Use(response.LoggingMiddleware)
	router.Use(response.CORSMiddleware)

	router.HandleFunc("/health", health.Health).Methods(http.MethodGet)
	router.HandleFunc("/health/ready", health.Ready).Methods(http.MethodGet)
	router.Handle("/metrics", promhttp.Handler()).Methods(http.MethodGet)

	api := router.PathPrefix("/api/v1").Subrouter()

	api.HandleFunc("/attendance", ledger.SetStatus).Methods(http.MethodPost)
	api.HandleFunc("/leagues/{leagueId}/weeks", ledger.GetWeeks).Methods(http.MethodGet)
	api.HandleFunc("/leagues/{leagueId}/grid", ledger.GetGrid).Methods(http.MethodGet)
	api.HandleFunc("/leagues/{leagueId}/members/{memberId}/balance", ledger.GetBalance).Methods(http.MethodGet)

	if notifications != nil {
		api.HandleFunc("/notifications/run", notifications.Run).Methods(http.MethodPost)
		api.HandleFunc("/notifications/firings", notifications.Firings).Methods(http.MethodGet)
		api.HandleFunc("/notifications/test", notifications.SendTest).Methods(http.MethodPost)
		api.HandleFunc("/leagues/{leagueId}/notifications", notifications.Broadcast).Methods(http.MethodPost)
	}

	return router
}
