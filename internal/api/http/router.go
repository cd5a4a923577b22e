package http

import (
	"net/http"

	"github.com/gorilla/mux"
	"golang.org/x/time/rate"
)

// NewRouter registers the /v1 routes. createLimiter throttles reservation creation
// and may be nil.
func NewRouter(h *Handler, createLimiter *rate.Limiter) *mux.Router {
	router := mux.NewRouter()
	router.Use(recoverPanics, requestLogger)

	router.HandleFunc("/healthz", func(w http.ResponseWriter, r *http.Request) {
		writeJSON(w, http.StatusOK, map[string]string{"status": "ok"})
	}).Methods(http.MethodGet)

	v1 := router.PathPrefix("/v1").Subrouter()

	v1.HandleFunc("/resources", h.CreateResource).Methods(http.MethodPost)
	v1.HandleFunc("/resources/{id}", h.GetResource).Methods(http.MethodGet)
	v1.HandleFunc("/resources/{id}/out-of-service", h.SetOutOfService).Methods(http.MethodPost)
	v1.HandleFunc("/rate-rules", h.CreateRateRule).Methods(http.MethodPost)

	v1.HandleFunc("/quotes", h.Quote).Methods(http.MethodPost)

	v1.HandleFunc("/reservations", rateLimited(createLimiter, h.CreateReservation)).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}", h.GetReservation).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}/complete", h.Complete).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}/{action:confirm|check-in|cancel}", h.Transition).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}/deposit", h.GetDeposit).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}/deposit/release", h.ReleaseDeposit).Methods(http.MethodPost)
	v1.HandleFunc("/reservations/{id}/invoice", h.GetInvoice).Methods(http.MethodGet)
	v1.HandleFunc("/reservations/{id}/invoice/pay", h.PayInvoice).Methods(http.MethodPost)

	return router
}
