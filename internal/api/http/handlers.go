package http

import (
	"encoding/json"
	"fmt"
	"net/http"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/service"

	"github.com/google/uuid"
	"github.com/gorilla/mux"
)

// Handler exposes the booking services as JSON over HTTP.
type Handler struct {
	booking   service.BookingService
	quotes    service.QuoteService
	invoices  service.InvoiceService
	resources service.ResourceService
}

func NewHandler(booking service.BookingService, quotes service.QuoteService, invoices service.InvoiceService, resources service.ResourceService) *Handler {
	return &Handler{booking: booking, quotes: quotes, invoices: invoices, resources: resources}
}

type createResourceRequest struct {
	Name          string `json:"name"`
	BaseDailyRate string `json:"base_daily_rate"`
	Vintage       int    `json:"vintage"`
	Mileage       int64  `json:"mileage"`
}

type outOfServiceRequest struct {
	OutOfService bool `json:"out_of_service"`
}

type createRateRuleRequest struct {
	Name   string              `json:"name"`
	Kind   domain.RateRuleKind `json:"kind"`
	Params json.RawMessage     `json:"params"`
	Active *bool               `json:"active"`
}

type quoteRequest struct {
	ResourceID string `json:"resource_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
}

type createReservationRequest struct {
	CustomerID string `json:"customer_id"`
	ResourceID string `json:"resource_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Notes      string `json:"notes"`
}

type fineRequest struct {
	Category string `json:"category"`
	Amount   string `json:"amount"`
	Note     string `json:"note"`
}

type completeRequest struct {
	UsageDelta int64         `json:"usage_delta"`
	Fines      []fineRequest `json:"fines"`
}

type releaseDepositRequest struct {
	Amount string `json:"amount"`
}

type payInvoiceRequest struct {
	Method string `json:"method"`
}

func (h *Handler) CreateResource(w http.ResponseWriter, r *http.Request) {
	var req createResourceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	rate, err := domain.ParseMoney("base_daily_rate", req.BaseDailyRate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resource := &domain.Resource{Name: req.Name, BaseDailyRate: rate, Vintage: req.Vintage, Mileage: req.Mileage}
	if err := h.resources.CreateResource(r.Context(), resource); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapResource(resource))
}

func (h *Handler) GetResource(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	resource, err := h.resources.GetResource(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResource(resource))
}

func (h *Handler) SetOutOfService(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req outOfServiceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resource, err := h.resources.SetOutOfService(r.Context(), id, req.OutOfService)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapResource(resource))
}

func (h *Handler) CreateRateRule(w http.ResponseWriter, r *http.Request) {
	var req createRateRuleRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	active := req.Active == nil || *req.Active
	rule, err := domain.ParseRateRule(uuid.Nil, req.Name, req.Kind, req.Params, active)
	if err != nil {
		writeError(w, r, err)
		return
	}
	if err := h.resources.CreateRateRule(r.Context(), &rule); err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapRateRule(&rule))
}

func (h *Handler) Quote(w http.ResponseWriter, r *http.Request) {
	var req quoteRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	resourceID, err := parseID("resource_id", req.ResourceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	breakdown, err := h.quotes.Quote(r.Context(), resourceID, start, end)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapQuote(breakdown))
}

func (h *Handler) CreateReservation(w http.ResponseWriter, r *http.Request) {
	var req createReservationRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	customerID, err := parseID("customer_id", req.CustomerID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	resourceID, err := parseID("resource_id", req.ResourceID)
	if err != nil {
		writeError(w, r, err)
		return
	}
	start, end, err := parseRange(req.StartDate, req.EndDate)
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.booking.CreateReservation(r.Context(), customerID, resourceID, start, end, req.Notes)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusCreated, mapReservation(res))
}

func (h *Handler) GetReservation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	res, err := h.booking.GetReservation(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReservation(res))
}

// Transition handles the confirm, check-in and cancel actions.
func (h *Handler) Transition(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}

	var res *domain.Reservation
	switch domain.LifecycleEvent(mux.Vars(r)["action"]) {
	case domain.EventConfirm:
		res, err = h.booking.Confirm(r.Context(), id)
	case domain.EventCheckIn:
		res, err = h.booking.CheckIn(r.Context(), id)
	case domain.EventCancel:
		res, err = h.booking.Cancel(r.Context(), id)
	default:
		err = domain.NewValidationError("action", "unknown action "+mux.Vars(r)["action"])
	}
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapReservation(res))
}

func (h *Handler) Complete(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req completeRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	fines := make([]domain.FineInput, 0, len(req.Fines))
	for _, f := range req.Fines {
		amount, err := domain.ParseMoney("fines.amount", f.Amount)
		if err != nil {
			writeError(w, r, err)
			return
		}
		fines = append(fines, domain.FineInput{Category: domain.FineCategory(f.Category), Amount: amount, Note: f.Note})
	}

	res, inv, err := h.booking.Complete(r.Context(), id, req.UsageDelta, fines)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, completeResponse{Reservation: mapReservation(res), Invoice: mapInvoice(inv)})
}

func (h *Handler) GetDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.booking.GetDeposit(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDeposit(d))
}

func (h *Handler) ReleaseDeposit(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req releaseDepositRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	amount, err := domain.ParseMoney("amount", req.Amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	d, err := h.booking.ReleaseDeposit(r.Context(), id, amount)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapDeposit(d))
}

func (h *Handler) GetInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.invoices.GetInvoice(r.Context(), id)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapInvoice(inv))
}

func (h *Handler) PayInvoice(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		writeError(w, r, err)
		return
	}
	var req payInvoiceRequest
	if err := decode(r, &req); err != nil {
		writeError(w, r, err)
		return
	}
	inv, err := h.invoices.PayInvoice(r.Context(), id, req.Method)
	if err != nil {
		writeError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, mapInvoice(inv))
}

func decode(r *http.Request, into any) error {
	dec := json.NewDecoder(r.Body)
	dec.DisallowUnknownFields()
	if err := dec.Decode(into); err != nil {
		return domain.NewValidationError("body", fmt.Sprintf("invalid JSON: %v", err))
	}
	return nil
}

func pathID(r *http.Request, name string) (uuid.UUID, error) {
	return parseID(name, mux.Vars(r)[name])
}

func parseID(field, raw string) (uuid.UUID, error) {
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, domain.NewValidationError(field, "must be a UUID")
	}
	return id, nil
}

func parseRange(startRaw, endRaw string) (time.Time, time.Time, error) {
	start, err := time.Parse(time.DateOnly, startRaw)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("start_date", "must be YYYY-MM-DD")
	}
	end, err := time.Parse(time.DateOnly, endRaw)
	if err != nil {
		return time.Time{}, time.Time{}, domain.NewValidationError("end_date", "must be YYYY-MM-DD")
	}
	return start, end, nil
}
