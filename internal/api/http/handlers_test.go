package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"golang.org/x/time/rate"
)

type testServer struct {
	booking   *MockBookingService
	quotes    *MockQuoteService
	invoices  *MockInvoiceService
	resources *MockResourceService
	router    http.Handler
}

func newTestServer(limiter *rate.Limiter) *testServer {
	s := &testServer{
		booking:   new(MockBookingService),
		quotes:    new(MockQuoteService),
		invoices:  new(MockInvoiceService),
		resources: new(MockResourceService),
	}
	s.router = NewRouter(NewHandler(s.booking, s.quotes, s.invoices, s.resources), limiter)
	return s
}

func (s *testServer) do(method, path, body string) *httptest.ResponseRecorder {
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	req.Header.Set("Content-Type", "application/json")
	rec := httptest.NewRecorder()
	s.router.ServeHTTP(rec, req)
	return rec
}

func decodeBody(t *testing.T, rec *httptest.ResponseRecorder) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &out))
	return out
}

func sampleReservation(status domain.ReservationStatus) *domain.Reservation {
	return &domain.Reservation{
		ID:         uuid.New(),
		ResourceID: uuid.New(),
		CustomerID: uuid.New(),
		StartDate:  time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC),
		EndDate:    time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC),
		Status:     status,
	}
}

func TestCreateReservation(t *testing.T) {
	s := newTestServer(nil)
	customerID, resourceID := uuid.New(), uuid.New()
	start := time.Date(2026, 6, 1, 0, 0, 0, 0, time.UTC)
	end := time.Date(2026, 6, 4, 0, 0, 0, 0, time.UTC)

	t.Run("Success", func(t *testing.T) {
		res := sampleReservation(domain.ReservationStatusPending)
		s.booking.On("CreateReservation", mock.Anything, customerID, resourceID, start, end, "airport").Return(res, nil).Once()

		rec := s.do(http.MethodPost, "/v1/reservations", `{"customer_id":"`+customerID.String()+`","resource_id":"`+resourceID.String()+`","start_date":"2026-06-01","end_date":"2026-06-04","notes":"airport"}`)
		assert.Equal(t, http.StatusCreated, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "PENDING", body["status"])
		assert.Equal(t, "2026-06-01", body["start_date"])
	})

	t.Run("Overlap maps to 409", func(t *testing.T) {
		conflict := uuid.New()
		s.booking.On("CreateReservation", mock.Anything, customerID, resourceID, start, end, "").
			Return(nil, &domain.OverlapError{ResourceID: resourceID, StartDate: start, EndDate: end, Conflicting: []uuid.UUID{conflict}}).Once()

		rec := s.do(http.MethodPost, "/v1/reservations", `{"customer_id":"`+customerID.String()+`","resource_id":"`+resourceID.String()+`","start_date":"2026-06-01","end_date":"2026-06-04"}`)
		assert.Equal(t, http.StatusConflict, rec.Code)
		body := decodeBody(t, rec)
		assert.Equal(t, "overlap", body["code"])
		assert.Equal(t, []any{conflict.String()}, body["conflicting"])
	})

	t.Run("Bad date", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/v1/reservations", `{"customer_id":"`+customerID.String()+`","resource_id":"`+resourceID.String()+`","start_date":"06/01/2026","end_date":"2026-06-04"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
		assert.Equal(t, "start_date", decodeBody(t, rec)["field"])
	})

	t.Run("Unknown field", func(t *testing.T) {
		rec := s.do(http.MethodPost, "/v1/reservations", `{"vehicle":"x"}`)
		assert.Equal(t, http.StatusBadRequest, rec.Code)
	})

	s.booking.AssertExpectations(t)
}

func TestCreateReservation_RateLimited(t *testing.T) {
	s := newTestServer(rate.NewLimiter(rate.Every(time.Hour), 1))
	s.booking.On("CreateReservation", mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything, mock.Anything).
		Return(sampleReservation(domain.ReservationStatusPending), nil).Once()
	body := `{"customer_id":"` + uuid.NewString() + `","resource_id":"` + uuid.NewString() + `","start_date":"2026-06-01","end_date":"2026-06-04"}`

	first := s.do(http.MethodPost, "/v1/reservations", body)
	assert.Equal(t, http.StatusCreated, first.Code)

	second := s.do(http.MethodPost, "/v1/reservations", body)
	assert.Equal(t, http.StatusTooManyRequests, second.Code)
	assert.NotEmpty(t, second.Header().Get("Retry-After"))
	s.booking.AssertExpectations(t)
}

func TestTransition(t *testing.T) {
	s := newTestServer(nil)
	res := sampleReservation(domain.ReservationStatusConfirmed)

	s.booking.On("Confirm", mock.Anything, res.ID).Return(res, nil).Once()
	rec := s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/confirm", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.booking.On("CheckIn", mock.Anything, res.ID).Return(nil, &domain.InvalidTransitionError{
		ReservationID: res.ID, From: domain.ReservationStatusPending, Event: domain.EventCheckIn,
	}).Once()
	rec = s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/check-in", "")
	assert.Equal(t, http.StatusConflict, rec.Code)
	assert.Equal(t, "invalid_transition", decodeBody(t, rec)["code"])

	s.booking.On("Cancel", mock.Anything, res.ID).Return(nil, domain.NewNotFoundError("reservation", res.ID)).Once()
	rec = s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/cancel", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	rec = s.do(http.MethodPost, "/v1/reservations/not-a-uuid/confirm", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	rec = s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/explode", "")
	assert.Equal(t, http.StatusNotFound, rec.Code)

	s.booking.AssertExpectations(t)
}

func TestComplete(t *testing.T) {
	s := newTestServer(nil)
	res := sampleReservation(domain.ReservationStatusCompleted)
	inv := &domain.Invoice{
		ID:            uuid.New(),
		ReservationID: res.ID,
		LineItems: []domain.LineItem{
			{Label: "Base price", Amount: decimal.NewFromInt(300)},
			{Label: "Fine: Damage", Amount: decimal.NewFromInt(50), Metadata: map[string]string{"category": "damage"}},
		},
		Total: decimal.NewFromInt(350),
	}
	fines := []domain.FineInput{{Category: domain.FineCategoryDamage, Amount: decimal.RequireFromString("50.00"), Note: "bumper"}}
	s.booking.On("Complete", mock.Anything, res.ID, int64(250), mock.MatchedBy(func(in []domain.FineInput) bool {
		return len(in) == 1 && in[0].Category == fines[0].Category && in[0].Amount.Equal(fines[0].Amount) && in[0].Note == "bumper"
	})).Return(res, inv, nil).Once()

	rec := s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/complete",
		`{"usage_delta":250,"fines":[{"category":"damage","amount":"50.00","note":"bumper"}]}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	invoice := body["invoice"].(map[string]any)
	assert.Equal(t, "350.00", invoice["total"])
	items := invoice["line_items"].([]any)
	require.Len(t, items, 2)
	assert.Equal(t, "50.00", items[1].(map[string]any)["amount"])

	rec = s.do(http.MethodPost, "/v1/reservations/"+res.ID.String()+"/complete", `{"fines":[{"category":"damage","amount":"lots"}]}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)
	s.booking.AssertExpectations(t)
}

func TestQuote(t *testing.T) {
	s := newTestServer(nil)
	resourceID := uuid.New()
	s.quotes.On("Quote", mock.Anything, resourceID, mock.Anything, mock.Anything).Return(&domain.PriceBreakdown{
		Items: []domain.LineItem{
			{Label: "Base price", Amount: decimal.NewFromInt(700)},
			{Label: "Duration discount", Amount: decimal.NewFromInt(-70)},
		},
		Total: decimal.NewFromInt(630),
	}, nil).Once()

	rec := s.do(http.MethodPost, "/v1/quotes", `{"resource_id":"`+resourceID.String()+`","start_date":"2026-06-01","end_date":"2026-06-08"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	body := decodeBody(t, rec)
	assert.Equal(t, "630.00", body["total"])
	assert.Len(t, body["items"], 2)
}

func TestDepositAndInvoiceRoutes(t *testing.T) {
	s := newTestServer(nil)
	id := uuid.New()
	deposit := &domain.Deposit{ID: uuid.New(), ReservationID: id, Amount: decimal.NewFromInt(90), ReleasedAmount: decimal.NewFromInt(30), Status: domain.DepositStatusPartiallyReleased}

	s.booking.On("ReleaseDeposit", mock.Anything, id, mock.MatchedBy(func(d decimal.Decimal) bool {
		return d.Equal(decimal.NewFromInt(30))
	})).Return(deposit, nil).Once()
	rec := s.do(http.MethodPost, "/v1/reservations/"+id.String()+"/deposit/release", `{"amount":"30"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "60.00", decodeBody(t, rec)["outstanding"])

	s.booking.On("GetDeposit", mock.Anything, id).Return(deposit, nil).Once()
	rec = s.do(http.MethodGet, "/v1/reservations/"+id.String()+"/deposit", "")
	assert.Equal(t, http.StatusOK, rec.Code)

	s.invoices.On("PayInvoice", mock.Anything, id, "card").Return(nil, &domain.SettlementError{Operation: "pay", Err: errors.New("declined")}).Once()
	rec = s.do(http.MethodPost, "/v1/reservations/"+id.String()+"/invoice/pay", `{"method":"card"}`)
	assert.Equal(t, http.StatusBadGateway, rec.Code)

	s.invoices.On("GetInvoice", mock.Anything, id).Return(nil, errors.New("connection reset")).Once()
	rec = s.do(http.MethodGet, "/v1/reservations/"+id.String()+"/invoice", "")
	assert.Equal(t, http.StatusInternalServerError, rec.Code)
	assert.Equal(t, "internal error", decodeBody(t, rec)["error"])

	s.booking.AssertExpectations(t)
	s.invoices.AssertExpectations(t)
}

func TestResourceRoutes(t *testing.T) {
	s := newTestServer(nil)

	s.resources.On("CreateResource", mock.Anything, mock.MatchedBy(func(r *domain.Resource) bool {
		return r.Name == "Corolla" && r.BaseDailyRate.Equal(decimal.RequireFromString("45.50"))
	})).Run(func(args mock.Arguments) {
		r := args.Get(1).(*domain.Resource)
		r.ID = uuid.New()
		r.Status = domain.ResourceStatusAvailable
	}).Return(nil).Once()
	rec := s.do(http.MethodPost, "/v1/resources", `{"name":"Corolla","base_daily_rate":"45.5","vintage":2022}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "45.50", decodeBody(t, rec)["base_daily_rate"])

	id := uuid.New()
	s.resources.On("SetOutOfService", mock.Anything, id, true).Return(&domain.Resource{ID: id, Name: "Corolla", Status: domain.ResourceStatusOutOfService}, nil).Once()
	rec = s.do(http.MethodPost, "/v1/resources/"+id.String()+"/out-of-service", `{"out_of_service":true}`)
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "OUT_OF_SERVICE", decodeBody(t, rec)["status"])

	s.resources.On("CreateRateRule", mock.Anything, mock.MatchedBy(func(r *domain.RateRule) bool {
		return r.Kind() == domain.RuleKindSeasonalAdjustment && r.Active
	})).Return(nil).Once()
	rec = s.do(http.MethodPost, "/v1/rate-rules", `{"name":"Summer","kind":"seasonal_adjustment","params":{"start":"06-01","end":"08-31","multiplier":"1.15"}}`)
	assert.Equal(t, http.StatusCreated, rec.Code)

	rec = s.do(http.MethodPost, "/v1/rate-rules", `{"name":"Bad","kind":"loyalty","params":{}}`)
	assert.Equal(t, http.StatusBadRequest, rec.Code)

	s.resources.AssertExpectations(t)
}

func TestHealthz(t *testing.T) {
	s := newTestServer(nil)
	rec := s.do(http.MethodGet, "/healthz", "")
	assert.Equal(t, http.StatusOK, rec.Code)
}
