package http

import (
	"time"

	"fleetrent-backend/internal/domain"
)

type reservationResponse struct {
	ID         string `json:"id"`
	ResourceID string `json:"resource_id"`
	CustomerID string `json:"customer_id"`
	StartDate  string `json:"start_date"`
	EndDate    string `json:"end_date"`
	Status     string `json:"status"`
	Notes      string `json:"notes,omitempty"`
	CreatedAt  string `json:"created_at"`
	UpdatedAt  string `json:"updated_at"`
}

type resourceResponse struct {
	ID            string `json:"id"`
	Name          string `json:"name"`
	Status        string `json:"status"`
	BaseDailyRate string `json:"base_daily_rate"`
	Vintage       int    `json:"vintage"`
	Mileage       int64  `json:"mileage"`
}

type quoteResponse struct {
	Items []domain.LineItem `json:"items"`
	Total string            `json:"total"`
}

type depositResponse struct {
	ID             string `json:"id"`
	ReservationID  string `json:"reservation_id"`
	Amount         string `json:"amount"`
	ReleasedAmount string `json:"released_amount"`
	Outstanding    string `json:"outstanding"`
	Status         string `json:"status"`
	SettlementRef  string `json:"settlement_ref,omitempty"`
}

type invoiceResponse struct {
	ID            string            `json:"id"`
	ReservationID string            `json:"reservation_id"`
	LineItems     []domain.LineItem `json:"line_items"`
	Total         string            `json:"total"`
	Paid          bool              `json:"paid"`
	PaidAt        string            `json:"paid_at,omitempty"`
	PaymentMethod string            `json:"payment_method,omitempty"`
	PaymentRef    string            `json:"payment_ref,omitempty"`
}

type completeResponse struct {
	Reservation reservationResponse `json:"reservation"`
	Invoice     invoiceResponse     `json:"invoice"`
}

type rateRuleResponse struct {
	ID     string `json:"id"`
	Name   string `json:"name"`
	Kind   string `json:"kind"`
	Active bool   `json:"active"`
}

func mapReservation(r *domain.Reservation) reservationResponse {
	return reservationResponse{
		ID:         r.ID.String(),
		ResourceID: r.ResourceID.String(),
		CustomerID: r.CustomerID.String(),
		StartDate:  r.StartDate.Format(time.DateOnly),
		EndDate:    r.EndDate.Format(time.DateOnly),
		Status:     string(r.Status),
		Notes:      r.Notes,
		CreatedAt:  r.CreatedAt.Format(time.RFC3339),
		UpdatedAt:  r.UpdatedAt.Format(time.RFC3339),
	}
}

func mapResource(r *domain.Resource) resourceResponse {
	return resourceResponse{
		ID:            r.ID.String(),
		Name:          r.Name,
		Status:        string(r.Status),
		BaseDailyRate: domain.FormatMoney(r.BaseDailyRate),
		Vintage:       r.Vintage,
		Mileage:       r.Mileage,
	}
}

func mapQuote(b *domain.PriceBreakdown) quoteResponse {
	items := b.Items
	if items == nil {
		items = []domain.LineItem{}
	}
	return quoteResponse{Items: items, Total: domain.FormatMoney(b.Total)}
}

func mapDeposit(d *domain.Deposit) depositResponse {
	return depositResponse{
		ID:             d.ID.String(),
		ReservationID:  d.ReservationID.String(),
		Amount:         domain.FormatMoney(d.Amount),
		ReleasedAmount: domain.FormatMoney(d.ReleasedAmount),
		Outstanding:    domain.FormatMoney(d.Outstanding()),
		Status:         string(d.Status),
		SettlementRef:  d.SettlementRef,
	}
}

func mapInvoice(inv *domain.Invoice) invoiceResponse {
	out := invoiceResponse{
		ID:            inv.ID.String(),
		ReservationID: inv.ReservationID.String(),
		LineItems:     inv.LineItems,
		Total:         domain.FormatMoney(inv.Total),
		Paid:          inv.Paid(),
		PaymentMethod: inv.PaymentMethod,
		PaymentRef:    inv.PaymentRef,
	}
	if inv.PaidAt != nil {
		out.PaidAt = inv.PaidAt.Format(time.RFC3339)
	}
	return out
}

func mapRateRule(r *domain.RateRule) rateRuleResponse {
	return rateRuleResponse{ID: r.ID.String(), Name: r.Name, Kind: string(r.Kind()), Active: r.Active}
}
