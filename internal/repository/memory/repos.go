package memory

import (
	"context"
	"sort"
	"time"

	"fleetrent-backend/internal/domain"

	"github.com/google/uuid"
)

type resourceRepo struct{ v view }

func (r *resourceRepo) Create(ctx context.Context, resource *domain.Resource) error {
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}
	stored := *resource
	return r.v.write(ctx, func(d *dataset) error {
		d.resources[stored.ID] = stored
		return nil
	})
}

func (r *resourceRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	res, ok := r.v.read().resources[id]
	if !ok {
		return nil, domain.NewNotFoundError("resource", id)
	}
	return &res, nil
}

func (r *resourceRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	return r.GetByID(ctx, id)
}

func (r *resourceRepo) Update(ctx context.Context, resource *domain.Resource) error {
	stored := *resource
	return r.v.write(ctx, func(d *dataset) error {
		if _, ok := d.resources[stored.ID]; !ok {
			return domain.NewNotFoundError("resource", stored.ID)
		}
		d.resources[stored.ID] = stored
		return nil
	})
}

type reservationRepo struct{ v view }

func (r *reservationRepo) Create(ctx context.Context, reservation *domain.Reservation) error {
	if reservation.ID == uuid.Nil {
		reservation.ID = uuid.New()
	}
	stored := *reservation
	return r.v.write(ctx, func(d *dataset) error {
		if _, ok := d.resources[stored.ResourceID]; !ok {
			return domain.NewNotFoundError("resource", stored.ResourceID)
		}
		if stored.Status.Blocking() {
			if conflicts := overlapping(d, stored.ResourceID, stored.StartDate, stored.EndDate, nil); len(conflicts) > 0 {
				return overlapError(stored, conflicts)
			}
		}
		d.reservations[stored.ID] = stored
		return nil
	})
}

func (r *reservationRepo) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	res, ok := r.v.read().reservations[id]
	if !ok {
		return nil, domain.NewNotFoundError("reservation", id)
	}
	return &res, nil
}

func (r *reservationRepo) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.GetByID(ctx, id)
}

func (r *reservationRepo) UpdateStatus(ctx context.Context, reservation *domain.Reservation) error {
	id, status, updatedAt := reservation.ID, reservation.Status, reservation.UpdatedAt
	return r.v.write(ctx, func(d *dataset) error {
		existing, ok := d.reservations[id]
		if !ok {
			return domain.NewNotFoundError("reservation", id)
		}
		existing.Status = status
		existing.UpdatedAt = updatedAt
		d.reservations[id] = existing
		return nil
	})
}

func (r *reservationRepo) FindOverlapping(ctx context.Context, resourceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	return overlapping(r.v.read(), resourceID, start, end, excludeID), nil
}

func (r *reservationRepo) ListByResource(ctx context.Context, resourceID uuid.UUID, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	return filter(r.v.read(), func(res domain.Reservation) bool {
		return res.ResourceID == resourceID && hasStatus(statuses, res.Status)
	}), nil
}

func (r *reservationRepo) ListPendingStartingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	return filter(r.v.read(), func(res domain.Reservation) bool {
		return res.Status == domain.ReservationStatusPending && res.StartDate.Before(day)
	}), nil
}

func (r *reservationRepo) ListActiveEndingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	return filter(r.v.read(), func(res domain.Reservation) bool {
		return res.Status == domain.ReservationStatusActive && res.EndDate.Before(day)
	}), nil
}

func overlapping(d *dataset, resourceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) []domain.Reservation {
	return filter(d, func(res domain.Reservation) bool {
		if excludeID != nil && res.ID == *excludeID {
			return false
		}
		return res.ResourceID == resourceID && res.Status.Blocking() && res.Overlaps(start, end)
	})
}

func overlapError(res domain.Reservation, conflicts []domain.Reservation) *domain.OverlapError {
	ids := make([]uuid.UUID, 0, len(conflicts))
	for _, c := range conflicts {
		ids = append(ids, c.ID)
	}
	return &domain.OverlapError{ResourceID: res.ResourceID, StartDate: res.StartDate, EndDate: res.EndDate, Conflicting: ids}
}

// filter returns matches ordered by start date then id, like the SQL queries.
func filter(d *dataset, keep func(domain.Reservation) bool) []domain.Reservation {
	var out []domain.Reservation
	for _, res := range d.reservations {
		if keep(res) {
			out = append(out, res)
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if !out[i].StartDate.Equal(out[j].StartDate) {
			return out[i].StartDate.Before(out[j].StartDate)
		}
		return out[i].ID.String() < out[j].ID.String()
	})
	return out
}

func hasStatus(statuses []domain.ReservationStatus, s domain.ReservationStatus) bool {
	for _, candidate := range statuses {
		if candidate == s {
			return true
		}
	}
	return false
}

type depositRepo struct{ v view }

func (r *depositRepo) Create(ctx context.Context, deposit *domain.Deposit) error {
	if deposit.ID == uuid.Nil {
		deposit.ID = uuid.New()
	}
	stored := *deposit
	return r.v.write(ctx, func(d *dataset) error {
		if _, exists := d.deposits[stored.ReservationID]; exists {
			return domain.NewValidationError("reservation_id", "already has a deposit")
		}
		d.deposits[stored.ReservationID] = stored
		return nil
	})
}

func (r *depositRepo) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error) {
	dep, ok := r.v.read().deposits[reservationID]
	if !ok {
		return nil, domain.NewNotFoundError("deposit", reservationID)
	}
	return &dep, nil
}

func (r *depositRepo) Update(ctx context.Context, deposit *domain.Deposit) error {
	stored := *deposit
	return r.v.write(ctx, func(d *dataset) error {
		existing, ok := d.deposits[stored.ReservationID]
		if !ok || existing.ID != stored.ID {
			return domain.NewNotFoundError("deposit", stored.ID)
		}
		d.deposits[stored.ReservationID] = stored
		return nil
	})
}

type fineRepo struct{ v view }

func (r *fineRepo) Create(ctx context.Context, fine *domain.Fine) error {
	if fine.ID == uuid.Nil {
		fine.ID = uuid.New()
	}
	stored := *fine
	return r.v.write(ctx, func(d *dataset) error {
		d.fines[stored.ReservationID] = append(d.fines[stored.ReservationID], stored)
		return nil
	})
}

func (r *fineRepo) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Fine, error) {
	return append([]domain.Fine(nil), r.v.read().fines[reservationID]...), nil
}

type invoiceRepo struct{ v view }

func (r *invoiceRepo) Upsert(ctx context.Context, invoice *domain.Invoice) error {
	return r.v.write(ctx, func(d *dataset) error {
		existing, ok := d.invoices[invoice.ReservationID]
		if ok {
			invoice.ID = existing.ID
			invoice.CreatedAt = existing.CreatedAt
			invoice.PaidAt, invoice.PaymentMethod, invoice.PaymentRef = existing.PaidAt, existing.PaymentMethod, existing.PaymentRef
			if sameContent(existing, *invoice) {
				invoice.UpdatedAt = existing.UpdatedAt
				return nil
			}
		} else if invoice.ID == uuid.Nil {
			invoice.ID = uuid.New()
		}
		d.invoices[invoice.ReservationID] = copyInvoice(*invoice)
		return nil
	})
}

func (r *invoiceRepo) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	inv, ok := r.v.read().invoices[reservationID]
	if !ok {
		return nil, domain.NewNotFoundError("invoice", reservationID)
	}
	out := copyInvoice(inv)
	return &out, nil
}

func (r *invoiceRepo) MarkPaid(ctx context.Context, invoice *domain.Invoice) error {
	return r.v.write(ctx, func(d *dataset) error {
		existing, ok := d.invoices[invoice.ReservationID]
		if !ok {
			return domain.NewNotFoundError("invoice", invoice.ReservationID)
		}
		if existing.Paid() {
			return domain.NewValidationError("invoice", "is already paid")
		}
		existing.PaidAt = invoice.PaidAt
		existing.PaymentMethod = invoice.PaymentMethod
		existing.PaymentRef = invoice.PaymentRef
		existing.UpdatedAt = invoice.UpdatedAt
		d.invoices[invoice.ReservationID] = copyInvoice(existing)
		return nil
	})
}

func sameContent(a, b domain.Invoice) bool {
	if !a.Total.Equal(b.Total) || len(a.LineItems) != len(b.LineItems) {
		return false
	}
	for i := range a.LineItems {
		x, y := a.LineItems[i], b.LineItems[i]
		if x.Label != y.Label || !x.Amount.Equal(y.Amount) || len(x.Metadata) != len(y.Metadata) {
			return false
		}
		for k, v := range x.Metadata {
			if y.Metadata[k] != v {
				return false
			}
		}
	}
	return true
}

func copyInvoice(inv domain.Invoice) domain.Invoice {
	items := make([]domain.LineItem, len(inv.LineItems))
	for i, item := range inv.LineItems {
		var meta map[string]string
		if item.Metadata != nil {
			meta = make(map[string]string, len(item.Metadata))
			for k, v := range item.Metadata {
				meta[k] = v
			}
		}
		items[i] = domain.LineItem{Label: item.Label, Amount: item.Amount, Metadata: meta}
	}
	inv.LineItems = items
	if inv.PaidAt != nil {
		paid := *inv.PaidAt
		inv.PaidAt = &paid
	}
	return inv
}

type rateRuleRepo struct{ v view }

func (r *rateRuleRepo) Create(ctx context.Context, rule *domain.RateRule) error {
	if rule.Params == nil {
		return domain.NewValidationError("params", "are required")
	}
	if err := rule.Params.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	stored := *rule
	return r.v.write(ctx, func(d *dataset) error {
		d.rules[stored.ID] = stored
		return nil
	})
}

func (r *rateRuleRepo) ListActive(ctx context.Context) ([]domain.RateRule, error) {
	var out []domain.RateRule
	for _, rule := range r.v.read().rules {
		if rule.Active {
			out = append(out, rule)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID.String() < out[j].ID.String() })
	return out, nil
}
