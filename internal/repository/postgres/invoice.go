package postgres

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type invoiceRepository struct {
	db DBTX
}

func NewInvoiceRepository(db DBTX) repository.InvoiceRepository {
	return &invoiceRepository{db: db}
}

// Upsert only touches the row when the line items or total differ, so rebuilding an
// unchanged invoice leaves it exactly as stored.
func (r *invoiceRepository) Upsert(ctx context.Context, inv *domain.Invoice) error {
	logger.EnterMethod("invoiceRepository.Upsert", "reservationID", inv.ReservationID)

	items, err := json.Marshal(inv.LineItems)
	if err != nil {
		return fmt.Errorf("encode line items: %w", err)
	}
	if inv.ID == uuid.Nil {
		inv.ID = uuid.New()
	}

	query := `
		INSERT INTO invoices (id, reservation_id, line_items, total, created_at, updated_at)
		VALUES ($1, $2, $3, $4, $5, $6)
		ON CONFLICT (reservation_id) DO UPDATE
		SET line_items = EXCLUDED.line_items, total = EXCLUDED.total, updated_at = EXCLUDED.updated_at
		WHERE invoices.line_items IS DISTINCT FROM EXCLUDED.line_items
		   OR invoices.total IS DISTINCT FROM EXCLUDED.total
		RETURNING id, created_at, updated_at, paid_at, payment_method, payment_ref
	`
	var method, ref sql.NullString
	err = r.db.QueryRowContext(ctx, query, inv.ID, inv.ReservationID, string(items), inv.Total, inv.CreatedAt, inv.UpdatedAt).
		Scan(&inv.ID, &inv.CreatedAt, &inv.UpdatedAt, &inv.PaidAt, &method, &ref)
	if errors.Is(err, sql.ErrNoRows) {
		existing, getErr := r.GetByReservation(ctx, inv.ReservationID)
		if getErr != nil {
			logger.ExitMethodWithError("invoiceRepository.Upsert", getErr, "reservationID", inv.ReservationID)
			return getErr
		}
		*inv = *existing
		logger.ExitMethod("invoiceRepository.Upsert", "invoiceID", inv.ID, "changed", false)
		return nil
	}
	if err != nil {
		logger.ExitMethodWithError("invoiceRepository.Upsert", err, "reservationID", inv.ReservationID)
		return err
	}
	inv.PaymentMethod, inv.PaymentRef = method.String, ref.String

	logger.ExitMethod("invoiceRepository.Upsert", "invoiceID", inv.ID, "changed", true)
	return nil
}

func (r *invoiceRepository) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Invoice, error) {
	query := `SELECT id, reservation_id, line_items, total, paid_at, payment_method, payment_ref, created_at, updated_at
	          FROM invoices WHERE reservation_id = $1`
	inv := &domain.Invoice{}
	var items []byte
	var method, ref sql.NullString
	err := r.db.QueryRowContext(ctx, query, reservationID).Scan(
		&inv.ID, &inv.ReservationID, &items, &inv.Total, &inv.PaidAt, &method, &ref, &inv.CreatedAt, &inv.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "invoice", reservationID)
	}
	if err := json.Unmarshal(items, &inv.LineItems); err != nil {
		return nil, fmt.Errorf("decode line items of invoice %s: %w", inv.ID, err)
	}
	inv.PaymentMethod, inv.PaymentRef = method.String, ref.String
	return inv, nil
}

func (r *invoiceRepository) MarkPaid(ctx context.Context, inv *domain.Invoice) error {
	query := `UPDATE invoices SET paid_at=$1, payment_method=$2, payment_ref=$3, updated_at=$4
	          WHERE reservation_id=$5 AND paid_at IS NULL`
	result, err := r.db.ExecContext(ctx, query, inv.PaidAt, inv.PaymentMethod, inv.PaymentRef, inv.UpdatedAt, inv.ReservationID)
	if err != nil {
		return fmt.Errorf("mark invoice %s paid: %w", inv.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewValidationError("invoice", "is missing or already paid")
	}
	return nil
}
