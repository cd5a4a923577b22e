package postgres

import (
	"context"
	"database/sql"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type depositRepository struct {
	db DBTX
}

func NewDepositRepository(db DBTX) repository.DepositRepository {
	return &depositRepository{db: db}
}

func (r *depositRepository) Create(ctx context.Context, d *domain.Deposit) error {
	if d.ID == uuid.Nil {
		d.ID = uuid.New()
	}
	query := `INSERT INTO deposits (id, reservation_id, amount, released_amount, status, settlement_ref, created_at, updated_at)
	          VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	_, err := r.db.ExecContext(ctx, query, d.ID, d.ReservationID, d.Amount, d.ReleasedAmount, d.Status, d.SettlementRef, d.CreatedAt, d.UpdatedAt)
	if pqCode(err) == pqUniqueViolation {
		return domain.NewValidationError("reservation_id", "already has a deposit")
	}
	return err
}

func (r *depositRepository) GetByReservation(ctx context.Context, reservationID uuid.UUID) (*domain.Deposit, error) {
	query := `SELECT id, reservation_id, amount, released_amount, status, settlement_ref, created_at, updated_at
	          FROM deposits WHERE reservation_id = $1`
	d := &domain.Deposit{}
	var ref sql.NullString
	err := r.db.QueryRowContext(ctx, query, reservationID).Scan(
		&d.ID, &d.ReservationID, &d.Amount, &d.ReleasedAmount, &d.Status, &ref, &d.CreatedAt, &d.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "deposit", reservationID)
	}
	d.SettlementRef = ref.String
	return d, nil
}

func (r *depositRepository) Update(ctx context.Context, d *domain.Deposit) error {
	query := `UPDATE deposits SET released_amount=$1, status=$2, settlement_ref=$3, updated_at=$4 WHERE id=$5`
	result, err := r.db.ExecContext(ctx, query, d.ReleasedAmount, d.Status, d.SettlementRef, d.UpdatedAt, d.ID)
	if err != nil {
		return fmt.Errorf("update deposit %s: %w", d.ID, err)
	}
	if rows, _ := result.RowsAffected(); rows == 0 {
		return domain.NewNotFoundError("deposit", d.ID)
	}
	return nil
}
