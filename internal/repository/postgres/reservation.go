package postgres

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
	"github.com/lib/pq"
)

type reservationRepository struct {
	db DBTX
}

func NewReservationRepository(db DBTX) repository.ReservationRepository {
	return &reservationRepository{db: db}
}

const reservationColumns = `id, resource_id, customer_id, start_date, end_date, status, notes, created_at, updated_at`

func (r *reservationRepository) Create(ctx context.Context, res *domain.Reservation) error {
	logger.EnterMethod("reservationRepository.Create", "resourceID", res.ResourceID, "start", res.StartDate, "end", res.EndDate)
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}

	query := `INSERT INTO reservations (` + reservationColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)`
	_, err := r.db.ExecContext(ctx, query,
		res.ID, res.ResourceID, res.CustomerID, res.StartDate, res.EndDate, res.Status, res.Notes, res.CreatedAt, res.UpdatedAt,
	)
	if err != nil {
		// The exclusion constraint backs up the locked overlap check.
		if pqCode(err) == pqExclusionViolation {
			err = &domain.OverlapError{ResourceID: res.ResourceID, StartDate: res.StartDate, EndDate: res.EndDate}
		}
		logger.ExitMethodWithError("reservationRepository.Create", err, "resourceID", res.ResourceID)
		return err
	}

	logger.ExitMethod("reservationRepository.Create", "reservationID", res.ID)
	return nil
}

func (r *reservationRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.get(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1`, id)
}

func (r *reservationRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Reservation, error) {
	return r.get(ctx, `SELECT `+reservationColumns+` FROM reservations WHERE id = $1 FOR UPDATE`, id)
}

func (r *reservationRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Reservation, error) {
	res, err := scanReservation(r.db.QueryRowContext(ctx, query, id))
	if err != nil {
		return nil, notFound(err, "reservation", id)
	}
	return res, nil
}

func (r *reservationRepository) UpdateStatus(ctx context.Context, res *domain.Reservation) error {
	result, err := r.db.ExecContext(ctx, `UPDATE reservations SET status=$1, updated_at=$2 WHERE id=$3`, res.Status, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("update reservation %s: %w", res.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFoundError("reservation", res.ID)
	}
	return nil
}

func (r *reservationRepository) FindOverlapping(ctx context.Context, resourceID uuid.UUID, start, end time.Time, excludeID *uuid.UUID) ([]domain.Reservation, error) {
	var exclude any
	if excludeID != nil {
		exclude = *excludeID
	}
	query := `SELECT ` + reservationColumns + ` FROM reservations
	          WHERE resource_id = $1 AND status = ANY($2) AND start_date < $4 AND end_date > $3
	            AND ($5::uuid IS NULL OR id <> $5)
	          ORDER BY start_date, id`
	logger.DatabaseCall("select", "reservations overlapping", "resourceID", resourceID)
	return r.list(ctx, query, resourceID, pq.Array(statusStrings(domain.BlockingStatuses)), start, end, exclude)
}

func (r *reservationRepository) ListByResource(ctx context.Context, resourceID uuid.UUID, statuses []domain.ReservationStatus) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE resource_id = $1 AND status = ANY($2) ORDER BY start_date, id`
	return r.list(ctx, query, resourceID, pq.Array(statusStrings(statuses)))
}

func (r *reservationRepository) ListPendingStartingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = $1 AND start_date < $2 ORDER BY start_date, id`
	return r.list(ctx, query, domain.ReservationStatusPending, day)
}

func (r *reservationRepository) ListActiveEndingBefore(ctx context.Context, day time.Time) ([]domain.Reservation, error) {
	query := `SELECT ` + reservationColumns + ` FROM reservations WHERE status = $1 AND end_date < $2 ORDER BY start_date, id`
	return r.list(ctx, query, domain.ReservationStatusActive, day)
}

func (r *reservationRepository) list(ctx context.Context, query string, args ...any) ([]domain.Reservation, error) {
	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []domain.Reservation
	for rows.Next() {
		res, err := scanReservation(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *res)
	}
	return out, rows.Err()
}

type rowScanner interface {
	Scan(dest ...any) error
}

func scanReservation(row rowScanner) (*domain.Reservation, error) {
	res := &domain.Reservation{}
	var notes sql.NullString
	err := row.Scan(&res.ID, &res.ResourceID, &res.CustomerID, &res.StartDate, &res.EndDate, &res.Status, &notes, &res.CreatedAt, &res.UpdatedAt)
	if err != nil {
		return nil, err
	}
	res.Notes = notes.String
	res.StartDate = domain.NormalizeDate(res.StartDate)
	res.EndDate = domain.NormalizeDate(res.EndDate)
	return res, nil
}

func statusStrings(statuses []domain.ReservationStatus) []string {
	out := make([]string, len(statuses))
	for i, s := range statuses {
		out[i] = string(s)
	}
	return out
}
