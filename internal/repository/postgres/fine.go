package postgres

import (
	"context"
	"database/sql"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type fineRepository struct {
	db DBTX
}

func NewFineRepository(db DBTX) repository.FineRepository {
	return &fineRepository{db: db}
}

func (r *fineRepository) Create(ctx context.Context, f *domain.Fine) error {
	if f.ID == uuid.Nil {
		f.ID = uuid.New()
	}
	query := `INSERT INTO fines (id, reservation_id, category, amount, note, created_at) VALUES ($1, $2, $3, $4, $5, $6)`
	_, err := r.db.ExecContext(ctx, query, f.ID, f.ReservationID, f.Category, f.Amount, f.Note, f.CreatedAt)
	return err
}

func (r *fineRepository) ListByReservation(ctx context.Context, reservationID uuid.UUID) ([]domain.Fine, error) {
	query := `SELECT id, reservation_id, category, amount, note, created_at FROM fines WHERE reservation_id = $1 ORDER BY created_at, id`
	rows, err := r.db.QueryContext(ctx, query, reservationID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var fines []domain.Fine
	for rows.Next() {
		var f domain.Fine
		var note sql.NullString
		if err := rows.Scan(&f.ID, &f.ReservationID, &f.Category, &f.Amount, &note, &f.CreatedAt); err != nil {
			return nil, err
		}
		f.Note = note.String
		fines = append(fines, f)
	}
	return fines, rows.Err()
}
