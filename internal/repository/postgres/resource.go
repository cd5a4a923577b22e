package postgres

import (
	"context"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type resourceRepository struct {
	db DBTX
}

func NewResourceRepository(db DBTX) repository.ResourceRepository {
	return &resourceRepository{db: db}
}

const resourceColumns = `id, name, status, base_daily_rate, vintage, mileage, created_at, updated_at`

func (r *resourceRepository) Create(ctx context.Context, res *domain.Resource) error {
	if res.ID == uuid.Nil {
		res.ID = uuid.New()
	}
	query := `INSERT INTO resources (` + resourceColumns + `) VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	logger.DatabaseCall("insert", "resources", "resourceID", res.ID)
	result, err := r.db.ExecContext(ctx, query, res.ID, res.Name, res.Status, res.BaseDailyRate, res.Vintage, res.Mileage, res.CreatedAt, res.UpdatedAt)
	if err != nil {
		logger.DatabaseResult("insert", 0, err, "resourceID", res.ID)
		return err
	}
	rows, _ := result.RowsAffected()
	logger.DatabaseResult("insert", rows, nil, "resourceID", res.ID)
	return nil
}

func (r *resourceRepository) GetByID(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	return r.get(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1`, id)
}

func (r *resourceRepository) GetForUpdate(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	return r.get(ctx, `SELECT `+resourceColumns+` FROM resources WHERE id = $1 FOR UPDATE`, id)
}

func (r *resourceRepository) get(ctx context.Context, query string, id uuid.UUID) (*domain.Resource, error) {
	res := &domain.Resource{}
	err := r.db.QueryRowContext(ctx, query, id).Scan(
		&res.ID, &res.Name, &res.Status, &res.BaseDailyRate, &res.Vintage, &res.Mileage, &res.CreatedAt, &res.UpdatedAt,
	)
	if err != nil {
		return nil, notFound(err, "resource", id)
	}
	return res, nil
}

func (r *resourceRepository) Update(ctx context.Context, res *domain.Resource) error {
	query := `UPDATE resources SET name=$1, status=$2, base_daily_rate=$3, vintage=$4, mileage=$5, updated_at=$6 WHERE id=$7`
	result, err := r.db.ExecContext(ctx, query, res.Name, res.Status, res.BaseDailyRate, res.Vintage, res.Mileage, res.UpdatedAt, res.ID)
	if err != nil {
		return fmt.Errorf("update resource %s: %w", res.ID, err)
	}
	rows, err := result.RowsAffected()
	if err != nil {
		return err
	}
	if rows == 0 {
		return domain.NewNotFoundError("resource", res.ID)
	}
	return nil
}
