package postgres

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/lib/pq"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/codes"
)

// DBTX is the subset of *sql.DB and *sql.Tx the repositories need.
type DBTX interface {
	ExecContext(ctx context.Context, query string, args ...any) (sql.Result, error)
	QueryContext(ctx context.Context, query string, args ...any) (*sql.Rows, error)
	QueryRowContext(ctx context.Context, query string, args ...any) *sql.Row
}

type repos struct {
	resources    repository.ResourceRepository
	reservations repository.ReservationRepository
	deposits     repository.DepositRepository
	fines        repository.FineRepository
	invoices     repository.InvoiceRepository
	rules        repository.RateRuleRepository
}

func newRepos(db DBTX) *repos {
	return &repos{
		resources:    NewResourceRepository(db),
		reservations: NewReservationRepository(db),
		deposits:     NewDepositRepository(db),
		fines:        NewFineRepository(db),
		invoices:     NewInvoiceRepository(db),
		rules:        NewRateRuleRepository(db),
	}
}

func (r *repos) Resources() repository.ResourceRepository       { return r.resources }
func (r *repos) Reservations() repository.ReservationRepository { return r.reservations }
func (r *repos) Deposits() repository.DepositRepository         { return r.deposits }
func (r *repos) Fines() repository.FineRepository               { return r.fines }
func (r *repos) Invoices() repository.InvoiceRepository         { return r.invoices }
func (r *repos) RateRules() repository.RateRuleRepository       { return r.rules }

type Store struct {
	db *sql.DB
	*repos
}

var _ repository.Store = (*Store)(nil)

func NewStore(db *sql.DB) *Store {
	return &Store{db: db, repos: newRepos(db)}
}

// WithinTransaction runs fn on repositories bound to one database transaction.
func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	ctx, span := otel.Tracer("fleetrent/postgres").Start(ctx, "postgres.transaction")
	defer span.End()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "begin failed")
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	if err := fn(ctx, newRepos(tx)); err != nil {
		span.SetStatus(codes.Error, err.Error())
		return err
	}
	if err := tx.Commit(); err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, "commit failed")
		return fmt.Errorf("commit transaction: %w", err)
	}
	return nil
}

const (
	pqUniqueViolation    = "23505"
	pqExclusionViolation = "23P01"
)

func pqCode(err error) pq.ErrorCode {
	var pqErr *pq.Error
	if errors.As(err, &pqErr) {
		return pqErr.Code
	}
	return ""
}

// notFound maps sql.ErrNoRows to a typed not-found error and passes anything else through.
func notFound(err error, entity string, id fmt.Stringer) error {
	if errors.Is(err, sql.ErrNoRows) {
		return domain.NewNotFoundError(entity, id)
	}
	return err
}
