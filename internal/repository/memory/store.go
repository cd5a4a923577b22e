// Package memory is a transactional in-memory storage backend. Transactions are
// serialized by a single lock and staged on a copy of the data set, which replaces the
// committed data only when the transaction function succeeds.
package memory

import (
	"context"
	"sync"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type dataset struct {
	resources    map[uuid.UUID]domain.Resource
	reservations map[uuid.UUID]domain.Reservation
	deposits     map[uuid.UUID]domain.Deposit // by reservation
	fines        map[uuid.UUID][]domain.Fine  // by reservation
	invoices     map[uuid.UUID]domain.Invoice // by reservation
	rules        map[uuid.UUID]domain.RateRule
}

func newDataset() *dataset {
	return &dataset{
		resources:    make(map[uuid.UUID]domain.Resource),
		reservations: make(map[uuid.UUID]domain.Reservation),
		deposits:     make(map[uuid.UUID]domain.Deposit),
		fines:        make(map[uuid.UUID][]domain.Fine),
		invoices:     make(map[uuid.UUID]domain.Invoice),
		rules:        make(map[uuid.UUID]domain.RateRule),
	}
}

func (d *dataset) clone() *dataset {
	c := newDataset()
	for k, v := range d.resources {
		c.resources[k] = v
	}
	for k, v := range d.reservations {
		c.reservations[k] = v
	}
	for k, v := range d.deposits {
		c.deposits[k] = v
	}
	for k, v := range d.fines {
		c.fines[k] = append([]domain.Fine(nil), v...)
	}
	for k, v := range d.invoices {
		c.invoices[k] = copyInvoice(v)
	}
	for k, v := range d.rules {
		c.rules[k] = v
	}
	return c
}

type Store struct {
	txMu sync.Mutex
	mu   sync.RWMutex
	data *dataset

	resources    *resourceRepo
	reservations *reservationRepo
	deposits     *depositRepo
	fines        *fineRepo
	invoices     *invoiceRepo
	rules        *rateRuleRepo
}

var _ repository.Store = (*Store)(nil)

func NewStore() *Store {
	s := &Store{data: newDataset()}
	v := view{read: s.current, write: s.autoCommit}
	s.resources = &resourceRepo{v}
	s.reservations = &reservationRepo{v}
	s.deposits = &depositRepo{v}
	s.fines = &fineRepo{v}
	s.invoices = &invoiceRepo{v}
	s.rules = &rateRuleRepo{v}
	return s
}

func (s *Store) current() *dataset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.data
}

func (s *Store) WithinTransaction(ctx context.Context, fn func(ctx context.Context, repos repository.Repositories) error) error {
	s.txMu.Lock()
	defer s.txMu.Unlock()
	if err := ctx.Err(); err != nil {
		return err
	}

	staged := s.current().clone()
	if err := fn(ctx, newTxRepos(staged)); err != nil {
		return err
	}

	s.mu.Lock()
	s.data = staged
	s.mu.Unlock()
	return nil
}

// autoCommit applies a single write as its own transaction.
func (s *Store) autoCommit(ctx context.Context, apply func(d *dataset) error) error {
	return s.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		return apply(repos.(*txRepos).data)
	})
}

func (s *Store) Resources() repository.ResourceRepository       { return s.resources }
func (s *Store) Reservations() repository.ReservationRepository { return s.reservations }
func (s *Store) Deposits() repository.DepositRepository         { return s.deposits }
func (s *Store) Fines() repository.FineRepository               { return s.fines }
func (s *Store) Invoices() repository.InvoiceRepository         { return s.invoices }
func (s *Store) RateRules() repository.RateRuleRepository       { return s.rules }

// view tells a repository where to read from and how to apply writes.
type view struct {
	read  func() *dataset
	write func(ctx context.Context, apply func(d *dataset) error) error
}

type txRepos struct {
	data         *dataset
	resources    *resourceRepo
	reservations *reservationRepo
	deposits     *depositRepo
	fines        *fineRepo
	invoices     *invoiceRepo
	rules        *rateRuleRepo
}

func newTxRepos(d *dataset) *txRepos {
	v := view{
		read: func() *dataset { return d },
		write: func(ctx context.Context, apply func(d *dataset) error) error {
			if err := ctx.Err(); err != nil {
				return err
			}
			return apply(d)
		},
	}
	return &txRepos{
		data:         d,
		resources:    &resourceRepo{v},
		reservations: &reservationRepo{v},
		deposits:     &depositRepo{v},
		fines:        &fineRepo{v},
		invoices:     &invoiceRepo{v},
		rules:        &rateRuleRepo{v},
	}
}

func (t *txRepos) Resources() repository.ResourceRepository       { return t.resources }
func (t *txRepos) Reservations() repository.ReservationRepository { return t.reservations }
func (t *txRepos) Deposits() repository.DepositRepository         { return t.deposits }
func (t *txRepos) Fines() repository.FineRepository               { return t.fines }
func (t *txRepos) Invoices() repository.InvoiceRepository         { return t.invoices }
func (t *txRepos) RateRules() repository.RateRuleRepository       { return t.rules }
