package service

import (
	"context"
	"time"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/pricing"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type quoteService struct {
	store  repository.Store
	now    Clock
	pricer pricing.Pricer
}

// NewQuoteService prices with pricer, or with pricing.Default when pricer is the zero value.
func NewQuoteService(store repository.Store, clock Clock, pricer pricing.Pricer) QuoteService {
	if clock == nil {
		clock = SystemClock
	}
	if pricer.IsZero() {
		pricer = pricing.Default()
	}
	return &quoteService{store: store, now: clock, pricer: pricer}
}

func (s *quoteService) Quote(ctx context.Context, resourceID uuid.UUID, start, end time.Time) (*domain.PriceBreakdown, error) {
	resource, err := s.store.Resources().GetByID(ctx, resourceID)
	if err != nil {
		return nil, err
	}
	breakdown, err := quoteFor(ctx, s.store, s.pricer, resource, start, end, s.now())
	if err != nil {
		return nil, err
	}
	return &breakdown, nil
}

// quoteFor prices a range against the active rules visible to repos.
func quoteFor(ctx context.Context, repos repository.Repositories, pricer pricing.Pricer, resource *domain.Resource, start, end, asOf time.Time) (domain.PriceBreakdown, error) {
	rules, err := repos.RateRules().ListActive(ctx)
	if err != nil {
		return domain.PriceBreakdown{}, err
	}
	return pricer.Quote(resource, start, end, rules, asOf)
}
