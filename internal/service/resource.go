package service

import (
	"context"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/events"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type resourceService struct {
	store repository.Store
	sink  events.Sink
	now   Clock
}

func NewResourceService(store repository.Store, sink events.Sink, clock Clock) ResourceService {
	if clock == nil {
		clock = SystemClock
	}
	return &resourceService{store: store, sink: sink, now: clock}
}

func (s *resourceService) CreateResource(ctx context.Context, resource *domain.Resource) error {
	logger.EnterMethod("resourceService.CreateResource", "name", resource.Name)
	if resource.Status == "" {
		resource.Status = domain.ResourceStatusAvailable
	}
	if err := resource.Validate(); err != nil {
		exitWithError("resourceService.CreateResource", err)
		return err
	}
	if resource.ID == uuid.Nil {
		resource.ID = uuid.New()
	}
	now := s.now()
	resource.CreatedAt = now
	resource.UpdatedAt = now
	if err := s.store.Resources().Create(ctx, resource); err != nil {
		exitWithError("resourceService.CreateResource", err)
		return err
	}
	logger.ExitMethod("resourceService.CreateResource", "resourceID", resource.ID)
	return nil
}

func (s *resourceService) GetResource(ctx context.Context, id uuid.UUID) (*domain.Resource, error) {
	return s.store.Resources().GetByID(ctx, id)
}

// SetOutOfService takes a vehicle off the fleet or puts it back. Coming back, it picks up
// whatever status its confirmed or active bookings imply.
func (s *resourceService) SetOutOfService(ctx context.Context, id uuid.UUID, outOfService bool) (*domain.Resource, error) {
	logger.EnterMethod("resourceService.SetOutOfService", "resourceID", id, "outOfService", outOfService)

	var (
		updated *domain.Resource
		changed bool
	)
	err := s.store.WithinTransaction(ctx, func(ctx context.Context, repos repository.Repositories) error {
		resource, err := repos.Resources().GetForUpdate(ctx, id)
		if err != nil {
			return err
		}
		next := resource.Status
		switch {
		case outOfService && (resource.Status == domain.ResourceStatusRented || resource.Status == domain.ResourceStatusReserved):
			return domain.NewValidationError("resource", "is "+string(resource.Status)+" and cannot be taken out of service")
		case outOfService:
			next = domain.ResourceStatusOutOfService
		case resource.Status == domain.ResourceStatusOutOfService:
			next, err = settledStatus(ctx, repos, nil, resource)
			if err != nil {
				return err
			}
		}
		updated = resource
		if next == resource.Status {
			return nil
		}
		changed = true
		resource.Status = next
		resource.UpdatedAt = s.now()
		return repos.Resources().Update(ctx, resource)
	})
	if err != nil {
		exitWithError("resourceService.SetOutOfService", err, "resourceID", id)
		return nil, err
	}

	if changed {
		s.sink.Publish(ctx, events.New(events.ResourceStatusChanged, updated.UpdatedAt,
			"resource_id", updated.ID.String(),
			"status", string(updated.Status),
		))
	}
	logger.ExitMethod("resourceService.SetOutOfService", "status", updated.Status)
	return updated, nil
}

func (s *resourceService) CreateRateRule(ctx context.Context, rule *domain.RateRule) error {
	if rule.Name == "" {
		return domain.NewValidationError("name", "is required")
	}
	if rule.Params == nil {
		return domain.NewValidationError("params", "are required")
	}
	if err := rule.Params.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	if err := s.store.RateRules().Create(ctx, rule); err != nil {
		exitWithError("resourceService.CreateRateRule", err)
		return err
	}
	logger.Info("Rate rule created", "ruleID", rule.ID, "kind", rule.Kind())
	return nil
}
