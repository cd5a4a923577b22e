package domain

import (
	"time"

	"github.com/google/uuid"
	"github.com/shopspring/decimal"
)

type ResourceStatus string

const (
	ResourceStatusAvailable    ResourceStatus = "AVAILABLE"
	ResourceStatusReserved     ResourceStatus = "RESERVED"
	ResourceStatusRented       ResourceStatus = "RENTED"
	ResourceStatusOutOfService ResourceStatus = "OUT_OF_SERVICE"
)

func (s ResourceStatus) Valid() bool {
	switch s {
	case ResourceStatusAvailable, ResourceStatusReserved, ResourceStatusRented, ResourceStatusOutOfService:
		return true
	}
	return false
}

// Resource is a rentable vehicle. Vintage is the model year and feeds age depreciation.
type Resource struct {
	ID            uuid.UUID       `json:"id"`
	Name          string          `json:"name"`
	Status        ResourceStatus  `json:"status"`
	BaseDailyRate decimal.Decimal `json:"base_daily_rate"`
	Vintage       int             `json:"vintage"`
	Mileage       int64           `json:"mileage"`
	CreatedAt     time.Time       `json:"created_at"`
	UpdatedAt     time.Time       `json:"updated_at"`
}

func (r *Resource) Validate() error {
	if r.Name == "" {
		return NewValidationError("name", "is required")
	}
	if !r.BaseDailyRate.IsPositive() {
		return NewValidationError("base_daily_rate", "must be positive")
	}
	if r.Vintage < 1900 {
		return NewValidationError("vintage", "must be a model year")
	}
	if r.Mileage < 0 {
		return NewValidationError("mileage", "must not be negative")
	}
	if r.Status != "" && !r.Status.Valid() {
		return NewValidationError("status", "unknown resource status")
	}
	return nil
}
