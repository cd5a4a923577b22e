package postgres

import (
	"context"
	"fmt"

	"fleetrent-backend/internal/domain"
	"fleetrent-backend/internal/logger"
	"fleetrent-backend/internal/repository"

	"github.com/google/uuid"
)

type rateRuleRepository struct {
	db DBTX
}

func NewRateRuleRepository(db DBTX) repository.RateRuleRepository {
	return &rateRuleRepository{db: db}
}

func (r *rateRuleRepository) Create(ctx context.Context, rule *domain.RateRule) error {
	params, err := rule.EncodeParams()
	if err != nil {
		return err
	}
	if err := rule.Params.Validate(); err != nil {
		return err
	}
	if rule.ID == uuid.Nil {
		rule.ID = uuid.New()
	}
	query := `INSERT INTO rate_rules (id, name, kind, params, active) VALUES ($1, $2, $3, $4, $5)`
	_, err = r.db.ExecContext(ctx, query, rule.ID, rule.Name, rule.Kind(), string(params), rule.Active)
	return err
}

// ListActive parses every active rule; a single malformed row fails the whole load.
func (r *rateRuleRepository) ListActive(ctx context.Context) ([]domain.RateRule, error) {
	query := `SELECT id, name, kind, params, active FROM rate_rules WHERE active ORDER BY id`
	logger.DatabaseCall("select", "rate_rules active")
	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		logger.DatabaseResult("select", 0, err)
		return nil, err
	}
	defer rows.Close()

	var rules []domain.RateRule
	for rows.Next() {
		var (
			id     uuid.UUID
			name   string
			kind   domain.RateRuleKind
			params []byte
			active bool
		)
		if err := rows.Scan(&id, &name, &kind, &params, &active); err != nil {
			return nil, err
		}
		rule, err := domain.ParseRateRule(id, name, kind, params, active)
		if err != nil {
			return nil, fmt.Errorf("rate rule %s (%s): %w", id, name, err)
		}
		rules = append(rules, rule)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	logger.DatabaseResult("select", int64(len(rules)), nil)
	return rules, nil
}
