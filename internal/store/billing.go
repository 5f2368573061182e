package store

import (
	"context"
	"database/sql"
	"fmt"

	"inventra-server/internal/models"
)

// Resource keys gated by plan limits, mapped to their tables. Users are
// profiles; everything else is a 1:1 table.
var usageTables = map[string]string{
	"products":          "products",
	"categories":        "categories",
	"suppliers":         "suppliers",
	"customers":         "customers",
	"locations":         "locations",
	"purchase_orders":   "orders",
	"sales_orders":      "orders",
	"stock_adjustments": "stock_adjustments",
	"users":             "profiles",
}

// GetOrgPlan returns the tenant's subscribed plan, or nil when the tenant has
// no subscription (callers fall back to the default Free plan)
func (s *Store) GetOrgPlan(ctx context.Context, orgID string) (*models.Plan, *models.Subscription, error) {
	var row struct {
		models.Subscription
		PlanName      string                `db:"plan_name"`
		StripePriceID sql.NullString        `db:"stripe_price_id"`
		Limits        models.PlanLimits     `db:"limits"`
	}
	err := s.db.GetContext(ctx, &row, `
		SELECT sub.org_id, sub.plan_id, sub.status, sub.cancel_at_period_end, sub.current_period_end,
		       p.name AS plan_name, p.stripe_price_id, p.limits
		FROM org_subscriptions sub
		JOIN plans p ON p.id = sub.plan_id
		WHERE sub.org_id = $1`, orgID)
	if err == sql.ErrNoRows {
		return nil, nil, nil
	}
	if err != nil {
		return nil, nil, err
	}

	plan := &models.Plan{
		ID:            row.PlanID,
		Name:          row.PlanName,
		StripePriceID: row.StripePriceID,
		Limits:        row.Limits,
	}
	return plan, &row.Subscription, nil
}

// GetPlans lists all selectable billing tiers
func (s *Store) GetPlans(ctx context.Context) ([]models.Plan, error) {
	var plans []models.Plan
	err := s.db.SelectContext(ctx, &plans, "SELECT * FROM plans ORDER BY name")
	return plans, err
}

// CountResource counts a tenant's live rows for one gated resource key
func (s *Store) CountResource(ctx context.Context, orgID, key string) (int, error) {
	table, ok := usageTables[key]
	if !ok {
		return 0, nil
	}

	query := fmt.Sprintf("SELECT COUNT(*) FROM %s WHERE org_id = $1", table)
	args := []interface{}{orgID}
	if table == "orders" {
		query += " AND kind = $2"
		if key == "purchase_orders" {
			args = append(args, models.OrderKindPurchase)
		} else {
			args = append(args, models.OrderKindSales)
		}
	}

	var count int
	if err := s.db.GetContext(ctx, &count, query, args...); err != nil {
		return 0, fmt.Errorf("failed to count %s: %w", key, err)
	}
	return count, nil
}
