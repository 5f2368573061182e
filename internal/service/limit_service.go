package service

import (
	"context"
	"fmt"

	"inventra-server/internal/models"
	"inventra-server/internal/redisclient"
	"inventra-server/internal/store"
	"inventra-server/internal/util"

	"go.uber.org/zap"
)

// DefaultPlan is the Free tier applied to tenants without a subscription
var DefaultPlan = models.Plan{
	Name: "Free",
	Limits: models.PlanLimits{
		"users":             float64(3),
		"products":          float64(50),
		"categories":        float64(20),
		"suppliers":         float64(20),
		"customers":         float64(50),
		"locations":         float64(2),
		"purchase_orders":   float64(50),
		"sales_orders":      float64(50),
		"stock_adjustments": float64(200),
		"reports":           false,
	},
}

// LimitResult is the outcome of a usage-gate check
type LimitResult struct {
	OK      bool
	Plan    string
	Limit   int
	Current int
}

// LimitChecker gates tenant-scoped creations against plan limits
type LimitChecker interface {
	Check(ctx context.Context, orgID, key string) (*LimitResult, error)
}

// PlanStore is the billing surface the gate reads
type PlanStore interface {
	GetOrgPlan(ctx context.Context, orgID string) (*models.Plan, *models.Subscription, error)
	GetPlans(ctx context.Context) ([]models.Plan, error)
	CountResource(ctx context.Context, orgID, key string) (int, error)
}

// LimitService resolves a tenant's plan limits (redis-cached, database
// fallback) and counts live usage. A key with no numeric limit is ungated.
type LimitService struct {
	store  PlanStore
	cache  *redisclient.Client
	logger *zap.Logger
}

// NewLimitService creates a new usage gate
func NewLimitService(st PlanStore, cache *redisclient.Client) *LimitService {
	return &LimitService{
		store:  st,
		cache:  cache,
		logger: util.GetLogger(),
	}
}

// Check reports whether the tenant may create one more resource of this key.
// Must be called before every gated insert, including find-or-create side
// channels.
func (ls *LimitService) Check(ctx context.Context, orgID, key string) (*LimitResult, error) {
	ctx, span := util.StartSpan(ctx, "LimitService.Check")
	defer span.End()

	plan, err := ls.resolvePlan(ctx, orgID)
	if err != nil {
		return nil, fmt.Errorf("failed to resolve plan: %w", err)
	}

	limit, gated := plan.Limits.NumericLimit(key)
	if !gated {
		return &LimitResult{OK: true, Plan: plan.Name}, nil
	}

	current, err := ls.store.CountResource(ctx, orgID, key)
	if err != nil {
		return nil, fmt.Errorf("failed to count %s: %w", key, err)
	}

	result := &LimitResult{
		OK:      current < limit,
		Plan:    plan.Name,
		Limit:   limit,
		Current: current,
	}
	if !result.OK {
		util.LimitRejectionsTotal.WithLabelValues(key).Inc()
	}
	return result, nil
}

// enforceLimit is Check folded into the error taxonomy: a full gate becomes
// a LimitExceededError
func enforceLimit(ctx context.Context, lc LimitChecker, orgID, key string) error {
	result, err := lc.Check(ctx, orgID, key)
	if err != nil {
		return err
	}
	if !result.OK {
		return &LimitExceededError{
			Key:     key,
			Plan:    result.Plan,
			Limit:   result.Limit,
			Current: result.Current,
		}
	}
	return nil
}

// RequireFeature returns a FeatureUnavailableError when the tenant's plan
// disables the boolean flag (e.g. reports on the Free tier)
func (ls *LimitService) RequireFeature(ctx context.Context, orgID, key string) error {
	plan, err := ls.resolvePlan(ctx, orgID)
	if err != nil {
		return err
	}
	if !plan.Limits.FeatureEnabled(key) {
		return &FeatureUnavailableError{Key: key, Plan: plan.Name}
	}
	return nil
}

// Usage returns the tenant's live counts for every gated resource key
func (ls *LimitService) Usage(ctx context.Context, orgID string) (map[string]int, error) {
	keys := []string{
		"products", "categories", "suppliers", "customers", "locations",
		"purchase_orders", "sales_orders", "stock_adjustments", "users",
	}
	usage := make(map[string]int, len(keys))
	for _, key := range keys {
		count, err := ls.store.CountResource(ctx, orgID, key)
		if err != nil {
			return nil, err
		}
		usage[key] = count
	}
	return usage, nil
}

// Status returns the plan, subscription and usage for the billing endpoint
func (ls *LimitService) Status(ctx context.Context, orgID string) (*models.Plan, *models.Subscription, map[string]int, error) {
	plan, sub, err := ls.store.GetOrgPlan(ctx, orgID)
	if err != nil {
		return nil, nil, nil, err
	}
	if plan == nil {
		p := DefaultPlan
		plan = &p
	}
	usage, err := ls.Usage(ctx, orgID)
	if err != nil {
		return nil, nil, nil, err
	}
	return plan, sub, usage, nil
}

// InvalidateCachedPlan drops the tenant's cached plan so the next gate check
// rereads the subscription. Exposed for the billing refresh endpoint, called
// after a subscription changes on the payment platform.
func (ls *LimitService) InvalidateCachedPlan(ctx context.Context, orgID string) error {
	if ls.cache == nil {
		return nil
	}
	return ls.cache.InvalidatePlan(ctx, orgID)
}

// Plans lists the selectable billing tiers
func (ls *LimitService) Plans(ctx context.Context) ([]models.Plan, error) {
	return ls.store.GetPlans(ctx)
}

// resolvePlan returns the cached plan when fresh, falling back to the
// database on any cache miss or redis failure
func (ls *LimitService) resolvePlan(ctx context.Context, orgID string) (*models.Plan, error) {
	if ls.cache != nil {
		if plan, ok := ls.cache.GetCachedPlan(ctx, orgID); ok {
			return plan, nil
		}
	}

	plan, _, err := ls.store.GetOrgPlan(ctx, orgID)
	if err != nil {
		return nil, err
	}
	if plan == nil {
		p := DefaultPlan
		plan = &p
	}

	if ls.cache != nil {
		if err := ls.cache.CachePlan(ctx, orgID, plan); err != nil {
			ls.logger.Warn("Failed to cache plan", zap.String("org_id", orgID), zap.Error(err))
		}
	}
	return plan, nil
}

var _ LimitChecker = (*LimitService)(nil)
var _ PlanStore = (*store.Store)(nil)
