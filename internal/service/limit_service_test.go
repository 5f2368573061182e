package service

import (
	"context"
	"testing"

	"inventra-server/internal/models"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
)

type fakePlanStore struct {
	plan   *models.Plan
	sub    *models.Subscription
	counts map[string]int
}

func (f *fakePlanStore) GetOrgPlan(ctx context.Context, orgID string) (*models.Plan, *models.Subscription, error) {
	return f.plan, f.sub, nil
}

func (f *fakePlanStore) GetPlans(ctx context.Context) ([]models.Plan, error) {
	if f.plan == nil {
		return nil, nil
	}
	return []models.Plan{*f.plan}, nil
}

func (f *fakePlanStore) CountResource(ctx context.Context, orgID, key string) (int, error) {
	return f.counts[key], nil
}

func newLimitService(f *fakePlanStore) *LimitService {
	return &LimitService{store: f, logger: zap.NewNop()}
}

func TestCheckAllowsBelowLimit(t *testing.T) {
	f := &fakePlanStore{
		plan:   &models.Plan{Name: "Free", Limits: models.PlanLimits{"locations": float64(2)}},
		counts: map[string]int{"locations": 1},
	}
	svc := newLimitService(f)

	result, err := svc.Check(context.Background(), "org-1", "locations")
	require.NoError(t, err)
	assert.True(t, result.OK)
	assert.Equal(t, 2, result.Limit)
	assert.Equal(t, 1, result.Current)
}

func TestCheckRejectsAtLimit(t *testing.T) {
	// The N-th resource fills the plan; the N+1-th create must be rejected
	f := &fakePlanStore{
		plan:   &models.Plan{Name: "Free", Limits: models.PlanLimits{"locations": float64(2)}},
		counts: map[string]int{"locations": 2},
	}
	svc := newLimitService(f)

	result, err := svc.Check(context.Background(), "org-1", "locations")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "Free", result.Plan)
}

func TestCheckUngatedKey(t *testing.T) {
	f := &fakePlanStore{
		plan:   &models.Plan{Name: "Pro", Limits: models.PlanLimits{}},
		counts: map[string]int{"products": 100000},
	}
	svc := newLimitService(f)

	result, err := svc.Check(context.Background(), "org-1", "products")
	require.NoError(t, err)
	assert.True(t, result.OK, "a key with no numeric limit is unlimited")
}

func TestCheckFallsBackToDefaultPlan(t *testing.T) {
	// No subscription row: the Free defaults apply
	f := &fakePlanStore{counts: map[string]int{"locations": 2}}
	svc := newLimitService(f)

	result, err := svc.Check(context.Background(), "org-1", "locations")
	require.NoError(t, err)
	assert.False(t, result.OK)
	assert.Equal(t, "Free", result.Plan)
	assert.Equal(t, 2, result.Limit)
}

func TestEnforceLimitWrapsRejection(t *testing.T) {
	f := &fakePlanStore{counts: map[string]int{"products": 50}}
	svc := newLimitService(f)

	err := enforceLimit(context.Background(), svc, "org-1", "products")
	var limitErr *LimitExceededError
	require.ErrorAs(t, err, &limitErr)
	assert.Equal(t, "products", limitErr.Key)
	assert.Equal(t, 50, limitErr.Limit)
	assert.Equal(t, 50, limitErr.Current)

	assert.NoError(t, enforceLimit(context.Background(), svc, "org-1", "categories"))
}

func TestRequireFeature(t *testing.T) {
	f := &fakePlanStore{
		plan: &models.Plan{Name: "Pro", Limits: models.PlanLimits{"reports": true}},
	}
	svc := newLimitService(f)

	assert.NoError(t, svc.RequireFeature(context.Background(), "org-1", "reports"))
	assert.NoError(t, svc.RequireFeature(context.Background(), "org-1", "forecasting"),
		"features a plan does not mention are not restricted")
}

func TestRequireFeatureRejectsDisabledFlag(t *testing.T) {
	// No subscription row: the Free defaults apply, and Free disables reports
	f := &fakePlanStore{}
	svc := newLimitService(f)

	err := svc.RequireFeature(context.Background(), "org-1", "reports")
	var featureErr *FeatureUnavailableError
	require.ErrorAs(t, err, &featureErr)
	assert.Equal(t, "reports", featureErr.Key)
	assert.Equal(t, "Free", featureErr.Plan)
}

func TestInvalidateCachedPlanWithoutCache(t *testing.T) {
	svc := newLimitService(&fakePlanStore{})
	assert.NoError(t, svc.InvalidateCachedPlan(context.Background(), "org-1"))
}

func TestDefaultPlanReportsDisabled(t *testing.T) {
	assert.False(t, DefaultPlan.Limits.FeatureEnabled("reports"))

	limit, gated := DefaultPlan.Limits.NumericLimit("stock_adjustments")
	assert.True(t, gated)
	assert.Equal(t, 200, limit)
}
