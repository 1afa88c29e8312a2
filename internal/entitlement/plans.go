package entitlement

import "propertyalerts/internal/types"

// Entitlements lists the alert types a subscription tier may receive.
type Entitlements struct {
	OnMarketAlerts  bool
	OffMarketAlerts bool
}

// Allows reports whether alertType is covered.
func (e Entitlements) Allows(alertType types.AlertType) bool {
	switch alertType {
	case types.AlertOnMarket:
		return e.OnMarketAlerts
	case types.AlertOffMarket:
		return e.OffMarketAlerts
	default:
		return false
	}
}

// PlanRegistry is the source of truth for what each tier unlocks.
type PlanRegistry interface {
	// Entitlements returns the tier's entitlements. For unknown or empty
	// tiers it returns the Free entitlements and known=false.
	Entitlements(tier types.SubscriptionTier) (e Entitlements, known bool)
}

type staticPlanRegistry struct {
	plans map[types.SubscriptionTier]Entitlements
}

// Premium is a strict add-on: it only adds off-market visibility.
var planDefaults = map[types.SubscriptionTier]Entitlements{
	types.TierFree:    {OnMarketAlerts: true, OffMarketAlerts: false},
	types.TierPremium: {OnMarketAlerts: true, OffMarketAlerts: true},
}

// NewStaticPlanRegistry returns the built-in tier table.
func NewStaticPlanRegistry() PlanRegistry {
	m := make(map[types.SubscriptionTier]Entitlements, len(planDefaults))
	for k, v := range planDefaults {
		m[k] = v
	}
	return &staticPlanRegistry{plans: m}
}

func (r *staticPlanRegistry) Entitlements(tier types.SubscriptionTier) (Entitlements, bool) {
	if e, ok := r.plans[tier]; ok {
		return e, true
	}
	return r.plans[types.TierFree], false
}
