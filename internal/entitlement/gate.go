// Package entitlement decides whether a buyer's subscription tier allows a
// given alert type, and leaves an audit trail for every decision.
package entitlement

import (
	"context"

	"propertyalerts/internal/types"
)

// Decision reasons written to the audit trail.
const (
	ReasonGranted               = "granted"
	ReasonOffMarketNeedsPremium = "off_market_requires_premium"
	ReasonInsufficientTier      = "insufficient_subscription_tier"
	ReasonUnsupportedAlertType  = "unsupported_alert_type"
)

// AuditAction is the action name recorded for access checks.
const AuditAction = "property_alert_access"

// Decision is the outcome of one access check.
type Decision struct {
	Allowed bool
	Reason  string
}

// TierLookup resolves a buyer's stored subscription tier.
type TierLookup interface {
	GetSubscriptionTier(ctx context.Context, buyerID string) (types.SubscriptionTier, error)
}

// AccessRecorder receives every decision. Implementations must not fail the
// caller.
type AccessRecorder interface {
	LogFeatureAccess(ctx context.Context, buyerID, action string, allowed bool, details map[string]any)
}

var defaultPlans = NewStaticPlanRegistry()

// Evaluate applies the tier policy. An empty tier means the tier could not be
// resolved.
func Evaluate(tier types.SubscriptionTier, alertType types.AlertType) Decision {
	return evaluate(defaultPlans, tier, alertType)
}

func evaluate(plans PlanRegistry, tier types.SubscriptionTier, alertType types.AlertType) Decision {
	if !alertType.Valid() {
		return Decision{Allowed: false, Reason: ReasonUnsupportedAlertType}
	}
	ent, known := plans.Entitlements(tier)
	switch {
	case ent.Allows(alertType):
		return Decision{Allowed: true, Reason: ReasonGranted}
	case known:
		return Decision{Allowed: false, Reason: ReasonOffMarketNeedsPremium}
	default:
		return Decision{Allowed: false, Reason: ReasonInsufficientTier}
	}
}

// Gate is the entitlement check run before matching.
type Gate struct {
	tiers    TierLookup
	plans    PlanRegistry
	recorder AccessRecorder
	logger   types.Logger
}

func NewGate(tiers TierLookup, recorder AccessRecorder, logger types.Logger) *Gate {
	return &Gate{
		tiers:    tiers,
		plans:    defaultPlans,
		recorder: recorder,
		logger:   logger,
	}
}

// HasAccess never returns an error: a failed tier lookup is treated as an
// unresolved tier, which still grants on-market alerts and denies
// off-market ones.
func (g *Gate) HasAccess(ctx context.Context, buyerID string, alertType types.AlertType) bool {
	tier, err := g.tiers.GetSubscriptionTier(ctx, buyerID)
	if err != nil {
		g.logger.Warn("subscription tier lookup failed",
			"buyer_id", buyerID,
			"error", err,
		)
		tier = ""
	}

	d := evaluate(g.plans, tier, alertType)

	recordedTier := string(tier)
	if recordedTier == "" {
		recordedTier = "unknown"
	}
	g.recorder.LogFeatureAccess(ctx, buyerID, AuditAction, d.Allowed, map[string]any{
		"alert_type":        string(alertType),
		"subscription_tier": recordedTier,
		"reason":            d.Reason,
	})
	return d.Allowed
}
