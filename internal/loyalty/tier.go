// Package loyalty resolves membership tiers from lifetime spend.
package loyalty

import (
	"sort"

	"github.com/shopspring/decimal"

	"github.com/napatsakorn/minimart-backend/pkg/db/models"
)

// ResolveTier returns the tier with the highest min_spent floor the given
// lifetime spend clears. max_spent plays no role in advancement; it only
// bounds rolling-spend reporting. Returns nil when no tier qualifies,
// which only happens with an empty or misconfigured ladder.
func ResolveTier(tiers []models.MembershipTier, totalSpent decimal.Decimal) *models.MembershipTier {
	var best *models.MembershipTier
	for i := range tiers {
		t := &tiers[i]
		if t.MinSpent.GreaterThan(totalSpent) {
			continue
		}
		if best == nil || t.MinSpent.GreaterThan(best.MinSpent) {
			best = t
		}
	}
	return best
}

// Advance decides whether a member on the current rank should move to the
// tier resolved for totalSpent. Tiers are never regressed: a candidate
// with a floor at or below the current rank's floor is rejected.
func Advance(tiers []models.MembershipTier, currentRank string, totalSpent decimal.Decimal) (*models.MembershipTier, bool) {
	candidate := ResolveTier(tiers, totalSpent)
	if candidate == nil || candidate.RankName == currentRank {
		return nil, false
	}
	for i := range tiers {
		if tiers[i].RankName == currentRank && !candidate.MinSpent.GreaterThan(tiers[i].MinSpent) {
			return nil, false
		}
	}
	return candidate, true
}

// QualifyByRange returns the tier whose [min_spent, max_spent] window
// contains the given rolling spend. Unlike advancement this honors the
// upper bound, so a member whose recent spend has fallen reports a lower
// bracket than their held rank. Ties resolve to the highest floor.
func QualifyByRange(tiers []models.MembershipTier, rollingSpent decimal.Decimal) *models.MembershipTier {
	ordered := make([]models.MembershipTier, len(tiers))
	copy(ordered, tiers)
	sort.Slice(ordered, func(i, j int) bool {
		return ordered[i].MinSpent.GreaterThan(ordered[j].MinSpent)
	})
	for i := range ordered {
		t := &ordered[i]
		if t.MinSpent.GreaterThan(rollingSpent) {
			continue
		}
		if t.MaxSpent != nil && rollingSpent.GreaterThan(*t.MaxSpent) {
			continue
		}
		return t
	}
	return nil
}
