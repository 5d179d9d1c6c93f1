package coupon

import "travel-checkout/internal/model"

// grantSet implements GrantSet, dropping repeated (user, coupon) pairs.
type grantSet struct {
	seen   map[model.CouponGrant]struct{}
	grants []model.CouponGrant
}

// newGrantSet creates an empty grant set.
func newGrantSet(capacity int) *grantSet {
	return &grantSet{
		seen:   make(map[model.CouponGrant]struct{}, capacity),
		grants: make([]model.CouponGrant, 0, capacity),
	}
}

func (s *grantSet) Grants() []model.CouponGrant {
	return s.grants
}

func (s *grantSet) Size() int {
	return len(s.grants)
}

// Add appends g unless the set already holds it. It reports whether g was
// added.
func (s *grantSet) Add(g model.CouponGrant) bool {
	if _, exists := s.seen[g]; exists {
		return false
	}
	s.seen[g] = struct{}{}
	s.grants = append(s.grants, g)
	return true
}
