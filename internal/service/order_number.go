package service

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

// OrderNumberGenerator produces order numbers.
type OrderNumberGenerator interface {
	Next() string
}

type orderNumberGenerator struct {
	now func() time.Time
}

// NewOrderNumberGenerator creates a generator of numbers shaped
// ORD<yyyyMMddHHmmss><12 upper-case hex chars>. A nil now uses time.Now.
// Uniqueness is left to the orders.order_no constraint.
func NewOrderNumberGenerator(now func() time.Time) OrderNumberGenerator {
	if now == nil {
		now = time.Now
	}
	return &orderNumberGenerator{now: now}
}

func (g *orderNumberGenerator) Next() string {
	id := uuid.New()
	suffix := strings.ToUpper(strings.ReplaceAll(id.String(), "-", ""))[:12]
	return "ORD" + g.now().Format("20060102150405") + suffix
}
