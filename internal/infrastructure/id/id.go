package id

import (
	"strings"
	"time"

	"github.com/google/uuid"
)

const (
	orderPrefix  = "ORD"
	stampLayout  = "20060102150405"
	randomLength = 8
)

// OrderIDs produces ORD-<yyyymmddHHMMSS>-<8 upper-case hex chars>.
type OrderIDs struct {
	now func() time.Time
}

func NewOrderIDs() *OrderIDs {
	return &OrderIDs{now: time.Now}
}

// NewOrderIDsWithClock fixes the time source, mainly for tests.
func NewOrderIDsWithClock(now func() time.Time) *OrderIDs {
	if now == nil {
		now = time.Now
	}
	return &OrderIDs{now: now}
}

func (g *OrderIDs) NewID() string {
	token := strings.ToUpper(uuid.NewString()[:randomLength])
	return orderPrefix + "-" + g.now().Format(stampLayout) + "-" + token
}
