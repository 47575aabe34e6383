// Package billing derives renewal instants from a plan's billing cycle.
package billing

import (
	"time"

	"github.com/spec-kit/meal-marketplace/internal/domain"
)

// NextRenewal returns the next eligible billing instant after from.
// Weekly cycles renew seven days out; monthly cycles renew one calendar
// month out, with Go's AddDate normalization handling short months
// (Jan 31 + 1 month = Mar 2/3). One-off plans never renew: the second
// return value is false and the instant is the zero time.
func NextRenewal(cycle domain.BillingCycle, from time.Time) (time.Time, bool) {
	switch cycle {
	case domain.BillingCycleWeekly:
		return from.AddDate(0, 0, 7), true
	case domain.BillingCycleMonthly:
		return from.AddDate(0, 1, 0), true
	default:
		return time.Time{}, false
	}
}
