package domain

import (
	"fmt"
	"time"
)

// BillingCycle enumerates how often a plan renews.
type BillingCycle string

const (
	BillingCycleOneOff  BillingCycle = "one-off"
	BillingCycleWeekly  BillingCycle = "weekly"
	BillingCycleMonthly BillingCycle = "monthly"
)

// ParseBillingCycle validates a raw billing cycle value.
func ParseBillingCycle(raw string) (BillingCycle, error) {
	switch BillingCycle(raw) {
	case BillingCycleOneOff, BillingCycleWeekly, BillingCycleMonthly:
		return BillingCycle(raw), nil
	default:
		return "", fmt.Errorf("unknown billing cycle %q", raw)
	}
}

// Weekday is a three-letter weekday token used in availability sets.
type Weekday string

const (
	Mon Weekday = "Mon"
	Tue Weekday = "Tue"
	Wed Weekday = "Wed"
	Thu Weekday = "Thu"
	Fri Weekday = "Fri"
	Sat Weekday = "Sat"
	Sun Weekday = "Sun"
)

var weekdayOrder = []Weekday{Mon, Tue, Wed, Thu, Fri, Sat, Sun}

// ParseWeekday validates a raw weekday token.
func ParseWeekday(raw string) (Weekday, error) {
	for _, day := range weekdayOrder {
		if Weekday(raw) == day {
			return day, nil
		}
	}
	return "", fmt.Errorf("unknown weekday %q", raw)
}

// PlanItem is a single line item within a meal plan.
type PlanItem struct {
	Name     string  `json:"name"`
	Quantity int     `json:"quantity"`
	Note     *string `json:"note,omitempty"`
}

// MealPlan is a subscription or one-off meal offering published by a house.
type MealPlan struct {
	ID            string
	HouseID       string
	Name          string
	PriceCents    Cents
	BillingCycle  BillingCycle
	AvailableDays []Weekday
	StartTime     *string
	EndTime       *string
	Items         []PlanItem
	CreatedAt     time.Time
	UpdatedAt     time.Time
}

// Validate checks the plan's own invariants: non-negative price, a
// well-formed item list, valid day tokens, and an ordered time window.
func (p *MealPlan) Validate() error {
	if p.Name == "" {
		return fmt.Errorf("plan name required")
	}
	if p.PriceCents < 0 {
		return fmt.Errorf("price must be non-negative")
	}
	if _, err := ParseBillingCycle(string(p.BillingCycle)); err != nil {
		return err
	}
	if p.Items == nil {
		return fmt.Errorf("items must be a list")
	}
	for i, item := range p.Items {
		if item.Name == "" {
			return fmt.Errorf("item %d: name required", i)
		}
		if item.Quantity < 1 {
			return fmt.Errorf("item %d: quantity must be at least 1", i)
		}
	}
	for _, day := range p.AvailableDays {
		if _, err := ParseWeekday(string(day)); err != nil {
			return err
		}
	}
	start, err := parseTimeOfDay(p.StartTime)
	if err != nil {
		return err
	}
	end, err := parseTimeOfDay(p.EndTime)
	if err != nil {
		return err
	}
	if start != nil && end != nil && !start.Before(*end) {
		return fmt.Errorf("start time must be before end time")
	}
	return nil
}

// AvailableOn reports whether the plan may be consumed on the given
// weekday at the given time of day. A nil day or time skips that check;
// an empty day set means every day.
func (p *MealPlan) AvailableOn(day *Weekday, at *string) (bool, error) {
	if day != nil && len(p.AvailableDays) > 0 {
		found := false
		for _, d := range p.AvailableDays {
			if d == *day {
				found = true
				break
			}
		}
		if !found {
			return false, nil
		}
	}
	if at != nil && (p.StartTime != nil || p.EndTime != nil) {
		t, err := parseTimeOfDay(at)
		if err != nil {
			return false, err
		}
		start, _ := parseTimeOfDay(p.StartTime)
		end, _ := parseTimeOfDay(p.EndTime)
		if start != nil && t.Before(*start) {
			return false, nil
		}
		if end != nil && !t.Before(*end) {
			return false, nil
		}
	}
	return true, nil
}

func parseTimeOfDay(val *string) (*time.Time, error) {
	if val == nil || *val == "" {
		return nil, nil
	}
	t, err := time.Parse("15:04", *val)
	if err != nil {
		return nil, fmt.Errorf("invalid time of day %q", *val)
	}
	return &t, nil
}
