package recurrence

import (
	"errors"
	"fmt"
	"strings"
	"time"
)

var (
	ErrInvalidRule    = errors.New("invalid recurrence rule")
	ErrInvalidWeekday = errors.New("invalid weekday name")
)

// RuleError describes why a habit schedule was rejected at creation time.
type RuleError struct {
	Kind   Kind
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("%s: %s frequency: %s", ErrInvalidRule, e.Kind, e.Reason)
}

func (e *RuleError) Unwrap() error {
	return ErrInvalidRule
}

// Validate checks a schedule before it is stored. Rules built from already
// stored habits skip this and are interpreted permissively.
func Validate(kind Kind, required int, weekdays []time.Weekday, monthDays []int) error {
	if required < 0 {
		return &RuleError{Kind: kind, Reason: "required count cannot be negative"}
	}
	required = normalizeRequired(required)

	switch kind {
	case KindDaily, KindCustom:
		if len(weekdays) > 0 || len(monthDays) > 0 {
			return &RuleError{Kind: kind, Reason: "occurrence days are not allowed"}
		}
	case KindWeekly:
		if len(monthDays) > 0 {
			return &RuleError{Kind: kind, Reason: "days of month are not allowed"}
		}
		for _, d := range weekdays {
			if d < time.Sunday || d > time.Saturday {
				return &RuleError{Kind: kind, Reason: fmt.Sprintf("weekday %d out of range", d)}
			}
		}
		if n := len(uniqueWeekdays(weekdays)); n > 0 && n != required {
			return &RuleError{Kind: kind, Reason: fmt.Sprintf("%d occurrence days for a required count of %d", n, required)}
		}
	case KindMonthly:
		if len(weekdays) > 0 {
			return &RuleError{Kind: kind, Reason: "weekdays are not allowed"}
		}
		for _, d := range monthDays {
			if d < 1 || d > 31 {
				return &RuleError{Kind: kind, Reason: fmt.Sprintf("day of month %d outside 1-31", d)}
			}
		}
		if n := len(uniqueMonthDays(monthDays)); n > 0 && n != required {
			return &RuleError{Kind: kind, Reason: fmt.Sprintf("%d occurrence days for a required count of %d", n, required)}
		}
	default:
		return &RuleError{Kind: kind, Reason: "unknown frequency"}
	}

	return nil
}

var weekdayNames = map[string]time.Weekday{
	"sunday":    time.Sunday,
	"monday":    time.Monday,
	"tuesday":   time.Tuesday,
	"wednesday": time.Wednesday,
	"thursday":  time.Thursday,
	"friday":    time.Friday,
	"saturday":  time.Saturday,
}

// ParseWeekday accepts full English day names or their first three letters, in any case.
func ParseWeekday(name string) (time.Weekday, error) {
	n := strings.ToLower(strings.TrimSpace(name))
	if d, ok := weekdayNames[n]; ok {
		return d, nil
	}
	if len(n) == 3 {
		for full, d := range weekdayNames {
			if strings.HasPrefix(full, n) {
				return d, nil
			}
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrInvalidWeekday, name)
}
