package shared

import (
	"encoding/json"
	"fmt"
	"time"
)

// ═══════════════════════════════════════════════════════════════════════════
// Identifiers
// ═══════════════════════════════════════════════════════════════════════════

// EcoUserID identifies the gamification profile of a user.
type EcoUserID string

// IsValid checks that the ID is non-empty.
func (id EcoUserID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id EcoUserID) String() string { return string(id) }

// UserID identifies an externally managed identity (e.g. an SSO subject).
type UserID string

// IsValid checks that the ID is non-empty.
func (id UserID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id UserID) String() string { return string(id) }

// ClassID identifies a school class.
type ClassID string

// IsValid checks that the ID is non-empty.
func (id ClassID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id ClassID) String() string { return string(id) }

// ActionID identifies an action definition in the catalog.
type ActionID string

// IsValid checks that the ID is non-empty.
func (id ActionID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id ActionID) String() string { return string(id) }

// ActivityID identifies a single activity entry.
type ActivityID string

// IsValid checks that the ID is non-empty.
func (id ActivityID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id ActivityID) String() string { return string(id) }

// ChallengeID identifies a challenge.
type ChallengeID string

// IsValid checks that the ID is non-empty.
func (id ChallengeID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id ChallengeID) String() string { return string(id) }

// MilestoneID identifies a milestone badge.
type MilestoneID string

// IsValid checks that the ID is non-empty.
func (id MilestoneID) IsValid() bool { return id != "" }

// String returns the string representation.
func (id MilestoneID) String() string { return string(id) }

// ═══════════════════════════════════════════════════════════════════════════
// Date
// ═══════════════════════════════════════════════════════════════════════════

// dateLayout is the wire format for civil dates.
const dateLayout = "2006-01-02"

// Date is a civil date without time-of-day or timezone.
// Activity dates and challenge windows are expressed in civil dates,
// so wall-clock and timezone drift cannot move an activity across a
// challenge boundary.
type Date struct {
	Year  int
	Month time.Month
	Day   int
}

// NewDate creates a Date from its components.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Year: year, Month: month, Day: day}
}

// DateOf extracts the civil date from a time.Time in its location.
func DateOf(t time.Time) Date {
	y, m, d := t.Date()
	return Date{Year: y, Month: m, Day: d}
}

// Today returns the current civil date in UTC.
func Today() Date {
	return DateOf(time.Now().UTC())
}

// ParseDate parses a date in YYYY-MM-DD format.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("parse date %q: %w", s, ErrInvalidInput)
	}
	return DateOf(t), nil
}

// Time returns the date as midnight UTC.
func (d Date) Time() time.Time {
	return time.Date(d.Year, d.Month, d.Day, 0, 0, 0, 0, time.UTC)
}

// IsZero reports whether the date is the zero value.
func (d Date) IsZero() bool {
	return d.Year == 0 && d.Month == 0 && d.Day == 0
}

// Before reports whether d is before other.
func (d Date) Before(other Date) bool {
	return d.Time().Before(other.Time())
}

// After reports whether d is after other.
func (d Date) After(other Date) bool {
	return d.Time().After(other.Time())
}

// Equal reports whether two dates are the same day.
func (d Date) Equal(other Date) bool {
	return d == other
}

// AddDays returns the date shifted by the given number of days.
func (d Date) AddDays(days int) Date {
	return DateOf(d.Time().AddDate(0, 0, days))
}

// String returns the date in YYYY-MM-DD format.
func (d Date) String() string {
	return d.Time().Format(dateLayout)
}

// MarshalJSON implements json.Marshaler.
func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

// UnmarshalJSON implements json.Unmarshaler.
func (d *Date) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return err
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// ═══════════════════════════════════════════════════════════════════════════
// Points
// ═══════════════════════════════════════════════════════════════════════════

// Points represents a signed amount of sustainability points.
// Ledger deltas may be negative (manual adjustments, expiration);
// activity points are always positive.
type Points int

// IsPositive reports whether the amount is greater than zero.
func (p Points) IsPositive() bool { return p > 0 }

// Int returns the amount as int.
func (p Points) Int() int { return int(p) }
