package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"time"
)

const (
	dateLayout    = "2006-01-02"
	secondsPerDay = 24 * 60 * 60
)

// TimeOfDay is a wall-clock time expressed as seconds since midnight.
// It is encoded as "HH:mm:ss" in JSON and accepts "HH:mm" on input.
type TimeOfDay int

// NewTimeOfDay builds a TimeOfDay from its components.
func NewTimeOfDay(hour, minute, second int) TimeOfDay {
	return TimeOfDay(hour*3600 + minute*60 + second)
}

// ParseTimeOfDay parses "HH:mm:ss" or "HH:mm".
func ParseTimeOfDay(s string) (TimeOfDay, error) {
	for _, layout := range []string{"15:04:05", "15:04"} {
		if t, err := time.Parse(layout, s); err == nil {
			return NewTimeOfDay(t.Hour(), t.Minute(), t.Second()), nil
		}
	}
	return 0, fmt.Errorf("invalid time of day %q, expected HH:mm:ss", s)
}

// Hour returns the hour component.
func (t TimeOfDay) Hour() int { return int(t) / 3600 }

// Minute returns the minute component.
func (t TimeOfDay) Minute() int { return int(t) % 3600 / 60 }

// Second returns the second component.
func (t TimeOfDay) Second() int { return int(t) % 60 }

// Valid reports whether t lies within a single day.
func (t TimeOfDay) Valid() bool { return t >= 0 && t < secondsPerDay }

// String formats t as HH:mm:ss.
func (t TimeOfDay) String() string {
	return fmt.Sprintf("%02d:%02d:%02d", t.Hour(), t.Minute(), t.Second())
}

// Short formats t as HH:mm.
func (t TimeOfDay) Short() string {
	return fmt.Sprintf("%02d:%02d", t.Hour(), t.Minute())
}

// Microseconds converts t for storage in a Postgres TIME column.
func (t TimeOfDay) Microseconds() int64 { return int64(t) * 1_000_000 }

// TimeOfDayFromMicroseconds is the inverse of Microseconds.
func TimeOfDayFromMicroseconds(us int64) TimeOfDay { return TimeOfDay(us / 1_000_000) }

func (t TimeOfDay) MarshalJSON() ([]byte, error) {
	return json.Marshal(t.String())
}

func (t *TimeOfDay) UnmarshalJSON(data []byte) error {
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("time of day must be a string: %w", err)
	}
	parsed, err := ParseTimeOfDay(s)
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Date is a calendar date without time-of-day, encoded as "YYYY-MM-DD".
type Date struct {
	time.Time
}

// NewDate builds a Date in UTC.
func NewDate(year int, month time.Month, day int) Date {
	return Date{Time: time.Date(year, month, day, 0, 0, 0, 0, time.UTC)}
}

// ParseDate parses a "YYYY-MM-DD" string.
func ParseDate(s string) (Date, error) {
	t, err := time.Parse(dateLayout, s)
	if err != nil {
		return Date{}, fmt.Errorf("invalid date %q, expected YYYY-MM-DD", s)
	}
	return Date{Time: t}, nil
}

// DateOf truncates t to its calendar date.
func DateOf(t time.Time) Date {
	return NewDate(t.Year(), t.Month(), t.Day())
}

func (d Date) String() string { return d.Format(dateLayout) }

// Before reports whether d is strictly earlier than other.
func (d Date) Before(other Date) bool { return d.Time.Before(other.Time) }

func (d Date) MarshalJSON() ([]byte, error) {
	return json.Marshal(d.String())
}

func (d *Date) UnmarshalJSON(data []byte) error {
	if bytes.Equal(data, []byte("null")) {
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		return fmt.Errorf("date must be a string: %w", err)
	}
	parsed, err := ParseDate(s)
	if err != nil {
		return err
	}
	*d = parsed
	return nil
}

// Optional is a PATCH field that tells an absent key apart from an explicit
// null. Set is true whenever the key was present; Value is nil for null.
type Optional[T any] struct {
	Set   bool
	Value *T
}

// Some returns a present, non-null Optional holding v.
func Some[T any](v T) Optional[T] {
	return Optional[T]{Set: true, Value: &v}
}

// Null returns a present Optional that clears the field.
func Null[T any]() Optional[T] {
	return Optional[T]{Set: true}
}

func (o *Optional[T]) UnmarshalJSON(data []byte) error {
	o.Set = true
	if bytes.Equal(bytes.TrimSpace(data), []byte("null")) {
		o.Value = nil
		return nil
	}
	var v T
	if err := json.Unmarshal(data, &v); err != nil {
		return err
	}
	o.Value = &v
	return nil
}

func (o Optional[T]) MarshalJSON() ([]byte, error) {
	if o.Value == nil {
		return []byte("null"), nil
	}
	return json.Marshal(*o.Value)
}

// ListParams carries skip/limit for list endpoints.
type ListParams struct {
	Skip  int
	Limit int
}

const (
	DefaultListLimit = 100
	MaxListLimit     = 100
)

// DefaultListParams returns the parameters the UI uses for a full listing.
func DefaultListParams() ListParams {
	return ListParams{Skip: 0, Limit: DefaultListLimit}
}

// IsDefault reports whether p requests the first default-sized page.
func (p ListParams) IsDefault() bool {
	return p.Skip == 0 && p.Limit == DefaultListLimit
}
