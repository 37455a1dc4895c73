// Package transform converts PHI-bearing tag values into coarse,
// non-identifying derivatives. Each field transform returns a tagged result
// rather than panicking or aborting, so one malformed field never takes the
// whole record down: the caller logs the reason and omits the field.
package transform

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// MaxAge is the clamp ceiling for patient ages. Ages above it are
// indistinguishable in the output, which keeps the 90+ population from
// being identifiable by exact age.
const MaxAge = 90

const dateFormat = "20060102"

// Field is one derived output value, or an omission with a reason.
type Field struct {
	Key   string
	Value any
	Err   error
}

// Ok reports whether the field carries a usable value.
func (f Field) Ok() bool { return f.Err == nil }

func value(key string, v any) Field   { return Field{Key: key, Value: v} }
func omitted(key string, err error) Field { return Field{Key: key, Err: err} }

// Apply maps a transform-catalog keyword and its raw value to derived
// fields. Keywords with no mapping (such as PatientBirthDate, which is read
// but never emitted) return nil.
func Apply(keyword, raw string) []Field {
	switch keyword {
	case "PatientAge":
		return []Field{Age(raw)}
	case "StudyDate":
		return []Field{Weekday(raw), Year(raw)}
	case "StudyTime":
		return []Field{HourOfDay(raw)}
	default:
		return nil
	}
}

// Age converts an age string such as "049Y" into its clamped form "49Y".
// The numeric magnitude is parsed with leading zeros stripped, clamped to
// MaxAge, and the original unit letter is re-appended.
func Age(raw string) Field {
	const key = "age"
	if len(raw) < 2 {
		return omitted(key, fmt.Errorf("age string %q too short", raw))
	}
	unit := raw[len(raw)-1:]
	n, err := strconv.Atoi(strings.TrimSpace(raw[:len(raw)-1]))
	if err != nil {
		return omitted(key, fmt.Errorf("age magnitude %q is not numeric", raw[:len(raw)-1]))
	}
	if n > MaxAge {
		n = MaxAge
	}
	return value(key, fmt.Sprintf("%d%s", n, unit))
}

// Weekday converts a YYYYMMDD study date into the day of the week,
// 0=Monday through 6=Sunday.
func Weekday(raw string) Field {
	const key = "day_of_week"
	t, err := time.Parse(dateFormat, raw)
	if err != nil {
		return omitted(key, fmt.Errorf("study date %q is not YYYYMMDD", raw))
	}
	// time.Weekday counts 0=Sunday; shift to 0=Monday.
	return value(key, (int(t.Weekday())+6)%7)
}

// Year extracts the 4-digit year from a YYYYMMDD study date.
func Year(raw string) Field {
	const key = "year"
	t, err := time.Parse(dateFormat, raw)
	if err != nil {
		return omitted(key, fmt.Errorf("study date %q is not YYYYMMDD", raw))
	}
	return value(key, t.Year())
}

// HourOfDay extracts the hour from a study time string whose first two
// characters are the hours field, "00" through "23".
func HourOfDay(raw string) Field {
	const key = "hour_of_the_day"
	if len(raw) < 2 {
		return omitted(key, fmt.Errorf("study time %q too short", raw))
	}
	h, err := strconv.Atoi(raw[:2])
	if err != nil {
		return omitted(key, fmt.Errorf("study time %q has non-numeric hours", raw))
	}
	if h < 0 || h > 23 {
		return omitted(key, fmt.Errorf("hour %d out of range", h))
	}
	return value(key, h)
}
