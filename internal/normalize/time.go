// Copyright (c) 2026 Guide de Lyon <contact@guide-de-lyon.fr>
// All rights reserved. See LICENSE for details.

package normalize

import (
	"fmt"
	"time"
)

// timeLayout is the store's timestamp format: fixed-width UTC RFC 3339,
// truncated to the second. Fixed width means lexicographic comparison of
// stored values equals chronological comparison, which the document store
// relies on for range filters and ordering.
const timeLayout = "2006-01-02T15:04:05Z"

// Time is the application's date type as persisted in the document store.
// Conversion is lossless to the second: sub-second precision is dropped on
// write and the zone is normalized to UTC.
type Time struct {
	time.Time
}

// Now returns the current time truncated for storage.
func Now() Time {
	return NewTime(time.Now())
}

// NewTime converts a time.Time into a store timestamp.
func NewTime(t time.Time) Time {
	return Time{t.UTC().Truncate(time.Second)}
}

// MarshalJSON encodes the timestamp in the store's fixed-width format.
func (t Time) MarshalJSON() ([]byte, error) {
	return []byte(`"` + t.UTC().Format(timeLayout) + `"`), nil
}

// UnmarshalJSON decodes a store timestamp. RFC 3339 values written by
// other tooling (with offsets or fractional seconds) are accepted and
// normalized on the next write.
func (t *Time) UnmarshalJSON(data []byte) error {
	s := string(data)
	if len(s) < 2 || s[0] != '"' || s[len(s)-1] != '"' {
		return fmt.Errorf("normalize time: invalid timestamp %s", s)
	}
	s = s[1 : len(s)-1]
	parsed, err := time.Parse(timeLayout, s)
	if err != nil {
		parsed, err = time.Parse(time.RFC3339, s)
		if err != nil {
			return fmt.Errorf("normalize time: parse %q: %w", s, err)
		}
	}
	t.Time = parsed.UTC().Truncate(time.Second)
	return nil
}

// Equal reports whether two timestamps refer to the same instant.
func (t Time) Equal(other Time) bool {
	return t.Time.Equal(other.Time)
}

// IsZero reports whether the timestamp is unset.
func (t Time) IsZero() bool {
	return t.Time.IsZero()
}
