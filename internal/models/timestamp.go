// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

import (
	"database/sql/driver"
	"fmt"
	"time"
)

// TimeLayout is the canonical timestamp form: UTC, millisecond precision,
// fixed width. Unlike RFC3339Nano it never trims trailing zeros, so the
// textual form sorts lexicographically in chronological order.
const TimeLayout = "2006-01-02T15:04:05.000Z"

// Timestamp is a time.Time pinned to the canonical layout for JSON and
// database round-trips.
type Timestamp struct {
	time.Time
}

// Now returns the current time as a canonical Timestamp.
func Now() Timestamp {
	return NewTimestamp(time.Now())
}

// NewTimestamp converts t to UTC and truncates it to millisecond precision.
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{t.UTC().Truncate(time.Millisecond)}
}

// ParseTimestamp accepts the canonical layout plus any RFC 3339 form
// (with or without fractional seconds) and normalizes the result.
func ParseTimestamp(s string) (Timestamp, error) {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return Timestamp{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return NewTimestamp(t), nil
}

// String returns the canonical textual form.
func (t Timestamp) String() string {
	return t.UTC().Format(TimeLayout)
}

// MarshalJSON renders the canonical form as a JSON string.
func (t Timestamp) MarshalJSON() ([]byte, error) {
	b := make([]byte, 0, len(TimeLayout)+2)
	b = append(b, '"')
	b = t.UTC().AppendFormat(b, TimeLayout)
	b = append(b, '"')
	return b, nil
}

// UnmarshalJSON parses a JSON string in any RFC 3339 form.
func (t *Timestamp) UnmarshalJSON(data []byte) error {
	if len(data) < 2 || data[0] != '"' || data[len(data)-1] != '"' {
		return fmt.Errorf("timestamp must be a JSON string, got %s", data)
	}
	parsed, err := ParseTimestamp(string(data[1 : len(data)-1]))
	if err != nil {
		return err
	}
	*t = parsed
	return nil
}

// Value implements driver.Valuer, storing the canonical text.
func (t Timestamp) Value() (driver.Value, error) {
	return t.String(), nil
}

// Scan implements sql.Scanner for TEXT and native time columns.
func (t *Timestamp) Scan(src any) error {
	switch v := src.(type) {
	case string:
		parsed, err := ParseTimestamp(v)
		if err != nil {
			return err
		}
		*t = parsed
		return nil
	case []byte:
		return t.Scan(string(v))
	case time.Time:
		*t = NewTimestamp(v)
		return nil
	case nil:
		*t = Timestamp{}
		return nil
	default:
		return fmt.Errorf("cannot scan %T into Timestamp", src)
	}
}
