// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

import (
	"strconv"

	"github.com/goccy/go-json"
)

// EventLogEntry is one audit row: a stream event that arrived at the
// server, whether or not it fired an alert.
type EventLogEntry struct {
	ID          string          `json:"id"`
	Platform    string          `json:"platform"`
	EventType   string          `json:"event_type"`
	Username    string          `json:"username"`
	DisplayName string          `json:"display_name"`
	Amount      *float64        `json:"amount"`
	Message     *string         `json:"message"`
	Metadata    json.RawMessage `json:"metadata"`
	AlertFired  bool            `json:"alert_fired"`
	Timestamp   Timestamp       `json:"timestamp"`
}

// EventFacts is an incoming event payload as evaluated by the rule
// resolver. Known keys decode into typed fields; unknown keys are kept
// verbatim in Extra so they survive into event-log metadata.
//
// Loose typing follows the wire reality: tier may arrive as a JSON
// string or number and is stringified either way, amount accepts a
// numeric string, and custom_value is captured only when it is a JSON
// string (a numeric custom_value never matches a custom condition).
type EventFacts struct {
	Type        EventType
	Username    string
	DisplayName string
	Amount      *float64
	Tier        *string
	Message     *string
	CustomValue *string
	Extra       map[string]json.RawMessage
}

// factKeys are the typed keys; everything else lands in Extra.
var factKeys = map[string]struct{}{
	"type":         {},
	"username":     {},
	"displayName":  {},
	"amount":       {},
	"tier":         {},
	"message":      {},
	"custom_value": {},
}

// UnmarshalJSON decodes a facts object, splitting known keys from Extra.
func (f *EventFacts) UnmarshalJSON(data []byte) error {
	var raw map[string]json.RawMessage
	if err := json.Unmarshal(data, &raw); err != nil {
		return err
	}

	*f = EventFacts{}
	for key, val := range raw {
		if _, known := factKeys[key]; !known {
			if f.Extra == nil {
				f.Extra = make(map[string]json.RawMessage)
			}
			f.Extra[key] = val
		}
	}

	if v, ok := raw["type"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			f.Type = EventType(s)
		}
	}
	if v, ok := raw["username"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			f.Username = s
		}
	}
	if v, ok := raw["displayName"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			f.DisplayName = s
		}
	}
	if v, ok := raw["amount"]; ok {
		f.Amount = coerceNumber(v)
	}
	if v, ok := raw["tier"]; ok {
		f.Tier = coerceString(v)
	}
	if v, ok := raw["message"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			f.Message = &s
		}
	}
	if v, ok := raw["custom_value"]; ok {
		var s string
		if err := json.Unmarshal(v, &s); err == nil {
			f.CustomValue = &s
		}
	}
	return nil
}

// Metadata serializes the non-core facts (tier, custom_value, Extra)
// into a JSON object for event-log storage. Returns "{}" when empty.
func (f *EventFacts) Metadata() json.RawMessage {
	meta := make(map[string]any, len(f.Extra)+2)
	for key, val := range f.Extra {
		meta[key] = val
	}
	if f.Tier != nil {
		meta["tier"] = *f.Tier
	}
	if f.CustomValue != nil {
		meta["custom_value"] = *f.CustomValue
	}
	if len(meta) == 0 {
		return json.RawMessage(`{}`)
	}
	out, err := json.Marshal(meta)
	if err != nil {
		return json.RawMessage(`{}`)
	}
	return out
}

// coerceNumber accepts a JSON number or a numeric string. Anything else
// is treated as absent.
func coerceNumber(raw json.RawMessage) *float64 {
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		return &n
	}
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		if parsed, err := strconv.ParseFloat(s, 64); err == nil {
			return &parsed
		}
	}
	return nil
}

// coerceString accepts a JSON string or stringifies a JSON number the
// way loosely typed clients do ("1000", "1.5"). Anything else is absent.
func coerceString(raw json.RawMessage) *string {
	var s string
	if err := json.Unmarshal(raw, &s); err == nil {
		return &s
	}
	var n float64
	if err := json.Unmarshal(raw, &n); err == nil {
		formatted := strconv.FormatFloat(n, 'f', -1, 64)
		return &formatted
	}
	return nil
}
