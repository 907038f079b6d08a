// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

// AlertInstance is one resolved alert in flight through the playback
// queue. It is created at enqueue time, destroyed on completion ack or
// fallback timeout, and never persisted. Field names are camelCase per
// the overlay wire protocol.
type AlertInstance struct {
	ID            string     `json:"id"`
	AlertConfigID string     `json:"alertConfigId"`
	Type          EventType  `json:"type"`
	Username      string     `json:"username"`
	DisplayName   string     `json:"displayName"`
	Amount        *float64   `json:"amount"`
	Message       *string    `json:"message"`
	Timestamp     Timestamp  `json:"timestamp"`
	Config        *AlertSpec `json:"config"`
}

// defaultMessageTemplates maps each event type to the banner template
// the queue substitutes when an alert carries none.
var defaultMessageTemplates = map[EventType]string{
	EventFollow:    "{username} just followed!",
	EventSubscribe: "{username} just subscribed!",
	EventCheer:     "{username} cheered {amount} bits!",
	EventRaid:      "{username} is raiding with {amount} viewers!",
	EventDonation:  "{username} donated {amount}!",
	EventCustom:    "{username} triggered an event!",
}

// DefaultMessageTemplate returns the fallback banner template for the
// given event type, or the custom-event template for unknown types.
func DefaultMessageTemplate(eventType EventType) string {
	if tmpl, ok := defaultMessageTemplates[eventType]; ok {
		return tmpl
	}
	return defaultMessageTemplates[EventCustom]
}
