// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

// EventType identifies the kind of stream event an alert reacts to.
type EventType string

// Supported event types. An Alert's type is immutable after creation.
const (
	EventFollow    EventType = "follow"
	EventSubscribe EventType = "subscribe"
	EventCheer     EventType = "cheer"
	EventRaid      EventType = "raid"
	EventDonation  EventType = "donation"
	EventCustom    EventType = "custom"
)

// EventTypes lists every supported event type in declaration order.
var EventTypes = []EventType{
	EventFollow,
	EventSubscribe,
	EventCheer,
	EventRaid,
	EventDonation,
	EventCustom,
}

// Valid reports whether t is a supported event type.
func (t EventType) Valid() bool {
	switch t {
	case EventFollow, EventSubscribe, EventCheer, EventRaid, EventDonation, EventCustom:
		return true
	}
	return false
}

// Alert display defaults applied when a create request leaves a field unset.
const (
	DefaultDurationMs   = 5000
	DefaultAnimationIn  = "fade-in"
	DefaultAnimationOut = "fade-out"
	DefaultSoundVolume  = 0.8
	DefaultFontFamily   = "Inter"
	DefaultFontSize     = 32
	DefaultTextColor    = "#ffffff"
	DefaultTTSRate      = 1.0
	DefaultTTSPitch     = 1.0
	DefaultTTSVolume    = 1.0
)

// Alert is the parent configuration for one event kind: what to show,
// play, and speak when a matching event arrives. Nullable columns map to
// pointer fields; nil serializes as JSON null, matching the storage row.
type Alert struct {
	ID      string    `json:"id"`
	Type    EventType `json:"type"`
	Name    string    `json:"name"`
	Enabled bool      `json:"enabled"`

	// MessageTemplate carries literal {username}, {amount}, and {message}
	// placeholders. Placeholders are substituted by the overlay client,
	// never validated server-side.
	MessageTemplate *string `json:"message_template"`

	DurationMs   int    `json:"duration_ms"`
	AnimationIn  string `json:"animation_in"`
	AnimationOut string `json:"animation_out"`

	SoundPath   *string `json:"sound_path"`
	SoundVolume float64 `json:"sound_volume"`
	ImagePath   *string `json:"image_path"`

	FontFamily      string  `json:"font_family"`
	FontSize        int     `json:"font_size"`
	TextColor       string  `json:"text_color"`
	BackgroundColor *string `json:"background_color"` // nil = transparent
	CustomCSS       *string `json:"custom_css"`

	// MinAmount gates amount-bearing events (cheer, donation, raid).
	// Events whose amount falls below it skip this alert entirely.
	MinAmount *float64 `json:"min_amount"`

	TTSEnabled bool    `json:"tts_enabled"`
	TTSVoice   *string `json:"tts_voice"`
	TTSRate    float64 `json:"tts_rate"`
	TTSPitch   float64 `json:"tts_pitch"`
	TTSVolume  float64 `json:"tts_volume"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`

	// Variations is populated only by list operations that group
	// variations under their parent, ordered by priority descending
	// then created-at ascending.
	Variations []Variation `json:"variations,omitempty"`
}

// DefaultAlert returns an Alert of the given type with every display
// field at its documented default. ID and timestamps are left for the
// caller to assign.
func DefaultAlert(eventType EventType) Alert {
	return Alert{
		Type:         eventType,
		Enabled:      true,
		DurationMs:   DefaultDurationMs,
		AnimationIn:  DefaultAnimationIn,
		AnimationOut: DefaultAnimationOut,
		SoundVolume:  DefaultSoundVolume,
		FontFamily:   DefaultFontFamily,
		FontSize:     DefaultFontSize,
		TextColor:    DefaultTextColor,
		TTSRate:      DefaultTTSRate,
		TTSPitch:     DefaultTTSPitch,
		TTSVolume:    DefaultTTSVolume,
	}
}

// CreateAlertRequest is the payload for creating an Alert. Pointer
// fields distinguish "absent, use the default" from an explicit value.
type CreateAlertRequest struct {
	Type            EventType `json:"type" validate:"required"`
	Name            string    `json:"name" validate:"required,min=1,max=200"`
	Enabled         *bool     `json:"enabled,omitempty"`
	MessageTemplate *string   `json:"message_template,omitempty"`
	DurationMs      *int      `json:"duration_ms,omitempty" validate:"omitempty,min=1000,max=60000"`
	AnimationIn     *string   `json:"animation_in,omitempty"`
	AnimationOut    *string   `json:"animation_out,omitempty"`
	SoundPath       *string   `json:"sound_path,omitempty"`
	SoundVolume     *float64  `json:"sound_volume,omitempty" validate:"omitempty,min=0,max=1"`
	ImagePath       *string   `json:"image_path,omitempty"`
	FontFamily      *string   `json:"font_family,omitempty"`
	FontSize        *int      `json:"font_size,omitempty" validate:"omitempty,min=12,max=200"`
	TextColor       *string   `json:"text_color,omitempty"`
	BackgroundColor *string   `json:"background_color,omitempty"`
	CustomCSS       *string   `json:"custom_css,omitempty"`
	MinAmount       *float64  `json:"min_amount,omitempty" validate:"omitempty,min=0"`
	TTSEnabled      *bool     `json:"tts_enabled,omitempty"`
	TTSVoice        *string   `json:"tts_voice,omitempty"`
	TTSRate         *float64  `json:"tts_rate,omitempty" validate:"omitempty,min=0"`
	TTSPitch        *float64  `json:"tts_pitch,omitempty" validate:"omitempty,min=0"`
	TTSVolume       *float64  `json:"tts_volume,omitempty" validate:"omitempty,min=0,max=1"`
}

// Apply builds a complete Alert from the request, filling unset fields
// from the documented defaults. ID and timestamps remain unset.
func (r *CreateAlertRequest) Apply() Alert {
	a := DefaultAlert(r.Type)
	a.Name = r.Name
	if r.Enabled != nil {
		a.Enabled = *r.Enabled
	}
	a.MessageTemplate = r.MessageTemplate
	if r.DurationMs != nil {
		a.DurationMs = *r.DurationMs
	}
	if r.AnimationIn != nil {
		a.AnimationIn = *r.AnimationIn
	}
	if r.AnimationOut != nil {
		a.AnimationOut = *r.AnimationOut
	}
	a.SoundPath = r.SoundPath
	if r.SoundVolume != nil {
		a.SoundVolume = *r.SoundVolume
	}
	a.ImagePath = r.ImagePath
	if r.FontFamily != nil {
		a.FontFamily = *r.FontFamily
	}
	if r.FontSize != nil {
		a.FontSize = *r.FontSize
	}
	if r.TextColor != nil {
		a.TextColor = *r.TextColor
	}
	a.BackgroundColor = r.BackgroundColor
	a.CustomCSS = r.CustomCSS
	a.MinAmount = r.MinAmount
	if r.TTSEnabled != nil {
		a.TTSEnabled = *r.TTSEnabled
	}
	a.TTSVoice = r.TTSVoice
	if r.TTSRate != nil {
		a.TTSRate = *r.TTSRate
	}
	if r.TTSPitch != nil {
		a.TTSPitch = *r.TTSPitch
	}
	if r.TTSVolume != nil {
		a.TTSVolume = *r.TTSVolume
	}
	return a
}

// AlertSpec is the resolved display configuration: a parent Alert with
// the first matching Variation's overrides folded in. The diagnostic
// variation fields are present only when a variation matched.
type AlertSpec struct {
	Alert
	VariationID   string `json:"_variation_id,omitempty"`
	VariationName string `json:"_variation_name,omitempty"`
}
