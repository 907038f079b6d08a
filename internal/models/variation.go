// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package models

// ConditionType selects how a Variation's condition is evaluated against
// incoming event facts.
type ConditionType string

// Supported condition kinds. Anything else never matches.
const (
	ConditionTier   ConditionType = "tier"   // string equality against facts.tier
	ConditionAmount ConditionType = "amount" // numeric >= against facts.amount
	ConditionCustom ConditionType = "custom" // string equality against facts.custom_value
)

// Valid reports whether t is a supported condition type.
func (t ConditionType) Valid() bool {
	switch t {
	case ConditionTier, ConditionAmount, ConditionCustom:
		return true
	}
	return false
}

// Variation is a conditional override owned by one Alert. When its
// condition matches incoming facts, its non-nil override fields replace
// the parent's values at resolution time; nil fields inherit.
type Variation struct {
	ID             string        `json:"id"`
	AlertID        string        `json:"alert_id"`
	Name           string        `json:"name"`
	ConditionType  ConditionType `json:"condition_type"`
	ConditionValue string        `json:"condition_value"`
	Priority       int           `json:"priority"`
	Enabled        bool          `json:"enabled"`

	MessageTemplate *string  `json:"message_template"`
	SoundPath       *string  `json:"sound_path"`
	SoundVolume     *float64 `json:"sound_volume"`
	ImagePath       *string  `json:"image_path"`
	AnimationIn     *string  `json:"animation_in"`
	AnimationOut    *string  `json:"animation_out"`
	CustomCSS       *string  `json:"custom_css"`

	CreatedAt Timestamp `json:"created_at"`
	UpdatedAt Timestamp `json:"updated_at"`
}

// CreateVariationRequest is the payload for creating a Variation under
// an existing Alert.
type CreateVariationRequest struct {
	Name           string        `json:"name" validate:"required,min=1,max=200"`
	ConditionType  ConditionType `json:"condition_type" validate:"required"`
	ConditionValue string        `json:"condition_value" validate:"required"`
	Priority       *int          `json:"priority,omitempty"`
	Enabled        *bool         `json:"enabled,omitempty"`

	MessageTemplate *string  `json:"message_template,omitempty"`
	SoundPath       *string  `json:"sound_path,omitempty"`
	SoundVolume     *float64 `json:"sound_volume,omitempty" validate:"omitempty,min=0,max=1"`
	ImagePath       *string  `json:"image_path,omitempty"`
	AnimationIn     *string  `json:"animation_in,omitempty"`
	AnimationOut    *string  `json:"animation_out,omitempty"`
	CustomCSS       *string  `json:"custom_css,omitempty"`
}

// Apply builds a Variation from the request. ID, AlertID, and timestamps
// remain unset for the repository to assign.
func (r *CreateVariationRequest) Apply() Variation {
	v := Variation{
		Name:            r.Name,
		ConditionType:   r.ConditionType,
		ConditionValue:  r.ConditionValue,
		Enabled:         true,
		MessageTemplate: r.MessageTemplate,
		SoundPath:       r.SoundPath,
		SoundVolume:     r.SoundVolume,
		ImagePath:       r.ImagePath,
		AnimationIn:     r.AnimationIn,
		AnimationOut:    r.AnimationOut,
		CustomCSS:       r.CustomCSS,
	}
	if r.Priority != nil {
		v.Priority = *r.Priority
	}
	if r.Enabled != nil {
		v.Enabled = *r.Enabled
	}
	return v
}

// Merge returns the parent alert with this variation's non-nil override
// fields applied, tagged with the variation's identity. Neither input is
// mutated; the grouped Variations slice is not carried into the result.
func (v *Variation) Merge(parent Alert) AlertSpec {
	merged := parent
	merged.Variations = nil
	if v.MessageTemplate != nil {
		merged.MessageTemplate = v.MessageTemplate
	}
	if v.SoundPath != nil {
		merged.SoundPath = v.SoundPath
	}
	if v.SoundVolume != nil {
		merged.SoundVolume = *v.SoundVolume
	}
	if v.ImagePath != nil {
		merged.ImagePath = v.ImagePath
	}
	if v.AnimationIn != nil {
		merged.AnimationIn = *v.AnimationIn
	}
	if v.AnimationOut != nil {
		merged.AnimationOut = *v.AnimationOut
	}
	if v.CustomCSS != nil {
		merged.CustomCSS = v.CustomCSS
	}
	return AlertSpec{
		Alert:         merged,
		VariationID:   v.ID,
		VariationName: v.Name,
	}
}
