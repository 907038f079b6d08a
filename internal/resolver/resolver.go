// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

// Package resolver decides which alert configuration, if any, an
// incoming stream event should fire. Resolution reads the enabled
// alerts of the event's type in creation order, gates each on
// min_amount, and folds in the first matching variation of the first
// surviving candidate. For a fixed database state the outcome is
// deterministic; inputs are never mutated.
package resolver

import (
	"context"
	"fmt"
	"strconv"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
)

// Resolver matches incoming events against the stored ruleset.
type Resolver struct {
	alerts     *repository.AlertRepo
	variations *repository.VariationRepo
}

// New wires the resolver onto its repositories.
func New(alerts *repository.AlertRepo, variations *repository.VariationRepo) *Resolver {
	return &Resolver{alerts: alerts, variations: variations}
}

// Resolve returns the display spec the event should fire, or nil when
// no enabled alert accepts it. The first candidate (creation order)
// that passes the min_amount gate wins outright: its variations are
// evaluated, and later candidates are never considered.
func (r *Resolver) Resolve(ctx context.Context, eventType models.EventType, facts *models.EventFacts) (*models.AlertSpec, error) {
	candidates, err := r.alerts.ListEnabledByType(ctx, eventType)
	if err != nil {
		return nil, fmt.Errorf("failed to load alert candidates: %w", err)
	}

	for i := range candidates {
		alert := &candidates[i]
		if skipsAmountGate(alert, facts) {
			logging.Debug().
				Str("alert_id", alert.ID).
				Float64("min_amount", *alert.MinAmount).
				Msg("Alert skipped by min_amount gate")
			continue
		}
		return r.resolveVariation(ctx, alert, facts)
	}

	return nil, nil
}

// skipsAmountGate reports whether the candidate's min_amount excludes
// the event. An absent amount always passes; the gate only compares
// when both sides are present.
func skipsAmountGate(alert *models.Alert, facts *models.EventFacts) bool {
	if alert.MinAmount == nil || facts == nil || facts.Amount == nil {
		return false
	}
	return *facts.Amount < *alert.MinAmount
}

// resolveVariation evaluates the winner's enabled variations in
// priority order and merges the first match. No match returns the
// parent unchanged.
func (r *Resolver) resolveVariation(ctx context.Context, alert *models.Alert, facts *models.EventFacts) (*models.AlertSpec, error) {
	variations, err := r.variations.ListEnabledByAlert(ctx, alert.ID)
	if err != nil {
		return nil, fmt.Errorf("failed to load variations for alert %s: %w", alert.ID, err)
	}

	for i := range variations {
		v := &variations[i]
		if !conditionMatches(v, facts) {
			continue
		}
		logging.Debug().
			Str("alert_id", alert.ID).
			Str("variation_id", v.ID).
			Str("condition", string(v.ConditionType)).
			Msg("Variation matched")
		spec := v.Merge(*alert)
		return &spec, nil
	}

	spec := models.AlertSpec{Alert: *alert}
	spec.Variations = nil
	return &spec, nil
}

// conditionMatches evaluates one variation condition against the facts.
// Unknown condition kinds never match.
func conditionMatches(v *models.Variation, facts *models.EventFacts) bool {
	if facts == nil {
		return false
	}
	switch v.ConditionType {
	case models.ConditionTier:
		return facts.Tier != nil && *facts.Tier == v.ConditionValue
	case models.ConditionAmount:
		if facts.Amount == nil {
			return false
		}
		threshold, err := strconv.ParseFloat(v.ConditionValue, 64)
		if err != nil {
			return false
		}
		return *facts.Amount >= threshold
	case models.ConditionCustom:
		return facts.CustomValue != nil && *facts.CustomValue == v.ConditionValue
	default:
		return false
	}
}
