// StreamForge - Live Stream Alert Sidecar
// Copyright 2026 StreamForge contributors
// SPDX-License-Identifier: AGPL-3.0-or-later
// https://github.com/streamforge/streamforge-server

package resolver

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/goccy/go-json"

	"github.com/streamforge/streamforge-server/internal/logging"
	"github.com/streamforge/streamforge-server/internal/models"
	"github.com/streamforge/streamforge-server/internal/repository"
	"github.com/streamforge/streamforge-server/internal/store"
)

func init() {
	logging.Init(logging.Config{Level: "disabled"})
}

func newTestResolver(t *testing.T) (*Resolver, *repository.Repositories) {
	t.Helper()
	s, err := store.Open(filepath.Join(t.TempDir(), "test.db"))
	if err != nil {
		t.Fatalf("Open() error = %v", err)
	}
	t.Cleanup(func() {
		if err := s.Close(); err != nil {
			t.Errorf("Close() error = %v", err)
		}
	})
	repos := repository.New(s)
	return New(repos.Alerts, repos.Variations), repos
}

// facts decodes an event payload the way the HTTP boundary does, so
// the loose-typing coercions are part of what gets exercised.
func facts(t *testing.T, raw string) *models.EventFacts {
	t.Helper()
	var f models.EventFacts
	if err := json.Unmarshal([]byte(raw), &f); err != nil {
		t.Fatalf("facts %s: %v", raw, err)
	}
	return &f
}

func seedAlert(t *testing.T, repos *repository.Repositories, eventType models.EventType, name, createdAt string, minAmount *float64) *models.Alert {
	t.Helper()
	alert := models.DefaultAlert(eventType)
	alert.Name = name
	alert.MinAmount = minAmount
	var err error
	alert.CreatedAt, err = models.ParseTimestamp(createdAt)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) error = %v", createdAt, err)
	}
	if err := repos.Alerts.Create(context.Background(), &alert); err != nil {
		t.Fatalf("Create alert %s error = %v", name, err)
	}
	return &alert
}

func seedVariation(t *testing.T, repos *repository.Repositories, v models.Variation, createdAt string) *models.Variation {
	t.Helper()
	var err error
	v.CreatedAt, err = models.ParseTimestamp(createdAt)
	if err != nil {
		t.Fatalf("ParseTimestamp(%q) error = %v", createdAt, err)
	}
	if err := repos.Variations.Create(context.Background(), &v); err != nil {
		t.Fatalf("Create variation %s error = %v", v.Name, err)
	}
	return &v
}

func disableRow(t *testing.T, repos *repository.Repositories, update func() error) {
	t.Helper()
	if err := update(); err != nil {
		t.Fatalf("disable error = %v", err)
	}
}

func TestResolveNoAlertsConfigured(t *testing.T) {
	r, _ := newTestResolver(t)

	spec, err := r.Resolve(context.Background(), models.EventFollow, facts(t, `{"username":"u"}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec != nil {
		t.Errorf("Resolve() = %+v, want nil", spec)
	}
}

func TestResolveSkipsDisabledAlerts(t *testing.T) {
	r, repos := newTestResolver(t)

	alert := seedAlert(t, repos, models.EventFollow, "Off", "2026-03-01T10:00:00.000Z", nil)
	disableRow(t, repos, func() error {
		_, err := repos.Alerts.Update(context.Background(), alert.ID, repository.Patch{"enabled": json.RawMessage(`false`)})
		return err
	})

	spec, err := r.Resolve(context.Background(), models.EventFollow, facts(t, `{"username":"u"}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec != nil {
		t.Errorf("disabled alert resolved: %+v", spec)
	}
}

func TestResolveIgnoresOtherTypes(t *testing.T) {
	r, repos := newTestResolver(t)

	seedAlert(t, repos, models.EventCheer, "Cheer Only", "2026-03-01T10:00:00.000Z", nil)

	spec, err := r.Resolve(context.Background(), models.EventFollow, facts(t, `{"username":"u"}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec != nil {
		t.Errorf("alert of another type resolved: %+v", spec)
	}
}

func TestResolveFirstCreatedWins(t *testing.T) {
	r, repos := newTestResolver(t)

	first := seedAlert(t, repos, models.EventFollow, "First", "2026-03-01T10:00:00.000Z", nil)
	second := seedAlert(t, repos, models.EventFollow, "Second", "2026-03-01T11:00:00.000Z", nil)

	// Even a matching variation on the later alert must not be reached.
	seedVariation(t, repos, models.Variation{
		AlertID:        second.ID,
		Name:           "unreachable",
		ConditionType:  models.ConditionTier,
		ConditionValue: "1000",
		Enabled:        true,
	}, "2026-03-01T12:00:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventFollow, facts(t, `{"username":"u","tier":"1000"}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.ID != first.ID {
		t.Fatalf("Resolve() picked %+v, want first-created alert", spec)
	}
	if spec.VariationID != "" {
		t.Errorf("variation %q leaked from a later candidate", spec.VariationID)
	}
}

func TestResolveMinAmountGate(t *testing.T) {
	r, repos := newTestResolver(t)
	ctx := context.Background()

	min := 50.0
	gated := seedAlert(t, repos, models.EventDonation, "Big Spenders", "2026-03-01T10:00:00.000Z", &min)
	fallback := seedAlert(t, repos, models.EventDonation, "Everyone", "2026-03-01T11:00:00.000Z", nil)

	t.Run("below the gate falls through to the next candidate", func(t *testing.T) {
		spec, err := r.Resolve(ctx, models.EventDonation, facts(t, `{"username":"u","amount":10}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil || spec.ID != fallback.ID {
			t.Errorf("Resolve() = %+v, want the ungated candidate", spec)
		}
	})

	t.Run("at the gate the candidate holds", func(t *testing.T) {
		spec, err := r.Resolve(ctx, models.EventDonation, facts(t, `{"username":"u","amount":50}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil || spec.ID != gated.ID {
			t.Errorf("Resolve() = %+v, want the gated candidate at exactly min_amount", spec)
		}
	})

	t.Run("absent amount passes the gate", func(t *testing.T) {
		spec, err := r.Resolve(ctx, models.EventDonation, facts(t, `{"username":"u"}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil || spec.ID != gated.ID {
			t.Errorf("Resolve() = %+v, want the gated candidate when amount is absent", spec)
		}
	})
}

func TestResolveGatedWinnerVariationsNeverEvaluated(t *testing.T) {
	r, repos := newTestResolver(t)

	min := 100.0
	gated := seedAlert(t, repos, models.EventCheer, "Gated", "2026-03-01T10:00:00.000Z", &min)
	seedVariation(t, repos, models.Variation{
		AlertID:        gated.ID,
		Name:           "would-match",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "1",
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventCheer, facts(t, `{"username":"u","amount":5}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec != nil {
		t.Errorf("skipped candidate's variation fired: %+v", spec)
	}
}

func TestResolveTierVariation(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventSubscribe, "Subs", "2026-03-01T10:00:00.000Z", nil)
	sound := "/sounds/tier3.ogg"
	template := "TIER THREE HYPE from {username}!"
	v := seedVariation(t, repos, models.Variation{
		AlertID:         parent.ID,
		Name:            "Tier 3",
		ConditionType:   models.ConditionTier,
		ConditionValue:  "3000",
		Enabled:         true,
		SoundPath:       &sound,
		MessageTemplate: &template,
	}, "2026-03-01T11:00:00.000Z")

	t.Run("matching tier merges the overrides", func(t *testing.T) {
		spec, err := r.Resolve(context.Background(), models.EventSubscribe, facts(t, `{"username":"u","tier":"3000"}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil {
			t.Fatal("Resolve() = nil")
		}
		if spec.VariationID != v.ID || spec.VariationName != "Tier 3" {
			t.Errorf("variation identity = %q/%q", spec.VariationID, spec.VariationName)
		}
		if spec.SoundPath == nil || *spec.SoundPath != sound {
			t.Errorf("SoundPath = %v, want override", spec.SoundPath)
		}
		if spec.MessageTemplate == nil || *spec.MessageTemplate != template {
			t.Errorf("MessageTemplate = %v, want override", spec.MessageTemplate)
		}
		// Fields the variation leaves nil inherit from the parent.
		if spec.DurationMs != parent.DurationMs {
			t.Errorf("DurationMs = %d, want inherited %d", spec.DurationMs, parent.DurationMs)
		}
		if spec.FontFamily != parent.FontFamily {
			t.Errorf("FontFamily = %q, want inherited", spec.FontFamily)
		}
	})

	t.Run("numeric tier stringifies before comparing", func(t *testing.T) {
		spec, err := r.Resolve(context.Background(), models.EventSubscribe, facts(t, `{"username":"u","tier":3000}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil || spec.VariationID != v.ID {
			t.Errorf("numeric tier did not match: %+v", spec)
		}
	})

	t.Run("other tier returns the parent as-is", func(t *testing.T) {
		spec, err := r.Resolve(context.Background(), models.EventSubscribe, facts(t, `{"username":"u","tier":"1000"}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil {
			t.Fatal("Resolve() = nil")
		}
		if spec.VariationID != "" {
			t.Errorf("unexpected variation %q", spec.VariationID)
		}
		if spec.SoundPath != nil {
			t.Errorf("SoundPath = %v, want parent nil", spec.SoundPath)
		}
	})

	t.Run("absent tier never matches", func(t *testing.T) {
		spec, err := r.Resolve(context.Background(), models.EventSubscribe, facts(t, `{"username":"u"}`))
		if err != nil {
			t.Fatalf("Resolve() error = %v", err)
		}
		if spec == nil || spec.VariationID != "" {
			t.Errorf("Resolve() = %+v, want bare parent", spec)
		}
	})
}

func TestResolveAmountVariation(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCheer, "Cheers", "2026-03-01T10:00:00.000Z", nil)
	big := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "big",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "1000",
		Priority:       10,
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")
	small := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "small",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "100",
		Priority:       5,
		Enabled:        true,
	}, "2026-03-01T11:01:00.000Z")

	tests := []struct {
		name        string
		payload     string
		wantVarID   string
		wantVarName string
	}{
		{"above both thresholds takes the higher priority", `{"username":"u","amount":5000}`, big.ID, "big"},
		{"exactly at a threshold matches it", `{"username":"u","amount":1000}`, big.ID, "big"},
		{"between thresholds takes the lower", `{"username":"u","amount":500}`, small.ID, "small"},
		{"numeric-string amount coerces", `{"username":"u","amount":"500"}`, small.ID, "small"},
		{"below both falls back to the parent", `{"username":"u","amount":50}`, "", ""},
		{"absent amount never matches", `{"username":"u"}`, "", ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			spec, err := r.Resolve(context.Background(), models.EventCheer, facts(t, tt.payload))
			if err != nil {
				t.Fatalf("Resolve() error = %v", err)
			}
			if spec == nil {
				t.Fatal("Resolve() = nil, want parent or variation")
			}
			if spec.VariationID != tt.wantVarID {
				t.Errorf("VariationID = %q, want %q", spec.VariationID, tt.wantVarID)
			}
			if spec.VariationName != tt.wantVarName {
				t.Errorf("VariationName = %q, want %q", spec.VariationName, tt.wantVarName)
			}
		})
	}
}

func TestResolveUnparseableAmountConditionNeverMatches(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCheer, "Cheers", "2026-03-01T10:00:00.000Z", nil)
	seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "broken",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "lots",
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventCheer, facts(t, `{"username":"u","amount":99999}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.VariationID != "" {
		t.Errorf("Resolve() = %+v, want bare parent past the unparseable threshold", spec)
	}
}

func TestResolveCustomVariation(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCustom, "Hooks", "2026-03-01T10:00:00.000Z", nil)
	v := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "confetti",
		ConditionType:  models.ConditionCustom,
		ConditionValue: "confetti",
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventCustom, facts(t, `{"username":"u","custom_value":"confetti"}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.VariationID != v.ID {
		t.Errorf("Resolve() = %+v, want confetti variation", spec)
	}

	// A numeric custom_value is not a string and must not match.
	spec, err = r.Resolve(context.Background(), models.EventCustom, facts(t, `{"username":"u","custom_value":42}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.VariationID != "" {
		t.Errorf("numeric custom_value matched: %+v", spec)
	}
}

func TestResolvePriorityOrderWithCreatedAtTieBreak(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCheer, "Cheers", "2026-03-01T10:00:00.000Z", nil)
	older := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "older",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "10",
		Priority:       5,
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")
	seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "newer",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "10",
		Priority:       5,
		Enabled:        true,
	}, "2026-03-01T11:05:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventCheer, facts(t, `{"username":"u","amount":100}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.VariationID != older.ID {
		t.Errorf("tie-break picked %+v, want the older variation", spec)
	}
}

func TestResolveSkipsDisabledVariations(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCheer, "Cheers", "2026-03-01T10:00:00.000Z", nil)
	off := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "off",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "10",
		Priority:       10,
		Enabled:        true,
	}, "2026-03-01T11:00:00.000Z")
	disableRow(t, repos, func() error {
		_, err := repos.Variations.Update(context.Background(), off.ID, repository.Patch{"enabled": json.RawMessage(`false`)})
		return err
	})
	on := seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "on",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "10",
		Priority:       1,
		Enabled:        true,
	}, "2026-03-01T11:01:00.000Z")

	spec, err := r.Resolve(context.Background(), models.EventCheer, facts(t, `{"username":"u","amount":100}`))
	if err != nil {
		t.Fatalf("Resolve() error = %v", err)
	}
	if spec == nil || spec.VariationID != on.ID {
		t.Errorf("Resolve() = %+v, want the enabled lower-priority variation", spec)
	}
}

func TestResolveIsDeterministicAndNonMutating(t *testing.T) {
	r, repos := newTestResolver(t)

	parent := seedAlert(t, repos, models.EventCheer, "Cheers", "2026-03-01T10:00:00.000Z", nil)
	sound := "/sounds/big.ogg"
	seedVariation(t, repos, models.Variation{
		AlertID:        parent.ID,
		Name:           "big",
		ConditionType:  models.ConditionAmount,
		ConditionValue: "100",
		Enabled:        true,
		SoundPath:      &sound,
	}, "2026-03-01T11:00:00.000Z")

	payload := `{"username":"u","amount":500}`
	first, err := r.Resolve(context.Background(), models.EventCheer, facts(t, payload))
	if err != nil {
		t.Fatalf("first Resolve() error = %v", err)
	}
	second, err := r.Resolve(context.Background(), models.EventCheer, facts(t, payload))
	if err != nil {
		t.Fatalf("second Resolve() error = %v", err)
	}

	firstJSON, _ := json.Marshal(first)
	secondJSON, _ := json.Marshal(second)
	if string(firstJSON) != string(secondJSON) {
		t.Errorf("resolution not deterministic:\n%s\n%s", firstJSON, secondJSON)
	}
	if first.Variations != nil {
		t.Error("resolved spec carries a grouped Variations slice")
	}

	// The stored parent is untouched by the merge.
	stored, err := repos.Alerts.GetByID(context.Background(), parent.ID)
	if err != nil {
		t.Fatalf("GetByID() error = %v", err)
	}
	if stored.SoundPath != nil {
		t.Errorf("parent mutated: SoundPath = %v", *stored.SoundPath)
	}
}
