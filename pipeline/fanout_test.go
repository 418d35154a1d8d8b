package pipeline

import (
	"context"
	"testing"
	"time"

	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/capability/static"
)

func draftState(items []string) *State {
	st := NewState(testRequest())
	ref := capability.FallbackReference()
	brief := "brief"
	st.merge(Delta{DraftingBrief: &brief, Reference: &ref}.WithMaterials(items))
	return st
}

func TestDraftPreservesLengthAndOrder(t *testing.T) {
	for _, n := range []int{1, 3, 17} {
		items := materials(n)
		fail := map[string]bool{}
		for i := 0; i < n; i += 3 {
			fail[items[i]] = true
		}

		caps := static.Set()
		caps.Drafter = &selectiveDrafter{fail: fail}
		o := mustNew(caps)

		d, err := o.draft(context.Background(), draftState(items))
		if err != nil {
			t.Fatalf("n=%d: draft: %v", n, err)
		}
		if len(d.Candidates) != n {
			t.Fatalf("n=%d: candidates = %d", n, len(d.Candidates))
		}
		for i, c := range d.Candidates {
			if c.Index != i || c.Material != items[i] {
				t.Errorf("n=%d: candidate %d tagged (%d, %q)", n, i, c.Index, c.Material)
			}
			if c.Placeholder != fail[items[i]] {
				t.Errorf("n=%d: candidate %d placeholder = %v", n, i, c.Placeholder)
			}
			if c.Placeholder && (c.Draft != capability.PlaceholderDraft || c.Err == nil) {
				t.Errorf("n=%d: placeholder %d incomplete: %+v", n, i, c)
			}
		}
	}
}

func TestDraftPanicBecomesPlaceholder(t *testing.T) {
	caps := static.Set()
	caps.Drafter = &selectiveDrafter{panic: map[string]bool{"b": true}}
	o := mustNew(caps)

	d, _ := o.draft(context.Background(), draftState([]string{"a", "b", "c"}))
	if !d.Candidates[1].Placeholder || d.Candidates[0].Placeholder || d.Candidates[2].Placeholder {
		t.Fatalf("unexpected placeholders: %+v", d.Candidates)
	}
	if !contains(d.Candidates[1].Err.Error(), "drafter exploded") {
		t.Errorf("placeholder error = %v", d.Candidates[1].Err)
	}
}

func TestDraftConcurrencyLimit(t *testing.T) {
	drafter := &selectiveDrafter{delay: 10 * time.Millisecond}
	caps := static.Set()
	caps.Drafter = drafter
	o := mustNew(caps, WithDraftConcurrency(2))

	if _, err := o.draft(context.Background(), draftState(materials(8))); err != nil {
		t.Fatalf("draft: %v", err)
	}
	if peak := drafter.peak.Load(); peak > 2 {
		t.Errorf("peak concurrency = %d, want <= 2", peak)
	}
}

func TestDraftIsParallel(t *testing.T) {
	drafter := &selectiveDrafter{delay: 30 * time.Millisecond}
	caps := static.Set()
	caps.Drafter = drafter
	o := mustNew(caps)

	if _, err := o.draft(context.Background(), draftState(materials(4))); err != nil {
		t.Fatalf("draft: %v", err)
	}
	if peak := drafter.peak.Load(); peak < 2 {
		t.Errorf("peak concurrency = %d, want parallel calls", peak)
	}
}

func TestDraftRateLimitOption(t *testing.T) {
	tests := []struct {
		name    string
		rate    float64
		wantNil bool
	}{
		{"off", 0, true},
		{"negative", -1, true},
		{"fractional", 0.5, false},
		{"several", 5, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			o := mustNew(static.Set(), WithDraftRateLimit(tt.rate))
			if (o.limiter == nil) != tt.wantNil {
				t.Fatalf("limiter nil = %v, want %v", o.limiter == nil, tt.wantNil)
			}
			if o.limiter != nil && o.limiter.Burst() < 1 {
				t.Errorf("burst = %d, want >= 1", o.limiter.Burst())
			}
		})
	}
}

func TestDraftRateLimitExpiredContext(t *testing.T) {
	o := mustNew(static.Set(), WithDraftRateLimit(0.001))
	// Drain the single token.
	o.limiter.Allow()

	ctx, cancel := context.WithTimeout(context.Background(), 10*time.Millisecond)
	defer cancel()

	d, _ := o.draft(ctx, draftState([]string{"a"}))
	if !d.Candidates[0].Placeholder {
		t.Fatal("expected placeholder when the limiter cannot wait")
	}
}
