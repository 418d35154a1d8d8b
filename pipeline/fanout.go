package pipeline

import (
	"context"
	"fmt"
	"log/slog"
	"runtime/debug"

	"golang.org/x/sync/errgroup"

	"github.com/xraph/howa/capability"
)

// draft runs one drafting call per material item and waits for all of
// them. It never returns an error: a failed or panicking call yields a
// placeholder candidate at the same index.
func (o *Orchestrator) draft(ctx context.Context, st *State) (Delta, error) {
	candidates := make([]Candidate, len(st.Materials))

	// Plain Group: one failure must not cancel the other calls.
	var g errgroup.Group
	if o.draftConcurrency > 0 {
		g.SetLimit(o.draftConcurrency)
	}

	for i, material := range st.Materials {
		in := capability.DraftInput{
			Theme:     st.Request.Theme,
			Audiences: st.Request.Audiences,
			Brief:     st.DraftingBrief,
			Material:  material,
			Reference: st.Reference,
		}
		g.Go(func() error {
			candidates[i] = o.draftOne(ctx, i, in)
			return nil
		})
	}
	_ = g.Wait()

	return Delta{}.WithCandidates(candidates), nil
}

func (o *Orchestrator) draftOne(ctx context.Context, index int, in capability.DraftInput) (c Candidate) {
	c = Candidate{Index: index, Material: in.Material}

	defer func() {
		if r := recover(); r != nil {
			o.logger.Error("drafter panicked",
				slog.Int("index", index),
				slog.Any("panic", r),
				slog.String("stack", string(debug.Stack())),
			)
			c.placeholder(fmt.Errorf("panic in drafter: %v", r))
		}
	}()

	if o.limiter != nil {
		if err := o.limiter.Wait(ctx); err != nil {
			c.placeholder(fmt.Errorf("rate limit: %w", err))
			return c
		}
	}

	text, err := o.caps.Drafter.DraftOne(ctx, in)
	if err != nil {
		c.placeholder(err)
		return c
	}
	c.Draft = text
	return c
}

func (c *Candidate) placeholder(err error) {
	c.Draft = capability.PlaceholderDraft
	c.Placeholder = true
	c.Err = err
}

// placeholders counts failed candidates.
func placeholders(cs []Candidate) int {
	n := 0
	for _, c := range cs {
		if c.Placeholder {
			n++
		}
	}
	return n
}
