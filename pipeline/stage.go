package pipeline

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/howa/capability"
)

// Mode is the execution mode of a stage.
type Mode string

const (
	// ModeSingle runs the stage function once.
	ModeSingle Mode = "single"
	// ModeFanOut runs one sub-task per material item and waits for all.
	ModeFanOut Mode = "fan-out"
)

// Stage names, in execution order.
const (
	StagePlan            = "plan"
	StageLookupReference = "lookup-reference"
	StageGatherMaterial  = "gather-material"
	StageDraft           = "draft"
	StageSelect          = "select"
)

// StageFunc computes a stage's delta from the current state. It must not
// modify st.
type StageFunc func(ctx context.Context, st *State) (Delta, error)

// FallbackFunc substitutes a usable delta after the stage function failed
// with cause.
type FallbackFunc func(st *State, cause error) Delta

// StageDefinition is one entry of the stage table.
type StageDefinition struct {
	Name     string
	Mode     Mode
	Requires []Key
	Produces []Key

	Run StageFunc

	// Fallback, when set, turns a Run error into a degraded result. A stage
	// without a fallback fails the pipeline on error.
	Fallback FallbackFunc
}

// errUnusable marks collaborator output the stage cannot use.
var errUnusable = errors.New("unusable collaborator output")

// defaultStages returns the fixed stage table bound to the orchestrator's
// collaborators.
func (o *Orchestrator) defaultStages() []StageDefinition {
	return []StageDefinition{
		{
			Name:     StagePlan,
			Mode:     ModeSingle,
			Produces: []Key{KeyReferenceQuery, KeyDraftingBrief},
			Run:      o.plan,
			Fallback: planFallback,
		},
		{
			Name:     StageLookupReference,
			Mode:     ModeSingle,
			Requires: []Key{KeyReferenceQuery},
			Produces: []Key{KeyReference},
			Run:      o.lookupReference,
			Fallback: referenceFallback,
		},
		{
			Name:     StageGatherMaterial,
			Mode:     ModeSingle,
			Requires: []Key{KeyDraftingBrief, KeyReference},
			Produces: []Key{KeyMaterials},
			Run:      o.gatherMaterial,
			Fallback: materialFallback,
		},
		{
			Name:     StageDraft,
			Mode:     ModeFanOut,
			Requires: []Key{KeyMaterials, KeyReference},
			Produces: []Key{KeyCandidates},
			Run:      o.draft,
		},
		{
			Name:     StageSelect,
			Mode:     ModeSingle,
			Requires: []Key{KeyCandidates},
			Produces: []Key{KeyResult},
			Run:      o.selectResult,
			Fallback: o.selectFallback,
		},
	}
}

// ── plan ──

func (o *Orchestrator) plan(ctx context.Context, st *State) (Delta, error) {
	p, err := o.caps.Planner.Plan(ctx, st.Request)
	if err != nil {
		return Delta{}, err
	}
	if strings.TrimSpace(p.ReferenceQuery) == "" {
		return Delta{}, fmt.Errorf("%w: empty reference query", errUnusable)
	}
	if strings.TrimSpace(p.DraftingBrief) == "" {
		p.DraftingBrief = st.Request.Theme
	}
	return Delta{ReferenceQuery: &p.ReferenceQuery, DraftingBrief: &p.DraftingBrief}, nil
}

func planFallback(st *State, _ error) Delta {
	query := strings.Join(append([]string{st.Request.Theme}, st.Request.Audiences...), " ")
	brief := st.Request.Theme
	return Delta{ReferenceQuery: &query, DraftingBrief: &brief}
}

// ── lookup-reference ──

func (o *Orchestrator) lookupReference(ctx context.Context, st *State) (Delta, error) {
	ref, err := o.caps.Finder.FindReference(ctx, st.ReferenceQuery)
	if err != nil {
		return Delta{}, err
	}
	if strings.TrimSpace(ref.Quote) == "" || strings.TrimSpace(ref.Source) == "" {
		return Delta{}, fmt.Errorf("%w: reference without quote or source", errUnusable)
	}
	return Delta{Reference: &ref}, nil
}

func referenceFallback(*State, error) Delta {
	ref := capability.FallbackReference()
	return Delta{Reference: &ref}
}

// ── gather-material ──

func (o *Orchestrator) gatherMaterial(ctx context.Context, st *State) (Delta, error) {
	items, err := o.caps.Gatherer.Gather(ctx, st.DraftingBrief, st.Reference)
	if err != nil {
		return Delta{}, err
	}
	var kept []string
	for _, it := range items {
		if strings.TrimSpace(it) != "" {
			kept = append(kept, it)
		}
	}
	if len(kept) == 0 {
		return Delta{}, fmt.Errorf("%w: no material items", errUnusable)
	}
	return Delta{}.WithMaterials(kept), nil
}

// materialFallback drafts from the theme alone.
func materialFallback(st *State, _ error) Delta {
	return Delta{}.WithMaterials([]string{st.Request.Theme})
}
