// Package static provides deterministic capability implementations. They
// make no network calls and are used by tests, local development and the
// command-line tool when no model-backed collaborators are configured.
package static

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/task"
)

// Compile-time interface checks.
var (
	_ capability.Planner         = Planner{}
	_ capability.ReferenceFinder = Finder{}
	_ capability.Gatherer        = Gatherer{}
	_ capability.Drafter         = Drafter{}
	_ capability.Selector        = Selector{}
)

// Planner derives the reference query and brief from the request text.
type Planner struct{}

// Plan implements capability.Planner.
func (Planner) Plan(_ context.Context, req task.Request) (capability.Plan, error) {
	audiences := strings.Join(req.Audiences, "、")
	return capability.Plan{
		ReferenceQuery: fmt.Sprintf("「%s」について%sに響く経典の一節", req.Theme, audiences),
		DraftingBrief:  fmt.Sprintf("%s向けに「%s」を身近な話題から説く", audiences, req.Theme),
	}, nil
}

// Finder always returns the same reference. A zero Reference field means
// capability.FallbackReference.
type Finder struct {
	Reference capability.Reference
}

// FindReference implements capability.ReferenceFinder.
func (f Finder) FindReference(context.Context, string) (capability.Reference, error) {
	if f.Reference.IsZero() {
		return capability.FallbackReference(), nil
	}
	return f.Reference, nil
}

// Gatherer returns a fixed list of topics. With no topics configured it
// returns one generic topic built from the brief.
type Gatherer struct {
	Topics []string
}

// Gather implements capability.Gatherer.
func (g Gatherer) Gather(_ context.Context, brief string, _ capability.Reference) ([]string, error) {
	if len(g.Topics) == 0 {
		return []string{fmt.Sprintf("最近の出来事から: %s", brief)}, nil
	}
	return append([]string(nil), g.Topics...), nil
}

// Drafter renders a Result document from the input fields, wrapped in a
// ```json fence as model output usually is.
type Drafter struct{}

// DraftOne implements capability.Drafter.
func (Drafter) DraftOne(_ context.Context, in capability.DraftInput) (string, error) {
	audiences := strings.Join(in.Audiences, "、")
	r := task.Result{
		Title:            fmt.Sprintf("%sに贈る「%s」の話", audiences, in.Theme),
		Introduction:     in.Material,
		ProblemStatement: fmt.Sprintf("私たちは日々の暮らしの中で「%s」を見失っていないでしょうか。", in.Theme),
		SutraQuote: task.SutraQuote{
			Text:   in.Reference.Quote,
			Source: in.Reference.Source,
		},
		ModernExample: in.Reference.Explanation,
		Conclusion:    in.Brief,
	}
	data, err := json.MarshalIndent(r, "", "  ")
	if err != nil {
		return "", fmt.Errorf("static: encode draft: %w", err)
	}
	return "```json\n" + string(data) + "\n```", nil
}

// Selector picks the first candidate.
type Selector struct{}

// Select implements capability.Selector.
func (Selector) Select(_ context.Context, _ string, drafts []string) (string, error) {
	if len(drafts) == 0 {
		return "", errors.New("static: no candidates to select from")
	}
	return drafts[0], nil
}

// Set returns a capability.Set built from the static collaborators.
func Set(topics ...string) capability.Set {
	return capability.Set{
		Planner:  Planner{},
		Finder:   Finder{},
		Gatherer: Gatherer{Topics: topics},
		Drafter:  Drafter{},
		Selector: Selector{},
	}
}
