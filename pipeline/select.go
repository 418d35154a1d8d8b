package pipeline

import (
	"context"
	"fmt"
	"strings"

	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/task"
)

// selectResult asks the selector to choose among the usable drafts and
// parses its answer.
func (o *Orchestrator) selectResult(ctx context.Context, st *State) (Delta, error) {
	var drafts []string
	for _, c := range st.Candidates {
		if !c.Placeholder {
			drafts = append(drafts, c.Draft)
		}
	}
	if len(drafts) == 0 {
		return Delta{}, fmt.Errorf("%w: every draft failed", errUnusable)
	}

	chosen, err := o.caps.Selector.Select(ctx, st.Request.Theme, drafts)
	if err != nil {
		return Delta{}, err
	}
	result, err := capability.ParseDraft(chosen)
	if err != nil {
		return Delta{}, err
	}
	return Delta{Result: result}, nil
}

// selectFallback returns the first candidate that parses in index order,
// or a result assembled from the request and reference.
func (o *Orchestrator) selectFallback(st *State, _ error) Delta {
	for _, c := range st.Candidates {
		if c.Placeholder {
			continue
		}
		if r, err := capability.ParseDraft(c.Draft); err == nil {
			return Delta{Result: r}
		}
	}
	return Delta{Result: FallbackResult(st.Request, st.Reference)}
}

// FallbackResult builds a deterministic sermon skeleton when no draft is
// usable. A zero reference is replaced by capability.FallbackReference.
func FallbackResult(req task.Request, ref capability.Reference) *task.Result {
	if ref.IsZero() || ref.Source == "" {
		ref = capability.FallbackReference()
	}
	audiences := strings.Join(req.Audiences, "、")
	return &task.Result{
		Title:            fmt.Sprintf("%s: %sへの法話", req.Theme, audiences),
		Introduction:     fmt.Sprintf("今日は「%s」について、%sの皆さんと一緒に考えてみたいと思います。", req.Theme, audiences),
		ProblemStatement: fmt.Sprintf("私たちは日々の忙しさの中で「%s」を見失いがちです。", req.Theme),
		SutraQuote:       task.SutraQuote{Text: ref.Quote, Source: ref.Source},
		ModernExample:    ref.Explanation,
		Conclusion:       fmt.Sprintf("今日から少しずつ、「%s」を心に留めて過ごしてみましょう。", req.Theme),
	}
}
