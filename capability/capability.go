package capability

import (
	"context"

	"github.com/xraph/howa/task"
)

// Plan is the output of the planning stage.
type Plan struct {
	// ReferenceQuery is what the reference finder searches with.
	ReferenceQuery string
	// DraftingBrief summarises the sermon's intent for the drafter.
	DraftingBrief string
}

// Reference is a scripture passage with its source and a short
// explanation of why it fits.
type Reference struct {
	Quote       string `json:"quote"`
	Source      string `json:"source"`
	Explanation string `json:"explanation"`
}

// IsZero reports whether the reference carries no quote.
func (r Reference) IsZero() bool { return r.Quote == "" }

// DraftInput is everything one drafting call sees.
type DraftInput struct {
	Theme     string
	Audiences []string
	Brief     string
	Material  string
	Reference Reference
}

// Planner turns a request into search and drafting guidance.
type Planner interface {
	Plan(ctx context.Context, req task.Request) (Plan, error)
}

// ReferenceFinder looks up a scripture passage for a query.
type ReferenceFinder interface {
	FindReference(ctx context.Context, query string) (Reference, error)
}

// Gatherer collects current-topic material items that fit the drafting
// brief and the chosen reference. Order is significant: candidates are
// indexed by it.
type Gatherer interface {
	Gather(ctx context.Context, brief string, ref Reference) ([]string, error)
}

// Drafter writes one candidate sermon around one material item. The
// returned text is expected to be a JSON document in the Result shape,
// optionally wrapped in a markdown code fence.
type Drafter interface {
	DraftOne(ctx context.Context, in DraftInput) (string, error)
}

// Selector picks the best candidate draft and returns its text.
type Selector interface {
	Select(ctx context.Context, theme string, drafts []string) (string, error)
}

// Set bundles the collaborators a pipeline runs with.
type Set struct {
	Planner  Planner
	Finder   ReferenceFinder
	Gatherer Gatherer
	Drafter  Drafter
	Selector Selector
}

// Missing returns the names of unset collaborators.
func (s Set) Missing() []string {
	var missing []string
	if s.Planner == nil {
		missing = append(missing, "planner")
	}
	if s.Finder == nil {
		missing = append(missing, "reference finder")
	}
	if s.Gatherer == nil {
		missing = append(missing, "gatherer")
	}
	if s.Drafter == nil {
		missing = append(missing, "drafter")
	}
	if s.Selector == nil {
		missing = append(missing, "selector")
	}
	return missing
}

// FallbackReference is used when the reference lookup fails: Dhammapada,
// verse 1.
func FallbackReference() Reference {
	return Reference{
		Quote:       "一切の事柄は、心を前駆者とし、心を主とし、心によって作り出される。もしも汚れた心で話したり行ったりするならば、苦しみがその人に付き従う。車を引く牛の足跡に車輪が付き従うように。",
		Source:      "法句経（ダンマパダ） 第1偈",
		Explanation: "全ての苦しみや喜びの原因が自分自身の心にあるという根本的な教えで、あらゆる悩みに通じる。",
	}
}

// PlaceholderDraft is the text recorded for a drafting call that failed.
const PlaceholderDraft = "申し訳ありません。法話の生成中にエラーが発生しました。"
