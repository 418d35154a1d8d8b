package pipeline

import (
	"github.com/xraph/howa/capability"
	"github.com/xraph/howa/task"
)

// Key names one value of the pipeline State.
type Key string

// State keys, in the order stages produce them.
const (
	KeyReferenceQuery Key = "reference_query"
	KeyDraftingBrief  Key = "drafting_brief"
	KeyReference      Key = "reference"
	KeyMaterials      Key = "materials"
	KeyCandidates     Key = "candidates"
	KeyResult         Key = "result"
)

// Candidate is one output of the draft fan-out.
type Candidate struct {
	// Index is the position of the material item it was drafted from.
	Index    int
	Material string
	Draft    string
	// Placeholder is set when the drafting call failed; Draft then holds
	// capability.PlaceholderDraft and Err the failure.
	Placeholder bool
	Err         error
}

// State is the accumulating context threaded through the stages. Fields
// are only meaningful when Has reports the key as present.
type State struct {
	Request task.Request

	ReferenceQuery string
	DraftingBrief  string
	Reference      capability.Reference
	Materials      []string
	Candidates     []Candidate
	Result         *task.Result

	present map[Key]bool
}

// NewState returns the initial State for a request. The request itself is
// not a key: it is always present.
func NewState(req task.Request) *State {
	return &State{Request: req, present: make(map[Key]bool)}
}

// Has reports whether k has been produced.
func (s *State) Has(k Key) bool { return s.present[k] }

// Keys returns the produced keys in production order.
func (s *State) Keys() []Key {
	var keys []Key
	for _, k := range allKeys {
		if s.present[k] {
			keys = append(keys, k)
		}
	}
	return keys
}

var allKeys = []Key{
	KeyReferenceQuery, KeyDraftingBrief, KeyReference,
	KeyMaterials, KeyCandidates, KeyResult,
}

// Delta is the set of keys one stage contributes. A nil field means the
// key is not produced.
type Delta struct {
	ReferenceQuery *string
	DraftingBrief  *string
	Reference      *capability.Reference
	Materials      []string
	Candidates     []Candidate
	Result         *task.Result

	// materialsSet and candidatesSet distinguish an empty slice from an
	// absent one.
	materialsSet  bool
	candidatesSet bool
}

// WithMaterials returns d with the materials key set.
func (d Delta) WithMaterials(m []string) Delta {
	d.Materials, d.materialsSet = m, true
	return d
}

// WithCandidates returns d with the candidates key set.
func (d Delta) WithCandidates(c []Candidate) Delta {
	d.Candidates, d.candidatesSet = c, true
	return d
}

// Keys returns the keys the delta carries.
func (d Delta) Keys() []Key {
	var keys []Key
	if d.ReferenceQuery != nil {
		keys = append(keys, KeyReferenceQuery)
	}
	if d.DraftingBrief != nil {
		keys = append(keys, KeyDraftingBrief)
	}
	if d.Reference != nil {
		keys = append(keys, KeyReference)
	}
	if d.materialsSet || d.Materials != nil {
		keys = append(keys, KeyMaterials)
	}
	if d.candidatesSet || d.Candidates != nil {
		keys = append(keys, KeyCandidates)
	}
	if d.Result != nil {
		keys = append(keys, KeyResult)
	}
	return keys
}

// merge copies the delta's keys into s. The caller has already checked
// the delta against the stage contract.
func (s *State) merge(d Delta) {
	for _, k := range d.Keys() {
		switch k {
		case KeyReferenceQuery:
			s.ReferenceQuery = *d.ReferenceQuery
		case KeyDraftingBrief:
			s.DraftingBrief = *d.DraftingBrief
		case KeyReference:
			s.Reference = *d.Reference
		case KeyMaterials:
			s.Materials = d.Materials
		case KeyCandidates:
			s.Candidates = d.Candidates
		case KeyResult:
			s.Result = d.Result
		}
		s.present[k] = true
	}
}
