package capability

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/howa/task"
)

// ErrUnparsableDraft is returned by ParseDraft when the text is not a
// usable Result document.
var ErrUnparsableDraft = errors.New("capability: unparsable draft")

// ParseDraft decodes drafter output into a validated Result. A surrounding
// ``` or ```json fence is stripped first.
func ParseDraft(text string) (*task.Result, error) {
	body := StripFence(text)
	if body == "" {
		return nil, fmt.Errorf("%w: empty", ErrUnparsableDraft)
	}

	var r task.Result
	if err := json.Unmarshal([]byte(body), &r); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableDraft, err)
	}
	if err := r.Validate(); err != nil {
		return nil, fmt.Errorf("%w: %w", ErrUnparsableDraft, err)
	}
	return &r, nil
}

// StripFence removes a leading ``` (with optional language tag) and a
// trailing ``` from text.
func StripFence(text string) string {
	s := strings.TrimSpace(text)
	if !strings.HasPrefix(s, "```") {
		return s
	}
	s = strings.TrimPrefix(s, "```")
	if nl := strings.IndexByte(s, '\n'); nl >= 0 {
		s = s[nl+1:]
	} else {
		s = strings.TrimPrefix(s, "json")
	}
	s = strings.TrimSpace(s)
	s = strings.TrimSuffix(s, "```")
	return strings.TrimSpace(s)
}
