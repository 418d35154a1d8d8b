package task

import (
	"encoding/json"
	"errors"
	"fmt"
	"strings"

	"github.com/xraph/howa"
)

// Request is the client input: a theme and the audiences it is for.
type Request struct {
	Theme     string   `json:"theme"`
	Audiences []string `json:"audiences"`
}

// Validate checks the request shape. The returned error wraps
// howa.ErrInvalidRequest.
func (r Request) Validate() error {
	var problems []string
	if strings.TrimSpace(r.Theme) == "" {
		problems = append(problems, "theme must not be empty")
	}
	if len(r.Audiences) == 0 {
		problems = append(problems, "audiences must not be empty")
	}
	for i, a := range r.Audiences {
		if strings.TrimSpace(a) == "" {
			problems = append(problems, fmt.Sprintf("audiences[%d] must not be empty", i))
		}
	}
	if len(problems) > 0 {
		return fmt.Errorf("%w: %s", howa.ErrInvalidRequest, strings.Join(problems, "; "))
	}
	return nil
}

// DecodeRequest parses a stored request payload and validates it.
func DecodeRequest(data []byte) (Request, error) {
	var r Request
	if err := json.Unmarshal(data, &r); err != nil {
		return Request{}, fmt.Errorf("%w: %w", howa.ErrInvalidRequest, err)
	}
	return r, r.Validate()
}

// SutraQuote is the scripture passage a sermon is grounded on.
type SutraQuote struct {
	Text   string `json:"text"`
	Source string `json:"source"`
}

// Result is the structured sermon produced by the select stage.
type Result struct {
	Title            string     `json:"title"`
	Introduction     string     `json:"introduction"`
	ProblemStatement string     `json:"problem_statement"`
	SutraQuote       SutraQuote `json:"sutra_quote"`
	ModernExample    string     `json:"modern_example"`
	Conclusion       string     `json:"conclusion"`
}

// ErrInvalidResult is returned by Result.Validate.
var ErrInvalidResult = errors.New("task: invalid result")

// Validate checks that the fields a client renders first are present.
func (r *Result) Validate() error {
	if r == nil {
		return fmt.Errorf("%w: nil result", ErrInvalidResult)
	}
	var missing []string
	if strings.TrimSpace(r.Title) == "" {
		missing = append(missing, "title")
	}
	if strings.TrimSpace(r.Introduction) == "" {
		missing = append(missing, "introduction")
	}
	if strings.TrimSpace(r.SutraQuote.Text) == "" {
		missing = append(missing, "sutra_quote.text")
	}
	if strings.TrimSpace(r.SutraQuote.Source) == "" {
		missing = append(missing, "sutra_quote.source")
	}
	if len(missing) > 0 {
		return fmt.Errorf("%w: missing %s", ErrInvalidResult, strings.Join(missing, ", "))
	}
	return nil
}
