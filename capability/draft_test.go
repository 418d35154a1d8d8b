package capability_test

import (
	"errors"
	"testing"

	"github.com/xraph/howa/capability"
)

const validDraft = `{
  "title": "ありがとうの力",
  "introduction": "朝の電車で席を譲られた。",
  "problem_statement": "感謝を忘れていないか。",
  "sutra_quote": {"text": "心は諸法に先立ち", "source": "法句経 第1偈"},
  "modern_example": "職場での一言。",
  "conclusion": "今日一つ、ありがとうを。"
}`

func TestParseDraft(t *testing.T) {
	tests := []struct {
		name    string
		text    string
		wantErr bool
	}{
		{"plain", validDraft, false},
		{"json fence", "```json\n" + validDraft + "\n```", false},
		{"bare fence", "```\n" + validDraft + "\n```", false},
		{"surrounding whitespace", "\n\n  " + validDraft + "  \n", false},
		{"empty", "", true},
		{"not json", "申し訳ありません。", true},
		{"missing title", `{"introduction":"a","sutra_quote":{"text":"b","source":"c"}}`, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := capability.ParseDraft(tt.text)
			if tt.wantErr {
				if !errors.Is(err, capability.ErrUnparsableDraft) {
					t.Fatalf("expected ErrUnparsableDraft, got %v", err)
				}
				return
			}
			if err != nil {
				t.Fatalf("ParseDraft: %v", err)
			}
			if r.Title != "ありがとうの力" || r.SutraQuote.Source != "法句経 第1偈" {
				t.Errorf("unexpected result %+v", r)
			}
		})
	}
}

func TestStripFence(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{"{}", "{}"},
		{"```json\n{}\n```", "{}"},
		{"```json{}```", "{}"},
		{"```\n{\"a\":1}\n```", `{"a":1}`},
	}
	for _, tt := range tests {
		if got := capability.StripFence(tt.in); got != tt.want {
			t.Errorf("StripFence(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestSetMissing(t *testing.T) {
	var s capability.Set
	if got := len(s.Missing()); got != 5 {
		t.Fatalf("Missing() = %d entries, want 5", got)
	}
	if ref := capability.FallbackReference(); ref.IsZero() || ref.Source == "" {
		t.Fatalf("fallback reference incomplete: %+v", ref)
	}
}
