package htmlsanitize_test

import (
	"testing"

	"github.com/aloria/backoffice/internal/app/system/htmlsanitize"
)

func TestText(t *testing.T) {
	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"empty", "", ""},
		{"plain", "Bonjour, je souhaite un visa étudiant.", "Bonjour, je souhaite un visa étudiant."},
		{"trims", "  hello  ", "hello"},
		{"strips tags", "<p><strong>Bold</strong> text</p>", "Bold text"},
		{"removes script", "Hello<script>alert('xss')</script>", "Hello"},
		{"keeps ampersand readable", "Tom & Jerry", "Tom & Jerry"},
		{"strips onclick", `<a href="#" onclick="evil()">link</a>`, "link"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := htmlsanitize.Text(tt.input); got != tt.want {
				t.Errorf("Text(%q) = %q, want %q", tt.input, got, tt.want)
			}
		})
	}
}

func TestTextPtr(t *testing.T) {
	if htmlsanitize.TextPtr(nil) != nil {
		t.Error("expected nil for nil input")
	}
	blank := "<br/>"
	if htmlsanitize.TextPtr(&blank) != nil {
		t.Error("expected nil when nothing survives sanitizing")
	}
	note := "<i>call back</i>"
	got := htmlsanitize.TextPtr(&note)
	if got == nil || *got != "call back" {
		t.Errorf("TextPtr = %v, want \"call back\"", got)
	}
}
