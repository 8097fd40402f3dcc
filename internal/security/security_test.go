package security

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		in       string
		wantRule string
	}{
		{name: "empty", in: ""},
		{name: "plain", in: "Dented unit"},
		{name: "punctuation", in: "Scratch (minor) - 2mm, edge #4"},
		{name: "ampersand", in: "Dent & scratch"},
		{name: "less than", in: "gap < 2mm"},
		{name: "tab allowed", in: "a\tb"},
		{name: "unicode", in: "Rayure légère"},
		{name: "newline", in: "a\nb", wantRule: "control character"},
		{name: "nul", in: "a\x00b", wantRule: "control character"},
		{name: "bold tag", in: "<b>Dent</b>", wantRule: "markup"},
		{name: "script tag", in: "<script>alert(1)</script>", wantRule: "markup"},
		{name: "encoded entity", in: "&lt;b&gt;", wantRule: "markup"},
		{name: "javascript scheme", in: "javascript:alert(1)", wantRule: "script scheme"},
		{name: "event handler", in: "x onerror=alert(1)", wantRule: "event handler"},
		{name: "template", in: "{{.Secret}}", wantRule: "template expression"},
		{name: "shell template", in: "${HOME}", wantRule: "template expression"},
		{name: "sql comment", in: "a /* b", wantRule: "sql comment"},
		{name: "sql tautology", in: "' or 1=1", wantRule: "sql injection"},
		{name: "sql drop", in: "x; DROP TABLE users", wantRule: "sql injection"},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tt.in)
			if tt.wantRule == "" {
				if err != nil {
					t.Fatalf("Check(%q): unexpected error %v", tt.in, err)
				}
				return
			}
			var v *Violation
			if !errors.As(err, &v) {
				t.Fatalf("Check(%q): expected *Violation, got %v", tt.in, err)
			}
			if v.Rule != tt.wantRule {
				t.Fatalf("Check(%q): rule = %q, want %q", tt.in, v.Rule, tt.wantRule)
			}
		})
	}
}

func TestCheckField_PrefixesLabel(t *testing.T) {
	t.Parallel()

	err := CheckField("Name", "<i>x</i>")
	if err == nil || err.Error() != "Name contains unsafe content (markup)" {
		t.Fatalf("unexpected error: %v", err)
	}
	if CheckField("Name", "ok") != nil {
		t.Fatalf("expected nil for safe value")
	}
}
