package validate

import (
	"errors"
	"testing"
)

func TestCheck(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name       string
		in         RejectionCode
		wantFields []string
	}{
		{name: "valid", in: RejectionCode{Code: "C1", Name: "Dent", Description: "Dented unit"}},
		{name: "valid without description", in: RejectionCode{Code: "C1", Name: "Dent"}},
		{name: "missing code", in: RejectionCode{Name: "Dent"}, wantFields: []string{"code"}},
		{name: "blank name", in: RejectionCode{Code: "C1", Name: "   "}, wantFields: []string{"name"}},
		{name: "both missing", in: RejectionCode{Description: "x"}, wantFields: []string{"code", "name"}},
		{name: "unsafe description", in: RejectionCode{Code: "C1", Name: "Dent", Description: "<b>x</b>"}, wantFields: []string{"description"}},
		{name: "unsafe code", in: RejectionCode{Code: "{{x}}", Name: "Dent"}, wantFields: []string{"code"}},
	}
	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := Check(tt.in)
			if len(tt.wantFields) == 0 {
				if err != nil {
					t.Fatalf("unexpected error: %v", err)
				}
				if !Valid(tt.in) {
					t.Fatalf("Valid() = false for valid input")
				}
				return
			}
			var ve Errors
			if !errors.As(err, &ve) {
				t.Fatalf("expected Errors, got %v", err)
			}
			if len(ve) != len(tt.wantFields) {
				t.Fatalf("got %d errors (%v), want fields %v", len(ve), ve, tt.wantFields)
			}
			for i, f := range tt.wantFields {
				if ve[i].Field != f {
					t.Fatalf("error %d field = %q, want %q", i, ve[i].Field, f)
				}
			}
		})
	}
}

func TestMessages_UseLabels(t *testing.T) {
	t.Parallel()

	err := Check(RejectionCode{Code: "", Name: "Dent", Description: "javascript:x"})
	var ve Errors
	if !errors.As(err, &ve) {
		t.Fatalf("expected Errors, got %v", err)
	}
	got := ve.Messages()
	want := []string{"Code is required", "Description contains unsafe content (script scheme)"}
	if len(got) != len(want) || got[0] != want[0] || got[1] != want[1] {
		t.Fatalf("messages = %q, want %q", got, want)
	}
	if len(ve.For("description")) != 1 || len(ve.For("name")) != 0 {
		t.Fatalf("unexpected For() results: %v", ve)
	}
}
