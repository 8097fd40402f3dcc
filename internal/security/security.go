// Package security decides whether free-text input is safe to store and render.
//
// The same rules are applied by the record form, the CSV importer and the
// reference backend so a value accepted in one place is accepted everywhere.
package security

import (
	"fmt"
	"html"
	"regexp"
	"strings"
	"unicode"

	"github.com/microcosm-cc/bluemonday"
)

var strict = bluemonday.StrictPolicy()

type rule struct {
	name string
	re   *regexp.Regexp
}

var rules = []rule{
	{name: "script scheme", re: regexp.MustCompile(`(?i)(javascript|vbscript|livescript)\s*:`)},
	{name: "html data uri", re: regexp.MustCompile(`(?i)data\s*:\s*text/html`)},
	{name: "event handler", re: regexp.MustCompile(`(?i)\bon[a-z]{3,}\s*=`)},
	{name: "template expression", re: regexp.MustCompile(`\{\{|\$\{|<%`)},
	{name: "sql comment", re: regexp.MustCompile(`/\*|\*/`)},
	{name: "sql injection", re: regexp.MustCompile(`(?i)['"]\s*(or|and)\s+['"]?\w+['"]?\s*=|;\s*(drop|delete|insert|update|alter|truncate)\s`)},
}

// Violation describes why a value was rejected.
type Violation struct {
	Rule string
}

func (v *Violation) Error() string {
	return fmt.Sprintf("contains unsafe content (%s)", v.Rule)
}

// Check returns a *Violation when s is unsafe. Empty strings are safe.
func Check(s string) error {
	if s == "" {
		return nil
	}
	for _, r := range s {
		if r == '\t' {
			continue
		}
		if unicode.IsControl(r) {
			return &Violation{Rule: "control character"}
		}
	}
	// The strict policy strips every tag and escapes text; round-tripping back to
	// the input means nothing was removed.
	if html.UnescapeString(strict.Sanitize(s)) != s {
		return &Violation{Rule: "markup"}
	}
	for _, r := range rules {
		if r.re.MatchString(s) {
			return &Violation{Rule: r.name}
		}
	}
	return nil
}

func IsSafe(s string) bool {
	return Check(s) == nil
}

// CheckField prefixes the violation with a field label, e.g. "Code contains unsafe content (markup)".
func CheckField(label, s string) error {
	if err := Check(s); err != nil {
		return fmt.Errorf("%s %w", strings.TrimSpace(label), err)
	}
	return nil
}
