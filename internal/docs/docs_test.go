package docs

import (
	"strings"
	"testing"
)

func TestTopicsAreSortedAndReadable(t *testing.T) {
	t.Parallel()
	topics := Topics()
	if len(topics) < 4 {
		t.Fatalf("expected embedded topics, got %v", topics)
	}
	for i, topic := range topics {
		if i > 0 && topics[i-1] > topic {
			t.Fatalf("topics not sorted: %v", topics)
		}
		body, ok := Get(topic)
		if !ok || !strings.HasPrefix(body, "# ") {
			t.Fatalf("topic %q: expected a markdown heading, got %q", topic, body)
		}
	}
}

func TestGetRejectsUnknownAndPaths(t *testing.T) {
	t.Parallel()
	tests := []string{"", "nope", "../docs", "content/import", "import.md"}
	for _, tt := range tests {
		tt := tt
		t.Run(tt, func(t *testing.T) {
			t.Parallel()
			if _, ok := Get(tt); ok {
				t.Fatalf("expected %q to be unknown", tt)
			}
		})
	}
}
