package cli

import (
	"strings"
	"testing"

	"github.com/matzehuels/svg2png/pkg/errors"
	"github.com/matzehuels/svg2png/pkg/pipeline"
)

func TestTruncate(t *testing.T) {
	tests := []struct {
		in   string
		n    int
		want string
	}{
		{"short", 10, "short"},
		{"exactly", 7, "exactly"},
		{"too long here", 8, "too lon…"},
		{"äöüäöü", 4, "äöü…"},
	}
	for _, tt := range tests {
		if got := truncate(tt.in, tt.n); got != tt.want {
			t.Errorf("truncate(%q, %d) = %q, want %q", tt.in, tt.n, got, tt.want)
		}
	}
}

func TestFailureTable(t *testing.T) {
	out := failureTable([]pipeline.Failure{
		{Key: "broken", Code: errors.ErrCodeInvalidSVG, Message: "document is missing xmlns"},
		{Key: "garbage", Code: errors.ErrCodeInvalidBase64, Message: "illegal base64 data"},
	})

	for _, want := range []string{"Record", "Code", "broken", "INVALID_SVG", "garbage", "INVALID_BASE64"} {
		if !strings.Contains(out, want) {
			t.Errorf("table missing %q:\n%s", want, out)
		}
	}
	if strings.Index(out, "broken") > strings.Index(out, "garbage") {
		t.Error("failures should keep their order")
	}
}
