package svg

import (
	"strings"

	"github.com/matzehuels/svg2png/pkg/errors"
)

// Prefix is the text a document must start with after trimming whitespace.
const Prefix = "<svg"

// RequiredAttributes are the substrings every accepted document must contain.
var RequiredAttributes = []string{"xmlns", "width", "height"}

// Validate checks the minimal shape of a decoded SVG document.
// It returns an INVALID_SVG error naming the first failed check.
func Validate(text string) error {
	if !strings.HasPrefix(strings.TrimSpace(text), Prefix) {
		return errors.New(errors.ErrCodeInvalidSVG, "document does not start with %q", Prefix)
	}
	for _, attr := range RequiredAttributes {
		if !strings.Contains(text, attr) {
			return errors.New(errors.ErrCodeInvalidSVG, "document is missing %q", attr)
		}
	}
	return nil
}

// IsValid reports whether Validate accepts text.
func IsValid(text string) bool {
	return Validate(text) == nil
}
