// Package resources locates the bundled font used for replacement text.
package resources

import (
	"errors"
	"fmt"
	"os"
)

// EnvFontPath overrides the font location when no explicit path is given.
const EnvFontPath = "PRICEUP_FONT"

// DefaultFontName is the handle replacement fonts register under.
const DefaultFontName = "dejavu"

// defaultFontFile is looked up relative to the working directory when
// neither a flag nor the environment names a font.
const defaultFontFile = "DejaVuSans.ttf"

// ErrFontUnavailable marks a missing or unreadable font resource. Callers
// degrade to the builtin fallback font instead of failing.
var ErrFontUnavailable = errors.New("font resource unavailable")

// LoadFont reads the TrueType resource from the explicit path, the
// environment, or the default location, in that order of preference.
func LoadFont(path string) ([]byte, error) {
	candidate := path
	if candidate == "" {
		candidate = os.Getenv(EnvFontPath)
	}
	if candidate == "" {
		candidate = defaultFontFile
	}
	data, err := os.ReadFile(candidate)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrFontUnavailable, candidate, err)
	}
	if len(data) == 0 {
		return nil, fmt.Errorf("%w: %s is empty", ErrFontUnavailable, candidate)
	}
	return data, nil
}
