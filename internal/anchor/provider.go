package anchor

import (
	"fmt"
	"io"
	"strings"

	"stratus/internal/auth"
)

// Modes accepted by ForMode.
const (
	ModeBrowser = "browser"
	ModeConsole = "console"
)

// Static is an auth.AnchorProvider that always returns the same anchor.
type Static struct {
	anchor auth.Anchor
}

// NewStatic wraps anchor in a provider. A nil anchor makes CurrentAnchor fail.
func NewStatic(a auth.Anchor) *Static {
	return &Static{anchor: a}
}

// CurrentAnchor returns the wrapped anchor.
func (s *Static) CurrentAnchor() (auth.Anchor, error) {
	if s.anchor == nil {
		return nil, auth.ErrNoAnchor
	}
	return s.anchor, nil
}

// ForMode builds the provider for mode. Console anchors write to w.
func ForMode(mode string, w io.Writer) (*Static, error) {
	switch strings.ToLower(strings.TrimSpace(mode)) {
	case "", ModeBrowser:
		return NewStatic(Browser{}), nil
	case ModeConsole:
		return NewStatic(NewConsole(w)), nil
	default:
		return nil, fmt.Errorf("unknown anchor mode %q (expected %s or %s)", mode, ModeBrowser, ModeConsole)
	}
}

var _ auth.AnchorProvider = (*Static)(nil)
