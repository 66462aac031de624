package cli

import (
	"io"
	"os"
	"time"

	"github.com/briandowns/spinner"
)

// Progress shows a spinner while a long-running step, such as waiting for
// the user to finish signing in, is in flight.
type Progress struct {
	s *spinner.Spinner
}

// StartProgress starts a spinner with the given suffix on stderr. It does
// nothing when quiet is set or stderr is not a terminal.
func StartProgress(suffix string, quiet bool) *Progress {
	return startProgress(os.Stderr, suffix, quiet)
}

func startProgress(w io.Writer, suffix string, quiet bool) *Progress {
	f, ok := w.(*os.File)
	if quiet || !ok {
		return &Progress{}
	}

	s := spinner.New(spinner.CharSets[14], 100*time.Millisecond,
		spinner.WithSuffix(" "+suffix),
		spinner.WithWriterFile(f),
	)
	s.Start()
	return &Progress{s: s}
}

// Stop stops and erases the spinner.
func (p *Progress) Stop() {
	if p == nil || p.s == nil {
		return
	}
	p.s.Stop()
}
