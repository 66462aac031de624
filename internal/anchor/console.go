package anchor

import (
	"fmt"
	"io"
	"sync"
)

// Console prints sign-in URLs for hosts without a browser.
type Console struct {
	mu sync.Mutex
	w  io.Writer
}

// NewConsole creates a Console writing to w.
func NewConsole(w io.Writer) *Console {
	return &Console{w: w}
}

// OpenURL writes rawURL with instructions for the user.
func (c *Console) OpenURL(rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	if _, err := fmt.Fprintf(c.w, "To sign in, open the following URL in a browser:\n\n  %s\n\n", rawURL); err != nil {
		return fmt.Errorf("failed to write sign-in URL: %w", err)
	}
	return nil
}
