package anchor

import (
	"errors"
	"fmt"
	"net/url"
	"os/exec"
	"runtime"

	"stratus/pkg/logging"
)

// browserLauncher starts the platform command. Tests replace it.
var browserLauncher = func(cmd *exec.Cmd) error {
	return cmd.Start()
}

// Browser opens sign-in pages in the default web browser.
type Browser struct{}

// OpenURL validates rawURL and opens it in the default web browser.
// It supports Linux, macOS, and Windows.
func (Browser) OpenURL(rawURL string) error {
	if err := validateURL(rawURL); err != nil {
		return err
	}

	var cmd *exec.Cmd
	switch runtime.GOOS {
	case "linux", "freebsd", "openbsd", "netbsd":
		cmd = exec.Command("xdg-open", rawURL)
	case "darwin":
		cmd = exec.Command("open", rawURL)
	case "windows":
		cmd = exec.Command("rundll32", "url.dll,FileProtocolHandler", rawURL)
	default:
		return fmt.Errorf("unsupported platform: %s", runtime.GOOS)
	}

	// The browser keeps running after sign-in; don't wait for it.
	if err := browserLauncher(cmd); err != nil {
		return fmt.Errorf("failed to open browser: %w", err)
	}

	logging.Debug("Anchor", "Opened browser for sign-in")
	return nil
}

// validateURL only lets http and https through to the platform launcher.
func validateURL(rawURL string) error {
	if rawURL == "" {
		return errors.New("URL cannot be empty")
	}

	u, err := url.Parse(rawURL)
	if err != nil {
		return fmt.Errorf("invalid URL: %w", err)
	}
	if u.Scheme != "http" && u.Scheme != "https" {
		return fmt.Errorf("invalid URL scheme %q: only http and https are allowed", u.Scheme)
	}
	if u.Host == "" {
		return errors.New("invalid URL: missing host")
	}
	return nil
}
