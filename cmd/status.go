package cmd

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"stratus/internal/auth"
	"stratus/internal/cli"
	"stratus/internal/tokencache"
	stringsx "stratus/pkg/strings"

	"github.com/jedib0t/go-pretty/v6/text"
	"github.com/spf13/cobra"
)

// Status-specific flags
var (
	statusWatch bool
	statusFlags cli.CommandFlags
)

// statusCmd represents the status command
var statusCmd = &cobra.Command{
	Use:   "status",
	Short: "Show the cached session",
	Long: `Show who is signed in and whether a usable access token is cached.

The session is rebuilt from the token cache without any interaction. With
--watch, stratus keeps running and prints the session again whenever another
process signs in or out (file token cache only).

Examples:
  stratus status              # Show the session
  stratus status -o json      # Machine-readable output
  stratus status --watch      # Follow changes to the token cache`,
	Args: cobra.NoArgs,
	RunE: runStatus,
}

func init() {
	statusCmd.Flags().BoolVarP(&statusWatch, "watch", "w", false, "Print the session again when the token cache changes")
	cli.RegisterOutputFlags(statusCmd, &statusFlags)
}

// statusView is the printed form of a session.
type statusView struct {
	SignedIn      bool       `json:"signedIn" yaml:"signedIn"`
	Authenticated bool       `json:"authenticated" yaml:"authenticated"`
	User          string     `json:"user,omitempty" yaml:"user,omitempty"`
	Name          string     `json:"name,omitempty" yaml:"name,omitempty"`
	Environment   string     `json:"environment,omitempty" yaml:"environment,omitempty"`
	ExpiresOn     *time.Time `json:"expiresOn,omitempty" yaml:"expiresOn,omitempty"`
	Scopes        []string   `json:"scopes" yaml:"scopes"`
	TokenCache    string     `json:"tokenCache" yaml:"tokenCache"`
}

func newStatusView(session auth.Session, scopes []string, backend string) statusView {
	view := statusView{
		SignedIn:      session.IsSignedIn,
		Authenticated: session.IsAuthenticated,
		Scopes:        scopes,
		TokenCache:    backend,
	}
	if session.User != nil {
		view.User = session.User.DisplayName()
		view.Name = session.User.Name
		view.Environment = session.User.Environment
	}
	if !session.ExpiresOn.IsZero() {
		expiresOn := session.ExpiresOn
		view.ExpiresOn = &expiresOn
	}
	return view
}

// statusText is the colored STATUS cell.
func (v statusView) statusText() string {
	switch {
	case v.Authenticated:
		return text.FgGreen.Sprint("Authenticated")
	case v.SignedIn:
		return text.FgYellow.Sprint("Token unavailable")
	default:
		return text.FgRed.Sprint("Not signed in")
	}
}

func (v statusView) table(now time.Time) func(tw *cli.PlainTableWriter) {
	return func(tw *cli.PlainTableWriter) {
		user := v.User
		if user == "" {
			user = "-"
		}
		expires := "-"
		if v.ExpiresOn != nil {
			expires = cli.FormatExpiry(*v.ExpiresOn, now)
		}
		tw.SetHeaders([]string{"STATUS", "USER", "EXPIRES", "SCOPES", "CACHE"})
		tw.AppendRow([]string{v.statusText(), user, expires, stringsx.Truncate(strings.Join(v.Scopes, " "), stringsx.DefaultMaxLen), v.TokenCache})
	}
}

func runStatus(cmd *cobra.Command, args []string) error {
	printer, err := statusFlags.Printer(cmd)
	if err != nil {
		return err
	}

	ctx := commandContext(cmd)
	services, err := clientServices(cmd)
	if err != nil {
		return err
	}
	defer services.Close()

	render := func() error {
		services.Auth.UpdateFromCache(ctx)
		view := newStatusView(services.Auth.Session(), services.Auth.Scopes(), services.Store.Backend())
		return printer.Print(view, view.table(time.Now()))
	}

	if err := render(); err != nil {
		return err
	}
	if !statusWatch {
		return nil
	}

	path, ok := services.CachePath()
	if !ok {
		return fmt.Errorf("--watch needs the file token cache backend (current: %s)", services.Store.Backend())
	}

	ctx, stop := signal.NotifyContext(ctx, os.Interrupt, syscall.SIGTERM)
	defer stop()
	return watchCache(ctx, path, render)
}

// watchCache calls render each time the cache file at path changes, until ctx
// is done.
func watchCache(ctx context.Context, path string, render func() error) error {
	changes := make(chan struct{}, 1)
	watcher := tokencache.NewWatcher(tokencache.WatcherConfig{
		Path: path,
		OnChange: func() {
			select {
			case changes <- struct{}{}:
			default:
			}
		},
	})
	if err := watcher.Start(); err != nil {
		return fmt.Errorf("failed to watch token cache: %w", err)
	}
	defer watcher.Stop()

	for {
		select {
		case <-ctx.Done():
			return nil
		case <-changes:
			if err := render(); err != nil {
				return err
			}
		}
	}
}
