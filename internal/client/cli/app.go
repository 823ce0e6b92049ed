package cli

import (
	"bufio"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/config"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/client/store"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

// App holds everything a command needs: the local store, the API client
// and the terminal streams.
type App struct {
	cfg   *config.Config
	store *store.Store
	api   *api.Client
	log   logging.Logger
	in    *bufio.Reader
	out   io.Writer

	logFile io.Closer
}

// NewApp opens the local database and builds the API client. Logs go to
// cfg.LogFile so they never mix with command output.
func NewApp(ctx context.Context, cfg *config.Config, in io.Reader, out io.Writer) (*App, error) {
	a := &App{cfg: cfg, in: bufio.NewReader(in), out: out}

	if _, err := filex.EnsureDir(filepath.Dir(cfg.DatabaseFile)); err != nil {
		return nil, err
	}

	if cfg.LogFile != "" {
		f, err := os.OpenFile(cfg.LogFile, os.O_CREATE|os.O_WRONLY|os.O_APPEND, 0o600)
		if err != nil {
			return nil, fmt.Errorf("open log file: %w", err)
		}
		a.logFile = f
		a.log = logging.NewJSON(f, false)
	} else {
		a.log = logging.Discard()
	}

	s, err := store.Open(ctx, cfg.DatabaseFile)
	if err != nil {
		a.closeLog()
		return nil, err
	}
	a.store = s
	a.api = api.New(cfg.ServerURL, cfg.RequestTimeout, s, a.log)

	return a, nil
}

func (a *App) closeLog() {
	if a.logFile != nil {
		_ = a.logFile.Close()
		a.logFile = nil
	}
}

func (a *App) Close() error {
	defer a.closeLog()
	if a.store == nil {
		return nil
	}
	return a.store.Close()
}

// session reports what the route guard needs to know about the caller.
func (a *App) session(ctx context.Context) (guard.Session, error) {
	access, _, err := a.store.Tokens(ctx)
	if err != nil {
		return guard.Session{}, err
	}
	if access == "" {
		return guard.Session{}, nil
	}
	role, err := a.store.Role(ctx)
	if err != nil {
		return guard.Session{}, err
	}
	return guard.Session{LoggedIn: true, Role: role}, nil
}

// expireSession drops local credentials once the server rejected a
// signed-in caller for good, so the next command lands on the login route.
func (a *App) expireSession(ctx context.Context, err error) bool {
	if !errors.Is(err, api.ErrUnauthorized) {
		return false
	}
	if s, serr := a.session(ctx); serr != nil || !s.LoggedIn {
		return false
	}
	if cerr := a.store.Clear(ctx); cerr != nil {
		a.log.Error(ctx, "clearing session", "error", cerr)
		return false
	}
	return true
}

func (a *App) printf(format string, args ...any) {
	fmt.Fprintf(a.out, format, args...)
}

func (a *App) println(args ...any) {
	fmt.Fprintln(a.out, args...)
}
