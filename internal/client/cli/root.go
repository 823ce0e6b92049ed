package cli

import (
	"context"
	"fmt"
	"io"
	"os"
	"time"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/config"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
)

const routeAnnotation = "route"

// RedirectError is returned when the route guard refuses a command.
type RedirectError struct {
	Route    string
	Redirect string
	Reason   string
}

func (e *RedirectError) Error() string {
	msg := fmt.Sprintf("%s is not available: %s", e.Route, e.Reason)
	if hint, ok := routeCommands[e.Redirect]; ok {
		msg += fmt.Sprintf("; continue with %q", hint)
	}
	return msg
}

// routeCommands names the command that opens each landing route.
var routeCommands = map[string]string{
	guard.RouteLogin:        "lexbridge login",
	guard.RouteDashboard:    "lexbridge dashboard",
	guard.RouteProfessional: "lexbridge professional dashboard",
	guard.RouteAdmin:        "lexbridge admin stats",
}

// runner carries one command-tree execution. The shell reuses the App of
// its parent runner, so only the runner that opened the App closes it.
type runner struct {
	cfg *config.Config
	in  io.Reader
	out io.Writer

	app   *App
	owned bool
}

func Execute() {
	r := &runner{cfg: config.LoadConfig(), in: os.Stdin, out: os.Stdout}
	if err := r.execute(context.Background(), nil); err != nil {
		os.Exit(1)
	}
}

// execute runs the command tree with args (os.Args when nil).
func (r *runner) execute(ctx context.Context, args []string) error {
	cmd := newRootCmd(r)
	if args != nil {
		cmd.SetArgs(args)
	}
	err := cmd.ExecuteContext(ctx)
	if err != nil && r.app != nil && r.app.expireSession(ctx, err) {
		fmt.Fprintln(cmd.ErrOrStderr(), "Session expired, sign in again with \"lexbridge login\".")
	}
	r.close()
	return err
}

func (r *runner) open(ctx context.Context) error {
	if r.app != nil {
		return nil
	}
	app, err := NewApp(ctx, r.cfg, r.in, r.out)
	if err != nil {
		return err
	}
	r.app, r.owned = app, true
	return nil
}

func (r *runner) close() {
	if !r.owned || r.app == nil {
		return
	}
	_ = r.app.Close()
	r.app, r.owned = nil, false
}

// authorize checks the route declared by cmd or its nearest ancestor.
func (r *runner) authorize(cmd *cobra.Command) error {
	route := routeOf(cmd)
	if route == "" {
		return nil
	}
	s, err := r.app.session(cmd.Context())
	if err != nil {
		return err
	}
	d := guard.Check(route, s)
	if d.Allowed {
		return nil
	}
	return &RedirectError{Route: route, Redirect: d.Redirect, Reason: d.Reason}
}

func routeOf(cmd *cobra.Command) string {
	for c := cmd; c != nil; c = c.Parent() {
		if route, ok := c.Annotations[routeAnnotation]; ok {
			return route
		}
	}
	return ""
}

func route(r string) map[string]string {
	return map[string]string{routeAnnotation: r}
}

func newRootCmd(r *runner) *cobra.Command {
	var (
		timeout    int
		configPath string
	)

	cmd := &cobra.Command{
		Use:           "lexbridge",
		Short:         "LexBridge legal services marketplace client",
		SilenceUsage: true,
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			if cmd.Flags().Changed("timeout") {
				r.cfg.RequestTimeout = time.Duration(timeout) * time.Second
			}
			if err := r.open(cmd.Context()); err != nil {
				return err
			}
			return r.authorize(cmd)
		},
	}

	// Already applied by config.LoadConfig; declared so cobra accepts them.
	pf := cmd.PersistentFlags()
	pf.StringVarP(&r.cfg.ServerURL, "server", "a", r.cfg.ServerURL, "base URL of the LexBridge API")
	pf.StringVarP(&r.cfg.DatabaseFile, "db", "f", r.cfg.DatabaseFile, "local database file")
	pf.IntVarP(&timeout, "timeout", "t", int(r.cfg.RequestTimeout.Seconds()), "request timeout (in seconds)")
	pf.StringVarP(&configPath, "config", "c", "", "JSON configuration file")

	cmd.AddCommand(
		healthCmd(r),
		registerCmd(r),
		loginCmd(r),
		logoutCmd(r),
		whoamiCmd(r),
		passwordCmd(r),
		documentsCmd(r),
		dashboardCmd(r),
		casesCmd(r),
		professionalCmd(r),
		adminCmd(r),
		questionnaireCmd(r),
		shellCmd(r),
	)

	return cmd
}
