package cli

import (
	"bufio"
	"context"
	"fmt"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
)

// printlnFn is a test seam for user-facing output. In tests, replace it with a stub.
var printlnFn = fmt.Println

// execIface defines the minimal command surface the REPL needs to operate.
// The shell type satisfies this interface; tests can provide a lightweight stub.
type execIface interface {
	status(ctx context.Context) string
	commands(ctx context.Context) []string
	dispatch(ctx context.Context, args []string) error
}

// runREPL starts a simple read-eval-print loop over the command tree.
//
// Each line is split into words and dispatched as if it had been given on
// the command line, so "cases show 42" runs the same command as
// "lexbridge cases show 42". The loop exits on EOF or when the user types
// "exit" or "quit".
//
// Errors returned by commands are ignored here; cobra already reported them.
func runREPL(ctx context.Context, a execIface, in *bufio.Reader) {
	for {
		printlnFn(fmt.Sprintf("lexbridge %s > ", a.status(ctx)))
		line, err := in.ReadString('\n')
		parts := strings.Fields(line)
		if len(parts) == 0 {
			if err != nil {
				return
			}
			continue
		}

		switch cmd := parts[0]; cmd {
		case "help":
			printlnFn("Available commands: " + strings.Join(a.commands(ctx), ", ") + ", exit")

		case "exit", "quit":
			printlnFn("Bye!")
			return

		case "shell":
			printlnFn("Already in the shell.")

		default:
			_ = a.dispatch(ctx, parts)
		}

		if err != nil {
			return
		}
	}
}

// shell runs each REPL line through a fresh command tree sharing one App.
type shell struct {
	r *runner
}

func (s shell) status(ctx context.Context) string {
	sess, err := s.r.app.session(ctx)
	if err != nil || !sess.LoggedIn {
		return "guest"
	}
	var u api.User
	if ok, err := s.r.app.store.User(ctx, &u); err != nil || !ok {
		return sess.Role
	}
	return u.UserName + "@" + sess.Role
}

// commands lists the top-level commands the current session may open.
func (s shell) commands(ctx context.Context) []string {
	sess, err := s.r.app.session(ctx)
	if err != nil {
		return nil
	}
	root := newRootCmd(&runner{cfg: s.r.cfg})

	var out []string
	for _, c := range root.Commands() {
		switch c.Name() {
		case "shell", "help", "completion":
			continue
		}
		if route := routeOf(c); route == "" || guard.Check(route, sess).Allowed {
			out = append(out, c.Name())
		}
	}
	return out
}

func (s shell) dispatch(ctx context.Context, args []string) error {
	sub := &runner{cfg: s.r.cfg, in: s.r.in, out: s.r.out, app: s.r.app}
	return sub.execute(ctx, args)
}

func shellCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "shell",
		Short: "Keep an interactive session open",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			printlnFn("LexBridge shell. Type help for commands.")
			runREPL(cmd.Context(), shell{r: r}, r.app.in)
			return nil
		},
	}
}
