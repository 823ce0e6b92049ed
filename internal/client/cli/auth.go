package cli

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/common"
)

var errPasswordMismatch = errors.New("passwords do not match")

func healthCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "health",
		Short:       "Check that the server is reachable",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteHealth),
		RunE: func(cmd *cobra.Command, _ []string) error {
			if err := r.app.api.Health(cmd.Context()); err != nil {
				return err
			}
			r.app.println("Server is up.")
			return nil
		},
	}
}

func registerCmd(r *runner) *cobra.Command {
	var in api.RegisterInput

	cmd := &cobra.Command{
		Use:         "register",
		Short:       "Create an account",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteRegister),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			ctx := cmd.Context()

			if in.Role != common.RoleUser && in.Role != common.RoleProfessional {
				return fmt.Errorf("role must be %q or %q", common.RoleUser, common.RoleProfessional)
			}
			if err := promptIfEmpty(a, &in.UserName, "User name"); err != nil {
				return err
			}
			if err := promptIfEmpty(a, &in.Phone, "Phone"); err != nil {
				return err
			}

			pw, err := confirmedPassword(a)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)
			in.Password = string(pw)

			res, err := a.api.Register(ctx, in)
			if err != nil {
				return err
			}
			return signedIn(cmd, a, res)
		},
	}

	cmd.Flags().StringVarP(&in.UserName, "user", "u", "", "user name")
	cmd.Flags().StringVar(&in.Phone, "phone", "", "phone number")
	cmd.Flags().StringVar(&in.Role, "role", common.RoleUser, "account role: user or professional")
	return cmd
}

func loginCmd(r *runner) *cobra.Command {
	var userName string

	cmd := &cobra.Command{
		Use:         "login",
		Short:       "Sign in",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteLogin),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			if err := promptIfEmpty(a, &userName, "User name"); err != nil {
				return err
			}
			pw, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)

			res, err := a.api.Login(cmd.Context(), userName, string(pw))
			if err != nil {
				if errors.Is(err, api.ErrUnauthorized) {
					return errors.New("invalid user name or password")
				}
				return err
			}
			return signedIn(cmd, a, res)
		},
	}

	cmd.Flags().StringVarP(&userName, "user", "u", "", "user name")
	return cmd
}

func signedIn(cmd *cobra.Command, a *App, res *api.AuthResponse) error {
	if err := a.store.SaveLogin(cmd.Context(), res.Token.AccessToken, res.Token.RefreshToken, res.User.Role, res.User); err != nil {
		return err
	}
	a.printf("Signed in as %s (%s).\n", res.User.UserName, res.User.Role)
	if hint, ok := routeCommands[guard.Home(res.User.Role)]; ok {
		a.printf("Continue with %q.\n", hint)
	}
	return nil
}

func logoutCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "logout",
		Short:       "Sign out and forget the local session",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteProfile),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			ctx := cmd.Context()

			_, refresh, err := a.store.Tokens(ctx)
			if err != nil {
				return err
			}
			if refresh != "" {
				if err := a.api.Logout(ctx, refresh); err != nil {
					a.log.Warn(ctx, "server logout failed", "error", err)
				}
			}
			if err := a.store.Clear(ctx); err != nil {
				return err
			}
			a.println("Signed out.")
			return nil
		},
	}
}

func whoamiCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "whoami",
		Short:       "Show the signed-in account",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteProfile),
		RunE: func(cmd *cobra.Command, _ []string) error {
			u, err := r.app.api.Me(cmd.Context())
			if err != nil {
				return err
			}
			renderFields(r.app.out, "Account",
				"ID", u.ID,
				"User name", u.UserName,
				"Phone", u.Phone,
				"Role", u.Role,
				"Active", fmtBool(u.IsActive),
				"Last login", fmtTime(u.LastLoginAt),
				"Member since", fmtTime(&u.CreatedAt),
			)
			return nil
		},
	}
}

func passwordCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "password",
		Short:       "Change your password",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteProfile),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			a.printf("Current. ")
			current, err := GetPassword(a.out)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(current)

			a.printf("New. ")
			next, err := confirmedPassword(a)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(next)

			if err := a.api.ChangePassword(cmd.Context(), string(current), string(next)); err != nil {
				return err
			}
			a.println("Password changed.")
			return nil
		},
	}
}

// confirmedPassword reads a password twice and returns it when both match.
// The caller wipes the result.
func confirmedPassword(a *App) ([]byte, error) {
	pw, err := GetPassword(a.out)
	if err != nil {
		return nil, err
	}
	a.printf("Confirm. ")
	confirm, err := GetPassword(a.out)
	if err != nil {
		common.WipeByteArray(pw)
		return nil, err
	}
	defer common.WipeByteArray(confirm)
	if !bytes.Equal(pw, confirm) {
		common.WipeByteArray(pw)
		return nil, errPasswordMismatch
	}
	return pw, nil
}

func promptIfEmpty(a *App, v *string, prompt string) error {
	if *v != "" {
		return nil
	}
	s, err := GetSimpleText(a.in, prompt, a.out)
	if err != nil {
		return err
	}
	if s == "" {
		return fmt.Errorf("%s is required", prompt)
	}
	*v = s
	return nil
}
