package cli

import (
	"context"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/client/status"
	"github.com/dmitrijs2005/lexbridge/internal/common"
)

func adminCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "admin",
		Short:       "Platform administration",
		Annotations: route(guard.RouteAdmin),
	}
	cmd.AddCommand(
		adminStatsCmd(r),
		adminUsersCmd(r),
		adminToggleCmd(r, "activate", "Activate a user account", func(ctx context.Context, id string) error {
			return r.app.api.SetUserActive(ctx, id, true)
		}),
		adminToggleCmd(r, "deactivate", "Deactivate a user account", func(ctx context.Context, id string) error {
			return r.app.api.SetUserActive(ctx, id, false)
		}),
		adminResetPasswordCmd(r),
		adminSessionsCmd(r),
		adminRevokeSessionCmd(r),
		adminRevokeSessionsCmd(r),
		adminCleanupSessionsCmd(r),
		adminProfessionalsCmd(r),
		adminToggleCmd(r, "verify-pro", "Mark a professional as verified", func(ctx context.Context, id string) error {
			return r.app.api.SetProfessionalVerified(ctx, id, true)
		}),
		adminToggleCmd(r, "unverify-pro", "Revoke a professional's verification", func(ctx context.Context, id string) error {
			return r.app.api.SetProfessionalVerified(ctx, id, false)
		}),
		adminLogsCmd(r),
		adminCasesCmd(r),
		adminVerificationsCmd(r),
		adminVerificationCmd(r),
		adminReviewCmd(r, "approve", "Approve a verification request", func(ctx context.Context, id, notes string) (*api.Verification, error) {
			return r.app.api.ApproveVerification(ctx, id, notes)
		}),
		adminReviewCmd(r, "reject", "Reject a verification request", func(ctx context.Context, id, notes string) (*api.Verification, error) {
			return r.app.api.RejectVerification(ctx, id, notes)
		}),
	)
	return cmd
}

func adminStatsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "stats",
		Short: "Show platform statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			st, err := r.app.api.AdminStats(cmd.Context())
			if err != nil {
				return err
			}
			a := r.app
			renderFields(a.out, "Users",
				"Total", strconv.FormatInt(st.Users.Total, 10),
				"Active", strconv.FormatInt(st.Users.Active, 10),
				"Professionals", strconv.FormatInt(st.Users.Professionals, 10),
				"Admins", strconv.FormatInt(st.Users.Admins, 10),
			)
			a.println()
			renderFields(a.out, "Cases",
				"Total", strconv.FormatInt(st.Cases.Total, 10),
				"Pending", strconv.FormatInt(st.Cases.Pending, 10),
				"Active", strconv.FormatInt(st.Cases.Active, 10),
				"Completed", strconv.FormatInt(st.Cases.Completed, 10),
				"Cancelled", strconv.FormatInt(st.Cases.Cancelled, 10),
			)
			a.println()
			renderFields(a.out, "Verifications",
				"Pending", strconv.Itoa(st.PendingVerifications),
			)
			return nil
		},
	}
}

func listFlags(cmd *cobra.Command, opts *api.ListOptions, filter, usage string) {
	f := cmd.Flags()
	f.StringVar(&opts.Filter, filter, "", usage)
	f.IntVar(&opts.Limit, "limit", 0, "maximum rows to return")
	f.IntVar(&opts.Offset, "offset", 0, "rows to skip")
}

func adminUsersCmd(r *runner) *cobra.Command {
	var opts api.ListOptions

	cmd := &cobra.Command{
		Use:   "users",
		Short: "List user accounts",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			us, err := r.app.api.Users(cmd.Context(), opts)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(us))
			for _, u := range us {
				rows = append(rows, []string{u.ID, u.UserName, u.Role, fmtBool(u.IsActive), fmtTime(u.LastLoginAt)})
			}
			renderTable(r.app.out, []string{"ID", "User name", "Role", "Active", "Last login"}, rows)
			return nil
		},
	}
	listFlags(cmd, &opts, "role", "only users with this role")
	return cmd
}

func adminToggleCmd(r *runner, use, short string, action func(context.Context, string) error) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <user-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := action(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.app.printf("Done: %s %s.\n", use, args[0])
			return nil
		},
	}
}

func adminResetPasswordCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "reset-password <user-id>",
		Short: "Set a new password for a user and sign them out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			a := r.app
			a.printf("New. ")
			pw, err := confirmedPassword(a)
			if err != nil {
				return err
			}
			defer common.WipeByteArray(pw)
			if err := a.api.ResetPassword(cmd.Context(), args[0], string(pw)); err != nil {
				return err
			}
			a.printf("Password reset for %s; all sessions revoked.\n", args[0])
			return nil
		},
	}
}

func adminSessionsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions <user-id>",
		Short: "List a user's signed-in sessions",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ss, err := r.app.api.UserSessions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(ss))
			for _, s := range ss {
				rows = append(rows, []string{s.ID, fmtTime(&s.CreatedAt), fmtTime(&s.ExpiresAt)})
			}
			renderTable(r.app.out, []string{"Session", "Signed in", "Expires"}, rows)
			return nil
		},
	}
}

func adminRevokeSessionCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-session <session-id>",
		Short: "Sign out one session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.api.RevokeSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.app.printf("Session %s revoked.\n", args[0])
			return nil
		},
	}
}

func adminRevokeSessionsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "revoke-sessions <user-id>",
		Short: "Sign a user out everywhere",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			n, err := r.app.api.RevokeAllSessions(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.app.printf("Revoked %d sessions for %s.\n", n, args[0])
			return nil
		},
	}
}

func adminCleanupSessionsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cleanup-sessions",
		Short: "Remove expired sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			n, err := r.app.api.CleanupSessions(cmd.Context())
			if err != nil {
				return err
			}
			r.app.printf("Removed %d expired sessions.\n", n)
			return nil
		},
	}
}

func adminProfessionalsCmd(r *runner) *cobra.Command {
	var verifiedOnly bool

	cmd := &cobra.Command{
		Use:   "professionals",
		Short: "List professional profiles",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ps, err := r.app.api.Professionals(cmd.Context(), verifiedOnly)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(ps))
			for _, p := range ps {
				rows = append(rows, []string{
					p.UserID,
					p.FullName,
					p.LicenseNumber,
					strings.Join(p.SpecialtyAreas, ", "),
					fmtBool(p.IsVerified),
					strconv.FormatFloat(p.AverageRating, 'f', 1, 64),
				})
			}
			renderTable(r.app.out, []string{"User", "Name", "License", "Specialties", "Verified", "Rating"}, rows)
			return nil
		},
	}
	cmd.Flags().BoolVar(&verifiedOnly, "verified-only", false, "only verified professionals")
	return cmd
}

func adminLogsCmd(r *runner) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show the administrator audit log",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			logs, err := r.app.api.AdminLogs(cmd.Context(), limit)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(logs))
			for _, l := range logs {
				rows = append(rows, []string{
					fmtTime(&l.PerformedAt),
					shortID(l.AdminID),
					l.Action,
					l.TargetTable,
					l.TargetID,
					string(l.Details),
				})
			}
			renderTable(r.app.out, []string{"When", "Admin", "Action", "Table", "Target", "Details"}, rows)
			return nil
		},
	}
	cmd.Flags().IntVar(&limit, "limit", 50, "maximum entries to show")
	return cmd
}

func adminCasesCmd(r *runner) *cobra.Command {
	var opts api.ListOptions

	cmd := &cobra.Command{
		Use:   "cases",
		Short: "List all cases on the platform",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := r.app.api.AllCases(cmd.Context(), opts)
			if err != nil {
				return err
			}
			caseTable(r.app.out, cs)
			return nil
		},
	}
	listFlags(cmd, &opts, "status", "only cases with this status")
	return cmd
}

func adminVerificationsCmd(r *runner) *cobra.Command {
	var state string

	cmd := &cobra.Command{
		Use:         "verifications",
		Short:       "List verification requests",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteAdminVerifications),
		RunE: func(cmd *cobra.Command, _ []string) error {
			vs, err := r.app.api.Verifications(cmd.Context(), state)
			if err != nil {
				return err
			}
			rows := make([][]string, 0, len(vs))
			for _, v := range vs {
				rows = append(rows, []string{
					v.ID,
					v.FullName,
					v.LicenseNumber,
					status.Render(v.Status),
					fmtTime(&v.CreatedAt),
				})
			}
			renderTable(r.app.out, []string{"Request", "Name", "License", "Status", "Submitted"}, rows)
			return nil
		},
	}
	cmd.Flags().StringVar(&state, "status", "pending", "pending, approved or rejected; empty for all")
	return cmd
}

func adminVerificationCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "verification <request-id>",
		Short:       "Show a verification request with its documents",
		Args:        cobra.ExactArgs(1),
		Annotations: route(guard.RouteAdminVerifications),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := r.app.api.Verification(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			verificationDetail(r.app.out, v)
			return nil
		},
	}
}

func adminReviewCmd(r *runner, use, short string, action func(context.Context, string, string) (*api.Verification, error)) *cobra.Command {
	var notes string

	cmd := &cobra.Command{
		Use:         use + " <request-id>",
		Short:       short,
		Args:        cobra.ExactArgs(1),
		Annotations: route(guard.RouteAdminVerifications),
		RunE: func(cmd *cobra.Command, args []string) error {
			v, err := action(cmd.Context(), args[0], notes)
			if err != nil {
				return err
			}
			r.app.printf("Request %s is now %s.\n", shortID(v.ID), status.Render(v.Status))
			return nil
		},
	}
	cmd.Flags().StringVar(&notes, "notes", "", "notes shown to the professional")
	return cmd
}
