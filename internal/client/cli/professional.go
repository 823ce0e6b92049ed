package cli

import (
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/client/status"
	"github.com/dmitrijs2005/lexbridge/internal/common"
	"github.com/dmitrijs2005/lexbridge/internal/filex"
)

// readLocalFile is a test seam for filex.ReadLimited.
var readLocalFile = filex.ReadLimited

func professionalCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "professional",
		Aliases:     []string{"pro"},
		Short:       "Professional workspace",
		Annotations: route(guard.RouteProfessional),
	}
	cmd.AddCommand(
		proDashboardCmd(r),
		proCasesCmd(r),
		proAvailableCmd(r),
		proCaseActionCmd(r, "accept", "Accept a pending case", r.apiAccept),
		proCaseActionCmd(r, "start", "Start work on an accepted case", r.apiStart),
		proCaseActionCmd(r, "complete", "Mark a case in progress as completed", r.apiComplete),
		proProfileCmd(r),
		proUpdateCmd(r),
		proPublicCmd(r),
		proVerifyCmd(r),
		proVerificationCmd(r),
	)
	return cmd
}

func (r *runner) apiAccept(ctx context.Context, id string) (*api.Case, error) {
	return r.app.api.AcceptCase(ctx, id)
}

func (r *runner) apiStart(ctx context.Context, id string) (*api.Case, error) {
	return r.app.api.StartCase(ctx, id)
}

func (r *runner) apiComplete(ctx context.Context, id string) (*api.Case, error) {
	return r.app.api.CompleteCase(ctx, id)
}

func proDashboardCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "dashboard",
		Short: "Show verification status and case statistics",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			ctx := cmd.Context()

			var (
				wg           sync.WaitGroup
				verification *api.VerificationStatus
				dash         *api.Dashboard
				verErr       error
				dashErr      error
			)
			wg.Add(2)
			go func() {
				defer wg.Done()
				verification, verErr = a.api.VerificationStatus(ctx)
			}()
			go func() {
				defer wg.Done()
				dash, dashErr = a.api.ProfessionalStats(ctx)
			}()
			wg.Wait()

			if verErr != nil {
				return verErr
			}
			verificationSummary(a.out, verification)
			if !verification.IsVerified {
				return nil
			}
			if dashErr != nil {
				return dashErr
			}

			a.println()
			renderFields(a.out, "Cases",
				"Accepted", strconv.FormatInt(dash.Accepted, 10),
				"In progress", strconv.FormatInt(dash.InProgress, 10),
				"Completed", strconv.FormatInt(dash.Completed, 10),
				"Average rating", strconv.FormatFloat(dash.AverageRating, 'f', 1, 64),
				"Earnings", fmtMoney(dash.Earnings),
			)
			return nil
		},
	}
}

func verificationSummary(w io.Writer, v *api.VerificationStatus) {
	state := "not requested"
	switch {
	case v.IsVerified:
		state = status.Render("approved")
	case v.RequestStatus != "":
		state = status.Render(v.RequestStatus)
	}
	renderFields(w, "Verification",
		"Status", state,
		"Request", v.RequestID,
		"Notes", v.AdminNotes,
	)
	if !v.IsVerified {
		fmt.Fprintln(w, mutedStyle.Render("Cases open up once an administrator approves your verification."))
		if v.RequestStatus == "" || v.RequestStatus == "rejected" {
			fmt.Fprintln(w, mutedStyle.Render("Submit one with \"lexbridge professional verify\"."))
		}
	}
}

func proCasesCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cases",
		Short: "List cases assigned to you",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			res, err := r.app.api.ProfessionalCases(cmd.Context())
			if err != nil {
				return err
			}
			if !res.IsVerified {
				r.app.println(mutedStyle.Render("Your account is not verified yet."))
			}
			caseTable(r.app.out, res.Cases)
			return nil
		},
	}
}

func proAvailableCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "available",
		Short: "List pending cases you can accept",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := r.app.api.CasePool(cmd.Context())
			if err != nil {
				return err
			}
			caseTable(r.app.out, cs)
			return nil
		},
	}
}

func proCaseActionCmd(r *runner, use, short string, action func(context.Context, string) (*api.Case, error)) *cobra.Command {
	return &cobra.Command{
		Use:   use + " <case-id>",
		Short: short,
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := action(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.app.printf("Case %s is now %s.\n", shortID(c.ID), status.Render(c.Status))
			return nil
		},
	}
}

func proProfileCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "profile",
		Short: "Show your professional profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			p, err := r.app.api.Profile(cmd.Context())
			if err != nil {
				return err
			}
			profileDetail(r.app.out, p)
			return nil
		},
	}
}

func proPublicCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "public <user-id>",
		Short: "Show another professional's public profile",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			p, err := r.app.api.PublicProfile(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			profileDetail(r.app.out, p)
			return nil
		},
	}
}

func proUpdateCmd(r *runner) *cobra.Command {
	var (
		in    api.ProfileUpdate
		areas string
	)

	cmd := &cobra.Command{
		Use:   "update",
		Short: "Update your professional profile",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ctx := cmd.Context()
			cur, err := r.app.api.Profile(ctx)
			if err != nil {
				return err
			}

			// Unchanged flags keep the current values.
			f := cmd.Flags()
			if !f.Changed("firm") {
				in.LawFirmName = cur.LawFirmName
			}
			if f.Changed("areas") {
				in.SpecialtyAreas = splitList(areas)
			} else {
				in.SpecialtyAreas = cur.SpecialtyAreas
			}
			if !f.Changed("years") {
				in.YearsOfExperience = cur.YearsOfExperience
			}
			if !f.Changed("bio") {
				in.Bio = cur.Bio
			}
			if !f.Changed("fee") {
				in.ConsultationFee = cur.ConsultationFee
			}

			p, err := r.app.api.UpdateProfile(ctx, in)
			if err != nil {
				return err
			}
			profileDetail(r.app.out, p)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.LawFirmName, "firm", "", "law firm name")
	f.StringVar(&areas, "areas", "", "comma separated specialty areas")
	f.IntVar(&in.YearsOfExperience, "years", 0, "years of experience")
	f.StringVar(&in.Bio, "bio", "", "short biography")
	f.Float64Var(&in.ConsultationFee, "fee", 0, "consultation fee in CNY")
	return cmd
}

func profileDetail(w io.Writer, p *api.Professional) {
	verified := status.Render("pending")
	if p.IsVerified {
		verified = status.Render("approved")
	}
	renderFields(w, p.FullName,
		"User", p.UserID,
		"Verification", verified,
		"License", p.LicenseNumber,
		"Law firm", p.LawFirmName,
		"Specialties", strings.Join(p.SpecialtyAreas, ", "),
		"Experience", strconv.Itoa(p.YearsOfExperience)+" years",
		"Fee", fmtMoney(p.ConsultationFee),
		"Rating", strconv.FormatFloat(p.AverageRating, 'f', 1, 64),
		"Cases handled", strconv.Itoa(p.TotalCasesHandled),
		"Verified at", fmtTime(p.VerifiedAt),
	)
	if p.Bio != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, p.Bio)
	}
}

func proVerifyCmd(r *runner) *cobra.Command {
	var (
		form  api.VerificationForm
		areas string
		files []string
	)

	cmd := &cobra.Command{
		Use:         "verify",
		Short:       "Submit a verification request with supporting documents",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteProfessionalVerify),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			if err := promptIfEmpty(a, &form.FullName, "Full name"); err != nil {
				return err
			}
			if err := promptIfEmpty(a, &form.LicenseNumber, "License number"); err != nil {
				return err
			}
			form.SpecialtyAreas = splitList(areas)
			if len(files) == 0 {
				return fmt.Errorf("at least one document is required (--file)")
			}

			form.Files = form.Files[:0]
			for _, path := range files {
				f, err := readLocalFile(path, common.MaxUploadSize)
				if err != nil {
					return fmt.Errorf("document %s: %w", path, err)
				}
				form.Files = append(form.Files, api.File{Name: f.Name, ContentType: f.ContentType, Data: f.Data})
			}

			v, err := a.api.SubmitVerification(cmd.Context(), form)
			if err != nil {
				return err
			}
			verificationDetail(a.out, v)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&form.FullName, "name", "", "full legal name")
	f.StringVar(&form.LicenseNumber, "license", "", "practising license number")
	f.StringVar(&form.LawFirmName, "firm", "", "law firm name")
	f.StringVar(&areas, "areas", "", "comma separated specialty areas")
	f.IntVar(&form.YearsOfExperience, "years", 0, "years of experience")
	f.StringVar(&form.Bio, "bio", "", "short biography")
	f.StringArrayVar(&files, "file", nil, "supporting document, repeatable")
	return cmd
}

func proVerificationCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "verification",
		Short:       "Show your latest verification request",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteProfessionalVerify),
		RunE: func(cmd *cobra.Command, _ []string) error {
			v, err := r.app.api.MyVerification(cmd.Context())
			if err != nil {
				return err
			}
			verificationDetail(r.app.out, v)
			return nil
		},
	}
}

func verificationDetail(w io.Writer, v *api.VerificationDetail) {
	renderFields(w, "Verification request "+shortID(v.ID),
		"Status", status.Render(v.Status),
		"Full name", v.FullName,
		"License", v.LicenseNumber,
		"Law firm", v.LawFirmName,
		"Specialties", strings.Join(v.SpecialtyAreas, ", "),
		"Experience", strconv.Itoa(v.YearsOfExperience)+" years",
		"Submitted", fmtTime(&v.CreatedAt),
		"Reviewed", fmtTime(v.ReviewedAt),
		"Notes", v.AdminNotes,
	)
	rows := make([][]string, 0, len(v.Documents))
	for _, d := range v.Documents {
		rows = append(rows, []string{d.FileName, d.DocumentType, d.MimeType, strconv.FormatInt(d.Size, 10), d.DownloadURL})
	}
	if len(rows) > 0 {
		fmt.Fprintln(w)
		renderTable(w, []string{"File", "Type", "MIME", "Bytes", "Download"}, rows)
	}
}

func splitList(s string) []string {
	var out []string
	for _, p := range strings.Split(s, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}
