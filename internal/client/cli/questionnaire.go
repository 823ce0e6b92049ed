package cli

import (
	"fmt"
	"io"
	"slices"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/client/status"
	"github.com/dmitrijs2005/lexbridge/internal/client/store"
	"github.com/dmitrijs2005/lexbridge/internal/client/wizard"
)

func questionnaireCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "questionnaire",
		Aliases:     []string{"q"},
		Short:       "Guided legal questionnaires",
		Annotations: route(guard.RouteQuestionnaire),
	}
	cmd.AddCommand(
		qStartCmd(r),
		qResumeCmd(r),
		qSessionsCmd(r),
		qStatusCmd(r),
		qEvidenceCmd(r),
		qDeleteCmd(r),
		qCompleteCmd(r),
		qFinalizeCmd(r),
		qGenerateCmd(r),
		qCreateCaseCmd(r),
	)
	return cmd
}

func qStartCmd(r *runner) *cobra.Command {
	var (
		templateType int
		detach       bool
	)

	cmd := &cobra.Command{
		Use:   "start",
		Short: "Start a new questionnaire session",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			ctx := cmd.Context()

			step, err := a.api.StartQuestionnaire(ctx, templateType)
			if err != nil {
				return err
			}
			// The wizard picks this up instead of calling resume.
			if err := a.store.Put(ctx, store.KeyQuestionnaireSession, wizard.CachedSession{
				SessionID: step.SessionID,
				Status:    step.Status,
				Question:  step.Question,
				PartInfo:  step.PartInfo,
				Progress:  step.Progress,
			}); err != nil {
				return err
			}
			a.printf("Session %s started.\n", step.SessionID)
			if detach {
				return nil
			}
			return a.runQuestionnaire(ctx, step.SessionID)
		},
	}

	cmd.Flags().IntVar(&templateType, "type", 1, "questionnaire type")
	cmd.Flags().BoolVar(&detach, "detach", false, "only create the session")
	return cmd
}

func qResumeCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "resume <session-id>",
		Short: "Continue a questionnaire session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			return r.app.runQuestionnaire(cmd.Context(), args[0])
		},
	}
}

func qSessionsCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "sessions",
		Short: "List unfinished sessions",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			ss, err := r.app.api.IncompleteSessions(cmd.Context())
			if err != nil {
				return err
			}
			sessionTable(r.app.out, ss)
			return nil
		},
	}
}

func qEvidenceCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "evidence <session-id> <file-id>",
		Short: "Show a file uploaded during a session",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			ev, err := r.app.api.UploadedEvidence(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			renderFields(r.app.out, "Evidence "+ev.EvidenceNumber,
				"File", ev.FileName,
				"Question", ev.QuestionID,
				"Type", ev.ContentType,
				"Bytes", strconv.FormatInt(ev.Size, 10),
				"Kind", ev.Kind,
				"Uploaded", fmtTime(&ev.UploadedAt),
				"Download", ev.DownloadURL,
			)
			return nil
		},
	}
}

func qStatusCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "status <session-id>",
		Short: "Show where a session stands",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			s, err := r.app.api.SessionStatus(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			renderFields(r.app.out, "Session "+s.SessionID,
				"Type", strconv.Itoa(s.QuestionnaireType),
				"Status", s.Status,
				"Finalized", fmtBool(s.IsFinalized),
				"Part", fmt.Sprintf("%s (%d/%d)", s.PartInfo.Name, s.PartInfo.Current, s.PartInfo.Total),
				"Progress", fmt.Sprintf("%d/%d (%d%%)", s.Progress.Current, s.Progress.Total, s.Progress.Percentage),
				"Answered", strconv.Itoa(s.AnsweredCount),
				"Summaries", strings.Join(s.Summaries, ", "),
				"Started", fmtTime(&s.StartedAt),
				"Last activity", fmtTime(&s.LastActivityAt),
				"Expires", fmtTime(&s.ExpiresAt),
			)
			return nil
		},
	}
}

func qDeleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "delete <session-id>",
		Short: "Delete an unfinished session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := r.app.api.DeleteSession(cmd.Context(), args[0]); err != nil {
				return err
			}
			r.app.println("Session deleted.")
			return nil
		},
	}
}

func qCompleteCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "complete <session-id>",
		Short: "Review a completed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			d, err := r.app.api.CompletionData(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			completionView(r.app.out, d)
			return nil
		},
	}
}

func completionView(w io.Writer, d *api.CompletionData) {
	renderFields(w, "Session "+d.SessionID,
		"Status", d.Status,
		"Finalized", fmtBool(d.IsFinalized),
		"Started", fmtTime(&d.StartedAt),
		"Completed", fmtTime(d.CompletedAt),
		"Case", d.CaseID,
	)

	parts := make([]string, 0, len(d.Summaries))
	for k := range d.Summaries {
		parts = append(parts, k)
	}
	slices.Sort(parts)
	for _, k := range parts {
		s := d.Summaries[k]
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render(s.PartName))
		fmt.Fprintln(w, s.Content)
	}

	if len(d.EvidenceList) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Evidence"))
		rows := make([][]string, 0, len(d.EvidenceList))
		for _, e := range d.EvidenceList {
			rows = append(rows, []string{e.EvidenceNumber, e.FileName, e.Kind, strconv.FormatInt(e.Size, 10), fmtTime(&e.UploadedAt)})
		}
		renderTable(w, []string{"No.", "File", "Kind", "Bytes", "Uploaded"}, rows)
	}

	if len(d.RecommendedTemplates) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Recommended documents"))
		rows := make([][]string, 0, len(d.RecommendedTemplates))
		for _, t := range d.RecommendedTemplates {
			rows = append(rows, []string{t.Code, t.Name, t.Description})
		}
		renderTable(w, []string{"Code", "Name", "Description"}, rows)
	}

	if len(d.GeneratedDocuments) > 0 {
		fmt.Fprintln(w)
		fmt.Fprintln(w, titleStyle.Render("Generated documents"))
		rows := make([][]string, 0, len(d.GeneratedDocuments))
		for _, g := range d.GeneratedDocuments {
			rows = append(rows, []string{g.TemplateCode, g.FileName, strconv.Itoa(g.FilledFields)})
		}
		renderTable(w, []string{"Template", "File", "Filled fields"}, rows)
	}

	if d.ShouldCreateCase && d.CaseID == "" {
		fmt.Fprintln(w)
		fmt.Fprintf(w, "Open a case for it with \"lexbridge questionnaire create-case %s\".\n", d.SessionID)
	}
}

func qFinalizeCmd(r *runner) *cobra.Command {
	var in api.FinalizeInput

	cmd := &cobra.Command{
		Use:   "finalize <session-id>",
		Short: "Save the answers, optionally open a case and generate documents",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			in.SessionID = args[0]
			res, err := r.app.api.Finalize(cmd.Context(), in)
			if err != nil {
				return err
			}
			a := r.app
			renderFields(a.out, "Finalized",
				"Submission", res.SubmissionID,
				"Answers saved", strconv.Itoa(res.AnswersCount),
			)
			if res.Case != nil {
				a.printf("Case %s created with status %s.\n", res.Case.CaseID, status.Render(res.Case.Status))
			}
			for _, d := range res.GeneratedDocuments {
				documentResult(a.out, &d)
			}
			return nil
		},
	}

	f := cmd.Flags()
	f.BoolVar(&in.CreateCase, "create-case", false, "open a case from the answers")
	f.StringVar(&in.CaseTitle, "title", "", "case title")
	f.StringVar(&in.CasePriority, "priority", "medium", "case priority")
	f.StringArrayVar(&in.SelectedTemplates, "template", nil, "document template to generate, repeatable")
	return cmd
}

func qGenerateCmd(r *runner) *cobra.Command {
	var (
		template string
		preview  bool
	)

	cmd := &cobra.Command{
		Use:   "generate <session-id>",
		Short: "Generate a document from a session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if template == "" {
				return fmt.Errorf("--template is required")
			}
			res, err := r.app.api.GenerateDocument(cmd.Context(), args[0], template, preview)
			if err != nil {
				return err
			}
			documentResult(r.app.out, res)
			return nil
		},
	}

	cmd.Flags().StringVar(&template, "template", "", "document template code")
	cmd.Flags().BoolVar(&preview, "preview", false, "only preview the filled document")
	return cmd
}

func documentResult(w io.Writer, d *api.DocumentResult) {
	renderFields(w, "Document "+d.TemplateCode,
		"File", d.FileName,
		"Filled fields", strconv.Itoa(d.FilledFields),
		"Download", d.DownloadURL,
		"Message", d.Message,
	)
	if d.Preview != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, d.Preview)
	}
}

func qCreateCaseCmd(r *runner) *cobra.Command {
	var title, priority string

	cmd := &cobra.Command{
		Use:   "create-case <session-id>",
		Short: "Open a case from a completed session",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			ref, err := r.app.api.CaseFromSession(cmd.Context(), args[0], title, priority)
			if err != nil {
				return err
			}
			r.app.printf("Case %s (%s) created with status %s.\n", ref.CaseID, ref.Title, status.Render(ref.Status))
			return nil
		},
	}

	cmd.Flags().StringVar(&title, "title", "", "case title, derived from the answers when empty")
	cmd.Flags().StringVar(&priority, "priority", "medium", "case priority")
	return cmd
}
