package cli

import (
	"errors"
	"fmt"
	"io"
	"slices"
	"strconv"
	"sync"

	"github.com/spf13/cobra"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/guard"
	"github.com/dmitrijs2005/lexbridge/internal/client/status"
)

var casePriorities = []string{"low", "medium", "high", "urgent"}

func dashboardCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:         "dashboard",
		Short:       "Show case statistics, recent cases and unfinished questionnaires",
		Args:        cobra.NoArgs,
		Annotations: route(guard.RouteDashboard),
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			ctx := cmd.Context()

			var (
				wg       sync.WaitGroup
				stats    *api.CaseStats
				cases    []api.Case
				sessions []api.SessionStatus
				errs     [3]error
			)
			wg.Add(3)
			go func() {
				defer wg.Done()
				stats, errs[0] = a.api.CaseStats(ctx)
			}()
			go func() {
				defer wg.Done()
				cases, errs[1] = a.api.MyCases(ctx)
			}()
			go func() {
				defer wg.Done()
				sessions, errs[2] = a.api.IncompleteSessions(ctx)
			}()
			wg.Wait()

			for _, err := range errs {
				if err != nil {
					return err
				}
			}

			renderFields(a.out, "Cases",
				"Total", strconv.FormatInt(stats.Total, 10),
				"Pending", strconv.FormatInt(stats.Pending, 10),
				"Active", strconv.FormatInt(stats.Active, 10),
				"Completed", strconv.FormatInt(stats.Completed, 10),
				"Cancelled", strconv.FormatInt(stats.Cancelled, 10),
			)
			a.println()
			if len(cases) > 5 {
				cases = cases[:5]
			}
			a.println(titleStyle.Render("Recent cases"))
			caseTable(a.out, cases)

			if len(sessions) > 0 {
				a.println()
				a.println(titleStyle.Render("Unfinished questionnaires"))
				sessionTable(a.out, sessions)
				a.println(mutedStyle.Render("Continue one with \"lexbridge questionnaire resume <id>\"."))
			}
			return nil
		},
	}
}

func casesCmd(r *runner) *cobra.Command {
	cmd := &cobra.Command{
		Use:         "cases",
		Short:       "Manage your cases",
		Annotations: route(guard.RouteCases),
	}
	cmd.AddCommand(
		casesListCmd(r),
		casesNewCmd(r),
		casesShowCmd(r),
		casesCancelCmd(r),
		casesRateCmd(r),
		casesPoolCmd(r),
		casesUpdateCmd(r),
		casesDocsCmd(r),
		casesAttachCmd(r),
		casesDetachCmd(r),
	)
	return cmd
}

func casesListCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:     "list",
		Aliases: []string{"ls"},
		Short:   "List your cases",
		Args:    cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cs, err := r.app.api.MyCases(cmd.Context())
			if err != nil {
				return err
			}
			caseTable(r.app.out, cs)
			return nil
		},
	}
}

func casesNewCmd(r *runner) *cobra.Command {
	var in api.NewCase

	cmd := &cobra.Command{
		Use:   "new",
		Short: "Open a new case",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			a := r.app
			if err := promptIfEmpty(a, &in.Title, "Title"); err != nil {
				return err
			}
			if in.Description == "" {
				d, err := GetMultiline(a.in, "Description", a.out)
				if err != nil {
					return err
				}
				in.Description = d
			}
			if !slices.Contains(casePriorities, in.Priority) {
				return fmt.Errorf("priority must be one of %v", casePriorities)
			}

			c, err := a.api.CreateCase(cmd.Context(), in)
			if err != nil {
				return err
			}
			a.printf("Case %s created with status %s.\n", c.ID, status.Render(c.Status))
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&in.Title, "title", "", "case title")
	f.StringVar(&in.Description, "description", "", "case description")
	f.StringVar(&in.Category, "category", "general", "case category")
	f.StringVar(&in.Priority, "priority", "medium", "low, medium, high or urgent")
	f.Float64Var(&in.Budget, "budget", 0, "budget in CNY")
	return cmd
}

func casesShowCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "show <case-id>",
		Short: "Show one case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.app.api.Case(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			caseDetail(r.app.out, c)
			return nil
		},
	}
}

func casesCancelCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "cancel <case-id>",
		Short: "Cancel a case that is not finished yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			c, err := r.app.api.CancelCase(cmd.Context(), args[0])
			if err != nil {
				return err
			}
			r.app.printf("Case %s is now %s.\n", shortID(c.ID), status.Render(c.Status))
			return nil
		},
	}
}

func casesRateCmd(r *runner) *cobra.Command {
	var (
		rating int
		review string
	)

	cmd := &cobra.Command{
		Use:   "rate <case-id>",
		Short: "Rate the professional who completed a case",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if rating < 1 || rating > 5 {
				return fmt.Errorf("rating must be between 1 and 5")
			}
			c, err := r.app.api.RateCase(cmd.Context(), args[0], rating, review)
			if err != nil {
				return err
			}
			r.app.printf("Rated case %s %s.\n", shortID(c.ID), fmtRating(c.Rating))
			return nil
		},
	}

	cmd.Flags().IntVar(&rating, "rating", 0, "rating from 1 to 5")
	cmd.Flags().StringVar(&review, "review", "", "optional review text")
	return cmd
}

func casesUpdateCmd(r *runner) *cobra.Command {
	var (
		title, description, category, priority string
		budget                                 float64
	)

	cmd := &cobra.Command{
		Use:   "update <case-id>",
		Short: "Edit a case that no professional has taken yet",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			var in api.CaseUpdate
			f := cmd.Flags()
			if f.Changed("title") {
				in.Title = &title
			}
			if f.Changed("description") {
				in.Description = &description
			}
			if f.Changed("category") {
				in.Category = &category
			}
			if f.Changed("priority") {
				if !slices.Contains(casePriorities, priority) {
					return fmt.Errorf("priority must be one of %v", casePriorities)
				}
				in.Priority = &priority
			}
			if f.Changed("budget") {
				in.Budget = &budget
			}
			if in == (api.CaseUpdate{}) {
				return errors.New("nothing to update")
			}

			c, err := r.app.api.UpdateCase(cmd.Context(), args[0], in)
			if err != nil {
				return err
			}
			caseDetail(r.app.out, c)
			return nil
		},
	}

	f := cmd.Flags()
	f.StringVar(&title, "title", "", "case title")
	f.StringVar(&description, "description", "", "case description")
	f.StringVar(&category, "category", "", "case category")
	f.StringVar(&priority, "priority", "", "low, medium, high or urgent")
	f.Float64Var(&budget, "budget", 0, "budget in CNY")
	return cmd
}

func casesPoolCmd(r *runner) *cobra.Command {
	return &cobra.Command{
		Use:   "pool",
		Short: "List pending cases waiting for a professional",
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

func caseTable(w io.Writer, cs []api.Case) {
	rows := make([][]string, 0, len(cs))
	for _, c := range cs {
		rows = append(rows, []string{
			shortID(c.ID),
			c.Title,
			c.Category,
			c.Priority,
			status.Render(c.Status),
			fmtMoney(c.Budget),
			fmtTime(&c.CreatedAt),
		})
	}
	renderTable(w, []string{"ID", "Title", "Category", "Priority", "Status", "Budget", "Created"}, rows)
}

func caseDetail(w io.Writer, c *api.Case) {
	renderFields(w, c.Title,
		"ID", c.ID,
		"Status", status.Render(c.Status),
		"Category", c.Category,
		"Priority", c.Priority,
		"Budget", fmtMoney(c.Budget),
		"Professional", deref(c.ProfessionalID),
		"Created", fmtTime(&c.CreatedAt),
		"Accepted", fmtTime(c.AcceptedAt),
		"Completed", fmtTime(c.CompletedAt),
		"Rating", fmtRating(c.Rating),
		"Review", c.Review,
	)
	if c.Description != "" {
		fmt.Fprintln(w)
		fmt.Fprintln(w, c.Description)
	}
}

func sessionTable(w io.Writer, ss []api.SessionStatus) {
	rows := make([][]string, 0, len(ss))
	for _, s := range ss {
		rows = append(rows, []string{
			s.SessionID,
			strconv.Itoa(s.QuestionnaireType),
			fmt.Sprintf("%s (%d/%d)", s.PartInfo.Name, s.PartInfo.Current, s.PartInfo.Total),
			strconv.Itoa(s.Progress.Percentage) + "%",
			fmtTime(&s.LastActivityAt),
		})
	}
	renderTable(w, []string{"Session", "Type", "Part", "Progress", "Last activity"}, rows)
}
