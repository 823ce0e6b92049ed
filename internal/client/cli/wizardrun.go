package cli

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/wizard"
)

const (
	cmdBack = ":back"
	cmdQuit = ":quit"
)

var errQuit = errors.New("quit")

// questionnaireUI drives a wizard from the terminal until the session is
// completed or the user quits.
type questionnaireUI struct {
	a *App
	w *wizard.Wizard
}

func (a *App) runQuestionnaire(ctx context.Context, sessionID string) error {
	ui := &questionnaireUI{a: a, w: wizard.New(a.api, a.store, a.log)}
	if err := ui.w.Mount(ctx, sessionID); err != nil && ui.w.State() != wizard.StateError {
		return err
	}
	a.println(mutedStyle.Render(fmt.Sprintf("Type %s to return to the previous question or %s to leave; progress is kept on the server.", cmdBack, cmdQuit)))

	for {
		var err error
		switch ui.w.State() {
		case wizard.StateCompleted:
			a.println(titleStyle.Render("Questionnaire completed."))
			a.printf("Review it with \"lexbridge questionnaire complete %s\" (%s).\n", sessionID, ui.w.Redirect())
			return nil
		case wizard.StateError:
			err = ui.recover(ctx)
		case wizard.StateSummaryReview:
			err = ui.review(ctx)
		case wizard.StateTransition:
			err = ui.transition()
		case wizard.StateQuestion:
			err = ui.ask(ctx)
		default:
			return fmt.Errorf("unexpected wizard state %q", ui.w.State())
		}

		if errors.Is(err, errQuit) {
			if ui.w.State() == wizard.StateError {
				return ui.w.Err()
			}
			a.printf("Progress saved. Continue with \"lexbridge questionnaire resume %s\".\n", sessionID)
			return nil
		}
		if err != nil && ui.w.State() != wizard.StateError {
			a.println("Error:", err)
		}
	}
}

func (ui *questionnaireUI) header() {
	p, part := ui.w.Progress(), ui.w.PartInfo()
	ui.a.println()
	ui.a.println(mutedStyle.Render(fmt.Sprintf("Part %d/%d %s · question %d/%d · %d%%",
		part.Current, part.Total, part.Name, p.Current, p.Total, p.Percentage)))
}

func (ui *questionnaireUI) read(prompt string) (string, error) {
	s, err := GetSimpleText(ui.a.in, prompt, ui.a.out)
	if err != nil {
		return "", err
	}
	return s, nil
}

// control handles :back and :quit. It reports whether s was one of them.
func (ui *questionnaireUI) control(ctx context.Context, s string) (bool, error) {
	switch s {
	case cmdQuit:
		return true, errQuit
	case cmdBack:
		if err := ui.w.GoBack(ctx); err != nil {
			if errors.Is(err, wizard.ErrAtFirstQuestion) {
				ui.a.println("Already at the first question.")
				return true, nil
			}
			return true, err
		}
		return true, nil
	}
	return false, nil
}

func (ui *questionnaireUI) recover(ctx context.Context) error {
	ui.a.println("Request failed:", ui.w.Err())
	s, err := ui.read("Type r to retry, d to dismiss or :quit to leave")
	if err != nil {
		return errQuit
	}
	switch strings.ToLower(s) {
	case "r", "retry":
		return ui.w.Retry(ctx)
	case "d", "dismiss":
		ui.w.Dismiss()
		if ui.w.State() == wizard.StateError {
			return errQuit
		}
		return nil
	case cmdQuit:
		return errQuit
	}
	return nil
}

func (ui *questionnaireUI) review(ctx context.Context) error {
	sum := ui.w.Summary()
	ui.header()
	ui.a.println(titleStyle.Render("Summary of " + sum.PartName))
	ui.a.println(sum.Content)
	ui.a.println()

	s, err := ui.read("Type a to approve, r to request a new summary")
	if err != nil {
		return errQuit
	}
	if handled, err := ui.control(ctx, s); handled {
		return err
	}
	switch strings.ToLower(s) {
	case "a", "approve":
		return ui.w.ApproveSummary(ctx)
	case "r", "regenerate":
		fb, err := GetMultiline(ui.a.in, "What should change?", ui.a.out)
		if err != nil {
			return errQuit
		}
		return ui.w.RegenerateSummary(ctx, fb)
	}
	return nil
}

func (ui *questionnaireUI) transition() error {
	ui.a.println()
	ui.a.println(titleStyle.Render(ui.w.TransitionMessage()))
	if _, err := ui.read("Press Enter to continue"); err != nil {
		return errQuit
	}
	return ui.w.Continue()
}

func (ui *questionnaireUI) ask(ctx context.Context) error {
	q := ui.w.Question()
	ui.header()
	title := q.Title
	if q.Required {
		title += " *"
	}
	ui.a.println(titleStyle.Render(title))
	if q.Description != "" {
		ui.a.println(q.Description)
	}

	var err error
	switch q.Type {
	case api.TypeRadio, api.TypeSelect:
		err = ui.askChoice(ctx, q)
	case api.TypeCheckbox:
		err = ui.askCheckbox(ctx, q)
	case api.TypeText:
		err = ui.askText(ctx, false)
	case api.TypeTextarea:
		err = ui.askText(ctx, true)
	case api.TypeForm:
		err = ui.askForm(ctx, q)
	case api.TypeUpload:
		err = ui.askUpload(ctx, q)
	case api.TypeMessage:
		var s string
		if s, err = ui.read("Press Enter to continue"); err != nil {
			return errQuit
		}
		if handled, cerr := ui.control(ctx, s); handled {
			return cerr
		}
	}
	if err != nil {
		return err
	}
	// A control command may have moved the wizard elsewhere.
	if ui.w.State() != wizard.StateQuestion || ui.w.Question() != q {
		return nil
	}

	if !ui.w.CanSubmit() {
		ui.a.println("This question needs an answer.")
		return nil
	}
	return ui.w.Submit(ctx)
}

func (ui *questionnaireUI) options(opts []string, selected ...string) {
	for i, o := range opts {
		mark := " "
		for _, s := range selected {
			if s == o {
				mark = "x"
			}
		}
		ui.a.printf("  [%s] %d. %s\n", mark, i+1, o)
	}
}

// pick resolves an option by its number or its exact text.
func pick(opts []string, s string) (string, bool) {
	if n, err := strconv.Atoi(s); err == nil && n >= 1 && n <= len(opts) {
		return opts[n-1], true
	}
	for _, o := range opts {
		if strings.EqualFold(o, s) {
			return o, true
		}
	}
	return "", false
}

func (ui *questionnaireUI) askChoice(ctx context.Context, q *api.Question) error {
	cur := ui.w.Input().Choice
	ui.options(q.Options, cur)
	s, err := ui.read("Choose an option")
	if err != nil {
		return errQuit
	}
	if handled, err := ui.control(ctx, s); handled {
		return err
	}
	if s == "" {
		return nil
	}
	o, ok := pick(q.Options, s)
	if !ok {
		return fmt.Errorf("%q is not an option", s)
	}
	return ui.w.SetChoice(o)
}

func (ui *questionnaireUI) askCheckbox(ctx context.Context, q *api.Question) error {
	ui.options(q.Options, ui.w.Input().Selected...)
	s, err := ui.read("Choose options separated by commas, or - for none")
	if err != nil {
		return errQuit
	}
	if handled, err := ui.control(ctx, s); handled {
		return err
	}
	switch s {
	case "":
		return nil
	case "-":
		return ui.w.SetSelected([]string{})
	}

	var chosen []string
	for _, part := range splitList(s) {
		o, ok := pick(q.Options, part)
		if !ok {
			return fmt.Errorf("%q is not an option", part)
		}
		chosen = append(chosen, o)
	}
	return ui.w.SetSelected(chosen)
}

func (ui *questionnaireUI) askText(ctx context.Context, multiline bool) error {
	cur := ui.w.Input().Text
	if cur != "" {
		ui.a.println(mutedStyle.Render("Current answer: " + cur + " (press Enter to keep it)"))
	}

	var (
		s   string
		err error
	)
	if multiline {
		s, err = GetMultiline(ui.a.in, "Your answer", ui.a.out)
	} else {
		s, err = ui.read("Your answer")
	}
	if err != nil {
		return errQuit
	}
	if handled, err := ui.control(ctx, s); handled {
		return err
	}
	if s == "" {
		return nil
	}
	return ui.w.SetText(s)
}

func (ui *questionnaireUI) askForm(ctx context.Context, q *api.Question) error {
	cur := ui.w.Input().Form
	for _, f := range q.Fields {
		prompt := f.Label
		if f.Required {
			prompt += " *"
		}
		if len(f.Options) > 0 {
			prompt += " (" + strings.Join(f.Options, ", ") + ")"
		}
		if v := cur[f.Name]; v != "" {
			prompt += " [" + v + "]"
		}
		s, err := ui.read(prompt)
		if err != nil {
			return errQuit
		}
		if handled, err := ui.control(ctx, s); handled {
			return err
		}
		if s == "" {
			continue
		}
		if err := ui.w.SetField(f.Name, s); err != nil {
			return err
		}
	}
	return nil
}

func (ui *questionnaireUI) askUpload(ctx context.Context, q *api.Question) error {
	if up := ui.w.Input().Upload; up != nil && up.FileID != "" {
		ui.a.println(mutedStyle.Render("Attached: " + up.FileName + " (press Enter to keep it)"))
	}
	if len(q.Accept) > 0 {
		ui.a.println(mutedStyle.Render("Accepted: " + strings.Join(q.Accept, ", ")))
	}
	s, err := ui.read("Path of the file to upload")
	if err != nil {
		return errQuit
	}
	if handled, err := ui.control(ctx, s); handled {
		return err
	}
	if s == "" {
		return nil
	}

	f, err := readLocalFile(s, api.MaxUploadSize)
	if err != nil {
		return err
	}
	if err := ui.w.AttachFile(ctx, f.Name, f.ContentType, f.Data); err != nil {
		return err
	}
	if up := ui.w.Input().Upload; up != nil {
		ui.a.printf("Uploaded %s as evidence %s.\n", up.FileName, up.EvidenceNumber)
		if up.OCRText != "" {
			ui.a.println(mutedStyle.Render("Recognized text: " + up.OCRText))
		}
	}
	return nil
}
