package wizard

import (
	"encoding/base64"
	"fmt"
	"maps"
	"slices"
	"strconv"
	"strings"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
)

// Input is the user's pending answer. Which field is used depends on the
// question type.
type Input struct {
	Choice   string            // radio, select
	Selected []string          // checkbox
	Text     string            // text, textarea
	Form     map[string]string // form
	Upload   *Upload           // upload
}

// Upload is a file already sent to the upload endpoint.
type Upload struct {
	FileName       string
	ContentType    string
	Data           []byte
	FileID         string
	OCRText        string
	EvidenceNumber string
}

func (in Input) clone() Input {
	out := Input{Choice: in.Choice, Text: in.Text}
	if in.Selected != nil {
		out.Selected = slices.Clone(in.Selected)
	}
	if in.Form != nil {
		out.Form = maps.Clone(in.Form)
	}
	if in.Upload != nil {
		u := *in.Upload
		out.Upload = &u
	}
	return out
}

func (in Input) complete(q *api.Question) bool {
	switch q.Type {
	case api.TypeMessage:
		return true
	case api.TypeRadio, api.TypeSelect:
		return !q.Required || in.Choice != ""
	case api.TypeCheckbox:
		return !q.Required || len(in.Selected) > 0
	case api.TypeText, api.TypeTextarea:
		return !q.Required || strings.TrimSpace(in.Text) != ""
	case api.TypeForm:
		filled := false
		for _, f := range q.Fields {
			v := strings.TrimSpace(in.Form[f.Name])
			if v != "" {
				filled = true
			}
			if f.Required && v == "" {
				return false
			}
		}
		return !q.Required || filled
	case api.TypeUpload:
		return !q.Required || (in.Upload != nil && in.Upload.FileID != "")
	}
	return !q.Required
}

// serialize renders the answer the way the server expects it for q.Type.
func (in Input) serialize(q *api.Question) any {
	switch q.Type {
	case api.TypeCheckbox:
		out := make([]string, 0, len(in.Selected))
		return append(out, in.Selected...)

	case api.TypeForm:
		out := make(map[string]any, len(q.Fields))
		for _, f := range q.Fields {
			out[f.Name] = in.Form[f.Name]
		}
		return out

	case api.TypeUpload:
		if in.Upload == nil {
			return nil
		}
		out := map[string]any{
			"filename":     in.Upload.FileName,
			"content_type": in.Upload.ContentType,
		}
		// A restored answer only has the stored file's handle.
		if len(in.Upload.Data) > 0 {
			out["base64"] = base64.StdEncoding.EncodeToString(in.Upload.Data)
		}
		return out

	case api.TypeText, api.TypeTextarea:
		return in.Text

	case api.TypeMessage:
		return ""
	}
	return in.Choice
}

func (in Input) fileRef() *api.FileRef {
	if in.Upload == nil || in.Upload.FileID == "" {
		return nil
	}
	return &api.FileRef{FileID: in.Upload.FileID, OCRText: in.Upload.OCRText}
}

// inputFrom pre-populates an input from a previously given answer.
func inputFrom(q *api.Question, prior any) Input {
	var in Input
	if q == nil || prior == nil {
		return in
	}
	switch q.Type {
	case api.TypeRadio, api.TypeSelect:
		in.Choice = scalar(prior)
	case api.TypeText, api.TypeTextarea:
		in.Text = scalar(prior)
	case api.TypeCheckbox:
		in.Selected = list(prior)
	case api.TypeForm:
		if m, ok := prior.(map[string]any); ok {
			in.Form = make(map[string]string, len(m))
			for k, v := range m {
				in.Form[k] = scalar(v)
			}
		}
	case api.TypeUpload:
		if m, ok := prior.(map[string]any); ok {
			in.Upload = &Upload{
				FileName:    scalar(m["filename"]),
				ContentType: scalar(m["content_type"]),
				FileID:      scalar(m["file_id"]),
			}
		}
	}
	return in
}

func scalar(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	}
	return fmt.Sprint(v)
}

func list(v any) []string {
	switch t := v.(type) {
	case []string:
		return slices.Clone(t)
	case []any:
		out := make([]string, 0, len(t))
		for _, item := range t {
			out = append(out, scalar(item))
		}
		return out
	case string:
		if t == "" {
			return []string{}
		}
		return []string{t}
	}
	return []string{}
}

// SetChoice selects one option of a radio or select question.
func (w *Wizard) SetChoice(option string) error {
	if w.question == nil {
		return ErrNoQuestion
	}
	if len(w.question.Options) > 0 && !slices.Contains(w.question.Options, option) {
		return fmt.Errorf("%q is not an option", option)
	}
	w.input.Choice = option
	return nil
}

// Toggle flips one checkbox option.
func (w *Wizard) Toggle(option string) error {
	if w.question == nil {
		return ErrNoQuestion
	}
	if len(w.question.Options) > 0 && !slices.Contains(w.question.Options, option) {
		return fmt.Errorf("%q is not an option", option)
	}
	if i := slices.Index(w.input.Selected, option); i >= 0 {
		w.input.Selected = slices.Delete(w.input.Selected, i, i+1)
		return nil
	}
	w.input.Selected = append(w.input.Selected, option)
	return nil
}

func (w *Wizard) SetText(text string) error {
	if w.question == nil {
		return ErrNoQuestion
	}
	w.input.Text = text
	return nil
}

// SetField fills one field of a form question.
func (w *Wizard) SetField(name, value string) error {
	if w.question == nil {
		return ErrNoQuestion
	}
	if !slices.ContainsFunc(w.question.Fields, func(f api.FormField) bool { return f.Name == name }) {
		return fmt.Errorf("unknown field %q", name)
	}
	if w.input.Form == nil {
		w.input.Form = map[string]string{}
	}
	w.input.Form[name] = value
	return nil
}

// SetSelected replaces the checkbox selection.
func (w *Wizard) SetSelected(options []string) error {
	if w.question == nil {
		return ErrNoQuestion
	}
	for _, o := range options {
		if len(w.question.Options) > 0 && !slices.Contains(w.question.Options, o) {
			return fmt.Errorf("%q is not an option", o)
		}
	}
	w.input.Selected = slices.Clone(options)
	if w.input.Selected == nil {
		w.input.Selected = []string{}
	}
	return nil
}
