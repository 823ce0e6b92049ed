// Package questionnaire implements the server-side questionnaire engine:
// the question bank, the per-session state machine, part summaries, OCR
// parsing of uploaded evidence and filling of document templates.
package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"

	"gopkg.in/yaml.v3"
)

// Question types understood by the engine and the client wizard.
const (
	TypeRadio    = "radio"
	TypeCheckbox = "checkbox"
	TypeSelect   = "select"
	TypeText     = "text"
	TypeTextarea = "textarea"
	TypeForm     = "form"
	TypeUpload   = "upload"
	TypeMessage  = "message"
)

var knownTypes = map[string]bool{
	TypeRadio: true, TypeCheckbox: true, TypeSelect: true, TypeText: true,
	TypeTextarea: true, TypeForm: true, TypeUpload: true, TypeMessage: true,
}

//go:embed bank.yaml
var defaultBank []byte

var ErrUnknownTemplate = errors.New("unknown questionnaire type")

// FormField is one input of a form question.
type FormField struct {
	Name     string   `yaml:"name" json:"name"`
	Label    string   `yaml:"label" json:"label"`
	Type     string   `yaml:"type" json:"type"`
	Required bool     `yaml:"required" json:"required"`
	Options  []string `yaml:"options" json:"options,omitempty"`
	Field    string   `yaml:"field" json:"-"`
}

// Condition hides a question unless an earlier answer contains one of In.
type Condition struct {
	Question string   `yaml:"question"`
	In       []string `yaml:"in"`
}

// Question is a single step of a questionnaire as sent to the client.
type Question struct {
	ID          string      `yaml:"id" json:"id"`
	Type        string      `yaml:"type" json:"type"`
	Title       string      `yaml:"title" json:"title"`
	Description string      `yaml:"description" json:"description,omitempty"`
	Required    bool        `yaml:"required" json:"required"`
	Options     []string    `yaml:"options" json:"options,omitempty"`
	Fields      []FormField `yaml:"fields" json:"fields,omitempty"`
	Accept      []string    `yaml:"accept" json:"accept,omitempty"`

	// Field is the document placeholder this answer fills.
	Field         string     `yaml:"field" json:"-"`
	When          *Condition `yaml:"when" json:"-"`
	CreatesCaseOn string     `yaml:"creates_case_on" json:"-"`

	Part int `yaml:"-" json:"part"`
}

// Part groups questions that are summarized together.
type Part struct {
	Name      string      `yaml:"name"`
	Prompt    string      `yaml:"prompt"`
	Questions []*Question `yaml:"questions"`
}

// Template is one questionnaire type.
type Template struct {
	Type  int     `yaml:"type"`
	Code  string  `yaml:"code"`
	Title string  `yaml:"title"`
	Parts []*Part `yaml:"parts"`

	questions []*Question
	index     map[string]int
}

// Questions returns the questions of all parts in order.
func (t *Template) Questions() []*Question {
	return t.questions
}

// IndexOf returns the position of question id, or -1.
func (t *Template) IndexOf(id string) int {
	if i, ok := t.index[id]; ok {
		return i
	}
	return -1
}

// PartName returns the name of the 1-based part n.
func (t *Template) PartName(n int) string {
	if n < 1 || n > len(t.Parts) {
		return fmt.Sprintf("Part %d", n)
	}
	return t.Parts[n-1].Name
}

// Bank holds the templates by questionnaire type.
type Bank struct {
	templates map[int]*Template
}

// LoadBank parses and validates a YAML question bank.
func LoadBank(data []byte) (*Bank, error) {
	var doc struct {
		Questionnaires []*Template `yaml:"questionnaires"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse bank: %w", err)
	}

	b := &Bank{templates: make(map[int]*Template, len(doc.Questionnaires))}
	for _, t := range doc.Questionnaires {
		if err := t.build(); err != nil {
			return nil, fmt.Errorf("questionnaire %d: %w", t.Type, err)
		}
		if _, dup := b.templates[t.Type]; dup {
			return nil, fmt.Errorf("questionnaire %d: duplicate type", t.Type)
		}
		b.templates[t.Type] = t
	}
	return b, nil
}

// DefaultBank loads the embedded question bank.
func DefaultBank() (*Bank, error) {
	return LoadBank(defaultBank)
}

// Template returns the questionnaire with the given type.
func (b *Bank) Template(typ int) (*Template, error) {
	t, ok := b.templates[typ]
	if !ok {
		return nil, fmt.Errorf("%w: %d", ErrUnknownTemplate, typ)
	}
	return t, nil
}

func (t *Template) build() error {
	if len(t.Parts) == 0 {
		return errors.New("no parts")
	}
	t.index = make(map[string]int)
	t.questions = t.questions[:0]

	for pi, p := range t.Parts {
		if len(p.Questions) == 0 {
			return fmt.Errorf("part %d has no questions", pi+1)
		}
		for _, q := range p.Questions {
			if q.ID == "" {
				return fmt.Errorf("part %d: question without id", pi+1)
			}
			if _, dup := t.index[q.ID]; dup {
				return fmt.Errorf("duplicate question id %q", q.ID)
			}
			if !knownTypes[q.Type] {
				return fmt.Errorf("question %q: unknown type %q", q.ID, q.Type)
			}
			if q.When != nil {
				if _, ok := t.index[q.When.Question]; !ok {
					return fmt.Errorf("question %q: condition on unknown or later question %q", q.ID, q.When.Question)
				}
			}
			q.Part = pi + 1
			t.index[q.ID] = len(t.questions)
			t.questions = append(t.questions, q)
		}
	}
	return nil
}
