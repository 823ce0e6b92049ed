package questionnaire

import (
	_ "embed"
	"errors"
	"fmt"
	"regexp"
	"slices"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

//go:embed documents.yaml
var defaultDocuments []byte

var ErrUnknownDocument = errors.New("unknown document template")

// DefaultDocumentCode is used when a request names no template.
const DefaultDocumentCode = "035"

const blank = "________"

var placeholder = regexp.MustCompile(`\{\{\s*([A-Za-z0-9_]+)\s*\}\}`)

// OCR fields that fill document placeholders, overriding typed answers.
var ocrPlaceholders = map[string]string{
	"id_number":      "OriClientIDNumber1",
	"plate_number":   "VehiclePlate",
	"policy_number":  "InsurancePolicyNumber",
	"responsibility": "Responsibility",
}

// DocumentTemplate is a fillable text document.
type DocumentTemplate struct {
	Code        string `yaml:"code" json:"code"`
	Name        string `yaml:"name" json:"name"`
	Description string `yaml:"description" json:"description"`
	Types       []int  `yaml:"types" json:"-"`
	Body        string `yaml:"body" json:"-"`
}

// FilledDocument is the result of filling a template.
type FilledDocument struct {
	Code         string
	Name         string
	FileName     string
	Content      []byte
	FilledFields int
}

type Filler struct {
	templates []*DocumentTemplate
}

func LoadFiller(data []byte) (*Filler, error) {
	var doc struct {
		Templates []*DocumentTemplate `yaml:"templates"`
	}
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parse documents: %w", err)
	}
	for _, t := range doc.Templates {
		if t.Code == "" || t.Body == "" {
			return nil, fmt.Errorf("document template %q: code and body are required", t.Code)
		}
	}
	return &Filler{templates: doc.Templates}, nil
}

// DefaultFiller loads the embedded document templates.
func DefaultFiller() (*Filler, error) {
	return LoadFiller(defaultDocuments)
}

func (f *Filler) Template(code string) (*DocumentTemplate, error) {
	for _, t := range f.templates {
		if t.Code == code {
			return t, nil
		}
	}
	return nil, fmt.Errorf("%w: %s", ErrUnknownDocument, code)
}

// Recommended lists the templates applicable to a questionnaire type.
func (f *Filler) Recommended(typ int) []DocumentTemplate {
	var out []DocumentTemplate
	for _, t := range f.templates {
		if len(t.Types) == 0 || slices.Contains(t.Types, typ) {
			out = append(out, *t)
		}
	}
	return out
}

// Fill replaces the {{field}} placeholders of template code with data.
// Placeholders without data are left as blanks to be completed by hand.
func (f *Filler) Fill(code string, data map[string]string, now time.Time) (*FilledDocument, error) {
	t, err := f.Template(code)
	if err != nil {
		return nil, err
	}

	filled := map[string]bool{}
	body := placeholder.ReplaceAllStringFunc(t.Body, func(m string) string {
		key := placeholder.FindStringSubmatch(m)[1]
		if key == "FillDate" {
			return now.Format("2006-01-02")
		}
		v := strings.TrimSpace(data[key])
		if v == "" {
			return blank
		}
		filled[key] = true
		return v
	})

	return &FilledDocument{
		Code:         t.Code,
		Name:         t.Name,
		FileName:     fmt.Sprintf("%s_%s.txt", t.Code, now.Format("20060102_150405")),
		Content:      []byte(body),
		FilledFields: len(filled),
	}, nil
}

// FillData flattens the answers of st into placeholder values. Form answers
// contribute one value per mapped field.
func FillData(t *Template, st *State) map[string]string {
	data := map[string]string{}
	for _, q := range t.Questions() {
		a, ok := st.Answers[q.ID]
		if !ok {
			continue
		}
		if q.Type == TypeForm {
			m, _ := a.Value.(map[string]any)
			for _, fld := range q.Fields {
				v := FormatValue(m[fld.Name])
				if fld.Field != "" && v != "" {
					data[fld.Field] = v
				}
			}
			continue
		}
		v := FormatValue(a.Value)
		if v == "" {
			continue
		}
		data[q.ID] = v
		if q.Field != "" {
			data[q.Field] = v
		}
	}

	for k, v := range st.Autofill() {
		if p, ok := ocrPlaceholders[k]; ok && v != "" {
			data[p] = v
		}
	}

	data["Matter"] = t.Title
	data["FactsAndReasons"] = joinPresent(data,
		"AccidentDate", "AccidentLocation", "AccidentType", "AccidentDescription", "Responsibility",
		"Position", "EmploymentStart", "DisputeDescription")
	data["Claims"] = joinPresent(data, "DamageItems", "DisputeItems")
	return data
}

func joinPresent(data map[string]string, keys ...string) string {
	var parts []string
	for _, k := range keys {
		if v := data[k]; v != "" {
			parts = append(parts, v)
		}
	}
	return strings.Join(parts, ". ")
}
