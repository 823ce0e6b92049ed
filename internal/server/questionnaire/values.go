package questionnaire

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"strconv"
	"strings"
)

var (
	ErrAnswerRequired = errors.New("answer is required")
	ErrInvalidAnswer  = errors.New("invalid answer")
)

// checkAnswer validates value against q and returns it in canonical form:
// strings for scalar types, []string for checkboxes, map[string]any for
// forms and uploads (without the inline file content).
func checkAnswer(q *Question, value any, file *FileRef) (any, error) {
	switch q.Type {
	case TypeMessage:
		return value, nil

	case TypeRadio, TypeSelect:
		s, err := scalar(value)
		if err != nil {
			return nil, err
		}
		if s == "" {
			if q.Required {
				return nil, ErrAnswerRequired
			}
			return s, nil
		}
		if len(q.Options) > 0 && !slices.Contains(q.Options, s) {
			return nil, fmt.Errorf("%w: %q is not an option", ErrInvalidAnswer, s)
		}
		return s, nil

	case TypeText, TypeTextarea:
		s, err := scalar(value)
		if err != nil {
			return nil, err
		}
		if q.Required && strings.TrimSpace(s) == "" {
			return nil, ErrAnswerRequired
		}
		return s, nil

	case TypeCheckbox:
		list, err := stringList(value)
		if err != nil {
			return nil, err
		}
		if q.Required && len(list) == 0 {
			return nil, ErrAnswerRequired
		}
		for _, s := range list {
			if len(q.Options) > 0 && !slices.Contains(q.Options, s) {
				return nil, fmt.Errorf("%w: %q is not an option", ErrInvalidAnswer, s)
			}
		}
		return list, nil

	case TypeForm:
		m, ok := value.(map[string]any)
		if value == nil {
			m, ok = map[string]any{}, true
		}
		if !ok {
			return nil, fmt.Errorf("%w: form answer must be an object", ErrInvalidAnswer)
		}
		empty := true
		for _, f := range q.Fields {
			v := FormatValue(m[f.Name])
			if v != "" {
				empty = false
			}
			if f.Required && strings.TrimSpace(v) == "" {
				return nil, fmt.Errorf("%w: %s", ErrAnswerRequired, f.Label)
			}
		}
		if q.Required && empty {
			return nil, ErrAnswerRequired
		}
		return m, nil

	case TypeUpload:
		m, _ := value.(map[string]any)
		if len(m) == 0 && file == nil {
			if q.Required {
				return nil, ErrAnswerRequired
			}
			return nil, nil
		}
		out := map[string]any{}
		for k, v := range m {
			if k == "base64" {
				continue
			}
			out[k] = v
		}
		if file != nil {
			out["file_id"] = file.FileID
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: unsupported question type %q", ErrInvalidAnswer, q.Type)
}

func scalar(value any) (string, error) {
	switch v := value.(type) {
	case nil:
		return "", nil
	case string:
		return v, nil
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64), nil
	case bool:
		return strconv.FormatBool(v), nil
	}
	return "", fmt.Errorf("%w: expected a single value", ErrInvalidAnswer)
}

func stringList(value any) ([]string, error) {
	switch v := value.(type) {
	case nil:
		return []string{}, nil
	case []string:
		return v, nil
	case []any:
		out := make([]string, 0, len(v))
		for _, item := range v {
			s, ok := item.(string)
			if !ok {
				return nil, fmt.Errorf("%w: checkbox values must be strings", ErrInvalidAnswer)
			}
			out = append(out, s)
		}
		return out, nil
	}
	return nil, fmt.Errorf("%w: checkbox answer must be a list", ErrInvalidAnswer)
}

// contains reports whether an answer value equals or includes one of want.
func contains(value any, want ...string) bool {
	switch v := value.(type) {
	case string:
		return slices.Contains(want, v)
	case []string:
		for _, s := range v {
			if slices.Contains(want, s) {
				return true
			}
		}
	case []any:
		for _, item := range v {
			if s, ok := item.(string); ok && slices.Contains(want, s) {
				return true
			}
		}
	}
	return false
}

// FormatValue renders an answer value as text for prompts and documents.
// Upload answers render as their file name.
func FormatValue(value any) string {
	switch v := value.(type) {
	case nil:
		return ""
	case string:
		return v
	case []string:
		return strings.Join(v, ", ")
	case []any:
		parts := make([]string, 0, len(v))
		for _, item := range v {
			parts = append(parts, FormatValue(item))
		}
		return strings.Join(parts, ", ")
	case map[string]any:
		if name, ok := v["filename"].(string); ok {
			return name
		}
		keys := make([]string, 0, len(v))
		for k := range v {
			keys = append(keys, k)
		}
		sort.Strings(keys)
		parts := make([]string, 0, len(keys))
		for _, k := range keys {
			if s := FormatValue(v[k]); s != "" {
				parts = append(parts, k+": "+s)
			}
		}
		return strings.Join(parts, "; ")
	case float64:
		return strconv.FormatFloat(v, 'f', -1, 64)
	}
	return fmt.Sprint(value)
}
