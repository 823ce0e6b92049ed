package questionnaire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestCheckAnswer(t *testing.T) {
	radio := &Question{Type: TypeRadio, Required: true, Options: []string{"A", "B"}}
	checkbox := &Question{Type: TypeCheckbox, Required: true, Options: []string{"A", "B"}}
	optionalBox := &Question{Type: TypeCheckbox, Options: []string{"A", "B"}}
	text := &Question{Type: TypeText, Required: true}
	form := &Question{Type: TypeForm, Fields: []FormField{
		{Name: "phone", Label: "Phone", Required: true},
		{Name: "note", Label: "Note"},
	}}
	upload := &Question{Type: TypeUpload, Required: true}

	tests := []struct {
		name    string
		q       *Question
		value   any
		file    *FileRef
		want    any
		wantErr error
	}{
		{name: "radio ok", q: radio, value: "A", want: "A"},
		{name: "radio empty", q: radio, value: "", wantErr: ErrAnswerRequired},
		{name: "radio not an option", q: radio, value: "C", wantErr: ErrInvalidAnswer},
		{name: "radio list", q: radio, value: []any{"A"}, wantErr: ErrInvalidAnswer},
		{name: "checkbox single", q: checkbox, value: []any{"B"}, want: []string{"B"}},
		{name: "checkbox empty", q: checkbox, value: []any{}, wantErr: ErrAnswerRequired},
		{name: "checkbox scalar", q: checkbox, value: "A", wantErr: ErrInvalidAnswer},
		{name: "checkbox optional nil", q: optionalBox, value: nil, want: []string{}},
		{name: "text blank", q: text, value: " \t", wantErr: ErrAnswerRequired},
		{name: "text number", q: text, value: float64(42), want: "42"},
		{name: "form ok", q: form, value: map[string]any{"phone": "123"}, want: map[string]any{"phone": "123"}},
		{name: "form missing field", q: form, value: map[string]any{"note": "x"}, wantErr: ErrAnswerRequired},
		{name: "form not object", q: form, value: "x", wantErr: ErrInvalidAnswer},
		{name: "upload without file", q: upload, value: nil, wantErr: ErrAnswerRequired},
		{
			name:  "upload drops inline content",
			q:     upload,
			value: map[string]any{"filename": "id.png", "content_type": "image/png", "base64": "AAAA"},
			file:  &FileRef{FileID: "s_q4_0011aabb"},
			want:  map[string]any{"filename": "id.png", "content_type": "image/png", "file_id": "s_q4_0011aabb"},
		},
		{name: "message anything", q: &Question{Type: TypeMessage}, value: nil, want: nil},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := checkAnswer(tt.q, tt.value, tt.file)
			if tt.wantErr != nil {
				require.ErrorIs(t, err, tt.wantErr)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestFormatValue(t *testing.T) {
	assert.Equal(t, "", FormatValue(nil))
	assert.Equal(t, "a, b", FormatValue([]any{"a", "b"}))
	assert.Equal(t, "a, b", FormatValue([]string{"a", "b"}))
	assert.Equal(t, "id.png", FormatValue(map[string]any{"filename": "id.png", "file_id": "x"}))
	assert.Equal(t, "name: Bob; phone: 1", FormatValue(map[string]any{"phone": "1", "name": "Bob", "empty": ""}))
	assert.Equal(t, "2.5", FormatValue(2.5))
	assert.Equal(t, "true", FormatValue(true))
}

func TestContains(t *testing.T) {
	assert.True(t, contains("Yes", "Yes", "Maybe"))
	assert.False(t, contains("No", "Yes"))
	assert.True(t, contains([]any{"a", "Yes"}, "Yes"))
	assert.True(t, contains([]string{"Yes"}, "Yes"))
	assert.False(t, contains(nil, "Yes"))
}
