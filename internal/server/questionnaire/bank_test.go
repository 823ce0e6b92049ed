package questionnaire

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDefaultBank(t *testing.T) {
	b, err := DefaultBank()
	require.NoError(t, err)

	accident, err := b.Template(1)
	require.NoError(t, err)
	assert.Equal(t, "traffic_accident", accident.Code)
	assert.Len(t, accident.Parts, 3)
	assert.Equal(t, 15, len(accident.Questions()))
	assert.Equal(t, 5, accident.IndexOf("q10"))
	assert.Equal(t, 2, accident.Questions()[5].Part)
	assert.Equal(t, -1, accident.IndexOf("missing"))

	labor, err := b.Template(2)
	require.NoError(t, err)
	assert.Equal(t, "labor_dispute", labor.Code)
	assert.Equal(t, "Dispute and claims", labor.PartName(2))
	assert.Equal(t, "Part 9", labor.PartName(9))

	_, err = b.Template(3)
	assert.ErrorIs(t, err, ErrUnknownTemplate)
}

func TestLoadBank_Invalid(t *testing.T) {
	tests := []struct {
		name string
		yaml string
		want string
	}{
		{
			name: "no parts",
			yaml: "questionnaires:\n  - type: 1\n",
			want: "no parts",
		},
		{
			name: "unknown question type",
			yaml: `
questionnaires:
  - type: 1
    parts:
      - name: A
        questions:
          - {id: a, type: slider}
`,
			want: "unknown type",
		},
		{
			name: "duplicate id",
			yaml: `
questionnaires:
  - type: 1
    parts:
      - name: A
        questions:
          - {id: a, type: text}
      - name: B
        questions:
          - {id: a, type: text}
`,
			want: "duplicate question id",
		},
		{
			name: "condition on later question",
			yaml: `
questionnaires:
  - type: 1
    parts:
      - name: A
        questions:
          - {id: a, type: text}
          - {id: b, type: text, when: {question: c, in: ["x"]}}
          - {id: c, type: text}
`,
			want: "condition on unknown or later question",
		},
		{
			name: "duplicate type",
			yaml: `
questionnaires:
  - type: 1
    parts: [{name: A, questions: [{id: a, type: text}]}]
  - type: 1
    parts: [{name: A, questions: [{id: a, type: text}]}]
`,
			want: "duplicate type",
		},
		{
			name: "not yaml",
			yaml: "questionnaires: [",
			want: "parse bank",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := LoadBank([]byte(tt.yaml))
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.want)
		})
	}
}
