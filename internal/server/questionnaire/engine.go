package questionnaire

import (
	"context"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

var (
	ErrCompleted          = errors.New("questionnaire already completed")
	ErrSummaryPending     = errors.New("part summary is awaiting validation")
	ErrNoSummaryPending   = errors.New("no summary is awaiting validation")
	ErrNotCurrentQuestion = errors.New("question is not the current question")
	ErrAtFirstQuestion    = errors.New("already at the first question")
	ErrCannotGoForward    = errors.New("cannot go forward with go-back")
	ErrUnknownQuestion    = errors.New("question not found")
)

// Step types.
const (
	StepQuestion = "question"
	StepSummary  = "summary_validation"
)

type Progress struct {
	Current    int `json:"current"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

type PartInfo struct {
	Current int    `json:"current"`
	Name    string `json:"name"`
	Total   int    `json:"total"`
}

// Step is what the client renders next.
type Step struct {
	Status            string             `json:"status"`
	Type              string             `json:"type,omitempty"`
	Question          *Question          `json:"question,omitempty"`
	Summary           *Summary           `json:"summary,omitempty"`
	Progress          Progress           `json:"progress"`
	PartInfo          PartInfo           `json:"part_info"`
	CanGoBack         bool               `json:"can_go_back"`
	ShowSummary       bool               `json:"show_summary,omitempty"`
	NextPart          bool               `json:"next_part,omitempty"`
	TransitionMessage string             `json:"transition_message,omitempty"`
	PreviousAnswer    any                `json:"previous_answer,omitempty"`
	AnsweredCount     int                `json:"answered_count"`
	Answers           map[string]Answer  `json:"answers,omitempty"`
	Summaries         map[string]Summary `json:"summaries,omitempty"`
}

// Engine drives questionnaire sessions. It holds no per-session data; every
// call mutates the State it is given.
type Engine struct {
	bank       *Bank
	summarizer Summarizer
	log        logging.Logger
	now        func() time.Time
}

// NewEngine builds an engine. A nil summarizer always uses FallbackSummary.
func NewEngine(bank *Bank, summarizer Summarizer, log logging.Logger) *Engine {
	return &Engine{bank: bank, summarizer: summarizer, log: log, now: time.Now}
}

func (e *Engine) Template(typ int) (*Template, error) {
	return e.bank.Template(typ)
}

// Start creates the state of a new session positioned at the first question.
func (e *Engine) Start(typ int) (*State, *Step, error) {
	t, err := e.bank.Template(typ)
	if err != nil {
		return nil, nil, err
	}
	st := &State{
		Type:      typ,
		Status:    StatusAwaitingInput,
		Answers:   map[string]Answer{},
		Summaries: map[string]Summary{},
	}
	st.Index = nextApplicable(t, st, 0)
	return st, e.step(t, st), nil
}

// Answer records the answer to the current question and advances the state.
// Answering the last question of a part produces the part summary.
func (e *Engine) Answer(ctx context.Context, st *State, questionID string, value any, file *FileRef) (*Step, error) {
	t, err := e.bank.Template(st.Type)
	if err != nil {
		return nil, err
	}
	switch st.Status {
	case StatusCompleted:
		return nil, ErrCompleted
	case StatusAwaitingSummary:
		return nil, ErrSummaryPending
	}

	qs := t.Questions()
	if st.Index >= len(qs) {
		return nil, ErrCompleted
	}
	q := qs[st.Index]
	if q.ID != questionID {
		return nil, fmt.Errorf("%w: expected %s, got %s", ErrNotCurrentQuestion, q.ID, questionID)
	}

	v, err := checkAnswer(q, value, file)
	if err != nil {
		return nil, err
	}
	st.Answers[q.ID] = Answer{Value: v, File: file, AnsweredAt: e.now().UTC()}
	st.ShouldCreateCase = wantsCase(t, st)

	next := nextApplicable(t, st, st.Index+1)
	st.Index = next
	if next < len(qs) && qs[next].Part == q.Part {
		return e.step(t, st), nil
	}

	st.PendingPart = q.Part
	st.Status = StatusAwaitingSummary
	st.Summaries[SummaryKey(q.Part)] = e.summarize(ctx, t, st, q.Part, "")

	s := e.step(t, st)
	s.ShowSummary = true
	return s, nil
}

// ValidateSummary approves the pending part summary, or regenerates it
// taking feedback into account.
func (e *Engine) ValidateSummary(ctx context.Context, st *State, approved bool, feedback string) (*Step, error) {
	t, err := e.bank.Template(st.Type)
	if err != nil {
		return nil, err
	}
	if st.Status != StatusAwaitingSummary {
		return nil, ErrNoSummaryPending
	}
	key := SummaryKey(st.PendingPart)

	if !approved {
		st.Summaries[key] = e.summarize(ctx, t, st, st.PendingPart, feedback)
		s := e.step(t, st)
		s.ShowSummary = true
		return s, nil
	}

	sum := st.Summaries[key]
	sum.Approved = true
	st.Summaries[key] = sum
	done := st.PendingPart
	st.PendingPart = 0

	if st.Index >= len(t.Questions()) {
		st.Status = StatusCompleted
		return e.step(t, st), nil
	}

	st.Status = StatusAwaitingInput
	s := e.step(t, st)
	s.NextPart = true
	s.TransitionMessage = fmt.Sprintf("Part %d (%s) is complete. Next: part %d, %s.",
		done, t.PartName(done), s.PartInfo.Current, s.PartInfo.Name)
	return s, nil
}

// GoBack moves to targetID, or to the previously answered question when
// targetID is empty. Answers from the target onwards and the summaries of
// the affected parts are discarded.
func (e *Engine) GoBack(st *State, targetID string) (*Step, error) {
	t, err := e.bank.Template(st.Type)
	if err != nil {
		return nil, err
	}
	if st.Status == StatusCompleted {
		return nil, ErrCompleted
	}
	qs := t.Questions()

	target := -1
	if targetID == "" {
		target = previousAnswered(t, st, st.Index)
		if target < 0 {
			return nil, ErrAtFirstQuestion
		}
	} else {
		target = t.IndexOf(targetID)
		if target < 0 {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, targetID)
		}
		if target >= st.Index {
			return nil, ErrCannotGoForward
		}
		if _, ok := st.Answers[targetID]; !ok {
			return nil, fmt.Errorf("%w: %s was not answered", ErrUnknownQuestion, targetID)
		}
	}

	q := qs[target]
	previous := st.Answers[q.ID].Value

	for i := target; i < len(qs); i++ {
		delete(st.Answers, qs[i].ID)
	}
	for p := q.Part; p <= len(t.Parts); p++ {
		delete(st.Summaries, SummaryKey(p))
	}
	st.Index = target
	st.Status = StatusAwaitingInput
	st.PendingPart = 0
	st.ShouldCreateCase = wantsCase(t, st)

	s := e.step(t, st)
	s.PreviousAnswer = previous
	return s, nil
}

// Resume reports the current step together with all answers so far.
func (e *Engine) Resume(st *State) (*Step, error) {
	t, err := e.bank.Template(st.Type)
	if err != nil {
		return nil, err
	}
	s := e.step(t, st)
	s.Answers = st.Answers
	return s, nil
}

// Progress returns progress and part info for st.
func (e *Engine) Progress(st *State) (Progress, PartInfo, error) {
	t, err := e.bank.Template(st.Type)
	if err != nil {
		return Progress{}, PartInfo{}, err
	}
	s := e.step(t, st)
	return s.Progress, s.PartInfo, nil
}

func (e *Engine) step(t *Template, st *State) *Step {
	qs := t.Questions()
	total := len(qs)

	s := &Step{
		Status:        st.Status,
		AnsweredCount: len(st.Answers),
		CanGoBack:     st.Status != StatusCompleted && previousAnswered(t, st, st.Index) >= 0,
	}

	switch st.Status {
	case StatusCompleted:
		s.Progress = Progress{Current: total, Total: total, Percentage: 100}
		s.PartInfo = PartInfo{Current: len(t.Parts), Name: t.PartName(len(t.Parts)), Total: len(t.Parts)}
		s.Summaries = st.Summaries
		return s

	case StatusAwaitingSummary:
		sum := st.Summaries[SummaryKey(st.PendingPart)]
		s.Type = StepSummary
		s.Summary = &sum
		s.PartInfo = PartInfo{Current: st.PendingPart, Name: t.PartName(st.PendingPart), Total: len(t.Parts)}

	default:
		q := qs[st.Index]
		s.Type = StepQuestion
		s.Question = q
		s.PartInfo = PartInfo{Current: q.Part, Name: t.PartName(q.Part), Total: len(t.Parts)}
	}

	current := st.Index + 1
	if current > total {
		current = total
	}
	s.Progress = Progress{
		Current:    current,
		Total:      total,
		Percentage: int(math.Round(float64(st.Index) / float64(total) * 100)),
	}
	return s
}

func (e *Engine) summarize(ctx context.Context, t *Template, st *State, part int, feedback string) Summary {
	req := SummaryRequest{
		Part:     part,
		PartName: t.PartName(part),
		Prompt:   t.Parts[part-1].Prompt,
		Feedback: feedback,
	}
	for _, q := range t.Parts[part-1].Questions {
		if q.Type == TypeMessage {
			continue
		}
		if a, ok := st.Answers[q.ID]; ok {
			req.Answers = append(req.Answers, QA{QuestionID: q.ID, Title: q.Title, Value: a.Value})
		}
	}

	content := ""
	if e.summarizer != nil {
		text, err := e.summarizer.Summarize(ctx, req)
		if err != nil {
			e.log.Warn(ctx, "summarizer failed, using fallback", "part", part, "error", err)
		}
		content = text
	}
	if content == "" {
		content = FallbackSummary(req)
	}
	return Summary{Part: part, PartName: req.PartName, Content: content, Feedback: feedback}
}

// nextApplicable returns the first index >= from whose condition holds.
func nextApplicable(t *Template, st *State, from int) int {
	qs := t.Questions()
	for i := from; i < len(qs); i++ {
		if applies(qs[i], st) {
			return i
		}
	}
	return len(qs)
}

// previousAnswered returns the last answered index before idx, or -1.
func previousAnswered(t *Template, st *State, idx int) int {
	qs := t.Questions()
	if idx > len(qs) {
		idx = len(qs)
	}
	for i := idx - 1; i >= 0; i-- {
		if _, ok := st.Answers[qs[i].ID]; ok {
			return i
		}
	}
	return -1
}

func applies(q *Question, st *State) bool {
	if q.When == nil {
		return true
	}
	a, ok := st.Answers[q.When.Question]
	return ok && contains(a.Value, q.When.In...)
}

func wantsCase(t *Template, st *State) bool {
	for _, q := range t.Questions() {
		if q.CreatesCaseOn == "" {
			continue
		}
		if a, ok := st.Answers[q.ID]; ok && contains(a.Value, q.CreatesCaseOn) {
			return true
		}
	}
	return false
}
