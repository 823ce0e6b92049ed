// Package wizard drives a server-orchestrated questionnaire session from
// the client side. The server decides every next step; the wizard renders
// what it is told, serializes the pending answer by question type and keeps
// a local history used only when the server's go-back call fails.
package wizard

import (
	"context"
	"errors"
	"fmt"
	"sync/atomic"

	"github.com/dmitrijs2005/lexbridge/internal/client/api"
	"github.com/dmitrijs2005/lexbridge/internal/client/store"
	"github.com/dmitrijs2005/lexbridge/internal/logging"
)

type State string

const (
	StateLoading       State = "loading"
	StateError         State = "error"
	StateQuestion      State = "question"
	StateSummaryReview State = "summary_review"
	StateTransition    State = "transition"
	StateCompleted     State = "completed"
)

var (
	ErrBusy            = errors.New("a request is already in flight")
	ErrIncomplete      = errors.New("answer is incomplete")
	ErrNoQuestion      = errors.New("no question is being shown")
	ErrNoSummary       = errors.New("no summary is awaiting review")
	ErrNoTransition    = errors.New("not between parts")
	ErrNotUpload       = errors.New("current question does not take a file")
	ErrNothingToRetry  = errors.New("nothing to retry")
	ErrAtFirstQuestion = errors.New("already at the first question")
	errEmptyStep       = errors.New("server returned neither a question nor a summary")
)

// API is the part of the HTTP client the wizard talks to.
type API interface {
	Resume(ctx context.Context, sessionID string) (*api.Step, error)
	Answer(ctx context.Context, in api.AnswerInput) (*api.Step, error)
	GoBack(ctx context.Context, sessionID, targetQuestionID string) (*api.Step, error)
	ValidateSummary(ctx context.Context, sessionID string, approved bool, feedback string) (*api.Step, error)
	Upload(ctx context.Context, sessionID, questionID string, f api.File) (*api.UploadResult, error)
}

// Cache hands out the session cached by the start command, at most once.
type Cache interface {
	Take(ctx context.Context, key string, v any) (bool, error)
}

// CachedSession is stored under store.KeyQuestionnaireSession right after a
// session is started so the first question needs no extra round trip.
type CachedSession struct {
	SessionID string        `json:"sessionId"`
	Status    string        `json:"status"`
	Question  *api.Question `json:"question"`
	PartInfo  api.PartInfo  `json:"partInfo"`
	Progress  api.Progress  `json:"progress"`
}

// CompletionPath is where a finished session is shown.
func CompletionPath(sessionID string) string {
	return "/questionnaire/" + sessionID + "/complete"
}

type snapshot struct {
	question *api.Question
	input    Input
	progress api.Progress
	partInfo api.PartInfo
}

type Wizard struct {
	api   API
	cache Cache
	log   logging.Logger

	busy atomic.Bool

	sessionID  string
	state      State
	question   *api.Question
	pending    *api.Question
	summary    *api.Summary
	input      Input
	progress   api.Progress
	partInfo   api.PartInfo
	canGoBack  bool
	transition string
	redirect   string
	history    []snapshot

	err       error
	retry     func(ctx context.Context) error
	lastState State
}

func New(a API, cache Cache, l logging.Logger) *Wizard {
	return &Wizard{api: a, cache: cache, log: l.With("module", "wizard"), state: StateLoading}
}

func (w *Wizard) SessionID() string { return w.sessionID }
func (w *Wizard) State() State { return w.state }
func (w *Wizard) Question() *api.Question { return w.question }
func (w *Wizard) Summary() *api.Summary { return w.summary }
func (w *Wizard) Progress() api.Progress { return w.progress }
func (w *Wizard) PartInfo() api.PartInfo { return w.partInfo }
func (w *Wizard) CanGoBack() bool { return w.canGoBack || len(w.history) > 0 }
func (w *Wizard) TransitionMessage() string { return w.transition }
func (w *Wizard) Err() error { return w.err }
func (w *Wizard) Busy() bool { return w.busy.Load() }
func (w *Wizard) Input() Input { return w.input.clone() }

// Redirect is non-empty once the session is completed.
func (w *Wizard) Redirect() string { return w.redirect }

func (w *Wizard) acquire() bool {
	return w.busy.CompareAndSwap(false, true)
}

func (w *Wizard) release() {
	w.busy.Store(false)
}

// exec runs call in the loading state. On failure the wizard moves to the
// error state and remembers call for Retry.
func (w *Wizard) exec(ctx context.Context, call func(ctx context.Context) error) error {
	prev := w.state
	if prev != StateError {
		w.lastState = prev
	}
	w.state = StateLoading
	if err := call(ctx); err != nil {
		w.err = err
		w.retry = call
		w.state = StateError
		w.log.Warn(ctx, "questionnaire request failed", "session_id", w.sessionID, "error", err)
		return err
	}
	w.err = nil
	w.retry = nil
	return nil
}

// Mount loads sessionID: from the one-shot cache when it holds this
// session, otherwise from the server's resume endpoint.
func (w *Wizard) Mount(ctx context.Context, sessionID string) error {
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	w.sessionID = sessionID
	w.history = nil
	w.redirect = ""
	w.state = StateLoading

	if w.cache != nil {
		var cached CachedSession
		found, err := w.cache.Take(ctx, store.KeyQuestionnaireSession, &cached)
		switch {
		case err != nil:
			w.log.Warn(ctx, "reading cached session", "error", err)
		case found && cached.SessionID == sessionID && (cached.Question != nil || cached.Status == api.StatusCompleted):
			return w.applyStep(&api.Step{
				Status:   cached.Status,
				Question: cached.Question,
				Progress: cached.Progress,
				PartInfo: cached.PartInfo,
			}, nil)
		}
	}

	return w.exec(ctx, w.resume)
}

func (w *Wizard) resume(ctx context.Context) error {
	step, err := w.api.Resume(ctx, w.sessionID)
	if err != nil {
		return err
	}
	var prior any
	if step.Question != nil {
		if a, ok := step.Answers[step.Question.ID]; ok {
			prior = a.Value
		}
	}
	return w.applyStep(step, prior)
}

// applyStep moves the wizard to whatever the server reported. prior
// pre-populates the input of the question being shown.
func (w *Wizard) applyStep(step *api.Step, prior any) error {
	if step.Status != api.StatusCompleted && step.Summary == nil && step.Question == nil {
		return errEmptyStep
	}
	w.progress = step.Progress
	w.partInfo = step.PartInfo
	w.canGoBack = step.CanGoBack
	w.summary = nil
	w.transition = ""
	w.pending = nil

	switch {
	case step.Status == api.StatusCompleted:
		w.question = nil
		w.input = Input{}
		w.state = StateCompleted
		w.redirect = CompletionPath(w.sessionID)

	case step.Summary != nil:
		w.question = nil
		w.summary = step.Summary
		w.state = StateSummaryReview

	case step.NextPart && step.TransitionMessage != "" && step.Question != nil:
		w.question = nil
		w.pending = step.Question
		w.transition = step.TransitionMessage
		w.state = StateTransition

	default:
		w.question = step.Question
		w.input = inputFrom(step.Question, prior)
		w.state = StateQuestion
	}
	return nil
}

// Continue leaves the transition message for the next part's question.
func (w *Wizard) Continue() error {
	if w.state != StateTransition || w.pending == nil {
		return ErrNoTransition
	}
	w.question = w.pending
	w.pending = nil
	w.transition = ""
	w.input = inputFrom(w.question, nil)
	w.state = StateQuestion
	return nil
}

// CanSubmit reports whether the current question may be submitted: no
// request is in flight and every required input is filled.
func (w *Wizard) CanSubmit() bool {
	if w.busy.Load() {
		return false
	}
	return w.ready()
}

func (w *Wizard) ready() bool {
	if w.state != StateQuestion || w.question == nil {
		return false
	}
	return w.input.complete(w.question)
}

// Submit sends the pending answer and applies the server's next step.
func (w *Wizard) Submit(ctx context.Context) error {
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	if w.state != StateQuestion || w.question == nil {
		return ErrNoQuestion
	}
	if !w.ready() {
		return ErrIncomplete
	}

	snap := snapshot{question: w.question, input: w.input.clone(), progress: w.progress, partInfo: w.partInfo}
	in := api.AnswerInput{
		SessionID:  w.sessionID,
		QuestionID: w.question.ID,
		Answer:     w.input.serialize(w.question),
		File:       w.input.fileRef(),
	}

	return w.exec(ctx, func(ctx context.Context) error {
		step, err := w.api.Answer(ctx, in)
		if err != nil {
			return err
		}
		w.history = append(w.history, snap)
		return w.applyStep(step, nil)
	})
}

// GoBack asks the server to step back. If that call fails the last locally
// remembered question is restored instead.
func (w *Wizard) GoBack(ctx context.Context) error {
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	switch w.state {
	case StateQuestion, StateSummaryReview, StateTransition, StateError:
	default:
		return ErrNoQuestion
	}
	if !w.canGoBack && len(w.history) == 0 {
		return ErrAtFirstQuestion
	}

	prev := w.state
	w.state = StateLoading
	step, err := w.api.GoBack(ctx, w.sessionID, "")
	if err == nil {
		if err := w.applyStep(step, step.PreviousAnswer); err != nil {
			w.state = prev
			return err
		}
		if n := len(w.history); n > 0 {
			w.history = w.history[:n-1]
		}
		w.err = nil
		w.retry = nil
		return nil
	}

	n := len(w.history)
	if n == 0 {
		w.state = prev
		return fmt.Errorf("go back: %w", err)
	}
	w.log.Warn(ctx, "go-back failed, restoring local history", "session_id", w.sessionID, "error", err)
	snap := w.history[n-1]
	w.history = w.history[:n-1]
	w.question = snap.question
	w.input = snap.input.clone()
	w.progress = snap.progress
	w.partInfo = snap.partInfo
	w.summary = nil
	w.pending = nil
	w.transition = ""
	w.err = nil
	w.retry = nil
	w.canGoBack = len(w.history) > 0
	w.state = StateQuestion
	return nil
}

// ApproveSummary accepts the part summary under review.
func (w *Wizard) ApproveSummary(ctx context.Context) error {
	return w.validateSummary(ctx, true, "")
}

// RegenerateSummary rejects the part summary and asks for a new one.
func (w *Wizard) RegenerateSummary(ctx context.Context, feedback string) error {
	return w.validateSummary(ctx, false, feedback)
}

func (w *Wizard) validateSummary(ctx context.Context, approved bool, feedback string) error {
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	if w.state != StateSummaryReview {
		return ErrNoSummary
	}
	return w.exec(ctx, func(ctx context.Context) error {
		step, err := w.api.ValidateSummary(ctx, w.sessionID, approved, feedback)
		if err != nil {
			return err
		}
		return w.applyStep(step, nil)
	})
}

// AttachFile uploads a file for the current upload question and attaches
// the returned handle to the pending answer. Files over the size ceiling are
// refused before any request is made.
func (w *Wizard) AttachFile(ctx context.Context, name, contentType string, data []byte) error {
	if int64(len(data)) > api.MaxUploadSize {
		return api.ErrFileTooLarge
	}
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	if w.state != StateQuestion || w.question == nil {
		return ErrNoQuestion
	}
	if w.question.Type != api.TypeUpload {
		return ErrNotUpload
	}

	questionID := w.question.ID
	f := api.File{Name: name, ContentType: contentType, Data: data}
	return w.exec(ctx, func(ctx context.Context) error {
		res, err := w.api.Upload(ctx, w.sessionID, questionID, f)
		if err != nil {
			return err
		}
		up := &Upload{
			FileName:       name,
			ContentType:    contentType,
			Data:           data,
			FileID:         res.FileID,
			EvidenceNumber: res.EvidenceNumber,
		}
		if res.OCRResult != nil {
			up.OCRText = res.OCRResult.Text
		}
		w.input.Upload = up
		w.state = StateQuestion
		return nil
	})
}

// Retry re-issues the call that put the wizard into the error state.
func (w *Wizard) Retry(ctx context.Context) error {
	if !w.acquire() {
		return ErrBusy
	}
	defer w.release()

	if w.state != StateError || w.retry == nil {
		return ErrNothingToRetry
	}
	return w.exec(ctx, w.retry)
}

// Dismiss leaves the error state without retrying.
func (w *Wizard) Dismiss() {
	if w.state != StateError || w.lastState == StateLoading || w.lastState == "" {
		return
	}
	w.state = w.lastState
	w.err = nil
	w.retry = nil
}
