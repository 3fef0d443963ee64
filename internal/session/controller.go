package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/attempt"
	"github.com/stemsi/exstem-trainee/internal/draft"
	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/repository"
	"github.com/stemsi/exstem-trainee/internal/response"
	"github.com/stemsi/exstem-trainee/internal/timer"
)

// Controller runs exam sessions. One controller holds at most one session;
// opening a new one closes the previous.
type Controller struct {
	api   ExamAPI
	store draft.Store
	ui    UI
	log   zerolog.Logger

	now             func() time.Time
	autoSubmitDelay time.Duration
	timerOpts       []timer.Option

	mu        sync.Mutex
	state     State
	gen       int
	lectureID string
	exam      *model.ExamData
	book      *draft.Book
	clock     *timer.Timer
	ordinal   int
	timeUp    bool
	result    *model.ExamResult
	cancel    context.CancelFunc

	background sync.WaitGroup
}

// Option configures a Controller.
type Option func(*Controller)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(c *Controller) { c.now = now }
}

// WithAutoSubmitDelay sets the pause between the time-up notice and the
// automatic submission.
func WithAutoSubmitDelay(d time.Duration) Option {
	return func(c *Controller) { c.autoSubmitDelay = d }
}

// WithTimerOptions passes options to every countdown the controller creates.
func WithTimerOptions(opts ...timer.Option) Option {
	return func(c *Controller) { c.timerOpts = append(c.timerOpts, opts...) }
}

// NewController creates a new Controller.
func NewController(api ExamAPI, store draft.Store, ui UI, log zerolog.Logger, opts ...Option) *Controller {
	c := &Controller{
		api:             api,
		store:           store,
		ui:              ui,
		log:             log.With().Str("component", "exam_session").Logger(),
		now:             time.Now,
		autoSubmitDelay: time.Second,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

// Open loads the lecture's exam, starts or resumes the attempt and the
// countdown. ctx bounds the whole session: cancelling it stops the countdown.
func (c *Controller) Open(ctx context.Context, lectureID string, mode attempt.Mode) error {
	c.Close()

	c.mu.Lock()
	c.gen++
	gen := c.gen
	c.state = StateLoading
	c.lectureID = lectureID
	c.exam, c.book, c.clock, c.result = nil, nil, nil, nil
	c.ordinal, c.timeUp = 0, false
	c.mu.Unlock()

	log := c.log.With().Str("lecture_id", lectureID).Str("mode", mode.String()).Logger()

	if lectureID == "" {
		return c.fail(gen, response.ErrLectureMissing, errors.New("lecture id is required"))
	}

	exam, err := c.api.GetExam(ctx, lectureID)
	if err != nil {
		return c.fail(gen, noticeCode(err, response.ErrExamLoadFailed), fmt.Errorf("load exam: %w", err))
	}

	if !c.advance(gen, StateAwaitingStart) {
		return ErrNotInProgress
	}

	plan := attempt.Resolve(exam.ListExamOfTrainee, mode, c.now())
	ordinal := plan.Ordinal
	if plan.NeedsStart {
		if err := c.api.StartExam(ctx, exam.ID); err != nil {
			return c.fail(gen, noticeCode(err, response.ErrExamStartFailed), fmt.Errorf("start exam: %w", err))
		}
		exam, err = c.api.GetExam(ctx, lectureID)
		if err != nil {
			return c.fail(gen, noticeCode(err, response.ErrExamLoadFailed), fmt.Errorf("reload exam: %w", err))
		}
		ordinal = attempt.SubmitOrdinal(exam.ListExamOfTrainee)
	}

	book := draft.NewBook(c.store, lectureID, exam.ID, c.log)
	if plan.DiscardDraft {
		if err := book.Clear(ctx); err != nil {
			log.Warn().Err(err).Msg("Failed to discard previous draft")
		}
	} else {
		restored, err := book.Restore(ctx)
		if err != nil {
			log.Warn().Err(err).Msg("Failed to restore draft, starting empty")
		}
		if restored {
			if idx := book.CurrentIndex(); idx < 0 || idx >= len(exam.Questions) {
				book.SetCurrentIndex(0)
			}
			c.ui.Notify(newNotice(response.NoticeDraftRestored, nil))
		}
	}

	sessCtx, cancel := context.WithCancel(ctx)
	clock := timer.New(func() { c.expire(sessCtx, gen) }, c.timerOpts...)

	c.mu.Lock()
	if gen != c.gen || c.state != StateAwaitingStart {
		c.mu.Unlock()
		cancel()
		return ErrNotInProgress
	}
	c.exam = exam
	c.book = book
	c.clock = clock
	c.ordinal = ordinal
	c.cancel = cancel
	c.state = StateInProgress
	c.mu.Unlock()

	elapsed := int(plan.Elapsed / time.Second)
	log.Info().
		Str("exam_id", exam.ID).
		Str("path", plan.Path.String()).
		Int("attempt", ordinal).
		Int("elapsed_seconds", elapsed).
		Msg("Exam session started")

	// An already expired attempt fires expire before Start returns.
	clock.Start(sessCtx, exam.TimeOfExam, elapsed)
	return nil
}

// advance moves the current session to next unless it was replaced.
func (c *Controller) advance(gen int, next State) bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if gen != c.gen {
		return false
	}
	c.state = next
	return true
}

func (c *Controller) fail(gen int, code response.ErrCode, err error) error {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return err
	}
	c.state = StateErrored
	c.stopLocked()
	c.mu.Unlock()

	c.log.Error().Err(err).Str("code", string(code)).Msg("Exam session failed")
	c.ui.Notify(newNotice(code, err))
	c.ui.ReturnToCatalog()
	return err
}

// noticeCode maps a remote failure to the code shown to the trainee.
func noticeCode(err error, fallback response.ErrCode) response.ErrCode {
	var (
		apiErr    *repository.APIError
		statusErr *repository.StatusError
	)
	switch {
	case errors.Is(err, repository.ErrUnauthorized):
		return response.ErrTokenInvalid
	case errors.As(err, &apiErr), errors.As(err, &statusErr):
		return fallback
	case errors.Is(err, context.Canceled):
		return fallback
	default:
		return response.ErrConnectionLost
	}
}

// SelectAnswer records a choice: single-choice questions keep only the
// latest, multiple-choice questions toggle.
func (c *Controller) SelectAnswer(ctx context.Context, questionID, answerID string) error {
	c.mu.Lock()
	if err := c.checkEditableLocked(); err != nil {
		c.mu.Unlock()
		return err
	}
	q, ok := c.exam.Question(questionID)
	if !ok || !q.HasAnswer(answerID) {
		c.mu.Unlock()
		return ErrUnknownAnswer
	}
	if q.CorrectAnswerType == model.MultipleChoice {
		c.book.RecordMultiChoice(questionID, answerID)
	} else {
		c.book.RecordSingleChoice(questionID, answerID)
	}
	book := c.book
	c.mu.Unlock()

	c.persist(ctx, book)
	return nil
}

// SelectOption selects the n-th (0-based) option of the current question.
func (c *Controller) SelectOption(ctx context.Context, n int) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return ErrNotInProgress
	}
	idx := c.book.CurrentIndex()
	if idx < 0 || idx >= len(c.exam.Questions) {
		c.mu.Unlock()
		return ErrOutOfRange
	}
	q := &c.exam.Questions[idx]
	if n < 0 || n >= len(q.Answers) {
		c.mu.Unlock()
		return ErrOutOfRange
	}
	questionID, answerID := q.ID, q.Answers[n].ID
	c.mu.Unlock()

	return c.SelectAnswer(ctx, questionID, answerID)
}

func (c *Controller) checkEditableLocked() error {
	switch {
	case c.state == StateSubmitting:
		return ErrSubmitInFlight
	case c.state != StateInProgress:
		return ErrNotInProgress
	case c.timeUp:
		return ErrTimeUp
	}
	return nil
}

// Next moves to the following question. At the last question it stays.
func (c *Controller) Next(ctx context.Context) error {
	return c.move(ctx, func(cur, _ int) int { return cur + 1 }, false)
}

// Previous moves to the preceding question. At the first question it stays.
func (c *Controller) Previous(ctx context.Context) error {
	return c.move(ctx, func(cur, _ int) int { return cur - 1 }, false)
}

// GoTo jumps to question index i (0-based).
func (c *Controller) GoTo(ctx context.Context, i int) error {
	return c.move(ctx, func(_, _ int) int { return i }, true)
}

func (c *Controller) move(ctx context.Context, target func(cur, total int) int, strict bool) error {
	c.mu.Lock()
	if c.state != StateInProgress {
		c.mu.Unlock()
		return ErrNotInProgress
	}
	total := len(c.exam.Questions)
	cur := c.book.CurrentIndex()
	next := target(cur, total)
	if next < 0 || next >= total {
		c.mu.Unlock()
		if strict {
			return ErrOutOfRange
		}
		return nil
	}
	c.book.SetCurrentIndex(next)
	book := c.book
	c.mu.Unlock()

	c.persist(ctx, book)
	return nil
}

func (c *Controller) persist(ctx context.Context, book *draft.Book) {
	if err := book.Persist(ctx); err != nil {
		c.log.Warn().Err(err).Str("key", book.Key()).Msg("Failed to persist draft")
	}
}

// Summary counts answered and unanswered questions.
func (c *Controller) Summary() (SubmitSummary, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.exam == nil || c.book == nil {
		return SubmitSummary{}, ErrNotInProgress
	}
	return c.summaryLocked(), nil
}

func (c *Controller) summaryLocked() SubmitSummary {
	total := len(c.exam.Questions)
	answered := c.book.AnsweredCount(c.exam.QuestionIDs())
	return SubmitSummary{Total: total, Answered: answered, Unanswered: total - answered}
}

// Submit asks the trainee to confirm and then submits the attempt. Once the
// time is up the confirmation is skipped, which makes Submit the retry path
// after a failed automatic submission.
func (c *Controller) Submit(ctx context.Context) (*model.ExamResult, error) {
	c.mu.Lock()
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.state != StateInProgress {
		c.mu.Unlock()
		return nil, ErrNotInProgress
	}
	gen := c.gen
	timeUp := c.timeUp
	summary := c.summaryLocked()
	c.mu.Unlock()

	if !timeUp {
		ok, err := c.ui.ConfirmSubmit(ctx, summary)
		if err != nil {
			return nil, fmt.Errorf("confirm submit: %w", err)
		}
		if !ok {
			return nil, ErrSubmitDeclined
		}
	}
	return c.submit(ctx, gen, false)
}

// expire runs when the countdown reaches zero.
func (c *Controller) expire(ctx context.Context, gen int) {
	c.mu.Lock()
	if gen != c.gen || c.state != StateInProgress {
		c.mu.Unlock()
		return
	}
	c.timeUp = true
	c.mu.Unlock()

	c.log.Info().Msg("Exam time is up, submitting automatically")
	c.ui.Notify(newNotice(response.NoticeTimeUp, nil))

	c.background.Add(1)
	go func() {
		defer c.background.Done()
		if c.autoSubmitDelay > 0 {
			wait := time.NewTimer(c.autoSubmitDelay)
			defer wait.Stop()
			select {
			case <-ctx.Done():
				return
			case <-wait.C:
			}
		}
		if _, err := c.submit(ctx, gen, true); err != nil && !errors.Is(err, ErrSubmitInFlight) && !errors.Is(err, ErrNotInProgress) {
			c.log.Error().Err(err).Msg("Automatic submission failed")
		}
	}()
}

// submit moves InProgress to Submitting (first caller wins) and sends every
// question with every option flagged.
func (c *Controller) submit(ctx context.Context, gen int, auto bool) (*model.ExamResult, error) {
	c.mu.Lock()
	if gen != c.gen {
		c.mu.Unlock()
		return nil, ErrNotInProgress
	}
	if c.state == StateSubmitting {
		c.mu.Unlock()
		return nil, ErrSubmitInFlight
	}
	if c.state != StateInProgress {
		c.mu.Unlock()
		return nil, ErrNotInProgress
	}
	c.state = StateSubmitting
	if c.clock != nil {
		c.clock.Stop()
	}
	req := buildSubmission(c.exam, c.book)
	book := c.book
	c.mu.Unlock()

	log := c.log.With().
		Str("exam_id", req.LectureExamID).
		Int("attempt", req.AttemptNumber).
		Bool("auto", auto).
		Logger()
	log.Info().Int("questions", len(req.ListQuestions)).Msg("Submitting exam")

	result, err := c.api.FinishExam(ctx, req)
	if err != nil {
		c.mu.Lock()
		if gen == c.gen && c.state == StateSubmitting {
			c.state = StateInProgress
		}
		c.mu.Unlock()

		log.Error().Err(err).Msg("Exam submission failed")
		c.ui.Notify(newNotice(noticeCode(err, response.ErrExamSubmitFailed), err))
		return nil, fmt.Errorf("finish exam: %w", err)
	}

	c.mu.Lock()
	if gen == c.gen {
		c.state = StateFinished
		c.result = result
	}
	c.mu.Unlock()

	if err := book.Discard(ctx); err != nil {
		log.Warn().Err(err).Msg("Failed to clear draft after submission")
	}
	log.Info().
		Float64("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Exam submitted")

	c.ui.Notify(newNotice(response.NoticeSubmitted, nil))
	c.ui.ShowResult(result)
	return result, nil
}

// buildSubmission lists every question and every option, selected or not.
func buildSubmission(exam *model.ExamData, book *draft.Book) *model.FinishExamRequest {
	req := &model.FinishExamRequest{
		LectureExamID: exam.ID,
		ListQuestions: make([]model.UserQuestionAnswer, 0, len(exam.Questions)),
		AttemptNumber: attempt.SubmitOrdinal(exam.ListExamOfTrainee),
	}
	for _, q := range exam.Questions {
		item := model.UserQuestionAnswer{
			LectureExamQuestionID: q.ID,
			Answers:               make([]model.UserAnswerItem, 0, len(q.Answers)),
		}
		for _, a := range q.Answers {
			item.Answers = append(item.Answers, model.UserAnswerItem{
				LectureExamAnswerID: a.ID,
				Selected:            book.IsSelected(q.ID, a.ID),
			})
		}
		req.ListQuestions = append(req.ListQuestions, item)
	}
	return req
}

// Retake opens a new attempt of the finished exam.
func (c *Controller) Retake(ctx context.Context) error {
	c.mu.Lock()
	if c.state != StateFinished {
		c.mu.Unlock()
		return ErrNotFinished
	}
	lectureID := c.lectureID
	c.mu.Unlock()

	return c.Open(ctx, lectureID, attempt.ModeRetake)
}

// Close ends the session's countdown. A pending automatic submission or an
// Open still loading is abandoned. Safe to call any number of times.
func (c *Controller) Close() {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gen++
	c.stopLocked()
}

func (c *Controller) stopLocked() {
	if c.clock != nil {
		c.clock.Stop()
	}
	if c.cancel != nil {
		c.cancel()
		c.cancel = nil
	}
}

// Wait blocks until background automatic submissions have returned.
func (c *Controller) Wait() {
	c.background.Wait()
}

// State returns the current lifecycle stage.
func (c *Controller) State() State {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.state
}

// View returns a snapshot for rendering.
func (c *Controller) View() View {
	c.mu.Lock()
	defer c.mu.Unlock()

	v := View{
		State:         c.state,
		LectureID:     c.lectureID,
		TimeUp:        c.timeUp,
		Attempt:       c.ordinal,
		PriorAttempts: attempt.PriorAttempts(c.ordinal),
		Result:        c.result,
	}
	if c.exam == nil {
		return v
	}
	v.ExamID = c.exam.ID
	v.Total = len(c.exam.Questions)
	v.MinimumPercentage = c.exam.MinimumPercentageToComplete
	if c.book != nil {
		v.Answered = c.book.AnsweredCount(c.exam.QuestionIDs())
		v.Index = c.book.CurrentIndex()
		if v.Index >= 0 && v.Index < v.Total {
			q := c.exam.Questions[v.Index]
			v.Question = &q
			v.Selected = c.book.Selected(q.ID)
		}
	}
	if c.clock != nil {
		v.Remaining = c.clock.Remaining()
		v.Progress = c.clock.Progress()
	}
	v.Clock = timer.Format(v.Remaining)
	return v
}
