// Package session drives one trainee's exam from loading to the graded result.
package session

import (
	"context"
	"errors"

	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/response"
)

// State is the lifecycle stage of a session.
type State int

const (
	StateIdle State = iota
	StateLoading
	StateAwaitingStart
	StateInProgress
	StateSubmitting
	StateFinished
	StateErrored
)

func (s State) String() string {
	switch s {
	case StateLoading:
		return "loading"
	case StateAwaitingStart:
		return "awaiting_start"
	case StateInProgress:
		return "in_progress"
	case StateSubmitting:
		return "submitting"
	case StateFinished:
		return "finished"
	case StateErrored:
		return "errored"
	default:
		return "idle"
	}
}

var (
	ErrNotInProgress  = errors.New("exam is not in progress")
	ErrSubmitInFlight = errors.New("submission already in flight")
	ErrTimeUp         = errors.New("exam time is up")
	ErrSubmitDeclined = errors.New("submission declined")
	ErrNotFinished    = errors.New("exam is not finished")
	ErrUnknownAnswer  = errors.New("answer does not belong to question")
	ErrOutOfRange     = errors.New("question index out of range")
)

// ExamAPI is the remote TraineeLecture surface the controller drives.
type ExamAPI interface {
	GetExam(ctx context.Context, lectureID string) (*model.ExamData, error)
	StartExam(ctx context.Context, lectureExamID string) error
	FinishExam(ctx context.Context, req *model.FinishExamRequest) (*model.ExamResult, error)
}

// Notice is a user-visible message.
type Notice struct {
	Code    response.ErrCode
	Message string
	Err     error
}

func newNotice(code response.ErrCode, err error) Notice {
	return Notice{Code: code, Message: response.GetMessage(code), Err: err}
}

// SubmitSummary is shown before a manual submission.
type SubmitSummary struct {
	Total      int
	Answered   int
	Unanswered int
}

// UI is the presentation side of a session. ConfirmSubmit blocks until the
// trainee decides.
type UI interface {
	Notify(n Notice)
	ConfirmSubmit(ctx context.Context, summary SubmitSummary) (bool, error)
	ShowResult(result *model.ExamResult)
	ReturnToCatalog()
}

// View is a rendering snapshot of the session.
type View struct {
	State             State
	LectureID         string
	ExamID            string
	Question          *model.ExamQuestion
	Index             int
	Total             int
	Selected          []string
	Answered          int
	Remaining         int
	Clock             string
	Progress          float64
	TimeUp            bool
	Attempt           int
	PriorAttempts     int
	MinimumPercentage float64
	Result            *model.ExamResult
}
