package repository

import (
	"context"
	"errors"
	"net/url"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/model"
)

// ExamRepository talks to the TraineeLecture exam endpoints.
type ExamRepository struct {
	api *apiClient
}

// NewExamRepository creates a new ExamRepository. baseURL is the API root,
// e.g. http://host/api. A zero timeout leaves requests unbounded.
func NewExamRepository(baseURL string, timeout time.Duration, tokens TokenSource, log zerolog.Logger) *ExamRepository {
	return &ExamRepository{
		api: newAPIClient(baseURL, timeout, tokens, log.With().Str("component", "exam_repository").Logger()),
	}
}

// GetExam fetches a lecture's exam with the trainee's attempt history.
func (r *ExamRepository) GetExam(ctx context.Context, lectureID string) (*model.ExamData, error) {
	var resp model.GetExamResponse
	if err := r.api.postJSON(ctx, "/TraineeLecture/get-exam", url.Values{"lectureId": {lectureID}}, nil, &resp); err != nil {
		return nil, err
	}
	if !resp.OK() {
		return nil, &APIError{Code: resp.Code, Result: resp.Result, Description: resp.Description}
	}
	if resp.Data == nil {
		return nil, &APIError{Code: resp.Code, Result: resp.Result, Description: "missing exam data"}
	}
	resp.Data.SortQuestions()
	return resp.Data, nil
}

// StartExam asks the server to create (or advance) the trainee's attempt.
func (r *ExamRepository) StartExam(ctx context.Context, lectureExamID string) error {
	var resp model.StartExamResponse
	if err := r.api.postJSON(ctx, "/TraineeLecture/start-exam", url.Values{"lectureExamId": {lectureExamID}}, nil, &resp); err != nil {
		return err
	}
	if !resp.OK() {
		return &APIError{Code: resp.Code, Result: resp.Result, Description: resp.Description}
	}
	return nil
}

// FinishExam submits the answers and returns the graded result.
func (r *ExamRepository) FinishExam(ctx context.Context, req *model.FinishExamRequest) (*model.ExamResult, error) {
	if req == nil {
		return nil, errors.New("nil finish request")
	}
	var resp model.FinishExamResponse
	if err := r.api.postJSON(ctx, "/TraineeLecture/finish-exam", nil, req, &resp); err != nil {
		return nil, err
	}
	if !resp.OK() || resp.Data == nil {
		return nil, &APIError{Code: resp.Code, Result: resp.Result, Description: resp.Description}
	}
	return resp.Data, nil
}
