package service

import (
	"errors"
	"testing"
	"time"

	"github.com/stemsi/exstem-trainee/internal/model"
)

func newDemoService(t *testing.T) *LectureExamService {
	t.Helper()
	s := NewLectureExamService()
	s.now = func() time.Time { return time.Date(2026, 5, 4, 8, 0, 0, 0, time.UTC) }
	if err := s.AddExam(DemoExam()); err != nil {
		t.Fatalf("AddExam: %v", err)
	}
	return s
}

// submission selects the given answers and flags every other option false.
func submission(exam *model.ExamData, attemptNumber int, picks map[string][]string) *model.FinishExamRequest {
	req := &model.FinishExamRequest{LectureExamID: exam.ID, AttemptNumber: attemptNumber}
	for _, q := range exam.Questions {
		uq := model.UserQuestionAnswer{LectureExamQuestionID: q.ID}
		for _, a := range q.Answers {
			selected := false
			for _, id := range picks[q.ID] {
				selected = selected || id == a.ID
			}
			uq.Answers = append(uq.Answers, model.UserAnswerItem{LectureExamAnswerID: a.ID, Selected: selected})
		}
		req.ListQuestions = append(req.ListQuestions, uq)
	}
	return req
}

func TestStartExamKeepsSingleAttemptInProgress(t *testing.T) {
	s := newDemoService(t)
	demo := DemoExam()

	first, err := s.StartExam("t1", demo.ExamID)
	if err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	again, err := s.StartExam("t1", demo.ExamID)
	if err != nil {
		t.Fatalf("StartExam again: %v", err)
	}
	if first.ID != again.ID || again.AttemptNumber != 1 {
		t.Errorf("second start = %+v, want the attempt in progress", again)
	}

	exam, _ := s.GetExam("t1", demo.LectureID)
	if len(exam.ListExamOfTrainee) != 1 {
		t.Errorf("history = %d records, want 1", len(exam.ListExamOfTrainee))
	}
	other, _ := s.GetExam("t2", demo.LectureID)
	if len(other.ListExamOfTrainee) != 0 {
		t.Error("history leaked across trainees")
	}
}

func TestFinishExamGradesAndOpensRetake(t *testing.T) {
	s := newDemoService(t)
	demo := DemoExam()
	if _, err := s.StartExam("t1", demo.ExamID); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	exam, _ := s.GetExam("t1", demo.LectureID)

	res, err := s.FinishExam("t1", submission(exam, 1, map[string][]string{
		"q-vhf":      {"q-vhf-a"},
		"q-lights":   {"q-lights-a", "q-lights-b", "q-lights-c"},
		"q-overtake": {"q-overtake-a"},
		"q-fire":     {"q-fire-a"},
	}))
	if err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	if res.CorrectQuestions != 2 || res.TotalQuestions != 4 || res.Percentage != 50 || res.Passed {
		t.Errorf("result = %+v", res)
	}

	exam, _ = s.GetExam("t1", demo.LectureID)
	rec := exam.ListExamOfTrainee[0]
	if rec.StatusExam != model.StatusExamCompleted || rec.Score == nil || *rec.Score != 50 || rec.TimeCompletedExam == nil {
		t.Errorf("record = %+v", rec)
	}

	retake, err := s.StartExam("t1", demo.ExamID)
	if err != nil {
		t.Fatalf("retake StartExam: %v", err)
	}
	if retake.AttemptNumber != 2 {
		t.Errorf("retake attempt = %d, want 2", retake.AttemptNumber)
	}
}

func TestFinishExamPassesAtThreshold(t *testing.T) {
	s := NewLectureExamService()
	seed := ExamSeed{
		LectureID: "L", ExamID: "E", TimeOfExam: 60, MinimumPercentage: 66.67,
		Questions: []QuestionSeed{
			{ID: "a", Answers: []AnswerSeed{{ID: "a1", Correct: true}, {ID: "a2"}}},
			{ID: "b", Answers: []AnswerSeed{{ID: "b1", Correct: true}, {ID: "b2"}}},
			{ID: "c", Answers: []AnswerSeed{{ID: "c1", Correct: true}, {ID: "c2"}}},
		},
	}
	if err := s.AddExam(seed); err != nil {
		t.Fatalf("AddExam: %v", err)
	}
	if _, err := s.StartExam("t", "E"); err != nil {
		t.Fatalf("StartExam: %v", err)
	}
	exam, _ := s.GetExam("t", "L")

	res, err := s.FinishExam("t", submission(exam, 1, map[string][]string{"a": {"a1"}, "b": {"b1"}}))
	if err != nil {
		t.Fatalf("FinishExam: %v", err)
	}
	if res.Percentage != 66.67 || !res.Passed {
		t.Errorf("result = %+v, want 66.67 passed", res)
	}
}

func TestFinishExamRejections(t *testing.T) {
	demo := DemoExam()

	tests := []struct {
		name  string
		start bool
		req   func(exam *model.ExamData) *model.FinishExamRequest
		want  error
	}{
		{
			name: "no attempt",
			req:  func(exam *model.ExamData) *model.FinishExamRequest { return submission(exam, 1, nil) },
			want: ErrNoActiveAttempt,
		},
		{
			name:  "attempt mismatch",
			start: true,
			req:   func(exam *model.ExamData) *model.FinishExamRequest { return submission(exam, 2, nil) },
			want:  ErrAttemptMismatch,
		},
		{
			name:  "foreign answer",
			start: true,
			req: func(exam *model.ExamData) *model.FinishExamRequest {
				req := submission(exam, 1, nil)
				req.ListQuestions[0].Answers[0].LectureExamAnswerID = "q-fire-a"
				return req
			},
			want: ErrUnknownAnswer,
		},
		{
			name:  "foreign question",
			start: true,
			req: func(exam *model.ExamData) *model.FinishExamRequest {
				req := submission(exam, 1, nil)
				req.ListQuestions[0].LectureExamQuestionID = "nope"
				return req
			},
			want: ErrUnknownQuestion,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			s := newDemoService(t)
			if tt.start {
				if _, err := s.StartExam("t1", demo.ExamID); err != nil {
					t.Fatalf("StartExam: %v", err)
				}
			}
			exam, _ := s.GetExam("t1", demo.LectureID)
			if _, err := s.FinishExam("t1", tt.req(exam)); !errors.Is(err, tt.want) {
				t.Errorf("err = %v, want %v", err, tt.want)
			}
		})
	}
}

func TestGetExamUnknownLecture(t *testing.T) {
	s := newDemoService(t)
	if _, err := s.GetExam("t1", "missing"); !errors.Is(err, ErrLectureNotFound) {
		t.Errorf("err = %v", err)
	}
	if err := s.AddExam(DemoExam()); !errors.Is(err, ErrDuplicateLecture) {
		t.Errorf("duplicate AddExam err = %v", err)
	}
}
