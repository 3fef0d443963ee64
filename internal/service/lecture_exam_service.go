package service

import (
	"errors"
	"fmt"
	"math"
	"slices"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/stemsi/exstem-trainee/internal/model"
)

// Lecture exam errors.
var (
	ErrLectureNotFound  = errors.New("lecture has no exam")
	ErrExamNotFound     = errors.New("exam not found")
	ErrNoActiveAttempt  = errors.New("no attempt in progress")
	ErrAttemptMismatch  = errors.New("attempt number does not match the attempt in progress")
	ErrUnknownQuestion  = errors.New("question does not belong to exam")
	ErrUnknownAnswer    = errors.New("answer does not belong to question")
	ErrDuplicateLecture = errors.New("lecture already has an exam")
)

// AnswerSeed is one option of a seeded question.
type AnswerSeed struct {
	ID      string
	Text    string
	Correct bool
}

// QuestionSeed is one seeded question.
type QuestionSeed struct {
	ID      string
	Number  int
	Text    string
	Type    model.CorrectAnswerType
	Answers []AnswerSeed
}

// ExamSeed defines the exam of one lecture.
type ExamSeed struct {
	LectureID         string
	ExamID            string
	TimeOfExam        int
	MinimumPercentage float64
	Questions         []QuestionSeed
}

type lectureExam struct {
	data    model.ExamData
	correct map[string][]string
}

type attemptKey struct {
	traineeID string
	examID    string
}

// LectureExamService keeps the question bank and attempt history in memory
// and grades submissions.
type LectureExamService struct {
	mu        sync.Mutex
	byLecture map[string]*lectureExam
	byExam    map[string]*lectureExam
	attempts  map[attemptKey][]model.ExamOfTrainee
	now       func() time.Time
}

// NewLectureExamService creates an empty service.
func NewLectureExamService() *LectureExamService {
	return &LectureExamService{
		byLecture: make(map[string]*lectureExam),
		byExam:    make(map[string]*lectureExam),
		attempts:  make(map[attemptKey][]model.ExamOfTrainee),
		now:       time.Now,
	}
}

// AddExam registers a lecture's exam.
func (s *LectureExamService) AddExam(seed ExamSeed) error {
	if seed.ExamID == "" {
		seed.ExamID = uuid.NewString()
	}
	le := &lectureExam{
		data: model.ExamData{
			ID:                          seed.ExamID,
			LectureID:                   seed.LectureID,
			TimeOfExam:                  seed.TimeOfExam,
			MinimumPercentageToComplete: seed.MinimumPercentage,
			NumberQuestions:             len(seed.Questions),
		},
		correct: make(map[string][]string, len(seed.Questions)),
	}
	for _, qs := range seed.Questions {
		q := model.ExamQuestion{
			ID:                qs.ID,
			CorrectAnswerType: qs.Type,
			Question:          qs.Text,
			Number:            qs.Number,
			NumberAnswers:     len(qs.Answers),
		}
		var correct []string
		for _, as := range qs.Answers {
			q.Answers = append(q.Answers, model.ExamAnswer{ID: as.ID, Answer: as.Text})
			if as.Correct {
				correct = append(correct, as.ID)
			}
		}
		le.data.Questions = append(le.data.Questions, q)
		le.correct[qs.ID] = correct
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.byLecture[seed.LectureID]; ok {
		return ErrDuplicateLecture
	}
	s.byLecture[seed.LectureID] = le
	s.byExam[seed.ExamID] = le
	return nil
}

// GetExam returns the lecture's exam with the trainee's attempt history.
// Correct answers never leave the service.
func (s *LectureExamService) GetExam(traineeID, lectureID string) (*model.ExamData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	le, ok := s.byLecture[lectureID]
	if !ok {
		return nil, ErrLectureNotFound
	}
	data := le.data
	data.Questions = make([]model.ExamQuestion, len(le.data.Questions))
	for i, q := range le.data.Questions {
		q.Answers = slices.Clone(q.Answers)
		data.Questions[i] = q
	}
	data.ListExamOfTrainee = slices.Clone(s.attempts[attemptKey{traineeID, le.data.ID}])
	if data.ListExamOfTrainee == nil {
		data.ListExamOfTrainee = []model.ExamOfTrainee{}
	}
	return &data, nil
}

// StartExam opens the next attempt. An attempt already in progress is
// returned unchanged so a trainee never holds two.
func (s *LectureExamService) StartExam(traineeID, examID string) (*model.ExamOfTrainee, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.byExam[examID]; !ok {
		return nil, ErrExamNotFound
	}
	key := attemptKey{traineeID, examID}
	history := s.attempts[key]

	highest := 0
	for _, rec := range history {
		if rec.StatusExam == model.StatusExamInProgress {
			return &rec, nil
		}
		highest = max(highest, rec.AttemptNumber)
	}

	rec := model.ExamOfTrainee{
		ID:               uuid.NewString(),
		LectureTraineeID: traineeID,
		LectureExamID:    examID,
		TimeStartExam:    model.NewTimestamp(s.now()),
		StatusExam:       model.StatusExamInProgress,
		AttemptNumber:    highest + 1,
	}
	s.attempts[key] = append(history, rec)
	return &rec, nil
}

// FinishExam grades the in-progress attempt. A question counts as correct
// when the selected options are exactly its correct options.
func (s *LectureExamService) FinishExam(traineeID string, req *model.FinishExamRequest) (*model.ExamResult, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	le, ok := s.byExam[req.LectureExamID]
	if !ok {
		return nil, ErrExamNotFound
	}
	key := attemptKey{traineeID, req.LectureExamID}
	history := s.attempts[key]

	idx := slices.IndexFunc(history, func(rec model.ExamOfTrainee) bool {
		return rec.StatusExam == model.StatusExamInProgress
	})
	if idx < 0 {
		return nil, ErrNoActiveAttempt
	}
	if history[idx].AttemptNumber != req.AttemptNumber {
		return nil, ErrAttemptMismatch
	}

	selected, err := le.selections(req)
	if err != nil {
		return nil, err
	}

	correctCount := 0
	for _, q := range le.data.Questions {
		if sameSet(selected[q.ID], le.correct[q.ID]) {
			correctCount++
		}
	}
	total := len(le.data.Questions)
	percentage := 0.0
	if total > 0 {
		percentage = math.Round(float64(correctCount)/float64(total)*10000) / 100
	}

	completed := model.NewTimestamp(s.now())
	history[idx].StatusExam = model.StatusExamCompleted
	history[idx].TimeCompletedExam = &completed
	history[idx].Score = &percentage

	return &model.ExamResult{
		LectureExamID:    req.LectureExamID,
		AttemptNumber:    req.AttemptNumber,
		TotalQuestions:   total,
		CorrectQuestions: correctCount,
		Percentage:       percentage,
		Passed:           percentage >= le.data.MinimumPercentageToComplete,
		CompletedAt:      &completed,
	}, nil
}

// selections collects the selected answer ids per question, rejecting ids
// foreign to the exam.
func (le *lectureExam) selections(req *model.FinishExamRequest) (map[string][]string, error) {
	out := make(map[string][]string, len(req.ListQuestions))
	for _, uq := range req.ListQuestions {
		q, ok := le.data.Question(uq.LectureExamQuestionID)
		if !ok {
			return nil, fmt.Errorf("%w: %s", ErrUnknownQuestion, uq.LectureExamQuestionID)
		}
		for _, ua := range uq.Answers {
			if !q.HasAnswer(ua.LectureExamAnswerID) {
				return nil, fmt.Errorf("%w: %s", ErrUnknownAnswer, ua.LectureExamAnswerID)
			}
			if ua.Selected && !slices.Contains(out[q.ID], ua.LectureExamAnswerID) {
				out[q.ID] = append(out[q.ID], ua.LectureExamAnswerID)
			}
		}
	}
	return out, nil
}

func sameSet(a, b []string) bool {
	if len(a) != len(b) {
		return false
	}
	for _, id := range a {
		if !slices.Contains(b, id) {
			return false
		}
	}
	return true
}

// DemoExam is the lecture exam the stand-in server starts with.
func DemoExam() ExamSeed {
	return ExamSeed{
		LectureID:         "lecture-colregs-01",
		ExamID:            "exam-colregs-01",
		TimeOfExam:        600,
		MinimumPercentage: 70,
		Questions: []QuestionSeed{
			{
				ID: "q-vhf", Number: 1, Type: model.SingleChoice,
				Text: "Kênh VHF nào dùng để gọi cấp cứu, khẩn cấp và an toàn?",
				Answers: []AnswerSeed{
					{ID: "q-vhf-a", Text: "Kênh 16", Correct: true},
					{ID: "q-vhf-b", Text: "Kênh 6"},
					{ID: "q-vhf-c", Text: "Kênh 13"},
					{ID: "q-vhf-d", Text: "Kênh 72"},
				},
			},
			{
				ID: "q-lights", Number: 2, Type: model.MultipleChoice,
				Text: "Tàu máy đang hành trình ban đêm phải trưng những đèn nào?",
				Answers: []AnswerSeed{
					{ID: "q-lights-a", Text: "Đèn cột", Correct: true},
					{ID: "q-lights-b", Text: "Đèn mạn", Correct: true},
					{ID: "q-lights-c", Text: "Đèn lái", Correct: true},
					{ID: "q-lights-d", Text: "Hai đèn đỏ theo chiều thẳng đứng"},
				},
			},
			{
				ID: "q-overtake", Number: 3, Type: model.SingleChoice,
				Text: "Khi vượt tàu khác, tàu nào phải tránh đường?",
				Answers: []AnswerSeed{
					{ID: "q-overtake-a", Text: "Tàu bị vượt"},
					{ID: "q-overtake-b", Text: "Tàu vượt", Correct: true},
					{ID: "q-overtake-c", Text: "Tàu có tốc độ thấp hơn"},
				},
			},
			{
				ID: "q-fire", Number: 4, Type: model.MultipleChoice,
				Text: "Những chất chữa cháy nào phù hợp cho đám cháy thiết bị điện?",
				Answers: []AnswerSeed{
					{ID: "q-fire-a", Text: "CO2", Correct: true},
					{ID: "q-fire-b", Text: "Bột khô", Correct: true},
					{ID: "q-fire-c", Text: "Nước"},
					{ID: "q-fire-d", Text: "Bọt hóa học"},
				},
			},
		},
	}
}
