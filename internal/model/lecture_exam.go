package model

import "sort"

// CorrectAnswerType tells how many options a question accepts.
type CorrectAnswerType int

const (
	SingleChoice   CorrectAnswerType = 0
	MultipleChoice CorrectAnswerType = 1
)

func (t CorrectAnswerType) String() string {
	if t == MultipleChoice {
		return "multiple"
	}
	return "single"
}

// ExamAnswer is one selectable option. Correctness is never sent to trainees.
type ExamAnswer struct {
	ID     string `json:"id"`
	Answer string `json:"answer"`
}

// ExamQuestion is a single exam question.
type ExamQuestion struct {
	ID                string            `json:"id"`
	CorrectAnswerType CorrectAnswerType `json:"correctAnswerType"`
	Question          string            `json:"question"`
	Number            int               `json:"number"`
	NumberAnswers     int               `json:"numberAnswers"`
	Answers           []ExamAnswer      `json:"answers"`
}

// HasAnswer reports whether answerID is one of the question's options.
func (q *ExamQuestion) HasAnswer(answerID string) bool {
	for _, a := range q.Answers {
		if a.ID == answerID {
			return true
		}
	}
	return false
}

// ExamData is the assessment of one lecture together with the trainee's
// attempt history.
type ExamData struct {
	ID                          string          `json:"id"`
	LectureID                   string          `json:"lectureId"`
	TimeOfExam                  int             `json:"timeOfExam"` // seconds
	MinimumPercentageToComplete float64         `json:"minimumPercentageToComplete"`
	NumberQuestions             int             `json:"numberQuestions"`
	Questions                   []ExamQuestion  `json:"questions"`
	ListExamOfTrainee           []ExamOfTrainee `json:"listExamOfTrainee"`
}

// SortQuestions orders questions by their number, keeping the server order
// for equal numbers.
func (e *ExamData) SortQuestions() {
	sort.SliceStable(e.Questions, func(i, j int) bool {
		return e.Questions[i].Number < e.Questions[j].Number
	})
}

// Question looks a question up by id.
func (e *ExamData) Question(id string) (*ExamQuestion, bool) {
	for i := range e.Questions {
		if e.Questions[i].ID == id {
			return &e.Questions[i], true
		}
	}
	return nil, false
}

// QuestionIDs returns question ids in display order.
func (e *ExamData) QuestionIDs() []string {
	ids := make([]string, len(e.Questions))
	for i, q := range e.Questions {
		ids[i] = q.ID
	}
	return ids
}
