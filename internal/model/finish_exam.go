package model

// UserAnswerItem flags one answer option as selected or not.
type UserAnswerItem struct {
	LectureExamAnswerID string `json:"lectureExamAnswerId" binding:"required"`
	Selected            bool   `json:"selected"`
}

// UserQuestionAnswer carries every option of one question.
type UserQuestionAnswer struct {
	LectureExamQuestionID string           `json:"lectureExamQuestionId" binding:"required"`
	Answers               []UserAnswerItem `json:"answers" binding:"dive"`
}

// FinishExamRequest is the payload of finish-exam.
type FinishExamRequest struct {
	LectureExamID string               `json:"lectureExamId" binding:"required"`
	ListQuestions []UserQuestionAnswer `json:"listQuestions" binding:"dive"`
	AttemptNumber int                  `json:"attemptNumber" binding:"required,min=1"`
}

// ExamResult is the server's authoritative grading of an attempt.
type ExamResult struct {
	LectureExamID    string     `json:"lectureExamId"`
	AttemptNumber    int        `json:"attemptNumber"`
	TotalQuestions   int        `json:"totalQuestions"`
	CorrectQuestions int        `json:"correctQuestions"`
	Percentage       float64    `json:"percentage"`
	Passed           bool       `json:"passed"`
	CompletedAt      *Timestamp `json:"completedAt"`
}
