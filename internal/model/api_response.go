package model

// ResultSuccess is the envelope result value that marks success.
const ResultSuccess = 1

// ResponseAPI is the envelope every TraineeLecture endpoint answers with.
type ResponseAPI[T any] struct {
	Code        string `json:"code"`
	Result      int    `json:"result"`
	Description string `json:"description"`
	Data        T      `json:"data"`
}

// OK reports whether the server accepted the call.
func (r *ResponseAPI[T]) OK() bool {
	return r.Result == ResultSuccess
}

type (
	GetExamResponse    = ResponseAPI[*ExamData]
	FinishExamResponse = ResponseAPI[*ExamResult]
	StartExamResponse  = ResponseAPI[any]
	LoginResponse      = ResponseAPI[*UserToken]
)
