package response

// ErrCode is a typed code shared by the API envelope and trainee notices.
type ErrCode string

const (
	// ─── Authentication ────────────────────────────────────────────────
	ErrInvalidCredentials ErrCode = "INVALID_CREDENTIALS"
	ErrTokenRequired      ErrCode = "TOKEN_REQUIRED"
	ErrTokenInvalid       ErrCode = "TOKEN_INVALID"

	// ─── Validation ────────────────────────────────────────────────────
	ErrValidation     ErrCode = "VALIDATION_ERROR"
	ErrInvalidPayload ErrCode = "INVALID_PAYLOAD"

	// ─── Resources ─────────────────────────────────────────────────────
	ErrNotFound ErrCode = "NOT_FOUND"

	// ─── Exam ──────────────────────────────────────────────────────────
	ErrExamLoadFailed       ErrCode = "EXAM_LOAD_FAILED"
	ErrExamStartFailed      ErrCode = "EXAM_START_FAILED"
	ErrExamSubmitFailed     ErrCode = "EXAM_SUBMIT_FAILED"
	ErrNoActiveAttempt      ErrCode = "NO_ACTIVE_ATTEMPT"
	ErrAttemptMismatch      ErrCode = "ATTEMPT_NUMBER_MISMATCH"
	ErrLectureMissing       ErrCode = "LECTURE_MISSING"
	ErrConnectionLost       ErrCode = "CONNECTION_LOST"
	ErrUnknownAnswer        ErrCode = "UNKNOWN_ANSWER"
	NoticeDraftRestored     ErrCode = "DRAFT_RESTORED"
	NoticeTimeUp            ErrCode = "TIME_UP"
	NoticeSubmitted         ErrCode = "SUBMITTED"
	NoticeNothingToContinue ErrCode = "NOTHING_TO_CONTINUE"

	// ─── Rate Limiting ─────────────────────────────────────────────────
	ErrRateLimitExceeded ErrCode = "RATE_LIMIT_EXCEEDED"

	// ─── Server ────────────────────────────────────────────────────────
	ErrInternal ErrCode = "INTERNAL_ERROR"
)

// GetMessage returns a human-readable message for a given code.
func GetMessage(code ErrCode) string {
	switch code {
	// ─── Authentication ────────────────────────────────────────────────
	case ErrInvalidCredentials:
		return "Tên đăng nhập hoặc mật khẩu không đúng."
	case ErrTokenRequired:
		return "Vui lòng đăng nhập để tiếp tục."
	case ErrTokenInvalid:
		return "Phiên đăng nhập đã hết hạn. Vui lòng đăng nhập lại."

	// ─── Validation ────────────────────────────────────────────────────
	case ErrValidation:
		return "Dữ liệu không hợp lệ. Vui lòng kiểm tra lại."
	case ErrInvalidPayload:
		return "Yêu cầu không hợp lệ."

	// ─── Resources ─────────────────────────────────────────────────────
	case ErrNotFound:
		return "Không tìm thấy dữ liệu."

	// ─── Exam ──────────────────────────────────────────────────────────
	case ErrExamLoadFailed:
		return "Lỗi khi tải bài thi."
	case ErrExamStartFailed:
		return "Không thể bắt đầu bài thi."
	case ErrExamSubmitFailed:
		return "Nộp bài thất bại. Bài làm của bạn vẫn được giữ, vui lòng thử lại."
	case ErrNoActiveAttempt:
		return "Không có lượt thi nào đang diễn ra."
	case ErrAttemptMismatch:
		return "Lượt thi không khớp với lượt đang diễn ra."
	case ErrLectureMissing:
		return "Không tìm thấy thông tin bài học."
	case ErrConnectionLost:
		return "Mất kết nối, vui lòng thử lại."
	case ErrUnknownAnswer:
		return "Đáp án không thuộc câu hỏi này."
	case NoticeDraftRestored:
		return "Đã khôi phục bài làm đang dở."
	case NoticeTimeUp:
		return "Hết giờ thi! Hệ thống đang tự động nộp bài của bạn..."
	case NoticeSubmitted:
		return "Nộp bài thành công!"
	case NoticeNothingToContinue:
		return "Không có bài thi nào để tiếp tục."

	// ─── Rate Limiting ─────────────────────────────────────────────────
	case ErrRateLimitExceeded:
		return "Quá nhiều yêu cầu. Vui lòng thử lại sau."

	// ─── Server ────────────────────────────────────────────────────────
	case ErrInternal:
		return "Đã xảy ra lỗi máy chủ."
	default:
		return "Đã xảy ra lỗi không xác định."
	}
}
