package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/middleware"
	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/response"
	"github.com/stemsi/exstem-trainee/internal/service"
	"github.com/stemsi/exstem-trainee/internal/validator"
)

// TraineeLectureHandler serves the trainee exam endpoints.
type TraineeLectureHandler struct {
	examService *service.LectureExamService
	log         zerolog.Logger
}

// NewTraineeLectureHandler creates a new TraineeLectureHandler.
func NewTraineeLectureHandler(examService *service.LectureExamService, log zerolog.Logger) *TraineeLectureHandler {
	return &TraineeLectureHandler{
		examService: examService,
		log:         log.With().Str("component", "trainee_lecture_handler").Logger(),
	}
}

// GetExam godoc
// POST /api/TraineeLecture/get-exam?lectureId=
// Returns the lecture's exam with the caller's attempt history.
func (h *TraineeLectureHandler) GetExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	lectureID := c.Query("lectureId")
	if lectureID == "" {
		response.Fail(c, http.StatusOK, response.ErrLectureMissing)
		return
	}

	exam, err := h.examService.GetExam(claims.TraineeID, lectureID)
	if err != nil {
		if errors.Is(err, service.ErrLectureNotFound) {
			response.Fail(c, http.StatusOK, response.ErrNotFound)
			return
		}
		h.log.Error().Err(err).Str("lecture_id", lectureID).Msg("Failed to load exam")
		response.Fail(c, http.StatusOK, response.ErrExamLoadFailed)
		return
	}

	response.Success(c, http.StatusOK, exam)
}

// StartExam godoc
// POST /api/TraineeLecture/start-exam?lectureExamId=
// Opens the next attempt, or keeps the one in progress.
func (h *TraineeLectureHandler) StartExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	examID := c.Query("lectureExamId")
	if examID == "" {
		response.Fail(c, http.StatusOK, response.ErrInvalidPayload)
		return
	}

	rec, err := h.examService.StartExam(claims.TraineeID, examID)
	if err != nil {
		if errors.Is(err, service.ErrExamNotFound) {
			response.Fail(c, http.StatusOK, response.ErrNotFound)
			return
		}
		response.Fail(c, http.StatusOK, response.ErrExamStartFailed)
		return
	}

	h.log.Info().
		Str("trainee_id", claims.TraineeID).
		Str("exam_id", examID).
		Int("attempt", rec.AttemptNumber).
		Str("request_id", response.RequestID(c)).
		Msg("Exam attempt started")

	response.Success(c, http.StatusOK, rec)
}

// FinishExam godoc
// POST /api/TraineeLecture/finish-exam
// Grades the attempt in progress.
func (h *TraineeLectureHandler) FinishExam(c *gin.Context) {
	claims := middleware.GetClaims(c)
	if claims == nil {
		response.Fail(c, http.StatusUnauthorized, response.ErrTokenRequired)
		return
	}

	var req model.FinishExamRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithDetail(c, http.StatusOK, response.ErrValidation, validator.Summary(fields))
		return
	}

	result, err := h.examService.FinishExam(claims.TraineeID, &req)
	if err != nil {
		switch {
		case errors.Is(err, service.ErrExamNotFound):
			response.Fail(c, http.StatusOK, response.ErrNotFound)
		case errors.Is(err, service.ErrNoActiveAttempt):
			response.Fail(c, http.StatusOK, response.ErrNoActiveAttempt)
		case errors.Is(err, service.ErrAttemptMismatch):
			response.Fail(c, http.StatusOK, response.ErrAttemptMismatch)
		case errors.Is(err, service.ErrUnknownQuestion), errors.Is(err, service.ErrUnknownAnswer):
			response.Fail(c, http.StatusOK, response.ErrUnknownAnswer)
		default:
			h.log.Error().Err(err).Msg("Failed to grade exam")
			response.Fail(c, http.StatusOK, response.ErrExamSubmitFailed)
		}
		return
	}

	h.log.Info().
		Str("trainee_id", claims.TraineeID).
		Str("exam_id", req.LectureExamID).
		Int("attempt", req.AttemptNumber).
		Float64("percentage", result.Percentage).
		Bool("passed", result.Passed).
		Msg("Exam attempt graded")

	response.Success(c, http.StatusOK, result)
}
