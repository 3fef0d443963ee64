package handler

import (
	"errors"
	"net/http"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/model"
	"github.com/stemsi/exstem-trainee/internal/response"
	"github.com/stemsi/exstem-trainee/internal/service"
	"github.com/stemsi/exstem-trainee/internal/validator"
)

// AccountHandler handles trainee authentication.
type AccountHandler struct {
	authService *service.AuthService
	log         zerolog.Logger
}

// NewAccountHandler creates a new AccountHandler.
func NewAccountHandler(authService *service.AuthService, log zerolog.Logger) *AccountHandler {
	return &AccountHandler{
		authService: authService,
		log:         log.With().Str("component", "account_handler").Logger(),
	}
}

// Authenticate godoc
// POST /api/Account/authentication
// Exchanges a username and password for a bearer token.
func (h *AccountHandler) Authenticate(c *gin.Context) {
	var req model.LoginRequest
	if fields := validator.Bind(c, &req); fields != nil {
		response.FailWithDetail(c, http.StatusOK, response.ErrValidation, validator.Summary(fields))
		return
	}

	token, err := h.authService.Login(req.UserName, req.Password)
	if err != nil {
		if errors.Is(err, service.ErrInvalidCredentials) {
			h.log.Warn().Str("user_name", req.UserName).Str("ip", c.ClientIP()).Msg("Login rejected")
			response.Fail(c, http.StatusOK, response.ErrInvalidCredentials)
			return
		}
		h.log.Error().Err(err).Msg("Login failed")
		response.Fail(c, http.StatusInternalServerError, response.ErrInternal)
		return
	}

	response.Success(c, http.StatusOK, token)
}
