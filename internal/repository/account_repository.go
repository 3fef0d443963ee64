package repository

import (
	"context"
	"time"

	"github.com/rs/zerolog"
	"github.com/stemsi/exstem-trainee/internal/model"
)

// AccountRepository calls the authentication endpoint.
type AccountRepository struct {
	api *apiClient
}

func NewAccountRepository(baseURL string, timeout time.Duration, log zerolog.Logger) *AccountRepository {
	return &AccountRepository{
		api: newAPIClient(baseURL, timeout, nil, log.With().Str("component", "account_repository").Logger()),
	}
}

// Authenticate exchanges a username and password for a bearer token.
func (r *AccountRepository) Authenticate(ctx context.Context, userName, password string) (*model.UserToken, error) {
	var resp model.LoginResponse
	body := model.LoginRequest{UserName: userName, Password: password}
	if err := r.api.postJSON(ctx, "/Account/authentication", nil, body, &resp); err != nil {
		return nil, err
	}
	if !resp.OK() || resp.Data == nil || resp.Data.Token == "" {
		return nil, &APIError{Code: resp.Code, Result: resp.Result, Description: resp.Description}
	}
	return resp.Data, nil
}
