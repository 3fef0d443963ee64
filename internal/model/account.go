package model

import "time"

// LoginRequest is the payload for the account authentication endpoint.
type LoginRequest struct {
	UserName string `json:"userName" binding:"required,min=3,max=100"`
	Password string `json:"password" binding:"required,min=6,max=100"`
}

// UserToken is the credential issued on login.
type UserToken struct {
	Token           string    `json:"token"`
	UserName        string    `json:"userName"`
	RefreshToken    string    `json:"refreshToken,omitempty"`
	TokenExpiration time.Time `json:"tokenExpiration"`
}
