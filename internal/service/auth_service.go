package service

import (
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/google/uuid"
	"github.com/stemsi/exstem-trainee/internal/config"
	"github.com/stemsi/exstem-trainee/internal/model"
	"golang.org/x/crypto/bcrypt"
)

// Common auth errors.
var (
	ErrInvalidCredentials = errors.New("invalid credentials")
	ErrTraineeExists      = errors.New("trainee already exists")
)

// Claims extends JWT standard claims with the trainee identity.
type Claims struct {
	jwt.RegisteredClaims
	TraineeID string `json:"trainee_id"`
	UserName  string `json:"user_name"`
}

type trainee struct {
	id           string
	userName     string
	passwordHash string
}

// AuthService handles trainee accounts and JWTs.
type AuthService struct {
	cfg *config.Config

	mu       sync.RWMutex
	trainees map[string]trainee
}

// NewAuthService creates a new AuthService with no accounts.
func NewAuthService(cfg *config.Config) *AuthService {
	return &AuthService{cfg: cfg, trainees: make(map[string]trainee)}
}

// HashPassword hashes a password with the configured bcrypt cost.
func (s *AuthService) HashPassword(password string) (string, error) {
	hash, err := bcrypt.GenerateFromPassword([]byte(password), s.cfg.BcryptCost)
	return string(hash), err
}

// CheckPassword compares a plaintext password against a bcrypt hash.
func (s *AuthService) CheckPassword(hash, password string) error {
	if err := bcrypt.CompareHashAndPassword([]byte(hash), []byte(password)); err != nil {
		return ErrInvalidCredentials
	}
	return nil
}

// AddTrainee registers an account and returns its id.
func (s *AuthService) AddTrainee(userName, password string) (string, error) {
	hash, err := s.HashPassword(password)
	if err != nil {
		return "", fmt.Errorf("hash password: %w", err)
	}

	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.trainees[userName]; ok {
		return "", ErrTraineeExists
	}
	id := uuid.NewString()
	s.trainees[userName] = trainee{id: id, userName: userName, passwordHash: hash}
	return id, nil
}

// Login checks the credentials and issues a token.
func (s *AuthService) Login(userName, password string) (*model.UserToken, error) {
	s.mu.RLock()
	t, ok := s.trainees[userName]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrInvalidCredentials
	}
	if err := s.CheckPassword(t.passwordHash, password); err != nil {
		return nil, err
	}

	now := time.Now()
	expires := now.Add(s.cfg.JWTExpiry)
	claims := Claims{
		RegisteredClaims: jwt.RegisteredClaims{
			ID:        uuid.NewString(),
			Subject:   t.id,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(expires),
		},
		TraineeID: t.id,
		UserName:  t.userName,
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, claims)
	signed, err := token.SignedString([]byte(s.cfg.JWTSecret))
	if err != nil {
		return nil, fmt.Errorf("sign token: %w", err)
	}

	return &model.UserToken{
		Token:           signed,
		UserName:        t.userName,
		TokenExpiration: expires,
	}, nil
}

// ValidateToken parses and validates a JWT, returning the claims.
func (s *AuthService) ValidateToken(tokenStr string) (*Claims, error) {
	token, err := jwt.ParseWithClaims(tokenStr, &Claims{}, func(t *jwt.Token) (interface{}, error) {
		if _, ok := t.Method.(*jwt.SigningMethodHMAC); !ok {
			return nil, fmt.Errorf("unexpected signing method: %v", t.Header["alg"])
		}
		return []byte(s.cfg.JWTSecret), nil
	})
	if err != nil {
		return nil, fmt.Errorf("parse token: %w", err)
	}

	claims, ok := token.Claims.(*Claims)
	if !ok || !token.Valid || claims.TraineeID == "" {
		return nil, errors.New("invalid token claims")
	}
	return claims, nil
}
