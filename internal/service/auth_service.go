package service

import (
	"context"
	"crypto/subtle"
	"errors"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/golang-jwt/jwt/v5"
	"github.com/rs/zerolog"

	"github.com/noah-isme/student-registry/internal/dto"
)

// ErrInvalidCredentials indicates the supplied operator credentials do not match.
var ErrInvalidCredentials = errors.New("invalid credentials")

// AuthService exchanges the static operator credentials for a session token.
type AuthService interface {
	Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error)
}

// Credentials is the static username/password pair from configuration.
type Credentials struct {
	Username string
	Password string
}

type authService struct {
	credentials Credentials
	secret      []byte
	ttl         time.Duration
	validator   *validator.Validate
	logger      zerolog.Logger
	now         func() time.Time
}

// NewAuthService constructs the auth service.
func NewAuthService(credentials Credentials, secret string, ttl time.Duration, validator *validator.Validate, logger zerolog.Logger) AuthService {
	if ttl <= 0 {
		ttl = 12 * time.Hour
	}

	return &authService{
		credentials: credentials,
		secret:      []byte(secret),
		ttl:         ttl,
		validator:   validator,
		logger:      logger.With().Str("component", "auth_service").Logger(),
		now:         time.Now,
	}
}

func (s *authService) Login(ctx context.Context, req dto.LoginRequest) (dto.LoginResponse, error) {
	if err := s.validator.Struct(req); err != nil {
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	userOK := subtle.ConstantTimeCompare([]byte(req.Username), []byte(s.credentials.Username)) == 1
	passOK := subtle.ConstantTimeCompare([]byte(req.Password), []byte(s.credentials.Password)) == 1
	if !userOK || !passOK {
		s.logger.Warn().Str("username", req.Username).Msg("rejected operator login")
		return dto.LoginResponse{}, ErrInvalidCredentials
	}

	issuedAt := s.now().UTC()
	expiresAt := issuedAt.Add(s.ttl)
	token := jwt.NewWithClaims(jwt.SigningMethodHS256, jwt.RegisteredClaims{
		Subject:   req.Username,
		IssuedAt:  jwt.NewNumericDate(issuedAt),
		ExpiresAt: jwt.NewNumericDate(expiresAt),
	})

	signed, err := token.SignedString(s.secret)
	if err != nil {
		return dto.LoginResponse{}, err
	}

	return dto.LoginResponse{Token: signed, ExpiresAt: expiresAt}, nil
}
