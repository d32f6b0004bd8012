package service

import (
	"context"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"
	"github.com/stretchr/testify/require"

	"github.com/noah-isme/student-registry/internal/dto"
)

func TestAuthServiceLogin(t *testing.T) {
	svc := NewAuthService(Credentials{Username: "librarian", Password: "hunter2"}, "secret", time.Hour, testValidator(), testLogger())
	ctx := context.Background()

	_, err := svc.Login(ctx, dto.LoginRequest{Username: "librarian", Password: "wrong"})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	_, err = svc.Login(ctx, dto.LoginRequest{})
	require.ErrorIs(t, err, ErrInvalidCredentials)

	resp, err := svc.Login(ctx, dto.LoginRequest{Username: "librarian", Password: "hunter2"})
	require.NoError(t, err)
	require.NotEmpty(t, resp.Token)

	parsed, err := jwt.ParseWithClaims(resp.Token, &jwt.RegisteredClaims{}, func(t *jwt.Token) (interface{}, error) {
		return []byte("secret"), nil
	})
	require.NoError(t, err)
	subject, err := parsed.Claims.GetSubject()
	require.NoError(t, err)
	require.Equal(t, "librarian", subject)
}
