package auth

import (
	"testing"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func testSessionConfig() config.SessionConfig {
	return config.SessionConfig{
		Secret:   "test-secret-please-rotate",
		TokenTTL: 24 * time.Hour,
		Issuer:   "findadoctor",
	}
}

func TestTokenRoundTrip(t *testing.T) {
	m := NewTokenManager(testSessionConfig())

	in := &domain.Claims{
		UserID: uuid.New(),
		Email:  "ada@example.com",
		Role:   domain.RolePatient,
	}

	token, expiresAt, err := m.Generate(in)
	assert.NoError(t, err)
	assert.NotEmpty(t, token)
	assert.WithinDuration(t, time.Now().Add(24*time.Hour), expiresAt, time.Minute)

	out, err := m.Validate(token)
	assert.NoError(t, err)
	assert.Equal(t, in.UserID, out.UserID)
	assert.Equal(t, in.Email, out.Email)
	assert.Equal(t, in.Role, out.Role)
}

func TestValidate_WrongSecret(t *testing.T) {
	issuer := NewTokenManager(testSessionConfig())

	other := testSessionConfig()
	other.Secret = "a-different-secret"
	verifier := NewTokenManager(other)

	token, _, err := issuer.Generate(&domain.Claims{UserID: uuid.New(), Role: domain.RolePatient})
	assert.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_ExpiredToken(t *testing.T) {
	cfg := testSessionConfig()
	cfg.TokenTTL = -time.Hour
	m := NewTokenManager(cfg)

	token, _, err := m.Generate(&domain.Claims{UserID: uuid.New(), Role: domain.RolePatient})
	assert.NoError(t, err)

	_, err = m.Validate(token)
	assert.ErrorIs(t, err, ErrTokenExpired)
}

func TestValidate_WrongIssuer(t *testing.T) {
	cfg := testSessionConfig()
	cfg.Issuer = "someone-else"
	issuer := NewTokenManager(cfg)
	verifier := NewTokenManager(testSessionConfig())

	token, _, err := issuer.Generate(&domain.Claims{UserID: uuid.New(), Role: domain.RolePatient})
	assert.NoError(t, err)

	_, err = verifier.Validate(token)
	assert.ErrorIs(t, err, ErrTokenInvalid)
}

func TestValidate_Garbage(t *testing.T) {
	m := NewTokenManager(testSessionConfig())
	_, err := m.Validate("not.a.token")
	assert.ErrorIs(t, err, ErrTokenInvalid)
}
