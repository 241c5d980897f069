package v1

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/pkg/auth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
)

func init() {
	gin.SetMode(gin.TestMode)
}

// stubUsers only answers GetByID; the embedded interface panics on
// anything else, which is what we want in these tests.
type stubUsers struct {
	domain.UserRepository
	user *domain.User
	err  error
}

func (s *stubUsers) GetByID(_ context.Context, _ uuid.UUID) (*domain.User, error) {
	return s.user, s.err
}

func testTokens() *auth.TokenManager {
	return auth.NewTokenManager(config.SessionConfig{
		Secret:     "middleware-test-secret",
		TokenTTL:   time.Hour,
		Issuer:     "findadoctor",
		CookieName: "token",
	})
}

func authedRequest(t *testing.T, tokens *auth.TokenManager, user *domain.User) *http.Request {
	t.Helper()
	token, _, err := tokens.Generate(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	assert.NoError(t, err)

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: token})
	return req
}

func newProtectedRouter(users domain.UserRepository, extra ...gin.HandlerFunc) *gin.Engine {
	r := gin.New()
	handlers := append([]gin.HandlerFunc{Authenticate(testTokens(), users, "token")}, extra...)
	handlers = append(handlers, func(c *gin.Context) {
		claims := claimsFromContext(c)
		c.JSON(http.StatusOK, gin.H{"role": claims.Role})
	})
	r.GET("/protected", handlers...)
	return r
}

func TestAuthenticate_MissingCookie(t *testing.T) {
	r := newProtectedRouter(&stubUsers{})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, httptest.NewRequest(http.MethodGet, "/protected", nil))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestAuthenticate_GarbageToken(t *testing.T) {
	r := newProtectedRouter(&stubUsers{})

	req := httptest.NewRequest(http.MethodGet, "/protected", nil)
	req.AddCookie(&http.Cookie{Name: "token", Value: "not-a-jwt"})
	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "SESSION_INVALID")
}

func TestAuthenticate_DeletedUserUnauthorized(t *testing.T) {
	// The token is valid but the account it references is gone: that is
	// a stale credential, not a ban.
	ghost := &domain.User{
		ID:    uuid.New(),
		Email: "gone@example.com",
		Role:  domain.RolePatient,
	}
	r := newProtectedRouter(&stubUsers{err: domain.ErrUserNotFound})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), ghost))

	assert.Equal(t, http.StatusUnauthorized, w.Code)
	assert.Contains(t, w.Body.String(), "UNAUTHENTICATED")
}

func TestAuthenticate_UserLookupFailure(t *testing.T) {
	user := &domain.User{
		ID:    uuid.New(),
		Email: "ada@example.com",
		Role:  domain.RolePatient,
	}
	r := newProtectedRouter(&stubUsers{err: errors.New("connection refused")})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), user))

	assert.Equal(t, http.StatusInternalServerError, w.Code)
	assert.NotContains(t, w.Body.String(), "BANNED")
}

func TestAuthenticate_BannedUserRejected(t *testing.T) {
	banned := &domain.User{
		ID:       uuid.New(),
		Email:    "banned@example.com",
		Role:     domain.RolePatient,
		IsActive: true,
		IsBanned: true,
	}
	r := newProtectedRouter(&stubUsers{user: banned})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), banned))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "BANNED")
}

func TestAuthenticate_RoleComesFromLiveRecord(t *testing.T) {
	// Token was minted while the user was a patient; the record now says
	// staff. The request must see staff.
	user := &domain.User{
		ID:       uuid.New(),
		Email:    "promoted@example.com",
		Role:     domain.RolePatient,
		IsActive: true,
	}
	tokens := testTokens()
	req := authedRequest(t, tokens, user)

	user.Role = domain.RoleStaff
	r := newProtectedRouter(&stubUsers{user: user})

	w := httptest.NewRecorder()
	r.ServeHTTP(w, req)

	assert.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), string(domain.RoleStaff))
}

func TestRequireRole_WrongRoleForbidden(t *testing.T) {
	patient := &domain.User{
		ID:       uuid.New(),
		Email:    "patient@example.com",
		Role:     domain.RolePatient,
		IsActive: true,
	}
	r := newProtectedRouter(&stubUsers{user: patient}, RequireRole(domain.RoleDoctor))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), patient))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "FORBIDDEN")
}

func TestRequireRole_MatchingRoleAllowed(t *testing.T) {
	doctor := &domain.User{
		ID:       uuid.New(),
		Email:    "doc@example.com",
		Role:     domain.RoleDoctor,
		IsActive: true,
	}
	r := newProtectedRouter(&stubUsers{user: doctor}, RequireRole(domain.RoleDoctor, domain.RoleSuperAdmin))

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), doctor))

	assert.Equal(t, http.StatusOK, w.Code)
}

func TestRequireActive_PendingDoctorBlocked(t *testing.T) {
	pending := &domain.User{
		ID:       uuid.New(),
		Email:    "new-doc@example.com",
		Role:     domain.RoleDoctor,
		IsActive: false,
	}
	r := newProtectedRouter(&stubUsers{user: pending}, RequireRole(domain.RoleDoctor), RequireActive())

	w := httptest.NewRecorder()
	r.ServeHTTP(w, authedRequest(t, testTokens(), pending))

	assert.Equal(t, http.StatusForbidden, w.Code)
	assert.Contains(t, w.Body.String(), "INACTIVE")
}
