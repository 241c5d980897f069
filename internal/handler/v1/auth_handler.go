package v1

import (
	"net/http"
	"time"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/service"
	"github.com/findadoctor/api/pkg/auth"
	"github.com/gin-gonic/gin"
)

type AuthHandler struct {
	svc     *service.AuthService
	tokens  *auth.TokenManager
	session config.SessionConfig
}

func NewAuthHandler(svc *service.AuthService, tokens *auth.TokenManager, session config.SessionConfig) *AuthHandler {
	return &AuthHandler{svc: svc, tokens: tokens, session: session}
}

type registerRequest struct {
	Name     string `json:"name" binding:"required"`
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
	Role     string `json:"role" binding:"required"`

	Specialty          string                       `json:"specialty"`
	Qualifications     []string                     `json:"qualifications"`
	Experience         int                          `json:"experience"`
	RegistrationNumber string                       `json:"registrationNumber"`
	ConsultationFee    int64                        `json:"consultationFee"`
	AvailableHours     []domain.AvailabilitySlot    `json:"availableHours"`
	DateOfBirth        *time.Time                   `json:"dateOfBirth"`
	Gender             string                       `json:"gender"`
	MedicalHistory     []domain.MedicalHistoryEntry `json:"medicalHistory"`
	Department         string                       `json:"department"`
	Position           string                       `json:"position"`
	EmployeeID         string                       `json:"employeeId"`
}

func (h *AuthHandler) Register(c *gin.Context) {
	var req registerRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Register(c.Request.Context(), &service.RegisterCommand{
		Name:               req.Name,
		Email:              req.Email,
		Password:           req.Password,
		Role:               domain.Role(req.Role),
		Specialty:          req.Specialty,
		Qualifications:     req.Qualifications,
		Experience:         req.Experience,
		RegistrationNumber: req.RegistrationNumber,
		ConsultationFee:    req.ConsultationFee,
		AvailableHours:     req.AvailableHours,
		DateOfBirth:        req.DateOfBirth,
		Gender:             req.Gender,
		MedicalHistory:     req.MedicalHistory,
		Department:         req.Department,
		Position:           req.Position,
		EmployeeID:         req.EmployeeID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, user)
}

type loginRequest struct {
	Email    string `json:"email" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) Login(c *gin.Context) {
	var req loginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.Login(c.Request.Context(), req.Email, req.Password, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !h.issueSession(c, user) {
		return
	}
	respondOK(c, user)
}

type googleLoginRequest struct {
	IDToken string `json:"idToken" binding:"required"`
}

func (h *AuthHandler) GoogleLogin(c *gin.Context) {
	var req googleLoginRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.svc.GoogleLogin(c.Request.Context(), req.IDToken, c.ClientIP())
	if err != nil {
		respondServiceError(c, err)
		return
	}

	if !h.issueSession(c, user) {
		return
	}
	respondOK(c, user)
}

type forgotPasswordRequest struct {
	Email string `json:"email" binding:"required"`
}

// ForgotPassword always answers with the same accepted-shape response
// so it cannot be used to probe for registered emails.
func (h *AuthHandler) ForgotPassword(c *gin.Context) {
	var req forgotPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ForgotPassword(c.Request.Context(), req.Email); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusAccepted, APIResponse[any]{
		Message: "if the email is registered, a reset link has been sent",
	})
}

type resetPasswordRequest struct {
	Token    string `json:"token" binding:"required"`
	Password string `json:"password" binding:"required"`
}

func (h *AuthHandler) ResetPassword(c *gin.Context) {
	var req resetPasswordRequest
	if !bindJSON(c, &req) {
		return
	}

	if err := h.svc.ResetPassword(c.Request.Context(), req.Token, req.Password); err != nil {
		respondServiceError(c, err)
		return
	}

	c.JSON(http.StatusOK, APIResponse[any]{Message: "password has been reset"})
}

func (h *AuthHandler) Logout(c *gin.Context) {
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, "", -1, "/", h.session.CookieDomain, h.session.CookieSecure, true)
	c.JSON(http.StatusOK, APIResponse[any]{Message: "logged out"})
}

func (h *AuthHandler) issueSession(c *gin.Context, user *domain.User) bool {
	token, expiresAt, err := h.tokens.Generate(&domain.Claims{
		UserID: user.ID,
		Email:  user.Email,
		Role:   user.Role,
	})
	if err != nil {
		respondError(c, http.StatusInternalServerError, "failed to create session", "INTERNAL")
		return false
	}

	maxAge := int(time.Until(expiresAt).Seconds())
	c.SetSameSite(http.SameSiteLaxMode)
	c.SetCookie(h.session.CookieName, token, maxAge, "/", h.session.CookieDomain, h.session.CookieSecure, true)
	return true
}
