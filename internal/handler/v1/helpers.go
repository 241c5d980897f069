package v1

import (
	"errors"
	"net/http"
	"strconv"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/findadoctor/api/internal/service"
	"github.com/findadoctor/api/pkg/googleauth"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type APIResponse[T any] struct {
	Data    T      `json:"data"`
	Message string `json:"message,omitempty"`
}

// ErrorResponse carries a human-readable message plus a stable
// machine-readable code clients can branch on.
type ErrorResponse struct {
	Error string `json:"error"`
	Code  string `json:"code,omitempty"`
}

type ValidationErrorResponse struct {
	Error  string   `json:"error"`
	Code   string   `json:"code"`
	Fields []string `json:"fields"`
}

func respondOK(c *gin.Context, data any) {
	c.JSON(http.StatusOK, APIResponse[any]{Data: data})
}

func respondCreated(c *gin.Context, data any) {
	c.JSON(http.StatusCreated, APIResponse[any]{Data: data})
}

func respondError(c *gin.Context, status int, message, code string) {
	c.JSON(status, ErrorResponse{Error: message, Code: code})
}

func respondServiceError(c *gin.Context, err error) {
	var validErr *service.ValidationError
	if errors.As(err, &validErr) {
		c.JSON(http.StatusBadRequest, ValidationErrorResponse{
			Error:  "validation failed",
			Code:   "VALIDATION_FAILED",
			Fields: validErr.Fields,
		})
		return
	}

	switch {
	case errors.Is(err, domain.ErrUserNotFound),
		errors.Is(err, domain.ErrProfileNotFound),
		errors.Is(err, appointment.ErrAppointmentNotFound),
		errors.Is(err, prescription.ErrPrescriptionNotFound),
		errors.Is(err, feedback.ErrFeedbackNotFound),
		errors.Is(err, feedback.ErrReportNotFound):
		c.JSON(http.StatusNotFound, ErrorResponse{Error: err.Error(), Code: "NOT_FOUND"})

	case errors.Is(err, domain.ErrEmailTaken):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "EMAIL_TAKEN"})

	case errors.Is(err, feedback.ErrDuplicateFeedback):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "DUPLICATE_FEEDBACK"})

	case errors.Is(err, appointment.ErrStatusConflict):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "STATUS_CONFLICT"})

	case errors.Is(err, feedback.ErrReportAlreadyResolved):
		c.JSON(http.StatusConflict, ErrorResponse{Error: err.Error(), Code: "REPORT_RESOLVED"})

	case errors.Is(err, appointment.ErrScheduledInPast),
		errors.Is(err, appointment.ErrInvalidStatus),
		errors.Is(err, appointment.ErrInvalidStatusTransition),
		errors.Is(err, appointment.ErrPaymentAlreadyRefunded),
		errors.Is(err, appointment.ErrPaymentNotConfirmed),
		errors.Is(err, prescription.ErrNoMedications),
		errors.Is(err, feedback.ErrInvalidRating),
		errors.Is(err, feedback.ErrInvalidReportStatus),
		errors.Is(err, feedback.ErrSelfReport),
		errors.Is(err, domain.ErrInvalidRole),
		errors.Is(err, domain.ErrInvalidResetToken):
		c.JSON(http.StatusBadRequest, ErrorResponse{Error: err.Error(), Code: "INVALID_REQUEST"})

	case errors.Is(err, service.ErrForbidden),
		errors.Is(err, prescription.ErrNotOwner):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "access denied", Code: "FORBIDDEN"})

	case errors.Is(err, domain.ErrUserBanned):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account is banned", Code: "BANNED"})

	case errors.Is(err, domain.ErrAccountInactive):
		c.JSON(http.StatusForbidden, ErrorResponse{Error: "account pending authorization", Code: "INACTIVE"})

	case errors.Is(err, service.ErrInvalidCredentials):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid email or password", Code: "INVALID_CREDENTIALS"})

	case errors.Is(err, googleauth.ErrInvalidIDToken):
		c.JSON(http.StatusUnauthorized, ErrorResponse{Error: "invalid google token", Code: "INVALID_GOOGLE_TOKEN"})

	default:
		c.JSON(http.StatusInternalServerError, ErrorResponse{Error: "internal server error", Code: "INTERNAL"})
	}
}

func bindJSON(c *gin.Context, obj any) bool {
	if err := c.ShouldBindJSON(obj); err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid request: " + err.Error(),
			Code:  "MALFORMED_BODY",
		})
		return false
	}
	return true
}

func parseUUID(c *gin.Context, param string) (uuid.UUID, bool) {
	raw := c.Param(param)
	id, err := uuid.Parse(raw)
	if err != nil {
		c.JSON(http.StatusBadRequest, ErrorResponse{
			Error: "invalid " + param + ": must be a valid UUID",
			Code:  "INVALID_ID",
		})
		return uuid.Nil, false
	}
	return id, true
}

func parseQueryInt(c *gin.Context, key string, defaultVal int) int {
	if raw := c.Query(key); raw != "" {
		if v, err := strconv.Atoi(raw); err == nil && v > 0 {
			return v
		}
	}
	return defaultVal
}

func pageParams(c *gin.Context) (page, limit int) {
	return parseQueryInt(c, "page", 1), parseQueryInt(c, "limit", 10)
}

// pagedResponse renders the shared pagination envelope.
func pagedResponse(items any, total int64, currentPage, totalPages int) gin.H {
	return gin.H{
		"items":       items,
		"total":       total,
		"currentPage": currentPage,
		"totalPages":  totalPages,
	}
}

// claimsFromContext returns the identity attached by the auth middleware.
func claimsFromContext(c *gin.Context) *domain.Claims {
	v, ok := c.Get(contextKeyClaims)
	if !ok {
		return nil
	}
	claims, _ := v.(*domain.Claims)
	return claims
}
