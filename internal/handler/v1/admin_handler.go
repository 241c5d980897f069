package v1

import (
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/internal/service"
	"github.com/gin-gonic/gin"
)

type AdminHandler struct {
	admin    *service.AdminService
	feedback *service.FeedbackService
}

func NewAdminHandler(admin *service.AdminService, fb *service.FeedbackService) *AdminHandler {
	return &AdminHandler{admin: admin, feedback: fb}
}

func (h *AdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *AdminHandler) ListFeedback(c *gin.Context) {
	page, limit := pageParams(c)
	paged, err := h.feedback.ListAll(c.Request.Context(), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Feedback, paged.Total, paged.CurrentPage, paged.TotalPages))
}

type moderateFeedbackRequest struct {
	IsModerated *bool `json:"isModerated" binding:"required"`
}

func (h *AdminHandler) ModerateFeedback(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req moderateFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := h.feedback.Moderate(c.Request.Context(), id, *req.IsModerated, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, f)
}

func (h *AdminHandler) ListSpamReports(c *gin.Context) {
	page, limit := pageParams(c)

	q := &feedback.ListSpamReportsQuery{Page: page, Limit: limit}
	if raw := c.Query("status"); raw != "" {
		status := feedback.ReportStatus(raw)
		q.Status = &status
	}

	paged, err := h.feedback.ListReports(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Reports, paged.Total, paged.CurrentPage, paged.TotalPages))
}

type resolveSpamReportRequest struct {
	Status     string `json:"status" binding:"required"`
	Resolution string `json:"resolution"`
}

func (h *AdminHandler) ResolveSpamReport(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req resolveSpamReportRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.feedback.ResolveReport(
		c.Request.Context(), id, feedback.ReportStatus(req.Status), req.Resolution, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, report)
}

type SuperAdminHandler struct {
	admin *service.AdminService
}

func NewSuperAdminHandler(admin *service.AdminService) *SuperAdminHandler {
	return &SuperAdminHandler{admin: admin}
}

func (h *SuperAdminHandler) Dashboard(c *gin.Context) {
	stats, err := h.admin.Dashboard(c.Request.Context())
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

// ListUsers supports both role filtering and name/email search.
func (h *SuperAdminHandler) ListUsers(c *gin.Context) {
	page, limit := pageParams(c)

	q := &domain.ListUsersQuery{
		Search: c.Query("search"),
		Page:   page,
		Limit:  limit,
	}
	if raw := c.Query("role"); raw != "" {
		role := domain.Role(raw)
		if !role.IsValid() {
			respondServiceError(c, domain.ErrInvalidRole)
			return
		}
		q.Role = &role
	}

	paged, err := h.admin.ListUsers(c.Request.Context(), q)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Users, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *SuperAdminHandler) AuthorizeUser(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	user, err := h.admin.AuthorizeUser(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}

type banUserRequest struct {
	IsBanned *bool `json:"isBanned" binding:"required"`
}

func (h *SuperAdminHandler) BanUser(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req banUserRequest
	if !bindJSON(c, &req) {
		return
	}

	user, err := h.admin.SetBanned(c.Request.Context(), id, *req.IsBanned, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, user)
}
