package v1

import (
	"net/http"
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/findadoctor/api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

// Multipart uploads are capped well below gin's default memory limit.
const maxUploadBytes = 8 << 20

type DoctorHandler struct {
	users         *service.UserService
	appointments  *service.AppointmentService
	prescriptions *service.PrescriptionService
	feedback      *service.FeedbackService
	admin         *service.AdminService
}

func NewDoctorHandler(
	users *service.UserService,
	appointments *service.AppointmentService,
	prescriptions *service.PrescriptionService,
	fb *service.FeedbackService,
	admin *service.AdminService,
) *DoctorHandler {
	return &DoctorHandler{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
		feedback:      fb,
		admin:         admin,
	}
}

func (h *DoctorHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	profile, err := h.users.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

type updateDoctorProfileRequest struct {
	Name            *string                     `json:"name"`
	Specialty       *string                     `json:"specialty"`
	Qualifications  *[]string                   `json:"qualifications"`
	Experience      *int                        `json:"experience"`
	ConsultationFee *int64                      `json:"consultationFee"`
	AvailableHours  *[]domain.AvailabilitySlot  `json:"availableHours"`
}

func (h *DoctorHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)

	var req updateDoctorProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, &service.UpdateProfileCommand{
		Name:            req.Name,
		Specialty:       req.Specialty,
		Qualifications:  req.Qualifications,
		Experience:      req.Experience,
		ConsultationFee: req.ConsultationFee,
		AvailableHours:  req.AvailableHours,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

func (h *DoctorHandler) UploadProfilePicture(c *gin.Context) {
	claims := claimsFromContext(c)

	header, err := c.FormFile("file")
	if err != nil {
		respondError(c, http.StatusBadRequest, "file is required", "MALFORMED_BODY")
		return
	}
	if header.Size > maxUploadBytes {
		respondError(c, http.StatusBadRequest, "file exceeds the 8MB limit", "FILE_TOO_LARGE")
		return
	}

	file, err := header.Open()
	if err != nil {
		respondError(c, http.StatusBadRequest, "unable to read file", "MALFORMED_BODY")
		return
	}
	defer file.Close()

	url, err := h.users.UploadProfilePicture(c.Request.Context(), claims.UserID, file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"profilePicture": url})
}

func (h *DoctorHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	stats, err := h.admin.DoctorStats(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *DoctorHandler) ListAppointments(c *gin.Context) {
	claims := claimsFromContext(c)
	page, limit := pageParams(c)

	q := &appointment.ListAppointmentsQuery{Page: page, Limit: limit}
	if raw := c.Query("status"); raw != "" {
		status := appointment.Status(raw)
		q.Status = &status
	}

	paged, err := h.appointments.List(c.Request.Context(), q, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Appointments, paged.Total, paged.CurrentPage, paged.TotalPages))
}

type updateAppointmentStatusRequest struct {
	Status      string     `json:"status" binding:"required"`
	NewDateTime *time.Time `json:"newDateTime"`
}

func (h *DoctorHandler) UpdateAppointmentStatus(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updateAppointmentStatusRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.appointments.UpdateStatus(c.Request.Context(), id, &appointment.UpdateStatusCommand{
		Status:      appointment.Status(req.Status),
		NewDateTime: req.NewDateTime,
		UpdatedBy:   claims.UserID,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type createPrescriptionRequest struct {
	AppointmentID uuid.UUID                 `json:"appointmentId" binding:"required"`
	Medications   []prescription.Medication `json:"medications"`
	Instructions  string                    `json:"instructions"`
	ImageURL      string                    `json:"imageUrl"`
	IssuedDate    time.Time                 `json:"issuedDate"`
}

func (h *DoctorHandler) CreatePrescription(c *gin.Context) {
	claims := claimsFromContext(c)

	var req createPrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.prescriptions.Create(c.Request.Context(), &prescription.CreatePrescriptionCommand{
		AppointmentID: req.AppointmentID,
		Medications:   req.Medications,
		Instructions:  req.Instructions,
		ImageURL:      req.ImageURL,
		IssuedDate:    req.IssuedDate,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, p)
}

type updatePrescriptionRequest struct {
	Medications  *[]prescription.Medication `json:"medications"`
	Instructions *string                    `json:"instructions"`
	ImageURL     *string                    `json:"imageUrl"`
}

func (h *DoctorHandler) UpdatePrescription(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req updatePrescriptionRequest
	if !bindJSON(c, &req) {
		return
	}

	p, err := h.prescriptions.Update(c.Request.Context(), id, &prescription.UpdatePrescriptionCommand{
		Medications:  req.Medications,
		Instructions: req.Instructions,
		ImageURL:     req.ImageURL,
		UpdatedBy:    claims.UserID,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

func (h *DoctorHandler) DeletePrescription(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	if err := h.prescriptions.Delete(c.Request.Context(), id, claims); err != nil {
		respondServiceError(c, err)
		return
	}
	c.JSON(http.StatusOK, APIResponse[any]{Message: "prescription deleted"})
}

func (h *DoctorHandler) ListPrescriptions(c *gin.Context) {
	claims := claimsFromContext(c)
	page, limit := pageParams(c)

	paged, err := h.prescriptions.List(c.Request.Context(), &prescription.ListPrescriptionsQuery{
		Page:  page,
		Limit: limit,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Prescriptions, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *DoctorHandler) ListFeedback(c *gin.Context) {
	claims := claimsFromContext(c)
	page, limit := pageParams(c)

	paged, err := h.feedback.ListForDoctor(c.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Feedback, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *DoctorHandler) ListPatients(c *gin.Context) {
	page, limit := pageParams(c)
	paged, err := h.users.ListPatients(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Users, paged.Total, paged.CurrentPage, paged.TotalPages))
}
