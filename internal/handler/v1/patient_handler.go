package v1

import (
	"time"

	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/feedback"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/findadoctor/api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type PatientHandler struct {
	users         *service.UserService
	appointments  *service.AppointmentService
	prescriptions *service.PrescriptionService
	feedback      *service.FeedbackService
	admin         *service.AdminService
}

func NewPatientHandler(
	users *service.UserService,
	appointments *service.AppointmentService,
	prescriptions *service.PrescriptionService,
	fb *service.FeedbackService,
	admin *service.AdminService,
) *PatientHandler {
	return &PatientHandler{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
		feedback:      fb,
		admin:         admin,
	}
}

func (h *PatientHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	profile, err := h.users.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

type updatePatientProfileRequest struct {
	Name           *string                       `json:"name"`
	DateOfBirth    *time.Time                    `json:"dateOfBirth"`
	Gender         *string                       `json:"gender"`
	MedicalHistory *[]domain.MedicalHistoryEntry `json:"medicalHistory"`
}

func (h *PatientHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)

	var req updatePatientProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, &service.UpdateProfileCommand{
		Name:           req.Name,
		DateOfBirth:    req.DateOfBirth,
		Gender:         req.Gender,
		MedicalHistory: req.MedicalHistory,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

func (h *PatientHandler) Stats(c *gin.Context) {
	claims := claimsFromContext(c)
	stats, err := h.admin.PatientStats(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, stats)
}

func (h *PatientHandler) SearchDoctors(c *gin.Context) {
	page, limit := pageParams(c)
	paged, err := h.users.SearchDoctors(c.Request.Context(), &domain.SearchDoctorsQuery{
		Name:      c.Query("name"),
		Specialty: c.Query("specialty"),
		Page:      page,
		Limit:     limit,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Doctors, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *PatientHandler) GetDoctor(c *gin.Context) {
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	doctor, err := h.users.GetDoctor(c.Request.Context(), id)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, doctor)
}

type bookAppointmentRequest struct {
	DoctorID uuid.UUID `json:"doctorId" binding:"required"`
	DateTime time.Time `json:"dateTime" binding:"required"`
	Notes    string    `json:"notes"`
}

func (h *PatientHandler) BookAppointment(c *gin.Context) {
	claims := claimsFromContext(c)

	var req bookAppointmentRequest
	if !bindJSON(c, &req) {
		return
	}

	a, intent, err := h.appointments.Book(c.Request.Context(), &appointment.CreateAppointmentCommand{
		DoctorID:  req.DoctorID,
		PatientID: claims.UserID,
		DateTime:  req.DateTime,
		Notes:     req.Notes,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}

	respondCreated(c, gin.H{
		"appointment":  a,
		"clientSecret": intent.ClientSecret,
	})
}

func (h *PatientHandler) ListAppointments(c *gin.Context) {
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

func (h *PatientHandler) ConfirmPayment(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	a, err := h.appointments.ConfirmPayment(c.Request.Context(), id, claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

type submitFeedbackRequest struct {
	AppointmentID uuid.UUID `json:"appointmentId" binding:"required"`
	Rating        int       `json:"rating" binding:"required"`
	Comment       string    `json:"comment"`
}

func (h *PatientHandler) SubmitFeedback(c *gin.Context) {
	claims := claimsFromContext(c)

	var req submitFeedbackRequest
	if !bindJSON(c, &req) {
		return
	}

	f, err := h.feedback.Submit(c.Request.Context(), &feedback.CreateFeedbackCommand{
		PatientID:     claims.UserID,
		AppointmentID: req.AppointmentID,
		Rating:        req.Rating,
		Comment:       req.Comment,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, f)
}

func (h *PatientHandler) ListFeedback(c *gin.Context) {
	claims := claimsFromContext(c)
	page, limit := pageParams(c)

	paged, err := h.feedback.ListForPatient(c.Request.Context(), claims.UserID, page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Feedback, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *PatientHandler) ListPrescriptions(c *gin.Context) {
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

func (h *PatientHandler) GetPrescription(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	p, err := h.prescriptions.Get(c.Request.Context(), id, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, p)
}

type reportSpamRequest struct {
	ReportedUser uuid.UUID `json:"reportedUser" binding:"required"`
	Reason       string    `json:"reason" binding:"required"`
}

func (h *PatientHandler) ReportSpam(c *gin.Context) {
	claims := claimsFromContext(c)

	var req reportSpamRequest
	if !bindJSON(c, &req) {
		return
	}

	report, err := h.feedback.ReportSpam(c.Request.Context(), &feedback.CreateSpamReportCommand{
		ReportedBy:   claims.UserID,
		ReportedUser: req.ReportedUser,
		Reason:       req.Reason,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondCreated(c, report)
}
