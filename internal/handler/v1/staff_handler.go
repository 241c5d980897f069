package v1

import (
	"net/http"
	"time"

	"github.com/findadoctor/api/internal/domain/appointment"
	"github.com/findadoctor/api/internal/domain/prescription"
	"github.com/findadoctor/api/internal/service"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
)

type StaffHandler struct {
	users         *service.UserService
	appointments  *service.AppointmentService
	prescriptions *service.PrescriptionService
}

func NewStaffHandler(
	users *service.UserService,
	appointments *service.AppointmentService,
	prescriptions *service.PrescriptionService,
) *StaffHandler {
	return &StaffHandler{
		users:         users,
		appointments:  appointments,
		prescriptions: prescriptions,
	}
}

func (h *StaffHandler) GetProfile(c *gin.Context) {
	claims := claimsFromContext(c)
	profile, err := h.users.GetProfile(c.Request.Context(), claims.UserID)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

type updateStaffProfileRequest struct {
	Name       *string `json:"name"`
	Department *string `json:"department"`
	Position   *string `json:"position"`
	EmployeeID *string `json:"employeeId"`
}

func (h *StaffHandler) UpdateProfile(c *gin.Context) {
	claims := claimsFromContext(c)

	var req updateStaffProfileRequest
	if !bindJSON(c, &req) {
		return
	}

	profile, err := h.users.UpdateProfile(c.Request.Context(), claims.UserID, &service.UpdateProfileCommand{
		Name:       req.Name,
		Department: req.Department,
		Position:   req.Position,
		EmployeeID: req.EmployeeID,
	})
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, profile)
}

func (h *StaffHandler) ListAppointments(c *gin.Context) {
	claims := claimsFromContext(c)
	page, limit := pageParams(c)

	q := &appointment.ListAppointmentsQuery{Page: page, Limit: limit}
	if raw := c.Query("status"); raw != "" {
		status := appointment.Status(raw)
		q.Status = &status
	}
	if raw := c.Query("doctorId"); raw != "" {
		if id, err := uuid.Parse(raw); err == nil {
			q.DoctorID = &id
		}
	}

	paged, err := h.appointments.List(c.Request.Context(), q, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Appointments, paged.Total, paged.CurrentPage, paged.TotalPages))
}

type rescheduleRequest struct {
	NewDateTime time.Time `json:"newDateTime" binding:"required"`
}

// Reschedule re-slots a Rescheduled appointment back to Scheduled.
func (h *StaffHandler) Reschedule(c *gin.Context) {
	claims := claimsFromContext(c)
	id, ok := parseUUID(c, "id")
	if !ok {
		return
	}

	var req rescheduleRequest
	if !bindJSON(c, &req) {
		return
	}

	a, err := h.appointments.UpdateStatus(c.Request.Context(), id, &appointment.UpdateStatusCommand{
		Status:      appointment.StatusScheduled,
		NewDateTime: &req.NewDateTime,
		UpdatedBy:   claims.UserID,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, a)
}

func (h *StaffHandler) CreatePrescription(c *gin.Context) {
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

// UploadPrescriptionImage stores a scanned prescription and returns its
// URL for a subsequent create or update.
func (h *StaffHandler) UploadPrescriptionImage(c *gin.Context) {
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

	url, err := h.prescriptions.UploadImage(c.Request.Context(), file)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, gin.H{"imageUrl": url})
}

func (h *StaffHandler) UpdatePrescription(c *gin.Context) {
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

func (h *StaffHandler) DeletePrescription(c *gin.Context) {
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

// ListPatientPrescriptions returns all prescriptions for one patient.
func (h *StaffHandler) ListPatientPrescriptions(c *gin.Context) {
	claims := claimsFromContext(c)
	patientID, ok := parseUUID(c, "patientId")
	if !ok {
		return
	}
	page, limit := pageParams(c)

	paged, err := h.prescriptions.List(c.Request.Context(), &prescription.ListPrescriptionsQuery{
		PatientID: &patientID,
		Page:      page,
		Limit:     limit,
	}, claims)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Prescriptions, paged.Total, paged.CurrentPage, paged.TotalPages))
}

func (h *StaffHandler) SearchPatients(c *gin.Context) {
	page, limit := pageParams(c)
	paged, err := h.users.ListPatients(c.Request.Context(), c.Query("search"), page, limit)
	if err != nil {
		respondServiceError(c, err)
		return
	}
	respondOK(c, pagedResponse(paged.Users, paged.Total, paged.CurrentPage, paged.TotalPages))
}
