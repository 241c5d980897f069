package v1

import (
	"net/http"

	"github.com/findadoctor/api/internal/config"
	"github.com/findadoctor/api/internal/domain"
	"github.com/findadoctor/api/pkg/auth"
	"github.com/findadoctor/api/pkg/metrics"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type RouterDeps struct {
	Config     *config.Config
	Tokens     *auth.TokenManager
	Users      domain.UserRepository
	Metrics    *metrics.Collector
	Log        *zap.Logger
	Auth       *AuthHandler
	Patient    *PatientHandler
	Doctor     *DoctorHandler
	Staff      *StaffHandler
	Admin      *AdminHandler
	SuperAdmin *SuperAdminHandler
}

func NewRouter(deps RouterDeps) *gin.Engine {
	if deps.Config.App.Environment == "production" {
		gin.SetMode(gin.ReleaseMode)
	}

	r := gin.New()
	r.Use(gin.Recovery())
	r.Use(RequestLogger(deps.Log))
	r.Use(Metrics(deps.Metrics))
	r.Use(CORS(deps.Config.App.FrontendURL, deps.Config.CORS))

	r.GET("/health", func(c *gin.Context) {
		c.JSON(http.StatusOK, gin.H{"status": "ok", "version": deps.Config.App.Version})
	})
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler()))

	api := r.Group("/api")

	authRoutes := api.Group("/auth")
	{
		authRoutes.POST("/register", deps.Auth.Register)
		authRoutes.POST("/login", deps.Auth.Login)
		authRoutes.POST("/google-login", deps.Auth.GoogleLogin)
		authRoutes.POST("/forgot-password", deps.Auth.ForgotPassword)
		authRoutes.POST("/reset-password", deps.Auth.ResetPassword)
		authRoutes.POST("/logout", deps.Auth.Logout)
	}

	authenticated := Authenticate(deps.Tokens, deps.Users, deps.Config.Session.CookieName)

	patient := api.Group("/patient", authenticated, RequireRole(domain.RolePatient))
	{
		patient.GET("/profile", deps.Patient.GetProfile)
		patient.PUT("/profile", deps.Patient.UpdateProfile)
		patient.GET("/stats", deps.Patient.Stats)
		patient.GET("/doctors", deps.Patient.SearchDoctors)
		patient.GET("/doctors/:id", deps.Patient.GetDoctor)
		patient.POST("/appointments", deps.Patient.BookAppointment)
		patient.GET("/appointments", deps.Patient.ListAppointments)
		patient.POST("/appointments/:id/confirm-payment", deps.Patient.ConfirmPayment)
		patient.POST("/feedback", deps.Patient.SubmitFeedback)
		patient.GET("/feedback", deps.Patient.ListFeedback)
		patient.GET("/prescriptions", deps.Patient.ListPrescriptions)
		patient.GET("/prescriptions/:id", deps.Patient.GetPrescription)
		patient.POST("/spam-reports", deps.Patient.ReportSpam)
	}

	doctor := api.Group("/doctor", authenticated, RequireRole(domain.RoleDoctor), RequireActive())
	{
		doctor.GET("/profile", deps.Doctor.GetProfile)
		doctor.PUT("/profile", deps.Doctor.UpdateProfile)
		doctor.POST("/profile/picture", deps.Doctor.UploadProfilePicture)
		doctor.GET("/stats", deps.Doctor.Stats)
		doctor.GET("/appointments", deps.Doctor.ListAppointments)
		doctor.PATCH("/appointments/:id/status", deps.Doctor.UpdateAppointmentStatus)
		doctor.POST("/prescriptions", deps.Doctor.CreatePrescription)
		doctor.GET("/prescriptions", deps.Doctor.ListPrescriptions)
		doctor.PUT("/prescriptions/:id", deps.Doctor.UpdatePrescription)
		doctor.DELETE("/prescriptions/:id", deps.Doctor.DeletePrescription)
		doctor.GET("/feedback", deps.Doctor.ListFeedback)
		doctor.GET("/patients", deps.Doctor.ListPatients)
	}

	staff := api.Group("/staff", authenticated, RequireRole(domain.RoleStaff), RequireActive())
	{
		staff.GET("/profile", deps.Staff.GetProfile)
		staff.PUT("/profile", deps.Staff.UpdateProfile)
		staff.GET("/appointments", deps.Staff.ListAppointments)
		staff.PATCH("/appointments/:id/reschedule", deps.Staff.Reschedule)
		staff.POST("/prescriptions", deps.Staff.CreatePrescription)
		staff.POST("/prescriptions/upload", deps.Staff.UploadPrescriptionImage)
		staff.PUT("/prescriptions/:id", deps.Staff.UpdatePrescription)
		staff.DELETE("/prescriptions/:id", deps.Staff.DeletePrescription)
		staff.GET("/patients/:patientId/prescriptions", deps.Staff.ListPatientPrescriptions)
		staff.GET("/patients", deps.Staff.SearchPatients)
	}

	admin := api.Group("/admin", authenticated, RequireRole(domain.RoleAdmin, domain.RoleSuperAdmin))
	{
		admin.GET("/dashboard", deps.Admin.Dashboard)
		admin.GET("/feedback", deps.Admin.ListFeedback)
		admin.PATCH("/feedback/:id/moderate", deps.Admin.ModerateFeedback)
		admin.GET("/spam-reports", deps.Admin.ListSpamReports)
		admin.PATCH("/spam-reports/:id/resolve", deps.Admin.ResolveSpamReport)
	}

	superAdmin := api.Group("/super-admin", authenticated, RequireRole(domain.RoleSuperAdmin))
	{
		superAdmin.GET("/dashboard", deps.SuperAdmin.Dashboard)
		superAdmin.GET("/users", deps.SuperAdmin.ListUsers)
		superAdmin.PATCH("/users/:id/authorize", deps.SuperAdmin.AuthorizeUser)
		superAdmin.PATCH("/users/:id/ban", deps.SuperAdmin.BanUser)
	}

	return r
}
