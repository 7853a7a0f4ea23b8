package v1

import (
	"context"
	"fmt"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"go.uber.org/zap"
)

type Deps struct {
	Config       *config.Config
	Auth         *service.AuthService
	Registration *service.RegistrationService
	Admin        *service.AdminService
	Patients     *service.PatientService
	Doctors      *service.DoctorService
	Metrics      *metrics.Collector
	Gatherer     prometheus.Gatherer
	Sessions     sessions.Store
	// Ping reports whether the database is reachable.
	Ping func(ctx context.Context) error
	Log  *zap.Logger
}

func NewRouter(d Deps) (*gin.Engine, error) {
	tmpl, err := parseTemplates()
	if err != nil {
		return nil, fmt.Errorf("parsing templates: %w", err)
	}

	r := gin.New()
	// forwarding headers only count from configured proxies; the limiter and
	// audit trail key on ClientIP
	if err := r.SetTrustedProxies(d.Config.Server.TrustedProxies); err != nil {
		return nil, fmt.Errorf("configuring trusted proxies: %w", err)
	}
	r.SetHTMLTemplate(tmpl)
	r.Use(
		gin.Recovery(),
		requestID(),
		tracing(),
		requestMetrics(d.Metrics),
		requestLogger(d.Log),
	)

	r.GET("/healthz", health(d.Ping))
	r.GET("/metrics", gin.WrapH(metrics.MetricsHandler(d.Gatherer)))

	limiter := newIPRateLimiter(d.Config.RateLimit.AuthRequestsPerMinute)
	limited := rateLimit(limiter)

	api := r.Group("/api/v1", corsPolicy(d.Config.CORS))
	{
		ah := &apiHandler{auth: d.Auth}
		// preflight requests are answered by the CORS middleware
		api.OPTIONS("/*path", func(c *gin.Context) { c.Status(http.StatusNoContent) })
		api.POST("/auth/token", limited, ah.token)
		api.POST("/auth/refresh", limited, ah.refresh)
		api.GET("/me", sessions.Sessions(d.Config.Session.CookieName, d.Sessions), authenticate(d.Auth, d.Log), requireAPIIdentity(), ah.me)
	}

	web := r.Group("/", sessions.Sessions(d.Config.Session.CookieName, d.Sessions), authenticate(d.Auth, d.Log))

	auth := &authHandler{auth: d.Auth, reg: d.Registration, log: d.Log}
	web.GET("/", auth.index)
	web.GET("/login", auth.loginForm)
	web.POST("/login", limited, auth.login)
	web.GET("/register", auth.registerForm)
	web.POST("/register", limited, auth.register)
	web.GET("/register_doctor", auth.registerDoctorForm)
	web.POST("/register_doctor", limited, auth.registerDoctor)
	web.GET("/logout", auth.logout)

	admin := web.Group("/admin", requireRole(domain.RoleAdmin))
	{
		h := &adminHandler{admin: d.Admin}
		admin.GET("", h.dashboard)
		admin.POST("", h.addDoctor)
		admin.GET("/edit_doctor/:id", h.editDoctorForm)
		admin.POST("/edit_doctor/:id", h.editDoctor)
		admin.GET("/delete_doctor/:id", h.deleteDoctor)
		admin.POST("/update_appointment/:id", h.updateAppointment)
		admin.GET("/delete_appointment/:id", h.deleteAppointment)
		admin.GET("/add_doctor", h.provisionForm)
		admin.POST("/add_doctor", h.provision)
	}

	patient := web.Group("/patient", requireRole(domain.RolePatient))
	{
		h := &patientHandler{patients: d.Patients}
		patient.GET("", h.dashboard)
		patient.POST("", h.book)
	}

	doc := web.Group("/doctor", requireRole(domain.RoleDoctor))
	{
		h := &doctorHandler{doctors: d.Doctors}
		doc.GET("", h.dashboard)
		doc.POST("", h.recordNotes)
		doc.GET("/done/:id", h.completeForm)
		doc.POST("/done/:id", h.complete)
	}

	return r, nil
}

func health(ping func(ctx context.Context) error) gin.HandlerFunc {
	return func(c *gin.Context) {
		if ping != nil {
			if err := ping(c.Request.Context()); err != nil {
				_ = c.Error(err)
				c.JSON(http.StatusServiceUnavailable, gin.H{"status": "unavailable"})
				return
			}
		}
		c.JSON(http.StatusOK, gin.H{"status": "ok"})
	}
}
