package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
)

type authHandler struct {
	auth *service.AuthService
	reg  *service.RegistrationService
	log  *zap.Logger
}

// index sends each role to its dashboard.
func (h *authHandler) index(c *gin.Context) {
	who := currentIdentity(c)
	switch {
	case who == nil:
		c.Redirect(http.StatusFound, "/login")
	case who.Is(domain.RoleAdmin):
		c.Redirect(http.StatusFound, "/admin")
	case who.Is(domain.RoleDoctor):
		c.Redirect(http.StatusFound, "/doctor")
	default:
		c.Redirect(http.StatusFound, "/patient")
	}
}

func (h *authHandler) loginForm(c *gin.Context) {
	render(c, http.StatusOK, "login.html", page{Title: "Login"})
}

func (h *authHandler) login(c *gin.Context) {
	who, err := h.auth.Login(c.Request.Context(), c.PostForm("u"), c.PostForm("p"))
	if err != nil {
		formError(c, "login.html", page{Title: "Login"}, err)
		return
	}

	session := sessions.Default(c)
	session.Clear()
	session.Set(sessionUserID, who.UserID)
	if err := session.Save(); err != nil {
		_ = c.Error(err)
		c.String(http.StatusInternalServerError, "Internal server error")
		return
	}
	c.Redirect(http.StatusFound, "/")
}

func (h *authHandler) logout(c *gin.Context) {
	h.auth.Logout(c.Request.Context(), currentIdentity(c))

	session := sessions.Default(c)
	session.Clear()
	session.Options(sessions.Options{Path: "/", MaxAge: -1})
	if err := session.Save(); err != nil {
		h.log.Warn("clearing session on logout", zap.Error(err))
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *authHandler) registerForm(c *gin.Context) {
	render(c, http.StatusOK, "register.html", page{Title: "Register"})
}

func (h *authHandler) register(c *gin.Context) {
	if _, err := h.reg.RegisterPatient(c.Request.Context(), c.PostForm("u"), c.PostForm("p")); err != nil {
		formError(c, "register.html", page{Title: "Register"}, err)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

func (h *authHandler) registerDoctorForm(c *gin.Context) {
	render(c, http.StatusOK, "register_doctor.html", page{Title: "Doctor registration"})
}

func (h *authHandler) registerDoctor(c *gin.Context) {
	_, err := h.reg.RegisterDoctor(c.Request.Context(), &doctor.RegisterDoctorCommand{
		Username:       c.PostForm("u"),
		Password:       c.PostForm("p"),
		Name:           c.PostForm("name"),
		Specialization: c.PostForm("spec"),
	})
	if err != nil {
		formError(c, "register_doctor.html", page{Title: "Doctor registration"}, err)
		return
	}
	c.Redirect(http.StatusFound, "/login")
}

// formError re-renders a form with the message for err. Server faults are
// recorded on the context for the request logger.
func formError(c *gin.Context, name string, p page, err error) {
	status, message := classify(err)
	if status == http.StatusInternalServerError {
		_ = c.Error(err)
	}
	p.Err = message
	render(c, status, name, p)
}
