package v1

import (
	"errors"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

type adminHandler struct {
	admin *service.AdminService
}

func (h *adminHandler) dashboard(c *gin.Context) {
	h.renderDashboard(c, http.StatusOK, page{})
}

func (h *adminHandler) renderDashboard(c *gin.Context, status int, p page) {
	q := service.DashboardQuery{
		DoctorSearch:  c.Query("doc_search"),
		PatientSearch: c.Query("pat_search"),
	}
	dash, err := h.admin.Dashboard(c.Request.Context(), currentIdentity(c), q)
	if err != nil {
		fail(c, err)
		return
	}

	p.Title = "Admin"
	p.Dash = dash
	p.DocSearch = q.DoctorSearch
	p.PatSearch = q.PatientSearch
	render(c, status, "admin_dashboard.html", p)
}

// addDoctor handles the dashboard's quick-add form and re-renders the
// dashboard.
func (h *adminHandler) addDoctor(c *gin.Context) {
	d, err := h.admin.AddDoctor(c.Request.Context(), currentIdentity(c), &doctor.AddDoctorCommand{
		Name:           c.PostForm("name"),
		Specialization: c.PostForm("spec"),
	})
	if err != nil {
		status, message := classify(err)
		if status == http.StatusInternalServerError {
			fail(c, err)
			return
		}
		h.renderDashboard(c, status, page{Err: message})
		return
	}
	h.renderDashboard(c, http.StatusOK, page{Msg: "Doctor " + d.Name + " added"})
}

func (h *adminHandler) editDoctorForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	d, err := h.admin.GetDoctor(c.Request.Context(), currentIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "edit_doctor.html", page{Title: "Edit doctor", Doc: d})
}

func (h *adminHandler) editDoctor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	cmd := &doctor.UpdateDoctorCommand{
		Name:           c.PostForm("name"),
		Specialization: c.PostForm("spec"),
		Availability:   doctor.Availability(c.DefaultPostForm("availability", string(doctor.Available))),
	}

	err := h.admin.UpdateDoctor(c.Request.Context(), currentIdentity(c), id, cmd)
	var validErr *service.ValidationError
	switch {
	case err == nil:
		c.Redirect(http.StatusFound, "/admin")
	case errors.As(err, &validErr):
		submitted := &doctor.Doctor{ID: id, Name: cmd.Name, Specialization: cmd.Specialization, Availability: cmd.Availability}
		render(c, http.StatusBadRequest, "edit_doctor.html", page{Title: "Edit doctor", Doc: submitted, Err: validErr.Message()})
	default:
		fail(c, err)
	}
}

func (h *adminHandler) deleteDoctor(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if _, err := h.admin.DeleteDoctor(c.Request.Context(), currentIdentity(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

func (h *adminHandler) updateAppointment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.UpdateAppointmentStatus(c.Request.Context(), currentIdentity(c), id, c.PostForm("status")); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

func (h *adminHandler) deleteAppointment(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.admin.DeleteAppointment(c.Request.Context(), currentIdentity(c), id); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/admin")
}

func (h *adminHandler) provisionForm(c *gin.Context) {
	h.renderProvision(c, http.StatusOK, page{})
}

func (h *adminHandler) renderProvision(c *gin.Context, status int, p page) {
	creds, err := h.admin.ListCredentials(c.Request.Context(), currentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	p.Title = "Create doctor account"
	p.Creds = creds
	render(c, status, "add_doctor.html", p)
}

func (h *adminHandler) provision(c *gin.Context) {
	d, err := h.admin.ProvisionDoctor(c.Request.Context(), currentIdentity(c), &doctor.ProvisionDoctorCommand{
		Name:           c.PostForm("name"),
		Specialization: c.PostForm("spec"),
		Username:       c.PostForm("doc_user"),
		Password:       c.PostForm("doc_pass"),
	})
	if err != nil {
		status, message := classify(err)
		switch {
		case status == http.StatusInternalServerError:
			fail(c, err)
			return
		case errors.Is(err, domain.ErrUsernameTaken):
			message = "Username already exists"
		}
		h.renderProvision(c, status, page{Err: message})
		return
	}
	h.renderProvision(c, http.StatusOK, page{Msg: "Doctor account created for " + d.Name})
}
