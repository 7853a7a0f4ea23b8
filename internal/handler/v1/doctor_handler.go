package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

type doctorHandler struct {
	doctors *service.DoctorService
}

func (h *doctorHandler) dashboard(c *gin.Context) {
	apps, err := h.doctors.Upcoming(c.Request.Context(), currentIdentity(c))
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "doctor_dashboard.html", page{Title: "Doctor", Apps: apps})
}

func notesFrom(c *gin.Context) *appointment.ClinicalNotesCommand {
	return &appointment.ClinicalNotesCommand{
		Diagnosis: c.PostForm("diagnosis"),
		Notes:     c.PostForm("notes"),
	}
}

// recordNotes saves diagnosis and notes and shows the dashboard again. An
// appointment id the doctor does not own changes nothing.
func (h *doctorHandler) recordNotes(c *gin.Context) {
	err := h.doctors.RecordNotes(c.Request.Context(), currentIdentity(c), formID(c, "appointment_id"), notesFrom(c))
	if err != nil {
		fail(c, err)
		return
	}
	h.dashboard(c)
}

func (h *doctorHandler) completeForm(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	appt, err := h.doctors.AppointmentForCompletion(c.Request.Context(), currentIdentity(c), id)
	if err != nil {
		fail(c, err)
		return
	}
	render(c, http.StatusOK, "doctor_mark_complete.html", page{Title: "Complete appointment", Appt: appt})
}

func (h *doctorHandler) complete(c *gin.Context) {
	id, ok := parseID(c, "id")
	if !ok {
		return
	}
	if err := h.doctors.Complete(c.Request.Context(), currentIdentity(c), id, notesFrom(c)); err != nil {
		fail(c, err)
		return
	}
	c.Redirect(http.StatusFound, "/doctor")
}
