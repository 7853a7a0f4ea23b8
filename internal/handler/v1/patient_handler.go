package v1

import (
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

type patientHandler struct {
	patients *service.PatientService
}

func (h *patientHandler) dashboard(c *gin.Context) {
	h.show(c, http.StatusOK, page{})
}

func (h *patientHandler) show(c *gin.Context, status int, p page) {
	ctx, who := c.Request.Context(), currentIdentity(c)

	docs, err := h.patients.AvailableDoctors(ctx, who)
	if err != nil {
		fail(c, err)
		return
	}
	apps, err := h.patients.MyAppointments(ctx, who)
	if err != nil {
		fail(c, err)
		return
	}

	p.Title = "Patient"
	p.Docs = docs
	p.Apps = apps
	render(c, status, "patient_dashboard.html", p)
}

func (h *patientHandler) book(c *gin.Context) {
	_, err := h.patients.Book(c.Request.Context(), currentIdentity(c), &appointment.BookAppointmentCommand{
		DoctorID: formID(c, "doc_id"),
		Date:     c.PostForm("date"),
	})
	if err != nil {
		status, message := classify(err)
		if status == http.StatusInternalServerError {
			fail(c, err)
			return
		}
		h.show(c, status, page{Err: message})
		return
	}
	h.show(c, http.StatusOK, page{Msg: "Appointment booked"})
}
