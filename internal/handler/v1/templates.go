package v1

import (
	"embed"
	"html/template"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/appointment"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain/doctor"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/gin-gonic/gin"
)

//go:embed templates/*.html
var templateFS embed.FS

var templateFuncs = template.FuncMap{
	// text prints an optional column, nil as empty
	"text": func(s *string) string {
		if s == nil {
			return ""
		}
		return *s
	},
}

func parseTemplates() (*template.Template, error) {
	return template.New("").Funcs(templateFuncs).ParseFS(templateFS, "templates/*.html")
}

// page is the data handed to every template.
type page struct {
	Title string
	Who   *domain.Identity
	Err   string
	Msg   string

	DocSearch string
	PatSearch string
	Dash      *service.Dashboard
	Creds     []doctor.CredentialView
	Doc       *doctor.Doctor
	Docs      []doctor.Doctor
	Apps      any
	Appt      *appointment.DoctorView
}

func render(c *gin.Context, status int, name string, p page) {
	if p.Who == nil {
		p.Who = currentIdentity(c)
	}
	c.HTML(status, name, p)
}
