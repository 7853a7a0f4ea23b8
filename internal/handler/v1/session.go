package v1

import (
	"fmt"
	"net/http"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/gin-contrib/sessions"
	"github.com/gin-contrib/sessions/cookie"
	gormsessions "github.com/gin-contrib/sessions/gorm"
	"gorm.io/gorm"
)

// NewSessionStore builds the store named by cfg.Store. The gorm store keeps
// session rows in db; cleanup starts its background purge of expired rows.
func NewSessionStore(cfg config.SessionConfig, db *gorm.DB, cleanup bool) (sessions.Store, error) {
	var store sessions.Store
	switch cfg.Store {
	case "gorm":
		store = gormsessions.NewStore(db, cleanup, []byte(cfg.Secret))
	case "cookie":
		store = cookie.NewStore([]byte(cfg.Secret))
	default:
		return nil, fmt.Errorf("unknown session store %q", cfg.Store)
	}

	store.Options(sessions.Options{
		Path:     "/",
		MaxAge:   int(cfg.MaxAge.Seconds()),
		Secure:   cfg.Secure,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})
	return store, nil
}
