package v1

import (
	"errors"
	"net/http"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/config"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
	"github.com/dmehra2102/prod-golang-projects/hms/internal/service"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/metrics"
	"github.com/dmehra2102/prod-golang-projects/hms/pkg/tracer"
	"github.com/gin-contrib/cors"
	"github.com/gin-contrib/sessions"
	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/propagation"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	headerRequestID = "X-Request-ID"
	ctxRequestID    = "request_id"
	ctxIdentity     = "identity"
	sessionUserID   = "uid"
)

// requestID tags each request with an id, reusing one supplied by the
// client, and records the caller's address for audit entries.
func requestID() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(headerRequestID)
		if _, err := uuid.Parse(id); err != nil {
			id = uuid.NewString()
		}
		c.Set(ctxRequestID, id)
		c.Header(headerRequestID, id)

		ctx := service.WithClientInfo(c.Request.Context(), service.ClientInfo{IP: c.ClientIP(), RequestID: id})
		c.Request = c.Request.WithContext(ctx)
		c.Next()
	}
}

func requestLogger(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", c.Request.URL.Path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("latency", time.Since(start)),
			zap.String("ip", c.ClientIP()),
			zap.String("request_id", c.GetString(ctxRequestID)),
		}
		if who := currentIdentity(c); who != nil {
			fields = append(fields, zap.Uint("user_id", who.UserID))
		}

		switch {
		case len(c.Errors) > 0:
			log.Error("request failed", append(fields, zap.Error(c.Errors.Last()))...)
		case c.Writer.Status() >= http.StatusInternalServerError:
			log.Error("request completed", fields...)
		default:
			log.Info("request completed", fields...)
		}
	}
}

func requestMetrics(m *metrics.Collector) gin.HandlerFunc {
	return func(c *gin.Context) {
		m.InFlightGauge.Inc()
		defer m.InFlightGauge.Dec()

		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		status := strconv.Itoa(c.Writer.Status())
		m.RequestsTotal.WithLabelValues(c.Request.Method, path, status).Inc()
		m.RequestDuration.WithLabelValues(c.Request.Method, path, status).Observe(time.Since(start).Seconds())
	}
}

// tracing opens a server span per request, continuing any trace carried by
// the incoming headers.
func tracing() gin.HandlerFunc {
	tr := otel.Tracer(tracer.Name)
	return func(c *gin.Context) {
		ctx := otel.GetTextMapPropagator().Extract(c.Request.Context(), propagation.HeaderCarrier(c.Request.Header))

		route := c.FullPath()
		if route == "" {
			route = c.Request.URL.Path
		}
		ctx, span := tr.Start(ctx, c.Request.Method+" "+route,
			trace.WithSpanKind(trace.SpanKindServer),
			trace.WithAttributes(
				attribute.String("http.request.method", c.Request.Method),
				attribute.String("http.route", route),
			),
		)
		defer span.End()

		c.Request = c.Request.WithContext(ctx)
		c.Next()

		status := c.Writer.Status()
		span.SetAttributes(attribute.Int("http.response.status_code", status))
		if status >= http.StatusInternalServerError {
			span.SetStatus(codes.Error, http.StatusText(status))
		}
	}
}

func corsPolicy(cfg config.CORSConfig) gin.HandlerFunc {
	return cors.New(cors.Config{
		AllowOrigins:     cfg.AllowedOrigins,
		AllowMethods:     cfg.AllowedMethods,
		AllowHeaders:     cfg.AllowedHeaders,
		ExposeHeaders:    []string{headerRequestID},
		AllowCredentials: false,
		MaxAge:           cfg.MaxAge,
	})
}

// ipRateLimiter hands out one token bucket per client address. Buckets idle
// for longer than a full refill are dropped, since a fresh bucket behaves the
// same.
type ipRateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	idleTTL   time.Duration
	lastSweep time.Time
	now       func() time.Time
}

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

func newIPRateLimiter(perMinute int) *ipRateLimiter {
	return &ipRateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Every(time.Minute / time.Duration(perMinute)),
		burst:   perMinute,
		idleTTL: time.Minute,
		now:     time.Now,
	}
}

func (l *ipRateLimiter) allow(ip string) bool {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	if now.Sub(l.lastSweep) >= l.idleTTL {
		l.sweep(now)
	}

	c, ok := l.clients[ip]
	if !ok {
		c = &clientLimiter{limiter: rate.NewLimiter(l.limit, l.burst)}
		l.clients[ip] = c
	}
	c.lastSeen = now
	return c.limiter.AllowN(now, 1)
}

func (l *ipRateLimiter) sweep(now time.Time) {
	for ip, c := range l.clients {
		if now.Sub(c.lastSeen) >= l.idleTTL {
			delete(l.clients, ip)
		}
	}
	l.lastSweep = now
}

func rateLimit(l *ipRateLimiter) gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.allow(c.ClientIP()) {
			c.Header("Retry-After", "60")
			c.String(http.StatusTooManyRequests, "Too many requests")
			c.Abort()
			return
		}
		c.Next()
	}
}

// authenticate resolves the caller from a bearer access token or, failing
// that, from the session. Requests without either continue anonymously.
func authenticate(authSvc *service.AuthService, log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		ctx := c.Request.Context()

		if header := c.GetHeader("Authorization"); strings.HasPrefix(header, "Bearer ") {
			who, err := authSvc.ResolveToken(ctx, strings.TrimPrefix(header, "Bearer "))
			if err != nil {
				if !errors.Is(err, service.ErrInvalidCredentials) {
					log.Error("resolving bearer token", zap.Error(err))
				}
				respondError(c, http.StatusUnauthorized, "invalid or expired token")
				c.Abort()
				return
			}
			c.Set(ctxIdentity, who)
			c.Next()
			return
		}

		session := sessions.Default(c)
		uid, ok := session.Get(sessionUserID).(uint)
		if !ok {
			c.Next()
			return
		}

		who, err := authSvc.Resolve(ctx, uid)
		switch {
		case err == nil:
			c.Set(ctxIdentity, who)
		case errors.Is(err, domain.ErrUserNotFound):
			session.Clear()
			if err := session.Save(); err != nil {
				log.Warn("clearing stale session", zap.Error(err))
			}
		default:
			_ = c.Error(err)
			c.String(http.StatusInternalServerError, "Internal server error")
			c.Abort()
			return
		}
		c.Next()
	}
}

// requireRole sends anonymous callers to the login page and answers callers
// with another role with a bare 403.
func requireRole(role domain.Role) gin.HandlerFunc {
	return func(c *gin.Context) {
		who := currentIdentity(c)
		if who == nil {
			c.Redirect(http.StatusFound, "/login")
			c.Abort()
			return
		}
		if !who.Is(role) {
			c.String(http.StatusForbidden, "Forbidden")
			c.Abort()
			return
		}
		c.Next()
	}
}

func requireAPIIdentity() gin.HandlerFunc {
	return func(c *gin.Context) {
		if currentIdentity(c) == nil {
			respondError(c, http.StatusUnauthorized, "authentication required")
			c.Abort()
			return
		}
		c.Next()
	}
}

func currentIdentity(c *gin.Context) *domain.Identity {
	who, _ := c.Get(ctxIdentity)
	id, _ := who.(*domain.Identity)
	return id
}
