package service

import (
	"context"
	"errors"
	"strings"

	"github.com/dmehra2102/prod-golang-projects/hms/internal/domain"
)

var (
	ErrForbidden          = errors.New("forbidden: insufficient permissions")
	ErrInvalidCredentials = errors.New("invalid username or password")
)

// ValidationError lists user-facing messages for rejected input. No state
// has been changed when it is returned.
type ValidationError struct {
	Fields []string
}

func (e *ValidationError) Error() string {
	return "validation failed: " + strings.Join(e.Fields, "; ")
}

// Message is the text shown next to the form that was rejected.
func (e *ValidationError) Message() string {
	return strings.Join(e.Fields, "; ")
}

func invalid(fields ...string) error {
	return &ValidationError{Fields: fields}
}

type AuditEntry struct {
	UserID       uint
	UserRole     domain.Role
	Action       domain.AuditAction
	ResourceType string
	ResourceID   string
	StatusCode   int
	Changes      string
}

// ClientInfo identifies the network origin of a request for audit entries.
type ClientInfo struct {
	IP        string
	RequestID string
}

type clientInfoKey struct{}

func WithClientInfo(ctx context.Context, info ClientInfo) context.Context {
	return context.WithValue(ctx, clientInfoKey{}, info)
}

func clientInfoFrom(ctx context.Context) ClientInfo {
	info, _ := ctx.Value(clientInfoKey{}).(ClientInfo)
	return info
}

func requireRole(who *domain.Identity, role domain.Role) error {
	if !who.Is(role) {
		return ErrForbidden
	}
	return nil
}
