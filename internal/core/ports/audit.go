package ports

import (
	"context"

	"github.com/atreo/portal/internal/core/domain"
)

// AuditRepository persists audit events.
type AuditRepository interface {
	Insert(ctx context.Context, event *domain.AuditEvent) error
	// Recent returns at most limit events, newest first.
	Recent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}

// AuditRecorder accepts audit events without blocking the caller.
type AuditRecorder interface {
	Record(event domain.AuditEvent)
}

// AuditService processes and lists audit events.
type AuditService interface {
	Process(ctx context.Context, event domain.AuditEvent) error
	Recent(ctx context.Context, limit int) ([]*domain.AuditEvent, error)
}
