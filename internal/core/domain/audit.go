package domain

import "time"

// AuditKind classifies an AuditEvent.
type AuditKind string

const (
	AuditLogin         AuditKind = "login"
	AuditLoginFailed   AuditKind = "login_failed"
	AuditSignup        AuditKind = "signup"
	AuditLogout        AuditKind = "logout"
	AuditRestore       AuditKind = "restore"
	AuditRestoreFailed AuditKind = "restore_failed"
	AuditTabCoerced    AuditKind = "tab_coerced"
	AuditAccessDenied  AuditKind = "access_denied"
)

// AuditEvent records a session or authorization event for the admin logs page.
type AuditEvent struct {
	ID        string    `json:"id" bson:"_id"`
	SessionID string    `json:"session_id" bson:"session_id"`
	UserID    string    `json:"user_id,omitempty" bson:"user_id,omitempty"`
	Email     string    `json:"email,omitempty" bson:"email,omitempty"`
	Kind      AuditKind `json:"kind" bson:"kind"`
	Detail    string    `json:"detail,omitempty" bson:"detail,omitempty"`
	At        time.Time `json:"at" bson:"at"`
}
