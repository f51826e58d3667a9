package logging

import (
	"go.uber.org/zap"
)

// AuditEventType names one kind of audit record.
type AuditEventType string

const (
	AuditCommit        AuditEventType = "commit"         // A transition was applied
	AuditReject        AuditEventType = "reject"         // An action was refused
	AuditThemeResolved AuditEventType = "theme_resolved" // Session start theme decided
	AuditThemeExternal AuditEventType = "theme_external" // Theme changed by another process
	AuditSubmit        AuditEventType = "submit"         // Contact form sent
	AuditSubmitResult  AuditEventType = "submit_result"  // Relay answered
	AuditSession       AuditEventType = "session"        // Shell started or stopped
)

// Audit writes one structured record to the audit category. Every record carries the
// event type under "event" so the log can be filtered with jq.
func Audit(event AuditEventType, fields ...zap.Field) {
	l := Get(CategoryAudit)
	if l.Core().Enabled(zap.InfoLevel) {
		l.Info(string(event), append([]zap.Field{zap.String("event", string(event))}, fields...)...)
	}
}
