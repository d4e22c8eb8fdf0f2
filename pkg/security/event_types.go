// pkg/security/event_types.go
package security

import (
	"fmt"

	"go.uber.org/zap/zapcore"
)

// EventType names a security-relevant action.
type EventType string

// Event types
const (
	EventTypeLoginSuccess    EventType = "login_success"
	EventTypeLoginFailed     EventType = "login_failed"
	EventTypeLogout          EventType = "logout"
	EventTypeAdminRegistered EventType = "admin_registered"
	EventTypeRoleAssigned    EventType = "role_assigned"
	EventTypeAccessDenied    EventType = "access_denied"
)

// Severity grades a security event.
type Severity string

// Severities
const (
	SeverityLow      Severity = "low"
	SeverityMedium   Severity = "medium"
	SeverityHigh     Severity = "high"
	SeverityCritical Severity = "critical"
)

// ParseEventType converts a raw string into an EventType.
func ParseEventType(s string) (EventType, error) {
	switch t := EventType(s); t {
	case EventTypeLoginSuccess, EventTypeLoginFailed, EventTypeLogout,
		EventTypeAdminRegistered, EventTypeRoleAssigned, EventTypeAccessDenied:
		return t, nil
	default:
		return "", fmt.Errorf("unknown event type: %s", s)
	}
}

// ParseSeverity converts a raw string into a Severity.
func ParseSeverity(s string) (Severity, error) {
	switch sev := Severity(s); sev {
	case SeverityLow, SeverityMedium, SeverityHigh, SeverityCritical:
		return sev, nil
	default:
		return "", fmt.Errorf("unknown severity: %s", s)
	}
}

// DefaultSeverity is the severity recorded for an event type.
func DefaultSeverity(t EventType) Severity {
	switch t {
	case EventTypeLoginSuccess, EventTypeLogout:
		return SeverityLow
	case EventTypeLoginFailed, EventTypeAccessDenied:
		return SeverityMedium
	case EventTypeRoleAssigned:
		return SeverityHigh
	case EventTypeAdminRegistered:
		return SeverityCritical
	default:
		return SeverityMedium
	}
}

// Level maps a severity to the log level it is written at.
func (s Severity) Level() zapcore.Level {
	switch s {
	case SeverityLow:
		return zapcore.InfoLevel
	case SeverityMedium, SeverityHigh:
		return zapcore.WarnLevel
	case SeverityCritical:
		return zapcore.ErrorLevel
	default:
		return zapcore.WarnLevel
	}
}

// ValidEventTypes returns all valid event types
func ValidEventTypes() []EventType {
	return []EventType{
		EventTypeLoginSuccess,
		EventTypeLoginFailed,
		EventTypeLogout,
		EventTypeAdminRegistered,
		EventTypeRoleAssigned,
		EventTypeAccessDenied,
	}
}

// IsValidEventType checks if the event type string is valid
func IsValidEventType(s string) bool {
	_, err := ParseEventType(s)
	return err == nil
}

// IsValidSeverity checks if the severity string is valid
func IsValidSeverity(s string) bool {
	_, err := ParseSeverity(s)
	return err == nil
}
