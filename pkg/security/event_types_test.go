package security

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"go.uber.org/zap/zapcore"
)

func TestParseEventType(t *testing.T) {
	for _, et := range ValidEventTypes() {
		got, err := ParseEventType(string(et))
		assert.NoError(t, err)
		assert.Equal(t, et, got)
	}

	_, err := ParseEventType("password_changed")
	assert.Error(t, err)
	assert.False(t, IsValidEventType(""))
}

func TestParseSeverity(t *testing.T) {
	assert.True(t, IsValidSeverity("critical"))
	assert.False(t, IsValidSeverity("urgent"))
}

func TestDefaultSeverity(t *testing.T) {
	tests := []struct {
		event EventType
		want  Severity
		level zapcore.Level
	}{
		{EventTypeLoginSuccess, SeverityLow, zapcore.InfoLevel},
		{EventTypeLoginFailed, SeverityMedium, zapcore.WarnLevel},
		{EventTypeAccessDenied, SeverityMedium, zapcore.WarnLevel},
		{EventTypeRoleAssigned, SeverityHigh, zapcore.WarnLevel},
		{EventTypeAdminRegistered, SeverityCritical, zapcore.ErrorLevel},
	}

	for _, tt := range tests {
		t.Run(string(tt.event), func(t *testing.T) {
			sev := DefaultSeverity(tt.event)
			assert.Equal(t, tt.want, sev)
			assert.Equal(t, tt.level, sev.Level())
		})
	}
}
