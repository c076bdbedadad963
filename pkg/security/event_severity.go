package security

import "go.uber.org/zap/zapcore"

// Severity classifies an audit event for alerting. It is derived from the
// EventType, never supplied by the caller.
type Severity string

const (
	SeverityINFO   Severity = "INFO"
	SeverityMEDIUM Severity = "MEDIUM"
	SeverityHIGH   Severity = "HIGH"
)

var EventSeverityMap = map[EventType]Severity{
	// Client mistakes, expected in normal traffic
	EventValidationFailed: SeverityINFO,

	// Abuse signals
	EventRateLimitTriggered: SeverityMEDIUM,

	// Someone probing the admin listing, or a lead that may never be answered
	EventUnauthorizedAccess: SeverityHIGH,
	EventEmailDegraded:      SeverityHIGH,
}

// GetSeverity returns the severity for an event type.
// Unmapped events default to MEDIUM.
func GetSeverity(eventType EventType) Severity {
	if severity, ok := EventSeverityMap[eventType]; ok {
		return severity
	}
	return SeverityMEDIUM
}

// IsHighOrAbove reports whether the event should page someone.
func IsHighOrAbove(eventType EventType) bool {
	return GetSeverity(eventType) == SeverityHIGH
}

func levelFor(event EventType) zapcore.Level {
	switch GetSeverity(event) {
	case SeverityHIGH:
		return zapcore.ErrorLevel
	case SeverityMEDIUM, SeverityINFO:
		return zapcore.WarnLevel
	}
	return zapcore.InfoLevel
}
