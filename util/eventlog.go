package util

import (
	"fmt"
	"log"
	"os"
	"sort"
	"strings"
)

// EventType represents different types of clinical and operational events
type EventType string

const (
	EventPatientCreated       EventType = "PATIENT_CREATED"
	EventPatientUpdated       EventType = "PATIENT_UPDATED"
	EventPatientDeleted       EventType = "PATIENT_DELETED"
	EventPrescriptionCreated  EventType = "PRESCRIPTION_CREATED"
	EventPrescriptionDeleted  EventType = "PRESCRIPTION_DELETED"
	EventChatbotReply         EventType = "CHATBOT_REPLY"
	EventModelRequestFailed   EventType = "MODEL_REQUEST_FAILED"
	EventRateLimitExceeded    EventType = "RATE_LIMIT_EXCEEDED"
	EventRateLimitCheckFailed EventType = "RATE_LIMIT_CHECK_FAILED"
	EventEndpointCall         EventType = "ENDPOINT_CALL"
)

// Event represents an audit event to be logged
type Event struct {
	EventType EventType
	PatientID string
	IP        string
	UserAgent string
	Message   string
	Details   map[string]interface{}
}

var eventLogger *log.Logger

func init() {
	// Events go to stdout only; the store schema stays limited to the two
	// clinical tables, so there is no audit table to persist into.
	eventLogger = log.New(os.Stdout, "[EVENT] ", log.LstdFlags|log.Lmsgprefix)
}

// sanitizeLogValue removes newlines and other characters that could break log parsing
func sanitizeLogValue(value string) string {
	// Replace newlines, carriage returns, and tabs with spaces
	value = strings.ReplaceAll(value, "\n", " ")
	value = strings.ReplaceAll(value, "\r", " ")
	value = strings.ReplaceAll(value, "\t", " ")
	// Truncate very long values to prevent log flooding
	if len(value) > 200 {
		value = value[:200] + "..."
	}
	return value
}

// LogEvent logs an audit event
func LogEvent(event Event) {
	// Sanitize all string fields to prevent log injection
	msg := fmt.Sprintf("Event=%s PatientID=%s IP=%s UserAgent=%s Message=%s",
		sanitizeLogValue(string(event.EventType)),
		sanitizeLogValue(event.PatientID),
		sanitizeLogValue(event.IP),
		sanitizeLogValue(event.UserAgent),
		sanitizeLogValue(event.Message),
	)

	// Attempt to resolve city/country for the IP (best-effort, local DB then cache)
	loc := GetIPLocation(event.IP)
	var location string
	if loc.City != "" && loc.Country != "" {
		location = fmt.Sprintf("%s/%s", loc.City, loc.Country)
	} else if loc.Country != "" {
		location = loc.Country
	} else if loc.City != "" {
		location = loc.City
	}
	if location != "" {
		msg = fmt.Sprintf("%s Location=%s", msg, sanitizeLogValue(location))
	}

	if len(event.Details) > 0 {
		// Details are rendered in key order, sanitized like every other field
		keys := make([]string, 0, len(event.Details))
		for key := range event.Details {
			keys = append(keys, key)
		}
		sort.Strings(keys)
		for _, key := range keys {
			msg = fmt.Sprintf("%s %s=%s", msg,
				sanitizeLogValue(key),
				sanitizeLogValue(fmt.Sprintf("%v", event.Details[key])))
		}
	}

	eventLogger.Println(msg)
}

// PatientEventParams identifies a patient record event and its request origin
type PatientEventParams struct {
	PatientID uint
	Name      string
	IP        string
	UserAgent string
}

// LogPatientCreated logs a new patient record
func LogPatientCreated(p PatientEventParams) {
	LogEvent(Event{
		EventType: EventPatientCreated,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   fmt.Sprintf("Patient %q registered", p.Name),
	})
}

// LogPatientUpdated logs a change to an existing patient record
func LogPatientUpdated(p PatientEventParams) {
	LogEvent(Event{
		EventType: EventPatientUpdated,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   "Patient record updated",
	})
}

// LogPatientDeleted logs the removal of a patient record
func LogPatientDeleted(p PatientEventParams) {
	LogEvent(Event{
		EventType: EventPatientDeleted,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   "Patient record deleted",
	})
}

// PrescriptionEventParams identifies a stored prescription and its request origin
type PrescriptionEventParams struct {
	PrescriptionID uint
	PatientID      uint
	IP             string
	UserAgent      string
}

// LogPrescriptionCreated logs a newly stored prescription
func LogPrescriptionCreated(p PrescriptionEventParams) {
	LogEvent(Event{
		EventType: EventPrescriptionCreated,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   fmt.Sprintf("Prescription %d stored", p.PrescriptionID),
	})
}

// LogPrescriptionDeleted logs the removal of a stored prescription
func LogPrescriptionDeleted(p PrescriptionEventParams) {
	LogEvent(Event{
		EventType: EventPrescriptionDeleted,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   fmt.Sprintf("Prescription %d deleted", p.PrescriptionID),
	})
}

// ChatbotEventParams identifies a chatbot exchange and its request origin
type ChatbotEventParams struct {
	PatientID   uint
	PatientName string
	IP          string
	UserAgent   string
}

// LogChatbotReply logs a generated chatbot answer
func LogChatbotReply(p ChatbotEventParams) {
	LogEvent(Event{
		EventType: EventChatbotReply,
		PatientID: fmt.Sprintf("%d", p.PatientID),
		IP:        p.IP,
		UserAgent: p.UserAgent,
		Message:   fmt.Sprintf("Chatbot reply generated for %q", p.PatientName),
	})
}

// ModelEventParams describes a failed inference call
type ModelEventParams struct {
	Endpoint string
	IP       string
	Err      error
}

// LogModelRequestFailed logs an inference call that errored or returned garbage
func LogModelRequestFailed(p ModelEventParams) {
	LogEvent(Event{
		EventType: EventModelRequestFailed,
		IP:        p.IP,
		Message:   fmt.Sprintf("Model request failed on %s: %v", p.Endpoint, p.Err),
	})
}

// RateLimitParams describes a throttled request
type RateLimitParams struct {
	IP       string
	Endpoint string
}

// LogRateLimitExceeded logs when rate limit is exceeded
func LogRateLimitExceeded(p RateLimitParams) {
	LogEvent(Event{
		EventType: EventRateLimitExceeded,
		IP:        p.IP,
		Message:   fmt.Sprintf("Rate limit exceeded for endpoint: %s", p.Endpoint),
	})
}

// GetEventLoggerForTest returns the current event logger for testing purposes
func GetEventLoggerForTest() *log.Logger {
	return eventLogger
}

// SetEventLoggerForTest sets a custom logger for testing purposes
func SetEventLoggerForTest(logger *log.Logger) {
	eventLogger = logger
}
