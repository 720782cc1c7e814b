package util

import (
	"bytes"
	"errors"
	"log"
	"strings"
	"testing"
)

// setupTestLogger creates a test logger that captures output and returns it for assertions
// along with a cleanup function to restore the original logger
func setupTestLogger() (*bytes.Buffer, func()) {
	buf := &bytes.Buffer{}
	originalLogger := eventLogger
	eventLogger = log.New(buf, "[EVENT] ", log.LstdFlags|log.Lmsgprefix)
	cleanup := func() {
		eventLogger = originalLogger
	}
	return buf, cleanup
}

// assertLogContains checks if the log output contains all expected substrings
func assertLogContains(t *testing.T, output string, expected []string) {
	t.Helper()
	for _, expectedSubstr := range expected {
		if !strings.Contains(output, expectedSubstr) {
			t.Errorf("Log output missing expected substring %q\nGot: %s", expectedSubstr, output)
		}
	}
}

func TestSanitizeLogValue(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "removes newlines",
			input:    "hello\nworld",
			expected: "hello world",
		},
		{
			name:     "removes carriage returns",
			input:    "hello\rworld",
			expected: "hello world",
		},
		{
			name:     "removes tabs",
			input:    "hello\tworld",
			expected: "hello world",
		},
		{
			name:     "truncates long values",
			input:    strings.Repeat("a", 250),
			expected: strings.Repeat("a", 200) + "...",
		},
		{
			name:     "handles normal strings",
			input:    "normal string",
			expected: "normal string",
		},
		{
			name:     "handles empty string",
			input:    "",
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := sanitizeLogValue(tt.input)
			if result != tt.expected {
				t.Errorf("sanitizeLogValue() = %q, want %q", result, tt.expected)
			}
		})
	}
}

func TestLogEventBasic(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogEvent(Event{
		EventType: EventPatientCreated,
		PatientID: "123",
		IP:        "192.168.1.1",
		UserAgent: "Mozilla/5.0",
		Message:   "Patient registered",
	})

	assertLogContains(t, buf.String(), []string{
		"Event=PATIENT_CREATED",
		"PatientID=123",
		"IP=192.168.1.1",
		"UserAgent=Mozilla/5.0",
		"Message=Patient registered",
	})
}

func TestLogEventSanitization(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogEvent(Event{
		EventType: EventChatbotReply,
		PatientID: "456",
		IP:        "192.168.1.2",
		UserAgent: "Chrome",
		Message:   "Reply\nwith\rbreaks",
	})

	assertLogContains(t, buf.String(), []string{
		"Event=CHATBOT_REPLY",
		"Message=Reply with breaks",
	})
}

func TestLogEventWithDetails(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogEvent(Event{
		EventType: EventEndpointCall,
		IP:        "10.0.0.1",
		Message:   "Endpoint called",
		Details: map[string]interface{}{
			"path":        "/submit",
			"status":      200,
			"duration_ms": int64(12),
		},
	})

	assertLogContains(t, buf.String(), []string{
		"Event=ENDPOINT_CALL",
		"path=/submit",
		"status=200",
		"duration_ms=12",
	})
}

func TestLogEventSanitizesDetails(t *testing.T) {
	buf, cleanup := setupTestLogger()
	defer cleanup()

	LogEvent(Event{
		EventType: EventEndpointCall,
		Message:   "Endpoint called",
		Details: map[string]interface{}{
			"query": "a=1\nb=2",
		},
	})

	output := buf.String()
	assertLogContains(t, output, []string{"query=a=1 b=2"})
	if strings.Contains(output, "a=1\nb=2") {
		t.Errorf("detail value logged with raw newline: %s", output)
	}
}

func TestPatientLogging(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func()
		contains []string
	}{
		{
			name: "LogPatientCreated",
			logFunc: func() {
				LogPatientCreated(PatientEventParams{PatientID: 123, Name: "Jane Doe", IP: "192.168.1.1", UserAgent: "Mozilla/5.0"})
			},
			contains: []string{
				"Event=PATIENT_CREATED",
				"PatientID=123",
				"IP=192.168.1.1",
				`Message=Patient "Jane Doe" registered`,
			},
		},
		{
			name: "LogPatientUpdated",
			logFunc: func() {
				LogPatientUpdated(PatientEventParams{PatientID: 123, IP: "192.168.1.1"})
			},
			contains: []string{
				"Event=PATIENT_UPDATED",
				"PatientID=123",
				"Message=Patient record updated",
			},
		},
		{
			name: "LogPatientDeleted",
			logFunc: func() {
				LogPatientDeleted(PatientEventParams{PatientID: 456, IP: "192.168.1.2"})
			},
			contains: []string{
				"Event=PATIENT_DELETED",
				"PatientID=456",
				"Message=Patient record deleted",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, cleanup := setupTestLogger()
			defer cleanup()

			tt.logFunc()
			assertLogContains(t, buf.String(), tt.contains)
		})
	}
}

func TestPrescriptionAndModelLogging(t *testing.T) {
	tests := []struct {
		name     string
		logFunc  func()
		contains []string
	}{
		{
			name: "LogPrescriptionCreated",
			logFunc: func() {
				LogPrescriptionCreated(PrescriptionEventParams{PrescriptionID: 9, PatientID: 123, IP: "192.168.1.1"})
			},
			contains: []string{
				"Event=PRESCRIPTION_CREATED",
				"PatientID=123",
				"Message=Prescription 9 stored",
			},
		},
		{
			name: "LogPrescriptionDeleted",
			logFunc: func() {
				LogPrescriptionDeleted(PrescriptionEventParams{PrescriptionID: 9, PatientID: 123, IP: "192.168.1.1"})
			},
			contains: []string{
				"Event=PRESCRIPTION_DELETED",
				"PatientID=123",
				"Message=Prescription 9 deleted",
			},
		},
		{
			name: "LogChatbotReply",
			logFunc: func() {
				LogChatbotReply(ChatbotEventParams{PatientID: 123, PatientName: "Jane Doe", IP: "192.168.1.1"})
			},
			contains: []string{
				"Event=CHATBOT_REPLY",
				"PatientID=123",
				`Message=Chatbot reply generated for "Jane Doe"`,
			},
		},
		{
			name: "LogModelRequestFailed",
			logFunc: func() {
				LogModelRequestFailed(ModelEventParams{Endpoint: "/submit", IP: "192.168.1.1", Err: errors.New("status 503")})
			},
			contains: []string{
				"Event=MODEL_REQUEST_FAILED",
				"Message=Model request failed on /submit: status 503",
			},
		},
		{
			name: "LogRateLimitExceeded",
			logFunc: func() {
				LogRateLimitExceeded(RateLimitParams{IP: "192.168.1.5", Endpoint: "/chatbot"})
			},
			contains: []string{
				"Event=RATE_LIMIT_EXCEEDED",
				"IP=192.168.1.5",
				"Message=Rate limit exceeded for endpoint: /chatbot",
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			buf, cleanup := setupTestLogger()
			defer cleanup()

			tt.logFunc()
			assertLogContains(t, buf.String(), tt.contains)
		})
	}
}
