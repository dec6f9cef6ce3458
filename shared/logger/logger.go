// Copyright 2025 AxonFlow
// Licensed under the Apache License, Version 2.0 (the "License");
// you may not use this file except in compliance with the License.
// You may obtain a copy of the License at
//
//     http://www.apache.org/licenses/LICENSE-2.0
//
// Unless required by applicable law or agreed to in writing, software
// distributed under the License is distributed on an "AS IS" BASIS,
// WITHOUT WARRANTIES OR CONDITIONS OF ANY KIND, either express or implied.
// See the License for the specific language governing permissions and
// limitations under the License.

package logger

import (
	"encoding/json"
	"log"
	"os"
	"time"
)

// LogLevel represents the severity of a log entry
type LogLevel string

const (
	DEBUG LogLevel = "DEBUG"
	INFO  LogLevel = "INFO"
	WARN  LogLevel = "WARN"
	ERROR LogLevel = "ERROR"
)

// Logger provides structured JSON logging for the content gateway.
// Every entry carries the component name plus per-request context
// (caller, request ID) so a single request can be traced across the
// validation, lookup, and dispatch stages.
type Logger struct {
	Component  string
	InstanceID string
	Container  string
}

// LogEntry is one structured log line written to stdout
type LogEntry struct {
	Timestamp  string                 `json:"timestamp"`
	Level      LogLevel               `json:"level"`
	Component  string                 `json:"component"`
	InstanceID string                 `json:"instance_id"`
	Container  string                 `json:"container"`
	Caller     string                 `json:"caller,omitempty"`
	RequestID  string                 `json:"request_id,omitempty"`
	Message    string                 `json:"message"`
	Fields     map[string]interface{} `json:"fields,omitempty"`
}

// New creates a new Logger for the specified component
func New(component string) *Logger {
	instanceID := os.Getenv("INSTANCE_ID")
	if instanceID == "" {
		instanceID = "unknown"
	}

	container, err := os.Hostname()
	if err != nil {
		container = "unknown"
	}

	return &Logger{
		Component:  component,
		InstanceID: instanceID,
		Container:  container,
	}
}

// Log creates a structured log entry and writes it to stdout
func (l *Logger) Log(level LogLevel, caller, requestID, message string, fields map[string]interface{}) {
	entry := LogEntry{
		Timestamp:  time.Now().UTC().Format(time.RFC3339Nano),
		Level:      level,
		Component:  l.Component,
		InstanceID: l.InstanceID,
		Container:  l.Container,
		Caller:     caller,
		RequestID:  requestID,
		Message:    message,
		Fields:     fields,
	}

	jsonBytes, err := json.Marshal(entry)
	if err != nil {
		// Fallback to plain text if JSON marshaling fails
		log.Printf("ERROR: Failed to marshal log entry: %v", err)
		return
	}

	log.Println(string(jsonBytes))
}

// Info logs an informational message
func (l *Logger) Info(caller, requestID, message string, fields map[string]interface{}) {
	l.Log(INFO, caller, requestID, message, fields)
}

// Error logs an error message
func (l *Logger) Error(caller, requestID, message string, fields map[string]interface{}) {
	l.Log(ERROR, caller, requestID, message, fields)
}

// Warn logs a warning message
func (l *Logger) Warn(caller, requestID, message string, fields map[string]interface{}) {
	l.Log(WARN, caller, requestID, message, fields)
}

// Debug logs a debug message
func (l *Logger) Debug(caller, requestID, message string, fields map[string]interface{}) {
	l.Log(DEBUG, caller, requestID, message, fields)
}

// InfoWithDuration logs an info message with a duration field, used for
// the per-request completion line (task name, language, duration).
func (l *Logger) InfoWithDuration(caller, requestID, message string, durationMS float64, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["duration_ms"] = durationMS
	l.Info(caller, requestID, message, fields)
}

// ErrorWithCode logs an error with the HTTP status it was mapped to
func (l *Logger) ErrorWithCode(caller, requestID, message string, statusCode int, err error, fields map[string]interface{}) {
	if fields == nil {
		fields = make(map[string]interface{})
	}
	fields["status_code"] = statusCode
	if err != nil {
		fields["error"] = err.Error()
	}
	l.Error(caller, requestID, message, fields)
}
