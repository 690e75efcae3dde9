// Package protocol defines the wire data model exchanged with the ingestion
// endpoint: events, exceptions, messages, and the small pieces of metadata
// that ride along with them. None of these types know about transport,
// retry, or dispatch — they are the external data model the dispatch core
// treats as opaque payload.
package protocol

import (
	"time"

	"github.com/google/uuid"
)

// Level is the severity of a captured event.
type Level string

const (
	LevelDebug   Level = "debug"
	LevelInfo    Level = "info"
	LevelWarning Level = "warning"
	LevelError   Level = "error"
	LevelFatal   Level = "fatal"
)

// SdkInfo identifies the client SDK that produced an event.
type SdkInfo struct {
	Name    string `json:"name"`
	Version string `json:"version"`
}

// Breadcrumb is a single recorded step leading up to an event.
type Breadcrumb struct {
	Timestamp time.Time         `json:"timestamp"`
	Message   string            `json:"message,omitempty"`
	Category  string            `json:"category,omitempty"`
	Level     Level             `json:"level,omitempty"`
	Data      map[string]string `json:"data,omitempty"`
}

// Exception describes a single error in a captured chain. An Event's
// Exceptions list holds one entry per error in the chain, outermost first,
// matching how Go's error wrapping is unwound with errors.Unwrap.
type Exception struct {
	Type       string   `json:"type"`
	Value      string   `json:"value"`
	Stacktrace []string `json:"stacktrace,omitempty"`
}

// Message is a free-form log-style capture, as opposed to a structured
// exception.
type Message struct {
	Formatted string `json:"formatted"`
	Level     Level  `json:"level"`
}

// Event is the envelope submitted to the ingestion endpoint. Exactly one of
// Exceptions or Message is normally populated; Extra carries user-attached
// structured context.
type Event struct {
	EventID     string            `json:"event_id"`
	Timestamp   time.Time         `json:"timestamp"`
	Level       Level             `json:"level"`
	Message     *Message          `json:"message,omitempty"`
	Exceptions  []Exception       `json:"exception,omitempty"`
	Breadcrumbs []Breadcrumb      `json:"breadcrumbs,omitempty"`
	Tags        map[string]string `json:"tags,omitempty"`
	User        map[string]string `json:"user,omitempty"`
	Extra       map[string]any    `json:"extra,omitempty"`
	Sdk         SdkInfo           `json:"sdk"`
	Fingerprint []string          `json:"fingerprint,omitempty"`
}

// NewEventID returns a fresh random event identifier.
func NewEventID() string {
	return uuid.New().String()
}
