package models

import "time"

// Message types for the live analysis session
const (
	MessageTypeAnalyze         = "analyze"
	MessageTypeSuggest         = "suggest"
	MessageTypeHeartbeat       = "heartbeat"
	MessageTypeAnalysisStarted = "analysis_started"
	MessageTypeAnalysisResult  = "analysis_result"
	MessageTypeSuggestions     = "suggestions"
	MessageTypeError           = "error"
)

// ClientMessage represents a message from client to server
type ClientMessage struct {
	Type    string         `json:"type"`
	Payload map[string]any `json:"payload,omitempty"`
}

// ServerMessage represents a message from server to client
type ServerMessage struct {
	Type      string    `json:"type"`
	RunID     string    `json:"run_id,omitempty"`
	Payload   any       `json:"payload,omitempty"`
	Timestamp time.Time `json:"timestamp"`
}

// SuggestRequest asks for team candidates matching a partial name
type SuggestRequest struct {
	Query string `json:"query"`
}

// ErrorMessage represents an error sent to a client
type ErrorMessage struct {
	Code    string `json:"code"`
	Message string `json:"message"`
}
