package conversation

import "time"

// Direction marks which way a message travelled, from the service's point
// of view.
type Direction string

const (
	DirectionIncoming Direction = "incoming"
	DirectionOutgoing Direction = "outgoing"
)

// Message is one turn of a conversation. Rows are immutable once written.
type Message struct {
	ID        int64          `json:"id"`
	ProjectID int64          `json:"project_id"`
	From      string         `json:"from_number"`
	To        string         `json:"to_number"`
	Body      string         `json:"message_body"`
	Direction Direction      `json:"direction"`
	Timestamp time.Time      `json:"timestamp"`
	Metadata  map[string]any `json:"metadata,omitempty"`
}

// AppendInput carries the fields for one new log entry.
type AppendInput struct {
	ProjectID int64
	From      string
	To        string
	Body      string
	Direction Direction
	Timestamp time.Time
	Metadata  map[string]any
}

// Entry is a message joined with its project's display name, for the admin
// conversations view.
type Entry struct {
	Message
	ProjectName string `json:"project_name"`
}

// ProjectCount is the per-project message count for the analytics view.
type ProjectCount struct {
	ProjectID    int64  `json:"id"`
	ProjectName  string `json:"project_name"`
	MessageCount int64  `json:"message_count"`
}
