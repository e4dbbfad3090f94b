// internal/workers/assistant/notify-emergency-escalation/models.go
package notifyemergencyescalation

import "concierge-workers/internal/assistant/escalation"

type Input struct {
	SchemeID       string                    `json:"schemeId"`
	Intent         string                    `json:"intent"`
	Target         escalation.Target         `json:"escalationTarget"`
	UrgencyLevel   escalation.Urgency        `json:"urgencyLevel"`
	UserQuestion   string                    `json:"userQuestion,omitempty"`
	SessionContext escalation.SessionContext `json:"sessionContext"`
}

// Alert outcomes.
const (
	StatusSent      = "sent"
	StatusDuplicate = "duplicate"
	StatusSkipped   = "skipped"
	StatusDisabled  = "disabled"
)

type Output struct {
	Alerted   bool   `json:"alerted"`
	Status    string `json:"alertStatus"`
	IssueKey  string `json:"alertIssueKey,omitempty"`
	MessageID string `json:"alertMessageId,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["schemeId", "urgencyLevel"],
  "properties": {
    "schemeId": {"type": "string", "minLength": 1},
    "intent": {"type": "string"},
    "escalationTarget": {"type": "string"},
    "urgencyLevel": {"enum": ["low", "medium", "high", "emergency"]},
    "userQuestion": {"type": "string"},
    "sessionContext": {"type": "object"}
  }
}`
