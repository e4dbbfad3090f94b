// internal/workers/assistant/route-escalation/models.go
package routeescalation

import "concierge-workers/internal/assistant/escalation"

type Input struct {
	SchemeID       string                    `json:"schemeId"`
	Intent         string                    `json:"intent"`
	Confidence     escalation.Confidence     `json:"confidence"`
	GapReason      string                    `json:"gapReason,omitempty"`
	Response       string                    `json:"response"`
	SessionContext escalation.SessionContext `json:"sessionContext"`
}

type Output struct {
	Escalated    bool               `json:"escalated"`
	Target       escalation.Target  `json:"escalationTarget,omitempty"`
	UrgencyLevel escalation.Urgency `json:"urgencyLevel,omitempty"`
	Guidance     string             `json:"guidance,omitempty"`
	Response     string             `json:"response"`
	// FallbackResponse is set when routing happened but the guard suppressed
	// the guidance.
	FallbackResponse string `json:"fallbackResponse,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "required": ["intent"],
  "properties": {
    "schemeId": {"type": "string"},
    "intent": {"type": "string"},
    "confidence": {"type": "string", "enum": ["high", "medium", "low", "none"]},
    "gapReason": {"type": "string"},
    "response": {"type": "string"},
    "sessionContext": {
      "type": "object",
      "properties": {
        "block": {"type": "string"},
        "unitNumber": {"type": "string"},
        "developmentName": {"type": "string"},
        "issueType": {"type": "string"}
      }
    }
  }
}`
