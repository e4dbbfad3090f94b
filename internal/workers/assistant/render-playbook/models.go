// internal/workers/assistant/render-playbook/models.go
package renderplaybook

import "concierge-workers/internal/assistant/playbook"

type Input struct {
	SchemeID    string `json:"schemeId"`
	Query       string `json:"query"`
	Topic       string `json:"topic,omitempty"`
	Section     string `json:"section,omitempty"`
	MaxSections int    `json:"maxSections,omitempty"`
}

type Output struct {
	Matched               bool           `json:"matched"`
	Topic                 playbook.Topic `json:"topic,omitempty"`
	Content               string         `json:"content"`
	IsGenericFallback     bool           `json:"isGenericFallback"`
	SchemeFieldsAvailable []string       `json:"schemeFieldsAvailable"`
	SchemeFieldsMissing   []string       `json:"schemeFieldsMissing"`
	SourceHint            string         `json:"sourceHint,omitempty"`
}

const inputSchema = `{
  "type": "object",
  "properties": {
    "schemeId": {"type": "string"},
    "query": {"type": "string"},
    "topic": {"type": "string"},
    "section": {"type": "string"},
    "maxSections": {"type": "integer", "minimum": 0}
  },
  "anyOf": [
    {"required": ["query"]},
    {"required": ["topic"]}
  ]
}`
