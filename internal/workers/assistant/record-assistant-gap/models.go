// internal/workers/assistant/record-assistant-gap/models.go
package recordassistantgap

type Input struct {
	SchemeID         string   `json:"schemeId"`
	UserQuestion     string   `json:"userQuestion"`
	Intent           string   `json:"intent,omitempty"`
	GapReason        string   `json:"gapReason"`
	AttemptedSources []string `json:"attemptedSources,omitempty"`
	FinalSource      string   `json:"finalSource,omitempty"`
	PlaybookUsed     bool     `json:"playbookUsed"`
}

type Output struct {
	GapLogID     string `json:"gapLogId"`
	GapReason    string `json:"gapReason"`
	SuggestedFix string `json:"suggestedFix"`
	FixPriority  string `json:"fixPriority"`
}

const inputSchema = `{
  "type": "object",
  "required": ["schemeId", "userQuestion", "gapReason"],
  "properties": {
    "schemeId": {"type": "string", "minLength": 1},
    "userQuestion": {"type": "string", "minLength": 1},
    "intent": {"type": "string"},
    "gapReason": {"type": "string", "minLength": 1},
    "attemptedSources": {"type": "array", "items": {"type": "string"}},
    "finalSource": {"type": "string"},
    "playbookUsed": {"type": "boolean"}
  }
}`
