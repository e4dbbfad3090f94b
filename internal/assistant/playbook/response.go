package playbook

// GenericSourceHint labels answers built from playbooks rather than scheme
// documents.
const GenericSourceHint = "Source: General guidance"

// UnknownValue is what the scheme setup form stores for an unanswered enum.
const UnknownValue = "unknown"

type Response struct {
	Topic                 Topic    `json:"topic"`
	Content               string   `json:"content"`
	IsGenericFallback     bool     `json:"isGenericFallback"`
	SchemeFieldsAvailable []string `json:"schemeFieldsAvailable"`
	SchemeFieldsMissing   []string `json:"schemeFieldsMissing"`
}

// GenerateResponse renders the full playbook for topic and reports which of
// its scheme fields were filled. A playbook that can be personalised but had
// no usable fields is marked as a generic fallback.
func GenerateResponse(topic Topic, ctx SchemeContext) (*Response, bool) {
	tpl, ok := Get(topic)
	if !ok {
		return nil, false
	}

	available := []string{}
	missing := []string{}
	for _, field := range tpl.SchemeFieldsUsed {
		value := ctx.Field(field)
		if value != "" && value != UnknownValue {
			available = append(available, field)
		} else {
			missing = append(missing, field)
		}
	}

	return &Response{
		Topic:                 topic,
		Content:               Render(tpl, ctx, RenderOptions{}),
		IsGenericFallback:     len(available) == 0 && len(tpl.SchemeFieldsUsed) > 0,
		SchemeFieldsAvailable: available,
		SchemeFieldsMissing:   missing,
	}, true
}
