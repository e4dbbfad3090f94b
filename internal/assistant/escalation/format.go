// internal/assistant/escalation/format.go
package escalation

import (
	"os"
	"strings"

	"concierge-workers/internal/assistant/formatting"
	"concierge-workers/internal/common/logger"
)

// FeatureFlagEnv switches escalation on when set to "true".
const FeatureFlagEnv = "ASSISTANT_CONCIERGE_ESCALATION"

// Reasons passed to a RejectHook.
const (
	RejectUnknownTarget        = "unknown_target"
	RejectForbiddenPlaceholder = "forbidden_placeholder"
	RejectBlockedIntent        = "blocked_intent"
)

// EnabledFromEnv reads the feature flag from the process environment.
func EnabledFromEnv() bool {
	return os.Getenv(FeatureFlagEnv) == "true"
}

// RejectHook is called whenever guidance is suppressed.
type RejectHook func(reason string, target Target)

// Router carries the feature flag and logging for the gated entry points.
// It holds no per-call state and is safe for concurrent use.
type Router struct {
	enabled  bool
	logger   logger.Logger
	onReject RejectHook
}

type Option func(*Router)

func WithRejectHook(hook RejectHook) Option {
	return func(r *Router) {
		r.onReject = hook
	}
}

func NewRouter(enabled bool, log logger.Logger, opts ...Option) *Router {
	if log == nil {
		log = logger.NewNoOpLogger()
	}
	r := &Router{
		enabled: enabled,
		logger:  log.WithFields(map[string]interface{}{"component": "escalation"}),
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

func (r *Router) Enabled() bool {
	return r.enabled
}

func (r *Router) reject(reason string, target Target) {
	if r.onReject != nil {
		r.onReject(reason, target)
	}
}

// FormatGuidance renders an escalation as chat text. It returns false for an
// unknown target and for any text that fails the placeholder guard; nothing
// unfilled or vague ever reaches the homeowner.
func (r *Router) FormatGuidance(out *Output) (string, bool) {
	if out == nil {
		return "", false
	}
	if out.Target == TargetUnknown {
		r.reject(RejectUnknownTarget, out.Target)
		return "", false
	}

	var lines []string
	if out.UrgencyLevel == UrgencyEmergency {
		lines = append(lines, "IMPORTANT SAFETY INFORMATION:", "", out.MessageTemplate)
		if out.Disclaimer != "" {
			lines = append(lines, "", "Note: "+out.Disclaimer)
		}
	} else {
		lines = append(lines, "For this matter, I'd recommend contacting "+out.TargetDescription+".", "")

		if out.ContactInfo != "" {
			lines = append(lines, "Contact Details:", out.ContactInfo, "")
		} else {
			lines = append(lines, FallbackGuidance(out.Target), "")
		}

		lines = append(lines, "What to include in your message:")
		for _, field := range out.RequiredFields {
			lines = append(lines, "- "+FieldDescription(field))
		}

		if out.Disclaimer != "" {
			lines = append(lines, "", "Note: "+out.Disclaimer)
		}

		lines = append(lines, "", "Sample message you can use:", "", "```", out.MessageTemplate, "```")
	}

	raw := strings.Join(lines, "\n")
	text := formatting.SanitizeForChat(raw)
	// Sanitizing can join a phrase that markup had split, so both forms
	// are checked.
	if ContainsForbiddenPlaceholders(raw) || ContainsForbiddenPlaceholders(text) {
		r.logger.Warn("Blocked escalation output containing forbidden placeholder tokens", map[string]interface{}{
			"target":  string(out.Target),
			"urgency": string(out.UrgencyLevel),
		})
		r.reject(RejectForbiddenPlaceholder, out.Target)
		return "", false
	}
	return text, true
}

// AppendToResponse adds a "How to get further help" section to response, or
// returns response untouched when the intent is ineligible or no guidance
// survives formatting. An empty intent skips the eligibility check.
func (r *Router) AppendToResponse(response string, out *Output, intent string) string {
	if intent != "" && !IsAllowedForIntent(intent) {
		return response
	}

	guidance, ok := r.FormatGuidance(out)
	if !ok {
		return response
	}
	return JoinGuidance(response, guidance)
}

// JoinGuidance appends already formatted guidance under a "How to get further
// help" heading.
func JoinGuidance(response, guidance string) string {
	clean := strings.TrimSpace(response)
	separator := " \n\n"
	if strings.HasSuffix(clean, "?") || strings.HasSuffix(clean, ".") || strings.HasSuffix(clean, "!") {
		separator = "\n\n"
	}
	return clean + separator + "How to get further help:\n\n" + guidance
}

// CreateForGapReason is the gated entry point for the chat pipeline. It
// routes at low confidence only when the feature is enabled and the intent is
// eligible.
func (r *Router) CreateForGapReason(gapReason, intent string, session SessionContext, contacts *SchemeContacts) (*Output, bool) {
	if !r.enabled {
		return nil, false
	}
	if !IsAllowedForIntent(intent) {
		r.logger.Info("Escalation blocked for non-actionable intent", map[string]interface{}{
			"intent": intent,
		})
		r.reject(RejectBlockedIntent, TargetUnknown)
		return nil, false
	}
	if !ShouldTrigger(ConfidenceLow, gapReason, intent) {
		return nil, false
	}

	return Route(Input{
		Intent:         intent,
		Confidence:     ConfidenceLow,
		GapReason:      gapReason,
		SchemeContacts: contacts,
		Session:        session,
	}), true
}
