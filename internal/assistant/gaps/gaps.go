// Package gaps records questions the assistant could not answer from scheme
// data or documents, and suggests what the developer should add to close
// each gap.
package gaps

import (
	"fmt"
	"strings"
)

// Reason says why an answer fell short.
type Reason string

const (
	ReasonPlaybookFallback  Reason = "playbook_fallback"
	ReasonDeferToDeveloper  Reason = "defer_to_developer"
	ReasonDeferToOMC        Reason = "defer_to_omc"
	ReasonLowDocConfidence  Reason = "low_doc_confidence"
	ReasonNoDocumentsFound  Reason = "no_documents_found"
	ReasonCategoryMismatch  Reason = "category_mismatch"
	ReasonSchemeMismatch    Reason = "scheme_mismatch"
	ReasonMissingSchemeData Reason = "missing_scheme_data"
	ReasonValidationFailed  Reason = "validation_failed"
	ReasonUnknown           Reason = "unknown"
)

var Reasons = []Reason{
	ReasonPlaybookFallback,
	ReasonDeferToDeveloper,
	ReasonDeferToOMC,
	ReasonLowDocConfidence,
	ReasonNoDocumentsFound,
	ReasonCategoryMismatch,
	ReasonSchemeMismatch,
	ReasonMissingSchemeData,
	ReasonValidationFailed,
	ReasonUnknown,
}

// ParseReason maps unlisted values to ReasonUnknown.
func ParseReason(s string) Reason {
	r := Reason(strings.ToLower(strings.TrimSpace(s)))
	for _, known := range Reasons {
		if r == known {
			return r
		}
	}
	return ReasonUnknown
}

type Priority string

const (
	PriorityHigh   Priority = "high"
	PriorityMedium Priority = "medium"
	PriorityLow    Priority = "low"
)

// Fix is the action suggested to the developer for a gap.
type Fix struct {
	Action   string   `json:"action"`
	Priority Priority `json:"priority"`
}

func topicLabel(intent string) string {
	label := strings.TrimSpace(strings.ReplaceAll(strings.ToLower(intent), "_", " "))
	if label == "" || label == "general" || label == "unknown" {
		return "this topic"
	}
	return label
}

// SuggestFix is total: every reason, including unlisted ones, yields a fix.
func SuggestFix(reason Reason, intent string) Fix {
	topic := topicLabel(intent)

	switch reason {
	case ReasonMissingSchemeData:
		return Fix{
			Action:   fmt.Sprintf("Complete the %s fields in the scheme profile", topic),
			Priority: PriorityHigh,
		}
	case ReasonNoDocumentsFound:
		return Fix{
			Action:   fmt.Sprintf("Upload homeowner documents covering %s", topic),
			Priority: PriorityHigh,
		}
	case ReasonSchemeMismatch:
		return Fix{
			Action:   fmt.Sprintf("Check that %s documents are assigned to the correct scheme", topic),
			Priority: PriorityHigh,
		}
	case ReasonLowDocConfidence:
		return Fix{
			Action:   fmt.Sprintf("Review and re-tag existing %s documents so they match homeowner questions", topic),
			Priority: PriorityMedium,
		}
	case ReasonCategoryMismatch:
		return Fix{
			Action:   fmt.Sprintf("Move %s documents to the right category or re-tag them", topic),
			Priority: PriorityMedium,
		}
	case ReasonPlaybookFallback:
		return Fix{
			Action:   fmt.Sprintf("Add scheme data or upload documents for %s so answers are specific to the development", topic),
			Priority: PriorityMedium,
		}
	case ReasonValidationFailed:
		return Fix{
			Action:   fmt.Sprintf("Review source documents for %s; the drafted answer failed validation", topic),
			Priority: PriorityMedium,
		}
	case ReasonDeferToDeveloper:
		return Fix{
			Action:   fmt.Sprintf("Confirm the developer contact details homeowners are sent to for %s", topic),
			Priority: PriorityLow,
		}
	case ReasonDeferToOMC:
		return Fix{
			Action:   fmt.Sprintf("Confirm the management company contact details homeowners are sent to for %s", topic),
			Priority: PriorityLow,
		}
	default:
		return Fix{
			Action:   fmt.Sprintf("Review recent questions about %s", topic),
			Priority: PriorityLow,
		}
	}
}
