package playbook

import (
	"regexp"
	"strings"
)

type topicPattern struct {
	re    *regexp.Regexp
	topic Topic
}

// Checked in order; the first match wins. The stems are bounded on both
// sides, so "utilities" does not match "utilit".
var topicPatterns = []topicPattern{
	{regexp.MustCompile(`\b(utilit|electric|gas|water|mprn|gprn|meter|esb|irish\s*water|supplier)\b`), TopicUtilitiesSetup},
	{regexp.MustCompile(`\b(bin|waste|recycl|rubbish|collection|garbage|compost)\b`), TopicWasteRecycling},
	{regexp.MustCompile(`\b(park|car\s*space|visitor\s*park|allocated|garage)\b`), TopicParking},
	{regexp.MustCompile(`\b(heat|boiler|thermostat|radiator|warm|cold|temperature|heat\s*pump)\b`), TopicHeatingPrinciples},
	{regexp.MustCompile(`\b(snag|defect|punch|issue|problem|finish|paint|door|window)\b`), TopicSnaggingProcess},
	{regexp.MustCompile(`\b(warrant|guarant|coverage|claim|homebond|appliance\s*cover)\b`), TopicWarranties},
	{regexp.MustCompile(`\b(emergenc|urgent|leak|flood|fire|gas\s*smell|power\s*out|no\s*heat)\b`), TopicEmergencies},
}

// DetectTopic maps a free-text question to a playbook topic.
func DetectTopic(query string) (Topic, bool) {
	lower := strings.ToLower(query)
	for _, p := range topicPatterns {
		if p.re.MatchString(lower) {
			return p.topic, true
		}
	}
	return "", false
}
