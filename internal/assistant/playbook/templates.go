// internal/assistant/playbook/templates.go

// Package playbook holds the static homeowner playbooks and renders them with
// scheme profile data. Playbooks are the deterministic answer used when no
// document-grounded answer exists.
package playbook

import (
	_ "embed"
	"fmt"

	"gopkg.in/yaml.v3"
)

type Topic string

const (
	TopicUtilitiesSetup    Topic = "utilities_setup"
	TopicWasteRecycling    Topic = "waste_recycling"
	TopicParking           Topic = "parking"
	TopicHeatingPrinciples Topic = "heating_principles"
	TopicSnaggingProcess   Topic = "snagging_process"
	TopicWarranties        Topic = "warranties"
	TopicEmergencies       Topic = "emergencies"
)

// Topics lists every playbook topic in registry order.
var Topics = []Topic{
	TopicUtilitiesSetup,
	TopicWasteRecycling,
	TopicParking,
	TopicHeatingPrinciples,
	TopicSnaggingProcess,
	TopicWarranties,
	TopicEmergencies,
}

type Section struct {
	Heading string   `yaml:"heading" json:"heading"`
	Content string   `yaml:"content" json:"content"`
	Bullets []string `yaml:"bullets,omitempty" json:"bullets,omitempty"`
	Note    string   `yaml:"note,omitempty" json:"note,omitempty"`
}

type Template struct {
	Topic            Topic     `yaml:"topic" json:"topic"`
	Title            string    `yaml:"title" json:"title"`
	Intro            string    `yaml:"intro" json:"intro"`
	Sections         []Section `yaml:"sections" json:"sections"`
	Closing          string    `yaml:"closing,omitempty" json:"closing,omitempty"`
	SchemeFieldsUsed []string  `yaml:"scheme_fields_used" json:"schemeFieldsUsed"`
}

//go:embed playbooks.yaml
var playbooksYAML []byte

var (
	registry map[Topic]*Template
	ordered  []*Template
)

func init() {
	templates, err := parseTemplates(playbooksYAML)
	if err != nil {
		panic(fmt.Sprintf("playbook: %v", err))
	}
	ordered = templates
	registry = make(map[Topic]*Template, len(templates))
	for _, tpl := range templates {
		registry[tpl.Topic] = tpl
	}
}

func parseTemplates(data []byte) ([]*Template, error) {
	var templates []*Template
	if err := yaml.Unmarshal(data, &templates); err != nil {
		return nil, fmt.Errorf("failed to parse playbooks: %w", err)
	}

	known := make(map[Topic]bool, len(Topics))
	for _, t := range Topics {
		known[t] = true
	}
	seen := make(map[Topic]bool, len(templates))
	for _, tpl := range templates {
		if !known[tpl.Topic] {
			return nil, fmt.Errorf("unknown playbook topic %q", tpl.Topic)
		}
		if seen[tpl.Topic] {
			return nil, fmt.Errorf("duplicate playbook topic %q", tpl.Topic)
		}
		for _, field := range tpl.SchemeFieldsUsed {
			if !IsSchemeField(field) {
				return nil, fmt.Errorf("playbook %q uses unknown scheme field %q", tpl.Topic, field)
			}
		}
		seen[tpl.Topic] = true
	}
	if len(seen) != len(known) {
		return nil, fmt.Errorf("expected %d playbooks, found %d", len(known), len(seen))
	}
	return templates, nil
}

// Get returns the playbook for topic. Returned templates are shared and must
// not be modified.
func Get(topic Topic) (*Template, bool) {
	tpl, ok := registry[topic]
	return tpl, ok
}

// All returns every playbook in registry order.
func All() []*Template {
	out := make([]*Template, len(ordered))
	copy(out, ordered)
	return out
}
