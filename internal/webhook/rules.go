package webhook

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Target is one delivery destination with the event names it wants.
// An empty event list means every event.
type Target struct {
	URL    string   `yaml:"url"`
	Events []string `yaml:"events,omitempty"`
}

// Rules is the optional routing file, for deployments fanning out to more
// than the single configured automation endpoint.
type Rules struct {
	Targets []Target `yaml:"targets"`
}

// LoadRules reads and validates a YAML rules file.
func LoadRules(path string) (*Rules, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read webhook rules: %w", err)
	}

	var rules Rules
	if err := yaml.Unmarshal(data, &rules); err != nil {
		return nil, fmt.Errorf("parse webhook rules: %w", err)
	}

	for i, t := range rules.Targets {
		if t.URL == "" {
			return nil, fmt.Errorf("webhook rules: target %d has no url", i)
		}
	}
	return &rules, nil
}

// URLsFor returns the targets subscribed to the event.
func (r *Rules) URLsFor(eventName string) []string {
	if r == nil {
		return nil
	}
	var out []string
	for _, t := range r.Targets {
		if len(t.Events) == 0 {
			out = append(out, t.URL)
			continue
		}
		for _, e := range t.Events {
			if e == eventName {
				out = append(out, t.URL)
				break
			}
		}
	}
	return out
}
