package router

import (
	"fmt"

	"gopkg.in/yaml.v3"
)

// Document is the subset of the router configuration file the in-process
// router honours.
type Document struct {
	Supergraph struct {
		Listen        string `yaml:"listen"`
		Introspection bool   `yaml:"introspection"`
	} `yaml:"supergraph"`
	OverrideSubgraphURL map[string]string `yaml:"override_subgraph_url"`
}

// ParseDocument decodes a router configuration file. Unknown keys are ignored
// so a file written for the external router can be shared.
func ParseDocument(b []byte) (*Document, error) {
	var d Document
	if err := yaml.Unmarshal(b, &d); err != nil {
		return nil, fmt.Errorf("parse router config: %w", err)
	}
	return &d, nil
}
