package cmd

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"

	sim "github.com/match-sim/match-sim/sim"
	"github.com/match-sim/match-sim/sim/adapter"
)

// loadOptions reads an engine option bag from a YAML file. An empty path
// yields an empty bag; engines clamp whatever they receive.
func loadOptions(path string) (sim.Options, error) {
	if path == "" {
		return sim.Options{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read options file: %w", err)
	}
	var opts sim.Options
	if err := yaml.Unmarshal(raw, &opts); err != nil {
		return nil, fmt.Errorf("parse options file: %w", err)
	}
	if opts == nil {
		opts = sim.Options{}
	}
	return opts, nil
}

// loadComposites reads named composite adapter configurations from a YAML
// file shaped as a map of name to config:
//
//	reviewer-chain:
//	  strategy: PIPELINE
//	  pipelineSteps:
//	    - adapterRef: "openai:gpt-4o-mini"
//	      position: 1
//	      promptTemplate: "{{system}}\n\n{{history}}\n\nDraft a move."
//	    - adapterRef: "openai:gpt-4o"
//	      position: 2
//	      promptTemplate: "Review and finalize: {{input}}"
func loadComposites(path string) (map[string]adapter.CompositeConfig, error) {
	if path == "" {
		return map[string]adapter.CompositeConfig{}, nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read composites file: %w", err)
	}
	var configs map[string]adapter.CompositeConfig
	if err := yaml.Unmarshal(raw, &configs); err != nil {
		return nil, fmt.Errorf("parse composites file: %w", err)
	}
	return configs, nil
}
