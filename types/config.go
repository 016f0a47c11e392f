package types

import (
	"fmt"
	"os"

	"gopkg.in/yaml.v3"
)

// Config defines the tag schema a store is created with
type Config struct {
	// Tags lists the tags every scan may carry
	Tags []Tag `yaml:"tags"`

	// tagSet is the indexed representation
	// Will be populated from Tags on first use
	tagSet *TagSet
}

// GetTagSet returns the indexed tag set for this config
func (c *Config) GetTagSet() *TagSet {
	if c.tagSet == nil || c.tagSet.Count() != len(c.Tags) {
		c.tagSet = NewTagSet(c.Tags)
	}
	return c.tagSet
}

// LoadConfig reads a YAML tag schema:
//
//	tags:
//	  - name: PatientName
//	    field_type: string
//	    description: Patient name
//	  - name: Bricks
//	    field_type: list_int
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read schema: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig decodes a YAML tag schema. Tags without an origin are user tags.
func ParseConfig(data []byte) (*Config, error) {
	var cfg Config
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("failed to parse schema: %w", err)
	}
	for i := range cfg.Tags {
		if cfg.Tags[i].Origin == "" {
			cfg.Tags[i].Origin = OriginUser
		}
	}
	return &cfg, nil
}
