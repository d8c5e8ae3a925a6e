// Package yardcfg loads the receiving-bay layout of the freight
// station. Each bay is an independent resource pool: plans are
// overlap-checked only against other plans in the same bay.
package yardcfg

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"gopkg.in/yaml.v3"
)

const SpecSchemaV1 = "harborworks.bays.v1"

// DefaultBayID is used when no bay file is configured; the whole yard
// behaves as one resource pool.
const DefaultBayID = "default"

type Spec struct {
	Schema string `yaml:"schema"`
	Bays   []Bay  `yaml:"bays"`
}

type Bay struct {
	ID     string `yaml:"id"`
	Name   string `yaml:"name,omitempty"`
	Cutoff string `yaml:"cutoff,omitempty"`
}

// CutoffDuration returns the parsed edit cutoff lead time, zero when
// unset. Validate guarantees the value parses.
func (b Bay) CutoffDuration() time.Duration {
	if strings.TrimSpace(b.Cutoff) == "" {
		return 0
	}
	d, err := time.ParseDuration(b.Cutoff)
	if err != nil {
		return 0
	}
	return d
}

func ParseSpec(input []byte) (Spec, error) {
	var spec Spec
	if err := yaml.Unmarshal(input, &spec); err != nil {
		return Spec{}, fmt.Errorf("decode bay spec: %w", err)
	}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Load reads the bay spec at path. An empty path yields the default
// single-bay spec.
func Load(path string) (Spec, error) {
	if strings.TrimSpace(path) == "" {
		return Default(), nil
	}
	raw, err := os.ReadFile(path)
	if err != nil {
		return Spec{}, fmt.Errorf("read bay spec: %w", err)
	}
	return ParseSpec(raw)
}

func Default() Spec {
	return Spec{
		Schema: SpecSchemaV1,
		Bays:   []Bay{{ID: DefaultBayID, Name: "Default receiving bay"}},
	}
}

func (s Spec) Validate() error {
	if strings.TrimSpace(s.Schema) != SpecSchemaV1 {
		return fmt.Errorf("unsupported bay spec schema: %q", s.Schema)
	}
	if len(s.Bays) == 0 {
		return errors.New("at least one bay is required")
	}
	seen := make(map[string]struct{}, len(s.Bays))
	for i, bay := range s.Bays {
		id := strings.TrimSpace(bay.ID)
		if id == "" {
			return fmt.Errorf("bay %d: id is required", i)
		}
		if _, dup := seen[id]; dup {
			return fmt.Errorf("bay id %q is duplicated", id)
		}
		seen[id] = struct{}{}
		if strings.TrimSpace(bay.Cutoff) != "" {
			if _, err := time.ParseDuration(bay.Cutoff); err != nil {
				return fmt.Errorf("bay %q: invalid cutoff: %w", id, err)
			}
		}
	}
	return nil
}

func (s Spec) Lookup(id string) (Bay, bool) {
	id = strings.TrimSpace(id)
	for _, bay := range s.Bays {
		if bay.ID == id {
			return bay, true
		}
	}
	return Bay{}, false
}
