package prompts

import (
	"bytes"
	_ "embed"
	"errors"
	"fmt"
	"strings"

	"gopkg.in/yaml.v3"

	"github.com/Chative-multiagent/server/internal/agent/model"
)

//go:embed template/profiles.yaml
var defaultProfiles []byte

const maxTemperature = 2

// Profile is the system instruction and sampling temperature of one completion call.
type Profile struct {
	System      string   `yaml:"system"`
	Temperature *float32 `yaml:"temperature"`
	// Analysis is the first-phase profile of two-phase handlers.
	Analysis *Profile `yaml:"analysis,omitempty"`
}

// Temp returns the configured temperature.
func (p Profile) Temp() float32 {
	if p.Temperature == nil {
		return 0
	}
	return *p.Temperature
}

// Profiles is the immutable prompt table shared by every invocation.
type Profiles struct {
	Classifier Profile                     `yaml:"classifier"`
	Handlers   map[model.Category]Profile `yaml:"handlers"`
	Title      Profile                     `yaml:"title"`
}

// LoadProfiles parses and validates the embedded profile table.
func LoadProfiles() (*Profiles, error) {
	return ParseProfiles(defaultProfiles)
}

// ParseProfiles parses a YAML profile table and validates it.
func ParseProfiles(data []byte) (*Profiles, error) {
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)

	var p Profiles
	if err := dec.Decode(&p); err != nil {
		return nil, fmt.Errorf("parse profiles: %w", err)
	}
	if err := p.Validate(); err != nil {
		return nil, err
	}
	return &p, nil
}

// Handler returns the profile for c.
func (p *Profiles) Handler(c model.Category) Profile {
	return p.Handlers[c]
}

// Validate rejects a table that misses a category, an instruction or a
// temperature, or that carries an unknown category.
func (p *Profiles) Validate() error {
	var errs []error
	errs = append(errs, checkProfile("classifier", p.Classifier))
	errs = append(errs, checkProfile("title", p.Title))

	for _, c := range model.Categories() {
		h, ok := p.Handlers[c]
		if !ok {
			errs = append(errs, fmt.Errorf("handler %q: missing profile", c))
			continue
		}
		errs = append(errs, checkProfile("handler "+c.String(), h))

		needsAnalysis := c == model.CategoryResearch || c == model.CategoryPlanning
		switch {
		case needsAnalysis && h.Analysis == nil:
			errs = append(errs, fmt.Errorf("handler %q: missing analysis profile", c))
		case needsAnalysis:
			errs = append(errs, checkProfile("handler "+c.String()+" analysis", *h.Analysis))
		case h.Analysis != nil:
			errs = append(errs, fmt.Errorf("handler %q: analysis profile is not used", c))
		}
	}
	for c := range p.Handlers {
		if !c.Valid() {
			errs = append(errs, fmt.Errorf("handler %q: unknown category", c))
		}
	}

	if err := errors.Join(errs...); err != nil {
		return fmt.Errorf("invalid profiles: %w", err)
	}
	return nil
}

func checkProfile(name string, p Profile) error {
	if strings.TrimSpace(p.System) == "" {
		return fmt.Errorf("%s: empty system instruction", name)
	}
	if p.Temperature == nil {
		return fmt.Errorf("%s: missing temperature", name)
	}
	if t := *p.Temperature; t < 0 || t > maxTemperature {
		return fmt.Errorf("%s: temperature %.2f outside [0, %d]", name, t, maxTemperature)
	}
	return nil
}
