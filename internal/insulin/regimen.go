package insulin

import (
	"encoding/json"
	"errors"
	"fmt"
	"math"
	"os"
	"time"

	"github.com/google/jsonschema-go/jsonschema"
	"gopkg.in/yaml.v3"
)

// ErrInvalidRegimen is returned when a regimen document is structurally invalid.
var ErrInvalidRegimen = errors.New("invalid insulin regimen")

// Slot is a time-of-day injection slot.
type Slot string

const (
	SlotMorning Slot = "morning"
	SlotNoon    Slot = "noon"
	SlotEvening Slot = "evening"
	SlotBedtime Slot = "bedtime"
)

// Slots lists the injection slots in clock order.
var Slots = []Slot{SlotMorning, SlotNoon, SlotEvening, SlotBedtime}

// defaultSlotTimes are used for slots without an explicit clock time.
var defaultSlotTimes = map[Slot]string{
	SlotMorning: "07:00",
	SlotNoon:    "12:00",
	SlotEvening: "18:00",
	SlotBedtime: "22:00",
}

// SlotDoses holds the expected dose in units per slot. Zero means not used.
type SlotDoses struct {
	Morning float64 `yaml:"morning" json:"morning" jsonschema:"expected units in the morning slot"`
	Noon    float64 `yaml:"noon" json:"noon" jsonschema:"expected units in the noon slot"`
	Evening float64 `yaml:"evening" json:"evening" jsonschema:"expected units in the evening slot"`
	Bedtime float64 `yaml:"bedtime" json:"bedtime" jsonschema:"expected units in the bedtime slot"`
}

// SlotTimes optionally overrides the clock time ("HH:MM") of each slot.
type SlotTimes struct {
	Morning string `yaml:"morning,omitempty" json:"morning,omitempty"`
	Noon    string `yaml:"noon,omitempty" json:"noon,omitempty"`
	Evening string `yaml:"evening,omitempty" json:"evening,omitempty"`
	Bedtime string `yaml:"bedtime,omitempty" json:"bedtime,omitempty"`
}

// Plan is the configuration of one insulin type.
type Plan struct {
	Product string     `yaml:"product" json:"product" jsonschema:"product name"`
	Doses   SlotDoses  `yaml:"doses" json:"doses"`
	Times   *SlotTimes `yaml:"times,omitempty" json:"times,omitempty"`
}

// Dose returns the configured dose for a slot.
func (p *Plan) Dose(s Slot) float64 {
	switch s {
	case SlotMorning:
		return p.Doses.Morning
	case SlotNoon:
		return p.Doses.Noon
	case SlotEvening:
		return p.Doses.Evening
	case SlotBedtime:
		return p.Doses.Bedtime
	}
	return 0
}

// Time returns the clock time of a slot as hours since midnight.
func (p *Plan) Time(s Slot) float64 {
	text := defaultSlotTimes[s]
	if p.Times != nil {
		var override string
		switch s {
		case SlotMorning:
			override = p.Times.Morning
		case SlotNoon:
			override = p.Times.Noon
		case SlotEvening:
			override = p.Times.Evening
		case SlotBedtime:
			override = p.Times.Bedtime
		}
		if override != "" {
			text = override
		}
	}
	h, _ := parseClock(text)
	return h
}

// Regimen is a patient's insulin plan per insulin type. Types left nil are
// not part of the regimen.
type Regimen struct {
	LongActing  *Plan `yaml:"long_acting,omitempty" json:"long_acting,omitempty"`
	RapidActing *Plan `yaml:"rapid_acting,omitempty" json:"rapid_acting,omitempty"`
	Premixed    *Plan `yaml:"premixed,omitempty" json:"premixed,omitempty"`
}

// Empty reports whether no insulin type is configured.
func (r *Regimen) Empty() bool {
	return r == nil || (r.LongActing == nil && r.RapidActing == nil && r.Premixed == nil)
}

func (r *Regimen) plans() map[Category]*Plan {
	return map[Category]*Plan{
		CategoryLongActing:  r.LongActing,
		CategoryRapidActing: r.RapidActing,
		CategoryPremixed:    r.Premixed,
	}
}

// Validate checks dose signs and slot clock times.
func (r *Regimen) Validate() error {
	for cat, p := range r.plans() {
		if p == nil {
			continue
		}
		for _, s := range Slots {
			d := p.Dose(s)
			if d < 0 || math.IsNaN(d) || math.IsInf(d, 0) {
				return fmt.Errorf("%w: %s %s dose %v", ErrInvalidRegimen, cat, s, d)
			}
		}
		if p.Times == nil {
			continue
		}
		for s, text := range map[Slot]string{
			SlotMorning: p.Times.Morning,
			SlotNoon:    p.Times.Noon,
			SlotEvening: p.Times.Evening,
			SlotBedtime: p.Times.Bedtime,
		} {
			if text == "" {
				continue
			}
			if _, err := parseClock(text); err != nil {
				return fmt.Errorf("%w: %s %s time: %v", ErrInvalidRegimen, cat, s, err)
			}
		}
	}
	return nil
}

// LoadRegimen reads a YAML regimen file.
func LoadRegimen(path string) (*Regimen, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read regimen file: %w", err)
	}
	return ParseRegimen(data)
}

// ParseRegimen decodes a YAML regimen, validates it against the Regimen
// schema (every configured type must list all four slots) and checks the
// values.
func ParseRegimen(data []byte) (*Regimen, error) {
	var doc any
	if err := yaml.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegimen, err)
	}
	if doc == nil {
		return nil, fmt.Errorf("%w: empty document", ErrInvalidRegimen)
	}
	if err := validateSchema(doc); err != nil {
		return nil, err
	}

	var r Regimen
	if err := yaml.Unmarshal(data, &r); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrInvalidRegimen, err)
	}
	if err := r.Validate(); err != nil {
		return nil, err
	}
	return &r, nil
}

func validateSchema(doc any) error {
	schema, err := jsonschema.For[Regimen](nil)
	if err != nil {
		return fmt.Errorf("failed to infer regimen schema: %w", err)
	}
	resolved, err := schema.Resolve(nil)
	if err != nil {
		return fmt.Errorf("failed to resolve regimen schema: %w", err)
	}

	// Round-trip through JSON so the instance uses JSON value types.
	raw, err := json.Marshal(doc)
	if err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegimen, err)
	}
	var instance any
	if err := json.Unmarshal(raw, &instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegimen, err)
	}

	if err := resolved.Validate(instance); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalidRegimen, err)
	}
	return nil
}

// parseClock converts "HH:MM" to hours since midnight.
func parseClock(s string) (float64, error) {
	t, err := time.Parse("15:04", s)
	if err != nil {
		return 0, fmt.Errorf("expected HH:MM, got %q", s)
	}
	return float64(t.Hour()) + float64(t.Minute())/60, nil
}
