package metric

import (
	"errors"
	"fmt"
	"sort"
)

// Type is the abstract metric identifier used at the call boundary.
type Type string

const (
	TypeSteps           Type = "steps"
	TypeEnergy          Type = "energy"
	TypeDistance        Type = "distance"
	TypeDistanceCycling Type = "distance_cycling"
	TypeHeartRate       Type = "heart_rate"
	TypeWater           Type = "water"
	TypeWeight          Type = "weight"
	TypeHeight          Type = "height"
	TypeStandTime       Type = "stand_time"
	TypeExerciseTime    Type = "exercise_time"
	TypeSleep           Type = "sleep"
)

// Kind distinguishes how a metric's samples carry their value.
type Kind int

const (
	// KindQuantity metrics carry a numeric value in the descriptor's unit.
	KindQuantity Kind = iota
	// KindCategory metrics carry an integer category code; the unit concept
	// does not apply.
	KindCategory
)

// ErrUnknownMetric is returned when a metric identifier has no registry entry.
var ErrUnknownMetric = errors.New("unknown metric")

// Descriptor binds a metric identifier to the store's native sample-type
// handle and the unit used to extract numeric values. One per Type, created
// at process start and read-only thereafter.
type Descriptor struct {
	Type       Type
	SampleType string // native sample-type handle understood by the store
	Unit       string // empty for category metrics
	Kind       Kind
}

// Registry is the static metric-identifier lookup table. It is populated
// once (built-ins plus optional descriptor files) before the server starts
// serving and is never mutated afterwards, so reads need no locking.
type Registry struct {
	descriptors map[Type]Descriptor
}

// NewRegistry creates a registry holding the built-in metric descriptors.
func NewRegistry() *Registry {
	r := &Registry{descriptors: make(map[Type]Descriptor)}
	for _, d := range builtinDescriptors() {
		// Built-ins are disjoint; register cannot fail here.
		_ = r.register(d)
	}
	return r
}

func builtinDescriptors() []Descriptor {
	return []Descriptor{
		{Type: TypeSteps, SampleType: "step_count", Unit: "count", Kind: KindQuantity},
		{Type: TypeEnergy, SampleType: "active_energy_burned", Unit: "kcal", Kind: KindQuantity},
		{Type: TypeDistance, SampleType: "distance_walking_running", Unit: "m", Kind: KindQuantity},
		{Type: TypeDistanceCycling, SampleType: "distance_cycling", Unit: "m", Kind: KindQuantity},
		{Type: TypeHeartRate, SampleType: "heart_rate", Unit: "count/min", Kind: KindQuantity},
		{Type: TypeWater, SampleType: "dietary_water", Unit: "l", Kind: KindQuantity},
		{Type: TypeWeight, SampleType: "body_mass", Unit: "kg", Kind: KindQuantity},
		{Type: TypeHeight, SampleType: "height", Unit: "m", Kind: KindQuantity},
		{Type: TypeStandTime, SampleType: "stand_time", Unit: "min", Kind: KindQuantity},
		{Type: TypeExerciseTime, SampleType: "exercise_time", Unit: "min", Kind: KindQuantity},
		{Type: TypeSleep, SampleType: "sleep_analysis", Kind: KindCategory},
	}
}

func (r *Registry) register(d Descriptor) error {
	if d.Type == "" {
		return fmt.Errorf("descriptor sample type %q: metric type must not be empty", d.SampleType)
	}
	if d.SampleType == "" {
		return fmt.Errorf("metric %q: sample type must not be empty", d.Type)
	}
	if d.Kind == KindQuantity && d.Unit == "" {
		return fmt.Errorf("metric %q: quantity metrics require a unit", d.Type)
	}
	if _, exists := r.descriptors[d.Type]; exists {
		return fmt.Errorf("metric %q: duplicate registry entry", d.Type)
	}
	r.descriptors[d.Type] = d
	return nil
}

// Resolve maps a metric identifier to its descriptor. Pure lookup, no side
// effects.
func (r *Registry) Resolve(name string) (Descriptor, error) {
	d, ok := r.descriptors[Type(name)]
	if !ok {
		return Descriptor{}, fmt.Errorf("%w: %q", ErrUnknownMetric, name)
	}
	return d, nil
}

// Types returns all registered metric identifiers in lexical order.
func (r *Registry) Types() []Type {
	types := make([]Type, 0, len(r.descriptors))
	for t := range r.descriptors {
		types = append(types, t)
	}
	sort.Slice(types, func(i, j int) bool { return types[i] < types[j] })
	return types
}
