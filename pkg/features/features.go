package features

import (
	"fmt"
	"sort"
)

type Features struct {
	enabled map[FeatureGate]uint64
}

func NewFeaturesDefault() *Features {
	f := &Features{enabled: make(map[FeatureGate]uint64)}
	f.EnableFeature(DelayVisibilityOfProgramUpgrade, 0)
	return f
}

// EnableFeature activates gate, recording the slot it was activated at.
func (f *Features) EnableFeature(gate FeatureGate, slot uint64) {
	f.enabled[gate] = slot
}

func (f *Features) DisableFeature(gate FeatureGate) {
	delete(f.enabled, gate)
}

func (f *Features) IsActive(gate FeatureGate) bool {
	_, exists := f.enabled[gate]
	return exists
}

func (f *Features) ActivationSlot(gate FeatureGate) (uint64, bool) {
	slot, exists := f.enabled[gate]
	return slot, exists
}

func (f *Features) AllEnabled() []string {
	var strs []string
	for gate, slot := range f.enabled {
		strs = append(strs, fmt.Sprintf("feature %s enabled at slot %d", gate.Name, slot))
	}
	sort.Strings(strs)
	return strs
}

// Lookup finds a known gate by name, for configuration surfaces.
func Lookup(name string) (FeatureGate, bool) {
	for _, gate := range allGates {
		if gate.Name == name {
			return gate, true
		}
	}
	return FeatureGate{}, false
}
