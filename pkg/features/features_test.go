package features

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

// The TestFeatures_EnableAndDisable function tests that the
// enable and disable features work correctly.
func TestFeatures_EnableAndDisable(t *testing.T) {
	f := NewFeaturesDefault()
	assert.Equal(t, f.IsActive(DelayVisibilityOfProgramUpgrade), true)
	f.DisableFeature(DelayVisibilityOfProgramUpgrade)
	assert.Equal(t, f.IsActive(DelayVisibilityOfProgramUpgrade), false)
	f.EnableFeature(DelayVisibilityOfProgramUpgrade, 7)
	assert.Equal(t, f.IsActive(DelayVisibilityOfProgramUpgrade), true)

	slot, ok := f.ActivationSlot(DelayVisibilityOfProgramUpgrade)
	assert.True(t, ok)
	assert.Equal(t, uint64(7), slot)
}

// The TestFeatures_ListEnabled function tests that the AllEnabled function works
// as expected.
func TestFeatures_ListEnabled(t *testing.T) {
	f := NewFeaturesDefault()
	assert.Equal(t, f.AllEnabled(), []string{"feature DelayVisibilityOfProgramUpgrade enabled at slot 0"})
}

func TestFeatures_Lookup(t *testing.T) {
	gate, ok := Lookup("DelayVisibilityOfProgramUpgrade")
	assert.True(t, ok)
	assert.Equal(t, DelayVisibilityOfProgramUpgrade, gate)

	_, ok = Lookup("NoSuchFeature")
	assert.False(t, ok)
}
