package features

type FeatureGate struct {
	Name string
}

// DelayVisibilityOfProgramUpgrade makes a ProgramData version recorded at slot
// S executable only from slot S+1 on. Until then the previously loaded
// version keeps running.
var DelayVisibilityOfProgramUpgrade = FeatureGate{Name: "DelayVisibilityOfProgramUpgrade"}

var allGates = []FeatureGate{
	DelayVisibilityOfProgramUpgrade,
}
