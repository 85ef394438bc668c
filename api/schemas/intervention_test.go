package schemas

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestQueryOptions_SamplesDefault(t *testing.T) {
	assert.Equal(t, DefaultNumSamples, QueryOptions{}.Samples())
	assert.Equal(t, DefaultNumSamples, QueryOptions{NumSamples: -5}.Samples())
	assert.Equal(t, 250, QueryOptions{NumSamples: 250}.Samples())
}

func TestTargetNodes(t *testing.T) {
	assert.Empty(t, Observational{}.TargetNodes())
	assert.Equal(t, []string{"x"}, Hard{Node: "x", Value: 1}.TargetNodes())
	assert.Equal(t, []string{"y"}, Soft{Node: "y", Transform: TransformShift, Param: 2}.TargetNodes())

	multi := Multiple{Interventions: []AtomicIntervention{
		Hard{Node: "a", Value: 0},
		Soft{Node: "b", Transform: TransformScale, Param: 2},
	}}
	assert.Equal(t, []string{"a", "b"}, multi.TargetNodes())
}

func TestUnionIsClosed(t *testing.T) {
	// Compile-time checks that every variant satisfies the union and that
	// only Hard and Soft are atomic.
	var _ InterventionSpec = Observational{}
	var _ InterventionSpec = Hard{}
	var _ InterventionSpec = Soft{}
	var _ InterventionSpec = Multiple{}
	var _ AtomicIntervention = Hard{}
	var _ AtomicIntervention = Soft{}
}
