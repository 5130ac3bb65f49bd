package rollout

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestNormalizedHashCompatibilityVector(t *testing.T) {
	assert.Equal(t, uint32(41), NormalizedHash("entityId:featureId"))
}

func TestNormalizedHashScenarioS2Vectors(t *testing.T) {
	assert.Equal(t, uint32(68), NormalizedHash("a1:f1"))
	assert.Equal(t, uint32(29), NormalizedHash("a2:f1"))
}

func TestShouldRolloutBoundaries(t *testing.T) {
	assert.True(t, ShouldRollout(100, "any-entity", "any-subject"))
	assert.False(t, ShouldRollout(0, "any-entity", "any-subject"))
}

func TestShouldRolloutScenarioS2(t *testing.T) {
	assert.False(t, ShouldRollout(50, "a1", "f1"))
	assert.True(t, ShouldRollout(50, "a2", "f1"))
}
