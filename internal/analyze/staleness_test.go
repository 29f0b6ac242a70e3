package analyze

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"

	"github.com/continuum-dev/continuum/internal/model"
)

func TestIsStaleFlagsDecisionPastScopeThreshold(t *testing.T) {
	thresholds := DefaultStalenessThresholds()
	assert.True(t, IsStale(model.ScopeTactical, 31*24*time.Hour, thresholds))
	assert.False(t, IsStale(model.ScopeTactical, 29*24*time.Hour, thresholds))
}

func TestIsStaleUsesPerScopeThresholds(t *testing.T) {
	thresholds := DefaultStalenessThresholds()
	age := 200 * 24 * time.Hour
	assert.True(t, IsStale(model.ScopeTactical, age, thresholds))
	assert.True(t, IsStale(model.ScopeStrategic, age, thresholds))
	assert.False(t, IsStale(model.ScopeArchitectural, age, thresholds))
}

func TestIsStaleUnknownScopeNeverStale(t *testing.T) {
	thresholds := DefaultStalenessThresholds()
	assert.False(t, IsStale(model.Scope("made_up"), 10*365*24*time.Hour, thresholds))
}
