package items

import (
	"testing"

	"github.com/stretchr/testify/require"
)

func TestComputeStatusBoundaries(t *testing.T) {
	const critical, min = 250.0, 500.0

	require.Equal(t, StatusCritical, ComputeStatus(0, min, critical))
	require.Equal(t, StatusCritical, ComputeStatus(250, min, critical))
	require.Equal(t, StatusLow, ComputeStatus(251, min, critical))
	require.Equal(t, StatusLow, ComputeStatus(500, min, critical))
	require.Equal(t, StatusNormal, ComputeStatus(501, min, critical))
}

func TestComputeStatusIdempotent(t *testing.T) {
	item := Item{CurrentBalance: 300, MinThreshold: 500, CriticalThreshold: 250}
	first := item.WithStatus()
	second := first.WithStatus()
	require.Equal(t, StatusLow, first.Status)
	require.Equal(t, first, second)
	// The receiver is untouched.
	require.Empty(t, item.Status)
}

func TestDefaultThresholds(t *testing.T) {
	min, critical := DefaultThresholds(1000)
	require.Equal(t, 200.0, min)
	require.Equal(t, 100.0, critical)

	// Fractional amounts floor.
	min, critical = DefaultThresholds(999)
	require.Equal(t, 199.0, min)
	require.Equal(t, 99.0, critical)
}
