package main

import (
	"log/slog"
	"testing"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/c360studio/semlink/config"
)

func testApp() *appContext {
	return &appContext{cfg: config.DefaultConfig(), logger: slog.Default()}
}

func TestSharedLoopMetrics_RegistersOnce(t *testing.T) {
	m1 := sharedLoopMetrics()
	m2 := sharedLoopMetrics()
	require.NotNil(t, m1)
	assert.Same(t, m1, m2)

	m1.LoopRuns.WithLabelValues("select").Inc()

	families, err := prometheus.DefaultGatherer.Gather()
	require.NoError(t, err)
	names := make([]string, 0, len(families))
	for _, f := range families {
		names = append(names, f.GetName())
	}
	assert.Contains(t, names, "semlink_loop_runs_total")
}

func TestBuildController_Heuristic(t *testing.T) {
	a := testApp()
	require.NotNil(t, a.buildController(true, 0))

	// A second build in the same process reuses the shared metrics rather
	// than panicking on duplicate registration.
	require.NotNil(t, a.buildController(true, 2))
}
