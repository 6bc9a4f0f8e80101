package telemetry_test

import (
	"runtime"
	"sync"
	"testing"

	"github.com/moa/backend/internal/infrastructure/telemetry"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

// buildProfiler constructs a profiler from cfg and registers a cleanup stop.
func buildProfiler(t *testing.T, cfg telemetry.ProfilerConfig) *telemetry.Profiler {
	t.Helper()

	p, err := telemetry.NewProfiler(cfg, zaptest.NewLogger(t))
	require.NoError(t, err)
	require.NotNil(t, p)
	t.Cleanup(func() { _ = p.Stop() })
	return p
}

func TestNewProfiler_Disabled(t *testing.T) {
	p := buildProfiler(t, telemetry.ProfilerConfig{
		Enabled:         false,
		ServerAddress:   "http://localhost:4040",
		ApplicationName: "moa-backend-test",
	})

	assert.False(t, p.IsEnabled())
	assert.Equal(t, "moa-backend-test", p.GetConfig().ApplicationName)

	// Stopping the no-op profiler succeeds, repeatedly.
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
	require.NoError(t, p.Stop())
}

func TestNewProfiler_RequiredFields(t *testing.T) {
	tests := []struct {
		name    string
		cfg     telemetry.ProfilerConfig
		wantErr string
	}{
		{
			name: "missing server address",
			cfg: telemetry.ProfilerConfig{
				Enabled:         true,
				ApplicationName: "moa-backend-test",
			},
			wantErr: "profiler server address is required when profiling is enabled",
		},
		{
			name: "missing application name",
			cfg: telemetry.ProfilerConfig{
				Enabled:       true,
				ServerAddress: "http://localhost:4040",
			},
			wantErr: "profiler application name is required when profiling is enabled",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := telemetry.NewProfiler(tt.cfg, zaptest.NewLogger(t))
			assert.Nil(t, p)
			assert.EqualError(t, err, tt.wantErr)
		})
	}
}

func TestProfiler_ConfigRoundTrip(t *testing.T) {
	cfg := telemetry.ProfilerConfig{
		Enabled:              false,
		ServerAddress:        "http://pyroscope:4040",
		ApplicationName:      "moa-backend",
		BasicAuthUser:        "grafana",
		BasicAuthPassword:    "s3cret",
		ProfileCPU:           true,
		ProfileAllocObjects:  true,
		ProfileAllocSpace:    true,
		ProfileInuseObjects:  true,
		ProfileInuseSpace:    true,
		ProfileGoroutines:    true,
		ProfileMutexCount:    true,
		ProfileMutexDuration: true,
		ProfileBlockCount:    true,
		ProfileBlockDuration: true,
		MutexProfileFraction: 10,
		BlockProfileRate:     20,
		DisableGCRuns:        true,
	}

	p := buildProfiler(t, cfg)

	// The config is stored as given; runtime-rate defaults are applied at
	// start time, not written back. The struct has no reference fields, so
	// whole-value equality covers every switch at once.
	assert.Equal(t, cfg, p.GetConfig())
	assert.Equal(t, cfg, p.GetConfig())
}

func TestProfiler_StopConcurrent(t *testing.T) {
	p := buildProfiler(t, telemetry.ProfilerConfig{Enabled: false})

	var wg sync.WaitGroup
	for range 8 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			assert.NoError(t, p.Stop())
		}()
	}
	wg.Wait()
}

func TestNewProfiler_AgainstServer(t *testing.T) {
	if testing.Short() {
		t.Skip("needs a Pyroscope server on localhost:4040")
	}

	prev := runtime.SetMutexProfileFraction(0)
	defer runtime.SetMutexProfileFraction(prev)

	p := buildProfiler(t, telemetry.ProfilerConfig{
		Enabled:              true,
		ServerAddress:        "http://localhost:4040",
		ApplicationName:      "moa-backend-test",
		ProfileCPU:           true,
		ProfileAllocObjects:  true,
		ProfileInuseSpace:    true,
		ProfileGoroutines:    true,
		ProfileMutexCount:    true,
		MutexProfileFraction: 7,
	})

	assert.True(t, p.IsEnabled())

	// Starting with mutex profiling requested must raise the runtime rate.
	assert.Equal(t, 7, runtime.SetMutexProfileFraction(-1))

	require.NoError(t, p.Stop())
}
