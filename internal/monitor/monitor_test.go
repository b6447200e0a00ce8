package monitor

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portmon/internal/models"
	"portmon/internal/probe"
)

type captureSink struct {
	samples []models.CheckSample
}

func (c *captureSink) AppendSample(s models.CheckSample) error {
	c.samples = append(c.samples, s)
	return nil
}

// scriptedProber returns the scripted outcomes in order, then repeats
// the last one.
func scriptedProber(outcomes []bool) proberFunc {
	i := 0
	return func(string, int, time.Duration) probe.Result {
		ok := outcomes[len(outcomes)-1]
		if i < len(outcomes) {
			ok = outcomes[i]
			i++
		}
		if ok {
			return probe.Result{OK: true, LatencyMs: 1}
		}
		return probe.Result{Error: "connection refused"}
	}
}

func newTestMonitor(sink SampleSink, outcomes []bool) *Monitor {
	m := New(models.Target{Host: "127.0.0.1", Port: 80}, time.Second, 100*time.Millisecond, 3, sink)
	m.prober = scriptedProber(outcomes)
	return m
}

func TestStartsOnline(t *testing.T) {
	m := newTestMonitor(nil, []bool{true})
	assert.True(t, m.Online())
	assert.Equal(t, 0, m.Failures())
}

func TestGoesOfflineAfterThreshold(t *testing.T) {
	sink := &captureSink{}
	m := newTestMonitor(sink, []bool{false, false, false, false})

	m.check()
	assert.True(t, m.Online(), "one failure must not flip the flag")
	m.check()
	assert.True(t, m.Online(), "two failures must not flip the flag")
	m.check()
	assert.False(t, m.Online(), "third consecutive failure crosses the threshold")
	m.check()
	assert.False(t, m.Online())
	assert.Equal(t, 4, m.Failures())

	require.Len(t, sink.samples, 4)
	assert.True(t, sink.samples[1].Online, "second failure is still below the threshold")
	assert.Equal(t, 2, sink.samples[1].ConsecutiveFailures)
	assert.False(t, sink.samples[2].Online)
	assert.Equal(t, 3, sink.samples[2].ConsecutiveFailures)
}

func TestSuccessResetsCounter(t *testing.T) {
	m := newTestMonitor(nil, []bool{false, false, false, true})

	m.check()
	m.check()
	m.check()
	require.False(t, m.Online())

	m.check()
	assert.True(t, m.Online(), "a single success must restore the flag")
	assert.Equal(t, 0, m.Failures())
}

func TestLatestSample(t *testing.T) {
	m := newTestMonitor(nil, []bool{true})

	_, ok := m.Latest()
	assert.False(t, ok, "no sample before the first check")

	m.check()
	sample, ok := m.Latest()
	require.True(t, ok)
	assert.True(t, sample.OK)
	assert.Equal(t, m.Target(), sample.Target)
}

func TestStopTerminatesLoop(t *testing.T) {
	m := newTestMonitor(nil, []bool{true})
	m.Start()
	m.Stop()

	select {
	case <-m.doneCh:
	default:
		t.Fatal("loop still running after Stop")
	}

	// Stop is idempotent.
	m.Stop()
}

func TestProbeFailureIsNeverFatal(t *testing.T) {
	sink := &captureSink{}
	m := newTestMonitor(sink, []bool{false})

	for i := 0; i < 10; i++ {
		m.check()
	}
	assert.Len(t, sink.samples, 10)
	assert.Equal(t, 10, m.Failures())
}
