package storage

import (
	"path/filepath"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"portmon/internal/models"
)

func TestSampleLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "checks.json")

	log, err := NewSampleLog(path)
	require.NoError(t, err)

	sample := models.CheckSample{
		Target:    models.Target{Host: "127.0.0.1", Port: 80},
		OK:        true,
		Online:    true,
		CheckedAt: time.Now().UTC().Truncate(time.Second),
	}
	require.NoError(t, log.AppendSample(sample))

	// A fresh instance loads what the first one persisted.
	reloaded, err := NewSampleLog(path)
	require.NoError(t, err)
	samples := reloaded.Samples()
	require.Len(t, samples, 1)
	assert.Equal(t, sample.Target, samples[0].Target)
	assert.True(t, samples[0].OK)
}

func TestSampleLogCap(t *testing.T) {
	log, err := NewSampleLog(filepath.Join(t.TempDir(), "checks.json"))
	require.NoError(t, err)
	log.maxLen = 3

	for i := 0; i < 5; i++ {
		require.NoError(t, log.AppendSample(models.CheckSample{ConsecutiveFailures: i}))
	}

	samples := log.Samples()
	require.Len(t, samples, 3)
	assert.Equal(t, 2, samples[0].ConsecutiveFailures)
	assert.Equal(t, 4, samples[2].ConsecutiveFailures)
}

func TestSamplesN(t *testing.T) {
	log, err := NewSampleLog(filepath.Join(t.TempDir(), "checks.json"))
	require.NoError(t, err)

	for i := 0; i < 4; i++ {
		require.NoError(t, log.AppendSample(models.CheckSample{ConsecutiveFailures: i}))
	}

	assert.Nil(t, log.SamplesN(0))
	assert.Len(t, log.SamplesN(10), 4)

	last2 := log.SamplesN(2)
	require.Len(t, last2, 2)
	assert.Equal(t, 3, last2[1].ConsecutiveFailures)
}

func TestEventLogRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "events.json")

	log, err := NewEventLog(path)
	require.NoError(t, err)
	require.NoError(t, log.AppendEvent(models.Event{
		Kind:  models.EventListenerStarted,
		Port:  7129,
		Label: "CLS",
	}))

	reloaded, err := NewEventLog(path)
	require.NoError(t, err)
	events := reloaded.Events()
	require.Len(t, events, 1)
	assert.Equal(t, models.EventListenerStarted, events[0].Kind)
	assert.Equal(t, 7129, events[0].Port)
}

func TestEmptyLogsReturnNil(t *testing.T) {
	dir := t.TempDir()

	samples, err := NewSampleLog(filepath.Join(dir, "checks.json"))
	require.NoError(t, err)
	assert.Nil(t, samples.Samples())

	events, err := NewEventLog(filepath.Join(dir, "events.json"))
	require.NoError(t, err)
	assert.Nil(t, events.Events())
}
