package monitor

import (
	"log"
	"sync"
	"time"

	"portmon/internal/models"
	"portmon/internal/probe"
)

// SampleSink receives one record per reachability check.
type SampleSink interface {
	AppendSample(models.CheckSample) error
}

// proberFunc issues a single bounded connect attempt. Swappable in tests.
type proberFunc func(host string, port int, timeout time.Duration) probe.Result

// Monitor periodically probes one target and debounces failures into a
// shared online flag.
type Monitor struct {
	target    models.Target
	interval  time.Duration
	timeout   time.Duration
	threshold int
	sink      SampleSink
	prober    proberFunc

	mu       sync.RWMutex
	online   bool
	failures int
	latest   *models.CheckSample

	stopCh chan struct{}
	doneCh chan struct{}
}

// New creates a monitor for the given target. The monitor starts
// optimistic: the target is considered online until threshold
// consecutive probes fail.
func New(target models.Target, interval, timeout time.Duration, threshold int, sink SampleSink) *Monitor {
	if interval <= 0 {
		interval = 5 * time.Second
	}
	if timeout <= 0 {
		timeout = 500 * time.Millisecond
	}
	if threshold <= 0 {
		threshold = 3
	}

	return &Monitor{
		target:    target,
		interval:  interval,
		timeout:   timeout,
		threshold: threshold,
		sink:      sink,
		prober:    probe.Dial,
		online:    true,
		stopCh:    make(chan struct{}),
		doneCh:    make(chan struct{}),
	}
}

// Start launches the monitoring loop in a goroutine.
func (m *Monitor) Start() {
	go m.run()
}

// Stop requests graceful loop termination and waits until it is done.
func (m *Monitor) Stop() {
	select {
	case <-m.doneCh:
		return
	default:
	}
	close(m.stopCh)
	<-m.doneCh
}

// Online reports the debounced reachability state of the target.
func (m *Monitor) Online() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.online
}

// Failures returns the current consecutive-failure count.
func (m *Monitor) Failures() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.failures
}

// Latest returns the most recent check sample.
func (m *Monitor) Latest() (models.CheckSample, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if m.latest == nil {
		return models.CheckSample{}, false
	}
	return *m.latest, true
}

// Target returns the monitored endpoint.
func (m *Monitor) Target() models.Target {
	return m.target
}

func (m *Monitor) run() {
	defer close(m.doneCh)

	m.check()

	ticker := time.NewTicker(m.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ticker.C:
			m.check()
		case <-m.stopCh:
			return
		}
	}
}

// check performs one probe and updates the debounced state. Probe
// failures are expected and only drive the counter; nothing here is
// fatal to the loop.
func (m *Monitor) check() {
	res := m.prober(m.target.Host, m.target.Port, m.timeout)

	m.mu.Lock()
	if res.OK {
		m.failures = 0
	} else {
		m.failures++
	}
	m.online = m.failures < m.threshold

	sample := models.CheckSample{
		Target:              m.target,
		OK:                  res.OK,
		LatencyMs:           res.LatencyMs,
		ConsecutiveFailures: m.failures,
		Online:              m.online,
		Error:               res.Error,
		CheckedAt:           time.Now().UTC(),
	}
	m.latest = &sample
	m.mu.Unlock()

	log.Printf("check %s:%d reachable=%v failures=%d online=%v",
		m.target.Host, m.target.Port, res.OK, sample.ConsecutiveFailures, sample.Online)

	if m.sink != nil {
		if err := m.sink.AppendSample(sample); err != nil {
			log.Printf("record check sample: %v", err)
		}
	}
}
