package storage

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"time"

	"portmon/internal/models"
)

const defaultCap = 5000

// SampleLog persists reachability check samples to disk.
type SampleLog struct {
	mu      sync.RWMutex
	path    string
	maxLen  int
	samples []models.CheckSample
}

// NewSampleLog creates a sample log and loads existing history if present.
func NewSampleLog(path string) (*SampleLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	s := &SampleLog{path: path, maxLen: defaultCap}
	if err := loadJSON(path, &s.samples); err != nil {
		return nil, fmt.Errorf("load check samples: %w", err)
	}
	return s, nil
}

// AppendSample adds a sample and persists the log to disk.
func (s *SampleLog) AppendSample(sample models.CheckSample) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.samples = append(s.samples, sample)
	if len(s.samples) > s.maxLen {
		s.samples = s.samples[len(s.samples)-s.maxLen:]
	}
	return persistJSON(s.path, s.samples)
}

// Samples returns a copy of the recorded samples.
func (s *SampleLog) Samples() []models.CheckSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 {
		return nil
	}
	out := make([]models.CheckSample, len(s.samples))
	copy(out, s.samples)
	return out
}

// SamplesN returns up to limit of the most recent samples.
func (s *SampleLog) SamplesN(limit int) []models.CheckSample {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if len(s.samples) == 0 || limit <= 0 {
		return nil
	}
	start := len(s.samples) - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.CheckSample, len(s.samples)-start)
	copy(out, s.samples[start:])
	return out
}

// EventLog persists listener lifecycle and accept events to disk.
type EventLog struct {
	mu     sync.RWMutex
	path   string
	maxLen int
	events []models.Event
}

// NewEventLog creates an event log and loads existing history if present.
func NewEventLog(path string) (*EventLog, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, fmt.Errorf("ensure data directory: %w", err)
	}

	l := &EventLog{path: path, maxLen: defaultCap}
	if err := loadJSON(path, &l.events); err != nil {
		return nil, fmt.Errorf("load events: %w", err)
	}
	return l, nil
}

// AppendEvent adds an event and persists the log to disk.
func (l *EventLog) AppendEvent(event models.Event) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	l.events = append(l.events, event)
	if len(l.events) > l.maxLen {
		l.events = l.events[len(l.events)-l.maxLen:]
	}
	return persistJSON(l.path, l.events)
}

// Events returns a copy of the recorded events.
func (l *EventLog) Events() []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.events) == 0 {
		return nil
	}
	out := make([]models.Event, len(l.events))
	copy(out, l.events)
	return out
}

// EventsN returns up to limit of the most recent events.
func (l *EventLog) EventsN(limit int) []models.Event {
	l.mu.RLock()
	defer l.mu.RUnlock()

	if len(l.events) == 0 || limit <= 0 {
		return nil
	}
	start := len(l.events) - limit
	if start < 0 {
		start = 0
	}
	out := make([]models.Event, len(l.events)-start)
	copy(out, l.events[start:])
	return out
}

func loadJSON(path string, target any) error {
	data, err := os.ReadFile(path)
	if err != nil {
		if os.IsNotExist(err) {
			return nil
		}
		return fmt.Errorf("read %s: %w", path, err)
	}
	if len(data) == 0 {
		return nil
	}
	if err := json.Unmarshal(data, target); err != nil {
		return fmt.Errorf("parse %s: %w", path, err)
	}
	return nil
}

func persistJSON(path string, payload any) error {
	bytes, err := json.MarshalIndent(payload, "", "  ")
	if err != nil {
		return fmt.Errorf("encode %s: %w", path, err)
	}

	tmpPath := fmt.Sprintf("%s.%d.tmp", path, time.Now().UnixNano())
	if err := os.WriteFile(tmpPath, bytes, 0o644); err != nil {
		return fmt.Errorf("write temp file: %w", err)
	}
	if err := os.Rename(tmpPath, path); err != nil {
		_ = os.Remove(tmpPath)
		return fmt.Errorf("replace %s: %w", path, err)
	}
	return nil
}
