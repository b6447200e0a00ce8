package models

import "time"

// Target identifies the remote endpoint whose reachability is monitored.
type Target struct {
	Host string `yaml:"host" json:"host"`
	Port int    `yaml:"port" json:"port"`
}

// PortSpec maps a configured port to its descriptive label. A Port of 0
// means the entry is configured but disabled: it is skipped at auto-start
// and during sweeps, but still appears in configuration listings.
type PortSpec struct {
	Port  int    `yaml:"port" json:"port"`
	Label string `yaml:"label" json:"label"`
}

// Enabled reports whether the spec should be auto-started and swept.
func (p PortSpec) Enabled() bool {
	return p.Port > 0
}

// CheckSample captures the outcome of one reachability check.
type CheckSample struct {
	Target              Target    `json:"target"`
	OK                  bool      `json:"ok"`
	LatencyMs           int64     `json:"latency_ms"`
	ConsecutiveFailures int       `json:"consecutive_failures"`
	Online              bool      `json:"online"`
	Error               string    `json:"error,omitempty"`
	CheckedAt           time.Time `json:"checked_at"`
}

// Event kinds recorded by the listener registry.
const (
	EventListenerStarted = "listener_started"
	EventListenerStopped = "listener_stopped"
	EventBindFailed      = "bind_failed"
	EventAccepted        = "connection_accepted"
	EventAcceptError     = "accept_error"
)

// Event is one diagnostic record emitted by the listener registry.
type Event struct {
	Kind       string    `json:"kind"`
	Port       int       `json:"port"`
	Label      string    `json:"label,omitempty"`
	RemoteAddr string    `json:"remote_addr,omitempty"`
	Error      string    `json:"error,omitempty"`
	Timestamp  time.Time `json:"timestamp"`
}
