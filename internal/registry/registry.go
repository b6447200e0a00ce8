package registry

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync"
	"time"

	"portmon/internal/models"
)

// ConflictError reports a start request for a port that is already active.
type ConflictError struct {
	Port int
}

func (e *ConflictError) Error() string {
	return fmt.Sprintf("port %d already has an active listener", e.Port)
}

// BindError reports that the underlying listen call failed.
type BindError struct {
	Port int
	Err  error
}

func (e *BindError) Error() string {
	return fmt.Sprintf("bind port %d: %v", e.Port, e.Err)
}

func (e *BindError) Unwrap() error { return e.Err }

// NotFoundError reports a stop request for a port with no active listener.
type NotFoundError struct {
	Port int
}

func (e *NotFoundError) Error() string {
	return fmt.Sprintf("no active listener on port %d", e.Port)
}

// EventSink receives one record per listener lifecycle or accept event.
type EventSink interface {
	AppendEvent(models.Event) error
}

type entry struct {
	port     int
	label    string
	listener net.Listener
	doneCh   chan struct{}
}

// Registry owns the mapping from port to active listener. All map
// mutation and the existence checks that decide whether to mutate happen
// under one mutex, so concurrent start/stop calls against the same port
// serialize.
type Registry struct {
	sink EventSink

	mu      sync.Mutex
	entries map[int]*entry
}

// New creates an empty registry.
func New(sink EventSink) *Registry {
	return &Registry{
		sink:    sink,
		entries: make(map[int]*entry),
	}
}

// Start binds a listener on port and launches its accept loop. It
// returns immediately once the port is bound; the loop runs until Stop
// or an unexpected acceptor error.
func (r *Registry) Start(port int, label string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if _, exists := r.entries[port]; exists {
		return &ConflictError{Port: port}
	}

	if port <= 0 || port > 65535 {
		err := fmt.Errorf("port %d out of range", port)
		r.record(models.Event{Kind: models.EventBindFailed, Port: port, Label: label, Error: err.Error()})
		return &BindError{Port: port, Err: err}
	}

	ln, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		r.record(models.Event{Kind: models.EventBindFailed, Port: port, Label: label, Error: err.Error()})
		return &BindError{Port: port, Err: err}
	}

	e := &entry{
		port:     port,
		label:    label,
		listener: ln,
		doneCh:   make(chan struct{}),
	}
	r.entries[port] = e
	r.record(models.Event{Kind: models.EventListenerStarted, Port: port, Label: label})
	log.Printf("listener %s started on port %d", label, port)

	go r.acceptLoop(e)
	return nil
}

// Stop closes the listener on port and waits for its accept loop to
// exit. Closing the listener unblocks a pending Accept, so the loop
// reacts promptly.
func (r *Registry) Stop(port int) error {
	r.mu.Lock()
	e, exists := r.entries[port]
	if exists {
		delete(r.entries, port)
	}
	r.mu.Unlock()

	if !exists {
		return &NotFoundError{Port: port}
	}

	_ = e.listener.Close()
	<-e.doneCh
	r.record(models.Event{Kind: models.EventListenerStopped, Port: port, Label: e.label})
	log.Printf("listener %s stopped on port %d", e.label, port)
	return nil
}

// StopAll stops every active listener. Order is unspecified; ports are
// independent. Safe to call repeatedly.
func (r *Registry) StopAll() {
	for _, port := range r.Ports() {
		if err := r.Stop(port); err != nil {
			var notFound *NotFoundError
			if !errors.As(err, &notFound) {
				log.Printf("stop port %d: %v", port, err)
			}
		}
	}
}

// Active reports whether port currently has a listener.
func (r *Registry) Active(port int) bool {
	r.mu.Lock()
	defer r.mu.Unlock()
	_, exists := r.entries[port]
	return exists
}

// Ports returns the currently registered ports.
func (r *Registry) Ports() []int {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]int, 0, len(r.entries))
	for port := range r.entries {
		out = append(out, port)
	}
	return out
}

// Listeners returns a snapshot of the active listeners as port specs.
func (r *Registry) Listeners() []models.PortSpec {
	r.mu.Lock()
	defer r.mu.Unlock()

	out := make([]models.PortSpec, 0, len(r.entries))
	for _, e := range r.entries {
		out = append(out, models.PortSpec{Port: e.port, Label: e.label})
	}
	return out
}

// acceptLoop accepts inbound connections and immediately closes them;
// this tool tests reachability, not payload exchange. A closed listener
// ends the loop quietly; any other acceptor error ends it with a
// diagnostic and leaves every other listener untouched.
func (r *Registry) acceptLoop(e *entry) {
	defer close(e.doneCh)

	for {
		conn, err := e.listener.Accept()
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return
			}
			r.record(models.Event{Kind: models.EventAcceptError, Port: e.port, Label: e.label, Error: err.Error()})
			log.Printf("accept on port %d: %v", e.port, err)
			return
		}

		remote := conn.RemoteAddr().String()
		_ = conn.Close()
		r.record(models.Event{Kind: models.EventAccepted, Port: e.port, Label: e.label, RemoteAddr: remote})
		log.Printf("port %d accepted connection from %s", e.port, remote)
	}
}

func (r *Registry) record(event models.Event) {
	if r.sink == nil {
		return
	}
	event.Timestamp = time.Now().UTC()
	if err := r.sink.AppendEvent(event); err != nil {
		log.Printf("record listener event: %v", err)
	}
}
