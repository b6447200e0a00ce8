package dispatch

import (
	"bufio"
	"fmt"
	"io"
	"strconv"
	"strings"
	"time"

	"portmon/internal/models"
	"portmon/internal/probe"
	"portmon/internal/registry"
)

// manualLabel marks listeners started from the console rather than from
// the startup configuration.
const manualLabel = "MANUAL"

// StatusSource exposes the monitor's debounced online flag.
type StatusSource interface {
	Online() bool
}

// Dispatcher reads operator commands line by line and drives the
// registry, the monitor status and on-demand probes. It never blocks on
// registry or monitor internals beyond issuing calls and reading shared
// status.
type Dispatcher struct {
	in       io.Reader
	out      io.Writer
	registry *registry.Registry
	status   StatusSource
	ports    []models.PortSpec

	testTimeout  time.Duration
	sweepTimeout time.Duration

	prober func(host string, port int, timeout time.Duration) probe.Result
}

// New creates a dispatcher over the given command stream.
func New(in io.Reader, out io.Writer, reg *registry.Registry, status StatusSource, ports []models.PortSpec, testTimeout, sweepTimeout time.Duration) *Dispatcher {
	if testTimeout <= 0 {
		testTimeout = 2 * time.Second
	}
	if sweepTimeout <= 0 {
		sweepTimeout = 500 * time.Millisecond
	}
	return &Dispatcher{
		in:           in,
		out:          out,
		registry:     reg,
		status:       status,
		ports:        ports,
		testTimeout:  testTimeout,
		sweepTimeout: sweepTimeout,
		prober:       probe.Dial,
	}
}

// Run consumes the command stream until "exit" or end of input. On exit
// it stops every active listener before returning.
func (d *Dispatcher) Run() {
	scanner := bufio.NewScanner(d.in)
	for {
		fmt.Fprint(d.out, "> ")
		if !scanner.Scan() {
			break
		}
		if !d.handle(scanner.Text()) {
			break
		}
	}
	d.registry.StopAll()
}

// handle executes one command line. It returns false once the loop
// should end. The grammar is case-sensitive and prefix-based; a
// recognized verb with a malformed port number is a deliberate silent
// no-op, matching the permissive console contract.
func (d *Dispatcher) handle(line string) bool {
	switch {
	case line == "exit":
		return false
	case line == "status":
		if d.status != nil && d.status.Online() {
			fmt.Fprintln(d.out, "[Server status] Online")
		} else {
			fmt.Fprintln(d.out, "[Server status] Offline")
		}
	case line == "test all":
		d.testAll()
	case strings.HasPrefix(line, "test "):
		if port, ok := parsePort(line[len("test "):]); ok {
			d.testPort(port, d.testTimeout)
		}
	case strings.HasPrefix(line, "start "):
		if port, ok := parsePort(line[len("start "):]); ok {
			d.startPort(port)
		}
	case strings.HasPrefix(line, "stop "):
		if port, ok := parsePort(line[len("stop "):]); ok {
			d.stopPort(port)
		}
	default:
		fmt.Fprintln(d.out, "[!] Unknown command.")
	}
	return true
}

func (d *Dispatcher) startPort(port int) {
	if err := d.registry.Start(port, manualLabel); err != nil {
		fmt.Fprintf(d.out, "[!] %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "[Port %d] Listening\n", port)
}

func (d *Dispatcher) stopPort(port int) {
	if err := d.registry.Stop(port); err != nil {
		fmt.Fprintf(d.out, "[!] %v\n", err)
		return
	}
	fmt.Fprintf(d.out, "[Port %d] Stopped\n", port)
}

func (d *Dispatcher) testPort(port int, timeout time.Duration) {
	res := d.prober("127.0.0.1", port, timeout)
	state := "Closed"
	if res.OK {
		state = "Open"
	}
	fmt.Fprintf(d.out, "[Port %d] %s\n", port, state)
}

// testAll sweeps every enabled configured port in configuration order,
// one result line per port. Disabled entries are skipped.
func (d *Dispatcher) testAll() {
	for _, spec := range d.ports {
		if !spec.Enabled() {
			continue
		}
		res := d.prober("127.0.0.1", spec.Port, d.sweepTimeout)
		state := "Closed"
		if res.OK {
			state = "Open"
		}
		fmt.Fprintf(d.out, "[Port %d %s] %s\n", spec.Port, spec.Label, state)
	}
}

func parsePort(raw string) (int, bool) {
	port, err := strconv.Atoi(strings.TrimSpace(raw))
	if err != nil {
		return 0, false
	}
	return port, true
}
