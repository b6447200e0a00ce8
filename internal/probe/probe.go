package probe

import (
	"net"
	"strconv"
	"time"
)

// Result captures the outcome of a single connect attempt.
type Result struct {
	OK        bool
	LatencyMs int64
	Error     string
}

// Dial attempts one TCP connection to host:port, waiting at most timeout
// for the connection to complete. The dialer reports refused and
// unreachable targets as errors, so a completed dial means the remote
// side actually accepted. The socket is closed before returning on
// every path.
func Dial(host string, port int, timeout time.Duration) Result {
	if port <= 0 || port > 65535 {
		return Result{Error: "port out of range"}
	}

	address := net.JoinHostPort(host, strconv.Itoa(port))
	started := time.Now()
	conn, err := net.DialTimeout("tcp", address, timeout)
	if err != nil {
		return Result{Error: err.Error()}
	}
	_ = conn.Close()

	return Result{
		OK:        true,
		LatencyMs: int64(time.Since(started) / time.Millisecond),
	}
}

// Reachable reports whether host:port accepted a connection within timeout.
func Reachable(host string, port int, timeout time.Duration) bool {
	return Dial(host, port, timeout).OK
}
