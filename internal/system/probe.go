package system

import (
	"net"
	"strconv"
	"time"
)

// probeTimeout bounds a single connectivity probe.
const probeTimeout = 3 * time.Second

// ProbePort reports whether a TCP listener accepts connections on the
// given host and port. It checks reachability only; it does not speak
// the proxy protocol.
func ProbePort(host string, port int) bool {
	addr := net.JoinHostPort(host, strconv.Itoa(port))
	conn, err := net.DialTimeout("tcp", addr, probeTimeout)
	if err != nil {
		return false
	}
	_ = conn.Close()
	return true
}
