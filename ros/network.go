package ros

import (
	"net"
	"os"
	"strings"

	"github.com/pkg/errors"
)

func determineHost() (string, bool) {
	// If the user set ROS_HOSTNAME, use it as is
	if rosHostname, ok := os.LookupEnv("ROS_HOSTNAME"); ok {
		return rosHostname, (rosHostname == "localhost")
	}

	// If the user set ROS_IP, use it as is
	if rosIP, ok := os.LookupEnv("ROS_IP"); ok {
		return rosIP, isLoopback(rosIP)
	}

	// Try using the hostname
	if osHostname, err := os.Hostname(); err == nil && osHostname != "localhost" {
		return osHostname, false
	}

	// Fall back on the interface IP
	if addrs, err := net.InterfaceAddrs(); err == nil {
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && !ipnet.IP.IsLoopback() {
				return ipnet.IP.String(), false
			}
		}
	}
	// Fall back to the loopback IP
	return "127.0.0.1", true
}

func isLoopback(ip string) bool {
	return ip == "::1" || strings.HasPrefix(ip, "127.")
}

// listenAny opens a TCP listener on an ephemeral port of address.
func listenAny(address string) (net.Listener, string, error) {
	listener, err := net.Listen("tcp", net.JoinHostPort(address, "0"))
	if err != nil {
		return nil, "", errors.Wrapf(err, "listen on %s", address)
	}
	_, port, err := net.SplitHostPort(listener.Addr().String())
	if err != nil {
		listener.Close()
		return nil, "", err
	}
	return listener, port, nil
}
