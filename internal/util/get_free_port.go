package util

import (
	"fmt"
	"net"
)

const maxOffset = 100

// GetFreePort returns defaultPort if it can be bound, otherwise the nearest
// free port above it, otherwise whatever the kernel hands out.
func GetFreePort(defaultPort int) (int, error) {
	for offset := 0; offset <= maxOffset; offset++ {
		port := defaultPort + offset
		if port < 0 || port > 65535 {
			break
		}
		if checkPortAvailability(port) {
			return port, nil
		}
	}
	return getRandomFreePort()
}

func checkPortAvailability(port int) bool {
	l, err := net.Listen("tcp", fmt.Sprintf(":%d", port))
	if err != nil {
		return false
	}
	l.Close()
	return true
}

func getRandomFreePort() (int, error) {
	l, err := net.Listen("tcp", "localhost:0")
	if err != nil {
		return 0, fmt.Errorf("error finding free port: %v", err)
	}
	defer l.Close()
	return l.Addr().(*net.TCPAddr).Port, nil
}
