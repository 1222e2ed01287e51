package hosts

import (
	"net"
)

// PrimaryAddress returns the host's primary IPv4 address, or "" when none can
// be determined. The outbound dial never sends a packet; it only asks the
// kernel which source address would be used for external traffic.
func PrimaryAddress() string {
	if conn, err := net.Dial("udp", "8.8.8.8:80"); err == nil {
		defer conn.Close()
		if addr, ok := conn.LocalAddr().(*net.UDPAddr); ok && addr.IP.To4() != nil {
			return addr.IP.String()
		}
	}

	// Fallback for hosts without a default route: first non-loopback IPv4 on
	// any interface.
	addrs, err := net.InterfaceAddrs()
	if err != nil {
		return ""
	}
	for _, a := range addrs {
		ipNet, ok := a.(*net.IPNet)
		if !ok || ipNet.IP.IsLoopback() {
			continue
		}
		if ip4 := ipNet.IP.To4(); ip4 != nil {
			return ip4.String()
		}
	}

	return ""
}
