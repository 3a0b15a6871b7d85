// ABOUTME: mDNS advertisement for the receiver
// ABOUTME: Announces the listening endpoint so operators can find receivers on the LAN
package discovery

import (
	"fmt"
	"log"
	"net"
	"sync"

	"github.com/hashicorp/mdns"

	"github.com/darkstego/scream/internal/version"
)

const serviceType = "_scream-receiver._udp"

// Config holds advertisement configuration. Interface pins the announced
// addresses to one interface, by name or local IP; empty announces every
// usable IPv4 address.
type Config struct {
	ServiceName string
	Port        int
	Interface   string
}

// Manager owns the lifetime of one mDNS responder.
type Manager struct {
	config Config

	mu     sync.Mutex
	server *mdns.Server
}

// NewManager creates an advertisement manager.
func NewManager(config Config) *Manager {
	return &Manager{config: config}
}

// Advertise announces this receiver via mDNS until Stop is called. The
// announced addresses match where the receiver actually listens: the
// pinned interface when one is configured, every usable IPv4 otherwise.
func (m *Manager) Advertise() error {
	ips, err := advertiseIPs(m.config.Interface)
	if err != nil {
		return err
	}

	zone, err := mdns.NewMDNSService(
		m.config.ServiceName,
		serviceType,
		"",
		"",
		m.config.Port,
		ips,
		[]string{fmt.Sprintf("version=%s", version.Version)},
	)
	if err != nil {
		return fmt.Errorf("failed to create service: %w", err)
	}

	server, err := mdns.NewServer(&mdns.Config{Zone: zone})
	if err != nil {
		return fmt.Errorf("failed to create mdns server: %w", err)
	}

	m.mu.Lock()
	m.server = server
	m.mu.Unlock()

	log.Printf("Advertising mDNS service: %s on port %d (type: %s, %d addresses)",
		m.config.ServiceName, m.config.Port, serviceType, len(ips))
	return nil
}

// Stop shuts the responder down. Safe to call repeatedly.
func (m *Manager) Stop() {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.server != nil {
		m.server.Shutdown()
		m.server = nil
	}
}

// advertiseIPs resolves the addresses to announce. A pinned interface is
// taken at the operator's word, even for addresses the default scan would
// skip; without one the scan covers every up, non-loopback interface.
func advertiseIPs(pinned string) ([]net.IP, error) {
	if pinned != "" {
		if ip := net.ParseIP(pinned); ip != nil {
			v4 := ip.To4()
			if v4 == nil {
				return nil, fmt.Errorf("not an IPv4 address: %s", pinned)
			}
			return []net.IP{v4}, nil
		}

		iface, err := net.InterfaceByName(pinned)
		if err != nil {
			return nil, fmt.Errorf("invalid interface %q: %w", pinned, err)
		}
		ips := interfaceIPv4s(iface)
		if len(ips) == 0 {
			return nil, fmt.Errorf("interface %s has no IPv4 address", pinned)
		}
		return ips, nil
	}

	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, fmt.Errorf("failed to list interfaces: %w", err)
	}

	var ips []net.IP
	for i := range ifaces {
		if ifaces[i].Flags&net.FlagUp == 0 || ifaces[i].Flags&net.FlagLoopback != 0 {
			continue
		}
		ips = append(ips, interfaceIPv4s(&ifaces[i])...)
	}
	return ips, nil
}

func interfaceIPv4s(iface *net.Interface) []net.IP {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil
	}

	var ips []net.IP
	for _, addr := range addrs {
		ipnet, ok := addr.(*net.IPNet)
		if !ok {
			continue
		}
		if v4 := ipnet.IP.To4(); v4 != nil {
			ips = append(ips, v4)
		}
	}
	return ips
}
