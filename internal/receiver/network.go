// ABOUTME: UDP network receiver for Scream datagrams
// ABOUTME: Joins a multicast group or binds unicast, parses packets into frames
package receiver

import (
	"errors"
	"fmt"
	"log"
	"net"
	"sync/atomic"
	"time"

	"golang.org/x/net/ipv4"

	"github.com/darkstego/scream/internal/audio"
)

const (
	// DefaultGroup is the multicast group the Windows sender targets.
	DefaultGroup = "239.255.77.77"

	// DefaultPort is the sender's default destination port.
	DefaultPort = 4010
)

// NetworkConfig selects the socket mode for a network receiver.
type NetworkConfig struct {
	Unicast   bool
	Port      int
	Group     string // multicast group address; DefaultGroup if empty
	Interface string // interface name or local IP; OS default if empty
	Verbose   bool
}

// Network receives Scream datagrams over UDP.
type Network struct {
	conn    net.PacketConn
	buf     [audio.MaxDatagram]byte
	verbose bool

	frames  atomic.Int64
	invalid atomic.Int64
}

// NewNetwork binds the socket and, in multicast mode, joins the group on
// the configured interface. Setup failures are fatal to startup.
func NewNetwork(cfg NetworkConfig) (*Network, error) {
	if cfg.Unicast {
		return newUnicast(cfg)
	}
	return newMulticast(cfg)
}

func newUnicast(cfg NetworkConfig) (*Network, error) {
	addr := &net.UDPAddr{Port: cfg.Port}
	if cfg.Interface != "" {
		_, ip, err := lookupInterface(cfg.Interface)
		if err != nil {
			return nil, err
		}
		addr.IP = ip
	}

	conn, err := net.ListenUDP("udp4", addr)
	if err != nil {
		return nil, fmt.Errorf("failed to bind %s: %w", addr, err)
	}

	if cfg.Verbose {
		log.Printf("Unicast receiver listening on %s", conn.LocalAddr())
	}

	return &Network{conn: conn, verbose: cfg.Verbose}, nil
}

func newMulticast(cfg NetworkConfig) (*Network, error) {
	group := cfg.Group
	if group == "" {
		group = DefaultGroup
	}
	groupIP := net.ParseIP(group)
	if groupIP == nil || !groupIP.IsMulticast() {
		return nil, fmt.Errorf("invalid multicast group: %s", group)
	}

	var iface *net.Interface
	if cfg.Interface != "" {
		var err error
		iface, _, err = lookupInterface(cfg.Interface)
		if err != nil {
			return nil, err
		}
	}

	conn, err := net.ListenUDP("udp4", &net.UDPAddr{Port: cfg.Port})
	if err != nil {
		return nil, fmt.Errorf("failed to bind port %d: %w", cfg.Port, err)
	}

	p := ipv4.NewPacketConn(conn)
	if err := p.JoinGroup(iface, &net.UDPAddr{IP: groupIP}); err != nil {
		conn.Close()
		return nil, fmt.Errorf("failed to join group %s: %w", group, err)
	}

	if cfg.Verbose {
		log.Printf("Multicast receiver joined %s:%d", group, cfg.Port)
	}

	return &Network{conn: conn, verbose: cfg.Verbose}, nil
}

// Receive blocks for the next valid frame. Short or misaligned datagrams
// are dropped and the read retried; socket errors are likewise absorbed.
// Only a closed socket ends the stream.
func (n *Network) Receive() (*audio.Frame, error) {
	for {
		size, _, err := n.conn.ReadFrom(n.buf[:])
		if err != nil {
			if errors.Is(err, net.ErrClosed) {
				return nil, err
			}
			if ne, ok := err.(net.Error); ok && ne.Timeout() {
				continue
			}
			// ICMP unreachable bounces and the like surface as read
			// errors on UDP sockets; the stream outlives them.
			n.invalid.Add(1)
			if n.verbose {
				log.Printf("Transient socket error, retrying: %v", err)
			}
			continue
		}

		if frame := n.parse(size); frame != nil {
			return frame, nil
		}
	}
}

// TryReceive drains one already-arrived datagram without blocking. The
// read deadline trick makes the kernel hand over only what is queued.
func (n *Network) TryReceive() (*audio.Frame, bool) {
	if err := n.conn.SetReadDeadline(time.Now()); err != nil {
		return nil, false
	}
	defer n.conn.SetReadDeadline(time.Time{})

	for {
		size, _, err := n.conn.ReadFrom(n.buf[:])
		if err != nil {
			return nil, false
		}
		if frame := n.parse(size); frame != nil {
			return frame, true
		}
	}
}

// parse validates one datagram, counting and logging rejects.
func (n *Network) parse(size int) *audio.Frame {
	frame, err := audio.ParseFrame(n.buf[:size])
	if err != nil {
		n.invalid.Add(1)
		if n.verbose {
			log.Printf("Dropped packet (%d bytes): %v", size, err)
		}
		return nil
	}

	n.frames.Add(1)
	return frame
}

// Stats returns counters for the TUI.
func (n *Network) Stats() Stats {
	return Stats{
		Frames:  n.frames.Load(),
		Invalid: n.invalid.Load(),
	}
}

// Close shuts the socket, unblocking any pending Receive.
func (n *Network) Close() error {
	return n.conn.Close()
}

// lookupInterface resolves an interface name or local IP address to the
// interface and its first IPv4 address.
func lookupInterface(name string) (*net.Interface, net.IP, error) {
	if ip := net.ParseIP(name); ip != nil {
		iface, err := interfaceByIP(ip)
		if err != nil {
			return nil, nil, err
		}
		return iface, ip.To4(), nil
	}

	iface, err := net.InterfaceByName(name)
	if err != nil {
		return nil, nil, fmt.Errorf("invalid interface %q: %w", name, err)
	}

	ip, err := interfaceIPv4(iface)
	if err != nil {
		return nil, nil, err
	}
	return iface, ip, nil
}

func interfaceByIP(ip net.IP) (*net.Interface, error) {
	ifaces, err := net.Interfaces()
	if err != nil {
		return nil, err
	}

	for i := range ifaces {
		addrs, err := ifaces[i].Addrs()
		if err != nil {
			continue
		}
		for _, addr := range addrs {
			if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.Equal(ip) {
				return &ifaces[i], nil
			}
		}
	}

	return nil, fmt.Errorf("no interface has address %s", ip)
}

func interfaceIPv4(iface *net.Interface) (net.IP, error) {
	addrs, err := iface.Addrs()
	if err != nil {
		return nil, err
	}

	for _, addr := range addrs {
		if ipnet, ok := addr.(*net.IPNet); ok && ipnet.IP.To4() != nil {
			return ipnet.IP.To4(), nil
		}
	}

	return nil, fmt.Errorf("interface %s has no IPv4 address", iface.Name)
}
