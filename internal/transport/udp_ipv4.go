package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/net/ipv4"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/iface"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// UDPv4Transport is the production Transport for IPv4 mDNS multicast.
type UDPv4Transport struct {
	conn     net.PacketConn   // raw UDP connection
	ipv4Conn *ipv4.PacketConn // wrapper for control message access (IP_PKTINFO/IP_RECVIF)
	group    *net.UDPAddr
}

// NewUDPv4Transport creates a UDP multicast transport bound to the
// mDNS group (RFC 6762 §5: 224.0.0.251:5353). Unlike
// net.ListenMulticastUDP, socket creation goes through a
// net.ListenConfig.Control hook so SO_REUSEADDR/SO_REUSEPORT can be set
// before bind — required for more than one process (or more than one
// Querier in the same process) to listen on the mDNS port
// concurrently.
func NewUDPv4Transport() (*UDPv4Transport, error) {
	group, err := net.ResolveUDPAddr("udp4", net.JoinHostPort(protocol.MulticastAddrIPv4, strconv.Itoa(protocol.Port)))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "resolve multicast address",
			Err:       err,
			Details:   fmt.Sprintf("failed to resolve %s:%d", protocol.MulticastAddrIPv4, protocol.Port),
		}
	}

	lc := net.ListenConfig{Control: controlSetReuse}
	pc, err := lc.ListenPacket(context.Background(), "udp4", net.JoinHostPort("", strconv.Itoa(protocol.Port)))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind udp4 port %d", protocol.Port),
		}
	}
	conn := pc.(*net.UDPConn)

	if err := conn.SetReadBuffer(65536); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{
			Operation: "configure socket",
			Err:       err,
			Details:   "failed to set read buffer size",
		}
	}

	ipv4Conn := ipv4.NewPacketConn(conn)
	if err := joinAllIPv4Multicast(ipv4Conn, group); err != nil {
		_ = conn.Close()
		return nil, err
	}

	// Best-effort: interface index in control messages is used for RFC
	// 6762 §15 interface-specific replies when the platform supports it.
	// interfaceIndex will be 0 when cm == nil, triggering graceful
	// degradation in callers.
	_ = ipv4Conn.SetControlMessage(ipv4.FlagInterface, true)

	// Outbound multicast stays on the local link: TTL 1.
	if err := ipv4Conn.SetMulticastTTL(1); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "configure socket", Err: err, Details: "failed to set multicast TTL"}
	}

	return &UDPv4Transport{conn: conn, ipv4Conn: ipv4Conn, group: group}, nil
}

// joinAllIPv4Multicast joins group on every multicast-capable IPv4
// interface, so responses reach all local networks rather than only
// whichever interface the OS default route picks.
func joinAllIPv4Multicast(ipv4Conn *ipv4.PacketConn, group *net.UDPAddr) error {
	ifaces, err := iface.MulticastCapable()
	if err != nil {
		return &errors.NetworkError{Operation: "enumerate interfaces", Err: err}
	}
	joined := 0
	for i := range ifaces {
		if err := ipv4Conn.JoinGroup(&ifaces[i], &net.UDPAddr{IP: group.IP}); err == nil {
			joined++
		}
	}
	if joined == 0 {
		return &errors.NetworkError{Operation: "join multicast group", Details: "no usable multicast interface found"}
	}
	return nil
}

// Send transmits packet to dest, or to the mDNS multicast group if
// dest is nil.
func (t *UDPv4Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
	select {
	case <-ctx.Done():
		return &errors.NetworkError{Operation: "send query", Err: ctx.Err(), Details: "context canceled before send"}
	default:
	}

	if dest == nil {
		dest = t.group
	}

	n, err := t.conn.WriteTo(packet, dest)
	if err != nil {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       err,
			Details:   fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest),
		}
	}
	if n != len(packet) {
		return &errors.NetworkError{
			Operation: "send query",
			Err:       fmt.Errorf("partial write: %d/%d bytes", n, len(packet)),
			Details:   "incomplete transmission",
		}
	}
	return nil
}

// Receive waits for an incoming packet, respecting context cancellation/deadline.
func (t *UDPv4Transport) Receive(ctx context.Context) ([]byte, net.Addr, int, error) {
	select {
	case <-ctx.Done():
		return nil, nil, 0, &errors.NetworkError{Operation: "receive response", Err: ctx.Err(), Details: "context canceled before receive"}
	default:
	}

	if deadline, ok := ctx.Deadline(); ok {
		if err := t.conn.SetReadDeadline(deadline); err != nil {
			return nil, nil, 0, &errors.NetworkError{Operation: "set read timeout", Err: err, Details: fmt.Sprintf("failed to set deadline %v", deadline)}
		}
	}

	bufPtr := GetBuffer()
	defer PutBuffer(bufPtr)
	buffer := *bufPtr

	n, cm, srcAddr, err := t.ipv4Conn.ReadFrom(buffer)
	if err != nil {
		if netErr, ok := err.(net.Error); ok && netErr.Timeout() {
			return nil, nil, 0, &errors.NetworkError{Operation: "receive response", Err: err, Details: "timeout"}
		}
		return nil, nil, 0, &errors.NetworkError{Operation: "receive response", Err: err, Details: "failed to read from socket"}
	}

	interfaceIndex := 0
	if cm != nil {
		interfaceIndex = cm.IfIndex
	}

	result := make([]byte, n)
	copy(result, buffer[:n])
	return result, srcAddr, interfaceIndex, nil
}

// Close releases network resources.
func (t *UDPv4Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{Operation: "close socket", Err: err, Details: "failed to close UDP connection"}
	}
	return nil
}
