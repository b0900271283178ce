package transport

import (
	"context"
	"fmt"
	"net"
	"strconv"

	"golang.org/x/net/ipv6"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/iface"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// UDPv6Transport is the production Transport for IPv6 mDNS multicast
// (RFC 6762 §5: [ff02::fb]:5353). It mirrors UDPv4Transport, swapping
// golang.org/x/net/ipv4 for golang.org/x/net/ipv6.
type UDPv6Transport struct {
	conn     net.PacketConn
	ipv6Conn *ipv6.PacketConn
	group    *net.UDPAddr
}

// NewUDPv6Transport creates a UDP multicast transport bound to the
// mDNS IPv6 group.
func NewUDPv6Transport() (*UDPv6Transport, error) {
	group, err := net.ResolveUDPAddr("udp6", net.JoinHostPort(protocol.MulticastAddrIPv6, strconv.Itoa(protocol.Port)))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "resolve multicast address",
			Err:       err,
			Details:   fmt.Sprintf("failed to resolve [%s]:%d", protocol.MulticastAddrIPv6, protocol.Port),
		}
	}

	lc := net.ListenConfig{Control: controlSetReuse}
	pc, err := lc.ListenPacket(context.Background(), "udp6", net.JoinHostPort("", strconv.Itoa(protocol.Port)))
	if err != nil {
		return nil, &errors.NetworkError{
			Operation: "create socket",
			Err:       err,
			Details:   fmt.Sprintf("failed to bind udp6 port %d", protocol.Port),
		}
	}
	conn := pc.(*net.UDPConn)

	if err := conn.SetReadBuffer(65536); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "configure socket", Err: err, Details: "failed to set read buffer size"}
	}

	ipv6Conn := ipv6.NewPacketConn(conn)
	if err := joinAllIPv6Multicast(ipv6Conn, group); err != nil {
		_ = conn.Close()
		return nil, err
	}

	_ = ipv6Conn.SetControlMessage(ipv6.FlagInterface, true)

	// Outbound multicast stays on the local link: hop limit 1.
	if err := ipv6Conn.SetMulticastHopLimit(1); err != nil {
		_ = conn.Close()
		return nil, &errors.NetworkError{Operation: "configure socket", Err: err, Details: "failed to set multicast hop limit"}
	}

	return &UDPv6Transport{conn: conn, ipv6Conn: ipv6Conn, group: group}, nil
}

func joinAllIPv6Multicast(ipv6Conn *ipv6.PacketConn, group *net.UDPAddr) error {
	ifaces, err := iface.MulticastCapable()
	if err != nil {
		return &errors.NetworkError{Operation: "enumerate interfaces", Err: err}
	}
	joined := 0
	for i := range ifaces {
		if err := ipv6Conn.JoinGroup(&ifaces[i], &net.UDPAddr{IP: group.IP}); err == nil {
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
func (t *UDPv6Transport) Send(ctx context.Context, packet []byte, dest net.Addr) error {
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
		return &errors.NetworkError{Operation: "send query", Err: err, Details: fmt.Sprintf("failed to send %d bytes to %s", len(packet), dest)}
	}
	if n != len(packet) {
		return &errors.NetworkError{Operation: "send query", Err: fmt.Errorf("partial write: %d/%d bytes", n, len(packet)), Details: "incomplete transmission"}
	}
	return nil
}

// Receive waits for an incoming packet, respecting context cancellation/deadline.
func (t *UDPv6Transport) Receive(ctx context.Context) ([]byte, net.Addr, int, error) {
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

	n, cm, srcAddr, err := t.ipv6Conn.ReadFrom(buffer)
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
func (t *UDPv6Transport) Close() error {
	if t.conn == nil {
		return nil
	}
	if err := t.conn.Close(); err != nil {
		return &errors.NetworkError{Operation: "close socket", Err: err, Details: "failed to close UDP connection"}
	}
	return nil
}
