// Package transport provides the network transport abstraction this
// library sends and receives DNS messages over. It decouples the wire
// codec and the DNS-SD operations from any particular socket
// implementation, so tests can substitute a mock transport without
// touching either.
package transport

import (
	"context"
	"net"
)

// Transport abstracts network operations for sending and receiving
// mDNS packets over one address family.
//
// Implementations:
//   - UDPv4Transport: IPv4 multicast, 224.0.0.251:5353
//   - UDPv6Transport: IPv6 multicast, [ff02::fb]:5353
type Transport interface {
	// Send transmits a packet to the specified destination address.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline propagation
	//   - packet: DNS message in wire format
	//   - dest: Destination address; nil sends to the transport's
	//     configured multicast group
	//
	// Returns:
	//   - error: NetworkError on transmission failure
	Send(ctx context.Context, packet []byte, dest net.Addr) error

	// Receive waits for an incoming packet, respecting context cancellation/deadline.
	//
	// Parameters:
	//   - ctx: Context for cancellation and deadline propagation
	//
	// Returns:
	//   - packet: received DNS message in wire format
	//   - srcAddr: source address of the packet
	//   - interfaceIndex: OS interface index that received the packet (from
	//     IP_PKTINFO/IPV6_PKTINFO control messages). Zero (0) indicates the
	//     interface is unknown (graceful degradation).
	//   - error: NetworkError on timeout or receive failure
	//
	// RFC 6762 §15: interface index enables building responses with
	// addresses valid on the receiving interface only (MUST include
	// interface IP, MUST NOT include other IPs).
	Receive(ctx context.Context) (packet []byte, srcAddr net.Addr, interfaceIndex int, err error)

	// Close releases network resources.
	//
	// Returns:
	//   - error: NetworkError on close failure (errors are propagated, not swallowed)
	Close() error
}
