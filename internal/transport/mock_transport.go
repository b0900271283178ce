package transport

import (
	"context"
	"net"
	"sync"
)

// ReceivedPacket is one queued response a MockTransport will hand back
// from Receive, in order.
type ReceivedPacket struct {
	Packet         []byte
	Src            net.Addr
	InterfaceIndex int
	Err            error
}

// MockTransport is a Transport test double: Send records what was
// sent, Receive plays back a queue of canned responses. It never
// touches a real socket, so package tests can exercise Querier and
// Advertiser without a network.
type MockTransport struct {
	mu       sync.Mutex
	Sent     [][]byte
	SentDest []net.Addr
	Queue    []ReceivedPacket
	Closed   bool
	SendErr  error
}

// Send records packet and dest, returning SendErr if set.
func (m *MockTransport) Send(_ context.Context, packet []byte, dest net.Addr) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	if m.SendErr != nil {
		return m.SendErr
	}
	cp := make([]byte, len(packet))
	copy(cp, packet)
	m.Sent = append(m.Sent, cp)
	m.SentDest = append(m.SentDest, dest)
	return nil
}

// Receive pops the next queued ReceivedPacket, blocking until ctx is
// canceled if the queue is empty.
func (m *MockTransport) Receive(ctx context.Context) ([]byte, net.Addr, int, error) {
	m.mu.Lock()
	if len(m.Queue) > 0 {
		next := m.Queue[0]
		m.Queue = m.Queue[1:]
		m.mu.Unlock()
		return next.Packet, next.Src, next.InterfaceIndex, next.Err
	}
	m.mu.Unlock()

	<-ctx.Done()
	return nil, nil, 0, ctx.Err()
}

// Close marks the mock closed.
func (m *MockTransport) Close() error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.Closed = true
	return nil
}
