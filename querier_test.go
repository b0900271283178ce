package mdns

import (
	"context"
	"net"
	"testing"
	"time"

	"github.com/joshuafuller/beacon/dnssd"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/transport"
)

func TestQuerier_Query_CollectsAndDedupes(t *testing.T) {
	answer, err := dnssd.BuildQueryAnswer(dnssd.ServiceAnswer{
		InstanceName: "My Printer",
		ServiceType:  "_http._tcp.local.",
		Host:         "myhost.local.",
		IPv4:         net.ParseIP("192.168.1.42"),
		Port:         8080,
	})
	if err != nil {
		t.Fatalf("BuildQueryAnswer() error = %v", err)
	}

	src := &net.UDPAddr{IP: net.ParseIP("192.168.1.42"), Port: protocol.Port}
	mock := &transport.MockTransport{Queue: []transport.ReceivedPacket{
		{Packet: answer, Src: src},
		{Packet: answer, Src: src}, // duplicate response from the same responder
	}}

	q, err := New(WithTransport(mock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 50*time.Millisecond)
	defer cancel()

	resp, err := q.Query(ctx, "_http._tcp.local.", RecordTypePTR)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}

	if len(mock.Sent) != 1 {
		t.Fatalf("expected exactly one packet sent, got %d", len(mock.Sent))
	}

	if len(resp.Records) != 3 { // PTR, SRV, A — the duplicate response contributes nothing new
		t.Fatalf("expected 3 deduplicated records (PTR, SRV, A), got %d: %+v", len(resp.Records), resp.Records)
	}

	var sawPTR, sawSRV, sawA bool
	for _, r := range resp.Records {
		switch r.Type {
		case RecordTypePTR:
			sawPTR = true
			if r.AsPTR() != "My Printer._http._tcp.local" {
				t.Errorf("PTR data = %q", r.AsPTR())
			}
		case RecordTypeSRV:
			sawSRV = true
			if r.AsSRV().Port != 8080 {
				t.Errorf("SRV port = %d, want 8080", r.AsSRV().Port)
			}
		case RecordTypeA:
			sawA = true
			if r.AsA().String() != "192.168.1.42" {
				t.Errorf("A data = %v", r.AsA())
			}
		}
	}
	if !sawPTR || !sawSRV || !sawA {
		t.Errorf("missing expected records: sawPTR=%v sawSRV=%v sawA=%v", sawPTR, sawSRV, sawA)
	}
}

func TestQuerier_Query_NoResponses(t *testing.T) {
	mock := &transport.MockTransport{}
	q, err := New(WithTransport(mock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	defer func() { _ = q.Close() }()

	ctx, cancel := context.WithTimeout(context.Background(), 20*time.Millisecond)
	defer cancel()

	resp, err := q.Query(ctx, "_http._tcp.local.", RecordTypePTR)
	if err != nil {
		t.Fatalf("Query() error = %v", err)
	}
	if len(resp.Records) != 0 {
		t.Errorf("expected no records, got %d", len(resp.Records))
	}
}

func TestQuerier_Close_ClosesTransport(t *testing.T) {
	mock := &transport.MockTransport{}
	q, err := New(WithTransport(mock))
	if err != nil {
		t.Fatalf("New() error = %v", err)
	}
	if err := q.Close(); err != nil {
		t.Fatalf("Close() error = %v", err)
	}
	if !mock.Closed {
		t.Error("expected underlying transport to be closed")
	}
}
