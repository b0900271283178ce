package mdns

import (
	"context"
	"net"
	"strings"

	"github.com/joshuafuller/beacon/dnssd"
	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/transport"
	"github.com/joshuafuller/beacon/internal/wire"
)

// Service describes one DNS-SD service instance an Advertiser answers
// questions about.
type Service struct {
	InstanceName string
	ServiceType  string // e.g. "_http._tcp.local."
	Host         string // e.g. "myhost.local."
	TXT          []wire.TXTEntry
	IPv4         net.IP
	IPv6         net.IP
	Port         uint16
}

// Advertiser listens for mDNS questions and answers the ones matching
// its registered services. It answers each question as it arrives; it
// does not probe for name conflicts, does not send unsolicited
// announcements, and does not track record freshness — building those
// on top is the job of a full responder, not this package.
type Advertiser struct {
	tx       transport.Transport
	services []Service
}

// NewAdvertiser creates an Advertiser bound to the mDNS IPv4 multicast
// group, answering questions about services.
func NewAdvertiser(services []Service, opts ...Option) (*Advertiser, error) {
	cfg := querierConfig{}
	for _, opt := range opts {
		opt(&cfg)
	}

	tx := cfg.transport
	if tx == nil {
		var err error
		tx, err = transport.NewUDPv4Transport()
		if err != nil {
			return nil, err
		}
	}
	return &Advertiser{tx: tx, services: services}, nil
}

// Close releases the Advertiser's socket.
func (a *Advertiser) Close() error {
	return a.tx.Close()
}

// Serve blocks, answering incoming questions until ctx is done.
func (a *Advertiser) Serve(ctx context.Context) error {
	for {
		buf, src, _, err := a.tx.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				return nil
			}
			return err
		}
		a.handle(ctx, buf, src)
	}
}

func (a *Advertiser) handle(ctx context.Context, buf []byte, src net.Addr) {
	h := &questionHandler{advertiser: a}
	if _, err := wire.ParseMessage(buf, h, wire.ParseOptions{}); err != nil {
		return
	}
	for _, answer := range h.answers {
		_ = a.tx.Send(ctx, answer, src)
	}
}

// questionHandler answers each question in a received message against
// the Advertiser's registered services, queuing one built response
// packet per match.
type questionHandler struct {
	advertiser *Advertiser
	answers    [][]byte
}

func (h *questionHandler) OnQuestion(_ wire.Section, _ uint16, name string, qtype, class uint16) bool {
	if !wire.ClassMatches(class) {
		return false
	}

	switch protocol.RecordType(qtype) {
	case protocol.RecordTypePTR:
		if strings.EqualFold(strings.TrimSuffix(name, "."), strings.TrimSuffix(protocol.ServiceEnumerationName, ".")) {
			for _, svc := range h.advertiser.services {
				if packet, err := dnssd.BuildDiscoveryAnswer(svc.ServiceType); err == nil {
					h.answers = append(h.answers, packet)
				}
			}
			return false
		}
		for _, svc := range h.advertiser.services {
			if !strings.EqualFold(strings.TrimSuffix(name, "."), strings.TrimSuffix(svc.ServiceType, ".")) {
				continue
			}
			if packet, err := h.buildAnswer(svc); err == nil {
				h.answers = append(h.answers, packet)
			}
		}
	}
	return false
}

// OnRecord is a no-op: an Advertiser answers questions, not records.
func (h *questionHandler) OnRecord(uint16, wire.Record) bool { return false }

func (h *questionHandler) buildAnswer(svc Service) ([]byte, error) {
	if svc.InstanceName == "" {
		return nil, &errors.ValidationError{Field: "InstanceName", Message: "must not be empty"}
	}
	return dnssd.BuildQueryAnswer(dnssd.ServiceAnswer{
		InstanceName: svc.InstanceName,
		ServiceType:  svc.ServiceType,
		Host:         svc.Host,
		TXT:          svc.TXT,
		IPv4:         svc.IPv4,
		IPv6:         svc.IPv6,
		Port:         svc.Port,
	})
}
