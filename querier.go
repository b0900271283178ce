package mdns

import (
	"context"
	"fmt"

	"github.com/joshuafuller/beacon/dnssd"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/transport"
	"github.com/joshuafuller/beacon/internal/wire"
)

// Querier sends mDNS queries and collects the responses received
// before the caller's context deadline. One Querier owns one IPv4
// multicast socket. Concurrent Query calls on one Querier share that
// socket: each received packet is read by only one of them.
type Querier struct {
	tx transport.Transport
}

// Option configures a Querier at construction time.
type Option func(*querierConfig)

type querierConfig struct {
	transport transport.Transport
}

// WithTransport overrides the socket a Querier sends and receives on,
// letting tests substitute a transport.MockTransport instead of a real
// multicast socket.
func WithTransport(tx transport.Transport) Option {
	return func(c *querierConfig) { c.transport = tx }
}

// New creates a Querier bound to the mDNS IPv4 multicast group.
func New(opts ...Option) (*Querier, error) {
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
	return &Querier{tx: tx}, nil
}

// Close releases the Querier's socket.
func (q *Querier) Close() error {
	return q.tx.Close()
}

// Query sends a single question for name/qtype to the multicast group
// and collects every answer, authority, and additional record received
// until ctx is done, deduplicating identical records (same name, type,
// class, and decoded data) received from more than one responder. An
// empty Response is not an error: it means nothing answered in time.
func (q *Querier) Query(ctx context.Context, name string, qtype RecordType) (*Response, error) {
	packet, err := dnssd.BuildQuery(name, uint16(qtype))
	if err != nil {
		return nil, err
	}

	if err := q.tx.Send(ctx, packet, nil); err != nil {
		return nil, err
	}

	collector := &recordCollector{seen: make(map[string]struct{})}
	for {
		buf, _, _, err := q.tx.Receive(ctx)
		if err != nil {
			if ctx.Err() != nil {
				break // deadline reached: return whatever was collected
			}
			return nil, err
		}
		if _, err := wire.ParseMessage(buf, collector, wire.ParseOptions{}); err != nil {
			continue // malformed packet from the network: ignore and keep listening
		}
	}

	return &Response{Records: collector.records}, nil
}

// recordCollector implements wire.Handler, gathering every delivered
// record into a deduplicated slice. Questions are ignored: a Querier
// only cares about answers.
type recordCollector struct {
	wire.NopQuestionHandler
	records []ResourceRecord
	seen    map[string]struct{}
}

func (c *recordCollector) OnRecord(_ uint16, r wire.Record) bool {
	rec := ResourceRecord{
		Name:  r.Name,
		Type:  RecordType(r.Type),
		Class: r.Class,
		TTL:   r.TTL,
	}

	switch protocol.RecordType(r.Type) {
	case protocol.RecordTypeA:
		rec.Data = wire.ParseA(r.Buffer, r.RDataOffset, r.RDataLength)
	case protocol.RecordTypeAAAA:
		rec.Data = wire.ParseAAAA(r.Buffer, r.RDataOffset, r.RDataLength)
	case protocol.RecordTypePTR:
		rec.Data = wire.ParsePTR(r.Buffer, r.RDataOffset, r.RDataLength)
	case protocol.RecordTypeSRV:
		rec.Data = wire.ParseSRV(r.Buffer, r.RDataOffset, r.RDataLength)
	case protocol.RecordTypeTXT:
		rec.Data = wire.ParseTXT(r.Buffer, r.RDataOffset, r.RDataLength)
	default:
		return false // unrecognized type: nothing to decode, keep listening
	}

	key := fmt.Sprintf("%s|%d|%d|%v", rec.Name, rec.Type, rec.Class, rec.Data)
	if _, dup := c.seen[key]; dup {
		return false
	}
	c.seen[key] = struct{}{}
	c.records = append(c.records, rec)
	return false
}

