// Package mdns is a high-level, call-scoped client over the mDNS/DNS-SD
// wire codec in internal/wire and internal/transport. It provides a
// Querier for sending queries and collecting responses, and an
// Advertiser for answering them — both stateless beyond the single
// call or socket they own. Neither implements the RFC 6762 responder
// state machine (probing, announcing, conflict detection, a learned
// record cache): those are jobs for a full mDNS responder built on top
// of this package, not this package itself.
package mdns

import (
	"net"

	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/wire"
)

// RecordType is a DNS record type, exported so callers of Query don't
// need to import internal/protocol.
type RecordType uint16

const (
	RecordTypeA     RecordType = RecordType(protocol.RecordTypeA)
	RecordTypePTR   RecordType = RecordType(protocol.RecordTypePTR)
	RecordTypeTXT   RecordType = RecordType(protocol.RecordTypeTXT)
	RecordTypeSRV   RecordType = RecordType(protocol.RecordTypeSRV)
	RecordTypeAAAA  RecordType = RecordType(protocol.RecordTypeAAAA)
)

// String returns a human-readable name for the record type.
func (r RecordType) String() string {
	return protocol.RecordType(r).String()
}

// Response is the aggregated result of one Query call: every answer,
// authority, or additional record collected before the context
// deadline expired. An empty Records slice is not an error — it means
// nothing answered in time.
type Response struct {
	Records []ResourceRecord
}

// ResourceRecord is one decoded resource record from a response,
// carrying both the raw envelope fields and the type-specific decoded
// payload in Data.
type ResourceRecord struct {
	Data  interface{} // net.IP, string, wire.SRVData, or []wire.TXTEntry
	Name  string
	Type  RecordType
	Class uint16
	TTL   uint32
}

// AsA returns the decoded IPv4 address, or nil if this is not an A record.
func (r *ResourceRecord) AsA() net.IP {
	if r.Type != RecordTypeA {
		return nil
	}
	ip, _ := r.Data.(net.IP)
	return ip
}

// AsAAAA returns the decoded IPv6 address, or nil if this is not an
// AAAA record.
func (r *ResourceRecord) AsAAAA() net.IP {
	if r.Type != RecordTypeAAAA {
		return nil
	}
	ip, _ := r.Data.(net.IP)
	return ip
}

// AsPTR returns the decoded target name, or "" if this is not a PTR record.
func (r *ResourceRecord) AsPTR() string {
	if r.Type != RecordTypePTR {
		return ""
	}
	s, _ := r.Data.(string)
	return s
}

// AsSRV returns the decoded SRV data, or nil if this is not an SRV record.
func (r *ResourceRecord) AsSRV() *wire.SRVData {
	if r.Type != RecordTypeSRV {
		return nil
	}
	srv, ok := r.Data.(wire.SRVData)
	if !ok {
		return nil
	}
	return &srv
}

// AsTXT returns the decoded key/value entries, or nil if this is not a
// TXT record.
func (r *ResourceRecord) AsTXT() []wire.TXTEntry {
	if r.Type != RecordTypeTXT {
		return nil
	}
	txt, _ := r.Data.([]wire.TXTEntry)
	return txt
}
