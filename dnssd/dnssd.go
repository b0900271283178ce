// Package dnssd implements the four fixed DNS-SD message shapes this
// library emits: a service-type discovery query and its answer (RFC
// 6763 §9), and a service query and its answer (RFC 6763 §4, §6). Each
// is a thin, single-pass composition over
// internal/wire's message and name codecs, built with one Writer pass
// and RFC 1035 §4.1.4 compression exploited wherever a suffix repeats.
package dnssd

import (
	"net"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
	"github.com/joshuafuller/beacon/internal/wire"
)

// DefaultBufferSize is a comfortably large capacity for the fixed
// message shapes in this package; none of them approach it in
// practice, but oversized instance names, TXT records, or many
// addresses could.
const DefaultBufferSize = protocol.MaxUDPPayload

// BuildDiscoveryQuery builds the RFC 6763 §9 service-type enumeration
// query: QDCOUNT=1, flags=0 (a plain multicast query), one question
// for "_services._dns-sd._udp.local." of type PTR, class IN.
func BuildDiscoveryQuery() ([]byte, error) {
	w := wire.NewWriter(DefaultBufferSize)
	if err := wire.WriteHeader(w, wire.Header{QuestionCount: 1}); err != nil {
		return nil, err
	}
	if err := w.WriteName(protocol.ServiceEnumerationName); err != nil {
		return nil, err
	}
	if err := w.AppendUint16(uint16(protocol.RecordTypePTR)); err != nil {
		return nil, err
	}
	if err := w.AppendUint16(protocol.ClassIN); err != nil {
		return nil, err
	}
	return clone(w), nil
}

// BuildDiscoveryAnswer builds a unicast RFC 6763 §9 discovery answer:
// flags=0x8400 (response, authoritative), transaction ID 0 per RFC
// 6762 §18.1, one PTR answer mapping the enumeration name to
// serviceType.
func BuildDiscoveryAnswer(serviceType string) ([]byte, error) {
	w := wire.NewWriter(DefaultBufferSize)
	if err := wire.WriteHeader(w, wire.Header{Flags: protocol.FlagQueryResponse, AnswerCount: 1}); err != nil {
		return nil, err
	}
	if err := w.WriteName(protocol.ServiceEnumerationName); err != nil {
		return nil, err
	}
	if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypePTR, protocol.ClassIN, protocol.TTLServiceRecord); err != nil {
		return nil, err
	}
	rdataStart := w.Len()
	if err := w.WriteName(serviceType); err != nil {
		return nil, err
	}
	patchRDLength(w, rdataStart)
	return clone(w), nil
}

// BuildQuery builds a single-question mDNS query for name of the given
// type, class IN. The caller is responsible for tracking that this
// type was the last one sent on its socket if it intends to use
// wire.ParseOptions.FilterByType on the receive path: matching a
// response against "the last question sent" is deliberately left
// stateless here, since the wire codec has no notion of a session.
func BuildQuery(name string, qtype uint16) ([]byte, error) {
	w := wire.NewWriter(DefaultBufferSize)
	if err := wire.WriteHeader(w, wire.Header{QuestionCount: 1}); err != nil {
		return nil, err
	}
	if err := w.WriteName(name); err != nil {
		return nil, err
	}
	if err := w.AppendUint16(qtype); err != nil {
		return nil, err
	}
	if err := w.AppendUint16(protocol.ClassIN); err != nil {
		return nil, err
	}
	return clone(w), nil
}

// ServiceAnswer describes the service instance a QueryAnswer message
// advertises. ServiceType and Host must already be fully qualified
// (e.g. "_http._tcp.local." and "myhost.local."); InstanceName is
// written as a single raw label and, per RFC 6763 §4.3, may contain
// arbitrary UTF-8 text including spaces.
type ServiceAnswer struct {
	InstanceName string
	ServiceType  string
	Host         string
	TXT          []wire.TXTEntry
	IPv4         net.IP
	IPv6         net.IP
	Port         uint16
}

// BuildQueryAnswer builds the RFC 6763 §4/§6 service answer, one
// answer record plus up to four additional records:
//
//  1. Answer: PTR <ServiceType> -> <InstanceName>.<ServiceType>
//  2. Additional: SRV <InstanceName>.<ServiceType> -> (0, 0, Port, Host)
//  3. Additional: A <Host> -> IPv4, if IPv4 is set
//  4. Additional: AAAA <Host> -> IPv6, if IPv6 is set
//  5. Additional: TXT <InstanceName>.<ServiceType> -> TXT, if non-empty
//
// Compression is exploited throughout: ServiceType is written once (in
// the PTR answer) and referenced by pointer from the SRV and TXT
// owner names and the PTR rdata; Host is written once (in the SRV
// rdata target) and referenced by pointer from the A/AAAA owner names.
func BuildQueryAnswer(a ServiceAnswer) ([]byte, error) {
	if a.InstanceName == "" {
		return nil, &errors.ValidationError{Field: "InstanceName", Message: "must not be empty"}
	}

	arCount := uint16(1) // SRV is always present
	if len(a.IPv4) != 0 {
		arCount++
	}
	if len(a.IPv6) != 0 {
		arCount++
	}
	if len(a.TXT) != 0 {
		arCount++
	}

	w := wire.NewWriter(DefaultBufferSize)
	if err := wire.WriteHeader(w, wire.Header{
		Flags:           protocol.FlagQueryResponse,
		AnswerCount:     1,
		AdditionalCount: arCount,
	}); err != nil {
		return nil, err
	}

	// 1. Answer: PTR <ServiceType> -> instance.service
	serviceOffset := w.Len()
	if err := w.WriteName(a.ServiceType); err != nil {
		return nil, err
	}
	if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypePTR, protocol.ClassIN, protocol.TTLServiceRecord); err != nil {
		return nil, err
	}
	ptrRDataStart := w.Len()
	if err := w.WriteRawLabelCompressed(a.InstanceName, serviceOffset); err != nil {
		return nil, err
	}
	patchRDLength(w, ptrRDataStart)

	// 2. Additional: SRV instance.service -> (0, 0, port, host)
	if err := w.WriteRawLabelCompressed(a.InstanceName, serviceOffset); err != nil {
		return nil, err
	}
	if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypeSRV, protocol.ClassIN|protocol.ClassCacheFlushBit, protocol.TTLServiceRecord); err != nil {
		return nil, err
	}
	srvRDataStart := w.Len()
	if err := w.AppendUint16(0); err != nil { // priority
		return nil, err
	}
	if err := w.AppendUint16(0); err != nil { // weight
		return nil, err
	}
	if err := w.AppendUint16(a.Port); err != nil {
		return nil, err
	}
	hostOffset := w.Len()
	if err := w.WriteName(a.Host); err != nil {
		return nil, err
	}
	patchRDLength(w, srvRDataStart)

	// 3. Additional: A host -> IPv4, if present
	if len(a.IPv4) != 0 {
		ipv4 := a.IPv4.To4()
		if ipv4 == nil {
			return nil, &errors.ValidationError{Field: "IPv4", Message: "not a valid IPv4 address"}
		}
		if err := w.WritePointer(hostOffset); err != nil {
			return nil, err
		}
		if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypeA, protocol.ClassIN|protocol.ClassCacheFlushBit, protocol.TTLHostRecord); err != nil {
			return nil, err
		}
		rdataStart := w.Len()
		if err := w.AppendBytes(ipv4); err != nil {
			return nil, err
		}
		patchRDLength(w, rdataStart)
	}

	// 4. Additional: AAAA host -> IPv6, if present
	if len(a.IPv6) != 0 {
		ipv6 := a.IPv6.To16()
		if ipv6 == nil || a.IPv6.To4() != nil {
			return nil, &errors.ValidationError{Field: "IPv6", Message: "not a valid IPv6 address"}
		}
		if err := w.WritePointer(hostOffset); err != nil {
			return nil, err
		}
		if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypeAAAA, protocol.ClassIN|protocol.ClassCacheFlushBit, protocol.TTLHostRecord); err != nil {
			return nil, err
		}
		rdataStart := w.Len()
		if err := w.AppendBytes(ipv6); err != nil {
			return nil, err
		}
		patchRDLength(w, rdataStart)
	}

	// 5. Additional: TXT instance.service -> TXT, if non-empty
	if len(a.TXT) != 0 {
		if err := w.WriteRawLabelCompressed(a.InstanceName, serviceOffset); err != nil {
			return nil, err
		}
		if err := writeRecordHeaderPlaceholder(w, protocol.RecordTypeTXT, protocol.ClassIN|protocol.ClassCacheFlushBit, protocol.TTLServiceRecord); err != nil {
			return nil, err
		}
		rdataStart := w.Len()
		if err := w.AppendBytes(wire.EncodeTXT(a.TXT)); err != nil {
			return nil, err
		}
		patchRDLength(w, rdataStart)
	}

	return clone(w), nil
}

// writeRecordHeaderPlaceholder writes type, class, ttl, and a
// zero-valued rdlength placeholder (to be filled in by patchRDLength
// once the rdata has been written).
func writeRecordHeaderPlaceholder(w *wire.Writer, rtype protocol.RecordType, class uint16, ttl uint32) error {
	if err := w.AppendUint16(uint16(rtype)); err != nil {
		return err
	}
	if err := w.AppendUint16(class); err != nil {
		return err
	}
	if err := w.AppendUint32(ttl); err != nil {
		return err
	}
	return w.AppendUint16(0)
}

// patchRDLength fills in the rdlength field belonging to the record
// whose rdata began at rdataStart, now that its length is known.
func patchRDLength(w *wire.Writer, rdataStart int) {
	w.PatchUint16(rdataStart-2, uint16(w.Len()-rdataStart))
}

func clone(w *wire.Writer) []byte {
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out
}
