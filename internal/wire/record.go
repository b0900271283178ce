package wire

import (
	"encoding/binary"
	"net"
	"strings"

	"github.com/joshuafuller/beacon/internal/protocol"
)

// SRVData is the decoded rdata of an SRV record (RFC 2782): priority,
// weight, port, and the compressible target name.
type SRVData struct {
	Target   string
	Priority uint16
	Weight   uint16
	Port     uint16
}

// TXTEntry is one key/value pair recovered from a TXT record's
// length-prefixed strings (RFC 6763 §6.4).
type TXTEntry struct {
	Key   string
	Value string
}

// ParsePTR decodes the rdata at rdataOffset as a single compressible
// name (RFC 1035 §3.3.12). rdataLength is advisory only — decoding
// follows compression pointers into the surrounding message the same
// way ParseName always does. A malformed name decodes to "".
func ParsePTR(buf []byte, rdataOffset, rdataLength int) string {
	_ = rdataLength
	name, _, err := ParseName(buf, rdataOffset)
	if err != nil {
		return ""
	}
	return name
}

// ParseSRV decodes the rdata at rdataOffset as an SRV record (RFC
// 2782). If rdataLength is less than the 6 fixed-size octets, it
// returns a zeroed SRVData — a schema mismatch, not an error.
func ParseSRV(buf []byte, rdataOffset, rdataLength int) SRVData {
	if rdataLength < 6 || rdataOffset+6 > len(buf) {
		return SRVData{}
	}
	priority := binary.BigEndian.Uint16(buf[rdataOffset : rdataOffset+2])
	weight := binary.BigEndian.Uint16(buf[rdataOffset+2 : rdataOffset+4])
	port := binary.BigEndian.Uint16(buf[rdataOffset+4 : rdataOffset+6])
	target, _, err := ParseName(buf, rdataOffset+6)
	if err != nil {
		target = ""
	}
	return SRVData{Target: target, Priority: priority, Weight: weight, Port: port}
}

// ParseA decodes the rdata at rdataOffset as an A record (RFC 1035
// §3.4.1). rdataLength must be exactly 4; any other length is a schema
// mismatch and yields a nil IP.
func ParseA(buf []byte, rdataOffset, rdataLength int) net.IP {
	if rdataLength != 4 || rdataOffset+4 > len(buf) {
		return nil
	}
	ip := make(net.IP, 4)
	copy(ip, buf[rdataOffset:rdataOffset+4])
	return ip
}

// ParseAAAA decodes the rdata at rdataOffset as an AAAA record (RFC
// 3596 §2.2). rdataLength must be exactly 16.
func ParseAAAA(buf []byte, rdataOffset, rdataLength int) net.IP {
	if rdataLength != 16 || rdataOffset+16 > len(buf) {
		return nil
	}
	ip := make(net.IP, 16)
	copy(ip, buf[rdataOffset:rdataOffset+16])
	return ip
}

// ParseTXT walks the rdata at rdataOffset as a sequence of
// length-prefixed strings (RFC 1035 §3.3.14) and interprets each as a
// DNS-SD key/value attribute (RFC 6763 §6.4):
//
//   - a zero-length string is skipped (an empty TXT entry contributes
//     nothing);
//   - a string containing '=' at position > 0 splits into key/value;
//   - a string with no '=' becomes a bare key with an empty value;
//   - a string with '=' at position 0 (empty key) is malformed and
//     skipped.
//
// ParseTXT returns every entry it recognizes; it does not truncate.
// Callers that want to cap allocation can slice the result themselves.
func ParseTXT(buf []byte, rdataOffset, rdataLength int) []TXTEntry {
	end := rdataOffset + rdataLength
	if end > len(buf) {
		end = len(buf)
	}

	var entries []TXTEntry
	cur := rdataOffset
	for cur < end {
		length := int(buf[cur])
		cur++
		if cur+length > end {
			break // truncated string: stop, keep what was already recognized
		}
		s := buf[cur : cur+length]
		cur += length

		if length == 0 {
			continue
		}

		idx := strings.IndexByte(string(s), '=')
		switch {
		case idx > 0:
			entries = append(entries, TXTEntry{Key: string(s[:idx]), Value: string(s[idx+1:])})
		case idx < 0:
			entries = append(entries, TXTEntry{Key: string(s), Value: ""})
		default: // idx == 0: malformed, empty key
		}
	}
	return entries
}

// EncodeTXT builds the rdata for a TXT record from an ordered list of
// key/value pairs, following the mandatory-record rule in RFC 6763 §6:
// a service with no attributes at all is still represented by a single
// zero-length string, never a zero-length rdata.
func EncodeTXT(entries []TXTEntry) []byte {
	if len(entries) == 0 {
		return []byte{0x00}
	}

	var out []byte
	for _, e := range entries {
		var s string
		if e.Value == "" {
			s = e.Key
		} else {
			s = e.Key + "=" + e.Value
		}
		if len(s) > 255 {
			s = s[:255]
		}
		out = append(out, byte(len(s)))
		out = append(out, s...)
	}
	return out
}

// ClassMatches reports whether class, with the mDNS cache-flush/QU bit
// (bit 15) masked off, equals protocol.ClassIN.
func ClassMatches(class uint16) bool {
	return protocol.ClassMask(class) == protocol.ClassIN
}
