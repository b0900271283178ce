// Package wire implements the DNS wire-format codec: domain-name
// compression (RFC 1035 §4.1.4), the five resource-record payloads this
// library understands, and the fixed 12-octet message header plus its
// four counted sections. This is the "sole subject" of the
// specification this module implements — everything above it (the
// DNS-SD operations, the transport) is a thin caller of this package.
package wire

import (
	"strings"

	"github.com/joshuafuller/beacon/internal/errors"
)

const maxPointerChase = 128

// ParseName decodes the domain name at offset in buf, following RFC
// 1035 §4.1.4 compression pointers as needed, and returns the decoded
// name (dot-separated, no trailing dot) together with the offset of the
// first byte after the name *at its original position* — i.e. after the
// terminating zero octet, the two-octet pointer, or the single
// offending octet of a malformed length byte, whichever was found
// there. Offsets visited through a chased pointer never advance that
// returned offset; only the outermost step does.
//
// A length byte's top two bits distinguish four cases: `00` is an
// ordinary label (and, since the remaining six bits cap it at 63, is
// never itself too long), `11` combined with the next octet is a
// compression pointer, and `01`/`10` are reserved by RFC 1035 and
// treated leniently: the name decodes as empty and the cursor advances
// past that one octet, since real mDNS traffic includes malformed and
// legacy frames a strict parser would otherwise starve the consumer
// on. A compression loop is the one condition always reported as an
// error, since it is the one case Extract cannot resolve by producing
// some decoded value and moving on.
func ParseName(buf []byte, offset int) (string, int, error) {
	if offset < 0 || offset >= len(buf) {
		return "", 0, &errors.WireFormatError{Offset: offset, Reason: "offset out of bounds"}
	}

	var labels []string
	var visited map[int]struct{}
	outer := -1
	cur := offset
	chased := 0

	for {
		if cur >= len(buf) {
			if outer == -1 {
				return "", 0, &errors.WireFormatError{Offset: cur, Reason: "truncated name"}
			}
			return "", outer, nil
		}

		b := buf[cur]
		switch {
		case b == 0x00:
			if outer == -1 {
				outer = cur + 1
			}
			return strings.Join(labels, "."), outer, nil

		case b < 0x40: // top bits 00: ordinary label, length 0-63 by construction
			length := int(b)
			if cur+1+length > len(buf) {
				if outer == -1 {
					return "", 0, &errors.WireFormatError{Offset: cur, Reason: "truncated label"}
				}
				return "", outer, nil
			}
			labels = append(labels, string(buf[cur+1:cur+1+length]))
			cur += 1 + length

		case b < 0xC0: // top bits 01 or 10: reserved, malformed
			if outer == -1 {
				outer = cur + 1
			}
			return "", outer, nil

		default: // 0xC0..0xFF: compression pointer
			if cur+1 >= len(buf) {
				if outer == -1 {
					return "", 0, &errors.WireFormatError{Offset: cur, Reason: "truncated compression pointer"}
				}
				return "", outer, nil
			}
			ptr := int(b&0x3F)<<8 | int(buf[cur+1])
			if outer == -1 {
				outer = cur + 2
			}
			chased++
			if chased > maxPointerChase {
				return "", outer, &errors.WireFormatError{Offset: offset, Reason: "compression pointer chain too long"}
			}
			if visited == nil {
				visited = make(map[int]struct{}, 4)
			}
			if _, seen := visited[ptr]; seen {
				return "", outer, &errors.WireFormatError{Offset: cur, Reason: "invalid compression pointer: loop detected"}
			}
			visited[ptr] = struct{}{}
			if ptr >= len(buf) {
				// Boundary case: pointer target past the buffer. Yield an
				// empty decode rather than reading out of bounds.
				return "", outer, nil
			}
			cur = ptr
		}
	}
}

// SkipName advances past the name at offset without materializing it,
// and without following compression pointers: a pointer is exactly two
// octets and terminates the walk on the spot. This is what the message
// codec uses to advance its cursor past question and record names, so a
// name that ParseName cannot decode (a compression loop, say) still
// leaves the cursor at the right place; the name's text is decoded
// separately, via ParseName. It applies the same
// termination rules as ParseName — including the lenient one-octet
// advance on a reserved `01`/`10` length byte — so the two always agree
// on where a name ends.
func SkipName(buf []byte, offset int) (int, error) {
	if offset < 0 || offset >= len(buf) {
		return 0, &errors.WireFormatError{Offset: offset, Reason: "offset out of bounds"}
	}

	cur := offset
	for {
		if cur >= len(buf) {
			return 0, &errors.WireFormatError{Offset: cur, Reason: "truncated name"}
		}
		b := buf[cur]
		switch {
		case b == 0x00:
			return cur + 1, nil
		case b < 0x40: // top bits 00: ordinary label, length 0-63 by construction
			length := int(b)
			if cur+1+length > len(buf) {
				return 0, &errors.WireFormatError{Offset: cur, Reason: "truncated label"}
			}
			cur += 1 + length
		case b < 0xC0: // top bits 01 or 10: reserved, malformed — advance past the one octet
			return cur + 1, nil
		default: // 0xC0..0xFF: compression pointer
			if cur+1 >= len(buf) {
				return 0, &errors.WireFormatError{Offset: cur, Reason: "truncated compression pointer"}
			}
			return cur + 2, nil
		}
	}
}

// Equal reports whether the names encoded at offA in bufA and offB in
// bufB decode to the same label sequence, case-insensitively per RFC
// 1035 §2.3.3 (ASCII only). Compression pointers are followed in both
// operands. A name that fails to decode never compares equal to
// anything, including another equally malformed name.
func Equal(bufA []byte, offA int, bufB []byte, offB int) bool {
	nameA, _, errA := ParseName(bufA, offA)
	if errA != nil {
		return false
	}
	nameB, _, errB := ParseName(bufB, offB)
	if errB != nil {
		return false
	}
	return asciiEqualFold(nameA, nameB)
}

func asciiEqualFold(a, b string) bool {
	if len(a) != len(b) {
		return false
	}
	for i := 0; i < len(a); i++ {
		ca, cb := a[i], b[i]
		if 'A' <= ca && ca <= 'Z' {
			ca += 'a' - 'A'
		}
		if 'A' <= cb && cb <= 'Z' {
			cb += 'a' - 'A'
		}
		if ca != cb {
			return false
		}
	}
	return true
}
