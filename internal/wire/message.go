package wire

import (
	"encoding/binary"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// HeaderSize is the fixed length of the DNS message header (RFC 1035
// §4.1.1).
const HeaderSize = 12

// Header is the fixed 12-octet DNS message header.
type Header struct {
	TransactionID    uint16
	Flags            uint16
	QuestionCount    uint16
	AnswerCount      uint16
	AuthorityCount   uint16
	AdditionalCount  uint16
}

// WriteHeader serializes h into w in network byte order.
func WriteHeader(w *Writer, h Header) error {
	if err := w.AppendUint16(h.TransactionID); err != nil {
		return err
	}
	if err := w.AppendUint16(h.Flags); err != nil {
		return err
	}
	if err := w.AppendUint16(h.QuestionCount); err != nil {
		return err
	}
	if err := w.AppendUint16(h.AnswerCount); err != nil {
		return err
	}
	if err := w.AppendUint16(h.AuthorityCount); err != nil {
		return err
	}
	return w.AppendUint16(h.AdditionalCount)
}

// ParseHeader decodes the 12-octet header at the start of buf.
func ParseHeader(buf []byte) (Header, error) {
	if len(buf) < HeaderSize {
		return Header{}, &errors.WireFormatError{Offset: 0, Reason: "truncated header"}
	}
	return Header{
		TransactionID:   binary.BigEndian.Uint16(buf[0:2]),
		Flags:           binary.BigEndian.Uint16(buf[2:4]),
		QuestionCount:   binary.BigEndian.Uint16(buf[4:6]),
		AnswerCount:     binary.BigEndian.Uint16(buf[6:8]),
		AuthorityCount:  binary.BigEndian.Uint16(buf[8:10]),
		AdditionalCount: binary.BigEndian.Uint16(buf[10:12]),
	}, nil
}

// Section identifies which of the four counted sections a question or
// resource record was found in.
type Section int

const (
	SectionQuestion Section = iota
	SectionAnswer
	SectionAuthority
	SectionAdditional
)

func (s Section) String() string {
	switch s {
	case SectionQuestion:
		return "question"
	case SectionAnswer:
		return "answer"
	case SectionAuthority:
		return "authority"
	case SectionAdditional:
		return "additional"
	default:
		return "unknown"
	}
}

// Record describes one resource record as delivered to a Handler: a
// view into the original message buffer plus the offsets the record
// codec (ParsePTR, ParseSRV, ...) needs to decode its rdata. Class has
// already had the cache-flush/QU bit (bit 15) masked off.
type Record struct {
	Name        string
	Buffer      []byte
	Section     Section
	Type        uint16
	Class       uint16
	TTL         uint32
	RDataOffset int
	RDataLength int
}

// Handler receives questions and records as ParseMessage walks a
// message. Returning true from either method aborts the remaining
// iteration for that ParseMessage call. A Handler that only cares
// about records can embed NopQuestionHandler.
type Handler interface {
	OnQuestion(section Section, transactionID uint16, name string, qtype, class uint16) (stop bool)
	OnRecord(transactionID uint16, r Record) (stop bool)
}

// NopQuestionHandler implements Handler.OnQuestion as a no-op that
// never stops iteration, for handlers that only care about records.
type NopQuestionHandler struct{}

// OnQuestion never stops iteration.
func (NopQuestionHandler) OnQuestion(Section, uint16, string, uint16, uint16) bool { return false }

// ParseOptions controls the leniencies and filters ParseMessage applies
// beyond the fixed section walk.
type ParseOptions struct {
	// FilterByType, when non-zero, causes ParseMessage to skip
	// delivering answer/authority/additional records whose type does
	// not equal FilterByType. Matching a response against "the
	// question that was last sent" is left to the caller: the wire
	// codec itself holds no state about which query went out, so the
	// caller supplies the expected type explicitly on each call.
	FilterByType uint16
}

// ParseMessage parses the DNS message in buf, delivering each question
// and resource record to handler in wire order, and returns the number
// of entries delivered. A buffer shorter than the 12-octet header is
// reported as a WireFormatError. Past the header, parsing stops cleanly
// — without error — the moment a read would exceed len(buf), reporting
// however many entries were already delivered; a header whose section
// counts overstate what the packet actually contains is not itself an
// error.
func ParseMessage(buf []byte, handler Handler, opts ParseOptions) (int, error) {
	header, err := ParseHeader(buf)
	if err != nil {
		return 0, err
	}

	offset := HeaderSize
	delivered := 0

	walkSection := func(section Section, count uint16, isQuestion bool) bool {
		for i := uint16(0); i < count; i++ {
			nameOffset := offset
			nextOffset, err := SkipName(buf, offset)
			if err != nil {
				return false // truncated: stop the whole walk cleanly
			}
			offset = nextOffset

			if isQuestion {
				if offset+4 > len(buf) {
					return false
				}
				qtype := binary.BigEndian.Uint16(buf[offset : offset+2])
				class := binary.BigEndian.Uint16(buf[offset+2 : offset+4])
				offset += 4

				name, _, nameErr := ParseName(buf, nameOffset)
				if nameErr != nil {
					name = ""
				}
				delivered++
				if handler.OnQuestion(section, header.TransactionID, name, qtype, class) {
					return false
				}
				continue
			}

			if offset+10 > len(buf) {
				return false
			}
			rtype := binary.BigEndian.Uint16(buf[offset : offset+2])
			class := binary.BigEndian.Uint16(buf[offset+2 : offset+4])
			ttl := binary.BigEndian.Uint32(buf[offset+4 : offset+8])
			rdlength := int(binary.BigEndian.Uint16(buf[offset+8 : offset+10]))
			rdataOffset := offset + 10
			if rdataOffset+rdlength > len(buf) {
				return false
			}
			offset = rdataOffset + rdlength

			if opts.FilterByType != 0 && rtype != opts.FilterByType {
				continue
			}

			name, _, nameErr := ParseName(buf, nameOffset)
			if nameErr != nil {
				name = ""
			}

			rec := Record{
				Name:        name,
				Buffer:      buf,
				Section:     section,
				Type:        rtype,
				Class:       protocol.ClassMask(class),
				TTL:         ttl,
				RDataOffset: rdataOffset,
				RDataLength: rdlength,
			}
			delivered++
			if handler.OnRecord(header.TransactionID, rec) {
				return false
			}
		}
		return true
	}

	if !walkSection(SectionQuestion, header.QuestionCount, true) {
		return delivered, nil
	}
	if !walkSection(SectionAnswer, header.AnswerCount, false) {
		return delivered, nil
	}
	if !walkSection(SectionAuthority, header.AuthorityCount, false) {
		return delivered, nil
	}
	walkSection(SectionAdditional, header.AdditionalCount, false)

	return delivered, nil
}
