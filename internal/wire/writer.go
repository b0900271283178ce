package wire

import (
	"strings"

	"github.com/joshuafuller/beacon/internal/errors"
	"github.com/joshuafuller/beacon/internal/protocol"
)

// Writer appends DNS wire-format fields into a fixed-capacity buffer,
// failing with ValidationError rather than growing past that capacity.
// This mirrors the way the corpus's other DNS builders (e.g. the
// dnsmessage.Builder pattern used by golang.org/x/net) bound message
// size up front instead of letting append() silently reallocate — a
// caller sizing a UDP datagram wants to know it overflowed, not get a
// bigger slice back.
type Writer struct {
	buf []byte
	n   int
}

// NewWriter allocates a Writer with the given fixed capacity.
func NewWriter(capacity int) *Writer {
	return &Writer{buf: make([]byte, capacity)}
}

// Len returns the number of bytes written so far.
func (w *Writer) Len() int { return w.n }

// PatchUint16 overwrites two already-written bytes at offset with v in
// network byte order. This is how a caller fills in an rdlength field
// after writing rdata of a length that wasn't known up front — the
// standard technique for single-pass DNS message construction.
func (w *Writer) PatchUint16(offset int, v uint16) {
	w.buf[offset] = byte(v >> 8)
	w.buf[offset+1] = byte(v)
}

// Bytes returns the written portion of the buffer.
func (w *Writer) Bytes() []byte { return w.buf[:w.n] }

func (w *Writer) available() int { return len(w.buf) - w.n }

func overflow(field string) error {
	return &errors.ValidationError{Field: field, Message: "would exceed output capacity"}
}

func (w *Writer) appendByte(b byte) error {
	if w.available() < 1 {
		return overflow("byte")
	}
	w.buf[w.n] = b
	w.n++
	return nil
}

func (w *Writer) appendBytes(p []byte) error {
	if w.available() < len(p) {
		return overflow("bytes")
	}
	copy(w.buf[w.n:], p)
	w.n += len(p)
	return nil
}

// AppendBytes writes p verbatim, with no framing of its own — the raw
// form a caller building a record's rdata reaches for once it already
// knows the encoding (an A/AAAA address, TXT rdata already assembled
// by EncodeTXT).
func (w *Writer) AppendBytes(p []byte) error {
	return w.appendBytes(p)
}

// AppendUint16 writes v in network byte order.
func (w *Writer) AppendUint16(v uint16) error {
	if w.available() < 2 {
		return overflow("uint16")
	}
	w.buf[w.n] = byte(v >> 8)
	w.buf[w.n+1] = byte(v)
	w.n += 2
	return nil
}

// AppendUint32 writes v in network byte order.
func (w *Writer) AppendUint32(v uint32) error {
	if w.available() < 4 {
		return overflow("uint32")
	}
	w.buf[w.n] = byte(v >> 24)
	w.buf[w.n+1] = byte(v >> 16)
	w.buf[w.n+2] = byte(v >> 8)
	w.buf[w.n+3] = byte(v)
	w.n += 4
	return nil
}

// WriteName writes name in full label form terminated by a zero octet
// (RFC 1035 §4.1.4's "Literal" form). Trailing dots and a bare "." or
// "" both encode to the root name.
func (w *Writer) WriteName(name string) error {
	labels, err := splitLabels(name)
	if err != nil {
		return err
	}
	if err := checkEncodedLength(labels, 0); err != nil {
		return err
	}
	for _, label := range labels {
		if err := w.appendByte(byte(len(label))); err != nil {
			return err
		}
		if err := w.appendBytes([]byte(label)); err != nil {
			return err
		}
	}
	return w.appendByte(0x00)
}

// WritePointer writes a bare two-octet compression pointer to refOffset
// (RFC 1035 §4.1.4's "Pointer" form). refOffset must fit in 14 bits.
func (w *Writer) WritePointer(refOffset int) error {
	if refOffset < 0 || refOffset > 0x3FFF {
		return &errors.ValidationError{Field: "refOffset", Message: "pointer target must fit in 14 bits"}
	}
	if err := w.appendByte(0xC0 | byte(refOffset>>8)); err != nil {
		return err
	}
	return w.appendByte(byte(refOffset))
}

// WriteNameCompressed writes prefix as one or more literal labels
// followed by a compression pointer to refOffset in place of the usual
// zero terminator (RFC 1035 §4.1.4's "Literal-with-suffix-pointer"
// form) — the common case for a name whose suffix was already written
// elsewhere in the message. An empty prefix writes only the pointer.
func (w *Writer) WriteNameCompressed(prefix string, refOffset int) error {
	if prefix == "" {
		return w.WritePointer(refOffset)
	}
	labels, err := splitLabels(prefix)
	if err != nil {
		return err
	}
	if err := checkEncodedLength(labels, 2); err != nil {
		return err
	}
	for _, label := range labels {
		if err := w.appendByte(byte(len(label))); err != nil {
			return err
		}
		if err := w.appendBytes([]byte(label)); err != nil {
			return err
		}
	}
	return w.WritePointer(refOffset)
}

// WriteRawLabelCompressed writes label as a single length-prefixed
// label verbatim — no RFC 1035 §2.3.1 hostname character restrictions,
// only the §2.3.4 63-octet length limit — followed by a compression
// pointer to refOffset. This is the form a DNS-SD service instance
// name needs (RFC 6763 §4.3 permits arbitrary UTF-8 text, including
// spaces, in the Instance portion), as distinct from WriteNameCompressed's
// validated hostname labels.
func (w *Writer) WriteRawLabelCompressed(label string, refOffset int) error {
	if len(label) > protocol.MaxLabelLength {
		return &errors.ValidationError{Field: "label", Value: label, Message: "exceeds maximum length 63 bytes per RFC 1035 §2.3.4"}
	}
	if len(label)+2 > protocol.MaxNameLength {
		return &errors.ValidationError{Field: "name", Message: "exceeds maximum 255 bytes per RFC 1035 §3.1"}
	}
	if err := w.appendByte(byte(len(label))); err != nil {
		return err
	}
	if err := w.appendBytes([]byte(label)); err != nil {
		return err
	}
	return w.WritePointer(refOffset)
}

// splitLabels validates name against RFC 1035 §2.3.1/§3.1 and returns
// its labels. A name of "", ".", or one ending in "." is treated as
// having a trailing root label, which splitLabels drops (an empty
// result denotes the root name).
func splitLabels(name string) ([]string, error) {
	name = strings.TrimSuffix(name, ".")
	if name == "" {
		return nil, nil
	}

	rawLabels := strings.Split(name, ".")
	labels := make([]string, 0, len(rawLabels))
	for _, label := range rawLabels {
		if err := validateLabel(label); err != nil {
			return nil, err
		}
		labels = append(labels, label)
	}
	return labels, nil
}

func validateLabel(label string) error {
	if label == "" {
		return &errors.ValidationError{Field: "name", Message: "empty label"}
	}
	if len(label) > protocol.MaxLabelLength {
		return &errors.ValidationError{Field: "label", Value: label, Message: "exceeds maximum length 63 bytes per RFC 1035 §3.1"}
	}
	if label[0] == '-' || label[len(label)-1] == '-' {
		return &errors.ValidationError{Field: "label", Value: label, Message: "hyphen cannot be first or last character"}
	}
	for i := 0; i < len(label); i++ {
		c := label[i]
		if c <= 0x20 || c == 0x7F {
			return &errors.ValidationError{Field: "label", Value: label, Message: "invalid character"}
		}
	}
	return nil
}

// checkEncodedLength enforces the RFC 1035 §3.1 255-octet name limit.
// extra accounts for trailing bytes not covered by labels (e.g. the
// two-octet pointer that replaces the terminator in the compressed
// form).
func checkEncodedLength(labels []string, extra int) error {
	total := extra
	for _, label := range labels {
		total += 1 + len(label)
	}
	if extra == 0 {
		total++ // terminating zero octet
	}
	if total > protocol.MaxNameLength {
		return &errors.ValidationError{Field: "name", Message: "exceeds maximum 255 bytes per RFC 1035 §3.1"}
	}
	return nil
}

// EncodeName is a convenience wrapper returning the literal encoding of
// name as a freshly allocated slice, sized exactly to fit.
func EncodeName(name string) ([]byte, error) {
	w := NewWriter(protocol.MaxNameLength + 1)
	if err := w.WriteName(name); err != nil {
		return nil, err
	}
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}

// EncodeServiceInstanceName encodes "<instance>.<serviceType>" as a
// single literal name, per RFC 6763 §4.3: "The Instance ... portion of
// the Service Instance Name may contain arbitrary UTF-8 text, including
// spaces." Unlike a plain hostname label, it is written verbatim — the
// character restrictions validateLabel applies to serviceType's labels
// do not apply here.
func EncodeServiceInstanceName(instance, serviceType string) ([]byte, error) {
	if instance == "" {
		return nil, &errors.ValidationError{Field: "instanceName", Message: "must not be empty"}
	}
	if len(instance) > protocol.MaxLabelLength {
		return nil, &errors.ValidationError{Field: "instanceName", Value: instance, Message: "exceeds maximum length 63 bytes per RFC 1035 §2.3.4"}
	}

	rest, err := splitLabels(serviceType)
	if err != nil {
		return nil, err
	}
	if err := checkEncodedLength(append([]string{instance}, rest...), 0); err != nil {
		return nil, err
	}

	w := NewWriter(protocol.MaxNameLength + 1)
	if err := w.appendByte(byte(len(instance))); err != nil {
		return nil, err
	}
	if err := w.appendBytes([]byte(instance)); err != nil {
		return nil, err
	}
	for _, label := range rest {
		if err := w.appendByte(byte(len(label))); err != nil {
			return nil, err
		}
		if err := w.appendBytes([]byte(label)); err != nil {
			return nil, err
		}
	}
	if err := w.appendByte(0x00); err != nil {
		return nil, err
	}
	out := make([]byte, w.Len())
	copy(out, w.Bytes())
	return out, nil
}
