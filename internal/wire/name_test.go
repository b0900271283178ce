package wire

import (
	goerrors "errors"
	"strings"
	"testing"

	"github.com/joshuafuller/beacon/internal/errors"
)

// TestParseName_RFC1035_Compression validates DNS name compression per
// RFC 1035 §4.1.4.
func TestParseName_RFC1035_Compression(t *testing.T) {
	tests := []struct {
		name     string
		data     []byte
		offset   int
		expected string
		wantOff  int
		errMsg   string
	}{
		{
			name: "uncompressed name",
			data: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
			offset:   0,
			expected: "test.local",
			wantOff:  12,
		},
		{
			name: "compressed pointer",
			data: []byte{
				// Offset 0: "example.local\x00"
				0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
				// Offset 15: "test" + pointer to "local" at offset 8
				0x04, 't', 'e', 's', 't',
				0xC0, 0x08,
			},
			offset:   15,
			expected: "test.local",
			wantOff:  22,
		},
		{
			name: "compression loop detection",
			data: []byte{
				0xC0, 0x00, // pointer to self
			},
			offset: 0,
			errMsg: "invalid compression pointer",
		},
		{
			name:     "root name",
			data:     []byte{0x00},
			offset:   0,
			expected: "",
			wantOff:  1,
		},
		{
			name:     "single label",
			data:     []byte{0x04, 't', 'e', 's', 't', 0x00},
			offset:   0,
			expected: "test",
			wantOff:  6,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, newOffset, err := ParseName(tt.data, tt.offset)

			if tt.errMsg != "" {
				if err == nil {
					t.Fatalf("expected error containing %q, got nil", tt.errMsg)
				}
				if !strings.Contains(err.Error(), tt.errMsg) {
					t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if result != tt.expected {
				t.Errorf("expected %q, got %q", tt.expected, result)
			}
			if newOffset != tt.wantOff {
				t.Errorf("expected offset %d, got %d", tt.wantOff, newOffset)
			}
		})
	}
}

func TestParseName_RFC1035_LabelLength(t *testing.T) {
	t.Run("label exactly 63 bytes", func(t *testing.T) {
		data := []byte{63}
		for i := 0; i < 63; i++ {
			data = append(data, 'a')
		}
		data = append(data, 0)

		name, offset, err := ParseName(data, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != strings.Repeat("a", 63) {
			t.Errorf("name = %q, want 63 a's", name)
		}
		if offset != len(data) {
			t.Errorf("offset = %d, want %d", offset, len(data))
		}
	})

	// A length byte with top bits 01 or 10 (values 0x40-0xBF) is
	// reserved by RFC 1035, not "a label that happens to be too
	// long": under top bits 00, a length byte can only ever be 0-63
	// by construction. This decodes leniently to an empty name with
	// the cursor advanced past the single offending octet, matching
	// SkipName so per-record parsing elsewhere in a message is never
	// aborted by one malformed name.
	t.Run("reserved top-bit pattern decodes as empty, no error", func(t *testing.T) {
		data := append([]byte{64}, []byte("aaaaaaaa")...)

		name, offset, err := ParseName(data, 0)
		if err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if name != "" {
			t.Errorf("name = %q, want empty", name)
		}
		if offset != 1 {
			t.Errorf("offset = %d, want 1 (cursor advances past the one offending octet)", offset)
		}
	})
}

// TestParseName_RFC1035_NameLength documents that the 255-octet name
// limit binds Write only: Extract has no length-triggered read error
// and decodes an overlong-but-otherwise-well-formed name in full.
func TestParseName_RFC1035_NameLength(t *testing.T) {
	var data []byte
	var want []string
	for i := 0; i < 50; i++ { // 50 labels of 5 bytes each = 300 encoded bytes
		data = append(data, 5, 'l', 'a', 'b', 'e', 'l')
		want = append(want, "label")
	}
	data = append(data, 0)

	name, offset, err := ParseName(data, 0)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if name != strings.Join(want, ".") {
		t.Errorf("name mismatch: got %d bytes, want %d labels joined", len(name), len(want))
	}
	if offset != len(data) {
		t.Errorf("offset = %d, want %d", offset, len(data))
	}
}

func TestParseName_TruncatedMessage(t *testing.T) {
	tests := []struct {
		name   string
		data   []byte
		offset int
		errMsg string
	}{
		{name: "truncated label", data: []byte{0x05, 't', 'e'}, offset: 0, errMsg: "truncated label"},
		{name: "truncated compression pointer", data: []byte{0xC0}, offset: 0, errMsg: "truncated compression pointer"},
		{name: "offset out of bounds", data: []byte{0x04, 't', 'e', 's', 't', 0x00}, offset: 100, errMsg: "offset out of bounds"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, _, err := ParseName(tt.data, tt.offset)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			var wireErr *errors.WireFormatError
			if !goerrors.As(err, &wireErr) {
				t.Errorf("expected WireFormatError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestEncodeName_RFC1035_BasicEncoding(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected []byte
	}{
		{
			name:  "simple name",
			input: "test.local",
			expected: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
		{name: "root name", input: "", expected: []byte{0x00}},
		{name: "root name with dot", input: ".", expected: []byte{0x00}},
		{
			name:  "name with trailing dot",
			input: "test.local.",
			expected: []byte{
				0x04, 't', 'e', 's', 't',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
		{
			name:  "service name with underscore",
			input: "_http._tcp.local",
			expected: []byte{
				0x05, '_', 'h', 't', 't', 'p',
				0x04, '_', 't', 'c', 'p',
				0x05, 'l', 'o', 'c', 'a', 'l',
				0x00,
			},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result, err := EncodeName(tt.input)
			if err != nil {
				t.Fatalf("unexpected error: %v", err)
			}
			if len(result) != len(tt.expected) {
				t.Fatalf("expected length %d, got %d", len(tt.expected), len(result))
			}
			for i := range result {
				if result[i] != tt.expected[i] {
					t.Errorf("byte %d: expected 0x%02X, got 0x%02X", i, tt.expected[i], result[i])
				}
			}
		})
	}
}

func TestEncodeName_RFC1035_Validation(t *testing.T) {
	tests := []struct {
		name   string
		input  string
		errMsg string
	}{
		{name: "empty label (consecutive dots)", input: "test..local", errMsg: "empty label"},
		{
			name:   "label exceeds 63 bytes",
			input:  "aaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaaa.local",
			errMsg: "exceeds maximum length 63 bytes per RFC 1035 §3.1",
		},
		{name: "invalid character (space)", input: "test host.local", errMsg: "invalid character"},
		{name: "hyphen at start of label", input: "-test.local", errMsg: "hyphen cannot be first or last character"},
		{name: "hyphen at end of label", input: "test-.local", errMsg: "hyphen cannot be first or last character"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := EncodeName(tt.input)
			if err == nil {
				t.Fatalf("expected error containing %q, got nil", tt.errMsg)
			}
			var valErr *errors.ValidationError
			if !goerrors.As(err, &valErr) {
				t.Errorf("expected ValidationError, got %T", err)
			}
			if !strings.Contains(err.Error(), tt.errMsg) {
				t.Errorf("expected error containing %q, got: %v", tt.errMsg, err)
			}
		})
	}
}

func TestEncodeName_MaxNameLength(t *testing.T) {
	var labels []string
	for i := 0; i < 4; i++ {
		labels = append(labels, strings.Repeat("a", 63))
	}
	name := strings.Join(labels, ".")

	_, err := EncodeName(name)
	if err == nil {
		t.Fatal("expected error for name exceeding 255 bytes, got nil")
	}
	if !strings.Contains(err.Error(), "exceeds maximum 255 bytes per RFC 1035 §3.1") {
		t.Errorf("expected error about 255 byte limit, got: %v", err)
	}
}

func TestParseEncodeName_Roundtrip(t *testing.T) {
	tests := []string{
		"test.local",
		"printer.local",
		"_http._tcp.local",
		"my-device.local",
		"a.b.c.d.local",
	}

	for _, name := range tests {
		t.Run(name, func(t *testing.T) {
			encoded, err := EncodeName(name)
			if err != nil {
				t.Fatalf("EncodeName failed: %v", err)
			}
			decoded, _, err := ParseName(encoded, 0)
			if err != nil {
				t.Fatalf("ParseName failed: %v", err)
			}
			if decoded != name {
				t.Errorf("roundtrip failed: encoded %q, decoded %q", name, decoded)
			}
		})
	}
}

func TestEncodeServiceInstanceName(t *testing.T) {
	tests := []struct {
		name         string
		instanceName string
		serviceType  string
		wantErr      bool
		errType      string
		validate     func(t *testing.T, encoded []byte)
	}{
		{
			name:         "valid - simple name",
			instanceName: "MyPrinter",
			serviceType:  "_http._tcp.local",
			validate: func(t *testing.T, encoded []byte) {
				if encoded[0] != 9 {
					t.Errorf("first byte = %d, want 9", encoded[0])
				}
				if string(encoded[1:10]) != "MyPrinter" {
					t.Errorf("instance name = %q, want MyPrinter", string(encoded[1:10]))
				}
				if encoded[len(encoded)-1] != 0 {
					t.Error("encoded name should end with null terminator")
				}
			},
		},
		{
			name:         "valid - name with spaces",
			instanceName: "My Awesome Printer",
			serviceType:  "_http._tcp.local",
			validate: func(t *testing.T, encoded []byte) {
				if encoded[0] != 18 {
					t.Errorf("first byte = %d, want 18", encoded[0])
				}
				if string(encoded[1:19]) != "My Awesome Printer" {
					t.Errorf("instance name = %q, want 'My Awesome Printer'", string(encoded[1:19]))
				}
			},
		},
		{
			name:         "valid - unicode UTF-8",
			instanceName: "Printer™",
			serviceType:  "_http._tcp.local",
			validate: func(t *testing.T, encoded []byte) {
				length := encoded[0]
				if string(encoded[1:1+length]) != "Printer™" {
					t.Errorf("instance name = %q, want 'Printer™'", string(encoded[1:1+length]))
				}
			},
		},
		{
			name:         "valid - 63 character max length",
			instanceName: strings.Repeat("a", 63),
			serviceType:  "_http._tcp.local",
			validate: func(t *testing.T, encoded []byte) {
				if encoded[0] != 63 {
					t.Errorf("first byte = %d, want 63", encoded[0])
				}
			},
		},
		{
			name:         "invalid - empty instance name",
			instanceName: "",
			serviceType:  "_http._tcp.local",
			wantErr:      true,
			errType:      "ValidationError",
		},
		{
			name:         "invalid - exceeds 63 octets",
			instanceName: strings.Repeat("a", 64),
			serviceType:  "_http._tcp.local",
			wantErr:      true,
			errType:      "ValidationError",
		},
		{
			name:         "invalid - service type malformed",
			instanceName: "MyPrinter",
			serviceType:  "invalid..local",
			wantErr:      true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			encoded, err := EncodeServiceInstanceName(tt.instanceName, tt.serviceType)
			if tt.wantErr {
				if err == nil {
					t.Fatal("expected error, got nil")
				}
				if tt.errType == "ValidationError" {
					var valErr *errors.ValidationError
					if !goerrors.As(err, &valErr) {
						t.Errorf("error type = %T, want *errors.ValidationError", err)
					}
				}
				return
			}
			if err != nil {
				t.Fatalf("EncodeServiceInstanceName() error = %v, want nil", err)
			}
			if tt.validate != nil {
				tt.validate(t, encoded)
			}
		})
	}
}

func TestEncodeServiceInstanceName_Roundtrip(t *testing.T) {
	tests := []struct {
		instanceName string
		serviceType  string
	}{
		{"MyPrinter", "_http._tcp.local"},
		{"My Awesome Printer", "_ipp._tcp.local"},
		{"Printer-2", "_http._tcp.local"},
		{"X", "_ssh._tcp.local"},
		{strings.Repeat("a", 63), "_http._tcp.local"},
	}

	for _, tt := range tests {
		t.Run(tt.instanceName, func(t *testing.T) {
			encoded, err := EncodeServiceInstanceName(tt.instanceName, tt.serviceType)
			if err != nil {
				t.Fatalf("EncodeServiceInstanceName() error = %v", err)
			}
			parsedName, offset, err := ParseName(encoded, 0)
			if err != nil {
				t.Fatalf("ParseName() error = %v", err)
			}
			expected := tt.instanceName + "." + tt.serviceType
			if parsedName != expected {
				t.Errorf("roundtrip failed: got %q, want %q", parsedName, expected)
			}
			if offset != len(encoded) {
				t.Errorf("offset = %d, want %d", offset, len(encoded))
			}
		})
	}
}

func TestName_Equal(t *testing.T) {
	a, err := EncodeName("Printer.local")
	if err != nil {
		t.Fatal(err)
	}
	b, err := EncodeName("printer.LOCAL")
	if err != nil {
		t.Fatal(err)
	}
	if !Equal(a, 0, b, 0) {
		t.Error("expected case-insensitive match")
	}

	c, err := EncodeName("other.local")
	if err != nil {
		t.Fatal(err)
	}
	if Equal(a, 0, c, 0) {
		t.Error("expected mismatch")
	}
}

func TestSkipName_DoesNotFollowPointers(t *testing.T) {
	data := []byte{
		0x07, 'e', 'x', 'a', 'm', 'p', 'l', 'e',
		0x00,
		0x04, 't', 'e', 's', 't',
		0xC0, 0x00,
	}
	next, err := SkipName(data, 9)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if next != len(data) {
		t.Errorf("SkipName returned %d, want %d (does not follow pointer)", next, len(data))
	}
}
