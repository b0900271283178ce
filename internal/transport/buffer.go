package transport

import "sync"

// bufferPool recycles receive buffers sized to the mDNS message ceiling
// (RFC 6762 §17), eliminating a per-Receive allocation once warmed up.
var bufferPool = sync.Pool{
	New: func() any {
		buf := make([]byte, MaxDatagramSize)
		return &buf
	},
}

// GetBuffer returns a pooled receive buffer of MaxDatagramSize bytes.
func GetBuffer() *[]byte {
	return bufferPool.Get().(*[]byte)
}

// PutBuffer returns buf to the pool for reuse.
func PutBuffer(buf *[]byte) {
	bufferPool.Put(buf)
}

// MaxDatagramSize is the receive buffer size, equal to RFC 6762 §17's
// 9000-octet mDNS message ceiling.
const MaxDatagramSize = 9000
