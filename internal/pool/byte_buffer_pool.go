// Package pool provides reusable byte buffers for the row compression path.
package pool

import "sync"

// RowBufferDefaultSize is the initial capacity of a ByteBuffer obtained from
// the pool. A compressed raster row rarely exceeds its pixel width, so a few
// KiB covers typical chart widths without regrowth.
const RowBufferDefaultSize = 1024 * 8

// ByteBuffer is a minimal append-only byte buffer that retains its
// allocation across Reset calls.
type ByteBuffer struct {
	// B is the underlying byte slice.
	B []byte
}

// NewByteBuffer creates a new ByteBuffer with the specified initial capacity.
func NewByteBuffer(defaultSize int) *ByteBuffer {
	return &ByteBuffer{
		B: make([]byte, 0, defaultSize),
	}
}

// Bytes returns the underlying byte slice.
func (bb *ByteBuffer) Bytes() []byte {
	return bb.B
}

// Len returns the length of the buffer.
func (bb *ByteBuffer) Len() int {
	return len(bb.B)
}

// Reset resets the buffer to be empty, but retains the allocated memory for
// reuse.
func (bb *ByteBuffer) Reset() {
	bb.B = bb.B[:0]
}

// WriteByte appends a single byte. It never fails; the signature matches
// io.ByteWriter.
func (bb *ByteBuffer) WriteByte(c byte) error {
	bb.B = append(bb.B, c)

	return nil
}

var rowBufferPool = sync.Pool{
	New: func() any { return NewByteBuffer(RowBufferDefaultSize) },
}

// GetRowBuffer retrieves an empty ByteBuffer from the pool.
func GetRowBuffer() *ByteBuffer {
	buf, _ := rowBufferPool.Get().(*ByteBuffer)
	buf.Reset()

	return buf
}

// PutRowBuffer returns a ByteBuffer to the pool.
func PutRowBuffer(buf *ByteBuffer) {
	rowBufferPool.Put(buf)
}
