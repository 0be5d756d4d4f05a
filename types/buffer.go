package types

// Buffer holds the single packet the stack is working on: inbound frames are
// loaded into it before Stack.Input, and whatever the stack leaves in it
// afterwards is pending output. Len() > 0 means there is something to send.
type Buffer struct {
	data []byte
	n    int
}

func NewBuffer(size int) *Buffer {
	return &Buffer{data: make([]byte, size)}
}

// Bytes returns the valid part of the buffer.
func (b *Buffer) Bytes() []byte {
	return b.data[:b.n]
}

// Data returns the whole backing array, for writers that fill it before SetLen.
func (b *Buffer) Data() []byte {
	return b.data
}

func (b *Buffer) Len() int {
	return b.n
}

func (b *Buffer) Cap() int {
	return len(b.data)
}

// SetLen panics if n is out of range, like slicing would.
func (b *Buffer) SetLen(n int) {
	if n < 0 || n > len(b.data) {
		panic("buffer length out of range")
	}
	b.n = n
}

func (b *Buffer) Reset() {
	b.n = 0
}

// Load copies p into the buffer, returning false (and leaving it empty) if p does not fit.
func (b *Buffer) Load(p []byte) bool {
	if len(p) > len(b.data) {
		b.n = 0
		return false
	}
	b.n = copy(b.data, p)
	return true
}
