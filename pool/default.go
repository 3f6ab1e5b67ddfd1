package pool

// DefaultPayloadSize is the byte-buffer size used by DefaultPool.
const DefaultPayloadSize = 64

// Buffer is a plain byte-buffer payload for callers who don't want to
// implement Poolable themselves. Rather than wrapping T in a second heap
// object carrying a separate link, Buffer embeds Fields[Buffer] directly
// so the wrapper IS the poolable object.
type Buffer struct {
	Fields[Buffer]
	Data []byte
}

// NewDefaultAllocator builds the Allocator a DefaultPool uses: Allocate
// carves a payloadSize byte slice, Release drops it, Reset zeroes every
// byte in place without reallocating or changing the slice length.
func NewDefaultAllocator(payloadSize int) Allocator[Buffer] {
	return Allocator[Buffer]{
		Allocate: func() (*Buffer, error) {
			return &Buffer{Data: make([]byte, payloadSize)}, nil
		},
		Release: func(b *Buffer) {
			b.Data = nil
		},
		Reset: func(b *Buffer) {
			for i := range b.Data {
				b.Data[i] = 0
			}
		},
	}
}

// DefaultPool builds a Pool of Buffer objects using DefaultConfig's
// defaults and the given payload size (0 selects DefaultPayloadSize).
func DefaultPool(payloadSize int) (*Pool[Buffer, *Buffer], error) {
	if payloadSize <= 0 {
		payloadSize = DefaultPayloadSize
	}

	cfg := DefaultConfig[Buffer, *Buffer](NewDefaultAllocator(payloadSize))
	return Create(cfg)
}
