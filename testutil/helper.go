// Package testutil builds raw container images for tests.
package testutil

import (
	"encoding/binary"
	"math"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/google/go-cmp/cmp"
)

// Builder appends big-endian wire values to a byte slice.
type Builder struct {
	buf []byte
}

// NewBuilder returns an empty builder.
func NewBuilder() *Builder {
	return &Builder{}
}

func (b *Builder) S2(v int16) *Builder {
	b.buf = binary.BigEndian.AppendUint16(b.buf, uint16(v))
	return b
}

func (b *Builder) S4(v int32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, uint32(v))
	return b
}

func (b *Builder) F4(v float32) *Builder {
	b.buf = binary.BigEndian.AppendUint32(b.buf, math.Float32bits(v))
	return b
}

func (b *Builder) Bool(v bool) *Builder {
	if v {
		return b.Raw(1)
	}
	return b.Raw(0)
}

// Str writes an int16 byte count and the raw bytes of s.
func (b *Builder) Str(s string) *Builder {
	b.S2(int16(len(s)))
	b.buf = append(b.buf, s...)
	return b
}

// Tag writes a four character identifier.
func (b *Builder) Tag(s string) *Builder {
	if len(s) != 4 {
		panic("testutil: tag must be 4 bytes: " + s)
	}
	b.buf = append(b.buf, s...)
	return b
}

func (b *Builder) Raw(p ...byte) *Builder {
	b.buf = append(b.buf, p...)
	return b
}

// Segment writes tag, the exact length of the payload built by fn and the
// payload itself.
func (b *Builder) Segment(tag string, fn func(*Builder)) *Builder {
	inner := NewBuilder()
	if fn != nil {
		fn(inner)
	}
	return b.Tag(tag).S4(int32(len(inner.buf))).Raw(inner.buf...)
}

// SegmentSized is like Segment but declares size regardless of the payload.
func (b *Builder) SegmentSized(tag string, size int32, fn func(*Builder)) *Builder {
	inner := NewBuilder()
	if fn != nil {
		fn(inner)
	}
	return b.Tag(tag).S4(size).Raw(inner.buf...)
}

func (b *Builder) Len() int {
	return len(b.buf)
}

func (b *Builder) Bytes() []byte {
	return b.buf
}

// Container returns magic ("KA3D" or "RVIO"), the payload length and the
// payload built by fn.
func Container(magic string, fn func(*Builder)) []byte {
	return NewBuilder().Segment(magic, fn).Bytes()
}

// Pair is one ordered map entry.
type Pair[K comparable, V any] struct {
	Key   K
	Value V
}

// Pairs flattens m front to back; a nil map yields nil.
func Pairs[K comparable, V any](m *orderedmap.OrderedMap[K, V]) []Pair[K, V] {
	if m == nil {
		return nil
	}
	out := make([]Pair[K, V], 0, m.Len())
	for k, v := range m.AllFromFront() {
		out = append(out, Pair[K, V]{Key: k, Value: v})
	}
	return out
}

// OrderedMap lets cmp compare ordered maps by their entries, order
// included. An empty map and a nil map compare equal.
func OrderedMap[K comparable, V any]() cmp.Option {
	return cmp.Transformer("orderedmap", func(m *orderedmap.OrderedMap[K, V]) []Pair[K, V] {
		p := Pairs(m)
		if len(p) == 0 {
			return nil
		}
		return p
	})
}
