package datfile

import (
	"io"
	"io/fs"
)

// Buffer is an in-memory io.ReadWriteSeeker. Writer needs to seek back over
// placeholders, which bytes.Buffer cannot do.
type Buffer struct {
	buf []byte
	pos int
}

var _ io.ReadWriteSeeker = (*Buffer)(nil)

// NewBuffer starts a buffer over b; writes overwrite b from offset zero.
func NewBuffer(b []byte) *Buffer {
	return &Buffer{buf: b}
}

// Bytes returns the buffer contents.
func (b *Buffer) Bytes() []byte {
	return b.buf
}

// Len returns the number of bytes held.
func (b *Buffer) Len() int {
	return len(b.buf)
}

func (b *Buffer) Read(v []byte) (int, error) {
	if b.pos >= len(b.buf) {
		return 0, io.EOF
	}
	n := copy(v, b.buf[b.pos:])
	b.pos += n
	return n, nil
}

func (b *Buffer) Write(v []byte) (int, error) {
	if len(b.buf) < b.pos+len(v) {
		b.buf = append(b.buf, make([]byte, b.pos+len(v)-len(b.buf))...)
	}
	copy(b.buf[b.pos:], v)
	b.pos += len(v)
	return len(v), nil
}

func (b *Buffer) Seek(offset int64, whence int) (int64, error) {
	switch whence {
	case io.SeekStart:
	case io.SeekCurrent:
		offset += int64(b.pos)
	case io.SeekEnd:
		offset += int64(len(b.buf))
	default:
		return 0, fs.ErrInvalid
	}

	if offset < 0 || offset > int64(len(b.buf)) {
		return 0, fs.ErrInvalid
	}

	b.pos = int(offset)
	return int64(b.pos), nil
}
