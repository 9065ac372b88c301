package datfile

import (
	"encoding/binary"
	"errors"
	"fmt"
	"io"
	"math"
	"strings"

	"github.com/kaitai-io/kaitai_struct_go_runtime/kaitai"
	"golang.org/x/text/encoding"
	"golang.org/x/text/encoding/htmlindex"
)

// LookupEncoding resolves a WHATWG encoding label such as "windows-1252".
// UTF-8 labels and the empty string resolve to nil, which keeps text bytes
// untouched.
func LookupEncoding(name string) (encoding.Encoding, error) {
	switch strings.ToLower(strings.TrimSpace(name)) {
	case "", "utf-8", "utf8", "unicode-1-1-utf-8":
		return nil, nil
	}
	enc, err := htmlindex.Get(name)
	if err != nil {
		return nil, fmt.Errorf("unknown text encoding %q: %w", name, err)
	}
	return enc, nil
}

// textCodec converts between wire bytes and Go strings. A nil encoding
// passes UTF-8 bytes through unchanged.
type textCodec struct {
	enc encoding.Encoding
}

func (c textCodec) decode(b []byte) (string, error) {
	if c.enc == nil {
		return string(b), nil
	}
	out, err := c.enc.NewDecoder().Bytes(b)
	if err != nil {
		return "", fmt.Errorf("decoding text: %w", err)
	}
	return string(out), nil
}

func (c textCodec) encode(s string) ([]byte, error) {
	if c.enc == nil {
		return []byte(s), nil
	}
	out, err := c.enc.NewEncoder().Bytes([]byte(s))
	if err != nil {
		return nil, fmt.Errorf("encoding text %q: %w", s, err)
	}
	return out, nil
}

func readErr(what string, err error) error {
	if errors.Is(err, io.EOF) || errors.Is(err, io.ErrUnexpectedEOF) {
		return fmt.Errorf("%w: reading %s: %w", ErrTruncated, what, err)
	}
	return fmt.Errorf("reading %s: %w", what, err)
}

// Decoder reads the primitive wire types: big-endian integers, floats,
// single byte booleans and int16 length-prefixed text.
type Decoder struct {
	io   *kaitai.Stream
	text textCodec
}

// NewDecoder wraps a seekable source. enc may be nil.
func NewDecoder(rs io.ReadSeeker, enc encoding.Encoding) *Decoder {
	return &Decoder{io: kaitai.NewStream(rs), text: textCodec{enc: enc}}
}

// Stream exposes the underlying Kaitai stream.
func (d *Decoder) Stream() *kaitai.Stream {
	return d.io
}

// Pos returns the current stream offset.
func (d *Decoder) Pos() (int64, error) {
	return d.io.Pos()
}

// fixed reads exactly n bytes. The typed Stream readers accept short
// reads, so integers go through ReadBytes which does not.
func (d *Decoder) fixed(what string, n int) ([]byte, error) {
	b, err := d.io.ReadBytes(n)
	if err != nil {
		return nil, readErr(what, err)
	}
	return b, nil
}

func (d *Decoder) ReadS2() (int16, error) {
	b, err := d.fixed("s2", 2)
	if err != nil {
		return 0, err
	}
	return int16(binary.BigEndian.Uint16(b)), nil
}

func (d *Decoder) ReadS4() (int32, error) {
	b, err := d.fixed("s4", 4)
	if err != nil {
		return 0, err
	}
	return int32(binary.BigEndian.Uint32(b)), nil
}

// ReadF4 reads four big-endian bytes and reinterprets the bit pattern as an
// IEEE-754 single.
func (d *Decoder) ReadF4() (float32, error) {
	b, err := d.fixed("f4", 4)
	if err != nil {
		return 0, err
	}
	return math.Float32frombits(binary.BigEndian.Uint32(b)), nil
}

// ReadBool reads one byte; any nonzero value is true.
func (d *Decoder) ReadBool() (bool, error) {
	v, err := d.io.ReadU1()
	if err != nil {
		return false, readErr("bool", err)
	}
	return v != 0, nil
}

// ReadString reads an int16 byte count followed by that many text bytes.
func (d *Decoder) ReadString() (string, error) {
	n, err := d.ReadS2()
	if err != nil {
		return "", err
	}
	if n < 0 {
		return "", fmt.Errorf("%w: negative string length %d", ErrMalformed, n)
	}
	if n == 0 {
		return "", nil
	}
	b, err := d.io.ReadBytes(int(n))
	if err != nil {
		return "", readErr("string", err)
	}
	return d.text.decode(b)
}

// ReadCount reads an int16 record count and rejects negative values.
func (d *Decoder) ReadCount(what string) (int, error) {
	n, err := d.ReadS2()
	if err != nil {
		return 0, err
	}
	if n < 0 {
		return 0, fmt.Errorf("%w: negative %s count %d", ErrMalformed, what, n)
	}
	return int(n), nil
}

// Encoder mirrors Decoder.
type Encoder struct {
	io   *kaitai.Writer
	text textCodec
}

// NewEncoder wraps a destination. enc may be nil.
func NewEncoder(w io.Writer, enc encoding.Encoding) *Encoder {
	return &Encoder{io: kaitai.NewWriter(w), text: textCodec{enc: enc}}
}

func (e *Encoder) WriteS2(v int16) error {
	if err := e.io.WriteS2be(v); err != nil {
		return fmt.Errorf("writing s2: %w", err)
	}
	return nil
}

func (e *Encoder) WriteS4(v int32) error {
	if err := e.io.WriteS4be(v); err != nil {
		return fmt.Errorf("writing s4: %w", err)
	}
	return nil
}

// WriteF4 writes the bit pattern of v as four big-endian bytes.
func (e *Encoder) WriteF4(v float32) error {
	if err := e.io.WriteU4be(math.Float32bits(v)); err != nil {
		return fmt.Errorf("writing f4: %w", err)
	}
	return nil
}

func (e *Encoder) WriteBool(v bool) error {
	var b uint8
	if v {
		b = 1
	}
	if err := e.io.WriteU1(b); err != nil {
		return fmt.Errorf("writing bool: %w", err)
	}
	return nil
}

// WriteString writes the encoded byte count as int16 followed by the bytes.
func (e *Encoder) WriteString(s string) error {
	b, err := e.text.encode(s)
	if err != nil {
		return err
	}
	if len(b) > math.MaxInt16 {
		return fmt.Errorf("%w: string of %d bytes exceeds %d", ErrOverflow, len(b), math.MaxInt16)
	}
	if err := e.WriteS2(int16(len(b))); err != nil {
		return err
	}
	if len(b) == 0 {
		return nil
	}
	if err := e.io.WriteBytes(b); err != nil {
		return fmt.Errorf("writing string: %w", err)
	}
	return nil
}

// WriteCount writes an int16 record count.
func (e *Encoder) WriteCount(what string, n int) error {
	if n > math.MaxInt16 {
		return fmt.Errorf("%w: %d %s records exceed %d", ErrOverflow, n, what, math.MaxInt16)
	}
	return e.WriteS2(int16(n))
}
