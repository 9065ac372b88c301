package ka3d

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"sync"

	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Asset is a decoded container: its dialect and the first recognized
// top level segment.
type Asset struct {
	Dialect datfile.Dialect
	Segment Segment
}

// ErrRoundTrip reports that re-encoding a decoded container did not
// reproduce the original bytes. See RoundTripError.
var ErrRoundTrip = errors.New("round trip mismatch")

// RoundTripError locates the first differing byte.
type RoundTripError struct {
	Offset   int
	Original int
	Encoded  int
}

func (e *RoundTripError) Error() string {
	return fmt.Sprintf("%s at offset %d (original %d bytes, re-encoded %d bytes)", ErrRoundTrip, e.Offset, e.Original, e.Encoded)
}

func (e *RoundTripError) Unwrap() error {
	return ErrRoundTrip
}

// Codec decodes and encodes containers with a fixed configuration. It
// holds no stream state and is safe for concurrent use.
type Codec struct {
	options options
}

// Global codec instance for convenience functions
var globalCodec *Codec
var globalCodecOnce sync.Once

// getGlobalCodec returns a singleton codec instance
func getGlobalCodec() *Codec {
	globalCodecOnce.Do(func() {
		globalCodec = NewCodec()
	})
	return globalCodec
}

// NewCodec creates a new codec instance with the given options
func NewCodec(opts ...Option) *Codec {
	options := defaultOptions()
	for _, opt := range opts {
		opt(&options)
	}
	if options.logger == nil {
		options.logger = defaultOptions().logger
	}
	if options.debugMode {
		options.logger = options.logger.With("debug", true)
	}
	return &Codec{options: options}
}

func (c *Codec) apply(opts []Option) options {
	o := c.options
	for _, opt := range opts {
		opt(&o)
	}
	if o.logger == nil {
		o.logger = c.options.logger
	}
	return o
}

// DecodeBytes decodes a container held in memory
func DecodeBytes(data []byte, opts ...Option) (*Asset, error) {
	return getGlobalCodec().DecodeBytes(context.Background(), data, opts...)
}

// DecodeFile decodes the container stored at path
func DecodeFile(path string, opts ...Option) (*Asset, error) {
	return getGlobalCodec().DecodeFile(context.Background(), path, opts...)
}

// EncodeBytes encodes seg into a new container of the given dialect
func EncodeBytes(seg Segment, dialect datfile.Dialect, opts ...Option) ([]byte, error) {
	return getGlobalCodec().EncodeBytes(context.Background(), seg, dialect, opts...)
}

// EncodeFile encodes seg and writes the container to path
func EncodeFile(path string, seg Segment, dialect datfile.Dialect, opts ...Option) error {
	return getGlobalCodec().EncodeFile(context.Background(), path, seg, dialect, opts...)
}

// Verify decodes data, re-encodes it and compares the bytes
func Verify(data []byte, opts ...Option) (*Asset, error) {
	return getGlobalCodec().Verify(context.Background(), data, opts...)
}

// DecodeBytes decodes a container held in memory
func (c *Codec) DecodeBytes(ctx context.Context, data []byte, opts ...Option) (*Asset, error) {
	return c.DecodeReader(ctx, bytes.NewReader(data), opts...)
}

// DecodeReader decodes a container from rs. rs is not closed.
func (c *Codec) DecodeReader(ctx context.Context, rs io.ReadSeeker, opts ...Option) (*Asset, error) {
	select {
	case <-ctx.Done():
		return nil, ctx.Err()
	default:
	}
	o := c.apply(opts)
	o.logger.DebugContext(ctx, "Starting container decode", "check_bounds", o.checkBounds)

	r, err := datfile.NewReader(rs, append(o.readerOptions(), datfile.WithLeaveOpen(true))...)
	if err != nil {
		return nil, fmt.Errorf("opening container: %w", err)
	}
	seg, err := Decode(r)
	if cerr := r.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing container: %w", cerr)
	}
	if err != nil {
		return nil, err
	}

	o.logger.DebugContext(ctx, "Decoded container", "dialect", r.Dialect(), "tag", seg.Tag())
	return &Asset{Dialect: r.Dialect(), Segment: seg}, nil
}

// DecodeFile decodes the container stored at path
func (c *Codec) DecodeFile(ctx context.Context, path string, opts ...Option) (*Asset, error) {
	f, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("opening container file: %w", err)
	}
	defer f.Close()
	return c.DecodeReader(ctx, f, opts...)
}

// Encode writes seg as a complete container to ws. ws is not closed.
func (c *Codec) Encode(ctx context.Context, ws io.WriteSeeker, seg Segment, dialect datfile.Dialect, opts ...Option) error {
	select {
	case <-ctx.Done():
		return ctx.Err()
	default:
	}
	o := c.apply(opts)
	o.logger.DebugContext(ctx, "Starting container encode", "dialect", dialect)

	w, err := datfile.NewWriter(ws, dialect, append(o.writerOptions(), datfile.WithWriterLeaveOpen(true))...)
	if err != nil {
		return fmt.Errorf("creating container: %w", err)
	}
	err = Encode(w, seg)
	if cerr := w.Close(); err == nil && cerr != nil {
		err = fmt.Errorf("closing container: %w", cerr)
	}
	return err
}

// EncodeBytes encodes seg into a new container of the given dialect
func (c *Codec) EncodeBytes(ctx context.Context, seg Segment, dialect datfile.Dialect, opts ...Option) ([]byte, error) {
	buf := datfile.NewBuffer(nil)
	if err := c.Encode(ctx, buf, seg, dialect, opts...); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}

// EncodeFile encodes seg into a temporary file next to path and renames it
// into place only when encoding succeeded.
func (c *Codec) EncodeFile(ctx context.Context, path string, seg Segment, dialect datfile.Dialect, opts ...Option) (err error) {
	tmp, err := os.CreateTemp(filepath.Dir(path), "."+filepath.Base(path)+".*")
	if err != nil {
		return fmt.Errorf("creating output file: %w", err)
	}
	defer func() {
		if err != nil {
			tmp.Close()
			os.Remove(tmp.Name())
		}
	}()

	if err := c.Encode(ctx, tmp, seg, dialect, opts...); err != nil {
		return err
	}
	if err := tmp.Close(); err != nil {
		return fmt.Errorf("closing output file: %w", err)
	}
	if err := os.Rename(tmp.Name(), path); err != nil {
		return fmt.Errorf("moving output file into place: %w", err)
	}
	return nil
}

// Verify decodes data, re-encodes the segment in the same dialect and
// compares the result with the input.
func (c *Codec) Verify(ctx context.Context, data []byte, opts ...Option) (*Asset, error) {
	asset, err := c.DecodeBytes(ctx, data, opts...)
	if err != nil {
		return nil, err
	}
	out, err := c.EncodeBytes(ctx, asset.Segment, asset.Dialect, opts...)
	if err != nil {
		return asset, fmt.Errorf("re-encoding: %w", err)
	}
	if !bytes.Equal(data, out) {
		return asset, &RoundTripError{Offset: firstDiff(data, out), Original: len(data), Encoded: len(out)}
	}
	return asset, nil
}

func firstDiff(a, b []byte) int {
	n := min(len(a), len(b))
	for i := 0; i < n; i++ {
		if a[i] != b[i] {
			return i
		}
	}
	return n
}
