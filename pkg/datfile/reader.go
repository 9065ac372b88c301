package datfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"

	"golang.org/x/text/encoding"
)

// HeaderSize is the byte length of the container header (magic + size).
const HeaderSize = 8

// readerOptions holds configuration for a Reader
type readerOptions struct {
	checkBounds bool
	leaveOpen   bool
	logger      *slog.Logger
	encoding    encoding.Encoding
}

// ReaderOption configures a Reader
type ReaderOption func(*readerOptions)

// WithCheckBounds sets the default close policy: strict (true) fails when
// the cursor overran a segment, lenient (false) tolerates it.
func WithCheckBounds(strict bool) ReaderOption {
	return func(o *readerOptions) {
		o.checkBounds = strict
	}
}

// WithLeaveOpen keeps an io.Closer source open after Close.
func WithLeaveOpen(leaveOpen bool) ReaderOption {
	return func(o *readerOptions) {
		o.leaveOpen = leaveOpen
	}
}

// WithReaderLogger sets the logger used for framing diagnostics
func WithReaderLogger(logger *slog.Logger) ReaderOption {
	return func(o *readerOptions) {
		o.logger = logger
	}
}

// WithReaderEncoding decodes text through enc instead of raw UTF-8.
func WithReaderEncoding(enc encoding.Encoding) ReaderOption {
	return func(o *readerOptions) {
		o.encoding = enc
	}
}

// Reader frames a container. Segments are opened and closed in strict
// LIFO order through the ReadFrame handles it returns.
type Reader struct {
	*Decoder
	src     io.ReadSeeker
	dialect Dialect
	size    int32
	start   int64
	frames  []*ReadFrame
	opts    readerOptions
	logger  *slog.Logger
	closed  bool
}

// ReadFrame is an open segment. Close it exactly once, innermost first.
type ReadFrame struct {
	r      *Reader
	tag    Tag
	size   int32
	start  int64
	closed bool
}

// NewReader validates the container header and positions the stream at
// the first segment.
func NewReader(rs io.ReadSeeker, opts ...ReaderOption) (*Reader, error) {
	if rs == nil {
		return nil, errors.New("nil container source")
	}
	o := readerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = slog.Default()
	}

	r := &Reader{
		Decoder: NewDecoder(rs, o.encoding),
		src:     rs,
		opts:    o,
		logger:  log,
	}

	magic, err := r.ReadS4()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	dialect, ok := dialectFromMagic(Tag(uint32(magic)))
	if !ok {
		return nil, fmt.Errorf("%w: unrecognized magic %s", ErrMalformed, Tag(uint32(magic)))
	}
	size, err := r.ReadS4()
	if err != nil {
		return nil, fmt.Errorf("reading header: %w", err)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: negative container size %d", ErrMalformed, size)
	}
	start, err := r.Pos()
	if err != nil {
		return nil, fmt.Errorf("locating payload: %w", err)
	}

	r.dialect = dialect
	r.size = size
	r.start = start
	r.logger.Debug("Opened container", "dialect", dialect, "declared_size", size)
	return r, nil
}

// Dialect reports which header magic the container carried.
func (r *Reader) Dialect() Dialect {
	return r.dialect
}

// DeclaredSize is the payload size from the header.
func (r *Reader) DeclaredSize() int32 {
	return r.size
}

// CheckBounds reports the default close policy.
func (r *Reader) CheckBounds() bool {
	return r.opts.checkBounds
}

// Depth is the number of open segments.
func (r *Reader) Depth() int {
	return len(r.frames)
}

// End is the declared end offset of the innermost open segment, or of the
// container when none is open.
func (r *Reader) End() int64 {
	if n := len(r.frames); n > 0 {
		return r.frames[n-1].End()
	}
	return r.start + int64(r.size)
}

// AtEnd reports whether the cursor reached End.
func (r *Reader) AtEnd() (bool, error) {
	pos, err := r.Pos()
	if err != nil {
		return false, err
	}
	return pos >= r.End(), nil
}

// OpenSegment reads a segment header and pushes it on the frame stack.
func (r *Reader) OpenSegment() (*ReadFrame, error) {
	if r.closed {
		return nil, ErrClosed
	}
	tag, err := r.ReadS4()
	if err != nil {
		return nil, fmt.Errorf("reading segment tag: %w", err)
	}
	size, err := r.ReadS4()
	if err != nil {
		return nil, fmt.Errorf("reading %s length: %w", Tag(uint32(tag)), err)
	}
	if size < 0 {
		return nil, fmt.Errorf("%w: segment %s has negative length %d", ErrMalformed, Tag(uint32(tag)), size)
	}
	start, err := r.Pos()
	if err != nil {
		return nil, err
	}
	f := &ReadFrame{r: r, tag: Tag(uint32(tag)), size: size, start: start}
	r.frames = append(r.frames, f)
	return f, nil
}

// Expect opens segments until one carries tag, closing every mismatch on
// the way. The search stops at the end of the enclosing segment.
func (r *Reader) Expect(tag Tag) (*ReadFrame, error) {
	for {
		done, err := r.AtEnd()
		if err != nil {
			return nil, err
		}
		if done {
			return nil, fmt.Errorf("%w: invalid %s format: segment not found", ErrMalformed, tag)
		}
		f, err := r.OpenSegment()
		if err != nil {
			if errors.Is(err, ErrTruncated) {
				return nil, fmt.Errorf("%w: invalid %s format: %w", ErrMalformed, tag, err)
			}
			return nil, err
		}
		if f.tag == tag {
			return f, nil
		}
		r.logger.Debug("Skipping segment", "want", tag, "got", f.tag, "size", f.size)
		if err := f.Close(); err != nil {
			return nil, err
		}
	}
}

// settle applies the boundary rule: a cursor at or before end is moved to
// end, a cursor past end is an error when strict and left alone otherwise.
func (r *Reader) settle(what fmt.Stringer, end int64, strict bool) error {
	pos, err := r.Pos()
	if err != nil {
		return err
	}
	if pos > end {
		if strict {
			return fmt.Errorf("%w: %s ends at %d, cursor at %d", ErrBoundsOverrun, what, end, pos)
		}
		r.logger.Debug("Tolerating segment overrun", "segment", what.String(), "end", end, "pos", pos)
		return nil
	}
	if _, err := r.src.Seek(end, io.SeekStart); err != nil {
		return fmt.Errorf("seeking past %s: %w", what, err)
	}
	return nil
}

// Close releases the source. The container payload behaves like one top
// level segment and is settled with the default policy first.
func (r *Reader) Close() error {
	if r.closed {
		return nil
	}
	r.closed = true

	var errs []error
	if n := len(r.frames); n > 0 {
		errs = append(errs, fmt.Errorf("%w: %d still open, innermost %s", ErrUnclosedSegment, n, r.frames[n-1].tag))
		for _, f := range r.frames {
			f.closed = true
		}
		r.frames = nil
	}
	errs = append(errs, r.settle(r.dialect.Magic(), r.start+int64(r.size), r.opts.checkBounds))

	if c, ok := r.src.(io.Closer); ok && !r.opts.leaveOpen {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Tag returns the segment identifier.
func (f *ReadFrame) Tag() Tag {
	return f.tag
}

// Size returns the declared payload length.
func (f *ReadFrame) Size() int32 {
	return f.size
}

// Start returns the offset of the first payload byte.
func (f *ReadFrame) Start() int64 {
	return f.start
}

// End returns the offset just past the declared payload.
func (f *ReadFrame) End() int64 {
	return f.start + int64(f.size)
}

func (f *ReadFrame) String() string {
	return f.tag.String()
}

// Close pops the frame using the reader's default policy.
func (f *ReadFrame) Close() error {
	return f.CloseWith(f.r.opts.checkBounds)
}

// CloseWith pops the frame with an explicit policy.
func (f *ReadFrame) CloseWith(strict bool) error {
	if f.closed {
		return fmt.Errorf("%w: %s", ErrFrameClosed, f.tag)
	}
	r := f.r
	n := len(r.frames)
	if n == 0 || r.frames[n-1] != f {
		return fmt.Errorf("%w: %s is not the innermost segment", ErrFrameOrder, f.tag)
	}
	r.frames = r.frames[:n-1]
	f.closed = true
	return r.settle(f, f.End(), strict)
}
