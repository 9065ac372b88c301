package datfile

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"math"

	"golang.org/x/text/encoding"
)

// writerOptions holds configuration for a Writer
type writerOptions struct {
	leaveOpen bool
	logger    *slog.Logger
	encoding  encoding.Encoding
}

// WriterOption configures a Writer
type WriterOption func(*writerOptions)

// WithWriterLeaveOpen keeps an io.Closer destination open after Close.
func WithWriterLeaveOpen(leaveOpen bool) WriterOption {
	return func(o *writerOptions) {
		o.leaveOpen = leaveOpen
	}
}

// WithWriterLogger sets the logger used for framing diagnostics
func WithWriterLogger(logger *slog.Logger) WriterOption {
	return func(o *writerOptions) {
		o.logger = logger
	}
}

// WithWriterEncoding encodes text through enc instead of raw UTF-8.
func WithWriterEncoding(enc encoding.Encoding) WriterOption {
	return func(o *writerOptions) {
		o.encoding = enc
	}
}

// Writer produces a container. Segment lengths are written as placeholders
// and patched when the matching WriteFrame is closed.
type Writer struct {
	*Encoder
	dst     io.WriteSeeker
	dialect Dialect
	start   int64
	frames  []*WriteFrame
	opts    writerOptions
	logger  *slog.Logger
	closed  bool
}

// WriteFrame is an open segment being written.
type WriteFrame struct {
	w      *Writer
	tag    Tag
	start  int64
	closed bool
}

// NewWriter writes the header for dialect with a zero size placeholder.
func NewWriter(ws io.WriteSeeker, dialect Dialect, opts ...WriterOption) (*Writer, error) {
	if ws == nil {
		return nil, errors.New("nil container destination")
	}
	o := writerOptions{}
	for _, opt := range opts {
		opt(&o)
	}
	log := o.logger
	if log == nil {
		log = slog.Default()
	}

	w := &Writer{
		Encoder: NewEncoder(ws, o.encoding),
		dst:     ws,
		dialect: dialect,
		opts:    o,
		logger:  log,
	}
	if err := w.WriteS4(int32(dialect.Magic())); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	if err := w.WriteS4(0); err != nil {
		return nil, fmt.Errorf("writing header: %w", err)
	}
	start, err := w.Pos()
	if err != nil {
		return nil, err
	}
	w.start = start
	return w, nil
}

// Dialect reports the header magic being written.
func (w *Writer) Dialect() Dialect {
	return w.dialect
}

// Depth is the number of open segments.
func (w *Writer) Depth() int {
	return len(w.frames)
}

// Pos returns the current write offset.
func (w *Writer) Pos() (int64, error) {
	return w.dst.Seek(0, io.SeekCurrent)
}

// OpenSegment writes tag and a length placeholder.
func (w *Writer) OpenSegment(tag Tag) (*WriteFrame, error) {
	if w.closed {
		return nil, ErrClosed
	}
	if err := w.WriteS4(int32(tag)); err != nil {
		return nil, fmt.Errorf("writing %s tag: %w", tag, err)
	}
	if err := w.WriteS4(0); err != nil {
		return nil, fmt.Errorf("writing %s length: %w", tag, err)
	}
	start, err := w.Pos()
	if err != nil {
		return nil, err
	}
	f := &WriteFrame{w: w, tag: tag, start: start}
	w.frames = append(w.frames, f)
	return f, nil
}

// patch rewrites the int32 placeholder just before start with the number
// of bytes written since start. The cursor always returns to where it was.
func (w *Writer) patch(what fmt.Stringer, start int64) (err error) {
	pos, err := w.Pos()
	if err != nil {
		return err
	}
	length := pos - start
	if length > math.MaxInt32 {
		return fmt.Errorf("%w: %s payload of %d bytes", ErrOverflow, what, length)
	}
	if _, err := w.dst.Seek(start-4, io.SeekStart); err != nil {
		return fmt.Errorf("seeking to %s length: %w", what, err)
	}
	defer func() {
		if _, serr := w.dst.Seek(pos, io.SeekStart); serr != nil && err == nil {
			err = fmt.Errorf("restoring cursor after %s: %w", what, serr)
		}
	}()
	return w.WriteS4(int32(length))
}

// Close patches the header size and releases the destination.
func (w *Writer) Close() error {
	if w.closed {
		return nil
	}
	w.closed = true

	var errs []error
	if n := len(w.frames); n > 0 {
		errs = append(errs, fmt.Errorf("%w: %d still open, innermost %s", ErrUnclosedSegment, n, w.frames[n-1].tag))
		for _, f := range w.frames {
			f.closed = true
		}
		w.frames = nil
	}
	errs = append(errs, w.patch(w.dialect.Magic(), w.start))

	if c, ok := w.dst.(io.Closer); ok && !w.opts.leaveOpen {
		errs = append(errs, c.Close())
	}
	return errors.Join(errs...)
}

// Tag returns the segment identifier.
func (f *WriteFrame) Tag() Tag {
	return f.tag
}

func (f *WriteFrame) String() string {
	return f.tag.String()
}

// Close pops the frame and backpatches its length.
func (f *WriteFrame) Close() error {
	if f.closed {
		return fmt.Errorf("%w: %s", ErrFrameClosed, f.tag)
	}
	w := f.w
	n := len(w.frames)
	if n == 0 || w.frames[n-1] != f {
		return fmt.Errorf("%w: %s is not the innermost segment", ErrFrameOrder, f.tag)
	}
	w.frames = w.frames[:n-1]
	f.closed = true
	return w.patch(f, f.start)
}
