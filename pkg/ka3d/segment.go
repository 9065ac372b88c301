package ka3d

import (
	"errors"
	"fmt"
	"slices"

	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// ErrDuplicate reports a key inserted twice into a keyed collection.
var ErrDuplicate = errors.New("duplicate key")

// Segment is one of the typed top level payloads: *SpriteSheet, *Font,
// *Animation, *CompositeSprites or *Localization.
type Segment interface {
	// Tag is the chunk identifier the segment is framed with.
	Tag() datfile.Tag
	// wireVersion derives the version written for the value.
	wireVersion() int16
	encodePayload(w *datfile.Writer) error
}

// schema describes one top level tag: the versions each dialect accepts
// and how to decode the payload that follows the version field.
type schema struct {
	tag      datfile.Tag
	name     string
	versions map[datfile.Dialect][]int16
	decode   func(r *datfile.Reader, version int16) (Segment, error)
}

// schemas is the dispatch table. Tags absent here, or present without an
// entry for the container's dialect, are skipped by Decode.
var schemas = map[datfile.Tag]*schema{
	datfile.TagSpriteSheet: {
		tag:      datfile.TagSpriteSheet,
		name:     "SpriteSheet",
		versions: map[datfile.Dialect][]int16{datfile.Standard: {1}},
		decode:   func(r *datfile.Reader, _ int16) (Segment, error) { return decodeSpriteSheet(r) },
	},
	datfile.TagFont: {
		tag:      datfile.TagFont,
		name:     "Font",
		versions: map[datfile.Dialect][]int16{datfile.Standard: {1}},
		decode:   func(r *datfile.Reader, _ int16) (Segment, error) { return decodeFont(r) },
	},
	datfile.TagAnimation: {
		tag:      datfile.TagAnimation,
		name:     "Animation",
		versions: map[datfile.Dialect][]int16{datfile.Standard: {1}},
		decode:   func(r *datfile.Reader, _ int16) (Segment, error) { return decodeAnimation(r) },
	},
	datfile.TagText: {
		tag:      datfile.TagText,
		name:     "Localization",
		versions: map[datfile.Dialect][]int16{datfile.Standard: {1}},
		decode:   func(r *datfile.Reader, _ int16) (Segment, error) { return decodeLocalization(r) },
	},
	datfile.TagComposite: {
		tag:  datfile.TagComposite,
		name: "CompositeSprites",
		versions: map[datfile.Dialect][]int16{
			datfile.Standard: {1, 2},
			datfile.Variant:  {1},
		},
		decode: func(r *datfile.Reader, v int16) (Segment, error) { return decodeCompositeSprites(r, v) },
	},
}

func (s *schema) permits(d datfile.Dialect) bool {
	_, ok := s.versions[d]
	return ok
}

func (s *schema) checkDialect(d datfile.Dialect) error {
	if !s.permits(d) {
		return &datfile.DialectError{Tag: s.tag, Dialect: d}
	}
	return nil
}

func (s *schema) checkVersion(d datfile.Dialect, v int16) error {
	if !slices.Contains(s.versions[d], v) {
		return &datfile.VersionError{Tag: s.tag, Dialect: d, Version: v}
	}
	return nil
}

// readPayload reads and validates the version, then the schema payload.
// The segment frame must already be open.
func (s *schema) readPayload(r *datfile.Reader) (Segment, error) {
	if err := s.checkDialect(r.Dialect()); err != nil {
		return nil, err
	}
	v, err := r.ReadS2()
	if err != nil {
		return nil, fmt.Errorf("reading %s version: %w", s.name, err)
	}
	if err := s.checkVersion(r.Dialect(), v); err != nil {
		return nil, err
	}
	return s.decode(r, v)
}

// read locates the schema's segment with Expect, decodes it and closes the
// frame with the reader's default policy.
func (s *schema) read(r *datfile.Reader) (seg Segment, err error) {
	if err := s.checkDialect(r.Dialect()); err != nil {
		return nil, err
	}
	f, err := r.Expect(s.tag)
	if err != nil {
		return nil, err
	}
	seg, err = s.readPayload(r)
	if cerr := f.Close(); err == nil {
		err = cerr
	}
	if err != nil {
		return nil, fmt.Errorf("decoding %s: %w", s.name, err)
	}
	return seg, nil
}

// Decode scans top level segments and decodes the first one whose tag is
// known and permitted by the container dialect. Unknown segments are
// skipped. The scan stops at the container's declared end.
func Decode(r *datfile.Reader) (Segment, error) {
	for {
		done, err := r.AtEnd()
		if err != nil {
			return nil, err
		}
		if done {
			return nil, fmt.Errorf("%w: no recognized segment", datfile.ErrMalformed)
		}

		f, err := r.OpenSegment()
		if err != nil {
			if errors.Is(err, datfile.ErrTruncated) {
				return nil, fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
			}
			return nil, err
		}

		s, ok := schemas[f.Tag()]
		if !ok || !s.permits(r.Dialect()) {
			if err := f.Close(); err != nil {
				return nil, err
			}
			continue
		}

		seg, err := s.readPayload(r)
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return nil, fmt.Errorf("decoding %s: %w", s.name, err)
		}
		return seg, nil
	}
}

// Encode writes seg as one framed segment. The dialect and the version
// derived from the value are validated before anything is written.
func Encode(w *datfile.Writer, seg Segment) (err error) {
	if seg == nil {
		return errors.New("nil segment")
	}
	s, ok := schemas[seg.Tag()]
	if !ok {
		return fmt.Errorf("no schema for tag %s", seg.Tag())
	}
	if err := s.checkDialect(w.Dialect()); err != nil {
		return err
	}
	v := seg.wireVersion()
	if err := s.checkVersion(w.Dialect(), v); err != nil {
		return err
	}

	f, err := w.OpenSegment(s.tag)
	if err != nil {
		return err
	}
	defer func() {
		if cerr := f.Close(); err == nil {
			err = cerr
		}
	}()

	if err := w.WriteS2(v); err != nil {
		return fmt.Errorf("encoding %s: %w", s.name, err)
	}
	if err := seg.encodePayload(w); err != nil {
		return fmt.Errorf("encoding %s: %w", s.name, err)
	}
	return nil
}

// SchemaName returns the human readable schema name for tag, or "" if the
// tag is not a top level segment.
func SchemaName(tag datfile.Tag) string {
	if s, ok := schemas[tag]; ok {
		return s.name
	}
	return ""
}

// Permitted reports whether tag may appear at top level in dialect d.
func Permitted(tag datfile.Tag, d datfile.Dialect) bool {
	s, ok := schemas[tag]
	return ok && s.permits(d)
}
