package ka3d

import (
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// FrameInfo describes one framed segment found by Scan.
type FrameInfo struct {
	Tag    datfile.Tag
	Name   string // schema or sub-segment name, "" when unknown
	Offset int64  // offset of the segment header
	Size   int32  // declared payload length
	Depth  int
	Known  bool // decodable at this position in this dialect
}

// Fields returns the frame as a map, for expression activations.
func (fi FrameInfo) Fields() map[string]any {
	return map[string]any{
		"tag":    fi.Tag.String(),
		"name":   fi.Name,
		"offset": fi.Offset,
		"size":   int64(fi.Size),
		"depth":  int64(fi.Depth),
		"known":  fi.Known,
	}
}

var nestedNames = map[datfile.Tag]string{
	datfile.TagLanguages: "Languages",
	datfile.TagTextIDs:   "TextIDs",
	datfile.TagTextGroup: "TextGroup",
}

// Scan walks the segment framing without decoding payloads. Localization
// sub-segments are visited when maxDepth is at least 1. Every frame is
// closed with the reader's default policy.
func Scan(r *datfile.Reader, maxDepth int, fn func(FrameInfo) error) error {
	return scanLevel(r, 0, maxDepth, fn)
}

func scanLevel(r *datfile.Reader, depth, maxDepth int, fn func(FrameInfo) error) error {
	for {
		done, err := r.AtEnd()
		if err != nil {
			return err
		}
		if done {
			return nil
		}
		pos, err := r.Pos()
		if err != nil {
			return err
		}
		f, err := r.OpenSegment()
		if err != nil {
			return err
		}

		info := FrameInfo{Tag: f.Tag(), Offset: pos, Size: f.Size(), Depth: depth}
		if depth == 0 {
			info.Name = SchemaName(f.Tag())
			info.Known = Permitted(f.Tag(), r.Dialect())
		} else {
			info.Name, info.Known = nestedNames[f.Tag()]
		}

		err = fn(info)
		if err == nil && depth < maxDepth && depth == 0 && info.Known && f.Tag() == datfile.TagText {
			// the version field precedes the nested segments
			if _, err = r.ReadS2(); err == nil {
				err = scanLevel(r, depth+1, maxDepth, fn)
			}
		}
		if cerr := f.Close(); err == nil {
			err = cerr
		}
		if err != nil {
			return err
		}
	}
}
