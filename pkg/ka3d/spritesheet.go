package ka3d

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Sprite is a rectangle inside the atlas texture plus its pivot.
type Sprite struct {
	X      int16
	Y      int16
	Width  int16
	Height int16
	PivotX int16
	PivotY int16
}

func (s Sprite) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d, %d", s.X, s.Y, s.Width, s.Height, s.PivotX, s.PivotY)
}

// SpriteSheet maps unique sprite names to atlas rectangles, in insertion
// order.
type SpriteSheet struct {
	TextureFile string
	Sprites     *orderedmap.OrderedMap[string, Sprite]
}

// NewSpriteSheet returns an empty sheet for texture.
func NewSpriteSheet(texture string) *SpriteSheet {
	return &SpriteSheet{
		TextureFile: texture,
		Sprites:     orderedmap.NewOrderedMap[string, Sprite](),
	}
}

func (s *SpriteSheet) Tag() datfile.Tag { return datfile.TagSpriteSheet }

func (s *SpriteSheet) wireVersion() int16 { return 1 }

// Add inserts a sprite; names must be unique.
func (s *SpriteSheet) Add(name string, sprite Sprite) error {
	if s.Sprites == nil {
		s.Sprites = orderedmap.NewOrderedMap[string, Sprite]()
	}
	if s.Sprites.Has(name) {
		return fmt.Errorf("%w: sprite %q", ErrDuplicate, name)
	}
	s.Sprites.Set(name, sprite)
	return nil
}

// Len returns the number of sprites.
func (s *SpriteSheet) Len() int {
	if s.Sprites == nil {
		return 0
	}
	return s.Sprites.Len()
}

// ReadSpriteSheet locates the SPRT segment and decodes it.
func ReadSpriteSheet(r *datfile.Reader) (*SpriteSheet, error) {
	seg, err := schemas[datfile.TagSpriteSheet].read(r)
	if err != nil {
		return nil, err
	}
	return seg.(*SpriteSheet), nil
}

func decodeSpriteSheet(r *datfile.Reader) (*SpriteSheet, error) {
	tex, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	sheet := NewSpriteSheet(tex)

	count, err := r.ReadCount("sprite")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading sprite %d name: %w", i, err)
		}
		var fields [6]int16
		for j := range fields {
			if fields[j], err = r.ReadS2(); err != nil {
				return nil, fmt.Errorf("reading sprite %q: %w", name, err)
			}
		}
		sprite := Sprite{
			X:      fields[0],
			Y:      fields[1],
			Width:  fields[2],
			Height: fields[3],
			PivotX: fields[4],
			PivotY: fields[5],
		}
		if err := sheet.Add(name, sprite); err != nil {
			return nil, fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
		}
	}
	return sheet, nil
}

func (s *SpriteSheet) encodePayload(w *datfile.Writer) error {
	if err := w.WriteString(s.TextureFile); err != nil {
		return err
	}
	if err := w.WriteCount("sprite", s.Len()); err != nil {
		return err
	}
	if s.Sprites == nil {
		return nil
	}
	for name, sp := range s.Sprites.AllFromFront() {
		if err := w.WriteString(name); err != nil {
			return err
		}
		for _, v := range [...]int16{sp.X, sp.Y, sp.Width, sp.Height, sp.PivotX, sp.PivotY} {
			if err := w.WriteS2(v); err != nil {
				return err
			}
		}
	}
	return nil
}
