package ka3d

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Character is a glyph rectangle inside the font texture and its baseline
// offset.
type Character struct {
	X      int16
	Y      int16
	Width  int16
	Height int16
	PivotY int16
}

func (c Character) String() string {
	return fmt.Sprintf("%d, %d, %d, %d, %d", c.X, c.Y, c.Width, c.Height, c.PivotY)
}

// Font is bitmap-font metrics. Characters are keyed by UTF-16 code unit,
// so only runes up to 0xFFFF can be stored.
type Font struct {
	TextureFile string
	Leading     int16
	Tracking    int16
	Characters  *orderedmap.OrderedMap[rune, Character]
}

// NewFont returns a font without characters.
func NewFont(texture string, leading, tracking int16) *Font {
	return &Font{
		TextureFile: texture,
		Leading:     leading,
		Tracking:    tracking,
		Characters:  orderedmap.NewOrderedMap[rune, Character](),
	}
}

func (f *Font) Tag() datfile.Tag { return datfile.TagFont }

func (f *Font) wireVersion() int16 { return 1 }

// Add inserts the metrics for ch.
func (f *Font) Add(ch rune, c Character) error {
	if ch < 0 || ch > 0xFFFF {
		return fmt.Errorf("%w: character %U outside the 16-bit range", datfile.ErrOverflow, ch)
	}
	if f.Characters == nil {
		f.Characters = orderedmap.NewOrderedMap[rune, Character]()
	}
	if f.Characters.Has(ch) {
		return fmt.Errorf("%w: character %U", ErrDuplicate, ch)
	}
	f.Characters.Set(ch, c)
	return nil
}

// Len returns the number of characters.
func (f *Font) Len() int {
	if f.Characters == nil {
		return 0
	}
	return f.Characters.Len()
}

// ReadFont locates the FONT segment and decodes it.
func ReadFont(r *datfile.Reader) (*Font, error) {
	seg, err := schemas[datfile.TagFont].read(r)
	if err != nil {
		return nil, err
	}
	return seg.(*Font), nil
}

func decodeFont(r *datfile.Reader) (*Font, error) {
	tex, err := r.ReadString()
	if err != nil {
		return nil, fmt.Errorf("reading texture: %w", err)
	}
	leading, err := r.ReadS2()
	if err != nil {
		return nil, fmt.Errorf("reading leading: %w", err)
	}
	tracking, err := r.ReadS2()
	if err != nil {
		return nil, fmt.Errorf("reading tracking: %w", err)
	}
	font := NewFont(tex, leading, tracking)

	count, err := r.ReadCount("character")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		code, err := r.ReadS2()
		if err != nil {
			return nil, fmt.Errorf("reading character %d: %w", i, err)
		}
		var fields [5]int16
		for j := range fields {
			if fields[j], err = r.ReadS2(); err != nil {
				return nil, fmt.Errorf("reading character %d: %w", i, err)
			}
		}
		c := Character{
			X:      fields[0],
			Y:      fields[1],
			Width:  fields[2],
			Height: fields[3],
			PivotY: fields[4],
		}
		if err := font.Add(rune(uint16(code)), c); err != nil {
			return nil, fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
		}
	}
	return font, nil
}

func (f *Font) encodePayload(w *datfile.Writer) error {
	if err := w.WriteString(f.TextureFile); err != nil {
		return err
	}
	if err := w.WriteS2(f.Leading); err != nil {
		return err
	}
	if err := w.WriteS2(f.Tracking); err != nil {
		return err
	}
	if err := w.WriteCount("character", f.Len()); err != nil {
		return err
	}
	if f.Characters == nil {
		return nil
	}
	for ch, c := range f.Characters.AllFromFront() {
		if ch < 0 || ch > 0xFFFF {
			return fmt.Errorf("%w: character %U outside the 16-bit range", datfile.ErrOverflow, ch)
		}
		for _, v := range [...]int16{int16(uint16(ch)), c.X, c.Y, c.Width, c.Height, c.PivotY} {
			if err := w.WriteS2(v); err != nil {
				return err
			}
		}
	}
	return nil
}
