package ka3d

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// Layer places one sprite inside a composite. Standard containers only
// store Sprite, X and Y; the Variant dialect stores every field.
type Layer struct {
	Sprite string
	X      int16
	Y      int16

	// Variant only.
	Sheet  string
	ScaleX float32
	ScaleY float32
	Angle  float32
	FlipX  bool
	FlipY  bool
}

// NewLayer returns an unscaled, unrotated layer.
func NewLayer(sprite string, x, y int16) Layer {
	return Layer{Sprite: sprite, X: x, Y: y, ScaleX: 1, ScaleY: 1}
}

// CompositeSprites maps unique composite names to their layer lists.
// Version 2 only exists in the Standard dialect and adds one int16 of zero
// padding after each composite's layers.
type CompositeSprites struct {
	Version    int16
	Composites *orderedmap.OrderedMap[string, []Layer]
}

// NewCompositeSprites returns an empty version 1 table.
func NewCompositeSprites() *CompositeSprites {
	return &CompositeSprites{
		Version:    1,
		Composites: orderedmap.NewOrderedMap[string, []Layer](),
	}
}

func (c *CompositeSprites) Tag() datfile.Tag { return datfile.TagComposite }

func (c *CompositeSprites) wireVersion() int16 { return c.Version }

// Add inserts a composite; names must be unique.
func (c *CompositeSprites) Add(name string, layers ...Layer) error {
	if c.Composites == nil {
		c.Composites = orderedmap.NewOrderedMap[string, []Layer]()
	}
	if c.Composites.Has(name) {
		return fmt.Errorf("%w: composite %q", ErrDuplicate, name)
	}
	c.Composites.Set(name, layers)
	return nil
}

// Len returns the number of composites.
func (c *CompositeSprites) Len() int {
	if c.Composites == nil {
		return 0
	}
	return c.Composites.Len()
}

// ReadCompositeSprites locates the COMP segment and decodes it.
func ReadCompositeSprites(r *datfile.Reader) (*CompositeSprites, error) {
	seg, err := schemas[datfile.TagComposite].read(r)
	if err != nil {
		return nil, err
	}
	return seg.(*CompositeSprites), nil
}

func padded(d datfile.Dialect, version int16) bool {
	return d == datfile.Standard && version > 1
}

func decodeCompositeSprites(r *datfile.Reader, version int16) (*CompositeSprites, error) {
	comp := NewCompositeSprites()
	comp.Version = version

	count, err := r.ReadCount("composite")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading composite %d name: %w", i, err)
		}
		n, err := r.ReadCount("layer")
		if err != nil {
			return nil, fmt.Errorf("composite %q: %w", name, err)
		}
		layers := make([]Layer, 0, n)
		for j := 0; j < n; j++ {
			layer, err := decodeLayer(r)
			if err != nil {
				return nil, fmt.Errorf("composite %q layer %d: %w", name, j, err)
			}
			layers = append(layers, layer)
		}
		if padded(r.Dialect(), version) {
			if _, err := r.ReadS2(); err != nil {
				return nil, fmt.Errorf("composite %q padding: %w", name, err)
			}
		}
		if err := comp.Add(name, layers...); err != nil {
			return nil, fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
		}
	}
	return comp, nil
}

func decodeLayer(r *datfile.Reader) (l Layer, err error) {
	if l.Sprite, err = r.ReadString(); err != nil {
		return l, err
	}
	if r.Dialect() != datfile.Variant {
		l.ScaleX, l.ScaleY = 1, 1
		if l.X, err = r.ReadS2(); err != nil {
			return l, err
		}
		l.Y, err = r.ReadS2()
		return l, err
	}

	if l.Sheet, err = r.ReadString(); err != nil {
		return l, err
	}
	if l.X, err = r.ReadS2(); err != nil {
		return l, err
	}
	if l.Y, err = r.ReadS2(); err != nil {
		return l, err
	}
	if l.ScaleX, err = r.ReadF4(); err != nil {
		return l, err
	}
	if l.ScaleY, err = r.ReadF4(); err != nil {
		return l, err
	}
	if l.Angle, err = r.ReadF4(); err != nil {
		return l, err
	}
	if l.FlipX, err = r.ReadBool(); err != nil {
		return l, err
	}
	l.FlipY, err = r.ReadBool()
	return l, err
}

func (c *CompositeSprites) encodePayload(w *datfile.Writer) error {
	if err := w.WriteCount("composite", c.Len()); err != nil {
		return err
	}
	if c.Composites == nil {
		return nil
	}
	for name, layers := range c.Composites.AllFromFront() {
		if err := w.WriteString(name); err != nil {
			return err
		}
		if err := w.WriteCount("layer", len(layers)); err != nil {
			return fmt.Errorf("composite %q: %w", name, err)
		}
		for j, layer := range layers {
			if err := encodeLayer(w, layer); err != nil {
				return fmt.Errorf("composite %q layer %d: %w", name, j, err)
			}
		}
		if padded(w.Dialect(), c.Version) {
			if err := w.WriteS2(0); err != nil {
				return err
			}
		}
	}
	return nil
}

func encodeLayer(w *datfile.Writer, l Layer) error {
	if err := w.WriteString(l.Sprite); err != nil {
		return err
	}
	if w.Dialect() != datfile.Variant {
		if err := w.WriteS2(l.X); err != nil {
			return err
		}
		return w.WriteS2(l.Y)
	}

	if err := w.WriteString(l.Sheet); err != nil {
		return err
	}
	for _, v := range [...]int16{l.X, l.Y} {
		if err := w.WriteS2(v); err != nil {
			return err
		}
	}
	for _, v := range [...]float32{l.ScaleX, l.ScaleY, l.Angle} {
		if err := w.WriteF4(v); err != nil {
			return err
		}
	}
	if err := w.WriteBool(l.FlipX); err != nil {
		return err
	}
	return w.WriteBool(l.FlipY)
}
