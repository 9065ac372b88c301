package ka3d

import (
	"fmt"

	"github.com/elliotchance/orderedmap/v3"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
)

// AnimationFrame carries three int16 fields whose meaning is unknown; all
// observed files store zeros.
type AnimationFrame struct {
	Values [3]int16
}

// AnimationClip maps frame names to frames in insertion order.
type AnimationClip struct {
	Frames *orderedmap.OrderedMap[string, AnimationFrame]
}

// NewAnimationClip returns a clip without frames.
func NewAnimationClip() AnimationClip {
	return AnimationClip{Frames: orderedmap.NewOrderedMap[string, AnimationFrame]()}
}

// Len returns the number of frames.
func (c AnimationClip) Len() int {
	if c.Frames == nil {
		return 0
	}
	return c.Frames.Len()
}

// Animation maps clip names to clips. Standard dialect only.
type Animation struct {
	Clips *orderedmap.OrderedMap[string, AnimationClip]
}

// NewAnimation returns an animation without clips.
func NewAnimation() *Animation {
	return &Animation{Clips: orderedmap.NewOrderedMap[string, AnimationClip]()}
}

func (a *Animation) Tag() datfile.Tag { return datfile.TagAnimation }

func (a *Animation) wireVersion() int16 { return 1 }

// Add inserts a clip; names must be unique.
func (a *Animation) Add(name string, clip AnimationClip) error {
	if a.Clips == nil {
		a.Clips = orderedmap.NewOrderedMap[string, AnimationClip]()
	}
	if a.Clips.Has(name) {
		return fmt.Errorf("%w: clip %q", ErrDuplicate, name)
	}
	a.Clips.Set(name, clip)
	return nil
}

// Len returns the number of clips.
func (a *Animation) Len() int {
	if a.Clips == nil {
		return 0
	}
	return a.Clips.Len()
}

// ReadAnimation locates the ANIM segment and decodes it.
func ReadAnimation(r *datfile.Reader) (*Animation, error) {
	seg, err := schemas[datfile.TagAnimation].read(r)
	if err != nil {
		return nil, err
	}
	return seg.(*Animation), nil
}

func decodeAnimation(r *datfile.Reader) (*Animation, error) {
	anim := NewAnimation()

	count, err := r.ReadCount("clip")
	if err != nil {
		return nil, err
	}
	for i := 0; i < count; i++ {
		name, err := r.ReadString()
		if err != nil {
			return nil, fmt.Errorf("reading clip %d name: %w", i, err)
		}
		frames, err := r.ReadCount("frame")
		if err != nil {
			return nil, fmt.Errorf("clip %q: %w", name, err)
		}
		clip := NewAnimationClip()
		for j := 0; j < frames; j++ {
			frameName, err := r.ReadString()
			if err != nil {
				return nil, fmt.Errorf("clip %q frame %d: %w", name, j, err)
			}
			var frame AnimationFrame
			for k := range frame.Values {
				if frame.Values[k], err = r.ReadS2(); err != nil {
					return nil, fmt.Errorf("clip %q frame %q: %w", name, frameName, err)
				}
			}
			if clip.Frames.Has(frameName) {
				return nil, fmt.Errorf("%w: %w: clip %q frame %q", datfile.ErrMalformed, ErrDuplicate, name, frameName)
			}
			clip.Frames.Set(frameName, frame)
		}
		if err := anim.Add(name, clip); err != nil {
			return nil, fmt.Errorf("%w: %w", datfile.ErrMalformed, err)
		}
	}
	return anim, nil
}

func (a *Animation) encodePayload(w *datfile.Writer) error {
	if err := w.WriteCount("clip", a.Len()); err != nil {
		return err
	}
	if a.Clips == nil {
		return nil
	}
	for name, clip := range a.Clips.AllFromFront() {
		if err := w.WriteString(name); err != nil {
			return err
		}
		if err := w.WriteCount("frame", clip.Len()); err != nil {
			return fmt.Errorf("clip %q: %w", name, err)
		}
		if clip.Frames == nil {
			continue
		}
		for frameName, frame := range clip.Frames.AllFromFront() {
			if err := w.WriteString(frameName); err != nil {
				return err
			}
			for _, v := range frame.Values {
				if err := w.WriteS2(v); err != nil {
					return err
				}
			}
		}
	}
	return nil
}
