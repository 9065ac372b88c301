package ka3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/testutil"
)

func TestAnimationRoundTrip(t *testing.T) {
	walk := NewAnimationClip()
	walk.Frames.Set("walk_0", AnimationFrame{})
	walk.Frames.Set("walk_1", AnimationFrame{Values: [3]int16{1, -2, 3}})
	walk.Frames.Set("walk_2", AnimationFrame{})

	anim := NewAnimation()
	require.NoError(t, anim.Add("walk", walk))
	require.NoError(t, anim.Add("idle", NewAnimationClip()))

	data := roundTrip(t, anim, datfile.Standard)

	want := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("ANIM", func(b *testutil.Builder) {
			b.S2(1).S2(2)
			b.Str("walk").S2(3)
			b.Str("walk_0").S2(0).S2(0).S2(0)
			b.Str("walk_1").S2(1).S2(-2).S2(3)
			b.Str("walk_2").S2(0).S2(0).S2(0)
			b.Str("idle").S2(0)
		})
	})
	assert.Equal(t, want, data)
}

func TestAnimationReadsDeclaredFrameCount(t *testing.T) {
	// the second clip follows directly after the first clip's frames
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("ANIM", func(b *testutil.Builder) {
			b.S2(1).S2(2)
			b.Str("a").S2(2)
			b.Str("f0").S2(0).S2(0).S2(0)
			b.Str("f1").S2(0).S2(0).S2(0)
			b.Str("b").S2(1)
			b.Str("g0").S2(0).S2(0).S2(0)
		})
	})
	seg, err := decode(t, data, datfile.WithCheckBounds(true))
	require.NoError(t, err)
	anim := seg.(*Animation)
	require.Equal(t, 2, anim.Len())

	a, _ := anim.Clips.Get("a")
	b, _ := anim.Clips.Get("b")
	assert.Equal(t, 2, a.Len())
	assert.Equal(t, 1, b.Len())
}

func TestAnimationDuplicates(t *testing.T) {
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("ANIM", func(b *testutil.Builder) {
			b.S2(1).S2(1)
			b.Str("a").S2(2)
			b.Str("f").S2(0).S2(0).S2(0)
			b.Str("f").S2(0).S2(0).S2(0)
		})
	})
	_, err := decode(t, data)
	assert.ErrorIs(t, err, datfile.ErrMalformed)

	anim := NewAnimation()
	require.NoError(t, anim.Add("a", NewAnimationClip()))
	assert.ErrorIs(t, anim.Add("a", NewAnimationClip()), ErrDuplicate)
}

func TestAnimationZeroClip(t *testing.T) {
	anim := &Animation{}
	require.NoError(t, anim.Add("bare", AnimationClip{}))
	data := encode(t, anim, datfile.Standard)

	r := reader(t, data)
	got, err := ReadAnimation(r)
	require.NoError(t, err)
	clip, ok := got.Clips.Get("bare")
	require.True(t, ok)
	assert.Equal(t, 0, clip.Len())
	assert.NoError(t, r.Close())
}
