package ka3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/testutil"
)

func standardComposites(t *testing.T, version int16) *CompositeSprites {
	t.Helper()
	comp := NewCompositeSprites()
	comp.Version = version
	require.NoError(t, comp.Add("door", NewLayer("frame", 0, 0), NewLayer("knob", 12, -3)))
	require.NoError(t, comp.Add("empty"))
	return comp
}

func TestCompositeStandardV1(t *testing.T) {
	data := roundTrip(t, standardComposites(t, 1), datfile.Standard)

	want := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("COMP", func(b *testutil.Builder) {
			b.S2(1).S2(2)
			b.Str("door").S2(2)
			b.Str("frame").S2(0).S2(0)
			b.Str("knob").S2(12).S2(-3)
			b.Str("empty").S2(0)
		})
	})
	assert.Equal(t, want, data)
}

func TestCompositeStandardV2Padding(t *testing.T) {
	data := roundTrip(t, standardComposites(t, 2), datfile.Standard)

	want := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("COMP", func(b *testutil.Builder) {
			b.S2(2).S2(2)
			b.Str("door").S2(2)
			b.Str("frame").S2(0).S2(0)
			b.Str("knob").S2(12).S2(-3)
			b.S2(0)
			b.Str("empty").S2(0)
			b.S2(0)
		})
	})
	assert.Equal(t, want, data)
}

func TestCompositePaddingValueIgnored(t *testing.T) {
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("COMP", func(b *testutil.Builder) {
			b.S2(2).S2(1)
			b.Str("c").S2(1).Str("s").S2(1).S2(2)
			b.S2(0x7777)
		})
	})
	seg, err := decode(t, data, datfile.WithCheckBounds(true))
	require.NoError(t, err)
	comp := seg.(*CompositeSprites)
	assert.Equal(t, int16(2), comp.Version)
	layers, ok := comp.Composites.Get("c")
	require.True(t, ok)
	assert.Equal(t, []Layer{NewLayer("s", 1, 2)}, layers)
}

func TestCompositeVariant(t *testing.T) {
	comp := NewCompositeSprites()
	require.NoError(t, comp.Add("hero",
		Layer{Sprite: "body", Sheet: "chars", X: 4, Y: 8, ScaleX: 1, ScaleY: 1},
		Layer{Sprite: "cape", Sheet: "chars", X: -2, Y: 3, ScaleX: 0.5, ScaleY: 2, Angle: -90, FlipX: true},
		Layer{Sprite: "hat", X: 0, Y: -12, ScaleX: 1, ScaleY: 1, FlipY: true},
	))

	data := roundTrip(t, comp, datfile.Variant)

	want := testutil.Container("RVIO", func(b *testutil.Builder) {
		b.Segment("COMP", func(b *testutil.Builder) {
			b.S2(1).S2(1)
			b.Str("hero").S2(3)
			b.Str("body").Str("chars").S2(4).S2(8).F4(1).F4(1).F4(0).Bool(false).Bool(false)
			b.Str("cape").Str("chars").S2(-2).S2(3).F4(0.5).F4(2).F4(-90).Bool(true).Bool(false)
			b.Str("hat").Str("").S2(0).S2(-12).F4(1).F4(1).F4(0).Bool(false).Bool(true)
		})
	})
	assert.Equal(t, want, data)
}

func TestCompositeStandardDropsVariantFields(t *testing.T) {
	comp := NewCompositeSprites()
	require.NoError(t, comp.Add("c", Layer{Sprite: "s", Sheet: "ignored", X: 1, Y: 2, ScaleX: 3, Angle: 4, FlipX: true}))
	data := encode(t, comp, datfile.Standard)

	seg, err := decode(t, data)
	require.NoError(t, err)
	layers, _ := seg.(*CompositeSprites).Composites.Get("c")
	assert.Equal(t, []Layer{NewLayer("s", 1, 2)}, layers)
}

func TestCompositeDuplicates(t *testing.T) {
	comp := NewCompositeSprites()
	require.NoError(t, comp.Add("a"))
	assert.ErrorIs(t, comp.Add("a"), ErrDuplicate)

	data := testutil.Container("RVIO", func(b *testutil.Builder) {
		b.Segment("COMP", func(b *testutil.Builder) {
			b.S2(1).S2(2).Str("a").S2(0).Str("a").S2(0)
		})
	})
	_, err := decode(t, data)
	assert.ErrorIs(t, err, datfile.ErrMalformed)
}

func TestReadCompositeSprites(t *testing.T) {
	data := encode(t, standardComposites(t, 2), datfile.Standard)
	r := reader(t, data, datfile.WithCheckBounds(true))
	comp, err := ReadCompositeSprites(r)
	require.NoError(t, err)
	assert.Equal(t, 2, comp.Len())
	assert.NoError(t, r.Close())
}
