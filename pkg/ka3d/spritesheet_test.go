package ka3d

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/testutil"
)

func TestSpriteSheetEmpty(t *testing.T) {
	data := roundTrip(t, NewSpriteSheet("atlas.png"), datfile.Standard)

	want := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", emptySheet)
	})
	assert.Equal(t, want, data)
	// version, texture string and a zero sprite count
	assert.Len(t, data, datfile.HeaderSize+8+2+2+len("atlas.png")+2)
}

func TestSpriteSheetRoundTrip(t *testing.T) {
	sheet := NewSpriteSheet("ui/atlas.png")
	require.NoError(t, sheet.Add("button", Sprite{X: 0, Y: 0, Width: 64, Height: 32, PivotX: 32, PivotY: 16}))
	require.NoError(t, sheet.Add("icon", Sprite{X: 64, Y: -1, Width: 16, Height: 16, PivotX: -8, PivotY: 32767}))
	require.NoError(t, sheet.Add("", Sprite{}))

	data := roundTrip(t, sheet, datfile.Standard)

	want := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", func(b *testutil.Builder) {
			b.S2(1).Str("ui/atlas.png").S2(3)
			b.Str("button").S2(0).S2(0).S2(64).S2(32).S2(32).S2(16)
			b.Str("icon").S2(64).S2(-1).S2(16).S2(16).S2(-8).S2(32767)
			b.Str("").S2(0).S2(0).S2(0).S2(0).S2(0).S2(0)
		})
	})
	assert.Equal(t, want, data)
}

func TestSpriteSheetDuplicates(t *testing.T) {
	sheet := NewSpriteSheet("a.png")
	require.NoError(t, sheet.Add("x", Sprite{}))
	assert.ErrorIs(t, sheet.Add("x", Sprite{Width: 1}), ErrDuplicate)
	assert.Equal(t, 1, sheet.Len())

	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", func(b *testutil.Builder) {
			b.S2(1).Str("a.png").S2(2)
			b.Str("x").S2(0).S2(0).S2(0).S2(0).S2(0).S2(0)
			b.Str("x").S2(0).S2(0).S2(0).S2(0).S2(0).S2(0)
		})
	})
	_, err := decode(t, data)
	assert.ErrorIs(t, err, datfile.ErrMalformed)
	assert.ErrorIs(t, err, ErrDuplicate)
}

func TestSpriteSheetZeroValue(t *testing.T) {
	var sheet SpriteSheet
	assert.Equal(t, 0, sheet.Len())
	require.NoError(t, sheet.Add("x", Sprite{}))
	assert.Equal(t, 1, sheet.Len())
}

func TestReadSpriteSheet(t *testing.T) {
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("FONT", func(b *testutil.Builder) { b.S2(1).Str("f.png").S2(0).S2(0).S2(0) })
		b.Segment("SPRT", emptySheet)
	})
	r := reader(t, data)
	sheet, err := ReadSpriteSheet(r)
	require.NoError(t, err)
	assert.Equal(t, "atlas.png", sheet.TextureFile)
	assert.NoError(t, r.Close())

	r = reader(t, testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("FONT", nil)
	}))
	_, err = ReadSpriteSheet(r)
	assert.ErrorIs(t, err, datfile.ErrMalformed)

	r = reader(t, testutil.Container("RVIO", func(b *testutil.Builder) {
		b.Segment("SPRT", emptySheet)
	}))
	_, err = ReadSpriteSheet(r)
	assert.ErrorIs(t, err, datfile.ErrDialectMismatch)
}

func TestSpriteSheetTruncatedPayload(t *testing.T) {
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", func(b *testutil.Builder) {
			b.S2(1).Str("a.png").S2(1).Str("x").S2(0)
		})
	})
	_, err := decode(t, data)
	assert.ErrorIs(t, err, datfile.ErrTruncated)
}
