package ka3d

import (
	"bytes"
	"context"
	"log/slog"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/testutil"
	"golang.org/x/text/encoding/charmap"
)

func TestDecodeBytes(t *testing.T) {
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", emptySheet)
	})
	asset, err := DecodeBytes(data)
	require.NoError(t, err)
	assert.Equal(t, datfile.Standard, asset.Dialect)
	assert.IsType(t, &SpriteSheet{}, asset.Segment)

	_, err = DecodeBytes([]byte("KA3D"))
	assert.ErrorIs(t, err, datfile.ErrTruncated)

	_, err = DecodeBytes(testutil.NewBuilder().Tag("KA3D").S4(-8).Bytes())
	assert.ErrorIs(t, err, datfile.ErrMalformed)
}

func TestCheckBoundsOption(t *testing.T) {
	// SPRT declares fewer bytes than its payload occupies
	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.SegmentSized("SPRT", 4, emptySheet)
	})

	asset, err := DecodeBytes(data)
	require.NoError(t, err, "lenient decode tolerates the overrun")
	assert.Equal(t, "atlas.png", asset.Segment.(*SpriteSheet).TextureFile)

	_, err = DecodeBytes(data, WithCheckBounds(true))
	assert.ErrorIs(t, err, datfile.ErrBoundsOverrun)
}

func TestEncodeBytes(t *testing.T) {
	data, err := EncodeBytes(NewSpriteSheet("atlas.png"), datfile.Standard)
	require.NoError(t, err)
	assert.Equal(t, testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("SPRT", emptySheet)
	}), data)

	_, err = EncodeBytes(NewSpriteSheet("atlas.png"), datfile.Variant)
	assert.ErrorIs(t, err, datfile.ErrDialectMismatch)
}

func TestFileRoundTrip(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "hero.dat")

	comp := NewCompositeSprites()
	require.NoError(t, comp.Add("hero", Layer{Sprite: "body", Sheet: "chars", ScaleX: 1, ScaleY: 1}))
	require.NoError(t, EncodeFile(path, comp, datfile.Variant))

	asset, err := DecodeFile(path)
	require.NoError(t, err)
	assert.Equal(t, datfile.Variant, asset.Dialect)
	assert.Equal(t, 1, asset.Segment.(*CompositeSprites).Len())

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1, "no temporary files are left behind")

	_, err = DecodeFile(filepath.Join(dir, "missing.dat"))
	assert.Error(t, err)
}

func TestEncodeFileKeepsTargetOnFailure(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "ui.dat")
	require.NoError(t, os.WriteFile(path, []byte("previous"), 0o644))

	err := EncodeFile(path, NewFont("f.png", 0, 0), datfile.Variant)
	assert.ErrorIs(t, err, datfile.ErrDialectMismatch)

	got, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "previous", string(got))

	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	assert.Len(t, entries, 1)
}

func TestVerify(t *testing.T) {
	data := encode(t, greetings(t), datfile.Standard)
	asset, err := Verify(data)
	require.NoError(t, err)
	assert.IsType(t, &Localization{}, asset.Segment)

	// unknown segments are not carried through a re-encode
	padded := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("JUNK", func(b *testutil.Builder) { b.S4(0) })
		b.Segment("SPRT", emptySheet)
	})
	_, err = Verify(padded)
	require.ErrorIs(t, err, ErrRoundTrip)

	var rt *RoundTripError
	require.ErrorAs(t, err, &rt)
	assert.Equal(t, 7, rt.Offset, "the low byte of the header size differs first")
	assert.Equal(t, len(padded), rt.Original)
	assert.Equal(t, len(padded)-12, rt.Encoded)
}

func TestCodecContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	c := NewCodec()
	_, err := c.DecodeBytes(ctx, testutil.Container("KA3D", nil))
	assert.ErrorIs(t, err, context.Canceled)

	_, err = c.EncodeBytes(ctx, NewSpriteSheet("a.png"), datfile.Standard)
	assert.ErrorIs(t, err, context.Canceled)
}

func TestCodecLogging(t *testing.T) {
	var logs bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&logs, &slog.HandlerOptions{Level: slog.LevelDebug}))
	c := NewCodec(WithLogger(logger), WithDebugMode(true))

	data := testutil.Container("KA3D", func(b *testutil.Builder) {
		b.Segment("JUNK", nil)
		b.Segment("SPRT", emptySheet)
	})
	_, err := c.DecodeBytes(context.Background(), data)
	require.NoError(t, err)

	out := logs.String()
	assert.Contains(t, out, "Decoded container")
	assert.Contains(t, out, "debug=true")
	assert.True(t, strings.Contains(out, "tag=SPRT"), out)
}

func TestCodecTextEncoding(t *testing.T) {
	sheet := NewSpriteSheet("déjà.png")
	require.NoError(t, sheet.Add("naïve", Sprite{Width: 1}))

	c := NewCodec(WithTextEncoding(charmap.Windows1252))
	data, err := c.EncodeBytes(context.Background(), sheet, datfile.Standard)
	require.NoError(t, err)
	assert.Contains(t, string(data), "d\xe9j\xe0.png")

	asset, err := c.DecodeBytes(context.Background(), data)
	require.NoError(t, err)
	got := asset.Segment.(*SpriteSheet)
	assert.Equal(t, "déjà.png", got.TextureFile)
	assert.True(t, got.Sprites.Has("naïve"))

	// per call options override the codec configuration
	asset, err = c.DecodeBytes(context.Background(), data, WithTextEncoding(nil))
	require.NoError(t, err)
	assert.Equal(t, "d\xe9j\xe0.png", asset.Segment.(*SpriteSheet).TextureFile)
}
