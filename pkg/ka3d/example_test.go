package ka3d_test

import (
	"bytes"
	"context"
	"fmt"
	"log"
	"log/slog"
	"os"

	"github.com/twinfer/ka3d-dat/pkg/datfile"
	"github.com/twinfer/ka3d-dat/pkg/ka3d"
)

// Example demonstrates a sprite sheet round trip through the global codec
func Example() {
	sheet := ka3d.NewSpriteSheet("atlas.png")
	if err := sheet.Add("button", ka3d.Sprite{Width: 64, Height: 32, PivotX: 32, PivotY: 16}); err != nil {
		log.Fatal(err)
	}

	data, err := ka3d.EncodeBytes(sheet, datfile.Standard)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%d bytes\n", len(data))

	asset, err := ka3d.DecodeBytes(data)
	if err != nil {
		log.Fatal(err)
	}
	got := asset.Segment.(*ka3d.SpriteSheet)
	fmt.Println(got.TextureFile)
	for name, sprite := range got.Sprites.AllFromFront() {
		fmt.Printf("%s: %v\n", name, sprite)
	}

	// Output:
	// 51 bytes
	// atlas.png
	// button: 0, 0, 64, 32, 32, 16
}

// Example_localization shows the aggregate keeping every language aligned
// with the text IDs
func Example_localization() {
	text := ka3d.NewLocalization()
	_ = text.AddLanguage("en")
	_ = text.AddLanguage("fr")
	text.AddTextID("greeting")
	text.SetText("en", "greeting", "Hi")
	text.SetText("fr", "greeting", "Salut")

	data, err := ka3d.EncodeBytes(text, datfile.Standard)
	if err != nil {
		log.Fatal(err)
	}
	asset, err := ka3d.DecodeBytes(data)
	if err != nil {
		log.Fatal(err)
	}

	decoded := asset.Segment.(*ka3d.Localization)
	for _, lang := range decoded.Languages() {
		s, _ := decoded.Text(lang, "greeting")
		fmt.Printf("%s: %s\n", lang, s)
	}

	// Output:
	// en: Hi
	// fr: Salut
}

// Example_codec demonstrates a configured codec instance
func Example_codec() {
	logger := slog.New(slog.NewJSONHandler(os.Stderr, &slog.HandlerOptions{
		Level: slog.LevelWarn,
	}))
	codec := ka3d.NewCodec(
		ka3d.WithLogger(logger),
		ka3d.WithCheckBounds(true),
	)

	comp := ka3d.NewCompositeSprites()
	_ = comp.Add("hero", ka3d.Layer{Sprite: "body", Sheet: "chars", ScaleX: 1, ScaleY: 1, FlipX: true})

	ctx := context.Background()
	data, err := codec.EncodeBytes(ctx, comp, datfile.Variant)
	if err != nil {
		log.Fatal(err)
	}
	fmt.Printf("%q\n", data[:4])

	if _, err := codec.Verify(ctx, data); err != nil {
		log.Fatal(err)
	}
	fmt.Println("verified")

	// Output:
	// "RVIO"
	// verified
}

// Example_scan lists the framing of a container without decoding payloads
func Example_scan() {
	text := ka3d.NewLocalization()
	_ = text.AddLanguage("en")
	data, err := ka3d.EncodeBytes(text, datfile.Standard)
	if err != nil {
		log.Fatal(err)
	}

	r, err := datfile.NewReader(bytes.NewReader(data))
	if err != nil {
		log.Fatal(err)
	}
	defer r.Close()

	err = ka3d.Scan(r, 1, func(fi ka3d.FrameInfo) error {
		fmt.Printf("%*s%s %d\n", fi.Depth*2, "", fi.Tag, fi.Size)
		return nil
	})
	if err != nil {
		log.Fatal(err)
	}

	// Output:
	// TEXT 34
	//   LDAT 6
	//   LIDS 2
	//   TXGP 0
}
