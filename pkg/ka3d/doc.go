// Package ka3d decodes and encodes KA3D game-asset containers.
//
// # Overview
//
// A container is a header (magic and payload size) followed by tagged,
// length-framed segments. Two dialects exist: Standard containers start
// with "KA3D", Variant containers with "RVIO". The dialect decides which
// segment kinds and versions are legal:
//
//   - SPRT SpriteSheet, Standard version 1
//   - FONT Font, Standard version 1
//   - ANIM Animation, Standard version 1
//   - TEXT Localization, Standard version 1
//   - COMP CompositeSprites, Standard versions 1 and 2, Variant version 1
//
// The framing layer lives in package datfile; this package holds the typed
// segments and the tag dispatch.
//
// # Quick Start
//
//	asset, err := ka3d.DecodeFile("ui.dat")
//	if err != nil {
//	    log.Fatal(err)
//	}
//	if sheet, ok := asset.Segment.(*ka3d.SpriteSheet); ok {
//	    fmt.Println(sheet.TextureFile, sheet.Len())
//	}
//
// Writing goes the other way:
//
//	sheet := ka3d.NewSpriteSheet("atlas.png")
//	_ = sheet.Add("button", ka3d.Sprite{Width: 64, Height: 32})
//	data, err := ka3d.EncodeBytes(sheet, datfile.Standard)
//
// # Dispatch
//
// Decode walks top level segments until it finds one whose tag is known
// and permitted by the container dialect. Unknown segments are skipped,
// never inside the payload of a known one. Reaching the declared end
// without a match is an ErrMalformed error.
//
// # Bounds
//
// Every segment close applies one rule: a cursor short of the declared end
// is moved to the end, a cursor past it fails with ErrBoundsOverrun when
// WithCheckBounds(true) is set and is tolerated otherwise.
//
// # Text
//
// Strings are int16 length-prefixed. Bytes pass through unchanged unless
// WithTextEncoding selects a legacy code page from golang.org/x/text.
//
// # Thread Safety
//
// A Codec holds only configuration and may be shared. Readers, writers and
// segment values are not safe for concurrent use.
package ka3d
