package hashdoc

import (
	"bytes"
	"context"
	"errors"
	"image"
	"image/color"
	"image/gif"
	"image/jpeg"
	"image/png"
	"testing"
)

// makePNG returns a w x h PNG with a gradient. With alpha the image is half
// transparent. t may be nil for use outside a test body.
func makePNG(t testing.TB, w, h int, alpha bool) []byte {
	img := image.NewNRGBA(image.Rect(0, 0, w, h))
	a := uint8(255)
	if alpha {
		a = 128
	}
	for y := range h {
		for x := range w {
			img.SetNRGBA(x, y, color.NRGBA{R: uint8(x * 255 / max(w, 1)), G: uint8(y * 255 / max(h, 1)), B: 90, A: a})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		if t == nil {
			panic(err)
		}
		t.Fatal(err)
	}
	return buf.Bytes()
}

func makeJPEG(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := range h {
		for x := range w {
			img.Set(x, y, color.RGBA{R: uint8(x), G: uint8(y), B: 200, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: 95}); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func makeGIF(t testing.TB, w, h int) []byte {
	t.Helper()
	img := image.NewPaletted(image.Rect(0, 0, w, h), color.Palette{color.Black, color.White})
	for x := range w {
		img.SetColorIndex(x, x%h, 1)
	}
	var buf bytes.Buffer
	if err := gif.Encode(&buf, img, nil); err != nil {
		t.Fatal(err)
	}
	return buf.Bytes()
}

func decodeSize(t *testing.T, data []byte) (int, int, string) {
	t.Helper()
	cfg, format, err := image.DecodeConfig(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("output is not a readable image: %v", err)
	}
	return cfg.Width, cfg.Height, format
}

func TestNormalize_OriginalIsIdentity(t *testing.T) {
	for name, blob := range map[string]ImageBlob{
		"png":     NewImageBlob(MIMEPNG, makePNG(t, 3000, 20, false)),
		"garbage": {MIMEType: "image/png", Data: []byte("not an image")},
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(context.Background(), blob, PresetOriginal)
			if err != nil {
				t.Fatal(err)
			}
			if got.MIMEType != blob.MIMEType || !bytes.Equal(got.Data, blob.Data) {
				t.Fatal("PresetOriginal must return the input unchanged")
			}
		})
	}
}

func TestNormalize_ResizesWithinPreset(t *testing.T) {
	tests := []struct {
		name         string
		w, h         int
		preset       Preset
		wantW, wantH int
	}{
		{"wide low", 1600, 300, PresetLow, 800, 150},
		{"tall low", 1000, 2000, PresetLow, 300, 600},
		{"just over medium", 1281, 721, PresetMedium, 1279, 720},
		{"within high", 640, 480, PresetHigh, 640, 480},
		{"exact medium", 1280, 720, PresetMedium, 1280, 720},
		{"sliver", 4000, 1, PresetLow, 800, 1},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in := NewImageBlob(MIMEPNG, makePNG(t, tt.w, tt.h, false))
			got, err := Normalize(context.Background(), in, tt.preset)
			if err != nil {
				t.Fatal(err)
			}
			if got.Width != tt.wantW || got.Height != tt.wantH {
				t.Fatalf("got %dx%d, want %dx%d", got.Width, got.Height, tt.wantW, tt.wantH)
			}
			w, h, format := decodeSize(t, got.Data)
			if w != tt.wantW || h != tt.wantH || format != "png" {
				t.Fatalf("encoded %s %dx%d", format, w, h)
			}
		})
	}
}

func TestFitWithin_Properties(t *testing.T) {
	for _, p := range []Preset{PresetHigh, PresetMedium, PresetLow} {
		s, _ := p.Settings()
		for _, size := range [][2]int{{1, 1}, {5000, 5000}, {7, 9000}, {9000, 7}, {1921, 1081}, {3333, 1234}, {801, 2}} {
			w, h := size[0], size[1]
			nw, nh := fitWithin(w, h, s.MaxWidth, s.MaxHeight)
			if nw > s.MaxWidth || nh > s.MaxHeight || nw < 1 || nh < 1 {
				t.Fatalf("%s %dx%d -> %dx%d out of bounds", p, w, h, nw, nh)
			}
			if w <= s.MaxWidth && h <= s.MaxHeight {
				if nw != w || nh != h {
					t.Fatalf("%s %dx%d must not be resized, got %dx%d", p, w, h, nw, nh)
				}
				continue
			}
			if nw != s.MaxWidth && nh != s.MaxHeight {
				t.Fatalf("%s %dx%d -> %dx%d touches neither bound", p, w, h, nw, nh)
			}
			// Rounding each side moves the cross products by at most half
			// of the other side.
			diff := nw*h - nh*w
			if diff < 0 {
				diff = -diff
			}
			if diff > (w+h)/2+1 {
				t.Fatalf("%s %dx%d -> %dx%d distorts aspect ratio", p, w, h, nw, nh)
			}
		}
	}
}

func TestNormalize_PNGKeepsAlpha(t *testing.T) {
	in := NewImageBlob(MIMEPNG, makePNG(t, 1000, 1000, true))
	got, err := Normalize(context.Background(), in, PresetLow)
	if err != nil {
		t.Fatal(err)
	}
	if got.MIMEType != MIMEPNG {
		t.Fatalf("MIMEType = %q", got.MIMEType)
	}
	img, err := png.Decode(bytes.NewReader(got.Data))
	if err != nil {
		t.Fatal(err)
	}
	if img.Bounds().Dx() != 600 || img.Bounds().Dy() != 600 {
		t.Fatalf("bounds = %v", img.Bounds())
	}
	_, _, _, a := img.At(300, 300).RGBA()
	if a>>8 < 64 || a>>8 > 192 {
		t.Fatalf("alpha = %d, transparency lost", a>>8)
	}
}

func TestNormalize_LossyOutputIsJPEG(t *testing.T) {
	for name, blob := range map[string]ImageBlob{
		"jpeg":           NewImageBlob(MIMEJPEG, makeJPEG(t, 2000, 1000)),
		"gif":            NewImageBlob("image/gif", makeGIF(t, 900, 300)),
		"mime from data": NewImageBlob("", makeJPEG(t, 900, 300)),
	} {
		t.Run(name, func(t *testing.T) {
			got, err := Normalize(context.Background(), blob, PresetLow)
			if err != nil {
				t.Fatal(err)
			}
			if got.MIMEType != MIMEJPEG {
				t.Fatalf("MIMEType = %q", got.MIMEType)
			}
			w, h, format := decodeSize(t, got.Data)
			if format != "jpeg" || w != got.Width || h != got.Height || w > 800 || h > 600 {
				t.Fatalf("encoded %s %dx%d, reported %dx%d", format, w, h, got.Width, got.Height)
			}
		})
	}
}

func TestNormalize_ShrinksLargeJPEG(t *testing.T) {
	in := NewImageBlob(MIMEJPEG, makeJPEG(t, 2400, 1800))
	got, err := Normalize(context.Background(), in, PresetLow)
	if err != nil {
		t.Fatal(err)
	}
	if len(got.Data) >= len(in.Data) {
		t.Fatalf("output %d bytes is not smaller than input %d", len(got.Data), len(in.Data))
	}
	if got.Width != 800 || got.Height != 600 {
		t.Fatalf("got %dx%d", got.Width, got.Height)
	}
}

func TestNormalize_InvalidImage(t *testing.T) {
	pngData := makePNG(t, 10, 10, false)
	for name, data := range map[string][]byte{
		"empty":     nil,
		"text":      []byte("hello"),
		"truncated": pngData[:len(pngData)/2],
	} {
		t.Run(name, func(t *testing.T) {
			_, err := Normalize(context.Background(), ImageBlob{MIMEType: MIMEPNG, Data: data}, PresetMedium)
			if !errors.Is(err, ErrInvalidImage) {
				t.Fatalf("expected ErrInvalidImage, got %v", err)
			}
		})
	}
}

func TestNormalize_BoundsGuard(t *testing.T) {
	in := NewImageBlob(MIMEPNG, makePNG(t, 32, 8, false))

	_, err := Normalize(context.Background(), in, PresetLow, WithImageLimits(ImageLimits{MaxDimension: 16}))
	if !errors.Is(err, ErrInvalidImage) || !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrInvalidImage and ErrLimitExceeded, got %v", err)
	}

	_, err = Normalize(context.Background(), in, PresetLow, WithImageLimits(ImageLimits{MaxPixels: 100}))
	if !errors.Is(err, ErrLimitExceeded) {
		t.Fatalf("expected ErrLimitExceeded, got %v", err)
	}

	if _, err := Normalize(context.Background(), in, PresetLow, WithImageLimits(ImageLimits{MaxDimension: 32, MaxPixels: 256})); err != nil {
		t.Fatalf("image at the limits rejected: %v", err)
	}
}

func TestNormalize_Cancelled(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := Normalize(ctx, NewImageBlob(MIMEPNG, makePNG(t, 10, 10, false)), PresetLow)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if errors.Is(err, ErrInvalidImage) {
		t.Fatal("cancellation must not be reported as an invalid image")
	}
}

func TestNormalize_UnknownPreset(t *testing.T) {
	_, err := Normalize(context.Background(), NewImageBlob(MIMEPNG, makePNG(t, 10, 10, false)), Preset(42))
	if !errors.Is(err, ErrUnknownPreset) {
		t.Fatalf("expected ErrUnknownPreset, got %v", err)
	}
}

func TestParsePreset(t *testing.T) {
	for _, p := range Presets {
		got, err := ParsePreset(p.String())
		if err != nil || got != p {
			t.Fatalf("%s: got %v, %v", p, got, err)
		}
	}
	for _, bad := range []string{"", "Medium", "ultra"} {
		if _, err := ParsePreset(bad); !errors.Is(err, ErrUnknownPreset) {
			t.Fatalf("%q: expected ErrUnknownPreset, got %v", bad, err)
		}
	}
}

func TestPresetSettings(t *testing.T) {
	want := map[Preset]ImageSettings{
		PresetHigh:   {1920, 1080, 0.9},
		PresetMedium: {1280, 720, 0.8},
		PresetLow:    {800, 600, 0.6},
	}
	for p, w := range want {
		got, ok := p.Settings()
		if !ok || got != w {
			t.Fatalf("%s: got %+v, %v", p, got, ok)
		}
	}
	if _, ok := PresetOriginal.Settings(); ok {
		t.Fatal("original must have no settings")
	}
	if DefaultPreset != PresetMedium {
		t.Fatalf("DefaultPreset = %s", DefaultPreset)
	}
	if jpegQuality(0.6) != 60 || jpegQuality(0) != 1 || jpegQuality(2) != 100 {
		t.Fatal("jpegQuality out of range")
	}
}

func TestNewImageBlob_ReadsDimensions(t *testing.T) {
	b := NewImageBlob(MIMEPNG, makePNG(t, 7, 3, false))
	if b.Width != 7 || b.Height != 3 {
		t.Fatalf("got %dx%d", b.Width, b.Height)
	}
	b = NewImageBlob(MIMEPNG, []byte("nope"))
	if b.Width != 0 || b.Height != 0 {
		t.Fatalf("got %dx%d for garbage", b.Width, b.Height)
	}
}
