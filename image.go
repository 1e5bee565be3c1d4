package hashdoc

import (
	"bytes"
	"context"
	"fmt"
	"image"
	_ "image/gif" // register decoder
	"image/jpeg"
	"image/png"
	"math"
	"strings"

	_ "golang.org/x/image/bmp" // register decoder
	"golang.org/x/image/draw"
	_ "golang.org/x/image/webp" // register decoder
)

const (
	MIMEPNG  = "image/png"
	MIMEJPEG = "image/jpeg"
)

// ImageBlob is a self-contained image: encoded bytes, their MIME type and,
// when known, the pixel dimensions.
type ImageBlob struct {
	MIMEType string
	Data     []byte
	Width    int
	Height   int
}

// NewImageBlob wraps data and fills Width and Height from the image header
// when it can be read. A blob whose header cannot be read is still returned;
// Normalize reports it.
func NewImageBlob(mimeType string, data []byte) ImageBlob {
	b := ImageBlob{MIMEType: mimeType, Data: data}
	if cfg, _, err := image.DecodeConfig(bytes.NewReader(data)); err == nil {
		b.Width, b.Height = cfg.Width, cfg.Height
	}
	return b
}

// Preset is a named image quality level.
type Preset int

const (
	PresetOriginal Preset = iota
	PresetHigh
	PresetMedium
	PresetLow
)

// DefaultPreset is the preset selected when the user has not picked one.
const DefaultPreset = PresetMedium

// ImageSettings bounds a normalized image. Quality is in (0, 1] and only
// applies to lossy output.
type ImageSettings struct {
	MaxWidth  int
	MaxHeight int
	Quality   float64
}

// Presets lists every preset from largest to smallest output.
var Presets = []Preset{PresetOriginal, PresetHigh, PresetMedium, PresetLow}

// Settings returns the bounds for p. ok is false for PresetOriginal, which
// leaves images untouched, and for values outside the enumeration.
func (p Preset) Settings() (s ImageSettings, ok bool) {
	switch p {
	case PresetHigh:
		return ImageSettings{MaxWidth: 1920, MaxHeight: 1080, Quality: 0.9}, true
	case PresetMedium:
		return ImageSettings{MaxWidth: 1280, MaxHeight: 720, Quality: 0.8}, true
	case PresetLow:
		return ImageSettings{MaxWidth: 800, MaxHeight: 600, Quality: 0.6}, true
	default:
		return ImageSettings{}, false
	}
}

func (p Preset) String() string {
	switch p {
	case PresetOriginal:
		return "original"
	case PresetHigh:
		return "high"
	case PresetMedium:
		return "medium"
	case PresetLow:
		return "low"
	default:
		return "unknown"
	}
}

// Valid reports whether p is one of the enumerated presets.
func (p Preset) Valid() bool {
	return p >= PresetOriginal && p <= PresetLow
}

// ParsePreset accepts exactly the names returned by Preset.String.
func ParsePreset(s string) (Preset, error) {
	for _, p := range Presets {
		if p.String() == s {
			return p, nil
		}
	}
	return 0, fmt.Errorf("%w: %q", ErrUnknownPreset, s)
}

// Normalize re-encodes img so that it fits the bounds of preset.
//
// PresetOriginal returns img as is. Otherwise the image is scaled down, never
// up, by a single ratio so both sides fit, and re-encoded: PNG input stays PNG
// (lossless, quality ignored) and everything else becomes JPEG at the preset
// quality.
//
// Undecodable or oversized input returns an error matching ErrInvalidImage.
// An encoder failure is returned without that sentinel.
func Normalize(ctx context.Context, img ImageBlob, preset Preset, opts ...ImageOption) (ImageBlob, error) {
	cfg := imageConfig{limits: defaultImageLimits()}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()

	if !preset.Valid() {
		return ImageBlob{}, fmt.Errorf("%w: %d", ErrUnknownPreset, int(preset))
	}
	settings, ok := preset.Settings()
	if !ok {
		return img, nil
	}
	if err := ctx.Err(); err != nil {
		return ImageBlob{}, err
	}

	hdr, format, err := image.DecodeConfig(bytes.NewReader(img.Data))
	if err != nil {
		return ImageBlob{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}
	if err := validateImageBounds(hdr.Width, hdr.Height, cfg.limits); err != nil {
		return ImageBlob{}, err
	}
	src, _, err := image.Decode(bytes.NewReader(img.Data))
	if err != nil {
		return ImageBlob{}, fmt.Errorf("%w: %v", ErrInvalidImage, err)
	}

	b := src.Bounds()
	w, h := fitWithin(b.Dx(), b.Dy(), settings.MaxWidth, settings.MaxHeight)
	dst := image.NewRGBA(image.Rect(0, 0, w, h))
	draw.CatmullRom.Scale(dst, dst.Bounds(), src, b, draw.Src, nil)

	if err := ctx.Err(); err != nil {
		return ImageBlob{}, err
	}

	mimeType := baseMIMEType(img.MIMEType)
	if mimeType == "" {
		mimeType = "image/" + format
	}
	var buf bytes.Buffer
	if mimeType == MIMEPNG {
		enc := png.Encoder{CompressionLevel: png.BestCompression}
		err = enc.Encode(&buf, dst)
	} else {
		mimeType = MIMEJPEG
		err = jpeg.Encode(&buf, dst, &jpeg.Options{Quality: jpegQuality(settings.Quality)})
	}
	if err != nil {
		return ImageBlob{}, fmt.Errorf("hashdoc: re-encode %s: %w", mimeType, err)
	}
	return ImageBlob{MIMEType: mimeType, Data: buf.Bytes(), Width: w, Height: h}, nil
}

// fitWithin scales (w, h) down by min(maxW/w, maxH/h) when either side is
// over its bound, rounding each side to the nearest pixel.
func fitWithin(w, h, maxW, maxH int) (int, int) {
	if w <= maxW && h <= maxH {
		return w, h
	}
	ratio := math.Min(float64(maxW)/float64(w), float64(maxH)/float64(h))
	nw := int(math.Round(float64(w) * ratio))
	nh := int(math.Round(float64(h) * ratio))
	return max(nw, 1), max(nh, 1)
}

func validateImageBounds(w, h int, l ImageLimits) error {
	if w <= 0 || h <= 0 {
		return fmt.Errorf("%w: bounds invalid (%d x %d)", ErrInvalidImage, w, h)
	}
	if w > l.MaxDimension || h > l.MaxDimension {
		return fmt.Errorf("%w: %w: dimension exceeds limit (%d x %d)", ErrInvalidImage, ErrLimitExceeded, w, h)
	}
	if px := int64(w) * int64(h); px > l.MaxPixels {
		return fmt.Errorf("%w: %w: pixel count %d exceeds %d", ErrInvalidImage, ErrLimitExceeded, px, l.MaxPixels)
	}
	return nil
}

func jpegQuality(q float64) int {
	return min(max(int(math.Round(q*100)), 1), 100)
}

func baseMIMEType(s string) string {
	if i := strings.IndexByte(s, ';'); i >= 0 {
		s = s[:i]
	}
	return strings.ToLower(strings.TrimSpace(s))
}
