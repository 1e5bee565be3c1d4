package compose

import (
	"log/slog"
	"runtime"

	hashdoc "github.com/logicossoftware/go-hashdoc"
)

// Config configures a composition Session.
type Config struct {
	// Preset names the image quality applied to pasted images:
	// original, high, medium or low (default: medium).
	Preset string

	// Algorithm used for tokens (default: brotli).
	Algorithm hashdoc.Algorithm

	// Limits for the codec; zero fields take the codec defaults.
	Limits hashdoc.Limits

	// ImageLimits bounds pasted images; zero fields take the defaults.
	ImageLimits hashdoc.ImageLimits

	// MaxConcurrentImages bounds how many images the session decodes at once,
	// across every Paste and PasteAll call (default: GOMAXPROCS).
	MaxConcurrentImages int

	// BaseURL is the prefix preview links are built on (default: "/").
	BaseURL string

	// Logger for paste and share events.
	Logger *slog.Logger
}

func (c *Config) defaults() {
	if c.Preset == "" {
		c.Preset = hashdoc.DefaultPreset.String()
	}
	if c.Algorithm == 0 {
		c.Algorithm = hashdoc.AlgBrotli
	}
	if c.MaxConcurrentImages <= 0 {
		c.MaxConcurrentImages = runtime.GOMAXPROCS(0)
	}
	if c.BaseURL == "" {
		c.BaseURL = "/"
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
