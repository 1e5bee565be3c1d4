// Package compose drives the authoring side: pasted images are normalized
// before they enter the document, every edit gets live size feedback, and an
// explicit share request produces a preview link or a reason why it cannot.
//
// The document itself belongs to the editor. A Session only ever receives
// snapshots of it and never keeps one between calls.
package compose

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"sync"

	hashdoc "github.com/logicossoftware/go-hashdoc"
)

// Session holds the user's settings for one editing session.
type Session struct {
	cfg    Config
	logger *slog.Logger

	mu     sync.RWMutex
	preset hashdoc.Preset

	// sem holds one slot per image being decoded.
	sem chan struct{}
}

// normalize is swapped in tests.
var normalize = hashdoc.Normalize

// Link is a shareable preview link.
type Link struct {
	Token string
	URL   string
	hashdoc.Stats
}

// PasteResult is the outcome of one pasted image.
//
// When the image could not be decoded, Image is the original and Fallback is
// true; Err still carries the reason. When Err is set and Fallback is false,
// Image is empty and nothing should be inserted.
type PasteResult struct {
	Image    hashdoc.ImageBlob
	Fallback bool
	Err      error
}

// New creates a Session. It fails on an unknown preset name or algorithm.
func New(cfg Config) (*Session, error) {
	cfg.defaults()
	preset, err := hashdoc.ParsePreset(cfg.Preset)
	if err != nil {
		return nil, err
	}
	if !cfg.Algorithm.Valid() {
		return nil, fmt.Errorf("%w: %q", hashdoc.ErrUnknownAlgorithm, byte(cfg.Algorithm))
	}
	return &Session{
		cfg:    cfg,
		logger: cfg.Logger,
		preset: preset,
		sem:    make(chan struct{}, cfg.MaxConcurrentImages),
	}, nil
}

// Preset returns the preset applied to the next paste.
func (s *Session) Preset() hashdoc.Preset {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.preset
}

// SetPreset changes the preset for subsequent pastes. Pastes already in
// flight keep the preset they started with.
func (s *Session) SetPreset(p hashdoc.Preset) error {
	if !p.Valid() {
		return fmt.Errorf("%w: %d", hashdoc.ErrUnknownPreset, int(p))
	}
	s.mu.Lock()
	s.preset = p
	s.mu.Unlock()
	return nil
}

func (s *Session) encodeOptions() []hashdoc.EncodeOption {
	return []hashdoc.EncodeOption{
		hashdoc.WithAlgorithm(s.cfg.Algorithm),
		hashdoc.WithLimits(s.cfg.Limits),
	}
}

// Stats encodes a snapshot of the document for the live size indicator. It
// reports StatusError instead of failing when the document is too large.
func (s *Session) Stats(doc string) hashdoc.Stats {
	res, err := hashdoc.Encode(doc, s.encodeOptions()...)
	if err == nil {
		return res.Stats
	}
	var tooLarge *hashdoc.TooLargeError
	if errors.As(err, &tooLarge) {
		return tooLarge.Stats
	}
	s.logger.Error("encode for stats failed", "error", err)
	return hashdoc.Stats{RawSize: len(doc), Status: hashdoc.StatusError}
}

// Share encodes the document into a preview link. A document over the size
// ceiling returns the *hashdoc.TooLargeError and no link.
func (s *Session) Share(doc string) (*Link, error) {
	res, err := hashdoc.Encode(doc, s.encodeOptions()...)
	if err != nil {
		s.logger.Warn("share refused", "error", err)
		return nil, err
	}
	link := &Link{
		Token: res.Token,
		URL:   PreviewURL(s.cfg.BaseURL, res.Token),
		Stats: res.Stats,
	}
	s.logger.Info("preview link created",
		"raw", hashdoc.FormatBytes(res.RawSize),
		"token", hashdoc.FormatBytes(res.CompressedSize),
		"status", res.Status)
	return link, nil
}

// PreviewURL builds the preview link for token under base.
func PreviewURL(base, token string) string {
	return strings.TrimSuffix(base, "/") + "/preview#" + token
}

// Paste normalizes one pasted image with the current preset.
func (s *Session) Paste(ctx context.Context, img hashdoc.ImageBlob) PasteResult {
	return s.paste(ctx, img, s.Preset())
}

// PasteWithPreset normalizes one image with preset instead of the session
// preset.
func (s *Session) PasteWithPreset(ctx context.Context, img hashdoc.ImageBlob, preset hashdoc.Preset) PasteResult {
	if !preset.Valid() {
		return PasteResult{Err: fmt.Errorf("%w: %d", hashdoc.ErrUnknownPreset, int(preset))}
	}
	return s.paste(ctx, img, preset)
}

func (s *Session) paste(ctx context.Context, img hashdoc.ImageBlob, preset hashdoc.Preset) PasteResult {
	select {
	case s.sem <- struct{}{}:
		defer func() { <-s.sem }()
	case <-ctx.Done():
		return PasteResult{Err: ctx.Err()}
	}
	out, err := normalize(ctx, img, preset, hashdoc.WithImageLimits(s.cfg.ImageLimits))
	switch {
	case err == nil:
		s.logger.Debug("image normalized",
			"preset", preset,
			"before", hashdoc.FormatBytes(len(img.Data)),
			"after", hashdoc.FormatBytes(len(out.Data)))
		return PasteResult{Image: out}
	case errors.Is(err, hashdoc.ErrInvalidImage):
		s.logger.Warn("image normalize failed, inserting original", "preset", preset, "error", err)
		return PasteResult{Image: img, Fallback: true, Err: err}
	default:
		return PasteResult{Err: err}
	}
}

// PasteAll normalizes several pasted images concurrently, at most
// Config.MaxConcurrentImages at a time. Completion order is unspecified;
// result i always belongs to imgs[i].
func (s *Session) PasteAll(ctx context.Context, imgs []hashdoc.ImageBlob) []PasteResult {
	preset := s.Preset()
	results := make([]PasteResult, len(imgs))
	var wg sync.WaitGroup
	for i := range imgs {
		wg.Go(func() {
			results[i] = s.paste(ctx, imgs[i], preset)
		})
	}
	wg.Wait()
	return results
}
