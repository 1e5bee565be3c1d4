package hashdoc

import "fmt"

// Encode compresses doc into a URL-safe token.
//
// The returned Stats describe the raw document size in bytes, the token length
// in characters and the percentage saved. If the token is longer than
// Limits.MaxTokenLength, Encode returns a *TooLargeError (matching
// ErrTooLarge) carrying the same Stats and no token: a token that long would
// be truncated in transit and could never be decoded.
//
// A document longer than Limits.MaxDecodedSize is refused with an error
// matching ErrLimitExceeded, since Decode would reject its token.
//
// By default, Encode uses Brotli (AlgBrotli) and the MaxTokenLength ceiling.
// Use EncodeOption functions to customize this behavior:
//   - WithAlgorithm(a): select another compression transform
//   - WithLimits(l): set a different ceiling
func Encode(doc string, opts ...EncodeOption) (*Result, error) {
	cfg := encodeConfig{limits: defaultLimits(), algorithm: AlgBrotli}
	for _, opt := range opts {
		opt(&cfg)
	}
	cfg.limits = cfg.limits.withDefaults()
	if !cfg.algorithm.Valid() {
		return nil, fmt.Errorf("%w: %q", ErrUnknownAlgorithm, byte(cfg.algorithm))
	}
	if len(doc) > cfg.limits.MaxDecodedSize {
		return nil, fmt.Errorf("%w: document is %d bytes, decoders accept at most %d", ErrLimitExceeded, len(doc), cfg.limits.MaxDecodedSize)
	}

	payload, err := compressPayload(cfg.algorithm, []byte(doc))
	if err != nil {
		return nil, fmt.Errorf("hashdoc: encoding failed: %w", err)
	}
	token := marshalToken(cfg.algorithm, payload)

	stats := Stats{
		RawSize:        len(doc),
		CompressedSize: len(token),
		Ratio:          compressionRatio(len(doc), len(token)),
		Status:         ClassifyLimit(len(token), cfg.limits.MaxTokenLength),
	}
	if stats.Status == StatusError {
		return nil, &TooLargeError{Stats: stats, Limit: cfg.limits.MaxTokenLength}
	}
	return &Result{Token: token, Stats: stats}, nil
}
